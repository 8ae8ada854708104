package domain

// Setting keys
const (
	SettingAdminCode     = "admin_code"
	SettingInstallURL    = "app_install_url"
	SettingPublicBaseURL = "public_base_url"
)

// SysSetting durable key/value pair
type SysSetting struct {
	Key       string `gorm:"primaryKey;size:64" json:"key"`
	Value     string `json:"value"`
	UpdatedAt string `gorm:"size:32" json:"updated_at"`
}

// TableName Specify table name
func (SysSetting) TableName() string {
	return "sys_setting"
}
