package domain

// Product is a code issued by the factory. Code is the natural key.
type Product struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"-"`
	Code        string `gorm:"size:128;uniqueIndex;not null" json:"code"`
	ProductName string `gorm:"index;not null" json:"product_name"`
	BatchSerial string `json:"batch_serial"`
	MfgDate     string `gorm:"size:32" json:"mfg_date"`
	ExpDate     string `gorm:"size:32" json:"exp_date"`
	NoteExtra   string `json:"note_extra"`
	Status      string `gorm:"size:32;default:active" json:"status"`
	CreatedAt   string `gorm:"size:32;not null" json:"created_at"`
	UpdatedAt   string `gorm:"size:32;index;not null" json:"updated_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "products"
}
