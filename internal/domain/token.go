package domain

const (
	TokenTypeLogin  = "login"
	TokenTypeLogout = "logout"
)

// AuthToken single-use credential. UsedAt is nil until consumed.
type AuthToken struct {
	Token     string  `gorm:"primaryKey;size:64" json:"token"`
	Type      string  `gorm:"size:16;not null" json:"type"`
	ExpiresAt string  `gorm:"size:32;index;not null" json:"expires_at"`
	UsedAt    *string `gorm:"size:32" json:"used_at"`
	UsedBy    string  `gorm:"size:128" json:"used_by"`
	CreatedBy string  `gorm:"size:128" json:"created_by"`
	CreatedAt string  `gorm:"size:32;not null" json:"created_at"`
}

func (AuthToken) TableName() string {
	return "auth_tokens"
}

// ValidTokenType reports whether t is an issuable token type
func ValidTokenType(t string) bool {
	return t == TokenTypeLogin || t == TokenTypeLogout
}
