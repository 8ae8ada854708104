package domain

import "gorm.io/datatypes"

// Audit actions
const (
	ActionUpsertProduct   = "UPSERT_PRODUCT"
	ActionCreateCustomer  = "CREATE_CUSTOMER"
	ActionUpsertCustomer  = "UPSERT_CUSTOMER"
	ActionDeleteCustomer  = "DELETE_CUSTOMER"
	ActionCreateStaff     = "CREATE_STAFF"
	ActionUpsertStaff     = "UPSERT_STAFF"
	ActionDeleteStaff     = "DELETE_STAFF"
	ActionSetAssignment   = "SET_ASSIGNMENT"
	ActionBulkImportExcel = "BULK_IMPORT_EXCEL"
	ActionIssueToken      = "ISSUE_TOKEN"
	ActionConsumeToken    = "CONSUME_TOKEN"
	ActionRotateAdminCode = "ROTATE_ADMIN_CODE"
	ActionSetInstallURL   = "SET_INSTALL_URL"
)

// AuditEntry is an immutable ledger row
type AuditEntry struct {
	ID     int64             `gorm:"primaryKey;autoIncrement" json:"id,string"`
	Ts     string            `gorm:"size:32;index;not null" json:"ts"`
	Actor  string            `gorm:"size:128" json:"actor"`
	Action string            `gorm:"size:32;index;not null" json:"action"`
	Code   string            `gorm:"size:255;index" json:"code"`
	Detail datatypes.JSONMap `json:"detail"`
}

func (AuditEntry) TableName() string {
	return "audit_log"
}
