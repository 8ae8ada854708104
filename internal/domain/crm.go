package domain

// Customer CRM customer with contract bookkeeping
type Customer struct {
	ID            int64   `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	Name          string  `gorm:"index;not null" json:"name"`
	ContractStart string  `gorm:"size:32" json:"contract_start"`
	ContractEnd   string  `gorm:"size:32" json:"contract_end"`
	ProductType   string  `json:"product_type"`
	ContractValue float64 `gorm:"default:0" json:"contract_value"`
	Status        string  `gorm:"size:32;default:active" json:"status"`
	Note          string  `json:"note"`
	CreatedAt     string  `gorm:"size:32;not null" json:"created_at"`
	UpdatedAt     string  `gorm:"size:32;index;not null" json:"updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}

// Staff member that customers can be assigned to
type Staff struct {
	ID        int64  `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	Name      string `gorm:"index;not null" json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Note      string `json:"note"`
	CreatedAt string `gorm:"size:32;not null" json:"created_at"`
	UpdatedAt string `gorm:"size:32;not null" json:"updated_at"`
}

func (Staff) TableName() string {
	return "staff"
}

// Assignment links a staff member to a customer, one row per pair
type Assignment struct {
	StaffID    int64  `gorm:"primaryKey;autoIncrement:false" json:"staff_id,string"`
	CustomerID int64  `gorm:"primaryKey;autoIncrement:false;index" json:"customer_id,string"`
	CreatedAt  string `gorm:"size:32;not null" json:"created_at"`
}

func (Assignment) TableName() string {
	return "staff_customers"
}

// AssignmentView is the joined listing row
type AssignmentView struct {
	StaffID      int64  `json:"staff_id,string"`
	StaffName    string `json:"staff_name"`
	CustomerID   int64  `json:"customer_id,string"`
	CustomerName string `json:"customer_name"`
	CreatedAt    string `json:"created_at"`
}
