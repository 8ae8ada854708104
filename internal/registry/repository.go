package registry

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/talkincode/qrfactory/internal/domain"
)

const (
	ListLimit       = 5000
	SearchListLimit = 2000
)

// ProductFilter selects a product listing. Since takes precedence over Query.
type ProductFilter struct {
	Query string
	Since string
}

// ProductRepository persists products keyed by their natural code.
type ProductRepository interface {
	// Upsert inserts the product or replaces every mutable field of the row
	// with the same code. created_at of an existing row is kept.
	Upsert(ctx context.Context, p *domain.Product) error
	GetByCode(ctx context.Context, code string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
}

// CustomerRepository persists customers keyed by surrogate id.
type CustomerRepository interface {
	// Save inserts the row or updates it in place when the id exists.
	Save(ctx context.Context, c *domain.Customer) error
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.Customer, error)
}

// StaffRepository persists staff keyed by surrogate id.
type StaffRepository interface {
	Save(ctx context.Context, s *domain.Staff) error
	GetByID(ctx context.Context, id int64) (*domain.Staff, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.Staff, error)
}

// AssignmentRepository manages staff/customer pairs
type AssignmentRepository interface {
	Add(ctx context.Context, a *domain.Assignment) error
	Remove(ctx context.Context, staffID, customerID int64) error
	DeleteByCustomer(ctx context.Context, customerID int64) error
	DeleteByStaff(ctx context.Context, staffID int64) error
	List(ctx context.Context) ([]domain.AssignmentView, error)
}

// GormProductRepository is the GORM implementation of ProductRepository
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

var productMutableColumns = []string{
	"product_name", "batch_serial", "mfg_date", "exp_date", "note_extra", "status", "updated_at",
}

func (r *GormProductRepository) Upsert(ctx context.Context, p *domain.Product) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns(productMutableColumns),
	}).Create(p).Error
}

func (r *GormProductRepository) GetByCode(ctx context.Context, code string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&p).Error
	return &p, err
}

func (r *GormProductRepository) List(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	query := r.db.WithContext(ctx).Model(&domain.Product{})
	limit := ListLimit
	switch {
	case filter.Since != "":
		query = query.Where("updated_at > ?", filter.Since)
	case filter.Query != "":
		like := "%" + filter.Query + "%"
		query = query.Where("code LIKE ? OR product_name LIKE ? OR batch_serial LIKE ?", like, like, like)
		limit = SearchListLimit
	}
	var rows []domain.Product
	err := query.Order("updated_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// GormCustomerRepository is the GORM implementation of CustomerRepository
type GormCustomerRepository struct {
	db *gorm.DB
}

func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

func (r *GormCustomerRepository) Save(ctx context.Context, c *domain.Customer) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "contract_start", "contract_end", "product_type",
			"contract_value", "status", "note", "updated_at",
		}),
	}).Create(c).Error
}

func (r *GormCustomerRepository) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	var c domain.Customer
	err := r.db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *GormCustomerRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&domain.Customer{}, id).Error
}

func (r *GormCustomerRepository) List(ctx context.Context) ([]domain.Customer, error) {
	var rows []domain.Customer
	err := r.db.WithContext(ctx).Order("updated_at DESC").Limit(ListLimit).Find(&rows).Error
	return rows, err
}

// GormStaffRepository is the GORM implementation of StaffRepository
type GormStaffRepository struct {
	db *gorm.DB
}

func NewGormStaffRepository(db *gorm.DB) *GormStaffRepository {
	return &GormStaffRepository{db: db}
}

func (r *GormStaffRepository) Save(ctx context.Context, s *domain.Staff) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "phone", "note", "updated_at"}),
	}).Create(s).Error
}

func (r *GormStaffRepository) GetByID(ctx context.Context, id int64) (*domain.Staff, error) {
	var s domain.Staff
	err := r.db.WithContext(ctx).First(&s, id).Error
	return &s, err
}

func (r *GormStaffRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&domain.Staff{}, id).Error
}

func (r *GormStaffRepository) List(ctx context.Context) ([]domain.Staff, error) {
	var rows []domain.Staff
	err := r.db.WithContext(ctx).Order("name ASC").Order("id ASC").Limit(ListLimit).Find(&rows).Error
	return rows, err
}

// GormAssignmentRepository is the GORM implementation of AssignmentRepository
type GormAssignmentRepository struct {
	db *gorm.DB
}

func NewGormAssignmentRepository(db *gorm.DB) *GormAssignmentRepository {
	return &GormAssignmentRepository{db: db}
}

func (r *GormAssignmentRepository) Add(ctx context.Context, a *domain.Assignment) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(a).Error
}

func (r *GormAssignmentRepository) Remove(ctx context.Context, staffID, customerID int64) error {
	return r.db.WithContext(ctx).
		Where("staff_id = ? AND customer_id = ?", staffID, customerID).
		Delete(&domain.Assignment{}).Error
}

func (r *GormAssignmentRepository) DeleteByCustomer(ctx context.Context, customerID int64) error {
	return r.db.WithContext(ctx).Where("customer_id = ?", customerID).Delete(&domain.Assignment{}).Error
}

func (r *GormAssignmentRepository) DeleteByStaff(ctx context.Context, staffID int64) error {
	return r.db.WithContext(ctx).Where("staff_id = ?", staffID).Delete(&domain.Assignment{}).Error
}

func (r *GormAssignmentRepository) List(ctx context.Context) ([]domain.AssignmentView, error) {
	var rows []domain.AssignmentView
	err := r.db.WithContext(ctx).
		Table("staff_customers AS a").
		Select("a.staff_id, s.name AS staff_name, a.customer_id, c.name AS customer_name, a.created_at").
		Joins("JOIN staff AS s ON s.id = a.staff_id").
		Joins("JOIN customers AS c ON c.id = a.customer_id").
		Order("s.name ASC").Order("c.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list assignments")
	}
	return rows, nil
}

// Repositories groups the registry repositories bound to one handle.
type Repositories struct {
	Products    ProductRepository
	Customers   CustomerRepository
	Staff       StaffRepository
	Assignments AssignmentRepository
}

// NewGormRepositories binds all repositories to db, which may be a transaction.
func NewGormRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Products:    NewGormProductRepository(db),
		Customers:   NewGormCustomerRepository(db),
		Staff:       NewGormStaffRepository(db),
		Assignments: NewGormAssignmentRepository(db),
	}
}
