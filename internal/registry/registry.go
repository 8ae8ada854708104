// Package registry holds products, customers, staff and their assignments.
// Every mutation is validated first and audited after it commits.
package registry

import (
	"context"
	"errors"
	"strconv"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/talkincode/qrfactory/internal/audit"
	"github.com/talkincode/qrfactory/internal/domain"
	"github.com/talkincode/qrfactory/pkg/common"
)

// Registry is the entity service
type Registry struct {
	db    *gorm.DB
	repos Repositories
	audit audit.Sink
	now   func() time.Time
}

func New(db *gorm.DB, sink audit.Sink) *Registry {
	if sink == nil {
		sink = audit.Nop{}
	}
	return &Registry{
		db:    db,
		repos: NewGormRepositories(db),
		audit: sink,
		now:   time.Now,
	}
}

// WithClock replaces the timestamp source
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// Now returns the registry clock reading
func (r *Registry) Now() time.Time {
	return r.now()
}

func storageErr(err error, op string) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	zap.L().Error("registry storage error", zap.String("op", op), zap.Error(err))
	return domain.StorageFailure(pkgerrors.Wrap(err, op), op+" failed")
}

// SaveProduct cleans and upserts one product through repos without
// auditing. Bulk sync calls it with transaction bound repositories.
func SaveProduct(ctx context.Context, repos Repositories, in ProductInput, now time.Time) (*domain.Product, error) {
	p, err := CleanProduct(in, now)
	if err != nil {
		return nil, err
	}
	if err := repos.Products.Upsert(ctx, &p); err != nil {
		return nil, storageErr(err, "upsert product")
	}
	return &p, nil
}

// SaveCustomer cleans and saves one customer without auditing. The bool
// result reports whether a new id was assigned.
func SaveCustomer(ctx context.Context, repos Repositories, in CustomerInput, now time.Time) (*domain.Customer, bool, error) {
	c, created, err := CleanCustomer(in, now)
	if err != nil {
		return nil, false, err
	}
	if err := repos.Customers.Save(ctx, &c); err != nil {
		return nil, false, storageErr(err, "save customer")
	}
	return &c, created, nil
}

// SaveStaff cleans and saves one staff member without auditing.
func SaveStaff(ctx context.Context, repos Repositories, in StaffInput, now time.Time) (*domain.Staff, bool, error) {
	s, created, err := CleanStaff(in, now)
	if err != nil {
		return nil, false, err
	}
	if err := repos.Staff.Save(ctx, &s); err != nil {
		return nil, false, storageErr(err, "save staff")
	}
	return &s, created, nil
}

// UpsertProduct inserts or updates a product by code and returns the code.
func (r *Registry) UpsertProduct(ctx context.Context, actor string, in ProductInput) (string, error) {
	p, err := SaveProduct(ctx, r.repos, in, r.now())
	if err != nil {
		return "", err
	}
	r.audit.Append(ctx, audit.Entry{
		Actor:  actor,
		Action: domain.ActionUpsertProduct,
		Code:   p.Code,
		Detail: map[string]interface{}{
			"product_name": p.ProductName,
			"batch_serial": p.BatchSerial,
			"status":       p.Status,
		},
	})
	return p.Code, nil
}

// ListProducts returns products newest first, see ProductFilter.
func (r *Registry) ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	rows, err := r.repos.Products.List(ctx, filter)
	if err != nil {
		return nil, storageErr(err, "list products")
	}
	return rows, nil
}

func (r *Registry) GetProduct(ctx context.Context, code string) (*domain.Product, error) {
	if common.IsEmpty(code) {
		return nil, domain.InvalidArgument("code is required")
	}
	p, err := r.repos.Products.GetByCode(ctx, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("product %s not found", code)
	}
	if err != nil {
		return nil, storageErr(err, "get product")
	}
	return p, nil
}

// UpsertCustomer creates a customer when in.ID is zero, otherwise it
// upserts by id. The stored row is returned.
func (r *Registry) UpsertCustomer(ctx context.Context, actor string, in CustomerInput) (*domain.Customer, error) {
	c, created, err := SaveCustomer(ctx, r.repos, in, r.now())
	if err != nil {
		return nil, err
	}
	action := domain.ActionUpsertCustomer
	if created {
		action = domain.ActionCreateCustomer
	}
	r.audit.Append(ctx, audit.Entry{
		Actor:  actor,
		Action: action,
		Code:   strconv.FormatInt(c.ID, 10),
		Detail: map[string]interface{}{"name": c.Name, "status": c.Status},
	})
	return r.reloadCustomer(ctx, c)
}

func (r *Registry) reloadCustomer(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	stored, err := r.repos.Customers.GetByID(ctx, c.ID)
	if err != nil {
		return c, nil
	}
	return stored, nil
}

// UpsertStaff creates a staff member when in.ID is zero, otherwise it
// upserts by id.
func (r *Registry) UpsertStaff(ctx context.Context, actor string, in StaffInput) (*domain.Staff, error) {
	s, created, err := SaveStaff(ctx, r.repos, in, r.now())
	if err != nil {
		return nil, err
	}
	action := domain.ActionUpsertStaff
	if created {
		action = domain.ActionCreateStaff
	}
	r.audit.Append(ctx, audit.Entry{
		Actor:  actor,
		Action: action,
		Code:   strconv.FormatInt(s.ID, 10),
		Detail: map[string]interface{}{"name": s.Name},
	})
	if stored, err := r.repos.Staff.GetByID(ctx, s.ID); err == nil {
		return stored, nil
	}
	return s, nil
}

func (r *Registry) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.repos.Customers.List(ctx)
	if err != nil {
		return nil, storageErr(err, "list customers")
	}
	return rows, nil
}

func (r *Registry) ListStaff(ctx context.Context) ([]domain.Staff, error) {
	rows, err := r.repos.Staff.List(ctx)
	if err != nil {
		return nil, storageErr(err, "list staff")
	}
	return rows, nil
}

// DeleteCustomer removes the customer and its assignments in one
// transaction. Unknown ids are a no-op.
func (r *Registry) DeleteCustomer(ctx context.Context, actor string, id int64) error {
	if id == 0 {
		return domain.InvalidArgument("id is required")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := NewGormRepositories(tx)
		if err := repos.Assignments.DeleteByCustomer(ctx, id); err != nil {
			return err
		}
		return repos.Customers.Delete(ctx, id)
	})
	if err != nil {
		return storageErr(err, "delete customer")
	}
	r.audit.Append(ctx, audit.Entry{
		Actor:  actor,
		Action: domain.ActionDeleteCustomer,
		Code:   strconv.FormatInt(id, 10),
	})
	return nil
}

// DeleteStaff removes the staff member and its assignments in one
// transaction. Unknown ids are a no-op.
func (r *Registry) DeleteStaff(ctx context.Context, actor string, id int64) error {
	if id == 0 {
		return domain.InvalidArgument("id is required")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := NewGormRepositories(tx)
		if err := repos.Assignments.DeleteByStaff(ctx, id); err != nil {
			return err
		}
		return repos.Staff.Delete(ctx, id)
	})
	if err != nil {
		return storageErr(err, "delete staff")
	}
	r.audit.Append(ctx, audit.Entry{
		Actor:  actor,
		Action: domain.ActionDeleteStaff,
		Code:   strconv.FormatInt(id, 10),
	})
	return nil
}

// SetAssignment links (on) or unlinks a staff/customer pair. Both
// directions are idempotent.
func (r *Registry) SetAssignment(ctx context.Context, actor string, staffID, customerID int64, on bool) error {
	if staffID == 0 || customerID == 0 {
		return domain.InvalidArgument("staff_id and customer_id are required")
	}
	var err error
	if on {
		err = r.repos.Assignments.Add(ctx, &domain.Assignment{
			StaffID:    staffID,
			CustomerID: customerID,
			CreatedAt:  common.FmtTime(r.now()),
		})
	} else {
		err = r.repos.Assignments.Remove(ctx, staffID, customerID)
	}
	if err != nil {
		return storageErr(err, "set assignment")
	}
	r.audit.Append(ctx, audit.Entry{
		Actor:  actor,
		Action: domain.ActionSetAssignment,
		Code:   strconv.FormatInt(staffID, 10) + ":" + strconv.FormatInt(customerID, 10),
		Detail: map[string]interface{}{"on": on},
	})
	return nil
}

func (r *Registry) ListAssignments(ctx context.Context) ([]domain.AssignmentView, error) {
	rows, err := r.repos.Assignments.List(ctx)
	if err != nil {
		return nil, storageErr(err, "list assignments")
	}
	return rows, nil
}
