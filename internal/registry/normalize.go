package registry

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/talkincode/qrfactory/internal/domain"
	"github.com/talkincode/qrfactory/pkg/common"
)

var dmyPattern = regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4})$`)

// NormalizeDMY keeps DD-MM-YYYY values and otherwise stores the trimmed
// input unchanged. Malformed dates are not rejected.
func NormalizeDMY(s string) string {
	s = strings.TrimSpace(s)
	if m := dmyPattern.FindString(s); m != "" {
		return m
	}
	return s
}

// MakeCode builds a readable product code: two random uppercase segments
// and the base-36 creation time. Uniqueness is enforced by the store.
func MakeCode(now time.Time) string {
	part := func() string { return strings.ToUpper(common.RandBase36(4)) }
	return part() + "-" + part() + "-" + strings.ToUpper(common.Base36Millis(now))
}

// ProductInput is the caller supplied product shape
type ProductInput struct {
	Code        string `json:"code" mapstructure:"code"`
	ProductName string `json:"product_name" mapstructure:"product_name"`
	BatchSerial string `json:"batch_serial" mapstructure:"batch_serial"`
	MfgDate     string `json:"mfg_date" mapstructure:"mfg_date"`
	ExpDate     string `json:"exp_date" mapstructure:"exp_date"`
	NoteExtra   string `json:"note_extra" mapstructure:"note_extra"`
	Status      string `json:"status" mapstructure:"status"`
}

// CustomerInput is the caller supplied customer shape
type CustomerInput struct {
	ID            common.FlexInt64 `json:"id" mapstructure:"id"`
	Name          string           `json:"name" mapstructure:"name"`
	ContractStart string           `json:"contract_start" mapstructure:"contract_start"`
	ContractEnd   string           `json:"contract_end" mapstructure:"contract_end"`
	ProductType   string           `json:"product_type" mapstructure:"product_type"`
	ContractValue float64          `json:"contract_value" mapstructure:"contract_value"`
	Status        string           `json:"status" mapstructure:"status"`
	Note          string           `json:"note" mapstructure:"note"`
}

// StaffInput is the caller supplied staff shape
type StaffInput struct {
	ID    common.FlexInt64 `json:"id" mapstructure:"id"`
	Name  string           `json:"name" mapstructure:"name"`
	Email string           `json:"email" mapstructure:"email"`
	Phone string           `json:"phone" mapstructure:"phone"`
	Note  string           `json:"note" mapstructure:"note"`
}

// CleanProduct trims and normalizes the input. A blank code is replaced by
// a generated one; a blank product name is an InvalidArgument.
func CleanProduct(in ProductInput, now time.Time) (domain.Product, error) {
	name := strings.TrimSpace(in.ProductName)
	if name == "" {
		return domain.Product{}, domain.InvalidArgument("product_name is required")
	}
	code := strings.TrimSpace(in.Code)
	if code == "" {
		code = MakeCode(now)
	}
	status := strings.ToLower(strings.TrimSpace(in.Status))
	if status == "" {
		status = common.ACTIVE
	}
	ts := common.FmtTime(now)
	return domain.Product{
		Code:        code,
		ProductName: name,
		BatchSerial: strings.TrimSpace(in.BatchSerial),
		MfgDate:     NormalizeDMY(in.MfgDate),
		ExpDate:     NormalizeDMY(in.ExpDate),
		NoteExtra:   strings.TrimSpace(in.NoteExtra),
		Status:      status,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}, nil
}

// CleanCustomer trims the input, clamps contract_value to >= 0 and assigns a
// new id when none was supplied.
func CleanCustomer(in CustomerInput, now time.Time) (domain.Customer, bool, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Customer{}, false, domain.InvalidArgument("name is required")
	}
	value := in.ContractValue
	if value < 0 || math.IsNaN(value) {
		value = 0
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = common.ACTIVE
	}
	id, created := in.ID.Int64(), false
	if id <= 0 {
		id, created = common.UUIDint64(), true
	}
	ts := common.FmtTime(now)
	return domain.Customer{
		ID:            id,
		Name:          name,
		ContractStart: NormalizeDMY(in.ContractStart),
		ContractEnd:   NormalizeDMY(in.ContractEnd),
		ProductType:   strings.TrimSpace(in.ProductType),
		ContractValue: value,
		Status:        status,
		Note:          strings.TrimSpace(in.Note),
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}, created, nil
}

// CleanStaff trims the input and assigns a new id when none was supplied.
func CleanStaff(in StaffInput, now time.Time) (domain.Staff, bool, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Staff{}, false, domain.InvalidArgument("name is required")
	}
	id, created := in.ID.Int64(), false
	if id <= 0 {
		id, created = common.UUIDint64(), true
	}
	ts := common.FmtTime(now)
	return domain.Staff{
		ID:        id,
		Name:      name,
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Note:      strings.TrimSpace(in.Note),
		CreatedAt: ts,
		UpdatedAt: ts,
	}, created, nil
}
