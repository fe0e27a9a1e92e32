package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aikyn/invoice-engine/internal/model"
	"github.com/aikyn/invoice-engine/internal/pricing"
	"github.com/aikyn/invoice-engine/internal/schedule"
)

// CustomerAdminStore is the write side of customer onboarding: vendors,
// customers, contracts and schedules.
type CustomerAdminStore interface {
	CreateVendor(ctx context.Context, vendor *model.Vendor) error
	ListVendors(ctx context.Context) ([]model.Vendor, error)
	CreateCustomer(ctx context.Context, customer *model.Customer) error
	UpdateCustomer(ctx context.Context, customer *model.Customer) error
	DeactivateCustomer(ctx context.Context, id uuid.UUID) error
	UpsertContract(ctx context.Context, contract *model.Contract) error
	UpsertSchedule(ctx context.Context, sched *model.ScheduleConfig) error
	SetScheduleEnabled(ctx context.Context, customerID uuid.UUID, enabled bool) error
	GetActive(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	ListActive(ctx context.Context, ids []uuid.UUID) ([]model.Customer, error)
}

// Management handles the onboarding surface: everything a customer needs
// before the engine can bill it.
type Management struct {
	customers CustomerAdminStore
	log       zerolog.Logger
}

func NewManagement(customers CustomerAdminStore, log zerolog.Logger) *Management {
	return &Management{customers: customers, log: log}
}

func (m *Management) CreateVendor(ctx context.Context, vendor *model.Vendor) (*model.Vendor, error) {
	vendor.Name = strings.TrimSpace(vendor.Name)
	vendor.Email = strings.TrimSpace(vendor.Email)
	if vendor.Name == "" || vendor.Email == "" {
		return nil, fmt.Errorf("%w: vendor name and email are required", ErrInvalidInput)
	}
	if err := m.customers.CreateVendor(ctx, vendor); err != nil {
		return nil, err
	}
	m.log.Info().Str("vendor", vendor.Name).Msg("vendor created")
	return vendor, nil
}

func (m *Management) ListVendors(ctx context.Context) ([]model.Vendor, error) {
	return m.customers.ListVendors(ctx)
}

func (m *Management) CreateCustomer(ctx context.Context, customer *model.Customer) (*model.Customer, error) {
	if err := validateCustomer(customer); err != nil {
		return nil, err
	}
	if customer.VendorID == uuid.Nil {
		return nil, fmt.Errorf("%w: vendor_id is required", ErrInvalidInput)
	}
	if err := m.customers.CreateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	m.log.Info().Str("customer", customer.Name).Msg("customer created")
	return customer, nil
}

func (m *Management) UpdateCustomer(ctx context.Context, id uuid.UUID, customer *model.Customer) (*model.Customer, error) {
	existing, err := m.customers.GetActive(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "customer %s", id)
	}
	if err := validateCustomer(customer); err != nil {
		return nil, err
	}
	customer.ID = existing.ID
	if err := m.customers.UpdateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	return m.customers.GetActive(ctx, id)
}

func (m *Management) DeactivateCustomer(ctx context.Context, id uuid.UUID) error {
	if _, err := m.customers.GetActive(ctx, id); err != nil {
		return notFoundOr(err, "customer %s", id)
	}
	if err := m.customers.DeactivateCustomer(ctx, id); err != nil {
		return err
	}
	m.log.Info().Str("customer_id", id.String()).Msg("customer deactivated")
	return nil
}

func (m *Management) GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	customer, err := m.customers.GetActive(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "customer %s", id)
	}
	return customer, nil
}

func (m *Management) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	return m.customers.ListActive(ctx, nil)
}

// SetContract creates or replaces the customer's billing terms.
func (m *Management) SetContract(ctx context.Context, customerID uuid.UUID, contract *model.Contract) (*model.Customer, error) {
	if _, err := m.customers.GetActive(ctx, customerID); err != nil {
		return nil, notFoundOr(err, "customer %s", customerID)
	}
	if err := validateContract(contract); err != nil {
		return nil, err
	}
	contract.CustomerID = customerID
	if err := m.customers.UpsertContract(ctx, contract); err != nil {
		return nil, err
	}
	return m.customers.GetActive(ctx, customerID)
}

// SetSchedule creates or replaces the customer's recurrence anchor.
func (m *Management) SetSchedule(ctx context.Context, customerID uuid.UUID, sched *model.ScheduleConfig) (*model.Customer, error) {
	if _, err := m.customers.GetActive(ctx, customerID); err != nil {
		return nil, notFoundOr(err, "customer %s", customerID)
	}
	if err := validateSchedule(sched); err != nil {
		return nil, err
	}
	sched.CustomerID = customerID
	if err := m.customers.UpsertSchedule(ctx, sched); err != nil {
		return nil, err
	}
	return m.customers.GetActive(ctx, customerID)
}

// ToggleSchedule flips scheduled generation for a customer.
func (m *Management) ToggleSchedule(ctx context.Context, customerID uuid.UUID, enabled bool) error {
	err := m.customers.SetScheduleEnabled(ctx, customerID, enabled)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNoSchedule, customerID)
	}
	return err
}

// InvoicePreview shows what the next scheduled run would bill, priced from
// the contract defaults. Nothing is persisted.
type InvoicePreview struct {
	CustomerID    uuid.UUID              `json:"customer_id"`
	Frequency     model.BillingFrequency `json:"frequency"`
	NextRunDate   time.Time              `json:"next_run_date"`
	PeriodStart   time.Time              `json:"period_start"`
	PeriodEnd     time.Time              `json:"period_end"`
	TotalHours    string                 `json:"total_hours"`
	RatePerHour   string                 `json:"rate_per_hour"`
	LaborSubtotal string                 `json:"labor_subtotal"`
	ExtraFees     string                 `json:"extra_fees"`
	Subtotal      string                 `json:"subtotal"`
	TaxAmount     string                 `json:"tax_amount"`
	Total         string                 `json:"total"`
}

// PreviewNextInvoice computes the next due date from `from` and prices the
// period it would cover.
func (m *Management) PreviewNextInvoice(ctx context.Context, customerID uuid.UUID, from time.Time) (*InvoicePreview, error) {
	customer, err := m.customers.GetActive(ctx, customerID)
	if err != nil {
		return nil, notFoundOr(err, "customer %s", customerID)
	}
	if customer.Contract == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoContract, customer.Name)
	}
	if customer.Schedule == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSchedule, customer.Name)
	}

	nextRun, err := schedule.NextDueDate(schedule.DateOnly(from), customer.Contract.Frequency, *customer.Schedule)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	periodStart, periodEnd, err := schedule.ComputeBillingPeriod(nextRun, customer.Contract.Frequency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	amounts := pricing.Price(
		customer.Contract.DefaultHours,
		customer.Contract.RatePerHour,
		customer.Contract.ExtraFees,
		customer.Contract.TaxRate,
	)
	return &InvoicePreview{
		CustomerID:    customer.ID,
		NextRunDate:   nextRun,
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		TotalHours:    customer.Contract.DefaultHours.StringFixed(2),
		RatePerHour:   customer.Contract.RatePerHour.StringFixed(2),
		LaborSubtotal: amounts.LaborSubtotal.StringFixed(2),
		ExtraFees:     customer.Contract.ExtraFees.StringFixed(2),
		Subtotal:      amounts.Subtotal.StringFixed(2),
		TaxAmount:     amounts.TaxAmount.StringFixed(2),
		Total:         amounts.Total.StringFixed(2),
		Frequency:     customer.Contract.Frequency,
	}, nil
}

func validateCustomer(customer *model.Customer) error {
	customer.Name = strings.TrimSpace(customer.Name)
	customer.Email = strings.TrimSpace(customer.Email)
	if customer.Name == "" || customer.Email == "" {
		return fmt.Errorf("%w: customer name and email are required", ErrInvalidInput)
	}
	return nil
}

func validateContract(contract *model.Contract) error {
	contract.InvoicePrefix = strings.ToUpper(strings.TrimSpace(contract.InvoicePrefix))
	if contract.InvoicePrefix == "" {
		return fmt.Errorf("%w: invoice_prefix is required", ErrInvalidInput)
	}
	switch contract.Frequency {
	case model.FrequencyWeekly, model.FrequencyBiweekly, model.FrequencyMonthly:
	default:
		return fmt.Errorf("%w: unsupported frequency %q", ErrInvalidInput, contract.Frequency)
	}
	if contract.RatePerHour.IsNegative() || contract.DefaultHours.IsNegative() || contract.ExtraFees.IsNegative() {
		return fmt.Errorf("%w: amounts must not be negative", ErrInvalidInput)
	}
	if contract.TaxRate.IsNegative() || contract.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: tax_rate must be a fraction between 0 and 1", ErrInvalidInput)
	}
	return nil
}

func validateSchedule(sched *model.ScheduleConfig) error {
	if sched.BillingWeekday < 0 || sched.BillingWeekday > 6 {
		return fmt.Errorf("%w: billing_weekday must be 0 (Monday) through 6 (Sunday)", ErrInvalidInput)
	}
	if sched.BillingDay < 1 || sched.BillingDay > 31 {
		return fmt.Errorf("%w: billing_day must be 1 through 31", ErrInvalidInput)
	}
	if sched.AnchorDate.IsZero() {
		return fmt.Errorf("%w: anchor_date is required", ErrInvalidInput)
	}
	if sched.Timezone == "" {
		sched.Timezone = "UTC"
	}
	return nil
}

func notFoundOr(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: "+format, append([]interface{}{ErrNotFound}, args...)...)
	}
	return err
}
