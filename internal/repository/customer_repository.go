package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aikyn/invoice-engine/internal/model"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

type customerRow struct {
	ID              uuid.UUID
	VendorID        uuid.UUID
	Name            string
	Email           string
	AddressLine1    string
	AddressLine2    *string
	City            string
	Province        string
	PostalCode      string
	Country         string
	ContractorName  string
	ServiceLocation string
	IsActive        bool
	CreatedAt       time.Time

	VendorName       string
	VendorEmail      string
	VendorAddr1      string
	VendorAddr2      *string
	VendorCity       string
	VendorProvince   string
	VendorPostal     string
	VendorCountry    string
	VendorTaxNumber  string
	VendorContractor string
}

const customerSelect = `
	SELECT
		c.id,
		c.vendor_id,
		c.name,
		c.email,
		c.address_line1,
		c.address_line2,
		c.city,
		c.province,
		c.postal_code,
		c.country,
		c.contractor_name,
		c.service_location,
		c.is_active,
		c.created_at,
		v.name AS vendor_name,
		v.email AS vendor_email,
		v.address_line1 AS vendor_addr1,
		v.address_line2 AS vendor_addr2,
		v.city AS vendor_city,
		v.province AS vendor_province,
		v.postal_code AS vendor_postal,
		v.country AS vendor_country,
		v.tax_number AS vendor_tax_number,
		v.default_contractor AS vendor_contractor
	FROM customers c
	JOIN vendors v ON v.id = c.vendor_id
	WHERE c.is_active = TRUE
`

// GetActive loads one active customer with its vendor, contract and schedule
// eagerly. Contract and Schedule stay nil when not configured.
func (r *CustomerRepository) GetActive(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var row customerRow
	err := r.db.WithContext(ctx).Raw(customerSelect+` AND c.id = ?`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	customer := rowToCustomer(row)
	if err := r.attachContractAndSchedule(ctx, []*model.Customer{&customer}); err != nil {
		return nil, err
	}
	return &customer, nil
}

// ListActive returns active customers, optionally restricted to an id set,
// each with vendor, contract and schedule attached.
func (r *CustomerRepository) ListActive(ctx context.Context, ids []uuid.UUID) ([]model.Customer, error) {
	query := customerSelect
	args := []interface{}{}
	if len(ids) > 0 {
		placeholders := make([]string, len(ids))
		for i, id := range ids {
			placeholders[i] = "?"
			args = append(args, id)
		}
		query += " AND c.id IN (" + strings.Join(placeholders, ",") + ")"
	}
	query += " ORDER BY c.name ASC"

	var rows []customerRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	customers := make([]model.Customer, len(rows))
	refs := make([]*model.Customer, len(rows))
	for i, row := range rows {
		customers[i] = rowToCustomer(row)
		refs[i] = &customers[i]
	}
	if err := r.attachContractAndSchedule(ctx, refs); err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *CustomerRepository) attachContractAndSchedule(ctx context.Context, customers []*model.Customer) error {
	if len(customers) == 0 {
		return nil
	}
	index := make(map[uuid.UUID]*model.Customer, len(customers))
	idArgs := make([]interface{}, len(customers))
	placeholders := make([]string, len(customers))
	for i, c := range customers {
		index[c.ID] = c
		idArgs[i] = c.ID
		placeholders[i] = "?"
	}
	in := "(" + strings.Join(placeholders, ",") + ")"

	var contracts []model.Contract
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			customer_id,
			invoice_prefix,
			frequency,
			default_hours,
			rate_per_hour,
			tax_rate,
			payment_terms,
			extra_fees,
			extra_fees_label,
			notes,
			is_active,
			created_at
		FROM contracts
		WHERE is_active = TRUE AND customer_id IN `+in, idArgs...).Scan(&contracts).Error
	if err != nil {
		return err
	}
	for i := range contracts {
		if c, ok := index[contracts[i].CustomerID]; ok {
			c.Contract = &contracts[i]
		}
	}

	var schedules []model.ScheduleConfig
	err = r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			customer_id,
			is_enabled,
			auto_send_email,
			timezone,
			billing_weekday,
			anchor_date,
			billing_day,
			last_run_date,
			next_run_date,
			created_at
		FROM schedule_configs
		WHERE customer_id IN `+in, idArgs...).Scan(&schedules).Error
	if err != nil {
		return err
	}
	for i := range schedules {
		if c, ok := index[schedules[i].CustomerID]; ok {
			c.Schedule = &schedules[i]
		}
	}
	return nil
}

// CreateVendor persists a new invoicing company.
func (r *CustomerRepository) CreateVendor(ctx context.Context, vendor *model.Vendor) error {
	if vendor.ID == uuid.Nil {
		vendor.ID = uuid.New()
	}
	vendor.IsActive = true
	vendor.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO vendors (
			id, name, email, address_line1, address_line2, city, province,
			postal_code, country, tax_number, default_contractor, is_active, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		vendor.ID, vendor.Name, vendor.Email, vendor.AddressLine1, vendor.AddressLine2,
		vendor.City, vendor.Province, vendor.PostalCode, vendor.Country,
		vendor.TaxNumber, vendor.DefaultContractor, vendor.IsActive, vendor.CreatedAt,
	).Error
}

func (r *CustomerRepository) ListVendors(ctx context.Context) ([]model.Vendor, error) {
	var vendors []model.Vendor
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id, name, email, address_line1, address_line2, city, province,
			postal_code, country, tax_number, default_contractor, is_active, created_at
		FROM vendors
		WHERE is_active = TRUE
		ORDER BY name ASC
	`).Scan(&vendors).Error
	if err != nil {
		return nil, err
	}
	return vendors, nil
}

// CreateCustomer persists a new customer under its vendor.
func (r *CustomerRepository) CreateCustomer(ctx context.Context, customer *model.Customer) error {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	customer.IsActive = true
	customer.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO customers (
			id, vendor_id, name, email, address_line1, address_line2, city, province,
			postal_code, country, contractor_name, service_location, is_active, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		customer.ID, customer.VendorID, customer.Name, customer.Email,
		customer.AddressLine1, customer.AddressLine2, customer.City, customer.Province,
		customer.PostalCode, customer.Country, customer.ContractorName,
		customer.ServiceLocation, customer.IsActive, customer.CreatedAt,
	).Error
}

// UpdateCustomer rewrites the customer's contact and address fields; vendor
// and active flag stay as they are.
func (r *CustomerRepository) UpdateCustomer(ctx context.Context, customer *model.Customer) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE customers SET
			name = ?,
			email = ?,
			address_line1 = ?,
			address_line2 = ?,
			city = ?,
			province = ?,
			postal_code = ?,
			country = ?,
			contractor_name = ?,
			service_location = ?
		WHERE id = ?
	`,
		customer.Name, customer.Email, customer.AddressLine1, customer.AddressLine2,
		customer.City, customer.Province, customer.PostalCode, customer.Country,
		customer.ContractorName, customer.ServiceLocation, customer.ID,
	).Error
}

// DeactivateCustomer soft-deletes: the customer drops out of every active
// query but its invoices and logs remain.
func (r *CustomerRepository) DeactivateCustomer(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE customers SET is_active = FALSE WHERE id = ?
	`, id).Error
}

// UpsertContract creates or replaces the customer's single contract in place.
func (r *CustomerRepository) UpsertContract(ctx context.Context, contract *model.Contract) error {
	if contract.ID == uuid.Nil {
		contract.ID = uuid.New()
	}
	contract.IsActive = true
	contract.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO contracts (
			id, customer_id, invoice_prefix, frequency, default_hours, rate_per_hour,
			tax_rate, payment_terms, extra_fees, extra_fees_label, notes, is_active, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (customer_id) DO UPDATE SET
			invoice_prefix = EXCLUDED.invoice_prefix,
			frequency = EXCLUDED.frequency,
			default_hours = EXCLUDED.default_hours,
			rate_per_hour = EXCLUDED.rate_per_hour,
			tax_rate = EXCLUDED.tax_rate,
			payment_terms = EXCLUDED.payment_terms,
			extra_fees = EXCLUDED.extra_fees,
			extra_fees_label = EXCLUDED.extra_fees_label,
			notes = EXCLUDED.notes,
			is_active = TRUE
	`,
		contract.ID, contract.CustomerID, contract.InvoicePrefix, contract.Frequency,
		contract.DefaultHours, contract.RatePerHour, contract.TaxRate,
		contract.PaymentTerms, contract.ExtraFees, contract.ExtraFeesLabel,
		contract.Notes, contract.IsActive, contract.CreatedAt,
	).Error
}

// UpsertSchedule creates or replaces the customer's schedule. The advisory
// run cursor is preserved on update.
func (r *CustomerRepository) UpsertSchedule(ctx context.Context, sched *model.ScheduleConfig) error {
	if sched.ID == uuid.Nil {
		sched.ID = uuid.New()
	}
	sched.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO schedule_configs (
			id, customer_id, is_enabled, auto_send_email, timezone,
			billing_weekday, anchor_date, billing_day, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (customer_id) DO UPDATE SET
			is_enabled = EXCLUDED.is_enabled,
			auto_send_email = EXCLUDED.auto_send_email,
			timezone = EXCLUDED.timezone,
			billing_weekday = EXCLUDED.billing_weekday,
			anchor_date = EXCLUDED.anchor_date,
			billing_day = EXCLUDED.billing_day
	`,
		sched.ID, sched.CustomerID, sched.IsEnabled, sched.AutoSendEmail,
		sched.Timezone, sched.BillingWeekday, sched.AnchorDate, sched.BillingDay,
		sched.CreatedAt,
	).Error
}

// SetScheduleEnabled flips generation on or off without touching the rest of
// the schedule.
func (r *CustomerRepository) SetScheduleEnabled(ctx context.Context, customerID uuid.UUID, enabled bool) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE schedule_configs SET is_enabled = ? WHERE customer_id = ?
	`, enabled, customerID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateScheduleCursor advances the advisory last/next run dates after a
// successful scheduled generation.
func (r *CustomerRepository) UpdateScheduleCursor(ctx context.Context, customerID uuid.UUID, lastRun, nextRun time.Time) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE schedule_configs
		SET last_run_date = ?, next_run_date = ?
		WHERE customer_id = ?
	`, lastRun, nextRun, customerID).Error
}

func rowToCustomer(row customerRow) model.Customer {
	return model.Customer{
		ID:              row.ID,
		VendorID:        row.VendorID,
		Name:            row.Name,
		Email:           row.Email,
		AddressLine1:    row.AddressLine1,
		AddressLine2:    row.AddressLine2,
		City:            row.City,
		Province:        row.Province,
		PostalCode:      row.PostalCode,
		Country:         row.Country,
		ContractorName:  row.ContractorName,
		ServiceLocation: row.ServiceLocation,
		IsActive:        row.IsActive,
		CreatedAt:       row.CreatedAt,
		Vendor: model.Vendor{
			ID:                row.VendorID,
			Name:              row.VendorName,
			Email:             row.VendorEmail,
			AddressLine1:      row.VendorAddr1,
			AddressLine2:      row.VendorAddr2,
			City:              row.VendorCity,
			Province:          row.VendorProvince,
			PostalCode:        row.VendorPostal,
			Country:           row.VendorCountry,
			TaxNumber:         row.VendorTaxNumber,
			DefaultContractor: row.VendorContractor,
		},
	}
}
