package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aikyn/invoice-engine/internal/model"
)

// testSchema mirrors the production migrations in sqlite-compatible DDL so
// repositories run their raw SQL unchanged against an in-memory database.
var testSchema = []string{
	`CREATE TABLE vendors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		address_line1 TEXT NOT NULL DEFAULT '',
		address_line2 TEXT,
		city TEXT NOT NULL DEFAULT '',
		province TEXT NOT NULL DEFAULT '',
		postal_code TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		tax_number TEXT NOT NULL DEFAULT '',
		default_contractor TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE customers (
		id TEXT PRIMARY KEY,
		vendor_id TEXT NOT NULL REFERENCES vendors(id),
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		address_line1 TEXT NOT NULL DEFAULT '',
		address_line2 TEXT,
		city TEXT NOT NULL DEFAULT '',
		province TEXT NOT NULL DEFAULT '',
		postal_code TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		contractor_name TEXT NOT NULL DEFAULT '',
		service_location TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE contracts (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL UNIQUE REFERENCES customers(id),
		invoice_prefix TEXT NOT NULL,
		frequency TEXT NOT NULL,
		default_hours NUMERIC NOT NULL,
		rate_per_hour NUMERIC NOT NULL,
		tax_rate NUMERIC NOT NULL,
		payment_terms TEXT NOT NULL DEFAULT '',
		extra_fees NUMERIC NOT NULL DEFAULT 0,
		extra_fees_label TEXT NOT NULL DEFAULT '',
		notes TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE schedule_configs (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL UNIQUE REFERENCES customers(id),
		is_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		auto_send_email BOOLEAN NOT NULL DEFAULT FALSE,
		timezone TEXT NOT NULL DEFAULT 'UTC',
		billing_weekday INTEGER NOT NULL DEFAULT 0,
		anchor_date DATETIME NOT NULL,
		billing_day INTEGER NOT NULL DEFAULT 1,
		last_run_date DATETIME,
		next_run_date DATETIME,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE invoices (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL REFERENCES customers(id),
		invoice_number TEXT NOT NULL,
		invoice_date DATETIME NOT NULL,
		period_start DATETIME NOT NULL,
		period_end DATETIME NOT NULL,
		status TEXT NOT NULL,
		total_hours NUMERIC NOT NULL,
		rate_per_hour NUMERIC NOT NULL,
		labor_subtotal NUMERIC NOT NULL,
		extra_fees NUMERIC NOT NULL,
		extra_fees_label TEXT NOT NULL DEFAULT '',
		subtotal NUMERIC NOT NULL,
		tax_rate NUMERIC NOT NULL,
		tax_amount NUMERIC NOT NULL,
		total NUMERIC NOT NULL,
		pdf_path TEXT,
		generation_mode TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE UNIQUE INDEX uq_invoices_number ON invoices (invoice_number)`,
	`CREATE UNIQUE INDEX uq_invoices_customer_period
		ON invoices (customer_id, period_start, period_end)
		WHERE status != 'cancelled'`,
	`CREATE TABLE email_logs (
		id TEXT PRIMARY KEY,
		invoice_id TEXT NOT NULL REFERENCES invoices(id),
		recipient_email TEXT NOT NULL,
		subject TEXT NOT NULL,
		status TEXT NOT NULL,
		error_message TEXT,
		sent_at DATETIME,
		retry_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE execution_logs (
		id TEXT PRIMARY KEY,
		run_date DATETIME NOT NULL,
		mode TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		completed_at DATETIME,
		customers_loaded INTEGER NOT NULL DEFAULT 0,
		schedule_matches INTEGER NOT NULL DEFAULT 0,
		pdfs_generated INTEGER NOT NULL DEFAULT 0,
		emails_sent INTEGER NOT NULL DEFAULT 0,
		failures INTEGER NOT NULL DEFAULT 0,
		error_trace TEXT,
		triggered_by TEXT,
		created_at DATETIME NOT NULL
	)`,
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	for _, stmt := range testSchema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedVendor(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	id := uuid.New()
	err := db.Exec(`
		INSERT INTO vendors (id, name, email, address_line1, city, province, postal_code, country, tax_number, default_contractor, is_active, created_at)
		VALUES (?, 'Northline Services Inc.', 'billing@northline.test', '100 Industrial Ave', 'Calgary', 'AB', 'T2A 1B1', 'Canada', '123456789 RT0001', 'J. Moreau', TRUE, ?)
	`, id, time.Now().UTC()).Error
	require.NoError(t, err)
	return id
}

func seedCustomer(t *testing.T, db *gorm.DB, vendorID uuid.UUID, name string, active bool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	err := db.Exec(`
		INSERT INTO customers (id, vendor_id, name, email, address_line1, city, province, postal_code, country, contractor_name, service_location, is_active, created_at)
		VALUES (?, ?, ?, ?, '55 Main St', 'Calgary', 'AB', 'T2B 2C2', 'Canada', 'R. Singh', '55 Main St, Calgary', ?, ?)
	`, id, vendorID, name, name+"@client.test", active, time.Now().UTC()).Error
	require.NoError(t, err)
	return id
}

func seedContract(t *testing.T, db *gorm.DB, customerID uuid.UUID, prefix string, frequency model.BillingFrequency) uuid.UUID {
	t.Helper()
	id := uuid.New()
	err := db.Exec(`
		INSERT INTO contracts (id, customer_id, invoice_prefix, frequency, default_hours, rate_per_hour, tax_rate, payment_terms, extra_fees, extra_fees_label, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'Net 30', ?, 'Equipment fee', TRUE, ?)
	`, id, customerID, prefix, frequency,
		decimal.RequireFromString("40"),
		decimal.RequireFromString("85.50"),
		decimal.RequireFromString("0.05"),
		decimal.RequireFromString("25.00"),
		time.Now().UTC()).Error
	require.NoError(t, err)
	return id
}

func seedSchedule(t *testing.T, db *gorm.DB, customerID uuid.UUID, enabled bool, weekday int, anchor time.Time) uuid.UUID {
	t.Helper()
	id := uuid.New()
	err := db.Exec(`
		INSERT INTO schedule_configs (id, customer_id, is_enabled, auto_send_email, timezone, billing_weekday, anchor_date, billing_day, created_at)
		VALUES (?, ?, ?, TRUE, 'America/Edmonton', ?, ?, 1, ?)
	`, id, customerID, enabled, weekday, anchor, time.Now().UTC()).Error
	require.NoError(t, err)
	return id
}

func testInvoice(customerID uuid.UUID, number string, invoiceDate, periodStart, periodEnd time.Time, status model.InvoiceStatus) *model.Invoice {
	return &model.Invoice{
		CustomerID:     customerID,
		InvoiceNumber:  number,
		InvoiceDate:    invoiceDate,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		Status:         status,
		TotalHours:     decimal.RequireFromString("40"),
		RatePerHour:    decimal.RequireFromString("85.50"),
		LaborSubtotal:  decimal.RequireFromString("3420.00"),
		ExtraFees:      decimal.RequireFromString("25.00"),
		ExtraFeesLabel: "Equipment fee",
		Subtotal:       decimal.RequireFromString("3445.00"),
		TaxRate:        decimal.RequireFromString("0.05"),
		TaxAmount:      decimal.RequireFromString("172.25"),
		Total:          decimal.RequireFromString("3617.25"),
		GenerationMode: model.ModeQuick,
	}
}
