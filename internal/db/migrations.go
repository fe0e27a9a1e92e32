package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE TABLE IF NOT EXISTS vendors (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		address_line1 VARCHAR(255) NOT NULL,
		address_line2 VARCHAR(255),
		city VARCHAR(100) NOT NULL,
		province VARCHAR(100) NOT NULL,
		postal_code VARCHAR(20) NOT NULL,
		country VARCHAR(100) NOT NULL DEFAULT 'Canada',
		tax_number VARCHAR(50) NOT NULL,
		default_contractor VARCHAR(255) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS customers (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		vendor_id UUID NOT NULL REFERENCES vendors(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		address_line1 VARCHAR(255) NOT NULL,
		address_line2 VARCHAR(255),
		city VARCHAR(100) NOT NULL,
		province VARCHAR(100) NOT NULL,
		postal_code VARCHAR(20) NOT NULL,
		country VARCHAR(100) NOT NULL DEFAULT 'Canada',
		contractor_name VARCHAR(255) NOT NULL,
		service_location VARCHAR(255) NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_customers_vendor_active ON customers (vendor_id, is_active);`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		customer_id UUID NOT NULL UNIQUE REFERENCES customers(id) ON DELETE CASCADE,
		invoice_prefix VARCHAR(10) NOT NULL,
		frequency VARCHAR(20) NOT NULL DEFAULT 'monthly',
		default_hours NUMERIC(10,2) NOT NULL DEFAULT 40.00,
		rate_per_hour NUMERIC(10,2) NOT NULL,
		tax_rate NUMERIC(5,4) NOT NULL DEFAULT 0.1300,
		payment_terms VARCHAR(50) NOT NULL DEFAULT 'Monthly',
		extra_fees NUMERIC(10,2) NOT NULL DEFAULT 0.00,
		extra_fees_label VARCHAR(100) NOT NULL DEFAULT 'Other Fees',
		notes TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS schedule_configs (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		customer_id UUID NOT NULL UNIQUE REFERENCES customers(id) ON DELETE CASCADE,
		is_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		auto_send_email BOOLEAN NOT NULL DEFAULT FALSE,
		timezone VARCHAR(50) NOT NULL DEFAULT 'America/Toronto',
		billing_weekday INTEGER NOT NULL DEFAULT 4,
		anchor_date DATE NOT NULL DEFAULT '2026-01-02',
		billing_day INTEGER NOT NULL DEFAULT 1,
		last_run_date DATE,
		next_run_date DATE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS invoices (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		customer_id UUID NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		invoice_number VARCHAR(50) NOT NULL,
		invoice_date DATE NOT NULL,
		period_start DATE NOT NULL,
		period_end DATE NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'generated',
		total_hours NUMERIC(10,2) NOT NULL,
		rate_per_hour NUMERIC(10,2) NOT NULL,
		labor_subtotal NUMERIC(12,2) NOT NULL,
		extra_fees NUMERIC(10,2) NOT NULL DEFAULT 0.00,
		extra_fees_label VARCHAR(100) NOT NULL DEFAULT 'Other Fees',
		subtotal NUMERIC(12,2) NOT NULL,
		tax_rate NUMERIC(5,4) NOT NULL,
		tax_amount NUMERIC(12,2) NOT NULL,
		total NUMERIC(12,2) NOT NULL,
		pdf_path VARCHAR(500),
		generation_mode VARCHAR(20) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_invoices_number ON invoices (invoice_number);`,
	// Single writer per billing period: a second run for the same customer and
	// period hits this index inside its insert transaction and surfaces as a
	// retryable conflict.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_invoices_customer_period
		ON invoices (customer_id, period_start, period_end)
		WHERE status != 'cancelled';`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_customer_date ON invoices (customer_id, invoice_date);`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_status ON invoices (status);`,
	`CREATE TABLE IF NOT EXISTS email_logs (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		invoice_id UUID NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		recipient_email VARCHAR(255) NOT NULL,
		subject VARCHAR(500) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		error_message TEXT,
		sent_at TIMESTAMPTZ,
		retry_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_email_logs_invoice ON email_logs (invoice_id);`,
	`CREATE TABLE IF NOT EXISTS execution_logs (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		run_date DATE NOT NULL,
		mode VARCHAR(20) NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ,
		customers_loaded INTEGER NOT NULL DEFAULT 0,
		schedule_matches INTEGER NOT NULL DEFAULT 0,
		pdfs_generated INTEGER NOT NULL DEFAULT 0,
		emails_sent INTEGER NOT NULL DEFAULT 0,
		failures INTEGER NOT NULL DEFAULT 0,
		error_trace TEXT,
		triggered_by VARCHAR(255),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_execution_logs_run_date ON execution_logs (run_date);`,
	`CREATE INDEX IF NOT EXISTS idx_execution_logs_mode ON execution_logs (mode);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
