package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aikyn/invoice-engine/internal/model"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

const invoiceColumns = `
	id,
	customer_id,
	invoice_number,
	invoice_date,
	period_start,
	period_end,
	status,
	total_hours,
	rate_per_hour,
	labor_subtotal,
	extra_fees,
	extra_fees_label,
	subtotal,
	tax_rate,
	tax_amount,
	total,
	pdf_path,
	generation_mode,
	created_at
`

// FindConflicting returns a non-cancelled invoice covering exactly the same
// period for the customer, or nil. Matching is exact on both bounds; partial
// overlap passes.
func (r *InvoiceRepository) FindConflicting(ctx context.Context, customerID uuid.UUID, periodStart, periodEnd time.Time) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE customer_id = ?
			AND period_start = ?
			AND period_end = ?
			AND status != ?
		LIMIT 1
	`, customerID, periodStart, periodEnd, model.InvoiceStatusCancelled).Scan(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == uuid.Nil {
		return nil, nil
	}
	return &invoice, nil
}

// CountForDate counts invoices already issued to the customer on a date; the
// next same-day sequence number is this plus one.
func (r *InvoiceRepository) CountForDate(ctx context.Context, customerID uuid.UUID, invoiceDate time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(id) FROM invoices
		WHERE customer_id = ? AND invoice_date = ?
	`, customerID, invoiceDate).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Create persists a new invoice. The unique indexes on invoice_number and the
// non-cancelled (customer_id, period_start, period_end) pair are the
// single-writer guard; a violation comes back as gorm.ErrDuplicatedKey.
func (r *InvoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	invoice.CreatedAt = time.Now().UTC()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Exec(`
			INSERT INTO invoices (
				id,
				customer_id,
				invoice_number,
				invoice_date,
				period_start,
				period_end,
				status,
				total_hours,
				rate_per_hour,
				labor_subtotal,
				extra_fees,
				extra_fees_label,
				subtotal,
				tax_rate,
				tax_amount,
				total,
				pdf_path,
				generation_mode,
				created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			invoice.ID,
			invoice.CustomerID,
			invoice.InvoiceNumber,
			invoice.InvoiceDate,
			invoice.PeriodStart,
			invoice.PeriodEnd,
			invoice.Status,
			invoice.TotalHours,
			invoice.RatePerHour,
			invoice.LaborSubtotal,
			invoice.ExtraFees,
			invoice.ExtraFeesLabel,
			invoice.Subtotal,
			invoice.TaxRate,
			invoice.TaxAmount,
			invoice.Total,
			invoice.PDFPath,
			invoice.GenerationMode,
			invoice.CreatedAt,
		).Error
	})
}

// UpdateStatus moves an invoice's status. Financial fields never change.
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.InvoiceStatus) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE invoices SET status = ? WHERE id = ?
	`, status, id).Error
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+invoiceColumns+` FROM invoices WHERE id = ? LIMIT 1
	`, id).Scan(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &invoice, nil
}

// ListForCustomer returns a customer's invoices newest first.
func (r *InvoiceRepository) ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE customer_id = ?
		ORDER BY invoice_date DESC, created_at DESC
	`, customerID).Scan(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// ListForPeriod returns all invoices dated within [from, to], oldest first.
// Feeds the register export.
func (r *InvoiceRepository) ListForPeriod(ctx context.Context, from, to time.Time) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE invoice_date >= ? AND invoice_date <= ?
		ORDER BY invoice_date ASC, invoice_number ASC
	`, from, to).Scan(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// CountEmailAttempts counts delivery attempts already logged for an invoice.
func (r *InvoiceRepository) CountEmailAttempts(ctx context.Context, invoiceID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(id) FROM email_logs WHERE invoice_id = ?
	`, invoiceID).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CreateEmailLog appends one delivery-attempt record.
func (r *InvoiceRepository) CreateEmailLog(ctx context.Context, entry *model.EmailLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO email_logs (
			id,
			invoice_id,
			recipient_email,
			subject,
			status,
			error_message,
			sent_at,
			retry_count,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID,
		entry.InvoiceID,
		entry.RecipientEmail,
		entry.Subject,
		entry.Status,
		entry.ErrorMessage,
		entry.SentAt,
		entry.RetryCount,
		entry.CreatedAt,
	).Error
}
