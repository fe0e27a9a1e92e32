package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aikyn/invoice-engine/internal/mail"
	"github.com/aikyn/invoice-engine/internal/model"
	"github.com/aikyn/invoice-engine/internal/pdf"
	"github.com/aikyn/invoice-engine/internal/pricing"
	"github.com/aikyn/invoice-engine/internal/schedule"
)

// Collaborator interfaces, satisfied by the repository, pdf and mail packages.
// Kept here so the engine can be exercised with stubs.

type CustomerStore interface {
	GetActive(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	ListActive(ctx context.Context, ids []uuid.UUID) ([]model.Customer, error)
	UpdateScheduleCursor(ctx context.Context, customerID uuid.UUID, lastRun, nextRun time.Time) error
}

type InvoiceStore interface {
	FindConflicting(ctx context.Context, customerID uuid.UUID, periodStart, periodEnd time.Time) (*model.Invoice, error)
	CountForDate(ctx context.Context, customerID uuid.UUID, invoiceDate time.Time) (int64, error)
	Create(ctx context.Context, invoice *model.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.InvoiceStatus) error
	CreateEmailLog(ctx context.Context, entry *model.EmailLog) error
	CountEmailAttempts(ctx context.Context, invoiceID uuid.UUID) (int64, error)
}

type ExecutionLogStore interface {
	Create(ctx context.Context, entry *model.ExecutionLog) error
	Update(ctx context.Context, entry *model.ExecutionLog) error
}

type InvoiceRenderer interface {
	Generate(data pdf.InvoiceData) ([]byte, pricing.Amounts, error)
}

type Mailer interface {
	Send(msg mail.Message) error
}

// Engine drives invoice generation in its four modes. It holds no run state;
// each Run* call is one audited unit of work.
type Engine struct {
	customers CustomerStore
	invoices  InvoiceStore
	execLogs  ExecutionLogStore
	renderer  InvoiceRenderer
	mailer    Mailer
	outputDir string
	log       zerolog.Logger
}

func NewEngine(
	customers CustomerStore,
	invoices InvoiceStore,
	execLogs ExecutionLogStore,
	renderer InvoiceRenderer,
	mailer Mailer,
	outputDir string,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		customers: customers,
		invoices:  invoices,
		execLogs:  execLogs,
		renderer:  renderer,
		mailer:    mailer,
		outputDir: outputDir,
		log:       log,
	}
}

// QuickInput generates one invoice with minimal input; everything else
// defaults from the contract.
type QuickInput struct {
	CustomerID uuid.UUID
	RunDate    time.Time
	TotalHours decimal.Decimal
	SendEmail  bool
}

// WizardInput allows every pricing field to be overridden explicitly.
type WizardInput struct {
	CustomerID     uuid.UUID
	InvoiceDate    time.Time
	TotalHours     decimal.Decimal
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
	RatePerHour    *decimal.Decimal
	TaxRate        *decimal.Decimal
	ExtraFees      *decimal.Decimal
	ExtraFeesLabel *string
	PaymentTerms   *string
	AllowDuplicate bool
	SendEmail      bool
}

// ScheduledInput runs the batch over active customers.
type ScheduledInput struct {
	RunDate        time.Time
	CustomerIDs    []uuid.UUID
	IgnoreSchedule bool
	SendEmail      bool
}

// ManualInput backfills a missed period with explicit bounds; hours default
// from the contract.
type ManualInput struct {
	CustomerID  uuid.UUID
	InvoiceDate time.Time
	PeriodStart time.Time
	PeriodEnd   time.Time
	SendEmail   bool
}

// Failure is one per-customer failure inside a run.
type Failure struct {
	CustomerID   uuid.UUID `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	Error        string    `json:"error"`
}

// RunSummary is the outcome payload every mode produces.
type RunSummary struct {
	ExecutionID       uuid.UUID           `json:"execution_id"`
	RunDate           time.Time           `json:"run_date"`
	Mode              model.ExecutionMode `json:"mode"`
	CustomersLoaded   int                 `json:"customers_loaded"`
	ScheduleMatches   int                 `json:"schedule_matches"`
	PDFsGenerated     int                 `json:"pdfs_generated"`
	EmailsSent        int                 `json:"emails_sent"`
	EmailsFailed      int                 `json:"emails_failed"`
	Failures          []Failure           `json:"failures"`
	GeneratedInvoices []model.Invoice     `json:"generated_invoices"`
	DownloadLinks     []string            `json:"download_links"`
	DurationSeconds   float64             `json:"duration_seconds"`
}

const emailFailurePrefix = "email failed: "

// generateOptions carries the per-call overrides for generateInvoice;
// explicit values win over contract defaults.
type generateOptions struct {
	periodStart    *time.Time
	periodEnd      *time.Time
	ratePerHour    *decimal.Decimal
	taxRate        *decimal.Decimal
	extraFees      *decimal.Decimal
	extraFeesLabel *string
	paymentTerms   *string
	allowDuplicate bool
}

// generateInvoice is the shared core of all four modes: resolve terms,
// resolve period, guard duplicates, number, price, render, persist.
func (e *Engine) generateInvoice(
	ctx context.Context,
	customer *model.Customer,
	runDate time.Time,
	totalHours decimal.Decimal,
	mode model.ExecutionMode,
	opts generateOptions,
) (*model.Invoice, error) {
	contract := customer.Contract
	if contract == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoContract, customer.Name)
	}

	rate := contract.RatePerHour
	if opts.ratePerHour != nil {
		rate = *opts.ratePerHour
	}
	taxRate := contract.TaxRate
	if opts.taxRate != nil {
		taxRate = *opts.taxRate
	}
	fees := contract.ExtraFees
	if opts.extraFees != nil {
		fees = *opts.extraFees
	}
	feesLabel := contract.ExtraFeesLabel
	if opts.extraFeesLabel != nil && *opts.extraFeesLabel != "" {
		feesLabel = *opts.extraFeesLabel
	}
	terms := contract.PaymentTerms
	if opts.paymentTerms != nil && *opts.paymentTerms != "" {
		terms = *opts.paymentTerms
	}

	runDate = schedule.DateOnly(runDate)
	var periodStart, periodEnd time.Time
	if opts.periodStart != nil && opts.periodEnd != nil {
		periodStart = schedule.DateOnly(*opts.periodStart)
		periodEnd = schedule.DateOnly(*opts.periodEnd)
	} else {
		var err error
		periodStart, periodEnd, err = schedule.ComputeBillingPeriod(runDate, contract.Frequency)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	if !opts.allowDuplicate {
		existing, err := e.invoices.FindConflicting(ctx, customer.ID, periodStart, periodEnd)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			e.log.Warn().
				Str("customer", customer.Name).
				Str("invoice_number", existing.InvoiceNumber).
				Time("period_start", periodStart).
				Time("period_end", periodEnd).
				Msg("duplicate billing period")
			return nil, fmt.Errorf("%w: %s", ErrDuplicateInvoice, existing.InvoiceNumber)
		}
	}

	count, err := e.invoices.CountForDate(ctx, customer.ID, runDate)
	if err != nil {
		return nil, err
	}
	invoiceNumber := pricing.InvoiceNumber(contract.InvoicePrefix, runDate, int(count)+1)

	amounts := pricing.Price(totalHours, rate, fees, taxRate)

	content, rendered, err := e.renderer.Generate(pdf.InvoiceData{
		InvoiceNumber:        invoiceNumber,
		InvoiceDate:          runDate.Format("02/01/2006"),
		VendorName:           customer.Vendor.Name,
		VendorEmail:          customer.Vendor.Email,
		VendorAddressLines:   customer.Vendor.AddressLines(),
		VendorTaxNumber:      customer.Vendor.TaxNumber,
		ContractorName:       customer.EffectiveContractor(),
		CustomerName:         strings.TrimSpace(customer.Name),
		CustomerAddressLines: customer.AddressLines(),
		ServiceLocation:      customer.ServiceLocation,
		PeriodStart:          schedule.FormatDate(periodStart),
		PeriodEnd:            schedule.FormatDate(periodEnd),
		TotalHours:           totalHours,
		RatePerHour:          rate,
		TaxRate:              taxRate,
		PaymentTerms:         terms,
		ExtraFees:            fees,
		ExtraFeesLabel:       feesLabel,
	})
	if err != nil {
		return nil, fmt.Errorf("render pdf for %s: %w", invoiceNumber, err)
	}
	if !rendered.Total.Equal(amounts.Total) || !rendered.TaxAmount.Equal(amounts.TaxAmount) {
		return nil, fmt.Errorf("pdf totals diverge from pricing for %s: %s vs %s",
			invoiceNumber, rendered.Total, amounts.Total)
	}

	pdfPath := filepath.Join(e.outputDir, invoiceNumber+".pdf")
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(pdfPath, content, 0o644); err != nil {
		return nil, fmt.Errorf("write pdf %s: %w", pdfPath, err)
	}

	invoice := &model.Invoice{
		CustomerID:     customer.ID,
		InvoiceNumber:  invoiceNumber,
		InvoiceDate:    runDate,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		Status:         model.InvoiceStatusGenerated,
		TotalHours:     totalHours,
		RatePerHour:    rate,
		LaborSubtotal:  amounts.LaborSubtotal,
		ExtraFees:      fees,
		ExtraFeesLabel: feesLabel,
		Subtotal:       amounts.Subtotal,
		TaxRate:        taxRate,
		TaxAmount:      amounts.TaxAmount,
		Total:          amounts.Total,
		PDFPath:        &pdfPath,
		GenerationMode: mode,
	}
	if err := e.invoices.Create(ctx, invoice); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", ErrConflict, invoiceNumber)
		}
		return nil, err
	}

	e.log.Info().
		Str("invoice_number", invoiceNumber).
		Str("customer", customer.Name).
		Str("total", amounts.Total.StringFixed(2)).
		Msg("invoice generated")

	return invoice, nil
}

// sendInvoiceEmail delivers a generated invoice, logging the attempt either
// way. On success the invoice moves to sent. A failure leaves the invoice
// generated and is the caller's to record; it never unwinds the invoice.
func (e *Engine) sendInvoiceEmail(ctx context.Context, customer *model.Customer, invoice *model.Invoice) error {
	subject, body := mail.BuildInvoiceEmail(
		strings.TrimSpace(customer.Name),
		customer.EffectiveContractor(),
		customer.Vendor.Name,
		customer.Vendor.Email,
		schedule.FormatDate(invoice.PeriodStart),
		schedule.FormatDate(invoice.PeriodEnd),
		invoice.InvoiceNumber,
	)

	attachment := ""
	if invoice.PDFPath != nil {
		attachment = *invoice.PDFPath
	}
	sendErr := e.mailer.Send(mail.Message{
		To:             customer.Email,
		Subject:        subject,
		Body:           body,
		AttachmentPath: attachment,
	})

	// Retry count is the number of earlier attempts for this invoice; the
	// first send carries 0, each resend one more.
	attempts, countErr := e.invoices.CountEmailAttempts(ctx, invoice.ID)
	if countErr != nil {
		e.log.Error().Err(countErr).Str("invoice_number", invoice.InvoiceNumber).Msg("count email attempts")
	}

	entry := &model.EmailLog{
		InvoiceID:      invoice.ID,
		RecipientEmail: customer.Email,
		Subject:        subject,
		RetryCount:     int(attempts),
	}
	if sendErr != nil {
		msg := sendErr.Error()
		entry.Status = model.EmailStatusFailed
		entry.ErrorMessage = &msg
	} else {
		now := time.Now().UTC()
		entry.Status = model.EmailStatusSent
		entry.SentAt = &now
	}
	if logErr := e.invoices.CreateEmailLog(ctx, entry); logErr != nil {
		e.log.Error().Err(logErr).Str("invoice_number", invoice.InvoiceNumber).Msg("write email log")
	}

	if sendErr != nil {
		return sendErr
	}

	// Only a generated invoice advances to sent; a resend for an invoice
	// already paid or overdue must not walk its status backward.
	if invoice.Status == model.InvoiceStatusGenerated {
		if err := e.invoices.UpdateStatus(ctx, invoice.ID, model.InvoiceStatusSent); err != nil {
			e.log.Error().Err(err).Str("invoice_number", invoice.InvoiceNumber).Msg("mark invoice sent")
		} else {
			invoice.Status = model.InvoiceStatusSent
		}
	}
	return nil
}

// finalize stamps CompletedAt and persists the log. Runs on every exit path,
// including the one that is about to propagate an error.
func (e *Engine) finalize(ctx context.Context, entry *model.ExecutionLog) {
	now := time.Now().UTC()
	entry.CompletedAt = &now
	if err := e.execLogs.Update(ctx, entry); err != nil {
		e.log.Error().Err(err).Str("execution_id", entry.ID.String()).Msg("finalize execution log")
	}
}

func (e *Engine) startLog(ctx context.Context, runDate time.Time, mode model.ExecutionMode, triggeredBy string) (*model.ExecutionLog, error) {
	entry := &model.ExecutionLog{
		RunDate:   schedule.DateOnly(runDate),
		Mode:      mode,
		StartedAt: time.Now().UTC(),
	}
	if triggeredBy != "" {
		entry.TriggeredBy = &triggeredBy
	}
	if err := e.execLogs.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create execution log: %w", err)
	}
	return entry, nil
}

func (e *Engine) summarize(entry *model.ExecutionLog, failures []Failure, invoices []model.Invoice) RunSummary {
	links := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		if inv.PDFPath != nil {
			links = append(links, *inv.PDFPath)
		}
	}
	emailsFailed := 0
	for _, f := range failures {
		if strings.HasPrefix(f.Error, emailFailurePrefix) {
			emailsFailed++
		}
	}
	duration := 0.0
	if entry.CompletedAt != nil {
		duration = entry.CompletedAt.Sub(entry.StartedAt).Seconds()
	}
	return RunSummary{
		ExecutionID:       entry.ID,
		RunDate:           entry.RunDate,
		Mode:              entry.Mode,
		CustomersLoaded:   entry.CustomersLoaded,
		ScheduleMatches:   entry.ScheduleMatches,
		PDFsGenerated:     entry.PDFsGenerated,
		EmailsSent:        entry.EmailsSent,
		EmailsFailed:      emailsFailed,
		Failures:          failures,
		GeneratedInvoices: invoices,
		DownloadLinks:     links,
		DurationSeconds:   duration,
	}
}
