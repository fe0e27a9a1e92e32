package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aikyn/invoice-engine/internal/excel"
	"github.com/aikyn/invoice-engine/internal/model"
	"github.com/aikyn/invoice-engine/internal/schedule"
)

type InvoiceReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Invoice, error)
	ListForPeriod(ctx context.Context, from, to time.Time) ([]model.Invoice, error)
}

type ExecutionLogReader interface {
	ListRecent(ctx context.Context, limit int) ([]model.ExecutionLog, error)
}

type RegisterGenerator interface {
	Generate(periodStart, periodEnd time.Time, invoices []model.Invoice) ([]byte, error)
}

// Reporting serves the read side: invoice lookups, execution history and the
// register export.
type Reporting struct {
	invoices InvoiceReader
	execLogs ExecutionLogReader
	register RegisterGenerator
}

func NewReporting(invoices InvoiceReader, execLogs ExecutionLogReader, register RegisterGenerator) *Reporting {
	return &Reporting{invoices: invoices, execLogs: execLogs, register: register}
}

func (r *Reporting) GetInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	return r.invoices.GetByID(ctx, id)
}

func (r *Reporting) ListInvoices(ctx context.Context, customerID uuid.UUID) ([]model.Invoice, error) {
	return r.invoices.ListForCustomer(ctx, customerID)
}

func (r *Reporting) ListExecutions(ctx context.Context, limit int) ([]model.ExecutionLog, error) {
	return r.execLogs.ListRecent(ctx, limit)
}

type RegisterResult struct {
	FileName string
	Content  []byte
}

// ExportRegister builds the xlsx register of invoices dated within the range.
func (r *Reporting) ExportRegister(ctx context.Context, from, to time.Time) (*RegisterResult, error) {
	from = schedule.DateOnly(from)
	to = schedule.DateOnly(to)

	invoices, err := r.invoices.ListForPeriod(ctx, from, to)
	if err != nil {
		return nil, err
	}
	content, err := r.register.Generate(from, to, invoices)
	if err != nil {
		return nil, err
	}
	return &RegisterResult{
		FileName: excel.FileName(from, to),
		Content:  content,
	}, nil
}
