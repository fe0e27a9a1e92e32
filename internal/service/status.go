package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aikyn/invoice-engine/internal/model"
)

// allowedTransitions is the forward-only status graph. Paid and cancelled are
// terminal; financial fields never change regardless of status.
var allowedTransitions = map[model.InvoiceStatus][]model.InvoiceStatus{
	model.InvoiceStatusDraft:     {model.InvoiceStatusGenerated, model.InvoiceStatusCancelled},
	model.InvoiceStatusGenerated: {model.InvoiceStatusSent, model.InvoiceStatusPaid, model.InvoiceStatusOverdue, model.InvoiceStatusCancelled},
	model.InvoiceStatusSent:      {model.InvoiceStatusPaid, model.InvoiceStatusOverdue, model.InvoiceStatusCancelled},
	model.InvoiceStatusOverdue:   {model.InvoiceStatusPaid, model.InvoiceStatusCancelled},
}

func transitionAllowed(from, to model.InvoiceStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UpdateInvoiceStatus moves an invoice along the forward-only status graph
// and returns the updated invoice. Backward moves and moves out of a terminal
// status are rejected.
func (e *Engine) UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, status model.InvoiceStatus) (*model.Invoice, error) {
	invoice, err := e.invoices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invoice %s", ErrNotFound, id)
		}
		return nil, err
	}

	if invoice.Status == status {
		return invoice, nil
	}
	if !transitionAllowed(invoice.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusChange, invoice.Status, status)
	}

	if err := e.invoices.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}

	e.log.Info().
		Str("invoice_number", invoice.InvoiceNumber).
		Str("from", string(invoice.Status)).
		Str("to", string(status)).
		Msg("invoice status changed")

	invoice.Status = status
	return invoice, nil
}

// ResendEmail re-delivers the invoice email for an existing invoice. Each
// attempt is logged with an incremented retry count; success marks the
// invoice sent if it was not already further along.
func (e *Engine) ResendEmail(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	invoice, err := e.invoices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invoice %s", ErrNotFound, id)
		}
		return nil, err
	}
	if invoice.Status == model.InvoiceStatusCancelled || invoice.Status == model.InvoiceStatusDraft {
		return nil, fmt.Errorf("%w: cannot email a %s invoice", ErrInvalidInput, invoice.Status)
	}

	customer, err := e.customers.GetActive(ctx, invoice.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: customer %s", ErrNotFound, invoice.CustomerID)
		}
		return nil, err
	}

	if sendErr := e.sendInvoiceEmail(ctx, customer, invoice); sendErr != nil {
		return nil, sendErr
	}
	return invoice, nil
}
