package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusGenerated InvoiceStatus = "generated"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

type ExecutionMode string

const (
	ModeScheduled   ExecutionMode = "scheduled"
	ModeQuick       ExecutionMode = "quick"
	ModeWizard      ExecutionMode = "wizard"
	ModeManual      ExecutionMode = "manual"
	ModeGenerateAll ExecutionMode = "generate_all"
)

// Invoice is immutable financially once created; only Status moves, and only
// forward (generated -> sent -> paid, or cancelled).
type Invoice struct {
	ID             uuid.UUID
	CustomerID     uuid.UUID
	InvoiceNumber  string
	InvoiceDate    time.Time
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Status         InvoiceStatus
	TotalHours     decimal.Decimal
	RatePerHour    decimal.Decimal
	LaborSubtotal  decimal.Decimal
	ExtraFees      decimal.Decimal
	ExtraFeesLabel string
	Subtotal       decimal.Decimal
	TaxRate        decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
	PDFPath        *string
	GenerationMode ExecutionMode
	CreatedAt      time.Time
}

type EmailStatus string

const (
	EmailStatusPending EmailStatus = "pending"
	EmailStatusSent    EmailStatus = "sent"
	EmailStatusFailed  EmailStatus = "failed"
)

// EmailLog records one delivery attempt for an invoice.
type EmailLog struct {
	ID             uuid.UUID
	InvoiceID      uuid.UUID
	RecipientEmail string
	Subject        string
	Status         EmailStatus
	ErrorMessage   *string
	SentAt         *time.Time
	RetryCount     int
	CreatedAt      time.Time
}
