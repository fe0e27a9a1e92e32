package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BillingFrequency string

const (
	FrequencyWeekly   BillingFrequency = "weekly"
	FrequencyBiweekly BillingFrequency = "biweekly"
	FrequencyMonthly  BillingFrequency = "monthly"
)

// Contract holds the billing terms for one customer. Exactly one active
// contract exists per customer; contracts are deactivated, never deleted.
type Contract struct {
	ID             uuid.UUID
	CustomerID     uuid.UUID
	InvoicePrefix  string
	Frequency      BillingFrequency
	DefaultHours   decimal.Decimal
	RatePerHour    decimal.Decimal
	TaxRate        decimal.Decimal
	PaymentTerms   string
	ExtraFees      decimal.Decimal
	ExtraFeesLabel string
	Notes          *string
	IsActive       bool
	CreatedAt      time.Time
}

// ScheduleConfig anchors a customer's recurrence. BillingWeekday uses
// 0=Monday..6=Sunday. LastRunDate/NextRunDate are advisory display fields;
// scheduling decisions always recompute from the other fields.
type ScheduleConfig struct {
	ID             uuid.UUID
	CustomerID     uuid.UUID
	IsEnabled      bool
	AutoSendEmail  bool
	Timezone       string
	BillingWeekday int
	AnchorDate     time.Time
	BillingDay     int
	LastRunDate    *time.Time
	NextRunDate    *time.Time
	CreatedAt      time.Time
}
