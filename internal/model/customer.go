package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Vendor is the invoicing company, the entity whose name appears on
// generated invoices and outgoing emails.
type Vendor struct {
	ID                uuid.UUID
	Name              string
	Email             string
	AddressLine1      string
	AddressLine2      *string
	City              string
	Province          string
	PostalCode        string
	Country           string
	TaxNumber         string
	DefaultContractor string
	IsActive          bool
	CreatedAt         time.Time
}

type Customer struct {
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

	Vendor   Vendor
	Contract *Contract
	Schedule *ScheduleConfig
}

// AddressLines renders the postal block used on invoices and emails.
func (v Vendor) AddressLines() []string {
	lines := []string{v.AddressLine1}
	if v.AddressLine2 != nil && *v.AddressLine2 != "" {
		lines = append(lines, *v.AddressLine2)
	}
	lines = append(lines, v.City+", "+v.Province+" "+v.PostalCode)
	return lines
}

func (c Customer) AddressLines() []string {
	lines := []string{c.AddressLine1}
	if c.AddressLine2 != nil && *c.AddressLine2 != "" {
		lines = append(lines, *c.AddressLine2)
	}
	lines = append(lines, c.City+", "+c.Province+" "+c.PostalCode)
	return lines
}

// EffectiveContractor resolves the contractor name printed on the invoice.
// When data entry made it identical to the client name, the vendor's default
// contractor is the better value.
func (c Customer) EffectiveContractor() string {
	client := strings.TrimSpace(c.Name)
	contractor := strings.TrimSpace(c.ContractorName)
	if strings.EqualFold(contractor, client) && strings.TrimSpace(c.Vendor.DefaultContractor) != "" {
		contractor = strings.TrimSpace(c.Vendor.DefaultContractor)
	}
	if contractor == "" {
		contractor = "Contractor"
	}
	return contractor
}
