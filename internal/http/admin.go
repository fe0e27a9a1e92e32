package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aikyn/invoice-engine/internal/model"
)

type vendorRequest struct {
	Name              string  `json:"name" binding:"required"`
	Email             string  `json:"email" binding:"required"`
	AddressLine1      string  `json:"address_line1"`
	AddressLine2      *string `json:"address_line2"`
	City              string  `json:"city"`
	Province          string  `json:"province"`
	PostalCode        string  `json:"postal_code"`
	Country           string  `json:"country"`
	TaxNumber         string  `json:"tax_number"`
	DefaultContractor string  `json:"default_contractor"`
}

func (h *Handler) createVendor(c *gin.Context) {
	if _, ok := requireGenerator(c); !ok {
		return
	}

	var req vendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vendor, err := h.admin.CreateVendor(c.Request.Context(), &model.Vendor{
		Name:              req.Name,
		Email:             req.Email,
		AddressLine1:      req.AddressLine1,
		AddressLine2:      req.AddressLine2,
		City:              req.City,
		Province:          req.Province,
		PostalCode:        req.PostalCode,
		Country:           req.Country,
		TaxNumber:         req.TaxNumber,
		DefaultContractor: req.DefaultContractor,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, vendor)
}

func (h *Handler) listVendors(c *gin.Context) {
	vendors, err := h.admin.ListVendors(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendors": vendors})
}

type customerRequest struct {
	VendorID        string  `json:"vendor_id"`
	Name            string  `json:"name" binding:"required"`
	Email           string  `json:"email" binding:"required"`
	AddressLine1    string  `json:"address_line1"`
	AddressLine2    *string `json:"address_line2"`
	City            string  `json:"city"`
	Province        string  `json:"province"`
	PostalCode      string  `json:"postal_code"`
	Country         string  `json:"country"`
	ContractorName  string  `json:"contractor_name"`
	ServiceLocation string  `json:"service_location"`
}

func (r customerRequest) toModel() model.Customer {
	return model.Customer{
		Name:            r.Name,
		Email:           r.Email,
		AddressLine1:    r.AddressLine1,
		AddressLine2:    r.AddressLine2,
		City:            r.City,
		Province:        r.Province,
		PostalCode:      r.PostalCode,
		Country:         r.Country,
		ContractorName:  r.ContractorName,
		ServiceLocation: r.ServiceLocation,
	}
}

func (h *Handler) createCustomer(c *gin.Context) {
	if _, ok := requireGenerator(c); !ok {
		return
	}

	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	vendorID, err := uuid.Parse(strings.TrimSpace(req.VendorID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vendor_id"})
		return
	}

	customer := req.toModel()
	customer.VendorID = vendorID
	created, err := h.admin.CreateCustomer(c.Request.Context(), &customer)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) listCustomers(c *gin.Context) {
	customers, err := h.admin.ListCustomers(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

func (h *Handler) getCustomer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
		return
	}
	customer, err := h.admin.GetCustomer(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handler) updateCustomer(c *gin.Context) {
	if _, ok := requireGenerator(c); !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
		return
	}
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer := req.toModel()
	updated, err := h.admin.UpdateCustomer(c.Request.Context(), id, &customer)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deactivateCustomer(c *gin.Context) {
	if _, ok := requireGenerator(c); !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
		return
	}
	if err := h.admin.DeactivateCustomer(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type contractRequest struct {
	InvoicePrefix  string  `json:"invoice_prefix" binding:"required"`
	Frequency      string  `json:"frequency" binding:"required"`
	DefaultHours   string  `json:"default_hours" binding:"required"`
	RatePerHour    string  `json:"rate_per_hour" binding:"required"`
	TaxRate        string  `json:"tax_rate" binding:"required"`
	PaymentTerms   string  `json:"payment_terms"`
	ExtraFees      string  `json:"extra_fees"`
	ExtraFeesLabel string  `json:"extra_fees_label"`
	Notes          *string `json:"notes"`
}

func (h *Handler) setContract(c *gin.Context) {
	if _, ok := requireGenerator(c); !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
		return
	}
	var req contractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contract := model.Contract{
		InvoicePrefix:  req.InvoicePrefix,
		Frequency:      model.BillingFrequency(strings.ToLower(strings.TrimSpace(req.Frequency))),
		PaymentTerms:   req.PaymentTerms,
		ExtraFeesLabel: req.ExtraFeesLabel,
		Notes:          req.Notes,
		ExtraFees:      decimal.Zero,
	}
	for _, field := range []struct {
		raw      string
		dest     *decimal.Decimal
		name     string
		required bool
	}{
		{req.DefaultHours, &contract.DefaultHours, "default_hours", true},
		{req.RatePerHour, &contract.RatePerHour, "rate_per_hour", true},
		{req.TaxRate, &contract.TaxRate, "tax_rate", true},
		{req.ExtraFees, &contract.ExtraFees, "extra_fees", false},
	} {
		if field.raw == "" && !field.required {
			continue
		}
		value, err := parseDecimal(field.raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + field.name})
			return
		}
		*field.dest = value
	}

	customer, err := h.admin.SetContract(c.Request.Context(), id, &contract)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

type scheduleRequest struct {
	IsEnabled      bool   `json:"is_enabled"`
	AutoSendEmail  bool   `json:"auto_send_email"`
	Timezone       string `json:"timezone"`
	BillingWeekday int    `json:"billing_weekday"`
	AnchorDate     string `json:"anchor_date" binding:"required"`
	BillingDay     int    `json:"billing_day" binding:"required"`
}

func (h *Handler) setSchedule(c *gin.Context) {
	if _, ok := requireGenerator(c); !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
		return
	}
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	anchor, err := parseDate(req.AnchorDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid anchor_date"})
		return
	}

	customer, err := h.admin.SetSchedule(c.Request.Context(), id, &model.ScheduleConfig{
		IsEnabled:      req.IsEnabled,
		AutoSendEmail:  req.AutoSendEmail,
		Timezone:       req.Timezone,
		BillingWeekday: req.BillingWeekday,
		AnchorDate:     anchor,
		BillingDay:     req.BillingDay,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

type scheduleToggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (h *Handler) toggleSchedule(c *gin.Context) {
	if _, ok := requireGenerator(c); !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
		return
	}
	var req scheduleToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.admin.ToggleSchedule(c.Request.Context(), id, *req.Enabled); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": *req.Enabled})
}

func (h *Handler) previewNextInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
		return
	}
	from := nowDate()
	if raw := c.Query("from"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
			return
		}
		from = parsed
	}

	preview, err := h.admin.PreviewNextInvoice(c.Request.Context(), id, from)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}
