package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aikyn/invoice-engine/internal/http/middleware"
	"github.com/aikyn/invoice-engine/internal/mail"
	"github.com/aikyn/invoice-engine/internal/model"
	"github.com/aikyn/invoice-engine/internal/service"
)

type Handler struct {
	engine    *service.Engine
	reporting *service.Reporting
	admin     *service.Management
	log       zerolog.Logger
}

func NewHandler(engine *service.Engine, reporting *service.Reporting, admin *service.Management, log zerolog.Logger) *Handler {
	return &Handler{engine: engine, reporting: reporting, admin: admin, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/runs/quick", h.runQuick)
	protected.POST("/runs/wizard", h.runWizard)
	protected.POST("/runs/scheduled", h.runScheduled)
	protected.POST("/runs/manual", h.runManual)

	protected.GET("/invoices/:id", h.getInvoice)
	protected.PATCH("/invoices/:id/status", h.updateInvoiceStatus)
	protected.POST("/invoices/:id/resend-email", h.resendInvoiceEmail)
	protected.GET("/invoices/:id/pdf", h.downloadInvoicePDF)
	protected.GET("/executions", h.listExecutions)
	protected.GET("/exports/register", h.exportRegister)

	protected.POST("/vendors", h.createVendor)
	protected.GET("/vendors", h.listVendors)
	protected.POST("/customers", h.createCustomer)
	protected.GET("/customers", h.listCustomers)
	protected.GET("/customers/:id", h.getCustomer)
	protected.PUT("/customers/:id", h.updateCustomer)
	protected.DELETE("/customers/:id", h.deactivateCustomer)
	protected.PUT("/customers/:id/contract", h.setContract)
	protected.PUT("/customers/:id/schedule", h.setSchedule)
	protected.POST("/customers/:id/schedule/toggle", h.toggleSchedule)
	protected.GET("/customers/:id/next-invoice", h.previewNextInvoice)
	protected.GET("/customers/:id/invoices", h.listInvoices)
}

type quickRunRequest struct {
	CustomerID string `json:"customer_id" binding:"required"`
	RunDate    string `json:"run_date" binding:"required"`
	TotalHours string `json:"total_hours" binding:"required"`
	SendEmail  bool   `json:"send_email"`
}

func (h *Handler) runQuick(c *gin.Context) {
	principal, ok := requireGenerator(c)
	if !ok {
		return
	}

	var req quickRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customerID, err := uuid.Parse(strings.TrimSpace(req.CustomerID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer_id"})
		return
	}
	runDate, err := parseDate(req.RunDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run_date"})
		return
	}
	hours, err := parseDecimal(req.TotalHours)
	if err != nil || hours.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid total_hours"})
		return
	}

	summary, err := h.engine.RunQuick(c.Request.Context(), service.QuickInput{
		CustomerID: customerID,
		RunDate:    runDate,
		TotalHours: hours,
		SendEmail:  req.SendEmail,
	}, principal.Email)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type wizardRunRequest struct {
	CustomerID     string  `json:"customer_id" binding:"required"`
	InvoiceDate    string  `json:"invoice_date" binding:"required"`
	TotalHours     string  `json:"total_hours" binding:"required"`
	PeriodStart    *string `json:"period_start"`
	PeriodEnd      *string `json:"period_end"`
	RatePerHour    *string `json:"rate_per_hour"`
	TaxRate        *string `json:"tax_rate"`
	ExtraFees      *string `json:"extra_fees"`
	ExtraFeesLabel *string `json:"extra_fees_label"`
	PaymentTerms   *string `json:"payment_terms"`
	AllowDuplicate bool    `json:"allow_duplicate"`
	SendEmail      bool    `json:"send_email"`
}

func (h *Handler) runWizard(c *gin.Context) {
	principal, ok := requireGenerator(c)
	if !ok {
		return
	}

	var req wizardRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customerID, err := uuid.Parse(strings.TrimSpace(req.CustomerID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer_id"})
		return
	}
	invoiceDate, err := parseDate(req.InvoiceDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice_date"})
		return
	}
	hours, err := parseDecimal(req.TotalHours)
	if err != nil || hours.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid total_hours"})
		return
	}

	input := service.WizardInput{
		CustomerID:     customerID,
		InvoiceDate:    invoiceDate,
		TotalHours:     hours,
		ExtraFeesLabel: req.ExtraFeesLabel,
		PaymentTerms:   req.PaymentTerms,
		AllowDuplicate: req.AllowDuplicate,
		SendEmail:      req.SendEmail,
	}

	if req.PeriodStart != nil {
		start, err := parseDate(*req.PeriodStart)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_start"})
			return
		}
		input.PeriodStart = &start
	}
	if req.PeriodEnd != nil {
		end, err := parseDate(*req.PeriodEnd)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_end"})
			return
		}
		input.PeriodEnd = &end
	}
	if input.PeriodStart != nil && input.PeriodEnd != nil && input.PeriodStart.After(*input.PeriodEnd) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period_start must not be after period_end"})
		return
	}

	for _, field := range []struct {
		raw  *string
		dest **decimal.Decimal
		name string
	}{
		{req.RatePerHour, &input.RatePerHour, "rate_per_hour"},
		{req.TaxRate, &input.TaxRate, "tax_rate"},
		{req.ExtraFees, &input.ExtraFees, "extra_fees"},
	} {
		if field.raw == nil {
			continue
		}
		value, err := parseDecimal(*field.raw)
		if err != nil || value.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + field.name})
			return
		}
		*field.dest = &value
	}

	summary, err := h.engine.RunWizard(c.Request.Context(), input, principal.Email)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type scheduledRunRequest struct {
	RunDate        string   `json:"run_date" binding:"required"`
	CustomerIDs    []string `json:"customer_ids"`
	IgnoreSchedule bool     `json:"ignore_schedule"`
	SendEmail      bool     `json:"send_email"`
}

func (h *Handler) runScheduled(c *gin.Context) {
	principal, ok := requireGenerator(c)
	if !ok {
		return
	}

	var req scheduledRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	runDate, err := parseDate(req.RunDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run_date"})
		return
	}

	ids := make([]uuid.UUID, 0, len(req.CustomerIDs))
	for _, raw := range req.CustomerIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id: " + raw})
			return
		}
		ids = append(ids, id)
	}

	summary, err := h.engine.RunScheduled(c.Request.Context(), service.ScheduledInput{
		RunDate:        runDate,
		CustomerIDs:    ids,
		IgnoreSchedule: req.IgnoreSchedule,
		SendEmail:      req.SendEmail,
	}, principal.Email)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type manualRunRequest struct {
	CustomerID  string `json:"customer_id" binding:"required"`
	InvoiceDate string `json:"invoice_date" binding:"required"`
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
	SendEmail   bool   `json:"send_email"`
}

func (h *Handler) runManual(c *gin.Context) {
	principal, ok := requireGenerator(c)
	if !ok {
		return
	}

	var req manualRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customerID, err := uuid.Parse(strings.TrimSpace(req.CustomerID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer_id"})
		return
	}
	invoiceDate, err := parseDate(req.InvoiceDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice_date"})
		return
	}
	periodStart, err := parseDate(req.PeriodStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_start"})
		return
	}
	periodEnd, err := parseDate(req.PeriodEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_end"})
		return
	}
	if periodStart.After(periodEnd) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period_start must not be after period_end"})
		return
	}

	summary, err := h.engine.RunManual(c.Request.Context(), service.ManualInput{
		CustomerID:  customerID,
		InvoiceDate: invoiceDate,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		SendEmail:   req.SendEmail,
	}, principal.Email)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) getInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
		return
	}
	invoice, err := h.reporting.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

type statusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

var invoiceStatuses = map[model.InvoiceStatus]bool{
	model.InvoiceStatusDraft:     true,
	model.InvoiceStatusGenerated: true,
	model.InvoiceStatusSent:      true,
	model.InvoiceStatusPaid:      true,
	model.InvoiceStatusOverdue:   true,
	model.InvoiceStatusCancelled: true,
}

func (h *Handler) updateInvoiceStatus(c *gin.Context) {
	if _, ok := requireGenerator(c); !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
		return
	}

	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := model.InvoiceStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if !invoiceStatuses[status] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	invoice, err := h.engine.UpdateInvoiceStatus(c.Request.Context(), id, status)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *Handler) resendInvoiceEmail(c *gin.Context) {
	if _, ok := requireGenerator(c); !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
		return
	}

	invoice, err := h.engine.ResendEmail(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *Handler) downloadInvoicePDF(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
		return
	}
	invoice, err := h.reporting.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if invoice.PDFPath == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invoice has no pdf"})
		return
	}
	c.FileAttachment(*invoice.PDFPath, invoice.InvoiceNumber+".pdf")
}

func (h *Handler) listInvoices(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
		return
	}
	invoices, err := h.reporting.ListInvoices(c.Request.Context(), customerID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

func (h *Handler) listExecutions(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	entries, err := h.reporting.ListExecutions(c.Request.Context(), limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"executions": entries})
}

func (h *Handler) exportRegister(c *gin.Context) {
	from, err := parseDate(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
		return
	}
	to, err := parseDate(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
		return
	}
	if from.After(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must not be after to"})
		return
	}

	result, err := h.reporting.ExportRegister(c.Request.Context(), from, to)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrDuplicateInvoice), errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNoContract), errors.Is(err, service.ErrNoSchedule),
		errors.Is(err, service.ErrInvalidStatusChange):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case isSendError(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func isSendError(err error) bool {
	var sendErr *mail.SendError
	return errors.As(err, &sendErr)
}

func requireGenerator(c *gin.Context) (model.Principal, bool) {
	p, found := middleware.MustPrincipal(c)
	if !found {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return model.Principal{}, false
	}
	if !p.CanGenerate() {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return model.Principal{}, false
	}
	return p, true
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}

func nowDate() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(raw))
}
