package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aikyn/invoice-engine/internal/model"
	"github.com/aikyn/invoice-engine/internal/schedule"
)

// RunQuick generates one invoice from hours alone; every other field
// defaults from the contract.
func (e *Engine) RunQuick(ctx context.Context, input QuickInput, triggeredBy string) (RunSummary, error) {
	hours := input.TotalHours
	return e.runSingle(ctx, singleRun{
		customerID:  input.CustomerID,
		runDate:     input.RunDate,
		mode:        model.ModeQuick,
		hours:       &hours,
		sendEmail:   input.SendEmail,
		triggeredBy: triggeredBy,
	})
}

// RunWizard generates one invoice with full manual control over pricing
// fields, period bounds and the duplicate guard.
func (e *Engine) RunWizard(ctx context.Context, input WizardInput, triggeredBy string) (RunSummary, error) {
	hours := input.TotalHours
	return e.runSingle(ctx, singleRun{
		customerID:  input.CustomerID,
		runDate:     input.InvoiceDate,
		mode:        model.ModeWizard,
		hours:       &hours,
		sendEmail:   input.SendEmail,
		triggeredBy: triggeredBy,
		opts: generateOptions{
			periodStart:    input.PeriodStart,
			periodEnd:      input.PeriodEnd,
			ratePerHour:    input.RatePerHour,
			taxRate:        input.TaxRate,
			extraFees:      input.ExtraFees,
			extraFeesLabel: input.ExtraFeesLabel,
			paymentTerms:   input.PaymentTerms,
			allowDuplicate: input.AllowDuplicate,
		},
	})
}

// RunManual backfills an explicit period; hours default from the contract.
func (e *Engine) RunManual(ctx context.Context, input ManualInput, triggeredBy string) (RunSummary, error) {
	start := input.PeriodStart
	end := input.PeriodEnd
	return e.runSingle(ctx, singleRun{
		customerID:  input.CustomerID,
		runDate:     input.InvoiceDate,
		mode:        model.ModeManual,
		hours:       nil,
		sendEmail:   input.SendEmail,
		triggeredBy: triggeredBy,
		opts: generateOptions{
			periodStart: &start,
			periodEnd:   &end,
		},
	})
}

type singleRun struct {
	customerID  uuid.UUID
	runDate     time.Time
	mode        model.ExecutionMode
	hours       *decimal.Decimal
	opts        generateOptions
	sendEmail   bool
	triggeredBy string
}

// runSingle is the shared lifecycle of the three single-customer modes: one
// execution log wrapping one generation, finalized on both exit paths.
func (e *Engine) runSingle(ctx context.Context, run singleRun) (RunSummary, error) {
	entry, err := e.startLog(ctx, run.runDate, run.mode, run.triggeredBy)
	if err != nil {
		return RunSummary{}, err
	}

	var failures []Failure
	var generated []model.Invoice

	customer, err := e.customers.GetActive(ctx, run.customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = fmt.Errorf("%w: customer %s", ErrNotFound, run.customerID)
		}
		return RunSummary{}, e.failRun(ctx, entry, err)
	}
	entry.CustomersLoaded = 1
	entry.ScheduleMatches = 1

	hours, err := resolveHours(run.hours, customer)
	if err != nil {
		return RunSummary{}, e.failRun(ctx, entry, err)
	}

	invoice, err := e.generateInvoice(ctx, customer, run.runDate, hours, run.mode, run.opts)
	if err != nil {
		return RunSummary{}, e.failRun(ctx, entry, err)
	}
	entry.PDFsGenerated = 1
	generated = append(generated, *invoice)

	if run.sendEmail {
		if sendErr := e.sendInvoiceEmail(ctx, customer, invoice); sendErr != nil {
			e.log.Error().Err(sendErr).Str("invoice_number", invoice.InvoiceNumber).Msg("send invoice email")
			failures = append(failures, Failure{
				CustomerID:   customer.ID,
				CustomerName: customer.Name,
				Error:        emailFailurePrefix + sendErr.Error(),
			})
			entry.Failures = 1
		} else {
			entry.EmailsSent = 1
			generated[len(generated)-1] = *invoice
		}
	}

	e.finalize(ctx, entry)
	return e.summarize(entry, failures, generated), nil
}

func resolveHours(explicit *decimal.Decimal, customer *model.Customer) (decimal.Decimal, error) {
	if explicit != nil {
		return *explicit, nil
	}
	if customer.Contract == nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrNoContract, customer.Name)
	}
	return customer.Contract.DefaultHours, nil
}

// RunScheduled processes every active customer (optionally a given id set)
// sequentially. Customers without a contract or schedule are skipped, not
// failed. Per-customer errors are collected and the loop continues; only a
// run-level error (load failure, bad frequency) aborts the rest.
func (e *Engine) RunScheduled(ctx context.Context, input ScheduledInput, triggeredBy string) (RunSummary, error) {
	mode := model.ModeScheduled
	if input.IgnoreSchedule {
		mode = model.ModeGenerateAll
	}

	entry, err := e.startLog(ctx, input.RunDate, mode, triggeredBy)
	if err != nil {
		return RunSummary{}, err
	}

	var failures []Failure
	var generated []model.Invoice
	runDate := schedule.DateOnly(input.RunDate)

	customers, err := e.customers.ListActive(ctx, input.CustomerIDs)
	if err != nil {
		return RunSummary{}, e.failRun(ctx, entry, err)
	}
	entry.CustomersLoaded = len(customers)

	for i := range customers {
		customer := &customers[i]

		if customer.Contract == nil {
			e.log.Warn().Str("customer", customer.Name).Msg("no contract, skipping")
			continue
		}
		if customer.Schedule == nil {
			e.log.Warn().Str("customer", customer.Name).Msg("no schedule, skipping")
			continue
		}

		if !input.IgnoreSchedule {
			due, dueErr := schedule.IsDue(runDate, customer.Contract.Frequency, *customer.Schedule)
			if dueErr != nil {
				return RunSummary{}, e.failRun(ctx, entry, dueErr)
			}
			if !due {
				continue
			}
		}
		entry.ScheduleMatches++

		invoice, genErr := e.generateInvoice(ctx, customer, runDate, customer.Contract.DefaultHours, mode, generateOptions{})
		if genErr != nil {
			e.log.Error().Err(genErr).Str("customer", customer.Name).Msg("generate invoice")
			failures = append(failures, Failure{
				CustomerID:   customer.ID,
				CustomerName: customer.Name,
				Error:        genErr.Error(),
			})
			entry.Failures++
			continue
		}
		entry.PDFsGenerated++
		generated = append(generated, *invoice)

		shouldSend := input.SendEmail && (input.IgnoreSchedule || customer.Schedule.AutoSendEmail)
		if shouldSend {
			if sendErr := e.sendInvoiceEmail(ctx, customer, invoice); sendErr != nil {
				e.log.Error().Err(sendErr).Str("customer", customer.Name).Msg("send invoice email")
				failures = append(failures, Failure{
					CustomerID:   customer.ID,
					CustomerName: customer.Name,
					Error:        emailFailurePrefix + sendErr.Error(),
				})
				entry.Failures++
			} else {
				entry.EmailsSent++
				generated[len(generated)-1] = *invoice
			}
		}

		// Advisory cursor only; the next run still decides from IsDue.
		nextRun, nextErr := schedule.NextDueDate(runDate.AddDate(0, 0, 1), customer.Contract.Frequency, *customer.Schedule)
		if nextErr != nil {
			e.log.Warn().Err(nextErr).Str("customer", customer.Name).Msg("compute next run date")
		} else if cursorErr := e.customers.UpdateScheduleCursor(ctx, customer.ID, runDate, nextRun); cursorErr != nil {
			e.log.Warn().Err(cursorErr).Str("customer", customer.Name).Msg("update schedule cursor")
		}
	}

	e.finalize(ctx, entry)
	return e.summarize(entry, failures, generated), nil
}

// failRun records a run-level error on the log, finalizes it, and hands the
// error back for the caller to surface. Partial progress stays logged.
func (e *Engine) failRun(ctx context.Context, entry *model.ExecutionLog, err error) error {
	e.log.Error().Err(err).Str("mode", string(entry.Mode)).Msg("run failed")
	trace := err.Error()
	entry.ErrorTrace = &trace
	if entry.Mode != model.ModeScheduled && entry.Mode != model.ModeGenerateAll {
		entry.Failures++
	}
	e.finalize(ctx, entry)
	return err
}
