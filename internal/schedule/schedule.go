// Package schedule holds the pure calendar logic behind invoice timing:
// billing-period computation, the due-today predicate, and forward search
// for the next due date. No storage, no clocks; callers pass run dates in.
package schedule

import (
	"fmt"
	"time"

	"github.com/aikyn/invoice-engine/internal/model"
)

// scanWindowDays bounds the linear search in NextDueDate before the
// closed-form fallback takes over.
const scanWindowDays = 60

// Weekday converts Go's Sunday-based weekday to the 0=Monday..6=Sunday
// convention used by ScheduleConfig.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// DateOnly truncates to a UTC calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(DateOnly(to).Sub(DateOnly(from)).Hours() / 24)
}

// ComputeBillingPeriod returns the inclusive (start, end) billed by an
// invoice generated on runDate. The period always ends the day before
// runDate. Monthly ignores runDate's day entirely: the period is the whole
// previous calendar month.
func ComputeBillingPeriod(runDate time.Time, frequency model.BillingFrequency) (time.Time, time.Time, error) {
	runDate = DateOnly(runDate)
	end := runDate.AddDate(0, 0, -1)

	switch frequency {
	case model.FrequencyWeekly:
		return end.AddDate(0, 0, -6), end, nil
	case model.FrequencyBiweekly:
		return end.AddDate(0, 0, -13), end, nil
	case model.FrequencyMonthly:
		firstOfMonth := time.Date(runDate.Year(), runDate.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = firstOfMonth.AddDate(0, 0, -1)
		start := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, end, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unsupported frequency: %s", frequency)
	}
}

// IsDue reports whether an invoice should be generated on runDate for the
// given schedule. Disabled schedules are never due. Monthly schedules with a
// BillingDay past the end of a month are simply not due that month; there is
// no end-of-month clamping here.
func IsDue(runDate time.Time, frequency model.BillingFrequency, sched model.ScheduleConfig) (bool, error) {
	if !sched.IsEnabled {
		return false, nil
	}
	runDate = DateOnly(runDate)

	switch frequency {
	case model.FrequencyWeekly:
		return Weekday(runDate) == sched.BillingWeekday, nil
	case model.FrequencyBiweekly:
		if Weekday(runDate) != sched.BillingWeekday {
			return false, nil
		}
		// The anchor pins which of the two weekly occurrences bills.
		return daysBetween(sched.AnchorDate, runDate)%14 == 0, nil
	case model.FrequencyMonthly:
		return runDate.Day() == sched.BillingDay, nil
	default:
		return false, fmt.Errorf("unsupported frequency: %s", frequency)
	}
}

// NextDueDate returns the first date >= from on which IsDue holds. It scans
// up to scanWindowDays ahead; if the window never matches (a billing day that
// a run of short months cannot reach, or a disabled schedule) it falls back
// to a closed-form estimate per frequency.
func NextDueDate(from time.Time, frequency model.BillingFrequency, sched model.ScheduleConfig) (time.Time, error) {
	from = DateOnly(from)

	check := from
	for i := 0; i < scanWindowDays; i++ {
		due, err := IsDue(check, frequency, sched)
		if err != nil {
			return time.Time{}, err
		}
		if due {
			return check, nil
		}
		check = check.AddDate(0, 0, 1)
	}

	switch frequency {
	case model.FrequencyWeekly:
		return nextWeekdayOccurrence(from, sched.BillingWeekday), nil
	case model.FrequencyBiweekly:
		next := nextWeekdayOccurrence(from, sched.BillingWeekday)
		if daysBetween(sched.AnchorDate, next)%14 != 0 {
			next = next.AddDate(0, 0, 7)
		}
		return next, nil
	case model.FrequencyMonthly:
		return nextMonthlyEstimate(from, sched.BillingDay), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported frequency: %s", frequency)
	}
}

// nextWeekdayOccurrence finds the next occurrence of weekday strictly after
// from's day when from already sits on it.
func nextWeekdayOccurrence(from time.Time, weekday int) time.Time {
	days := (weekday - Weekday(from) + 7) % 7
	if days == 0 {
		days = 7
	}
	return from.AddDate(0, 0, days)
}

func nextMonthlyEstimate(from time.Time, billingDay int) time.Time {
	if from.Day() < billingDay {
		if billingDay <= daysInMonth(from.Year(), from.Month()) {
			return time.Date(from.Year(), from.Month(), billingDay, 0, 0, 0, 0, time.UTC)
		}
	}

	nextMonth := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	if billingDay <= daysInMonth(nextMonth.Year(), nextMonth.Month()) {
		return time.Date(nextMonth.Year(), nextMonth.Month(), billingDay, 0, 0, 0, 0, time.UTC)
	}
	// Billing day does not exist next month either; settle for its last day.
	return nextMonth.AddDate(0, 1, -1)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Day()
}

// FormatDate renders a date the way invoices and emails display it,
// e.g. "Feb 28, 2026".
func FormatDate(t time.Time) string {
	return t.Format("Jan 02, 2006")
}

var weekdayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeekdayName names a 0=Monday..6=Sunday weekday.
func WeekdayName(weekday int) string {
	if weekday < 0 || weekday >= len(weekdayNames) {
		return "Unknown"
	}
	return weekdayNames[weekday]
}
