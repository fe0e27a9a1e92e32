package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aikyn/invoice-engine/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekday(t *testing.T) {
	// 2026-01-02 is a Friday.
	assert.Equal(t, 4, Weekday(date(2026, 1, 2)))
	// 2026-01-04 is a Sunday.
	assert.Equal(t, 6, Weekday(date(2026, 1, 4)))
	// 2026-01-05 is a Monday.
	assert.Equal(t, 0, Weekday(date(2026, 1, 5)))
}

func TestComputeBillingPeriod(t *testing.T) {
	tests := []struct {
		name      string
		runDate   time.Time
		frequency model.BillingFrequency
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "weekly ends the day before run date",
			runDate:   date(2026, 1, 16),
			frequency: model.FrequencyWeekly,
			wantStart: date(2026, 1, 9),
			wantEnd:   date(2026, 1, 15),
		},
		{
			name:      "biweekly covers fourteen days",
			runDate:   date(2026, 1, 16),
			frequency: model.FrequencyBiweekly,
			wantStart: date(2026, 1, 2),
			wantEnd:   date(2026, 1, 15),
		},
		{
			name:      "monthly is the entire previous month",
			runDate:   date(2026, 3, 1),
			frequency: model.FrequencyMonthly,
			wantStart: date(2026, 2, 1),
			wantEnd:   date(2026, 2, 28),
		},
		{
			name:      "monthly ignores the run day entirely",
			runDate:   date(2026, 3, 17),
			frequency: model.FrequencyMonthly,
			wantStart: date(2026, 2, 1),
			wantEnd:   date(2026, 2, 28),
		},
		{
			name:      "monthly across a year boundary",
			runDate:   date(2026, 1, 5),
			frequency: model.FrequencyMonthly,
			wantStart: date(2025, 12, 1),
			wantEnd:   date(2025, 12, 31),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := ComputeBillingPeriod(tt.runDate, tt.frequency)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
			assert.True(t, end.Before(tt.runDate), "period must never include the run date")
		})
	}
}

func TestComputeBillingPeriodLengths(t *testing.T) {
	runDate := date(2026, 6, 15)

	start, end, err := ComputeBillingPeriod(runDate, model.FrequencyWeekly)
	require.NoError(t, err)
	assert.Equal(t, 6, int(end.Sub(start).Hours()/24))

	start, end, err = ComputeBillingPeriod(runDate, model.FrequencyBiweekly)
	require.NoError(t, err)
	assert.Equal(t, 13, int(end.Sub(start).Hours()/24))
}

func TestComputeBillingPeriodUnsupportedFrequency(t *testing.T) {
	_, _, err := ComputeBillingPeriod(date(2026, 1, 1), model.BillingFrequency("quarterly"))
	assert.Error(t, err)
}

func TestIsDueDisabledSchedule(t *testing.T) {
	sched := model.ScheduleConfig{
		IsEnabled:      false,
		BillingWeekday: 4,
		AnchorDate:     date(2026, 1, 2),
		BillingDay:     1,
	}
	for _, freq := range []model.BillingFrequency{
		model.FrequencyWeekly, model.FrequencyBiweekly, model.FrequencyMonthly,
	} {
		for day := 0; day < 40; day++ {
			due, err := IsDue(date(2026, 1, 1).AddDate(0, 0, day), freq, sched)
			require.NoError(t, err)
			assert.False(t, due)
		}
	}
}

func TestIsDueWeekly(t *testing.T) {
	sched := model.ScheduleConfig{IsEnabled: true, BillingWeekday: 4}

	due, err := IsDue(date(2026, 1, 2), model.FrequencyWeekly, sched) // Friday
	require.NoError(t, err)
	assert.True(t, due)

	due, err = IsDue(date(2026, 1, 3), model.FrequencyWeekly, sched) // Saturday
	require.NoError(t, err)
	assert.False(t, due)
}

func TestIsDueBiweeklyAnchorPhase(t *testing.T) {
	sched := model.ScheduleConfig{
		IsEnabled:      true,
		BillingWeekday: 4,
		AnchorDate:     date(2026, 1, 2), // a Friday
	}

	cases := []struct {
		day  time.Time
		want bool
	}{
		{date(2026, 1, 2), true},
		{date(2026, 1, 9), false}, // right weekday, wrong phase
		{date(2026, 1, 16), true},
		{date(2026, 1, 23), false},
		{date(2026, 1, 30), true},
		{date(2026, 1, 15), false}, // Thursday
	}
	for _, tc := range cases {
		due, err := IsDue(tc.day, model.FrequencyBiweekly, sched)
		require.NoError(t, err)
		assert.Equal(t, tc.want, due, "date %s", tc.day.Format("2006-01-02"))
	}
}

func TestIsDueBiweeklyRecursEveryFourteenDays(t *testing.T) {
	sched := model.ScheduleConfig{
		IsEnabled:      true,
		BillingWeekday: 1,
		AnchorDate:     date(2026, 2, 3), // a Tuesday
	}

	d := date(2026, 2, 3)
	for i := 0; i < 6; i++ {
		due, err := IsDue(d, model.FrequencyBiweekly, sched)
		require.NoError(t, err)
		assert.True(t, due)

		offWeek, err := IsDue(d.AddDate(0, 0, 7), model.FrequencyBiweekly, sched)
		require.NoError(t, err)
		assert.False(t, offWeek)

		d = d.AddDate(0, 0, 14)
	}
}

func TestIsDueMonthlyNoClamping(t *testing.T) {
	sched := model.ScheduleConfig{IsEnabled: true, BillingDay: 31}

	due, err := IsDue(date(2026, 1, 31), model.FrequencyMonthly, sched)
	require.NoError(t, err)
	assert.True(t, due)

	// April has 30 days; day 31 simply never arrives.
	for day := 1; day <= 30; day++ {
		due, err = IsDue(date(2026, 4, day), model.FrequencyMonthly, sched)
		require.NoError(t, err)
		assert.False(t, due)
	}
}

func TestNextDueDateScanFindsFirstMatch(t *testing.T) {
	tests := []struct {
		name      string
		from      time.Time
		frequency model.BillingFrequency
		sched     model.ScheduleConfig
		want      time.Time
	}{
		{
			name:      "weekly from a non-billing day",
			from:      date(2026, 1, 3), // Saturday
			frequency: model.FrequencyWeekly,
			sched:     model.ScheduleConfig{IsEnabled: true, BillingWeekday: 4},
			want:      date(2026, 1, 9),
		},
		{
			name:      "weekly due same day is returned",
			from:      date(2026, 1, 2),
			frequency: model.FrequencyWeekly,
			sched:     model.ScheduleConfig{IsEnabled: true, BillingWeekday: 4},
			want:      date(2026, 1, 2),
		},
		{
			name:      "biweekly skips the off week",
			from:      date(2026, 1, 3),
			frequency: model.FrequencyBiweekly,
			sched:     model.ScheduleConfig{IsEnabled: true, BillingWeekday: 4, AnchorDate: date(2026, 1, 2)},
			want:      date(2026, 1, 16),
		},
		{
			name:      "monthly later this month",
			from:      date(2026, 3, 10),
			frequency: model.FrequencyMonthly,
			sched:     model.ScheduleConfig{IsEnabled: true, BillingDay: 15},
			want:      date(2026, 3, 15),
		},
		{
			name:      "monthly day already passed rolls to next month",
			from:      date(2026, 3, 20),
			frequency: model.FrequencyMonthly,
			sched:     model.ScheduleConfig{IsEnabled: true, BillingDay: 15},
			want:      date(2026, 4, 15),
		},
		{
			name:      "monthly day missing this month lands on next occurrence",
			from:      date(2026, 4, 1),
			frequency: model.FrequencyMonthly,
			sched:     model.ScheduleConfig{IsEnabled: true, BillingDay: 31},
			want:      date(2026, 5, 31),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextDueDate(tt.from, tt.frequency, tt.sched)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			assert.False(t, got.Before(tt.from), "next due date must not precede from")
			due, err := IsDue(got, tt.frequency, tt.sched)
			require.NoError(t, err)
			assert.True(t, due, "next due date must itself be due")
		})
	}
}

func TestNextDueDateFallbackWhenScanNeverMatches(t *testing.T) {
	// A disabled schedule defeats the scan, forcing the closed-form paths.
	t.Run("weekly advances to the next weekday occurrence", func(t *testing.T) {
		sched := model.ScheduleConfig{IsEnabled: false, BillingWeekday: 4}
		got, err := NextDueDate(date(2026, 1, 2), model.FrequencyWeekly, sched) // already Friday
		require.NoError(t, err)
		assert.Equal(t, date(2026, 1, 9), got, "same-day is never returned by the fallback")
	})

	t.Run("biweekly corrects the phase", func(t *testing.T) {
		sched := model.ScheduleConfig{IsEnabled: false, BillingWeekday: 4, AnchorDate: date(2026, 1, 2)}
		got, err := NextDueDate(date(2026, 1, 3), model.FrequencyBiweekly, sched)
		require.NoError(t, err)
		assert.Equal(t, date(2026, 1, 16), got)
	})

	t.Run("monthly clamps to the last day of next month", func(t *testing.T) {
		sched := model.ScheduleConfig{IsEnabled: false, BillingDay: 30}
		got, err := NextDueDate(date(2026, 1, 31), model.FrequencyMonthly, sched)
		require.NoError(t, err)
		assert.Equal(t, date(2026, 2, 28), got)
	})
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "Feb 28, 2026", FormatDate(date(2026, 2, 28)))
}

func TestWeekdayName(t *testing.T) {
	assert.Equal(t, "Monday", WeekdayName(0))
	assert.Equal(t, "Friday", WeekdayName(4))
	assert.Equal(t, "Sunday", WeekdayName(6))
	assert.Equal(t, "Unknown", WeekdayName(7))
}
