// Package services implements the budget-period computation engine: payday
// arithmetic, period summaries, anomaly detection, template allocation and
// trend composition. Persistence is a collaborator behind the Store
// interface; every function takes the current time as input rather than
// reading the wall clock.
package services

import (
	"time"

	"paydash/internal/core"
)

// PeriodSpan is a computed pay-cycle boundary pair with its inclusive day
// count. It is a derived value, distinct from a persisted BudgetPeriod.
type PeriodSpan struct {
	StartDate    core.Date `json:"startDate"`
	EndDate      core.Date `json:"endDate"`
	DaysInPeriod int       `json:"daysInPeriod"`
}

// CalculateBudgetPeriod determines the pay period containing reference.
// The period starts at the most recent adjusted payday on or before
// reference and ends the day before the next adjusted payday.
func CalculateBudgetPeriod(settings core.PaydaySettings, reference core.Date) (PeriodSpan, error) {
	if err := settings.Validate(); err != nil {
		return PeriodSpan{}, err
	}

	start := lastPaydayOnOrBefore(settings, reference)
	end := nextPaydayAfter(settings, reference).AddDays(-1)

	return PeriodSpan{
		StartDate:    start,
		EndDate:      end,
		DaysInPeriod: start.DaysInclusive(end),
	}, nil
}

// FindNextPayday returns the next adjusted payday strictly after from.
func FindNextPayday(from core.Date, settings core.PaydaySettings) (core.Date, error) {
	if err := settings.Validate(); err != nil {
		return core.Date{}, err
	}
	return nextPaydayAfter(settings, from), nil
}

// DaysUntilPayday returns the calendar days from today to the next adjusted
// payday, 0 when today is itself a payday.
func DaysUntilPayday(settings core.PaydaySettings, today core.Date) (int, error) {
	if err := settings.Validate(); err != nil {
		return 0, err
	}
	// Include today itself as a candidate.
	next := nextPaydayAfter(settings, today.AddDays(-1))
	return today.DaysUntil(next), nil
}

// paydayForMonth computes the adjusted payday anchored to one month: the
// configured day clamped to the month's length, then shifted backward off
// weekends. A day-1 payday on a weekend lands in the previous month; the
// backward-only rule is applied unconditionally.
func paydayForMonth(settings core.PaydaySettings, year int, month time.Month) core.Date {
	day := settings.PaydayDay
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	raw := core.NewDate(year, int(month), day)
	if settings.AdjustForWeekends {
		return adjustForWeekend(raw)
	}
	return raw
}

// adjustForWeekend moves Saturday back one day and Sunday back two, so a
// weekend payday always pays on the preceding Friday. Never moves forward.
func adjustForWeekend(d core.Date) core.Date {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDays(-1)
	case time.Sunday:
		return d.AddDays(-2)
	}
	return d
}

// lastPaydayOnOrBefore finds the most recent adjusted payday <= ref.
// Adjustment can pull a payday into the previous calendar month, so the
// candidate set spans the months around ref; month-anchored paydays are
// strictly increasing, so scanning newest-first is enough.
func lastPaydayOnOrBefore(settings core.PaydaySettings, ref core.Date) core.Date {
	for offset := 1; ; offset-- {
		year, month := monthOffset(ref, offset)
		p := paydayForMonth(settings, year, month)
		if !p.After(ref.Time) {
			return p
		}
	}
}

// nextPaydayAfter finds the earliest adjusted payday strictly after from.
func nextPaydayAfter(settings core.PaydaySettings, from core.Date) core.Date {
	for offset := 0; ; offset++ {
		year, month := monthOffset(from, offset)
		p := paydayForMonth(settings, year, month)
		if p.After(from.Time) {
			return p
		}
	}
}

func monthOffset(d core.Date, months int) (int, time.Month) {
	shifted := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	return shifted.Year(), shifted.Month()
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
