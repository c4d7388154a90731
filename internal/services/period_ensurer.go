package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"paydash/internal/core"
)

// EventPublisher is the async notification side of the ensure workflow.
// A nil publisher disables events without failing the workflow.
type EventPublisher interface {
	PublishPeriodEnsured(ctx context.Context, periodID int64, start, end core.Date) error
	PublishAnomalyAlert(ctx context.Context, periodID int64, alertCount int) error
}

// EnsurerStore is the persistence surface the ensure workflow needs: the
// read-only engine surface plus period writes.
type EnsurerStore interface {
	Store
	PeriodWriter
}

// PeriodEnsurer creates the current BudgetPeriod row when it does not exist
// yet, carrying the previous period's allocations and expected income
// forward. It is the only engine-side component that writes.
type PeriodEnsurer struct {
	store    EnsurerStore
	budget   *BudgetService
	events   EventPublisher
	settings core.PaydaySettings
	now      func() time.Time
}

// NewPeriodEnsurer wires the ensure workflow. Settings must be valid; the
// now function is injected for deterministic tests, nil means the system
// clock.
func NewPeriodEnsurer(store EnsurerStore, budget *BudgetService, events EventPublisher, settings core.PaydaySettings, now func() time.Time) (*PeriodEnsurer, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("payday settings: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	return &PeriodEnsurer{
		store:    store,
		budget:   budget,
		events:   events,
		settings: settings,
		now:      now,
	}, nil
}

// EnsureCurrentPeriod computes today's pay-cycle span and creates the
// matching period row if absent. Idempotent: the span's start date is the
// natural key. Reports whether a row was created.
func (p *PeriodEnsurer) EnsureCurrentPeriod(ctx context.Context) (core.BudgetPeriod, bool, error) {
	today := core.DateOf(p.now())
	span, err := CalculateBudgetPeriod(p.settings, today)
	if err != nil {
		return core.BudgetPeriod{}, false, fmt.Errorf("calculate current span: %w", err)
	}

	existing, err := p.store.FindPeriodByStart(ctx, span.StartDate)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, core.ErrPeriodNotFound) {
		return core.BudgetPeriod{}, false, fmt.Errorf("find period by start: %w", err)
	}

	// Seed the new period from the most recent one.
	var previous *core.BudgetPeriod
	recent, err := p.store.ListRecentPeriods(ctx, 1)
	if err != nil {
		return core.BudgetPeriod{}, false, fmt.Errorf("list recent periods: %w", err)
	}
	if len(recent) > 0 {
		previous = &recent[0]
	}

	var expectedIncome int64
	if previous != nil {
		expectedIncome = previous.ExpectedIncome.Cents
	}

	created, err := p.store.CreatePeriod(ctx, span.StartDate, span.EndDate, expectedIncome)
	if err != nil {
		return core.BudgetPeriod{}, false, fmt.Errorf("create period: %w", err)
	}

	if previous != nil {
		if err := p.store.CopyAllocations(ctx, previous.ID, created.ID); err != nil {
			return core.BudgetPeriod{}, false, fmt.Errorf("carry forward allocations: %w", err)
		}
	}

	slog.InfoContext(ctx, "Created budget period",
		"period_id", created.ID,
		"start", created.StartDate.String(),
		"end", created.EndDate.String(),
		"expected_income_cents", expectedIncome)

	// Events are best-effort; the period row is already committed.
	if p.events != nil {
		if err := p.events.PublishPeriodEnsured(ctx, created.ID, created.StartDate, created.EndDate); err != nil {
			slog.ErrorContext(ctx, "Failed to publish period.ensured event",
				"period_id", created.ID, "error", err)
		}
	}

	return created, true, nil
}

// ScanCurrentPeriod ensures the period and runs the anomaly detector over
// it, publishing an alert event when alert-severity anomalies are present.
func (p *PeriodEnsurer) ScanCurrentPeriod(ctx context.Context) ([]core.Anomaly, error) {
	period, _, err := p.EnsureCurrentPeriod(ctx)
	if err != nil {
		return nil, err
	}

	anomalies, err := p.budget.DetectPeriodAnomalies(ctx, period.ID)
	if err != nil {
		return nil, fmt.Errorf("detect anomalies for period %d: %w", period.ID, err)
	}

	alerts := 0
	for _, a := range anomalies {
		if a.Severity == core.SeverityAlert {
			alerts++
		}
	}
	if alerts > 0 && p.events != nil {
		if err := p.events.PublishAnomalyAlert(ctx, period.ID, alerts); err != nil {
			slog.ErrorContext(ctx, "Failed to publish anomaly.alert event",
				"period_id", period.ID, "alerts", alerts, "error", err)
		}
	}

	slog.InfoContext(ctx, "Anomaly scan complete",
		"period_id", period.ID,
		"anomalies", len(anomalies),
		"alerts", alerts)

	return anomalies, nil
}
