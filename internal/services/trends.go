package services

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"paydash/internal/core"
)

// DefaultTrendPeriods is how many historical periods the trends endpoint
// charts when the caller does not say.
const DefaultTrendPeriods = 6

// BuildTrends runs the aggregator over the supplied periods (newest first,
// as the store returns them) and emits chart rows reordered oldest to
// newest. Periods are disjoint by date range, so the per-period work fans
// out concurrently; slots are indexed so completion order cannot affect the
// result. Any failed period aborts the whole composition.
func (s *BudgetService) BuildTrends(ctx context.Context, periods []core.BudgetPeriod) ([]core.TrendRow, error) {
	rows := make([]core.TrendRow, len(periods))
	today := core.DateOf(s.now())

	g, gctx := errgroup.WithContext(ctx)
	for i, period := range periods {
		g.Go(func() error {
			summary, err := s.CalculateBudgetSummary(gctx, period.ID)
			if err != nil {
				return fmt.Errorf("period %d summary: %w", period.ID, err)
			}
			bySaver, err := s.store.SumSpendBySaver(gctx, period.StartDate, period.EndDate)
			if err != nil {
				return fmt.Errorf("period %d saver spend: %w", period.ID, err)
			}

			savers := make([]core.SaverSpend, 0, len(bySaver))
			for key, cents := range bySaver {
				savers = append(savers, core.SaverSpend{SaverKey: key, SpentCents: cents})
			}
			sort.Slice(savers, func(a, b int) bool { return savers[a].SaverKey < savers[b].SaverKey })

			projected := !today.Before(period.StartDate.Time) && !today.After(period.EndDate.Time)

			rows[i] = core.TrendRow{
				PeriodID:     period.ID,
				StartDate:    period.StartDate,
				EndDate:      period.EndDate,
				IsProjected:  projected,
				IncomeCents:  summary.Income.ActualCents,
				SpentCents:   summary.SpentCents,
				SavingsCents: summary.SavingsCents,
				SavingsRate:  summary.SavingsRate,
				Categories:   summary.Categories,
				SaverSpend:   savers,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Input is newest first; charts read oldest to newest.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

// ComposeTrends fetches the N most recent periods and builds their trend
// series.
func (s *BudgetService) ComposeTrends(ctx context.Context, periods int) ([]core.TrendRow, error) {
	if periods <= 0 {
		periods = DefaultTrendPeriods
	}
	recent, err := s.store.ListRecentPeriods(ctx, periods)
	if err != nil {
		return nil, fmt.Errorf("list recent periods: %w", err)
	}
	return s.BuildTrends(ctx, recent)
}
