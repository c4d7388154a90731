package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"paydash/internal/core"
)

// BudgetService computes period summaries and anomaly reports from the
// persistence collaborator. It is stateless between invocations; concurrent
// calls are independent.
type BudgetService struct {
	store Store
	now   func() time.Time
}

// NewBudgetService wires the service with its store. The now function is
// injected so computations involving "today" are deterministic under test;
// nil means the system clock.
func NewBudgetService(store Store, now func() time.Time) *BudgetService {
	if now == nil {
		now = time.Now
	}
	return &BudgetService{store: store, now: now}
}

// CalculateBudgetSummary builds the per-category and whole-period breakdown
// for one period. Returns core.ErrPeriodNotFound (wrapped) when the period
// does not exist. A failed collaborator read aborts the whole computation;
// partial summaries are never returned.
func (s *BudgetService) CalculateBudgetSummary(ctx context.Context, periodID int64) (core.BudgetSummary, error) {
	period, err := s.store.GetPeriod(ctx, periodID)
	if err != nil {
		return core.BudgetSummary{}, fmt.Errorf("get period %d: %w", periodID, err)
	}

	// The three reads are independent against the same snapshot; only
	// assembly needs all of them.
	var (
		allocations  []core.AllocationWithCategory
		actualIncome int64
		spendByCat   map[string]int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		allocations, err = s.store.GetAllocationsWithCategories(gctx, periodID)
		if err != nil {
			return fmt.Errorf("get allocations: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		actualIncome, err = s.store.SumIncome(gctx, period.StartDate, period.EndDate)
		if err != nil {
			return fmt.Errorf("sum income: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		spendByCat, err = s.store.SumSpendByCategory(gctx, period.StartDate, period.EndDate)
		if err != nil {
			return fmt.Errorf("sum spend by category: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.BudgetSummary{}, err
	}

	return assembleSummary(period, allocations, actualIncome, spendByCat, core.DateOf(s.now())), nil
}

// assembleSummary is the pure final step, split out so tests can drive it
// directly with fixed inputs.
func assembleSummary(period core.BudgetPeriod, allocations []core.AllocationWithCategory, actualIncomeCents int64, spendByCategory map[string]int64, today core.Date) core.BudgetSummary {
	categories := make([]core.CategoryBreakdown, 0, len(allocations))
	var budgetedTotal int64
	for _, a := range allocations {
		spent := spendByCategory[a.CategoryID]
		categories = append(categories, buildBreakdown(a, spent))
		budgetedTotal += a.Allocated.Cents
	}

	// Whole-period spend covers every category, allocated or not.
	var spentTotal int64
	for _, cents := range spendByCategory {
		spentTotal += cents
	}

	totalDays := period.StartDate.DaysInclusive(period.EndDate)
	daysElapsed := period.StartDate.DaysInclusive(today)
	if daysElapsed < 0 {
		daysElapsed = 0
	}
	if daysElapsed > totalDays {
		daysElapsed = totalDays
	}

	savings := actualIncomeCents - spentTotal
	var savingsRate float64
	if actualIncomeCents != 0 {
		savingsRate = core.Round1(float64(savings) / float64(actualIncomeCents) * 100)
	}

	return core.BudgetSummary{
		PeriodID:  period.ID,
		StartDate: period.StartDate,
		EndDate:   period.EndDate,
		Income: core.IncomeSummary{
			ExpectedCents: period.ExpectedIncome.Cents,
			ActualCents:   actualIncomeCents,
		},
		Categories:       categories,
		BudgetedCents:    budgetedTotal,
		SpentCents:       spentTotal,
		UnallocatedCents: period.ExpectedIncome.Cents - budgetedTotal,
		SavingsCents:     savings,
		SavingsRate:      savingsRate,
		DaysElapsed:      daysElapsed,
		DaysRemaining:    totalDays - daysElapsed,
		TotalDays:        totalDays,
	}
}

// buildBreakdown derives one category's figures. A category with zero budget
// but nonzero spend reads as fully over budget (100%, status over) rather
// than dividing by zero.
func buildBreakdown(a core.AllocationWithCategory, spentCents int64) core.CategoryBreakdown {
	budgeted := a.Allocated.Cents

	var percent float64
	status := core.StatusUnder
	switch {
	case budgeted > 0:
		percent = core.Round1(float64(spentCents) / float64(budgeted) * 100)
		status = core.StatusForPercent(percent)
	case spentCents > 0:
		percent = 100
		status = core.StatusOver
	}

	return core.CategoryBreakdown{
		CategoryID:     a.CategoryID,
		CategoryName:   a.Name,
		Colour:         a.Colour,
		Icon:           a.Icon,
		BudgetedCents:  budgeted,
		SpentCents:     spentCents,
		RemainingCents: budgeted - spentCents,
		PercentUsed:    percent,
		Status:         status,
	}
}
