package services

import (
	"context"
	"sort"
	"time"

	"paydash/internal/core"
)

// fakeStore backs the service tests with plain slices. Aggregates are
// derived from the transaction fixtures the same way the SQL store derives
// them, so one fixture drives every read. failures injects per-method
// errors.
type fakeStore struct {
	periods      []core.BudgetPeriod
	allocations  map[int64][]core.AllocationWithCategory
	transactions []core.Transaction
	averages     []core.CategoryAverage
	failures     map[string]error

	nextPeriodID int64
	copied       [][2]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		allocations: make(map[int64][]core.AllocationWithCategory),
		failures:    make(map[string]error),
	}
}

func (f *fakeStore) inRange(t core.Transaction, start, end core.Date) bool {
	return !t.Date.Before(start.Time) && !t.Date.After(end.Time)
}

func (f *fakeStore) GetPeriod(_ context.Context, id int64) (core.BudgetPeriod, error) {
	if err := f.failures["GetPeriod"]; err != nil {
		return core.BudgetPeriod{}, err
	}
	for _, p := range f.periods {
		if p.ID == id {
			return p, nil
		}
	}
	return core.BudgetPeriod{}, core.ErrPeriodNotFound
}

func (f *fakeStore) ListRecentPeriods(_ context.Context, n int) ([]core.BudgetPeriod, error) {
	if err := f.failures["ListRecentPeriods"]; err != nil {
		return nil, err
	}
	sorted := make([]core.BudgetPeriod, len(f.periods))
	copy(sorted, f.periods)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartDate.After(sorted[j].StartDate.Time)
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted, nil
}

func (f *fakeStore) GetAllocationsWithCategories(_ context.Context, periodID int64) ([]core.AllocationWithCategory, error) {
	if err := f.failures["GetAllocationsWithCategories"]; err != nil {
		return nil, err
	}
	allocs := make([]core.AllocationWithCategory, len(f.allocations[periodID]))
	copy(allocs, f.allocations[periodID])
	sort.Slice(allocs, func(i, j int) bool { return allocs[i].SortOrder < allocs[j].SortOrder })
	return allocs, nil
}

func (f *fakeStore) SumIncome(_ context.Context, start, end core.Date) (int64, error) {
	if err := f.failures["SumIncome"]; err != nil {
		return 0, err
	}
	var total int64
	for _, t := range f.transactions {
		if t.CategoryKey == core.IncomeCategoryKey && f.inRange(t, start, end) {
			total += t.Amount.Cents
		}
	}
	return total, nil
}

func (f *fakeStore) SumSpendByCategory(_ context.Context, start, end core.Date) (map[string]int64, error) {
	if err := f.failures["SumSpendByCategory"]; err != nil {
		return nil, err
	}
	out := make(map[string]int64)
	for _, t := range f.transactions {
		if t.IsSpend() && f.inRange(t, start, end) {
			out[t.CategoryKey] += t.Amount.Abs().Cents
		}
	}
	return out, nil
}

func (f *fakeStore) SumSpendBySaver(_ context.Context, start, end core.Date) (map[string]int64, error) {
	if err := f.failures["SumSpendBySaver"]; err != nil {
		return nil, err
	}
	out := make(map[string]int64)
	for _, t := range f.transactions {
		if t.IsSpend() && f.inRange(t, start, end) {
			out[t.SaverKey] += t.Amount.Abs().Cents
		}
	}
	return out, nil
}

func (f *fakeStore) ListTransactions(_ context.Context, start, end core.Date) ([]core.Transaction, error) {
	if err := f.failures["ListTransactions"]; err != nil {
		return nil, err
	}
	var out []core.Transaction
	for _, t := range f.transactions {
		if f.inRange(t, start, end) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) GetHistoricalAverages(_ context.Context, _ core.Date) ([]core.CategoryAverage, error) {
	if err := f.failures["GetHistoricalAverages"]; err != nil {
		return nil, err
	}
	return f.averages, nil
}

func (f *fakeStore) FindPeriodByStart(_ context.Context, start core.Date) (core.BudgetPeriod, error) {
	if err := f.failures["FindPeriodByStart"]; err != nil {
		return core.BudgetPeriod{}, err
	}
	for _, p := range f.periods {
		if p.StartDate.Equal(start.Time) {
			return p, nil
		}
	}
	return core.BudgetPeriod{}, core.ErrPeriodNotFound
}

func (f *fakeStore) CreatePeriod(_ context.Context, start, end core.Date, expectedIncomeCents int64) (core.BudgetPeriod, error) {
	if err := f.failures["CreatePeriod"]; err != nil {
		return core.BudgetPeriod{}, err
	}
	f.nextPeriodID++
	p := core.BudgetPeriod{
		ID:             f.nextPeriodID + 1000,
		StartDate:      start,
		EndDate:        end,
		ExpectedIncome: core.Money{Cents: expectedIncomeCents},
	}
	f.periods = append(f.periods, p)
	return p, nil
}

func (f *fakeStore) CopyAllocations(_ context.Context, fromPeriodID, toPeriodID int64) error {
	if err := f.failures["CopyAllocations"]; err != nil {
		return err
	}
	f.copied = append(f.copied, [2]int64{fromPeriodID, toPeriodID})
	f.allocations[toPeriodID] = append([]core.AllocationWithCategory(nil), f.allocations[fromPeriodID]...)
	return nil
}

func fixedNow(d core.Date) func() time.Time {
	return func() time.Time { return d.Time }
}
