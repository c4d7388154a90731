package services

import (
	"context"

	"paydash/internal/core"
)

// Ports for the persistence collaborator. The engine never fetches data on
// its own; everything it reads comes through these interfaces against a
// consistent snapshot.
type (
	PeriodReader interface {
		// GetPeriod returns the period or core.ErrPeriodNotFound.
		GetPeriod(ctx context.Context, id int64) (core.BudgetPeriod, error)

		// ListRecentPeriods returns up to n periods, newest first.
		ListRecentPeriods(ctx context.Context, n int) ([]core.BudgetPeriod, error)
	}

	AllocationReader interface {
		// GetAllocationsWithCategories returns the period's allocations
		// joined with category display data, ascending by sort order.
		GetAllocationsWithCategories(ctx context.Context, periodID int64) ([]core.AllocationWithCategory, error)
	}

	// TransactionAggregator exposes the aggregate reads over [start, end]
	// inclusive. All of them exclude transfers and soft-deleted rows.
	TransactionAggregator interface {
		// SumIncome sums transaction amounts tagged with the reserved
		// income category.
		SumIncome(ctx context.Context, start, end core.Date) (int64, error)

		// SumSpendByCategory sums abs(amount) of negative-amount
		// transactions grouped by category key.
		SumSpendByCategory(ctx context.Context, start, end core.Date) (map[string]int64, error)

		// SumSpendBySaver is the same rollup grouped by saver key.
		SumSpendBySaver(ctx context.Context, start, end core.Date) (map[string]int64, error)

		// ListTransactions returns the raw transaction feed for the range.
		ListTransactions(ctx context.Context, start, end core.Date) ([]core.Transaction, error)
	}

	HistoryReader interface {
		// GetHistoricalAverages returns per-(saver, category) averages
		// computed from data strictly before the given date.
		GetHistoricalAverages(ctx context.Context, before core.Date) ([]core.CategoryAverage, error)
	}

	// PeriodWriter is used only by the period-ensure workflow, never by the
	// read-only engine components.
	PeriodWriter interface {
		// FindPeriodByStart returns the period starting exactly on start,
		// or core.ErrPeriodNotFound.
		FindPeriodByStart(ctx context.Context, start core.Date) (core.BudgetPeriod, error)

		// CreatePeriod inserts a new period row.
		CreatePeriod(ctx context.Context, start, end core.Date, expectedIncomeCents int64) (core.BudgetPeriod, error)

		// CopyAllocations carries one period's allocations into another.
		CopyAllocations(ctx context.Context, fromPeriodID, toPeriodID int64) error
	}
)

// Store is the full persistence surface the engine services are wired with.
type Store interface {
	PeriodReader
	AllocationReader
	TransactionAggregator
	HistoryReader
}
