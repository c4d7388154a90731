package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"paydash/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the engine's persistence collaborator. Reads apply
// the engine's transaction filter uniformly: transfers and soft-deleted
// rows never reach a computation.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const periodColumns = `id, start_date, end_date, expected_income_cents`

func scanPeriod(row *sql.Row) (core.BudgetPeriod, error) {
	var (
		p          core.BudgetPeriod
		start, end string
	)
	if err := row.Scan(&p.ID, &start, &end, &p.ExpectedIncome.Cents); err != nil {
		return core.BudgetPeriod{}, err
	}
	var err error
	if p.StartDate, err = core.ParseDate(start); err != nil {
		return core.BudgetPeriod{}, fmt.Errorf("parse start date %q: %w", start, err)
	}
	if p.EndDate, err = core.ParseDate(end); err != nil {
		return core.BudgetPeriod{}, fmt.Errorf("parse end date %q: %w", end, err)
	}
	return p, nil
}

func (r *SQLiteRepository) GetPeriod(ctx context.Context, id int64) (core.BudgetPeriod, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+periodColumns+` FROM budget_periods WHERE id = ?`, id)
	p, err := scanPeriod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BudgetPeriod{}, core.ErrPeriodNotFound
	}
	if err != nil {
		return core.BudgetPeriod{}, fmt.Errorf("get period %d: %w", id, err)
	}
	return p, nil
}

func (r *SQLiteRepository) FindPeriodByStart(ctx context.Context, start core.Date) (core.BudgetPeriod, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+periodColumns+` FROM budget_periods WHERE start_date = ?`, start.String())
	p, err := scanPeriod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BudgetPeriod{}, core.ErrPeriodNotFound
	}
	if err != nil {
		return core.BudgetPeriod{}, fmt.Errorf("find period by start %s: %w", start, err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListRecentPeriods(ctx context.Context, n int) ([]core.BudgetPeriod, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+periodColumns+` FROM budget_periods ORDER BY start_date DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("list recent periods: %w", err)
	}
	defer rows.Close()

	var periods []core.BudgetPeriod
	for rows.Next() {
		var (
			p          core.BudgetPeriod
			start, end string
		)
		if err := rows.Scan(&p.ID, &start, &end, &p.ExpectedIncome.Cents); err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}
		if p.StartDate, err = core.ParseDate(start); err != nil {
			return nil, fmt.Errorf("parse start date %q: %w", start, err)
		}
		if p.EndDate, err = core.ParseDate(end); err != nil {
			return nil, fmt.Errorf("parse end date %q: %w", end, err)
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (r *SQLiteRepository) CreatePeriod(ctx context.Context, start, end core.Date, expectedIncomeCents int64) (core.BudgetPeriod, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budget_periods (start_date, end_date, expected_income_cents) VALUES (?, ?, ?)`,
		start.String(), end.String(), expectedIncomeCents)
	if err != nil {
		return core.BudgetPeriod{}, fmt.Errorf("insert period: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.BudgetPeriod{}, fmt.Errorf("period insert id: %w", err)
	}

	slog.InfoContext(ctx, "Budget period created",
		"period_id", id,
		"start", start.String(),
		"end", end.String())

	return core.BudgetPeriod{
		ID:             id,
		StartDate:      start,
		EndDate:        end,
		ExpectedIncome: core.Money{Cents: expectedIncomeCents},
	}, nil
}

func (r *SQLiteRepository) CopyAllocations(ctx context.Context, fromPeriodID, toPeriodID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budget_allocations (period_id, category_id, allocated_cents)
		 SELECT ?, category_id, allocated_cents
		 FROM budget_allocations
		 WHERE period_id = ?`, toPeriodID, fromPeriodID)
	if err != nil {
		return fmt.Errorf("copy allocations from period %d to %d: %w", fromPeriodID, toPeriodID, err)
	}
	return nil
}

func (r *SQLiteRepository) GetAllocationsWithCategories(ctx context.Context, periodID int64) ([]core.AllocationWithCategory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.category_id, c.saver_key, a.allocated_cents, c.name, c.colour, c.icon, c.sort_order
		 FROM budget_allocations a
		 JOIN budget_categories c ON c.id = a.category_id
		 WHERE a.period_id = ?
		 ORDER BY c.sort_order, a.category_id`, periodID)
	if err != nil {
		return nil, fmt.Errorf("get allocations for period %d: %w", periodID, err)
	}
	defer rows.Close()

	var allocs []core.AllocationWithCategory
	for rows.Next() {
		var a core.AllocationWithCategory
		if err := rows.Scan(&a.CategoryID, &a.SaverKey, &a.Allocated.Cents, &a.Name, &a.Colour, &a.Icon, &a.SortOrder); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		allocs = append(allocs, a)
	}
	return allocs, rows.Err()
}

// visibleTxn is the filter every aggregate shares: transfers and
// soft-deleted rows are invisible to the engine.
const visibleTxn = `is_transfer = 0 AND deleted_at IS NULL`

// SumIncome totals every income-tagged amount in the range as-is, so
// negative rows (payroll corrections, reversals) reduce actual income.
func (r *SQLiteRepository) SumIncome(ctx context.Context, start, end core.Date) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0)
		 FROM transactions
		 WHERE `+visibleTxn+`
		   AND category_key = ?
		   AND txn_date BETWEEN ? AND ?`,
		core.IncomeCategoryKey, start.String(), end.String()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum income: %w", err)
	}
	return total, nil
}

func (r *SQLiteRepository) sumSpendBy(ctx context.Context, column string, start, end core.Date) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+column+`, SUM(-amount_cents)
		 FROM transactions
		 WHERE `+visibleTxn+`
		   AND amount_cents < 0
		   AND txn_date BETWEEN ? AND ?
		 GROUP BY `+column,
		start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("sum spend by %s: %w", column, err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			key   string
			cents int64
		)
		if err := rows.Scan(&key, &cents); err != nil {
			return nil, fmt.Errorf("scan spend sum: %w", err)
		}
		out[key] = cents
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SumSpendByCategory(ctx context.Context, start, end core.Date) (map[string]int64, error) {
	return r.sumSpendBy(ctx, "category_key", start, end)
}

func (r *SQLiteRepository) SumSpendBySaver(ctx context.Context, start, end core.Date) (map[string]int64, error) {
	return r.sumSpendBy(ctx, "saver_key", start, end)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, start, end core.Date) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, amount_cents, txn_date, saver_key, category_key
		 FROM transactions
		 WHERE `+visibleTxn+`
		   AND txn_date BETWEEN ? AND ?
		 ORDER BY txn_date, id`,
		start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		var (
			t    core.Transaction
			date string
		)
		if err := rows.Scan(&t.ID, &t.Description, &t.Amount.Cents, &date, &t.SaverKey, &t.CategoryKey); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse transaction date %q: %w", date, err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// GetHistoricalAverages merges two aggregates keyed by (saver, category):
// the average absolute spend per transaction before the cutoff date, and
// the average allocated budget across the periods that ended before it.
func (r *SQLiteRepository) GetHistoricalAverages(ctx context.Context, before core.Date) ([]core.CategoryAverage, error) {
	type key struct{ saver, category string }
	merged := make(map[key]*core.CategoryAverage)

	get := func(k key) *core.CategoryAverage {
		if avg, ok := merged[k]; ok {
			return avg
		}
		avg := &core.CategoryAverage{SaverKey: k.saver, CategoryKey: k.category}
		merged[k] = avg
		return avg
	}

	txnRows, err := r.db.QueryContext(ctx,
		`SELECT saver_key, category_key, CAST(ROUND(AVG(-amount_cents)) AS INTEGER)
		 FROM transactions
		 WHERE `+visibleTxn+`
		   AND amount_cents < 0
		   AND txn_date < ?
		 GROUP BY saver_key, category_key`,
		before.String())
	if err != nil {
		return nil, fmt.Errorf("average transaction spend: %w", err)
	}
	defer txnRows.Close()
	for txnRows.Next() {
		var (
			k     key
			cents int64
		)
		if err := txnRows.Scan(&k.saver, &k.category, &cents); err != nil {
			return nil, fmt.Errorf("scan transaction average: %w", err)
		}
		get(k).AvgTransactionCents = cents
	}
	if err := txnRows.Err(); err != nil {
		return nil, err
	}

	budgetRows, err := r.db.QueryContext(ctx,
		`SELECT c.saver_key, a.category_id, CAST(ROUND(AVG(a.allocated_cents)) AS INTEGER)
		 FROM budget_allocations a
		 JOIN budget_categories c ON c.id = a.category_id
		 JOIN budget_periods p ON p.id = a.period_id
		 WHERE p.end_date < ?
		 GROUP BY c.saver_key, a.category_id`,
		before.String())
	if err != nil {
		return nil, fmt.Errorf("average allocated budget: %w", err)
	}
	defer budgetRows.Close()
	for budgetRows.Next() {
		var (
			k     key
			cents int64
		)
		if err := budgetRows.Scan(&k.saver, &k.category, &cents); err != nil {
			return nil, fmt.Errorf("scan budget average: %w", err)
		}
		get(k).AvgBudgetCents = cents
	}
	if err := budgetRows.Err(); err != nil {
		return nil, err
	}

	out := make([]core.CategoryAverage, 0, len(merged))
	for _, avg := range merged {
		out = append(out, *avg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SaverKey != out[j].SaverKey {
			return out[i].SaverKey < out[j].SaverKey
		}
		return out[i].CategoryKey < out[j].CategoryKey
	})
	return out, nil
}
