package storage

import (
	"context"
	"path/filepath"
	"testing"

	"paydash/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "paydash_test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func insertTxn(t *testing.T, repo *SQLiteRepository, desc string, cents int64, date, saver, category string, isTransfer bool, deletedAt any) {
	t.Helper()
	transfer := 0
	if isTransfer {
		transfer = 1
	}
	_, err := repo.db.Exec(
		`INSERT INTO transactions (description, amount_cents, txn_date, saver_key, category_key, is_transfer, deleted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		desc, cents, date, saver, category, transfer, deletedAt)
	if err != nil {
		t.Fatalf("insert transaction %q: %v", desc, err)
	}
}

func TestSumIncomeIncludesNegativeIncomeRows(t *testing.T) {
	repo := newTestRepo(t)
	start := core.NewDate(2026, 3, 13)
	end := core.NewDate(2026, 4, 14)

	insertTxn(t, repo, "SALARY", 500000, "2026-03-15", "income", core.IncomeCategoryKey, false, nil)
	insertTxn(t, repo, "PAYROLL CORRECTION", -20000, "2026-03-16", "income", core.IncomeCategoryKey, false, nil)
	insertTxn(t, repo, "GROCERIES", -8500, "2026-03-17", "living", "groceries", false, nil)
	insertTxn(t, repo, "SAVINGS TRANSFER", 30000, "2026-03-18", "income", core.IncomeCategoryKey, true, nil)
	insertTxn(t, repo, "DELETED SALARY", 100000, "2026-03-19", "income", core.IncomeCategoryKey, false, "2026-03-20 00:00:00")
	insertTxn(t, repo, "EARLY SALARY", 400000, "2026-02-15", "income", core.IncomeCategoryKey, false, nil)

	got, err := repo.SumIncome(context.Background(), start, end)
	if err != nil {
		t.Fatalf("SumIncome: %v", err)
	}
	if got != 480000 {
		t.Errorf("SumIncome = %d, want 480000", got)
	}
}

func TestSumSpendByCategoryOnlyNegativeAmounts(t *testing.T) {
	repo := newTestRepo(t)
	start := core.NewDate(2026, 3, 13)
	end := core.NewDate(2026, 4, 14)

	insertTxn(t, repo, "GROCERIES", -8500, "2026-03-17", "living", "groceries", false, nil)
	insertTxn(t, repo, "GROCERIES REFUND", 2000, "2026-03-18", "living", "groceries", false, nil)
	insertTxn(t, repo, "RENT", -212900, "2026-03-14", "home", "rent", false, nil)
	insertTxn(t, repo, "RENT TRANSFER", -212900, "2026-03-14", "home", "rent", true, nil)

	got, err := repo.SumSpendByCategory(context.Background(), start, end)
	if err != nil {
		t.Fatalf("SumSpendByCategory: %v", err)
	}
	want := map[string]int64{"groceries": 8500, "rent": 212900}
	if len(got) != len(want) {
		t.Fatalf("SumSpendByCategory returned %d categories, want %d: %v", len(got), len(want), got)
	}
	for key, cents := range want {
		if got[key] != cents {
			t.Errorf("spend[%s] = %d, want %d", key, got[key], cents)
		}
	}
}
