package core

import (
	"errors"
	"time"
)

// IncomeCategoryKey is the reserved category key for income transactions.
// Transactions tagged with it count toward actual income, never toward spend.
const IncomeCategoryKey = "income"

type (
	// Date is a calendar date at UTC midnight. All period boundaries and
	// transaction dates are Dates; time-of-day never participates in any
	// engine computation.
	Date struct {
		time.Time
	}

	// PaydaySettings configures the monthly payday rule.
	PaydaySettings struct {
		PaydayDay         int  `json:"paydayDay"` // 1-28
		AdjustForWeekends bool `json:"adjustForWeekends"`
	}

	// BudgetPeriod is one pay cycle with inclusive calendar boundaries.
	// The engine only reads periods; the period-ensure worker creates them.
	BudgetPeriod struct {
		ID             int64 `json:"id"`
		StartDate      Date  `json:"startDate"`
		EndDate        Date  `json:"endDate"`
		ExpectedIncome Money `json:"expectedIncomeCents"`
	}

	// BudgetCategory is stable reference data. ID is a slug key ("rent",
	// "groceries") shared with Transaction.CategoryKey.
	BudgetCategory struct {
		ID        string `json:"id"`
		SaverKey  string `json:"saverKey"`
		Name      string `json:"name"`
		Colour    string `json:"colour"`
		Icon      string `json:"icon"`
		SortOrder int    `json:"sortOrder"`
	}

	// BudgetAllocation is the planned spend ceiling for one category within
	// one period.
	BudgetAllocation struct {
		CategoryID     string `json:"categoryId"`
		BudgetPeriodID int64  `json:"budgetPeriodId"`
		Allocated      Money  `json:"allocatedCents"`
	}

	// AllocationWithCategory is an allocation joined with its category's
	// display fields, as returned by the persistence collaborator.
	AllocationWithCategory struct {
		CategoryID string
		SaverKey   string
		Allocated  Money
		Name       string
		Colour     string
		Icon       string
		SortOrder  int
	}

	// Transaction is the engine's view of a bank transaction. Negative
	// amounts are spend, positive are income or credits. Transfers and
	// soft-deleted rows are filtered out before the engine sees them.
	Transaction struct {
		ID          int64  `json:"id"`
		Description string `json:"description"`
		Amount      Money  `json:"amountCents"`
		Date        Date   `json:"transactionDate"`
		SaverKey    string `json:"saverKey"`
		CategoryKey string `json:"categoryKey"`
	}

	// CategoryAverage carries historical figures for one (saver, category)
	// key: the average absolute spend per transaction and the average
	// allocated budget across prior periods.
	CategoryAverage struct {
		SaverKey            string
		CategoryKey         string
		AvgTransactionCents int64
		AvgBudgetCents      int64
	}
)

var (
	ErrPeriodNotFound    = errors.New("budget period not found")
	ErrInvalidPaydayDay  = errors.New("payday day must be between 1 and 28")
	ErrMissingAmount     = errors.New("template entry has no amount")
	ErrInvalidPercentage = errors.New("template percentage must be between 0 and 100")
	ErrInvalidFixedCents = errors.New("template fixed amount cannot be negative")
	ErrEmptyCategoryID   = errors.New("empty category id")
)

// DefaultPaydaySettings is the documented system default applied by callers
// when no settings have ever been saved.
func DefaultPaydaySettings() PaydaySettings {
	return PaydaySettings{PaydayDay: 15, AdjustForWeekends: true}
}

// Validate rejects out-of-range payday days. Values 29-31 are rejected
// rather than clamped: clamping here would hide a caller bug, while
// month-length clamping is a deliberate, separate step inside the
// payday calculator.
func (s PaydaySettings) Validate() error {
	if s.PaydayDay < 1 || s.PaydayDay > 28 {
		return ErrInvalidPaydayDay
	}
	return nil
}

// NewDate creates a Date from year, month and day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its UTC calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// AddDays returns the date n calendar days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysUntil returns the signed number of calendar days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

// DaysInclusive returns the inclusive day count of [d, other].
// DaysInclusive(x, x) is 1.
func (d Date) DaysInclusive(other Date) int {
	return d.DaysUntil(other) + 1
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return errors.New("date must be a JSON string")
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsSpend reports whether the transaction is a spend (negative amount).
func (t Transaction) IsSpend() bool {
	return t.Amount.Cents < 0
}
