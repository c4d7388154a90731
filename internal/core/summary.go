package core

// BreakdownStatus classifies how far a category's spend has eaten into its
// allocation.
type BreakdownStatus string

const (
	StatusUnder   BreakdownStatus = "under"
	StatusWarning BreakdownStatus = "warning"
	StatusOver    BreakdownStatus = "over"
)

// StatusForPercent derives the status from percent of budget used:
// over above 100, warning from 80 up, under below.
func StatusForPercent(percentUsed float64) BreakdownStatus {
	switch {
	case percentUsed > 100:
		return StatusOver
	case percentUsed >= 80:
		return StatusWarning
	default:
		return StatusUnder
	}
}

// CategoryBreakdown is the per-category slice of a BudgetSummary.
// RemainingCents is always BudgetedCents - SpentCents and may be negative.
type CategoryBreakdown struct {
	CategoryID     string          `json:"categoryId"`
	CategoryName   string          `json:"categoryName"`
	Colour         string          `json:"colour"`
	Icon           string          `json:"icon"`
	BudgetedCents  int64           `json:"budgetedCents"`
	SpentCents     int64           `json:"spentCents"`
	RemainingCents int64           `json:"remainingCents"`
	PercentUsed    float64         `json:"percentUsed"`
	Status         BreakdownStatus `json:"status"`
}

// IncomeSummary pairs the period's planned income with what actually landed.
type IncomeSummary struct {
	ExpectedCents int64 `json:"expectedCents"`
	ActualCents   int64 `json:"actualCents"`
}

// BudgetSummary is the whole-period rollup, computed fresh on every
// invocation. Categories are ordered by category sort order.
type BudgetSummary struct {
	PeriodID         int64               `json:"periodId"`
	StartDate        Date                `json:"startDate"`
	EndDate          Date                `json:"endDate"`
	Income           IncomeSummary       `json:"income"`
	Categories       []CategoryBreakdown `json:"categories"`
	BudgetedCents    int64               `json:"budgetedCents"`
	SpentCents       int64               `json:"spentCents"`
	UnallocatedCents int64               `json:"unallocatedCents"`
	SavingsCents     int64               `json:"savingsCents"`
	SavingsRate      float64             `json:"savingsRate"`
	DaysElapsed      int                 `json:"daysElapsed"`
	DaysRemaining    int                 `json:"daysRemaining"`
	TotalDays        int                 `json:"totalDays"`
}

// SaverSpend is a saver-level spend total for one period.
type SaverSpend struct {
	SaverKey   string `json:"saverKey"`
	SpentCents int64  `json:"spentCents"`
}

// TrendRow is one period's slice of the trends time series, oldest first in
// the composed output. IsProjected marks the current, still-accumulating
// period whose totals are partial.
type TrendRow struct {
	PeriodID      int64               `json:"periodId"`
	StartDate     Date                `json:"startDate"`
	EndDate       Date                `json:"endDate"`
	IsProjected   bool                `json:"isProjected"`
	IncomeCents   int64               `json:"incomeCents"`
	SpentCents    int64               `json:"spentCents"`
	SavingsCents  int64               `json:"savingsCents"`
	SavingsRate   float64             `json:"savingsRate"`
	Categories    []CategoryBreakdown `json:"categories"`
	SaverSpend    []SaverSpend        `json:"saverSpend"`
}
