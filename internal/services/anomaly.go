package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"paydash/internal/core"
)

// Spending more than twice the historical average flags a transaction;
// three times escalates it. Rule 2 uses the same escalation shape against
// the historical budget.
const (
	largeTxnWarningFactor = 2.0
	largeTxnAlertFactor   = 3.0
	overspendWarnFactor   = 1.5
	overspendAlertFactor  = 2.0
)

// PeriodContext carries the day counts the overspend rule needs. Rule 2 only
// fires while more than half the period remains.
type PeriodContext struct {
	DaysRemaining int
	TotalDays     int
}

// DetectAnomalies applies the three heuristics to one period's transactions.
// Pure function: all inputs are pre-fetched by the caller, nothing is stored.
// The result is sorted alerts-first, then descending by amount; IDs are
// deterministic so clients can track dismissals across fetches.
func DetectAnomalies(transactions []core.Transaction, averages []core.CategoryAverage, periodCtx PeriodContext) []core.Anomaly {
	byKey := make(map[string]core.CategoryAverage, len(averages))
	for _, avg := range averages {
		byKey[pairKey(avg.SaverKey, avg.CategoryKey)] = avg
	}

	var anomalies []core.Anomaly
	anomalies = append(anomalies, detectLargeTransactions(transactions, byKey)...)
	anomalies = append(anomalies, detectCategoryOverspend(transactions, byKey, periodCtx)...)
	anomalies = append(anomalies, detectDuplicateMerchants(transactions)...)

	sortAnomalies(anomalies)
	return anomalies
}

// Rule 1: a spend more than twice its (saver, category) historical average
// transaction size. Silent when no average exists.
func detectLargeTransactions(transactions []core.Transaction, averages map[string]core.CategoryAverage) []core.Anomaly {
	var out []core.Anomaly
	for _, tx := range transactions {
		if !tx.IsSpend() {
			continue
		}
		avg, ok := averages[pairKey(tx.SaverKey, tx.CategoryKey)]
		if !ok || avg.AvgTransactionCents <= 0 {
			continue
		}
		amount := tx.Amount.Abs().Cents
		if float64(amount) <= largeTxnWarningFactor*float64(avg.AvgTransactionCents) {
			continue
		}
		severity := core.SeverityWarning
		if float64(amount) >= largeTxnAlertFactor*float64(avg.AvgTransactionCents) {
			severity = core.SeverityAlert
		}
		multiple := math.Round(float64(amount) / float64(avg.AvgTransactionCents))
		out = append(out, core.Anomaly{
			ID:          anomalyID(core.AnomalyLargeTransaction, fmt.Sprintf("%d", tx.ID)),
			Type:        core.AnomalyLargeTransaction,
			Severity:    severity,
			SaverKey:    tx.SaverKey,
			CategoryKey: tx.CategoryKey,
			Description: fmt.Sprintf("%s at %s is %.0fx the average transaction for this category",
				core.Money{Cents: amount}.Format(), tx.Description, multiple),
			AmountCents:     amount,
			ComparisonCents: avg.AvgTransactionCents,
		})
	}
	return out
}

// Rule 2: early-period category overspend against the historical budget.
// Only evaluated while more than half the period remains.
func detectCategoryOverspend(transactions []core.Transaction, averages map[string]core.CategoryAverage, periodCtx PeriodContext) []core.Anomaly {
	if float64(periodCtx.DaysRemaining) <= float64(periodCtx.TotalDays)*0.5 {
		return nil
	}

	spendByPair := make(map[string]int64)
	for _, tx := range transactions {
		if !tx.IsSpend() {
			continue
		}
		spendByPair[pairKey(tx.SaverKey, tx.CategoryKey)] += tx.Amount.Abs().Cents
	}

	var out []core.Anomaly
	for key, spent := range spendByPair {
		avg, ok := averages[key]
		if !ok || avg.AvgBudgetCents <= 0 {
			continue
		}
		if float64(spent) <= overspendWarnFactor*float64(avg.AvgBudgetCents) {
			continue
		}
		severity := core.SeverityWarning
		if float64(spent) > overspendAlertFactor*float64(avg.AvgBudgetCents) {
			severity = core.SeverityAlert
		}
		percent := math.Round(float64(spent) / float64(avg.AvgBudgetCents) * 100)
		out = append(out, core.Anomaly{
			ID:          anomalyID(core.AnomalyCategoryOverspend, key),
			Type:        core.AnomalyCategoryOverspend,
			Severity:    severity,
			SaverKey:    avg.SaverKey,
			CategoryKey: avg.CategoryKey,
			Description: fmt.Sprintf("%.0f%% of the %s budget used with %d days remaining",
				percent, avg.CategoryKey, periodCtx.DaysRemaining),
			AmountCents:     spent,
			ComparisonCents: avg.AvgBudgetCents,
		})
	}
	return out
}

// Rule 3: two or more spends with the same normalized description on the
// same date, one warning per group.
func detectDuplicateMerchants(transactions []core.Transaction) []core.Anomaly {
	type group struct {
		merchant string
		date     core.Date
		count    int
		total    int64
		firstTx  core.Transaction
	}
	groups := make(map[string]*group)
	for _, tx := range transactions {
		if !tx.IsSpend() {
			continue
		}
		merchant := strings.ToUpper(strings.TrimSpace(tx.Description))
		key := merchant + "::" + tx.Date.String()
		g, ok := groups[key]
		if !ok {
			g = &group{merchant: merchant, date: tx.Date, firstTx: tx}
			groups[key] = g
		}
		g.count++
		g.total += tx.Amount.Abs().Cents
		// Anchor saver/category on the lowest transaction ID so the result
		// does not depend on input order.
		if tx.ID < g.firstTx.ID {
			g.firstTx = tx
		}
	}

	var out []core.Anomaly
	for key, g := range groups {
		if g.count < 2 {
			continue
		}
		out = append(out, core.Anomaly{
			ID:          anomalyID(core.AnomalyDuplicateMerchant, key),
			Type:        core.AnomalyDuplicateMerchant,
			Severity:    core.SeverityWarning,
			SaverKey:    g.firstTx.SaverKey,
			CategoryKey: g.firstTx.CategoryKey,
			Description: fmt.Sprintf("%d charges from %s on %s totalling %s",
				g.count, g.merchant, g.date, core.Money{Cents: g.total}.Format()),
			AmountCents:     g.total,
			ComparisonCents: 0,
		})
	}
	return out
}

// DetectPeriodAnomalies fetches the detector's inputs for one period and
// runs it. The detector itself stays pure; this is the caller side.
func (s *BudgetService) DetectPeriodAnomalies(ctx context.Context, periodID int64) ([]core.Anomaly, error) {
	period, err := s.store.GetPeriod(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("get period %d: %w", periodID, err)
	}

	var (
		transactions []core.Transaction
		averages     []core.CategoryAverage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		transactions, err = s.store.ListTransactions(gctx, period.StartDate, period.EndDate)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		averages, err = s.store.GetHistoricalAverages(gctx, period.StartDate)
		if err != nil {
			return fmt.Errorf("get historical averages: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	totalDays := period.StartDate.DaysInclusive(period.EndDate)
	elapsed := period.StartDate.DaysInclusive(core.DateOf(s.now()))
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > totalDays {
		elapsed = totalDays
	}
	periodCtx := PeriodContext{DaysRemaining: totalDays - elapsed, TotalDays: totalDays}

	return DetectAnomalies(transactions, averages, periodCtx), nil
}

func anomalyID(kind core.AnomalyType, key string) string {
	return string(kind) + "::" + key
}

func pairKey(saverKey, categoryKey string) string {
	return saverKey + "/" + categoryKey
}

// sortAnomalies orders alerts before warnings, then descending by amount,
// with the ID as a deterministic tiebreak.
func sortAnomalies(anomalies []core.Anomaly) {
	sort.Slice(anomalies, func(i, j int) bool {
		a, b := anomalies[i], anomalies[j]
		if a.Severity != b.Severity {
			return a.Severity == core.SeverityAlert
		}
		if a.AmountCents != b.AmountCents {
			return a.AmountCents > b.AmountCents
		}
		return a.ID < b.ID
	})
}
