package core

// AnomalyType identifies which detection rule produced an anomaly.
type AnomalyType string

const (
	AnomalyLargeTransaction  AnomalyType = "large_transaction"
	AnomalyCategoryOverspend AnomalyType = "category_overspend"
	AnomalyDuplicateMerchant AnomalyType = "duplicate_merchant"
)

// AnomalySeverity ranks anomalies; alerts sort before warnings.
type AnomalySeverity string

const (
	SeverityWarning AnomalySeverity = "warning"
	SeverityAlert   AnomalySeverity = "alert"
)

// Anomaly is a rule-flagged irregular transaction or spend pattern.
// Generated per request and never persisted by the engine; the ID is
// deterministic (<type>::<key>) so clients can track dismissals across
// repeated fetches.
type Anomaly struct {
	ID              string          `json:"id"`
	Type            AnomalyType     `json:"type"`
	Severity        AnomalySeverity `json:"severity"`
	SaverKey        string          `json:"saverKey"`
	CategoryKey     string          `json:"categoryKey"`
	Description     string          `json:"description"`
	AmountCents     int64           `json:"amountCents"`
	ComparisonCents int64           `json:"comparisonCents"`
}
