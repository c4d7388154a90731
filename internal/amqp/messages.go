package amqp

import (
	"encoding/json"
	"time"

	"paydash/internal/core"
)

// Event kinds double as routing keys on the direct exchange.
const (
	KindPeriodEnsured = "period.ensured"
	KindAnomalyAlert  = "anomaly.alert"
)

// PeriodEnsuredMessage announces a newly created budget period. It carries
// only identifiers and boundaries; consumers fetch anything else from the
// database.
type PeriodEnsuredMessage struct {
	PeriodID  int64     `json:"periodId"`
	StartDate core.Date `json:"startDate"`
	EndDate   core.Date `json:"endDate"`
	Timestamp time.Time `json:"timestamp"`
}

// NewPeriodEnsuredMessage creates a period.ensured message stamped now.
func NewPeriodEnsuredMessage(periodID int64, start, end core.Date) *PeriodEnsuredMessage {
	return &PeriodEnsuredMessage{
		PeriodID:  periodID,
		StartDate: start,
		EndDate:   end,
		Timestamp: time.Now(),
	}
}

func (m *PeriodEnsuredMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func PeriodEnsuredMessageFromJSON(data []byte) (*PeriodEnsuredMessage, error) {
	var msg PeriodEnsuredMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// AnomalyAlertMessage announces that a scan found alert-severity anomalies
// in a period.
type AnomalyAlertMessage struct {
	PeriodID   int64     `json:"periodId"`
	AlertCount int       `json:"alertCount"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewAnomalyAlertMessage creates an anomaly.alert message stamped now.
func NewAnomalyAlertMessage(periodID int64, alertCount int) *AnomalyAlertMessage {
	return &AnomalyAlertMessage{
		PeriodID:   periodID,
		AlertCount: alertCount,
		Timestamp:  time.Now(),
	}
}

func (m *AnomalyAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func AnomalyAlertMessageFromJSON(data []byte) (*AnomalyAlertMessage, error) {
	var msg AnomalyAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
