package amqp

import (
	"log/slog"
)

// LogEvent is a Consume handler that decodes each engine event by its
// routing key and logs it. Undecodable payloads and unknown routing keys
// return nil so the delivery is acked and dropped rather than requeued.
func LogEvent(routingKey string, body []byte) error {
	switch routingKey {
	case KindPeriodEnsured:
		msg, err := PeriodEnsuredMessageFromJSON(body)
		if err != nil {
			slog.Error("Dropping undecodable period.ensured message", "error", err)
			return nil
		}
		slog.Info("Budget period ensured",
			"period_id", msg.PeriodID,
			"start", msg.StartDate.String(),
			"end", msg.EndDate.String(),
			"at", msg.Timestamp)
	case KindAnomalyAlert:
		msg, err := AnomalyAlertMessageFromJSON(body)
		if err != nil {
			slog.Error("Dropping undecodable anomaly.alert message", "error", err)
			return nil
		}
		slog.Warn("Anomaly alerts detected",
			"period_id", msg.PeriodID,
			"alerts", msg.AlertCount,
			"at", msg.Timestamp)
	default:
		slog.Warn("Dropping message with unknown routing key", "routing_key", routingKey)
	}
	return nil
}
