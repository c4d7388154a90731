package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"paydash/internal/core"
	"paydash/internal/services"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	periodID, ok := pathPeriodID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid period id")
		return
	}

	cacheKey := strconv.FormatInt(periodID, 10)
	if summary, ok := s.summaryCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, summary)
		return
	}

	summary, err := s.budget.CalculateBudgetSummary(r.Context(), periodID)
	if err != nil {
		if errors.Is(err, core.ErrPeriodNotFound) {
			writeError(w, http.StatusNotFound, "budget period not found")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to calculate summary",
			"period_id", periodID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to calculate summary")
		return
	}

	s.summaryCache.Set(cacheKey, summary)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	periodID, ok := pathPeriodID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid period id")
		return
	}

	anomalies, err := s.budget.DetectPeriodAnomalies(r.Context(), periodID)
	if err != nil {
		if errors.Is(err, core.ErrPeriodNotFound) {
			writeError(w, http.StatusNotFound, "budget period not found")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to detect anomalies",
			"period_id", periodID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to detect anomalies")
		return
	}

	if anomalies == nil {
		anomalies = []core.Anomaly{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"periodId":  periodID,
		"anomalies": anomalies,
	})
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	periods, ok := queryInt(r, "periods", s.trendPeriods)
	if !ok || periods < 1 || periods > 60 {
		writeError(w, http.StatusBadRequest, "invalid periods parameter")
		return
	}

	cacheKey := strconv.Itoa(periods)
	if rows, ok := s.trendsCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, rows)
		return
	}

	rows, err := s.budget.ComposeTrends(r.Context(), periods)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to compose trends",
			"periods", periods, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compose trends")
		return
	}

	if rows == nil {
		rows = []core.TrendRow{}
	}
	s.trendsCache.Set(cacheKey, rows)
	writeJSON(w, http.StatusOK, rows)
}

// paydayResponse is the payload of GET /api/payday.
type paydayResponse struct {
	NextPayday    core.Date           `json:"nextPayday"`
	DaysUntil     int                 `json:"daysUntil"`
	CurrentPeriod services.PeriodSpan `json:"currentPeriod"`
}

func (s *Server) handlePayday(w http.ResponseWriter, r *http.Request) {
	today, ok := queryDate(r, "from", core.DateOf(s.now()))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid from date, want YYYY-MM-DD")
		return
	}

	span, err := services.CalculateBudgetPeriod(s.settings, today)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to calculate period")
		return
	}
	next, err := services.FindNextPayday(today, s.settings)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to find next payday")
		return
	}
	daysUntil, err := services.DaysUntilPayday(s.settings, today)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count days until payday")
		return
	}

	writeJSON(w, http.StatusOK, paydayResponse{
		NextPayday:    next,
		DaysUntil:     daysUntil,
		CurrentPeriod: span,
	})
}

// templateApplyRequest is the payload of POST /api/template/apply.
type templateApplyRequest struct {
	Template    core.BudgetTemplate `json:"template"`
	IncomeCents int64               `json:"incomeCents"`
}

func (s *Server) handleTemplateApply(w http.ResponseWriter, r *http.Request) {
	var req templateApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.IncomeCents < 0 {
		writeError(w, http.StatusUnprocessableEntity, "incomeCents cannot be negative")
		return
	}

	allocations, err := services.ApplyTemplate(req.Template, req.IncomeCents)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"allocations": allocations,
	})
}
