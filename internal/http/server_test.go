package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"paydash/internal/core"
	"paydash/internal/services"
)

// stubStore serves one fixed period and its transactions.
type stubStore struct {
	getPeriodCalls int
}

var (
	stubPeriod = core.BudgetPeriod{
		ID:             1,
		StartDate:      core.NewDate(2026, 3, 13),
		EndDate:        core.NewDate(2026, 4, 14),
		ExpectedIncome: core.Money{Cents: 500000},
	}
	stubToday = core.NewDate(2026, 3, 20)
)

func (s *stubStore) GetPeriod(_ context.Context, id int64) (core.BudgetPeriod, error) {
	s.getPeriodCalls++
	if id != stubPeriod.ID {
		return core.BudgetPeriod{}, core.ErrPeriodNotFound
	}
	return stubPeriod, nil
}

func (s *stubStore) ListRecentPeriods(_ context.Context, n int) ([]core.BudgetPeriod, error) {
	return []core.BudgetPeriod{stubPeriod}, nil
}

func (s *stubStore) GetAllocationsWithCategories(_ context.Context, periodID int64) ([]core.AllocationWithCategory, error) {
	return []core.AllocationWithCategory{
		{CategoryID: "rent", SaverKey: "home", Allocated: core.Money{Cents: 212900}, Name: "Rent", SortOrder: 0},
		{CategoryID: "groceries", SaverKey: "living", Allocated: core.Money{Cents: 100000}, Name: "Groceries", SortOrder: 1},
	}, nil
}

func (s *stubStore) SumIncome(_ context.Context, start, end core.Date) (int64, error) {
	return 480000, nil
}

func (s *stubStore) SumSpendByCategory(_ context.Context, start, end core.Date) (map[string]int64, error) {
	return map[string]int64{"rent": 212900, "groceries": 85000}, nil
}

func (s *stubStore) SumSpendBySaver(_ context.Context, start, end core.Date) (map[string]int64, error) {
	return map[string]int64{"home": 212900, "living": 85000}, nil
}

func (s *stubStore) ListTransactions(_ context.Context, start, end core.Date) ([]core.Transaction, error) {
	return []core.Transaction{
		{ID: 1, Description: "WOOLWORTHS", Amount: core.Money{Cents: -45000}, Date: core.NewDate(2026, 3, 15), SaverKey: "living", CategoryKey: "groceries"},
	}, nil
}

func (s *stubStore) GetHistoricalAverages(_ context.Context, before core.Date) ([]core.CategoryAverage, error) {
	return nil, nil
}

func newTestServer() (*Server, *stubStore) {
	store := &stubStore{}
	budget := services.NewBudgetService(store, func() time.Time { return stubToday.Time })
	srv := NewServer(":0", budget, core.DefaultPaydaySettings(), 6)
	srv.now = func() time.Time { return stubToday.Time }
	return srv, store
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Shutdown(context.Background())

	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := get(t, srv, path); rr.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rr.Code)
		}
	}
}

func TestSummaryEndpoint(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Shutdown(context.Background())

	rr := get(t, srv, "/api/summary/1")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var summary core.BudgetSummary
	if err := json.Unmarshal(rr.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if summary.BudgetedCents != 312900 {
		t.Errorf("budgeted = %d, want 312900", summary.BudgetedCents)
	}
	if summary.SpentCents != 297900 {
		t.Errorf("spent = %d, want 297900", summary.SpentCents)
	}
	if len(summary.Categories) != 2 {
		t.Errorf("categories = %d, want 2", len(summary.Categories))
	}
}

func TestSummaryEndpointNotFound(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Shutdown(context.Background())

	if rr := get(t, srv, "/api/summary/99"); rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestSummaryEndpointBadID(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Shutdown(context.Background())

	if rr := get(t, srv, "/api/summary/abc"); rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestSummaryEndpointCaches(t *testing.T) {
	srv, store := newTestServer()
	defer srv.Shutdown(context.Background())

	get(t, srv, "/api/summary/1")
	get(t, srv, "/api/summary/1")

	if store.getPeriodCalls != 1 {
		t.Errorf("store hit %d times, want 1 (second request from cache)", store.getPeriodCalls)
	}
}

func TestAnomaliesEndpoint(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Shutdown(context.Background())

	rr := get(t, srv, "/api/anomalies/1")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		PeriodID  int64          `json:"periodId"`
		Anomalies []core.Anomaly `json:"anomalies"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.PeriodID != 1 {
		t.Errorf("periodId = %d, want 1", resp.PeriodID)
	}
	if resp.Anomalies == nil {
		t.Error("anomalies should decode as an empty array, not null")
	}

	if rr := get(t, srv, "/api/anomalies/99"); rr.Code != http.StatusNotFound {
		t.Errorf("unknown period status = %d, want 404", rr.Code)
	}
}

func TestTrendsEndpoint(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Shutdown(context.Background())

	rr := get(t, srv, "/api/trends?periods=3")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var rows []core.TrendRow
	if err := json.Unmarshal(rr.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if !rows[0].IsProjected {
		t.Error("in-flight period should be projected")
	}

	if rr := get(t, srv, "/api/trends?periods=0"); rr.Code != http.StatusBadRequest {
		t.Errorf("periods=0 status = %d, want 400", rr.Code)
	}
	if rr := get(t, srv, "/api/trends?periods=banana"); rr.Code != http.StatusBadRequest {
		t.Errorf("periods=banana status = %d, want 400", rr.Code)
	}
}

func TestPaydayEndpoint(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Shutdown(context.Background())

	rr := get(t, srv, "/api/payday?from=2026-03-20")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp paydayResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.NextPayday.String() != "2026-04-15" {
		t.Errorf("nextPayday = %s, want 2026-04-15", resp.NextPayday)
	}
	if resp.DaysUntil != 26 {
		t.Errorf("daysUntil = %d, want 26", resp.DaysUntil)
	}
	if resp.CurrentPeriod.StartDate.String() != "2026-03-13" ||
		resp.CurrentPeriod.EndDate.String() != "2026-04-14" {
		t.Errorf("currentPeriod = %s..%s, want 2026-03-13..2026-04-14",
			resp.CurrentPeriod.StartDate, resp.CurrentPeriod.EndDate)
	}

	if rr := get(t, srv, "/api/payday?from=notadate"); rr.Code != http.StatusBadRequest {
		t.Errorf("bad from status = %d, want 400", rr.Code)
	}
}

func TestTemplateApplyEndpoint(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Shutdown(context.Background())

	body := `{
		"template": {
			"name": "payday split",
			"allocations": [
				{"categoryId": "rent", "fixedCents": 212900},
				{"categoryId": "food", "percentage": 50}
			]
		},
		"incomeCents": 500000
	}`
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/template/apply", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Allocations []core.TemplateAllocation `json:"allocations"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Allocations) != 2 {
		t.Fatalf("allocations = %d, want 2", len(resp.Allocations))
	}
	if resp.Allocations[0].AllocatedCents != 212900 || resp.Allocations[1].AllocatedCents != 143550 {
		t.Errorf("allocations = %+v", resp.Allocations)
	}
}

func TestTemplateApplyEndpointValidation(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Shutdown(context.Background())

	tests := []struct {
		name string
		body string
		want int
	}{
		{
			name: "malformed JSON",
			body: `{"template": `,
			want: http.StatusBadRequest,
		},
		{
			name: "percentage out of range",
			body: `{"template": {"allocations": [{"categoryId": "a", "percentage": 150}]}, "incomeCents": 1000}`,
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "both amount kinds set",
			body: `{"template": {"allocations": [{"categoryId": "a", "fixedCents": 100, "percentage": 50}]}, "incomeCents": 1000}`,
			want: http.StatusBadRequest,
		},
		{
			name: "negative income",
			body: `{"template": {"allocations": [{"categoryId": "a", "percentage": 50}]}, "incomeCents": -1}`,
			want: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/template/apply", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			srv.Handler.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d (body: %s)", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Shutdown(context.Background())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/summary/1", nil)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rr.Code)
	}
}
