package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"paydash/internal/cache"
	"paydash/internal/core"
	"paydash/internal/services"
)

// Server exposes the engine's read API plus the template-apply endpoint.
// Summary and trends responses are cached for a short TTL; everything the
// API serves is recomputable, so staleness is bounded and harmless.
type Server struct {
	http.Server

	budget       *services.BudgetService
	settings     core.PaydaySettings
	trendPeriods int
	now          func() time.Time

	rateLimiter *rateLimiter

	summaryCache *cache.TTL[core.BudgetSummary]
	trendsCache  *cache.TTL[[]core.TrendRow]

	cancelJanitors context.CancelFunc
	shutdownOnce   sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run server.
func NewServer(addr string, budget *services.BudgetService, settings core.PaydaySettings, trendPeriods int) *Server {
	mux := http.NewServeMux()

	if trendPeriods <= 0 {
		trendPeriods = services.DefaultTrendPeriods
	}

	janitorCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		budget:         budget,
		settings:       settings,
		trendPeriods:   trendPeriods,
		now:            time.Now,
		rateLimiter:    newRateLimiter(),
		summaryCache:   cache.NewTTL[core.BudgetSummary](100, time.Minute),
		trendsCache:    cache.NewTTL[[]core.TrendRow](20, time.Minute),
		cancelJanitors: cancel,
	}

	go s.summaryCache.Janitor(janitorCtx, 10*time.Minute)
	go s.trendsCache.Janitor(janitorCtx, 10*time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleHealth)
	mux.HandleFunc("GET /api/summary/{periodID}", s.withAPIDefaults(s.handleSummary))
	mux.HandleFunc("GET /api/anomalies/{periodID}", s.withAPIDefaults(s.handleAnomalies))
	mux.HandleFunc("GET /api/trends", s.withAPIDefaults(s.handleTrends))
	mux.HandleFunc("GET /api/payday", s.withAPIDefaults(s.handlePayday))
	mux.HandleFunc("POST /api/template/apply", s.withAPIDefaults(s.handleTemplateApply))

	return s
}

// Shutdown stops the HTTP server and the cache and limiter goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cancelJanitors()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
