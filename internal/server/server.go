// Package server exposes the REST API for collection, analysis and
// reporting operations.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/adsentry-team/adsentry/internal/adcopy"
	"github.com/adsentry-team/adsentry/internal/config"
	"github.com/adsentry-team/adsentry/internal/model"
	"github.com/adsentry-team/adsentry/internal/report"
	"github.com/adsentry-team/adsentry/internal/usage"
)

// MetricsCollector gathers campaign metrics from the configured platforms.
type MetricsCollector interface {
	CollectAll(ctx context.Context) ([]model.CampaignMetrics, error)
	UsingMock() bool
}

// MetricsStore persists and retrieves campaign metrics.
type MetricsStore interface {
	Ping(ctx context.Context) error
	InsertMetrics(ctx context.Context, metrics []model.CampaignMetrics) (int, error)
	RecentMetrics(ctx context.Context, window time.Duration) ([]model.CampaignMetrics, error)
}

// AlertEvaluator checks metrics against thresholds.
type AlertEvaluator interface {
	Evaluate(metrics []model.CampaignMetrics) []model.Alert
	Fresh(alerts []model.Alert) []model.Alert
}

// Optimizer produces bid and budget recommendations.
type Optimizer interface {
	Adjustments(ctx context.Context, metrics []model.CampaignMetrics) ([]model.BidAdjustment, error)
	BudgetReallocation(metrics []model.CampaignMetrics, totalBudget float64) *model.BudgetPlan
}

// InsightAgent generates analysis reports from metrics.
type InsightAgent interface {
	Analyze(ctx context.Context, metrics []model.CampaignMetrics) (*model.InsightReport, error)
	UsingModel() bool
}

// AlertNotifier delivers alerts to an external channel.
type AlertNotifier interface {
	Send(ctx context.Context, alerts []model.Alert) error
	Name() string
}

// Deps bundles the components the API operates on.
type Deps struct {
	Collector MetricsCollector
	Store     MetricsStore
	Alerting  AlertEvaluator
	Optimizer Optimizer
	Insight   InsightAgent
	Notifier  AlertNotifier
	Usage     *usage.Tracker
	Reports   *report.Generator
	AdCopy    *adcopy.Generator
	Lookback  time.Duration
}

// Server provides the HTTP API.
type Server struct {
	cfg     *config.ServerConfig
	deps    Deps
	server  *http.Server
	mu      sync.Mutex
	started time.Time
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Uptime    string    `json:"uptime,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Database  *DBHealth `json:"database,omitempty"`
}

// DBHealth represents database connectivity status.
type DBHealth struct {
	Connected bool   `json:"connected"`
	Latency   string `json:"latency,omitempty"`
	Error     string `json:"error,omitempty"`
}

// New creates a new Server.
func New(cfg *config.ServerConfig, deps Deps) *Server {
	return &Server{cfg: cfg, deps: deps}
}

// Router builds the HTTP routes. Exposed for tests.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/collect", s.handleCollect).Methods(http.MethodPost)
	r.HandleFunc("/api/alerts", s.handleAlerts).Methods(http.MethodGet)
	r.HandleFunc("/api/optimize", s.handleOptimize).Methods(http.MethodPost)
	r.HandleFunc("/api/insights", s.handleInsights).Methods(http.MethodGet)
	r.HandleFunc("/api/report", s.handleReport).Methods(http.MethodPost)
	r.HandleFunc("/api/usage", s.handleUsage).Methods(http.MethodGet)
	r.HandleFunc("/api/generate-copy", s.handleGenerateCopy).Methods(http.MethodPost)
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	s.started = time.Now()

	go func() {
		log.Printf("API server listening on :%d", s.cfg.Port)
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("API server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}

	return s.server.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"service": "adsentry",
		"endpoints": []string{
			"GET /health",
			"POST /api/collect",
			"GET /api/alerts",
			"POST /api/optimize",
			"GET /api/insights",
			"POST /api/report",
			"GET /api/usage",
			"POST /api/generate-copy",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Uptime:    time.Since(s.started).Round(time.Second).String(),
	}

	if s.cfg.DeepCheck && s.deps.Store != nil {
		dbHealth := s.checkDatabase(r.Context())
		response.Database = dbHealth
		if !dbHealth.Connected {
			response.Status = "degraded"
		}
	}

	statusCode := http.StatusOK
	if response.Status != "ok" {
		statusCode = http.StatusServiceUnavailable
	}

	s.writeJSON(w, statusCode, response)
}

// handleCollect runs one collection cycle and persists the results.
func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	metrics, err := s.deps.Collector.CollectAll(ctx)
	if err != nil {
		s.writeError(w, fmt.Errorf("collecting metrics: %w", err))
		return
	}

	inserted := 0
	if s.deps.Store != nil {
		inserted, err = s.deps.Store.InsertMetrics(ctx, metrics)
		if err != nil {
			s.writeError(w, fmt.Errorf("storing metrics: %w", err))
			return
		}
	}

	s.writeSuccess(w, map[string]any{
		"collected": len(metrics),
		"stored":    inserted,
		"mock_data": s.deps.Collector.UsingMock(),
	})
}

// handleAlerts evaluates thresholds against recent metrics and optionally
// notifies. Evaluation never re-sends alerts already delivered.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	metrics, err := s.recentMetrics(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}

	alerts := s.deps.Alerting.Evaluate(metrics)
	fresh := s.deps.Alerting.Fresh(alerts)

	notified := false
	if len(fresh) > 0 && s.deps.Notifier != nil {
		if err := s.deps.Notifier.Send(ctx, fresh); err != nil {
			log.Printf("Failed to send alerts via %s: %v", s.deps.Notifier.Name(), err)
		} else {
			notified = true
		}
	}

	s.writeSuccess(w, map[string]any{
		"alerts":   alerts,
		"new":      len(fresh),
		"notified": notified,
	})
}

type optimizeRequest struct {
	TotalBudget float64 `json:"total_budget"`
}

// handleOptimize computes bid adjustments and a budget reallocation plan.
// When the request omits total_budget the current budget limits are summed.
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req optimizeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeErrorStatus(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
			return
		}
	}

	metrics, err := s.recentMetrics(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if len(metrics) == 0 {
		s.writeErrorStatus(w, http.StatusNotFound, fmt.Errorf("no metrics available, run collection first"))
		return
	}

	adjustments, err := s.deps.Optimizer.Adjustments(ctx, metrics)
	if err != nil {
		s.writeError(w, fmt.Errorf("computing adjustments: %w", err))
		return
	}

	totalBudget := req.TotalBudget
	if totalBudget <= 0 {
		for i := range metrics {
			totalBudget += metrics[i].DailyBudgetLimit
		}
	}
	plan := s.deps.Optimizer.BudgetReallocation(metrics, totalBudget)

	s.writeSuccess(w, map[string]any{
		"bid_adjustments":     adjustments,
		"budget_reallocation": plan,
	})
}

// handleInsights runs analysis over recent metrics.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	metrics, err := s.recentMetrics(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if len(metrics) == 0 {
		s.writeErrorStatus(w, http.StatusNotFound, fmt.Errorf("no metrics available, run collection first"))
		return
	}

	insights, err := s.deps.Insight.Analyze(ctx, metrics)
	if err != nil {
		s.writeError(w, fmt.Errorf("generating insights: %w", err))
		return
	}

	s.writeSuccess(w, map[string]any{
		"insights":   insights,
		"model_used": s.deps.Insight.UsingModel() && !insights.Templated,
	})
}

// handleReport generates the HTML report and JSON summary.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	metrics, err := s.recentMetrics(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if len(metrics) == 0 {
		s.writeErrorStatus(w, http.StatusNotFound, fmt.Errorf("no metrics available, run collection first"))
		return
	}

	insights, err := s.deps.Insight.Analyze(ctx, metrics)
	if err != nil {
		s.writeError(w, fmt.Errorf("generating insights: %w", err))
		return
	}

	var totalBudget float64
	for i := range metrics {
		totalBudget += metrics[i].DailyBudgetLimit
	}
	plan := s.deps.Optimizer.BudgetReallocation(metrics, totalBudget)

	htmlPath, err := s.deps.Reports.WriteHTML(insights, metrics, plan)
	if err != nil {
		s.writeError(w, fmt.Errorf("writing report: %w", err))
		return
	}

	summary, summaryPath, err := s.deps.Reports.WriteSummary(insights, metrics)
	if err != nil {
		s.writeError(w, fmt.Errorf("writing summary: %w", err))
		return
	}

	s.writeSuccess(w, map[string]any{
		"report_path":  htmlPath,
		"summary_path": summaryPath,
		"summary":      summary,
	})
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if s.deps.Usage == nil {
		s.writeErrorStatus(w, http.StatusNotFound, fmt.Errorf("usage tracking disabled"))
		return
	}
	s.writeSuccess(w, map[string]any{"usage": s.deps.Usage.Stats()})
}

type generateCopyRequest struct {
	Platform string `json:"platform"`
}

// handleGenerateCopy returns ad copy variations for a platform, enriched
// with themes from recent top performers when metrics are available.
func (s *Server) handleGenerateCopy(w http.ResponseWriter, r *http.Request) {
	var req generateCopyRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeErrorStatus(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
			return
		}
	}
	if req.Platform == "" {
		req.Platform = model.PlatformGoogleAds
	}
	if !model.KnownPlatform(req.Platform) {
		s.writeErrorStatus(w, http.StatusBadRequest, fmt.Errorf("unknown platform %q", req.Platform))
		return
	}

	variations := s.deps.AdCopy.Variations(req.Platform)

	response := map[string]any{
		"platform":   req.Platform,
		"variations": variations,
	}

	if metrics, err := s.recentMetrics(r.Context()); err == nil && len(metrics) > 0 {
		response["performance_themes"] = s.deps.AdCopy.FromTopPerformers(metrics)
		response["patterns"] = s.deps.AdCopy.AnalyzePatterns(metrics)
	}

	s.writeSuccess(w, response)
}

func (s *Server) recentMetrics(ctx context.Context) ([]model.CampaignMetrics, error) {
	if s.deps.Store == nil {
		return nil, fmt.Errorf("no metrics store configured")
	}
	metrics, err := s.deps.Store.RecentMetrics(ctx, s.deps.Lookback)
	if err != nil {
		return nil, fmt.Errorf("reading recent metrics: %w", err)
	}
	return metrics, nil
}

// checkDatabase tests database connectivity.
func (s *Server) checkDatabase(ctx context.Context) *DBHealth {
	health := &DBHealth{}

	start := time.Now()
	err := s.deps.Store.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		health.Connected = false
		health.Error = err.Error()
	} else {
		health.Connected = true
		health.Latency = latency.String()
	}

	return health
}

func (s *Server) writeSuccess(w http.ResponseWriter, data map[string]any) {
	data["status"] = "success"
	s.writeJSON(w, http.StatusOK, data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeErrorStatus(w, http.StatusInternalServerError, err)
}

func (s *Server) writeErrorStatus(w http.ResponseWriter, status int, err error) {
	log.Printf("Request failed: %v", err)
	s.writeJSON(w, status, map[string]any{
		"status":  "error",
		"message": err.Error(),
	})
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
