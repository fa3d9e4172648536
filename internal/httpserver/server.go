// Package httpserver serves health checks, metrics and the read-only tier API.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	eligibilityservice "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/application"
	tierdomain "github.com/Black-And-White-Club/tier-bot/app/modules/tier/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/attr"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

const maxGrantHistory = 200

// Config holds the HTTP listener settings.
type Config struct {
	Address string
	// RequestsPerSecond and Burst bound each client IP on the API routes.
	RequestsPerSecond float64
	Burst             int
	// VerdictRequestsPerSecond and VerdictBurst add a tighter bound on the
	// verdict route, which runs a full evaluation per call.
	VerdictRequestsPerSecond float64
	VerdictBurst             int
}

// Server is the HTTP listener.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// New builds the server. registry may be nil, in which case /metrics is not mounted.
func New(cfg Config, eligibility eligibilityservice.Service, registry *prometheus.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		srv: &http.Server{
			Addr:              cfg.Address,
			Handler:           NewRouter(cfg, eligibility, registry, logger),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// NewMetricsServer serves only /metrics, for deployments that scrape on a
// separate port.
func NewMetricsServer(address string, registry *prometheus.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	return &Server{
		srv: &http.Server{
			Addr:              address,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// NewRouter returns the chi router with every route mounted.
func NewRouter(cfg Config, eligibility eligibilityservice.Service, registry *prometheus.Registry, logger *slog.Logger) http.Handler {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.VerdictRequestsPerSecond <= 0 {
		cfg.VerdictRequestsPerSecond = 1
	}
	if cfg.VerdictBurst <= 0 {
		cfg.VerdictBurst = 3
	}
	limiter := NewClientLimiter()
	apiBudget := Budget{Name: "api", Limit: rate.Limit(cfg.RequestsPerSecond), Burst: cfg.Burst}
	verdictBudget := Budget{Name: "verdict", Limit: rate.Limit(cfg.VerdictRequestsPerSecond), Burst: cfg.VerdictBurst}

	h := &apiHandlers{eligibility: eligibility, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(correlationID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	}

	r.Group(func(r chi.Router) {
		r.Use(limiter.Limit(apiBudget))
		r.Get("/tiers", h.listTiers)
		r.Get("/tiers/{tier}", h.getTier)
		r.With(limiter.Limit(verdictBudget)).Get("/tiers/{tier}/members/{member}/verdict", h.getVerdict)
		r.Get("/members/{member}/grants", h.listGrants)
	})
	return r
}

// ListenAndServe blocks until the server stops. A clean shutdown returns nil.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", attr.String("address", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type apiHandlers struct {
	eligibility eligibilityservice.Service
	logger      *slog.Logger
}

func (h *apiHandlers) listTiers(w http.ResponseWriter, _ *http.Request) {
	tiers := h.eligibility.Tiers()
	out := make([]tierView, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, newTierView(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *apiHandlers) getTier(w http.ResponseWriter, r *http.Request) {
	tier, ok := h.findTier(chi.URLParam(r, "tier"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown tier")
		return
	}
	writeJSON(w, http.StatusOK, newTierView(tier))
}

func (h *apiHandlers) getVerdict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tier, ok := h.findTier(chi.URLParam(r, "tier"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown tier")
		return
	}
	memberID := sharedtypes.DiscordID(chi.URLParam(r, "member"))

	result, err := h.eligibility.Evaluate(ctx, memberID, tier.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Verdict request failed",
			attr.ExtractCorrelationID(ctx),
			attr.String("member_id", string(memberID)),
			attr.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "evaluation failed")
		return
	}
	if result.IsFailure() {
		failure := *result.Failure
		status := http.StatusUnprocessableEntity
		if errors.Is(failure, sharedtypes.ErrMemberNotFound) || errors.Is(failure, eligibilityservice.ErrUnknownTier) {
			status = http.StatusNotFound
		}
		writeError(w, status, failure.Error())
		return
	}
	writeJSON(w, http.StatusOK, result.Success)
}

func (h *apiHandlers) listGrants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID := sharedtypes.DiscordID(chi.URLParam(r, "member"))

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxGrantHistory)
	}

	result, err := h.eligibility.GrantHistory(ctx, memberID, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "Grant history request failed",
			attr.ExtractCorrelationID(ctx),
			attr.String("member_id", string(memberID)),
			attr.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "grant history unavailable")
		return
	}
	if result.IsFailure() {
		writeError(w, http.StatusUnprocessableEntity, (*result.Failure).Error())
		return
	}
	writeJSON(w, http.StatusOK, result.Success)
}

// findTier matches key against tier ids, then names case-insensitively.
func (h *apiHandlers) findTier(key string) (tierdomain.Tier, bool) {
	tiers := h.eligibility.Tiers()
	for _, t := range tiers {
		if string(t.ID) == key {
			return t, true
		}
	}
	for _, t := range tiers {
		if strings.EqualFold(string(t.Name), key) {
			return t, true
		}
	}
	return tierdomain.Tier{}, false
}

// correlationID carries the chi request id into the logging context.
func correlationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(attr.WithCorrelationID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
