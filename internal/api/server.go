// Package api exposes the ranking pipeline over HTTP.
package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/ahrav/framerank/infrastructure/units"
	"github.com/ahrav/framerank/internal/application"
	"github.com/ahrav/framerank/internal/ports"
)

// Metric names recorded by the server.
const (
	MetricHTTPRequests = "http_requests_total"
	MetricHTTPLatency  = "http_request"
	MetricCacheLookups = "cache_lookups_total"
	MetricInflight     = "rank_inflight"
)

// Options configures a Server.
type Options struct {
	// Config is the base configuration. Requests may override the solver
	// and criteria sections.
	Config application.RunConfig

	// Registry builds pipeline units. Nil selects the default registry.
	Registry ports.UnitRegistry

	// Metrics receives request and unit metrics. May be nil.
	Metrics ports.MetricsCollector

	// Gatherer backs GET /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	// Cache stores rendered responses. Nil disables caching.
	Cache ports.CacheStore

	Logger zerolog.Logger
}

// Server handles rank requests. It is safe for concurrent use.
type Server struct {
	base     application.RunConfig
	registry ports.UnitRegistry
	metrics  ports.MetricsCollector
	gatherer prometheus.Gatherer
	cache    ports.CacheStore
	limiter  *rate.Limiter
	logger   zerolog.Logger
	group    singleflight.Group

	// inflight counts requests waiting on a ranking run, shared or not.
	inflight atomic.Int64

	// runner serves requests without overrides.
	runner *application.Runner
}

// NewServer validates the base configuration and prebuilds its pipeline.
func NewServer(opts Options) (*Server, error) {
	cfg := opts.Config
	cfg.ApplyDefaults()

	registry := opts.Registry
	if registry == nil {
		registry = application.NewDefaultUnitRegistry()
	}

	s := &Server{
		base:     cfg,
		registry: registry,
		metrics:  opts.Metrics,
		gatherer: opts.Gatherer,
		cache:    opts.Cache,
		logger:   opts.Logger,
	}
	if cfg.Server.RateLimit.RPS > 0 {
		burst := max(cfg.Server.RateLimit.Burst, 1)
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Server.RateLimit.RPS), burst)
	}

	runner, err := s.newRunner(cfg)
	if err != nil {
		return nil, err
	}
	s.runner = runner
	return s, nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	if len(s.base.Server.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.base.Server.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"*"},
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.Post("/v1/rank", s.handleRank)
	return r
}

func (s *Server) newRunner(cfg application.RunConfig) (*application.Runner, error) {
	pipeline, err := application.BuildPipeline(cfg, s.registry, s.metrics, s.logger)
	if err != nil {
		return nil, err
	}
	return application.NewRunner(pipeline, cfg.Name, s.logger), nil
}

// response is a rendered result shared by singleflight callers.
type response struct {
	body        []byte
	contentType string
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() { s.observe(start, status) }()

	if s.limiter != nil && !s.limiter.Allow() {
		status = http.StatusTooManyRequests
		writeError(w, status, ports.ErrRateLimited)
		return
	}

	req, err := decodeRankRequest(w, r, s.base.Server.MaxBodyBytes)
	if err != nil {
		status = http.StatusBadRequest
		writeError(w, status, err)
		return
	}
	if limit := s.base.Server.MaxMoves; limit > 0 && len(req.Moves) > limit {
		status = http.StatusBadRequest
		writeError(w, status, fmt.Errorf("%w: %d exceeds limit of %d", units.ErrTooManyMoves, len(req.Moves), limit))
		return
	}
	format := r.URL.Query().Get("format")
	if format != "" && format != formatJSON && format != formatText {
		status = http.StatusBadRequest
		writeError(w, status, errors.New("format must be json or text"))
		return
	}
	if format == "" {
		format = formatJSON
	}

	key, err := cacheKey(req, format)
	if err != nil {
		status = http.StatusInternalServerError
		writeError(w, status, err)
		return
	}

	if s.cache != nil {
		if body, ok := s.lookup(r.Context(), key); ok {
			w.Header().Set("X-Cache", "hit")
			writeBody(w, http.StatusOK, contentType(format), body)
			return
		}
	}

	s.setInflight(s.inflight.Add(1))
	v, err, shared := s.group.Do(key, func() (any, error) {
		// The leader's cancellation must not fail the callers sharing its
		// result, so the run is bounded by RequestTimeout instead.
		ctx := context.WithoutCancel(r.Context())
		if d := s.base.Server.RequestTimeout; d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return s.rank(ctx, req, format, key)
	})
	s.setInflight(s.inflight.Add(-1))
	if err != nil {
		status = statusFor(err)
		writeError(w, status, err)
		return
	}
	if shared {
		w.Header().Set("X-Shared", "true")
	}
	resp := v.(response)
	writeBody(w, http.StatusOK, resp.contentType, resp.body)
}

func (s *Server) rank(ctx context.Context, req RankRequest, format, key string) (response, error) {
	runner := s.runner
	if req.overrides() {
		cfg, err := req.apply(s.base)
		if err != nil {
			return response{}, err
		}
		if runner, err = s.newRunner(cfg); err != nil {
			return response{}, err
		}
	}

	result, err := runner.Run(ctx, req.Moves)
	if errors.Is(err, context.DeadlineExceeded) {
		return response{}, fmt.Errorf("%w after %s", ports.ErrTimeout, s.base.Server.RequestTimeout)
	}
	if err != nil {
		return response{}, err
	}

	body, err := render(result, format)
	if err != nil {
		return response{}, err
	}
	resp := response{body: body, contentType: contentType(format)}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, body, s.base.Server.Cache.TTL); err != nil {
			s.logger.Warn().Err(err).Msg("cache store failed")
		}
	}
	return resp, nil
}

func (s *Server) lookup(ctx context.Context, key string) ([]byte, bool) {
	body, ok, err := s.cache.Get(ctx, key)
	outcome := "miss"
	switch {
	case err != nil:
		outcome = "error"
		s.logger.Warn().Err(err).Msg("cache lookup failed")
	case ok:
		outcome = "hit"
	}
	if s.metrics != nil {
		s.metrics.RecordCounter(MetricCacheLookups, 1, map[string]string{"unit": "api", "status": outcome})
	}
	return body, ok && err == nil
}

func (s *Server) setInflight(n int64) {
	if s.metrics != nil {
		s.metrics.RecordGauge(MetricInflight, float64(n), map[string]string{"unit": "api"})
	}
}

func (s *Server) observe(start time.Time, status int) {
	if s.metrics == nil {
		return
	}
	labels := map[string]string{"unit": "api", "status": strconv.Itoa(status)}
	s.metrics.RecordLatency(MetricHTTPLatency, time.Since(start), labels)
	s.metrics.RecordCounter(MetricHTTPRequests, 1, labels)
}

// cacheKey hashes the canonical JSON form of the request and the format.
func cacheKey(req RankRequest, format string) (string, error) {
	canonical, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(append([]byte(format+"\n"), canonical...))
	return "rank:" + hex.EncodeToString(sum[:]), nil
}
