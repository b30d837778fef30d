package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ahrav/framerank/infrastructure/units"
	"github.com/ahrav/framerank/internal/application"
	"github.com/ahrav/framerank/internal/domain"
	"github.com/ahrav/framerank/internal/ports"
	"github.com/ahrav/framerank/internal/ranking"
	"github.com/ahrav/framerank/internal/report"
)

// Response formats.
const (
	formatJSON = "json"
	formatText = "text"
)

// RankRequest is the body of POST /v1/rank.
type RankRequest struct {
	Moves    []domain.Move       `json:"moves"`
	Solver   *SolverOverrides    `json:"solver,omitempty"`
	Criteria []ranking.Criterion `json:"criteria,omitempty"`
}

// SolverOverrides replaces individual solver settings for one request.
// Nil fields keep the server's configuration.
type SolverOverrides struct {
	Iterations           *int                   `json:"iterations,omitempty"`
	ConvergenceThreshold *float64               `json:"convergence_threshold,omitempty"`
	MissingPolicy        *ranking.MissingPolicy `json:"missing_policy,omitempty"`
}

func (r RankRequest) overrides() bool {
	return r.Solver != nil || len(r.Criteria) > 0
}

// apply returns base with the request's overrides.
func (r RankRequest) apply(base application.RunConfig) (application.RunConfig, error) {
	cfg := base
	if s := r.Solver; s != nil {
		if s.Iterations != nil {
			cfg.Solver.Iterations = *s.Iterations
		}
		if s.ConvergenceThreshold != nil {
			cfg.Solver.ConvergenceThreshold = *s.ConvergenceThreshold
		}
		if s.MissingPolicy != nil {
			cfg.Solver.MissingPolicy = *s.MissingPolicy
		}
	}
	if len(r.Criteria) > 0 {
		cfg.Criteria = r.Criteria
	}
	if err := cfg.Validate(); err != nil {
		return application.RunConfig{}, err
	}
	return cfg, nil
}

var errMissingMoves = errors.New("moves is required")

func decodeRankRequest(w http.ResponseWriter, r *http.Request, limit int64) (RankRequest, error) {
	var req RankRequest
	body := http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return req, fmt.Errorf("invalid request body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return req, errors.New("invalid request body: trailing data")
	}
	if req.Moves == nil {
		return req, errMissingMoves
	}
	return req, nil
}

func render(result *application.RunResult, format string) ([]byte, error) {
	if format == formatText {
		var buf bytes.Buffer
		err := report.Render(&buf, report.Data{
			Rankings:   result.Rankings,
			Matrix:     result.Matrix,
			Categories: result.Categories,
			Report:     result.Report,
		})
		return buf.Bytes(), err
	}
	return json.Marshal(result)
}

func contentType(format string) string {
	if format == formatText {
		return "text/plain; charset=utf-8"
	}
	return "application/json"
}

// statusFor maps pipeline errors to HTTP status codes. Caller mistakes are
// 400, runs past the request deadline are 504, and anything else is a
// server fault.
func statusFor(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, ports.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &verr),
		errors.Is(err, domain.ErrInvalidConfiguration),
		errors.Is(err, domain.ErrInvalidIterations),
		errors.Is(err, domain.ErrInvalidThreshold),
		errors.Is(err, units.ErrTooManyMoves):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeBody(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	body, _ := json.Marshal(map[string]string{"error": err.Error()})
	writeBody(w, status, "application/json", body)
}
