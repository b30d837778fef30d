// Package application wires configured ranking units into a pipeline and
// runs it over a move set.
package application

import (
	"time"

	"github.com/ahrav/framerank/infrastructure/units"
	"github.com/ahrav/framerank/internal/category"
	"github.com/ahrav/framerank/internal/domain"
	"github.com/ahrav/framerank/internal/ranking"
)

// RunConfig is the complete configuration of a ranking run and the HTTP
// server that exposes it. Slice fields left empty after loading are filled
// from the defaults by ApplyDefaults.
type RunConfig struct {
	// Name identifies the configuration in logs and traces.
	Name string `yaml:"name" json:"name" validate:"max=255"`

	// Solver holds the BTL parameters shared by every ranking unit.
	Solver SolverConfig `yaml:"solver" json:"solver"`

	// Criteria is the weighted comparison used for the overall ranking.
	Criteria []ranking.Criterion `yaml:"criteria" json:"criteria" validate:"omitempty,max=32,dive"`

	// CategoryWeights overrides the criteria of individual categories.
	CategoryWeights map[category.Category][]ranking.Criterion `yaml:"category_weights" json:"category_weights,omitempty"`

	// Pipeline lists the units to run, in order.
	Pipeline []UnitConfig `yaml:"pipeline" json:"pipeline" validate:"omitempty,max=32,dive"`

	// Moves is an optional inline move set used by the CLI.
	Moves []domain.Move `yaml:"moves" json:"moves,omitempty"`

	Server  ServerConfig  `yaml:"server" json:"server"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SolverConfig holds the BTL solver parameters.
type SolverConfig struct {
	Iterations           int                   `yaml:"iterations" json:"iterations" validate:"min=1,max=100000"`
	ConvergenceThreshold float64               `yaml:"convergence_threshold" json:"convergence_threshold" validate:"gt=0"`
	Parallelism          int                   `yaml:"parallelism" json:"parallelism" validate:"min=0,max=256"`
	MissingPolicy        ranking.MissingPolicy `yaml:"missing_policy" json:"missing_policy" validate:"omitempty,oneof=skip tie zero"`
}

// Options converts the solver section into solver options.
func (s SolverConfig) Options() ranking.Options {
	return ranking.Options{
		Iterations:           s.Iterations,
		ConvergenceThreshold: s.ConvergenceThreshold,
		Parallelism:          s.Parallelism,
	}
}

// UnitConfig names one pipeline unit, its type, and type-specific
// parameters. Parameters override the values derived from the solver and
// criteria sections.
type UnitConfig struct {
	ID         string         `yaml:"id" json:"id" validate:"required,alphanum,min=1,max=100"`
	Type       string         `yaml:"type" json:"type" validate:"required,oneof=pairwise_compare btl_rank category_rank character_summary"`
	Parameters map[string]any `yaml:"parameters" json:"parameters,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string          `yaml:"addr" json:"addr" validate:"required"`
	AllowedOrigins []string        `yaml:"allowed_origins" json:"allowed_origins"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Cache          CacheConfig     `yaml:"cache" json:"cache"`

	// MaxBodyBytes caps the size of a rank request body.
	MaxBodyBytes int64 `yaml:"max_body_bytes" json:"max_body_bytes" validate:"min=1024"`

	// MaxMoves caps the number of moves in one rank request.
	MaxMoves int `yaml:"max_moves" json:"max_moves" validate:"gte=1"`

	// RequestTimeout bounds a single ranking run. Zero means no deadline.
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout" validate:"gte=0"`
}

// RateLimitConfig is a token bucket shared by all rank requests. A zero RPS
// disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" json:"rps" validate:"gte=0"`
	Burst int     `yaml:"burst" json:"burst" validate:"gte=0"`
}

// CacheConfig configures the result cache. An empty RedisURL selects the
// in-process cache, bounded to MaxEntries; Disabled turns caching off entirely.
type CacheConfig struct {
	RedisURL   string        `yaml:"redis_url" json:"redis_url"`
	TTL        time.Duration `yaml:"ttl" json:"ttl" validate:"gte=0"`
	MaxEntries int           `yaml:"max_entries" json:"max_entries" validate:"gte=0"`
	Disabled   bool          `yaml:"disabled" json:"disabled"`
}

// LoggingConfig selects the log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" validate:"omitempty,oneof=all trace debug info warn warning error fatal none"`
	Format string `yaml:"format" json:"format" validate:"omitempty,oneof=console json"`
}

// Default unit IDs used by DefaultPipeline.
const (
	UnitCompare    = "compare"
	UnitRank       = "rank"
	UnitCategories = "categories"
	UnitSummary    = "summary"
)

// DefaultPipeline compares moves, ranks them overall, ranks them within
// their categories, and summarizes by character.
func DefaultPipeline() []UnitConfig {
	return []UnitConfig{
		{ID: UnitCompare, Type: units.TypePairwiseCompare},
		{ID: UnitRank, Type: units.TypeBTLRank},
		{ID: UnitCategories, Type: units.TypeCategoryRank},
		{ID: UnitSummary, Type: units.TypeCharacterSummary},
	}
}

// DefaultRunConfig returns the configuration used when no file is given.
// Slice fields are left nil so a loaded file replaces them rather than
// merging element by element; ApplyDefaults fills whatever remains empty.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Name: "default",
		Solver: SolverConfig{
			Iterations:           ranking.DefaultIterations,
			ConvergenceThreshold: ranking.DefaultConvergenceThreshold,
			MissingPolicy:        ranking.MissingSkip,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			RateLimit:      RateLimitConfig{RPS: 20, Burst: 40},
			Cache:          CacheConfig{TTL: 10 * time.Minute, MaxEntries: 1024},
			MaxBodyBytes:   1 << 20,
			MaxMoves:       1000,
			RequestTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// ApplyDefaults fills empty slice fields.
func (c *RunConfig) ApplyDefaults() {
	if len(c.Criteria) == 0 {
		c.Criteria = ranking.DefaultCriteria()
	}
	if len(c.Pipeline) == 0 {
		c.Pipeline = DefaultPipeline()
	}
	if c.Solver.MissingPolicy == "" {
		c.Solver.MissingPolicy = ranking.MissingSkip
	}
	if c.Server.AllowedOrigins == nil {
		c.Server.AllowedOrigins = []string{"*"}
	}
}

// Validate checks struct tags, the criteria set, and the pipeline shape.
func (c *RunConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return domain.Invalid("config", domain.ErrInvalidConfiguration, "%v", err)
	}
	if err := c.Solver.Options().Validate(); err != nil {
		return err
	}
	if err := ranking.ValidateCriteria(c.Criteria); err != nil {
		return err
	}
	if _, err := category.NewWeights(nil, c.CategoryWeights); err != nil {
		return err
	}
	return ValidatePipeline(c.Pipeline)
}
