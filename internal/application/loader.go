package application

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ahrav/framerank/internal/ports"
	"github.com/ahrav/framerank/internal/ranking"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FRAMERANK_"

var _ ports.ConfigLoader = (*FileLoader)(nil)

// FileLoader reads a YAML file with koanf and applies FRAMERANK_*
// environment overrides. Environment values take precedence over the file.
type FileLoader struct {
	path   string
	getenv func(string) string
}

// NewFileLoader creates a loader for path. An empty path loads defaults and
// environment overrides only.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path, getenv: os.Getenv}
}

// Load populates config, which must be a non-nil pointer. For *RunConfig
// the defaults are applied first and the result is validated.
func (l *FileLoader) Load(ctx context.Context, config any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k := koanf.New(".")
	if l.path != "" {
		path := filepath.Clean(l.path)
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return ports.NewConfigError(path, fmt.Errorf("%w: %v", ports.ErrConfigNotFound, err))
			}
			return ports.NewConfigError(path, err)
		}
	}

	rc, isRun := config.(*RunConfig)
	if isRun {
		*rc = DefaultRunConfig()
	}
	if err := k.UnmarshalWithConf("", config, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return ports.NewConfigError(l.path, fmt.Errorf("decode: %w", err))
	}
	if !isRun {
		if err := validate.Struct(config); err != nil {
			return ports.NewConfigError(l.path, err)
		}
		return nil
	}

	if err := l.applyEnv(rc); err != nil {
		return err
	}
	rc.ApplyDefaults()
	return rc.Validate()
}

// applyEnv overlays the supported environment variables. Unparseable
// numbers are reported together.
func (l *FileLoader) applyEnv(c *RunConfig) error {
	var errs []error

	if v := l.env("SOLVER_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, ports.NewConfigError(EnvPrefix+"SOLVER_ITERATIONS", err))
		} else {
			c.Solver.Iterations = n
		}
	}
	if v := l.env("SOLVER_CONVERGENCE_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, ports.NewConfigError(EnvPrefix+"SOLVER_CONVERGENCE_THRESHOLD", err))
		} else {
			c.Solver.ConvergenceThreshold = f
		}
	}
	if v := l.env("SOLVER_PARALLELISM"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, ports.NewConfigError(EnvPrefix+"SOLVER_PARALLELISM", err))
		} else {
			c.Solver.Parallelism = n
		}
	}
	if v := l.env("MISSING_POLICY"); v != "" {
		c.Solver.MissingPolicy = ranking.MissingPolicy(v)
	}
	if v := l.env("ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := l.env("REDIS_URL"); v != "" {
		c.Server.Cache.RedisURL = v
	}
	if v := l.env("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, ports.NewConfigError(EnvPrefix+"CACHE_TTL", err))
		} else {
			c.Server.Cache.TTL = d
		}
	}
	if v := l.env("CACHE_MAX_ENTRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, ports.NewConfigError(EnvPrefix+"CACHE_MAX_ENTRIES", err))
		} else {
			c.Server.Cache.MaxEntries = n
		}
	}
	if v := l.env("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, ports.NewConfigError(EnvPrefix+"REQUEST_TIMEOUT", err))
		} else {
			c.Server.RequestTimeout = d
		}
	}
	if v := l.env("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := l.env("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}

	return errors.Join(errs...)
}

func (l *FileLoader) env(name string) string {
	return l.getenv(EnvPrefix + name)
}
