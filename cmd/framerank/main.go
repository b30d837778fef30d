// Command framerank ranks fighting-game moves from frame data.
//
// Usage:
//
//	framerank rank  [-config file] [-moves file] [-demo] [-format text|json]
//	framerank serve [-config file] [-addr :8080]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ahrav/framerank/infrastructure/cache"
	"github.com/ahrav/framerank/infrastructure/middleware"
	"github.com/ahrav/framerank/internal/api"
	"github.com/ahrav/framerank/internal/application"
	"github.com/ahrav/framerank/internal/domain"
	"github.com/ahrav/framerank/internal/logx"
	"github.com/ahrav/framerank/internal/ports"
	"github.com/ahrav/framerank/internal/ranking"
	"github.com/ahrav/framerank/internal/report"
	"github.com/ahrav/framerank/internal/testutils"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "framerank:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New("usage: framerank <rank|serve> [flags]")
	}
	switch args[0] {
	case "rank":
		return rankCmd(ctx, args[1:], stdout)
	case "serve":
		return serveCmd(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func rankCmd(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("rank", flag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "YAML run configuration")
		movesPath  = fs.String("moves", "", "JSON file holding an array of moves")
		demo       = fs.Bool("demo", false, "rank the built-in demo roster")
		iterations = fs.Int("iterations", ranking.DefaultIterations, "maximum solver iterations")
		threshold  = fs.Float64("threshold", ranking.DefaultConvergenceThreshold, "convergence threshold")
		missing    = fs.String("missing", string(ranking.MissingSkip), "missing attribute policy: skip, tie or zero")
		format     = fs.String("format", "text", "output format: text or json")
		logLevel   = fs.String("log-level", "", "log level override")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *format != "text" && *format != "json" {
		return fmt.Errorf("format must be text or json, got %q", *format)
	}

	cfg, err := loadConfig(ctx, *configPath)
	if err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "iterations":
			cfg.Solver.Iterations = *iterations
		case "threshold":
			cfg.Solver.ConvergenceThreshold = *threshold
		case "missing":
			cfg.Solver.MissingPolicy = ranking.MissingPolicy(*missing)
		case "log-level":
			cfg.Logging.Level = *logLevel
		}
	})
	logx.Configure(cfg.Logging.Level, cfg.Logging.Format)

	moves, err := selectMoves(cfg, *movesPath, *demo)
	if err != nil {
		return err
	}

	pipeline, err := application.BuildPipeline(cfg, application.NewDefaultUnitRegistry(), nil, logx.Log)
	if err != nil {
		return err
	}
	result, err := application.NewRunner(pipeline, cfg.Name, logx.Log).Run(ctx, moves)
	if err != nil {
		return err
	}

	if *format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return report.Render(stdout, report.Data{
		Rankings:   result.Rankings,
		Matrix:     result.Matrix,
		Categories: result.Categories,
		Report:     result.Report,
	})
}

func loadConfig(ctx context.Context, path string) (application.RunConfig, error) {
	var loader ports.ConfigLoader = application.NewFileLoader(path)
	var cfg application.RunConfig
	if err := loader.Load(ctx, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// selectMoves prefers an explicit moves file, then moves embedded in the
// configuration, then the demo roster when requested.
func selectMoves(cfg application.RunConfig, path string, demo bool) ([]domain.Move, error) {
	switch {
	case path != "":
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("read moves: %w", err)
		}
		var moves []domain.Move
		if err := json.Unmarshal(data, &moves); err != nil {
			return nil, fmt.Errorf("decode moves %s: %w", path, err)
		}
		return moves, nil
	case len(cfg.Moves) > 0:
		return cfg.Moves, nil
	case demo:
		return testutils.RosterMoves(), nil
	default:
		return nil, errors.New("no moves: pass -moves, list them in the config, or use -demo")
	}
}

func serveCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "YAML run configuration")
		addr       = fs.String("addr", "", "listen address override")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(ctx, *configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	logx.Configure(cfg.Logging.Level, cfg.Logging.Format)
	logger := logx.Log

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewPrometheusMetrics(reg)

	store, closeStore, err := openCache(ctx, cfg.Server.Cache)
	if err != nil {
		return err
	}
	defer closeStore()

	srv, err := api.NewServer(api.Options{
		Config:   cfg,
		Metrics:  metrics,
		Gatherer: reg,
		Cache:    store,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("server starting")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openCache selects Redis when a URL is configured and an in-process store
// otherwise. A disabled cache returns a nil store.
func openCache(ctx context.Context, cfg application.CacheConfig) (ports.CacheStore, func(), error) {
	switch {
	case cfg.Disabled:
		return nil, func() {}, nil
	case cfg.RedisURL != "":
		store, err := cache.NewRedisStore(ctx, cfg.RedisURL, cache.DefaultPrefix)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return cache.NewMemoryStore(cfg.MaxEntries, cfg.TTL), func() {}, nil
	}
}
