// Command bufferdebounce reads integers from stdin, one per line, and prints
// them back as comma-joined batches closed by a buffered debounce.
//
// Run with: go run ./cmd/bufferdebounce
// Override timings: BUFFERDEBOUNCE_DEBOUNCE_TIMEOUT=500ms go run ./cmd/bufferdebounce
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zoobzio/debouncez"
	"github.com/zoobzio/debouncez/internal/config"
	"github.com/zoobzio/debouncez/internal/console"
	"github.com/zoobzio/debouncez/metrics"
)

var (
	// Version information (set during build)
	version = "dev"

	// Command-line flags
	configFile = flag.String("config", os.Getenv("BUFFERDEBOUNCE_CONFIG"), "Path to configuration file")
	logLevel   = flag.String("log-level", "", "Log level (debug, info, warn, error), overrides config")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger, err := initLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck // nothing to do if stderr cannot be synced

	logger.Info("Starting bufferdebounce",
		zap.String("version", version),
		zap.String("configFile", *configFile),
		zap.Duration("debounce", cfg.Debounce.Timeout),
		zap.Duration("maxAge", cfg.Debounce.MaxAge),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	if cfg.Metrics.Address != "" {
		go serveMetrics(cfg.Metrics.Address, registry, logger)
	}

	fmt.Fprintln(os.Stderr, "Enter values to add to buffer")

	if err := run(ctx, cfg, os.Stdin, os.Stdout, registry, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("bufferdebounce stopped with error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("bufferdebounce stopped gracefully")
}

// run wires stdin to the operator and the operator to stdout. It returns
// once the input is exhausted and the final batch is printed, or on the
// first error.
func run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, registry prometheus.Registerer, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	collector, err := metrics.NewCollector(registry, "console")
	if err != nil {
		return err
	}

	debounce, err := debouncez.NewBufferedDebounceFromConfig[int](cfg.Debounce.Operator(), debouncez.RealClock)
	if err != nil {
		return err
	}
	debounce.WithName("console").WithLogger(logger).WithObserver(collector)

	source := debouncez.NewSource[int](0).WithName("stdin")
	go func() {
		n, err := console.ReadInts(ctx, in, source, logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Input failed", zap.Int("submitted", n), zap.Error(err))
			_ = source.Fail(ctx, err)
			return
		}
		logger.Debug("Input exhausted", zap.Int("submitted", n))
		source.Complete()
	}()

	batches := debounce.Process(ctx, source.Out())
	if cfg.Metrics.ReportInterval > 0 {
		monitor := debouncez.NewBatchMonitor[int](cfg.Metrics.ReportInterval, debouncez.RealClock, func(s debouncez.BatchStats) {
			logger.Info("Batch report",
				zap.Int64("batches", s.Batches),
				zap.Int64("items", s.Items),
				zap.Float64("meanSize", s.MeanSize()),
				zap.Int("maxSize", s.MaxSize),
				zap.Int64("idle", s.Reasons[debouncez.CloseIdle]),
				zap.Int64("maxAge", s.Reasons[debouncez.CloseMaxAge]),
				zap.Float64("rate", s.Rate),
			)
		})
		batches = monitor.Process(ctx, batches)
	}

	printer := console.NewPrinter(out)
	for result := range batches {
		if result.IsError() {
			return result.Error()
		}
		if err := printer.Print(result.Value()); err != nil {
			return err
		}
	}

	return ctx.Err()
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("Starting metrics server", zap.String("address", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Metrics server failed", zap.Error(err))
	}
}

// initLogger initializes the zap logger based on the log level
func initLogger(level string) (*zap.Logger, error) {
	var config zap.Config

	switch level {
	case "debug":
		config = zap.NewDevelopmentConfig()
	default:
		config = zap.NewProductionConfig()
		config.Level = parseLogLevel(level)
	}

	return config.Build()
}

// parseLogLevel parses the log level string
func parseLogLevel(level string) zap.AtomicLevel {
	switch level {
	case "debug":
		return zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
}
