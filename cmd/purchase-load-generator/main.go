package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rubenvp8510/ticket-load-generator/internal/client"
	"github.com/rubenvp8510/ticket-load-generator/internal/config"
	"github.com/rubenvp8510/ticket-load-generator/internal/generator"
	"github.com/rubenvp8510/ticket-load-generator/internal/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to the run configuration (default: $LOAD_CONFIG_FILE, $CONFIG_FILE or config.yaml)")
	envFile := flag.String("env-file", ".env", "optional dotenv file with host overrides")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	scenario := flag.String("scenario", "", "override test.scenario (sequential or deterministic)")
	flag.Parse()

	slog.SetDefault(newLogger(os.Stderr, *logLevel, *logFormat))

	if err := config.LoadDotEnv(*envFile); err != nil {
		slog.Error("failed to load env file", "path", *envFile, "error", err)
		os.Exit(1)
	}

	overrides := make(map[string]any)
	if *scenario != "" {
		overrides["test.scenario"] = *scenario
	}

	// Load and validate configuration
	cfg, err := config.LoadAndValidateWithOverrides(*configPath, overrides)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	m := metrics.NewMetrics(cfg.Metrics.Namespace)
	if cfg.Metrics.ListenAddress != "" {
		go serveMetrics(cfg.Metrics.ListenAddress, m)
	}

	slog.Info("target services", "purchase_host", cfg.PurchaseHost(), "query_host", cfg.QueryHost())
	api := client.NewTicketClient(cfg.PurchaseHost(), cfg.QueryHost(), client.Options{
		Timeout:            cfg.Target.RequestTimeout,
		InsecureSkipVerify: cfg.Target.InsecureSkipVerify,
	})

	runner := generator.NewRunner(cfg, m, api)
	if err := runner.Prepare(); err != nil {
		slog.Error("could not prepare run", "run_id", runner.RunID(), "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := runner.Run(ctx)
	if err != nil {
		slog.Error("could not run load test", "run_id", runner.RunID(), "error", err)
		os.Exit(1)
	}
	summary.Log()

	if err := writeReport(cfg.Report, m.Samples); err != nil {
		slog.Error("could not write report", "error", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func serveMetrics(addr string, m *metrics.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("serving metrics", "address", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("metrics server stopped", "error", err)
	}
}

func writeReport(cfg config.ReportConfig, samples *metrics.Samples) error {
	if cfg.Output == "" {
		return samples.Report(os.Stdout, cfg.Format)
	}
	f, err := os.Create(cfg.Output)
	if err != nil {
		return err
	}
	if err := samples.Report(f, cfg.Format); err != nil {
		f.Close()
		return err
	}
	slog.Info("report written", "path", cfg.Output, "format", cfg.Format)
	return f.Close()
}
