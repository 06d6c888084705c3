package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zoobzio/debouncez/internal/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Debounce.Timeout = time.Hour
	cfg.Debounce.MaxAge = time.Hour
	return &cfg
}

func TestRun_FlushesInputAsOneBatch(t *testing.T) {
	var out bytes.Buffer
	registry := prometheus.NewRegistry()

	err := run(context.Background(), testConfig(), strings.NewReader("1\n2\nx\n3\n"), &out, registry, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.String() != "1,2,3\n" {
		t.Errorf("expected one batch \"1,2,3\", got %q", out.String())
	}

	count, err := testutil.GatherAndCount(registry, "debouncez_items_accepted_total")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected items metric to be registered, got %d series", count)
	}
}

func TestRun_EmptyInput(t *testing.T) {
	var out bytes.Buffer

	err := run(context.Background(), testConfig(), strings.NewReader(""), &out, prometheus.NewRegistry(), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no output, got %q", out.String())
	}
}

func TestRun_WithBatchReport(t *testing.T) {
	var out bytes.Buffer
	cfg := testConfig()
	cfg.Metrics.ReportInterval = time.Hour

	err := run(context.Background(), cfg, strings.NewReader("7\n8\n"), &out, prometheus.NewRegistry(), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "7,8\n" {
		t.Errorf("expected \"7,8\", got %q", out.String())
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := run(ctx, testConfig(), strings.NewReader("1\n"), &bytes.Buffer{}, prometheus.NewRegistry(), zap.NewNop())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRun_DuplicateRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	if err := run(context.Background(), testConfig(), strings.NewReader(""), &bytes.Buffer{}, registry, zap.NewNop()); err != nil {
		t.Fatal(err)
	}
	if err := run(context.Background(), testConfig(), strings.NewReader(""), &bytes.Buffer{}, registry, zap.NewNop()); err == nil {
		t.Error("expected second run on the same registry to fail registration")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"info":  zapcore.InfoLevel,
		"":      zapcore.InfoLevel,
	}

	for input, expected := range tests {
		if got := parseLogLevel(input).Level(); got != expected {
			t.Errorf("parseLogLevel(%q) = %v, want %v", input, got, expected)
		}
	}
}
