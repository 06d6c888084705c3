package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/zoobzio/debouncez"
)

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	c, err := NewCollector(prometheus.NewRegistry(), "test")
	if err != nil {
		t.Fatalf("failed to create collector: %v", err)
	}
	return c
}

func TestCollector_BatchLifecycle(t *testing.T) {
	c := newTestCollector(t)
	opened := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	c.BatchOpened(4, opened)
	c.ItemAccepted(4)
	c.ItemAccepted(4)
	c.BatchClosed(debouncez.BatchInfo{
		Epoch:    4,
		Reason:   debouncez.CloseIdle,
		OpenedAt: opened,
		ClosedAt: opened.Add(1200 * time.Millisecond),
	}, 2, true)
	c.BatchClosed(debouncez.BatchInfo{Epoch: 5, Reason: debouncez.CloseMaxAge}, 0, false)

	if got := testutil.ToFloat64(c.ItemsAccepted); got != 2 {
		t.Errorf("expected 2 items accepted, got %v", got)
	}
	if got := testutil.ToFloat64(c.BatchesClosed.WithLabelValues("idle", "true")); got != 1 {
		t.Errorf("expected 1 emitted idle batch, got %v", got)
	}
	if got := testutil.ToFloat64(c.BatchesClosed.WithLabelValues("max_age", "false")); got != 1 {
		t.Errorf("expected 1 suppressed max-age batch, got %v", got)
	}
	if got := testutil.ToFloat64(c.CurrentEpoch); got != 4 {
		t.Errorf("expected epoch gauge 4, got %v", got)
	}
	if got := testutil.ToFloat64(c.BatchOpenedAt); got != float64(opened.Unix()) {
		t.Errorf("expected opened timestamp %d, got %v", opened.Unix(), got)
	}
	if got := testutil.CollectAndCount(c.BatchSize); got != 1 {
		t.Errorf("expected one batch size series, got %d", got)
	}
	if got := testutil.CollectAndCount(c.BatchAge); got != 2 {
		t.Errorf("expected batch age series per reason, got %d", got)
	}
}

func TestCollector_DiscardsAndFailures(t *testing.T) {
	c := newTestCollector(t)

	c.SignalDiscarded(debouncez.CloseMaxAge, 0)
	c.SignalDiscarded(debouncez.CloseMaxAge, 1)
	c.SignalDiscarded(debouncez.CloseIdle, 1)
	c.UpstreamFailed(errors.New("boom"), 3)

	if got := testutil.ToFloat64(c.SignalsDiscarded.WithLabelValues("max_age")); got != 2 {
		t.Errorf("expected 2 discarded max-age signals, got %v", got)
	}
	if got := testutil.ToFloat64(c.SignalsDiscarded.WithLabelValues("idle")); got != 1 {
		t.Errorf("expected 1 discarded idle signal, got %v", got)
	}
	if got := testutil.ToFloat64(c.UpstreamFailures); got != 1 {
		t.Errorf("expected 1 upstream failure, got %v", got)
	}
	if got := testutil.ToFloat64(c.ItemsDiscarded); got != 3 {
		t.Errorf("expected 3 discarded items, got %v", got)
	}
}

func TestNewCollector_DuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	if _, err := NewCollector(registry, "dup"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := NewCollector(registry, "dup")
	var already prometheus.AlreadyRegisteredError
	if !errors.As(err, &already) {
		t.Errorf("expected AlreadyRegisteredError, got %v", err)
	}

	// A different processor label is a distinct set of series.
	if _, err := NewCollector(registry, "other"); err != nil {
		t.Errorf("expected distinct processor to register, got %v", err)
	}
}

func TestCollector_WiredToBufferedDebounce(t *testing.T) {
	registry := prometheus.NewRegistry()
	c, err := NewCollector(registry, "wired")
	if err != nil {
		t.Fatal(err)
	}

	proc, err := debouncez.NewBufferedDebounce[int](time.Hour, time.Hour, debouncez.RealClock)
	if err != nil {
		t.Fatal(err)
	}
	proc.WithObserver(c)

	in := make(chan debouncez.Result[int], 3)
	in <- debouncez.NewSuccess(1)
	in <- debouncez.NewSuccess(2)
	in <- debouncez.NewSuccess(3)
	close(in)

	if err := proc.Subscribe(context.Background(), in, func([]int) error { return nil }); err != nil {
		t.Fatal(err)
	}

	if got := testutil.ToFloat64(c.ItemsAccepted); got != 3 {
		t.Errorf("expected 3 items accepted, got %v", got)
	}
	if got := testutil.ToFloat64(c.BatchesClosed.WithLabelValues("flush", "true")); got != 1 {
		t.Errorf("expected 1 flushed batch, got %v", got)
	}
}
