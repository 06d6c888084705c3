// Package metrics exposes BufferedDebounce activity as Prometheus metrics.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zoobzio/debouncez"
)

// Collector holds the Prometheus metrics for one BufferedDebounce and
// implements debouncez.Observer.
type Collector struct {
	ItemsAccepted    prometheus.Counter
	BatchesClosed    *prometheus.CounterVec
	BatchSize        prometheus.Histogram
	BatchAge         *prometheus.HistogramVec
	SignalsDiscarded *prometheus.CounterVec
	UpstreamFailures prometheus.Counter
	ItemsDiscarded   prometheus.Counter
	CurrentEpoch     prometheus.Gauge
	BatchOpenedAt    prometheus.Gauge
}

// NewCollector creates the metrics and registers them with registry.
// processor is attached as a constant label so several operators can share a registry.
func NewCollector(registry prometheus.Registerer, processor string) (*Collector, error) {
	labels := prometheus.Labels{"processor": processor}

	c := &Collector{
		ItemsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "debouncez_items_accepted_total",
			Help:        "Total number of items buffered",
			ConstLabels: labels,
		}),
		BatchesClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "debouncez_batches_closed_total",
			Help:        "Total number of batches closed by reason and whether they were emitted",
			ConstLabels: labels,
		}, []string{"reason", "emitted"}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "debouncez_batch_size",
			Help:        "Number of items per closed batch",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(1, 2, 12),
		}),
		BatchAge: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "debouncez_batch_age_seconds",
			Help:        "Time a batch stayed open before closing",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"reason"}),
		SignalsDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "debouncez_signals_discarded_total",
			Help:        "Timer fires ignored because their batch was already closed",
			ConstLabels: labels,
		}, []string{"reason"}),
		UpstreamFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "debouncez_upstream_failures_total",
			Help:        "Total number of upstream errors received",
			ConstLabels: labels,
		}),
		ItemsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "debouncez_items_discarded_total",
			Help:        "Items dropped from partial batches on upstream failure",
			ConstLabels: labels,
		}),
		CurrentEpoch: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "debouncez_current_epoch",
			Help:        "Epoch of the currently open batch",
			ConstLabels: labels,
		}),
		BatchOpenedAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "debouncez_batch_opened_timestamp_seconds",
			Help:        "Unix time the currently open batch opened",
			ConstLabels: labels,
		}),
	}

	for _, collector := range []prometheus.Collector{
		c.ItemsAccepted,
		c.BatchesClosed,
		c.BatchSize,
		c.BatchAge,
		c.SignalsDiscarded,
		c.UpstreamFailures,
		c.ItemsDiscarded,
		c.CurrentEpoch,
		c.BatchOpenedAt,
	} {
		if err := registry.Register(collector); err != nil {
			return nil, fmt.Errorf("failed to register metrics for %s: %w", processor, err)
		}
	}

	return c, nil
}

// BatchOpened implements debouncez.Observer.
func (c *Collector) BatchOpened(epoch uint64, openedAt time.Time) {
	c.CurrentEpoch.Set(float64(epoch))
	c.BatchOpenedAt.Set(float64(openedAt.UnixNano()) / 1e9)
}

// ItemAccepted implements debouncez.Observer.
func (c *Collector) ItemAccepted(uint64) {
	c.ItemsAccepted.Inc()
}

// BatchClosed implements debouncez.Observer.
func (c *Collector) BatchClosed(info debouncez.BatchInfo, size int, emitted bool) {
	emittedLabel := "true"
	if !emitted {
		emittedLabel = "false"
	}
	c.BatchesClosed.WithLabelValues(string(info.Reason), emittedLabel).Inc()
	c.BatchSize.Observe(float64(size))
	c.BatchAge.WithLabelValues(string(info.Reason)).Observe(info.Age().Seconds())
}

// SignalDiscarded implements debouncez.Observer.
func (c *Collector) SignalDiscarded(reason debouncez.CloseReason, _ uint64) {
	c.SignalsDiscarded.WithLabelValues(string(reason)).Inc()
}

// UpstreamFailed implements debouncez.Observer.
func (c *Collector) UpstreamFailed(_ error, discarded int) {
	c.UpstreamFailures.Inc()
	c.ItemsDiscarded.Add(float64(discarded))
}

var _ debouncez.Observer = (*Collector)(nil)
