package debouncez

import (
	"context"
	"sync"
	"time"
)

// BatchStats summarizes the batches that passed a BatchMonitor since its last report.
type BatchStats struct {
	// LastUpdate is the timestamp of this statistics snapshot.
	LastUpdate time.Time
	// Reasons counts closes per CloseReason.
	Reasons map[CloseReason]int64
	// Batches is the number of batches seen since the last report.
	Batches int64
	// Items is the total number of items in those batches.
	Items int64
	// Errors is the number of error results seen.
	Errors int64
	// MaxSize is the largest batch seen.
	MaxSize int
	// Rate is the average batches per second since the last report.
	Rate float64
}

// MeanSize returns the average batch size, or zero when no batch was seen.
func (s BatchStats) MeanSize() float64 {
	if s.Batches == 0 {
		return 0
	}
	return float64(s.Items) / float64(s.Batches)
}

// BatchMonitor observes a batch stream and periodically reports BatchStats.
// It's a pass-through processor that doesn't modify the stream.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type BatchMonitor[T any] struct {
	name     string
	clock    Clock
	interval time.Duration
	onStats  func(BatchStats)

	mu       sync.Mutex
	current  BatchStats
	lastTime time.Time
}

// NewBatchMonitor creates a pass-through processor that reports batch statistics.
//
// When to use:
//   - Watching how often batches close on idle versus max age
//   - Tuning debounce and max-age durations against real traffic
//   - Alerting when batches grow unexpectedly large
//
// Example:
//
//	monitor := debouncez.NewBatchMonitor[Event](10*time.Second, debouncez.RealClock, func(s debouncez.BatchStats) {
//		logger.Info("batches",
//			zap.Int64("count", s.Batches),
//			zap.Float64("meanSize", s.MeanSize()),
//			zap.Int64("maxAge", s.Reasons[debouncez.CloseMaxAge]))
//	})
//
//	batches := monitor.Process(ctx, debounce.Process(ctx, events))
//
// Parameters:
//   - interval: How often to report statistics
//   - clock: Clock interface for time operations
//   - onStats: Callback invoked with statistics at each interval and at close
func NewBatchMonitor[T any](interval time.Duration, clock Clock, onStats func(BatchStats)) *BatchMonitor[T] {
	return &BatchMonitor[T]{
		name:     "batch-monitor",
		clock:    clock,
		interval: interval,
		onStats:  onStats,
		current:  BatchStats{Reasons: map[CloseReason]int64{}},
		lastTime: clock.Now(),
	}
}

func (m *BatchMonitor[T]) Process(ctx context.Context, in <-chan Result[[]T]) <-chan Result[[]T] {
	out := make(chan Result[[]T])

	go func() {
		defer close(out)

		ticker := m.clock.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				m.reportStats()
				return

			case result, ok := <-in:
				if !ok {
					m.reportStats()
					return
				}

				m.record(result)

				select {
				case out <- result:
				case <-ctx.Done():
					return
				}

			case <-ticker.C():
				m.reportStats()
			}
		}
	}()

	return out
}

func (m *BatchMonitor[T]) record(result Result[[]T]) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if result.IsError() {
		m.current.Errors++
		return
	}

	size := len(result.Value())
	m.current.Batches++
	m.current.Items += int64(size)
	if size > m.current.MaxSize {
		m.current.MaxSize = size
	}
	if info, err := GetBatchInfo(result); err == nil {
		m.current.Reasons[info.Reason]++
	}
}

func (m *BatchMonitor[T]) reportStats() {
	m.mu.Lock()
	now := m.clock.Now()
	stats := m.current
	duration := now.Sub(m.lastTime).Seconds()
	if duration > 0 {
		stats.Rate = float64(stats.Batches) / duration
	}
	stats.LastUpdate = now

	m.current = BatchStats{Reasons: map[CloseReason]int64{}}
	m.lastTime = now
	m.mu.Unlock()

	if m.onStats != nil {
		m.onStats(stats)
	}
}

func (m *BatchMonitor[T]) Name() string {
	return m.name
}
