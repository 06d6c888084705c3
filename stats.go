package debouncez

import (
	"sync/atomic"
	"time"
)

// Stats is a point-in-time snapshot of a BufferedDebounce's counters.
// Counters accumulate across every Process call on the same instance.
type Stats struct {
	LastBatchOpen    time.Time
	Epoch            uint64
	Items            uint64
	Batches          uint64
	EmptyBatches     uint64
	Suppressed       uint64
	IdleCloses       uint64
	MaxAgeCloses     uint64
	FlushCloses      uint64
	DiscardedSignals uint64
	UpstreamFailures uint64
}

// AtomicTime provides atomic operations for time.Time values.
// It internally stores time as Unix nanoseconds.
type AtomicTime struct {
	nanos atomic.Int64
}

// Store atomically stores a time value.
func (at *AtomicTime) Store(t time.Time) {
	at.nanos.Store(t.UnixNano())
}

// Load atomically loads the time value, or the zero time if never stored.
func (at *AtomicTime) Load() time.Time {
	nanos := at.nanos.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}

// statsObserver keeps Stats current. It is always the first observer
// registered on a BufferedDebounce.
type statsObserver struct {
	openedAt         AtomicTime
	epoch            atomic.Uint64
	items            atomic.Uint64
	batches          atomic.Uint64
	empty            atomic.Uint64
	suppressed       atomic.Uint64
	idle             atomic.Uint64
	maxAge           atomic.Uint64
	flush            atomic.Uint64
	discarded        atomic.Uint64
	upstreamFailures atomic.Uint64
}

func (s *statsObserver) BatchOpened(epoch uint64, openedAt time.Time) {
	s.epoch.Store(epoch)
	s.openedAt.Store(openedAt)
}

func (s *statsObserver) ItemAccepted(uint64) {
	s.items.Add(1)
}

func (s *statsObserver) BatchClosed(info BatchInfo, size int, emitted bool) {
	switch info.Reason {
	case CloseIdle:
		s.idle.Add(1)
	case CloseMaxAge:
		s.maxAge.Add(1)
	case CloseFlush:
		s.flush.Add(1)
	}
	if !emitted {
		s.suppressed.Add(1)
		return
	}
	s.batches.Add(1)
	if size == 0 {
		s.empty.Add(1)
	}
}

func (s *statsObserver) SignalDiscarded(CloseReason, uint64) {
	s.discarded.Add(1)
}

func (s *statsObserver) UpstreamFailed(error, int) {
	s.upstreamFailures.Add(1)
}

func (s *statsObserver) snapshot() Stats {
	return Stats{
		LastBatchOpen:    s.openedAt.Load(),
		Epoch:            s.epoch.Load(),
		Items:            s.items.Load(),
		Batches:          s.batches.Load(),
		EmptyBatches:     s.empty.Load(),
		Suppressed:       s.suppressed.Load(),
		IdleCloses:       s.idle.Load(),
		MaxAgeCloses:     s.maxAge.Load(),
		FlushCloses:      s.flush.Load(),
		DiscardedSignals: s.discarded.Load(),
		UpstreamFailures: s.upstreamFailures.Load(),
	}
}
