package debouncez

import "time"

// closedBatch is a drained buffer together with its bookkeeping.
type closedBatch[T any] struct {
	items []T
	info  BatchInfo
	loser CloseReason // path whose fire was already pending at close, if any
}

// batchState is the accumulator and close arbiter. It is owned by a single
// goroutine; nothing in here is safe for concurrent use.
type batchState[T any] struct {
	openedAt time.Time
	clock    Clock
	buffer   []T
	idle     idleTimer
	maxAge   maxAgeTimer
	epoch    uint64
}

func newBatchState[T any](clock Clock, config Config) *batchState[T] {
	return &batchState[T]{
		clock:  clock,
		idle:   idleTimer{clock: clock, timeout: config.DebounceTimeout},
		maxAge: maxAgeTimer{clock: clock, maxAge: config.MaxBufferAge},
	}
}

// open starts the current epoch at now. The idle path stays disarmed until
// the first item arrives.
func (s *batchState[T]) open(now time.Time) {
	s.openedAt = now
	s.maxAge.arm(now)
}

func (s *batchState[T]) accept(item T) {
	s.buffer = append(s.buffer, item)
	s.idle.reset()
}

// signal tags a fire received from one of the current timers.
func (s *batchState[T]) signal(reason CloseReason) closeSignal {
	sig := closeSignal{reason: reason, epoch: s.epoch}
	if reason == CloseIdle {
		sig.seq = s.idle.seq
	}
	return sig
}

// arbitrate closes the current batch if sig is the first valid signal for it.
// Signals for an earlier epoch, or from a superseded idle arming, are ignored.
// A max-age close is attributed to the idle path when the idle deadline was
// due no later than the max-age deadline.
func (s *batchState[T]) arbitrate(sig closeSignal) (closedBatch[T], bool) {
	if sig.epoch != s.epoch {
		return closedBatch[T]{}, false
	}
	if sig.reason == CloseIdle && !s.idle.current(sig) {
		return closedBatch[T]{}, false
	}

	reason := sig.reason
	if reason == CloseMaxAge && s.idle.armed() && !s.idle.deadline.After(s.maxAge.deadline) {
		reason = CloseIdle
	}
	return s.close(s.clock.Now(), reason), true
}

// close cancels both paths, drains the buffer and opens the next epoch.
// A fire from the losing path that is already pending is taken off its
// channel and reported on the batch.
func (s *batchState[T]) close(now time.Time, reason CloseReason) closedBatch[T] {
	var loser CloseReason
	switch {
	case fired(s.idle.C()):
		loser = CloseIdle
	case fired(s.maxAge.C()):
		loser = CloseMaxAge
	}
	s.stop()

	items := s.buffer
	if items == nil {
		items = []T{}
	}
	batch := closedBatch[T]{
		items: items,
		loser: loser,
		info: BatchInfo{
			Epoch:    s.epoch,
			Reason:   reason,
			OpenedAt: s.openedAt,
			ClosedAt: now,
		},
	}

	s.buffer = nil
	s.epoch++
	s.open(now)
	return batch
}

// flush stops both paths and drains a non-empty buffer as the final batch.
func (s *batchState[T]) flush() (closedBatch[T], bool) {
	s.stop()
	if len(s.buffer) == 0 {
		return closedBatch[T]{}, false
	}

	batch := closedBatch[T]{
		items: s.buffer,
		info: BatchInfo{
			Epoch:    s.epoch,
			Reason:   CloseFlush,
			OpenedAt: s.openedAt,
			ClosedAt: s.clock.Now(),
		},
	}
	s.buffer = nil
	return batch, true
}

// discard stops both paths and drops the partial buffer, returning its size.
func (s *batchState[T]) discard() int {
	s.stop()
	n := len(s.buffer)
	s.buffer = nil
	return n
}

func (s *batchState[T]) stop() {
	s.idle.cancel()
	s.maxAge.cancel()
}
