package debouncez

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BufferedDebounce collects items into batches and emits each batch when the
// stream has been quiet for the debounce timeout, or when the batch has been
// open for the maximum buffer age, whichever comes first.
//
// Items, idle fires and max-age fires are serialized through one goroutine per
// Process call. A timer that loses the race for a batch is stopped before the
// next item is read, and a fire of it that was already pending is discarded,
// so every batch closes exactly once.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type BufferedDebounce[T any] struct {
	name     string
	clock    Clock
	config   Config
	logger   *zap.Logger
	stats    *statsObserver
	observer observers
}

// NewBufferedDebounce creates a processor that batches items between quiet periods,
// capping how long any batch may stay open.
//
// When to use:
//   - Coalescing bursts of change notifications into one unit of work
//   - Batching user input that arrives in flurries
//   - Bulk writes where latency must stay bounded under constant load
//
// Example:
//
//	// Emit after 1s of silence, but never hold a batch longer than 5s
//	debounce, err := debouncez.NewBufferedDebounce[Event](time.Second, 5*time.Second, debouncez.RealClock)
//	if err != nil {
//		return err
//	}
//
//	for batch := range debounce.Process(ctx, events) {
//		if batch.IsError() {
//			return batch.Error()
//		}
//		bulkInsert(batch.Value())
//	}
//
// Parameters:
//   - debounce: Quiet period after the last item that closes the batch
//   - maxAge: Longest time a batch stays open, measured from when it opened
//   - clock: Clock interface for time operations
//
// Returns a *ConfigError if either duration is not positive.
func NewBufferedDebounce[T any](debounce, maxAge time.Duration, clock Clock) (*BufferedDebounce[T], error) {
	return NewBufferedDebounceFromConfig[T](Config{
		DebounceTimeout: debounce,
		MaxBufferAge:    maxAge,
	}, clock)
}

// NewBufferedDebounceFromConfig creates a BufferedDebounce from a Config.
func NewBufferedDebounceFromConfig[T any](config Config, clock Clock) (*BufferedDebounce[T], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	stats := &statsObserver{}
	return &BufferedDebounce[T]{
		name:     "buffered-debounce",
		clock:    clock,
		config:   config,
		logger:   zap.NewNop(),
		stats:    stats,
		observer: observers{stats},
	}, nil
}

// WithName sets a custom name for this processor.
// If not set, defaults to "buffered-debounce".
func (b *BufferedDebounce[T]) WithName(name string) *BufferedDebounce[T] {
	b.name = name
	return b
}

// SuppressEmpty drops batches that close with no items.
// By default empty batches are emitted.
func (b *BufferedDebounce[T]) SuppressEmpty() *BufferedDebounce[T] {
	b.config.SuppressEmpty = true
	return b
}

// WithLogger sets the logger used for batch lifecycle tracing.
func (b *BufferedDebounce[T]) WithLogger(logger *zap.Logger) *BufferedDebounce[T] {
	b.logger = logger
	return b
}

// WithObserver registers an Observer. Observers are called in registration order.
func (b *BufferedDebounce[T]) WithObserver(observer Observer) *BufferedDebounce[T] {
	b.observer = append(b.observer, observer)
	return b
}

// Config returns the configuration the processor was built with.
func (b *BufferedDebounce[T]) Config() Config {
	return b.config
}

// Stats returns a snapshot of the processor's counters.
func (b *BufferedDebounce[T]) Stats() Stats {
	return b.stats.snapshot()
}

// LastBatchOpenTime returns when the most recently opened batch opened.
func (b *BufferedDebounce[T]) LastBatchOpenTime() time.Time {
	return b.stats.openedAt.Load()
}

func (b *BufferedDebounce[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[[]T] {
	out := make(chan Result[[]T])

	if b.config.MaxAgeDominates() {
		b.logger.Warn("max buffer age is shorter than debounce timeout, idle closes will never win",
			zap.Duration("debounce", b.config.DebounceTimeout),
			zap.Duration("maxAge", b.config.MaxBufferAge),
		)
	}

	go b.run(ctx, in, out)

	return out
}

func (b *BufferedDebounce[T]) run(ctx context.Context, in <-chan Result[T], out chan<- Result[[]T]) {
	defer close(out)

	state := newBatchState[T](b.clock, b.config)
	defer state.stop()

	state.open(b.clock.Now())
	b.observer.BatchOpened(state.epoch, state.openedAt)

	// Closed batches wait here until the consumer takes them, so a slow
	// consumer never holds up the input.
	var pending []Result[[]T]

	for {
		var send chan<- Result[[]T]
		var next Result[[]T]
		if len(pending) > 0 {
			send = out
			next = pending[0]
		}

		select {
		case <-ctx.Done():
			discarded := state.discard()
			b.logger.Debug("context cancelled, discarding buffer",
				zap.Uint64("batch", state.epoch),
				zap.Int("discarded", discarded),
				zap.Int("undelivered", len(pending)),
			)
			return

		case send <- next:
			pending[0] = Result[[]T]{}
			pending = pending[1:]

		case result, ok := <-in:
			if !ok {
				if batch, flushed := state.flush(); flushed {
					b.logger.Debug("input closed, flushing batch",
						zap.Uint64("batch", batch.info.Epoch),
						zap.Int("size", len(batch.items)),
					)
					b.observer.BatchClosed(batch.info, len(batch.items), true)
					pending = append(pending, b.emit(batch))
				}
				b.deliver(ctx, out, pending)
				return
			}

			if result.IsError() {
				discarded := state.discard()
				b.logger.Error("upstream failed, discarding batch",
					zap.Uint64("batch", state.epoch),
					zap.Int("discarded", discarded),
					zap.Error(result.Error()),
				)
				b.observer.UpstreamFailed(result.Error(), discarded)
				pending = append(pending, b.upstreamError(result.Error()))
				b.deliver(ctx, out, pending)
				go drain(ctx, in)
				return
			}

			state.accept(result.Value())
			b.observer.ItemAccepted(state.epoch)

		case <-state.idle.C():
			pending = b.settle(state, state.signal(CloseIdle), pending)

		case <-state.maxAge.C():
			pending = b.settle(state, state.signal(CloseMaxAge), pending)
		}
	}
}

// settle hands a timer fire to the arbiter and queues the closed batch.
func (b *BufferedDebounce[T]) settle(state *batchState[T], sig closeSignal, pending []Result[[]T]) []Result[[]T] {
	batch, closed := state.arbitrate(sig)
	if !closed {
		b.discardSignal(sig.reason, sig.epoch, state.epoch)
		return pending
	}
	if batch.loser != "" {
		b.discardSignal(batch.loser, batch.info.Epoch, state.epoch)
	}

	b.traceClose(batch)
	emitted := len(batch.items) > 0 || !b.config.SuppressEmpty
	b.observer.BatchClosed(batch.info, len(batch.items), emitted)
	b.observer.BatchOpened(state.epoch, state.openedAt)
	if emitted {
		pending = append(pending, b.emit(batch))
	}
	return pending
}

func (b *BufferedDebounce[T]) discardSignal(reason CloseReason, signalEpoch, current uint64) {
	b.logger.Debug("discarding stale close signal",
		zap.String("reason", string(reason)),
		zap.Uint64("signalBatch", signalEpoch),
		zap.Uint64("batch", current),
	)
	b.observer.SignalDiscarded(reason, signalEpoch)
}

func (b *BufferedDebounce[T]) traceClose(batch closedBatch[T]) {
	if !b.logger.Core().Enabled(zap.DebugLevel) {
		return
	}

	switch batch.info.Reason {
	case CloseIdle:
		b.logger.Debug("debounce time expired",
			zap.Uint64("batch", batch.info.Epoch),
		)
	case CloseMaxAge:
		b.logger.Debug("maximum time for batch reached",
			zap.Uint64("batch", batch.info.Epoch),
			zap.Duration("elapsed", batch.info.Age()),
		)
	}
	b.logger.Debug("emitting batch",
		zap.Uint64("batch", batch.info.Epoch),
		zap.Int("size", len(batch.items)),
		zap.Uint64("opening", batch.info.Epoch+1),
	)
}

func (b *BufferedDebounce[T]) emit(batch closedBatch[T]) Result[[]T] {
	batch.info.ID = uuid.NewString()
	batch.info.Processor = b.name
	return AddBatchInfo(NewSuccess(batch.items), batch.info)
}

// upstreamError wraps an input failure for the batch stream. The original
// StreamError stays reachable through errors.Is and errors.As.
func (b *BufferedDebounce[T]) upstreamError(cause *StreamError[T]) Result[[]T] {
	return Result[[]T]{
		err: &StreamError[[]T]{
			Err:           cause,
			ProcessorName: b.name,
			Timestamp:     b.clock.Now(),
		},
	}.WithMetadata(MetadataProcessor, b.name)
}

// deliver hands every pending batch to the consumer in order, giving up
// if ctx is cancelled.
func (*BufferedDebounce[T]) deliver(ctx context.Context, out chan<- Result[[]T], pending []Result[[]T]) {
	for _, result := range pending {
		select {
		case out <- result:
		case <-ctx.Done():
			return
		}
	}
}

// drain keeps reading the input after a terminal error so the producer is
// not left blocked on a send nobody will receive.
func drain[T any](ctx context.Context, in <-chan Result[T]) {
	for {
		select {
		case _, ok := <-in:
			if !ok {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Subscribe runs the processor and delivers each batch to fn on the calling
// goroutine, in closure order. It returns nil once the input closes and the
// final batch has been delivered.
//
// An upstream failure is returned as the *StreamError produced by Process.
// If fn returns an error, delivery stops: the processor is cancelled, and the
// error is returned wrapped in a *ConsumerError.
func (b *BufferedDebounce[T]) Subscribe(ctx context.Context, in <-chan Result[T], fn func([]T) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for result := range b.Process(ctx, in) {
		if result.IsError() {
			return result.Error()
		}

		batch := result.Value()
		if err := fn(batch); err != nil {
			info, _ := GetBatchInfo(result) //nolint:errcheck // epoch is best effort context
			b.logger.Warn("consumer rejected batch, stopping",
				zap.Uint64("batch", info.Epoch),
				zap.Int("size", len(batch)),
				zap.Error(err),
			)
			return &ConsumerError{Err: err, Epoch: info.Epoch, Size: len(batch)}
		}
	}

	return ctx.Err()
}

func (b *BufferedDebounce[T]) Name() string {
	return b.name
}
