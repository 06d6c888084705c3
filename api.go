// Package debouncez provides a buffered debounce operator for Go channels:
// items are collected into batches that close when the stream goes quiet
// for a debounce period, or when the batch reaches a maximum age, whichever
// happens first.
//
// The core abstraction is the Processor interface, which transforms an input
// channel into an output channel. Errors travel in-band as Result values.
//
// Basic usage:
//
//	ctx := context.Background()
//	source := debouncez.NewSource[int](0)
//
//	// Close a batch after 1s of silence, or 5s after it opened.
//	debounce, err := debouncez.NewBufferedDebounce[int](time.Second, 5*time.Second, debouncez.RealClock)
//	if err != nil {
//		return err
//	}
//
//	batches := debounce.Process(ctx, source.Out())
//	for batch := range batches {
//		if batch.IsError() {
//			return batch.Error()
//		}
//		fmt.Printf("Got batch: %v\n", batch.Value())
//	}
//
// The package provides:
//   - BufferedDebounce, the idle/max-age batching operator
//   - Source, a push-style producer for the operator's input
//   - BatchMonitor and Unbatcher for observing and flattening batch streams
//   - Observer hooks for metrics (see the metrics subpackage)
package debouncez

import (
	"context"
	"fmt"
	"time"
)

// Processor is the core interface for stream processing components.
// It transforms an input channel of type In to an output channel of type Out.
// Processors should:
//   - Close the output channel when the input channel is closed
//   - Respect context cancellation
//   - Be safe for concurrent use
type Processor[In, Out any] interface {
	// Process transforms the input channel to an output channel.
	// It should close the output channel when processing is complete.
	Process(ctx context.Context, in <-chan In) <-chan Out

	// Name returns a descriptive name for the processor, useful for debugging.
	Name() string
}

// Config configures the BufferedDebounce processor.
// Both durations are fixed at construction.
type Config struct {
	// DebounceTimeout is the quiet period after the last item that closes a batch.
	DebounceTimeout time.Duration

	// MaxBufferAge is the longest a batch may stay open, measured from the
	// moment it opened, regardless of activity. A value below DebounceTimeout
	// is allowed: the max-age path then always wins and idle closes never happen.
	MaxBufferAge time.Duration

	// SuppressEmpty drops batches that close with no items instead of emitting
	// them. Empty batches are emitted by default.
	SuppressEmpty bool
}

// Validate reports a *ConfigError for non-positive durations.
func (c Config) Validate() error {
	if c.DebounceTimeout <= 0 {
		return &ConfigError{Field: "DebounceTimeout", Value: c.DebounceTimeout}
	}
	if c.MaxBufferAge <= 0 {
		return &ConfigError{Field: "MaxBufferAge", Value: c.MaxBufferAge}
	}
	return nil
}

// MaxAgeDominates reports whether the max-age path will always close a batch
// before the idle path can.
func (c Config) MaxAgeDominates() bool {
	return c.MaxBufferAge < c.DebounceTimeout
}

// String renders the configuration for logs.
func (c Config) String() string {
	return fmt.Sprintf("debounce=%s max-age=%s suppress-empty=%t",
		c.DebounceTimeout, c.MaxBufferAge, c.SuppressEmpty)
}
