package debouncez

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is matched by every *ConfigError.
var ErrInvalidConfig = errors.New("invalid buffered debounce configuration")

// ErrSourceClosed is returned by Source.Submit after Complete or Fail.
var ErrSourceClosed = errors.New("source closed")

// StreamError represents an error that occurred during stream processing.
// It captures both the item that caused the error and the error itself.
//
//nolint:govet // fieldalignment: struct layout optimized for readability over memory
type StreamError[T any] struct {
	// Item is the item in flight when the error occurred. For upstream
	// failures surfaced by BufferedDebounce it is always the zero value:
	// the partial batch is discarded, not attached.
	Item T

	// Err is the underlying error.
	Err error

	// ProcessorName identifies which processor generated the error.
	ProcessorName string

	// Timestamp records when the error occurred.
	Timestamp time.Time
}

// NewStreamError creates a new StreamError with the current timestamp.
func NewStreamError[T any](item T, err error, processorName string) *StreamError[T] {
	return &StreamError[T]{
		Item:          item,
		Err:           err,
		ProcessorName: processorName,
		Timestamp:     time.Now(),
	}
}

// String returns a human-readable representation of the error.
func (se *StreamError[T]) String() string {
	return fmt.Sprintf("StreamError[%s]: %v (item: %v, time: %s)",
		se.ProcessorName, se.Err, se.Item, se.Timestamp.Format(time.RFC3339))
}

// Unwrap returns the underlying error, enabling error wrapping chains.
func (se *StreamError[T]) Unwrap() error {
	return se.Err
}

// Error implements the error interface.
func (se *StreamError[T]) Error() string {
	return se.String()
}

// ConfigError reports a timer duration rejected at construction.
type ConfigError struct {
	Field string
	Value time.Duration
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s must be positive, got %s", ErrInvalidConfig, e.Field, e.Value)
}

// Is makes errors.Is(err, ErrInvalidConfig) hold for any ConfigError.
func (*ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// ConsumerError wraps a failure returned by a Subscribe callback.
// Delivery stops at the failing batch; later batches are never delivered.
type ConsumerError struct {
	Err   error
	Epoch uint64
	Size  int
}

func (e *ConsumerError) Error() string {
	return fmt.Sprintf("consumer rejected batch #%d (%d items): %v", e.Epoch, e.Size, e.Err)
}

func (e *ConsumerError) Unwrap() error {
	return e.Err
}
