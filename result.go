package debouncez

import (
	"fmt"
	"time"
)

// Result represents either a successful value or an error in stream processing.
// BufferedDebounce consumes Result[T] and emits Result[[]T], so an upstream
// failure and a batch travel on the same channel in order.
type Result[T any] struct {
	value    T
	err      *StreamError[T]
	metadata map[string]interface{} // nil by default for zero overhead
}

// NewSuccess creates a Result containing a successful value.
func NewSuccess[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// NewError creates a Result containing an error.
func NewError[T any](item T, err error, processorName string) Result[T] {
	return Result[T]{err: NewStreamError(item, err, processorName)}
}

// IsError returns true if this Result contains an error.
func (r Result[T]) IsError() bool {
	return r.err != nil
}

// IsSuccess returns true if this Result contains a successful value.
func (r Result[T]) IsSuccess() bool {
	return r.err == nil
}

// Value returns the successful value.
// Panics if called on a Result containing an error - always check IsSuccess() first.
func (r Result[T]) Value() T {
	if r.err != nil {
		panic("called Value() on Result containing an error")
	}
	return r.value
}

// Error returns the StreamError.
// Returns nil if this Result contains a successful value.
func (r Result[T]) Error() *StreamError[T] {
	return r.err
}

// ValueOr returns the successful value if present, otherwise returns the fallback.
func (r Result[T]) ValueOr(fallback T) T {
	if r.err != nil {
		return fallback
	}
	return r.value
}

// Standard metadata keys attached to every emitted batch.
const (
	MetadataBatchEpoch  = "batch_epoch"     // uint64 - generation of the closed batch
	MetadataBatchID     = "batch_id"        // string - unique batch identifier
	MetadataCloseReason = "close_reason"    // string - "idle", "max_age", "flush"
	MetadataOpenedAt    = "batch_opened_at" // time.Time - when the batch opened
	MetadataClosedAt    = "batch_closed_at" // time.Time - when the batch closed
	MetadataProcessor   = "processor"       // string - processor that added metadata
)

// WithMetadata returns a new Result with the specified metadata key-value pair.
// The original Result is unchanged. Empty keys are ignored.
func (r Result[T]) WithMetadata(key string, value interface{}) Result[T] {
	if key == "" {
		return r
	}

	var newMetadata map[string]interface{}
	if r.metadata == nil {
		newMetadata = map[string]interface{}{key: value}
	} else {
		newMetadata = make(map[string]interface{}, len(r.metadata)+1)
		for k, v := range r.metadata {
			newMetadata[k] = v
		}
		newMetadata[key] = value
	}

	return Result[T]{
		value:    r.value,
		err:      r.err,
		metadata: newMetadata,
	}
}

// GetMetadata retrieves a metadata value by key.
// Returns the value and true if the key exists, nil and false otherwise.
func (r Result[T]) GetMetadata(key string) (interface{}, bool) {
	if r.metadata == nil {
		return nil, false
	}
	value, exists := r.metadata[key]
	return value, exists
}

// HasMetadata returns true if this Result contains any metadata.
func (r Result[T]) HasMetadata() bool {
	return len(r.metadata) > 0
}

// GetStringMetadata retrieves string metadata.
// Returns: (value, found, error)
// - found=false, error=nil: key not present
// - found=false, error!=nil: key present but wrong type
// - found=true, error=nil: successful retrieval.
func (r Result[T]) GetStringMetadata(key string) (value string, found bool, err error) {
	metaValue, exists := r.GetMetadata(key)
	if !exists {
		return "", false, nil
	}
	str, ok := metaValue.(string)
	if !ok {
		return "", false, fmt.Errorf("metadata key %q has type %T, expected string", key, metaValue)
	}
	return str, true, nil
}

// GetTimeMetadata retrieves time.Time metadata.
func (r Result[T]) GetTimeMetadata(key string) (time.Time, bool, error) {
	value, exists := r.GetMetadata(key)
	if !exists {
		return time.Time{}, false, nil
	}
	t, ok := value.(time.Time)
	if !ok {
		return time.Time{}, false, fmt.Errorf("metadata key %q has type %T, expected time.Time", key, value)
	}
	return t, true, nil
}

// GetUint64Metadata retrieves uint64 metadata.
func (r Result[T]) GetUint64Metadata(key string) (uint64, bool, error) {
	value, exists := r.GetMetadata(key)
	if !exists {
		return 0, false, nil
	}
	n, ok := value.(uint64)
	if !ok {
		return 0, false, fmt.Errorf("metadata key %q has type %T, expected uint64", key, value)
	}
	return n, true, nil
}

// CloseReason names the path that closed a batch.
type CloseReason string

// Close reasons.
const (
	CloseIdle   CloseReason = "idle"
	CloseMaxAge CloseReason = "max_age"
	CloseFlush  CloseReason = "flush"
)

// BatchInfo describes one emitted batch.
type BatchInfo struct {
	OpenedAt  time.Time
	ClosedAt  time.Time
	ID        string
	Processor string
	Reason    CloseReason
	Epoch     uint64
}

// Age returns how long the batch stayed open.
func (b BatchInfo) Age() time.Duration {
	return b.ClosedAt.Sub(b.OpenedAt)
}

// AddBatchInfo attaches batch metadata to a Result.
func AddBatchInfo[T any](result Result[T], info BatchInfo) Result[T] {
	return result.
		WithMetadata(MetadataBatchEpoch, info.Epoch).
		WithMetadata(MetadataBatchID, info.ID).
		WithMetadata(MetadataCloseReason, string(info.Reason)).
		WithMetadata(MetadataOpenedAt, info.OpenedAt).
		WithMetadata(MetadataClosedAt, info.ClosedAt).
		WithMetadata(MetadataProcessor, info.Processor)
}

// GetBatchInfo extracts batch metadata from a Result.
func GetBatchInfo[T any](result Result[T]) (BatchInfo, error) {
	epoch, found, err := result.GetUint64Metadata(MetadataBatchEpoch)
	if err != nil || !found {
		return BatchInfo{}, fmt.Errorf("batch epoch not found or invalid: %w", err)
	}

	reason, found, err := result.GetStringMetadata(MetadataCloseReason)
	if err != nil || !found {
		return BatchInfo{}, fmt.Errorf("close reason not found or invalid: %w", err)
	}

	switch CloseReason(reason) {
	case CloseIdle, CloseMaxAge, CloseFlush:
	default:
		return BatchInfo{}, fmt.Errorf("invalid close reason: %s", reason)
	}

	opened, found, err := result.GetTimeMetadata(MetadataOpenedAt)
	if err != nil || !found {
		return BatchInfo{}, fmt.Errorf("batch open time not found or invalid: %w", err)
	}

	closed, found, err := result.GetTimeMetadata(MetadataClosedAt)
	if err != nil || !found {
		return BatchInfo{}, fmt.Errorf("batch close time not found or invalid: %w", err)
	}

	// ID and processor are optional.
	info := BatchInfo{
		Epoch:    epoch,
		Reason:   CloseReason(reason),
		OpenedAt: opened,
		ClosedAt: closed,
	}
	if id, found, err := result.GetStringMetadata(MetadataBatchID); found && err == nil {
		info.ID = id
	}
	if name, found, err := result.GetStringMetadata(MetadataProcessor); found && err == nil {
		info.Processor = name
	}

	return info, nil
}
