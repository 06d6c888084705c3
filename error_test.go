package debouncez

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewStreamError(t *testing.T) {
	item := "test-item"
	err := errors.New("test error")
	processorName := "test-processor"

	before := time.Now()
	streamErr := NewStreamError(item, err, processorName)
	after := time.Now()

	if streamErr.Item != item {
		t.Errorf("Expected Item to be %q, got %q", item, streamErr.Item)
	}

	if !errors.Is(streamErr.Err, err) {
		t.Errorf("Expected Err to be %v, got %v", err, streamErr.Err)
	}

	if streamErr.ProcessorName != processorName {
		t.Errorf("Expected ProcessorName to be %q, got %q", processorName, streamErr.ProcessorName)
	}

	if streamErr.Timestamp.Before(before) || streamErr.Timestamp.After(after) {
		t.Errorf("Expected Timestamp to be between %v and %v, got %v", before, after, streamErr.Timestamp)
	}
}

func TestStreamError_Error(t *testing.T) {
	streamErr := &StreamError[int]{
		Item:          42,
		Err:           errors.New("division by zero"),
		ProcessorName: "divider",
		Timestamp:     time.Date(2023, 12, 25, 10, 30, 0, 0, time.UTC),
	}

	expected := "StreamError[divider]: division by zero (item: 42, time: 2023-12-25T10:30:00Z)"
	if result := streamErr.Error(); result != expected {
		t.Errorf("Expected Error() to return %q, got %q", expected, result)
	}
}

func TestStreamError_UnwrapChain(t *testing.T) {
	cause := errors.New("connection reset")
	upstream := NewStreamError(0, cause, "stdin")

	// BufferedDebounce wraps the upstream error in a batch-typed StreamError.
	batchErr := &StreamError[[]int]{
		Err:           upstream,
		ProcessorName: "buffered-debounce",
		Timestamp:     time.Now(),
	}

	if !errors.Is(batchErr, cause) {
		t.Error("Expected root cause to be reachable through both StreamErrors")
	}

	var inner *StreamError[int]
	if !errors.As(batchErr, &inner) {
		t.Fatal("Expected upstream StreamError to be reachable with errors.As")
	}
	if inner.ProcessorName != "stdin" {
		t.Errorf("Expected upstream processor 'stdin', got %q", inner.ProcessorName)
	}
	if !strings.Contains(batchErr.Error(), "connection reset") {
		t.Errorf("Expected message to include root cause, got %q", batchErr.Error())
	}
}

func TestStreamError_UnwrapWithNilError(t *testing.T) {
	streamErr := &StreamError[string]{
		Item:          "test",
		ProcessorName: "test-processor",
		Timestamp:     time.Now(),
	}

	if unwrapped := streamErr.Unwrap(); unwrapped != nil {
		t.Errorf("Expected Unwrap() to return nil, got %v", unwrapped)
	}
}

func TestConfigError(t *testing.T) {
	err := error(&ConfigError{Field: "MaxBufferAge", Value: -time.Second})

	if !errors.Is(err, ErrInvalidConfig) {
		t.Error("Expected ConfigError to match ErrInvalidConfig")
	}
	if errors.Is(err, ErrSourceClosed) {
		t.Error("Expected ConfigError not to match unrelated sentinels")
	}

	msg := err.Error()
	if !strings.Contains(msg, "MaxBufferAge") || !strings.Contains(msg, "-1s") {
		t.Errorf("Expected message to name the field and value, got %q", msg)
	}
}

func TestConsumerError(t *testing.T) {
	cause := errors.New("disk full")
	err := error(&ConsumerError{Err: cause, Epoch: 7, Size: 3})

	if !errors.Is(err, cause) {
		t.Error("Expected ConsumerError to unwrap to the callback error")
	}

	expected := "consumer rejected batch #7 (3 items): disk full"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
}
