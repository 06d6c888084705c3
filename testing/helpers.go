// Package testing provides test utilities for debouncez.
package testing

import (
	"testing"
	"time"

	"github.com/zoobzio/debouncez"
)

// CollectResultsWithTimeout collects all results from a channel with a timeout.
func CollectResultsWithTimeout[T any](t *testing.T, ch <-chan debouncez.Result[T], timeout time.Duration) []debouncez.Result[T] {
	t.Helper()

	var results []debouncez.Result[T]
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case result, ok := <-ch:
			if !ok {
				return results
			}
			results = append(results, result)
		case <-timer.C:
			return results
		}
	}
}

// CollectBatches collects every successful batch from a BufferedDebounce output.
// Error results fail the test.
func CollectBatches[T any](t *testing.T, ch <-chan debouncez.Result[[]T], timeout time.Duration) [][]T {
	t.Helper()

	results := CollectResultsWithTimeout(t, ch, timeout)
	batches := make([][]T, 0, len(results))
	for i, r := range results {
		if r.IsError() {
			t.Errorf("result %d: expected batch, got error: %v", i, r.Error())
			continue
		}
		batches = append(batches, r.Value())
	}
	return batches
}

// SendValues sends a slice of values to a channel as successful Results.
// Closes the channel after all values are sent.
func SendValues[T any](t *testing.T, values []T) <-chan debouncez.Result[T] {
	t.Helper()

	ch := make(chan debouncez.Result[T], len(values))
	for _, v := range values {
		ch <- debouncez.NewSuccess(v)
	}
	close(ch)
	return ch
}

// Concat flattens batches in order.
func Concat[T any](batches [][]T) []T {
	var out []T
	for _, b := range batches {
		out = append(out, b...)
	}
	return out
}

// AssertSameOrder verifies got holds exactly the values of want, in order.
func AssertSameOrder[T comparable](t *testing.T, want, got []T) {
	t.Helper()

	if len(want) != len(got) {
		t.Errorf("expected %d values, got %d", len(want), len(got))
		return
	}
	for i := range want {
		if want[i] != got[i] {
			t.Errorf("value %d: expected %v, got %v", i, want[i], got[i])
			return
		}
	}
}

// AssertReasons verifies every result carries batch metadata with one of the
// allowed close reasons.
func AssertReasons[T any](t *testing.T, results []debouncez.Result[T], allowed ...debouncez.CloseReason) {
	t.Helper()

	for i, r := range results {
		info, err := debouncez.GetBatchInfo(r)
		if err != nil {
			t.Errorf("result %d: %v", i, err)
			continue
		}
		ok := false
		for _, reason := range allowed {
			if info.Reason == reason {
				ok = true
				break
			}
		}
		if !ok {
			t.Errorf("result %d: unexpected close reason %q", i, info.Reason)
		}
	}
}
