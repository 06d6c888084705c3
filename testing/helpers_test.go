package testing

import (
	"errors"
	"testing"
	"time"

	"github.com/zoobzio/debouncez"
)

func TestCollectResultsWithTimeout(t *testing.T) {
	t.Run("collects all results before channel close", func(t *testing.T) {
		ch := make(chan debouncez.Result[[]int], 2)
		ch <- debouncez.NewSuccess([]int{1})
		ch <- debouncez.NewError([]int(nil), errors.New("test error"), "test")
		close(ch)

		results := CollectResultsWithTimeout(t, ch, 100*time.Millisecond)
		if len(results) != 2 {
			t.Errorf("expected 2 results, got %d", len(results))
		}
	})

	t.Run("returns on timeout", func(t *testing.T) {
		ch := make(chan debouncez.Result[int])

		results := CollectResultsWithTimeout(t, ch, 50*time.Millisecond)
		if len(results) != 0 {
			t.Errorf("expected 0 results on timeout, got %d", len(results))
		}
	})
}

func TestSendValues(t *testing.T) {
	ch := SendValues(t, []string{"a", "b"})

	var got []string
	for r := range ch {
		got = append(got, r.Value())
	}
	AssertSameOrder(t, []string{"a", "b"}, got)
}

func TestConcat(t *testing.T) {
	got := Concat([][]int{{1, 2}, {}, {3}})
	AssertSameOrder(t, []int{1, 2, 3}, got)

	if Concat[int](nil) != nil {
		t.Error("expected nil for no batches")
	}
}

func TestAssertReasons(t *testing.T) {
	results := []debouncez.Result[[]int]{
		debouncez.AddBatchInfo(debouncez.NewSuccess([]int{1}), debouncez.BatchInfo{Reason: debouncez.CloseIdle}),
		debouncez.AddBatchInfo(debouncez.NewSuccess([]int{2}), debouncez.BatchInfo{Reason: debouncez.CloseFlush}),
	}
	AssertReasons(t, results, debouncez.CloseIdle, debouncez.CloseFlush)
}
