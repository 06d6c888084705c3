package integration

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/zoobzio/debouncez"
	helpers "github.com/zoobzio/debouncez/testing"
)

// TestBufferedDebounce_PreservesEveryItem drives the operator with random
// gaps on the real clock. Whatever the timing, the concatenated batches must
// equal the input.
func TestBufferedDebounce_PreservesEveryItem(t *testing.T) {
	if testing.Short() {
		t.Skip("real-clock test")
	}

	seed := time.Now().UnixNano()
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // test randomness
	t.Logf("seed %d", seed)

	for run := 0; run < 5; run++ {
		debounce := time.Duration(1+rng.Intn(5)) * time.Millisecond
		maxAge := time.Duration(1+rng.Intn(10)) * time.Millisecond

		proc, err := debouncez.NewBufferedDebounce[int](debounce, maxAge, debouncez.RealClock)
		if err != nil {
			t.Fatal(err)
		}

		ctx := context.Background()
		in := make(chan debouncez.Result[int])
		out := proc.Process(ctx, in)

		want := make([]int, 200)
		for i := range want {
			want[i] = i
		}
		go func() {
			for i := range want {
				in <- debouncez.NewSuccess(i)
				if rng.Intn(4) == 0 {
					time.Sleep(time.Duration(rng.Intn(3000)) * time.Microsecond)
				}
			}
			close(in)
		}()

		results := helpers.CollectResultsWithTimeout(t, out, 10*time.Second)
		helpers.AssertReasons(t, results, debouncez.CloseIdle, debouncez.CloseMaxAge, debouncez.CloseFlush)

		// Empty batches are emitted, so every epoch shows up exactly once.
		for i, r := range results {
			info, err := debouncez.GetBatchInfo(r)
			if err == nil && info.Epoch != uint64(i) {
				t.Errorf("run %d: expected epoch %d at position %d, got %d", run, i, i, info.Epoch)
				break
			}
		}

		items := debouncez.NewUnbatcher[int]().Process(ctx, replay(results))
		var got []int
		for r := range items {
			got = append(got, r.Value())
		}
		helpers.AssertSameOrder(t, want, got)
	}
}

// replay turns collected results back into a channel.
func replay[T any](results []debouncez.Result[T]) <-chan debouncez.Result[T] {
	ch := make(chan debouncez.Result[T], len(results))
	for _, r := range results {
		ch <- r
	}
	close(ch)
	return ch
}
