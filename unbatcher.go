package debouncez

import (
	"context"
)

// Unbatcher flattens a batch stream back into individual items.
// It's the inverse of BufferedDebounce: items come out in batch order, then
// in order within each batch. Error results pass through unchanged.
type Unbatcher[T any] struct {
	name string
}

// NewUnbatcher creates a processor that converts Result[[]T] channels to Result[T] channels.
//
// When to use:
//   - Continuing item-by-item processing after a batch stage
//   - Checking that a batching stage lost or reordered nothing
//
// Example:
//
//	batches := debounce.Process(ctx, events)
//	items := debouncez.NewUnbatcher[Event]().Process(ctx, batches)
func NewUnbatcher[T any]() *Unbatcher[T] {
	return &Unbatcher[T]{
		name: "unbatcher",
	}
}

func (u *Unbatcher[T]) Process(ctx context.Context, in <-chan Result[[]T]) <-chan Result[T] {
	out := make(chan Result[T])

	go func() {
		defer close(out)

		for batch := range in {
			if batch.IsError() {
				se := batch.Error()
				var zero T
				result := Result[T]{err: &StreamError[T]{
					Item:          zero,
					Err:           se.Err,
					ProcessorName: u.name,
					Timestamp:     se.Timestamp,
				}}
				select {
				case out <- result:
				case <-ctx.Done():
					return
				}
				continue
			}

			for _, item := range batch.Value() {
				select {
				case out <- NewSuccess(item):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

func (u *Unbatcher[T]) Name() string {
	return u.name
}
