package debouncez

import (
	"context"
	"sync"
)

// Source is a push-style producer for a processor's input channel.
// Submit, Fail and Complete may be called from any goroutine. Complete
// releases any Submit still waiting for a reader.
type Source[T any] struct {
	ch      chan Result[T]
	done    chan struct{}
	senders sync.WaitGroup
	mu      sync.Mutex
	name    string
	closed  bool
}

// NewSource creates a Source whose channel holds up to buffer items.
// A BufferedDebounce reads its input continuously, so an unbuffered
// Source is the usual choice.
func NewSource[T any](buffer int) *Source[T] {
	return &Source[T]{
		ch:   make(chan Result[T], buffer),
		done: make(chan struct{}),
		name: "source",
	}
}

// WithName sets the name recorded on errors raised through Fail.
func (s *Source[T]) WithName(name string) *Source[T] {
	s.name = name
	return s
}

// Out returns the channel to hand to Process.
func (s *Source[T]) Out() <-chan Result[T] {
	return s.ch
}

// Submit pushes one item. It returns ErrSourceClosed after Complete or Fail,
// or ctx.Err() if ctx ends before the item is taken.
func (s *Source[T]) Submit(ctx context.Context, item T) error {
	return s.send(ctx, NewSuccess(item))
}

// Fail pushes err as a terminal upstream error and closes the source.
// Calling it on a closed source returns ErrSourceClosed.
func (s *Source[T]) Fail(ctx context.Context, err error) error {
	var zero T
	if sendErr := s.send(ctx, NewError(zero, err, s.name)); sendErr != nil {
		return sendErr
	}
	s.Complete()
	return nil
}

// Complete closes the source. Pending sends give up with ErrSourceClosed
// before the channel is closed. It is safe to call more than once.
func (s *Source[T]) Complete() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	s.mu.Unlock()

	s.senders.Wait()
	close(s.ch)
}

func (s *Source[T]) send(ctx context.Context, result Result[T]) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSourceClosed
	}
	s.senders.Add(1)
	s.mu.Unlock()
	defer s.senders.Done()

	select {
	case s.ch <- result:
		return nil
	case <-s.done:
		return ErrSourceClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}
