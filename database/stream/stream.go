// Package stream turns blocking "next value" sources such as Mongo change
// streams or Firestore snapshot iterators into cancellable subscriptions.
package stream

import (
	"context"
	"errors"
	"sync"
)

// ErrDone ends a subscription without delivering an error to the consumer.
var ErrDone = errors.New("stream: done")

// Update is one element of a subscription: either a value or the error that ended it.
type Update[T any] struct {
	Value *T
	Err   error
}

// Subscription is a push stream of updates. The channel is closed after an
// error is delivered or after Close. Consumers must call Close when they
// disconnect.
type Subscription[T any] interface {
	Updates() <-chan Update[T]
	Close() error
}

// NextFunc blocks until the next value is available.
type NextFunc[T any] func(ctx context.Context) (*T, error)

type subscription[T any] struct {
	updates  chan Update[T]
	cancel   context.CancelFunc
	done     chan struct{}
	once     sync.Once
	closeErr error
}

// Start runs next in a goroutine until it fails or the subscription is closed.
// release is called exactly once when the goroutine exits.
func Start[T any](parent context.Context, next NextFunc[T], release func() error) Subscription[T] {
	ctx, cancel := context.WithCancel(parent)
	s := &subscription[T]{
		updates: make(chan Update[T]),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		defer close(s.updates)
		defer func() {
			if release != nil {
				s.closeErr = release()
			}
		}()

		for {
			v, err := next(ctx)
			if err != nil {
				if errors.Is(err, ErrDone) || ctx.Err() != nil {
					return
				}
				select {
				case s.updates <- Update[T]{Err: err}:
				case <-ctx.Done():
				}
				return
			}
			select {
			case s.updates <- Update[T]{Value: v}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return s
}

func (s *subscription[T]) Updates() <-chan Update[T] {
	return s.updates
}

// Close cancels the subscription and waits for the producer to release its resources.
func (s *subscription[T]) Close() error {
	s.once.Do(s.cancel)
	<-s.done
	return s.closeErr
}
