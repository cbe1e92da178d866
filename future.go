package streambind

import (
	"context"
	"errors"
)

// ErrNoValue is returned by AwaitFirst when the stream completes without
// producing an element.
var ErrNoValue = errors.New("stream completed without producing a value")

// FutureFunc is a single-shot asynchronous computation: it executes once and
// yields one value or one error.
type FutureFunc[T any] func(ctx context.Context) (T, error)

// ProduceFuture returns a producer that bridges op into a stream: the stream
// produces op's value followed by successful completion, or fails with op's
// error.
//
// op is executed once per materialization of the producer, on its own
// goroutine; materializing the producer again executes op again. Callers who
// need one shared execution across several consumers must multicast the
// stream themselves.
//
// If the stream is canceled before op completes, op's result is discarded and
// never reaches the consumer; op observes the cancellation through its
// context.
func ProduceFuture[T any](op FutureFunc[T]) ProducerFunc[T] {
	return func(ctx context.Context, cancel context.CancelCauseFunc) <-chan T {
		outCh := make(chan T)

		go func() {
			defer close(outCh)

			elem, err := op(ctx)
			if err != nil {
				cancel(err)
				return
			}

			// canceled while the computation was in flight: the result is
			// discarded, never delivered
			if contextDone(ctx) {
				return
			}

			select {
			case outCh <- elem:

			case <-ctx.Done():
			}
		}()

		return outCh
	}
}

// AwaitFirst consumes prod until its first element and returns it, canceling
// the rest of the stream. If the stream completes without an element, it
// returns ErrNoValue; if the stream fails before producing an element, it
// returns the failure.
func AwaitFirst[T any](ctx context.Context, prod ProducerFunc[T]) (T, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	ch := prod(ctx, cancel)

	elem, ok := <-ch
	if ok {
		cancel(ErrShortCircuit)
		return elem, nil
	}

	var zero T

	if err := terminalCause(ctx); err != nil {
		return zero, err
	}

	return zero, ErrNoValue
}
