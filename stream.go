package streambind

import (
	"context"
	"errors"
)

// ProducerFunc returns a channel of elements for a stream.
//
// The stream completes successfully when the channel is closed. A failure
// completion is signaled by calling cancel with the failure before closing
// the channel; consumers recover the failure via context.Cause.
type ProducerFunc[T any] func(ctx context.Context, cancel context.CancelCauseFunc) <-chan T

// ConsumerFunc consumes element elem.
// The index is the 0-based index of elem, in the order produced by the upstream producer.
type ConsumerFunc[T any] func(ctx context.Context, cancel context.CancelCauseFunc, elem T, index uint64)

// CompletionFunc receives a stream's terminal signal: nil for successful
// completion, the failure cause otherwise.
type CompletionFunc func(err error)

// ErrShortCircuit is a generic error used to short-circuit a stream by canceling its context.
// It is reported as successful completion, not as a failure.
var ErrShortCircuit = errors.New("short circuit")

// Produce returns a producer that produces the elements of the given slices, in order.
func Produce[T any](slices ...[]T) ProducerFunc[T] {
	return func(ctx context.Context, _ context.CancelCauseFunc) <-chan T {
		outCh := make(chan T)

		go func() {
			defer close(outCh)

			for _, slice := range slices {
				for _, elem := range slice {
					select {
					case outCh <- elem:

					case <-ctx.Done():
						return
					}
				}
			}
		}()

		return outCh
	}
}

// ProduceChannel returns a producer that produces the elements received through the given channels, in order.
// Canceling the stream releases the producer even while it is blocked waiting
// for an element, so a channel that never delivers does not pin a canceled
// subscription.
func ProduceChannel[T any](channels ...<-chan T) ProducerFunc[T] {
	return func(ctx context.Context, _ context.CancelCauseFunc) <-chan T {
		outCh := make(chan T)

		go func() {
			defer close(outCh)

			for _, ch := range channels {
				for {
					var (
						elem T
						ok   bool
					)

					select {
					case elem, ok = <-ch:

					case <-ctx.Done():
						return
					}

					if !ok {
						break
					}

					select {
					case outCh <- elem:

					case <-ctx.Done():
						return
					}
				}
			}
		}()

		return outCh
	}
}

// Fail returns a producer that produces the elements of the given slice, in order,
// then fails the stream with err instead of completing.
// With an empty slice, it fails immediately.
func Fail[T any](err error, elems ...T) ProducerFunc[T] {
	return func(ctx context.Context, cancel context.CancelCauseFunc) <-chan T {
		outCh := make(chan T)

		go func() {
			defer close(outCh)

			for _, elem := range elems {
				select {
				case outCh <- elem:

				case <-ctx.Done():
					return
				}
			}

			cancel(err)
		}()

		return outCh
	}
}

// Each calls each for each element produced by prod, then returns the stream's
// terminal signal: nil for successful completion, the failure cause otherwise.
func Each[T any](ctx context.Context, prod ProducerFunc[T], each ConsumerFunc[T]) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	ch := prod(ctx, cancel)

	index := uint64(0)

	for elem := range ch {
		each(ctx, cancel, elem, index)

		if contextDone(ctx) {
			break
		}

		index++
	}

	return terminalCause(ctx)
}
