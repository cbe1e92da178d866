package streambind

import (
	"context"
	"time"
)

// Scheduler is the logical time source used for backoff delays.
// Injecting a Scheduler decouples retry timing from the wall clock, so tests
// can drive backoff with virtual time.
type Scheduler interface {
	// After returns a channel that delivers a single tick once d has elapsed.
	After(d time.Duration) <-chan time.Time
}

type systemScheduler struct{}

func (systemScheduler) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// SystemScheduler returns the wall-clock Scheduler.
func SystemScheduler() Scheduler {
	return systemScheduler{}
}

// RetryExponential returns a producer that produces the same elements as
// prod, retrying prod up to retries times when it fails. Each attempt is an
// independent materialization of prod; elements of failed attempts are still
// produced, in order.
//
// After a failure, the current backoff delay elapses on sched, then onRetry
// (if non-nil) is called and the next attempt starts with twice the backoff.
// Backoff doubles on every retry, with no jitter and no cap. Once the retry
// budget is exhausted, the last failure is propagated unchanged, but only
// after one further backoff delay; onRetry is not called for it. With
// retries == 0, prod runs once and its failure is propagated after the
// initial backoff delay.
//
// A successful completion is forwarded immediately at any attempt. Canceling
// the stream aborts any pending delay.
func RetryExponential[T any](prod ProducerFunc[T], retries int, initialBackoff time.Duration, sched Scheduler, onRetry func()) ProducerFunc[T] {
	return func(ctx context.Context, cancel context.CancelCauseFunc) <-chan T {
		outCh := make(chan T)

		go func() {
			defer close(outCh)

			remaining := retries
			backoff := initialBackoff

			for {
				attemptCtx, cancelAttempt := context.WithCancelCause(ctx)

				ch := prod(attemptCtx, cancelAttempt)

				for elem := range ch {
					select {
					case outCh <- elem:

					case <-ctx.Done():
						cancelAttempt(nil)
						return
					}
				}

				err := terminalCause(attemptCtx)
				cancelAttempt(nil)

				if err == nil || contextDone(ctx) {
					return
				}

				// a retry and the final failure are both reported only
				// after the current backoff has elapsed
				select {
				case <-sched.After(backoff):

				case <-ctx.Done():
					return
				}

				if remaining == 0 {
					cancel(err)
					return
				}

				if onRetry != nil {
					onRetry()
				}

				remaining--
				backoff *= 2
			}
		}()

		return outCh
	}
}
