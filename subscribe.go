package streambind

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
)

// ErrCanceled is the terminal signal of a subscription that was canceled
// explicitly before its stream completed.
var ErrCanceled = errors.New("subscription canceled")

// Subscription is the cancellation handle for an active stream subscription.
// Canceling it stops element delivery and releases the stream's resources.
type Subscription struct {
	cancel   context.CancelCauseFunc
	canceled atomic.Bool

	err  error
	done chan struct{}
}

// Cancel cancels the subscription.
// Cancel is safe to call from any goroutine, any number of times; calls after
// the first have no effect. Canceling does not remove the subscription from
// its owner's set: bookkeeping is cleaned up by auto-removal or by the
// owner's reclamation, not by Cancel.
func (s *Subscription) Cancel() {
	if s.canceled.Swap(true) {
		return
	}

	s.cancel(ErrCanceled)
}

// Done returns a channel that is closed once the stream has terminated and
// the completion callback has returned.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err returns the subscription's terminal signal: nil while the stream is
// still running or if it completed successfully, the failure cause otherwise.
func (s *Subscription) Err() error {
	select {
	case <-s.done:
		return s.err

	default:
		return nil
	}
}

// Subscribe consumes prod on behalf of owner, calling each for every element
// in upstream order and complete exactly once with the terminal signal
// (nil for success, the failure cause otherwise, ErrCanceled after an
// explicit Cancel). nil callbacks are ignored.
//
// Consumption creates unbounded demand: elements are drained as fast as each
// returns, with no flow control of its own.
//
// The returned Subscription is recorded under owner's identity in the default
// Registry, which keeps it alive even if the caller discards it. It stays
// recorded after completion and after an explicit Cancel; it is removed when
// owner is reclaimed. Subscribing repeatedly for the same owner accumulates
// independent subscriptions.
func Subscribe[T any, O any](ctx context.Context, prod ProducerFunc[T], owner *O, each ConsumerFunc[T], complete CompletionFunc) *Subscription {
	return subscribe(ctx, defaultRegistry, prod, owner, false, each, complete)
}

// SubscribeAutoRemove is like Subscribe, but removes the Subscription from
// owner's set as soon as the stream terminates.
func SubscribeAutoRemove[T any, O any](ctx context.Context, prod ProducerFunc[T], owner *O, each ConsumerFunc[T], complete CompletionFunc) *Subscription {
	return subscribe(ctx, defaultRegistry, prod, owner, true, each, complete)
}

func subscribe[T any, O any](ctx context.Context, r *Registry, prod ProducerFunc[T], owner *O, autoRemove bool, each ConsumerFunc[T], complete CompletionFunc) *Subscription {
	if each == nil {
		each = func(context.Context, context.CancelCauseFunc, T, uint64) {}
	}

	ctx, cancel := context.WithCancelCause(ctx)

	sub := &Subscription{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	set, id := register(r, owner, sub)

	go func() {
		err := Each(ctx, prod, each)
		cancel(nil)

		if autoRemove {
			set.remove(sub)
			r.dropIfEmpty(id)
		}

		sub.err = err
		if complete != nil {
			complete(err)
		}

		close(sub.done)
	}()

	// owner must stay reachable until the subscription is recorded, so that
	// reclamation cannot race the registration and strand the new handle
	runtime.KeepAlive(owner)

	return sub
}
