// Package streambind ties the lifetime of stream subscriptions to the lifetime
// of an arbitrary owner object, without keeping the owner alive.
//
// Streams are channel-based producers: a ProducerFunc returns a channel of
// elements, closes it on completion, and reports a failure completion by
// canceling the stream's context with a cause. Receiving from the channel is
// demand; producers are lazy and produce a new element only after the previous
// one has been consumed.
//
// Subscribe consumes a producer on behalf of an owner and records the
// resulting Subscription in a weak-keyed Registry. The Registry does not keep
// the owner reachable: once the owner is reclaimed by the garbage collector,
// the owner's subscriptions are canceled and its entry disappears. Until then,
// the entry keeps otherwise-unreferenced subscriptions alive.
//
// ProduceFuture bridges a single-shot asynchronous computation into a
// producer, and AwaitFirst goes the other way, waiting for a stream's first
// element. RetryExponential wraps a producer with bounded retry-on-failure
// and doubling backoff, scheduled on a caller-supplied Scheduler so that
// backoff timing can be driven by virtual time in tests.
package streambind
