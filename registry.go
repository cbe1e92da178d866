package streambind

import (
	"runtime"
	"sync"
	"weak"
)

// Registry associates an owner object's identity with the owner's
// SubscriptionSet, without keeping the owner reachable.
//
// Owners are keyed by reference identity: two distinct owner objects with
// equal contents occupy distinct entries, and the same owner always resolves
// to the same entry. Identity is minted as an opaque token backed by a weak
// pointer to the owner, so holding an entry never delays the owner's
// collection.
//
// When an owner is reclaimed by the garbage collector, its entry is removed
// and the subscriptions it held are canceled. The removal runs on a
// runtime-managed goroutine, never on a caller's stack, so it cannot deadlock
// against a caller inside the registry.
type Registry struct {
	mu     sync.Mutex
	nextID uint64

	// ids maps a boxed weak.Pointer to the owner's minted identity token.
	// A record persists for the owner's entire lifetime, even after its
	// entry is dropped, marking that the reclamation hook is installed:
	// re-registering the same owner reuses the token instead of installing
	// a second hook.
	ids map[any]uint64

	entries map[uint64]*SubscriptionSet
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		ids:     map[any]uint64{},
		entries: map[uint64]*SubscriptionSet{},
	}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide Registry used by Subscribe and
// SubscribeAutoRemove.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Len returns the number of owners with a live entry.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

// Keys returns a snapshot of the identity tokens that have a live entry.
func (r *Registry) Keys() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]uint64, 0, len(r.entries))
	for id := range r.entries {
		keys = append(keys, id)
	}

	return keys
}

// Values returns a snapshot of the registered subscription sets.
func (r *Registry) Values() []*SubscriptionSet {
	r.mu.Lock()
	defer r.mu.Unlock()

	values := make([]*SubscriptionSet, 0, len(r.entries))
	for _, set := range r.entries {
		values = append(values, set)
	}

	return values
}

// Owned returns the subscription set registered for owner, or nil if owner
// has no entry.
func Owned[O any](r *Registry, owner *O) *SubscriptionSet {
	key := any(weak.Make(owner))

	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.ids[key]
	if !ok {
		return nil
	}

	return r.entries[id]
}

// Drop removes owner's entry without waiting for reclamation, canceling the
// subscriptions the entry held. Dropping an owner with no entry is a no-op.
func Drop[O any](r *Registry, owner *O) {
	key := any(weak.Make(owner))

	r.mu.Lock()

	var set *SubscriptionSet

	if id, ok := r.ids[key]; ok {
		set = r.entries[id]
		delete(r.entries, id)
	}

	r.mu.Unlock()

	if set != nil {
		set.cancelAll()
	}

	runtime.KeepAlive(owner)
}

// register records sub under owner's identity and returns the entry it was
// added to. On first contact with owner, the identity is minted and the
// reclamation hook installed; the entry is created if owner has none.
//
// The addition happens under the table lock, so it cannot interleave with
// dropIfEmpty observing a moment where the entry exists but is empty.
func register[O any](r *Registry, owner *O, sub *Subscription) (*SubscriptionSet, uint64) {
	key := any(weak.Make(owner))

	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.ids[key]
	if !ok {
		r.nextID++
		id = r.nextID
		r.ids[key] = id

		runtime.AddCleanup(owner, func(k weak.Pointer[O]) {
			r.reclaim(any(k))
		}, weak.Make(owner))
	}

	set, ok := r.entries[id]
	if !ok {
		set = &SubscriptionSet{}
		r.entries[id] = set
	}

	set.add(sub)

	return set, id
}

// dropIfEmpty removes the entry for id if its set has become empty, so that
// auto-removing the last subscription also retires the owner's entry.
// The identity record stays: the reclamation hook remains installed and the
// identity is reused if the owner registers again.
func (r *Registry) dropIfEmpty(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.entries[id]
	if !ok {
		return
	}

	if set.Len() == 0 {
		delete(r.entries, id)
	}
}

// reclaim removes the entry and identity record of a reclaimed owner, then
// cancels the orphaned subscriptions. Reclaiming an unknown or already
// removed key is a no-op.
func (r *Registry) reclaim(key any) {
	r.mu.Lock()

	id, ok := r.ids[key]
	if !ok {
		r.mu.Unlock()
		return
	}

	delete(r.ids, key)

	set := r.entries[id]
	delete(r.entries, id)

	r.mu.Unlock()

	// outside the table lock: cancelAll takes the set's lock, and lock
	// ordering is always table before set
	if set != nil {
		set.cancelAll()
	}
}
