package streambind

import (
	"sync"

	"golang.org/x/exp/slices"
)

// SubscriptionSet is the ordered collection of subscriptions registered for a
// single owner. Each set has its own lock, so sets of different owners never
// contend with each other.
type SubscriptionSet struct {
	mu   sync.Mutex
	subs []*Subscription
}

// Len returns the number of subscriptions in the set.
func (s *SubscriptionSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.subs)
}

// Slice returns a snapshot of the set's subscriptions, in registration order.
func (s *SubscriptionSet) Slice() []*Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.subs)
}

// Contains returns true if sub is in the set.
// Subscriptions are compared by identity, not by value.
func (s *SubscriptionSet) Contains(sub *Subscription) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Contains(s.subs, sub)
}

// add appends sub to the set.
func (s *SubscriptionSet) add(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subs = append(s.subs, sub)
}

// remove removes the first subscription identical to sub from the set.
// Removing a subscription that is not in the set is a no-op.
func (s *SubscriptionSet) remove(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.Index(s.subs, sub)
	if idx < 0 {
		return
	}

	s.subs = slices.Delete(s.subs, idx, idx+1)
}

// cancelAll cancels every subscription in the set and empties it.
// Called when the set's owner is reclaimed or dropped: the set is the last
// holder of subscriptions the caller did not retain, so dropping it must
// release their stream resources.
func (s *SubscriptionSet) cancelAll() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
}
