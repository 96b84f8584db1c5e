package realtime

import (
	"slices"
	"sync"
	"sync/atomic"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

type Handler func(event Event)

// Subscription is one registered handler. It is the token passed to Off.
type Subscription struct {
	Id    string
	Event string

	handler Handler
	removed atomic.Bool
}

func (s *Subscription) deliver(event Event) {
	if s.removed.Load() {
		return
	}

	s.handler(event)
}

type registry struct {
	mu            sync.RWMutex
	subscriptions map[string][]*Subscription
}

func newRegistry() *registry {
	return &registry{
		subscriptions: make(map[string][]*Subscription),
	}
}

func (r *registry) add(event string, handler Handler) *Subscription {
	subscription := &Subscription{
		Id:      gonanoid.Must(),
		Event:   event,
		handler: handler,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.subscriptions[event] = append(r.subscriptions[event], subscription)

	return subscription
}

// remove drops the given subscriptions of event, or all of them when none
// are given, and returns how many were removed.
func (r *registry) remove(event string, subscriptions ...*Subscription) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.subscriptions[event]
	if len(subscriptions) == 0 {
		for _, subscription := range current {
			subscription.removed.Store(true)
		}
		delete(r.subscriptions, event)

		return len(current)
	}

	removed := 0
	kept := current[:0:0]
	for _, subscription := range current {
		if slices.Contains(subscriptions, subscription) {
			subscription.removed.Store(true)
			removed++

			continue
		}

		kept = append(kept, subscription)
	}

	if len(kept) == 0 {
		delete(r.subscriptions, event)
	} else {
		r.subscriptions[event] = kept
	}

	return removed
}

func (r *registry) snapshot(event string) []*Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.subscriptions[event])
}

func (r *registry) count(event string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.subscriptions[event])
}

func (r *registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for event, subscriptions := range r.subscriptions {
		for _, subscription := range subscriptions {
			subscription.removed.Store(true)
		}
		delete(r.subscriptions, event)
	}
}
