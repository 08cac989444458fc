// Package netmon reports device connectivity to the sync engine.
//
// The engine is a pure consumer of the [Monitor] contract: it reacts to
// transitions but never controls connectivity. Hosts with no usable
// connectivity API plug in [NewStatic], which always reports online and
// never fires a transition.
package netmon

import "sync"

//go:generate mockgen -source=netmon.go -destination=../mock/netmon_mock.go -package=mock

// Monitor reports current reachability and emits transition events.
type Monitor interface {
	// Online returns the current reachability.
	Online() bool

	// Subscribe registers a listener invoked on every online/offline
	// transition and returns an unsubscribe function. Listeners are isolated
	// from each other: a panicking listener does not stop propagation.
	Subscribe(fn func(online bool)) (unsubscribe func())
}

// Static is the no-op Monitor: a fixed state and no transitions ever.
type Static struct {
	online bool
}

// NewStatic returns a Monitor frozen in the given state. NewStatic(true) is
// the disabled implementation used when the platform provides no
// connectivity API.
func NewStatic(online bool) *Static {
	return &Static{online: online}
}

func (s *Static) Online() bool { return s.online }

func (s *Static) Subscribe(func(online bool)) func() {
	return func() {}
}

// subscriberSet is the shared observer registry used by real monitors.
// Every callback invocation is wrapped in its own recover so one failing
// subscriber cannot break notification of the others.
type subscriberSet struct {
	mu     sync.Mutex
	nextID int64
	subs   map[int64]func(online bool)
}

func newSubscriberSet() *subscriberSet {
	return &subscriberSet{subs: make(map[int64]func(online bool))}
}

func (s *subscriberSet) add(fn func(online bool)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *subscriberSet) notify(online bool) {
	s.mu.Lock()
	fns := make([]func(online bool), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		invokeIsolated(fn, online)
	}
}

func invokeIsolated(fn func(online bool), online bool) {
	defer func() {
		_ = recover()
	}()
	fn(online)
}
