package runtime

import (
	"sync"

	"voicenet/contract"
	"voicenet/domain"
)

type Set map[string]struct{}

// Registry tracks which UI observers listen to which nets. Observers own a
// single sink even when they monitor several nets.
type Registry struct {
	mu         sync.RWMutex
	Sinks      map[string]contract.EventSink // map observer -> Sink
	NetMembers map[domain.NetID]Set          // map net to observers
}

func NewRegistry() *Registry {
	return &Registry{
		Sinks:      make(map[string]contract.EventSink),
		NetMembers: make(map[domain.NetID]Set),
	}
}

// GetSinksForNet retrieves all active observer sinks for a specific net.
// It performs a two-step lookup:
// 1. Identifies observer IDs associated with the net via NetMembers.
// 2. Resolves those IDs into actual EventSinks using the Sinks map.
//
// This decoupled approach ensures that even if an observer watches several
// nets, its sink is managed in a single place.
// Returns nil if the net is unknown or has no observers.
func (r *Registry) GetSinksForNet(netID domain.NetID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.NetMembers[netID]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for observerID := range members {
		if sink, exists := r.Sinks[observerID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// Subscribe registers an observer's sink and assigns it to a specific net.
// If the net does not yet exist in the registry, it is initialized on the fly.
func (r *Registry) Subscribe(observerID string, netID domain.NetID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Sinks[observerID] = sink

	if _, ok := r.NetMembers[netID]; !ok {
		r.NetMembers[netID] = make(Set)
	}
	r.NetMembers[netID][observerID] = struct{}{}
}

// Unsubscribe removes an observer from the registry and its net.
// It cleans up the sink and ensures no empty sets are left in the net map
// to prevent memory leaks over time.
func (r *Registry) Unsubscribe(observerID string, netID domain.NetID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.Sinks, observerID)

	if members, ok := r.NetMembers[netID]; ok {
		delete(members, observerID)

		// If no one is left watching the net, remove the entry entirely
		if len(members) == 0 {
			delete(r.NetMembers, netID)
		}
	}
}
