// Package registry holds the set of known backends and their
// connection/liveness state: add, remove, the active-backend snapshot,
// and the inactive/active flip the probe scheduler drives.
package registry

import (
	"context"
	"sync"

	"github.com/prequal-project/prequal/internal/rpcclient"
	"github.com/prequal-project/prequal/internal/rpcerr"
	"github.com/prequal-project/prequal/internal/telemetry"
)

// Entry is one backend's connection and liveness state. Identity is by
// Address; callers must not mutate a returned Entry's Channel.
type Entry struct {
	Address string
	Channel *rpcclient.Channel
	active  bool
}

// Active reports the entry's liveness flag.
func (e Entry) Active() bool { return e.active }

// Registry is a set of backends keyed by address, safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Add dials address and, on success, inserts an active Entry for it. On
// dial failure it returns UnableToEstablishConnectivity and the backend
// is not inserted.
func (r *Registry) Add(ctx context.Context, address string) error {
	ch, err := rpcclient.Dial(ctx, address)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.entries[address] = &Entry{Address: address, Channel: ch, active: true}
	n := len(r.activeLocked())
	r.mu.Unlock()

	telemetry.ActiveBackends.Set(float64(n))
	return nil
}

// Remove deletes the entry for address if present. A missing address is
// a silent no-op; use RemoveStrict for callers that require
// acknowledgment of absence.
func (r *Registry) Remove(address string) {
	r.mu.Lock()
	delete(r.entries, address)
	n := len(r.activeLocked())
	r.mu.Unlock()
	telemetry.ActiveBackends.Set(float64(n))
}

// RemoveStrict deletes the entry for address, returning
// RouteNotFoundToDelete if it was not present.
func (r *Registry) RemoveStrict(address string) error {
	r.mu.Lock()
	_, ok := r.entries[address]
	if ok {
		delete(r.entries, address)
	}
	n := len(r.activeLocked())
	r.mu.Unlock()
	if !ok {
		return rpcerr.RouteNotFoundToDelete(address)
	}
	telemetry.ActiveBackends.Set(float64(n))
	return nil
}

// ActiveBackends returns a point-in-time snapshot of entries currently
// marked active.
func (r *Registry) ActiveBackends() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeLocked()
}

func (r *Registry) activeLocked() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if e.active {
			out = append(out, *e)
		}
	}
	return out
}

// AllBackends returns a point-in-time snapshot of every entry, active or
// not, for the scheduler's reconnect pass.
func (r *Registry) AllBackends() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e)
	}
	return out
}

// MarkInactive flips address's liveness flag to false. A missing address
// is a no-op.
func (r *Registry) MarkInactive(address string) {
	r.mu.Lock()
	if e, ok := r.entries[address]; ok {
		e.active = false
	}
	n := len(r.activeLocked())
	r.mu.Unlock()
	telemetry.ActiveBackends.Set(float64(n))
}

// MarkActive flips address's liveness flag to true, optionally replacing
// its Channel with a freshly dialed one (used after a successful
// reconnect). A missing address is a no-op.
func (r *Registry) MarkActive(address string, ch *rpcclient.Channel) {
	r.mu.Lock()
	if e, ok := r.entries[address]; ok {
		e.active = true
		if ch != nil {
			e.Channel = ch
		}
	}
	n := len(r.activeLocked())
	r.mu.Unlock()
	telemetry.ActiveBackends.Set(float64(n))
}
