package worker

import (
	"sync"

	"feedpilot/internal/activity"
	"feedpilot/internal/remote"
	"feedpilot/internal/store"
)

// Registry owns the process-wide set of workers, exactly one per user id.
// It is constructed once at startup with its dependencies injected and
// passed to the gateway.
type Registry struct {
	store    store.Store
	activity *activity.Log
	client   remote.Client
	opts     Options

	mu      sync.Mutex
	workers map[string]*Worker
}

func NewRegistry(st store.Store, act *activity.Log, client remote.Client, opts Options) *Registry {
	return &Registry{
		store:    st,
		activity: act,
		client:   client,
		opts:     opts,
		workers:  make(map[string]*Worker),
	}
}

// GetOrCreate returns the user's worker, constructing it on first access.
// Entries are never evicted; a worker lives for the rest of the process.
func (r *Registry) GetOrCreate(userID string) *Worker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.workers[userID]; ok {
		return w
	}
	w := New(userID, r.store, r.activity, r.client, r.opts)
	r.workers[userID] = w
	return w
}

// Lookup returns the user's worker without creating one.
func (r *Registry) Lookup(userID string) (*Worker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workers[userID]
	return w, ok
}

// StopOnLogout stops the user's worker if one exists. The registry entry
// stays; only the loop is shut down.
func (r *Registry) StopOnLogout(userID string) {
	if w, ok := r.Lookup(userID); ok {
		w.Stop()
	}
}

// StopAll stops every worker; used during process shutdown.
func (r *Registry) StopAll() {
	r.mu.Lock()
	workers := make([]*Worker, 0, len(r.workers))
	for _, w := range r.workers {
		workers = append(workers, w)
	}
	r.mu.Unlock()

	for _, w := range workers {
		w.Stop()
	}
}
