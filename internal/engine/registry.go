package engine

import (
	"sync"

	"github.com/streamtip/streamtip-gobackend/internal/models"
)

// Registry is the single-slot holder of the transaction id currently
// being reconciled. The session supports exactly one in-flight tip;
// both feeders consult the slot to decide whether an event still
// matters, and the polling watcher checks it before every reschedule.
type Registry struct {
	mu     sync.Mutex
	active models.TransactionID
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Activate claims the slot for id. It fails while a different
// transaction holds the slot, so a second submission cannot silently
// overwrite the handle.
func (r *Registry) Activate(id models.TransactionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != "" && r.active != id {
		return false
	}
	r.active = id
	return true
}

// Release clears the slot, but only while id still owns it.
func (r *Registry) Release(id models.TransactionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == id {
		r.active = ""
	}
}

// Active returns the id currently being reconciled, if any.
func (r *Registry) Active() (models.TransactionID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active, r.active != ""
}

// Matches reports whether id is the transaction the session is still
// reconciling.
func (r *Registry) Matches(id models.TransactionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != "" && r.active == id
}
