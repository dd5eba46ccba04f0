package app

import (
	"sync"

	"codequiz-session-service/internal/domain"
)

// Registry enforces the one-active-session-per-user-per-category rule by
// holding at most one controller per (user, category) pair. Completed
// controllers are replaced on the next start; in-flight ones are reused so
// a reconnecting client reattaches instead of double-starting.
type Registry struct {
	mu          sync.RWMutex
	controllers map[string]*Controller
}

func NewRegistry() *Registry {
	return &Registry{controllers: make(map[string]*Controller)}
}

// GetOrCreate returns the live controller for the pair, or builds a fresh
// one when none exists or the previous attempt completed.
func (r *Registry) GetOrCreate(userID, categoryID string, build func() *Controller) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := r.key(userID, categoryID)
	if ctrl, ok := r.controllers[key]; ok && ctrl.State() != StateCompleted {
		return ctrl
	}
	ctrl := build()
	r.controllers[key] = ctrl
	return ctrl
}

// Create builds a fresh controller, refusing while a non-terminal one
// exists for the pair.
func (r *Registry) Create(userID, categoryID string, build func() *Controller) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := r.key(userID, categoryID)
	if ctrl, ok := r.controllers[key]; ok && ctrl.State() != StateCompleted {
		return nil, domain.ErrSessionActive
	}
	ctrl := build()
	r.controllers[key] = ctrl
	return ctrl, nil
}

// Get returns the controller for the pair, if any.
func (r *Registry) Get(userID, categoryID string) (*Controller, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctrl, ok := r.controllers[r.key(userID, categoryID)]
	return ctrl, ok
}

// Release drops the controller once it has completed.
func (r *Registry) Release(userID, categoryID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := r.key(userID, categoryID)
	if ctrl, ok := r.controllers[key]; ok && ctrl.State() == StateCompleted {
		delete(r.controllers, key)
	}
}

func (r *Registry) key(userID, categoryID string) string {
	return userID + "/" + categoryID
}
