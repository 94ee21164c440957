package bot

import "sync"

// busyRegistry is the per-user mutual-exclusion marker: at most one
// orchestrated request runs per user. Acquisition is an atomic
// check-and-set under one lock, so two near-simultaneous messages cannot
// both observe idle. In a multi-instance deployment this state would have
// to move into the shared account store.
type busyRegistry struct {
	mu   sync.Mutex
	busy map[string]bool
}

func newBusyRegistry() *busyRegistry {
	return &busyRegistry{busy: make(map[string]bool)}
}

// TryAcquire marks the user busy and reports whether it succeeded.
func (r *busyRegistry) TryAcquire(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.busy[userID] {
		return false
	}
	r.busy[userID] = true
	return true
}

func (r *busyRegistry) Release(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.busy, userID)
}

// importRegistry tracks users who tapped "Import Existing Account" and owe
// the bot a private key as their next message.
type importRegistry struct {
	mu      sync.Mutex
	pending map[string]bool
}

func newImportRegistry() *importRegistry {
	return &importRegistry{pending: make(map[string]bool)}
}

func (r *importRegistry) Arm(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[userID] = true
}

func (r *importRegistry) Armed(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending[userID]
}

func (r *importRegistry) Disarm(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, userID)
}
