// Package chat holds the process-wide room and presence state for the Parley
// server: display-name arbitration, room membership, and per-room message logs.
// The package is transport-agnostic; delivery of events to connections is the
// server package's job.
package chat

import (
	"fmt"
	"sync"

	"github.com/samber/lo"
)

// DefaultGuestPrefix is prepended to the integer suffix of generated guest
// names when no prefix is configured.
const DefaultGuestPrefix = "Guest "

// NameRegistry arbitrates exclusive ownership of display names. At most one
// active session holds a given name at any instant; a losing claim fails
// immediately with no side effect and no queueing.
type NameRegistry struct {
	mu     sync.Mutex
	names  map[string]struct{}
	prefix string
}

// NewNameRegistry creates an empty registry. Guest names are generated with
// the given prefix, falling back to DefaultGuestPrefix when empty.
func NewNameRegistry(guestPrefix string) *NameRegistry {
	if guestPrefix == "" {
		guestPrefix = DefaultGuestPrefix
	}
	return &NameRegistry{
		names:  make(map[string]struct{}),
		prefix: guestPrefix,
	}
}

// Claim reserves name for the caller. It fails when the name is empty or
// already held; a failed claim leaves the registry untouched.
func (r *NameRegistry) Claim(name string) bool {
	if name == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.claimLocked(name)
}

func (r *NameRegistry) claimLocked(name string) bool {
	if _, held := r.names[name]; held {
		return false
	}
	r.names[name] = struct{}{}
	return true
}

// Free releases name so it can be claimed again. Releasing an unheld name is
// a no-op.
func (r *NameRegistry) Free(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.names, name)
}

// GenerateGuestName claims and returns the first free guest name, counting up
// from 1 and skipping suffixes whose candidate is already held. The returned
// name is reserved before the method returns; there is no window between
// generation and claim.
func (r *NameRegistry) GenerateGuestName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s%d", r.prefix, n)
		if r.claimLocked(candidate) {
			return candidate
		}
	}
}

// ListActive returns an unordered snapshot of the currently claimed names.
func (r *NameRegistry) ListActive() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo.Keys(r.names)
}
