package tcp

import (
	"sort"
	"sync"

	"github.com/rocketscienceinc/countnet-backend/internal/apperror"
)

// Registry is the set of connected sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

func (that *Registry) Register(session *Session) error {
	if session.Identity == "" {
		return apperror.ErrNoIdentity
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	that.sessions[session.ID] = session

	return nil
}

func (that *Registry) Unregister(session *Session) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.sessions, session.ID)
}

// Identities returns the distinct connected identities, sorted.
func (that *Registry) Identities() []string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	seen := make(map[string]struct{}, len(that.sessions))
	identities := make([]string, 0, len(that.sessions))

	for _, session := range that.sessions {
		if _, ok := seen[session.Identity]; ok {
			continue
		}

		seen[session.Identity] = struct{}{}
		identities = append(identities, session.Identity)
	}

	sort.Strings(identities)

	return identities
}

func (that *Registry) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.sessions)
}

// Broadcast queues lines on every registered session and returns how many accepted them.
// Sessions that cannot take the message are left to their own disconnect path.
func (that *Registry) Broadcast(lines ...string) int {
	that.mu.RLock()
	sessions := make([]*Session, 0, len(that.sessions))
	for _, session := range that.sessions {
		sessions = append(sessions, session)
	}
	that.mu.RUnlock()

	delivered := 0
	for _, session := range sessions {
		if session.Send(lines...) {
			delivered++
		}
	}

	return delivered
}

// CloseAll drops every connection, used on shutdown.
func (that *Registry) CloseAll() {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for _, session := range that.sessions {
		session.Close()
	}
}
