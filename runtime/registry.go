package runtime

import (
	"context"
	"log/slog"
	"snappy-chat/contract"
	"snappy-chat/domain"
	"sort"
	"sync"

	"github.com/samber/lo"
)

type session struct {
	identity domain.Identity
	conn     contract.Connection
	order    uint64
}

// Registry holds at most one live connection per normalized identity.
// The lock only guards the map. Notifying and closing an evicted
// connection happens after the lock is released.
type Registry struct {
	mu       sync.RWMutex
	log      *slog.Logger
	sessions map[string]session // map normalized identity -> session
	order    uint64
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:      log,
		sessions: make(map[string]session),
	}
}

// Register binds identity to conn and reports whether a previous
// connection for the same principal was evicted.
// The swap is atomic, so two sessions for one identity are never visible.
// The evicted connection then receives a force_logout frame and is closed
// with the replaced status.
func (r *Registry) Register(ctx context.Context, identity string, conn contract.Connection) bool {
	id := domain.NewIdentity(identity)

	r.mu.Lock()
	previous, exists := r.sessions[id.Key]
	r.order++
	r.sessions[id.Key] = session{identity: id, conn: conn, order: r.order}
	r.mu.Unlock()

	if !exists || previous.conn == conn {
		return false
	}

	r.log.Info("Evicting previous session", "identity", identity, "connection", previous.conn.ID())
	if err := previous.conn.Send(ctx, domain.NewForceLogoutFrame()); err != nil {
		r.log.Debug("Force logout notice not delivered", "identity", identity, "error", err)
	}
	if err := previous.conn.Close(domain.CloseReplaced, domain.ReasonReplaced); err != nil {
		r.log.Debug("Evicted connection did not close cleanly", "identity", identity, "error", err)
	}
	return true
}

// Unregister removes the session only if it still holds conn.
// A late disconnect from an evicted connection is a no-op.
func (r *Registry) Unregister(identity string, conn contract.Connection) bool {
	key := domain.Normalize(identity)

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[key]
	if !ok || current.conn != conn {
		return false
	}
	delete(r.sessions, key)
	return true
}

func (r *Registry) Lookup(identity string) (contract.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	current, ok := r.sessions[domain.Normalize(identity)]
	if !ok {
		return nil, false
	}
	return current.conn, true
}

// Snapshot returns the display identities online, in registration order.
func (r *Registry) Snapshot() []string {
	return lo.Map(r.Sessions(), func(s contract.Session, _ int) string {
		return s.Identity
	})
}

// Sessions returns a consistent copy of every session, in registration order.
func (r *Registry) Sessions() []contract.Session {
	r.mu.RLock()
	ordered := make([]session, 0, len(r.sessions))
	for _, s := range r.sessions {
		ordered = append(ordered, s)
	}
	r.mu.RUnlock()

	sort.Slice(ordered, func(i, j int) bool { return ordered[i].order < ordered[j].order })
	return lo.Map(ordered, func(s session, _ int) contract.Session {
		return contract.Session{Identity: s.identity.String(), Conn: s.conn}
	})
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll empties the registry and closes every connection it held
// with the going-away status.
func (r *Registry) CloseAll(ctx context.Context) {
	r.mu.Lock()
	closing := r.sessions
	r.sessions = make(map[string]session)
	r.mu.Unlock()

	for _, s := range closing {
		if ctx.Err() != nil {
			r.log.Warn("Shutdown deadline reached, connections left open", "remaining", len(closing))
			return
		}
		if err := s.conn.Close(domain.CloseGoingAway, domain.ReasonShutdown); err != nil {
			r.log.Debug("Connection did not close cleanly", "identity", s.identity.String(), "error", err)
		}
	}
}
