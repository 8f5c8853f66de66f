package runtime

import (
	"context"
	"log/slog"
	"snappy-chat/contract"
	"snappy-chat/domain"
	"snappy-chat/errors"
	"snappy-chat/repositories"
)

// Hub wires the registry, the router, the store and the presence
// broadcaster into the operations a transport needs.
type Hub struct {
	log      *slog.Logger
	registry contract.IRegistry
	store    repositories.IMessageRepository
	router   *Router
	presence *PresenceBroadcaster
}

func NewHub(log *slog.Logger, registry contract.IRegistry, store repositories.IMessageRepository,
	router *Router, presence *PresenceBroadcaster) *Hub {
	return &Hub{log: log, registry: registry, store: store, router: router, presence: presence}
}

// Connect activates an authenticated connection:
// register (evicting any previous session), replay the backlog, announce.
// It returns how many catch-up frames were sent. A backlog failure is
// returned but leaves the session registered and announced.
//
// The session is visible to the router before the replay runs, so a message
// routed during the replay is pushed live and may reach the client ahead of
// older catch-up frames. Catch-up frames carry their original timestamp and
// offline_catchup flag for clients that order by time.
func (h *Hub) Connect(ctx context.Context, identity string, conn contract.Connection) (int, error) {
	if evicted := h.registry.Register(ctx, identity, conn); evicted {
		h.log.Info("Session replaced", "identity", identity, "connection", conn.ID())
	}

	replayed, err := replayBacklog(ctx, h.log, h.store, identity, conn)
	h.presence.Announce(ctx)
	if err != nil {
		return len(replayed), err
	}
	h.log.Info("Client connected", "identity", identity, "connection", conn.ID(), "replayed", len(replayed))
	return len(replayed), nil
}

// Disconnect removes the session if conn still owns it, then re-announces.
// A stale connection leaves presence untouched.
func (h *Hub) Disconnect(ctx context.Context, identity string, conn contract.Connection) bool {
	if !h.registry.Unregister(identity, conn) {
		h.log.Debug("Disconnect ignored", "identity", identity, "connection", conn.ID(), "reason", errors.ErrStaleConnection)
		return false
	}
	h.log.Info("Client disconnected", "identity", identity, "connection", conn.ID())
	h.presence.Announce(ctx)
	return true
}

func (h *Hub) Route(ctx context.Context, sender, recipient, content string) (domain.DeliveryOutcome, error) {
	return h.router.Route(ctx, sender, recipient, content)
}

// Notify pushes a transient event if identity is online. Nothing is stored.
func (h *Hub) Notify(ctx context.Context, identity string, event any) bool {
	conn, ok := h.registry.Lookup(identity)
	if !ok {
		return false
	}
	if err := conn.Send(ctx, event); err != nil {
		h.log.Debug("Notification not delivered", "identity", identity, "error", err)
		return false
	}
	return true
}

func (h *Hub) OnlineUsers() []string {
	return h.registry.Snapshot()
}

func (h *Hub) History(ctx context.Context, identity string) ([]domain.Message, error) {
	return h.store.History(ctx, identity)
}

func (h *Hub) Sessions() int {
	return h.registry.Len()
}

// Shutdown closes every live connection with the going-away status.
func (h *Hub) Shutdown(ctx context.Context) {
	h.log.Info("Closing live sessions", "count", h.registry.Len())
	h.registry.CloseAll(ctx)
}
