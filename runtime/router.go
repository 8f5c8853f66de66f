package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"snappy-chat/contract"
	"snappy-chat/domain"
	"snappy-chat/errors"
	"snappy-chat/repositories"

	"github.com/samber/lo"
)

// Router decides, per inbound message, between live delivery and the backlog.
// A message is always persisted, delivered is true when the recipient held
// a session at routing time.
type Router struct {
	log       *slog.Logger
	registry  contract.IRegistry
	store     repositories.IMessageRepository
	directory contract.Directory
}

func NewRouter(log *slog.Logger, registry contract.IRegistry, store repositories.IMessageRepository) *Router {
	return &Router{log: log, registry: registry, store: store}
}

// WithDirectory enables block checks. Without a directory every pair may talk.
func (r *Router) WithDirectory(directory contract.Directory) *Router {
	r.directory = directory
	return r
}

func (r *Router) Route(ctx context.Context, sender, recipient, content string) (domain.DeliveryOutcome, error) {
	// 1. Reject incomplete messages before any side effect
	if recipient == "" || content == "" {
		return domain.DeliveryOutcome{}, errors.ErrInvalidMessage
	}

	// 2. Honour blocks
	if r.directory != nil {
		allowed, err := r.directory.CanMessage(ctx, sender, recipient)
		if err != nil {
			return domain.DeliveryOutcome{}, fmt.Errorf("%w: %v", errors.ErrStorageFault, err)
		}
		if !allowed {
			return domain.DeliveryOutcome{}, errors.ErrBlocked
		}
	}

	// 3. Persist first, with the delivery status observed now
	conn, online := r.registry.Lookup(recipient)
	id, err := r.store.Append(ctx, sender, recipient, content, online)
	if err != nil {
		r.log.Error("Message not persisted", "sender", sender, "recipient", recipient, "error", err)
		return domain.DeliveryOutcome{}, fmt.Errorf("%w: %v", errors.ErrStorageFault, err)
	}
	outcome := domain.DeliveryOutcome{MessageID: id, Stored: true}
	if !online {
		return r.recheckOffline(ctx, recipient, outcome), nil
	}

	// 4. Best effort push, the row stays delivered even if it fails
	if err = conn.Send(ctx, domain.NewDeliveryFrame(sender, content)); err != nil {
		r.log.Warn("Live delivery failed", "recipient", recipient, "id", id, "error", err)
		return outcome, nil
	}
	outcome.DeliveredLive = true
	return outcome, nil
}

// recheckOffline covers a recipient who connected between the lookup and the
// append: its own replay may have run before the row existed. The drain is
// atomic, so whichever replay takes the row sends it exactly once.
func (r *Router) recheckOffline(ctx context.Context, recipient string, outcome domain.DeliveryOutcome) domain.DeliveryOutcome {
	conn, online := r.registry.Lookup(recipient)
	if !online {
		r.log.Debug("Recipient offline, message kept for catch-up", "recipient", recipient, "id", outcome.MessageID)
		return outcome
	}
	sent, err := replayBacklog(ctx, r.log, r.store, recipient, conn)
	if err != nil {
		r.log.Warn("Late catch-up incomplete", "recipient", recipient, "id", outcome.MessageID, "error", err)
	}
	outcome.DeliveredLive = lo.ContainsBy(sent, func(m domain.Message) bool { return m.ID == outcome.MessageID })
	return outcome
}
