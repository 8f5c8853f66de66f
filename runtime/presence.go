package runtime

import (
	"context"
	"log/slog"
	"snappy-chat/contract"
	"snappy-chat/domain"
	"sync"
	"time"

	"github.com/samber/lo"
)

// PresenceBroadcaster pushes the online list to every live session.
//
// Fan-out is best effort: a failing or slow target is recorded and logged,
// it never prevents delivery to the others. Each push is bounded by the
// sink timeout. Announces are serialized, so the last frame a client
// receives always reflects the latest snapshot.
type PresenceBroadcaster struct {
	mu          sync.Mutex
	log         *slog.Logger
	registry    contract.IRegistry
	sinkTimeout time.Duration
}

func NewPresenceBroadcaster(log *slog.Logger, registry contract.IRegistry, sinkTimeout time.Duration) *PresenceBroadcaster {
	return &PresenceBroadcaster{log: log, registry: registry, sinkTimeout: sinkTimeout}
}

// Announce sends the current snapshot and returns one result per target,
// in snapshot order.
func (p *PresenceBroadcaster) Announce(ctx context.Context) []contract.DeliveryResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	sessions := p.registry.Sessions()
	frame := domain.NewPresenceFrame(lo.Map(sessions, func(s contract.Session, _ int) string {
		return s.Identity
	}))

	results := make([]contract.DeliveryResult, len(sessions))
	var wg sync.WaitGroup
	for i, s := range sessions {
		wg.Add(1)
		go func(i int, s contract.Session) {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(ctx, p.sinkTimeout)
			defer cancel()
			err := s.Conn.Send(sendCtx, frame)
			if err != nil {
				p.log.Warn("Presence update not delivered", "identity", s.Identity, "error", err)
			}
			results[i] = contract.DeliveryResult{Identity: s.Identity, Err: err}
		}(i, s)
	}
	wg.Wait()
	return results
}
