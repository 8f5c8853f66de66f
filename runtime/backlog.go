package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"snappy-chat/contract"
	"snappy-chat/domain"
	"snappy-chat/errors"
	"snappy-chat/repositories"
)

// replayBacklog drains identity's pending messages onto conn as catch-up
// frames and returns the ones that were sent.
// Drained rows are already marked delivered, so whatever the store handed
// back is sent even when it also reported an error. A failed send stops the
// replay, the remainder is lost.
func replayBacklog(ctx context.Context, log *slog.Logger, store repositories.IMessageRepository,
	identity string, conn contract.Connection) ([]domain.Message, error) {
	backlog, drainErr := store.DrainBacklog(ctx, identity)
	sent := 0
	for ; sent < len(backlog); sent++ {
		if err := conn.Send(ctx, domain.NewCatchupFrame(backlog[sent])); err != nil {
			log.Warn("Catch-up interrupted", "identity", identity, "sent", sent, "lost", len(backlog)-sent, "error", err)
			break
		}
	}
	if drainErr != nil {
		log.Error("Backlog not fully drained", "identity", identity, "sent", sent, "error", drainErr)
		return backlog[:sent], fmt.Errorf("%w: %v", errors.ErrStorageFault, drainErr)
	}
	return backlog[:sent], nil
}
