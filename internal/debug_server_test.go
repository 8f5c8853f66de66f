package internal

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"snappy-chat/repositories"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func TestInspectHandler_Filters_By_Recipient(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	store, err := repositories.NewMessageRepository(db, slog.Default())
	req.NoError(err)
	t.Cleanup(func() {
		_ = store.Close()
		_ = db.Close()
	})
	_, err = store.Append(ctx, "alice", "bob", "for bob", false)
	req.NoError(err)
	_, err = store.Append(ctx, "bob", "alice", "for alice", true)
	req.NoError(err)

	// Given the inspector is asked for bob's messages with a different casing
	handler := NewInspectHandler(db, func() map[string]any { return map[string]any{"sessions": 3} })
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inspect?to=BOB", nil))

	// Then only his row and the stats are rendered
	req.Equal(http.StatusOK, rec.Code)
	body := rec.Body.String()
	req.Contains(body, "for bob")
	req.NotContains(body, "for alice")
	req.Contains(body, "sessions: 3")
}
