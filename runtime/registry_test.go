package runtime

import (
	"context"
	"log/slog"
	"snappy-chat/domain"
	"sync"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Register_And_Lookup(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	conn := newFakeConn()

	// Given no session exists
	req.Zero(registry.Len())

	// When alice registers
	evicted := registry.Register(context.Background(), "Alice", conn)

	// Then she is reachable whatever the casing
	req.False(evicted)
	found, ok := registry.Lookup("aLiCe")
	req.True(ok)
	req.Same(conn, found)
	req.Equal([]string{"Alice"}, registry.Snapshot())
}

func TestRegistry_Register_Evicts_Previous_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug))
	first := newFakeConn()
	second := newFakeConn()

	// Given alice is connected
	registry.Register(context.Background(), "alice", first)

	// When she connects again with another casing
	evicted := registry.Register(context.Background(), "ALICE", second)

	// Then the first connection is told and closed with the replaced status
	req.True(evicted)
	req.Equal([]any{domain.NewForceLogoutFrame()}, first.Frames())
	closed, code, reason := first.ClosedWith()
	req.True(closed)
	req.Equal(domain.CloseReplaced, code)
	req.Equal(domain.ReasonReplaced, reason)

	// And only the new session is visible, with the latest casing
	found, ok := registry.Lookup("alice")
	req.True(ok)
	req.Same(second, found)
	req.Equal(1, registry.Len())
	req.Equal([]string{"ALICE"}, registry.Snapshot())
}

func TestRegistry_Register_Same_Connection_Twice(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	conn := newFakeConn()

	registry.Register(context.Background(), "alice", conn)
	evicted := registry.Register(context.Background(), "alice", conn)

	req.False(evicted)
	closed, _, _ := conn.ClosedWith()
	req.False(closed)
}

func TestRegistry_Unregister_Ignores_Stale_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	stale := newFakeConn()
	current := newFakeConn()

	// Given alice was replaced
	registry.Register(context.Background(), "alice", stale)
	registry.Register(context.Background(), "alice", current)

	// When the evicted connection reports its disconnect
	removed := registry.Unregister("alice", stale)

	// Then the live session survives
	req.False(removed)
	found, ok := registry.Lookup("alice")
	req.True(ok)
	req.Same(current, found)

	// And the current connection can still unregister
	req.True(registry.Unregister("Alice", current))
	_, ok = registry.Lookup("alice")
	req.False(ok)
	req.False(registry.Unregister("alice", current))
}

func TestRegistry_Snapshot_Follows_Registration_Order(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	ctx := context.Background()

	registry.Register(ctx, "carol", newFakeConn())
	registry.Register(ctx, "alice", newFakeConn())
	registry.Register(ctx, "bob", newFakeConn())
	registry.Register(ctx, "Carol", newFakeConn())

	req.Equal([]string{"alice", "bob", "Carol"}, registry.Snapshot())
	sessions := registry.Sessions()
	req.Len(sessions, 3)
	req.Equal("Carol", sessions[2].Identity)
}

func TestRegistry_Concurrent_Registrations_Keep_One_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())

	const connections = 32
	conns := make([]*fakeConn, connections)
	var wg sync.WaitGroup
	for i := range conns {
		conns[i] = newFakeConn()
		wg.Add(1)
		go func(c *fakeConn) {
			defer wg.Done()
			registry.Register(context.Background(), "alice", c)
		}(conns[i])
	}
	wg.Wait()

	// Exactly one connection survives, every other one was evicted once
	req.Equal(1, registry.Len())
	survivor, ok := registry.Lookup("alice")
	req.True(ok)
	evicted := 0
	for _, c := range conns {
		closed, code, _ := c.ClosedWith()
		if c == survivor {
			req.False(closed)
			continue
		}
		req.True(closed)
		req.Equal(domain.CloseReplaced, code)
		evicted++
	}
	req.Equal(connections-1, evicted)
}

func TestRegistry_Close_All(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	alice := newFakeConn()
	bob := newFakeConn()
	registry.Register(context.Background(), "alice", alice)
	registry.Register(context.Background(), "bob", bob)

	registry.CloseAll(context.Background())

	req.Zero(registry.Len())
	for _, c := range []*fakeConn{alice, bob} {
		closed, code, reason := c.ClosedWith()
		req.True(closed)
		req.Equal(domain.CloseGoingAway, code)
		req.Equal(domain.ReasonShutdown, reason)
	}
}
