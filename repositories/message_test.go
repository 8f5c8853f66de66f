package repositories

import (
	"context"
	"log/slog"
	"snappy-chat/errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func newMessageRepository(t *testing.T) *MessageRepository {
	t.Helper()
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)
	t.Cleanup(func() {
		_ = repository.Close()
		_ = db.Close()
	})
	return repository
}

func Test_Append_Assigns_Increasing_Ids(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newMessageRepository(t)

	first, err := repository.Append(ctx, "alice", "bob", "hi", true)
	req.NoError(err)
	second, err := repository.Append(ctx, "alice", "bob", "again", false)
	req.NoError(err)

	req.Greater(second, first)
	stored, err := repository.Get(ctx, second)
	req.NoError(err)
	req.Equal("alice", stored.Sender)
	req.Equal("bob", stored.Recipient)
	req.Equal("again", stored.Content)
	req.False(stored.Delivered)
	req.False(stored.At.IsZero())
}

func Test_Get_Unknown_Message(t *testing.T) {
	req := require.New(t)
	repository := newMessageRepository(t)

	_, err := repository.Get(context.Background(), 42)

	req.ErrorIs(err, errors.ErrMessageNotFound)
}

func Test_Drain_Backlog_Returns_Oldest_First_Exactly_Once(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newMessageRepository(t)

	// Given two undelivered messages and one delivered live
	_, err := repository.Append(ctx, "alice", "bob", "m1", false)
	req.NoError(err)
	_, err = repository.Append(ctx, "carol", "bob", "live", true)
	req.NoError(err)
	_, err = repository.Append(ctx, "alice", "bob", "m2", false)
	req.NoError(err)

	// When the backlog is drained twice
	first, err := repository.DrainBacklog(ctx, "bob")
	req.NoError(err)
	second, err := repository.DrainBacklog(ctx, "bob")
	req.NoError(err)

	// Then only pending messages come back, in order, and only once
	req.Len(first, 2)
	req.Equal("m1", first[0].Content)
	req.Equal("m2", first[1].Content)
	req.True(first[0].Delivered)
	req.Empty(second)

	stored, err := repository.Get(ctx, first[1].ID)
	req.NoError(err)
	req.True(stored.Delivered)
}

func Test_Drain_Backlog_Is_Case_Insensitive(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newMessageRepository(t)

	_, err := repository.Append(ctx, "alice", "Bob", "hello", false)
	req.NoError(err)

	drained, err := repository.DrainBacklog(ctx, "BOB")

	req.NoError(err)
	req.Len(drained, 1)
	req.Equal("Bob", drained[0].Recipient)
}

func Test_Drain_Backlog_Does_Not_Leak_Across_Identities(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newMessageRepository(t)

	// "bob:x" would share a naive "bob:" prefix
	_, err := repository.Append(ctx, "alice", "bob:x", "not for bob", false)
	req.NoError(err)

	drained, err := repository.DrainBacklog(ctx, "bob")

	req.NoError(err)
	req.Empty(drained)
}

func Test_Drain_Backlog_Larger_Than_A_Batch(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newMessageRepository(t)

	total := drainBatchSize*2 + 3
	for i := 0; i < total; i++ {
		_, err := repository.Append(ctx, "alice", "bob", "m", false)
		req.NoError(err)
	}

	drained, err := repository.DrainBacklog(ctx, "bob")

	req.NoError(err)
	req.Len(drained, total)
	for i := 1; i < len(drained); i++ {
		req.Greater(drained[i].ID, drained[i-1].ID)
	}
}

func Test_Concurrent_Drains_Never_Duplicate(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newMessageRepository(t)

	const messages = 50
	for i := 0; i < messages; i++ {
		_, err := repository.Append(ctx, "alice", "bob", "m", false)
		req.NoError(err)
	}

	const drainers = 8
	var wg sync.WaitGroup
	results := make([][]uint64, drainers)
	errs := make([]error, drainers)
	for i := 0; i < drainers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			drained, err := repository.DrainBacklog(ctx, "bob")
			errs[i] = err
			for _, m := range drained {
				results[i] = append(results[i], m.ID)
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]struct{})
	for i := 0; i < drainers; i++ {
		req.NoError(errs[i])
		for _, id := range results[i] {
			_, duplicate := seen[id]
			req.False(duplicate, "message %d drained twice", id)
			seen[id] = struct{}{}
		}
	}
	req.Len(seen, messages)
}

func Test_History_Includes_Sent_And_Received(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newMessageRepository(t)

	_, err := repository.Append(ctx, "alice", "bob", "hi bob", true)
	req.NoError(err)
	_, err = repository.Append(ctx, "bob", "Alice", "hi alice", false)
	req.NoError(err)
	_, err = repository.Append(ctx, "carol", "dave", "unrelated", true)
	req.NoError(err)

	history, err := repository.History(ctx, "ALICE")

	req.NoError(err)
	req.Len(history, 2)
	req.Equal("hi bob", history[0].Content)
	req.Equal("hi alice", history[1].Content)
}

func Test_Read_Messages_Lists_Everything(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newMessageRepository(t)

	_, err := repository.Append(ctx, "alice", "bob", "one", true)
	req.NoError(err)
	_, err = repository.Append(ctx, "bob", "alice", "two", false)
	req.NoError(err)

	messages, err := ReadMessages(repository.db)

	req.NoError(err)
	req.Len(messages, 2)
	req.Equal("one", messages[0].Content)
}

// cancelAfterFirstCheck reports a live context on its first Err call and a
// cancelled one afterwards.
type cancelAfterFirstCheck struct {
	context.Context
	checks atomic.Int32
}

func (c *cancelAfterFirstCheck) Err() error {
	if c.checks.Add(1) > 1 {
		return context.Canceled
	}
	return nil
}

func Test_Drain_Backlog_Cancelled_Between_Batches_Keeps_The_Rest(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newMessageRepository(t)
	total := drainBatchSize + 44
	for i := 0; i < total; i++ {
		_, err := repository.Append(ctx, "alice", "bob", "m", false)
		req.NoError(err)
	}

	// Given the context is cancelled once the first batch is committed
	drained, err := repository.DrainBacklog(&cancelAfterFirstCheck{Context: ctx}, "bob")

	// Then the first batch is returned without error
	req.NoError(err)
	req.Len(drained, drainBatchSize)

	// And nothing is lost, the remainder is still pending
	rest, err := repository.DrainBacklog(ctx, "bob")
	req.NoError(err)
	req.Len(rest, total-drainBatchSize)
	req.Greater(rest[0].ID, drained[len(drained)-1].ID)
}

func Test_Drain_Backlog_Cancelled_Before_Start(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newMessageRepository(t)
	_, err := repository.Append(ctx, "alice", "bob", "m", false)
	req.NoError(err)
	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	drained, err := repository.DrainBacklog(cancelled, "bob")

	req.ErrorIs(err, context.Canceled)
	req.Empty(drained)
	rest, err := repository.DrainBacklog(ctx, "bob")
	req.NoError(err)
	req.Len(rest, 1)
}

func Test_Drain_Backlog_Removes_Orphan_Pending_Keys(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newMessageRepository(t)

	// Given a pending key whose message row is gone, followed by a real message
	err := repository.db.Update(func(txn *badger.Txn) error {
		return txn.Set(indexKey(pendingPrefix, "bob", 0), nil)
	})
	req.NoError(err)
	id, err := repository.Append(ctx, "alice", "bob", "still here", false)
	req.NoError(err)

	// When the backlog is drained
	drained, err := repository.DrainBacklog(ctx, "bob")

	// Then the real message comes through and the orphan is cleaned up
	req.NoError(err)
	req.Len(drained, 1)
	req.Equal(id, drained[0].ID)
	err = repository.db.View(func(txn *badger.Txn) error {
		_, getErr := txn.Get(indexKey(pendingPrefix, "bob", 0))
		return getErr
	})
	req.ErrorIs(err, badger.ErrKeyNotFound)
	again, err := repository.DrainBacklog(ctx, "bob")
	req.NoError(err)
	req.Empty(again)
}
