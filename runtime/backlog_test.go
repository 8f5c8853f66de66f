package runtime

import (
	"context"
	"fmt"
	"snappy-chat/domain"
	"snappy-chat/repositories"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

// cancelAfterFirstCheck reports cancellation from its second Err call on,
// which lets exactly one drain batch through.
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

// heldAppendStore parks the first Append until released.
type heldAppendStore struct {
	*repositories.MessageRepository
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (s *heldAppendStore) Append(ctx context.Context, sender, recipient, content string, delivered bool) (uint64, error) {
	s.once.Do(func() {
		close(s.started)
		<-s.release
	})
	return s.MessageRepository.Append(ctx, sender, recipient, content, delivered)
}

func deliveries(frames []any) []domain.DeliveryFrame {
	return lo.FilterMap(frames, func(f any, _ int) (domain.DeliveryFrame, bool) {
		d, ok := f.(domain.DeliveryFrame)
		return d, ok
	})
}

func TestHub_Connect_Replays_The_Drained_Part_When_Interrupted(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	hub, store := newHub(t)

	// Given bob has more pending messages than a single drain batch
	const total = 300
	for i := range total {
		_, err := hub.Route(ctx, "alice", "bob", fmt.Sprintf("m%03d", i))
		req.NoError(err)
	}

	// When bob connects and the context is cancelled after the first batch
	bob := newFakeConn()
	replayed, err := hub.Connect(&cancelAfterFirstCheck{Context: ctx}, "bob", bob)

	// Then every drained message is on the wire, none of them lost
	req.NoError(err)
	req.Equal(256, replayed)
	first := deliveries(bob.Frames())
	req.Len(first, 256)
	req.Equal("m000", first[0].Message)
	req.Equal("m255", first[255].Message)

	// And the rest comes with the next connection
	again := newFakeConn()
	replayed, err = hub.Connect(ctx, "bob", again)
	req.NoError(err)
	req.Equal(total-256, replayed)
	rest := deliveries(again.Frames())
	req.Equal("m256", rest[0].Message)
	req.Equal("m299", rest[len(rest)-1].Message)

	left, err := store.DrainBacklog(ctx, "bob")
	req.NoError(err)
	req.Empty(left)
}

func TestHub_Message_Appended_While_Recipient_Connects_Is_Delivered(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := &heldAppendStore{
		MessageRepository: openStore(t),
		started:           make(chan struct{}),
		release:           make(chan struct{}),
	}
	hub := hubOver(store)

	// Given alice routes to an offline bob and the append is held
	type result struct {
		outcome domain.DeliveryOutcome
		err     error
	}
	done := make(chan result, 1)
	go func() {
		outcome, err := hub.Route(ctx, "alice", "bob", "hello")
		done <- result{outcome, err}
	}()
	<-store.started

	// When bob connects before the row exists
	bob := newFakeConn()
	replayed, err := hub.Connect(ctx, "bob", bob)
	req.NoError(err)
	req.Zero(replayed)
	close(store.release)

	// Then the message still reaches him once it is written
	var r result
	select {
	case r = <-done:
	case <-time.After(5 * time.Second):
		req.FailNow("route did not finish")
	}
	req.NoError(r.err)
	req.True(r.outcome.Stored)
	req.True(r.outcome.DeliveredLive)

	got := deliveries(bob.Frames())
	req.Len(got, 1)
	req.Equal("hello", got[0].Message)
	req.True(got[0].OfflineCatchup)

	left, err := store.DrainBacklog(ctx, "bob")
	req.NoError(err)
	req.Empty(left)
}

func TestHub_Connect_During_Live_Traffic_Delivers_Each_Message_Once(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	hub, store := newHub(t)

	// Given bob has a backlog from alice
	const backlog, live = 20, 20
	for i := range backlog {
		_, err := hub.Route(ctx, "alice", "bob", fmt.Sprintf("a%02d", i))
		req.NoError(err)
	}

	// When carol keeps sending while bob connects
	bob := newFakeConn()
	var wg sync.WaitGroup
	routeErrs := make([]error, live)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range live {
			_, routeErrs[i] = hub.Route(ctx, "carol", "bob", fmt.Sprintf("c%02d", i))
		}
	}()
	_, err := hub.Connect(ctx, "bob", bob)
	req.NoError(err)
	wg.Wait()
	for _, err := range routeErrs {
		req.NoError(err)
	}

	// Then every message arrives exactly once
	got := deliveries(bob.Frames())
	req.Len(got, backlog+live)
	contents := lo.Map(got, func(d domain.DeliveryFrame, _ int) string { return d.Message })
	req.Len(lo.Uniq(contents), backlog+live)

	// And the backlog keeps its order among itself
	fromAlice := lo.Filter(got, func(d domain.DeliveryFrame, _ int) bool { return d.From == "alice" })
	for i, d := range fromAlice {
		req.Equal(fmt.Sprintf("a%02d", i), d.Message)
		req.True(d.OfflineCatchup)
	}

	left, err := store.DrainBacklog(ctx, "bob")
	req.NoError(err)
	req.Empty(left)
}
