package runtime

import (
	"context"
	"snappy-chat/errors"
	"sync"

	"github.com/google/uuid"
)

// fakeConn records what the core pushes to a client.
type fakeConn struct {
	id      string
	mu      sync.Mutex
	frames  []any
	sendErr error
	block   bool
	closed  bool
	code    int
	reason  string
	closes  int
}

func newFakeConn() *fakeConn {
	return &fakeConn{id: uuid.NewString()}
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(ctx context.Context, frame any) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.ErrConnectionClosed
	}
	if f.sendErr != nil {
		return f.sendErr
	}
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeConn) Close(code int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	f.code = code
	f.reason = reason
	f.closes++
	return nil
}

func (f *fakeConn) Frames() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]any(nil), f.frames...)
}

func (f *fakeConn) ClosedWith() (bool, int, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed, f.code, f.reason
}
