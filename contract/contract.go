//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"snappy-chat/domain"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging during supervision.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Connection is one live, bidirectional channel to a client.
// Send may be called from several goroutines. Close is idempotent,
// a second call is a no-op returning nil.
type Connection interface {
	ID() string
	Send(ctx context.Context, frame any) error
	Close(code int, reason string) error
}

// Session binds a display identity to its live connection.
type Session struct {
	Identity string
	Conn     Connection
}

// DeliveryResult is the outcome of one push during a fan-out.
type DeliveryResult struct {
	Identity string
	Err      error
}

func (d DeliveryResult) Delivered() bool { return d.Err == nil }

type IRegistry interface {
	Register(ctx context.Context, identity string, conn Connection) bool
	Unregister(identity string, conn Connection) bool
	Lookup(identity string) (Connection, bool)
	Snapshot() []string
	Sessions() []Session
	Len() int
	CloseAll(ctx context.Context)
}

// Authenticator resolves a bearer token to the identity it was issued for.
type Authenticator interface {
	Authenticate(token string) (string, error)
}

// Directory answers whether sender may reach recipient.
type Directory interface {
	CanMessage(ctx context.Context, sender, recipient string) (bool, error)
}

// Notifier pushes a transient event to an identity if it is online.
type Notifier interface {
	Notify(ctx context.Context, identity string, event any) bool
}

// IHub is what a transport needs from the messaging core.
type IHub interface {
	Connect(ctx context.Context, identity string, conn Connection) (int, error)
	Disconnect(ctx context.Context, identity string, conn Connection) bool
	Route(ctx context.Context, sender, recipient, content string) (domain.DeliveryOutcome, error)
}
