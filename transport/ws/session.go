package ws

import (
	"context"
	stderrors "errors"
	"log/slog"
	"snappy-chat/contract"
	"snappy-chat/domain"
	"snappy-chat/errors"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

type State int32

const (
	Connecting State = iota
	Authenticated
	Active
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Authenticated:
		return "authenticated"
	case Active:
		return "active"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session drives one connection through
// connecting -> authenticated -> active -> closed.
// Closed is terminal. A session that fails authentication never registers.
type Session struct {
	log           *slog.Logger
	hub           contract.IHub
	authenticator contract.Authenticator
	conn          *Conn
	claimed       string
	state         atomic.Int32
}

func NewSession(log *slog.Logger, hub contract.IHub, authenticator contract.Authenticator, conn *Conn, claimed string) *Session {
	return &Session{log: log, hub: hub, authenticator: authenticator, conn: conn, claimed: claimed}
}

func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) transition(to State) {
	from := State(s.state.Swap(int32(to)))
	s.log.Debug("Session state changed", "identity", s.claimed, "connection", s.conn.ID(), "from", from, "to", to)
}

// Run blocks until the connection ends.
// It returns ErrAuthRejected when the token does not match the claimed identity.
func (s *Session) Run(ctx context.Context, token string) error {
	if err := s.authenticate(token); err != nil {
		s.transition(Closed)
		return err
	}
	s.transition(Authenticated)

	if _, err := s.hub.Connect(ctx, s.claimed, s.conn); err != nil {
		s.log.Error("Session activated without backlog", "identity", s.claimed, "error", err)
	}
	s.transition(Active)

	s.readLoop(ctx)

	s.transition(Closed)
	if err := s.conn.Close(websocket.CloseNormalClosure, ""); err != nil {
		s.log.Debug("Connection did not close cleanly", "identity", s.claimed, "error", err)
	}
	s.hub.Disconnect(ctx, s.claimed, s.conn)
	return nil
}

// authenticate accepts only a token issued for exactly the claimed identity.
func (s *Session) authenticate(token string) error {
	reason := ""
	switch identity, err := s.authenticator.Authenticate(token); {
	case token == "":
		reason = domain.ReasonNoToken
	case err != nil, identity != s.claimed:
		reason = domain.ReasonBadToken
	}
	if reason == "" {
		return nil
	}
	s.log.Info("Authentication rejected", "claimed", s.claimed, "reason", reason)
	if err := s.conn.Close(domain.CloseAuthFailed, reason); err != nil {
		s.log.Debug("Rejected connection did not close cleanly", "claimed", s.claimed, "error", err)
	}
	return errors.ErrAuthRejected
}

func (s *Session) readLoop(ctx context.Context) {
	for {
		frame, err := s.conn.ReadFrame()
		if stderrors.Is(err, errors.ErrMalformedFrame) {
			s.log.Warn("Malformed frame discarded", "identity", s.claimed, "error", err)
			continue
		}
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Info("Connection lost", "identity", s.claimed, "error", err)
			}
			return
		}

		outcome, err := s.hub.Route(ctx, s.claimed, frame.To, frame.Message)
		if err != nil {
			s.log.Warn("Message discarded", "identity", s.claimed, "to", frame.To, "error", err)
			continue
		}
		s.log.Debug("Message routed", "identity", s.claimed, "to", frame.To,
			"id", outcome.MessageID, "live", outcome.DeliveredLive)
	}
}
