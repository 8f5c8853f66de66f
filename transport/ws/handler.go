package ws

import (
	"log/slog"
	"net/http"
	"snappy-chat/contract"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	ClientIDVar = "client_id"
	TokenParam  = "token"
)

// Handler upgrades GET /ws/{client_id}?token=... and runs a Session.
// The upgrade always happens so that an authentication failure reaches the
// client as a websocket close status.
type Handler struct {
	log           *slog.Logger
	hub           contract.IHub
	authenticator contract.Authenticator
	upgrader      websocket.Upgrader
	writeTimeout  time.Duration
	readLimit     int64
}

func NewHandler(log *slog.Logger, hub contract.IHub, authenticator contract.Authenticator,
	writeTimeout time.Duration, readLimit int64) *Handler {
	return &Handler{
		log:           log,
		hub:           hub,
		authenticator: authenticator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		writeTimeout: writeTimeout,
		readLimit:    readLimit,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientID := mux.Vars(r)[ClientIDVar]
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error
		h.log.Debug("Websocket upgrade failed", "client_id", clientID, "error", err)
		return
	}
	conn := NewConn(socket, h.writeTimeout)
	conn.SetReadLimit(h.readLimit)

	session := NewSession(h.log, h.hub, h.authenticator, conn, clientID)
	_ = session.Run(r.Context(), r.URL.Query().Get(TokenParam))
}
