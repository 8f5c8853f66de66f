package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// Routes groups every HTTP entry point of the server.
type Routes struct {
	Auth      *AuthHandler
	Chat      *ChatHandler
	Friends   *FriendHandler
	Websocket http.Handler
}

func NewRouter(log *slog.Logger, routes Routes) *mux.Router {
	r := mux.NewRouter()
	r.Use(loggingMiddleware(log))
	r.Use(corsMiddleware)

	r.HandleFunc("/register", routes.Auth.Register).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/login", routes.Auth.Login).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/history/{username}", routes.Chat.History).Methods(http.MethodGet)
	r.HandleFunc("/search", routes.Chat.Search).Methods(http.MethodGet)

	r.HandleFunc("/friend-request/send", routes.Friends.SendRequest).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/friend-request/respond", routes.Friends.Respond).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/friend-request/list/{username}", routes.Friends.List).Methods(http.MethodGet)
	r.HandleFunc("/friend/remove", routes.Friends.Remove).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/friend/block", routes.Friends.Block).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/friend/unblock", routes.Friends.Unblock).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/friend/blocked/{username}", routes.Friends.Blocked).Methods(http.MethodGet)

	if routes.Websocket != nil {
		r.Handle("/ws/{client_id}", routes.Websocket).Methods(http.MethodGet)
	}
	return r
}
