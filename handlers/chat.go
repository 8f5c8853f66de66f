package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"snappy-chat/domain"
	"snappy-chat/search"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/lo"
)

type HistoryReader interface {
	History(ctx context.Context, identity string) ([]domain.Message, error)
}

type UserSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

type historyEntry struct {
	Sender      string `json:"sender"`
	Recipient   string `json:"recipient"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
	IsDelivered bool   `json:"is_delivered"`
}

type ChatHandler struct {
	log      *slog.Logger
	history  HistoryReader
	searcher UserSearcher
}

func NewChatHandler(log *slog.Logger, history HistoryReader, searcher UserSearcher) *ChatHandler {
	return &ChatHandler{log: log, history: history, searcher: searcher}
}

// History lists every message the user sent or received, oldest first.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	messages, err := h.history.History(r.Context(), username)
	if err != nil {
		h.log.Error("History not loaded", "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "Could not load history")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]historyEntry{
		"messages": lo.Map(messages, func(m domain.Message, _ int) historyEntry {
			return historyEntry{
				Sender:      m.Sender,
				Recipient:   m.Recipient,
				Message:     m.Content,
				Timestamp:   m.At.UTC().Format(time.RFC3339),
				IsDelivered: m.Delivered,
			}
		}),
	})
}

func (h *ChatHandler) Search(w http.ResponseWriter, r *http.Request) {
	users, err := h.searcher.Search(r.Context(), r.URL.Query().Get("q"), search.DefaultLimit)
	if err != nil {
		h.log.Error("Search failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"users": users})
}
