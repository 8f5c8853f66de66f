package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"snappy-chat/errors"
	"snappy-chat/services"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/lo"
)

type friendRequestBody struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Action    string `json:"action"`
}

type friendBody struct {
	Username    string `json:"username"`
	Friend      string `json:"friend"`
	BlockedUser string `json:"blocked_user"`
}

type pendingEntry struct {
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
}

type friendListResponse struct {
	Pending []pendingEntry `json:"pending"`
	Friends []string       `json:"friends"`
}

// friendErrors maps service failures to HTTP status and detail.
var friendErrors = []struct {
	err    error
	status int
	detail string
}{
	{errors.ErrMissingFields, http.StatusBadRequest, "Missing required fields"},
	{errors.ErrSelfFriendRequest, http.StatusBadRequest, "Cannot send request to yourself"},
	{errors.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{errors.ErrAlreadyFriends, http.StatusBadRequest, "Already friends"},
	{errors.ErrFriendRequestExists, http.StatusBadRequest, "Request already sent"},
	{errors.ErrRequestForbidden, http.StatusForbidden, "Cannot send request"},
	{errors.ErrInvalidFriendAction, http.StatusBadRequest, "Invalid action"},
	{errors.ErrRequestNotFound, http.StatusNotFound, "Friend request not found"},
}

type FriendHandler struct {
	log     *slog.Logger
	service services.IFriendService
}

func NewFriendHandler(log *slog.Logger, service services.IFriendService) *FriendHandler {
	return &FriendHandler{log: log, service: service}
}

func (h *FriendHandler) fail(w http.ResponseWriter, err error) {
	for _, e := range friendErrors {
		if stderrors.Is(err, e.err) {
			writeError(w, e.status, e.detail)
			return
		}
	}
	h.log.Error("Friend operation failed", "error", err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	var body friendRequestBody
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Sender == "" || body.Recipient == "" {
		writeError(w, http.StatusBadRequest, "Sender and recipient required")
		return
	}
	if err := h.service.SendRequest(r.Context(), body.Sender, body.Recipient); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "Friend request sent"})
}

func (h *FriendHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var body friendRequestBody
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	err := h.service.Respond(r.Context(), body.Recipient, body.Sender, services.FriendAction(body.Action))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Action: body.Action})
}

func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, friendListResponse{
		Pending: lo.Map(list.Pending, func(p services.PendingRequest, _ int) pendingEntry {
			return pendingEntry{From: p.From, Timestamp: p.Timestamp.UTC().Format(time.RFC3339)}
		}),
		Friends: list.Friends,
	})
}

func (h *FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var body friendBody
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.service.Remove(r.Context(), body.Username, body.Friend); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "Friend removed"})
}

func (h *FriendHandler) Block(w http.ResponseWriter, r *http.Request) {
	var body friendBody
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.service.Block(r.Context(), body.Username, body.BlockedUser); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "User blocked"})
}

func (h *FriendHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	var body friendBody
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.service.Unblock(r.Context(), body.Username, body.BlockedUser); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "User unblocked"})
}

func (h *FriendHandler) Blocked(w http.ResponseWriter, r *http.Request) {
	blocked, err := h.service.Blocked(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		h.fail(w, err)
		return
	}
	if blocked == nil {
		blocked = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"blocked": blocked})
}
