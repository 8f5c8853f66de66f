package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"snappy-chat/auth"
	"snappy-chat/repositories"
	"snappy-chat/search"
	"snappy-chat/services"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	router *mux.Router
	store  *repositories.MessageRepository
	tokens *auth.TokenManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	req := require.New(t)
	log := slog.Default()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	store, err := repositories.NewMessageRepository(db, log)
	req.NoError(err)
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	req.NoError(err)
	index := search.NewUserIndex(writer, log)
	t.Cleanup(func() {
		_ = index.Close()
		_ = store.Close()
		_ = db.Close()
	})

	users := repositories.NewUserRepository(db)
	tokens := auth.NewTokenManager("secret", time.Hour)
	router := NewRouter(log, Routes{
		Auth:    NewAuthHandler(log, services.NewAuthService(log, users, tokens, index)),
		Chat:    NewChatHandler(log, store, index),
		Friends: NewFriendHandler(log, services.NewFriendService(log, users, repositories.NewFriendRepository(db), nil)),
	})
	return &fixture{router: router, store: store, tokens: tokens}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	request := httptest.NewRequest(method, path, &payload)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, request)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decoded))
	return rr, decoded
}

func (f *fixture) register(t *testing.T, username string) {
	t.Helper()
	rr, _ := f.do(t, http.MethodPost, "/register", map[string]string{
		"username": username, "password": "secret1", "confirm_password": "secret1",
	})
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRegister_And_Login(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	// Given a new account
	rr, body := f.do(t, http.MethodPost, "/register", map[string]string{
		"username": "alice", "password": "secret1", "confirm_password": "secret1",
	})
	req.Equal(http.StatusOK, rr.Code)
	req.Equal(true, body["success"])
	req.Equal("alice", body["username"])
	username, err := f.tokens.Authenticate(body["token"].(string))
	req.NoError(err)
	req.Equal("alice", username)

	// When registering the same name in another casing
	rr, body = f.do(t, http.MethodPost, "/register", map[string]string{
		"username": "ALICE", "password": "secret1", "confirm_password": "secret1",
	})
	req.Equal(http.StatusBadRequest, rr.Code)
	req.Equal("Username already exists", body["detail"])

	// Then login works with the right password only
	rr, body = f.do(t, http.MethodPost, "/login", map[string]string{"username": "alice", "password": "secret1"})
	req.Equal(http.StatusOK, rr.Code)
	req.Equal("Login successful", body["message"])

	rr, body = f.do(t, http.MethodPost, "/login", map[string]string{"username": "alice", "password": "nope"})
	req.Equal(http.StatusUnauthorized, rr.Code)
	req.Equal("Invalid username or password", body["detail"])
}

func TestRegister_Validation(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	rr, body := f.do(t, http.MethodPost, "/register", map[string]string{
		"username": "bob", "password": "secret1", "confirm_password": "secret2",
	})

	req.Equal(http.StatusBadRequest, rr.Code)
	req.Contains(body["detail"], "passwords do not match")
}

func TestHistory_And_Search(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.register(t, "Alice")
	f.register(t, "malik")
	f.register(t, "bob")
	_, err := f.store.Append(t.Context(), "alice", "bob", "hi", false)
	req.NoError(err)

	rr, body := f.do(t, http.MethodGet, "/history/bob", nil)
	req.Equal(http.StatusOK, rr.Code)
	messages := body["messages"].([]any)
	req.Len(messages, 1)
	entry := messages[0].(map[string]any)
	req.Equal("alice", entry["sender"])
	req.Equal("hi", entry["message"])
	req.Equal(false, entry["is_delivered"])

	rr, body = f.do(t, http.MethodGet, "/search?q=LI", nil)
	req.Equal(http.StatusOK, rr.Code)
	req.Equal([]any{"Alice", "malik"}, body["users"])

	_, body = f.do(t, http.MethodGet, "/search?q=", nil)
	req.Equal([]any{}, body["users"])
}

func TestFriend_Endpoints(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.register(t, "alice")
	f.register(t, "bob")

	rr, body := f.do(t, http.MethodPost, "/friend-request/send", map[string]string{"sender": "alice", "recipient": "alice"})
	req.Equal(http.StatusBadRequest, rr.Code)
	req.Equal("Cannot send request to yourself", body["detail"])

	rr, body = f.do(t, http.MethodPost, "/friend-request/send", map[string]string{"sender": "alice", "recipient": "ghost"})
	req.Equal(http.StatusNotFound, rr.Code)
	req.Equal("User not found", body["detail"])

	rr, _ = f.do(t, http.MethodPost, "/friend-request/send", map[string]string{"sender": "alice", "recipient": "bob"})
	req.Equal(http.StatusOK, rr.Code)

	rr, body = f.do(t, http.MethodPost, "/friend-request/send", map[string]string{"sender": "alice", "recipient": "bob"})
	req.Equal(http.StatusBadRequest, rr.Code)
	req.Equal("Request already sent", body["detail"])

	_, body = f.do(t, http.MethodGet, "/friend-request/list/bob", nil)
	pending := body["pending"].([]any)
	req.Len(pending, 1)
	req.Equal("alice", pending[0].(map[string]any)["from"])

	rr, body = f.do(t, http.MethodPost, "/friend-request/respond", map[string]string{"recipient": "bob", "sender": "alice", "action": "later"})
	req.Equal(http.StatusBadRequest, rr.Code)
	req.Equal("Invalid action", body["detail"])

	rr, body = f.do(t, http.MethodPost, "/friend-request/respond", map[string]string{"recipient": "bob", "sender": "alice", "action": "accept"})
	req.Equal(http.StatusOK, rr.Code)
	req.Equal("accept", body["action"])

	_, body = f.do(t, http.MethodGet, "/friend-request/list/alice", nil)
	req.Equal([]any{"bob"}, body["friends"])

	rr, _ = f.do(t, http.MethodPost, "/friend/remove", map[string]string{"username": "alice", "friend": "bob"})
	req.Equal(http.StatusOK, rr.Code)

	rr, _ = f.do(t, http.MethodPost, "/friend/block", map[string]string{"username": "alice", "blocked_user": "bob"})
	req.Equal(http.StatusOK, rr.Code)
	_, body = f.do(t, http.MethodGet, "/friend/blocked/alice", nil)
	req.Equal([]any{"bob"}, body["blocked"])

	rr, body = f.do(t, http.MethodPost, "/friend-request/send", map[string]string{"sender": "bob", "recipient": "alice"})
	req.Equal(http.StatusForbidden, rr.Code)
	req.Equal("Cannot send request", body["detail"])

	rr, _ = f.do(t, http.MethodPost, "/friend/unblock", map[string]string{"username": "alice", "blocked_user": "bob"})
	req.Equal(http.StatusOK, rr.Code)
	_, body = f.do(t, http.MethodGet, "/friend/blocked/alice", nil)
	req.Equal([]any{}, body["blocked"])

	rr, body = f.do(t, http.MethodPost, "/friend/block", map[string]string{"username": "alice"})
	req.Equal(http.StatusBadRequest, rr.Code)
	req.Equal("Missing required fields", body["detail"])
}
