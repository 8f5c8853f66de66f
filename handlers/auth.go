package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"snappy-chat/auth"
	"snappy-chat/errors"
	"snappy-chat/services"
)

type credentialsResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Token    string `json:"token"`
	Username string `json:"username"`
}

type AuthHandler struct {
	log     *slog.Logger
	service services.IAuthService
}

func NewAuthHandler(log *slog.Logger, service services.IAuthService) *AuthHandler {
	return &AuthHandler{log: log, service: service}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	credentials, err := h.service.Register(req)
	switch {
	case err == nil:
	case stderrors.Is(err, errors.ErrInvalidRegistration):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case stderrors.Is(err, errors.ErrUserAlreadyExists):
		writeError(w, http.StatusBadRequest, "Username already exists")
		return
	default:
		h.log.Error("Registration failed", "username", req.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	h.log.Info("User registered", "username", credentials.Username)
	writeJSON(w, http.StatusOK, credentialsResponse{
		Success:  true,
		Message:  "User registered successfully",
		Token:    credentials.Token.String(),
		Username: credentials.Username,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	credentials, err := h.service.Login(req)
	if stderrors.Is(err, errors.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		h.log.Error("Login failed", "username", req.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	writeJSON(w, http.StatusOK, credentialsResponse{
		Success:  true,
		Message:  "Login successful",
		Token:    credentials.Token.String(),
		Username: credentials.Username,
	})
}
