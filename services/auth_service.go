package services

import (
	"fmt"
	"log/slog"
	"snappy-chat/auth"
	"snappy-chat/errors"
	"snappy-chat/repositories"
)

type IAuthService interface {
	Login(req auth.LoginRequest) (Credentials, error)
	Register(req auth.RegisterRequest) (Credentials, error)
}

// UserIndexer is notified of every new account.
type UserIndexer interface {
	Index(username string) error
}

type Token string

func (t Token) String() string {
	return string(t)
}

// Credentials is what a client needs to open its connection.
type Credentials struct {
	Token    Token
	Username string
}

type AuthService struct {
	log            *slog.Logger
	userRepository repositories.IUserRepository
	tokens         *auth.TokenManager
	index          UserIndexer
}

func NewAuthService(log *slog.Logger, repo repositories.IUserRepository, tokens *auth.TokenManager, index UserIndexer) IAuthService {
	return &AuthService{log: log, userRepository: repo, tokens: tokens, index: index}
}

func (s *AuthService) Register(req auth.RegisterRequest) (Credentials, error) {
	// 1. Validate before any expensive cryptographic operation
	if err := auth.ValidateRegister(req); err != nil {
		return Credentials{}, err
	}

	// 2. Hash here so the repository never sees plain passwords
	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return Credentials{}, fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist, propagates ErrUserAlreadyExists
	user, err := s.userRepository.CreateUser(req.Username, hashedPassword)
	if err != nil {
		return Credentials{}, err
	}

	// 4. A missing index entry only degrades search
	if s.index != nil {
		if err = s.index.Index(user.Username); err != nil {
			s.log.Warn("User not indexed", "username", user.Username, "error", err)
		}
	}

	return s.issue(user.Username)
}

func (s *AuthService) Login(req auth.LoginRequest) (Credentials, error) {
	if err := auth.ValidateLogin(req); err != nil {
		return Credentials{}, errors.ErrInvalidCredentials
	}

	// Same error whatever failed, to prevent user enumeration
	user, err := s.userRepository.GetUser(req.Username)
	if err != nil {
		return Credentials{}, errors.ErrInvalidCredentials
	}
	match, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil || !match {
		return Credentials{}, errors.ErrInvalidCredentials
	}

	// The casing typed at login becomes the displayed one
	return s.issue(req.Username)
}

func (s *AuthService) issue(username string) (Credentials, error) {
	token, err := s.tokens.GenerateToken(username)
	if err != nil {
		return Credentials{}, errors.ErrTokenGeneration
	}
	return Credentials{Token: Token(token), Username: username}, nil
}
