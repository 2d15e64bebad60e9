package auth

import (
	"context"
	"sync"

	"github.com/eleven-am/todosync/internal/api"
	"github.com/eleven-am/todosync/internal/credentials"
	"github.com/eleven-am/todosync/internal/logger"
	"github.com/eleven-am/todosync/internal/models"
)

// API is the subset of the HTTP client the auth store needs.
type API interface {
	Register(ctx context.Context, username, email, password string) (*models.RegisterPayload, error)
	Login(ctx context.Context, username, password string) (*models.LoginPayload, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*models.User, error)
}

// State is a snapshot of the auth container.
type State struct {
	User            *models.User
	Token           string
	IsAuthenticated bool
}

// Store mirrors the signed-in user and bearer token. IsAuthenticated is
// derived from the token and never stored separately.
type Store struct {
	api    API
	cache  credentials.Cache
	logger logger.Logger

	mu    sync.RWMutex
	user  *models.User
	token string
}

// NewStore seeds the token from cache.
func NewStore(ctx context.Context, client API, cache credentials.Cache, log logger.Logger) *Store {
	if log == nil {
		log = logger.Auth()
	}
	s := &Store{api: client, cache: cache, logger: log}

	token, err := cache.Get(ctx)
	if err != nil {
		log.Warn("Failed to read cached token, starting signed out", "error", err)
	}
	s.token = token
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{Token: s.token, IsAuthenticated: s.token != ""}
	if s.user != nil {
		u := *s.user
		st.User = &u
	}
	return st
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// User returns the current user, or nil if it has not been fetched.
func (s *Store) User() *models.User {
	return s.State().User
}

// Register creates an account. It does not sign in.
func (s *Store) Register(ctx context.Context, username, email, password string) (*models.RegisterPayload, error) {
	payload, err := s.api.Register(ctx, username, email, password)
	if err != nil {
		authErr := newAuthError("register", RegistrationFailed, err)
		s.logger.Info("Registration failed", "username", username, "error", authErr.Detail())
		return nil, authErr
	}
	s.logger.Info("Registered", "username", username)
	return payload, nil
}

// Login exchanges credentials for a token, stores it, then fetches the
// profile. A failed profile fetch is logged and does not fail the login.
func (s *Store) Login(ctx context.Context, username, password string) (*models.LoginPayload, error) {
	payload, err := s.api.Login(ctx, username, password)
	if err != nil {
		authErr := newAuthError("login", LoginFailed, err)
		s.logger.Info("Login failed", "username", username, "error", authErr.Detail())
		return nil, authErr
	}

	s.mu.Lock()
	s.token = payload.Token
	s.mu.Unlock()

	if err := s.cache.Set(ctx, payload.Token); err != nil {
		s.logger.Error("Failed to persist token", "error", err)
	}

	if _, err := s.FetchCurrentUser(ctx); err != nil {
		s.logger.Warn("Signed in but failed to fetch profile", "error", err)
	}
	return payload, nil
}

// Logout notifies the server best-effort, then always clears the local
// session and the cached token.
func (s *Store) Logout(ctx context.Context) {
	if err := s.api.Logout(ctx); err != nil {
		s.logger.Warn("Logout request failed", "error", err)
	}

	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if err := s.cache.Clear(ctx); err != nil {
		s.logger.Error("Failed to clear cached token", "error", err)
	}
}

// FetchCurrentUser replaces the user with the server's profile. On failure
// the user is cleared (the token is kept) and the error returned.
func (s *Store) FetchCurrentUser(ctx context.Context) (*models.User, error) {
	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		s.mu.Lock()
		s.user = nil
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	u := *user
	return &u, nil
}

// InitAuth validates a cached token in the background by fetching the
// profile, logging out fully if that fails. Callers need not wait; the
// returned channel closes when the check is finished.
func (s *Store) InitAuth(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if !s.IsAuthenticated() {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		if _, err := s.FetchCurrentUser(ctx); err != nil {
			s.logger.Info("Cached token rejected, signing out", "error", err)
			s.Logout(ctx)
		}
	}()
	return done
}

// Expire drops the in-memory session after the server rejected the token.
// The HTTP client has already cleared the cached copy.
func (s *Store) Expire() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
}

func newAuthError(op, fallback string, err error) *AuthError {
	msg := api.ServerMessage(err)
	if msg == "" {
		msg = fallback
	}
	return &AuthError{Op: op, Message: msg, Err: err}
}
