package app

import (
	"context"
	"net/http"
	"time"

	"github.com/eleven-am/todosync/internal/api"
	"github.com/eleven-am/todosync/internal/auth"
	"github.com/eleven-am/todosync/internal/credentials"
	"github.com/eleven-am/todosync/internal/logger"
	"github.com/eleven-am/todosync/internal/router"
	"github.com/eleven-am/todosync/internal/todos"
)

// Options configures a Session.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	Credentials credentials.Config

	// Cache, when set, is used instead of opening Credentials.
	Cache      credentials.Cache
	HTTPClient *http.Client
}

// Session wires the credential cache, HTTP client, both state containers
// and the navigator together. It owns the single handler that reacts to
// rejected sessions.
type Session struct {
	Cache     credentials.Cache
	Client    *api.Client
	Auth      *auth.Store
	Todos     *todos.Store
	Navigator *router.Navigator

	closeCache func() error
}

func New(ctx context.Context, opts Options) (*Session, error) {
	cache := opts.Cache
	closeCache := func() error { return nil }
	if cache == nil {
		var err error
		cache, closeCache, err = credentials.Open(ctx, opts.Credentials)
		if err != nil {
			return nil, err
		}
	}

	clientOpts := []api.Option{api.WithLogger(logger.API())}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(opts.HTTPClient))
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, api.WithTimeout(opts.Timeout))
	}
	client := api.New(opts.BaseURL, cache, clientOpts...)

	authStore := auth.NewStore(ctx, client, cache, logger.Auth())
	s := &Session{
		Cache:      cache,
		Client:     client,
		Auth:       authStore,
		Todos:      todos.NewStore(client, logger.Todos()),
		Navigator:  router.NewNavigator(router.Default(), authStore, logger.Router()),
		closeCache: closeCache,
	}
	client.SetAuthExpiredHandler(s.handleAuthExpired)
	return s, nil
}

// Init runs the start-up token check in the background.
func (s *Session) Init(ctx context.Context) <-chan struct{} {
	return s.Auth.InitAuth(ctx)
}

// Logout ends the session and forgets the mirrored todos.
func (s *Session) Logout(ctx context.Context) {
	s.Auth.Logout(ctx)
	s.Todos.Reset()
}

// Close releases the credential cache.
func (s *Session) Close() error {
	return s.closeCache()
}

func (s *Session) handleAuthExpired(ctx context.Context, err error) {
	s.Auth.Expire()
	s.Navigator.RedirectToLogin()
}
