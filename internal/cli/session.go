package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/eleven-am/todosync/internal/api"
	"github.com/eleven-am/todosync/internal/app"
	"github.com/eleven-am/todosync/internal/credentials"
	"github.com/eleven-am/todosync/internal/logger"
	"github.com/spf13/cobra"
	"k8s.io/utils/env"
)

// ErrLoginRequired is returned when a command needs a session and none exists.
var ErrLoginRequired = errors.New("login required: run 'todosync login' first")

func sessionOptions() app.Options {
	cfg := cliConfig
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return app.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Credentials: credentials.Config{
			Backend:     cfg.Credentials.Backend,
			Path:        cfg.Credentials.Path,
			DatabaseURL: cfg.Credentials.DatabaseURL,
			Table:       cfg.Credentials.Table,
			Passphrase:  env.GetString("TODOSYNC_PASSPHRASE", ""),
		},
	}
}

func openSession(ctx context.Context) (*app.Session, error) {
	s, err := app.New(ctx, sessionOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	return s, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// withSession opens a session for the duration of fn.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *app.Session) error) error {
	ctx := commandContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			logger.CLI().Warn("Failed to close credential cache", "error", cerr)
		}
	}()
	return fn(ctx, s)
}

// withView opens a session and runs fn behind the auth guard for path.
func withView(cmd *cobra.Command, path string, fn func(ctx context.Context, s *app.Session) error) error {
	return withSession(cmd, func(ctx context.Context, s *app.Session) error {
		return withViewSession(ctx, s, path, func() error { return fn(ctx, s) })
	})
}

// withViewSession waits for the start-up token check, then navigates to
// path. Guard redirects fail with ErrLoginRequired.
func withViewSession(ctx context.Context, s *app.Session, path string, fn func() error) error {
	<-s.Init(ctx)

	loc, err := s.Navigator.Navigate(path)
	if err != nil {
		return err
	}
	if loc.Redirected {
		return ErrLoginRequired
	}

	return explain(fn())
}

func explain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, api.ErrAuthExpired):
		return fmt.Errorf("session expired, run 'todosync login' to sign in again: %w", err)
	case api.IsNetworkError(err):
		return fmt.Errorf("cannot reach server: %w", err)
	}
	return err
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid todo id %q", raw)
	}
	return uint(id), nil
}

// prompt reads one line from in, writing label to out first.
func prompt(in io.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprintf(out, "%s: ", label)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// password returns the flag value, $TODOSYNC_PASSWORD, or a line from stdin.
func password(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := env.GetString("TODOSYNC_PASSWORD", ""); v != "" {
		return v, nil
	}
	return prompt(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password")
}
