package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/eleven-am/todosync/internal/app"
	"github.com/eleven-am/todosync/internal/auth"
	"github.com/eleven-am/todosync/internal/credentials"
	"github.com/eleven-am/todosync/internal/models"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session and todo list status",
		Long: `Reports the configured server, whether the stored token is still
accepted, and a summary of the todo list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *app.Session) error {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Server:      %s\n", s.Client.BaseURL())
				fmt.Fprintf(out, "Credentials: %s\n", describeCredentials())

				token, err := s.Cache.Get(ctx)
				if err != nil {
					return fmt.Errorf("failed to read credential cache: %w", err)
				}
				if token == "" {
					fmt.Fprintln(out, "Session:     signed out")
					return nil
				}

				var user *models.User
				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() error {
					var err error
					user, err = s.Auth.FetchCurrentUser(gctx)
					return err
				})
				g.Go(func() error {
					s.Todos.FetchTodos(gctx)
					return nil
				})
				if err := g.Wait(); err != nil {
					fmt.Fprintf(out, "Session:     rejected (%v)\n", explain(err))
					return nil
				}

				fmt.Fprintf(out, "Session:     signed in as %s\n", user.Username)
				if exp, ok := auth.TokenExpiry(token); ok {
					fmt.Fprintf(out, "Expires:     %s\n", exp.Local().Format(time.RFC1123))
				}

				if msg := s.Todos.Err(); msg != "" {
					fmt.Fprintf(out, "Todos:       unavailable (%s)\n", msg)
					return nil
				}
				fmt.Fprintf(out, "Todos:       %d total, %d pending, %d completed\n",
					len(s.Todos.Todos()), len(s.Todos.Pending()), len(s.Todos.Completed()))
				return nil
			})
		},
	}
}

func describeCredentials() string {
	c := cliConfig.Credentials
	switch c.Backend {
	case credentials.BackendFile:
		return fmt.Sprintf("file (%s)", c.Path)
	case credentials.BackendSQL:
		return fmt.Sprintf("sql (table %s)", c.Table)
	}
	return c.Backend
}
