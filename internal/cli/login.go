package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/eleven-am/todosync/internal/api"
	"github.com/eleven-am/todosync/internal/app"
	"github.com/eleven-am/todosync/internal/auth"
	"github.com/eleven-am/todosync/internal/router"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var username, pass string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := password(cmd, pass)
			if err != nil {
				return err
			}

			return withSession(cmd, func(ctx context.Context, s *app.Session) error {
				if _, err := s.Navigator.Navigate(router.LoginPath); err != nil {
					return err
				}

				payload, err := s.Auth.Login(ctx, username, pw)
				if err != nil {
					return err
				}
				if !s.Auth.IsAuthenticated() {
					return explain(api.ErrAuthExpired)
				}

				out := cmd.OutOrStdout()
				name := username
				if u := s.Auth.User(); u != nil {
					name = u.Username
				}
				fmt.Fprintf(out, "Logged in as %s\n", name)

				if exp, ok := auth.TokenExpiry(payload.Token); ok {
					fmt.Fprintf(out, "Session valid until %s\n", exp.Local().Format(time.RFC1123))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&pass, "password", "p", "", "account password (prompted when empty)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
