package cli

import (
	"context"
	"fmt"

	"github.com/eleven-am/todosync/internal/app"
	"github.com/spf13/cobra"
)

func newRegisterCmd() *cobra.Command {
	var username, email, pass string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		Long: `Creates an account on the server. Registration does not sign you in;
run 'todosync login' afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := password(cmd, pass)
			if err != nil {
				return err
			}

			return withSession(cmd, func(ctx context.Context, s *app.Session) error {
				payload, err := s.Auth.Register(ctx, username, email, pw)
				if err != nil {
					return err
				}

				msg := payload.Message
				if msg == "" {
					msg = "Registration successful"
				}
				fmt.Fprintln(cmd.OutOrStdout(), msg)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&pass, "password", "p", "", "account password (prompted when empty)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
