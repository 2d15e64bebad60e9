package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/eleven-am/todosync/internal/app"
	"github.com/spf13/cobra"
)

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withView(cmd, "/", func(ctx context.Context, s *app.Session) error {
				user := s.Auth.User()
				if user == nil {
					var err error
					if user, err = s.Auth.FetchCurrentUser(ctx); err != nil {
						return err
					}
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:       %d\n", user.ID)
				fmt.Fprintf(out, "Username: %s\n", user.Username)
				fmt.Fprintf(out, "Email:    %s\n", user.Email)
				if !user.CreatedAt.IsZero() {
					fmt.Fprintf(out, "Joined:   %s\n", user.CreatedAt.Format(time.DateOnly))
				}
				return nil
			})
		},
	}
}
