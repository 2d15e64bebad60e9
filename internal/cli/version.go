package cli

import (
	"fmt"

	"github.com/eleven-am/todosync/pkg/todosync"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display todosync version and build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), todosync.FullVersionInfo())
		},
	}
}
