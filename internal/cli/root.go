package cli

import (
	"github.com/eleven-am/todosync/internal/logger"
	"github.com/eleven-am/todosync/pkg/todosync"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Global configuration variables
var (
	configFile      string
	cliConfig       *Config
	apiURL          string
	credentialStore string
	credentialPath  string
	debug           bool
	verbose         bool
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "todosync",
		Short: "todosync - todo list client",
		Long: `todosync signs in to a todo API and manages your personal todo list
from the command line.

The bearer token is kept in a local credential cache and reused across runs
until you log out or the server rejects it.`,
		Version:       todosync.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Configure(debug, verbose)

			if err := godotenv.Load(); err != nil {
				logger.CLI().Debug("No .env file loaded", "error", err)
			}

			cfg, err := LoadConfig(configFile)
			if err != nil {
				if configFile != "" {
					return err
				}
				logger.CLI().Warn("Failed to load config file", "error", err)
			}
			if cfg == nil {
				cfg = DefaultConfig()
			}
			if err := ApplyEnv(cfg); err != nil {
				return err
			}

			if apiURL != "" {
				cfg.API.BaseURL = apiURL
			}
			if credentialStore != "" {
				cfg.Credentials.Backend = credentialStore
			}
			if credentialPath != "" {
				cfg.Credentials.Path = credentialPath
			}
			cfg.applyDefaults()
			cliConfig = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: todosync.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API base URL, including /api/v1")
	rootCmd.PersistentFlags().StringVar(&credentialStore, "credentials", "", "credential backend (file, sql, memory)")
	rootCmd.PersistentFlags().StringVar(&credentialPath, "credentials-path", "", "credential file for the file backend")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose output")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newRegisterCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newTodoCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
