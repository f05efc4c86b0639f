package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"telegram-game-bot/internal/config"
	"telegram-game-bot/internal/infra/logging"
)

var (
	cfgPath string
	devMode bool
	logger  *zerolog.Logger
)

func Execute() error {
	root := newRootCmd()
	return root.Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "gamebotctl",
		Short:        "Operator tool for the Telegram game bot",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "info"
			if devMode {
				level = "debug"
			}
			logger = logging.New(config.LogConfig{Level: level, Format: "console"}, devMode)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to YAML config file")
	root.PersistentFlags().BoolVar(&devMode, "dev", false, "developer mode (debug logging)")

	root.AddCommand(verifyCmd(), migrateCmd(), seedCmd(), resetGamesCmd(), versionCmd())
	return root
}

// loadConfig is used by the commands that touch a database.
func loadConfig() (*config.Config, error) {
	return config.LoadConfig(cfgPath, devMode)
}
