package cli

import (
	"log/slog"
	"os"

	"github.com/me/prodigy/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default server URL, checking PRODIGY_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("PRODIGY_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for the prodigy CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "prodigy",
		Short: "Prodigy: schedule and track fault injections",
		Long:  "Prodigy creates fault entries, advances them through their lifecycle and queries their status.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLoggerWithWriter(logging.ParseLevel(flagLogLevel), flagLogFormat, cmd.ErrOrStderr())
			client = NewClient(flagServer, logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "Prodigy server URL (or PRODIGY_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newCreateCmd(),
		newAdvanceCmd(),
		newCancelCmd(),
		newStatusCmd(),
		newListCmd(),
		newHintCmd(),
	)

	return root
}
