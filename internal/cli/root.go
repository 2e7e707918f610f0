package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/me/procsim/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string
	flagOutput    string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default server URL, checking PROCSIM_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("PROCSIM_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for the procsim CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "procsim",
		Short: "procsim: process scheduling simulator",
		Long:  "procsim creates simulated processes, forces state changes and drives the scheduler of a procsim server, or runs a simulation locally.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagDebug {
				flagLogLevel = "debug"
			}
			switch flagOutput {
			case outputTable, outputJSON, outputYAML:
			default:
				return fmt.Errorf("unknown output format %q (want table, json or yaml)", flagOutput)
			}
			logger = logging.NewLogger(logging.ParseLevel(flagLogLevel), flagLogFormat)
			client = NewClient(flagServer, logger)
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "procsim server URL (or PROCSIM_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")
	root.PersistentFlags().StringVarP(&flagOutput, "output", "o", outputTable, "Output format (table, json, yaml)")

	root.AddCommand(
		newCreateCmd(),
		newSpawnCmd(),
		newListCmd(),
		newStatusCmd(),
		newSetStateCmd(),
		newCountsCmd(),
		newSchedulerCmd(),
		newHistoryCmd(),
		newWatchCmd(),
		newSimulateCmd(),
	)

	return root
}
