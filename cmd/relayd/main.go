package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/tendermint/tendermint/libs/cli"
	tmflags "github.com/tendermint/tendermint/libs/cli/flags"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/flightsurety/relay/client/keys"
	"github.com/flightsurety/relay/config"
	"github.com/flightsurety/relay/server"
	inscli "github.com/flightsurety/relay/x/insurance/client/cli"
	oraclecli "github.com/flightsurety/relay/x/oracle/client/cli"
)

const defaultLogLevel = "info"

func main() {
	rootCmd := &cobra.Command{
		Use:          "relayd",
		Short:        "FlightSurety oracle relay",
		SilenceUsage: true,
	}

	queryCmd := oraclecli.GetQueryCmd()
	inscli.AddQueryCommands(queryCmd)

	rootCmd.AddCommand(
		server.InitCmd(),
		server.StartCmd(newLogger),
		keys.Commands(),
		queryCmd,
		inscli.GetTxCmd(),
	)

	executor := cli.PrepareMainCmd(rootCmd, config.EnvPrefix, config.DefaultHome())
	if err := executor.Execute(); err != nil {
		// Execute already printed the error
		os.Exit(1)
	}
}

// newLogger writes human readable lines on a terminal and JSON otherwise.
func newLogger(level string) (log.Logger, error) {
	var logger log.Logger
	if isatty.IsTerminal(os.Stdout.Fd()) {
		logger = log.NewTMLogger(log.NewSyncWriter(os.Stdout))
	} else {
		logger = log.NewTMJSONLogger(log.NewSyncWriter(os.Stdout))
	}
	return tmflags.ParseLogLevel(level, logger, defaultLogLevel)
}
