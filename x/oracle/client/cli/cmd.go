package cli

import (
	"github.com/spf13/cobra"

	"github.com/flightsurety/relay/client"
)

// GetQueryCmd returns the oracle and contract query commands. Commands added
// to root by the insurance module share it.
func GetQueryCmd() *cobra.Command {
	queryCmd := &cobra.Command{
		Use:     "query",
		Aliases: []string{"q"},
		Short:   "Querying subcommands",
	}

	queryCmd.AddCommand(
		client.GetCommands(
			GetCmdQueryOperational(),
			GetCmdQueryAirlines(),
			GetCmdQueryIndexes(),
		)...,
	)
	queryCmd.AddCommand(client.LineBreak)
	queryCmd.AddCommand(GetCmdQueryRegistry())
	return queryCmd
}
