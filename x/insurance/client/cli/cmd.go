package cli

import (
	"github.com/spf13/cobra"

	"github.com/flightsurety/relay/client"
)

// GetTxCmd returns the airline and passenger transaction commands.
func GetTxCmd() *cobra.Command {
	txCmd := &cobra.Command{
		Use:   "tx",
		Short: "Transactions subcommands",
	}
	txCmd.AddCommand(
		client.PostCommands(
			GetCmdAuthorizeCaller(),
			GetCmdRegisterAirline(),
			GetCmdFundAirline(),
			GetCmdBuyInsurance(),
			GetCmdPayout(),
			GetCmdFetchFlightStatus(),
		)...,
	)
	return txCmd
}

// AddQueryCommands adds the insurance queries to the query command.
func AddQueryCommands(queryCmd *cobra.Command) {
	queryCmd.AddCommand(client.GetCommands(GetCmdQueryBalance())...)
}
