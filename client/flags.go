package client

import (
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/flightsurety/relay/config"
)

// Flag names match the config keys they override, as tendermint's node flags do.
const (
	FlagRPCURL      = "rpc_url"
	FlagChainID     = "chain_id"
	FlagAppAddress  = "app_address"
	FlagDataAddress = "data_address"
	FlagAppABIPath  = "app_abi_path"
	FlagDataABIPath = "data_abi_path"

	FlagFromIndex = "from-index"
	FlagAmount    = "amount"
	FlagYes       = "yes"
)

// common flagsets to add to various functions
var (
	fsNode   = flag.NewFlagSet("", flag.ContinueOnError)
	fsSigner = flag.NewFlagSet("", flag.ContinueOnError)
)

func init() {
	def := config.DefaultConfig()
	fsNode.String(FlagRPCURL, def.RPCURL, "ethereum node endpoint (ws:// or http://)")
	fsNode.String(FlagAppAddress, def.AppAddress, "FlightSuretyApp contract address")
	fsNode.String(FlagAppABIPath, def.AppABIPath, "FlightSuretyApp abi or truffle artifact")
	fsNode.Int64(FlagChainID, def.ChainID, "chain id, 0 to ask the node")

	fsSigner.String(FlagDataAddress, def.DataAddress, "FlightSuretyData contract address")
	fsSigner.String(FlagDataABIPath, def.DataABIPath, "FlightSuretyData abi or truffle artifact")
	fsSigner.Uint32(FlagFromIndex, 0, "wallet account index that signs the transaction")
	fsSigner.BoolP(FlagYes, "y", false, "skip the confirmation prompt")
}

// LineBreak can be included in a command list to provide a blank line
// to help with readability
var LineBreak = &cobra.Command{Run: func(*cobra.Command, []string) {}}

// GetCommands adds the node connection flags to read-only commands.
func GetCommands(cmds ...*cobra.Command) []*cobra.Command {
	for _, c := range cmds {
		c.Flags().AddFlagSet(fsNode)
	}
	return cmds
}

// PostCommands adds the connection and signing flags to transaction commands.
func PostCommands(cmds ...*cobra.Command) []*cobra.Command {
	for _, c := range GetCommands(cmds...) {
		c.Flags().AddFlagSet(fsSigner)
	}
	return cmds
}

// FromIndex is the signing account index of a transaction command.
func FromIndex() uint32 {
	return viper.GetUint32(FlagFromIndex)
}
