package keys

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/flightsurety/relay/client/context"
)

type account struct {
	Index   uint32         `json:"index"`
	Address common.Address `json:"address"`
}

type accounts []account

func (a accounts) String() string {
	lines := make([]string, 0, len(a))
	for _, acc := range a {
		lines = append(lines, fmt.Sprintf("%d\t%s", acc.Index, acc.Address.Hex()))
	}
	return strings.Join(lines, "\n")
}

// Commands registers a sub-tree of commands to inspect the wallet.
func Commands() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Inspect the accounts derived from the wallet mnemonic",
	}
	cmd.AddCommand(listKeysCmd())
	return cmd
}

func listKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the oracle accounts the relay registers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := context.NewCLIContext()
			if err != nil {
				return err
			}
			keys, err := cliCtx.Keyring()
			if err != nil {
				return err
			}
			offset, count := uint32(cliCtx.Config.AccountOffset), uint32(cliCtx.Config.OracleCount)
			addrs, err := keys.Accounts(offset, count)
			if err != nil {
				return err
			}

			res := make(accounts, len(addrs))
			for i, addr := range addrs {
				res[i] = account{Index: offset + uint32(i), Address: addr}
			}
			return cliCtx.PrintOutput(res)
		},
	}
}
