package cli

import (
	gocontext "context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/flightsurety/relay/client/context"
	"github.com/flightsurety/relay/server"
	"github.com/flightsurety/relay/x/oracle/keeper"
	"github.com/flightsurety/relay/x/oracle/types"
)

const queryTimeout = 30 * time.Second

type operationalOutput struct {
	Operational bool `json:"operational"`
}

func (o operationalOutput) String() string {
	return fmt.Sprintf("operational: %t", o.Operational)
}

type addressesOutput []common.Address

func (a addressesOutput) String() string {
	lines := make([]string, 0, len(a))
	for _, addr := range a {
		lines = append(lines, addr.Hex())
	}
	return strings.Join(lines, "\n")
}

type oraclesOutput []types.Oracle

func (o oraclesOutput) String() string {
	lines := make([]string, 0, len(o))
	for i, oracle := range o {
		lines = append(lines, fmt.Sprintf("%d\t%s", i, oracle))
	}
	return strings.Join(lines, "\n")
}

// GetCmdQueryOperational implements the isOperational query.
func GetCmdQueryOperational() *cobra.Command {
	return &cobra.Command{
		Use:   "operational",
		Short: "Query whether the app contract is operational",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := context.NewCLIContext()
			if err != nil {
				return err
			}
			ctx, cancel := gocontext.WithTimeout(gocontext.Background(), queryTimeout)
			defer cancel()

			gw, err := cliCtx.Gateway(ctx, nil)
			if err != nil {
				return err
			}
			defer gw.Close()

			operational, err := gw.IsOperational(ctx)
			if err != nil {
				return err
			}
			return cliCtx.PrintOutput(operationalOutput{Operational: operational})
		},
	}
}

// GetCmdQueryAirlines lists the funded airlines.
func GetCmdQueryAirlines() *cobra.Command {
	return &cobra.Command{
		Use:   "airlines",
		Short: "Query the operating airlines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := context.NewCLIContext()
			if err != nil {
				return err
			}
			ctx, cancel := gocontext.WithTimeout(gocontext.Background(), queryTimeout)
			defer cancel()

			gw, err := cliCtx.Gateway(ctx, nil)
			if err != nil {
				return err
			}
			defer gw.Close()

			airlines, err := gw.GetOperatingAirlines(ctx)
			if err != nil {
				return err
			}
			return cliCtx.PrintOutput(addressesOutput(airlines))
		},
	}
}

// GetCmdQueryIndexes asks the contract for the indexes of a registered oracle.
func GetCmdQueryIndexes() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes [oracle-addr]",
		Short: "Query the indexes assigned to an oracle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !common.IsHexAddress(args[0]) {
				return fmt.Errorf("%q is not a hex address", args[0])
			}
			cliCtx, err := context.NewCLIContext()
			if err != nil {
				return err
			}
			ctx, cancel := gocontext.WithTimeout(gocontext.Background(), queryTimeout)
			defer cancel()

			gw, err := cliCtx.Gateway(ctx, nil)
			if err != nil {
				return err
			}
			defer gw.Close()

			indexes, err := gw.OracleIndexes(ctx, common.HexToAddress(args[0]))
			if err != nil {
				return err
			}
			return cliCtx.PrintOutput(indexes)
		},
	}
}

// GetCmdQueryRegistry prints the registrations persisted by the relay. It
// opens the relay's store, so it can't run while the relay holds the lock.
func GetCmdQueryRegistry() *cobra.Command {
	return &cobra.Command{
		Use:   "registry",
		Short: "Query the locally persisted oracle registry of the configured app contract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := context.NewCLIContext()
			if err != nil {
				return err
			}
			db, err := server.DefaultDBProvider(types.ModuleName, cliCtx.Config)
			if err != nil {
				return err
			}
			defer db.Close()

			k := keeper.NewKeeper(types.ModuleCdc, server.RegistryDB(db, cliCtx.Config))
			if _, err := k.Load(); err != nil {
				return err
			}
			return cliCtx.PrintOutput(oraclesOutput(k.Oracles()))
		},
	}
}
