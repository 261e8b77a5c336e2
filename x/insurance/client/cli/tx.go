package cli

import (
	gocontext "context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/flightsurety/relay/client"
	"github.com/flightsurety/relay/client/context"
	sdk "github.com/flightsurety/relay/types"
	"github.com/flightsurety/relay/x/insurance/types"
)

// transactions wait for their receipt
const txTimeout = 2 * time.Minute

type receiptOutput struct {
	TxHash      common.Hash `json:"tx_hash"`
	BlockNumber *big.Int    `json:"block_number"`
	GasUsed     uint64      `json:"gas_used"`
}

func (r receiptOutput) String() string {
	return fmt.Sprintf("tx %s mined in block %v (gas used %d)", r.TxHash.Hex(), r.BlockNumber, r.GasUsed)
}

type txFunc func(ctx gocontext.Context, contract types.Contract, from common.Address) (*ethtypes.Receipt, error)

// runTx signs with the --from-index account, asks for confirmation and
// prints the receipt.
func runTx(description string, fn txFunc) error {
	cliCtx, err := context.NewCLIContext()
	if err != nil {
		return err
	}
	keys, err := cliCtx.Keyring()
	if err != nil {
		return err
	}
	from, err := keys.Account(client.FromIndex())
	if err != nil {
		return err
	}

	ok, err := cliCtx.Confirm(fmt.Sprintf("%s from %s?", description, from.Hex()), viper.GetBool(client.FlagYes))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("aborted")
	}

	ctx, cancel := gocontext.WithTimeout(gocontext.Background(), txTimeout)
	defer cancel()
	gw, err := cliCtx.Gateway(ctx, keys)
	if err != nil {
		return err
	}
	defer gw.Close()

	receipt, err := fn(ctx, gw, from)
	if err != nil {
		return err
	}
	return cliCtx.PrintOutput(receiptOutput{TxHash: receipt.TxHash, BlockNumber: receipt.BlockNumber, GasUsed: receipt.GasUsed})
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%q is not a hex address", s)
	}
	return common.HexToAddress(s), nil
}

func amountFlag(cmd *cobra.Command, def string) {
	cmd.Flags().String(client.FlagAmount, def, "amount in ether, or with a unit (wei, gwei, ether)")
}

func amount() (*big.Int, error) {
	return sdk.ParseEther(viper.GetString(client.FlagAmount))
}

// GetCmdAuthorizeCaller allows the app contract to write to the data contract.
func GetCmdAuthorizeCaller() *cobra.Command {
	return &cobra.Command{
		Use:   "authorize-caller",
		Short: "Authorize the app contract on the data contract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTx("Authorize the app contract", func(ctx gocontext.Context, c types.Contract, from common.Address) (*ethtypes.Receipt, error) {
				return c.AuthorizeCaller(ctx, from)
			})
		},
	}
}

func GetCmdRegisterAirline() *cobra.Command {
	return &cobra.Command{
		Use:   "register-airline [airline-addr]",
		Short: "Register an airline, sponsored by the signing airline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			airline, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			return runTx("Register airline "+airline.Hex(), func(ctx gocontext.Context, c types.Contract, from common.Address) (*ethtypes.Receipt, error) {
				return c.RegisterAirline(ctx, from, airline)
			})
		},
	}
}

// GetCmdFundAirline funds the signing account as an airline. The argument must
// match the signer.
func GetCmdFundAirline() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fund-airline [airline-addr]",
		Short: "Pay the airline participation stake",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			airline, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			value, err := amount()
			if err != nil {
				return err
			}
			desc := fmt.Sprintf("Fund airline %s with %s ether", airline.Hex(), sdk.FormatEther(value))
			return runTx(desc, fundAirlineTx(airline, value))
		},
	}
	amountFlag(cmd, sdk.FormatEther(types.AirlineFunding()))
	return cmd
}

func fundAirlineTx(airline common.Address, value *big.Int) txFunc {
	return func(ctx gocontext.Context, c types.Contract, from common.Address) (*ethtypes.Receipt, error) {
		if from != airline {
			return nil, fmt.Errorf("airline %s must sign its own funding, signer is %s", airline.Hex(), from.Hex())
		}
		return c.FundAirline(ctx, airline, value)
	}
}

func GetCmdBuyInsurance() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buy-insurance [flight]",
		Short: "Buy flight delay insurance for the signing passenger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			premium, err := amount()
			if err != nil {
				return err
			}
			desc := fmt.Sprintf("Insure flight %s for %s ether", args[0], sdk.FormatEther(premium))
			return runTx(desc, func(ctx gocontext.Context, c types.Contract, from common.Address) (*ethtypes.Receipt, error) {
				return c.BuyInsurance(ctx, from, args[0], premium)
			})
		},
	}
	amountFlag(cmd, "1")
	return cmd
}

func GetCmdPayout() *cobra.Command {
	return &cobra.Command{
		Use:   "payout [insuree-addr] [amount]",
		Short: "Withdraw an insurance payout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			insuree, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			value, err := sdk.ParseEther(args[1])
			if err != nil {
				return err
			}
			desc := fmt.Sprintf("Pay out %s ether to %s", sdk.FormatEther(value), insuree.Hex())
			return runTx(desc, payoutTx(insuree, value))
		},
	}
}

func payoutTx(insuree common.Address, value *big.Int) txFunc {
	return func(ctx gocontext.Context, c types.Contract, from common.Address) (*ethtypes.Receipt, error) {
		if from != insuree {
			return nil, fmt.Errorf("insuree %s must sign its own payout, signer is %s", insuree.Hex(), from.Hex())
		}
		return c.PayoutInsuree(ctx, insuree, value)
	}
}

// GetCmdFetchFlightStatus asks the oracles for a flight status, which makes
// the contract emit OracleRequest.
func GetCmdFetchFlightStatus() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch-flight-status [airline-addr] [flight] [timestamp]",
		Short: "Request a flight status from the oracles",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			airline, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			timestamp, ok := new(big.Int).SetString(args[2], 10)
			if !ok || timestamp.Sign() < 0 {
				return fmt.Errorf("invalid timestamp %q", args[2])
			}
			desc := fmt.Sprintf("Request status of %s %s at %s", airline.Hex(), args[1], timestamp)
			return runTx(desc, func(ctx gocontext.Context, c types.Contract, from common.Address) (*ethtypes.Receipt, error) {
				return c.FetchFlightStatus(ctx, from, airline, args[1], timestamp)
			})
		},
	}
}

// GetCmdQueryBalance reads an insuree's payout balance.
func GetCmdQueryBalance() *cobra.Command {
	return &cobra.Command{
		Use:   "balance [insuree-addr]",
		Short: "Query an insuree's payout balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			insuree, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			cliCtx, err := context.NewCLIContext()
			if err != nil {
				return err
			}
			ctx, cancel := gocontext.WithTimeout(gocontext.Background(), txTimeout)
			defer cancel()
			gw, err := cliCtx.Gateway(ctx, nil)
			if err != nil {
				return err
			}
			defer gw.Close()

			balance, err := gw.GetInsureeBalance(ctx, insuree)
			if err != nil {
				return err
			}
			return cliCtx.PrintOutput(balanceOutput{Insuree: insuree, Wei: balance})
		},
	}
}

type balanceOutput struct {
	Insuree common.Address `json:"insuree"`
	Wei     *big.Int       `json:"wei"`
}

func (b balanceOutput) String() string {
	return fmt.Sprintf("%s: %s ether", b.Insuree.Hex(), sdk.FormatEther(b.Wei))
}
