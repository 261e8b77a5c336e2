package context

import (
	"bufio"
	gocontext "context"
	"io"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/tendermint/tendermint/libs/cli"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/flightsurety/relay/client/input"
	"github.com/flightsurety/relay/client/utils"
	"github.com/flightsurety/relay/config"
	"github.com/flightsurety/relay/gateway"
)

// CLIContext carries what a command needs to reach the contracts.
type CLIContext struct {
	Config *config.Config
	Output string
	Logger log.Logger

	// shared so piped answers are not lost between prompts
	Input *bufio.Reader
	Out   io.Writer
}

// NewCLIContext loads the configuration from viper, where flags, environment
// and the config file have already been merged.
func NewCLIContext() (CLIContext, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return CLIContext{}, err
	}
	return CLIContext{
		Config: cfg,
		Output: viper.GetString(cli.OutputFlag),
		Logger: log.NewNopLogger(),
		Input:  bufio.NewReader(os.Stdin),
		Out:    os.Stdout,
	}, nil
}

func (ctx CLIContext) WithInput(r io.Reader) CLIContext {
	ctx.Input = bufio.NewReader(r)
	return ctx
}

func (ctx CLIContext) WithOutput(w io.Writer) CLIContext {
	ctx.Out = w
	return ctx
}

// Keyring opens the wallet, prompting for the mnemonic when none is configured.
func (ctx CLIContext) Keyring() (*gateway.Keyring, error) {
	mnemonic, err := ResolveMnemonic(ctx.Config, ctx.Input)
	if err != nil {
		return nil, err
	}
	return gateway.NewKeyring(mnemonic)
}

// ResolveMnemonic returns the configured mnemonic, or asks for one.
func ResolveMnemonic(cfg *config.Config, buf *bufio.Reader) (string, error) {
	if cfg.Mnemonic != "" {
		return cfg.Mnemonic, nil
	}
	mnemonic, err := input.GetMnemonic("Enter the wallet mnemonic: ", buf)
	if err != nil {
		return "", errors.Wrap(err, "no mnemonic configured")
	}
	return mnemonic, nil
}

// GatewayConfig maps the relay configuration onto the contract gateway.
func GatewayConfig(cfg *config.Config) (gateway.Config, error) {
	fee, err := cfg.RegistrationFeeWei()
	if err != nil {
		return gateway.Config{}, err
	}
	gwCfg := gateway.Config{
		AppAddress:       cfg.AppContract(),
		DataAddress:      cfg.DataContract(),
		AppABIPath:       cfg.AppABIFile(),
		DataABIPath:      cfg.DataABIFile(),
		RegistrationFee:  fee,
		RegisterGasLimit: cfg.RegisterGasLimit,
		SubmitGasLimit:   cfg.SubmitGasLimit,
	}
	if cfg.ChainID > 0 {
		gwCfg.ChainID = new(big.Int).SetInt64(cfg.ChainID)
	}
	return gwCfg, nil
}

// Gateway dials the configured node. keys may be nil for read-only use.
func (ctx CLIContext) Gateway(c gocontext.Context, keys *gateway.Keyring) (*gateway.Gateway, error) {
	if !common.IsHexAddress(ctx.Config.AppAddress) {
		return nil, errors.Errorf("app_address %q is not a hex address", ctx.Config.AppAddress)
	}
	gwCfg, err := GatewayConfig(ctx.Config)
	if err != nil {
		return nil, err
	}
	return gateway.Dial(c, ctx.Config.RPCURL, gwCfg, keys, ctx.Logger)
}

// Confirm asks before sending a transaction unless skip is set.
func (ctx CLIContext) Confirm(prompt string, skip bool) (bool, error) {
	if skip {
		return true, nil
	}
	return input.GetConfirmation(prompt, ctx.Input)
}

func (ctx CLIContext) PrintOutput(v interface{}) error {
	return utils.PrintOutput(ctx.Out, ctx.Output, v)
}
