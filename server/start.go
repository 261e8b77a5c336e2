package server

import (
	"bufio"
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	cmn "github.com/tendermint/tendermint/libs/common"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/flightsurety/relay/client"
	clientctx "github.com/flightsurety/relay/client/context"
	"github.com/flightsurety/relay/config"
	"github.com/flightsurety/relay/gateway"
	"github.com/flightsurety/relay/x/oracle"
	"github.com/flightsurety/relay/x/oracle/types"
)

const (
	flagOracleCount   = "oracle_count"
	flagAccountOffset = "account_offset"
	flagFromBlock     = "from_block"
	flagListenAddr    = "listen_addr"
	flagDBBackend     = "db_backend"
	flagDBDir         = "db_dir"
	flagPrometheus    = "prometheus"

	metricsNamespace = "relayd"
)

// LoggerFactory builds the daemon logger once the configured level is known.
type LoggerFactory func(level string) (log.Logger, error)

// StartCmd runs the relay until interrupted.
func StartCmd(newLogger LoggerFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Register the oracles and answer OracleRequest events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			if err := cfg.ValidateBasic(); err != nil {
				return errors.Wrap(err, "invalid config")
			}
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			return startRelay(cfg, logger)
		},
	}

	def := config.DefaultConfig()
	client.GetCommands(cmd)
	cmd.Flags().String(client.FlagDataAddress, def.DataAddress, "FlightSuretyData contract address")
	cmd.Flags().Int(flagOracleCount, def.OracleCount, "number of oracle accounts to register")
	cmd.Flags().Int(flagAccountOffset, def.AccountOffset, "wallet index of the first oracle account")
	cmd.Flags().Uint64(flagFromBlock, def.FromBlock, "block to replay OracleRequest events from")
	cmd.Flags().String(flagListenAddr, def.ListenAddr, "REST listen address")
	cmd.Flags().String(flagDBBackend, def.DBBackend, "registry database backend (goleveldb|memdb)")
	cmd.Flags().String(flagDBDir, def.DBPath, "registry database directory, relative to home")
	cmd.Flags().Bool(flagPrometheus, def.Prometheus, "serve prometheus metrics at /metrics")
	return cmd
}

func startRelay(cfg *config.Config, logger log.Logger) error {
	mnemonic, err := clientctx.ResolveMnemonic(cfg, bufio.NewReader(os.Stdin))
	if err != nil {
		return err
	}
	keys, err := gateway.NewKeyring(mnemonic)
	if err != nil {
		return err
	}
	candidates, err := keys.Accounts(uint32(cfg.AccountOffset), uint32(cfg.OracleCount))
	if err != nil {
		return err
	}

	gwCfg, err := clientctx.GatewayConfig(cfg)
	if err != nil {
		return err
	}
	gw, err := gateway.Dial(context.Background(), cfg.RPCURL, gwCfg, keys, logger.With("module", "gateway"))
	if err != nil {
		return err
	}
	defer gw.Close()
	logger.Info("connected to node", "url", cfg.RPCURL, "chain_id", gw.ChainID(), "app", cfg.AppContract().Hex())

	db, err := DefaultDBProvider(types.ModuleName, cfg)
	if err != nil {
		return err
	}

	var metrics *oracle.Metrics
	if cfg.Prometheus {
		metrics = oracle.PrometheusMetrics(metricsNamespace)
	}
	relay, err := NewRelay(cfg, gw, candidates, db, logger.With("module", "relay"), metrics)
	if err != nil {
		db.Close()
		return err
	}
	if err := relay.Start(); err != nil {
		return err
	}

	cmn.TrapSignal(logger, func() {
		if err := relay.Stop(); err != nil {
			logger.Error("error while stopping relay", "err", err)
		}
		gw.Close()
	})

	// run forever
	select {}
}
