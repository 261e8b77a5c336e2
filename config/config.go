package config

import (
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	dbm "github.com/tendermint/tendermint/libs/db"

	"github.com/flightsurety/relay/types"
)

const (
	defaultDirName    = ".relayd"
	defaultConfigDir  = "config"
	defaultDataDir    = "data"
	defaultConfigName = "config.toml"

	// EnvPrefix prefixes environment overrides, e.g. RELAYD_RPC_URL.
	EnvPrefix = "RELAYD"
)

// Config is the relay daemon configuration.
type Config struct {
	RootDir string `mapstructure:"home"`

	// Node and contracts
	RPCURL      string `mapstructure:"rpc_url"`
	ChainID     int64  `mapstructure:"chain_id"`
	AppAddress  string `mapstructure:"app_address"`
	DataAddress string `mapstructure:"data_address"`
	AppABIPath  string `mapstructure:"app_abi_path"`
	DataABIPath string `mapstructure:"data_abi_path"`

	// Accounts
	Mnemonic      string `mapstructure:"mnemonic"`
	OracleCount   int    `mapstructure:"oracle_count"`
	AccountOffset int    `mapstructure:"account_offset"`

	// Transactions
	RegistrationFee   string        `mapstructure:"registration_fee"`
	RegisterGasLimit  uint64        `mapstructure:"register_gas_limit"`
	SubmitGasLimit    uint64        `mapstructure:"submit_gas_limit"`
	SubmissionTimeout time.Duration `mapstructure:"submission_timeout"`

	// Event stream
	FromBlock      uint64 `mapstructure:"from_block"`
	DedupCacheSize int    `mapstructure:"dedup_cache_size"`
	HistorySize    int    `mapstructure:"history_size"`

	// Service
	ListenAddr string `mapstructure:"listen_addr"`
	DBBackend  string `mapstructure:"db_backend"`
	DBPath     string `mapstructure:"db_dir"`
	LogLevel   string `mapstructure:"log_level"`
	Prometheus bool   `mapstructure:"prometheus"`
}

// DefaultConfig matches a local ganache/truffle development chain.
func DefaultConfig() *Config {
	return &Config{
		RootDir:           DefaultHome(),
		RPCURL:            "ws://127.0.0.1:8545",
		OracleCount:       20,
		AccountOffset:     20,
		RegistrationFee:   "1 ether",
		RegisterGasLimit:  1000000,
		SubmitGasLimit:    100000,
		SubmissionTimeout: 30 * time.Second,
		FromBlock:         0,
		DedupCacheSize:    4096,
		HistorySize:       100,
		ListenAddr:        "127.0.0.1:3000",
		DBBackend:         string(dbm.GoLevelDBBackend),
		DBPath:            defaultDataDir,
		LogLevel:          "*:info",
		Prometheus:        true,
	}
}

// DefaultHome is $HOME/.relayd, or ./.relayd when the home directory is unknown.
func DefaultHome() string {
	home, err := homedir.Dir()
	if err != nil {
		return defaultDirName
	}
	return filepath.Join(home, defaultDirName)
}

func (cfg *Config) SetRoot(root string) *Config {
	cfg.RootDir = root
	return cfg
}

func (cfg *Config) ConfigFile() string {
	return filepath.Join(cfg.RootDir, defaultConfigDir, defaultConfigName)
}

// DBDir resolves db_dir relative to the home directory.
func (cfg *Config) DBDir() string {
	return rootify(cfg.DBPath, cfg.RootDir)
}

func (cfg *Config) AppABIFile() string {
	return rootify(cfg.AppABIPath, cfg.RootDir)
}

func (cfg *Config) DataABIFile() string {
	return rootify(cfg.DataABIPath, cfg.RootDir)
}

func (cfg *Config) AppContract() common.Address {
	return common.HexToAddress(cfg.AppAddress)
}

func (cfg *Config) DataContract() common.Address {
	return common.HexToAddress(cfg.DataAddress)
}

// ValidateBasic checks the values that do not require a node connection.
func (cfg *Config) ValidateBasic() error {
	if cfg.RPCURL == "" {
		return errors.New("rpc_url is required")
	}
	if !common.IsHexAddress(cfg.AppAddress) {
		return errors.Errorf("app_address %q is not a hex address", cfg.AppAddress)
	}
	if cfg.DataAddress != "" && !common.IsHexAddress(cfg.DataAddress) {
		return errors.Errorf("data_address %q is not a hex address", cfg.DataAddress)
	}
	if cfg.ChainID < 0 {
		return errors.New("chain_id can't be negative")
	}
	if cfg.OracleCount <= 0 {
		return errors.New("oracle_count must be positive")
	}
	if cfg.AccountOffset < 0 {
		return errors.New("account_offset can't be negative")
	}
	if _, err := cfg.RegistrationFeeWei(); err != nil {
		return errors.Wrap(err, "registration_fee")
	}
	if cfg.RegisterGasLimit == 0 || cfg.SubmitGasLimit == 0 {
		return errors.New("gas limits must be positive")
	}
	if cfg.SubmissionTimeout < 0 {
		return errors.New("submission_timeout can't be negative")
	}
	if cfg.DedupCacheSize <= 0 {
		return errors.New("dedup_cache_size must be positive")
	}
	if cfg.HistorySize <= 0 {
		return errors.New("history_size must be positive")
	}
	switch dbm.DBBackendType(cfg.DBBackend) {
	case dbm.GoLevelDBBackend, dbm.MemDBBackend:
	default:
		return errors.Errorf("unsupported db_backend %q", cfg.DBBackend)
	}
	return nil
}

// Load reads the config file under the viper "home" value, when it exists, and
// applies flag and environment overrides already bound to v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if home := v.GetString("home"); home != "" {
		cfg.SetRoot(home)
	}

	v.SetConfigFile(cfg.ConfigFile())
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(cfg.ConfigFile()); !os.IsNotExist(statErr) {
			return nil, errors.Wrapf(err, "read %s", cfg.ConfigFile())
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	return cfg, nil
}

func rootify(path, root string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func (cfg *Config) RegistrationFeeWei() (*big.Int, error) {
	return types.ParseEther(cfg.RegistrationFee)
}
