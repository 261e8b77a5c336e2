package config

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// toTree lays the config out as the file `relayd init` writes. The mnemonic is
// only written when set; it is usually supplied by env or prompt.
func (cfg *Config) toTree() (*toml.Tree, error) {
	m := map[string]interface{}{
		"rpc_url":            cfg.RPCURL,
		"chain_id":           cfg.ChainID,
		"app_address":        cfg.AppAddress,
		"data_address":       cfg.DataAddress,
		"app_abi_path":       cfg.AppABIPath,
		"data_abi_path":      cfg.DataABIPath,
		"oracle_count":       int64(cfg.OracleCount),
		"account_offset":     int64(cfg.AccountOffset),
		"registration_fee":   cfg.RegistrationFee,
		"register_gas_limit": int64(cfg.RegisterGasLimit),
		"submit_gas_limit":   int64(cfg.SubmitGasLimit),
		"submission_timeout": cfg.SubmissionTimeout.String(),
		"from_block":         int64(cfg.FromBlock),
		"dedup_cache_size":   int64(cfg.DedupCacheSize),
		"history_size":       int64(cfg.HistorySize),
		"listen_addr":        cfg.ListenAddr,
		"db_backend":         cfg.DBBackend,
		"db_dir":             cfg.DBPath,
		"log_level":          cfg.LogLevel,
		"prometheus":         cfg.Prometheus,
	}
	if cfg.Mnemonic != "" {
		m["mnemonic"] = cfg.Mnemonic
	}
	return toml.TreeFromMap(m)
}

// WriteConfigFile writes cfg to its config file, creating the directory. An
// existing file is left untouched unless overwrite is set.
func WriteConfigFile(cfg *Config, overwrite bool) (string, error) {
	path := cfg.ConfigFile()
	if _, err := os.Stat(path); err == nil && !overwrite {
		return path, errors.Errorf("%s already exists", path)
	}

	tree, err := cfg.toTree()
	if err != nil {
		return path, errors.Wrap(err, "encode config")
	}
	out, err := tree.ToTomlString()
	if err != nil {
		return path, errors.Wrap(err, "encode config")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return path, err
	}
	// the file may carry a mnemonic
	return path, ioutil.WriteFile(path, []byte(out), 0600)
}
