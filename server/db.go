package server

import (
	"fmt"

	dbm "github.com/tendermint/tendermint/libs/db"

	"github.com/flightsurety/relay/config"
	"github.com/flightsurety/relay/x/oracle/types"
)

// DefaultDBProvider opens the named database in the configured backend and
// directory. dbm.NewDB panics when the store can't be opened, e.g. when another
// relay holds the leveldb lock; that panic is returned as an error.
func DefaultDBProvider(id string, cfg *config.Config) (db dbm.DB, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("open %s db in %s: %v", id, cfg.DBDir(), r)
		}
	}()
	return dbm.NewDB(id, dbm.DBBackendType(cfg.DBBackend), cfg.DBDir()), nil
}

// RegistryDB is the part of db holding the oracle registry of the configured
// app contract. Registrations made against another deployment stay invisible.
func RegistryDB(db dbm.DB, cfg *config.Config) dbm.DB {
	return dbm.NewPrefixDB(db, types.DeploymentPrefix(cfg.AppContract()))
}
