package keeper

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/tendermint/go-amino"
	dbm "github.com/tendermint/tendermint/libs/db"

	"github.com/flightsurety/relay/x/oracle/types"
)

// Keeper is the oracle registry. It holds every registered oracle in
// registration order together with an index -> oracles view, and persists
// registrations so that a restarted relay does not pay the registration fee again.
//
// Writes happen during bootstrap only; after Seal the keeper is read-only.
// Sequences only grow, so a removed record leaves a gap and is never reused.
type Keeper struct {
	cdc *amino.Codec
	db  dbm.DB

	mtx          sync.RWMutex
	sealed       bool
	oracles      []types.Oracle
	sequences    []int64
	nextSequence int64
	byIdentity   map[common.Address]int
	byIndex      map[uint8][]common.Address
}

// NewKeeper creates a registry backed by db. A nil db keeps registrations in memory only.
func NewKeeper(cdc *amino.Codec, db dbm.DB) *Keeper {
	return &Keeper{
		cdc:        cdc,
		db:         db,
		byIdentity: make(map[common.Address]int),
		byIndex:    make(map[uint8][]common.Address),
	}
}

// Register adds an oracle. An identity registers at most once: a second
// registration fails with a DuplicateRegistrationError and leaves the registry untouched.
func (k *Keeper) Register(oracle types.Oracle) error {
	if err := oracle.ValidateBasic(); err != nil {
		return err
	}

	k.mtx.Lock()
	defer k.mtx.Unlock()

	if k.sealed {
		return types.ErrRegistrySealed
	}
	if _, ok := k.byIdentity[oracle.Identity]; ok {
		return types.DuplicateRegistrationError{Identity: oracle.Identity}
	}

	sequence := k.nextSequence
	if err := k.persist(oracle, sequence); err != nil {
		return err
	}
	k.nextSequence++
	k.add(oracle, sequence)
	return nil
}

// Reassign replaces the indexes of an oracle already in the registry, keeping
// its place in registration order.
func (k *Keeper) Reassign(oracle types.Oracle) error {
	if err := oracle.ValidateBasic(); err != nil {
		return err
	}

	k.mtx.Lock()
	defer k.mtx.Unlock()

	if k.sealed {
		return types.ErrRegistrySealed
	}
	i, ok := k.byIdentity[oracle.Identity]
	if !ok {
		return errors.Wrap(types.ErrUnknownOracle, oracle.Identity.Hex())
	}
	if err := k.persist(oracle, k.sequences[i]); err != nil {
		return err
	}
	k.oracles[i] = oracle
	k.reindex()
	return nil
}

// Remove drops an oracle and its stored record.
func (k *Keeper) Remove(identity common.Address) error {
	k.mtx.Lock()
	defer k.mtx.Unlock()

	if k.sealed {
		return types.ErrRegistrySealed
	}
	i, ok := k.byIdentity[identity]
	if !ok {
		return errors.Wrap(types.ErrUnknownOracle, identity.Hex())
	}
	if k.db != nil {
		k.db.DeleteSync(types.GetOracleKey(k.sequences[i]))
	}
	k.oracles = append(k.oracles[:i], k.oracles[i+1:]...)
	k.sequences = append(k.sequences[:i], k.sequences[i+1:]...)
	k.reindex()
	return nil
}

func (k *Keeper) persist(oracle types.Oracle, sequence int64) error {
	if k.db == nil {
		return nil
	}
	bz, err := k.cdc.MarshalBinaryBare(oracle.SerializeForDB(sequence))
	if err != nil {
		return errors.Wrapf(err, "encode oracle %s", oracle.Identity.Hex())
	}
	k.db.SetSync(types.GetOracleKey(sequence), bz)
	return nil
}

// Load restores persisted registrations in registration order. It must run
// before any Register call and returns the number of oracles restored.
func (k *Keeper) Load() (int, error) {
	if k.db == nil {
		return 0, nil
	}

	k.mtx.Lock()
	defer k.mtx.Unlock()

	if k.sealed {
		return 0, types.ErrRegistrySealed
	}
	if len(k.oracles) != 0 {
		return 0, errors.New("registry already populated")
	}

	itr := dbm.IteratePrefix(k.db, types.OracleKeyPrefix())
	defer itr.Close()

	for ; itr.Valid(); itr.Next() {
		var dbOracle types.DBOracle
		if err := k.cdc.UnmarshalBinaryBare(itr.Value(), &dbOracle); err != nil {
			return len(k.oracles), errors.Wrapf(err, "decode oracle at key %X", itr.Key())
		}
		if dbOracle.Sequence < k.nextSequence {
			return len(k.oracles), errors.Errorf("wrong sequence, expected>=%d, stored=%d", k.nextSequence, dbOracle.Sequence)
		}

		oracle, err := dbOracle.DeserializeFromDB()
		if err != nil {
			return len(k.oracles), errors.Wrapf(err, "oracle with sequence %d", dbOracle.Sequence)
		}
		if _, ok := k.byIdentity[oracle.Identity]; ok {
			return len(k.oracles), types.DuplicateRegistrationError{Identity: oracle.Identity}
		}
		k.nextSequence = dbOracle.Sequence + 1
		k.add(oracle, dbOracle.Sequence)
	}
	return len(k.oracles), nil
}

func (k *Keeper) add(oracle types.Oracle, sequence int64) {
	k.byIdentity[oracle.Identity] = len(k.oracles)
	k.oracles = append(k.oracles, oracle)
	k.sequences = append(k.sequences, sequence)
	for _, index := range oracle.Indexes {
		k.byIndex[index] = append(k.byIndex[index], oracle.Identity)
	}
}

func (k *Keeper) reindex() {
	k.byIdentity = make(map[common.Address]int, len(k.oracles))
	k.byIndex = make(map[uint8][]common.Address)
	for i, oracle := range k.oracles {
		k.byIdentity[oracle.Identity] = i
		for _, index := range oracle.Indexes {
			k.byIndex[index] = append(k.byIndex[index], oracle.Identity)
		}
	}
}

// OraclesForIndex returns, in registration order, every oracle whose index set
// contains index. The result is empty, never nil, when nothing matches.
func (k *Keeper) OraclesForIndex(index uint8) []common.Address {
	k.mtx.RLock()
	defer k.mtx.RUnlock()

	matches := k.byIndex[index]
	res := make([]common.Address, len(matches))
	copy(res, matches)
	return res
}

func (k *Keeper) GetOracle(identity common.Address) (types.Oracle, bool) {
	k.mtx.RLock()
	defer k.mtx.RUnlock()

	i, ok := k.byIdentity[identity]
	if !ok {
		return types.Oracle{}, false
	}
	return k.oracles[i], true
}

// Oracles returns all registered oracles in registration order.
func (k *Keeper) Oracles() []types.Oracle {
	k.mtx.RLock()
	defer k.mtx.RUnlock()

	res := make([]types.Oracle, len(k.oracles))
	copy(res, k.oracles)
	return res
}

func (k *Keeper) Len() int {
	k.mtx.RLock()
	defer k.mtx.RUnlock()
	return len(k.oracles)
}

// Seal makes the registry read-only.
func (k *Keeper) Seal() {
	k.mtx.Lock()
	k.sealed = true
	k.mtx.Unlock()
}

func (k *Keeper) IsSealed() bool {
	k.mtx.RLock()
	defer k.mtx.RUnlock()
	return k.sealed
}
