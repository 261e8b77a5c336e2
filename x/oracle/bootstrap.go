package oracle

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/flightsurety/relay/x/oracle/keeper"
	"github.com/flightsurety/relay/x/oracle/types"
)

// RegistrationResult is the bootstrap outcome for one candidate account.
type RegistrationResult struct {
	Identity common.Address
	Indexes  types.Indexes
	// Restored is set when the contract confirmed a stored registration and
	// no transaction was sent.
	Restored bool
	// Stale is set when the keeper held the oracle but the contract did not
	// report the same indexes.
	Stale bool
	Err   error
}

// RegisterOracles makes the keeper agree with the contract for every candidate.
// A stored oracle is checked with OracleIndexes: matching indexes are kept,
// other indexes the contract reports are adopted, and an oracle the contract
// does not know is registered again. Unknown candidates are registered.
// Contract calls run concurrently; a failure for one candidate is reported in
// its result and does not stop the others. A stored oracle that cannot be
// confirmed or registered is removed from the keeper.
func RegisterOracles(ctx context.Context, k *keeper.Keeper, registrar types.OracleRegistrar,
	candidates []common.Address, logger log.Logger) []RegistrationResult {
	results := make([]RegistrationResult, len(candidates))
	known := make([]bool, len(candidates))

	var wg sync.WaitGroup
	for i, candidate := range candidates {
		results[i].Identity = candidate
		stored, ok := k.GetOracle(candidate)
		known[i] = ok

		wg.Add(1)
		go func(res *RegistrationResult, stored types.Oracle, ok bool) {
			defer wg.Done()
			if ok {
				indexes, err := registrar.OracleIndexes(ctx, res.Identity)
				if err == nil && indexes.ValidateBasic() == nil {
					res.Indexes = indexes
					res.Restored = indexes == stored.Indexes
					res.Stale = !res.Restored
					return
				}
				res.Stale = true
			}
			res.Indexes, res.Err = registrar.RegisterOracle(ctx, res.Identity)
		}(&results[i], stored, ok)
	}
	wg.Wait()

	for i := range results {
		res := &results[i]
		switch {
		case res.Restored:
			logger.Info("restored oracle", "oracle", res.Identity.Hex(), "indexes", res.Indexes.String())
		case res.Err != nil:
			logger.Error("failed to register oracle", "oracle", res.Identity.Hex(), "err", res.Err)
			if known[i] {
				if err := k.Remove(res.Identity); err != nil {
					logger.Error("failed to drop stale oracle", "oracle", res.Identity.Hex(), "err", err)
				}
			}
		case known[i]:
			if err := k.Reassign(types.NewOracle(res.Identity, res.Indexes)); err != nil {
				res.Err = err
				logger.Error("failed to record oracle", "oracle", res.Identity.Hex(), "err", err)
				if err := k.Remove(res.Identity); err != nil {
					logger.Error("failed to drop stale oracle", "oracle", res.Identity.Hex(), "err", err)
				}
				continue
			}
			logger.Info("refreshed stale oracle", "oracle", res.Identity.Hex(), "indexes", res.Indexes.String())
		default:
			if err := k.Register(types.NewOracle(res.Identity, res.Indexes)); err != nil {
				res.Err = err
				logger.Error("failed to record oracle", "oracle", res.Identity.Hex(), "err", err)
				continue
			}
			logger.Info("registered oracle", "oracle", res.Identity.Hex(), "indexes", res.Indexes.String())
		}
	}
	return results
}
