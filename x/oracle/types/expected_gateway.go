package types

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// OracleRegistrar registers an oracle account with the app contract and
// reads back the indexes the contract assigned to it. OracleIndexes fails for
// an account the contract does not know.
type OracleRegistrar interface {
	RegisterOracle(ctx context.Context, identity common.Address) (Indexes, error)
	OracleIndexes(ctx context.Context, identity common.Address) (Indexes, error)
}

// ResponseSubmitter submits one oracle's status for a request.
type ResponseSubmitter interface {
	SubmitResponse(ctx context.Context, req OracleRequestEvent, identity common.Address, status StatusCode) (*ethtypes.Receipt, error)
}

// EventSource streams raw OracleRequest logs and decodes them.
type EventSource interface {
	SubscribeOracleRequests(ctx context.Context, fromBlock uint64, sink chan<- ethtypes.Log) (event.Subscription, error)
	DecodeOracleRequest(log ethtypes.Log) (OracleRequestEvent, error)
}

// ContractReader exposes the read-only calls the relay serves over REST.
type ContractReader interface {
	GetOperatingAirlines(ctx context.Context) ([]common.Address, error)
	IsOperational(ctx context.Context) (bool, error)
}

// Gateway is the full call surface of the app contract used by the oracle module.
type Gateway interface {
	OracleRegistrar
	ResponseSubmitter
	EventSource
	ContractReader
}
