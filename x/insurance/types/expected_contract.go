package types

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// Contract is the airline and passenger side of FlightSuretyApp, plus the
// data contract's caller authorization. Every transaction is signed by the
// first address argument and waits for its receipt.
type Contract interface {
	AuthorizeCaller(ctx context.Context, from common.Address) (*ethtypes.Receipt, error)
	RegisterAirline(ctx context.Context, from, airline common.Address) (*ethtypes.Receipt, error)
	FundAirline(ctx context.Context, airline common.Address, value *big.Int) (*ethtypes.Receipt, error)
	BuyInsurance(ctx context.Context, passenger common.Address, flight string, premium *big.Int) (*ethtypes.Receipt, error)
	PayoutInsuree(ctx context.Context, insuree common.Address, amount *big.Int) (*ethtypes.Receipt, error)
	FetchFlightStatus(ctx context.Context, from, airline common.Address, flight string, timestamp *big.Int) (*ethtypes.Receipt, error)
	GetInsureeBalance(ctx context.Context, insuree common.Address) (*big.Int, error)
}

// AirlineFunding is the 10 ether stake an airline puts up before it can
// participate.
func AirlineFunding() *big.Int {
	return new(big.Int).Mul(big.NewInt(10), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}
