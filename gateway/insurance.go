package gateway

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	instypes "github.com/flightsurety/relay/x/insurance/types"
)

var _ instypes.Contract = (*Gateway)(nil)

// ErrNoDataContract is returned for data contract calls when no data address is configured.
var ErrNoDataContract = errors.New("data_address is not configured")

// AuthorizeCaller lets the app contract write to the data contract. Sent by
// the data contract owner.
func (g *Gateway) AuthorizeCaller(ctx context.Context, from common.Address) (*ethtypes.Receipt, error) {
	if g.cfg.DataAddress == (common.Address{}) {
		return nil, ErrNoDataContract
	}
	return g.transactAndWait(ctx, g.data, from, nil, g.cfg.RegisterGasLimit, methodAuthorizeCaller, g.cfg.AppAddress)
}

func (g *Gateway) RegisterAirline(ctx context.Context, from, airline common.Address) (*ethtypes.Receipt, error) {
	return g.transactAndWait(ctx, g.app, from, nil, g.cfg.RegisterGasLimit, methodRegisterAirline, airline)
}

// FundAirline sends value from the airline's own account.
func (g *Gateway) FundAirline(ctx context.Context, airline common.Address, value *big.Int) (*ethtypes.Receipt, error) {
	return g.transactAndWait(ctx, g.app, airline, value, g.cfg.RegisterGasLimit, methodFundAirline, airline)
}

// BuyInsurance pays premium for flight; the premium is both the value and the
// amount argument.
func (g *Gateway) BuyInsurance(ctx context.Context, passenger common.Address, flight string, premium *big.Int) (*ethtypes.Receipt, error) {
	return g.transactAndWait(ctx, g.app, passenger, premium, g.cfg.RegisterGasLimit, methodBuyInsurance, flight, premium)
}

func (g *Gateway) PayoutInsuree(ctx context.Context, insuree common.Address, amount *big.Int) (*ethtypes.Receipt, error) {
	return g.transactAndWait(ctx, g.app, insuree, nil, g.cfg.RegisterGasLimit, methodPayoutInsuree, insuree, amount)
}

func (g *Gateway) FetchFlightStatus(ctx context.Context, from, airline common.Address, flight string, timestamp *big.Int) (*ethtypes.Receipt, error) {
	return g.transactAndWait(ctx, g.app, from, nil, g.cfg.RegisterGasLimit, methodFetchFlightStatus, airline, flight, timestamp)
}

func (g *Gateway) GetInsureeBalance(ctx context.Context, insuree common.Address) (*big.Int, error) {
	if _, ok := g.appABI.Methods[methodGetInsureeBalance]; !ok {
		return nil, errors.Errorf("FlightSuretyApp abi has no method %s", methodGetInsureeBalance)
	}
	var out []interface{}
	if err := g.app.Call(&bind.CallOpts{Context: ctx, From: insuree}, &out, methodGetInsureeBalance, insuree); err != nil {
		return nil, errors.Wrap(err, methodGetInsureeBalance)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
