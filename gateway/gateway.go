package gateway

import (
	"context"
	"math/big"
	"sync"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/flightsurety/relay/x/oracle/types"
)

const (
	DefaultRegisterGasLimit uint64 = 1000000
	DefaultSubmitGasLimit   uint64 = 100000
)

// ErrReverted is returned when a transaction was mined with a failed status.
var ErrReverted = errors.New("transaction reverted")

// DefaultRegistrationFee is the 1 ether registerOracle requires.
func DefaultRegistrationFee() *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
}

// Backend is what the gateway needs from a node connection. *ethclient.Client
// implements it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

type Config struct {
	AppAddress  common.Address
	DataAddress common.Address
	// ABI files; empty means the builtin ABI.
	AppABIPath  string
	DataABIPath string

	// ChainID is read from the node when nil.
	ChainID          *big.Int
	RegistrationFee  *big.Int
	RegisterGasLimit uint64
	SubmitGasLimit   uint64
}

var (
	_ types.Gateway = (*Gateway)(nil)
)

// Gateway talks to the FlightSuretyApp and FlightSuretyData contracts.
type Gateway struct {
	cfg     Config
	backend Backend
	keys    *Keyring
	logger  log.Logger
	chainID *big.Int

	appABI abi.ABI
	app    *bind.BoundContract
	data   *bind.BoundContract

	// one lock per sending account so concurrent sends do not share a nonce
	lockMtx   sync.Mutex
	sendLocks map[common.Address]*sync.Mutex

	closer func()
}

// Dial connects to rawurl (ws:// for the OracleRequest subscription) and
// returns a gateway bound to the configured contracts.
func Dial(ctx context.Context, rawurl string, cfg Config, keys *Keyring, logger log.Logger) (*Gateway, error) {
	client, err := ethclient.DialContext(ctx, rawurl)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", rawurl)
	}
	gw, err := New(ctx, client, cfg, keys, logger)
	if err != nil {
		client.Close()
		return nil, err
	}
	gw.closer = client.Close
	return gw, nil
}

func New(ctx context.Context, backend Backend, cfg Config, keys *Keyring, logger log.Logger) (*Gateway, error) {
	appABI, err := LoadABI(cfg.AppABIPath, AppABIJSON)
	if err != nil {
		return nil, err
	}
	if err := requireMethods("FlightSuretyApp", appABI, appRequired); err != nil {
		return nil, err
	}
	if _, ok := appABI.Events[eventOracleRequest]; !ok {
		return nil, errors.Errorf("FlightSuretyApp abi has no event %s", eventOracleRequest)
	}
	dataABI, err := LoadABI(cfg.DataABIPath, DataABIJSON)
	if err != nil {
		return nil, err
	}
	if err := requireMethods("FlightSuretyData", dataABI, dataRequired); err != nil {
		return nil, err
	}

	if cfg.RegistrationFee == nil {
		cfg.RegistrationFee = DefaultRegistrationFee()
	}
	if cfg.RegisterGasLimit == 0 {
		cfg.RegisterGasLimit = DefaultRegisterGasLimit
	}
	if cfg.SubmitGasLimit == 0 {
		cfg.SubmitGasLimit = DefaultSubmitGasLimit
	}
	chainID := cfg.ChainID
	if chainID == nil || chainID.Sign() == 0 {
		if chainID, err = backend.ChainID(ctx); err != nil {
			return nil, errors.Wrap(err, "query chain id")
		}
	}

	return &Gateway{
		cfg:       cfg,
		backend:   backend,
		keys:      keys,
		logger:    logger,
		chainID:   chainID,
		appABI:    appABI,
		app:       bind.NewBoundContract(cfg.AppAddress, appABI, backend, backend, backend),
		data:      bind.NewBoundContract(cfg.DataAddress, dataABI, backend, backend, backend),
		sendLocks: make(map[common.Address]*sync.Mutex),
	}, nil
}

// Close releases the node connection opened by Dial.
func (g *Gateway) Close() {
	if g.closer != nil {
		g.closer()
	}
}

func (g *Gateway) ChainID() *big.Int {
	return new(big.Int).Set(g.chainID)
}

func (g *Gateway) Keys() *Keyring {
	return g.keys
}

// RegisterOracle pays the registration fee from identity, waits for the
// receipt, then reads back the indexes the contract assigned.
func (g *Gateway) RegisterOracle(ctx context.Context, identity common.Address) (types.Indexes, error) {
	receipt, err := g.transactAndWait(ctx, g.app, identity, g.cfg.RegistrationFee, g.cfg.RegisterGasLimit, methodRegisterOracle)
	if err != nil {
		return types.Indexes{}, err
	}
	g.logger.Debug("registerOracle mined", "oracle", identity.Hex(), "tx", receipt.TxHash.Hex(), "block", receipt.BlockNumber)

	return g.OracleIndexes(ctx, identity)
}

// OracleIndexes calls getMyIndexes as identity.
func (g *Gateway) OracleIndexes(ctx context.Context, identity common.Address) (types.Indexes, error) {
	var out []interface{}
	if err := g.app.Call(&bind.CallOpts{Context: ctx, From: identity}, &out, methodGetMyIndexes); err != nil {
		return types.Indexes{}, errors.Wrap(err, methodGetMyIndexes)
	}
	raw := *abi.ConvertType(out[0], new([3]uint8)).(*[3]uint8)
	indexes := types.Indexes(raw)
	if err := indexes.ValidateBasic(); err != nil {
		return types.Indexes{}, err
	}
	return indexes, nil
}

// SubmitResponse sends submitOracleResponse from identity and waits for it to
// be mined. A reverted receipt is a SubmissionError with a nil Err.
func (g *Gateway) SubmitResponse(ctx context.Context, req types.OracleRequestEvent, identity common.Address, status types.StatusCode) (*ethtypes.Receipt, error) {
	subErr := types.SubmissionError{Oracle: identity, Index: req.Index, Flight: req.Flight}

	tx, err := g.transact(ctx, g.app, identity, nil, g.cfg.SubmitGasLimit, methodSubmitOracleResponse,
		req.Index, req.Airline, req.Flight, req.Timestamp, uint8(status))
	if err != nil {
		subErr.Err = err
		return nil, subErr
	}
	subErr.TxHash = tx.Hash()

	receipt, err := bind.WaitMined(ctx, g.backend, tx)
	if err != nil {
		subErr.Err = errors.Wrap(err, "wait for receipt")
		return nil, subErr
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return receipt, subErr
	}
	return receipt, nil
}

// SubscribeOracleRequests delivers OracleRequest logs from fromBlock onward into
// sink. Historical logs up to the current head are replayed first, then the
// live stream follows. The live subscription is opened before the replay, so a
// log near the head may be delivered twice.
func (g *Gateway) SubscribeOracleRequests(ctx context.Context, fromBlock uint64, sink chan<- ethtypes.Log) (event.Subscription, error) {
	live, liveSub, err := g.app.WatchLogs(&bind.WatchOpts{Context: ctx}, eventOracleRequest)
	if err != nil {
		return nil, errors.Wrap(err, "watch OracleRequest")
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: []common.Address{g.cfg.AppAddress},
		Topics:    [][]common.Hash{{g.appABI.Events[eventOracleRequest].ID}},
	}
	past, err := g.backend.FilterLogs(ctx, query)
	if err != nil {
		liveSub.Unsubscribe()
		return nil, errors.Wrapf(err, "filter OracleRequest from block %d", fromBlock)
	}
	g.logger.Info("replaying OracleRequest history", "from_block", fromBlock, "logs", len(past))

	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer liveSub.Unsubscribe()
		for _, l := range past {
			select {
			case sink <- l:
			case <-quit:
				return nil
			}
		}
		for {
			select {
			case l := <-live:
				select {
				case sink <- l:
				case <-quit:
					return nil
				}
			case err := <-liveSub.Err():
				return err
			case <-quit:
				return nil
			}
		}
	}), nil
}

// oracleRequest mirrors the OracleRequest event arguments.
type oracleRequest struct {
	Index     uint8
	Airline   common.Address
	Flight    string
	Timestamp *big.Int
}

func (g *Gateway) DecodeOracleRequest(l ethtypes.Log) (types.OracleRequestEvent, error) {
	return decodeOracleRequest(g.appABI, l)
}

func decodeOracleRequest(appABI abi.ABI, l ethtypes.Log) (types.OracleRequestEvent, error) {
	ev := appABI.Events[eventOracleRequest]
	if len(l.Topics) == 0 || l.Topics[0] != ev.ID {
		return types.OracleRequestEvent{}, errors.New("log is not an OracleRequest event")
	}
	var out oracleRequest
	if err := appABI.UnpackIntoInterface(&out, eventOracleRequest, l.Data); err != nil {
		return types.OracleRequestEvent{}, errors.Wrap(err, "unpack OracleRequest")
	}
	if out.Timestamp == nil {
		return types.OracleRequestEvent{}, errors.New("OracleRequest without timestamp")
	}
	return types.OracleRequestEvent{
		Index:       out.Index,
		Airline:     out.Airline,
		Flight:      out.Flight,
		Timestamp:   out.Timestamp,
		BlockNumber: l.BlockNumber,
		TxHash:      l.TxHash,
		LogIndex:    l.Index,
	}, nil
}

func (g *Gateway) IsOperational(ctx context.Context) (bool, error) {
	var out []interface{}
	if err := g.app.Call(&bind.CallOpts{Context: ctx}, &out, methodIsOperational); err != nil {
		return false, errors.Wrap(err, "isOperational")
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (g *Gateway) GetOperatingAirlines(ctx context.Context) ([]common.Address, error) {
	var out []interface{}
	if err := g.app.Call(&bind.CallOpts{Context: ctx}, &out, methodGetOperatingAirlines); err != nil {
		return nil, errors.Wrap(err, "getOperatingAirlines")
	}
	return *abi.ConvertType(out[0], new([]common.Address)).(*[]common.Address), nil
}

func (g *Gateway) sendLock(from common.Address) *sync.Mutex {
	g.lockMtx.Lock()
	defer g.lockMtx.Unlock()
	lock, ok := g.sendLocks[from]
	if !ok {
		lock = new(sync.Mutex)
		g.sendLocks[from] = lock
	}
	return lock
}

func (g *Gateway) transact(ctx context.Context, contract *bind.BoundContract, from common.Address, value *big.Int,
	gasLimit uint64, method string, params ...interface{}) (*ethtypes.Transaction, error) {
	if g.keys == nil {
		return nil, errors.New("gateway has no keyring")
	}
	key, ok := g.keys.Key(from)
	if !ok {
		return nil, errors.Errorf("no key for account %s", from.Hex())
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, g.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	opts.Value = value
	opts.GasLimit = gasLimit

	// the nonce is taken from the pending pool, so the next send from this
	// account must wait until this one is in it
	lock := g.sendLock(from)
	lock.Lock()
	tx, err := contract.Transact(opts, method, params...)
	lock.Unlock()
	if err != nil {
		return nil, errors.Wrap(err, method)
	}
	g.logger.Debug("sent transaction", "method", method, "from", from.Hex(), "tx", tx.Hash().Hex())
	return tx, nil
}

func (g *Gateway) transactAndWait(ctx context.Context, contract *bind.BoundContract, from common.Address, value *big.Int,
	gasLimit uint64, method string, params ...interface{}) (*ethtypes.Receipt, error) {
	tx, err := g.transact(ctx, contract, from, value, gasLimit, method, params...)
	if err != nil {
		return nil, err
	}
	receipt, err := bind.WaitMined(ctx, g.backend, tx)
	if err != nil {
		return nil, errors.Wrapf(err, "wait for %s receipt", method)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return receipt, errors.Wrapf(ErrReverted, "%s tx %s", method, tx.Hash().Hex())
	}
	return receipt, nil
}
