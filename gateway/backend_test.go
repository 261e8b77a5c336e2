package gateway

import (
	"context"
	"math/big"
	"sync"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"
)

var (
	testApp  = common.HexToAddress("0xF014343BDFFbED8660A9d8721deC985126f189F3")
	testData = common.HexToAddress("0x2C2B9C9a4a25e24B174f26114e8926a9f2128FE4")
)

// sentTx is a transaction as the fake node decoded it.
type sentTx struct {
	tx     *ethtypes.Transaction
	from   common.Address
	to     common.Address
	method string
	args   []interface{}
}

type contractCall struct {
	from   common.Address
	method string
	args   []interface{}
}

// fakeBackend is a node that mines every transaction at once. Calls to the app
// contract answer from outputs, transactions whose method is in revert are
// mined with a failed status.
type fakeBackend struct {
	mtx sync.Mutex

	chainID *big.Int
	appABI  abi.ABI
	dataABI abi.ABI

	nonces   map[common.Address]uint64
	sent     []sentTx
	receipts map[common.Hash]*ethtypes.Receipt
	revert   map[string]bool

	outputs  map[string][]interface{}
	callErrs map[string]error
	calls    []contractCall

	pastLogs  []ethtypes.Log
	filterErr error
	filter    *ethereum.FilterQuery
	watch     *ethereum.FilterQuery
	live      chan ethtypes.Log
	liveErr   chan error
	liveOpen  bool
}

func newFakeBackend() *fakeBackend {
	appABI, err := LoadABI("", AppABIJSON)
	if err != nil {
		panic(err)
	}
	dataABI, err := LoadABI("", DataABIJSON)
	if err != nil {
		panic(err)
	}
	return &fakeBackend{
		chainID:  big.NewInt(1337),
		appABI:   appABI,
		dataABI:  dataABI,
		nonces:   make(map[common.Address]uint64),
		receipts: make(map[common.Hash]*ethtypes.Receipt),
		revert:   make(map[string]bool),
		outputs:  make(map[string][]interface{}),
		callErrs: make(map[string]error),
		live:     make(chan ethtypes.Log),
		liveErr:  make(chan error, 1),
	}
}

func (b *fakeBackend) abiOf(to common.Address) (abi.ABI, error) {
	switch to {
	case testApp:
		return b.appABI, nil
	case testData:
		return b.dataABI, nil
	}
	return abi.ABI{}, errors.Errorf("no contract at %s", to.Hex())
}

func (b *fakeBackend) decode(to common.Address, data []byte) (*abi.Method, []interface{}, error) {
	parsed, err := b.abiOf(to)
	if err != nil {
		return nil, nil, err
	}
	if len(data) < 4 {
		return nil, nil, errors.New("short call data")
	}
	method, err := parsed.MethodById(data[:4])
	if err != nil {
		return nil, nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, err
	}
	return method, args, nil
}

func (b *fakeBackend) sentTxs() []sentTx {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return append([]sentTx{}, b.sent...)
}

func (b *fakeBackend) contractCalls() []contractCall {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return append([]contractCall{}, b.calls...)
}

func (b *fakeBackend) ChainID(ctx context.Context) (*big.Int, error) {
	return b.chainID, nil
}

func (b *fakeBackend) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (b *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	method, args, err := b.decode(*call.To, call.Data)
	if err != nil {
		return nil, err
	}
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.calls = append(b.calls, contractCall{from: call.From, method: method.Name, args: args})
	if err := b.callErrs[method.Name]; err != nil {
		return nil, err
	}
	return method.Outputs.Pack(b.outputs[method.Name]...)
}

// HeaderByNumber reports a chain without a base fee, so transactions are legacy.
func (b *fakeBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*ethtypes.Header, error) {
	return &ethtypes.Header{Number: big.NewInt(1)}, nil
}

func (b *fakeBackend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return []byte{0x60}, nil
}

func (b *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.nonces[account], nil
}

func (b *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(20000000000), nil
}

func (b *fakeBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (b *fakeBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return 21000, nil
}

func (b *fakeBackend) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error {
	from, err := ethtypes.Sender(ethtypes.LatestSignerForChainID(b.chainID), tx)
	if err != nil {
		return err
	}
	method, args, err := b.decode(*tx.To(), tx.Data())
	if err != nil {
		return err
	}

	b.mtx.Lock()
	defer b.mtx.Unlock()
	if tx.Nonce() != b.nonces[from] {
		return errors.Errorf("nonce too low: have %d, want %d", tx.Nonce(), b.nonces[from])
	}
	b.nonces[from]++
	b.sent = append(b.sent, sentTx{tx: tx, from: from, to: *tx.To(), method: method.Name, args: args})

	status := ethtypes.ReceiptStatusSuccessful
	if b.revert[method.Name] {
		status = ethtypes.ReceiptStatusFailed
	}
	b.receipts[tx.Hash()] = &ethtypes.Receipt{
		Status:      status,
		TxHash:      tx.Hash(),
		BlockNumber: big.NewInt(int64(len(b.sent))),
		GasUsed:     21000,
	}
	return nil
}

func (b *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	receipt, ok := b.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (b *fakeBackend) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]ethtypes.Log, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.filter = &query
	if b.filterErr != nil {
		return nil, b.filterErr
	}
	return b.pastLogs, nil
}

func (b *fakeBackend) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- ethtypes.Log) (ethereum.Subscription, error) {
	b.mtx.Lock()
	b.watch = &query
	b.liveOpen = true
	b.mtx.Unlock()

	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer func() {
			b.mtx.Lock()
			b.liveOpen = false
			b.mtx.Unlock()
		}()
		for {
			select {
			case l := <-b.live:
				select {
				case ch <- l:
				case <-quit:
					return nil
				}
			case err := <-b.liveErr:
				return err
			case <-quit:
				return nil
			}
		}
	}), nil
}

func (b *fakeBackend) isLiveOpen() bool {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.liveOpen
}
