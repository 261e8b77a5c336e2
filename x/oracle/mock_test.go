package oracle

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/flightsurety/relay/x/oracle/types"
)

var (
	addrA = common.HexToAddress("0x000000000000000000000000000000000000000a")
	addrB = common.HexToAddress("0x000000000000000000000000000000000000000b")
	addrC = common.HexToAddress("0x000000000000000000000000000000000000000c")

	airline = common.HexToAddress("0xf17f52151EbEF6C7334FAD080c5704D77216b732")
)

func newRequest(index uint8) types.OracleRequestEvent {
	return types.OracleRequestEvent{
		Index:     index,
		Airline:   airline,
		Flight:    "FL101",
		Timestamp: big.NewInt(1571000000),
	}
}

type submitCall struct {
	req    types.OracleRequestEvent
	oracle common.Address
	status types.StatusCode
}

// mockSubmitter records submissions. Oracles in fail return the error,
// oracles in block wait for the channel to close (or the context to end).
type mockSubmitter struct {
	mtx   sync.Mutex
	calls []submitCall
	fail  map[common.Address]error
	block map[common.Address]chan struct{}
}

func newMockSubmitter() *mockSubmitter {
	return &mockSubmitter{
		fail:  make(map[common.Address]error),
		block: make(map[common.Address]chan struct{}),
	}
}

func (m *mockSubmitter) SubmitResponse(ctx context.Context, req types.OracleRequestEvent, oracle common.Address, status types.StatusCode) (*ethtypes.Receipt, error) {
	m.mtx.Lock()
	m.calls = append(m.calls, submitCall{req: req, oracle: oracle, status: status})
	wait := m.block[oracle]
	err := m.fail[oracle]
	m.mtx.Unlock()

	if wait != nil {
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, types.SubmissionError{Oracle: oracle, Index: req.Index, Flight: req.Flight, Err: err}
	}
	return &ethtypes.Receipt{Status: ethtypes.ReceiptStatusSuccessful}, nil
}

func (m *mockSubmitter) Calls() []submitCall {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	res := make([]submitCall, len(m.calls))
	copy(res, m.calls)
	return res
}

func (m *mockSubmitter) calledFor(oracle common.Address) bool {
	for _, call := range m.Calls() {
		if call.oracle == oracle {
			return true
		}
	}
	return false
}

// mockStream is one subscription handed out by mockSource.
type mockStream struct {
	from uint64
	logs chan ethtypes.Log
	fail chan error
}

// mockSource implements types.EventSource. Logs carry the request index in
// Data[0] and the flight in Data[1:]; an empty Data is undecodable.
type mockSource struct {
	mtx           sync.Mutex
	subscribeErrs int
	streams       chan *mockStream
}

func newMockSource() *mockSource {
	return &mockSource{streams: make(chan *mockStream, 16)}
}

func (m *mockSource) SubscribeOracleRequests(ctx context.Context, fromBlock uint64, sink chan<- ethtypes.Log) (event.Subscription, error) {
	m.mtx.Lock()
	if m.subscribeErrs > 0 {
		m.subscribeErrs--
		m.mtx.Unlock()
		return nil, errors.New("dial failed")
	}
	m.mtx.Unlock()

	stream := &mockStream{from: fromBlock, logs: make(chan ethtypes.Log), fail: make(chan error, 1)}
	sub := event.NewSubscription(func(quit <-chan struct{}) error {
		for {
			select {
			case l := <-stream.logs:
				select {
				case sink <- l:
				case <-quit:
					return nil
				}
			case err := <-stream.fail:
				return err
			case <-quit:
				return nil
			}
		}
	})
	m.streams <- stream
	return sub, nil
}

func (m *mockSource) DecodeOracleRequest(l ethtypes.Log) (types.OracleRequestEvent, error) {
	if len(l.Data) == 0 {
		return types.OracleRequestEvent{}, errors.New("empty log data")
	}
	return types.OracleRequestEvent{
		Index:       l.Data[0],
		Airline:     airline,
		Flight:      string(l.Data[1:]),
		Timestamp:   big.NewInt(1571000000),
		BlockNumber: l.BlockNumber,
		TxHash:      l.TxHash,
		LogIndex:    l.Index,
	}, nil
}

func newLog(block uint64, tx byte, index uint8, flight string) ethtypes.Log {
	return ethtypes.Log{
		BlockNumber: block,
		TxHash:      common.BytesToHash([]byte{tx}),
		Index:       0,
		Data:        append([]byte{index}, []byte(flight)...),
	}
}

// mockRegistrar assigns indexes from indexes on registration and remembers
// them in assigned, which stands for the contract's own state.
type mockRegistrar struct {
	mtx      sync.Mutex
	indexes  map[common.Address]types.Indexes
	assigned map[common.Address]types.Indexes
	calls    []common.Address
}

func (m *mockRegistrar) RegisterOracle(ctx context.Context, identity common.Address) (types.Indexes, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.calls = append(m.calls, identity)
	indexes, ok := m.indexes[identity]
	if !ok {
		return types.Indexes{}, errors.New("registerOracle reverted")
	}
	if m.assigned == nil {
		m.assigned = make(map[common.Address]types.Indexes)
	}
	m.assigned[identity] = indexes
	return indexes, nil
}

func (m *mockRegistrar) OracleIndexes(ctx context.Context, identity common.Address) (types.Indexes, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	indexes, ok := m.assigned[identity]
	if !ok {
		return types.Indexes{}, errors.New("Not registered as an oracle")
	}
	return indexes, nil
}
