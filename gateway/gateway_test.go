package gateway

import (
	"context"
	"math/big"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/flightsurety/relay/x/oracle/types"
)

func newTestGateway(t *testing.T, b *fakeBackend, cfg Config) (*Gateway, *Keyring) {
	keys, err := NewKeyring(truffleMnemonic)
	require.NoError(t, err)
	if cfg.AppAddress == (common.Address{}) {
		cfg.AppAddress = testApp
	}
	gw, err := New(context.Background(), b, cfg, keys, log.NewNopLogger())
	require.NoError(t, err)
	return gw, keys
}

func account(t *testing.T, keys *Keyring, i uint32) common.Address {
	addr, err := keys.Account(i)
	require.NoError(t, err)
	return addr
}

func testRequest() types.OracleRequestEvent {
	return types.OracleRequestEvent{
		Index:     4,
		Airline:   common.HexToAddress("0xf17f52151EbEF6C7334FAD080c5704D77216b732"),
		Flight:    "FL101",
		Timestamp: big.NewInt(1571000000),
	}
}

func TestNewReadsChainIDFromNode(t *testing.T) {
	b := newFakeBackend()
	gw, _ := newTestGateway(t, b, Config{})
	require.EqualValues(t, 1337, gw.ChainID().Int64())

	gw, _ = newTestGateway(t, b, Config{ChainID: big.NewInt(5777)})
	require.EqualValues(t, 5777, gw.ChainID().Int64())
	require.Equal(t, DefaultRegistrationFee(), gw.cfg.RegistrationFee)
	require.Equal(t, DefaultSubmitGasLimit, gw.cfg.SubmitGasLimit)
}

func TestRegisterOracleReadsBackIndexes(t *testing.T) {
	b := newFakeBackend()
	b.outputs[methodGetMyIndexes] = []interface{}{[3]uint8{1, 4, 7}}
	gw, keys := newTestGateway(t, b, Config{})
	oracle := account(t, keys, 20)

	indexes, err := gw.RegisterOracle(context.Background(), oracle)
	require.NoError(t, err)
	require.Equal(t, types.Indexes{1, 4, 7}, indexes)

	sent := b.sentTxs()
	require.Len(t, sent, 1)
	require.Equal(t, methodRegisterOracle, sent[0].method)
	require.Equal(t, oracle, sent[0].from)
	require.Equal(t, testApp, sent[0].to)
	require.Equal(t, DefaultRegistrationFee(), sent[0].tx.Value())
	require.Equal(t, DefaultRegisterGasLimit, sent[0].tx.Gas())
	require.EqualValues(t, 1337, sent[0].tx.ChainId().Int64())

	calls := b.contractCalls()
	require.Len(t, calls, 1)
	require.Equal(t, methodGetMyIndexes, calls[0].method)
	require.Equal(t, oracle, calls[0].from, "getMyIndexes is answered for msg.sender")
}

func TestRegisterOracleReverted(t *testing.T) {
	b := newFakeBackend()
	b.revert[methodRegisterOracle] = true
	gw, keys := newTestGateway(t, b, Config{})

	_, err := gw.RegisterOracle(context.Background(), account(t, keys, 20))
	require.Equal(t, ErrReverted, errors.Cause(err))
	require.Empty(t, b.contractCalls())
}

func TestOracleIndexes(t *testing.T) {
	b := newFakeBackend()
	gw, keys := newTestGateway(t, b, Config{})
	oracle := account(t, keys, 21)

	b.outputs[methodGetMyIndexes] = []interface{}{[3]uint8{0, 5, 9}}
	indexes, err := gw.OracleIndexes(context.Background(), oracle)
	require.NoError(t, err)
	require.Equal(t, types.Indexes{0, 5, 9}, indexes)

	b.outputs[methodGetMyIndexes] = []interface{}{[3]uint8{2, 2, 2}}
	_, err = gw.OracleIndexes(context.Background(), oracle)
	require.Equal(t, types.ErrInvalidIndexes, errors.Cause(err))

	b.callErrs[methodGetMyIndexes] = errors.New("execution reverted: Not registered as an oracle")
	_, err = gw.OracleIndexes(context.Background(), oracle)
	require.Error(t, err)
}

func TestSubmitResponse(t *testing.T) {
	b := newFakeBackend()
	gw, keys := newTestGateway(t, b, Config{})
	oracle := account(t, keys, 20)
	req := testRequest()

	receipt, err := gw.SubmitResponse(context.Background(), req, oracle, types.StatusCodeLateAirline)
	require.NoError(t, err)
	require.Equal(t, ethtypes.ReceiptStatusSuccessful, receipt.Status)

	sent := b.sentTxs()
	require.Len(t, sent, 1)
	require.Equal(t, methodSubmitOracleResponse, sent[0].method)
	require.Equal(t, oracle, sent[0].from)
	require.Equal(t, DefaultSubmitGasLimit, sent[0].tx.Gas())
	require.Equal(t, []interface{}{uint8(4), req.Airline, "FL101", big.NewInt(1571000000), uint8(20)}, sent[0].args)
}

func TestSubmitResponseRevertedIsSubmissionError(t *testing.T) {
	b := newFakeBackend()
	b.revert[methodSubmitOracleResponse] = true
	gw, keys := newTestGateway(t, b, Config{})
	oracle := account(t, keys, 20)

	receipt, err := gw.SubmitResponse(context.Background(), testRequest(), oracle, types.StatusCodeOnTime)
	require.NotNil(t, receipt)
	require.Equal(t, types.ErrSubmission, errors.Cause(err))

	subErr, ok := err.(types.SubmissionError)
	require.True(t, ok)
	require.Nil(t, subErr.Err, "reverted")
	require.Equal(t, receipt.TxHash, subErr.TxHash)
	require.Equal(t, oracle, subErr.Oracle)
	require.EqualValues(t, 4, subErr.Index)
}

func TestSubmitResponseWithoutKey(t *testing.T) {
	b := newFakeBackend()
	gw, _ := newTestGateway(t, b, Config{})

	stranger := common.HexToAddress("0x00000000000000000000000000000000000000ff")
	_, err := gw.SubmitResponse(context.Background(), testRequest(), stranger, types.StatusCodeOnTime)
	subErr, ok := err.(types.SubmissionError)
	require.True(t, ok)
	require.Error(t, subErr.Err)
	require.Empty(t, b.sentTxs())
}

func TestConcurrentSendsUseDistinctNonces(t *testing.T) {
	b := newFakeBackend()
	gw, keys := newTestGateway(t, b, Config{})
	oracle := account(t, keys, 20)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := gw.SubmitResponse(context.Background(), testRequest(), oracle, types.StatusCodeOnTime)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var nonces []int
	for _, s := range b.sentTxs() {
		nonces = append(nonces, int(s.tx.Nonce()))
	}
	sort.Ints(nonces)
	require.Equal(t, []int{0, 1, 2, 3, 4}, nonces)
}

func oracleRequestLog(t *testing.T, b *fakeBackend, block uint64, index uint8) ethtypes.Log {
	ev := b.appABI.Events[eventOracleRequest]
	data, err := ev.Inputs.Pack(index, testRequest().Airline, "FL101", big.NewInt(1571000000))
	require.NoError(t, err)
	return ethtypes.Log{Address: testApp, Topics: []common.Hash{ev.ID}, Data: data, BlockNumber: block}
}

func TestSubscribeOracleRequestsReplaysThenFollows(t *testing.T) {
	b := newFakeBackend()
	b.pastLogs = []ethtypes.Log{oracleRequestLog(t, b, 5, 1), oracleRequestLog(t, b, 6, 2)}
	gw, _ := newTestGateway(t, b, Config{})

	sink := make(chan ethtypes.Log)
	sub, err := gw.SubscribeOracleRequests(context.Background(), 5, sink)
	require.NoError(t, err)

	require.EqualValues(t, 5, b.filter.FromBlock.Int64())
	require.Equal(t, []common.Address{testApp}, b.filter.Addresses)
	require.Equal(t, b.appABI.Events[eventOracleRequest].ID, b.filter.Topics[0][0])
	require.Equal(t, []common.Address{testApp}, b.watch.Addresses)

	next := oracleRequestLog(t, b, 9, 3)
	go func() { b.live <- next }()

	var blocks []uint64
	for i := 0; i < 3; i++ {
		select {
		case l := <-sink:
			req, err := gw.DecodeOracleRequest(l)
			require.NoError(t, err)
			require.EqualValues(t, i+1, req.Index)
			blocks = append(blocks, l.BlockNumber)
		case <-time.After(2 * time.Second):
			t.Fatal("missing log")
		}
	}
	require.Equal(t, []uint64{5, 6, 9}, blocks)

	sub.Unsubscribe()
	require.False(t, b.isLiveOpen())
}

func TestSubscribeOracleRequestsReportsStreamError(t *testing.T) {
	b := newFakeBackend()
	gw, _ := newTestGateway(t, b, Config{})

	sub, err := gw.SubscribeOracleRequests(context.Background(), 0, make(chan ethtypes.Log))
	require.NoError(t, err)
	defer sub.Unsubscribe()

	b.liveErr <- errors.New("websocket closed")
	select {
	case err := <-sub.Err():
		require.EqualError(t, err, "websocket closed")
	case <-time.After(2 * time.Second):
		t.Fatal("stream error not reported")
	}
}

func TestSubscribeOracleRequestsFilterFailure(t *testing.T) {
	b := newFakeBackend()
	b.filterErr = errors.New("query timeout")
	gw, _ := newTestGateway(t, b, Config{})

	_, err := gw.SubscribeOracleRequests(context.Background(), 0, make(chan ethtypes.Log))
	require.Error(t, err)
	require.False(t, b.isLiveOpen(), "live subscription is closed again")
}

func TestContractReads(t *testing.T) {
	b := newFakeBackend()
	airlines := []common.Address{testRequest().Airline}
	b.outputs[methodIsOperational] = []interface{}{true}
	b.outputs[methodGetOperatingAirlines] = []interface{}{airlines}
	b.outputs[methodGetInsureeBalance] = []interface{}{big.NewInt(1500)}
	gw, keys := newTestGateway(t, b, Config{})

	operational, err := gw.IsOperational(context.Background())
	require.NoError(t, err)
	require.True(t, operational)

	got, err := gw.GetOperatingAirlines(context.Background())
	require.NoError(t, err)
	require.Equal(t, airlines, got)

	insuree := account(t, keys, 3)
	balance, err := gw.GetInsureeBalance(context.Background(), insuree)
	require.NoError(t, err)
	require.EqualValues(t, 1500, balance.Int64())
	calls := b.contractCalls()
	require.Equal(t, []interface{}{insuree}, calls[len(calls)-1].args)
}
