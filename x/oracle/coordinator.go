package oracle

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	cmn "github.com/tendermint/tendermint/libs/common"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/flightsurety/relay/x/oracle/types"
)

// DefaultSubmissionTimeout bounds a single submitOracleResponse round trip.
const DefaultSubmissionTimeout = 30 * time.Second

// Registry is the read side of the oracle keeper used while handling requests.
type Registry interface {
	OraclesForIndex(index uint8) []common.Address
}

// SubmissionResult is the outcome of one oracle's response to a request.
type SubmissionResult struct {
	Oracle  common.Address
	Status  types.StatusCode
	Receipt *ethtypes.Receipt
	Err     error
}

// Coordinator answers OracleRequest events on behalf of every registered oracle
// whose indexes match the request. Each oracle submits on its own goroutine, so
// one slow or rejected submission never holds up or cancels another.
type Coordinator struct {
	cmn.BaseService

	registry  Registry
	submitter types.ResponseSubmitter
	status    StatusSource
	timeout   time.Duration
	metrics   *Metrics

	ctx    context.Context
	cancel context.CancelFunc

	mtx      sync.Mutex
	stopping bool
	wg       sync.WaitGroup
}

// NewCoordinator does not take ownership of the registry; it must be fully
// populated before requests arrive.
func NewCoordinator(registry Registry, submitter types.ResponseSubmitter, status StatusSource,
	timeout time.Duration, logger log.Logger, metrics *Metrics) *Coordinator {
	if metrics == nil {
		metrics = NopMetrics()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		registry:  registry,
		submitter: submitter,
		status:    status,
		timeout:   timeout,
		metrics:   metrics,
		ctx:       ctx,
		cancel:    cancel,
	}
	c.BaseService = *cmn.NewBaseService(logger, "Coordinator", c)
	return c
}

// OnStop cancels outstanding submissions and waits for them to return.
func (c *Coordinator) OnStop() {
	c.mtx.Lock()
	c.stopping = true
	c.mtx.Unlock()

	c.cancel()
	c.wg.Wait()
}

// HandleRequest dispatches the request in the background and returns at once.
func (c *Coordinator) HandleRequest(req types.OracleRequestEvent) {
	c.mtx.Lock()
	if c.stopping || !c.IsRunning() {
		c.mtx.Unlock()
		c.Logger.Error("coordinator not running, dropping request", "request", req.String())
		return
	}
	c.wg.Add(1)
	c.mtx.Unlock()

	go func() {
		defer c.wg.Done()
		c.Dispatch(c.ctx, req)
	}()
}

// Wait blocks until every dispatch started by HandleRequest has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Dispatch submits a response from every matching oracle concurrently and
// returns one result per oracle, in registry order.
func (c *Coordinator) Dispatch(ctx context.Context, req types.OracleRequestEvent) []SubmissionResult {
	c.metrics.Requests.Add(1)

	oracles := c.registry.OraclesForIndex(req.Index)
	c.Logger.Info("dispatching oracle request",
		"index", req.Index, "airline", req.Airline.Hex(), "flight", req.Flight,
		"timestamp", req.Timestamp, "oracles", len(oracles))

	results := make([]SubmissionResult, len(oracles))
	var wg sync.WaitGroup
	for i, oracle := range oracles {
		wg.Add(1)
		go func(i int, oracle common.Address) {
			defer wg.Done()
			results[i] = c.submit(ctx, req, oracle)
		}(i, oracle)
	}
	wg.Wait()
	return results
}

func (c *Coordinator) submit(ctx context.Context, req types.OracleRequestEvent, oracle common.Address) SubmissionResult {
	status := c.status.Next()
	res := SubmissionResult{Oracle: oracle, Status: status}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	res.Receipt, res.Err = c.submitter.SubmitResponse(ctx, req, oracle, status)
	c.metrics.SubmissionDuration.Observe(time.Since(start).Seconds())

	if res.Err != nil {
		c.metrics.Submissions.With("result", "failed").Add(1)
		c.Logger.Error("submit response error for oracle",
			"oracle", oracle.Hex(), "index", req.Index, "flight", req.Flight, "status", status.String(), "err", res.Err)
		return res
	}

	c.metrics.Submissions.With("result", "ok").Add(1)
	c.Logger.Debug("submitted oracle response",
		"oracle", oracle.Hex(), "index", req.Index, "flight", req.Flight, "status", status.String())
	return res
}
