package oracle

import (
	"context"
	"sync"
	"time"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/flightsurety/relay/x/oracle/types"
)

const (
	DefaultDedupCacheSize = 4096

	logBufferSize = 128

	defaultRetryMin = 500 * time.Millisecond
	defaultRetryMax = 30 * time.Second
)

// Listener turns the contract's OracleRequest log stream into decoded events.
type Listener struct {
	source  types.EventSource
	logger  log.Logger
	metrics *Metrics

	// logs already dispatched, keyed by tx hash and log index
	seen *lru.Cache

	onError func(error)

	retryMin time.Duration
	retryMax time.Duration
}

func NewListener(source types.EventSource, dedupCacheSize int, logger log.Logger, metrics *Metrics) (*Listener, error) {
	if dedupCacheSize <= 0 {
		dedupCacheSize = DefaultDedupCacheSize
	}
	seen, err := lru.New(dedupCacheSize)
	if err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &Listener{
		source:   source,
		logger:   logger,
		metrics:  metrics,
		seen:     seen,
		retryMin: defaultRetryMin,
		retryMax: defaultRetryMax,
	}, nil
}

// SetErrorHandler installs a callback for non-fatal listener errors such as
// MalformedEventError. It must be called before Subscribe.
func (l *Listener) SetErrorHandler(fn func(error)) {
	l.onError = fn
}

// SetRetryBackoff bounds the delay between resubscription attempts.
func (l *Listener) SetRetryBackoff(min, max time.Duration) {
	l.retryMin, l.retryMax = min, max
}

// Subscription is a live OracleRequest subscription.
type Subscription struct {
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
	err    error
}

// Unsubscribe stops delivery and waits for the delivery goroutine to exit. It
// is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
	<-s.done
}

// Done is closed once the subscription has stopped delivering.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err returns the reason the subscription stopped. Valid after Done is closed.
func (s *Subscription) Err() error {
	return s.err
}

// Subscribe streams OracleRequest events from fromBlock onward, block 0 meaning
// the whole chain history followed by live events. onRequest runs on the
// delivery goroutine once per event in stream order, so it must not block.
// Undecodable logs are reported and skipped. Stream failures are retried from
// the last block seen; logs already dispatched are not dispatched again.
func (l *Listener) Subscribe(ctx context.Context, fromBlock uint64, onRequest func(types.OracleRequestEvent)) (*Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	logs := make(chan ethtypes.Log, logBufferSize)

	sub, err := l.source.SubscribeOracleRequests(ctx, fromBlock, logs)
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "subscribe to OracleRequest")
	}
	l.logger.Info("subscribed to OracleRequest", "from_block", fromBlock)

	s := &Subscription{cancel: cancel, done: make(chan struct{})}
	go l.run(ctx, s, sub, logs, fromBlock, onRequest)
	return s, nil
}

func (l *Listener) run(ctx context.Context, s *Subscription, sub event.Subscription, logs chan ethtypes.Log,
	next uint64, onRequest func(types.OracleRequestEvent)) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			sub.Unsubscribe()
			s.err = ctx.Err()
			return

		case raw := <-logs:
			if raw.Removed {
				continue
			}
			if raw.BlockNumber > next {
				next = raw.BlockNumber
			}
			l.deliver(raw, onRequest)

		case err := <-sub.Err():
			sub.Unsubscribe()
			if err == nil {
				err = errors.New("subscription closed by source")
			}
			l.report(errors.Wrap(err, "OracleRequest subscription failed"))

			var rerr error
			sub, rerr = l.resubscribe(ctx, next, logs)
			if rerr != nil {
				s.err = rerr
				return
			}
		}
	}
}

func (l *Listener) resubscribe(ctx context.Context, from uint64, logs chan ethtypes.Log) (event.Subscription, error) {
	backoff := l.retryMin
	for {
		l.logger.Info("resubscribing to OracleRequest", "from_block", from, "retry_in", backoff)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}

		sub, err := l.source.SubscribeOracleRequests(ctx, from, logs)
		if err == nil {
			return sub, nil
		}
		l.report(errors.Wrap(err, "resubscribe to OracleRequest"))

		backoff *= 2
		if backoff > l.retryMax {
			backoff = l.retryMax
		}
	}
}

func (l *Listener) deliver(raw ethtypes.Log, onRequest func(types.OracleRequestEvent)) {
	key := types.LogKey(raw.TxHash, raw.Index)
	if l.seen.Contains(key) {
		l.logger.Debug("skipping already dispatched log", "key", key)
		return
	}
	l.seen.Add(key, struct{}{})

	req, err := l.source.DecodeOracleRequest(raw)
	if err != nil {
		l.metrics.MalformedEvents.Add(1)
		l.report(types.MalformedEventError{TxHash: raw.TxHash, LogIndex: raw.Index, Err: err})
		return
	}
	onRequest(req)
}

func (l *Listener) report(err error) {
	l.logger.Error("listener error", "err", err)
	if l.onError != nil {
		l.onError(err)
	}
}
