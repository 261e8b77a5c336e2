package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	cmn "github.com/tendermint/tendermint/libs/common"
	dbm "github.com/tendermint/tendermint/libs/db"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/flightsurety/relay/config"
	"github.com/flightsurety/relay/pubsub"
	"github.com/flightsurety/relay/x/oracle"
	"github.com/flightsurety/relay/x/oracle/client/rest"
	"github.com/flightsurety/relay/x/oracle/types"
)

const (
	coordinatorClientID pubsub.ClientID = "coordinator"
	historyClientID     pubsub.ClientID = "history"

	shutdownTimeout = 5 * time.Second
)

// Relay runs the oracle relay: restore and bootstrap the registry, seal it,
// then answer OracleRequest events while serving the REST API.
type Relay struct {
	cmn.BaseService

	cfg        *config.Config
	gateway    types.Gateway
	candidates []common.Address
	db         dbm.DB
	metrics    *oracle.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	keeper      *oracle.Keeper
	publisher   *pubsub.Publisher
	coordinator *oracle.Coordinator
	history     *oracle.RequestHistory
	listener    *oracle.Listener

	subscribers []*pubsub.Subscriber
	sub         *oracle.Subscription

	listenAddr net.Addr
	httpServer *http.Server
}

// NewRelay takes ownership of db. candidates are the oracle accounts to
// register; metrics may be nil.
func NewRelay(cfg *config.Config, gw types.Gateway, candidates []common.Address, db dbm.DB,
	logger log.Logger, metrics *oracle.Metrics) (*Relay, error) {
	if metrics == nil {
		metrics = oracle.NopMetrics()
	}
	listener, err := oracle.NewListener(gw, cfg.DedupCacheSize, logger.With("module", "listener"), metrics)
	if err != nil {
		return nil, err
	}

	var registryDB dbm.DB
	if db != nil {
		registryDB = RegistryDB(db, cfg)
	}
	k := oracle.NewKeeper(oracle.ModuleCdc, registryDB)
	status := oracle.NewTimeSeededStatusGenerator()

	ctx, cancel := context.WithCancel(context.Background())
	r := &Relay{
		cfg:        cfg,
		gateway:    gw,
		candidates: candidates,
		db:         db,
		metrics:    metrics,
		ctx:        ctx,
		cancel:     cancel,
		keeper:     k,
		publisher:  pubsub.NewPublisher("relay-bus", logger.With("module", "pubsub")),
		coordinator: oracle.NewCoordinator(k, gw, status, cfg.SubmissionTimeout,
			logger.With("module", "coordinator"), metrics),
		history:  oracle.NewRequestHistory(cfg.HistorySize),
		listener: listener,
	}
	r.BaseService = *cmn.NewBaseService(logger, "Relay", r)
	return r, nil
}

func (r *Relay) Keeper() *oracle.Keeper {
	return r.keeper
}

func (r *Relay) History() *oracle.RequestHistory {
	return r.history
}

// ListenAddr is the bound REST address, once started.
func (r *Relay) ListenAddr() net.Addr {
	return r.listenAddr
}

// OnStart runs the startup sequence. The registry is sealed before the event
// subscription opens, so requests never observe a registry that is still
// being written.
func (r *Relay) OnStart() (err error) {
	defer func() {
		if err != nil {
			r.OnStop()
		}
	}()

	restored, err := r.keeper.Load()
	if err != nil {
		return errors.Wrap(err, "restore oracle registry")
	}
	r.Logger.Info("restored oracle registry", "oracles", restored)

	results := oracle.RegisterOracles(r.ctx, r.keeper, r.gateway, r.candidates, r.Logger.With("module", "bootstrap"))
	failed, stale := 0, 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
		if res.Stale {
			stale++
		}
	}
	if r.keeper.Len() == 0 {
		return errors.Errorf("no oracle registered (%d of %d registrations failed)", failed, len(results))
	}
	r.keeper.Seal()
	r.metrics.RegisteredOracles.Set(float64(r.keeper.Len()))
	r.Logger.Info("oracle registry sealed", "oracles", r.keeper.Len(), "failed", failed, "stale", stale)

	if err := r.startBus(); err != nil {
		return err
	}
	if err := r.startHTTP(); err != nil {
		return err
	}

	sub, err := r.listener.Subscribe(r.ctx, r.cfg.FromBlock, func(req types.OracleRequestEvent) {
		r.publisher.Publish(req)
	})
	if err != nil {
		return err
	}
	r.sub = sub
	return nil
}

func (r *Relay) startBus() error {
	if err := r.publisher.Start(); err != nil {
		return err
	}
	if err := r.coordinator.Start(); err != nil {
		return err
	}

	handlers := []struct {
		id      pubsub.ClientID
		handler func(types.OracleRequestEvent)
	}{
		{coordinatorClientID, r.coordinator.HandleRequest},
		{historyClientID, r.history.Record},
	}
	for _, h := range handlers {
		s, err := r.publisher.NewSubscriber(h.id)
		if err != nil {
			return err
		}
		handle := h.handler
		err = s.Subscribe(pubsub.OracleRequestTopic, func(ev pubsub.Event) {
			if req, ok := ev.(types.OracleRequestEvent); ok {
				handle(req)
			}
		})
		if err != nil {
			return err
		}
		r.subscribers = append(r.subscribers, s)
	}
	return nil
}

func (r *Relay) startHTTP() error {
	router := mux.NewRouter()
	rest.RegisterRoutes(router, r.keeper, r.history, r.gateway, true)
	if r.cfg.Prometheus {
		rest.RegisterMetricsRoute(router)
	}

	ln, err := net.Listen("tcp", r.cfg.ListenAddr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", r.cfg.ListenAddr)
	}
	r.listenAddr = ln.Addr()
	r.httpServer = &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := r.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			r.Logger.Error("REST server stopped", "err", err)
		}
	}()
	r.Logger.Info("REST server started", "addr", r.listenAddr.String())
	return nil
}

// OnStop stops intake first, then lets in-flight submissions observe
// cancellation before the bus and store go away.
func (r *Relay) OnStop() {
	if r.sub != nil {
		r.sub.Unsubscribe()
	}
	for _, s := range r.subscribers {
		if err := s.UnsubscribeAll(); err != nil {
			r.Logger.Error("unsubscribe", "err", err)
		}
		s.Wait()
	}
	r.cancel()
	if r.coordinator.IsRunning() {
		r.coordinator.Stop()
	}
	if r.publisher.IsRunning() {
		r.publisher.Stop()
	}

	if r.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := r.httpServer.Shutdown(ctx); err != nil {
			r.Logger.Error("REST server shutdown", "err", err)
		}
	}
	if r.db != nil {
		r.db.Close()
	}
}
