package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flightsurety/relay/client/utils"
	"github.com/flightsurety/relay/x/oracle/types"
)

const (
	// RestIndex is the route variable holding a request index.
	RestIndex = "index"

	dappMessage = "An API for use with your Dapp!"

	contractCallTimeout = 10 * time.Second
)

// Registry is the read side of the oracle keeper.
type Registry interface {
	Oracles() []types.Oracle
	OraclesForIndex(index uint8) []common.Address
}

// History lists recently received OracleRequest events.
type History interface {
	Recent() []types.OracleRequestEvent
}

// RegisterRoutes registers the oracle REST routes. reader may be nil when no
// node connection is available; the contract routes then answer 503.
func RegisterRoutes(r *mux.Router, registry Registry, history History, reader types.ContractReader, indent bool) {
	r.HandleFunc("/api", apiHandlerFn(indent)).Methods("GET")
	r.HandleFunc("/oracles", oraclesHandlerFn(registry, indent)).Methods("GET")
	r.HandleFunc("/oracles/{"+RestIndex+"}", oraclesForIndexHandlerFn(registry, indent)).Methods("GET")
	r.HandleFunc("/requests", requestsHandlerFn(history, indent)).Methods("GET")
	r.HandleFunc("/contract/operational", operationalHandlerFn(reader, indent)).Methods("GET")
	r.HandleFunc("/contract/airlines", airlinesHandlerFn(reader, indent)).Methods("GET")
}

// RegisterMetricsRoute serves the default prometheus registry at /metrics.
func RegisterMetricsRoute(r *mux.Router) {
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

type MessageResponse struct {
	Message string `json:"message"`
}

type IndexResponse struct {
	Index   uint8            `json:"index"`
	Oracles []common.Address `json:"oracles"`
}

type OperationalResponse struct {
	Operational bool `json:"operational"`
}

type AirlinesResponse struct {
	Airlines []common.Address `json:"airlines"`
}

func apiHandlerFn(indent bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.PostProcessResponse(w, MessageResponse{Message: dappMessage}, indent)
	}
}

func oraclesHandlerFn(registry Registry, indent bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.PostProcessResponse(w, registry.Oracles(), indent)
	}
}

func oraclesForIndexHandlerFn(registry Registry, indent bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.ParseUint(mux.Vars(r)[RestIndex], 10, 8)
		if err != nil || index > types.MaxIndex {
			utils.WriteErrorResponse(w, http.StatusBadRequest, "index must be between 0 and 9")
			return
		}
		res := IndexResponse{Index: uint8(index), Oracles: registry.OraclesForIndex(uint8(index))}
		utils.PostProcessResponse(w, res, indent)
	}
}

func requestsHandlerFn(history History, indent bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.PostProcessResponse(w, history.Recent(), indent)
	}
}

func operationalHandlerFn(reader types.ContractReader, indent bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			utils.WriteErrorResponse(w, http.StatusServiceUnavailable, "no node connection")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), contractCallTimeout)
		defer cancel()

		operational, err := reader.IsOperational(ctx)
		if err != nil {
			utils.WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.PostProcessResponse(w, OperationalResponse{Operational: operational}, indent)
	}
}

func airlinesHandlerFn(reader types.ContractReader, indent bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			utils.WriteErrorResponse(w, http.StatusServiceUnavailable, "no node connection")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), contractCallTimeout)
		defer cancel()

		airlines, err := reader.GetOperatingAirlines(ctx)
		if err != nil {
			utils.WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
			return
		}
		if airlines == nil {
			airlines = []common.Address{}
		}
		utils.PostProcessResponse(w, AirlinesResponse{Airlines: airlines}, indent)
	}
}
