package rest

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/flightsurety/relay/x/oracle/keeper"
	"github.com/flightsurety/relay/x/oracle/types"
)

var (
	addrA   = common.HexToAddress("0x000000000000000000000000000000000000000a")
	addrB   = common.HexToAddress("0x000000000000000000000000000000000000000b")
	airline = common.HexToAddress("0xf17f52151EbEF6C7334FAD080c5704D77216b732")
)

type history []types.OracleRequestEvent

func (h history) Recent() []types.OracleRequestEvent { return h }

type reader struct {
	operational bool
	airlines    []common.Address
	err         error
}

func (r reader) IsOperational(ctx context.Context) (bool, error) {
	return r.operational, r.err
}

func (r reader) GetOperatingAirlines(ctx context.Context) ([]common.Address, error) {
	return r.airlines, r.err
}

func newRouter(t *testing.T, rd types.ContractReader) *mux.Router {
	k := keeper.NewKeeper(types.ModuleCdc, nil)
	require.NoError(t, k.Register(types.NewOracle(addrA, types.Indexes{1, 4, 7})))
	require.NoError(t, k.Register(types.NewOracle(addrB, types.Indexes{4, 5, 6})))
	k.Seal()

	h := history{{Index: 4, Airline: airline, Flight: "FL101", Timestamp: big.NewInt(1571000000)}}
	r := mux.NewRouter()
	RegisterRoutes(r, k, h, rd, false)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	return rec
}

func TestAPIMessage(t *testing.T) {
	rec := get(newRouter(t, nil), "/api")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"message":"An API for use with your Dapp!"}`, rec.Body.String())
}

func TestOracleRoutes(t *testing.T) {
	r := newRouter(t, nil)

	rec := get(r, "/oracles")
	require.Equal(t, http.StatusOK, rec.Code)
	var oracles []types.Oracle
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &oracles))
	require.Len(t, oracles, 2)
	require.Equal(t, addrA, oracles[0].Identity)
	require.Equal(t, types.Indexes{1, 4, 7}, oracles[0].Indexes)

	rec = get(r, "/oracles/4")
	require.Equal(t, http.StatusOK, rec.Code)
	var res IndexResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.EqualValues(t, 4, res.Index)
	require.Equal(t, []common.Address{addrA, addrB}, res.Oracles)

	rec = get(r, "/oracles/0")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotNil(t, res.Oracles)
	require.Empty(t, res.Oracles)

	for _, bad := range []string{"/oracles/10", "/oracles/-1", "/oracles/x", "/oracles/300"} {
		require.Equal(t, http.StatusBadRequest, get(r, bad).Code, bad)
	}
}

func TestRequestsRoute(t *testing.T) {
	rec := get(newRouter(t, nil), "/requests")
	require.Equal(t, http.StatusOK, rec.Code)
	var reqs []types.OracleRequestEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reqs))
	require.Len(t, reqs, 1)
	require.Equal(t, "FL101", reqs[0].Flight)
	require.Equal(t, airline, reqs[0].Airline)
}

func TestContractRoutes(t *testing.T) {
	require.Equal(t, http.StatusServiceUnavailable, get(newRouter(t, nil), "/contract/operational").Code)

	r := newRouter(t, reader{operational: true, airlines: []common.Address{airline}})
	rec := get(r, "/contract/operational")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"operational":true}`, rec.Body.String())

	rec = get(r, "/contract/airlines")
	require.Equal(t, http.StatusOK, rec.Code)
	var res AirlinesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, []common.Address{airline}, res.Airlines)

	r = newRouter(t, reader{err: errors.New("node down")})
	require.Equal(t, http.StatusInternalServerError, get(r, "/contract/airlines").Code)
}
