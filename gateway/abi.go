package gateway

import (
	"bytes"
	"encoding/json"
	"io/ioutil"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/pkg/errors"
)

// AppABIJSON is the subset of the FlightSuretyApp interface the relay calls.
const AppABIJSON = `[
{"constant":true,"inputs":[],"name":"isOperational","outputs":[{"name":"","type":"bool"}],"payable":false,"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"getOperatingAirlines","outputs":[{"name":"","type":"address[]"}],"payable":false,"stateMutability":"view","type":"function"},
{"constant":false,"inputs":[{"name":"airline","type":"address"}],"name":"registerAirline","outputs":[],"payable":false,"stateMutability":"nonpayable","type":"function"},
{"constant":false,"inputs":[{"name":"airline","type":"address"}],"name":"fundAirline","outputs":[],"payable":true,"stateMutability":"payable","type":"function"},
{"constant":false,"inputs":[{"name":"flight","type":"string"},{"name":"amount","type":"uint256"}],"name":"buyInsurance","outputs":[],"payable":true,"stateMutability":"payable","type":"function"},
{"constant":false,"inputs":[{"name":"insuree","type":"address"},{"name":"amount","type":"uint256"}],"name":"payoutInsuree","outputs":[],"payable":false,"stateMutability":"nonpayable","type":"function"},
{"constant":true,"inputs":[{"name":"insuree","type":"address"}],"name":"getInsureeBalance","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
{"constant":false,"inputs":[{"name":"airline","type":"address"},{"name":"flight","type":"string"},{"name":"timestamp","type":"uint256"}],"name":"fetchFlightStatus","outputs":[],"payable":false,"stateMutability":"nonpayable","type":"function"},
{"constant":false,"inputs":[],"name":"registerOracle","outputs":[],"payable":true,"stateMutability":"payable","type":"function"},
{"constant":true,"inputs":[],"name":"getMyIndexes","outputs":[{"name":"","type":"uint8[3]"}],"payable":false,"stateMutability":"view","type":"function"},
{"constant":false,"inputs":[{"name":"index","type":"uint8"},{"name":"airline","type":"address"},{"name":"flight","type":"string"},{"name":"timestamp","type":"uint256"},{"name":"statusCode","type":"uint8"}],"name":"submitOracleResponse","outputs":[],"payable":false,"stateMutability":"nonpayable","type":"function"},
{"anonymous":false,"inputs":[{"indexed":false,"name":"index","type":"uint8"},{"indexed":false,"name":"airline","type":"address"},{"indexed":false,"name":"flight","type":"string"},{"indexed":false,"name":"timestamp","type":"uint256"}],"name":"OracleRequest","type":"event"}
]`

// DataABIJSON is the subset of the FlightSuretyData interface the relay calls.
const DataABIJSON = `[
{"constant":false,"inputs":[{"name":"caller","type":"address"}],"name":"authorizeCaller","outputs":[],"payable":false,"stateMutability":"nonpayable","type":"function"},
{"constant":true,"inputs":[],"name":"isOperational","outputs":[{"name":"","type":"bool"}],"payable":false,"stateMutability":"view","type":"function"}
]`

const (
	methodIsOperational        = "isOperational"
	methodGetOperatingAirlines = "getOperatingAirlines"
	methodRegisterAirline      = "registerAirline"
	methodFundAirline          = "fundAirline"
	methodBuyInsurance         = "buyInsurance"
	methodPayoutInsuree        = "payoutInsuree"
	methodGetInsureeBalance    = "getInsureeBalance"
	methodFetchFlightStatus    = "fetchFlightStatus"
	methodRegisterOracle       = "registerOracle"
	methodGetMyIndexes         = "getMyIndexes"
	methodSubmitOracleResponse = "submitOracleResponse"
	methodAuthorizeCaller      = "authorizeCaller"

	eventOracleRequest = "OracleRequest"
)

var (
	appRequired  = []string{methodIsOperational, methodGetOperatingAirlines, methodRegisterOracle, methodGetMyIndexes, methodSubmitOracleResponse}
	dataRequired = []string{methodAuthorizeCaller}
)

// truffleArtifact is the part of a truffle build/contracts/*.json file we read.
type truffleArtifact struct {
	ABI json.RawMessage `json:"abi"`
}

// LoadABI reads an ABI from path, accepting either a bare ABI array or a truffle
// artifact carrying one under "abi". An empty path yields the builtin fallback.
func LoadABI(path string, fallback string) (abi.ABI, error) {
	if path == "" {
		return abi.JSON(bytes.NewReader([]byte(fallback)))
	}
	bz, err := ioutil.ReadFile(path)
	if err != nil {
		return abi.ABI{}, errors.Wrapf(err, "read abi %s", path)
	}
	return ParseABI(bz)
}

// ParseABI parses a bare ABI array or a truffle artifact.
func ParseABI(bz []byte) (abi.ABI, error) {
	bz = bytes.TrimSpace(bz)
	if len(bz) > 0 && bz[0] == '{' {
		var artifact truffleArtifact
		if err := json.Unmarshal(bz, &artifact); err != nil {
			return abi.ABI{}, errors.Wrap(err, "decode truffle artifact")
		}
		if len(artifact.ABI) == 0 {
			return abi.ABI{}, errors.New("truffle artifact has no abi")
		}
		bz = artifact.ABI
	}
	parsed, err := abi.JSON(bytes.NewReader(bz))
	if err != nil {
		return abi.ABI{}, errors.Wrap(err, "parse abi")
	}
	return parsed, nil
}

func requireMethods(contract string, parsed abi.ABI, methods []string) error {
	for _, name := range methods {
		if _, ok := parsed.Methods[name]; !ok {
			return errors.Errorf("%s abi has no method %s", contract, name)
		}
	}
	return nil
}
