package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flightsurety/relay/pubsub"
)

const OracleRequestEventName = "OracleRequest"

var _ pubsub.Event = OracleRequestEvent{}

// OracleRequestEvent is a decoded OracleRequest log. The log coordinates are
// kept so the listener can resume and de-duplicate.
type OracleRequestEvent struct {
	Index     uint8          `json:"index"`
	Airline   common.Address `json:"airline"`
	Flight    string         `json:"flight"`
	Timestamp *big.Int       `json:"timestamp"`

	BlockNumber uint64      `json:"block_number"`
	TxHash      common.Hash `json:"tx_hash"`
	LogIndex    uint        `json:"log_index"`
}

func (ev OracleRequestEvent) GetTopic() pubsub.Topic {
	return pubsub.OracleRequestTopic
}

// Key identifies the log that produced the event.
func (ev OracleRequestEvent) Key() string {
	return LogKey(ev.TxHash, ev.LogIndex)
}

func LogKey(txHash common.Hash, logIndex uint) string {
	return fmt.Sprintf("%s:%d", txHash.Hex(), logIndex)
}

func (ev OracleRequestEvent) String() string {
	return fmt.Sprintf("OracleRequest{%d#%s#%s#%v}", ev.Index, ev.Airline.Hex(), ev.Flight, ev.Timestamp)
}
