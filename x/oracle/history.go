package oracle

import (
	"sort"
	"sync"

	"github.com/flightsurety/relay/x/oracle/types"
)

const DefaultHistorySize = 100

// RequestHistory keeps the most recent OracleRequest events for inspection,
// ordered by their position in the chain (block, then log index). Handlers on
// the bus run concurrently, so Record may see events out of stream order;
// events at the same position keep their arrival order.
type RequestHistory struct {
	mtx    sync.RWMutex
	size   int
	events []types.OracleRequestEvent
}

func NewRequestHistory(size int) *RequestHistory {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &RequestHistory{
		size:   size,
		events: make([]types.OracleRequestEvent, 0, size),
	}
}

// Record inserts req at its chain position and evicts the earliest event once
// the history is full. An event older than everything in a full history is dropped.
func (h *RequestHistory) Record(req types.OracleRequestEvent) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	i := sort.Search(len(h.events), func(i int) bool {
		return logAfter(h.events[i], req)
	})
	if len(h.events) == h.size {
		if i == 0 {
			return
		}
		copy(h.events, h.events[1:i])
		h.events[i-1] = req
		return
	}
	h.events = append(h.events, types.OracleRequestEvent{})
	copy(h.events[i+1:], h.events[i:])
	h.events[i] = req
}

// Recent returns the recorded events, earliest first.
func (h *RequestHistory) Recent() []types.OracleRequestEvent {
	h.mtx.RLock()
	defer h.mtx.RUnlock()

	res := make([]types.OracleRequestEvent, len(h.events))
	copy(res, h.events)
	return res
}

func logAfter(a, b types.OracleRequestEvent) bool {
	if a.BlockNumber != b.BlockNumber {
		return a.BlockNumber > b.BlockNumber
	}
	return a.LogIndex > b.LogIndex
}
