package oracle

import (
	"math/rand"
	"sync"
	"time"

	"github.com/flightsurety/relay/x/oracle/types"
)

// StatusSource produces the status an oracle reports.
type StatusSource interface {
	Next() types.StatusCode
}

var _ StatusSource = (*StatusGenerator)(nil)

// StatusGenerator draws random flight statuses skewed toward the payout code so
// that simulations exercise the insurance payout path. Safe for concurrent use.
type StatusGenerator struct {
	mtx sync.Mutex
	rnd *rand.Rand
}

func NewStatusGenerator(seed int64) *StatusGenerator {
	return &StatusGenerator{rnd: rand.New(rand.NewSource(seed))}
}

// NewTimeSeededStatusGenerator seeds the generator from the wall clock.
func NewTimeSeededStatusGenerator() *StatusGenerator {
	return NewStatusGenerator(time.Now().UnixNano())
}

func (g *StatusGenerator) Next() types.StatusCode {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	return RandomFlightStatus(g.rnd)
}

// RandomFlightStatus returns late-airline with probability 6/10, otherwise one of
// the five no-payout codes uniformly (8% each).
func RandomFlightStatus(r *rand.Rand) types.StatusCode {
	if r.Intn(10) < 6 {
		return types.StatusCodeLateAirline
	}
	return types.NoPayoutStatusCodes[r.Intn(len(types.NoPayoutStatusCodes))]
}
