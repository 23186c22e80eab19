package worker

import (
	"math"
	"math/rand"

	"github.com/rubenvp8510/ticket-load-generator/internal/seating"
)

// State is the lifecycle of a simulated user
type State int

const (
	StateInitializing State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// AttemptsTotal returns the attempt budget for a slice: ceil(size × (1 + duplicateRatio)).
// The epsilon keeps exact products such as 5 × 1.2 from rounding up.
func AttemptsTotal(sliceSize int, duplicateRatio float64) int {
	return int(math.Ceil(float64(sliceSize)*(1+duplicateRatio) - 1e-9))
}

// AttemptState tracks the private seat pool of one user
type AttemptState struct {
	fresh          []seating.Seat
	attempted      []seating.Seat
	done           int
	total          int
	duplicateRatio float64
}

// NewAttemptState takes ownership of slice, shuffles it once and sizes the attempt budget
func NewAttemptState(slice []seating.Seat, duplicateRatio float64, rng *rand.Rand) *AttemptState {
	rng.Shuffle(len(slice), func(i, j int) { slice[i], slice[j] = slice[j], slice[i] })
	return &AttemptState{
		fresh:          slice,
		attempted:      make([]seating.Seat, 0, len(slice)),
		total:          AttemptsTotal(len(slice), duplicateRatio),
		duplicateRatio: duplicateRatio,
	}
}

// Next picks the seat for the next attempt. With probability duplicateRatio,
// and only when there is history, a previously attempted seat is replayed.
// Otherwise a fresh seat is taken from the end of the pool, falling back to a
// replay when the pool is empty. ok is false when no seat can be chosen.
func (a *AttemptState) Next(rng *rand.Rand) (seat seating.Seat, replay bool, ok bool) {
	if rng.Float64() < a.duplicateRatio && len(a.attempted) > 0 {
		return a.attempted[rng.Intn(len(a.attempted))], true, true
	}

	if len(a.fresh) == 0 {
		if len(a.attempted) > 0 {
			return a.attempted[rng.Intn(len(a.attempted))], true, true
		}
		return seating.Seat{}, false, false
	}

	last := len(a.fresh) - 1
	seat = a.fresh[last]
	a.fresh = a.fresh[:last]
	a.attempted = append(a.attempted, seat)
	return seat, false, true
}

// Complete counts one finished attempt regardless of its outcome
func (a *AttemptState) Complete() {
	a.done++
}

// Exhausted reports whether the attempt budget is used up
func (a *AttemptState) Exhausted() bool {
	return a.done >= a.total
}

// Done returns the number of completed attempts
func (a *AttemptState) Done() int { return a.done }

// Total returns the attempt budget
func (a *AttemptState) Total() int { return a.total }

// Remaining returns the number of fresh seats not yet attempted
func (a *AttemptState) Remaining() int { return len(a.fresh) }

// Attempted returns the seats attempted so far, in attempt order
func (a *AttemptState) Attempted() []seating.Seat { return a.attempted }
