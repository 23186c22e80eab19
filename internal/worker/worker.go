package worker

import (
	"context"
	"log/slog"

	"github.com/rubenvp8510/ticket-load-generator/internal/seating"
)

// SliceSource hands out seat slices, each at most once
type SliceSource interface {
	Pop() ([]seating.Seat, bool)
	Len() int
}

// SeatSource hands out single seats, each at most once
type SeatSource interface {
	Pop() (seating.Seat, bool)
	Len() int
}

// UserResult summarizes a finished simulated user
type UserResult struct {
	UserID     int
	State      State
	SliceSize  int
	Attempts   int
	Budget     int
	Duplicates int
	Purchased  int
	Verified   int
	// Err is seating.ErrQueueExhausted when the user received no seats
	Err error
}

// SequentialPurchaser owns one seat slice and attempts it with a share of duplicate replays
type SequentialPurchaser struct {
	purchaser
	slices         SliceSource
	duplicateRatio float64
	state          State
	attempts       *AttemptState
}

// State returns the current lifecycle state
func (u *SequentialPurchaser) State() State { return u.state }

// Run executes the user's attempt loop until the budget is spent, the
// fresh pool and history are both empty, or ctx is cancelled.
func (u *SequentialPurchaser) Run(ctx context.Context) (result UserResult) {
	result = UserResult{UserID: u.userID}
	defer func() {
		u.state = StateStopped
		result.State = u.state
	}()

	slice, ok := u.slices.Pop()
	u.metrics.SlicesRemainingGauge.Set(float64(u.slices.Len()))
	if !ok {
		slog.Info("seat slice queue empty, stopping user", "user_id", u.userID)
		u.metrics.UsersWithoutSeatsCounter.Inc()
		result.Err = seating.ErrQueueExhausted
		return result
	}

	u.attempts = NewAttemptState(slice, u.duplicateRatio, u.rng)
	u.state = StateRunning
	result.SliceSize = len(slice)
	result.Budget = u.attempts.Total()
	slog.Info("user got slice", "user_id", u.userID, "slice_size", len(slice), "attempts", u.attempts.Total())

	u.metrics.ActiveUsersGauge.Inc()
	defer u.metrics.ActiveUsersGauge.Dec()

	for !u.attempts.Exhausted() {
		if !u.pace(ctx) {
			slog.Info("user stopped", "user_id", u.userID, "attempts_done", u.attempts.Done())
			break
		}

		seat, replay, ok := u.attempts.Next(u.rng)
		if !ok {
			slog.Info("no seats available, stopping user", "user_id", u.userID)
			break
		}
		if replay {
			result.Duplicates++
			u.metrics.DuplicateAttemptsCounter.Inc()
		}

		out := u.attempt(ctx, seat)
		u.attempts.Complete()
		result.Attempts = u.attempts.Done()
		if out.Purchased {
			result.Purchased++
		}
		if out.VerifiedOK {
			result.Verified++
		}

		if !u.attempts.Exhausted() && !sleep(ctx, u.waitTime) {
			slog.Info("user stopped", "user_id", u.userID, "attempts_done", u.attempts.Done())
			break
		}
	}

	slog.Debug("user finished", "user_id", u.userID, "attempts", result.Attempts, "duplicates", result.Duplicates, "purchased", result.Purchased)
	return result
}

// FixedPurchaser draws a fixed number of seats from a shared deterministic queue.
// It never replays a seat.
type FixedPurchaser struct {
	purchaser
	seats  SeatSource
	budget int
	state  State
}

// State returns the current lifecycle state
func (u *FixedPurchaser) State() State { return u.state }

// Run purchases up to budget seats, stopping early when the queue is empty or ctx is cancelled
func (u *FixedPurchaser) Run(ctx context.Context) (result UserResult) {
	result = UserResult{UserID: u.userID, Budget: u.budget}
	defer func() {
		u.state = StateStopped
		result.State = u.state
	}()

	u.state = StateRunning
	u.metrics.ActiveUsersGauge.Inc()
	defer u.metrics.ActiveUsersGauge.Dec()

	for remaining := u.budget; remaining > 0; remaining-- {
		if !u.pace(ctx) {
			break
		}

		seat, ok := u.seats.Pop()
		u.metrics.SlicesRemainingGauge.Set(float64(u.seats.Len()))
		if !ok {
			slog.Info("seat queue empty, stopping user", "user_id", u.userID)
			if result.Attempts == 0 {
				u.metrics.UsersWithoutSeatsCounter.Inc()
				result.Err = seating.ErrQueueExhausted
			}
			break
		}
		result.SliceSize++

		out := u.attempt(ctx, seat)
		result.Attempts++
		if out.Purchased {
			result.Purchased++
			slog.Info("purchased ticket", "user_id", u.userID, "ticket_id", out.TicketID, "seat", seat.String(), "status_code", out.StatusCode)
		}
		if out.Verified {
			if out.VerifiedOK {
				result.Verified++
				slog.Info("query ok", "user_id", u.userID, "ticket_id", out.TicketID)
			} else {
				slog.Warn("query failed", "user_id", u.userID, "ticket_id", out.TicketID)
			}
		}

		if remaining > 1 && !sleep(ctx, u.waitTime) {
			break
		}
	}
	return result
}
