package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/rubenvp8510/ticket-load-generator/internal/config"
	"github.com/rubenvp8510/ticket-load-generator/internal/metrics"
	"github.com/rubenvp8510/ticket-load-generator/internal/seating"
	"github.com/rubenvp8510/ticket-load-generator/internal/worker"
)

// ErrNotPrepared is returned by Run when Prepare has not succeeded
var ErrNotPrepared = errors.New("runner not prepared")

// Runner orchestrates one load test run: it builds the shared seat queue
// once, then spawns simulated users against it.
type Runner struct {
	cfg     *config.Config
	metrics *metrics.Metrics
	api     worker.TicketAPI
	runID   string

	layout    seating.VenueLayout
	slices    *seating.SliceQueue
	seats     *seating.SeatQueue
	shortfall int
	prepared  bool
}

// NewRunner creates a runner. cfg is treated as read-only.
func NewRunner(cfg *config.Config, m *metrics.Metrics, api worker.TicketAPI) *Runner {
	return &Runner{
		cfg:     cfg,
		metrics: m,
		api:     api,
		runID:   uuid.NewString(),
	}
}

// RunID identifies this run in logs and reports
func (r *Runner) RunID() string { return r.runID }

// Prepare loads the venue and builds the work queue. Errors wrap
// config.ErrConfiguration or seating.ErrInvalidLayout and are fatal for the run.
func (r *Runner) Prepare() error {
	test := r.cfg.Test
	venuesPath := r.cfg.VenuesFile()

	layout, err := config.LoadVenueLayout(venuesPath, test.VenueID)
	if err != nil {
		return fmt.Errorf("unable to load venue layout: %w", err)
	}
	r.layout = layout

	if err := r.checkEvent(); err != nil {
		return err
	}

	switch test.Scenario {
	case config.ScenarioDeterministic:
		err = r.prepareDeterministic()
	default:
		err = r.prepareSequential()
	}
	if err != nil {
		return err
	}

	r.prepared = true
	return nil
}

func (r *Runner) prepareSequential() error {
	test := r.cfg.Test
	if err := r.layout.Validate(); err != nil {
		return err
	}

	slices, err := seating.Partition(r.layout, test.SeatsPerUser)
	if err != nil {
		return fmt.Errorf("unable to partition seats: %w", err)
	}
	r.slices = seating.NewSliceQueue(slices)
	r.metrics.SlicesRemainingGauge.Set(float64(r.slices.Len()))

	slog.Info("seat slices populated",
		"run_id", r.runID,
		"venue", test.VenueID,
		"slices", r.slices.Len(),
		"seats_total", r.layout.Capacity(),
		"seats_per_user", test.SeatsPerUser)

	if test.Users > r.slices.Len() {
		slog.Warn("more users than seat slices, extra users will stop immediately",
			"users", test.Users, "slices", r.slices.Len())
	}
	return nil
}

func (r *Runner) prepareDeterministic() error {
	det := r.cfg.Deterministic
	if err := r.layout.ValidateStrict(); err != nil {
		return err
	}

	start := seating.Offset{
		ZoneID: det.ZoneID,
		Row:    det.StartRow,
		Column: det.StartColumn,
	}
	if err := r.layout.ValidateOffset(start); err != nil {
		return err
	}

	seats, shortfall := seating.DeterministicSeats(r.layout, start, det.TotalSeats)
	if shortfall > 0 {
		// Not fatal: the run proceeds with the seats that fit.
		slog.Warn("generated fewer seats than requested due to venue limits",
			"generated", len(seats), "requested", det.TotalSeats)
	}
	r.seats = seating.NewSeatQueue(seats)
	r.shortfall = shortfall
	r.metrics.SlicesRemainingGauge.Set(float64(r.seats.Len()))

	slog.Info("deterministic seat queue populated",
		"run_id", r.runID,
		"venue", r.cfg.Test.VenueID,
		"seats", len(seats),
		"start", seating.Seat{ZoneID: det.ZoneID, Row: seating.RowLabel(det.StartRow), Column: fmt.Sprint(det.StartColumn)}.String())
	return nil
}

// checkEvent cross-checks the target event against events.yml when it exists
func (r *Runner) checkEvent() error {
	path := r.cfg.EventsFile()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Warn("events file not found, skipping event check", "path", path)
		return nil
	}

	events, err := config.LoadEvents(path)
	if err != nil {
		return fmt.Errorf("unable to load events: %w", err)
	}

	test := r.cfg.Test
	event, ok := events.Find(test.EventID)
	switch {
	case !ok:
		slog.Warn("target event not listed in events file", "event", test.EventID, "path", path)
	case !event.Enabled:
		slog.Warn("target event is disabled", "event", test.EventID)
	case event.VenueID != test.VenueID:
		slog.Warn("target event is bound to another venue", "event", test.EventID, "event_venue", event.VenueID, "venue", test.VenueID)
	}
	return nil
}

// newLimiter creates the shared limiter for all users, or nil when unlimited
func (r *Runner) newLimiter() *rate.Limiter {
	rps := r.cfg.Test.TargetRPS
	if rps <= 0 {
		return nil
	}
	// Calculate burst size: allow 1-2 seconds of burst capacity for better rate accuracy
	burstSize := int(math.Max(10, rps*r.cfg.Test.BurstMultiplier))
	slog.Info("rate limiter", "rps", rps, "burst", burstSize, "multiplier", r.cfg.Test.BurstMultiplier)
	return rate.NewLimiter(rate.Limit(rps), burstSize)
}

// Run spawns the configured users, waits for all of them to stop and returns
// the run summary. Cancelling ctx stops spawning and asks running users to stop
// after their current request.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	if !r.prepared {
		return nil, ErrNotPrepared
	}

	test := r.cfg.Test
	if test.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, test.Duration)
		defer cancel()
	}

	seed := test.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var limiter worker.RateLimiter
	if l := r.newLimiter(); l != nil {
		limiter = l
	}

	summary := newSummary(r.runID, test.Scenario)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	slog.Info("starting users", "run_id", r.runID, "scenario", test.Scenario, "users", test.Users, "spawn_rate", test.SpawnRate, "seed", seed)

	// One user per tick; nil spawns everyone at once
	var ticker *time.Ticker
	if test.SpawnRate > 0 {
		if interval := time.Duration(float64(time.Second) / test.SpawnRate); interval > 0 {
			ticker = time.NewTicker(interval)
			defer ticker.Stop()
		}
	}

spawn:
	for i := 0; i < test.Users; i++ {
		if i > 0 && ticker != nil {
			select {
			case <-ctx.Done():
				break spawn
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			break
		}

		userID := i + 1
		builder := r.userBuilder(userID, seed+int64(i), limiter)

		wg.Add(1)
		go func() {
			defer wg.Done()
			res := r.runUser(ctx, builder)
			mu.Lock()
			summary.add(res)
			mu.Unlock()
		}()
	}

	wg.Wait()
	summary.finish(r.metrics.Samples.Snapshot())
	return summary, nil
}

func (r *Runner) userBuilder(userID int, seed int64, limiter worker.RateLimiter) *worker.UserBuilder {
	test := r.cfg.Test
	b := worker.NewUserBuilder().
		WithUserID(userID).
		WithTicketAPI(r.api).
		WithLimiter(limiter).
		WithMetrics(r.metrics).
		WithTarget(test.EventID, test.VenueID).
		WithThinkTime(test.ThinkTime).
		WithWaitTime(test.WaitTime).
		WithSeed(seed)

	if test.Scenario == config.ScenarioDeterministic {
		return b.WithVerifyProbability(r.cfg.Deterministic.VerifyProbability)
	}
	return b.WithDuplicateRatio(test.DuplicateRatio).WithVerifyProbability(test.VerifyProbability)
}

func (r *Runner) runUser(ctx context.Context, b *worker.UserBuilder) worker.UserResult {
	if r.cfg.Test.Scenario == config.ScenarioDeterministic {
		return b.BuildFixed(r.seats, r.cfg.Deterministic.SeatsPerUser).Run(ctx)
	}
	return b.BuildSequential(r.slices).Run(ctx)
}
