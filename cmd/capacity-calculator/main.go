package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/rubenvp8510/ticket-load-generator/internal/config"
	"github.com/rubenvp8510/ticket-load-generator/internal/seating"
	"github.com/rubenvp8510/ticket-load-generator/internal/worker"
)

func main() {
	configPath := flag.String("config", "", "path to the run configuration")
	flag.Parse()

	// Load and validate configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	layout, err := config.LoadVenueLayout(cfg.VenuesFile(), cfg.Test.VenueID)
	if err != nil {
		slog.Error("failed to load venue layout", "error", err)
		os.Exit(1)
	}

	test := cfg.Test
	slog.Info("seat plan analysis", "venue", test.VenueID, "scenario", test.Scenario, "users", test.Users)
	slog.Info("venue layout", "zones", layout.ZoneCount, "rows", layout.RowCount, "columns", layout.ColCount, "capacity", layout.Capacity())

	if test.Scenario == config.ScenarioDeterministic {
		analyzeDeterministic(cfg, layout)
		return
	}

	slices, err := seating.Partition(layout, test.SeatsPerUser)
	if err != nil {
		slog.Error("venue cannot be partitioned", "error", err)
		os.Exit(1)
	}

	// Total attempts: every slice is spent to its budget, the last one may be shorter
	totalAttempts := 0
	for _, s := range slices {
		totalAttempts += worker.AttemptsTotal(len(s), test.DuplicateRatio)
	}
	fullBudget := worker.AttemptsTotal(test.SeatsPerUser, test.DuplicateRatio)
	lastSize := len(slices[len(slices)-1])

	slog.Info("seat slices",
		"slices", len(slices),
		"seats_per_user", test.SeatsPerUser,
		"last_slice_size", lastSize,
		"attempts_per_user", fullBudget,
		"attempts_last_user", worker.AttemptsTotal(lastSize, test.DuplicateRatio))

	usersWithSeats := min(test.Users, len(slices))
	if test.Users > len(slices) {
		slog.Warn("more users than slices, extra users stop immediately", "users_without_seats", test.Users-len(slices))
	} else if test.Users < len(slices) {
		slog.Warn("fewer users than slices, part of the venue will not be attempted", "slices_unused", len(slices)-test.Users)
		totalAttempts = 0
		for _, s := range slices[:usersWithSeats] {
			totalAttempts += worker.AttemptsTotal(len(s), test.DuplicateRatio)
		}
	}

	// Only fresh attempts on free seats can succeed; verifications follow successes
	expectedPurchases := min(layout.Capacity(), usersWithSeats*test.SeatsPerUser)
	expectedVerifications := float64(expectedPurchases) * test.VerifyProbability
	slog.Info("expected request volume",
		"purchase_requests", totalAttempts,
		"duplicate_requests", totalAttempts-expectedPurchases,
		"expected_purchases", expectedPurchases,
		"expected_verifications", expectedVerifications)

	analyzeDuration(test, fullBudget)
	slog.Info("capacity analysis complete")
}

// analyzeDuration estimates how long one user takes to spend its budget under various latencies
func analyzeDuration(test config.TestConfig, budget int) {
	scenarios := []struct {
		purchase time.Duration
		query    time.Duration
	}{
		{10 * time.Millisecond, 10 * time.Millisecond},
		{50 * time.Millisecond, 20 * time.Millisecond},
		{100 * time.Millisecond, 50 * time.Millisecond},
		{500 * time.Millisecond, 200 * time.Millisecond},
		{1 * time.Second, 500 * time.Millisecond},
	}

	for _, s := range scenarios {
		// One attempt: purchase + wait, plus think time and query for the verified share
		perAttempt := s.purchase.Seconds() + test.WaitTime.Seconds() +
			test.VerifyProbability*(test.ThinkTime.Seconds()+s.query.Seconds())
		userDuration := time.Duration(perAttempt * float64(budget) * float64(time.Second))
		offeredRPS := float64(test.Users) / perAttempt

		if test.TargetRPS > 0 && offeredRPS > test.TargetRPS {
			slog.Warn("scenario limited by target RPS",
				"avg_purchase_latency", s.purchase,
				"avg_query_latency", s.query,
				"user_duration", userDuration,
				"offered_rps", offeredRPS,
				"target_rps", test.TargetRPS,
				"status", "RATE_LIMITED")
			continue
		}
		if test.Duration > 0 && userDuration > test.Duration {
			slog.Warn("scenario exceeds run duration",
				"avg_purchase_latency", s.purchase,
				"avg_query_latency", s.query,
				"user_duration", userDuration,
				"duration", test.Duration,
				"status", "TRUNCATED")
			continue
		}
		slog.Info("scenario completes",
			"avg_purchase_latency", s.purchase,
			"avg_query_latency", s.query,
			"user_duration", userDuration,
			"offered_rps", offeredRPS,
			"status", "OK")
	}
}

func analyzeDeterministic(cfg *config.Config, layout seating.VenueLayout) {
	det := cfg.Deterministic
	if err := layout.ValidateStrict(); err != nil {
		slog.Error("invalid venue layout", "error", err)
		os.Exit(1)
	}

	start := seating.Offset{
		ZoneID: det.ZoneID,
		Row:    det.StartRow,
		Column: det.StartColumn,
	}
	if err := layout.ValidateOffset(start); err != nil {
		slog.Error("invalid deterministic start", "error", err)
		os.Exit(1)
	}

	seats, shortfall := seating.DeterministicSeats(layout, start, det.TotalSeats)
	if shortfall > 0 {
		slog.Warn("venue cannot hold the requested seats from this offset", "requested", det.TotalSeats, "generated", len(seats), "shortfall", shortfall)
	}

	usersNeeded := (len(seats) + det.SeatsPerUser - 1) / det.SeatsPerUser
	slog.Info("deterministic plan",
		"seats", len(seats),
		"seats_per_user", det.SeatsPerUser,
		"users_needed", usersNeeded,
		"users", cfg.Test.Users,
		"expected_verifications", float64(len(seats))*det.VerifyProbability)
	if len(seats) > 0 {
		slog.Info("seat range", "first", seats[0].String(), "last", seats[len(seats)-1].String())
	}
	if cfg.Test.Users < usersNeeded {
		slog.Warn("not enough users to drain the seat queue", "seats_left", len(seats)-cfg.Test.Users*det.SeatsPerUser)
	}
	slog.Info("capacity analysis complete")
}
