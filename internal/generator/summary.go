package generator

import (
	"errors"
	"log/slog"
	"time"

	"github.com/rubenvp8510/ticket-load-generator/internal/metrics"
	"github.com/rubenvp8510/ticket-load-generator/internal/seating"
	"github.com/rubenvp8510/ticket-load-generator/internal/worker"
)

// Summary aggregates the outcome of all users of a run
type Summary struct {
	RunID             string                  `json:"runId"`
	Scenario          string                  `json:"scenario"`
	StartedAt         time.Time               `json:"startedAt"`
	Duration          time.Duration           `json:"duration"`
	Users             int                     `json:"users"`
	UsersWithSeats    int                     `json:"usersWithSeats"`
	UsersWithoutSeats int                     `json:"usersWithoutSeats"`
	Attempts          int                     `json:"attempts"`
	Duplicates        int                     `json:"duplicates"`
	Purchased         int                     `json:"purchased"`
	Verified          int                     `json:"verified"`
	Samples           []metrics.SampleSummary `json:"samples"`
}

func newSummary(runID, scenario string) *Summary {
	return &Summary{
		RunID:     runID,
		Scenario:  scenario,
		StartedAt: time.Now(),
	}
}

func (s *Summary) add(res worker.UserResult) {
	s.Users++
	if errors.Is(res.Err, seating.ErrQueueExhausted) {
		s.UsersWithoutSeats++
	} else {
		s.UsersWithSeats++
	}
	s.Attempts += res.Attempts
	s.Duplicates += res.Duplicates
	s.Purchased += res.Purchased
	s.Verified += res.Verified
}

func (s *Summary) finish(samples []metrics.SampleSummary) {
	s.Duration = time.Since(s.StartedAt)
	s.Samples = samples
}

// Log writes the summary as structured log lines
func (s *Summary) Log() {
	slog.Info("run completed",
		"run_id", s.RunID,
		"scenario", s.Scenario,
		"duration_seconds", s.Duration.Seconds(),
		"users", s.Users,
		"users_with_seats", s.UsersWithSeats,
		"users_without_seats", s.UsersWithoutSeats,
		"attempts", s.Attempts,
		"duplicates", s.Duplicates,
		"purchased", s.Purchased,
		"verified", s.Verified)

	for _, sample := range s.Samples {
		slog.Info("request summary",
			"name", sample.Name,
			"requests", sample.Metrics.Requests,
			"successes", sample.Successes,
			"failures", sample.Failures,
			"p50", sample.Metrics.Latencies.P50,
			"p95", sample.Metrics.Latencies.P95,
			"p99", sample.Metrics.Latencies.P99,
			"max", sample.Metrics.Latencies.Max)
	}
}
