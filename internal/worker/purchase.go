package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/rubenvp8510/ticket-load-generator/internal/client"
	"github.com/rubenvp8510/ticket-load-generator/internal/metrics"
	"github.com/rubenvp8510/ticket-load-generator/internal/seating"
)

// TicketAPI is the service under test
type TicketAPI interface {
	Purchase(ctx context.Context, purchase client.PurchaseRequest) (*client.PurchaseResult, error)
	GetTicket(ctx context.Context, ticketID string) (*client.Result, error)
}

// RateLimiter interface allows both rate.Limiter and dynamic limiters
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// AttemptOutcome summarizes one purchase attempt
type AttemptOutcome struct {
	Seat       seating.Seat
	StatusCode int
	TicketID   string
	Purchased  bool
	Verified   bool // a verification query was issued
	VerifiedOK bool
}

// purchaser carries the purchase/verify contract shared by both user variants
type purchaser struct {
	userID            int
	api               TicketAPI
	limiter           RateLimiter
	metrics           *metrics.Metrics
	eventID           string
	venueID           string
	verifyProbability float64
	thinkTime         time.Duration
	waitTime          time.Duration
	rng               *rand.Rand
}

// attempt purchases seat and optionally verifies the ticket. In-flight
// requests are not aborted by ctx; cancellation only skips the think-time
// wait and the verification behind it.
func (p *purchaser) attempt(ctx context.Context, seat seating.Seat) AttemptOutcome {
	out := AttemptOutcome{Seat: seat}
	reqCtx := context.WithoutCancel(ctx)

	res, err := p.api.Purchase(reqCtx, client.PurchaseRequest{
		EventID: p.eventID,
		VenueID: p.venueID,
		Seat:    seat,
	})
	if err != nil {
		var sample client.Result
		if res != nil {
			sample = res.Result
			out.StatusCode = res.StatusCode
		}
		p.metrics.RecordFailure(metrics.PurchaseRequest, sample,
			fmt.Sprintf("Failed to purchase seat %s. Error: %v", seat, err))
		slog.Debug("purchase request error", "user_id", p.userID, "seat", seat.String(), "error", err)
		return out
	}

	out.StatusCode = res.StatusCode
	if res.StatusCode != http.StatusCreated {
		p.metrics.RecordFailure(metrics.PurchaseRequest, res.Result,
			fmt.Sprintf("Failed to purchase seat %s. Status: %d", seat, res.StatusCode))
		slog.Debug("purchase failed", "user_id", p.userID, "seat", seat.String(), "status_code", res.StatusCode)
		return out
	}

	out.Purchased = true
	p.metrics.RecordSuccess(metrics.PurchaseRequest, res.Result)
	if res.Ticket != nil {
		out.TicketID = res.Ticket.TicketID
	}

	if p.rng.Float64() >= p.verifyProbability {
		return out
	}
	if out.TicketID == "" {
		slog.Debug("purchase response without ticket id, skipping verification", "user_id", p.userID, "seat", seat.String())
		return out
	}

	// Simulated human pause before checking the ticket
	if !sleep(ctx, p.thinkTime) {
		slog.Debug("verification skipped, user stopping", "user_id", p.userID, "ticket_id", out.TicketID)
		return out
	}

	out.Verified = true
	out.VerifiedOK = p.verify(reqCtx, out.TicketID)
	return out
}

// verify reads the ticket back; 200 is the only success
func (p *purchaser) verify(ctx context.Context, ticketID string) bool {
	res, err := p.api.GetTicket(ctx, ticketID)
	if err != nil {
		var sample client.Result
		if res != nil {
			sample = *res
		}
		p.metrics.RecordFailure(metrics.QueryRequest, sample,
			fmt.Sprintf("Query failed for ticket %s: %v", ticketID, err))
		return false
	}
	if res.StatusCode != http.StatusOK {
		p.metrics.RecordFailure(metrics.QueryRequest, *res,
			fmt.Sprintf("Query failed: %d body=%s", res.StatusCode, truncate(res.Body, 200)))
		slog.Debug("query failed", "user_id", p.userID, "ticket_id", ticketID, "status_code", res.StatusCode)
		return false
	}
	p.metrics.RecordSuccess(metrics.QueryRequest, *res)
	return true
}

// pace blocks on the shared limiter before an attempt
func (p *purchaser) pace(ctx context.Context) bool {
	if p.limiter == nil {
		return ctx.Err() == nil
	}
	return p.limiter.Wait(ctx) == nil
}

// sleep waits for d unless ctx ends first. It reports whether the full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func truncate(body []byte, n int) string {
	if len(body) > n {
		return string(body[:n]) + "..."
	}
	return string(body)
}
