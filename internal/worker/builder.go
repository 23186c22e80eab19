package worker

import (
	"math/rand"
	"time"

	"github.com/rubenvp8510/ticket-load-generator/internal/metrics"
)

// UserBuilder builds simulated users using the builder pattern
type UserBuilder struct {
	userID            int
	api               TicketAPI
	limiter           RateLimiter
	metrics           *metrics.Metrics
	eventID           string
	venueID           string
	duplicateRatio    float64
	verifyProbability float64
	thinkTime         time.Duration
	waitTime          time.Duration
	seed              int64
}

// NewUserBuilder creates a new UserBuilder instance
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{}
}

// WithUserID sets the user ID
func (b *UserBuilder) WithUserID(userID int) *UserBuilder {
	b.userID = userID
	return b
}

// WithTicketAPI sets the service client
func (b *UserBuilder) WithTicketAPI(api TicketAPI) *UserBuilder {
	b.api = api
	return b
}

// WithLimiter sets the shared rate limiter
func (b *UserBuilder) WithLimiter(limiter RateLimiter) *UserBuilder {
	b.limiter = limiter
	return b
}

// WithMetrics sets the metrics collector
func (b *UserBuilder) WithMetrics(metrics *metrics.Metrics) *UserBuilder {
	b.metrics = metrics
	return b
}

// WithTarget sets the event and venue every purchase is made for
func (b *UserBuilder) WithTarget(eventID, venueID string) *UserBuilder {
	b.eventID = eventID
	b.venueID = venueID
	return b
}

// WithDuplicateRatio sets the share of attempts that replay an attempted seat
func (b *UserBuilder) WithDuplicateRatio(duplicateRatio float64) *UserBuilder {
	b.duplicateRatio = duplicateRatio
	return b
}

// WithVerifyProbability sets the probability of querying a purchased ticket
func (b *UserBuilder) WithVerifyProbability(verifyProbability float64) *UserBuilder {
	b.verifyProbability = verifyProbability
	return b
}

// WithThinkTime sets the pause before a verification query
func (b *UserBuilder) WithThinkTime(thinkTime time.Duration) *UserBuilder {
	b.thinkTime = thinkTime
	return b
}

// WithWaitTime sets the pause between attempts
func (b *UserBuilder) WithWaitTime(waitTime time.Duration) *UserBuilder {
	b.waitTime = waitTime
	return b
}

// WithSeed sets the seed of the user's random number generator
func (b *UserBuilder) WithSeed(seed int64) *UserBuilder {
	b.seed = seed
	return b
}

func (b *UserBuilder) purchaser() purchaser {
	return purchaser{
		userID:            b.userID,
		api:               b.api,
		limiter:           b.limiter,
		metrics:           b.metrics,
		eventID:           b.eventID,
		venueID:           b.venueID,
		verifyProbability: b.verifyProbability,
		thinkTime:         b.thinkTime,
		waitTime:          b.waitTime,
		rng:               rand.New(rand.NewSource(b.seed)),
	}
}

// BuildSequential creates a randomized user drawing one slice from slices
func (b *UserBuilder) BuildSequential(slices SliceSource) *SequentialPurchaser {
	return &SequentialPurchaser{
		purchaser:      b.purchaser(),
		slices:         slices,
		duplicateRatio: b.duplicateRatio,
		state:          StateInitializing,
	}
}

// BuildFixed creates a deterministic user drawing up to budget seats from seats
func (b *UserBuilder) BuildFixed(seats SeatSource, budget int) *FixedPurchaser {
	return &FixedPurchaser{
		purchaser: b.purchaser(),
		seats:     seats,
		budget:    budget,
		state:     StateInitializing,
	}
}
