package worker

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubenvp8510/ticket-load-generator/internal/client"
	"github.com/rubenvp8510/ticket-load-generator/internal/metrics"
	"github.com/rubenvp8510/ticket-load-generator/internal/seating"
)

type fakeAPI struct {
	mu           sync.Mutex
	purchaseCode int
	queryCode    int
	purchases    []client.PurchaseRequest
	queries      []string
}

func (f *fakeAPI) Purchase(_ context.Context, p client.PurchaseRequest) (*client.PurchaseResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purchases = append(f.purchases, p)
	res := &client.PurchaseResult{Result: client.Result{StatusCode: f.purchaseCode, Timestamp: time.Now()}}
	if f.purchaseCode == http.StatusCreated {
		res.Ticket = &client.TicketResponse{TicketID: fmt.Sprintf("t-%d", len(f.purchases))}
	}
	return res, nil
}

func (f *fakeAPI) GetTicket(_ context.Context, ticketID string) (*client.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, ticketID)
	return &client.Result{StatusCode: f.queryCode, Timestamp: time.Now()}, nil
}

func testSlice(n int) []seating.Seat {
	layout := seating.VenueLayout{ZoneCount: 1, RowCount: 26, ColCount: 40}
	seats := make([]seating.Seat, 0, n)
	for i := 0; i < n; i++ {
		seats = append(seats, layout.SeatAt(i))
	}
	return seats
}

func newBuilder(api TicketAPI, m *metrics.Metrics) *UserBuilder {
	return NewUserBuilder().
		WithUserID(1).
		WithTicketAPI(api).
		WithMetrics(m).
		WithTarget("Event1", "Venue1").
		WithSeed(42)
}

func TestAttemptsTotal(t *testing.T) {
	assert.Equal(t, 94, AttemptsTotal(78, 0.2))
	assert.Equal(t, 6, AttemptsTotal(5, 0.2))
	assert.Equal(t, 3, AttemptsTotal(2, 0.2))
	assert.Equal(t, 2, AttemptsTotal(2, 0))
	assert.Equal(t, 0, AttemptsTotal(0, 0.2))
}

func TestAttemptStateConsumesEveryFreshSeatOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	slice := testSlice(78)
	a := NewAttemptState(append([]seating.Seat(nil), slice...), 0.2, rng)
	require.Equal(t, 94, a.Total())

	fresh := make(map[seating.Seat]int)
	replays := 0
	for !a.Exhausted() {
		seat, replay, ok := a.Next(rng)
		require.True(t, ok)
		if replay {
			replays++
			assert.Contains(t, a.Attempted(), seat)
		} else {
			fresh[seat]++
		}
		a.Complete()
	}

	assert.Equal(t, 94, a.Done())
	assert.Equal(t, 94, len(fresh)+replays)
	for seat, n := range fresh {
		assert.Equal(t, 1, n, "fresh seat %s attempted twice", seat)
	}
	// every attempt that wasn't a replay drew a distinct seat from the slice
	for seat := range fresh {
		assert.Contains(t, slice, seat)
	}
	assert.Positive(t, replays)
}

func TestAttemptStateNoReplayWithoutHistory(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := NewAttemptState(testSlice(3), 1.0, rng)

	_, replay, ok := a.Next(rng)
	require.True(t, ok)
	assert.False(t, replay, "first attempt has no history to replay")

	_, replay, ok = a.Next(rng)
	require.True(t, ok)
	assert.True(t, replay, "ratio 1.0 always replays once history exists")
}

func TestAttemptStateFallsBackToReplayWhenFreshExhausted(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	a := NewAttemptState(testSlice(2), 0, rng)

	for i := 0; i < 2; i++ {
		_, replay, ok := a.Next(rng)
		require.True(t, ok)
		assert.False(t, replay)
	}
	assert.Zero(t, a.Remaining())

	seat, replay, ok := a.Next(rng)
	require.True(t, ok)
	assert.True(t, replay)
	assert.Contains(t, a.Attempted(), seat)
}

func TestAttemptStateEmpty(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	a := NewAttemptState(nil, 0.2, rng)
	assert.True(t, a.Exhausted())
	_, _, ok := a.Next(rng)
	assert.False(t, ok)
}

func TestSequentialPurchaserSpendsBudget(t *testing.T) {
	api := &fakeAPI{purchaseCode: http.StatusCreated, queryCode: http.StatusOK}
	m := metrics.NewMetrics("test")
	queue := seating.NewSliceQueue([][]seating.Seat{testSlice(10)})

	user := newBuilder(api, m).
		WithDuplicateRatio(0.2).
		WithVerifyProbability(0.5).
		BuildSequential(queue)
	assert.Equal(t, StateInitializing, user.State())

	res := user.Run(context.Background())

	assert.Equal(t, StateStopped, res.State)
	assert.Equal(t, StateStopped, user.State())
	assert.NoError(t, res.Err)
	assert.Equal(t, 10, res.SliceSize)
	assert.Equal(t, 12, res.Budget)
	assert.Equal(t, 12, res.Attempts)
	assert.Len(t, api.purchases, 12)
	assert.Equal(t, 12, res.Purchased)
	assert.Len(t, api.queries, res.Verified)

	for _, p := range api.purchases {
		assert.Equal(t, "Event1", p.EventID)
		assert.Equal(t, "Venue1", p.VenueID)
	}

	sum, ok := m.Samples.Get(metrics.PurchaseRequest)
	require.True(t, ok)
	assert.Equal(t, uint64(12), sum.Successes)
}

func TestSequentialPurchaserStopsWhenQueueEmpty(t *testing.T) {
	api := &fakeAPI{purchaseCode: http.StatusCreated}
	m := metrics.NewMetrics("test")
	queue := seating.NewSliceQueue(nil)

	res := newBuilder(api, m).BuildSequential(queue).Run(context.Background())

	assert.ErrorIs(t, res.Err, seating.ErrQueueExhausted)
	assert.Equal(t, StateStopped, res.State)
	assert.Zero(t, res.Attempts)
	assert.Empty(t, api.purchases)
}

func TestSequentialPurchaserRecordsFailures(t *testing.T) {
	api := &fakeAPI{purchaseCode: http.StatusConflict}
	m := metrics.NewMetrics("test")
	queue := seating.NewSliceQueue([][]seating.Seat{testSlice(4)})

	res := newBuilder(api, m).WithVerifyProbability(1).BuildSequential(queue).Run(context.Background())

	assert.Equal(t, 4, res.Attempts)
	assert.Zero(t, res.Purchased)
	assert.Empty(t, api.queries, "failed purchases are never verified")

	sum, ok := m.Samples.Get(metrics.PurchaseRequest)
	require.True(t, ok)
	assert.Equal(t, uint64(4), sum.Failures)
	for msg := range sum.FailureMessages {
		assert.True(t, strings.HasPrefix(msg, "Failed to purchase seat 1-A-"), msg)
		assert.Contains(t, msg, "Status: 409")
	}
}

func TestSequentialPurchaserHonorsCancellation(t *testing.T) {
	api := &fakeAPI{purchaseCode: http.StatusCreated}
	m := metrics.NewMetrics("test")
	queue := seating.NewSliceQueue([][]seating.Seat{testSlice(50)})

	ctx, cancel := context.WithCancel(context.Background())
	user := newBuilder(api, m).WithWaitTime(time.Hour).BuildSequential(queue)

	done := make(chan UserResult)
	go func() { done <- user.Run(ctx) }()

	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return len(api.purchases) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case res := <-done:
		assert.Equal(t, 1, res.Attempts)
		assert.Equal(t, StateStopped, res.State)
	case <-time.After(2 * time.Second):
		t.Fatal("user did not stop after cancellation")
	}
}

func TestConcurrentUsersReceiveDisjointSlices(t *testing.T) {
	api := &fakeAPI{purchaseCode: http.StatusCreated}
	m := metrics.NewMetrics("test")
	layout := seating.VenueLayout{ZoneCount: 2, RowCount: 5, ColCount: 10}
	slices, err := seating.Partition(layout, 7)
	require.NoError(t, err)
	queue := seating.NewSliceQueue(slices)

	var wg sync.WaitGroup
	results := make([]UserResult, 30)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = newBuilder(api, m).WithUserID(i).WithSeed(int64(i)).BuildSequential(queue).Run(context.Background())
		}(i)
	}
	wg.Wait()

	withSeats, without := 0, 0
	for _, r := range results {
		if r.Err != nil {
			without++
		} else {
			withSeats++
		}
	}
	assert.Equal(t, len(slices), withSeats)
	assert.Equal(t, 30-len(slices), without)

	// duplicate ratio is zero, so every purchase is a distinct seat
	seen := make(map[seating.Seat]bool)
	for _, p := range api.purchases {
		assert.False(t, seen[p.Seat], "seat %s purchased by two users", p.Seat)
		seen[p.Seat] = true
	}
	assert.Len(t, seen, layout.Capacity())
}

func TestFixedPurchaserTwoSeatCap(t *testing.T) {
	api := &fakeAPI{purchaseCode: http.StatusCreated, queryCode: http.StatusOK}
	m := metrics.NewMetrics("test")
	seats, _ := seating.DeterministicSeats(seating.VenueLayout{ZoneCount: 1, RowCount: 2, ColCount: 8}, seating.Offset{ZoneID: 1, Column: 6}, 5)
	queue := seating.NewSeatQueue(seats)

	first := newBuilder(api, m).WithVerifyProbability(1).BuildFixed(queue, 2).Run(context.Background())
	assert.Equal(t, 2, first.Attempts)
	assert.Equal(t, 2, first.Verified)

	second := newBuilder(api, m).WithVerifyProbability(1).BuildFixed(queue, 2).Run(context.Background())
	assert.Equal(t, 2, second.Attempts)

	third := newBuilder(api, m).WithVerifyProbability(1).BuildFixed(queue, 2).Run(context.Background())
	assert.Equal(t, 1, third.Attempts)
	assert.NoError(t, third.Err)

	fourth := newBuilder(api, m).BuildFixed(queue, 2).Run(context.Background())
	assert.Zero(t, fourth.Attempts)
	assert.ErrorIs(t, fourth.Err, seating.ErrQueueExhausted)

	require.Len(t, api.purchases, 5)
	assert.Equal(t, seating.Seat{ZoneID: 1, Row: "A", Column: "6"}, api.purchases[0].Seat)
	assert.Equal(t, seating.Seat{ZoneID: 1, Row: "A", Column: "7"}, api.purchases[1].Seat)
	assert.Equal(t, seating.Seat{ZoneID: 1, Row: "B", Column: "1"}, api.purchases[3].Seat)
	assert.Equal(t, seating.Seat{ZoneID: 1, Row: "B", Column: "2"}, api.purchases[4].Seat)
	assert.Len(t, api.queries, 5)
}

// End to end against HTTP: purchase 201 then query 200 marks both samples
// successful; query 404 fails only the query sample.
func TestPurchaseAndVerifyOverHTTP(t *testing.T) {
	for _, tc := range []struct {
		name      string
		queryCode int
		queryOK   uint64
		queryFail uint64
	}{
		{name: "query ok", queryCode: http.StatusOK, queryOK: 1},
		{name: "query not found", queryCode: http.StatusNotFound, queryFail: 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST "+client.PurchasePath, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{"ticketId":"abc"}`))
			})
			mux.HandleFunc("GET "+client.QueryPath+"{id}", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "abc", r.PathValue("id"))
				w.WriteHeader(tc.queryCode)
			})
			srv := httptest.NewServer(mux)
			defer srv.Close()

			m := metrics.NewMetrics("test")
			api := client.NewTicketClient(srv.URL, srv.URL, client.Options{Timeout: time.Second})
			queue := seating.NewSliceQueue([][]seating.Seat{testSlice(1)})

			res := newBuilder(api, m).
				WithVerifyProbability(1).
				WithThinkTime(time.Millisecond).
				BuildSequential(queue).
				Run(context.Background())
			require.Equal(t, 1, res.Attempts)
			assert.Equal(t, 1, res.Purchased)

			purchase, ok := m.Samples.Get(metrics.PurchaseRequest)
			require.True(t, ok)
			assert.Equal(t, uint64(1), purchase.Successes)
			assert.Zero(t, purchase.Failures)

			query, ok := m.Samples.Get(metrics.QueryRequest)
			require.True(t, ok)
			assert.Equal(t, tc.queryOK, query.Successes)
			assert.Equal(t, tc.queryFail, query.Failures)
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "initializing", StateInitializing.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "stopped", StateStopped.String())
}
