package seating

import (
	"errors"
	"fmt"
)

// ErrQueueExhausted is returned to a user that finds no work left. It stops
// that user only.
var ErrQueueExhausted = errors.New("seat queue exhausted")

// Partition splits the layout's seat sequence into contiguous slices of at
// most seatsPerUser seats. The last slice holds the remainder.
func Partition(layout VenueLayout, seatsPerUser int) ([][]Seat, error) {
	if err := layout.ValidateStrict(); err != nil {
		return nil, err
	}
	if seatsPerUser <= 0 {
		return nil, fmt.Errorf("seats per user must be positive, got %d", seatsPerUser)
	}

	capacity := layout.Capacity()
	slices := make([][]Seat, 0, (capacity+seatsPerUser-1)/seatsPerUser)
	current := make([]Seat, 0, seatsPerUser)
	for seat := range layout.Seats() {
		current = append(current, seat)
		if len(current) == seatsPerUser {
			slices = append(slices, current)
			current = make([]Seat, 0, seatsPerUser)
		}
	}
	if len(current) > 0 {
		slices = append(slices, current)
	}
	return slices, nil
}

// SliceQueue hands out seat slices, each to exactly one consumer.
// It is filled once at construction and is safe for concurrent use.
type SliceQueue struct {
	ch chan []Seat
}

// NewSliceQueue enqueues every non-empty slice
func NewSliceQueue(slices [][]Seat) *SliceQueue {
	ch := make(chan []Seat, len(slices))
	for _, s := range slices {
		if len(s) == 0 {
			continue
		}
		ch <- s
	}
	close(ch)
	return &SliceQueue{ch: ch}
}

// Pop returns the next slice without blocking. ok is false once the queue is empty.
func (q *SliceQueue) Pop() (slice []Seat, ok bool) {
	slice, ok = <-q.ch
	return slice, ok
}

// Len returns the number of slices not yet handed out
func (q *SliceQueue) Len() int {
	return len(q.ch)
}

// SeatQueue hands out single seats, each to exactly one consumer.
type SeatQueue struct {
	ch chan Seat
}

// NewSeatQueue enqueues seats in order
func NewSeatQueue(seats []Seat) *SeatQueue {
	ch := make(chan Seat, len(seats))
	for _, s := range seats {
		ch <- s
	}
	close(ch)
	return &SeatQueue{ch: ch}
}

// Pop returns the next seat without blocking. ok is false once the queue is empty.
func (q *SeatQueue) Pop() (seat Seat, ok bool) {
	seat, ok = <-q.ch
	return seat, ok
}

// Len returns the number of seats not yet handed out
func (q *SeatQueue) Len() int {
	return len(q.ch)
}
