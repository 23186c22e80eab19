// Package seating expands a venue layout into addressable seats and
// distributes them to simulated users.
package seating

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
)

// ErrInvalidLayout is returned for venues that have no seats to distribute.
// It is fatal for the run.
var ErrInvalidLayout = errors.New("invalid venue layout")

// VenueLayout holds the zone/row/column dimensions of a venue
type VenueLayout struct {
	ZoneCount int
	RowCount  int
	ColCount  int
}

// Seat addresses a single seat. It marshals to the purchase request fields.
type Seat struct {
	ZoneID int    `json:"zoneId"`
	Row    string `json:"row"`
	Column string `json:"column"`
}

func (s Seat) String() string {
	return fmt.Sprintf("%d-%s-%s", s.ZoneID, s.Row, s.Column)
}

// RowLabel maps a 0-based row index to its letter label (0 is "A").
// Indexes past 25 continue through the code points after 'Z'.
func RowLabel(rowIndex int) string {
	return string(rune('A' + rowIndex))
}

// Validate rejects a layout with no zones
func (l VenueLayout) Validate() error {
	if l.ZoneCount <= 0 {
		return fmt.Errorf("%w: venue has %d zones", ErrInvalidLayout, l.ZoneCount)
	}
	return nil
}

// ValidateStrict also rejects layouts with no rows or columns
func (l VenueLayout) ValidateStrict() error {
	if l.ZoneCount <= 0 || l.RowCount <= 0 || l.ColCount <= 0 {
		return fmt.Errorf("%w: zero dimensions (zones=%d rows=%d cols=%d)", ErrInvalidLayout, l.ZoneCount, l.RowCount, l.ColCount)
	}
	return nil
}

// Capacity is the total number of seats
func (l VenueLayout) Capacity() int {
	if l.ZoneCount <= 0 || l.RowCount <= 0 || l.ColCount <= 0 {
		return 0
	}
	return l.ZoneCount * l.RowCount * l.ColCount
}

// SeatAt maps a linear index to a seat in zone-major, row-major, column-minor order.
// The caller must keep i within [0, Capacity()).
func (l VenueLayout) SeatAt(i int) Seat {
	seatsPerZone := l.RowCount * l.ColCount
	zoneIndex := i / seatsPerZone
	rem := i % seatsPerZone
	rowIndex := rem / l.ColCount
	colIndex := rem % l.ColCount
	return Seat{
		ZoneID: zoneIndex + 1,
		Row:    RowLabel(rowIndex),
		Column: strconv.Itoa(colIndex + 1),
	}
}

// Seats returns the full seat sequence. The sequence is lazy and can be
// ranged over any number of times.
func (l VenueLayout) Seats() iter.Seq[Seat] {
	return func(yield func(Seat) bool) {
		capacity := l.Capacity()
		for i := 0; i < capacity; i++ {
			if !yield(l.SeatAt(i)) {
				return
			}
		}
	}
}
