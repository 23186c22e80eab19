package seating

import (
	"fmt"
	"strconv"
)

// Offset is the first seat of a deterministic walk. Row is 0-based, Column is 1-based.
type Offset struct {
	ZoneID int
	Row    int
	Column int
}

// ValidateOffset rejects a start zone the layout does not have
func (l VenueLayout) ValidateOffset(start Offset) error {
	if start.ZoneID < 1 || start.ZoneID > l.ZoneCount {
		return fmt.Errorf("%w: zone %d outside venue zones 1..%d", ErrInvalidLayout, start.ZoneID, l.ZoneCount)
	}
	return nil
}

// DeterministicSeats walks the layout from start, advancing column first and
// wrapping to column 1 of the next row. The walk stops early when the zone
// runs out of rows, so fewer than total seats may be returned; shortfall
// reports how many are missing. A short walk is not an error.
func DeterministicSeats(layout VenueLayout, start Offset, total int) (seats []Seat, shortfall int) {
	seats = make([]Seat, 0, total)
	row := start.Row
	col := start.Column
	for range total {
		if col > layout.ColCount {
			col = 1
			row++
		}
		if row >= layout.RowCount {
			break
		}
		seats = append(seats, Seat{
			ZoneID: start.ZoneID,
			Row:    RowLabel(row),
			Column: strconv.Itoa(col),
		})
		col++
	}
	return seats, total - len(seats)
}
