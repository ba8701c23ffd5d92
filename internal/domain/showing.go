package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxSeatsPerBooking is the policy limit on the number of seats a single hold
// (and therefore a single booking) may cover.
const MaxSeatsPerBooking = 8

// maxRows bounds the layout so row labels stay within A..Z.
const maxRows = 26

// SeatLayoutConfig describes a hall layout as supplied by the catalog at
// showing-creation time: contiguous blocks of rows per tier, front to back,
// and a uniform number of seats per row.
type SeatLayoutConfig struct {
	SilverRows   int
	GoldRows     int
	PlatinumRows int
	SeatsPerRow  int
}

func (c SeatLayoutConfig) rowCount() int {
	return c.SilverRows + c.GoldRows + c.PlatinumRows
}

// Showing identifies one (movie, theater, showtime) tuple and owns the
// immutable seat layout generated from its SeatLayoutConfig. Seat state is
// tracked separately by the SeatStateStore.
type Showing struct {
	ID        string
	MovieID   int
	TheaterID int
	StartTime time.Time
	Seats     []Seat

	seatsByID map[string]Seat
}

// NewShowing generates the seat layout for a showing. Rows are labelled A..
// in tier order SILVER, GOLD, PLATINUM and seats are numbered from 1 within
// each row, so seat ids read like "A1" or "C10".
func NewShowing(movieID, theaterID int, startTime time.Time, layout SeatLayoutConfig) (*Showing, error) {
	if layout.rowCount() < 1 {
		return nil, fmt.Errorf("%w: layout must contain at least one row", ErrInvalidRequest)
	}
	if layout.rowCount() > maxRows {
		return nil, fmt.Errorf("%w: layout exceeds %d rows", ErrInvalidRequest, maxRows)
	}
	if layout.SilverRows < 0 || layout.GoldRows < 0 || layout.PlatinumRows < 0 {
		return nil, fmt.Errorf("%w: row counts must not be negative", ErrInvalidRequest)
	}
	if layout.SeatsPerRow < 1 {
		return nil, fmt.Errorf("%w: layout must contain at least one seat per row", ErrInvalidRequest)
	}

	showing := &Showing{
		ID:        uuid.New().String(),
		MovieID:   movieID,
		TheaterID: theaterID,
		StartTime: startTime,
		Seats:     make([]Seat, 0, layout.rowCount()*layout.SeatsPerRow),
		seatsByID: make(map[string]Seat, layout.rowCount()*layout.SeatsPerRow),
	}

	for rowIndex := 0; rowIndex < layout.rowCount(); rowIndex++ {
		tier := TierSilver
		switch {
		case rowIndex >= layout.SilverRows+layout.GoldRows:
			tier = TierPlatinum
		case rowIndex >= layout.SilverRows:
			tier = TierGold
		}

		rowLabel := string(rune('A' + rowIndex))

		for number := 1; number <= layout.SeatsPerRow; number++ {
			seat := Seat{
				ID:     fmt.Sprintf("%s%d", rowLabel, number),
				Row:    rowLabel,
				Number: number,
				Tier:   tier,
				Price:  tier.Price(),
			}

			showing.Seats = append(showing.Seats, seat)
			showing.seatsByID[seat.ID] = seat
		}
	}

	return showing, nil
}

// Seat returns the seat with the given id, if it belongs to this showing.
func (s *Showing) Seat(id string) (Seat, bool) {
	seat, ok := s.seatsByID[id]
	return seat, ok
}

// SeatIDs returns the ids of all seats in layout order.
func (s *Showing) SeatIDs() []string {
	ids := make([]string, len(s.Seats))
	for i, seat := range s.Seats {
		ids[i] = seat.ID
	}
	return ids
}
