package domain

import "github.com/shopspring/decimal"

type SeatTier string

const (
	TierSilver   SeatTier = "SILVER"
	TierGold     SeatTier = "GOLD"
	TierPlatinum SeatTier = "PLATINUM"
)

// Tier prices are fixed policy values supplied by the catalog; a seat's price
// is fully determined by its tier.
var tierPrices = map[SeatTier]decimal.Decimal{
	TierSilver:   decimal.NewFromInt(100),
	TierGold:     decimal.NewFromInt(150),
	TierPlatinum: decimal.NewFromInt(200),
}

func (t SeatTier) Valid() bool {
	_, ok := tierPrices[t]
	return ok
}

func (t SeatTier) Price() decimal.Decimal {
	return tierPrices[t]
}

type SeatState string

const (
	SeatAvailable SeatState = "AVAILABLE"
	SeatHeld      SeatState = "HELD"
	SeatBooked    SeatState = "BOOKED"
)

// Seat is the immutable part of a seat: identity, position and pricing.
// Its state lives in the SeatStateStore and is never mutated directly.
type Seat struct {
	ID     string
	Row    string
	Number int
	Tier   SeatTier
	Price  decimal.Decimal
}

// SeatStatus is the mutable state of a single seat as tracked by the
// SeatStateStore. HoldID is set only while the seat is HELD, BookingID only
// once it is BOOKED.
type SeatStatus struct {
	State     SeatState
	HoldID    string
	BookingID string
}

// SeatSnapshot joins a seat's immutable attributes with its current state for
// display purposes. It never exposes who holds the seat.
type SeatSnapshot struct {
	Seat
	State SeatState
}
