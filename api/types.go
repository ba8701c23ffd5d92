// Package api defines the wire types of the seat hold service.
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	ValidationErrors []ValidationError `json:"validationErrors"`
	RequestId        string            `json:"requestId"`
	Timestamp        time.Time         `json:"timestamp"`
}

// ConflictResponse reports a definitive business conflict. Reason is set for
// hold lifecycle conflicts, ConflictingSeatIds for seat contention.
type ConflictResponse struct {
	Message            string    `json:"message"`
	Reason             string    `json:"reason,omitempty"`
	ConflictingSeatIds []string  `json:"conflictingSeatIds,omitempty"`
	RequestId          string    `json:"requestId"`
	Timestamp          time.Time `json:"timestamp"`
}

type SeatLayoutRequest struct {
	SilverRows   int `json:"silverRows" validate:"gte=0"`
	GoldRows     int `json:"goldRows" validate:"gte=0"`
	PlatinumRows int `json:"platinumRows" validate:"gte=0"`
	SeatsPerRow  int `json:"seatsPerRow" validate:"required,gt=0"`
}

type CreateShowingRequest struct {
	MovieId   int               `json:"movieId" validate:"required,gt=0"`
	TheaterId int               `json:"theaterId" validate:"required,gt=0"`
	StartTime time.Time         `json:"startTime" validate:"required"`
	Layout    SeatLayoutRequest `json:"layout" validate:"required"`
}

type Seat struct {
	Id     string          `json:"id"`
	Row    string          `json:"row"`
	Number int             `json:"number"`
	Tier   string          `json:"tier"`
	Price  decimal.Decimal `json:"price"`
	State  string          `json:"state"`
}

type SeatRow struct {
	Row   string `json:"row"`
	Seats []Seat `json:"seats"`
}

type SeatMapResponse struct {
	ShowingId string    `json:"showingId"`
	SeatRows  []SeatRow `json:"seatRows"`
}

type ShowingResponse struct {
	ShowingId string    `json:"showingId"`
	MovieId   int       `json:"movieId"`
	TheaterId int       `json:"theaterId"`
	StartTime time.Time `json:"startTime"`
	SeatRows  []SeatRow `json:"seatRows"`
}

type CreateHoldRequest struct {
	ShowingId   string   `json:"showingId" validate:"required,uuid"`
	SeatIds     []string `json:"seatIds" validate:"required,min=1,max=8,dive,seat_id"`
	RequesterId string   `json:"requesterId" validate:"required"`
}

type HoldRequesterRequest struct {
	RequesterId string `json:"requesterId" validate:"required"`
}

type HoldResponse struct {
	HoldId    string    `json:"holdId"`
	ShowingId string    `json:"showingId"`
	SeatIds   []string  `json:"seatIds"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type BookingResponse struct {
	BookingId   string          `json:"bookingId"`
	ShowingId   string          `json:"showingId"`
	SeatIds     []string        `json:"seatIds"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CommittedAt time.Time       `json:"committedAt"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}
