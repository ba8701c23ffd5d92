package app

import (
	"errors"
	"net/http"

	"github.com/cinexhq/seat-hold-service/api"
	"github.com/cinexhq/seat-hold-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

// Conflict reasons reported to clients on hold lifecycle conflicts.
const (
	ReasonExpired   = "Expired"
	ReasonNotActive = "NotActive"
)

func (app *application) CreateHoldHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.CreateHoldRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	hold, err := app.manager.RequestHold(r.Context(), input.ShowingId, input.SeatIds, input.RequesterId)
	if err != nil {
		var unavailable *domain.SeatsUnavailableError

		switch {
		case errors.As(err, &unavailable):
			logger.Warn("hold rejected: seats unavailable",
				"showing_id", input.ShowingId,
				"conflicting_seats", unavailable.ConflictingSeatIDs,
			)
			app.seatsUnavailableResponse(w, r, unavailable.ConflictingSeatIDs)
		case errors.Is(err, domain.ErrShowingNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrLimitExceeded), errors.Is(err, domain.ErrInvalidRequest):
			app.unprocessableEntityResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	logger.Info("hold created", "hold_id", hold.ID, "showing_id", hold.ShowingID, "seats", len(hold.SeatIDs))

	resp := toHoldResponse(hold)

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) RenewHoldHandler(w http.ResponseWriter, r *http.Request) {
	holdID := chi.URLParam(r, "holdId")

	input, ok := app.readRequesterRequest(w, r)
	if !ok {
		return
	}

	hold, err := app.manager.RenewHold(r.Context(), holdID, input.RequesterId)
	if err != nil {
		app.holdErrorResponse(w, r, err)
		return
	}

	resp := toHoldResponse(hold)

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) ReleaseHoldHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)
	holdID := chi.URLParam(r, "holdId")

	input, ok := app.readRequesterRequest(w, r)
	if !ok {
		return
	}

	err := app.manager.ReleaseHold(r.Context(), holdID, input.RequesterId)
	if err != nil {
		app.holdErrorResponse(w, r, err)
		return
	}

	logger.Info("hold released", "hold_id", holdID)

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) CommitHoldHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)
	holdID := chi.URLParam(r, "holdId")

	input, ok := app.readRequesterRequest(w, r)
	if !ok {
		return
	}

	booking, err := app.manager.CommitHold(r.Context(), holdID, input.RequesterId)
	if err != nil {
		app.holdErrorResponse(w, r, err)
		return
	}

	logger.Info("hold committed",
		"hold_id", holdID,
		"booking_id", booking.ID,
		"total_amount", booking.TotalAmount,
	)

	resp := toBookingResponse(booking)

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// readRequesterRequest reads and validates the requester body shared by the
// renew, release and commit endpoints. It writes the error response itself
// and reports success through the second return value.
func (app *application) readRequesterRequest(w http.ResponseWriter, r *http.Request) (api.HoldRequesterRequest, bool) {
	var input api.HoldRequesterRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return input, false
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return input, false
	}

	return input, true
}

// holdErrorResponse maps hold lifecycle errors to HTTP responses. A requester
// mismatch deliberately reads as not found, so holds cannot be probed by
// other requesters.
func (app *application) holdErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrHoldNotFound), errors.Is(err, domain.ErrRequesterMismatch):
		app.notFoundResponse(w, r)
	case errors.Is(err, domain.ErrHoldExpired):
		app.conflictResponse(w, r, ReasonExpired, "The hold has expired")
	case errors.Is(err, domain.ErrHoldNotActive):
		app.conflictResponse(w, r, ReasonNotActive, "The hold is no longer active")
	default:
		app.serverErrorResponse(w, r, err)
	}
}

func toHoldResponse(hold *domain.Hold) api.HoldResponse {
	return api.HoldResponse{
		HoldId:    hold.ID,
		ShowingId: hold.ShowingID,
		SeatIds:   hold.SeatIDs,
		ExpiresAt: hold.ExpiresAt,
	}
}

func toBookingResponse(booking *domain.Booking) api.BookingResponse {
	return api.BookingResponse{
		BookingId:   booking.ID,
		ShowingId:   booking.ShowingID,
		SeatIds:     booking.SeatIDs,
		TotalAmount: booking.TotalAmount,
		CommittedAt: booking.CommittedAt,
	}
}
