package app

import (
	"errors"
	"net/http"

	"github.com/cinexhq/seat-hold-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

func (app *application) GetBookingHandler(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	booking, err := app.manager.GetBooking(r.Context(), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookingNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	resp := toBookingResponse(booking)

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
