package app

import (
	"errors"
	"net/http"

	"github.com/cinexhq/seat-hold-service/api"
	"github.com/cinexhq/seat-hold-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

func (app *application) CreateShowingHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.CreateShowingRequest

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

	layout := domain.SeatLayoutConfig{
		SilverRows:   input.Layout.SilverRows,
		GoldRows:     input.Layout.GoldRows,
		PlatinumRows: input.Layout.PlatinumRows,
		SeatsPerRow:  input.Layout.SeatsPerRow,
	}

	showing, err := domain.NewShowing(input.MovieId, input.TheaterId, input.StartTime, layout)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			app.unprocessableEntityResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	err = app.manager.RegisterShowing(r.Context(), showing)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	logger.Info("showing registered", "showing_id", showing.ID, "seats", len(showing.Seats))

	snapshot := make([]domain.SeatSnapshot, len(showing.Seats))
	for i, seat := range showing.Seats {
		snapshot[i] = domain.SeatSnapshot{Seat: seat, State: domain.SeatAvailable}
	}

	resp := api.ShowingResponse{
		ShowingId: showing.ID,
		MovieId:   showing.MovieID,
		TheaterId: showing.TheaterID,
		StartTime: showing.StartTime,
		SeatRows:  toSeatRows(snapshot),
	}

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) GetSeatMapHandler(w http.ResponseWriter, r *http.Request) {
	showingID := chi.URLParam(r, "showingId")

	snapshot, err := app.manager.SeatMap(r.Context(), showingID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrShowingNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	resp := api.SeatMapResponse{
		ShowingId: showingID,
		SeatRows:  toSeatRows(snapshot),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toSeatRows(seats []domain.SeatSnapshot) []api.SeatRow {
	// Seats arrive in layout order (row by row), so a single pass suffices.

	var seatRows []api.SeatRow
	currentRow := api.SeatRow{Row: seats[0].Row}

	for _, v := range seats {
		if v.Row != currentRow.Row {
			seatRows = append(seatRows, currentRow)
			currentRow = api.SeatRow{Row: v.Row}
		}

		currentRow.Seats = append(currentRow.Seats, api.Seat{
			Id:     v.ID,
			Row:    v.Row,
			Number: v.Number,
			Tier:   string(v.Tier),
			Price:  v.Price,
			State:  string(v.State),
		})
	}

	seatRows = append(seatRows, currentRow)

	return seatRows
}
