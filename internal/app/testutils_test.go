package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cinexhq/seat-hold-service/api"
	"github.com/cinexhq/seat-hold-service/internal/domain"
	"github.com/cinexhq/seat-hold-service/internal/events"
	"github.com/cinexhq/seat-hold-service/internal/hold"
	"github.com/cinexhq/seat-hold-service/internal/inventory"
	"github.com/cinexhq/seat-hold-service/internal/repository"
	"github.com/cinexhq/seat-hold-service/internal/validator"
	"github.com/go-chi/chi/v5"
)

func newTestApplication(opts ...func(*application)) *application {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	manager := hold.NewManager(
		inventory.NewCatalog(),
		inventory.NewMemoryStore(),
		repository.NewMemoryBookingRepository(),
		events.NoopPublisher{},
		logger,
		hold.DefaultTTL,
	)

	app := &application{
		validator: validator.NewValidator(),
		logger:    logger,
		manager:   manager,
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// registerTestShowing registers a showing with seats A1, A2, A3 (SILVER, 100 each).
func registerTestShowing(t *testing.T, app *application) *domain.Showing {
	t.Helper()

	layout := domain.SeatLayoutConfig{SilverRows: 1, SeatsPerRow: 3}

	showing, err := domain.NewShowing(1, 1, time.Now().Add(24*time.Hour), layout)
	if err != nil {
		t.Fatal(err)
	}

	err = app.manager.RegisterShowing(context.Background(), showing)
	if err != nil {
		t.Fatal(err)
	}

	return showing
}

func executeRequest(t *testing.T, method, url string, body any) (*httptest.ResponseRecorder, *http.Request) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}

	r := httptest.NewRequest(method, url, bytes.NewReader(jsonData))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	return w, r
}

// withURLParam injects a chi route parameter, so handlers can be exercised
// without a full router.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)

	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func checkErrorResponse(t *testing.T, w *httptest.ResponseRecorder, tt struct {
	wantStatus     int
	wantErrMessage string
}) {
	if tt.wantStatus >= 200 && tt.wantStatus < 300 {
		return
	}

	switch tt.wantStatus {
	case http.StatusUnprocessableEntity:
		var validationResp api.ValidationErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&validationResp); err != nil {
			t.Fatalf("Failed to decode validation error response: %v", err)
		}

		errorSet := make(map[string]bool)
		for _, vErr := range validationResp.ValidationErrors {
			errorSet[vErr.Issue] = true
		}

		if tt.wantErrMessage != "" && !errorSet[tt.wantErrMessage] {
			t.Errorf("Expected validation error message '%s' not found in response", tt.wantErrMessage)
		}

	default:
		var errorResp api.ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&errorResp); err != nil {
			t.Fatalf("Failed to decode error response: %v", err)
		}

		if tt.wantErrMessage != "" && errorResp.Message != tt.wantErrMessage {
			t.Errorf("Error message = %v, want %v", errorResp.Message, tt.wantErrMessage)
		}
	}
}
