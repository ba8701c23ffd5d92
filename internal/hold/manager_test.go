package hold

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/cinexhq/seat-hold-service/internal/domain"
	"github.com/cinexhq/seat-hold-service/internal/events"
	"github.com/cinexhq/seat-hold-service/internal/inventory"
	"github.com/cinexhq/seat-hold-service/internal/mocks"
	"github.com/cinexhq/seat-hold-service/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// testLayout yields seats A1, A2, A3, all SILVER at price 100.
var testLayout = domain.SeatLayoutConfig{SilverRows: 1, SeatsPerRow: 3}

func newTestManager(t *testing.T, opts ...func(*Manager)) (*Manager, *domain.Showing) {
	t.Helper()

	manager := NewManager(
		inventory.NewCatalog(),
		inventory.NewMemoryStore(),
		repository.NewMemoryBookingRepository(),
		events.NoopPublisher{},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		DefaultTTL,
	)

	for _, opt := range opts {
		opt(manager)
	}

	showing, err := domain.NewShowing(1, 1, time.Now().Add(24*time.Hour), testLayout)
	require.NoError(t, err)
	require.NoError(t, manager.RegisterShowing(context.Background(), showing))

	return manager, showing
}

func seatStates(t *testing.T, manager *Manager, showingID string) map[string]domain.SeatState {
	t.Helper()

	snapshot, err := manager.SeatMap(context.Background(), showingID)
	require.NoError(t, err)

	states := make(map[string]domain.SeatState, len(snapshot))
	for _, seat := range snapshot {
		states[seat.ID] = seat.State
	}

	return states
}

func TestRequestHold_Validation(t *testing.T) {
	ctx := context.Background()
	manager, showing := newTestManager(t)

	tests := []struct {
		name        string
		showingID   string
		seatIDs     []string
		requesterID string
		wantErr     error
	}{
		{
			name:        "empty seat set",
			showingID:   showing.ID,
			seatIDs:     nil,
			requesterID: "user-1",
			wantErr:     domain.ErrLimitExceeded,
		},
		{
			name:        "over the seat limit",
			showingID:   showing.ID,
			seatIDs:     []string{"A1", "A2", "A3", "B1", "B2", "B3", "C1", "C2", "C3"},
			requesterID: "user-1",
			wantErr:     domain.ErrLimitExceeded,
		},
		{
			name:        "duplicate seat ids",
			showingID:   showing.ID,
			seatIDs:     []string{"A1", "A1"},
			requesterID: "user-1",
			wantErr:     domain.ErrInvalidRequest,
		},
		{
			name:        "seat from another showing",
			showingID:   showing.ID,
			seatIDs:     []string{"A1", "Z9"},
			requesterID: "user-1",
			wantErr:     domain.ErrInvalidRequest,
		},
		{
			name:        "unknown showing",
			showingID:   "missing",
			seatIDs:     []string{"A1"},
			requesterID: "user-1",
			wantErr:     domain.ErrShowingNotFound,
		},
		{
			name:        "missing requester",
			showingID:   showing.ID,
			seatIDs:     []string{"A1"},
			requesterID: "",
			wantErr:     domain.ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manager.RequestHold(ctx, tt.showingID, tt.seatIDs, tt.requesterID)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// None of the rejected requests may have touched seat state.
	for id, state := range seatStates(t, manager, showing.ID) {
		assert.Equal(t, domain.SeatAvailable, state, "seat %s", id)
	}
}

// TestRoundTrip walks the full lifecycle: hold, conflicting hold, commit,
// post-booking rejection, and a hold on the remaining free seat.
func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	manager, showing := newTestManager(t)

	hold1, err := manager.RequestHold(ctx, showing.ID, []string{"A1", "A2"}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.HoldActive, hold1.State)
	assert.True(t, hold1.ExpiresAt.After(hold1.CreatedAt))

	states := seatStates(t, manager, showing.ID)
	assert.Equal(t, domain.SeatHeld, states["A1"])
	assert.Equal(t, domain.SeatHeld, states["A2"])
	assert.Equal(t, domain.SeatAvailable, states["A3"])

	_, err = manager.RequestHold(ctx, showing.ID, []string{"A2", "A3"}, "user-2")
	var unavailable *domain.SeatsUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []string{"A2"}, unavailable.ConflictingSeatIDs)

	booking, err := manager.CommitHold(ctx, hold1.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, booking.TotalAmount.Equal(decimal.NewFromInt(200)), "got total %s", booking.TotalAmount)
	assert.Equal(t, []string{"A1", "A2"}, booking.SeatIDs)

	states = seatStates(t, manager, showing.ID)
	assert.Equal(t, domain.SeatBooked, states["A1"])
	assert.Equal(t, domain.SeatBooked, states["A2"])

	_, err = manager.RequestHold(ctx, showing.ID, []string{"A1"}, "user-3")
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []string{"A1"}, unavailable.ConflictingSeatIDs)

	_, err = manager.RequestHold(ctx, showing.ID, []string{"A3"}, "user-2")
	assert.NoError(t, err)

	stored, err := manager.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, stored.ID)
}

func TestHoldIsRequesterBound(t *testing.T) {
	ctx := context.Background()
	manager, showing := newTestManager(t)

	hold, err := manager.RequestHold(ctx, showing.ID, []string{"A1"}, "user-1")
	require.NoError(t, err)

	_, err = manager.RenewHold(ctx, hold.ID, "user-2")
	assert.ErrorIs(t, err, domain.ErrRequesterMismatch)

	err = manager.ReleaseHold(ctx, hold.ID, "user-2")
	assert.ErrorIs(t, err, domain.ErrRequesterMismatch)

	_, err = manager.CommitHold(ctx, hold.ID, "user-2")
	assert.ErrorIs(t, err, domain.ErrRequesterMismatch)

	// The rightful requester is unaffected.
	_, err = manager.CommitHold(ctx, hold.ID, "user-1")
	assert.NoError(t, err)
}

func TestReleaseHold(t *testing.T) {
	ctx := context.Background()
	manager, showing := newTestManager(t)

	hold, err := manager.RequestHold(ctx, showing.ID, []string{"A1", "A2"}, "user-1")
	require.NoError(t, err)

	require.NoError(t, manager.ReleaseHold(ctx, hold.ID, "user-1"))

	for _, state := range seatStates(t, manager, showing.ID) {
		assert.Equal(t, domain.SeatAvailable, state)
	}

	// Terminal states admit no further transitions.
	err = manager.ReleaseHold(ctx, hold.ID, "user-1")
	assert.ErrorIs(t, err, domain.ErrHoldNotActive)

	_, err = manager.CommitHold(ctx, hold.ID, "user-1")
	assert.ErrorIs(t, err, domain.ErrHoldNotActive)

	err = manager.ReleaseHold(ctx, "no-such-hold", "user-1")
	assert.ErrorIs(t, err, domain.ErrHoldNotFound)
}

func TestRenewHold_ExtendsExpiry(t *testing.T) {
	ctx := context.Background()

	current := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	manager, showing := newTestManager(t, func(m *Manager) {
		m.now = func() time.Time { return current }
	})

	hold, err := manager.RequestHold(ctx, showing.ID, []string{"A1"}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, current.Add(DefaultTTL), hold.ExpiresAt)

	current = current.Add(3 * time.Minute)

	renewed, err := manager.RenewHold(ctx, hold.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, current.Add(DefaultTTL), renewed.ExpiresAt)
	assert.True(t, renewed.ExpiresAt.After(hold.ExpiresAt), "renew must strictly increase expiry")

	// A renewed hold survives a sweep that fires at the original deadline.
	expired := manager.ExpireDue(ctx, hold.ExpiresAt)
	assert.Empty(t, expired)
	assert.Equal(t, domain.SeatHeld, seatStates(t, manager, showing.ID)["A1"])
}

func TestLazyExpiry(t *testing.T) {
	ctx := context.Background()

	current := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	manager, showing := newTestManager(t, func(m *Manager) {
		m.now = func() time.Time { return current }
	})

	t.Run("commit past the TTL fails even before a sweep", func(t *testing.T) {
		hold, err := manager.RequestHold(ctx, showing.ID, []string{"A1"}, "user-1")
		require.NoError(t, err)

		current = current.Add(DefaultTTL)

		_, err = manager.CommitHold(ctx, hold.ID, "user-1")
		assert.ErrorIs(t, err, domain.ErrHoldExpired)
		assert.Equal(t, domain.SeatAvailable, seatStates(t, manager, showing.ID)["A1"])

		// The lazy expiry is itself terminal.
		_, err = manager.CommitHold(ctx, hold.ID, "user-1")
		assert.ErrorIs(t, err, domain.ErrHoldNotActive)
	})

	t.Run("renew past the TTL fails the same way", func(t *testing.T) {
		hold, err := manager.RequestHold(ctx, showing.ID, []string{"A2"}, "user-1")
		require.NoError(t, err)

		current = current.Add(DefaultTTL + time.Second)

		_, err = manager.RenewHold(ctx, hold.ID, "user-1")
		assert.ErrorIs(t, err, domain.ErrHoldExpired)
		assert.Equal(t, domain.SeatAvailable, seatStates(t, manager, showing.ID)["A2"])
	})
}

func TestExpireDue(t *testing.T) {
	ctx := context.Background()

	current := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	manager, showing := newTestManager(t, func(m *Manager) {
		m.now = func() time.Time { return current }
	})

	lapsing, err := manager.RequestHold(ctx, showing.ID, []string{"A1", "A2"}, "user-1")
	require.NoError(t, err)

	current = current.Add(time.Minute)

	fresh, err := manager.RequestHold(ctx, showing.ID, []string{"A3"}, "user-2")
	require.NoError(t, err)

	expired := manager.ExpireDue(ctx, lapsing.ExpiresAt)
	require.Len(t, expired, 1)
	assert.Equal(t, lapsing.ID, expired[0].ID)
	assert.Equal(t, domain.HoldExpired, expired[0].State)

	states := seatStates(t, manager, showing.ID)
	assert.Equal(t, domain.SeatAvailable, states["A1"])
	assert.Equal(t, domain.SeatAvailable, states["A2"])
	assert.Equal(t, domain.SeatHeld, states["A3"], "an unexpired hold must survive the sweep")

	// A second pass over the same deadline finds nothing: expiry is one-shot
	// per hold.
	assert.Empty(t, manager.ExpireDue(ctx, lapsing.ExpiresAt))
	assert.Equal(t, domain.HoldActive, fresh.State)
}

// TestCommitExpireRace pits a commit against a concurrent sweep at the exact
// deadline: exactly one of them may win, and the seat state must agree with
// the winner.
func TestCommitExpireRace(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		manager, showing := newTestManager(t, func(m *Manager) {
			m.ttl = time.Millisecond
		})

		hold, err := manager.RequestHold(ctx, showing.ID, []string{"A1"}, "user-1")
		require.NoError(t, err)

		time.Sleep(2 * time.Millisecond)

		var (
			wg        sync.WaitGroup
			commitErr error
			expired   []*domain.Hold
		)

		wg.Add(2)

		go func() {
			defer wg.Done()
			_, commitErr = manager.CommitHold(ctx, hold.ID, "user-1")
		}()

		go func() {
			defer wg.Done()
			expired = manager.ExpireDue(ctx, time.Now())
		}()

		wg.Wait()

		state := seatStates(t, manager, showing.ID)["A1"]

		if commitErr == nil {
			assert.Empty(t, expired, "iteration %d: commit and expiry both won", i)
			assert.Equal(t, domain.SeatBooked, state)
			continue
		}

		// Expiry won, either through the sweep or lazily on the commit path.
		assert.Equal(t, domain.SeatAvailable, state, "iteration %d", i)
		if len(expired) == 1 {
			assert.ErrorIs(t, commitErr, domain.ErrHoldNotActive, "iteration %d", i)
		} else {
			assert.ErrorIs(t, commitErr, domain.ErrHoldExpired, "iteration %d", i)
		}
	}
}

func TestCommitHold_BookingWriteFailure(t *testing.T) {
	ctx := context.Background()

	bookingRepo := new(mocks.MockBookingRepo)
	manager, showing := newTestManager(t, func(m *Manager) {
		m.bookings = bookingRepo
	})

	hold, err := manager.RequestHold(ctx, showing.ID, []string{"A1"}, "user-1")
	require.NoError(t, err)

	bookingRepo.On("Create", mock.Anything, mock.Anything).Return(fmt.Errorf("connection lost")).Once()

	_, err = manager.CommitHold(ctx, hold.ID, "user-1")
	require.Error(t, err)

	// The failed write leaves the hold ACTIVE and the seats HELD, so the
	// caller can simply retry.
	assert.Equal(t, domain.SeatHeld, seatStates(t, manager, showing.ID)["A1"])

	bookingRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	booking, err := manager.CommitHold(ctx, hold.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SeatBooked, seatStates(t, manager, showing.ID)["A1"])
	assert.True(t, booking.TotalAmount.Equal(decimal.NewFromInt(100)))

	bookingRepo.AssertExpectations(t)
}

func TestCommitHold_PublishesEvent(t *testing.T) {
	ctx := context.Background()

	publisher := new(mocks.MockPublisher)
	manager, showing := newTestManager(t, func(m *Manager) {
		m.publisher = publisher
	})

	publisher.On("PublishBookingCommitted", mock.Anything, mock.MatchedBy(func(event events.BookingCommitted) bool {
		return event.ShowingID == showing.ID &&
			len(event.SeatIDs) == 2 &&
			event.TotalAmount == "200"
	})).Return(nil).Once()

	hold, err := manager.RequestHold(ctx, showing.ID, []string{"A1", "A2"}, "user-1")
	require.NoError(t, err)

	_, err = manager.CommitHold(ctx, hold.ID, "user-1")
	require.NoError(t, err)

	publisher.AssertExpectations(t)
}
