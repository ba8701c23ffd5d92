// Package hold implements seat-hold arbitration: time-bounded leases on seat
// sets, their finalization into bookings, and expiry of abandoned holds.
package hold

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cinexhq/seat-hold-service/internal/domain"
	"github.com/cinexhq/seat-hold-service/internal/events"
	"github.com/cinexhq/seat-hold-service/internal/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultTTL is how long a hold keeps seats off the market without a renew.
const DefaultTTL = 5 * time.Minute

// Manager is the sole writer path into seat state. It owns the hold table and
// drives every hold state transition; the seat inventory is only ever mutated
// through it.
//
// The hold table is guarded by a single mutex, so each transition is a
// compare-and-set keyed on the hold being ACTIVE: a race between a client
// committing and the sweeper expiring the same hold resolves to exactly one
// winner. Holds are requester-bound: renew, release and commit require the
// requester that created the hold.
type Manager struct {
	mu    sync.Mutex
	holds map[string]*domain.Hold

	catalog   *inventory.Catalog
	store     domain.SeatStateStore
	bookings  domain.BookingRepository
	publisher events.Publisher
	logger    *slog.Logger

	ttl time.Duration
	now func() time.Time
}

func NewManager(
	catalog *inventory.Catalog,
	store domain.SeatStateStore,
	bookings domain.BookingRepository,
	publisher events.Publisher,
	logger *slog.Logger,
	ttl time.Duration) *Manager {

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Manager{
		holds:     make(map[string]*domain.Hold),
		catalog:   catalog,
		store:     store,
		bookings:  bookings,
		publisher: publisher,
		logger:    logger,
		ttl:       ttl,
		now:       time.Now,
	}
}

// RegisterShowing makes a showing's seats available for holding. Layout and
// pricing are immutable afterwards.
func (m *Manager) RegisterShowing(ctx context.Context, showing *domain.Showing) error {
	if err := m.catalog.Register(showing); err != nil {
		return err
	}

	return m.store.AddShowing(ctx, showing.ID, showing.SeatIDs())
}

// Showing returns the immutable showing record.
func (m *Manager) Showing(showingID string) (*domain.Showing, error) {
	return m.catalog.Get(showingID)
}

// SeatMap returns each seat of the showing, in layout order, joined with its
// current state. The snapshot never reveals who holds a seat.
func (m *Manager) SeatMap(ctx context.Context, showingID string) ([]domain.SeatSnapshot, error) {
	showing, err := m.catalog.Get(showingID)
	if err != nil {
		return nil, err
	}

	states, err := m.store.SeatStates(ctx, showingID)
	if err != nil {
		return nil, err
	}

	snapshot := make([]domain.SeatSnapshot, len(showing.Seats))
	for i, seat := range showing.Seats {
		snapshot[i] = domain.SeatSnapshot{Seat: seat, State: states[seat.ID].State}
	}

	return snapshot, nil
}

// RequestHold validates the request, atomically claims the whole seat set and
// registers a new ACTIVE hold. Failures are definitive business outcomes: the
// caller decides whether to retry with a different selection.
func (m *Manager) RequestHold(ctx context.Context, showingID string, seatIDs []string, requesterID string) (*domain.Hold, error) {
	if requesterID == "" {
		return nil, fmt.Errorf("%w: requester id is required", domain.ErrInvalidRequest)
	}

	if len(seatIDs) == 0 || len(seatIDs) > domain.MaxSeatsPerBooking {
		return nil, domain.ErrLimitExceeded
	}

	seen := make(map[string]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: duplicate seat id %s", domain.ErrInvalidRequest, id)
		}
		seen[id] = struct{}{}
	}

	showing, err := m.catalog.Get(showingID)
	if err != nil {
		return nil, err
	}

	for _, id := range seatIDs {
		if _, ok := showing.Seat(id); !ok {
			return nil, fmt.Errorf("%w: seat %s does not belong to showing %s", domain.ErrInvalidRequest, id, showingID)
		}
	}

	holdID := uuid.New().String()

	// The store claims the whole set atomically; from here the seats are
	// invisible to every other requester until released or expired.
	if err := m.store.TrySetSeatsHeld(ctx, showingID, seatIDs, holdID); err != nil {
		return nil, err
	}

	now := m.now()
	hold := &domain.Hold{
		ID:          holdID,
		ShowingID:   showingID,
		RequesterID: requesterID,
		SeatIDs:     append([]string(nil), seatIDs...),
		CreatedAt:   now,
		ExpiresAt:   now.Add(m.ttl),
		State:       domain.HoldActive,
	}

	m.mu.Lock()
	m.holds[holdID] = hold
	m.mu.Unlock()

	return copyHold(hold), nil
}

// RenewHold extends an ACTIVE hold's expiry to now+TTL, so a requester
// actively completing checkout is not evicted mid-flow. A hold whose TTL has
// already passed is expired lazily here, exactly as on the commit path.
func (m *Manager) RenewHold(ctx context.Context, holdID, requesterID string) (*domain.Hold, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hold, err := m.activeHold(holdID, requesterID)
	if err != nil {
		return nil, err
	}

	if hold.LapsedAt(m.now()) {
		return nil, m.expireLocked(ctx, hold)
	}

	hold.ExpiresAt = m.now().Add(m.ttl)

	return copyHold(hold), nil
}

// ReleaseHold is the requester-initiated cancellation: the hold transitions
// to RELEASED and its seats return to AVAILABLE.
func (m *Manager) ReleaseHold(ctx context.Context, holdID, requesterID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	hold, err := m.activeHold(holdID, requesterID)
	if err != nil {
		return err
	}

	if err := m.store.ReleaseSeats(ctx, hold.ShowingID, hold.SeatIDs, hold.ID); err != nil {
		return fmt.Errorf("failed to release seats of hold %s: %w", hold.ID, err)
	}

	hold.State = domain.HoldReleased

	return nil
}

// CommitHold finalizes an ACTIVE, unexpired hold into a permanent booking.
// This is the only code path that transitions seats to BOOKED. A hold whose
// TTL has passed is expired here even if the sweeper has not reached it yet,
// so a commit can never land past the TTL.
func (m *Manager) CommitHold(ctx context.Context, holdID, requesterID string) (*domain.Booking, error) {
	m.mu.Lock()

	hold, err := m.activeHold(holdID, requesterID)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}

	if hold.LapsedAt(m.now()) {
		err := m.expireLocked(ctx, hold)
		m.mu.Unlock()
		return nil, err
	}

	now := m.now()
	booking := domain.Booking{
		ID:          uuid.New().String(),
		ShowingID:   hold.ShowingID,
		RequesterID: hold.RequesterID,
		SeatIDs:     append([]string(nil), hold.SeatIDs...),
		TotalAmount: m.totalAmount(hold),
		CommittedAt: now,
	}

	// Persist the booking first: if the write fails the hold stays ACTIVE and
	// the seats stay HELD, leaving a clean retry for the caller.
	if err := m.bookings.Create(ctx, booking); err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("failed to persist booking: %w", err)
	}

	if err := m.store.SetSeatsBooked(ctx, hold.ShowingID, hold.SeatIDs, hold.ID, booking.ID); err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("failed to book seats of hold %s: %w", hold.ID, err)
	}

	hold.State = domain.HoldCommitted

	m.mu.Unlock()

	m.publishBookingCommitted(ctx, booking)

	return &booking, nil
}

// ExpireDue transitions every ACTIVE hold whose TTL has passed to EXPIRED and
// returns its seats to AVAILABLE. It is called periodically by the sweeper;
// the returned holds are what this pass reclaimed.
func (m *Manager) ExpireDue(ctx context.Context, now time.Time) []*domain.Hold {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expired []*domain.Hold

	for _, hold := range m.holds {
		if hold.State != domain.HoldActive || !hold.LapsedAt(now) {
			continue
		}

		if err := m.expireLocked(ctx, hold); err != domain.ErrHoldExpired {
			m.logger.Error("failed to expire hold", "hold_id", hold.ID, "error", err)
			continue
		}

		expired = append(expired, copyHold(hold))
	}

	return expired
}

// GetBooking looks up a committed booking.
func (m *Manager) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return m.bookings.GetByID(ctx, bookingID)
}

// activeHold looks up a hold and verifies requester and state. Callers must
// hold m.mu.
func (m *Manager) activeHold(holdID, requesterID string) (*domain.Hold, error) {
	hold, ok := m.holds[holdID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrHoldNotFound, holdID)
	}

	if hold.RequesterID != requesterID {
		return nil, domain.ErrRequesterMismatch
	}

	if hold.State != domain.HoldActive {
		return nil, fmt.Errorf("%w: hold is %s", domain.ErrHoldNotActive, hold.State)
	}

	return hold, nil
}

// expireLocked transitions an ACTIVE hold to EXPIRED and releases its seats.
// Callers must hold m.mu. On success it returns domain.ErrHoldExpired, which
// doubles as the business outcome reported to a caller that raced the expiry.
func (m *Manager) expireLocked(ctx context.Context, hold *domain.Hold) error {
	// Seats are released before the state flips, so a failed release leaves
	// the hold ACTIVE and the next sweep pass retries it.
	if err := m.store.ReleaseSeats(ctx, hold.ShowingID, hold.SeatIDs, hold.ID); err != nil {
		return fmt.Errorf("failed to release seats of expired hold %s: %w", hold.ID, err)
	}

	hold.State = domain.HoldExpired

	return domain.ErrHoldExpired
}

func (m *Manager) totalAmount(hold *domain.Hold) decimal.Decimal {
	showing, err := m.catalog.Get(hold.ShowingID)
	if err != nil {
		// The catalog entry outlives every hold on it; a miss here is a bug.
		panic(fmt.Sprintf("showing %s missing from catalog", hold.ShowingID))
	}

	total := decimal.Zero
	for _, id := range hold.SeatIDs {
		seat, _ := showing.Seat(id)
		total = total.Add(seat.Price)
	}

	return total
}

func (m *Manager) publishBookingCommitted(ctx context.Context, booking domain.Booking) {
	event := events.BookingCommitted{
		BookingID:   booking.ID,
		ShowingID:   booking.ShowingID,
		SeatIDs:     booking.SeatIDs,
		TotalAmount: booking.TotalAmount.String(),
		CommittedAt: booking.CommittedAt,
	}

	if err := m.publisher.PublishBookingCommitted(ctx, event); err != nil {
		// Event delivery is best-effort; the booking itself is already durable.
		m.logger.Error("failed to publish booking committed event", "booking_id", booking.ID, "error", err)
	}
}

func copyHold(hold *domain.Hold) *domain.Hold {
	copied := *hold
	copied.SeatIDs = append([]string(nil), hold.SeatIDs...)
	return &copied
}
