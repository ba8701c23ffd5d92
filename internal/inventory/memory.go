package inventory

import (
	"context"
	"fmt"
	"sync"

	"github.com/cinexhq/seat-hold-service/internal/domain"
)

// MemoryStore is the in-process implementation of domain.SeatStateStore.
//
// Each showing's seat map is guarded by its own mutex, so every group
// mutation reads and writes the whole requested set inside one critical
// section: two requests racing for overlapping seats interleave as if one
// executed entirely before the other, and a rejected request leaves no seat
// changed. Operations on different showings never contend.
type MemoryStore struct {
	mu       sync.RWMutex
	showings map[string]*showingSeats
}

type showingSeats struct {
	mu    sync.Mutex
	seats map[string]domain.SeatStatus
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		showings: make(map[string]*showingSeats),
	}
}

func (s *MemoryStore) AddShowing(ctx context.Context, showingID string, seatIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.showings[showingID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrShowingExists, showingID)
	}

	seats := make(map[string]domain.SeatStatus, len(seatIDs))
	for _, id := range seatIDs {
		seats[id] = domain.SeatStatus{State: domain.SeatAvailable}
	}

	s.showings[showingID] = &showingSeats{seats: seats}

	return nil
}

func (s *MemoryStore) showing(showingID string) (*showingSeats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	showing, ok := s.showings[showingID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrShowingNotFound, showingID)
	}

	return showing, nil
}

func (s *MemoryStore) TrySetSeatsHeld(ctx context.Context, showingID string, seatIDs []string, holdID string) error {
	showing, err := s.showing(showingID)
	if err != nil {
		return err
	}

	showing.mu.Lock()
	defer showing.mu.Unlock()

	var conflicting []string

	for _, id := range seatIDs {
		status, ok := showing.seats[id]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrSeatNotFound, id)
		}
		if status.State != domain.SeatAvailable {
			conflicting = append(conflicting, id)
		}
	}

	if len(conflicting) > 0 {
		return &domain.SeatsUnavailableError{ConflictingSeatIDs: conflicting}
	}

	for _, id := range seatIDs {
		showing.seats[id] = domain.SeatStatus{State: domain.SeatHeld, HoldID: holdID}
	}

	return nil
}

func (s *MemoryStore) SetSeatsBooked(ctx context.Context, showingID string, seatIDs []string, holdID, bookingID string) error {
	showing, err := s.showing(showingID)
	if err != nil {
		return err
	}

	showing.mu.Lock()
	defer showing.mu.Unlock()

	for _, id := range seatIDs {
		status, ok := showing.seats[id]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrSeatNotFound, id)
		}
		if status.State != domain.SeatHeld || status.HoldID != holdID {
			return fmt.Errorf("seat %s is not held by hold %s", id, holdID)
		}
	}

	for _, id := range seatIDs {
		showing.seats[id] = domain.SeatStatus{State: domain.SeatBooked, BookingID: bookingID}
	}

	return nil
}

func (s *MemoryStore) ReleaseSeats(ctx context.Context, showingID string, seatIDs []string, holdID string) error {
	showing, err := s.showing(showingID)
	if err != nil {
		return err
	}

	showing.mu.Lock()
	defer showing.mu.Unlock()

	for _, id := range seatIDs {
		status, ok := showing.seats[id]
		if !ok {
			continue
		}

		// Only seats still held by this hold go back to AVAILABLE; anything
		// else has already moved on and is left untouched.
		if status.State == domain.SeatHeld && status.HoldID == holdID {
			showing.seats[id] = domain.SeatStatus{State: domain.SeatAvailable}
		}
	}

	return nil
}

func (s *MemoryStore) SeatStates(ctx context.Context, showingID string) (map[string]domain.SeatStatus, error) {
	showing, err := s.showing(showingID)
	if err != nil {
		return nil, err
	}

	showing.mu.Lock()
	defer showing.mu.Unlock()

	snapshot := make(map[string]domain.SeatStatus, len(showing.seats))
	for id, status := range showing.seats {
		snapshot[id] = status
	}

	return snapshot, nil
}
