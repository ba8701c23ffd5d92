package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/cinexhq/seat-hold-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Lua scripts keep each group mutation a single atomic unit on the Redis
// side: Redis executes scripts serially, so two racing holds over an
// overlapping seat set can never both observe the seats as free.

var holdSeatsScript = redis.NewScript(`
	-- KEYS = seat state keys, ARGV[1] = holdID, ARGV[2..] = seat ids (aligned with KEYS)

	local conflicting = {}

	for i = 1, #KEYS do
		if redis.call("EXISTS", KEYS[i]) == 1 then
			table.insert(conflicting, ARGV[i+1])
		end
	end

	if #conflicting > 0 then
		return conflicting
	end

	for i = 1, #KEYS do
		redis.call("SET", KEYS[i], "HELD:" .. ARGV[1])
	end

	return {}
`)

var bookSeatsScript = redis.NewScript(`
	-- KEYS = seat state keys, ARGV[1] = holdID, ARGV[2] = bookingID

	for i = 1, #KEYS do
		if redis.call("GET", KEYS[i]) ~= "HELD:" .. ARGV[1] then
			return redis.error_reply("seat not held by hold")
		end
	end

	for i = 1, #KEYS do
		redis.call("SET", KEYS[i], "BOOKED:" .. ARGV[2])
	end

	return "OK"
`)

var releaseSeatsScript = redis.NewScript(`
	-- KEYS = seat state keys, ARGV[1] = holdID

	for i = 1, #KEYS do
		if redis.call("GET", KEYS[i]) == "HELD:" .. ARGV[1] then
			redis.call("DEL", KEYS[i])
		end
	end

	return "OK"
`)

// RedisStore implements domain.SeatStateStore on Redis so that seat state
// survives a process restart and can be shared by replicas behind a load
// balancer. A seat with no state key is AVAILABLE; held and booked seats
// carry a "HELD:<holdID>" or "BOOKED:<bookingID>" value.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func seatStateKey(showingID, seatID string) string {
	return fmt.Sprintf("seat:%s:%s", showingID, seatID)
}

func showingSeatSetKey(showingID string) string {
	return fmt.Sprintf("showing_seats:%s", showingID)
}

func (s *RedisStore) seatStateKeys(showingID string, seatIDs []string) []string {
	keys := make([]string, len(seatIDs))
	for i, id := range seatIDs {
		keys[i] = seatStateKey(showingID, id)
	}
	return keys
}

func (s *RedisStore) AddShowing(ctx context.Context, showingID string, seatIDs []string) error {
	members := make([]interface{}, len(seatIDs))
	for i, id := range seatIDs {
		members[i] = id
	}

	added, err := s.client.SAdd(ctx, showingSeatSetKey(showingID), members...).Result()
	if err != nil {
		return fmt.Errorf("failed to register showing seats: %w", err)
	}

	if added == 0 {
		return fmt.Errorf("%w: %s", domain.ErrShowingExists, showingID)
	}

	return nil
}

func (s *RedisStore) TrySetSeatsHeld(ctx context.Context, showingID string, seatIDs []string, holdID string) error {
	args := make([]interface{}, 0, len(seatIDs)+1)
	args = append(args, holdID)
	for _, id := range seatIDs {
		args = append(args, id)
	}

	conflicting, err := holdSeatsScript.Run(ctx, s.client, s.seatStateKeys(showingID, seatIDs), args...).StringSlice()
	if err != nil {
		return fmt.Errorf("failed to run hold seats script: %w", err)
	}

	if len(conflicting) > 0 {
		return &domain.SeatsUnavailableError{ConflictingSeatIDs: conflicting}
	}

	return nil
}

func (s *RedisStore) SetSeatsBooked(ctx context.Context, showingID string, seatIDs []string, holdID, bookingID string) error {
	err := bookSeatsScript.Run(ctx, s.client, s.seatStateKeys(showingID, seatIDs), holdID, bookingID).Err()
	if err != nil {
		if redis.HasErrorPrefix(err, "seat not held by hold") {
			return fmt.Errorf("seats are not held by hold %s", holdID)
		}

		return fmt.Errorf("failed to run book seats script: %w", err)
	}

	return nil
}

func (s *RedisStore) ReleaseSeats(ctx context.Context, showingID string, seatIDs []string, holdID string) error {
	err := releaseSeatsScript.Run(ctx, s.client, s.seatStateKeys(showingID, seatIDs), holdID).Err()
	if err != nil {
		return fmt.Errorf("failed to run release seats script: %w", err)
	}

	return nil
}

func (s *RedisStore) SeatStates(ctx context.Context, showingID string) (map[string]domain.SeatStatus, error) {
	seatIDs, err := s.client.SMembers(ctx, showingSeatSetKey(showingID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load showing seat set: %w", err)
	}

	if len(seatIDs) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrShowingNotFound, showingID)
	}

	values, err := s.client.MGet(ctx, s.seatStateKeys(showingID, seatIDs)...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load seat states: %w", err)
	}

	states := make(map[string]domain.SeatStatus, len(seatIDs))

	for i, id := range seatIDs {
		raw, ok := values[i].(string)
		if !ok {
			states[id] = domain.SeatStatus{State: domain.SeatAvailable}
			continue
		}

		states[id] = parseSeatStatus(raw)
	}

	return states, nil
}

func parseSeatStatus(raw string) domain.SeatStatus {
	switch {
	case strings.HasPrefix(raw, "HELD:"):
		return domain.SeatStatus{State: domain.SeatHeld, HoldID: strings.TrimPrefix(raw, "HELD:")}
	case strings.HasPrefix(raw, "BOOKED:"):
		return domain.SeatStatus{State: domain.SeatBooked, BookingID: strings.TrimPrefix(raw, "BOOKED:")}
	default:
		return domain.SeatStatus{State: domain.SeatAvailable}
	}
}
