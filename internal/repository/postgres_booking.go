package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/cinexhq/seat-hold-service/internal/domain"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBookingRepository is the durable booking archive. Bookings are
// written once at commit time and never mutated afterwards.
type PostgresBookingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresBookingRepository(db *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		db: db,
	}
}

func (r *PostgresBookingRepository) Create(ctx context.Context, booking domain.Booking) error {
	query := `
		INSERT INTO bookings (id, showing_id, requester_id, seat_ids, total_amount, committed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(
		ctx,
		query,
		booking.ID,
		booking.ShowingID,
		booking.RequesterID,
		booking.SeatIDs,
		booking.TotalAmount,
		booking.CommittedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: %s", domain.ErrBookingExists, booking.ID)
		}

		return err
	}

	return nil
}

func (r *PostgresBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `
		SELECT id, showing_id, requester_id, seat_ids, total_amount, committed_at
		FROM bookings
		WHERE id = $1
	`

	var booking domain.Booking

	err := r.db.QueryRow(ctx, query, id).Scan(
		&booking.ID,
		&booking.ShowingID,
		&booking.RequesterID,
		&booking.SeatIDs,
		&booking.TotalAmount,
		&booking.CommittedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrBookingNotFound, id)
		}

		return nil, err
	}

	return &booking, nil
}
