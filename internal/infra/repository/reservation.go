package repository

import (
	"context"
	"time"

	"library-circulation/internal/domain/reservation"
	"library-circulation/internal/infra"
	"library-circulation/internal/infra/db"

	"github.com/google/uuid"
)

type ReservationRepository struct {
	db db.DBTX
}

func NewReservationRepository(dbtx db.DBTX) *ReservationRepository {
	return &ReservationRepository{db: dbtx}
}

func (r *ReservationRepository) Create(ctx context.Context, res *reservation.Reservation) error {
	const q = `
		INSERT INTO reservations (
			id, user_id, status, reserved_at, expires_at,
			picked_up_at, cancelled_at, cancellation_reason, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())`
	_, err := r.db.Exec(ctx, q,
		res.ID(), res.UserID(), string(res.Status()), res.ReservedAt(), res.ExpiresAt(),
		res.PickedUpAt(), res.CancelledAt(), res.CancellationReason(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create reservation", err)
	}
	if err := r.insertItems(ctx, res); err != nil {
		return err
	}
	return nil
}

// FindForUpdate locks the reservation row, then loads its items. The lock
// serializes user transitions against the expiry sweep.
func (r *ReservationRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	const q = `
		SELECT id, user_id, status, reserved_at, expires_at,
		       picked_up_at, cancelled_at, cancellation_reason, created_at, updated_at
		FROM reservations
		WHERE id = $1
		FOR UPDATE`
	var (
		resID, userID           uuid.UUID
		status                  string
		reservedAt, expiresAt   time.Time
		pickedUpAt, cancelledAt *time.Time
		cancellationReason      *string
		createdAt, updatedAt    time.Time
	)
	err := r.db.QueryRow(ctx, q, id).Scan(
		&resID, &userID, &status, &reservedAt, &expiresAt,
		&pickedUpAt, &cancelledAt, &cancellationReason, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find reservation", err)
	}

	items, err := r.findItems(ctx, resID)
	if err != nil {
		return nil, err
	}

	return reservation.ReconstructReservation(
		resID, userID,
		reservation.Status(status),
		items,
		reservedAt, expiresAt,
		pickedUpAt, cancelledAt,
		cancellationReason,
		createdAt, updatedAt,
	), nil
}

func (r *ReservationRepository) Update(ctx context.Context, res *reservation.Reservation) error {
	const q = `
		UPDATE reservations
		SET status = $2, picked_up_at = $3, cancelled_at = $4,
		    cancellation_reason = $5, updated_at = now()
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, q,
		res.ID(), string(res.Status()), res.PickedUpAt(), res.CancelledAt(), res.CancellationReason(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update reservation", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}

	const itemQ = `
		UPDATE reservation_items SET status = $3
		WHERE reservation_id = $1 AND item_id = $2`
	for _, it := range res.Items() {
		if _, err := r.db.Exec(ctx, itemQ, res.ID(), it.ItemID, string(it.Status)); err != nil {
			return infra.WrapRepoErr("failed to update reservation item", err)
		}
	}
	return nil
}

func (r *ReservationRepository) insertItems(ctx context.Context, res *reservation.Reservation) error {
	const q = `
		INSERT INTO reservation_items (reservation_id, item_id, status)
		VALUES ($1, $2, $3)`
	for _, it := range res.Items() {
		if _, err := r.db.Exec(ctx, q, res.ID(), it.ItemID, string(it.Status)); err != nil {
			return infra.WrapRepoErr("failed to create reservation item", err)
		}
	}
	return nil
}

func (r *ReservationRepository) findItems(ctx context.Context, reservationID uuid.UUID) ([]reservation.Item, error) {
	const q = `
		SELECT item_id, status
		FROM reservation_items
		WHERE reservation_id = $1
		ORDER BY item_id`
	rows, err := r.db.Query(ctx, q, reservationID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find reservation items", err)
	}
	defer rows.Close()

	var items []reservation.Item
	for rows.Next() {
		var (
			itemID uuid.UUID
			status string
		)
		if err := rows.Scan(&itemID, &status); err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation item", err)
		}
		items = append(items, reservation.Item{ItemID: itemID, Status: reservation.ItemStatus(status)})
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate reservation items", err)
	}
	return items, nil
}
