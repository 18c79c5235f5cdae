package readstore

import (
	"context"

	"library-circulation/internal/infra"
	"library-circulation/internal/infra/db"
	"library-circulation/internal/usecase/queries"

	"github.com/google/uuid"
)

type ReservationReadStore struct {
	db db.DBTX
}

func NewReservationReadStore(dbtx db.DBTX) *ReservationReadStore {
	return &ReservationReadStore{db: dbtx}
}

const reservationViewQuery = `
	SELECT id, user_id, status, reserved_at, expires_at,
	       picked_up_at, cancelled_at, cancellation_reason, created_at, updated_at
	FROM reservations`

func (s *ReservationReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	row := s.db.QueryRow(ctx, reservationViewQuery+` WHERE id = $1`, id)
	v, err := scanReservationView(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find reservation", err)
	}
	if err := s.attachItems(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *ReservationReadStore) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*queries.ReservationView, error) {
	rows, err := s.db.Query(ctx, reservationViewQuery+` WHERE user_id = $1 ORDER BY reserved_at DESC`, userID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list reservations", err)
	}
	defer rows.Close()

	var views []*queries.ReservationView
	for rows.Next() {
		v, err := scanReservationView(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate reservations", err)
	}
	for _, v := range views {
		if err := s.attachItems(ctx, v); err != nil {
			return nil, err
		}
	}
	return views, nil
}

func (s *ReservationReadStore) FindCartByUserID(ctx context.Context, userID uuid.UUID) ([]*queries.CartItemView, error) {
	const q = `
		SELECT ce.item_id, ci.title, ci.available_copies, ce.added_at
		FROM cart_entries ce
		JOIN catalog_items ci ON ci.id = ce.item_id
		WHERE ce.user_id = $1
		ORDER BY ce.added_at`
	rows, err := s.db.Query(ctx, q, userID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list cart", err)
	}
	defer rows.Close()

	var views []*queries.CartItemView
	for rows.Next() {
		var v queries.CartItemView
		if err := rows.Scan(&v.ItemID, &v.Title, &v.AvailableCopies, &v.AddedAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan cart item", err)
		}
		views = append(views, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate cart items", err)
	}
	return views, nil
}

func (s *ReservationReadStore) attachItems(ctx context.Context, v *queries.ReservationView) error {
	const q = `
		SELECT ri.item_id, ci.title, ri.status
		FROM reservation_items ri
		JOIN catalog_items ci ON ci.id = ri.item_id
		WHERE ri.reservation_id = $1
		ORDER BY ci.title, ri.item_id`
	rows, err := s.db.Query(ctx, q, v.ID)
	if err != nil {
		return infra.WrapRepoErr("failed to list reservation items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item queries.ReservationItemView
		if err := rows.Scan(&item.ItemID, &item.Title, &item.Status); err != nil {
			return infra.WrapRepoErr("failed to scan reservation item", err)
		}
		v.Items = append(v.Items, item)
	}
	if err := rows.Err(); err != nil {
		return infra.WrapRepoErr("failed to iterate reservation items", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservationView(row rowScanner) (*queries.ReservationView, error) {
	var v queries.ReservationView
	err := row.Scan(
		&v.ID, &v.UserID, &v.Status, &v.ReservedAt, &v.ExpiresAt,
		&v.PickedUpAt, &v.CancelledAt, &v.CancellationReason, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
