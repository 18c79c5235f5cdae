package repository

import (
	"context"
	"time"

	"library-circulation/internal/infra"
	"library-circulation/internal/infra/db"
	"library-circulation/internal/usecase/shared"

	"github.com/google/uuid"
)

// CommandReads serves the guard-check snapshots commands run before (and
// inside) their transactions. Plain reads, no locks.
type CommandReads struct {
	db db.DBTX
}

func NewCommandReads(dbtx db.DBTX) *CommandReads {
	return &CommandReads{db: dbtx}
}

func (r *CommandReads) ItemByID(ctx context.Context, id uuid.UUID) (*shared.ItemSnapshot, error) {
	const q = `
		SELECT id, title, total_copies, available_copies
		FROM catalog_items
		WHERE id = $1`
	var snap shared.ItemSnapshot
	err := r.db.QueryRow(ctx, q, id).Scan(&snap.ID, &snap.Title, &snap.TotalCopies, &snap.AvailableCopies)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find catalog item", err)
	}
	return &snap, nil
}

func (r *CommandReads) CartEntries(ctx context.Context, userID uuid.UUID) ([]shared.CartEntry, error) {
	const q = `
		SELECT user_id, item_id, added_at
		FROM cart_entries
		WHERE user_id = $1
		ORDER BY added_at`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list cart entries", err)
	}
	defer rows.Close()

	var entries []shared.CartEntry
	for rows.Next() {
		var e shared.CartEntry
		if err := rows.Scan(&e.UserID, &e.ItemID, &e.AddedAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan cart entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate cart entries", err)
	}
	return entries, nil
}

func (r *CommandReads) CartContains(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM cart_entries WHERE user_id = $1 AND item_id = $2
		)`
	var exists bool
	if err := r.db.QueryRow(ctx, q, userID, itemID).Scan(&exists); err != nil {
		return false, infra.WrapRepoErr("failed to check cart entry", err)
	}
	return exists, nil
}

func (r *CommandReads) ActiveReservationCount(ctx context.Context, userID uuid.UUID) (int, error) {
	const q = `
		SELECT count(*)
		FROM reservations
		WHERE user_id = $1 AND status IN ('pending', 'ready')`
	var count int
	if err := r.db.QueryRow(ctx, q, userID).Scan(&count); err != nil {
		return 0, infra.WrapRepoErr("failed to count active reservations", err)
	}
	return count, nil
}

// UserHoldsItem reports whether the user already has a copy of this item out,
// through an active loan or a live reservation hold.
func (r *CommandReads) UserHoldsItem(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM loans
			WHERE user_id = $1 AND item_id = $2 AND returned_at IS NULL
		) OR EXISTS (
			SELECT 1
			FROM reservation_items ri
			JOIN reservations r ON r.id = ri.reservation_id
			WHERE r.user_id = $1 AND ri.item_id = $2 AND r.status IN ('pending', 'ready')
		)`
	var holds bool
	if err := r.db.QueryRow(ctx, q, userID, itemID).Scan(&holds); err != nil {
		return false, infra.WrapRepoErr("failed to check item hold", err)
	}
	return holds, nil
}

func (r *CommandReads) HasUnpaidFines(ctx context.Context, userID uuid.UUID) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM loans
			WHERE user_id = $1 AND fine_amount > 0 AND NOT fine_paid
		)`
	var has bool
	if err := r.db.QueryRow(ctx, q, userID).Scan(&has); err != nil {
		return false, infra.WrapRepoErr("failed to check unpaid fines", err)
	}
	return has, nil
}

func (r *CommandReads) ReservationByID(ctx context.Context, id uuid.UUID) (*shared.ReservationSnapshot, error) {
	const q = `
		SELECT id, user_id, status, expires_at
		FROM reservations
		WHERE id = $1`
	var snap shared.ReservationSnapshot
	err := r.db.QueryRow(ctx, q, id).Scan(&snap.ID, &snap.UserID, &snap.Status, &snap.ExpiresAt)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find reservation", err)
	}
	return &snap, nil
}

func (r *CommandReads) LoanByID(ctx context.Context, id uuid.UUID) (*shared.LoanSnapshot, error) {
	const q = `
		SELECT id, user_id, item_id, due_date, returned_at IS NOT NULL, fine_amount, fine_paid
		FROM loans
		WHERE id = $1`
	var snap shared.LoanSnapshot
	err := r.db.QueryRow(ctx, q, id).Scan(
		&snap.ID, &snap.UserID, &snap.ItemID, &snap.DueDate, &snap.Returned, &snap.FineAmount, &snap.FinePaid,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find loan", err)
	}
	return &snap, nil
}

// ExpiredReservationIDs feeds the sweep. Candidates only: each id is
// re-checked under its row lock before expiring.
func (r *CommandReads) ExpiredReservationIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	const q = `
		SELECT id
		FROM reservations
		WHERE status IN ('pending', 'ready') AND expires_at < $1
		ORDER BY expires_at
		LIMIT $2`
	rows, err := r.db.Query(ctx, q, now, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list expired reservations", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate expired reservations", err)
	}
	return ids, nil
}
