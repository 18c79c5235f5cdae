package repository

import (
	"context"
	"time"

	"library-circulation/internal/infra"
	"library-circulation/internal/infra/db"

	"github.com/google/uuid"
)

type CartRepository struct {
	db db.DBTX
}

func NewCartRepository(dbtx db.DBTX) *CartRepository {
	return &CartRepository{db: dbtx}
}

// Add relies on the (user_id, item_id) primary key to reject duplicates; the
// caller maps KindDuplicateKey to its already-staged error.
func (r *CartRepository) Add(ctx context.Context, userID, itemID uuid.UUID, addedAt time.Time) error {
	const q = `
		INSERT INTO cart_entries (user_id, item_id, added_at)
		VALUES ($1, $2, $3)`
	if _, err := r.db.Exec(ctx, q, userID, itemID, addedAt); err != nil {
		return infra.WrapRepoErr("failed to add cart entry", err)
	}
	return nil
}

func (r *CartRepository) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	const q = `DELETE FROM cart_entries WHERE user_id = $1 AND item_id = $2`
	tag, err := r.db.Exec(ctx, q, userID, itemID)
	if err != nil {
		return infra.WrapRepoErr("failed to remove cart entry", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("cart entry not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *CartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	const q = `DELETE FROM cart_entries WHERE user_id = $1`
	if _, err := r.db.Exec(ctx, q, userID); err != nil {
		return infra.WrapRepoErr("failed to clear cart", err)
	}
	return nil
}
