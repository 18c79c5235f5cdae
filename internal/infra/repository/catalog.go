package repository

import (
	"context"
	"time"

	"library-circulation/internal/domain/catalog"
	"library-circulation/internal/infra"
	"library-circulation/internal/infra/db"

	"github.com/google/uuid"
)

type CatalogItemRepository struct {
	db db.DBTX
}

func NewCatalogItemRepository(dbtx db.DBTX) *CatalogItemRepository {
	return &CatalogItemRepository{db: dbtx}
}

func (r *CatalogItemRepository) Create(ctx context.Context, item *catalog.Item) error {
	const q = `
		INSERT INTO catalog_items (id, title, total_copies, available_copies, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())`
	if _, err := r.db.Exec(ctx, q, item.ID(), item.Title(), item.TotalCopies(), item.AvailableCopies()); err != nil {
		return infra.WrapRepoErr("failed to create catalog item", err)
	}
	return nil
}

// FindForUpdate takes the per-item row lock. Every stock mutation flows
// through this lock, so counter updates never interleave.
func (r *CatalogItemRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*catalog.Item, error) {
	const q = `
		SELECT id, title, total_copies, available_copies, created_at, updated_at
		FROM catalog_items
		WHERE id = $1
		FOR UPDATE`
	return r.scanItem(r.db.QueryRow(ctx, q, id))
}

func (r *CatalogItemRepository) UpdateStock(ctx context.Context, item *catalog.Item) error {
	const q = `
		UPDATE catalog_items
		SET title = $2, total_copies = $3, available_copies = $4, updated_at = now()
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, q, item.ID(), item.Title(), item.TotalCopies(), item.AvailableCopies())
	if err != nil {
		return infra.WrapRepoErr("failed to update item stock", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("catalog item not found", nil, infra.KindNotFound)
	}
	return nil
}

// CopiesOut counts the copies an item genuinely has out: one per active loan
// plus one per live reservation hold. Used by resync to repair drifted
// counters.
func (r *CatalogItemRepository) CopiesOut(ctx context.Context, itemID uuid.UUID) (int32, error) {
	const q = `
		SELECT
			(SELECT count(*) FROM loans WHERE item_id = $1 AND returned_at IS NULL)
			+
			(SELECT count(*)
			 FROM reservation_items ri
			 JOIN reservations r ON r.id = ri.reservation_id
			 WHERE ri.item_id = $1 AND r.status IN ('pending', 'ready'))`
	var out int64
	if err := r.db.QueryRow(ctx, q, itemID).Scan(&out); err != nil {
		return 0, infra.WrapRepoErr("failed to count copies out", err)
	}
	return int32(out), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *CatalogItemRepository) scanItem(row rowScanner) (*catalog.Item, error) {
	var (
		id                     uuid.UUID
		title                  string
		totalCopies, available int32
		createdAt, updatedAt   time.Time
	)
	if err := row.Scan(&id, &title, &totalCopies, &available, &createdAt, &updatedAt); err != nil {
		return nil, infra.WrapRepoErr("failed to find catalog item", err)
	}
	return catalog.ReconstructItem(id, title, totalCopies, available, createdAt, updatedAt), nil
}
