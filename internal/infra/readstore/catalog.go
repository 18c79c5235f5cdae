package readstore

import (
	"context"

	"library-circulation/internal/infra"
	"library-circulation/internal/infra/db"
	"library-circulation/internal/usecase/queries"

	"github.com/google/uuid"
)

type CatalogReadStore struct {
	db db.DBTX
}

func NewCatalogReadStore(dbtx db.DBTX) *CatalogReadStore {
	return &CatalogReadStore{db: dbtx}
}

func (s *CatalogReadStore) FindItemByID(ctx context.Context, id uuid.UUID) (*queries.ItemView, error) {
	const q = `
		SELECT id, title, total_copies, available_copies, created_at, updated_at
		FROM catalog_items
		WHERE id = $1`
	var v queries.ItemView
	err := s.db.QueryRow(ctx, q, id).Scan(
		&v.ID, &v.Title, &v.TotalCopies, &v.AvailableCopies, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find catalog item", err)
	}
	return &v, nil
}

func (s *CatalogReadStore) ListItems(ctx context.Context, limit, offset int32) ([]*queries.ItemView, error) {
	const q = `
		SELECT id, title, total_copies, available_copies, created_at, updated_at
		FROM catalog_items
		ORDER BY title, id
		LIMIT $1 OFFSET $2`
	rows, err := s.db.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list catalog items", err)
	}
	defer rows.Close()

	var views []*queries.ItemView
	for rows.Next() {
		var v queries.ItemView
		if err := rows.Scan(&v.ID, &v.Title, &v.TotalCopies, &v.AvailableCopies, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan catalog item", err)
		}
		views = append(views, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate catalog items", err)
	}
	return views, nil
}
