package queries

import (
	"context"

	"library-circulation/internal/infra"
	"library-circulation/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrItemNotFound        = errs.New("catalog item not found")
	ErrReservationNotFound = errs.New("reservation not found")
	ErrLoanNotFound        = errs.New("loan not found")
	ErrForbidden           = errs.New("actor not permitted")
)

type CatalogQueries interface {
	GetItem(ctx context.Context, id uuid.UUID) (*ItemView, error)
	ListItems(ctx context.Context, limit, offset int32) ([]*ItemView, error)
	GetStockSummary(ctx context.Context, id uuid.UUID) (*StockSummaryView, error)
}

type CatalogReadStore interface {
	FindItemByID(ctx context.Context, id uuid.UUID) (*ItemView, error)
	ListItems(ctx context.Context, limit, offset int32) ([]*ItemView, error)
}

type catalogQueriesImpl struct {
	store CatalogReadStore
}

func NewCatalogQueries(store CatalogReadStore) CatalogQueries {
	return &catalogQueriesImpl{store: store}
}

func (q *catalogQueriesImpl) GetItem(ctx context.Context, id uuid.UUID) (*ItemView, error) {
	view, err := q.store.FindItemByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return view, nil
}

func (q *catalogQueriesImpl) ListItems(ctx context.Context, limit, offset int32) ([]*ItemView, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return q.store.ListItems(ctx, limit, offset)
}

func (q *catalogQueriesImpl) GetStockSummary(ctx context.Context, id uuid.UUID) (*StockSummaryView, error) {
	view, err := q.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	return &StockSummaryView{
		ItemID:          view.ID,
		Title:           view.Title,
		TotalCopies:     view.TotalCopies,
		AvailableCopies: view.AvailableCopies,
		OnLoan:          view.TotalCopies - view.AvailableCopies,
	}, nil
}
