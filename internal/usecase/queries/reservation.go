package queries

import (
	"context"

	"library-circulation/internal/infra"
	"library-circulation/internal/usecase/shared"

	"github.com/google/uuid"
)

type ReservationQueries interface {
	// GetByID: members can only see their own reservations; staff see all
	GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*ReservationView, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*ReservationView, error)
	ListCart(ctx context.Context, userID uuid.UUID) ([]*CartItemView, error)
}

type ReservationReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ReservationView, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*ReservationView, error)
	FindCartByUserID(ctx context.Context, userID uuid.UUID) ([]*CartItemView, error)
}

type reservationQueriesImpl struct {
	store ReservationReadStore
}

func NewReservationQueries(store ReservationReadStore) ReservationQueries {
	return &reservationQueriesImpl{store: store}
}

func (q *reservationQueriesImpl) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*ReservationView, error) {
	view, err := q.store.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if view.UserID != actor.ID && !actor.IsStaff() {
		return nil, ErrForbidden
	}
	return view, nil
}

func (q *reservationQueriesImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*ReservationView, error) {
	return q.store.FindByUserID(ctx, userID)
}

func (q *reservationQueriesImpl) ListCart(ctx context.Context, userID uuid.UUID) ([]*CartItemView, error) {
	return q.store.FindCartByUserID(ctx, userID)
}
