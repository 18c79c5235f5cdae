//go:build unit || e2e

package builder

import (
	"time"

	"library-circulation/internal/domain/reservation"
	"library-circulation/internal/usecase/queries"

	"github.com/google/uuid"
)

type ReservationBuilder struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Status     string
	ItemID     uuid.UUID
	ItemTitle  string
	ReservedAt time.Time
	ExpiresAt  time.Time
}

func NewReservationBuilder() *ReservationBuilder {
	now := time.Now().UTC().Truncate(time.Second)
	return &ReservationBuilder{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		Status:     string(reservation.StatusPending),
		ItemID:     uuid.New(),
		ItemTitle:  "Test Title",
		ReservedAt: now,
		ExpiresAt:  now.Add(48 * time.Hour),
	}
}

func (r *ReservationBuilder) With(mutate func(*ReservationBuilder)) *ReservationBuilder {
	mutate(r)
	return r
}

func (r *ReservationBuilder) BuildView() *queries.ReservationView {
	return &queries.ReservationView{
		ID:     r.ID,
		UserID: r.UserID,
		Status: r.Status,
		Items: []queries.ReservationItemView{
			{ItemID: r.ItemID, Title: r.ItemTitle, Status: string(reservation.ItemStatusReserved)},
		},
		ReservedAt: r.ReservedAt,
		ExpiresAt:  r.ExpiresAt,
		CreatedAt:  r.ReservedAt,
		UpdatedAt:  r.ReservedAt,
	}
}

// Fluent builder methods
func (r *ReservationBuilder) WithUserID(userID uuid.UUID) *ReservationBuilder {
	r.UserID = userID
	return r
}

func (r *ReservationBuilder) WithStatus(status string) *ReservationBuilder {
	r.Status = status
	return r
}

func (r *ReservationBuilder) WithItem(itemID uuid.UUID, title string) *ReservationBuilder {
	r.ItemID = itemID
	r.ItemTitle = title
	return r
}
