package response

import (
	"time"

	"library-circulation/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type ReservationItemResponse struct {
	ItemID uuid.UUID `json:"itemId"`
	Title  string    `json:"title"`
	Status string    `json:"status"`
}

type ReservationResponse struct {
	ID                 uuid.UUID                 `json:"id"`
	UserID             uuid.UUID                 `json:"userId"`
	Status             string                    `json:"status"`
	Items              []ReservationItemResponse `json:"items"`
	ReservedAt         time.Time                 `json:"reservedAt"`
	ExpiresAt          time.Time                 `json:"expiresAt"`
	PickedUpAt         *time.Time                `json:"pickedUpAt,omitempty"`
	CancelledAt        *time.Time                `json:"cancelledAt,omitempty"`
	CancellationReason *string                   `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time                 `json:"createdAt"`
	UpdatedAt          time.Time                 `json:"updatedAt"`
}

type CartItemResponse struct {
	ItemID          uuid.UUID `json:"itemId"`
	Title           string    `json:"title"`
	AvailableCopies int32     `json:"availableCopies"`
	AddedAt         time.Time `json:"addedAt"`
}

func FromReservationView(view *queries.ReservationView) *ReservationResponse {
	var resp ReservationResponse
	_ = copier.Copy(&resp, view)
	return &resp
}

func FromReservationViews(views []*queries.ReservationView) []*ReservationResponse {
	resp := make([]*ReservationResponse, len(views))
	for i, v := range views {
		resp[i] = FromReservationView(v)
	}
	return resp
}

func FromCartItemViews(views []*queries.CartItemView) []*CartItemResponse {
	resp := make([]*CartItemResponse, len(views))
	for i, v := range views {
		var item CartItemResponse
		_ = copier.Copy(&item, v)
		resp[i] = &item
	}
	return resp
}
