package request

import (
	"github.com/google/uuid"
)

type AddCartItemRequest struct {
	ItemID uuid.UUID `json:"item_id" binding:"required"`
}
