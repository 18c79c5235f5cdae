package request

import (
	"github.com/google/uuid"
)

type CreateLoanRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	ItemID uuid.UUID `json:"item_id" binding:"required"`
}

// ExtraDays of zero means the configured default duration.
type ExtendLoanRequest struct {
	ExtraDays int `json:"extra_days" binding:"gte=0"`
}

type WaiveFineRequest struct {
	Reason string `json:"reason" binding:"required"`
}
