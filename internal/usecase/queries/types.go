package queries

import (
	"time"

	"github.com/google/uuid"
)

// Read models (DTOs for the read side)

type ItemView struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	TotalCopies     int32     `json:"total_copies"`
	AvailableCopies int32     `json:"available_copies"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type StockSummaryView struct {
	ItemID          uuid.UUID `json:"item_id"`
	Title           string    `json:"title"`
	TotalCopies     int32     `json:"total_copies"`
	AvailableCopies int32     `json:"available_copies"`
	OnLoan          int32     `json:"on_loan"`
}

type CartItemView struct {
	ItemID          uuid.UUID `json:"item_id"`
	Title           string    `json:"title"`
	AvailableCopies int32     `json:"available_copies"`
	AddedAt         time.Time `json:"added_at"`
}

type ReservationItemView struct {
	ItemID uuid.UUID `json:"item_id"`
	Title  string    `json:"title"`
	Status string    `json:"status"`
}

type ReservationView struct {
	ID                 uuid.UUID             `json:"id"`
	UserID             uuid.UUID             `json:"user_id"`
	Status             string                `json:"status"`
	Items              []ReservationItemView `json:"items"`
	ReservedAt         time.Time             `json:"reserved_at"`
	ExpiresAt          time.Time             `json:"expires_at"`
	PickedUpAt         *time.Time            `json:"picked_up_at,omitempty"`
	CancelledAt        *time.Time            `json:"cancelled_at,omitempty"`
	CancellationReason *string               `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

type LoanView struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	ItemID        uuid.UUID  `json:"item_id"`
	ItemTitle     string     `json:"item_title"`
	ReservationID *uuid.UUID `json:"reservation_id,omitempty"`
	BorrowedAt    time.Time  `json:"borrowed_at"`
	DueDate       time.Time  `json:"due_date"`
	ExtendedAt    *time.Time `json:"extended_at,omitempty"`
	ReturnedAt    *time.Time `json:"returned_at,omitempty"`
	FineAmount    int64      `json:"fine_amount"`
	FinePaid      bool       `json:"fine_paid"`
	FinePaidAt    *time.Time `json:"fine_paid_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// FinePreview is a what-if computation for reporting UIs; it mutates nothing.
type FinePreview struct {
	DueDate     time.Time `json:"due_date"`
	AsOf        time.Time `json:"as_of"`
	Overdue     bool      `json:"overdue"`
	OverdueDays int       `json:"overdue_days"`
	Amount      int64     `json:"amount"`
}
