package response

import (
	"time"

	"library-circulation/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type LoanResponse struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"userId"`
	ItemID        uuid.UUID  `json:"itemId"`
	ItemTitle     string     `json:"itemTitle"`
	ReservationID *uuid.UUID `json:"reservationId,omitempty"`
	BorrowedAt    time.Time  `json:"borrowedAt"`
	DueDate       time.Time  `json:"dueDate"`
	ExtendedAt    *time.Time `json:"extendedAt,omitempty"`
	ReturnedAt    *time.Time `json:"returnedAt,omitempty"`
	FineAmount    int64      `json:"fineAmount"`
	FinePaid      bool       `json:"finePaid"`
	FinePaidAt    *time.Time `json:"finePaidAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type FinePreviewResponse struct {
	DueDate     time.Time `json:"dueDate"`
	AsOf        time.Time `json:"asOf"`
	Overdue     bool      `json:"overdue"`
	OverdueDays int       `json:"overdueDays"`
	Amount      int64     `json:"amount"`
}

func FromLoanView(view *queries.LoanView) *LoanResponse {
	var resp LoanResponse
	_ = copier.Copy(&resp, view)
	return &resp
}

func FromLoanViews(views []*queries.LoanView) []*LoanResponse {
	resp := make([]*LoanResponse, len(views))
	for i, v := range views {
		resp[i] = FromLoanView(v)
	}
	return resp
}

func FromFinePreview(preview *queries.FinePreview) *FinePreviewResponse {
	var resp FinePreviewResponse
	_ = copier.Copy(&resp, preview)
	return &resp
}
