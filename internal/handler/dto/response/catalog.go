package response

import (
	"time"

	"library-circulation/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type ItemResponse struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	TotalCopies     int32     `json:"totalCopies"`
	AvailableCopies int32     `json:"availableCopies"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type StockSummaryResponse struct {
	ItemID          uuid.UUID `json:"itemId"`
	Title           string    `json:"title"`
	TotalCopies     int32     `json:"totalCopies"`
	AvailableCopies int32     `json:"availableCopies"`
	OnLoan          int32     `json:"onLoan"`
}

func FromItemView(view *queries.ItemView) *ItemResponse {
	var resp ItemResponse
	_ = copier.Copy(&resp, view)
	return &resp
}

func FromItemViews(views []*queries.ItemView) []*ItemResponse {
	resp := make([]*ItemResponse, len(views))
	for i, v := range views {
		resp[i] = FromItemView(v)
	}
	return resp
}

func FromStockSummaryView(view *queries.StockSummaryView) *StockSummaryResponse {
	var resp StockSummaryResponse
	_ = copier.Copy(&resp, view)
	return &resp
}
