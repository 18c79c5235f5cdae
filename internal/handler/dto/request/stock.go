package request

type CreateItemRequest struct {
	Title       string `json:"title" binding:"required"`
	TotalCopies int32  `json:"total_copies" binding:"gte=0"`
}

type AdjustTotalRequest struct {
	TotalCopies int32 `json:"total_copies" binding:"gte=0"`
}
