package request

import (
	"strings"
)

type CancelReservationRequest struct {
	Reason string `json:"reason"`
}

func (r CancelReservationRequest) TrimmedReason() string {
	reason := strings.TrimSpace(r.Reason)
	if reason == "" {
		return "cancelled by user"
	}
	return reason
}
