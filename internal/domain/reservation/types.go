package reservation

type Status string

const (
	StatusPending   Status = "pending"
	StatusReady     Status = "ready"
	StatusPickedUp  Status = "picked_up"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusReady, StatusPickedUp, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusPickedUp, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// ItemStatus tracks a single reserved copy for operator visibility. Stock is
// driven by the reservation status, never by this field.
type ItemStatus string

const (
	ItemStatusReserved        ItemStatus = "reserved"
	ItemStatusFulfilled       ItemStatus = "fulfilled"
	ItemStatusReturnedToShelf ItemStatus = "returned_to_shelf"
)
