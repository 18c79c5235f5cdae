package reservation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoItems           = errors.New("reservation requires at least one item")
	ErrInvalidTransition = errors.New("invalid reservation state transition")
)

// ExpiryReason is recorded when the system expires a reservation; there is no
// acting user on that path.
const ExpiryReason = "pickup window elapsed"

// Item is one reserved copy. A reservation's item set is immutable once the
// reservation is created.
type Item struct {
	ItemID uuid.UUID
	Status ItemStatus
}

// Reservation holds exactly one stock unit per item from creation until it
// leaves {pending, ready}. Transitions are guarded by the current status; the
// terminal-state check is what serializes a racing pickup against the expiry
// sweep.
type Reservation struct {
	id                 uuid.UUID
	userID             uuid.UUID
	status             Status
	items              []Item
	reservedAt         time.Time
	expiresAt          time.Time
	pickedUpAt         *time.Time
	cancelledAt        *time.Time
	cancellationReason *string
	createdAt          time.Time
	updatedAt          time.Time
}

// NewReservation creates a pending reservation over the given items. Stock
// commitment happens alongside in the same transaction; the entity itself only
// records the holds.
func NewReservation(userID uuid.UUID, itemIDs []uuid.UUID, now time.Time, window time.Duration) (*Reservation, error) {
	if len(itemIDs) == 0 {
		return nil, ErrNoItems
	}
	items := make([]Item, len(itemIDs))
	for i, id := range itemIDs {
		items[i] = Item{ItemID: id, Status: ItemStatusReserved}
	}
	return &Reservation{
		id:         uuid.New(),
		userID:     userID,
		status:     StatusPending,
		items:      items,
		reservedAt: now,
		expiresAt:  now.Add(window),
	}, nil
}

func ReconstructReservation(
	id, userID uuid.UUID,
	status Status,
	items []Item,
	reservedAt, expiresAt time.Time,
	pickedUpAt, cancelledAt *time.Time,
	cancellationReason *string,
	createdAt, updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:                 id,
		userID:             userID,
		status:             status,
		items:              items,
		reservedAt:         reservedAt,
		expiresAt:          expiresAt,
		pickedUpAt:         pickedUpAt,
		cancelledAt:        cancelledAt,
		cancellationReason: cancellationReason,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

func (r *Reservation) ID() uuid.UUID           { return r.id }
func (r *Reservation) UserID() uuid.UUID       { return r.userID }
func (r *Reservation) Status() Status          { return r.status }
func (r *Reservation) ReservedAt() time.Time   { return r.reservedAt }
func (r *Reservation) ExpiresAt() time.Time    { return r.expiresAt }
func (r *Reservation) PickedUpAt() *time.Time  { return r.pickedUpAt }
func (r *Reservation) CancelledAt() *time.Time { return r.cancelledAt }
func (r *Reservation) CreatedAt() time.Time    { return r.createdAt }
func (r *Reservation) UpdatedAt() time.Time    { return r.updatedAt }

func (r *Reservation) CancellationReason() *string { return r.cancellationReason }

// Items returns a copy; the item set cannot be mutated after creation.
func (r *Reservation) Items() []Item {
	items := make([]Item, len(r.items))
	copy(items, r.items)
	return items
}

func (r *Reservation) ItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(r.items))
	for i, it := range r.items {
		ids[i] = it.ItemID
	}
	return ids
}

// IsActive reports whether the reservation still holds stock.
func (r *Reservation) IsActive() bool {
	return r.status == StatusPending || r.status == StatusReady
}

func (r *Reservation) HasExpired(now time.Time) bool {
	return r.IsActive() && now.After(r.expiresAt)
}

// MarkReady signals the copies have been pulled from the shelves.
func (r *Reservation) MarkReady() error {
	if r.status != StatusPending {
		return ErrInvalidTransition
	}
	r.status = StatusReady
	return nil
}

// Pickup converts the reservation's holds into loans. The caller creates one
// loan per item in the same transaction.
func (r *Reservation) Pickup(now time.Time) error {
	if !r.IsActive() {
		return ErrInvalidTransition
	}
	r.status = StatusPickedUp
	r.pickedUpAt = &now
	for i := range r.items {
		r.items[i].Status = ItemStatusFulfilled
	}
	return nil
}

// Cancel releases the reservation's holds. The caller releases stock in the
// same transaction.
func (r *Reservation) Cancel(now time.Time, reason string) error {
	if !r.IsActive() {
		return ErrInvalidTransition
	}
	r.status = StatusCancelled
	r.cancelledAt = &now
	r.cancellationReason = &reason
	for i := range r.items {
		r.items[i].Status = ItemStatusReturnedToShelf
	}
	return nil
}

// Expire is the system-driven variant of Cancel with a fixed reason.
func (r *Reservation) Expire(now time.Time) error {
	if !r.IsActive() {
		return ErrInvalidTransition
	}
	r.status = StatusExpired
	r.cancelledAt = &now
	reason := ExpiryReason
	r.cancellationReason = &reason
	for i := range r.items {
		r.items[i].Status = ItemStatusReturnedToShelf
	}
	return nil
}
