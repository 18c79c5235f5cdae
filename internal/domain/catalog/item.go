package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInvalidTotal      = errors.New("total copies cannot be negative")
	ErrEmptyTitle        = errors.New("title cannot be empty")
)

// Item is a catalog entry with a single pool of physical copies.
// The two counters only ever change through the methods below; the stock
// repository loads an Item under a row lock, applies one mutation and writes
// the counters back, which keeps 0 <= available <= total an invariant.
type Item struct {
	id              uuid.UUID
	title           string
	totalCopies     int32
	availableCopies int32
	createdAt       time.Time
	updatedAt       time.Time
}

func NewItem(title string, totalCopies int32) (*Item, error) {
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if totalCopies < 0 {
		return nil, ErrInvalidTotal
	}
	return &Item{
		id:              uuid.New(),
		title:           title,
		totalCopies:     totalCopies,
		availableCopies: totalCopies,
	}, nil
}

func ReconstructItem(
	id uuid.UUID,
	title string,
	totalCopies, availableCopies int32,
	createdAt, updatedAt time.Time,
) *Item {
	return &Item{
		id:              id,
		title:           title,
		totalCopies:     totalCopies,
		availableCopies: availableCopies,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

func (i *Item) ID() uuid.UUID          { return i.id }
func (i *Item) Title() string          { return i.title }
func (i *Item) TotalCopies() int32     { return i.totalCopies }
func (i *Item) AvailableCopies() int32 { return i.availableCopies }
func (i *Item) CreatedAt() time.Time   { return i.createdAt }
func (i *Item) UpdatedAt() time.Time   { return i.updatedAt }

// OnLoan is the number of copies currently held by reservations or loans.
func (i *Item) OnLoan() int32 {
	return i.totalCopies - i.availableCopies
}

// Reserve commits qty copies. The caller must hold the item's row lock.
func (i *Item) Reserve(qty int32) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if i.availableCopies < qty {
		return ErrInsufficientStock
	}
	i.availableCopies -= qty
	return nil
}

// Release returns qty copies to the pool, clamped so available never exceeds
// total. It reports how many copies were actually restored; a shortfall means
// the counters had drifted and the caller should log the discrepancy.
func (i *Item) Release(qty int32) int32 {
	if qty <= 0 {
		return 0
	}
	headroom := i.totalCopies - i.availableCopies
	if qty > headroom {
		qty = headroom
	}
	i.availableCopies += qty
	return qty
}

// AdjustTotal changes the size of the copy pool, preserving copies that are
// currently out: available becomes max(0, newTotal - onLoan).
func (i *Item) AdjustTotal(newTotal int32) error {
	if newTotal < 0 {
		return ErrInvalidTotal
	}
	onLoan := i.OnLoan()
	i.totalCopies = newTotal
	i.availableCopies = max(0, newTotal-onLoan)
	return nil
}

// Resync overwrites available from the authoritative count of copies
// currently out (active loans plus live reservation holds). Integrity repair,
// not a normal-operation path.
func (i *Item) Resync(copiesOut int32) {
	if copiesOut < 0 {
		copiesOut = 0
	}
	i.availableCopies = max(0, i.totalCopies-copiesOut)
}
