package shared

import (
	"context"
	"time"

	"library-circulation/internal/domain/catalog"
	"library-circulation/internal/domain/loan"
	"library-circulation/internal/domain/reservation"

	"github.com/google/uuid"
)

// UnitOfWork scopes repository work to a single database transaction. Within
// retries on serialization failures, so fn must be safe to re-run.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// CommandReads: guard-check reads outside an explicit transaction
	CommandReads() CommandReads
}

// Tx exposes the write repositories bound to one open transaction. All
// cross-entity effects inside a command go through these.
type Tx interface {
	Items() ItemRepository
	Carts() CartRepository
	Reservations() ReservationRepository
	Loans() LoanRepository
	Events() EventRepository
	Reads() CommandReads
}

// ItemRepository is the stock funnel: the only code path that writes the two
// copy counters. FindForUpdate takes the per-item row lock; holders of
// distinct items do not contend.
type ItemRepository interface {
	Create(ctx context.Context, item *catalog.Item) error
	FindForUpdate(ctx context.Context, id uuid.UUID) (*catalog.Item, error)
	UpdateStock(ctx context.Context, item *catalog.Item) error
	// CopiesOut: authoritative count of copies held by active loans and live
	// reservation holds, for resync
	CopiesOut(ctx context.Context, itemID uuid.UUID) (int32, error)
}

type CartRepository interface {
	Add(ctx context.Context, userID, itemID uuid.UUID, addedAt time.Time) error
	Remove(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type ReservationRepository interface {
	Create(ctx context.Context, res *reservation.Reservation) error
	// FindForUpdate locks the reservation row so a transition and the expiry
	// sweep cannot interleave
	FindForUpdate(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error)
	Update(ctx context.Context, res *reservation.Reservation) error
}

type LoanRepository interface {
	Create(ctx context.Context, l *loan.Loan) error
	FindForUpdate(ctx context.Context, id uuid.UUID) (*loan.Loan, error)
	Update(ctx context.Context, l *loan.Loan) error
}

// EventRepository is the transactional outbox. Domain events commit or roll
// back together with the state change that caused them; a relay outside this
// service delivers them to notification/activity-log consumers.
type EventRepository interface {
	Publish(ctx context.Context, topic string, payload []byte, occurredAt time.Time) error
}

// CommandReads are the snapshot reads command guards run on.
type CommandReads interface {
	ItemByID(ctx context.Context, id uuid.UUID) (*ItemSnapshot, error)
	CartEntries(ctx context.Context, userID uuid.UUID) ([]CartEntry, error)
	CartContains(ctx context.Context, userID, itemID uuid.UUID) (bool, error)
	ActiveReservationCount(ctx context.Context, userID uuid.UUID) (int, error)
	// UserHoldsItem: the user already has an active loan or a live
	// reservation hold on this item
	UserHoldsItem(ctx context.Context, userID, itemID uuid.UUID) (bool, error)
	HasUnpaidFines(ctx context.Context, userID uuid.UUID) (bool, error)
	ReservationByID(ctx context.Context, id uuid.UUID) (*ReservationSnapshot, error)
	LoanByID(ctx context.Context, id uuid.UUID) (*LoanSnapshot, error)
	ExpiredReservationIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

type ItemSnapshot struct {
	ID              uuid.UUID
	Title           string
	TotalCopies     int32
	AvailableCopies int32
}

type CartEntry struct {
	UserID  uuid.UUID
	ItemID  uuid.UUID
	AddedAt time.Time
}

type ReservationSnapshot struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Status    string
	ExpiresAt time.Time
}

type LoanSnapshot struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ItemID     uuid.UUID
	DueDate    time.Time
	Returned   bool
	FineAmount int64
	FinePaid   bool
}
