package loan

import (
	"errors"
	"time"

	"library-circulation/internal/domain/fine"

	"github.com/google/uuid"
)

var (
	ErrAlreadyReturned = errors.New("loan already returned")
	ErrNotExtendable   = errors.New("loan cannot be extended")
	ErrNoFine          = errors.New("loan has no fine")
	ErrFineAlreadyPaid = errors.New("fine already paid")
	ErrInvalidDuration = errors.New("loan duration must be positive")
)

// Loan is a permanent record: it is never deleted, only returned. The fine is
// computed exactly once at return time and is immutable afterwards except
// through an explicit waive.
type Loan struct {
	id               uuid.UUID
	userID           uuid.UUID
	itemID           uuid.UUID
	reservationID    *uuid.UUID
	borrowedAt       time.Time
	dueDate          time.Time
	extendedAt       *time.Time
	returnedAt       *time.Time
	returnedBy       *uuid.UUID
	fineAmount       int64
	finePaid         bool
	finePaidAt       *time.Time
	fineWaivedReason *string
	createdAt        time.Time
	updatedAt        time.Time
}

func NewLoan(userID, itemID uuid.UUID, reservationID *uuid.UUID, now time.Time, durationDays int) (*Loan, error) {
	if durationDays <= 0 {
		return nil, ErrInvalidDuration
	}
	return &Loan{
		id:            uuid.New(),
		userID:        userID,
		itemID:        itemID,
		reservationID: reservationID,
		borrowedAt:    now,
		dueDate:       now.AddDate(0, 0, durationDays),
	}, nil
}

func ReconstructLoan(
	id, userID, itemID uuid.UUID,
	reservationID *uuid.UUID,
	borrowedAt, dueDate time.Time,
	extendedAt, returnedAt *time.Time,
	returnedBy *uuid.UUID,
	fineAmount int64,
	finePaid bool,
	finePaidAt *time.Time,
	fineWaivedReason *string,
	createdAt, updatedAt time.Time,
) *Loan {
	return &Loan{
		id:               id,
		userID:           userID,
		itemID:           itemID,
		reservationID:    reservationID,
		borrowedAt:       borrowedAt,
		dueDate:          dueDate,
		extendedAt:       extendedAt,
		returnedAt:       returnedAt,
		returnedBy:       returnedBy,
		fineAmount:       fineAmount,
		finePaid:         finePaid,
		finePaidAt:       finePaidAt,
		fineWaivedReason: fineWaivedReason,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

func (l *Loan) ID() uuid.UUID             { return l.id }
func (l *Loan) UserID() uuid.UUID         { return l.userID }
func (l *Loan) ItemID() uuid.UUID         { return l.itemID }
func (l *Loan) ReservationID() *uuid.UUID { return l.reservationID }
func (l *Loan) BorrowedAt() time.Time     { return l.borrowedAt }
func (l *Loan) DueDate() time.Time        { return l.dueDate }
func (l *Loan) ExtendedAt() *time.Time    { return l.extendedAt }
func (l *Loan) ReturnedAt() *time.Time    { return l.returnedAt }
func (l *Loan) ReturnedBy() *uuid.UUID    { return l.returnedBy }
func (l *Loan) FineAmount() int64         { return l.fineAmount }
func (l *Loan) FinePaid() bool            { return l.finePaid }
func (l *Loan) FinePaidAt() *time.Time    { return l.finePaidAt }
func (l *Loan) FineWaivedReason() *string { return l.fineWaivedReason }
func (l *Loan) CreatedAt() time.Time      { return l.createdAt }
func (l *Loan) UpdatedAt() time.Time      { return l.updatedAt }

func (l *Loan) IsActive() bool {
	return l.returnedAt == nil
}

func (l *Loan) IsOverdue(now time.Time) bool {
	return l.IsActive() && fine.IsOverdue(l.dueDate, now)
}

// HasUnpaidFine blocks new cart staging for the borrower until settled.
func (l *Loan) HasUnpaidFine() bool {
	return l.fineAmount > 0 && !l.finePaid
}

// Return closes the loan, computing the fine from policy exactly once. The
// caller releases the copy back to stock in the same transaction.
func (l *Loan) Return(now time.Time, staffID uuid.UUID, policy fine.Policy) error {
	if l.returnedAt != nil {
		return ErrAlreadyReturned
	}
	l.returnedAt = &now
	l.returnedBy = &staffID
	l.fineAmount = policy.Compute(l.dueDate, now)
	return nil
}

// Extend pushes the due date out by extraDays. Allowed at most once, and only
// while the loan is active and not yet overdue.
func (l *Loan) Extend(now time.Time, extraDays int) error {
	if extraDays <= 0 {
		return ErrInvalidDuration
	}
	if l.returnedAt != nil || l.extendedAt != nil || fine.IsOverdue(l.dueDate, now) {
		return ErrNotExtendable
	}
	l.dueDate = l.dueDate.AddDate(0, 0, extraDays)
	l.extendedAt = &now
	return nil
}

func (l *Loan) PayFine(now time.Time) error {
	if l.fineAmount == 0 {
		return ErrNoFine
	}
	if l.finePaid {
		return ErrFineAlreadyPaid
	}
	l.finePaid = true
	l.finePaidAt = &now
	return nil
}

// WaiveFine zeroes the fine and marks it settled, recording why.
func (l *Loan) WaiveFine(now time.Time, reason string) error {
	if l.fineAmount == 0 {
		return ErrNoFine
	}
	if l.finePaid {
		return ErrFineAlreadyPaid
	}
	l.fineAmount = 0
	l.finePaid = true
	l.finePaidAt = &now
	l.fineWaivedReason = &reason
	return nil
}
