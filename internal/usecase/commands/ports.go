package commands

import (
	"context"
	"encoding/json"
	"time"

	"library-circulation/internal/pkg/errs"
	"library-circulation/internal/usecase/shared"
)

// Failure taxonomy. Every sentinel maps to one distinct user-facing response
// at the handler layer; storage-level aborts surface as ErrTransactionFailed
// with state fully rolled back.
var (
	ErrItemNotFound        = errs.New("catalog item not found")
	ErrReservationNotFound = errs.New("reservation not found")
	ErrLoanNotFound        = errs.New("loan not found")

	ErrInsufficientStock = errs.New("insufficient stock")
	ErrOutOfStock        = errs.New("item out of stock")
	ErrAlreadyStaged     = errs.New("item already staged in cart")
	ErrLimitExceeded     = errs.New("concurrent hold limit exceeded")
	ErrActiveConflict    = errs.New("user already holds this item")
	ErrUnpaidFines       = errs.New("user has unpaid fines")
	ErrEmptyCart         = errs.New("cart is empty")
	ErrInvalidTransition = errs.New("invalid lifecycle transition")
	ErrAlreadyReturned   = errs.New("loan already returned")
	ErrNotExtendable     = errs.New("loan not extendable")
	ErrNoFine            = errs.New("no fine on loan")
	ErrAlreadyPaid       = errs.New("fine already paid")
	ErrInvalidArgument   = errs.New("invalid argument")
	ErrForbidden         = errs.New("actor not permitted")
	ErrTransactionFailed = errs.New("transaction failed")
)

// Actor is the authenticated caller; see shared.Actor.
type Actor = shared.Actor

// Domain event topics. Consumers (mail, in-app notification, activity log)
// subscribe via the outbox relay; this service never sends email itself.
const (
	TopicReservationCreated   = "reservation_created"
	TopicReservationReady     = "reservation_ready"
	TopicReservationCancelled = "reservation_cancelled"
	TopicReservationExpired   = "reservation_expired"
	TopicLoanCreated          = "loan_created"
	TopicLoanReturned         = "loan_returned"
	TopicLoanExtended         = "loan_extended"
	TopicFinePaid             = "fine_paid"
	TopicFineWaived           = "fine_waived"
)

func publishEvent(ctx context.Context, tx shared.Tx, topic string, occurredAt time.Time, fields map[string]any) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return errs.Wrap(err, "failed to encode event payload")
	}
	return tx.Events().Publish(ctx, topic, payload, occurredAt)
}
