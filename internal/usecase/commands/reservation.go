package commands

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"library-circulation/internal/domain/catalog"
	"library-circulation/internal/domain/loan"
	"library-circulation/internal/domain/reservation"
	"library-circulation/internal/infra"
	"library-circulation/internal/pkg/clock"
	"library-circulation/internal/pkg/config"
	"library-circulation/internal/pkg/errs"
	"library-circulation/internal/usecase/shared"

	"github.com/google/uuid"
)

type ReservationCommands interface {
	// CreateFromCart commits one stock unit per staged item, all-or-nothing,
	// and clears the cart. Returns the new reservation's ID.
	CreateFromCart(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	MarkReady(ctx context.Context, actor Actor, reservationID uuid.UUID) error
	// Pickup converts the reservation into one loan per item. Returns the
	// created loan IDs.
	Pickup(ctx context.Context, actor Actor, reservationID uuid.UUID) ([]uuid.UUID, error)
	Cancel(ctx context.Context, actor Actor, reservationID uuid.UUID, reason string) error
	// Expire is the system-driven cancellation used by the expiry sweep; it
	// has no acting user.
	Expire(ctx context.Context, reservationID uuid.UUID) error
}

type reservationCommandsImpl struct {
	uow    shared.UnitOfWork
	carts  CartCommands
	clock  clock.Clock
	policy config.CirculationConfig
	logger *slog.Logger
}

func NewReservationCommands(
	uow shared.UnitOfWork,
	carts CartCommands,
	clk clock.Clock,
	cfg config.Config,
	logger *slog.Logger,
) ReservationCommands {
	return &reservationCommandsImpl{
		uow:    uow,
		carts:  carts,
		clock:  clk,
		policy: cfg.Circulation,
		logger: logger,
	}
}

func (r *reservationCommandsImpl) CreateFromCart(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	if err := r.carts.ValidateForCheckout(ctx, userID); err != nil {
		return uuid.Nil, err
	}

	now := r.clock.Now()
	var reservationID uuid.UUID

	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entries, err := tx.Reads().CartEntries(ctx, userID)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return ErrEmptyCart
		}

		itemIDs := make([]uuid.UUID, len(entries))
		for i, entry := range entries {
			itemIDs[i] = entry.ItemID
		}
		// Stable lock order across concurrent checkouts prevents deadlocks
		// between carts that share items.
		sort.Slice(itemIDs, func(i, j int) bool {
			return itemIDs[i].String() < itemIDs[j].String()
		})

		for _, itemID := range itemIDs {
			item, err := tx.Items().FindForUpdate(ctx, itemID)
			if err != nil {
				if infra.IsKind(err, infra.KindNotFound) {
					return ErrItemNotFound
				}
				return err
			}
			if err := item.Reserve(1); err != nil {
				if errors.Is(err, catalog.ErrInsufficientStock) {
					// Aborts the whole transaction: every prior reserve in
					// this call is rolled back.
					return errs.Mark(err, ErrInsufficientStock)
				}
				return err
			}
			if err := tx.Items().UpdateStock(ctx, item); err != nil {
				return err
			}
		}

		res, err := reservation.NewReservation(userID, itemIDs, now, r.policy.ReservationWindow())
		if err != nil {
			return errs.Mark(err, ErrEmptyCart)
		}
		if err := tx.Reservations().Create(ctx, res); err != nil {
			return err
		}
		if err := tx.Carts().Clear(ctx, userID); err != nil {
			return err
		}

		reservationID = res.ID()
		return publishEvent(ctx, tx, TopicReservationCreated, now, map[string]any{
			"reservation_id": res.ID(),
			"user_id":        userID,
			"item_ids":       itemIDs,
			"expires_at":     res.ExpiresAt(),
		})
	})
	if err != nil {
		return uuid.Nil, r.markStorageFailure(err)
	}
	return reservationID, nil
}

func (r *reservationCommandsImpl) MarkReady(ctx context.Context, actor Actor, reservationID uuid.UUID) error {
	if !actor.IsStaff() {
		return ErrForbidden
	}

	now := r.clock.Now()
	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		res, err := r.lockReservation(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if err := res.MarkReady(); err != nil {
			return errs.Mark(err, ErrInvalidTransition)
		}
		if err := tx.Reservations().Update(ctx, res); err != nil {
			return err
		}
		return publishEvent(ctx, tx, TopicReservationReady, now, map[string]any{
			"reservation_id": res.ID(),
			"user_id":        res.UserID(),
			"expires_at":     res.ExpiresAt(),
		})
	})
	return r.markStorageFailure(err)
}

func (r *reservationCommandsImpl) Pickup(ctx context.Context, actor Actor, reservationID uuid.UUID) ([]uuid.UUID, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}

	now := r.clock.Now()
	var loanIDs []uuid.UUID

	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		loanIDs = nil // Within may retry

		res, err := r.lockReservation(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		itemIDs := res.ItemIDs()
		if err := res.Pickup(now); err != nil {
			return errs.Mark(err, ErrInvalidTransition)
		}
		if err := tx.Reservations().Update(ctx, res); err != nil {
			return err
		}

		// Stock stays committed: the holds become loans without touching the
		// ledger.
		resID := res.ID()
		for _, itemID := range itemIDs {
			l, err := loan.NewLoan(res.UserID(), itemID, &resID, now, r.policy.LoanDurationDays)
			if err != nil {
				return errs.Mark(err, ErrInvalidArgument)
			}
			if err := tx.Loans().Create(ctx, l); err != nil {
				return err
			}
			loanIDs = append(loanIDs, l.ID())

			if err := publishEvent(ctx, tx, TopicLoanCreated, now, map[string]any{
				"loan_id":        l.ID(),
				"user_id":        l.UserID(),
				"item_id":        l.ItemID(),
				"reservation_id": resID,
				"due_date":       l.DueDate(),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, r.markStorageFailure(err)
	}
	return loanIDs, nil
}

func (r *reservationCommandsImpl) Cancel(ctx context.Context, actor Actor, reservationID uuid.UUID, reason string) error {
	now := r.clock.Now()
	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		res, err := r.lockReservation(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if res.UserID() != actor.ID && !actor.IsStaff() {
			return ErrForbidden
		}
		if err := res.Cancel(now, reason); err != nil {
			return errs.Mark(err, ErrInvalidTransition)
		}
		if err := r.releaseReservationStock(ctx, tx, res); err != nil {
			return err
		}
		if err := tx.Reservations().Update(ctx, res); err != nil {
			return err
		}
		return publishEvent(ctx, tx, TopicReservationCancelled, now, map[string]any{
			"reservation_id": res.ID(),
			"user_id":        res.UserID(),
			"reason":         reason,
		})
	})
	return r.markStorageFailure(err)
}

func (r *reservationCommandsImpl) Expire(ctx context.Context, reservationID uuid.UUID) error {
	now := r.clock.Now()
	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		res, err := r.lockReservation(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		// A pickup or cancel that landed first wins; the status guard turns
		// this sweep into a no-op failure instead of corrupting state.
		if err := res.Expire(now); err != nil {
			return errs.Mark(err, ErrInvalidTransition)
		}
		if err := r.releaseReservationStock(ctx, tx, res); err != nil {
			return err
		}
		if err := tx.Reservations().Update(ctx, res); err != nil {
			return err
		}
		return publishEvent(ctx, tx, TopicReservationExpired, now, map[string]any{
			"reservation_id": res.ID(),
			"user_id":        res.UserID(),
		})
	})
	return r.markStorageFailure(err)
}

func (r *reservationCommandsImpl) lockReservation(ctx context.Context, tx shared.Tx, id uuid.UUID) (*reservation.Reservation, error) {
	res, err := tx.Reservations().FindForUpdate(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return res, nil
}

// releaseReservationStock returns every held copy to the ledger. An
// over-release is repaired by the clamp and logged, never raised: failing
// here would strand inventory.
func (r *reservationCommandsImpl) releaseReservationStock(ctx context.Context, tx shared.Tx, res *reservation.Reservation) error {
	for _, itemID := range res.ItemIDs() {
		item, err := tx.Items().FindForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if restored := item.Release(1); restored != 1 {
			r.logger.Warn("stock release clamped",
				"item_id", itemID,
				"reservation_id", res.ID(),
				"requested", 1,
				"restored", restored)
		}
		if err := tx.Items().UpdateStock(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// markStorageFailure classifies non-domain errors as TransactionFailed so the
// handler layer can distinguish rule violations from storage trouble.
func (r *reservationCommandsImpl) markStorageFailure(err error) error {
	if err == nil {
		return nil
	}
	for _, domainErr := range []error{
		ErrEmptyCart, ErrInsufficientStock, ErrItemNotFound, ErrReservationNotFound,
		ErrInvalidTransition, ErrInvalidArgument, ErrForbidden, ErrOutOfStock, ErrUnpaidFines,
	} {
		if errors.Is(err, domainErr) {
			return err
		}
	}
	return errs.Mark(err, ErrTransactionFailed)
}
