package commands

import (
	"context"

	"library-circulation/internal/infra"
	"library-circulation/internal/pkg/clock"
	"library-circulation/internal/pkg/config"
	"library-circulation/internal/pkg/errs"
	"library-circulation/internal/usecase/shared"

	"github.com/google/uuid"
)

// CartCommands is the staging area for reservations. Staging is advisory: a
// cart entry never holds stock; every availability check here is re-run when
// the reservation is actually created.
type CartCommands interface {
	Add(ctx context.Context, userID, itemID uuid.UUID) error
	Remove(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	ValidateForCheckout(ctx context.Context, userID uuid.UUID) error
}

type cartCommandsImpl struct {
	uow    shared.UnitOfWork
	clock  clock.Clock
	policy config.CirculationConfig
}

func NewCartCommands(uow shared.UnitOfWork, clk clock.Clock, cfg config.Config) CartCommands {
	return &cartCommandsImpl{
		uow:    uow,
		clock:  clk,
		policy: cfg.Circulation,
	}
}

func (c *cartCommandsImpl) Add(ctx context.Context, userID, itemID uuid.UUID) error {
	reads := c.uow.CommandReads()

	item, err := reads.ItemByID(ctx, itemID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return ErrItemNotFound
		}
		return errs.Mark(err, ErrTransactionFailed)
	}
	if item.AvailableCopies == 0 {
		return ErrOutOfStock
	}

	staged, err := reads.CartContains(ctx, userID, itemID)
	if err != nil {
		return errs.Mark(err, ErrTransactionFailed)
	}
	if staged {
		return ErrAlreadyStaged
	}

	entries, err := reads.CartEntries(ctx, userID)
	if err != nil {
		return errs.Mark(err, ErrTransactionFailed)
	}
	activeReservations, err := reads.ActiveReservationCount(ctx, userID)
	if err != nil {
		return errs.Mark(err, ErrTransactionFailed)
	}
	if len(entries)+activeReservations >= c.policy.MaxConcurrentHolds {
		return ErrLimitExceeded
	}

	holdsItem, err := reads.UserHoldsItem(ctx, userID, itemID)
	if err != nil {
		return errs.Mark(err, ErrTransactionFailed)
	}
	if holdsItem {
		return ErrActiveConflict
	}

	unpaid, err := reads.HasUnpaidFines(ctx, userID)
	if err != nil {
		return errs.Mark(err, ErrTransactionFailed)
	}
	if unpaid {
		return ErrUnpaidFines
	}

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Carts().Add(ctx, userID, itemID, c.clock.Now())
	})
	if err != nil {
		// Two concurrent adds of the same item race past the staged check;
		// the unique key decides.
		if infra.IsKind(err, infra.KindDuplicateKey) {
			return ErrAlreadyStaged
		}
		return errs.Mark(err, ErrTransactionFailed)
	}
	return nil
}

// Remove is idempotent: deleting an entry that was never staged succeeds.
func (c *cartCommandsImpl) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Carts().Remove(ctx, userID, itemID)
	})
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil
		}
		return errs.Mark(err, ErrTransactionFailed)
	}
	return nil
}

func (c *cartCommandsImpl) Clear(ctx context.Context, userID uuid.UUID) error {
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Carts().Clear(ctx, userID)
	})
	if err != nil {
		return errs.Mark(err, ErrTransactionFailed)
	}
	return nil
}

// ValidateForCheckout re-runs the stock and fine checks against the live
// cart. Stock may have moved since staging; callers invoke this immediately
// before reservation creation to fail fast with the same error kinds.
func (c *cartCommandsImpl) ValidateForCheckout(ctx context.Context, userID uuid.UUID) error {
	reads := c.uow.CommandReads()

	entries, err := reads.CartEntries(ctx, userID)
	if err != nil {
		return errs.Mark(err, ErrTransactionFailed)
	}
	if len(entries) == 0 {
		return ErrEmptyCart
	}

	for _, entry := range entries {
		item, err := reads.ItemByID(ctx, entry.ItemID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrItemNotFound
			}
			return errs.Mark(err, ErrTransactionFailed)
		}
		if item.AvailableCopies == 0 {
			return ErrOutOfStock
		}
	}

	unpaid, err := reads.HasUnpaidFines(ctx, userID)
	if err != nil {
		return errs.Mark(err, ErrTransactionFailed)
	}
	if unpaid {
		return ErrUnpaidFines
	}
	return nil
}
