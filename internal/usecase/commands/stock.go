package commands

import (
	"context"
	"errors"
	"log/slog"

	"library-circulation/internal/domain/catalog"
	"library-circulation/internal/infra"
	"library-circulation/internal/pkg/errs"
	"library-circulation/internal/usecase/shared"

	"github.com/google/uuid"
)

// StockCommands are the administrative entry points into the stock ledger.
// Normal circulation never calls these; reserve/release happen inside the
// reservation and loan commands under the same row locks.
type StockCommands interface {
	CreateItem(ctx context.Context, actor Actor, title string, totalCopies int32) (uuid.UUID, error)
	AdjustTotal(ctx context.Context, actor Actor, itemID uuid.UUID, newTotal int32) error
	// Resync recomputes available from the authoritative count of copies out.
	// Integrity repair; returns the corrected available count.
	Resync(ctx context.Context, actor Actor, itemID uuid.UUID) (int32, error)
}

type stockCommandsImpl struct {
	uow    shared.UnitOfWork
	logger *slog.Logger
}

func NewStockCommands(uow shared.UnitOfWork, logger *slog.Logger) StockCommands {
	return &stockCommandsImpl{uow: uow, logger: logger}
}

func (s *stockCommandsImpl) CreateItem(ctx context.Context, actor Actor, title string, totalCopies int32) (uuid.UUID, error) {
	if !actor.IsStaff() {
		return uuid.Nil, ErrForbidden
	}

	item, err := catalog.NewItem(title, totalCopies)
	if err != nil {
		return uuid.Nil, errs.Mark(err, ErrInvalidArgument)
	}

	err = s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Items().Create(ctx, item)
	})
	if err != nil {
		return uuid.Nil, s.markStorageFailure(err)
	}
	return item.ID(), nil
}

func (s *stockCommandsImpl) AdjustTotal(ctx context.Context, actor Actor, itemID uuid.UUID, newTotal int32) error {
	if !actor.IsStaff() {
		return ErrForbidden
	}

	err := s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		item, err := s.lockItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if err := item.AdjustTotal(newTotal); err != nil {
			return errs.Mark(err, ErrInvalidArgument)
		}
		return tx.Items().UpdateStock(ctx, item)
	})
	return s.markStorageFailure(err)
}

func (s *stockCommandsImpl) Resync(ctx context.Context, actor Actor, itemID uuid.UUID) (int32, error) {
	if !actor.IsStaff() {
		return 0, ErrForbidden
	}

	var available int32
	err := s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		item, err := s.lockItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		copiesOut, err := tx.Items().CopiesOut(ctx, itemID)
		if err != nil {
			return err
		}

		before := item.AvailableCopies()
		item.Resync(copiesOut)
		if item.AvailableCopies() != before {
			s.logger.Warn("stock counters drifted, resynced",
				"item_id", itemID,
				"was_available", before,
				"now_available", item.AvailableCopies(),
				"copies_out", copiesOut)
		}
		available = item.AvailableCopies()
		return tx.Items().UpdateStock(ctx, item)
	})
	if err != nil {
		return 0, s.markStorageFailure(err)
	}
	return available, nil
}

func (s *stockCommandsImpl) lockItem(ctx context.Context, tx shared.Tx, id uuid.UUID) (*catalog.Item, error) {
	item, err := tx.Items().FindForUpdate(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *stockCommandsImpl) markStorageFailure(err error) error {
	if err == nil {
		return nil
	}
	for _, domainErr := range []error{ErrItemNotFound, ErrInvalidArgument, ErrForbidden} {
		if errors.Is(err, domainErr) {
			return err
		}
	}
	return errs.Mark(err, ErrTransactionFailed)
}
