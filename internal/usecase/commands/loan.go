package commands

import (
	"context"
	"errors"
	"log/slog"

	"library-circulation/internal/domain/catalog"
	"library-circulation/internal/domain/fine"
	"library-circulation/internal/domain/loan"
	"library-circulation/internal/infra"
	"library-circulation/internal/pkg/clock"
	"library-circulation/internal/pkg/config"
	"library-circulation/internal/pkg/errs"
	"library-circulation/internal/usecase/shared"

	"github.com/google/uuid"
)

type LoanCommands interface {
	// CreateDirect lends a copy over the counter without a prior
	// reservation. Staff only; commits one stock unit.
	CreateDirect(ctx context.Context, actor Actor, userID, itemID uuid.UUID) (uuid.UUID, error)
	Return(ctx context.Context, actor Actor, loanID uuid.UUID) error
	// Extend pushes the due date out. extraDays <= 0 means the configured
	// default loan duration.
	Extend(ctx context.Context, actor Actor, loanID uuid.UUID, extraDays int) error
	PayFine(ctx context.Context, actor Actor, loanID uuid.UUID) error
	WaiveFine(ctx context.Context, actor Actor, loanID uuid.UUID, reason string) error
}

type loanCommandsImpl struct {
	uow    shared.UnitOfWork
	clock  clock.Clock
	policy config.CirculationConfig
	logger *slog.Logger
}

func NewLoanCommands(uow shared.UnitOfWork, clk clock.Clock, cfg config.Config, logger *slog.Logger) LoanCommands {
	return &loanCommandsImpl{
		uow:    uow,
		clock:  clk,
		policy: cfg.Circulation,
		logger: logger,
	}
}

func (l *loanCommandsImpl) finePolicy() fine.Policy {
	return fine.Policy{
		RatePerDay:      l.policy.FineRatePerDay,
		GracePeriodDays: l.policy.FineGracePeriodDays,
		MaxFine:         l.policy.MaxFineAmount,
	}
}

func (l *loanCommandsImpl) CreateDirect(ctx context.Context, actor Actor, userID, itemID uuid.UUID) (uuid.UUID, error) {
	if !actor.IsStaff() {
		return uuid.Nil, ErrForbidden
	}

	now := l.clock.Now()
	var loanID uuid.UUID

	err := l.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		item, err := tx.Items().FindForUpdate(ctx, itemID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrItemNotFound
			}
			return err
		}
		if err := item.Reserve(1); err != nil {
			if errors.Is(err, catalog.ErrInsufficientStock) {
				return errs.Mark(err, ErrInsufficientStock)
			}
			return err
		}
		if err := tx.Items().UpdateStock(ctx, item); err != nil {
			return err
		}

		newLoan, err := loan.NewLoan(userID, itemID, nil, now, l.policy.LoanDurationDays)
		if err != nil {
			return errs.Mark(err, ErrInvalidArgument)
		}
		if err := tx.Loans().Create(ctx, newLoan); err != nil {
			return err
		}

		loanID = newLoan.ID()
		return publishEvent(ctx, tx, TopicLoanCreated, now, map[string]any{
			"loan_id":  newLoan.ID(),
			"user_id":  userID,
			"item_id":  itemID,
			"due_date": newLoan.DueDate(),
		})
	})
	if err != nil {
		return uuid.Nil, l.markStorageFailure(err)
	}
	return loanID, nil
}

func (l *loanCommandsImpl) Return(ctx context.Context, actor Actor, loanID uuid.UUID) error {
	if !actor.IsStaff() {
		return ErrForbidden
	}

	now := l.clock.Now()
	err := l.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		lo, err := l.lockLoan(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if err := lo.Return(now, actor.ID, l.finePolicy()); err != nil {
			return errs.Mark(err, ErrAlreadyReturned)
		}
		if err := tx.Loans().Update(ctx, lo); err != nil {
			return err
		}

		item, err := tx.Items().FindForUpdate(ctx, lo.ItemID())
		if err != nil {
			return err
		}
		if restored := item.Release(1); restored != 1 {
			l.logger.Warn("stock release clamped",
				"item_id", lo.ItemID(),
				"loan_id", lo.ID(),
				"requested", 1,
				"restored", restored)
		}
		if err := tx.Items().UpdateStock(ctx, item); err != nil {
			return err
		}

		return publishEvent(ctx, tx, TopicLoanReturned, now, map[string]any{
			"loan_id":     lo.ID(),
			"user_id":     lo.UserID(),
			"item_id":     lo.ItemID(),
			"fine_amount": lo.FineAmount(),
		})
	})
	return l.markStorageFailure(err)
}

func (l *loanCommandsImpl) Extend(ctx context.Context, actor Actor, loanID uuid.UUID, extraDays int) error {
	if extraDays <= 0 {
		extraDays = l.policy.LoanDurationDays
	}
	if extraDays > l.policy.MaxExtensionDays {
		return ErrInvalidArgument
	}

	now := l.clock.Now()
	err := l.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		lo, err := l.lockLoan(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if lo.UserID() != actor.ID && !actor.IsStaff() {
			return ErrForbidden
		}
		if err := lo.Extend(now, extraDays); err != nil {
			return errs.Mark(err, ErrNotExtendable)
		}
		if err := tx.Loans().Update(ctx, lo); err != nil {
			return err
		}
		return publishEvent(ctx, tx, TopicLoanExtended, now, map[string]any{
			"loan_id":  lo.ID(),
			"user_id":  lo.UserID(),
			"due_date": lo.DueDate(),
		})
	})
	return l.markStorageFailure(err)
}

func (l *loanCommandsImpl) PayFine(ctx context.Context, actor Actor, loanID uuid.UUID) error {
	now := l.clock.Now()
	err := l.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		lo, err := l.lockLoan(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if lo.UserID() != actor.ID && !actor.IsStaff() {
			return ErrForbidden
		}
		if err := lo.PayFine(now); err != nil {
			return l.markFineFailure(err)
		}
		if err := tx.Loans().Update(ctx, lo); err != nil {
			return err
		}
		return publishEvent(ctx, tx, TopicFinePaid, now, map[string]any{
			"loan_id": lo.ID(),
			"user_id": lo.UserID(),
			"amount":  lo.FineAmount(),
		})
	})
	return l.markStorageFailure(err)
}

func (l *loanCommandsImpl) WaiveFine(ctx context.Context, actor Actor, loanID uuid.UUID, reason string) error {
	if !actor.IsStaff() {
		return ErrForbidden
	}
	if reason == "" {
		return ErrInvalidArgument
	}

	now := l.clock.Now()
	err := l.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		lo, err := l.lockLoan(ctx, tx, loanID)
		if err != nil {
			return err
		}
		waived := lo.FineAmount()
		if err := lo.WaiveFine(now, reason); err != nil {
			return l.markFineFailure(err)
		}
		if err := tx.Loans().Update(ctx, lo); err != nil {
			return err
		}
		return publishEvent(ctx, tx, TopicFineWaived, now, map[string]any{
			"loan_id": lo.ID(),
			"user_id": lo.UserID(),
			"amount":  waived,
			"reason":  reason,
		})
	})
	return l.markStorageFailure(err)
}

func (l *loanCommandsImpl) lockLoan(ctx context.Context, tx shared.Tx, id uuid.UUID) (*loan.Loan, error) {
	lo, err := tx.Loans().FindForUpdate(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	return lo, nil
}

func (l *loanCommandsImpl) markFineFailure(err error) error {
	switch {
	case errors.Is(err, loan.ErrNoFine):
		return errs.Mark(err, ErrNoFine)
	case errors.Is(err, loan.ErrFineAlreadyPaid):
		return errs.Mark(err, ErrAlreadyPaid)
	default:
		return err
	}
}

func (l *loanCommandsImpl) markStorageFailure(err error) error {
	if err == nil {
		return nil
	}
	for _, domainErr := range []error{
		ErrItemNotFound, ErrLoanNotFound, ErrInsufficientStock, ErrAlreadyReturned,
		ErrNotExtendable, ErrNoFine, ErrAlreadyPaid, ErrInvalidArgument, ErrForbidden,
	} {
		if errors.Is(err, domainErr) {
			return err
		}
	}
	return errs.Mark(err, ErrTransactionFailed)
}
