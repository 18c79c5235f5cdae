package commands

import (
	"context"
	"errors"
	"log/slog"

	"library-circulation/internal/pkg/clock"
	"library-circulation/internal/pkg/config"
	"library-circulation/internal/pkg/errs"
	"library-circulation/internal/usecase/shared"
)

type ExpiryCommands interface {
	// SweepExpired expires every pending/ready reservation whose pickup
	// window has elapsed, each in its own transaction so one failure does not
	// abort the batch. Returns the number of reservations expired.
	SweepExpired(ctx context.Context) (int, error)
}

type expiryCommandsImpl struct {
	uow          shared.UnitOfWork
	reservations ReservationCommands
	clock        clock.Clock
	policy       config.CirculationConfig
	logger       *slog.Logger
}

func NewExpiryCommands(
	uow shared.UnitOfWork,
	reservations ReservationCommands,
	clk clock.Clock,
	cfg config.Config,
	logger *slog.Logger,
) ExpiryCommands {
	return &expiryCommandsImpl{
		uow:          uow,
		reservations: reservations,
		clock:        clk,
		policy:       cfg.Circulation,
		logger:       logger,
	}
}

func (e *expiryCommandsImpl) SweepExpired(ctx context.Context) (int, error) {
	now := e.clock.Now()

	ids, err := e.uow.CommandReads().ExpiredReservationIDs(ctx, now, e.policy.ExpirySweepBatchSize)
	if err != nil {
		return 0, errs.Mark(err, ErrTransactionFailed)
	}

	expired := 0
	for _, id := range ids {
		if err := e.reservations.Expire(ctx, id); err != nil {
			// A reservation picked up or cancelled between the scan and the
			// transition loses the race; anything else is retried next run.
			if errors.Is(err, ErrInvalidTransition) {
				continue
			}
			e.logger.Error("failed to expire reservation",
				"reservation_id", id,
				"error", err.Error())
			continue
		}
		expired++
	}

	if expired > 0 {
		e.logger.Info("expiry sweep completed",
			"expired", expired,
			"candidates", len(ids))
	}
	return expired, nil
}
