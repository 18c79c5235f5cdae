package components

import (
	"context"
	"log/slog"
	"time"

	"library-circulation/internal/pkg/config"
	"library-circulation/internal/usecase/commands"

	"go.uber.org/fx"
)

// ScannerModule runs the reservation expiry sweep on a ticker for the life of
// the process. Each sweep expires at most one batch; anything left over is
// caught by the next tick.
var ScannerModule = fx.Module("scanner",
	fx.Invoke(StartExpiryScanner),
)

func StartExpiryScanner(lc fx.Lifecycle, expiry commands.ExpiryCommands, cfg config.Config, logger *slog.Logger) {
	interval := cfg.Circulation.ExpirySweepInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(interval)
				defer ticker.Stop()

				logger.Info("expiry scanner started", "interval", interval.String())
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						if _, err := expiry.SweepExpired(ctx); err != nil {
							logger.Error("expiry sweep failed", "error", err.Error())
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
