package bootstrap

import (
	"log/slog"
	"os"

	"go.uber.org/fx"
)

// LoggerModule is a plain JSON logger for contexts that skip the HTTP logging
// middleware, such as the e2e harness.
var LoggerModule = fx.Module("logger",
	fx.Provide(
		NewLogger,
	),
)

func NewLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
