package components

import (
	"library-circulation/internal/handler"
	"library-circulation/internal/handler/api"
	"library-circulation/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewCartHandler,
		api.NewReservationHandler,
		api.NewLoanHandler,
		api.NewStockHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
