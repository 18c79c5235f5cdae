package components

import (
	"library-circulation/internal/pkg/clock"
	"library-circulation/internal/usecase/commands"
	"library-circulation/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseCommandsModule,
	usecaseQueriesModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewCartCommands,
		commands.NewReservationCommands,
		commands.NewLoanCommands,
		commands.NewStockCommands,
		commands.NewExpiryCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewCatalogQueries,
		queries.NewReservationQueries,
		queries.NewLoanQueries,
	),
)
