package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"library-circulation/internal/domain/user"
	"library-circulation/internal/handler/api"
	"library-circulation/internal/handler/middleware"
	"library-circulation/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	cartHandler *api.CartHandler,
	reservationHandler *api.ReservationHandler,
	loanHandler *api.LoanHandler,
	stockHandler *api.StockHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, cartHandler, reservationHandler, loanHandler, stockHandler, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	cartHandler *api.CartHandler,
	reservationHandler *api.ReservationHandler,
	loanHandler *api.LoanHandler,
	stockHandler *api.StockHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	staffOnly := authMiddleware.RequireRoleAtLeast(user.RoleLibrarian)

	apiGroup := engine.Group("/api")
	apiGroup.Use(authMiddleware.RequireAuth())
	{
		items := apiGroup.Group("/items")
		{
			addRoutes(items, []route{
				{Method: http.MethodGet, Path: "", Handler: stockHandler.ListItems},
				{Method: http.MethodGet, Path: "/:id", Handler: stockHandler.GetItem},
				{Method: http.MethodGet, Path: "/:id/stock", Handler: stockHandler.GetStockSummary},
				{Method: http.MethodPost, Path: "", Handler: stockHandler.CreateItem, Mw: []gin.HandlerFunc{staffOnly}},
				{Method: http.MethodPut, Path: "/:id/total", Handler: stockHandler.AdjustTotal, Mw: []gin.HandlerFunc{staffOnly}},
				{Method: http.MethodPost, Path: "/:id/resync", Handler: stockHandler.Resync, Mw: []gin.HandlerFunc{staffOnly}},
			})
		}

		cart := apiGroup.Group("/cart")
		{
			addRoutes(cart, []route{
				{Method: http.MethodGet, Path: "", Handler: cartHandler.GetCart},
				{Method: http.MethodDelete, Path: "", Handler: cartHandler.Clear},
				{Method: http.MethodPost, Path: "/items", Handler: cartHandler.AddItem},
				{Method: http.MethodDelete, Path: "/items/:itemId", Handler: cartHandler.RemoveItem},
			})
		}

		reservations := apiGroup.Group("/reservations")
		{
			addRoutes(reservations, []route{
				{Method: http.MethodPost, Path: "", Handler: reservationHandler.Create},
				{Method: http.MethodGet, Path: "", Handler: reservationHandler.List},
				{Method: http.MethodGet, Path: "/:id", Handler: reservationHandler.Get},
				{Method: http.MethodPost, Path: "/:id/cancel", Handler: reservationHandler.Cancel},
				{Method: http.MethodPost, Path: "/:id/ready", Handler: reservationHandler.MarkReady, Mw: []gin.HandlerFunc{staffOnly}},
				{Method: http.MethodPost, Path: "/:id/pickup", Handler: reservationHandler.Pickup, Mw: []gin.HandlerFunc{staffOnly}},
			})
		}

		loans := apiGroup.Group("/loans")
		{
			addRoutes(loans, []route{
				{Method: http.MethodGet, Path: "", Handler: loanHandler.List},
				{Method: http.MethodGet, Path: "/fine/preview", Handler: loanHandler.PreviewFine},
				{Method: http.MethodGet, Path: "/overdue", Handler: loanHandler.ListOverdue, Mw: []gin.HandlerFunc{staffOnly}},
				{Method: http.MethodGet, Path: "/:id", Handler: loanHandler.Get},
				{Method: http.MethodPost, Path: "", Handler: loanHandler.Create, Mw: []gin.HandlerFunc{staffOnly}},
				{Method: http.MethodPost, Path: "/:id/return", Handler: loanHandler.Return, Mw: []gin.HandlerFunc{staffOnly}},
				{Method: http.MethodPost, Path: "/:id/extend", Handler: loanHandler.Extend},
				{Method: http.MethodPost, Path: "/:id/fine/pay", Handler: loanHandler.PayFine},
				{Method: http.MethodPost, Path: "/:id/fine/waive", Handler: loanHandler.WaiveFine, Mw: []gin.HandlerFunc{staffOnly}},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
