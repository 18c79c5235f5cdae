package api

import (
	"errors"
	"net/http"
	"strconv"

	reqdto "library-circulation/internal/handler/dto/request"
	resdto "library-circulation/internal/handler/dto/response"
	"library-circulation/internal/handler/httperr"
	"library-circulation/internal/handler/middleware"
	"library-circulation/internal/usecase/commands"
	"library-circulation/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StockHandler struct {
	commands commands.StockCommands
	queries  queries.CatalogQueries
}

func NewStockHandler(cmds commands.StockCommands, qrs queries.CatalogQueries) *StockHandler {
	return &StockHandler{
		commands: cmds,
		queries:  qrs,
	}
}

// @Summary Create catalog item
// @Description Staff registers a new title with its copy pool
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateItemRequest true "New item"
// @Success 201 {object} resdto.ItemResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /items [post]
func (h *StockHandler) CreateItem(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req reqdto.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format")
		return
	}

	itemID, err := h.commands.CreateItem(c.Request.Context(), actor, req.Title, req.TotalCopies)
	if err != nil {
		h.writeStockError(c, err)
		return
	}

	view, err := h.queries.GetItem(c.Request.Context(), itemID)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	c.JSON(http.StatusCreated, resdto.FromItemView(view))
}

// @Summary Get catalog item
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Success 200 {object} resdto.ItemResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /items/{id} [get]
func (h *StockHandler) GetItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid item ID format")
		return
	}

	view, err := h.queries.GetItem(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, queries.ErrItemNotFound) {
			httperr.AbortWithError(c, http.StatusNotFound, err, "Catalog item not found")
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, resdto.FromItemView(view))
}

// @Summary List catalog items
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (max 200)"
// @Param offset query int false "Offset"
// @Success 200 {array} resdto.ItemResponse
// @Router /items [get]
func (h *StockHandler) ListItems(c *gin.Context) {
	limit := parseInt32(c.Query("limit"), 50)
	offset := parseInt32(c.Query("offset"), 0)

	views, err := h.queries.ListItems(c.Request.Context(), limit, offset)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, resdto.FromItemViews(views))
}

// @Summary Get stock summary
// @Description Counter snapshot for one item
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Success 200 {object} resdto.StockSummaryResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /items/{id}/stock [get]
func (h *StockHandler) GetStockSummary(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid item ID format")
		return
	}

	view, err := h.queries.GetStockSummary(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, queries.ErrItemNotFound) {
			httperr.AbortWithError(c, http.StatusNotFound, err, "Catalog item not found")
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, view)
}

// @Summary Adjust total copies
// @Description Staff resizes the copy pool; copies currently out are preserved
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Param request body reqdto.AdjustTotalRequest true "New total"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /items/{id}/total [put]
func (h *StockHandler) AdjustTotal(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid item ID format")
		return
	}

	var req reqdto.AdjustTotalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format")
		return
	}

	if err := h.commands.AdjustTotal(c.Request.Context(), actor, id, req.TotalCopies); err != nil {
		h.writeStockError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Resync stock counters
// @Description Staff recomputes available copies from active loans and holds
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Success 200 {object} map[string]int
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /items/{id}/resync [post]
func (h *StockHandler) Resync(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid item ID format")
		return
	}

	available, err := h.commands.Resync(c.Request.Context(), actor, id)
	if err != nil {
		h.writeStockError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"available_copies": available})
}

func (h *StockHandler) writeStockError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, commands.ErrForbidden):
		httperr.AbortWithError(c, http.StatusForbidden, err, "Insufficient permissions")
	case errors.Is(err, commands.ErrItemNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Catalog item not found")
	case errors.Is(err, commands.ErrInvalidArgument):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request")
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
	}
}

func parseInt32(raw string, fallback int32) int32 {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(v)
}
