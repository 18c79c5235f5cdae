package api

import (
	"errors"
	"net/http"

	reqdto "library-circulation/internal/handler/dto/request"
	resdto "library-circulation/internal/handler/dto/response"
	"library-circulation/internal/handler/httperr"
	"library-circulation/internal/handler/middleware"
	"library-circulation/internal/usecase/commands"
	"library-circulation/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CartHandler struct {
	carts        commands.CartCommands
	reservations queries.ReservationQueries
}

func NewCartHandler(carts commands.CartCommands, reservations queries.ReservationQueries) *CartHandler {
	return &CartHandler{
		carts:        carts,
		reservations: reservations,
	}
}

// @Summary Add item to cart
// @Description Stage a catalog item for the next reservation
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.AddCartItemRequest true "Item to stage"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req reqdto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format")
		return
	}

	if err := h.carts.Add(c.Request.Context(), userID, req.ItemID); err != nil {
		switch {
		case errors.Is(err, commands.ErrItemNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Catalog item not found")
		case errors.Is(err, commands.ErrOutOfStock):
			httperr.AbortWithError(c, http.StatusConflict, err, "Item is out of stock")
		case errors.Is(err, commands.ErrAlreadyStaged):
			httperr.AbortWithError(c, http.StatusConflict, err, "Item already staged in cart")
		case errors.Is(err, commands.ErrLimitExceeded):
			httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Concurrent hold limit exceeded")
		case errors.Is(err, commands.ErrActiveConflict):
			httperr.AbortWithError(c, http.StatusConflict, err, "You already hold this item")
		case errors.Is(err, commands.ErrUnpaidFines):
			httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Unpaid fines block new holds")
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Remove item from cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param itemId path string true "Item ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /cart/items/{itemId} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid item ID format")
		return
	}

	// Absent entries are a no-op at the command layer; anything surfacing
	// here is storage trouble.
	if err := h.carts.Remove(c.Request.Context(), userID, itemID); err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Clear cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} map[string]string
// @Router /cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := h.carts.Clear(c.Request.Context(), userID); err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary View cart
// @Description List the items currently staged by the caller
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {array} resdto.CartItemResponse
// @Failure 401 {object} map[string]string
// @Router /cart [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	views, err := h.reservations.ListCart(c.Request.Context(), userID)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, resdto.FromCartItemViews(views))
}
