package api

import (
	"errors"
	"net/http"
	"time"

	reqdto "library-circulation/internal/handler/dto/request"
	resdto "library-circulation/internal/handler/dto/response"
	"library-circulation/internal/handler/httperr"
	"library-circulation/internal/handler/middleware"
	"library-circulation/internal/pkg/clock"
	"library-circulation/internal/usecase/commands"
	"library-circulation/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LoanHandler struct {
	commands commands.LoanCommands
	queries  queries.LoanQueries
	clock    clock.Clock
}

func NewLoanHandler(cmds commands.LoanCommands, qrs queries.LoanQueries, clk clock.Clock) *LoanHandler {
	return &LoanHandler{
		commands: cmds,
		queries:  qrs,
		clock:    clk,
	}
}

// @Summary Create walk-up loan
// @Description Staff lends a copy over the counter without a prior reservation
// @Tags loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateLoanRequest true "Borrower and item"
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /loans [post]
func (h *LoanHandler) Create(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req reqdto.CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format")
		return
	}

	loanID, err := h.commands.CreateDirect(c.Request.Context(), actor, req.UserID, req.ItemID)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrForbidden):
			httperr.AbortWithError(c, http.StatusForbidden, err, "Insufficient permissions")
		case errors.Is(err, commands.ErrItemNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Catalog item not found")
		case errors.Is(err, commands.ErrInsufficientStock):
			httperr.AbortWithError(c, http.StatusConflict, err, "Not enough copies available")
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"loan_id": loanID.String()})
}

// @Summary Get loan
// @Tags loans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} resdto.LoanResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /loans/{id} [get]
func (h *LoanHandler) Get(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid loan ID format")
		return
	}

	view, err := h.queries.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrLoanNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Loan not found")
		case errors.Is(err, queries.ErrForbidden):
			httperr.AbortWithError(c, http.StatusForbidden, err, "Insufficient permissions")
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromLoanView(view))
}

// @Summary List own loans
// @Tags loans
// @Produce json
// @Security BearerAuth
// @Success 200 {array} resdto.LoanResponse
// @Failure 401 {object} map[string]string
// @Router /loans [get]
func (h *LoanHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	views, err := h.queries.ListByUser(c.Request.Context(), userID)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, resdto.FromLoanViews(views))
}

// @Summary List overdue loans
// @Description Staff report of active loans past their due date
// @Tags loans
// @Produce json
// @Security BearerAuth
// @Success 200 {array} resdto.LoanResponse
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /loans/overdue [get]
func (h *LoanHandler) ListOverdue(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	views, err := h.queries.ListOverdue(c.Request.Context(), actor, h.clock.Now())
	if err != nil {
		if errors.Is(err, queries.ErrForbidden) {
			httperr.AbortWithError(c, http.StatusForbidden, err, "Insufficient permissions")
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, resdto.FromLoanViews(views))
}

// @Summary Return loan
// @Description Staff closes the loan; the fine is computed once at this moment
// @Tags loans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /loans/{id}/return [post]
func (h *LoanHandler) Return(c *gin.Context) {
	h.mutate(c, func(actor commands.Actor, id uuid.UUID) error {
		return h.commands.Return(c.Request.Context(), actor, id)
	})
}

// @Summary Extend loan
// @Description Push the due date out; allowed once per loan while not overdue
// @Tags loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Param request body reqdto.ExtendLoanRequest false "Extension length"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /loans/{id}/extend [post]
func (h *LoanHandler) Extend(c *gin.Context) {
	var req reqdto.ExtendLoanRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format")
			return
		}
	}

	h.mutate(c, func(actor commands.Actor, id uuid.UUID) error {
		return h.commands.Extend(c.Request.Context(), actor, id, req.ExtraDays)
	})
}

// @Summary Pay fine
// @Tags loans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /loans/{id}/fine/pay [post]
func (h *LoanHandler) PayFine(c *gin.Context) {
	h.mutate(c, func(actor commands.Actor, id uuid.UUID) error {
		return h.commands.PayFine(c.Request.Context(), actor, id)
	})
}

// @Summary Waive fine
// @Description Staff zeroes the fine, recording why
// @Tags loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Param request body reqdto.WaiveFineRequest true "Waive reason"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /loans/{id}/fine/waive [post]
func (h *LoanHandler) WaiveFine(c *gin.Context) {
	var req reqdto.WaiveFineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format")
		return
	}

	h.mutate(c, func(actor commands.Actor, id uuid.UUID) error {
		return h.commands.WaiveFine(c.Request.Context(), actor, id, req.Reason)
	})
}

// @Summary Preview fine
// @Description What-if fine computation for a due date; mutates nothing
// @Tags loans
// @Produce json
// @Security BearerAuth
// @Param due_date query string true "Due date (RFC 3339)"
// @Param as_of query string false "Return moment (RFC 3339, defaults to now)"
// @Success 200 {object} resdto.FinePreviewResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /loans/fine/preview [get]
func (h *LoanHandler) PreviewFine(c *gin.Context) {
	dueDate, err := time.Parse(time.RFC3339, c.Query("due_date"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid due_date format")
		return
	}

	asOf := h.clock.Now()
	if raw := c.Query("as_of"); raw != "" {
		asOf, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid as_of format")
			return
		}
	}

	c.JSON(http.StatusOK, resdto.FromFinePreview(h.queries.PreviewFine(dueDate, asOf)))
}

func (h *LoanHandler) mutate(c *gin.Context, fn func(actor commands.Actor, id uuid.UUID) error) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid loan ID format")
		return
	}

	if err := fn(actor, id); err != nil {
		h.writeLoanError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *LoanHandler) writeLoanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, commands.ErrLoanNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Loan not found")
	case errors.Is(err, commands.ErrForbidden):
		httperr.AbortWithError(c, http.StatusForbidden, err, "Insufficient permissions")
	case errors.Is(err, commands.ErrAlreadyReturned):
		httperr.AbortWithError(c, http.StatusConflict, err, "Loan already returned")
	case errors.Is(err, commands.ErrNotExtendable):
		httperr.AbortWithError(c, http.StatusConflict, err, "Loan cannot be extended")
	case errors.Is(err, commands.ErrNoFine):
		httperr.AbortWithError(c, http.StatusConflict, err, "Loan has no fine")
	case errors.Is(err, commands.ErrAlreadyPaid):
		httperr.AbortWithError(c, http.StatusConflict, err, "Fine already settled")
	case errors.Is(err, commands.ErrInvalidArgument):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request")
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
	}
}
