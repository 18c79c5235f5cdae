//go:build unit

package api_test

import (
	"net/http"
	"testing"

	"library-circulation/internal/domain/user"
	"library-circulation/internal/handler/api"
	resdto "library-circulation/internal/handler/dto/response"
	"library-circulation/internal/usecase/commands"
	"library-circulation/internal/usecase/queries"
	"library-circulation/tests/common/httptest"
	"library-circulation/tests/common/testutil"
	commandsmock "library-circulation/tests/mock/commands"
	queriesmock "library-circulation/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type CartHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockCartCommands
	mockQueries  *queriesmock.MockReservationQueries
	handler      *api.CartHandler
	userID       uuid.UUID
}

func (s *CartHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockCartCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockReservationQueries(s.mockCtrl)
	s.handler = api.NewCartHandler(s.mockCommands, s.mockQueries)
	s.userID = uuid.New()

	// Mock authentication middleware for testing
	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set("user_id", s.userID)
		c.Set("user_role", user.RoleMember)
		c.Next()
	}

	s.router.GET("/cart", authMiddleware, s.handler.GetCart)
	s.router.DELETE("/cart", authMiddleware, s.handler.Clear)
	s.router.POST("/cart/items", authMiddleware, s.handler.AddItem)
	s.router.DELETE("/cart/items/:itemId", authMiddleware, s.handler.RemoveItem)
}

func (s *CartHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestCartHandlerSuite(t *testing.T) {
	suite.Run(t, new(CartHandlerTestSuite))
}

func (s *CartHandlerTestSuite) TestAddItem() {
	url := "/cart/items"
	itemID := uuid.New()
	reqBody := map[string]any{"item_id": itemID}

	s.Run("success: returns 204 No Content", func() {
		s.mockCommands.EXPECT().Add(gomock.Any(), s.userID, itemID).Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("validation: missing item_id returns 400", func() {
		body := testutil.DtoMap(s.T(), reqBody, testutil.Field("item_id", nil))
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "bearer-token")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unauthorized without token", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	errorCases := []struct {
		name       string
		commandErr error
		expectCode int
		expectMsg  string
	}{
		{"unknown item returns 404", commands.ErrItemNotFound, http.StatusNotFound, "Catalog item not found"},
		{"out of stock returns 409", commands.ErrOutOfStock, http.StatusConflict, "out of stock"},
		{"already staged returns 409", commands.ErrAlreadyStaged, http.StatusConflict, "already staged"},
		{"held on loan returns 409", commands.ErrActiveConflict, http.StatusConflict, "already hold"},
		{"hold limit returns 422", commands.ErrLimitExceeded, http.StatusUnprocessableEntity, "hold limit"},
		{"unpaid fines return 422", commands.ErrUnpaidFines, http.StatusUnprocessableEntity, "Unpaid fines"},
		{"storage failure returns 500", commands.ErrTransactionFailed, http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range errorCases {
		s.Run(tc.name, func() {
			s.mockCommands.EXPECT().Add(gomock.Any(), s.userID, itemID).Return(tc.commandErr).Times(1)

			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")
			httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, tc.expectMsg)
		})
	}
}

func (s *CartHandlerTestSuite) TestRemoveItem() {
	itemID := uuid.New()

	s.Run("success: returns 204", func() {
		s.mockCommands.EXPECT().Remove(gomock.Any(), s.userID, itemID).Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, "/cart/items/"+itemID.String(), nil, "bearer-token")
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("storage failure returns 500", func() {
		s.mockCommands.EXPECT().Remove(gomock.Any(), s.userID, itemID).Return(commands.ErrTransactionFailed).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, "/cart/items/"+itemID.String(), nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusInternalServerError, "Internal server error")
	})

	s.Run("invalid item ID returns 400", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, "/cart/items/not-a-uuid", nil, "bearer-token")
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *CartHandlerTestSuite) TestClear() {
	s.Run("success: returns 204", func() {
		s.mockCommands.EXPECT().Clear(gomock.Any(), s.userID).Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, "/cart", nil, "bearer-token")
		s.Equal(http.StatusNoContent, rec.Code)
	})
}

func (s *CartHandlerTestSuite) TestGetCart() {
	s.Run("success: returns staged items", func() {
		views := []*queries.CartItemView{
			{ItemID: uuid.New(), Title: "Staged Title", AvailableCopies: 2},
		}
		s.mockQueries.EXPECT().ListCart(gomock.Any(), s.userID).Return(views, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/cart", nil, "bearer-token")

		var body []resdto.CartItemResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Require().Len(body, 1)
		s.Equal("Staged Title", body[0].Title)
		s.Equal(views[0].ItemID, body[0].ItemID)
	})

	s.Run("empty cart returns empty array", func() {
		s.mockQueries.EXPECT().ListCart(gomock.Any(), s.userID).Return(nil, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/cart", nil, "bearer-token")

		var body []resdto.CartItemResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Empty(body)
	})
}
