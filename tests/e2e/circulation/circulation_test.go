//go:build e2e

package circulation_test

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"library-circulation/internal/domain/user"
	"library-circulation/internal/handler/dto/response"
	"library-circulation/tests/common/authtest"
	"library-circulation/tests/common/dbtest"
	"library-circulation/tests/common/httptest"
	"library-circulation/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	itemsURL        = "/api/items"
	cartURL         = "/api/cart"
	cartItemsURL    = "/api/cart/items"
	reservationsURL = "/api/reservations"
	loansURL        = "/api/loans"
)

type CirculationSuite struct {
	e2e.SharedSuite
}

func (s *CirculationSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()
}

func TestCirculationSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(CirculationSuite))
}

func (s *CirculationSuite) memberToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	return authtest.NewJWTHelper(s.Config.JWT).GenerateToken(t, userID, user.RoleMember)
}

func (s *CirculationSuite) staffToken(t *testing.T) string {
	t.Helper()
	return authtest.NewJWTHelper(s.Config.JWT).GenerateToken(t, uuid.New(), user.RoleLibrarian)
}

func (s *CirculationSuite) getItem(t *testing.T, token string, itemID uuid.UUID) response.ItemResponse {
	t.Helper()
	w := httptest.PerformRequest(t, s.Router, http.MethodGet, itemsURL+"/"+itemID.String(), nil, token)
	var item response.ItemResponse
	httptest.AssertSuccessResponse(t, w, http.StatusOK, &item)
	return item
}

// =============================================================================
// TestReservationFlow - cart to reservation to pickup to return
// =============================================================================

func (s *CirculationSuite) TestReservationFlow() {
	s.Run("full circulation lifecycle", func() {
		t := s.T()
		memberID := uuid.New()
		member := s.memberToken(t, memberID)
		staff := s.staffToken(t)

		itemID := dbtest.CreateTestItem(t, s.DB, "The Go Programming Language", 2)

		// Stage the item; staging holds no stock
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, cartItemsURL,
			map[string]any{"item_id": itemID}, member)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
		require.EqualValues(t, 2, s.getItem(t, member, itemID).AvailableCopies)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, cartURL, nil, member)
		var cart []response.CartItemResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &cart)
		require.Len(t, cart, 1)
		require.Equal(t, itemID, cart[0].ItemID)

		// Checkout commits one copy and clears the cart
		w = httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL, nil, member)
		var created response.ReservationResponse
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &created)
		require.Equal(t, "pending", created.Status)
		require.Len(t, created.Items, 1)
		require.EqualValues(t, 1, s.getItem(t, member, itemID).AvailableCopies)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, cartURL, nil, member)
		cart = nil
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &cart)
		require.Empty(t, cart)

		resURL := reservationsURL + "/" + created.ID.String()

		// Detail fetch returns exactly what creation returned
		w = httptest.PerformRequest(t, s.Router, http.MethodGet, resURL, nil, member)
		var fetched response.ReservationResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &fetched)
		if diff := cmp.Diff(created, fetched, cmpopts.EquateApproxTime(time.Second)); diff != "" {
			t.Errorf("reservation detail mismatch (-created +fetched):\n%s", diff)
		}

		// Staff pulls the copies and hands them over
		w = httptest.PerformRequest(t, s.Router, http.MethodPost, resURL+"/ready", nil, staff)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, resURL+"/pickup", nil, staff)
		var pickup struct {
			LoanIDs []uuid.UUID `json:"loan_ids"`
		}
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &pickup)
		require.Len(t, pickup.LoanIDs, 1)

		// The copy stays out after pickup
		require.EqualValues(t, 1, s.getItem(t, member, itemID).AvailableCopies)

		loanURL := loansURL + "/" + pickup.LoanIDs[0].String()
		w = httptest.PerformRequest(t, s.Router, http.MethodGet, loanURL, nil, member)
		var loan response.LoanResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &loan)
		require.Equal(t, memberID, loan.UserID)
		require.Equal(t, itemID, loan.ItemID)
		require.NotNil(t, loan.ReservationID)
		require.Equal(t, created.ID, *loan.ReservationID)

		// Return restores stock
		w = httptest.PerformRequest(t, s.Router, http.MethodPost, loanURL+"/return", nil, staff)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
		require.EqualValues(t, 2, s.getItem(t, member, itemID).AvailableCopies)
	})

	s.Run("cancel restores stock", func() {
		t := s.T()
		memberID := uuid.New()
		member := s.memberToken(t, memberID)

		itemID := dbtest.CreateTestItem(t, s.DB, "Short Lived Hold", 1)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, cartItemsURL,
			map[string]any{"item_id": itemID}, member)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL, nil, member)
		var created response.ReservationResponse
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &created)
		require.EqualValues(t, 0, s.getItem(t, member, itemID).AvailableCopies)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost,
			reservationsURL+"/"+created.ID.String()+"/cancel",
			map[string]any{"reason": "changed my mind"}, member)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
		require.EqualValues(t, 1, s.getItem(t, member, itemID).AvailableCopies)
	})

	s.Run("checkout with an empty cart is rejected", func() {
		t := s.T()
		member := s.memberToken(t, uuid.New())

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL, nil, member)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	})
}

// =============================================================================
// TestLastCopyContention - concurrent checkouts for a single copy
// =============================================================================

func (s *CirculationSuite) TestLastCopyContention() {
	s.Run("exactly one of two concurrent checkouts wins the last copy", func() {
		t := s.T()
		itemID := dbtest.CreateTestItem(t, s.DB, "Contested Volume", 1)

		tokens := make([]string, 2)
		for i := range tokens {
			tokens[i] = s.memberToken(t, uuid.New())
			w := httptest.PerformRequest(t, s.Router, http.MethodPost, cartItemsURL,
				map[string]any{"item_id": itemID}, tokens[i])
			require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
		}

		codes := make([]int, 2)
		var wg sync.WaitGroup
		for i, token := range tokens {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL, nil, token)
				codes[i] = w.Code
			}()
		}
		wg.Wait()

		winners, losers := 0, 0
		for _, code := range codes {
			switch code {
			case http.StatusCreated:
				winners++
			case http.StatusConflict:
				losers++
			}
		}
		require.Equal(t, 1, winners, "exactly one checkout must win, got codes %v", codes)
		require.Equal(t, 1, losers, "the other checkout must see a stock conflict, got codes %v", codes)

		require.EqualValues(t, 0, s.getItem(t, tokens[0], itemID).AvailableCopies)
	})
}

// =============================================================================
// TestFineFlow - overdue return, payment, waiver
// =============================================================================

func (s *CirculationSuite) TestFineFlow() {
	s.Run("overdue return accrues a fine the member then pays", func() {
		t := s.T()
		memberID := uuid.New()
		member := s.memberToken(t, memberID)
		staff := s.staffToken(t)

		itemID := dbtest.CreateTestItem(t, s.DB, "Late Returner", 1)

		// Walk-up loan issued by staff
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, loansURL,
			map[string]any{"user_id": memberID, "item_id": itemID}, staff)
		var created struct {
			LoanID string `json:"loan_id"`
		}
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &created)
		loanID := uuid.MustParse(created.LoanID)

		// Make it three days overdue
		dbtest.BackdateLoanDueDate(t, s.DB, loanID, time.Now().UTC().AddDate(0, 0, -3))

		loanURL := loansURL + "/" + loanID.String()
		w = httptest.PerformRequest(t, s.Router, http.MethodPost, loanURL+"/return", nil, staff)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, loanURL, nil, member)
		var loan response.LoanResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &loan)
		require.EqualValues(t, 300, loan.FineAmount, "three days at the default rate")
		require.False(t, loan.FinePaid)

		// Unpaid fines block new holds
		w = httptest.PerformRequest(t, s.Router, http.MethodPost, cartItemsURL,
			map[string]any{"item_id": itemID}, member)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, loanURL+"/fine/pay", nil, member)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, loanURL, nil, member)
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &loan)
		require.True(t, loan.FinePaid)

		// Paid up; staging works again
		w = httptest.PerformRequest(t, s.Router, http.MethodPost, cartItemsURL,
			map[string]any{"item_id": itemID}, member)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	})

	s.Run("staff waives a fine with a reason", func() {
		t := s.T()
		memberID := uuid.New()
		staff := s.staffToken(t)

		itemID := dbtest.CreateTestItem(t, s.DB, "Damaged In Transit", 1)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, loansURL,
			map[string]any{"user_id": memberID, "item_id": itemID}, staff)
		var created struct {
			LoanID string `json:"loan_id"`
		}
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &created)
		loanID := uuid.MustParse(created.LoanID)

		dbtest.BackdateLoanDueDate(t, s.DB, loanID, time.Now().UTC().AddDate(0, 0, -5))

		loanURL := loansURL + "/" + loanID.String()
		w = httptest.PerformRequest(t, s.Router, http.MethodPost, loanURL+"/return", nil, staff)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, loanURL+"/fine/waive",
			map[string]any{"reason": "copy was already damaged"}, staff)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, loanURL, nil, staff)
		var loan response.LoanResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &loan)
		require.True(t, loan.FinePaid)
		require.EqualValues(t, 0, loan.FineAmount)
	})
}

// =============================================================================
// TestAuthorization - role gating on staff routes
// =============================================================================

func (s *CirculationSuite) TestAuthorization() {
	s.Run("members cannot reach staff routes", func() {
		t := s.T()
		member := s.memberToken(t, uuid.New())

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, itemsURL,
			map[string]any{"title": "Forbidden", "total_copies": 1}, member)
		require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, loansURL+"/overdue", nil, member)
		require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	})

	s.Run("requests without a token are rejected", func() {
		t := s.T()
		w := httptest.PerformRequest(t, s.Router, http.MethodGet, itemsURL, nil, "")
		require.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
	})

	s.Run("expired tokens are rejected", func() {
		t := s.T()
		expired := authtest.NewJWTHelper(s.Config.JWT).CreateExpiredToken(t, uuid.New(), user.RoleMember)
		w := httptest.PerformRequest(t, s.Router, http.MethodGet, itemsURL, nil, expired)
		require.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
	})

	s.Run("staff creates an item and adjusts the pool", func() {
		t := s.T()
		staff := s.staffToken(t)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, itemsURL,
			map[string]any{"title": "New Acquisition", "total_copies": 3}, staff)
		var item response.ItemResponse
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &item)
		require.EqualValues(t, 3, item.AvailableCopies)

		w = httptest.PerformRequest(t, s.Router, http.MethodPut, itemsURL+"/"+item.ID.String()+"/total",
			map[string]any{"total_copies": 5}, staff)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

		require.EqualValues(t, 5, s.getItem(t, staff, item.ID).AvailableCopies)
	})
}
