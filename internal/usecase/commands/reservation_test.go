//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"library-circulation/internal/domain/reservation"
	"library-circulation/internal/domain/user"
	"library-circulation/internal/pkg/clock"
	"library-circulation/internal/pkg/config"
	"library-circulation/internal/usecase/commands"
	"library-circulation/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReservationCommands(uow *fakeUoW, clk clock.Clock) (commands.ReservationCommands, commands.CartCommands) {
	cfg := config.NewTestConfig()
	carts := commands.NewCartCommands(uow, clk, cfg)
	return commands.NewReservationCommands(uow, carts, clk, cfg, testLogger()), carts
}

func memberActor(id uuid.UUID) shared.Actor {
	return shared.Actor{ID: id, Role: user.RoleMember}
}

func librarianActor() shared.Actor {
	return shared.Actor{ID: uuid.New(), Role: user.RoleLibrarian}
}

func TestCreateFromCart(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("commits one copy per staged item and clears the cart", func(t *testing.T) {
		uow := newFakeUoW()
		clk := clock.NewMockClock(testBase)
		reservations, carts := newReservationCommands(uow, clk)

		first := newItem(t, "First Title", 2)
		second := newItem(t, "Second Title", 1)
		uow.seedItem(first)
		uow.seedItem(second)
		require.NoError(t, carts.Add(ctx, userID, first.ID()))
		require.NoError(t, carts.Add(ctx, userID, second.ID()))

		resID, err := reservations.CreateFromCart(ctx, userID)
		require.NoError(t, err)

		assert.Equal(t, int32(1), uow.item(first.ID()).AvailableCopies())
		assert.Equal(t, int32(0), uow.item(second.ID()).AvailableCopies())
		assert.Equal(t, 0, uow.cartSize(userID))

		res := uow.reservation(resID)
		require.NotNil(t, res)
		assert.Equal(t, reservation.StatusPending, res.Status())
		assert.Equal(t, testBase.Add(48*time.Hour), res.ExpiresAt())
		assert.Len(t, res.Items(), 2)

		assert.Contains(t, uow.eventTopics(), commands.TopicReservationCreated)
	})

	t.Run("empty cart", func(t *testing.T) {
		uow := newFakeUoW()
		reservations, _ := newReservationCommands(uow, clock.NewMockClock(testBase))

		_, err := reservations.CreateFromCart(ctx, userID)
		assert.ErrorIs(t, err, commands.ErrEmptyCart)
	})

	t.Run("all-or-nothing when one item sells out", func(t *testing.T) {
		uow := newFakeUoW()
		clk := clock.NewMockClock(testBase)
		reservations, carts := newReservationCommands(uow, clk)

		plenty := newItem(t, "Plenty", 5)
		scarce := newItem(t, "Scarce", 1)
		uow.seedItem(plenty)
		uow.seedItem(scarce)
		require.NoError(t, carts.Add(ctx, userID, plenty.ID()))
		require.NoError(t, carts.Add(ctx, userID, scarce.ID()))

		// The scarce copy goes to someone else between staging and checkout.
		// ValidateForCheckout sees zero availability first; drain after the
		// guard would surface as ErrInsufficientStock from the locked reserve.
		require.NoError(t, uow.item(scarce.ID()).Reserve(1))

		_, err := reservations.CreateFromCart(ctx, userID)
		require.Error(t, err)

		// Nothing committed: counters untouched, cart intact
		assert.Equal(t, int32(5), uow.item(plenty.ID()).AvailableCopies())
		assert.Equal(t, 2, uow.cartSize(userID))
		assert.Empty(t, uow.eventTopics())
	})
}

func TestReservationLifecycle(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	setup := func(t *testing.T) (*fakeUoW, commands.ReservationCommands, uuid.UUID, uuid.UUID) {
		t.Helper()
		uow := newFakeUoW()
		clk := clock.NewMockClock(testBase)
		reservations, carts := newReservationCommands(uow, clk)

		item := newItem(t, "Reserved Title", 1)
		uow.seedItem(item)
		require.NoError(t, carts.Add(ctx, userID, item.ID()))
		resID, err := reservations.CreateFromCart(ctx, userID)
		require.NoError(t, err)
		return uow, reservations, resID, item.ID()
	}

	t.Run("mark ready requires staff", func(t *testing.T) {
		_, reservations, resID, _ := setup(t)

		err := reservations.MarkReady(ctx, memberActor(userID), resID)
		assert.ErrorIs(t, err, commands.ErrForbidden)

		require.NoError(t, reservations.MarkReady(ctx, librarianActor(), resID))
	})

	t.Run("mark ready only from pending", func(t *testing.T) {
		_, reservations, resID, _ := setup(t)
		staff := librarianActor()

		require.NoError(t, reservations.MarkReady(ctx, staff, resID))
		err := reservations.MarkReady(ctx, staff, resID)
		assert.ErrorIs(t, err, commands.ErrInvalidTransition)
	})

	t.Run("pickup converts holds into loans without touching stock", func(t *testing.T) {
		uow, reservations, resID, itemID := setup(t)

		loanIDs, err := reservations.Pickup(ctx, librarianActor(), resID)
		require.NoError(t, err)
		require.Len(t, loanIDs, 1)

		res := uow.reservation(resID)
		assert.Equal(t, reservation.StatusPickedUp, res.Status())
		for _, it := range res.Items() {
			assert.Equal(t, reservation.ItemStatusFulfilled, it.Status)
		}

		created := uow.loan(loanIDs[0])
		require.NotNil(t, created)
		assert.Equal(t, userID, created.UserID())
		assert.Equal(t, itemID, created.ItemID())
		require.NotNil(t, created.ReservationID())
		assert.Equal(t, resID, *created.ReservationID())
		assert.Equal(t, testBase.AddDate(0, 0, 14), created.DueDate())

		// The copy stays out; the hold became a loan
		assert.Equal(t, int32(0), uow.item(itemID).AvailableCopies())
		assert.Contains(t, uow.eventTopics(), commands.TopicLoanCreated)
	})

	t.Run("pickup requires staff", func(t *testing.T) {
		_, reservations, resID, _ := setup(t)

		_, err := reservations.Pickup(ctx, memberActor(userID), resID)
		assert.ErrorIs(t, err, commands.ErrForbidden)
	})

	t.Run("cancel by owner restores stock", func(t *testing.T) {
		uow, reservations, resID, itemID := setup(t)

		require.NoError(t, reservations.Cancel(ctx, memberActor(userID), resID, "changed my mind"))

		res := uow.reservation(resID)
		assert.Equal(t, reservation.StatusCancelled, res.Status())
		for _, it := range res.Items() {
			assert.Equal(t, reservation.ItemStatusReturnedToShelf, it.Status)
		}
		assert.Equal(t, int32(1), uow.item(itemID).AvailableCopies())
		assert.Contains(t, uow.eventTopics(), commands.TopicReservationCancelled)
	})

	t.Run("cancel by another member is forbidden", func(t *testing.T) {
		uow, reservations, resID, itemID := setup(t)

		err := reservations.Cancel(ctx, memberActor(uuid.New()), resID, "not mine")
		assert.ErrorIs(t, err, commands.ErrForbidden)
		assert.Equal(t, int32(0), uow.item(itemID).AvailableCopies())
	})

	t.Run("expire loses the race against pickup", func(t *testing.T) {
		uow, reservations, resID, itemID := setup(t)

		_, err := reservations.Pickup(ctx, librarianActor(), resID)
		require.NoError(t, err)

		err = reservations.Expire(ctx, resID)
		assert.ErrorIs(t, err, commands.ErrInvalidTransition)
		// The loan keeps its copy
		assert.Equal(t, int32(0), uow.item(itemID).AvailableCopies())
	})

	t.Run("expire restores stock and records the reason", func(t *testing.T) {
		uow, reservations, resID, itemID := setup(t)

		require.NoError(t, reservations.Expire(ctx, resID))

		res := uow.reservation(resID)
		assert.Equal(t, reservation.StatusExpired, res.Status())
		require.NotNil(t, res.CancellationReason())
		assert.Equal(t, reservation.ExpiryReason, *res.CancellationReason())
		assert.Equal(t, int32(1), uow.item(itemID).AvailableCopies())
		assert.Contains(t, uow.eventTopics(), commands.TopicReservationExpired)
	})

	t.Run("unknown reservation", func(t *testing.T) {
		_, reservations, _, _ := setup(t)

		err := reservations.Cancel(ctx, memberActor(userID), uuid.New(), "gone")
		assert.ErrorIs(t, err, commands.ErrReservationNotFound)
	})
}
