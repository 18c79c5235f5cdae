//go:build unit

package loan_test

import (
	"testing"
	"time"

	"library-circulation/internal/domain/fine"
	"library-circulation/internal/domain/loan"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	borrowedAt = time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	policy     = fine.Policy{RatePerDay: 1000, GracePeriodDays: 0, MaxFine: 50000}
	staffID    = uuid.New()
)

func newActiveLoan(t *testing.T) *loan.Loan {
	t.Helper()
	l, err := loan.NewLoan(uuid.New(), uuid.New(), nil, borrowedAt, 14)
	require.NoError(t, err)
	return l
}

func TestNewLoan(t *testing.T) {
	t.Run("due date from duration", func(t *testing.T) {
		l := newActiveLoan(t)
		assert.Equal(t, borrowedAt.AddDate(0, 0, 14), l.DueDate())
		assert.True(t, l.IsActive())
		assert.Zero(t, l.FineAmount())
	})

	t.Run("rejects non-positive duration", func(t *testing.T) {
		_, err := loan.NewLoan(uuid.New(), uuid.New(), nil, borrowedAt, 0)
		assert.ErrorIs(t, err, loan.ErrInvalidDuration)
	})
}

func TestReturn(t *testing.T) {
	t.Run("on time leaves no fine", func(t *testing.T) {
		l := newActiveLoan(t)
		require.NoError(t, l.Return(l.DueDate(), staffID, policy))

		assert.False(t, l.IsActive())
		assert.Zero(t, l.FineAmount())
		require.NotNil(t, l.ReturnedBy())
		assert.Equal(t, staffID, *l.ReturnedBy())
	})

	t.Run("five days late fines per policy", func(t *testing.T) {
		l := newActiveLoan(t)
		require.NoError(t, l.Return(l.DueDate().AddDate(0, 0, 5), staffID, policy))

		assert.Equal(t, int64(5000), l.FineAmount())
		assert.True(t, l.HasUnpaidFine())
	})

	t.Run("second return rejected", func(t *testing.T) {
		l := newActiveLoan(t)
		require.NoError(t, l.Return(l.DueDate(), staffID, policy))
		assert.ErrorIs(t, l.Return(l.DueDate(), staffID, policy), loan.ErrAlreadyReturned)
	})
}

func TestExtend(t *testing.T) {
	t.Run("pushes due date once", func(t *testing.T) {
		l := newActiveLoan(t)
		originalDue := l.DueDate()

		require.NoError(t, l.Extend(borrowedAt.AddDate(0, 0, 7), 14))
		assert.Equal(t, originalDue.AddDate(0, 0, 14), l.DueDate())
		assert.NotNil(t, l.ExtendedAt())
	})

	t.Run("not extendable cases", func(t *testing.T) {
		tests := []struct {
			name  string
			setup func(*loan.Loan)
			at    time.Time
		}{
			{
				name:  "already extended",
				setup: func(l *loan.Loan) { _ = l.Extend(borrowedAt.AddDate(0, 0, 1), 7) },
				at:    borrowedAt.AddDate(0, 0, 2),
			},
			{
				name:  "already returned",
				setup: func(l *loan.Loan) { _ = l.Return(borrowedAt.AddDate(0, 0, 3), staffID, policy) },
				at:    borrowedAt.AddDate(0, 0, 4),
			},
			{
				name:  "currently overdue",
				setup: func(*loan.Loan) {},
				at:    borrowedAt.AddDate(0, 0, 15),
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				l := newActiveLoan(t)
				tt.setup(l)
				assert.ErrorIs(t, l.Extend(tt.at, 14), loan.ErrNotExtendable)
			})
		}
	})
}

func TestPayFine(t *testing.T) {
	t.Run("marks paid", func(t *testing.T) {
		l := newActiveLoan(t)
		require.NoError(t, l.Return(l.DueDate().AddDate(0, 0, 3), staffID, policy))
		require.NoError(t, l.PayFine(l.DueDate().AddDate(0, 0, 4)))

		assert.True(t, l.FinePaid())
		assert.NotNil(t, l.FinePaidAt())
		assert.False(t, l.HasUnpaidFine())
	})

	t.Run("no fine to pay", func(t *testing.T) {
		l := newActiveLoan(t)
		assert.ErrorIs(t, l.PayFine(borrowedAt), loan.ErrNoFine)
	})

	t.Run("already paid", func(t *testing.T) {
		l := newActiveLoan(t)
		require.NoError(t, l.Return(l.DueDate().AddDate(0, 0, 3), staffID, policy))
		require.NoError(t, l.PayFine(l.DueDate().AddDate(0, 0, 4)))
		assert.ErrorIs(t, l.PayFine(l.DueDate().AddDate(0, 0, 5)), loan.ErrFineAlreadyPaid)
	})
}

func TestWaiveFine(t *testing.T) {
	t.Run("zeroes and settles", func(t *testing.T) {
		l := newActiveLoan(t)
		require.NoError(t, l.Return(l.DueDate().AddDate(0, 0, 3), staffID, policy))
		require.NoError(t, l.WaiveFine(l.DueDate().AddDate(0, 0, 4), "damaged label"))

		assert.Zero(t, l.FineAmount())
		assert.True(t, l.FinePaid())
		require.NotNil(t, l.FineWaivedReason())
		assert.Equal(t, "damaged label", *l.FineWaivedReason())
	})

	t.Run("nothing to waive", func(t *testing.T) {
		l := newActiveLoan(t)
		assert.ErrorIs(t, l.WaiveFine(borrowedAt, "x"), loan.ErrNoFine)
	})
}
