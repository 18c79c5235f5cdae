package queries

import (
	"context"
	"time"

	"library-circulation/internal/domain/fine"
	"library-circulation/internal/infra"
	"library-circulation/internal/pkg/config"
	"library-circulation/internal/usecase/shared"

	"github.com/google/uuid"
)

type LoanQueries interface {
	GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*LoanView, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*LoanView, error)
	// ListOverdue: staff-side report of active loans past their due date
	ListOverdue(ctx context.Context, actor shared.Actor, asOf time.Time) ([]*LoanView, error)
	// PreviewFine computes the fine a return at asOf would incur under the
	// configured policy, without touching any loan.
	PreviewFine(dueDate, asOf time.Time) *FinePreview
}

type LoanReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*LoanView, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*LoanView, error)
	FindOverdue(ctx context.Context, asOf time.Time) ([]*LoanView, error)
}

type loanQueriesImpl struct {
	store  LoanReadStore
	policy config.CirculationConfig
}

func NewLoanQueries(store LoanReadStore, cfg config.Config) LoanQueries {
	return &loanQueriesImpl{store: store, policy: cfg.Circulation}
}

func (q *loanQueriesImpl) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*LoanView, error) {
	view, err := q.store.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	if view.UserID != actor.ID && !actor.IsStaff() {
		return nil, ErrForbidden
	}
	return view, nil
}

func (q *loanQueriesImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*LoanView, error) {
	return q.store.FindByUserID(ctx, userID)
}

func (q *loanQueriesImpl) ListOverdue(ctx context.Context, actor shared.Actor, asOf time.Time) ([]*LoanView, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	return q.store.FindOverdue(ctx, asOf)
}

func (q *loanQueriesImpl) PreviewFine(dueDate, asOf time.Time) *FinePreview {
	policy := fine.Policy{
		RatePerDay:      q.policy.FineRatePerDay,
		GracePeriodDays: q.policy.FineGracePeriodDays,
		MaxFine:         q.policy.MaxFineAmount,
	}
	return &FinePreview{
		DueDate:     dueDate,
		AsOf:        asOf,
		Overdue:     fine.IsOverdue(dueDate, asOf),
		OverdueDays: fine.OverdueDays(dueDate, asOf),
		Amount:      policy.Compute(dueDate, asOf),
	}
}
