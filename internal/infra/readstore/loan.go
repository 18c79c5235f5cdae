package readstore

import (
	"context"
	"time"

	"library-circulation/internal/infra"
	"library-circulation/internal/infra/db"
	"library-circulation/internal/usecase/queries"

	"github.com/google/uuid"
)

type LoanReadStore struct {
	db db.DBTX
}

func NewLoanReadStore(dbtx db.DBTX) *LoanReadStore {
	return &LoanReadStore{db: dbtx}
}

const loanViewQuery = `
	SELECT l.id, l.user_id, l.item_id, ci.title, l.reservation_id,
	       l.borrowed_at, l.due_date, l.extended_at, l.returned_at,
	       l.fine_amount, l.fine_paid, l.fine_paid_at, l.created_at, l.updated_at
	FROM loans l
	JOIN catalog_items ci ON ci.id = l.item_id`

func (s *LoanReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.LoanView, error) {
	row := s.db.QueryRow(ctx, loanViewQuery+` WHERE l.id = $1`, id)
	v, err := scanLoanView(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find loan", err)
	}
	return v, nil
}

func (s *LoanReadStore) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*queries.LoanView, error) {
	return s.list(ctx, loanViewQuery+` WHERE l.user_id = $1 ORDER BY l.borrowed_at DESC`, userID)
}

func (s *LoanReadStore) FindOverdue(ctx context.Context, asOf time.Time) ([]*queries.LoanView, error) {
	return s.list(ctx, loanViewQuery+` WHERE l.returned_at IS NULL AND l.due_date < $1 ORDER BY l.due_date`, asOf)
}

func (s *LoanReadStore) list(ctx context.Context, query string, args ...any) ([]*queries.LoanView, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list loans", err)
	}
	defer rows.Close()

	var views []*queries.LoanView
	for rows.Next() {
		v, err := scanLoanView(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan loan", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate loans", err)
	}
	return views, nil
}

func scanLoanView(row rowScanner) (*queries.LoanView, error) {
	var v queries.LoanView
	err := row.Scan(
		&v.ID, &v.UserID, &v.ItemID, &v.ItemTitle, &v.ReservationID,
		&v.BorrowedAt, &v.DueDate, &v.ExtendedAt, &v.ReturnedAt,
		&v.FineAmount, &v.FinePaid, &v.FinePaidAt, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
