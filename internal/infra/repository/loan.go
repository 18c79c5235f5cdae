package repository

import (
	"context"
	"time"

	"library-circulation/internal/domain/loan"
	"library-circulation/internal/infra"
	"library-circulation/internal/infra/db"

	"github.com/google/uuid"
)

type LoanRepository struct {
	db db.DBTX
}

func NewLoanRepository(dbtx db.DBTX) *LoanRepository {
	return &LoanRepository{db: dbtx}
}

func (r *LoanRepository) Create(ctx context.Context, l *loan.Loan) error {
	const q = `
		INSERT INTO loans (
			id, user_id, item_id, reservation_id, borrowed_at, due_date,
			extended_at, returned_at, returned_by,
			fine_amount, fine_paid, fine_paid_at, fine_waived_reason,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())`
	_, err := r.db.Exec(ctx, q,
		l.ID(), l.UserID(), l.ItemID(), l.ReservationID(), l.BorrowedAt(), l.DueDate(),
		l.ExtendedAt(), l.ReturnedAt(), l.ReturnedBy(),
		l.FineAmount(), l.FinePaid(), l.FinePaidAt(), l.FineWaivedReason(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create loan", err)
	}
	return nil
}

func (r *LoanRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*loan.Loan, error) {
	const q = `
		SELECT id, user_id, item_id, reservation_id, borrowed_at, due_date,
		       extended_at, returned_at, returned_by,
		       fine_amount, fine_paid, fine_paid_at, fine_waived_reason,
		       created_at, updated_at
		FROM loans
		WHERE id = $1
		FOR UPDATE`
	var (
		loanID, userID, itemID uuid.UUID
		reservationID          *uuid.UUID
		borrowedAt, dueDate    time.Time
		extendedAt, returnedAt *time.Time
		returnedBy             *uuid.UUID
		fineAmount             int64
		finePaid               bool
		finePaidAt             *time.Time
		fineWaivedReason       *string
		createdAt, updatedAt   time.Time
	)
	err := r.db.QueryRow(ctx, q, id).Scan(
		&loanID, &userID, &itemID, &reservationID, &borrowedAt, &dueDate,
		&extendedAt, &returnedAt, &returnedBy,
		&fineAmount, &finePaid, &finePaidAt, &fineWaivedReason,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find loan", err)
	}
	return loan.ReconstructLoan(
		loanID, userID, itemID,
		reservationID,
		borrowedAt, dueDate,
		extendedAt, returnedAt,
		returnedBy,
		fineAmount, finePaid, finePaidAt, fineWaivedReason,
		createdAt, updatedAt,
	), nil
}

func (r *LoanRepository) Update(ctx context.Context, l *loan.Loan) error {
	const q = `
		UPDATE loans
		SET due_date = $2, extended_at = $3, returned_at = $4, returned_by = $5,
		    fine_amount = $6, fine_paid = $7, fine_paid_at = $8, fine_waived_reason = $9,
		    updated_at = now()
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, q,
		l.ID(), l.DueDate(), l.ExtendedAt(), l.ReturnedAt(), l.ReturnedBy(),
		l.FineAmount(), l.FinePaid(), l.FinePaidAt(), l.FineWaivedReason(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update loan", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("loan not found", nil, infra.KindNotFound)
	}
	return nil
}
