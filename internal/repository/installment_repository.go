package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fleetcab/billing-engine/internal/domain"
	customError "github.com/fleetcab/billing-engine/pkg/errors"
)

const installmentColumns = `
	id, installment_id, obligation_id, seq, week_start, week_end,
	principal, interest, total_due, status, ledger_posting_ref, posted_on, created_at
`

type installmentRepository struct {
	db *sqlx.DB
}

func NewInstallmentRepository(db *sqlx.DB) InstallmentRepository {
	return &installmentRepository{db: db}
}

func (r *installmentRepository) BeginPosting(ctx context.Context) (PostingTx, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &postingTx{tx: tx}, nil
}

func (r *installmentRepository) GetByInstallmentID(ctx context.Context, installmentID string) (*domain.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE installment_id = $1
	`

	var installment domain.Installment
	if err := r.db.GetContext(ctx, &installment, query, installmentID); err != nil {
		return nil, err
	}

	return &installment, nil
}

func (r *installmentRepository) ListByObligation(ctx context.Context, obligationID string) ([]*domain.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE obligation_id = $1
		ORDER BY seq
	`

	var installments []*domain.Installment
	if err := r.db.SelectContext(ctx, &installments, query, obligationID); err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *installmentRepository) ListDue(ctx context.Context, asOf time.Time) ([]*domain.Installment, error) {
	// Ordering keeps one obligation's installments in week order within
	// the batch; cross-obligation order is not guaranteed.
	query := `
		SELECT i.id, i.installment_id, i.obligation_id, i.seq, i.week_start, i.week_end,
			i.principal, i.interest, i.total_due, i.status, i.ledger_posting_ref, i.posted_on, i.created_at
		FROM installments i
		JOIN obligations o ON o.obligation_id = i.obligation_id
		WHERE i.status = $1 AND i.week_start <= $2 AND o.status = $3
		ORDER BY i.obligation_id, i.week_start
	`

	var installments []*domain.Installment
	err := r.db.SelectContext(ctx, &installments, query,
		domain.InstallmentStatusScheduled, asOf, domain.ObligationStatusOpen)
	if err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *installmentRepository) UpdateStatusCAS(ctx context.Context, installmentID, from, to string) (bool, error) {
	query := `
		UPDATE installments
		SET status = $3
		WHERE installment_id = $1 AND status = $2
	`

	result, err := r.db.ExecContext(ctx, query, installmentID, from, to)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *installmentRepository) CountNotPaid(ctx context.Context, obligationID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM installments
		WHERE obligation_id = $1 AND status <> $2
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, obligationID, domain.InstallmentStatusPaid); err != nil {
		return 0, err
	}

	return count, nil
}

type postingTx struct {
	tx *sqlx.Tx
}

func (t *postingTx) GetForUpdate(ctx context.Context, installmentID string) (*domain.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE installment_id = $1
		FOR UPDATE
	`

	var installment domain.Installment
	if err := t.tx.GetContext(ctx, &installment, query, installmentID); err != nil {
		return nil, err
	}

	return &installment, nil
}

func (t *postingTx) MarkPosted(ctx context.Context, installmentID, postingRef string, postedOn time.Time) (bool, error) {
	// The status predicate plus the unique index on ledger_posting_ref
	// make a second posting structurally impossible.
	query := `
		UPDATE installments
		SET status = $3, ledger_posting_ref = $4, posted_on = $5
		WHERE installment_id = $1 AND status = $2
	`

	result, err := t.tx.ExecContext(ctx, query,
		installmentID, domain.InstallmentStatusScheduled,
		domain.InstallmentStatusPosted, postingRef, postedOn)
	if err != nil {
		if isUniqueViolation(err) {
			return false, customError.WrapDuplicatePosting(installmentID)
		}
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (t *postingTx) Commit() error {
	return t.tx.Commit()
}

func (t *postingTx) Rollback() error {
	return t.tx.Rollback()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
