package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fleetcab/billing-engine/internal/domain"
)

type obligationRepository struct {
	db *sqlx.DB
}

func NewObligationRepository(db *sqlx.DB) ObligationRepository {
	return &obligationRepository{db: db}
}

func (r *obligationRepository) CreateWithSchedule(ctx context.Context, obligation *domain.Obligation, installments []*domain.Installment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	obligationQuery := `
		INSERT INTO obligations (id, obligation_id, kind, principal, interest_rate, start_week, originated_on,
			driver_id, lease_id, vehicle_id, medallion_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = tx.ExecContext(ctx, obligationQuery,
		obligation.ID,
		obligation.ObligationID,
		obligation.Kind,
		obligation.Principal,
		obligation.InterestRate,
		obligation.StartWeek,
		obligation.OriginatedOn,
		obligation.DriverID,
		obligation.LeaseID,
		obligation.VehicleID,
		obligation.MedallionID,
		obligation.Status,
		obligation.CreatedAt,
		obligation.UpdatedAt,
	)
	if err != nil {
		return err
	}

	installmentQuery := `
		INSERT INTO installments (id, installment_id, obligation_id, seq, week_start, week_end,
			principal, interest, total_due, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for _, installment := range installments {
		_, err = tx.ExecContext(ctx, installmentQuery,
			installment.ID,
			installment.InstallmentID,
			installment.ObligationID,
			installment.Seq,
			installment.WeekStart,
			installment.WeekEnd,
			installment.Principal,
			installment.Interest,
			installment.TotalDue,
			installment.Status,
			installment.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *obligationRepository) GetByObligationID(ctx context.Context, obligationID string) (*domain.Obligation, error) {
	query := `
		SELECT id, obligation_id, kind, principal, interest_rate, start_week, originated_on,
			driver_id, lease_id, vehicle_id, medallion_id, status, created_at, updated_at
		FROM obligations
		WHERE obligation_id = $1
	`

	var obligation domain.Obligation
	if err := r.db.GetContext(ctx, &obligation, query, obligationID); err != nil {
		return nil, err
	}

	return &obligation, nil
}

func (r *obligationRepository) NextSeq(ctx context.Context, kind string, year int) (int, error) {
	query := `
		INSERT INTO obligation_sequences (kind, year, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (kind, year) DO UPDATE SET seq = obligation_sequences.seq + 1
		RETURNING seq
	`

	var seq int
	if err := r.db.GetContext(ctx, &seq, query, kind, year); err != nil {
		return 0, err
	}

	return seq, nil
}

func (r *obligationRepository) UpdateStatusCAS(ctx context.Context, obligationID, from, to string) (bool, error) {
	query := `
		UPDATE obligations
		SET status = $3, updated_at = $4
		WHERE obligation_id = $1 AND status = $2
	`

	result, err := r.db.ExecContext(ctx, query, obligationID, from, to, time.Now())
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}
