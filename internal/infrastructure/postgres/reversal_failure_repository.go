package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/vivero-api/internal/domain/entity"
	"github.com/jhoicas/vivero-api/internal/domain/repository"
)

var _ repository.ReversalFailureRepository = (*ReversalFailureRepo)(nil)

// ReversalFailureRepo devoluciones fallidas sobre PostgreSQL, pendientes de conciliación.
type ReversalFailureRepo struct {
	q Querier
}

// NewReversalFailureRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReversalFailureRepository(q Querier) *ReversalFailureRepo {
	return &ReversalFailureRepo{q: q}
}

// Create guarda una devolución fallida pendiente de conciliación.
func (r *ReversalFailureRepo) Create(ctx context.Context, f *entity.ReversalFailure) error {
	query := `
		INSERT INTO material_reversal_failures
			(id, org_id, batch_id, consumption_id, material_id, quantity, reason, error, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		f.ID, f.OrgID, f.BatchID, f.ConsumptionID, f.MaterialID, f.Quantity,
		nullIfEmpty(f.Reason), f.Error, nullIfEmpty(f.CreatedBy), f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create reversal failure: %w", err)
	}
	return nil
}

// ListByBatch lista las devoluciones fallidas de un lote.
func (r *ReversalFailureRepo) ListByBatch(ctx context.Context, orgID, batchID string) ([]*entity.ReversalFailure, error) {
	query := `
		SELECT id, org_id, batch_id, consumption_id, material_id, quantity, reason, error, created_by, created_at
		FROM material_reversal_failures
		WHERE org_id = $1 AND batch_id = $2
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, orgID, batchID)
	if err != nil {
		return nil, fmt.Errorf("list reversal failures: %w", err)
	}
	defer rows.Close()

	var list []*entity.ReversalFailure
	for rows.Next() {
		var f entity.ReversalFailure
		var reason, createdBy *string
		if err := rows.Scan(
			&f.ID, &f.OrgID, &f.BatchID, &f.ConsumptionID, &f.MaterialID, &f.Quantity,
			&reason, &f.Error, &createdBy, &f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan reversal failure: %w", err)
		}
		f.Reason = derefString(reason)
		f.CreatedBy = derefString(createdBy)
		list = append(list, &f)
	}
	return list, rows.Err()
}
