package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/vivero-api/internal/domain/entity"
	"github.com/jhoicas/vivero-api/internal/domain/repository"
)

var _ repository.MaterialTransactionRepository = (*MaterialTransactionRepo)(nil)

// MaterialTransactionRepo ledger de materiales sobre PostgreSQL (usable con pool o tx).
// Solo INSERT y SELECT: la tabla rechaza UPDATE y DELETE por trigger.
type MaterialTransactionRepo struct {
	q Querier
}

// NewMaterialTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMaterialTransactionRepository(q Querier) *MaterialTransactionRepo {
	return &MaterialTransactionRepo{q: q}
}

// Create persiste una transacción del ledger.
func (r *MaterialTransactionRepo) Create(ctx context.Context, tx *entity.MaterialTransaction) error {
	query := `
		INSERT INTO material_transactions
			(id, org_id, material_id, quantity, transaction_type, batch_id, batch_number, uom,
			 from_location_id, reason, created_by, created_at, reverses_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		tx.ID, tx.OrgID, tx.MaterialID, tx.Quantity, tx.Type, nullIfEmpty(tx.BatchID), tx.BatchNumber, tx.UOM,
		nullIfEmpty(tx.FromLocationID), nullIfEmpty(tx.Reason), nullIfEmpty(tx.CreatedBy), tx.CreatedAt,
		nullIfEmpty(tx.ReversesID),
	)
	if err != nil {
		return fmt.Errorf("create material transaction: %w", err)
	}
	return nil
}

// ListByBatch lista las transacciones de un lote en orden de creación.
func (r *MaterialTransactionRepo) ListByBatch(ctx context.Context, orgID, batchID, txType string) ([]*entity.MaterialTransaction, error) {
	query := `
		SELECT id, org_id, material_id, quantity, transaction_type, batch_id, batch_number, uom,
		       from_location_id, reason, created_by, created_at, reverses_id
		FROM material_transactions
		WHERE org_id = $1 AND batch_id = $2`
	args := []any{orgID, batchID}
	if txType != "" {
		query += " AND transaction_type = $3"
		args = append(args, txType)
	}
	query += " ORDER BY created_at, id"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions by batch: %w", err)
	}
	defer rows.Close()

	var list []*entity.MaterialTransaction
	for rows.Next() {
		var t entity.MaterialTransaction
		var batch, location, reason, createdBy, reverses *string
		if err := rows.Scan(
			&t.ID, &t.OrgID, &t.MaterialID, &t.Quantity, &t.Type, &batch, &t.BatchNumber, &t.UOM,
			&location, &reason, &createdBy, &t.CreatedAt, &reverses,
		); err != nil {
			return nil, fmt.Errorf("scan material transaction: %w", err)
		}
		t.BatchID = derefString(batch)
		t.FromLocationID = derefString(location)
		t.Reason = derefString(reason)
		t.CreatedBy = derefString(createdBy)
		t.ReversesID = derefString(reverses)
		list = append(list, &t)
	}
	return list, rows.Err()
}
