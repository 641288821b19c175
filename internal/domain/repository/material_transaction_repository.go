package repository

import (
	"context"

	"github.com/jhoicas/vivero-api/internal/domain/entity"
)

// MaterialTransactionRepository puerto del ledger de materiales (solo inserción y lectura).
type MaterialTransactionRepository interface {
	Create(ctx context.Context, tx *entity.MaterialTransaction) error
	// ListByBatch lista las transacciones del lote; txType vacío devuelve todos los tipos.
	ListByBatch(ctx context.Context, orgID, batchID, txType string) ([]*entity.MaterialTransaction, error)
}

// ReversalFailureRepository guarda devoluciones fallidas para conciliación manual.
type ReversalFailureRepository interface {
	Create(ctx context.Context, f *entity.ReversalFailure) error
	// ListByBatch devuelve las fallas del lote, de la más antigua a la más reciente.
	ListByBatch(ctx context.Context, orgID, batchID string) ([]*entity.ReversalFailure, error)
}
