package consumption

import (
	"context"

	"github.com/jhoicas/vivero-api/internal/domain"
	"github.com/jhoicas/vivero-api/internal/domain/entity"
	"github.com/jhoicas/vivero-api/internal/domain/repository"
)

// LedgerUseCase lectura del ledger de un lote (consumos y devoluciones).
type LedgerUseCase struct {
	txRepo repository.MaterialTransactionRepository
}

func NewLedgerUseCase(txRepo repository.MaterialTransactionRepository) *LedgerUseCase {
	return &LedgerUseCase{txRepo: txRepo}
}

// ListBatchTransactions devuelve todas las transacciones del lote en orden de creación.
func (uc *LedgerUseCase) ListBatchTransactions(ctx context.Context, orgID, batchID string) ([]*entity.MaterialTransaction, error) {
	if !validIDs(orgID, batchID) {
		return nil, domain.ErrInvalidInput
	}
	list, err := uc.txRepo.ListByBatch(ctx, orgID, batchID, "")
	if err != nil {
		return nil, domain.NewStorageError("listBatchTransactions", err)
	}
	if list == nil {
		list = []*entity.MaterialTransaction{}
	}
	return list, nil
}
