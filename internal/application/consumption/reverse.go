package consumption

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/vivero-api/internal/domain"
	"github.com/jhoicas/vivero-api/internal/domain/entity"
	"github.com/jhoicas/vivero-api/internal/domain/repository"
	"github.com/jhoicas/vivero-api/pkg/logger"
)

// FailedReversal consumo cuya devolución no se pudo registrar.
type FailedReversal struct {
	Consumption *entity.MaterialTransaction
	Err         error
}

// ReversalResult resultado explícito de la reversa: devoluciones creadas, filas fallidas
// y consumos que ya tenían devolución de una llamada anterior.
type ReversalResult struct {
	Reversed        []*entity.MaterialTransaction
	Failed          []FailedReversal
	AlreadyReversed []*entity.MaterialTransaction
}

// Complete indica si todas las filas de consumo quedaron revertidas.
func (r *ReversalResult) Complete() bool { return len(r.Failed) == 0 }

// ReversalUseCase escribe devoluciones compensatorias para los consumos de un lote.
type ReversalUseCase struct {
	txRepo      repository.MaterialTransactionRepository
	failureRepo repository.ReversalFailureRepository
	recorder    Recorder
	log         *logger.Logger
}

// NewReversalUseCase construye el caso de uso. failureRepo, recorder y log pueden ser nil.
func NewReversalUseCase(
	txRepo repository.MaterialTransactionRepository,
	failureRepo repository.ReversalFailureRepository,
	recorder Recorder,
	log *logger.Logger,
) *ReversalUseCase {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ReversalUseCase{txRepo: txRepo, failureRepo: failureRepo, recorder: recorder, log: log}
}

// ReverseConsumption inserta una transacción return (cantidad positiva) por cada consumo del lote
// que aún no tenga devolución enlazada, así un reintento solo procesa las filas que fallaron.
// Cada insert es independiente: si uno falla se registra en Failed y se sigue con el resto.
// Solo el fallo de la lectura inicial devuelve error.
func (uc *ReversalUseCase) ReverseConsumption(ctx context.Context, orgID, userID, batchID, reason string) (*ReversalResult, error) {
	if !validIDs(orgID, userID, batchID) {
		return nil, domain.ErrInvalidInput
	}
	history, err := uc.txRepo.ListByBatch(ctx, orgID, batchID, "")
	if err != nil {
		return nil, domain.NewStorageError("getBatchConsumption", err)
	}
	returned := make(map[string]struct{})
	for _, t := range history {
		if t.Type == entity.TransactionTypeReturn && t.ReversesID != "" {
			returned[t.ReversesID] = struct{}{}
		}
	}

	result := &ReversalResult{
		Reversed:        []*entity.MaterialTransaction{},
		Failed:          []FailedReversal{},
		AlreadyReversed: []*entity.MaterialTransaction{},
	}
	for _, orig := range history {
		if orig.Type != entity.TransactionTypeConsume {
			continue
		}
		if _, done := returned[orig.ID]; done {
			result.AlreadyReversed = append(result.AlreadyReversed, orig)
			continue
		}
		ret := &entity.MaterialTransaction{
			ID:             uuid.New().String(),
			OrgID:          orgID,
			MaterialID:     orig.MaterialID,
			Quantity:       orig.Quantity.Abs(),
			Type:           entity.TransactionTypeReturn,
			BatchID:        orig.BatchID,
			BatchNumber:    orig.BatchNumber,
			UOM:            orig.UOM,
			FromLocationID: orig.FromLocationID,
			Reason:         reason,
			CreatedBy:      userID,
			CreatedAt:      time.Now().UTC(),
			ReversesID:     orig.ID,
		}
		if err := uc.txRepo.Create(ctx, ret); err != nil {
			uc.recorder.ReversalRow(false)
			uc.log.Error().Err(err).
				Str("org_id", orgID).
				Str("batch_id", batchID).
				Str("consumption_id", orig.ID).
				Str("material_id", orig.MaterialID).
				Msg("no se pudo registrar la devolución; se continúa con el resto del lote")
			result.Failed = append(result.Failed, FailedReversal{Consumption: orig, Err: err})
			uc.persistFailure(ctx, orgID, userID, reason, orig, err)
			continue
		}
		uc.recorder.ReversalRow(true)
		result.Reversed = append(result.Reversed, ret)
	}
	return result, nil
}

// persistFailure guarda la fila fallida con su motivo para reintento manual (best-effort).
func (uc *ReversalUseCase) persistFailure(ctx context.Context, orgID, userID, reason string, orig *entity.MaterialTransaction, cause error) {
	if uc.failureRepo == nil {
		return
	}
	f := &entity.ReversalFailure{
		ID:            uuid.New().String(),
		OrgID:         orgID,
		BatchID:       orig.BatchID,
		ConsumptionID: orig.ID,
		MaterialID:    orig.MaterialID,
		Quantity:      orig.Quantity.Abs(),
		Reason:        reason,
		Error:         cause.Error(),
		CreatedBy:     userID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := uc.failureRepo.Create(ctx, f); err != nil {
		uc.log.Warn().Err(err).
			Str("batch_id", orig.BatchID).
			Str("consumption_id", orig.ID).
			Msg("no se pudo guardar la devolución fallida")
	}
}

// ListReversalFailures devuelve las devoluciones fallidas del lote pendientes de conciliación.
func (uc *ReversalUseCase) ListReversalFailures(ctx context.Context, orgID, batchID string) ([]*entity.ReversalFailure, error) {
	if !validIDs(orgID, batchID) {
		return nil, domain.ErrInvalidInput
	}
	if uc.failureRepo == nil {
		return []*entity.ReversalFailure{}, nil
	}
	list, err := uc.failureRepo.ListByBatch(ctx, orgID, batchID)
	if err != nil {
		return nil, domain.NewStorageError("getReversalFailures", err)
	}
	if list == nil {
		list = []*entity.ReversalFailure{}
	}
	return list, nil
}
