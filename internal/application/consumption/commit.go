package consumption

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/vivero-api/internal/domain"
	"github.com/jhoicas/vivero-api/internal/domain/entity"
	"github.com/jhoicas/vivero-api/internal/domain/repository"
	"github.com/jhoicas/vivero-api/pkg/logger"
)

// ConsumeInput entrada para descontar materiales de un lote producido.
// LocationID es opcional; AllowPartial=false exige stock completo (todo o nada).
type ConsumeInput struct {
	OrgID        string
	UserID       string
	BatchID      string
	BatchNumber  string
	SizeID       string
	ProducedQty  int
	LocationID   string
	AllowPartial bool
}

// ConsumptionResult resultado del consumo. Success=false solo en el aborto por faltante en modo estricto.
type ConsumptionResult struct {
	Success      bool
	Transactions []*entity.MaterialTransaction
	Shortages    []entity.Shortage
}

// ConsumptionUseCase orquesta calculador, política de faltantes y escritura en el ledger.
type ConsumptionUseCase struct {
	txRunner TxRunner
	recorder Recorder
	log      *logger.Logger
}

// NewConsumptionUseCase construye el caso de uso. recorder y log pueden ser nil.
func NewConsumptionUseCase(txRunner TxRunner, recorder Recorder, log *logger.Logger) *ConsumptionUseCase {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ConsumptionUseCase{txRunner: txRunner, recorder: recorder, log: log}
}

// ConsumeMaterialsForBatch calcula y registra una transacción consume por material.
// Todo corre en una transacción con las filas de stock bloqueadas (SELECT FOR UPDATE),
// así dos lotes concurrentes no pueden aprobar el mismo stock.
func (uc *ConsumptionUseCase) ConsumeMaterialsForBatch(ctx context.Context, in ConsumeInput) (*ConsumptionResult, error) {
	if !validIDs(in.OrgID, in.UserID, in.BatchID, in.SizeID) || in.ProducedQty <= 0 {
		return nil, domain.ErrInvalidInput
	}
	if strings.TrimSpace(in.BatchNumber) == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.LocationID != "" && !validIDs(in.LocationID) {
		return nil, domain.ErrInvalidInput
	}

	var result *ConsumptionResult
	now := time.Now().UTC()
	err := uc.txRunner.Run(ctx, func(
		ruleRepo repository.ConsumptionRuleRepository,
		materialRepo repository.MaterialRepository,
		stockRepo repository.StockRepository,
		txRepo repository.MaterialTransactionRepository,
	) error {
		lines, err := calculate(ctx, ruleRepo, materialRepo, stockRepo.GetForUpdate, in.OrgID, in.SizeID, in.ProducedQty)
		if err != nil {
			return err
		}

		res := &ConsumptionResult{
			Transactions: []*entity.MaterialTransaction{},
			Shortages:    []entity.Shortage{},
		}
		consumable := make([]entity.ConsumptionLine, 0, len(lines))
		for _, l := range lines {
			if !l.QuantityRequired.IsPositive() {
				continue
			}
			consumable = append(consumable, l)
			if l.IsShortage {
				res.Shortages = append(res.Shortages, l.Shortage())
			}
		}

		if len(res.Shortages) > 0 && !in.AllowPartial {
			res.Success = false
			result = res
			return nil
		}

		for _, l := range consumable {
			qty := l.QuantityRequired
			if l.IsShortage {
				qty = decimal.Min(qty, decimal.Max(l.QuantityAvailable, decimal.Zero))
			}
			if !qty.IsPositive() {
				continue
			}
			mt := &entity.MaterialTransaction{
				ID:             uuid.New().String(),
				OrgID:          in.OrgID,
				MaterialID:     l.MaterialID,
				Quantity:       qty.Neg(),
				Type:           entity.TransactionTypeConsume,
				BatchID:        in.BatchID,
				BatchNumber:    in.BatchNumber,
				UOM:            l.UOM,
				FromLocationID: in.LocationID,
				CreatedBy:      in.UserID,
				CreatedAt:      now,
			}
			if err := txRepo.Create(ctx, mt); err != nil {
				return domain.NewStorageError("insertConsumeTransaction", err)
			}
			res.Transactions = append(res.Transactions, mt)
		}
		res.Success = true
		result = res
		return nil
	})
	if err != nil {
		uc.recorder.ConsumptionAttempt(OutcomeFailed, 0, 0)
		return nil, liftError("consumeMaterialsForBatch", err)
	}

	outcome := OutcomeCommitted
	switch {
	case !result.Success:
		outcome = OutcomeRejected
	case len(result.Shortages) > 0:
		outcome = OutcomePartial
	}
	uc.recorder.ConsumptionAttempt(outcome, len(result.Transactions), len(result.Shortages))
	uc.log.Debug().
		Str("org_id", in.OrgID).
		Str("batch_id", in.BatchID).
		Str("outcome", outcome).
		Int("transactions", len(result.Transactions)).
		Int("shortages", len(result.Shortages)).
		Msg("consumo de materiales")
	return result, nil
}
