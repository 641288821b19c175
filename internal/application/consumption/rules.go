package consumption

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/vivero-api/internal/domain"
	"github.com/jhoicas/vivero-api/internal/domain/entity"
	"github.com/jhoicas/vivero-api/internal/domain/repository"
)

// RuleInput regla a reemplazar para un par (material, tamaño).
type RuleInput struct {
	MaterialID      string
	SizeID          string
	QuantityPerUnit decimal.Decimal
}

// RuleUseCase almacén de reglas de consumo por tamaño.
type RuleUseCase struct {
	ruleRepo repository.ConsumptionRuleRepository
	txRunner TxRunner
}

// NewRuleUseCase construye el caso de uso.
func NewRuleUseCase(ruleRepo repository.ConsumptionRuleRepository, txRunner TxRunner) *RuleUseCase {
	return &RuleUseCase{ruleRepo: ruleRepo, txRunner: txRunner}
}

// GetConsumptionRules devuelve las reglas del tamaño unidas con los datos del material.
func (uc *RuleUseCase) GetConsumptionRules(ctx context.Context, orgID, sizeID string) ([]*entity.ConsumptionRule, error) {
	if !validIDs(orgID, sizeID) {
		return nil, domain.ErrInvalidInput
	}
	rules, err := uc.ruleRepo.ListBySize(ctx, orgID, sizeID)
	if err != nil {
		return nil, domain.NewStorageError("getConsumptionRules", err)
	}
	return latestRules(rules), nil
}

// latestRules deja una regla por material: la de UpdatedAt más reciente (empate: la última leída).
// Conserva la posición de la primera aparición del material.
func latestRules(rules []*entity.ConsumptionRule) []*entity.ConsumptionRule {
	out := make([]*entity.ConsumptionRule, 0, len(rules))
	pos := make(map[string]int, len(rules))
	for _, r := range rules {
		i, seen := pos[r.MaterialID]
		if !seen {
			pos[r.MaterialID] = len(out)
			out = append(out, r)
			continue
		}
		if !r.UpdatedAt.Before(out[i].UpdatedAt) {
			out[i] = r
		}
	}
	return out
}

// UpsertConsumptionRules reemplaza, par por par, la regla existente por la nueva.
// Todo ocurre en una sola transacción: si un insert falla se revierten también los deletes.
// Una lista vacía no toca la BD.
func (uc *RuleUseCase) UpsertConsumptionRules(ctx context.Context, orgID, userID string, rules []RuleInput) error {
	if len(rules) == 0 {
		return nil
	}
	if !validIDs(orgID, userID) {
		return domain.ErrInvalidInput
	}
	for _, r := range rules {
		if !validIDs(r.MaterialID, r.SizeID) || r.QuantityPerUnit.IsNegative() {
			return domain.ErrInvalidInput
		}
	}

	now := time.Now().UTC()
	err := uc.txRunner.Run(ctx, func(
		ruleRepo repository.ConsumptionRuleRepository,
		_ repository.MaterialRepository,
		_ repository.StockRepository,
		_ repository.MaterialTransactionRepository,
	) error {
		for _, r := range rules {
			if err := ruleRepo.DeleteByMaterialAndSize(ctx, orgID, r.MaterialID, r.SizeID); err != nil {
				return err
			}
			rule := &entity.ConsumptionRule{
				ID:              uuid.New().String(),
				OrgID:           orgID,
				MaterialID:      r.MaterialID,
				SizeID:          r.SizeID,
				QuantityPerUnit: r.QuantityPerUnit,
				CreatedBy:       userID,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := ruleRepo.Create(ctx, rule); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.NewStorageError("upsertConsumptionRules", err)
	}
	return nil
}
