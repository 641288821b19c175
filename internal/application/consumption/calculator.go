package consumption

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/vivero-api/internal/domain"
	domainconsumption "github.com/jhoicas/vivero-api/internal/domain/consumption"
	"github.com/jhoicas/vivero-api/internal/domain/entity"
	"github.com/jhoicas/vivero-api/internal/domain/repository"
)

// stockReader lee existencias de un material (Get o GetForUpdate).
type stockReader func(ctx context.Context, orgID, materialID string) (*entity.StockRecord, error)

// Calculator motor de reglas: cuánto material requiere un lote y si alcanza el stock.
type Calculator struct {
	ruleRepo     repository.ConsumptionRuleRepository
	materialRepo repository.MaterialRepository
	stockRepo    repository.StockRepository
}

// NewCalculator construye el calculador sobre repositorios de solo lectura.
func NewCalculator(
	ruleRepo repository.ConsumptionRuleRepository,
	materialRepo repository.MaterialRepository,
	stockRepo repository.StockRepository,
) *Calculator {
	return &Calculator{ruleRepo: ruleRepo, materialRepo: materialRepo, stockRepo: stockRepo}
}

// PreviewConsumption calcula las líneas de consumo sin escribir nada.
// Es idempotente: misma entrada y mismo stock producen la misma salida.
func (c *Calculator) PreviewConsumption(ctx context.Context, orgID, sizeID string, producedQty int) ([]entity.ConsumptionLine, error) {
	if !validIDs(orgID, sizeID) || producedQty <= 0 {
		return nil, domain.ErrInvalidInput
	}
	return calculate(ctx, c.ruleRepo, c.materialRepo, c.stockRepo.Get, orgID, sizeID, producedQty)
}

// calculate arma la unión catálogo + reglas, aplica la fórmula y marca faltantes.
// El stock se lee en orden de material_id para que los bloqueos FOR UPDATE no se crucen.
func calculate(
	ctx context.Context,
	ruleRepo repository.ConsumptionRuleRepository,
	materialRepo repository.MaterialRepository,
	readStock stockReader,
	orgID, sizeID string,
	producedQty int,
) ([]entity.ConsumptionLine, error) {
	materials, err := materialRepo.ListBySize(ctx, orgID, sizeID)
	if err != nil {
		return nil, domain.NewStorageError("getMaterialsForSize", err)
	}
	rules, err := ruleRepo.ListBySize(ctx, orgID, sizeID)
	if err != nil {
		return nil, domain.NewStorageError("getConsumptionRules", err)
	}

	rules = latestRules(rules)
	ruleByMaterial := make(map[string]*entity.ConsumptionRule, len(rules))
	for _, r := range rules {
		ruleByMaterial[r.MaterialID] = r
	}

	seen := make(map[string]struct{}, len(materials)+len(rules))
	lines := make([]entity.ConsumptionLine, 0, len(materials)+len(rules))
	for _, m := range materials {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		lines = append(lines, entity.ConsumptionLine{
			MaterialID:      m.ID,
			MaterialName:    m.Name,
			PartNumber:      m.PartNumber,
			UOM:             m.BaseUOM,
			ConsumptionType: m.ConsumptionType(),
		})
	}
	// Materiales que solo aparecen por una regla.
	for _, r := range rules {
		if _, dup := seen[r.MaterialID]; dup {
			continue
		}
		seen[r.MaterialID] = struct{}{}
		ct := r.ConsumptionType
		if ct == "" {
			ct = entity.ConsumptionPerUnit
		}
		lines = append(lines, entity.ConsumptionLine{
			MaterialID:      r.MaterialID,
			MaterialName:    r.MaterialName,
			PartNumber:      r.MaterialPartNumber,
			UOM:             r.MaterialUOM,
			ConsumptionType: ct,
		})
	}

	pending := make([]int, 0, len(lines))
	for i := range lines {
		var rate *decimal.Decimal
		if r, ok := ruleByMaterial[lines[i].MaterialID]; ok {
			q := r.QuantityPerUnit
			rate = &q
			lines[i].HasRule = true
			lines[i].QuantityPerUnit = q
		}
		required, err := domainconsumption.QuantityRequired(lines[i].ConsumptionType, rate, producedQty)
		if err != nil {
			return nil, err
		}
		lines[i].QuantityRequired = required
		if required.IsPositive() {
			pending = append(pending, i)
		}
	}

	sort.Slice(pending, func(a, b int) bool {
		return lines[pending[a]].MaterialID < lines[pending[b]].MaterialID
	})
	for _, i := range pending {
		stock, err := readStock(ctx, orgID, lines[i].MaterialID)
		if err != nil {
			return nil, domain.NewStorageError("getAvailableStock", err)
		}
		lines[i].QuantityAvailable = stock.Available()
		lines[i].IsShortage = lines[i].QuantityAvailable.LessThan(lines[i].QuantityRequired)
	}
	return lines, nil
}
