package repository

import (
	"context"

	"github.com/jhoicas/vivero-api/internal/domain/entity"
)

// ConsumptionRuleRepository define el puerto de persistencia para reglas de consumo (DIP).
type ConsumptionRuleRepository interface {
	// ListBySize devuelve las reglas del tamaño con los datos del material ya unidos.
	// Un material inexistente no es error: se devuelve con nombre entity.UnknownMaterialName.
	ListBySize(ctx context.Context, orgID, sizeID string) ([]*entity.ConsumptionRule, error)
	DeleteByMaterialAndSize(ctx context.Context, orgID, materialID, sizeID string) error
	Create(ctx context.Context, rule *entity.ConsumptionRule) error
}
