package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/vivero-api/internal/domain/entity"
	"github.com/jhoicas/vivero-api/internal/domain/repository"
)

var _ repository.ConsumptionRuleRepository = (*ConsumptionRuleRepo)(nil)

// ConsumptionRuleRepo implementación sobre PostgreSQL (usable con pool o tx).
type ConsumptionRuleRepo struct {
	q Querier
}

// NewConsumptionRuleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewConsumptionRuleRepository(q Querier) *ConsumptionRuleRepo {
	return &ConsumptionRuleRepo{q: q}
}

// ListBySize lista las reglas del tamaño con LEFT JOIN al catálogo: un material borrado
// no rompe la lectura, se devuelve con nombre "Unknown" y fórmula per_unit.
func (r *ConsumptionRuleRepo) ListBySize(ctx context.Context, orgID, sizeID string) ([]*entity.ConsumptionRule, error) {
	query := `
		SELECT r.id, r.org_id, r.material_id, r.size_id, r.quantity_per_unit, r.created_by, r.created_at, r.updated_at,
		       COALESCE(m.name, $3::text), COALESCE(m.part_number, ''), COALESCE(m.base_uom, ''),
		       COALESCE(c.consumption_type, $4::text)
		FROM material_consumption_rules r
		LEFT JOIN materials m ON m.id = r.material_id AND m.org_id = r.org_id
		LEFT JOIN material_categories c ON c.id = m.category_id
		WHERE r.org_id = $1 AND r.size_id = $2
		ORDER BY COALESCE(m.name, $3::text), r.created_at, r.id`
	rows, err := r.q.Query(ctx, query, orgID, sizeID, entity.UnknownMaterialName, string(entity.ConsumptionPerUnit))
	if err != nil {
		return nil, fmt.Errorf("list consumption rules: %w", err)
	}
	defer rows.Close()

	var list []*entity.ConsumptionRule
	for rows.Next() {
		var c entity.ConsumptionRule
		var createdBy *string
		var consumptionType string
		if err := rows.Scan(
			&c.ID, &c.OrgID, &c.MaterialID, &c.SizeID, &c.QuantityPerUnit, &createdBy, &c.CreatedAt, &c.UpdatedAt,
			&c.MaterialName, &c.MaterialPartNumber, &c.MaterialUOM, &consumptionType,
		); err != nil {
			return nil, fmt.Errorf("scan consumption rule: %w", err)
		}
		c.CreatedBy = derefString(createdBy)
		c.ConsumptionType = entity.ConsumptionType(consumptionType)
		list = append(list, &c)
	}
	return list, rows.Err()
}

// DeleteByMaterialAndSize elimina las reglas existentes del par (material, tamaño).
func (r *ConsumptionRuleRepo) DeleteByMaterialAndSize(ctx context.Context, orgID, materialID, sizeID string) error {
	query := `
		DELETE FROM material_consumption_rules
		WHERE org_id = $1 AND material_id = $2 AND size_id = $3`
	if _, err := r.q.Exec(ctx, query, orgID, materialID, sizeID); err != nil {
		return fmt.Errorf("delete consumption rule: %w", err)
	}
	return nil
}

// insertRuleSQL inserta la regla; si el par ya existe (upsert concurrente) la reemplaza.
const insertRuleSQL = `
		INSERT INTO material_consumption_rules (id, org_id, material_id, size_id, quantity_per_unit, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (org_id, material_id, size_id) DO UPDATE
			SET quantity_per_unit = EXCLUDED.quantity_per_unit,
			    created_by        = EXCLUDED.created_by,
			    updated_at        = EXCLUDED.updated_at`

// Create inserta una regla. Hay una sola regla por (org, material, tamaño).
func (r *ConsumptionRuleRepo) Create(ctx context.Context, rule *entity.ConsumptionRule) error {
	_, err := r.q.Exec(ctx, insertRuleSQL,
		rule.ID, rule.OrgID, rule.MaterialID, rule.SizeID, rule.QuantityPerUnit,
		nullIfEmpty(rule.CreatedBy), rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create consumption rule: %w", err)
	}
	return nil
}
