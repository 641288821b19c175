package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/vivero-api/internal/domain/entity"
	"github.com/jhoicas/vivero-api/internal/domain/repository"
)

var _ repository.MaterialRepository = (*MaterialRepo)(nil)

// MaterialRepo consultas de catálogo de materiales sobre PostgreSQL.
type MaterialRepo struct {
	q Querier
}

// NewMaterialRepository construye el adaptador. Acepta pool o tx (Querier).
func NewMaterialRepository(q Querier) *MaterialRepo {
	return &MaterialRepo{q: q}
}

// ListBySize materiales vinculados al tamaño de forma directa (size_materials)
// o a través de su categoría (size_material_categories). Cada material aparece una vez.
func (r *MaterialRepo) ListBySize(ctx context.Context, orgID, sizeID string) ([]*entity.Material, error) {
	query := `
		SELECT m.id, m.org_id, m.name, m.part_number, m.base_uom, m.category_id, m.created_at,
		       c.code, c.name, c.consumption_type, c.created_at
		FROM materials m
		LEFT JOIN material_categories c ON c.id = m.category_id
		WHERE m.org_id = $1
		  AND (
		        EXISTS (SELECT 1 FROM size_materials sm
		                WHERE sm.org_id = $1 AND sm.size_id = $2 AND sm.material_id = m.id)
		     OR EXISTS (SELECT 1 FROM size_material_categories sc
		                WHERE sc.org_id = $1 AND sc.size_id = $2 AND sc.category_id = m.category_id)
		  )
		ORDER BY m.name, m.id`
	rows, err := r.q.Query(ctx, query, orgID, sizeID)
	if err != nil {
		return nil, fmt.Errorf("list materials by size: %w", err)
	}
	defer rows.Close()

	var list []*entity.Material
	for rows.Next() {
		var m entity.Material
		var categoryID, catCode, catName, catType *string
		var catCreated *time.Time
		if err := rows.Scan(
			&m.ID, &m.OrgID, &m.Name, &m.PartNumber, &m.BaseUOM, &categoryID, &m.CreatedAt,
			&catCode, &catName, &catType, &catCreated,
		); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		if categoryID != nil && catType != nil {
			m.CategoryID = *categoryID
			m.Category = &entity.MaterialCategory{
				ID:              *categoryID,
				OrgID:           m.OrgID,
				Code:            derefString(catCode),
				Name:            derefString(catName),
				ConsumptionType: entity.ConsumptionType(*catType),
			}
			if catCreated != nil {
				m.Category.CreatedAt = *catCreated
			}
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
