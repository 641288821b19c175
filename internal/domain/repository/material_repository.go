package repository

import (
	"context"

	"github.com/jhoicas/vivero-api/internal/domain/entity"
)

// MaterialRepository consulta el catálogo de materiales (solo lectura para el motor).
type MaterialRepository interface {
	// ListBySize materiales vinculados al tamaño directamente o por su categoría,
	// con la categoría cargada (nil si el material no tiene).
	ListBySize(ctx context.Context, orgID, sizeID string) ([]*entity.Material, error)
}
