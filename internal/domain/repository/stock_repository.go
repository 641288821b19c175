package repository

import (
	"context"

	"github.com/jhoicas/vivero-api/internal/domain/entity"
)

// StockRepository lector de existencias por material.
// Si no hay fila se devuelve un registro en cero, nunca nil.
type StockRepository interface {
	Get(ctx context.Context, orgID, materialID string) (*entity.StockRecord, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE); solo tiene sentido dentro de una tx.
	GetForUpdate(ctx context.Context, orgID, materialID string) (*entity.StockRecord, error)
}
