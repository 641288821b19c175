package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/vivero-api/internal/domain/entity"
	"github.com/jhoicas/vivero-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
// material_stock la mantiene el trigger del ledger; aquí solo se lee.
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const selectStock = `
		SELECT org_id, material_id, quantity_on_hand, quantity_reserved, updated_at
		FROM material_stock WHERE org_id = $1 AND material_id = $2`

// Get obtiene el stock actual de un material.
func (r *StockRepo) Get(ctx context.Context, orgID, materialID string) (*entity.StockRecord, error) {
	s, err := r.scan(ctx, selectStock, orgID, materialID)
	if err != nil {
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return s, nil
}

// GetForUpdate obtiene el stock y bloquea la fila para update (SELECT FOR UPDATE).
func (r *StockRepo) GetForUpdate(ctx context.Context, orgID, materialID string) (*entity.StockRecord, error) {
	s, err := r.scan(ctx, selectStock+"\n\t\tFOR UPDATE", orgID, materialID)
	if err != nil {
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return s, nil
}

func (r *StockRepo) scan(ctx context.Context, query, orgID, materialID string) (*entity.StockRecord, error) {
	var s entity.StockRecord
	err := r.q.QueryRow(ctx, query, orgID, materialID).Scan(
		&s.OrgID, &s.MaterialID, &s.QuantityOnHand, &s.QuantityReserved, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockRecord{
				OrgID:            orgID,
				MaterialID:       materialID,
				QuantityOnHand:   decimal.Zero,
				QuantityReserved: decimal.Zero,
			}, nil
		}
		return nil, err
	}
	return &s, nil
}
