package consumption

import (
	"fmt"

	"github.com/jhoicas/vivero-api/internal/domain"
	"github.com/jhoicas/vivero-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Formula variante cerrada de fórmula de consumo. El método no exportado impide
// implementaciones fuera de este paquete: una cuarta fórmula obliga a tocar FormulaFor.
type Formula interface {
	Type() entity.ConsumptionType
	// required calcula la cantidad total; rate es nil si no hay regla explícita.
	required(rate *decimal.Decimal, produced decimal.Decimal) decimal.Decimal
}

type perUnit struct{}

func (perUnit) Type() entity.ConsumptionType { return entity.ConsumptionPerUnit }

func (perUnit) required(rate *decimal.Decimal, produced decimal.Decimal) decimal.Decimal {
	if rate == nil {
		return produced
	}
	return rate.Mul(produced)
}

type proportional struct{}

func (proportional) Type() entity.ConsumptionType { return entity.ConsumptionProportional }

// Sin regla no hay tasa proporcional: no se consume.
func (proportional) required(rate *decimal.Decimal, produced decimal.Decimal) decimal.Decimal {
	if rate == nil {
		return decimal.Zero
	}
	return rate.Mul(produced)
}

type fixed struct{}

func (fixed) Type() entity.ConsumptionType { return entity.ConsumptionFixed }

// El valor de la regla es el total, sin multiplicar por las unidades producidas.
func (fixed) required(rate *decimal.Decimal, _ decimal.Decimal) decimal.Decimal {
	if rate == nil {
		return decimal.Zero
	}
	return *rate
}

// FormulaFor resuelve la variante de una etiqueta persistida.
func FormulaFor(t entity.ConsumptionType) (Formula, error) {
	switch t {
	case entity.ConsumptionPerUnit:
		return perUnit{}, nil
	case entity.ConsumptionProportional:
		return proportional{}, nil
	case entity.ConsumptionFixed:
		return fixed{}, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFormula, string(t))
}

// QuantityRequired cantidad total de material para producedQty unidades.
// rate es la cantidad por unidad de la regla explícita (nil si no existe).
func QuantityRequired(t entity.ConsumptionType, rate *decimal.Decimal, producedQty int) (decimal.Decimal, error) {
	f, err := FormulaFor(t)
	if err != nil {
		return decimal.Zero, err
	}
	return f.required(rate, decimal.NewFromInt(int64(producedQty))), nil
}
