package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnknownMaterialName nombre mostrado cuando la regla apunta a un material inexistente.
const UnknownMaterialName = "Unknown"

// ConsumptionRule fija la cantidad por unidad de un par (material, tamaño).
// Los campos Material* y ConsumptionType vienen del join con el catálogo (solo lectura).
type ConsumptionRule struct {
	ID              string
	OrgID           string
	MaterialID      string
	SizeID          string
	QuantityPerUnit decimal.Decimal
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	MaterialName       string
	MaterialPartNumber string
	MaterialUOM        string
	ConsumptionType    ConsumptionType
}
