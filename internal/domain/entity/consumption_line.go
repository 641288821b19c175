package entity

import "github.com/shopspring/decimal"

// ConsumptionLine requerimiento calculado de un material para un lote.
type ConsumptionLine struct {
	MaterialID        string
	MaterialName      string
	PartNumber        string
	UOM               string
	ConsumptionType   ConsumptionType
	HasRule           bool
	QuantityPerUnit   decimal.Decimal // tasa de la regla; cero si no hay regla
	QuantityRequired  decimal.Decimal
	QuantityAvailable decimal.Decimal
	IsShortage        bool
}

// Shortage faltante reportado con números concretos.
type Shortage struct {
	MaterialID   string
	MaterialName string
	PartNumber   string
	UOM          string
	Required     decimal.Decimal
	Available    decimal.Decimal
}

// Shortage construye el descriptor de faltante de la línea.
func (l ConsumptionLine) Shortage() Shortage {
	return Shortage{
		MaterialID:   l.MaterialID,
		MaterialName: l.MaterialName,
		PartNumber:   l.PartNumber,
		UOM:          l.UOM,
		Required:     l.QuantityRequired,
		Available:    l.QuantityAvailable,
	}
}
