package entity

import "time"

// ConsumptionType fórmula de consumo declarada por la categoría del material.
type ConsumptionType string

// Fórmulas de consumo soportadas.
const (
	ConsumptionPerUnit      ConsumptionType = "per_unit"     // 1 por unidad producida (o la tasa de la regla)
	ConsumptionProportional ConsumptionType = "proportional" // tasa de la regla × unidades producidas
	ConsumptionFixed        ConsumptionType = "fixed"        // valor de la regla, sin importar las unidades
)

// MaterialCategory agrupa materiales y declara la fórmula de consumo por defecto.
type MaterialCategory struct {
	ID              string
	OrgID           string
	Code            string
	Name            string
	ConsumptionType ConsumptionType
	CreatedAt       time.Time
}

// Material representa un insumo en stock (maceta, sustrato, etiqueta...).
type Material struct {
	ID         string
	OrgID      string
	Name       string
	PartNumber string
	BaseUOM    string
	CategoryID string            // vacío si no tiene categoría
	Category   *MaterialCategory // nil si no tiene categoría
	CreatedAt  time.Time
}

// ConsumptionType devuelve la fórmula de la categoría; per_unit si no hay categoría.
func (m *Material) ConsumptionType() ConsumptionType {
	if m.Category == nil || m.Category.ConsumptionType == "" {
		return ConsumptionPerUnit
	}
	return m.Category.ConsumptionType
}
