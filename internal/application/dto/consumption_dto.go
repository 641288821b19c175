package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/vivero-api/internal/domain/entity"
)

// ConsumptionRuleDTO regla de consumo con los datos del material.
type ConsumptionRuleDTO struct {
	ID              string          `json:"id"`
	MaterialID      string          `json:"material_id"`
	SizeID          string          `json:"size_id"`
	MaterialName    string          `json:"material_name"`
	PartNumber      string          `json:"part_number"`
	UOM             string          `json:"uom"`
	ConsumptionType string          `json:"consumption_type"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ConsumptionRuleInput una regla en el cuerpo del PUT.
type ConsumptionRuleInput struct {
	MaterialID      string          `json:"material_id"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
}

// UpsertConsumptionRulesRequest reemplaza las reglas de los materiales enviados para el tamaño de la ruta.
type UpsertConsumptionRulesRequest struct {
	Rules []ConsumptionRuleInput `json:"rules"`
}

// ConsumptionLineDTO línea de la vista previa.
type ConsumptionLineDTO struct {
	MaterialID        string          `json:"material_id"`
	MaterialName      string          `json:"material_name"`
	PartNumber        string          `json:"part_number"`
	UOM               string          `json:"uom"`
	ConsumptionType   string          `json:"consumption_type"`
	HasRule           bool            `json:"has_rule"`
	QuantityPerUnit   decimal.Decimal `json:"quantity_per_unit"`
	QuantityRequired  decimal.Decimal `json:"quantity_required"`
	QuantityAvailable decimal.Decimal `json:"quantity_available"`
	IsShortage        bool            `json:"is_shortage"`
}

// ConsumptionPreviewResponse respuesta de GET consumption-preview.
type ConsumptionPreviewResponse struct {
	SizeID      string               `json:"size_id"`
	Quantity    int                  `json:"quantity"`
	HasShortage bool                 `json:"has_shortage"`
	Lines       []ConsumptionLineDTO `json:"lines"`
}

// ShortageDTO faltante con cantidades concretas.
type ShortageDTO struct {
	MaterialID   string          `json:"material_id"`
	MaterialName string          `json:"material_name"`
	PartNumber   string          `json:"part_number"`
	UOM          string          `json:"uom"`
	Required     decimal.Decimal `json:"required"`
	Available    decimal.Decimal `json:"available"`
}

// ConsumeBatchRequest cuerpo de POST /batches/:batchId/consumption.
type ConsumeBatchRequest struct {
	SizeID           string `json:"size_id"`
	BatchNumber      string `json:"batch_number"`
	ProducedQuantity int    `json:"produced_quantity"`
	LocationID       string `json:"location_id,omitempty"`
	AllowPartial     bool   `json:"allow_partial"`
}

// MaterialTransactionDTO fila del ledger de materiales.
type MaterialTransactionDTO struct {
	ID             string          `json:"id"`
	MaterialID     string          `json:"material_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	Type           string          `json:"transaction_type"`
	BatchID        string          `json:"batch_id,omitempty"`
	BatchNumber    string          `json:"batch_number"`
	UOM            string          `json:"uom"`
	FromLocationID string          `json:"from_location_id,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	CreatedBy      string          `json:"created_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	ReversesID     string          `json:"reverses_id,omitempty"`
}

// ConsumeBatchResponse resultado del consumo (success=false: faltante en modo estricto).
type ConsumeBatchResponse struct {
	Success      bool                     `json:"success"`
	Transactions []MaterialTransactionDTO `json:"transactions"`
	Shortages    []ShortageDTO            `json:"shortages"`
}

// ReverseConsumptionRequest cuerpo opcional de la reversión.
type ReverseConsumptionRequest struct {
	Reason string `json:"reason"`
}

// FailedReversalDTO consumo que no pudo revertirse.
type FailedReversalDTO struct {
	ConsumptionID string          `json:"consumption_id"`
	MaterialID    string          `json:"material_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	Error         string          `json:"error"`
}

// ReversalResponse resultado etiquetado de la reversión.
type ReversalResponse struct {
	Complete        bool                     `json:"complete"`
	Reversed        []MaterialTransactionDTO `json:"reversed"`
	AlreadyReversed []MaterialTransactionDTO `json:"already_reversed"`
	Failed          []FailedReversalDTO      `json:"failed"`
}

// ReversalFailureDTO devolución fallida registrada para conciliación.
type ReversalFailureDTO struct {
	ID            string          `json:"id"`
	ConsumptionID string          `json:"consumption_id"`
	MaterialID    string          `json:"material_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	Reason        string          `json:"reason,omitempty"`
	Error         string          `json:"error"`
	CreatedBy     string          `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToConsumptionRuleDTOs convierte reglas de dominio a DTO.
func ToConsumptionRuleDTOs(rules []*entity.ConsumptionRule) []ConsumptionRuleDTO {
	out := make([]ConsumptionRuleDTO, 0, len(rules))
	for _, r := range rules {
		out = append(out, ConsumptionRuleDTO{
			ID:              r.ID,
			MaterialID:      r.MaterialID,
			SizeID:          r.SizeID,
			MaterialName:    r.MaterialName,
			PartNumber:      r.MaterialPartNumber,
			UOM:             r.MaterialUOM,
			ConsumptionType: string(r.ConsumptionType),
			QuantityPerUnit: r.QuantityPerUnit,
			UpdatedAt:       r.UpdatedAt,
		})
	}
	return out
}

// ToConsumptionLineDTOs convierte líneas calculadas a DTO.
func ToConsumptionLineDTOs(lines []entity.ConsumptionLine) []ConsumptionLineDTO {
	out := make([]ConsumptionLineDTO, 0, len(lines))
	for _, l := range lines {
		out = append(out, ConsumptionLineDTO{
			MaterialID:        l.MaterialID,
			MaterialName:      l.MaterialName,
			PartNumber:        l.PartNumber,
			UOM:               l.UOM,
			ConsumptionType:   string(l.ConsumptionType),
			HasRule:           l.HasRule,
			QuantityPerUnit:   l.QuantityPerUnit,
			QuantityRequired:  l.QuantityRequired,
			QuantityAvailable: l.QuantityAvailable,
			IsShortage:        l.IsShortage,
		})
	}
	return out
}

func ToShortageDTOs(shortages []entity.Shortage) []ShortageDTO {
	out := make([]ShortageDTO, 0, len(shortages))
	for _, s := range shortages {
		out = append(out, ShortageDTO{
			MaterialID:   s.MaterialID,
			MaterialName: s.MaterialName,
			PartNumber:   s.PartNumber,
			UOM:          s.UOM,
			Required:     s.Required,
			Available:    s.Available,
		})
	}
	return out
}

func ToMaterialTransactionDTO(t *entity.MaterialTransaction) MaterialTransactionDTO {
	return MaterialTransactionDTO{
		ID:             t.ID,
		MaterialID:     t.MaterialID,
		Quantity:       t.Quantity,
		Type:           t.Type,
		BatchID:        t.BatchID,
		BatchNumber:    t.BatchNumber,
		UOM:            t.UOM,
		FromLocationID: t.FromLocationID,
		Reason:         t.Reason,
		CreatedBy:      t.CreatedBy,
		CreatedAt:      t.CreatedAt,
		ReversesID:     t.ReversesID,
	}
}

func ToMaterialTransactionDTOs(list []*entity.MaterialTransaction) []MaterialTransactionDTO {
	out := make([]MaterialTransactionDTO, 0, len(list))
	for _, t := range list {
		out = append(out, ToMaterialTransactionDTO(t))
	}
	return out
}

// ToReversalFailureDTOs convierte devoluciones fallidas a DTO.
func ToReversalFailureDTOs(list []*entity.ReversalFailure) []ReversalFailureDTO {
	out := make([]ReversalFailureDTO, 0, len(list))
	for _, f := range list {
		out = append(out, ReversalFailureDTO{
			ID:            f.ID,
			ConsumptionID: f.ConsumptionID,
			MaterialID:    f.MaterialID,
			Quantity:      f.Quantity,
			Reason:        f.Reason,
			Error:         f.Error,
			CreatedBy:     f.CreatedBy,
			CreatedAt:     f.CreatedAt,
		})
	}
	return out
}
