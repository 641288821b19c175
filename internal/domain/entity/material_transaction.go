package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de transacción de material.
const (
	TransactionTypeConsume    = "consume"    // consumo por lote (cantidad negativa)
	TransactionTypeReturn     = "return"     // devolución compensatoria (cantidad positiva)
	TransactionTypeAdjustment = "adjustment" // ajuste manual, fuera de este motor
	TransactionTypeReceipt    = "receipt"    // recepción de compra, fuera de este motor
)

// MaterialTransaction entrada inmutable del ledger de materiales.
type MaterialTransaction struct {
	ID             string
	OrgID          string
	MaterialID     string
	Quantity       decimal.Decimal // negativo consumo, positivo devolución
	Type           string
	BatchID        string
	BatchNumber    string
	UOM            string
	FromLocationID string // vacío si no aplica
	Reason         string
	CreatedBy      string
	CreatedAt      time.Time
	ReversesID     string // en devoluciones: id del consumo compensado
}

// ReversalFailure devolución que no pudo registrarse; se guarda para conciliación manual.
type ReversalFailure struct {
	ID            string
	OrgID         string
	BatchID       string
	ConsumptionID string
	MaterialID    string
	Quantity      decimal.Decimal
	Reason        string
	Error         string
	CreatedBy     string
	CreatedAt     time.Time
}
