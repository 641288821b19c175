package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockRecord existencias actuales de un material (mantenidas desde el ledger).
type StockRecord struct {
	OrgID            string
	MaterialID       string
	QuantityOnHand   decimal.Decimal
	QuantityReserved decimal.Decimal
	UpdatedAt        time.Time
}

// Available cantidad disponible = en mano - reservada.
func (s *StockRecord) Available() decimal.Decimal {
	return s.QuantityOnHand.Sub(s.QuantityReserved)
}
