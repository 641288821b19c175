package consumption

import (
	"context"

	"github.com/jhoicas/vivero-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el upsert de reglas y el registro de consumos.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ruleRepo repository.ConsumptionRuleRepository,
		materialRepo repository.MaterialRepository,
		stockRepo repository.StockRepository,
		txRepo repository.MaterialTransactionRepository,
	) error) error
}

// Resultados de un intento de consumo, usados como etiqueta de métricas.
const (
	OutcomeCommitted = "committed"
	OutcomePartial   = "partial"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Recorder recibe eventos del motor para métricas. Lo implementa infrastructure/metrics.
type Recorder interface {
	ConsumptionAttempt(outcome string, transactions, shortages int)
	ReversalRow(ok bool)
}

type nopRecorder struct{}

func (nopRecorder) ConsumptionAttempt(string, int, int) {}
func (nopRecorder) ReversalRow(bool)                    {}
