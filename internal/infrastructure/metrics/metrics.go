package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/vivero-api/internal/application/consumption"
)

var _ consumption.Recorder = (*Recorder)(nil)

// Recorder contadores Prometheus del motor de consumo, con registro propio.
type Recorder struct {
	registry     *prometheus.Registry
	attempts     *prometheus.CounterVec
	transactions prometheus.Counter
	shortages    prometheus.Counter
	reversals    *prometheus.CounterVec
}

// New registra los contadores bajo el namespace dado (ej. nombre de la app).
func New(namespace string) *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consumption_attempts_total",
			Help:      "Intentos de consumo de materiales por resultado.",
		}, []string{"outcome"}),
		transactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consumption_transactions_total",
			Help:      "Transacciones consume escritas en el ledger.",
		}),
		shortages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consumption_shortages_total",
			Help:      "Materiales con faltante detectados al consumir.",
		}),
		reversals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consumption_reversal_rows_total",
			Help:      "Filas de devolución procesadas por estado.",
		}, []string{"status"}),
	}
	reg.MustRegister(
		r.attempts, r.transactions, r.shortages, r.reversals,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) ConsumptionAttempt(outcome string, transactions, shortages int) {
	r.attempts.WithLabelValues(outcome).Inc()
	r.transactions.Add(float64(transactions))
	r.shortages.Add(float64(shortages))
}

func (r *Recorder) ReversalRow(ok bool) {
	status := "failed"
	if ok {
		status = "reversed"
	}
	r.reversals.WithLabelValues(status).Inc()
}

// Handler expone el registro en formato de exposición de Prometheus.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
