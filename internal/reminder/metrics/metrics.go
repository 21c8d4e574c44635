package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics expone observabilidad del batch de recordatorios.
type Metrics struct {
	// Duración de cada run por dominio y resultado.
	RunDuration *prometheus.HistogramVec

	// Recordatorios enviados por dominio y kind (early/due).
	Sent *prometheus.CounterVec

	// Registros salteados por dominio y razón.
	Skipped *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "petwellness_reminder_run_duration_seconds",
			Help:    "Duration of reminder batch runs by domain and result",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}, []string{"domain", "result"}),

		Sent: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "petwellness_reminders_sent_total",
			Help: "Total reminders sent by domain and kind",
		}, []string{"domain", "kind"}),

		Skipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "petwellness_reminders_skipped_total",
			Help: "Total candidate records skipped by domain and reason",
		}, []string{"domain", "reason"}),
	}
}

// ObserveRun registra la duración de un run completo.
func (m *Metrics) ObserveRun(domain, result string, d time.Duration) {
	if m != nil {
		m.RunDuration.WithLabelValues(domain, result).Observe(d.Seconds())
	}
}

// IncSent registra un recordatorio entregado.
func (m *Metrics) IncSent(domain, kind string) {
	if m != nil {
		m.Sent.WithLabelValues(domain, kind).Inc()
	}
}

// IncSkipped registra un candidato salteado.
func (m *Metrics) IncSkipped(domain, reason string) {
	if m != nil {
		m.Skipped.WithLabelValues(domain, reason).Inc()
	}
}
