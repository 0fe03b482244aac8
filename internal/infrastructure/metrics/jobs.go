// Package metrics métricas Prometheus de los barridos.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/Comercial-api/internal/application/expiration"
)

const namespace = "comercial"

var _ expiration.JobMetrics = (*JobMetrics)(nil)

// JobMetrics duración y resultado de cada job del runner, etiquetado por nombre.
type JobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewJobMetrics registra las métricas en reg. Con reg nil no registra nada y los métodos no hacen nada.
func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sweep_job_duration_seconds",
		Help:      "Duración de los jobs de barrido en segundos.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_job_success_total",
		Help:      "Ejecuciones exitosas de jobs de barrido.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_job_failure_total",
		Help:      "Ejecuciones fallidas de jobs de barrido.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure)
	return &JobMetrics{duration: duration, success: success, failure: failure}
}

// ObserveDuration registra la duración del job.
func (m *JobMetrics) ObserveDuration(job string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(job)).Observe(d.Seconds())
}

// IncSuccess suma una ejecución exitosa.
func (m *JobMetrics) IncSuccess(job string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure suma una ejecución fallida.
func (m *JobMetrics) IncFailure(job string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
