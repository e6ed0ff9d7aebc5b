// Package metrics defines the process-wide Prometheus instrumentation for
// the dispatch loop: task throughput, latency, exploration rate, and
// fusion failures.
//
// The vector-metrics-plus-promauto style is grounded on the pack's
// observability packages (e.g. services/orchestrator/observability in the
// AleutianLocal example): counters/histograms registered once at process
// startup, exposed through small typed recorder methods rather than
// scattering label strings across call sites.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vpu"

// Dispatcher holds every metric the dispatch loop emits.
type Dispatcher struct {
	TasksTotal          *prometheus.CounterVec
	TaskLatencySeconds  *prometheus.HistogramVec
	ExplorationTotal    prometheus.Counter
	FusionErrorsTotal   prometheus.Counter
	SoftErrorsTotal     *prometheus.CounterVec
	FeedbackQuarksTotal *prometheus.CounterVec
}

// New registers and returns a Dispatcher's metrics against reg. Pass
// prometheus.DefaultRegisterer for production wiring, or a fresh
// prometheus.NewRegistry() (or nil, to skip registration entirely) in tests.
func New(reg prometheus.Registerer) *Dispatcher {
	factory := promauto.With(reg)
	return &Dispatcher{
		TasksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Total tasks dispatched, by task type and outcome.",
		}, []string{"task_type", "outcome"}),

		TaskLatencySeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_latency_seconds",
			Help:      "End-to-end latency of one dispatched task, by task type.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"task_type"}),

		ExplorationTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exploration_total",
			Help:      "Total tasks where exploration selected a non-top candidate plan.",
		}),

		FusionErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fusion_errors_total",
			Help:      "Total swallowed panics from recording a plan into the GraphOrchestrator; panics inside pair analysis are logged by the GraphOrchestrator and not counted.",
		}),

		SoftErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "soft_errors_total",
			Help:      "Total soft (non-fatal) failures, by category.",
		}, []string{"category"}),

		FeedbackQuarksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_quarks_total",
			Help:      "Total applied credit-assignment quarks, by which belief-store keys fired.",
		}, []string{"keys"}),
	}
}

// RecordTask records one completed or aborted task.
func (d *Dispatcher) RecordTask(taskType, outcome string, seconds float64) {
	d.TasksTotal.WithLabelValues(taskType, outcome).Inc()
	d.TaskLatencySeconds.WithLabelValues(taskType).Observe(seconds)
}

// RecordExploration increments the exploration counter.
func (d *Dispatcher) RecordExploration() {
	d.ExplorationTotal.Inc()
}

// RecordFusionError increments the fusion-error counter.
func (d *Dispatcher) RecordFusionError() {
	d.FusionErrorsTotal.Inc()
}

// RecordSoftError increments the soft-error counter for category.
func (d *Dispatcher) RecordSoftError(category string) {
	d.SoftErrorsTotal.WithLabelValues(category).Inc()
}

// RecordQuark increments the feedback-quark counter, labelled by the
// comma-joined names of the belief-store keys the quark actually touched.
func (d *Dispatcher) RecordQuark(keys string) {
	d.FeedbackQuarksTotal.WithLabelValues(keys).Inc()
}
