package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestMetrics(t *testing.T) *Dispatcher {
	t.Helper()
	return New(prometheus.NewRegistry())
}

func TestNewNilRegistryDoesNotPanic(t *testing.T) {
	t.Parallel()
	d := New(nil)
	d.RecordTask("SAXPY", "ok", 0.001)
}

func TestRecordTaskIncrementsCounterAndHistogram(t *testing.T) {
	t.Parallel()
	m := newTestMetrics(t)

	m.RecordTask("CONVOLUTION", "ok", 0.05)
	m.RecordTask("CONVOLUTION", "ok", 0.1)
	m.RecordTask("CONVOLUTION", "rejected", 0.001)

	ok := testutil.ToFloat64(m.TasksTotal.WithLabelValues("CONVOLUTION", "ok"))
	if ok != 2 {
		t.Errorf("TasksTotal[CONVOLUTION,ok] = %v, want 2", ok)
	}
	rejected := testutil.ToFloat64(m.TasksTotal.WithLabelValues("CONVOLUTION", "rejected"))
	if rejected != 1 {
		t.Errorf("TasksTotal[CONVOLUTION,rejected] = %v, want 1", rejected)
	}

	count := testutil.CollectAndCount(m.TaskLatencySeconds)
	if count == 0 {
		t.Error("expected TaskLatencySeconds to have collected observations")
	}
}

func TestRecordExplorationIncrementsCounter(t *testing.T) {
	t.Parallel()
	m := newTestMetrics(t)

	m.RecordExploration()
	m.RecordExploration()

	if got := testutil.ToFloat64(m.ExplorationTotal); got != 2 {
		t.Errorf("ExplorationTotal = %v, want 2", got)
	}
}

func TestRecordFusionErrorIncrementsCounter(t *testing.T) {
	t.Parallel()
	m := newTestMetrics(t)

	m.RecordFusionError()

	if got := testutil.ToFloat64(m.FusionErrorsTotal); got != 1 {
		t.Errorf("FusionErrorsTotal = %v, want 1", got)
	}
}

func TestRecordSoftErrorIncrementsByCategory(t *testing.T) {
	t.Parallel()
	m := newTestMetrics(t)

	m.RecordSoftError("sensor_unavailable")
	m.RecordSoftError("sensor_unavailable")
	m.RecordSoftError("dft_underflow")

	sensor := testutil.ToFloat64(m.SoftErrorsTotal.WithLabelValues("sensor_unavailable"))
	if sensor != 2 {
		t.Errorf("SoftErrorsTotal[sensor_unavailable] = %v, want 2", sensor)
	}
	dft := testutil.ToFloat64(m.SoftErrorsTotal.WithLabelValues("dft_underflow"))
	if dft != 1 {
		t.Errorf("SoftErrorsTotal[dft_underflow] = %v, want 1", dft)
	}
}

func TestRecordQuarkIncrementsByKeys(t *testing.T) {
	t.Parallel()
	m := newTestMetrics(t)

	m.RecordQuark("TRANSFORM_TIME_TO_FREQ")
	m.RecordQuark("TRANSFORM_TIME_TO_FREQ")
	m.RecordQuark("EXECUTE_JIT_SAXPY,lambda_SAXPY_generic")

	transform := testutil.ToFloat64(m.FeedbackQuarksTotal.WithLabelValues("TRANSFORM_TIME_TO_FREQ"))
	if transform != 2 {
		t.Errorf("FeedbackQuarksTotal[TRANSFORM_TIME_TO_FREQ] = %v, want 2", transform)
	}
	combined := testutil.ToFloat64(m.FeedbackQuarksTotal.WithLabelValues("EXECUTE_JIT_SAXPY,lambda_SAXPY_generic"))
	if combined != 1 {
		t.Errorf("FeedbackQuarksTotal[EXECUTE_JIT_SAXPY,lambda_SAXPY_generic] = %v, want 1", combined)
	}
}

func TestRecordersAreConcurrencySafe(t *testing.T) {
	t.Parallel()
	m := newTestMetrics(t)

	done := make(chan struct{}, 60)
	for i := 0; i < 20; i++ {
		go func() { m.RecordTask("GEMM", "ok", 0.01); done <- struct{}{} }()
		go func() { m.RecordExploration(); done <- struct{}{} }()
		go func() { m.RecordSoftError("sensor_unavailable"); done <- struct{}{} }()
	}
	for i := 0; i < 60; i++ {
		<-done
	}

	if got := testutil.ToFloat64(m.TasksTotal.WithLabelValues("GEMM", "ok")); got != 20 {
		t.Errorf("TasksTotal[GEMM,ok] = %v, want 20", got)
	}
	if got := testutil.ToFloat64(m.ExplorationTotal); got != 20 {
		t.Errorf("ExplorationTotal = %v, want 20", got)
	}
}
