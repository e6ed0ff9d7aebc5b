// Package cerebellum executes a chosen plan step-by-step against the shared
// kernel registry and owns the SAXPY JIT specializer.
//
// Execution keeps no buffer map: the logical buffer names on plan steps
// ("input", "output", "temp_freq", ...) are not resolved, and every kernel
// reads and writes the task's own InA/InB/Out buffers directly.
package cerebellum

import (
	"log/slog"
	"math"
	"math/bits"
	"time"

	"github.com/sbl8/vpudispatch/orchestrator"
	"github.com/sbl8/vpudispatch/registry"
	"github.com/sbl8/vpudispatch/task"
	"github.com/sbl8/vpudispatch/vpuerrors"
)

// PerformanceRecord is what one plan execution produces: observed latency
// plus the accumulated FluxReport, and the holistic scalar Feedback learns
// against.
type PerformanceRecord struct {
	LatencyNanos int64
	Report       registry.FluxReport
}

// Holistic returns cycle+hwIn+hwOut for this record.
func (r PerformanceRecord) Holistic() float64 {
	return float64(r.Report.Holistic())
}

// JITStrategy is the pluggable "LLM JIT" collaborator: it may synthesize a
// specialized SAXPY kernel itself, or defer to local synthesis by returning
// ok=false. No concrete LLM-backed implementation ships in this repo.
type JITStrategy interface {
	SynthesizeSAXPY(t *task.Task, a float32, zeroRatio float64) (registry.KernelFn, bool)
}

// NoopJITStrategy always defers to local synthesis.
type NoopJITStrategy struct{}

// SynthesizeSAXPY implements JITStrategy.
func (NoopJITStrategy) SynthesizeSAXPY(*task.Task, float32, float64) (registry.KernelFn, bool) {
	return nil, false
}

// Cerebellum executes plans against a shared kernel registry.
type Cerebellum struct {
	Registry *registry.Registry
	JIT      JITStrategy
	Log      *slog.Logger
}

// New constructs a Cerebellum. A nil jit defaults to NoopJITStrategy; a nil
// logger defaults to slog.Default().
func New(reg *registry.Registry, jit JITStrategy, log *slog.Logger) *Cerebellum {
	if jit == nil {
		jit = NoopJITStrategy{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Cerebellum{Registry: reg, JIT: jit, Log: log}
}

// Execute runs plan's steps in order against t, staging and invoking a JIT
// kernel where the plan calls for one. Returns a KernelMissing or
// JITPrecondition error on the first failing step; on error the caller must
// not touch HardwareProfile or notify GraphOrchestrator.
func (c *Cerebellum) Execute(plan orchestrator.Plan, t *task.Task) (PerformanceRecord, error) {
	start := time.Now()

	var report registry.FluxReport
	var staged registry.KernelFn

	for _, step := range plan.Steps {
		switch step.OpName {
		case "JIT_COMPILE_SAXPY":
			kernel, err := c.specializeSAXPY(t)
			if err != nil {
				return PerformanceRecord{}, err
			}
			staged = kernel

		case "EXECUTE_JIT_SAXPY":
			if staged == nil {
				return PerformanceRecord{}, vpuerrors.New(vpuerrors.JITPrecondition, "EXECUTE_JIT_SAXPY with no staged kernel")
			}
			report.Add(staged(t))

		default:
			kernel, ok := c.Registry.Lookup(step.OpName)
			if !ok {
				return PerformanceRecord{}, vpuerrors.New(vpuerrors.KernelMissing, "no registered kernel for step "+step.OpName)
			}
			report.Add(kernel(t))
		}
	}

	return PerformanceRecord{
		LatencyNanos: time.Since(start).Nanoseconds(),
		Report:       report,
	}, nil
}

// specializeSAXPY synthesizes a nullary-staged SAXPY kernel: sparse when the
// float input's zero-ratio exceeds 0.5, dense otherwise. Prefers the JIT
// strategy's output when it produces one.
func (c *Cerebellum) specializeSAXPY(t *task.Task) (registry.KernelFn, error) {
	a, ok := t.Params.Float32("a")
	if !ok {
		c.Log.Warn("SAXPY scalar 'a' missing or wrong-shape, defaulting to 1.0", "task_id", t.ID)
		a = 1.0
	}

	x := t.AsFloat32A()
	if len(x) == 0 {
		return nil, vpuerrors.New(vpuerrors.JITPrecondition, "SAXPY specialization requires a non-empty input buffer")
	}
	zeroRatio := zeroRatio(x)

	if kernel, ok := c.JIT.SynthesizeSAXPY(t, a, zeroRatio); ok {
		return kernel, nil
	}

	if zeroRatio > 0.5 {
		return sparseSAXPYKernel(a), nil
	}
	return denseSAXPYKernel(a), nil
}

func zeroRatio(x []float32) float64 {
	zero := 0
	for _, v := range x {
		if v == 0 {
			zero++
		}
	}
	return float64(zero) / float64(len(x))
}

// denseSAXPYKernel performs y <- a*x + y over every element.
func denseSAXPYKernel(a float32) registry.KernelFn {
	return func(t *task.Task) registry.FluxReport {
		x := t.AsFloat32A()
		y := t.AsFloat32Out()
		n := len(x)
		if len(y) < n {
			n = len(y)
		}

		hwIn := t.HammingWeightA() + hammingWeightFloat32(y)

		for i := 0; i < n; i++ {
			y[i] = a*x[i] + y[i]
		}

		t.WriteFloat32Out(y)
		return registry.FluxReport{
			CycleCost: uint64(2 * n),
			HWInCost:  hwIn,
			HWOutCost: hammingWeightFloat32(y),
		}
	}
}

// sparseSAXPYKernel is the same y<-a*x+y update, specialized to skip
// multiply-adds where x is exactly zero. Same cost accounting as dense:
// cycle_cost is 2*N regardless of specialization.
func sparseSAXPYKernel(a float32) registry.KernelFn {
	return func(t *task.Task) registry.FluxReport {
		x := t.AsFloat32A()
		y := t.AsFloat32Out()
		n := len(x)
		if len(y) < n {
			n = len(y)
		}

		hwIn := t.HammingWeightA() + hammingWeightFloat32(y)

		for i := 0; i < n; i++ {
			if x[i] == 0 {
				continue
			}
			y[i] = a*x[i] + y[i]
		}

		t.WriteFloat32Out(y)
		return registry.FluxReport{
			CycleCost: uint64(2 * n),
			HWInCost:  hwIn,
			HWOutCost: hammingWeightFloat32(y),
		}
	}
}

func hammingWeightFloat32(vals []float32) uint64 {
	var total uint64
	for _, v := range vals {
		total += uint64(bits.OnesCount32(math.Float32bits(v)))
	}
	return total
}
