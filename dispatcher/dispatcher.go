// Package dispatcher wires the Profiler, Orchestrator, Cerebellum, Feedback
// and GraphOrchestrator pillars into the single per-task loop and owns the
// bounded worker pool that lets many tasks run concurrently.
//
// The worker pool is a buffered channel of pre-built slots, one per worker,
// each carrying its own Feedback (and therefore its own exploration RNG).
// Channel capacity bounds concurrency; taking a slot blocks once all workers
// are busy.
package dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/sbl8/vpudispatch/cerebellum"
	"github.com/sbl8/vpudispatch/config"
	"github.com/sbl8/vpudispatch/feedback"
	"github.com/sbl8/vpudispatch/graphorch"
	"github.com/sbl8/vpudispatch/hwprofile"
	"github.com/sbl8/vpudispatch/metrics"
	"github.com/sbl8/vpudispatch/orchestrator"
	"github.com/sbl8/vpudispatch/profile"
	"github.com/sbl8/vpudispatch/registry"
	"github.com/sbl8/vpudispatch/sensor"
	"github.com/sbl8/vpudispatch/task"
	"github.com/sbl8/vpudispatch/vpuerrors"
)

// workerSlot is one token in the bounded pool: a worker's own Feedback
// (and thus its own exploration RNG), never shared across concurrent tasks.
type workerSlot struct {
	feedback *feedback.Feedback
}

// Dispatcher is the top-level coordinator: (Profiler)->(Orchestrator)->
// (Cerebellum)->(Feedback)->(GraphOrchestrator) per task.
type Dispatcher struct {
	HW       *hwprofile.Profile
	Registry *registry.Registry

	profiler     *profile.Profiler
	orchestrator *orchestrator.Orchestrator
	cerebellum   *cerebellum.Cerebellum
	graph        *graphorch.GraphOrchestrator
	metrics      *metrics.Dispatcher
	log          *slog.Logger

	slots chan *workerSlot

	mu         sync.Mutex
	lastRecord cerebellum.PerformanceRecord
}

// Options gathers the pluggable collaborators New wires together. Every
// field is optional; nil selects the built-in no-op stub.
type Options struct {
	Sensor          sensor.EnvironmentSensor
	DeviceID        string
	PlanStrategy    orchestrator.PlanStrategy
	JITStrategy     cerebellum.JITStrategy
	MetricsRegistry prometheus.Registerer
	Log             *slog.Logger
}

// New constructs a Dispatcher from cfg and hw, seeding a worker pool of
// cfg.Workers slots (runtime.NumCPU() when zero).
func New(cfg config.DispatcherConfig, hw *hwprofile.Profile, opts Options) *Dispatcher {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	reg := registry.New()
	prof := profile.New(opts.Sensor, opts.DeviceID)
	orch := orchestrator.New(hw, opts.PlanStrategy)
	cereb := cerebellum.New(reg, opts.JITStrategy, log.With("pillar", "cerebellum"))
	graph := graphorch.New(reg, hw, log.With("pillar", "graphorch"), cfg.PlanHistoryCapacity)
	graph.FusionThreshold = cfg.FusionThreshold
	graph.AnalysisInterval = cfg.AnalysisInterval

	d := &Dispatcher{
		HW:           hw,
		Registry:     reg,
		profiler:     prof,
		orchestrator: orch,
		cerebellum:   cereb,
		graph:        graph,
		metrics:      metrics.New(opts.MetricsRegistry),
		log:          log,
		slots:        make(chan *workerSlot, workers),
	}

	for i := 0; i < workers; i++ {
		fb := feedback.New(hw)
		fb.Metrics = d.metrics
		fb.LearningRate = cfg.LearningRate
		fb.BaseLearningRate = cfg.BaseLearningRate
		fb.QuarkThreshold = cfg.QuarkThreshold
		fb.ExplorationRate = cfg.ExplorationRate
		d.slots <- &workerSlot{feedback: fb}
	}

	return d
}

// Execute runs the full cognitive loop for one task. ctx only cancels a task
// still queued for a worker slot; a task already inside the loop always
// runs to completion.
func (d *Dispatcher) Execute(ctx context.Context, t *task.Task) error {
	var slot *workerSlot
	select {
	case slot = <-d.slots:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { d.slots <- slot }()

	start := time.Now()
	correlationID := uuid.New().String()
	log := d.log.With("correlation_id", correlationID, "task_id", t.ID, "task_type", t.OpName)

	if err := t.Validate(); err != nil {
		wrapped := vpuerrors.Wrap(vpuerrors.TaskRejected, "task validation failed", err)
		log.Warn("task rejected", "error", wrapped)
		d.metrics.RecordTask(t.OpName, "rejected", time.Since(start).Seconds())
		return wrapped
	}

	softErrorsBefore := d.profiler.SoftErrorCount()
	dataProfile := d.profiler.Analyse(t)
	if d.profiler.SoftErrorCount() > softErrorsBefore {
		d.metrics.RecordSoftError("sensor_unavailable")
	}

	candidates, err := d.orchestrator.Predict(orchestrator.Context{TaskType: t.OpName, Profile: dataProfile})
	if err != nil {
		log.Warn("no candidate plan", "error", err)
		d.metrics.RecordTask(t.OpName, "no_candidate_plan", time.Since(start).Seconds())
		return err
	}

	plan, explored := choosePlan(candidates, slot.feedback)
	if explored {
		plan.PathName += " (Exploratory)"
		d.metrics.RecordExploration()
	}
	log.Info("plan selected", "path_name", plan.PathName, "predicted_cost", plan.PredictedCost)

	record, err := d.cerebellum.Execute(plan, t)
	if err != nil {
		log.Warn("execution failed", "error", err, "path_name", plan.PathName)
		d.metrics.RecordTask(t.OpName, "execution_failed", time.Since(start).Seconds())
		return err
	}

	d.mu.Lock()
	d.lastRecord = record
	d.mu.Unlock()

	learningCtx := buildLearningContext(plan, t.OpName)
	slot.feedback.Learn(learningCtx, plan.PredictedCost, record.Holistic())

	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Warn("graph orchestrator recording panicked, swallowing", "recover", r)
				d.metrics.RecordFusionError()
			}
		}()
		d.graph.RecordExecutedPlan(plan)
	}()

	d.metrics.RecordTask(t.OpName, "ok", time.Since(start).Seconds())
	log.Info("task complete", "holistic_cost", record.Holistic(), "latency_ns", record.LatencyNanos)
	return nil
}

// choosePlan implements step 4: the top candidate, unless exploration fires
// and at least two candidates exist, in which case the second is chosen.
func choosePlan(candidates []orchestrator.Plan, fb *feedback.Feedback) (orchestrator.Plan, bool) {
	if len(candidates) >= 2 && fb.ShouldExplore() {
		return candidates[1], true
	}
	return candidates[0], false
}

// buildLearningContext maps a plan and task type to the belief-store keys
// Feedback should update: FFT paths are transform-focused and learn only
// the time-to-frequency transform cost, leaving MainOpKey/SensitivityKey
// empty; the JIT SAXPY path learns its own transform/main-op/sensitivity
// triple; everything else falls back to a per-task-type default table
// (decided and recorded in DESIGN.md).
func buildLearningContext(plan orchestrator.Plan, taskType string) feedback.LearningContext {
	ctx := feedback.LearningContext{PathName: plan.PathName}

	switch {
	case strings.Contains(plan.PathName, "FFT"):
		ctx.TransformKey = "TRANSFORM_TIME_TO_FREQ"

	case strings.Contains(plan.PathName, "JIT Compiled SAXPY"):
		ctx.TransformKey = "TRANSFORM_JIT_COMPILE_SAXPY"
		ctx.MainOpKey = "EXECUTE_JIT_SAXPY"
		ctx.SensitivityKey = "lambda_SAXPY_generic"

	default:
		ctx.MainOpKey, ctx.SensitivityKey = defaultKeysForTaskType(taskType, plan)
	}

	return ctx
}

// defaultKeysForTaskType is the "per task type table" the mapping rules
// defer to: the main operation key defaults to the plan's first step name
// (the one belief entry every non-FFT, non-JIT path actually exercises),
// paired with the sensitivity key that step's dynamicCost formula reads.
func defaultKeysForTaskType(taskType string, plan orchestrator.Plan) (mainOpKey, sensitivityKey string) {
	if len(plan.Steps) == 0 {
		return "", ""
	}
	mainOpKey = plan.Steps[0].OpName

	switch taskType {
	case "CONVOLUTION":
		sensitivityKey = "lambda_ConvAmp"
	case "GEMM":
		sensitivityKey = "lambda_Sparsity"
	case "SAXPY":
		sensitivityKey = "lambda_SAXPY_generic"
	}
	return mainOpKey, sensitivityKey
}

// LastPerformanceRecord returns the most recently completed task's
// PerformanceRecord, or the zero value if none has run yet.
func (d *Dispatcher) LastPerformanceRecord() cerebellum.PerformanceRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastRecord
}

// PrintBeliefs dumps HardwareProfile as key/value pairs for debug output. A
// pure view: two consecutive calls produce identical output.
func (d *Dispatcher) PrintBeliefs() string {
	return d.HW.Print()
}

// ErrNoTasksSubmitted is returned by ExecuteAll when given an empty batch.
var ErrNoTasksSubmitted = errors.New("dispatcher: no tasks submitted")

// ExecuteAll runs tasks concurrently across the worker pool via an
// errgroup.Group, rather than a hand-rolled sync.WaitGroup loop. After one
// task fails, tasks already inside the loop still run to completion, but
// tasks still waiting for a worker slot may be cancelled by the group's
// context. ExecuteAll returns the first error.
func (d *Dispatcher) ExecuteAll(ctx context.Context, tasks []*task.Task) error {
	if len(tasks) == 0 {
		return ErrNoTasksSubmitted
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		t := t
		g.Go(func() error {
			return d.Execute(gctx, t)
		})
	}
	return g.Wait()
}
