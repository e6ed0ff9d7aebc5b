// Package orchestrator generates candidate execution plans for a task and
// predicts each one's cost against the shared HardwareProfile, in ascending
// order.
//
// The built-in candidate table is a per-task-type factory producing a fixed
// small set of named plans (direct, FFT-based, JIT-specialized, ...), and
// the cost formula sums each step's base and dynamic cost before applying
// the environmental multiplier, with a pluggable LLM strategy hook for
// proposing additional candidates beyond the built-in table.
package orchestrator

import (
	"sort"

	"github.com/sbl8/vpudispatch/hwprofile"
	"github.com/sbl8/vpudispatch/profile"
	"github.com/sbl8/vpudispatch/vpuerrors"
)

// Step is one operation within a Plan, naming the kernel to invoke and the
// logical buffers it reads/writes.
type Step struct {
	OpName string
	InBuf  string
	OutBuf string
}

// Plan is a candidate execution strategy: a named sequence of steps with a
// predicted cost filled in once by the Orchestrator.
type Plan struct {
	PathName      string
	PredictedCost float64
	Steps         []Step
}

// Context is the enriched execution context the Dispatcher hands to Predict:
// the task's type tag plus its computed DataProfile.
type Context struct {
	TaskType string
	Profile  profile.DataProfile
}

// PlanStrategy is the pluggable "LLM strategy" collaborator: it may propose
// additional candidate plans, or return none, in which case the Orchestrator
// falls back to the built-in table. No concrete LLM-backed implementation
// ships in this repo; a NoopStrategy satisfies the interface.
type PlanStrategy interface {
	ProposePlans(ctx Context) []Plan
}

// NoopStrategy always proposes nothing.
type NoopStrategy struct{}

// ProposePlans implements PlanStrategy.
func (NoopStrategy) ProposePlans(Context) []Plan { return nil }

var builtinPaths = map[string][]Plan{
	"CONVOLUTION": {
		{PathName: "Direct", Steps: []Step{
			{OpName: "CONV_DIRECT", InBuf: "input", OutBuf: "output"},
		}},
		{PathName: "FFT-based", Steps: []Step{
			{OpName: "FFT_FORWARD", InBuf: "input", OutBuf: "temp_freq"},
			{OpName: "ELEMENT_WISE_MULTIPLY", InBuf: "temp_freq", OutBuf: "temp_result"},
			{OpName: "FFT_INVERSE", InBuf: "temp_result", OutBuf: "output"},
		}},
	},
	"GEMM": {
		{PathName: "Naive", Steps: []Step{
			{OpName: "GEMM_NAIVE", InBuf: "input", OutBuf: "output"},
		}},
		{PathName: "Flux-adaptive", Steps: []Step{
			{OpName: "GEMM_FLUX_ADAPTIVE", InBuf: "input", OutBuf: "output"},
		}},
	},
	"SAXPY": {
		{PathName: "Standard", Steps: []Step{
			{OpName: "SAXPY_STANDARD", InBuf: "input", OutBuf: "output"},
		}},
		{PathName: "JIT Compiled SAXPY", Steps: []Step{
			{OpName: "JIT_COMPILE_SAXPY", InBuf: "input", OutBuf: "input"},
			{OpName: "EXECUTE_JIT_SAXPY", InBuf: "input", OutBuf: "output"},
		}},
	},
}

// Orchestrator produces sorted, cost-predicted candidate plans.
type Orchestrator struct {
	HW       *hwprofile.Profile
	Strategy PlanStrategy
}

// New constructs an Orchestrator over hw. A nil strategy defaults to NoopStrategy.
func New(hw *hwprofile.Profile, strategy PlanStrategy) *Orchestrator {
	if strategy == nil {
		strategy = NoopStrategy{}
	}
	return &Orchestrator{HW: hw, Strategy: strategy}
}

// Predict generates and cost-orders every candidate plan for ctx.TaskType.
// Returns vpuerrors.NoCandidatePlan when the candidate set is empty.
func (o *Orchestrator) Predict(ctx Context) ([]Plan, error) {
	candidates := o.generateCandidates(ctx)
	if len(candidates) == 0 {
		return nil, vpuerrors.New(vpuerrors.NoCandidatePlan, "no candidate paths for task type "+ctx.TaskType)
	}

	for i := range candidates {
		candidates[i].PredictedCost = o.predictCost(candidates[i], ctx.Profile)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].PredictedCost < candidates[j].PredictedCost
	})
	return candidates, nil
}

func (o *Orchestrator) generateCandidates(ctx Context) []Plan {
	var out []Plan
	if builtin, ok := builtinPaths[ctx.TaskType]; ok {
		out = append(out, cloneAll(builtin)...)
	}
	if o.Strategy != nil {
		out = append(out, o.Strategy.ProposePlans(ctx)...)
	}
	return out
}

func cloneAll(plans []Plan) []Plan {
	out := make([]Plan, len(plans))
	for i, p := range plans {
		stepsCopy := make([]Step, len(p.Steps))
		copy(stepsCopy, p.Steps)
		out[i] = Plan{PathName: p.PathName, Steps: stepsCopy}
	}
	return out
}

// predictCost sums transform + base(+dynamic) contributions per step, then
// applies the environmental multiplier.
func (o *Orchestrator) predictCost(plan Plan, dp profile.DataProfile) float64 {
	subtotal := 0.0
	for _, step := range plan.Steps {
		subtotal += o.stepCost(step, dp)
	}
	return subtotal * environmentalMultiplier(plan, dp)
}

func (o *Orchestrator) stepCost(step Step, dp profile.DataProfile) float64 {
	cost := 0.0
	if v, ok := o.HW.TransformCost(step.OpName); ok {
		cost += v
	}
	if base, ok := o.HW.BaseCost(step.OpName); ok {
		cost += base + o.dynamicCost(step.OpName, dp)
	}
	return cost
}

func (o *Orchestrator) dynamicCost(opName string, dp profile.DataProfile) float64 {
	lambda := func(name string) float64 {
		v, _ := o.HW.Sensitivity(name)
		return v
	}
	switch opName {
	case "CONV_DIRECT":
		return dp.AmplitudeFlux*lambda("lambda_ConvAmp") + dp.SpectralCentroid*lambda("lambda_ConvFreq")
	case "GEMM_NAIVE", "GEMM_FLUX_ADAPTIVE":
		return (1 - dp.SparsityRatio) * lambda("lambda_Sparsity")
	case "SAXPY_STANDARD":
		return dp.AmplitudeFlux * lambda("lambda_SAXPY_generic")
	case "EXECUTE_JIT_SAXPY":
		return dp.AmplitudeFlux * lambda("lambda_SAXPY_generic") * 0.5
	default:
		return 0
	}
}

func environmentalMultiplier(plan Plan, dp profile.DataProfile) float64 {
	mult := 1.0

	if dp.EnvTempC > 85 {
		mult *= 1.5
	}
	if dp.EnvPowerWatts > 100 {
		mult *= 1 + 0.005*(dp.EnvPowerWatts-100)
	}
	if dp.EnvLatencyMs > 100 && planHasPrefix(plan, "NETWORK_", "REMOTE_") {
		mult *= 1.2
	}
	if dp.EnvThroughputMbps > 0 && dp.EnvThroughputMbps < 50 && planHasPrefix(plan, "DISK_", "LOAD_") {
		mult *= 1.15
	}
	switch {
	case dp.EnvQualityScore > 0 && dp.EnvQualityScore < 1:
		mult /= dp.EnvQualityScore
	case dp.EnvQualityScore <= 0:
		mult *= 10
	}
	return mult
}

func planHasPrefix(plan Plan, prefixes ...string) bool {
	for _, step := range plan.Steps {
		for _, prefix := range prefixes {
			if len(step.OpName) >= len(prefix) && step.OpName[:len(prefix)] == prefix {
				return true
			}
		}
	}
	return false
}
