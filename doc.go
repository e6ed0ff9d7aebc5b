// Package vpudispatch implements an adaptive compute dispatcher: a closed
// Perceive-Decide-Act-Learn loop that routes Convolution, GEMM, and SAXPY
// tasks across candidate execution plans, learning from the gap between
// predicted and observed cost.
//
// The dispatcher reimagines fixed-schedule kernel dispatch as a belief-driven
// decision at every task: rather than a single hardcoded execution path per
// operation, a task is profiled, several candidate plans are cost-predicted
// against a learned HardwareProfile, one is chosen (occasionally exploring a
// suboptimal candidate on purpose), and the difference between predicted and
// observed cost updates the belief store for next time.
//
// # Architecture Overview
//
// The dispatch loop consists of six collaborating pillars:
//
//   - Profiler: extracts a DataProfile (amplitude flux, spectral centroid and
//     entropy, Hamming weight, sparsity) from a task's payload.
//   - Orchestrator: generates candidate execution plans and predicts each
//     one's cost against the current HardwareProfile.
//   - Cerebellum: executes the chosen plan, JIT-specializing SAXPY between a
//     dense and a sparse kernel by observed zero ratio.
//   - Feedback: reconciles predicted against observed cost and applies
//     bounded, threshold-gated credit assignment back into HardwareProfile.
//   - GraphOrchestrator: mines the plan history for adjacent steps worth
//     fusing into a single kernel, install idempotently.
//   - Dispatcher: wires the above into one per-task loop over a bounded
//     worker pool.
//
// # Basic Usage
//
//	hw := hwprofile.NewSeeded()
//	d := dispatcher.New(config.Default(), hw, dispatcher.Options{})
//	kernels.RegisterBuiltins(d.Registry)
//
//	err := d.Execute(ctx, &task.Task{
//	    OpName:  "CONVOLUTION",
//	    InA:     signal,
//	    Out:     make([]byte, len(signal)),
//	    NumElem: uint64(len(signal) / 8),
//	})
//
// # Package Structure
//
//   - task: the wire Task type and its typed byte<->float views
//   - profile: the Profiler and DataProfile
//   - hwprofile: the learned belief store (HardwareProfile)
//   - orchestrator: candidate plan generation and cost prediction
//   - registry: the KernelRegistry, keyed by operation name
//   - kernels: the built-in native kernel implementations
//   - cerebellum: plan execution and JIT specialization
//   - feedback: predicted-vs-observed reconciliation
//   - graphorch: plan-history mining and kernel fusion
//   - dispatcher: the top-level loop and worker pool
//   - sensor, evolver: pluggable external collaborators
//   - config, metrics: operator-facing configuration and instrumentation
//   - cmd/vpudispatch: the command-line entry point
package vpudispatch
