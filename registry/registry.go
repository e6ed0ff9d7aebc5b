// Package registry implements the shared kernel catalog: a name-keyed table
// of opaque callables the Cerebellum dispatches through and the
// GraphOrchestrator extends at runtime with fused kernels.
//
// This repo never ships a concrete SIMD/GPU kernel; every entry is an
// opaque KernelFn a caller registers, a name-keyed, runtime-extensible
// catalog rather than a fixed opcode table.
package registry

import (
	"sync"

	"github.com/sbl8/vpudispatch/task"
)

// FluxReport is what a kernel invocation returns: the raw cost signal the
// Cerebellum accumulates per plan and Feedback later reconciles against the
// Orchestrator's prediction.
type FluxReport struct {
	CycleCost uint64
	HWInCost  uint64
	HWOutCost uint64
}

// Add accumulates another report's fields into r.
func (r *FluxReport) Add(other FluxReport) {
	r.CycleCost += other.CycleCost
	r.HWInCost += other.HWInCost
	r.HWOutCost += other.HWOutCost
}

// Holistic is the scalar cost unit plans are compared and learned against:
// cycle + hwIn + hwOut.
func (r FluxReport) Holistic() uint64 {
	return r.CycleCost + r.HWInCost + r.HWOutCost
}

// KernelFn executes one named operation against a task and reports its cost.
type KernelFn func(t *task.Task) FluxReport

// Registry is the process-wide, name-keyed kernel catalog. Reads (Cerebellum
// dispatch, Contains checks) may run concurrently with each
// other; installs (GraphOrchestrator fusion) take the exclusive writer lock.
type Registry struct {
	mu      sync.RWMutex
	kernels map[string]KernelFn
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{kernels: make(map[string]KernelFn)}
}

// Register installs fn under name, overwriting any prior entry. Intended for
// initial wiring of built-in kernels at process startup.
func (r *Registry) Register(name string, fn KernelFn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kernels[name] = fn
}

// Lookup returns the kernel registered under name, if any.
func (r *Registry) Lookup(name string) (KernelFn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.kernels[name]
	return fn, ok
}

// Contains reports whether name is present in the registry.
func (r *Registry) Contains(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// InstallIfAbsent installs fn under name only if no entry exists yet,
// returning true when it actually installed something. This is the
// idempotence guarantee fusion relies on: a second attempt at the same
// fused name is a no-op.
func (r *Registry) InstallIfAbsent(name string, fn KernelFn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.kernels[name]; exists {
		return false
	}
	r.kernels[name] = fn
	return true
}

// Names returns a snapshot of every registered kernel name. Intended for
// debug dumps; never leaks the underlying map.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.kernels))
	for name := range r.kernels {
		out = append(out, name)
	}
	return out
}
