// Package hwprofile implements the process-wide learned belief store:
// three name-keyed cost maps the Orchestrator reads and the Feedback and
// GraphOrchestrator pillars mutate.
//
// A single sync.RWMutex guards all three maps rather than one lock per field:
// updates touch the whole belief store together often enough that
// fine-grained locking would just add overhead.
package hwprofile

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// minCostFloor is the clamp applied to any mutated cost entry.
const minCostFloor = 1.0

// onDiskLayout mirrors the three named blocks in the debug/persistence
// format: base_operational_costs, transform_costs, flux_sensitivities.
type onDiskLayout struct {
	BaseOperationalCosts map[string]float64 `yaml:"base_operational_costs"`
	TransformCosts       map[string]float64 `yaml:"transform_costs"`
	FluxSensitivities    map[string]float64 `yaml:"flux_sensitivities"`
}

// Profile is the mutable hardware cost model shared by the Orchestrator,
// Feedback and GraphOrchestrator pillars.
type Profile struct {
	mu            sync.RWMutex
	baseCost      map[string]float64
	transformCost map[string]float64
	sensitivity   map[string]float64
}

// New constructs an empty Profile with no seeded beliefs.
func New() *Profile {
	return &Profile{
		baseCost:      make(map[string]float64),
		transformCost: make(map[string]float64),
		sensitivity:   make(map[string]float64),
	}
}

// NewSeeded constructs a Profile pre-populated with the authoritative
// initial belief seed.
func NewSeeded() *Profile {
	p := New()
	for k, v := range map[string]float64{
		"CONV_DIRECT":            200,
		"ELEMENT_WISE_MULTIPLY":  50,
		"GEMM_NAIVE":             500,
		"GEMM_FLUX_ADAPTIVE":     450,
		"SAXPY_STANDARD":         100,
		"EXECUTE_JIT_SAXPY":      70,
	} {
		p.baseCost[k] = v
	}
	for k, v := range map[string]float64{
		"FFT_FORWARD":                    300,
		"FFT_INVERSE":                    280,
		"JIT_COMPILE_SAXPY":              1000,
		"TRANSFORM_TIME_TO_FREQ":         200000,
		"TRANSFORM_JIT_COMPILE_SAXPY":    75000,
	} {
		p.transformCost[k] = v
	}
	for k, v := range map[string]float64{
		"lambda_ConvAmp":                     1.0,
		"lambda_ConvFreq":                    0.8,
		"lambda_Sparsity":                    150.0,
		"lambda_SAXPY_generic":               0.5,
		"SAXPY_STANDARD_lambda_hw_combined":  0.1,
	} {
		p.sensitivity[k] = v
	}
	return p
}

// BaseCost returns the base cost entry for name and whether it exists.
func (p *Profile) BaseCost(name string) (float64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.baseCost[name]
	return v, ok
}

// TransformCost returns the transform cost entry for name and whether it exists.
func (p *Profile) TransformCost(name string) (float64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.transformCost[name]
	return v, ok
}

// Sensitivity returns the sensitivity (lambda) entry for name and whether it exists.
func (p *Profile) Sensitivity(name string) (float64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.sensitivity[name]
	return v, ok
}

// SetBaseCost installs or overwrites a base cost entry, unclamped (used by
// GraphOrchestrator to seed a newly fused kernel's cost).
func (p *Profile) SetBaseCost(name string, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.baseCost[name] = value
}

// UpdateTransformCost sets the transform cost for name, clamped to the floor.
func (p *Profile) UpdateTransformCost(name string, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transformCost[name] = clampMin(value, minCostFloor)
}

// UpdateBaseCost sets the base cost for name, clamped to the floor.
func (p *Profile) UpdateBaseCost(name string, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.baseCost[name] = clampMin(value, minCostFloor)
}

// UpdateSensitivity sets the sensitivity for name, clamped to never go below 0.
func (p *Profile) UpdateSensitivity(name string, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sensitivity[name] = clampMin(value, 0)
}

// CreditUpdate is a batch of up to three related mutations Feedback wants
// applied as one transaction. Each *Fn receives the entry's current value
// and returns the new value; a zero-value key is skipped. TransformFn sees 0
// for an absent entry; BaseFn and SensitivityFn are not called for one.
type CreditUpdate struct {
	TransformKey string
	TransformFn  func(current float64) float64

	BaseKey string
	BaseFn  func(current float64) float64

	SensitivityKey string
	SensitivityFn  func(current float64) float64
}

// ApplyCredit applies every non-empty key in u under a single lock
// acquisition, so a concurrent reader (Snapshot, Print) never observes a
// partially-applied update. BaseKey and SensitivityKey are only written if
// they already exist; TransformKey is written unconditionally, matching the
// unguarded transform-cost writes Feedback already performed. Returns the
// keys actually written, in TransformKey/BaseKey/SensitivityKey order.
func (p *Profile) ApplyCredit(u CreditUpdate) (fired []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if u.TransformKey != "" {
		p.transformCost[u.TransformKey] = clampMin(u.TransformFn(p.transformCost[u.TransformKey]), minCostFloor)
		fired = append(fired, u.TransformKey)
	}
	if u.BaseKey != "" {
		if current, ok := p.baseCost[u.BaseKey]; ok {
			p.baseCost[u.BaseKey] = clampMin(u.BaseFn(current), minCostFloor)
			fired = append(fired, u.BaseKey)
		}
	}
	if u.SensitivityKey != "" {
		if current, ok := p.sensitivity[u.SensitivityKey]; ok {
			p.sensitivity[u.SensitivityKey] = clampMin(u.SensitivityFn(current), 0)
			fired = append(fired, u.SensitivityKey)
		}
	}
	return fired
}

func clampMin(v, floor float64) float64 {
	if v < floor {
		return floor
	}
	return v
}

// Snapshot returns a defensive copy of all three belief maps. Callers never
// get a reference to the internal maps.
func (p *Profile) Snapshot() (base, transform, sensitivity map[string]float64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return copyMap(p.baseCost), copyMap(p.transformCost), copyMap(p.sensitivity)
}

func copyMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Print renders the three blocks as key/value pairs for debug output. Two
// consecutive calls are guaranteed to produce identical output: it is a pure
// view over a point-in-time snapshot.
func (p *Profile) Print() string {
	base, transform, sensitivity := p.Snapshot()
	out := "base_operational_costs:\n"
	out += renderBlock(base)
	out += "transform_costs:\n"
	out += renderBlock(transform)
	out += "flux_sensitivities:\n"
	out += renderBlock(sensitivity)
	return out
}

func renderBlock(m map[string]float64) string {
	keys := sortedKeys(m)
	out := ""
	for _, k := range keys {
		out += fmt.Sprintf("  %s: %v\n", k, m[k])
	}
	return out
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// insertion sort is fine here: belief maps are small (tens of entries).
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// Save writes the profile to path in the on-disk debug layout (YAML).
func (p *Profile) Save(path string) error {
	base, transform, sensitivity := p.Snapshot()
	layout := onDiskLayout{
		BaseOperationalCosts: base,
		TransformCosts:       transform,
		FluxSensitivities:    sensitivity,
	}
	data, err := yaml.Marshal(layout)
	if err != nil {
		return fmt.Errorf("marshal hardware profile: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a profile previously written by Save. Missing blocks in the
// file yield empty maps rather than an error, consistent with "missing
// entries contribute zero" throughout the belief model.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hardware profile: %w", err)
	}
	var layout onDiskLayout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("unmarshal hardware profile: %w", err)
	}
	p := New()
	if layout.BaseOperationalCosts != nil {
		p.baseCost = layout.BaseOperationalCosts
	}
	if layout.TransformCosts != nil {
		p.transformCost = layout.TransformCosts
	}
	if layout.FluxSensitivities != nil {
		p.sensitivity = layout.FluxSensitivities
	}
	return p, nil
}
