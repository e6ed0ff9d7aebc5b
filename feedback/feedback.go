// Package feedback reconciles a plan's predicted cost against its observed
// PerformanceRecord and mutates the shared HardwareProfile by a bounded
// credit-assignment rule. It also owns the per-worker exploration RNG.
//
// Each worker owns its own RNG rather than sharing one behind a lock; the
// RNG itself is the only piece of exploration state that needs isolating.
// math/rand/v2's PCG source is keyed from crypto/rand at construction time.
package feedback

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand/v2"
	"strings"

	"github.com/sbl8/vpudispatch/hwprofile"
	"github.com/sbl8/vpudispatch/metrics"
)

const (
	defaultLearningRate     = 0.1
	defaultBaseLearningRate = 0.05
	defaultQuarkThreshold   = 0.15
	defaultExplorationRate  = 0.10
	minSensitivityBootstrap = 0.01
)

// LearningContext names the belief-store keys a Dispatcher wants Learn to
// consider for one task's outcome, derived from the executed plan's step
// names and task type.
type LearningContext struct {
	PathName       string
	TransformKey   string
	MainOpKey      string
	SensitivityKey string
}

// Feedback owns the shared belief store and this worker's exploration RNG.
type Feedback struct {
	HW      *hwprofile.Profile
	Metrics *metrics.Dispatcher

	LearningRate     float64
	BaseLearningRate float64
	QuarkThreshold   float64
	ExplorationRate  float64

	rng *mathrand.Rand
}

// New constructs a Feedback with the default learning-rate/threshold
// constants and a fresh per-worker RNG seeded from an OS source.
func New(hw *hwprofile.Profile) *Feedback {
	return &Feedback{
		HW:               hw,
		LearningRate:     defaultLearningRate,
		BaseLearningRate: defaultBaseLearningRate,
		QuarkThreshold:   defaultQuarkThreshold,
		ExplorationRate:  defaultExplorationRate,
		rng:              newOSSeededRand(),
	}
}

func newOSSeededRand() *mathrand.Rand {
	var seed [16]byte
	if _, err := rand.Read(seed[:]); err != nil {
		// crypto/rand failing is effectively unrecoverable on any real host;
		// fall back to a fixed seed rather than panic mid-dispatch.
		binary.LittleEndian.PutUint64(seed[:8], 0x9e3779b97f4a7c15)
		binary.LittleEndian.PutUint64(seed[8:], 0xbf58476d1ce4e5b9)
	}
	seed1 := binary.LittleEndian.Uint64(seed[:8])
	seed2 := binary.LittleEndian.Uint64(seed[8:])
	return mathrand.New(mathrand.NewPCG(seed1, seed2))
}

// SeedForTest replaces the exploration RNG with a deterministic source, for
// tests that need shouldExplore's outcome pinned.
func (f *Feedback) SeedForTest(seed1, seed2 uint64) {
	f.rng = mathrand.New(mathrand.NewPCG(seed1, seed2))
}

// ShouldExplore draws u in [0,1) and reports u < ExplorationRate.
func (f *Feedback) ShouldExplore() bool {
	return f.rng.Float64() < f.ExplorationRate
}

// Learn applies the (predicted, observed) reconciliation rule, mutating
// whichever HardwareProfile keys ctx names. All applicable keys for one task
// are updated as a single short transaction on the belief store.
func (f *Feedback) Learn(ctx LearningContext, predicted, observed float64) {
	switch {
	case predicted == 0 && observed == 0:
		return

	case predicted == 0:
		f.blameFlow(ctx, observed)

	default:
		d := (observed - predicted) / predicted
		if absFloat64(d) < f.QuarkThreshold {
			return
		}
		f.creditAssign(ctx, d, predicted, observed)
	}
}

// blameFlow handles (0, observed>0): direct assignment, no relative-deviation math applies.
func (f *Feedback) blameFlow(ctx LearningContext, observed float64) {
	if ctx.TransformKey != "" {
		f.HW.UpdateTransformCost(ctx.TransformKey, observed)
		f.recordQuark([]string{ctx.TransformKey})
		return
	}
	if ctx.SensitivityKey != "" {
		current, _ := f.HW.Sensitivity(ctx.SensitivityKey)
		lambda := maxFloat64(current, minSensitivityBootstrap)
		f.HW.UpdateSensitivity(ctx.SensitivityKey, lambda+observed*f.LearningRate)
		f.recordQuark([]string{ctx.SensitivityKey})
	}
}

// creditAssign applies the additive credit-assignment rule to every key
// present in ctx, as a single transaction against the belief store.
// Updating more than one key from a single observation is deliberate, not
// an oversight: see DESIGN.md.
func (f *Feedback) creditAssign(ctx LearningContext, d, predicted, observed float64) {
	update := hwprofile.CreditUpdate{}

	if ctx.TransformKey != "" {
		update.TransformKey = ctx.TransformKey
		update.TransformFn = func(current float64) float64 {
			return current + (observed-predicted)*f.LearningRate
		}
	}
	if ctx.MainOpKey != "" {
		update.BaseKey = ctx.MainOpKey
		update.BaseFn = func(base float64) float64 {
			return base + base*d*f.BaseLearningRate
		}
	}
	if ctx.SensitivityKey != "" {
		update.SensitivityKey = ctx.SensitivityKey
		update.SensitivityFn = func(lambda float64) float64 {
			return lambda * (1 + d*f.LearningRate)
		}
	}

	fired := f.HW.ApplyCredit(update)
	f.recordQuark(fired)
}

// recordQuark increments the feedback-quark metric for one applied update,
// labelled by the comma-joined keys that actually fired. A nil Metrics
// handle (as in most tests) is a silent no-op.
func (f *Feedback) recordQuark(keys []string) {
	if f.Metrics == nil || len(keys) == 0 {
		return
	}
	f.Metrics.RecordQuark(strings.Join(keys, ","))
}

func absFloat64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxFloat64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
