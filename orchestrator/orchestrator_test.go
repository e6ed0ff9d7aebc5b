package orchestrator

import (
	"testing"

	"github.com/sbl8/vpudispatch/hwprofile"
	"github.com/sbl8/vpudispatch/profile"
)

func TestConvolutionSpikySelectsFFT(t *testing.T) {
	t.Parallel()
	hw := hwprofile.NewSeeded()
	o := New(hw, nil)

	dp := profile.DataProfile{AmplitudeFlux: 500, SpectralCentroid: 0.3, SparsityRatio: 1}
	plans, err := o.Predict(Context{TaskType: "CONVOLUTION", Profile: dp})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if plans[0].PathName != "FFT-based" {
		t.Fatalf("chosen plan = %q, want FFT-based; plans=%+v", plans[0].PathName, plans)
	}
}

func TestConvolutionSmoothSelectsDirect(t *testing.T) {
	t.Parallel()
	hw := hwprofile.NewSeeded()
	o := New(hw, nil)

	dp := profile.DataProfile{AmplitudeFlux: 1, SpectralCentroid: 0.1, SparsityRatio: 1}
	plans, err := o.Predict(Context{TaskType: "CONVOLUTION", Profile: dp})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if plans[0].PathName != "Direct" {
		t.Fatalf("chosen plan = %q, want Direct; plans=%+v", plans[0].PathName, plans)
	}
}

func TestSAXPYSmallNSelectsStandard(t *testing.T) {
	t.Parallel()
	hw := hwprofile.NewSeeded()
	o := New(hw, nil)

	dp := profile.DataProfile{AmplitudeFlux: 1.2, SparsityRatio: 0.5}
	plans, err := o.Predict(Context{TaskType: "SAXPY", Profile: dp})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if plans[0].PathName != "Standard" {
		t.Fatalf("chosen plan = %q, want Standard; plans=%+v", plans[0].PathName, plans)
	}
}

func TestPredictedCostsAreAscendingAndNonNegative(t *testing.T) {
	t.Parallel()
	hw := hwprofile.NewSeeded()
	o := New(hw, nil)

	dp := profile.DataProfile{AmplitudeFlux: 5, SpectralCentroid: 0.2, SparsityRatio: 0.4}
	plans, err := o.Predict(Context{TaskType: "GEMM", Profile: dp})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	for i, p := range plans {
		if p.PredictedCost < 0 {
			t.Fatalf("plan %d has negative predicted cost %v", i, p.PredictedCost)
		}
		if i > 0 && plans[i-1].PredictedCost > p.PredictedCost {
			t.Fatalf("plans not sorted ascending at index %d", i)
		}
	}
}

func TestNoCandidatePlanForUnknownTaskType(t *testing.T) {
	t.Parallel()
	hw := hwprofile.NewSeeded()
	o := New(hw, nil)

	_, err := o.Predict(Context{TaskType: "UNKNOWN_OP"})
	if err == nil {
		t.Fatalf("expected NoCandidatePlan error")
	}
}

func TestMissingLambdaContributesZero(t *testing.T) {
	t.Parallel()
	hw := hwprofile.New()
	hw.SetBaseCost("CONV_DIRECT", 10)
	o := New(hw, nil)

	dp := profile.DataProfile{AmplitudeFlux: 100, EnvQualityScore: 1}
	plans, err := o.Predict(Context{TaskType: "CONVOLUTION", Profile: dp})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	var direct Plan
	for _, p := range plans {
		if p.PathName == "Direct" {
			direct = p
		}
	}
	if direct.PredictedCost != 10 {
		t.Fatalf("PredictedCost = %v, want 10 (missing lambda contributes zero)", direct.PredictedCost)
	}
}

func TestEnvironmentalMultiplierHighTemperature(t *testing.T) {
	t.Parallel()
	hw := hwprofile.New()
	hw.SetBaseCost("SAXPY_STANDARD", 100)
	o := New(hw, nil)

	cold := profile.DataProfile{EnvTempC: 20, EnvQualityScore: 1}
	hot := profile.DataProfile{EnvTempC: 90, EnvQualityScore: 1}

	coldPlans, _ := o.Predict(Context{TaskType: "SAXPY", Profile: cold})
	hotPlans, _ := o.Predict(Context{TaskType: "SAXPY", Profile: hot})

	var coldStd, hotStd Plan
	for _, p := range coldPlans {
		if p.PathName == "Standard" {
			coldStd = p
		}
	}
	for _, p := range hotPlans {
		if p.PathName == "Standard" {
			hotStd = p
		}
	}
	if hotStd.PredictedCost != coldStd.PredictedCost*1.5 {
		t.Fatalf("hot cost = %v, want %v", hotStd.PredictedCost, coldStd.PredictedCost*1.5)
	}
}

type stubStrategy struct{ plans []Plan }

func (s stubStrategy) ProposePlans(Context) []Plan { return s.plans }

func TestPluggableStrategyAddsCandidates(t *testing.T) {
	t.Parallel()
	hw := hwprofile.New()
	strategy := stubStrategy{plans: []Plan{{PathName: "LLM Special", Steps: nil}}}
	o := New(hw, strategy)

	plans, err := o.Predict(Context{TaskType: "GEMM"})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	found := false
	for _, p := range plans {
		if p.PathName == "LLM Special" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected LLM-proposed plan to appear among candidates: %+v", plans)
	}
}
