package profile

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/sbl8/vpudispatch/sensor"
	"github.com/sbl8/vpudispatch/task"
)

func float64sToBytes(vals []float64) []byte {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func TestHammingWeightAndSparsity(t *testing.T) {
	t.Parallel()
	tsk := &task.Task{InA: []byte{0x01, 0xF0, 0x03, 0xFF}}
	p := New(nil, "dev0")
	dp := p.Analyse(tsk)

	if dp.HammingWeight != 15 {
		t.Fatalf("HammingWeight = %d, want 15", dp.HammingWeight)
	}
	want := 1 - 15.0/32.0
	if math.Abs(dp.SparsityRatio-want) > 1e-9 {
		t.Fatalf("SparsityRatio = %v, want %v", dp.SparsityRatio, want)
	}
}

func TestAmplitudeFluxSmoothVsSpiky(t *testing.T) {
	t.Parallel()
	smooth := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	spiky := []float64{0, 0, 100, -100, 0, 0, 100, -100, 0, 0}

	p := New(nil, "dev0")
	smoothProfile := p.Analyse(&task.Task{InA: float64sToBytes(smooth)})
	spikyProfile := p.Analyse(&task.Task{InA: float64sToBytes(spiky)})

	if smoothProfile.AmplitudeFlux != 1.0 {
		t.Fatalf("smooth AmplitudeFlux = %v, want 1.0", smoothProfile.AmplitudeFlux)
	}
	if spikyProfile.AmplitudeFlux <= smoothProfile.AmplitudeFlux {
		t.Fatalf("expected spiky flux %v > smooth flux %v", spikyProfile.AmplitudeFlux, smoothProfile.AmplitudeFlux)
	}
}

func TestSpectralFeaturesBinCount(t *testing.T) {
	t.Parallel()
	samples := []float64{1, 2, 3, 4, 5}
	magnitudes := realFFTMagnitudes(samples)
	wantBins := len(samples)/2 + 1
	if len(magnitudes) != wantBins {
		t.Fatalf("bin count = %d, want %d", len(magnitudes), wantBins)
	}
}

func TestSpectralFeaturesZeroBelowEpsilon(t *testing.T) {
	t.Parallel()
	samples := []float64{0, 0, 0, 0}
	centroid, entropy := spectralFeatures(samples, len(samples))
	if centroid != 0 || entropy != 0 {
		t.Fatalf("zero signal should yield 0,0 got %v,%v", centroid, entropy)
	}
}

func TestSingleElementBufferNeverPanics(t *testing.T) {
	t.Parallel()
	p := New(nil, "dev0")
	dp := p.Analyse(&task.Task{InA: float64sToBytes([]float64{42})})
	if dp.AmplitudeFlux != 0 {
		t.Fatalf("single sample AmplitudeFlux = %v, want 0", dp.AmplitudeFlux)
	}
}

func TestEnvironmentDefaultsWhenSensorNil(t *testing.T) {
	t.Parallel()
	p := New(nil, "dev0")
	dp := p.Analyse(&task.Task{})
	if dp.EnvPowerWatts != sensor.Defaults.CurrentWatts {
		t.Fatalf("EnvPowerWatts = %v, want default %v", dp.EnvPowerWatts, sensor.Defaults.CurrentWatts)
	}
}

func TestEnvironmentOneShotOverride(t *testing.T) {
	t.Parallel()
	stub := sensor.NewFixedStub()
	stub.OverrideNext(sensor.Reading{CurrentWatts: 999, Score: 0.5})
	p := New(stub, "dev0")

	dp := p.Analyse(&task.Task{})
	if dp.EnvPowerWatts != 999 {
		t.Fatalf("EnvPowerWatts = %v, want 999 for overridden call", dp.EnvPowerWatts)
	}

	dp2 := p.Analyse(&task.Task{})
	if dp2.EnvPowerWatts != sensor.Defaults.CurrentWatts {
		t.Fatalf("override should be one-shot, got %v on second call", dp2.EnvPowerWatts)
	}
}

func TestSensorErrorIsSoft(t *testing.T) {
	t.Parallel()
	p := New(erroringSensor{}, "dev0")
	dp := p.Analyse(&task.Task{})
	if dp.EnvPowerWatts != sensor.Defaults.CurrentWatts {
		t.Fatalf("erroring sensor should fall back to defaults")
	}
	if p.SoftErrorCount() != 1 {
		t.Fatalf("SoftErrorCount() = %d, want 1", p.SoftErrorCount())
	}
}

type erroringSensor struct{}

func (erroringSensor) GetDeviceStatus(string) (sensor.Reading, error) {
	return sensor.Reading{}, errBoom
}

var errBoom = simpleErr("boom")

type simpleErr string

func (e simpleErr) Error() string { return string(e) }
