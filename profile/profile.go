// Package profile implements the Profiler: a pure function from a task's
// data payload to a DataProfile, plus the environmental fields it blends in
// from the pluggable sensor collaborator.
//
// The spectral analysis computes a real-to-complex transform with a direct
// O(N^2) summation instead of an FFT library, treating the transform itself
// as an external numeric primitive rather than committing to one algorithm.
// The direct summation produces the same magnitude spectrum an FFT would, up
// to floating-point rounding, just without the O(N log N) speedup, which is
// fine here since
// this repo profiles individual task buffers, not bulk signal processing.
package profile

import (
	"math"

	"github.com/sbl8/vpudispatch/sensor"
	"github.com/sbl8/vpudispatch/task"
)

const magnitudeEpsilon = 1e-9

// DataProfile is the immutable feature vector the Orchestrator predicts
// cost against.
type DataProfile struct {
	AmplitudeFlux     float64
	SpectralCentroid  float64
	SpectralEntropy   float64
	HammingWeight     uint64
	SparsityRatio     float64
	EnvPowerWatts     float64
	EnvTempC          float64
	EnvLatencyMs      float64
	EnvBandwidthMbps  float64
	EnvThroughputMbps float64
	EnvQualityScore   float64
}

// Profiler is an analyzer whose only state is a soft-error counter; apart
// from that it owns a reference to the pluggable environmental sensor, which
// itself never fails hard.
type Profiler struct {
	Sensor   sensor.EnvironmentSensor
	DeviceID string
	errCount int
}

// New constructs a Profiler backed by sensor for deviceID. A nil sensor is
// valid and always yields sensor.Defaults.
func New(s sensor.EnvironmentSensor, deviceID string) *Profiler {
	return &Profiler{Sensor: s, DeviceID: deviceID}
}

// SoftErrorCount returns how many times the sensor returned an error and
// defaults were substituted. Never fatal; exposed for metrics wiring.
func (p *Profiler) SoftErrorCount() int { return p.errCount }

// Analyse computes a DataProfile from t. Never panics or returns an error:
// on any null/empty buffer or sensor failure it substitutes documented
// defaults. Only sensor errors are counted; empty buffers are not.
func (p *Profiler) Analyse(t *task.Task) DataProfile {
	samples := t.AsFloat64A()
	n := len(samples)

	var out DataProfile
	out.AmplitudeFlux = amplitudeFlux(samples)
	out.SpectralCentroid, out.SpectralEntropy = spectralFeatures(samples, n)
	out.HammingWeight = t.HammingWeightA()
	out.SparsityRatio = sparsityRatio(out.HammingWeight, len(t.InA))

	reading := p.environmentReading()
	out.EnvPowerWatts = reading.CurrentWatts
	out.EnvTempC = reading.CurrentTempC
	out.EnvLatencyMs = reading.LatencyMs
	out.EnvBandwidthMbps = reading.BandwidthMbps
	out.EnvThroughputMbps = reading.ThroughputMbps
	out.EnvQualityScore = reading.Score

	return out
}

func (p *Profiler) environmentReading() sensor.Reading {
	if p == nil || p.Sensor == nil {
		return sensor.Defaults
	}
	reading, err := p.Sensor.GetDeviceStatus(p.DeviceID)
	if err != nil {
		p.errCount++
		return sensor.Defaults
	}
	return reading
}

// amplitudeFlux is the mean absolute successive difference; 0 when N<2.
func amplitudeFlux(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	sum := 0.0
	for i := 1; i < len(samples); i++ {
		sum += math.Abs(samples[i] - samples[i-1])
	}
	return sum / float64(len(samples)-1)
}

// spectralFeatures computes the spectral centroid and normalized spectral
// entropy over the real-to-complex DFT of samples. Returns 0,0 when N<2 or
// the magnitude sum is negligible.
func spectralFeatures(samples []float64, n int) (centroid, entropy float64) {
	if n < 2 {
		return 0, 0
	}
	magnitudes := realFFTMagnitudes(samples)
	binCount := len(magnitudes)

	total := 0.0
	for _, m := range magnitudes {
		total += m
	}
	if total < magnitudeEpsilon {
		return 0, 0
	}

	weightedFreq := 0.0
	for k, m := range magnitudes {
		weightedFreq += (float64(k) / float64(n)) * m
	}
	centroid = weightedFreq / total

	ent := 0.0
	for _, m := range magnitudes {
		pk := m / total
		if pk > magnitudeEpsilon {
			ent -= pk * math.Log2(pk)
		}
	}
	if binCount > 1 {
		entropy = ent / math.Log2(float64(binCount))
	}
	return centroid, entropy
}

// realFFTMagnitudes computes the magnitude spectrum of the real-to-complex
// DFT over samples, returning exactly floor(N/2)+1 bins.
func realFFTMagnitudes(samples []float64) []float64 {
	n := len(samples)
	binCount := n/2 + 1
	magnitudes := make([]float64, binCount)
	for k := 0; k < binCount; k++ {
		var re, im float64
		for i, x := range samples {
			angle := -2 * math.Pi * float64(k) * float64(i) / float64(n)
			s, c := math.Sincos(angle)
			re += x * c
			im += x * s
		}
		magnitudes[k] = math.Hypot(re, im)
	}
	return magnitudes
}

// sparsityRatio = 1 - hammingWeight/(8*byteLength); must lie in [0,1].
func sparsityRatio(hammingWeight uint64, byteLength int) float64 {
	if byteLength == 0 {
		return 1
	}
	totalBits := float64(8 * byteLength)
	ratio := 1 - float64(hammingWeight)/totalBits
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}
