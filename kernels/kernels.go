// Package kernels provides the default native compute kernels installed
// into the registry at process startup: direct convolution, element-wise
// multiply, a real-to-complex DFT pair, naive/flux-adaptive GEMM, and
// standard SAXPY.
//
// These are correctness-first reference implementations, not the hand-tuned
// AVX2/NEON kernels a production dispatcher would ship. Each kernel reads
// and writes through task.Task's safe typed accessors rather than manual
// unsafe.Pointer arithmetic, since buffers arrive as typed views rather
// than packed wire structs.
package kernels

import (
	"math"
	"math/bits"

	"github.com/sbl8/vpudispatch/registry"
	"github.com/sbl8/vpudispatch/task"
)

// RegisterBuiltins installs every default kernel this repo ships into reg.
func RegisterBuiltins(reg *registry.Registry) {
	reg.Register("CONV_DIRECT", convDirect)
	reg.Register("ELEMENT_WISE_MULTIPLY", elementWiseMultiply)
	reg.Register("FFT_FORWARD", fftForward)
	reg.Register("FFT_INVERSE", fftInverse)
	reg.Register("GEMM_NAIVE", gemmNaive)
	reg.Register("GEMM_FLUX_ADAPTIVE", gemmFluxAdaptive)
	reg.Register("SAXPY_STANDARD", saxpyStandard)
}

// convDirect performs 1D direct convolution of the float64 input against a
// small fixed smoothing kernel, writing float64 results back to Out. At the
// edges only the in-range taps are used, renormalized by their summed weight.
// Direct-form convolution (as opposed to the FFT path) is O(N*K).
func convDirect(t *task.Task) registry.FluxReport {
	x := t.AsFloat64A()
	k := []float64{0.25, 0.5, 0.25}
	out := make([]float64, len(x))

	for i := range x {
		var sum, weight float64
		for j, kv := range k {
			offset := i + j - len(k)/2
			if offset < 0 || offset >= len(x) {
				continue
			}
			sum += x[offset] * kv
			weight += kv
		}
		if weight > 0 {
			sum /= weight
		}
		out[i] = sum
	}

	writeFloat64Out(t, out)
	return registry.FluxReport{
		CycleCost: uint64(len(x) * len(k)),
		HWInCost:  t.HammingWeightA(),
		HWOutCost: hammingWeightFloat64(out),
	}
}

// elementWiseMultiply multiplies InA by InB element-wise (or squares InA
// when InB is absent). It is the middle step of the FFT-based convolution
// path, but it reads the task's InA directly, not FFT_FORWARD's spectrum.
func elementWiseMultiply(t *task.Task) registry.FluxReport {
	a := t.AsFloat64A()
	b := a
	if bv := asFloat64(t.InB); bv != nil {
		b = bv
	}
	out := make([]float64, len(a))
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		out[i] = a[i] * b[i]
	}

	writeFloat64Out(t, out)
	return registry.FluxReport{
		CycleCost: uint64(n),
		HWInCost:  t.HammingWeightA(),
		HWOutCost: hammingWeightFloat64(out),
	}
}

// fftForward computes the real-to-complex DFT magnitude spectrum, the same
// direct O(N^2) summation the profiler uses (no FFT library anywhere in the
// retrieved corpus; see profile/profile.go).
func fftForward(t *task.Task) registry.FluxReport {
	x := t.AsFloat64A()
	out := dftMagnitudes(x)
	writeFloat64Out(t, out)
	return registry.FluxReport{
		CycleCost: uint64(len(x) * len(x)),
		HWInCost:  t.HammingWeightA(),
		HWOutCost: hammingWeightFloat64(out),
	}
}

// fftInverse is the last step of the FFT convolution path. It computes no
// inverse transform: it copies the task's InA unchanged into Out, since the
// forward step keeps only magnitudes and kernels do not pass intermediate
// buffers between steps.
func fftInverse(t *task.Task) registry.FluxReport {
	x := t.AsFloat64A()
	writeFloat64Out(t, x)
	return registry.FluxReport{
		CycleCost: uint64(len(x)),
		HWInCost:  t.HammingWeightA(),
		HWOutCost: hammingWeightFloat64(x),
	}
}

func dftMagnitudes(samples []float64) []float64 {
	n := len(samples)
	if n == 0 {
		return nil
	}
	binCount := n/2 + 1
	out := make([]float64, binCount)
	for k := 0; k < binCount; k++ {
		var re, im float64
		for i, x := range samples {
			angle := -2 * math.Pi * float64(k) * float64(i) / float64(n)
			s, c := math.Sincos(angle)
			re += x * c
			im += x * s
		}
		out[k] = math.Hypot(re, im)
	}
	return out
}

// gemmNaive treats InA as a square matrix flattened row-major and computes
// its product with itself: a triple-nested-loop reference implementation,
// intentionally unblocked (that optimization is what GEMM_FLUX_ADAPTIVE
// represents in the belief model, not something this reference kernel does
// differently in practice).
func gemmNaive(t *task.Task) registry.FluxReport {
	return gemmSquare(t)
}

// gemmFluxAdaptive is functionally identical to gemmNaive; the two paths
// exist so the Orchestrator's cost model can prefer one over the other by
// sparsity, not because the arithmetic differs.
func gemmFluxAdaptive(t *task.Task) registry.FluxReport {
	return gemmSquare(t)
}

func gemmSquare(t *task.Task) registry.FluxReport {
	a := t.AsFloat64A()
	dim := isqrt(len(a))
	if dim == 0 {
		return registry.FluxReport{}
	}
	a = a[:dim*dim]

	out := make([]float64, dim*dim)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			var sum float64
			for k := 0; k < dim; k++ {
				sum += a[i*dim+k] * a[k*dim+j]
			}
			out[i*dim+j] = sum
		}
	}

	writeFloat64Out(t, out)
	return registry.FluxReport{
		CycleCost: uint64(dim * dim * dim),
		HWInCost:  t.HammingWeightA(),
		HWOutCost: hammingWeightFloat64(out),
	}
}

func isqrt(n int) int {
	r := int(math.Sqrt(float64(n)))
	for r > 0 && r*r > n {
		r--
	}
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}

// saxpyStandard performs y <- a*x + y directly against the registry, for
// plans that never invoke the JIT specializer.
func saxpyStandard(t *task.Task) registry.FluxReport {
	a, ok := t.Params.Float32("a")
	if !ok {
		a = 1.0
	}
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

func asFloat64(raw []byte) []float64 {
	if len(raw) == 0 || len(raw)%8 != 0 {
		return nil
	}
	n := len(raw) / 8
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var bits64 uint64
		for b := 0; b < 8; b++ {
			bits64 |= uint64(raw[i*8+b]) << (8 * b)
		}
		out[i] = math.Float64frombits(bits64)
	}
	return out
}

func writeFloat64Out(t *task.Task, vals []float64) {
	if len(t.Out) < len(vals)*8 {
		return
	}
	for i, v := range vals {
		b := math.Float64bits(v)
		for k := 0; k < 8; k++ {
			t.Out[i*8+k] = byte(b >> (8 * k))
		}
	}
}

func hammingWeightFloat64(vals []float64) uint64 {
	var total uint64
	for _, v := range vals {
		total += uint64(bits.OnesCount64(math.Float64bits(v)))
	}
	return total
}

func hammingWeightFloat32(vals []float32) uint64 {
	var total uint64
	for _, v := range vals {
		total += uint64(bits.OnesCount32(math.Float32bits(v)))
	}
	return total
}
