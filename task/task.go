// Package task defines the wire shape submitted to the dispatcher and the
// concrete payload variants it can carry.
//
// The original submission API treated every buffer as an untyped pointer
// with a companion byte length. Rather than carry that pattern into Go as
// unsafe.Pointer plus a manual cast at every consumer, Task keeps raw byte
// slices and exposes typed accessors (AsFloat64A, AsFloat32A, AsFloat32Out)
// that copy them into little-endian float slices and return nil when a
// buffer is not a whole number of elements. There is no per-operation
// payload type, and Validate does not check buffer shapes.
package task

import (
	"math"
	"math/bits"
)

// KernelKind distinguishes a task's executable payload: either a Go callable
// registered by name, or an opaque binary module shipped alongside the task.
type KernelKind uint8

const (
	// KernelNative means the operation is resolved through the KernelRegistry by name.
	KernelNative KernelKind = iota
	// KernelOpaqueBinary means the operation ships as an opaque compiled module.
	KernelOpaqueBinary
)

func (k KernelKind) String() string {
	if k == KernelOpaqueBinary {
		return "OPAQUE_BINARY"
	}
	return "NATIVE"
}

// OpaqueModule is the binary payload carried by an OPAQUE_BINARY kernel variant.
// This repo never executes opaque modules directly; it is retained purely
// as a wire shape a native KernelFn implementation may choose to interpret.
type OpaqueModule struct {
	Bytes      []byte
	ByteLength int
}

// ParamBag is the task-specific parameter variant (e.g. {"a": float32(2.5)} for SAXPY).
type ParamBag map[string]any

// Float32 fetches a float32 parameter, returning ok=false on absence or wrong shape.
func (p ParamBag) Float32(key string) (float32, bool) {
	if p == nil {
		return 0, false
	}
	v, present := p[key]
	if !present {
		return 0, false
	}
	switch f := v.(type) {
	case float32:
		return f, true
	case float64:
		return float32(f), true
	default:
		return 0, false
	}
}

// Task is the unit of work submitted to the dispatcher.
//
// data_in_b_size_bytes and a handful of other legacy wire fields are kept on
// this struct but never consumed by the hot path (see DESIGN.md). Do not
// infer new semantics for them.
type Task struct {
	ID       uint64
	OpName   string
	Kernel   KernelKind
	Opaque   OpaqueModule // populated only when Kernel == KernelOpaqueBinary
	InA      []byte       // data_in_a
	InB      []byte       // data_in_b, optional
	InBBytes int          // data_in_b_size_bytes: unused by the hot path, kept for wire compatibility
	Out      []byte       // data_out
	NumElem  uint64       // num_elements
	Params   ParamBag     // specific_params
}

// ByteLenA returns the byte length of the first input buffer.
func (t *Task) ByteLenA() int { return len(t.InA) }

// AsFloat64A reinterprets InA as a slice of float64 samples for spectral analysis.
// Returns nil when the buffer is empty or not a whole multiple of 8 bytes.
func (t *Task) AsFloat64A() []float64 {
	if t == nil || len(t.InA) == 0 || len(t.InA)%8 != 0 {
		return nil
	}
	n := len(t.InA) / 8
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var bits64 uint64
		for b := 0; b < 8; b++ {
			bits64 |= uint64(t.InA[i*8+b]) << (8 * b)
		}
		out[i] = math.Float64frombits(bits64)
	}
	return out
}

// AsFloat32A reinterprets InA as a slice of float32 samples (e.g. SAXPY's x vector).
func (t *Task) AsFloat32A() []float32 {
	if t == nil || len(t.InA) == 0 || len(t.InA)%4 != 0 {
		return nil
	}
	n := len(t.InA) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		var bits32 uint32
		for b := 0; b < 4; b++ {
			bits32 |= uint32(t.InA[i*4+b]) << (8 * b)
		}
		out[i] = math.Float32frombits(bits32)
	}
	return out
}

// AsFloat32Out reinterprets Out as a slice of float32 samples (e.g. SAXPY's y vector).
func (t *Task) AsFloat32Out() []float32 {
	if t == nil || len(t.Out) == 0 || len(t.Out)%4 != 0 {
		return nil
	}
	n := len(t.Out) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		var bits32 uint32
		for b := 0; b < 4; b++ {
			bits32 |= uint32(t.Out[i*4+b]) << (8 * b)
		}
		out[i] = math.Float32frombits(bits32)
	}
	return out
}

// WriteFloat32Out writes vals back into Out as little-endian float32s.
func (t *Task) WriteFloat32Out(vals []float32) {
	if t == nil || len(t.Out) < len(vals)*4 {
		return
	}
	for i, v := range vals {
		b := math.Float32bits(v)
		for k := 0; k < 4; k++ {
			t.Out[i*4+k] = byte(b >> (8 * k))
		}
	}
}

// HammingWeightA returns the popcount over the raw bytes of InA.
func (t *Task) HammingWeightA() uint64 {
	var total uint64
	for _, b := range t.InA {
		total += uint64(bits.OnesCount8(b))
	}
	return total
}

// Validate applies the Dispatcher's precondition checks: non-empty
// operation name, kernel variant consistent with declared type, output
// buffer non-null when element count > 0.
func (t *Task) Validate() error {
	if t == nil {
		return errTaskNil
	}
	if t.OpName == "" {
		return errEmptyOpName
	}
	if t.Kernel == KernelOpaqueBinary && len(t.Opaque.Bytes) == 0 {
		return errOpaqueEmpty
	}
	if t.NumElem > 0 && t.Out == nil {
		return errOutputNil
	}
	return nil
}

var (
	errTaskNil     = simpleErr("task is nil")
	errEmptyOpName = simpleErr("task operation name is empty")
	errOpaqueEmpty = simpleErr("opaque binary kernel has no bytes")
	errOutputNil   = simpleErr("output buffer is nil for a task with non-zero element count")
)

type simpleErr string

func (e simpleErr) Error() string { return string(e) }
