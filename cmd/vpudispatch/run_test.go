package main

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeFloat64s(t *testing.T, values []float64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payload.bin")
	buf := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestBuildTaskConvolutionSizesOutFromPayload(t *testing.T) {
	path := writeFloat64s(t, []float64{1, 2, 3, 4})

	tk, err := buildTask("CONVOLUTION", path, 1.0, 0)
	if err != nil {
		t.Fatalf("buildTask() error = %v", err)
	}
	if tk.NumElem != 4 {
		t.Fatalf("NumElem = %d, want 4", tk.NumElem)
	}
	if len(tk.Out) != 32 {
		t.Fatalf("len(Out) = %d, want 32", len(tk.Out))
	}
}

func TestBuildTaskSAXPYCarriesScalarParam(t *testing.T) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf, math.Float32bits(1))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(2))
	path := filepath.Join(t.TempDir(), "x.bin")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tk, err := buildTask("SAXPY", path, 2.5, 0)
	if err != nil {
		t.Fatalf("buildTask() error = %v", err)
	}
	if tk.NumElem != 2 {
		t.Fatalf("NumElem = %d, want 2", tk.NumElem)
	}
	a, ok := tk.Params["a"].(float32)
	if !ok || a != 2.5 {
		t.Fatalf("Params[a] = %v, want float32(2.5)", tk.Params["a"])
	}
}

func TestBuildTaskRejectsUnknownOp(t *testing.T) {
	path := writeFloat64s(t, []float64{1})
	if _, err := buildTask("QUANTIZE", path, 1.0, 0); err == nil {
		t.Fatal("expected error for unknown op")
	}
}

func TestBuildTaskRejectsMisalignedPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odd.bin")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := buildTask("CONVOLUTION", path, 1.0, 0); err == nil {
		t.Fatal("expected error for misaligned float64 payload")
	}
}

func TestBuildTaskElemOverrideWins(t *testing.T) {
	path := writeFloat64s(t, []float64{1, 2, 3, 4})
	tk, err := buildTask("GEMM", path, 1.0, 2)
	if err != nil {
		t.Fatalf("buildTask() error = %v", err)
	}
	if tk.NumElem != 2 {
		t.Fatalf("NumElem = %d, want override 2", tk.NumElem)
	}
}

func TestLoadOrSeedProfileMissingFileFallsBackToSeeded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	hw, err := loadOrSeedProfile(path)
	if err != nil {
		t.Fatalf("loadOrSeedProfile() error = %v", err)
	}
	if hw == nil {
		t.Fatal("loadOrSeedProfile() returned nil profile")
	}
}

func TestLoadOrSeedProfileEmptyPathSeeds(t *testing.T) {
	hw, err := loadOrSeedProfile("")
	if err != nil {
		t.Fatalf("loadOrSeedProfile() error = %v", err)
	}
	if hw == nil {
		t.Fatal("loadOrSeedProfile() returned nil profile")
	}
}
