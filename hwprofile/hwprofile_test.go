package hwprofile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestUpdateClamping(t *testing.T) {
	t.Parallel()
	p := New()
	p.UpdateBaseCost("OP", 0.2)
	if v, _ := p.BaseCost("OP"); v != minCostFloor {
		t.Fatalf("BaseCost = %v, want floor %v", v, minCostFloor)
	}
	p.UpdateTransformCost("OP", -5)
	if v, _ := p.TransformCost("OP"); v != minCostFloor {
		t.Fatalf("TransformCost = %v, want floor %v", v, minCostFloor)
	}
	p.UpdateSensitivity("lambda_X", -1)
	if v, _ := p.Sensitivity("lambda_X"); v != 0 {
		t.Fatalf("Sensitivity = %v, want 0", v)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	p := NewSeeded()
	dir := t.TempDir()
	path := filepath.Join(dir, "beliefs.yaml")

	if err := p.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	wantBase, wantTransform, wantSens := p.Snapshot()
	gotBase, gotTransform, gotSens := loaded.Snapshot()
	assertMapEqual(t, wantBase, gotBase)
	assertMapEqual(t, wantTransform, gotTransform)
	assertMapEqual(t, wantSens, gotSens)
}

func TestPrintIsPureView(t *testing.T) {
	t.Parallel()
	p := NewSeeded()
	first := p.Print()
	second := p.Print()
	if first != second {
		t.Fatalf("Print() is not stable across calls")
	}
}

func TestApplyCreditWritesOnlyPresentKeys(t *testing.T) {
	t.Parallel()
	p := New()
	p.UpdateTransformCost("TRANSFORM_TIME_TO_FREQ", 200000)

	fired := p.ApplyCredit(CreditUpdate{
		TransformKey: "TRANSFORM_TIME_TO_FREQ",
		TransformFn:  func(current float64) float64 { return current - 1000 },
		BaseKey:      "FFT_FORWARD",
		BaseFn:       func(current float64) float64 { return current + 1 },
	})

	if len(fired) != 1 || fired[0] != "TRANSFORM_TIME_TO_FREQ" {
		t.Fatalf("fired = %v, want only TRANSFORM_TIME_TO_FREQ (FFT_FORWARD absent from baseCost)", fired)
	}
	if _, ok := p.BaseCost("FFT_FORWARD"); ok {
		t.Fatalf("BaseCost(FFT_FORWARD) exists, want ApplyCredit to leave an absent key untouched")
	}
}

func TestApplyCreditIsAtomicAcrossKeys(t *testing.T) {
	t.Parallel()
	p := New()
	p.UpdateBaseCost("EXECUTE_JIT_SAXPY", 70)
	p.UpdateSensitivity("lambda_SAXPY_generic", 0.5)

	fired := p.ApplyCredit(CreditUpdate{
		BaseKey:        "EXECUTE_JIT_SAXPY",
		BaseFn:         func(current float64) float64 { return current + 7 },
		SensitivityKey: "lambda_SAXPY_generic",
		SensitivityFn:  func(current float64) float64 { return current + 0.1 },
	})

	if len(fired) != 2 {
		t.Fatalf("fired = %v, want both keys", fired)
	}
	base, _ := p.BaseCost("EXECUTE_JIT_SAXPY")
	if base != 77 {
		t.Fatalf("BaseCost = %v, want 77", base)
	}
	sens, _ := p.Sensitivity("lambda_SAXPY_generic")
	if sens != 0.6 {
		t.Fatalf("Sensitivity = %v, want 0.6", sens)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	if _, err := Load(filepath.Join(os.TempDir(), "does-not-exist-vpu.yaml")); err == nil {
		t.Fatalf("expected error loading missing file")
	}
}

func assertMapEqual(t *testing.T, want, got map[string]float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("map length mismatch: want %d got %d", len(want), len(got))
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("key %q: want %v got %v", k, v, got[k])
		}
	}
}
