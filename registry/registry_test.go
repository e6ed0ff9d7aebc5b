package registry

import (
	"testing"

	"github.com/sbl8/vpudispatch/task"
)

func TestInstallIfAbsentIdempotent(t *testing.T) {
	t.Parallel()
	r := New()
	calls := 0
	fn := func(t *task.Task) FluxReport { calls++; return FluxReport{} }

	if !r.InstallIfAbsent("FUSED_A_B", fn) {
		t.Fatalf("first install should succeed")
	}
	if r.InstallIfAbsent("FUSED_A_B", fn) {
		t.Fatalf("second install should be a no-op")
	}
	if !r.Contains("FUSED_A_B") {
		t.Fatalf("registry should contain FUSED_A_B")
	}
}

func TestFluxReportHolistic(t *testing.T) {
	t.Parallel()
	r := FluxReport{CycleCost: 10, HWInCost: 2, HWOutCost: 3}
	if r.Holistic() != 15 {
		t.Fatalf("Holistic() = %d, want 15", r.Holistic())
	}
	var acc FluxReport
	acc.Add(r)
	acc.Add(r)
	if acc.Holistic() != 30 {
		t.Fatalf("accumulated Holistic() = %d, want 30", acc.Holistic())
	}
}
