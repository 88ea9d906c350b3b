package dsu

import (
	"testing"

	"github.com/uviespace/uviemon/internal/probe"
)

func TestWindowOffsetWrapsAtNWindowsTimesSlotSize(t *testing.T) {
	got := windowOffset(probe.NWindows, outRegOffset, 0)
	want := windowOffset(0, outRegOffset, 0)
	if got != want {
		t.Errorf("window wrap: got %d, want %d", got, want)
	}
}

func TestOutputLocalInputOffsetsAreDistinctWithinAWindow(t *testing.T) {
	out := windowOffset(0, outRegOffset, 0)
	local := windowOffset(0, localRegOffset, 0)
	in := windowOffset(0, inRegOffset, 0)
	if out == local || local == in || out == in {
		t.Errorf("expected distinct offsets, got out=%d local=%d in=%d", out, local, in)
	}
}

func TestFloatRegAddrRejectsOutOfRange(t *testing.T) {
	r := &Regs{}
	if _, err := r.FloatRegAddr(32); err == nil {
		t.Error("expected error for f32")
	}
	if _, err := r.FloatRegAddr(31); err != nil {
		t.Errorf("f31 should be valid: %s", err)
	}
}

func TestDoubleRegAddrRejectsOutOfRange(t *testing.T) {
	r := &Regs{}
	if _, err := r.DoubleRegAddr(13); err == nil {
		t.Error("expected error for d13")
	}
	if _, err := r.DoubleRegAddr(12); err != nil {
		t.Errorf("d12 should be valid: %s", err)
	}
}

func TestDoubleRegAddrPastTheSingleRegisterFile(t *testing.T) {
	r := &Regs{}
	f31, _ := r.FloatRegAddr(31)
	d0, _ := r.DoubleRegAddr(0)
	if d0 <= f31 {
		t.Errorf("expected d0 (0x%x) to land after f31 (0x%x)", d0, f31)
	}
}

func TestTrapDescriptionKnownAndUnknown(t *testing.T) {
	if got, want := TrapDescription(0x80), "trap_instruction_ok"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := TrapDescription(0x2B), "write_error"; got != want {
		t.Errorf("0x2B ambiguity should resolve to the hardware entry: got %q, want %q", got, want)
	}
	if got, want := TrapDescription(0xFF), "unknown"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDSUBaseForCPUScalesByStride(t *testing.T) {
	m := probe.LEON3.Map()
	if got, want := m.DSUBaseForCPU(1), m.DSUBase+probe.DSUCoreStride; got != want {
		t.Errorf("got 0x%x, want 0x%x", got, want)
	}
	if got, want := m.DSUBaseForCPU(0), m.DSUBase; got != want {
		t.Errorf("cpu 0 should sit at the bare base: got 0x%x, want 0x%x", got, want)
	}
}

func TestDSUBaseForCPUMatchesDocumentedStride(t *testing.T) {
	m := probe.LEON3.Map()
	if got, want := m.DSUBaseForCPU(1), m.DSUBase+0x100000; got != want {
		t.Errorf("got 0x%x, want 0x%x (dsu_start + c*0x100000)", got, want)
	}
}

func TestRunStatusString(t *testing.T) {
	if got, want := Completed.String(), "completed"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := Crashed.String(), "crashed"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
