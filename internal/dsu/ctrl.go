package dsu

import (
	"github.com/uviespace/uviemon/internal/bridge"
	"github.com/uviespace/uviemon/internal/probe"
)

// Control register bit positions, confirmed from leon3_dsu.c for DM/PE/HL
// ((ctrl&DM)>>6 etc.); BE/BW/BS/BX/BZ/TE positions are not given literally
// in the retrieved corpus (leon3_dsu.h was filtered out of original_source)
// and follow the standard GRLIB DSU control register layout documented in
// DESIGN.md as an assumption.
const (
	ctrlTE = 1 << 0
	ctrlBZ = 1 << 1
	ctrlBS = 1 << 2
	ctrlBX = 1 << 3
	ctrlBW = 1 << 4
	ctrlBE = 1 << 5
	ctrlDM = 1 << 6
	ctrlPE = 1 << 9
	ctrlHL = 1 << 10
)

// Ctrl is one core's DSU control register, which lives at the per-core
// DSU base address itself (offset 0), plus the handful of shared
// (not-per-core) bitmask registers that gate it.
type Ctrl struct {
	bus *bridge.Bus
	amp probe.AddressMap
	cpu int
}

func NewCtrl(bus *bridge.Bus, amp probe.AddressMap, cpu int) *Ctrl {
	return &Ctrl{bus: bus, amp: amp, cpu: cpu}
}

func (c *Ctrl) base() uint32 { return c.amp.DSUBaseForCPU(c.cpu) }

func (c *Ctrl) Get() (uint32, error) { return c.bus.Read32(c.base()) }

func (c *Ctrl) set(bits uint32) error {
	v, err := c.Get()
	if err != nil {
		return err
	}
	return c.bus.Write32(c.base(), v|bits)
}

func (c *Ctrl) clear(bits uint32) error {
	v, err := c.Get()
	if err != nil {
		return err
	}
	return c.bus.Write32(c.base(), v&^bits)
}

func (c *Ctrl) InDebugMode() (bool, error) {
	v, err := c.Get()
	if err != nil {
		return false, err
	}
	return v&ctrlDM != 0, nil
}

func (c *Ctrl) SetHaltOnError() error   { return c.set(ctrlHL) }
func (c *Ctrl) ClearHaltOnError() error { return c.clear(ctrlHL) }

func (c *Ctrl) SetBreakOnIUWatchpoint() error   { return c.set(ctrlBW) }
func (c *Ctrl) ClearBreakOnIUWatchpoint() error { return c.clear(ctrlBW) }

func (c *Ctrl) SetErrorMode() error   { return c.set(ctrlBE) }
func (c *Ctrl) ClearErrorMode() error { return c.clear(ctrlBE) }

// sharedBitRMW does a read-modify-write of a single bit within a shared
// 16-bit register addressed relative to the global DSU base (cpu 0's base
// address), one bit per CPU index — these registers are not scaled by
// DSUCoreStride.
func (c *Ctrl) sharedBitRMW(regBase uint32, fieldOff uint32, set bool) error {
	addr := c.amp.DSUBase + regBase + fieldOff
	v, err := c.bus.Read16(addr)
	if err != nil {
		return err
	}
	bit := uint16(1) << uint(c.cpu)
	if set {
		v |= bit
	} else {
		v &^= bit
	}
	return c.bus.Write16(addr, v)
}

func (c *Ctrl) SetForceEnterDebugMode() error   { return c.sharedBitRMW(modeMaskBase, enterDebugOff, true) }
func (c *Ctrl) ClearForceEnterDebugMode() error { return c.sharedBitRMW(modeMaskBase, enterDebugOff, false) }

func (c *Ctrl) SetNoforceDebugMode() error   { return c.sharedBitRMW(modeMaskBase, noforceDebugOff, true) }
func (c *Ctrl) ClearNoforceDebugMode() error { return c.sharedBitRMW(modeMaskBase, noforceDebugOff, false) }

func (c *Ctrl) SetForceDebugOnWatchpoint() error {
	return c.sharedBitRMW(breakStepBase, breakNowOff, true)
}
func (c *Ctrl) ClearForceDebugOnWatchpoint() error {
	return c.sharedBitRMW(breakStepBase, breakNowOff, false)
}

// GetTrap reads the trap-type register. Ported verbatim from
// dsu_get_reg_trap, which reads DSU_CTRL+DSU_REG_TRAP — the GLOBAL base,
// not this core's DSU_BASE(cpu) — so on real multi-core hardware this
// always reports CPU0's last trap regardless of which core's Ctrl it's
// called on. Kept as-is rather than "fixed"; see DESIGN.md.
func (c *Ctrl) GetTrap() (uint32, error) {
	return c.bus.Read32(c.amp.DSUBase + regTrap)
}
