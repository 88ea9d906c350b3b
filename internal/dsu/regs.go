package dsu

import (
	"github.com/juju/errors"

	"github.com/uviespace/uviemon/internal/bridge"
	"github.com/uviespace/uviemon/internal/probe"
)

// Regs is the per-core IU/FPU/special-purpose register file, reached
// through an AHB bus at a family's per-core DSU base address.
type Regs struct {
	bus *bridge.Bus
	amp probe.AddressMap
	cpu int
}

// NewRegs binds a register file to one core.
func NewRegs(bus *bridge.Bus, amp probe.AddressMap, cpu int) *Regs {
	return &Regs{bus: bus, amp: amp, cpu: cpu}
}

func (r *Regs) base() uint32 { return r.amp.DSUBaseForCPU(r.cpu) }

// windowOffset returns the byte offset of window cwp within the IU
// register file's circular NWindows*64-byte span, ported from
// dsu_get_*_reg_addr's "(cwp*64 + fieldOffset + n*4) % (NWindows*64)".
func windowOffset(cwp, field, n int) uint32 {
	return uint32((cwp*windowSlotSize + field + n*4) % (probe.NWindows * windowSlotSize))
}

// OutputRegAddr is the address of register %oN in window cwp.
func (r *Regs) OutputRegAddr(cwp, n int) uint32 {
	return r.base() + iuRegFile + windowOffset(cwp, outRegOffset, n)
}

// LocalRegAddr is the address of register %lN in window cwp.
func (r *Regs) LocalRegAddr(cwp, n int) uint32 {
	return r.base() + iuRegFile + windowOffset(cwp, localRegOffset, n)
}

// InputRegAddr is the address of register %iN in window cwp.
func (r *Regs) InputRegAddr(cwp, n int) uint32 {
	return r.base() + iuRegFile + windowOffset(cwp, inRegOffset, n)
}

// GlobalRegAddr is the address of register %gN, outside the per-window
// span (globals are not banked).
func (r *Regs) GlobalRegAddr(n int) uint32 {
	return r.base() + iuRegFile + uint32(probe.NWindows*windowSlotSize+n*4)
}

func (r *Regs) GetOutput(cwp, n int) (uint32, error) { return r.bus.Read32(r.OutputRegAddr(cwp, n)) }
func (r *Regs) SetOutput(cwp, n int, v uint32) error { return r.bus.Write32(r.OutputRegAddr(cwp, n), v) }

func (r *Regs) GetLocal(cwp, n int) (uint32, error) { return r.bus.Read32(r.LocalRegAddr(cwp, n)) }
func (r *Regs) SetLocal(cwp, n int, v uint32) error { return r.bus.Write32(r.LocalRegAddr(cwp, n), v) }

func (r *Regs) GetInput(cwp, n int) (uint32, error) { return r.bus.Read32(r.InputRegAddr(cwp, n)) }
func (r *Regs) SetInput(cwp, n int, v uint32) error { return r.bus.Write32(r.InputRegAddr(cwp, n), v) }

func (r *Regs) GetGlobal(n int) (uint32, error) { return r.bus.Read32(r.GlobalRegAddr(n)) }
func (r *Regs) SetGlobal(n int, v uint32) error { return r.bus.Write32(r.GlobalRegAddr(n), v) }

// GetSP/GetFP read %o6/%i6, the conventional stack/frame pointers, in
// window cwp.
func (r *Regs) GetSP(cwp int) (uint32, error) { return r.GetOutput(cwp, 6) }
func (r *Regs) GetFP(cwp int) (uint32, error) { return r.GetInput(cwp, 6) }
func (r *Regs) SetSP(cwp int, v uint32) error { return r.SetOutput(cwp, 6, v) }
func (r *Regs) SetFP(cwp int, v uint32) error { return r.SetInput(cwp, 6, v) }

// FloatRegAddr is the address of single-precision register %fN, N in
// [0,31].
func (r *Regs) FloatRegAddr(n int) (uint32, error) {
	if n < 0 || n > 31 {
		return 0, errors.Annotatef(ErrTarget, "float register f%d out of range [0,31]", n)
	}
	return r.base() + fpuRegFile + uint32(n*4), nil
}

func (r *Regs) GetFloat(n int) (uint32, error) {
	addr, err := r.FloatRegAddr(n)
	if err != nil {
		return 0, errors.Trace(err)
	}
	return r.bus.Read32(addr)
}

func (r *Regs) SetFloat(n int, v uint32) error {
	addr, err := r.FloatRegAddr(n)
	if err != nil {
		return errors.Trace(err)
	}
	return r.bus.Write32(addr, v)
}

// DoubleRegAddr is the address of double-precision register %dN, N in
// [0,12], stored past the 32 single registers.
func (r *Regs) DoubleRegAddr(n int) (uint32, error) {
	if n < 0 || n > 12 {
		return 0, errors.Annotatef(ErrTarget, "double register d%d out of range [0,12]", n)
	}
	return r.base() + fpuRegFile + 32*4 + uint32(n*8), nil
}

// GetDouble reads a 64-bit double as two big-endian 32-bit halves: the
// high word at addr, the low word at addr+4, matching leon3_dsu.c's
// ((uint64)ioread32(addr)<<32) + ioread32(addr+4).
func (r *Regs) GetDouble(n int) (uint64, error) {
	addr, err := r.DoubleRegAddr(n)
	if err != nil {
		return 0, errors.Trace(err)
	}
	hi, err := r.bus.Read32(addr)
	if err != nil {
		return 0, errors.Trace(err)
	}
	lo, err := r.bus.Read32(addr + 4)
	if err != nil {
		return 0, errors.Trace(err)
	}
	return uint64(hi)<<32 | uint64(lo), nil
}

func (r *Regs) SetDouble(n int, v uint64) error {
	addr, err := r.DoubleRegAddr(n)
	if err != nil {
		return errors.Trace(err)
	}
	if err := r.bus.Write32(addr, uint32(v>>32)); err != nil {
		return errors.Trace(err)
	}
	return r.bus.Write32(addr+4, uint32(v))
}

// Special-purpose registers: Y, PSR, WIM, TBR, PC, NPC, FSR, CPSR.
func (r *Regs) GetY() (uint32, error)       { return r.bus.Read32(r.base() + regY) }
func (r *Regs) SetY(v uint32) error         { return r.bus.Write32(r.base()+regY, v) }
func (r *Regs) GetPSR() (uint32, error)     { return r.bus.Read32(r.base() + regPSR) }
func (r *Regs) SetPSR(v uint32) error       { return r.bus.Write32(r.base()+regPSR, v) }
func (r *Regs) GetWIM() (uint32, error)     { return r.bus.Read32(r.base() + regWIM) }
func (r *Regs) SetWIM(v uint32) error       { return r.bus.Write32(r.base()+regWIM, v) }
func (r *Regs) GetTBR() (uint32, error)     { return r.bus.Read32(r.base() + regTBR) }
func (r *Regs) SetTBR(v uint32) error       { return r.bus.Write32(r.base()+regTBR, v) }
func (r *Regs) GetPC() (uint32, error)      { return r.bus.Read32(r.base() + regPC) }
func (r *Regs) SetPC(v uint32) error        { return r.bus.Write32(r.base()+regPC, v) }
func (r *Regs) GetNPC() (uint32, error)     { return r.bus.Read32(r.base() + regNPC) }
func (r *Regs) SetNPC(v uint32) error       { return r.bus.Write32(r.base()+regNPC, v) }
func (r *Regs) GetFSR() (uint32, error)     { return r.bus.Read32(r.base() + regFSR) }
func (r *Regs) SetFSR(v uint32) error       { return r.bus.Write32(r.base()+regFSR, v) }
func (r *Regs) GetCPSR() (uint32, error)    { return r.bus.Read32(r.base() + regCPSR) }
func (r *Regs) SetCPSR(v uint32) error      { return r.bus.Write32(r.base()+regCPSR, v) }

// ClearIURegFile zeroes the entire IU register file window for this core:
// (NWindows*(8+8)+8)*4 bytes starting at iuRegFile, matching
// dsu_clear_iu_reg_file.
func (r *Regs) ClearIURegFile() error {
	n := (probe.NWindows*(8+8) + 8) * 4 / 4
	addr := r.base() + iuRegFile
	for i := 0; i < n; i++ {
		if err := r.bus.Write32(addr+uint32(i*4), 0); err != nil {
			return errors.Annotatef(err, "clear IU reg file word %d", i)
		}
	}
	return nil
}

// ResetASI performs the two-step DSU ASI reset the original's reset()
// issues before clearing registers: a reset-DSU-ASI write followed by a
// reset-diagnostic-ASI-access write.
func (r *Regs) ResetASI() error {
	if err := r.bus.Write32(r.base()+regResetASI, 0x00000002); err != nil {
		return errors.Trace(err)
	}
	return r.bus.Write32(r.base()+regDiagASI, 0x00eb800f)
}
