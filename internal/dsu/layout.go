package dsu

// Register-file windowing within one core's DSU diagnostic address space
// (offsets from probe.AddressMap.DSUBaseForCPU). Confirmed against
// leon3_dsu.c's dsu_get_output_reg_addr family: the IU register file window
// starts at DSU_IU_REG and holds NWindows*64 bytes of local+in+out registers
// followed by the 8 globals (8*4 bytes) at offset NWindows*64; the FPU
// register file follows at DSU_FPU_REG.
const (
	iuRegFile  = 0x300000
	fpuRegFile = 0x301000
)

// Per-window register-set offsets from the start of window cwp's 64-byte
// slot: outs at +32, locals at +64, ins at +96. Locals and ins run past
// the slot, so they share addresses with slot cwp+1 (its first 32 bytes
// and its outs), wrapping modulo NWindows*64.
const (
	outRegOffset   = 32
	localRegOffset = 64
	inRegOffset    = 96
	windowSlotSize = 64
)

// Special-purpose register offsets. Not given literally in the retrieved
// .c-only original_source corpus (leon3_dsu.h was filtered out); placed in
// a block starting at 0x400000 because reset() writes its "reset DSU ASI
// register" at DSU_BASE(cpu)+0x400024, putting the special-register area's
// floor at or below that address. Recorded as an open question in
// DESIGN.md.
const (
	regY    = 0x400000
	regPSR  = 0x400004
	regWIM  = 0x400008
	regTBR  = 0x40000C
	regPC   = 0x400010
	regNPC  = 0x400014
	regFSR  = 0x400018
	regCPSR = 0x40001C

	regResetASI = 0x400024
	regDiagASI  = 0x700000
)

// Shared (not per-core) 16-bit bitmask registers, one bit per CPU index,
// living at the global DSU control base rather than any per-core window.
// Offsets within each register block are placeholders for the same reason
// as the special-purpose registers above.
const (
	modeMaskBase    = 0x500000
	enterDebugOff   = 0x0
	noforceDebugOff = 0x2

	breakStepBase = 0x500010
	breakNowOff   = 0x0

	regTrap = 0x40
)

// Instruction trace buffer: a circular ring of 4-word lines, written by
// hardware as instructions retire, drained by dsu.InstTraceBuffer. Offsets
// are placeholders (see DESIGN.md); sizes match the 8-bit write-pointer
// field confirmed in leon3_dsu.c (inst_pointer = ctrl & 0xFF), implying a
// 256-line ring.
const (
	instTraceCtrl     = 0x600000
	instTraceBufStart = 0x600004
	instTraceBufSize  = 256
	instTraceLineSize = 16 // 4 dwords/line
)
