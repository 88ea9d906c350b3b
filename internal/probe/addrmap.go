package probe

import "strings"

// Family identifies a supported LEON processor family. The address map of
// on-chip peripherals (UART0, DSU, SDRAM) differs between them.
type Family int

const (
	LEON3 Family = iota
	LEON4
)

func (f Family) String() string {
	switch f {
	case LEON3:
		return "leon3"
	case LEON4:
		return "leon4"
	default:
		return "unknown"
	}
}

// ParseFamily accepts the CLI/config spellings "leon3"/"leon4" (case
// insensitive).
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(s) {
	case "leon3":
		return LEON3, nil
	case "leon4":
		return LEON4, nil
	default:
		return 0, errInvalidFamily(s)
	}
}

// AddressMap gives the fixed base addresses of the peripherals the monitor
// touches directly. Ported from address_map.h's ADDRESSES table: indices
// are per family, values differ because LEON3 (GR712RC eval layout) and
// LEON4 (GR740-style layout) place DSU and UART0 at different AHB offsets.
type AddressMap struct {
	SDRAMStart uint32
	UART0Start uint32
	DSUBase    uint32
	WakeState  uint32
}

var addressMaps = map[Family]AddressMap{
	LEON3: {
		SDRAMStart: 0x40000000,
		UART0Start: 0x80000100,
		DSUBase:    0x90000000,
		WakeState:  0x80000210,
	},
	LEON4: {
		SDRAMStart: 0x40000000,
		UART0Start: 0xFF900000,
		DSUBase:    0xE0000000,
		WakeState:  0xFF904010,
	},
}

// NWindows is the SPARC-V8 register window count implemented by the
// GR712RC's LEON3FT core (and assumed for LEON4 targets here, absent a
// distinct value in the retrieved sources).
const NWindows = 8

// DSUCoreStride is the per-core offset within the DSU diagnostic address
// space: core i's DSU registers live at DSUBase + i*DSUCoreStride.
const DSUCoreStride = 0x100000

// DSUBaseForCPU returns the per-core DSU base address.
func (m AddressMap) DSUBaseForCPU(cpu int) uint32 {
	return m.DSUBase + uint32(cpu)*DSUCoreStride
}

// Map returns the address map for a family. Families are validated at
// ParseFamily/Open time, so this never fails.
func (f Family) Map() AddressMap {
	return addressMaps[f]
}

// UART0 register offsets, relative to AddressMap.UART0Start, shared by both
// families (standard GRLIB APBUART layout: data, status, control, scaler).
const (
	UART0FIFOReg   = 0x00
	UART0StatusReg = 0x04
	UART0CtrlReg   = 0x08
	UART0ScalerReg = 0x0C
)

// UART0StatusTCNTMask/Shift extract the transmitter FIFO count from the
// status register. The source comment claims "bits 4 to 11"; the code it
// actually ships (0x3F00000, shift 20) reads bits 20-25. The code is kept as
// authoritative; the comment is not reproduced.
const (
	UART0StatusTCNTMask  = 0x3F00000
	UART0StatusTCNTShift = 20
)
