package tap

import "github.com/juju/errors"

// ReadIDCODE reads the 32-bit IDCODE out of Shift-DR immediately after a
// TAP reset. Every compliant TAP loads IDCODE (or BYPASS, for devices
// without one) as the default instruction on TLR entry, so no IR scan is
// needed first.
func ReadIDCODE(s Session) (uint32, error) {
	buf := New()
	buf.ResetToTLR()
	buf.tmsWalk([]bool{false, true, false, false}, false, false) // TLR -> RTI -> SelectDR -> CaptureDR -> ShiftDR
	buf.ReadBytes(4)
	data, err := buf.Flush(s)
	if err != nil {
		return 0, errors.Trace(err)
	}
	if len(data) < 4 {
		return 0, errors.Annotatef(ErrChainShape, "short IDCODE read: got %d bytes", len(data))
	}
	return uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24, nil
}

// ScanIRLength discovers the instruction register length: it shifts a
// 32-bit all-ones pattern into Shift-IR while reading TDO and looks for
// the IEEE 1149.1-mandated Capture-IR value ending in 0b01, which rides
// out of the chain exactly IRLength bits after shifting begins. GR712 is
// expected to report 6.
func ScanIRLength(s Session) (int, error) {
	buf := New()
	buf.ResetToTLR().GotoShiftIR()
	buf.ShiftBytesOut([]byte{0xFF, 0xFF, 0xFF, 0xFF}, true)
	data, err := buf.Flush(s)
	if err != nil {
		return 0, errors.Trace(err)
	}
	bits := unpackLSBFirst(data)
	for n := 2; n <= len(bits); n++ {
		if !bits[n-2] && bits[n-1] {
			return n, nil
		}
	}
	return 0, errors.Annotate(ErrChainShape, "could not locate Capture-IR marker in 32 read bits")
}

// GetJTAGCount discovers the number of devices in the scan chain by
// loading BYPASS (all ones) into every IR and measuring the single-bit
// delay each device's bypass register adds: a 1 shifted into Shift-DR
// emerges exactly N clocks later, one per device.
func GetJTAGCount(s Session) (int, error) {
	buf := New()
	buf.ResetToTLR().GotoShiftIR()
	buf.ShiftBitsOut(0xFF, 6, false) // force BYPASS on a 6-bit IR chain
	buf.LastBitWithTMS(true, false)
	buf.ExitToShiftDR()
	buf.ShiftBitsOut(0x01, 8, true) // the single 1, clocked in first
	for i := 1; i < 9; i++ {
		buf.ShiftBitsOut(0x00, 8, true)
	}
	buf.ReadBits(8)
	data, err := buf.Flush(s)
	if err != nil {
		return 0, errors.Trace(err)
	}
	bits := unpackLSBFirst(data)
	for i, bit := range bits {
		if bit {
			return i, nil
		}
	}
	return 0, errors.Annotate(ErrChainShape, "no device responded in bypass scan")
}

func unpackLSBFirst(data []byte) []bool {
	bits := make([]bool, 0, 8*len(data))
	for _, byt := range data {
		for i := 0; i < 8; i++ {
			bits = append(bits, byt&(1<<uint(i)) != 0)
		}
	}
	return bits
}
