// Package tap builds MPSSE command buffers that drive the JTAG TAP state
// machine: reset to Test-Logic-Reset, walk to Shift-IR/Shift-DR, clock bits
// and bytes through the scan chain, and flush the built buffer through a
// probe.Session. The bridge package composes these primitives into GR712
// AHB debug-bridge scans; nothing here knows about AHB semantics.
package tap

import (
	"encoding/binary"

	"github.com/juju/errors"
)

// MPSSE opcodes used to encode TAP activity. Clock-data commands come in
// with-read/without-read pairs; the bridge layer picks whichever it needs
// per scan.
const (
	opClockTMSNoRead  = 0x4B
	opClockTMSRead    = 0x6B
	opClockBitsOut    = 0x1B
	opClockBitsOutRd  = 0x3B
	opClockBytesOut   = 0x19
	opClockBytesOutRd = 0x39
	opReadBits        = 0x2A
	opReadBytes       = 0x28
	opClockOnly       = 0x8E
)

// Session is the subset of probe.Session a Buffer needs to flush itself:
// a raw byte-level MPSSE transport. Defined here (rather than imported)
// to keep tap decoupled from probe's concrete type; probe.Session
// satisfies it structurally.
type Session interface {
	WriteRaw(buf []byte) error
	ReadRaw(n int) ([]byte, error)
}

// Buffer accumulates MPSSE command bytes for one TAP transaction, to be
// flushed as a single USB write (and, if any command reads back data,
// followed by a read of the accumulated pending byte count).
type Buffer struct {
	bytes       []byte
	pendingBits int // bits queued to read back once flushed
}

// New returns an empty command buffer.
func New() *Buffer {
	return &Buffer{}
}

// ResetToTLR appends five TMS=1 clocks, unconditionally returning the TAP
// to Test-Logic-Reset regardless of its current state. Every scan in this
// package begins here, matching the original's reset_JTAG_state_machine
// call at the top of every ioread/iowrite.
func (b *Buffer) ResetToTLR() *Buffer {
	b.bytes = append(b.bytes, opClockTMSNoRead, 0x04, 0b00111111)
	return b
}

// tmsWalk appends a short, known-length TMS sequence (<=7 bits, the MPSSE
// TMS-command limit), holding tdi constant for its duration. bits are
// listed in clock order (bits[0] is clocked first) and packed LSB-first on
// the wire.
func (b *Buffer) tmsWalk(bits []bool, tdi bool, withRead bool) {
	var data byte
	for i, bit := range bits {
		if bit {
			data |= 1 << uint(i)
		}
	}
	if tdi {
		data |= 1 << 7
	}
	op := byte(opClockTMSNoRead)
	if withRead {
		op = opClockTMSRead
		b.pendingBits += 1
	}
	b.bytes = append(b.bytes, op, byte(len(bits)-1), data)
}

// GotoShiftIR walks TLR -> RunTestIdle -> SelectDRScan -> SelectIRScan ->
// CaptureIR -> ShiftIR.
func (b *Buffer) GotoShiftIR() *Buffer {
	b.tmsWalk([]bool{false, true, true, false, false}, false, false)
	return b
}

// ExitToShiftDR walks from Exit1-IR or Exit1-DR to Shift-DR: both states
// share the same four-step path (Exit1-X -> UpdateX -> SelectDRScan ->
// CaptureDR -> ShiftDR), so one helper covers the end of an IR scan and
// the SEQ-burst continuation out of a completed DR scan alike.
func (b *Buffer) ExitToShiftDR() *Buffer {
	b.tmsWalk([]bool{true, true, false, false}, false, false)
	return b
}

// ExitDRToShiftIR walks from Exit1-DR to Shift-IR: Exit1-DR -> Update-DR ->
// Select-DR-Scan -> Select-IR-Scan -> Capture-IR -> Shift-IR. Used between
// the cmd/addr scan and the data scan, which live under different IR
// opcodes.
func (b *Buffer) ExitDRToShiftIR() *Buffer {
	b.tmsWalk([]bool{true, true, true, false, false}, false, false)
	return b
}

// ShiftBitsOut clocks the low nbits (1-8) of data out LSB-first, without
// moving TMS (stays in Shift-IR/Shift-DR). withRead also samples TDO for
// each clocked bit.
func (b *Buffer) ShiftBitsOut(data byte, nbits int, withRead bool) *Buffer {
	op := byte(opClockBitsOut)
	if withRead {
		op = opClockBitsOutRd
		b.pendingBits += nbits
	}
	b.bytes = append(b.bytes, op, byte(nbits-1), data)
	return b
}

// ShiftBytesOut clocks whole bytes out, LSB-of-each-byte first, without
// moving TMS.
func (b *Buffer) ShiftBytesOut(data []byte, withRead bool) *Buffer {
	op := byte(opClockBytesOut)
	if withRead {
		op = opClockBytesOutRd
		b.pendingBits += 8 * len(data)
	}
	n := len(data) - 1
	lenBuf := make([]byte, 2)
	binary.LittleEndian.PutUint16(lenBuf, uint16(n))
	b.bytes = append(b.bytes, op, lenBuf[0], lenBuf[1])
	b.bytes = append(b.bytes, data...)
	return b
}

// LastBitWithTMS clocks the final bit of a shift register out while
// simultaneously moving TMS to exit (Shift-IR -> Exit1-IR or Shift-DR ->
// Exit1-DR). withRead also samples the bit clocked in from TDO.
func (b *Buffer) LastBitWithTMS(tdiBit bool, withRead bool) *Buffer {
	b.tmsWalk([]bool{true}, tdiBit, withRead)
	return b
}

// ReadBits queues a read-only clock of nbits (1-8), staying in the current
// state (used mid-scan without leaving Shift-DR, e.g. the trailing byte of
// GetJTAGCount's bypass scan; whole bytes go through ReadBytes).
func (b *Buffer) ReadBits(nbits int) *Buffer {
	b.bytes = append(b.bytes, opReadBits, byte(nbits-1))
	b.pendingBits += nbits
	return b
}

// ReadBytes queues a read-only clock of n whole bytes, staying in the
// current state.
func (b *Buffer) ReadBytes(n int) *Buffer {
	lenBuf := make([]byte, 2)
	binary.LittleEndian.PutUint16(lenBuf, uint16(n-1))
	b.bytes = append(b.bytes, opReadBytes, lenBuf[0], lenBuf[1])
	b.pendingBits += 8 * n
	return b
}

// ClockOnly issues nbits filler clocks with no data transfer in either
// direction. The original hardware needs a handful of these between the
// command/address scan and the data scan "to fix some issues" it never
// diagnosed further; preserved rather than resolved, per spec.md §9.
func (b *Buffer) ClockOnly(nbits int) *Buffer {
	b.bytes = append(b.bytes, opClockOnly, byte(nbits-1))
	return b
}

// Flush writes the accumulated command bytes and, if any command in the
// buffer queued a read, blocks for the corresponding number of bytes and
// returns them. The buffer is left empty and ready for reuse.
func (b *Buffer) Flush(s Session) ([]byte, error) {
	if err := s.WriteRaw(b.bytes); err != nil {
		return nil, errors.Trace(err)
	}
	var out []byte
	if b.pendingBits > 0 {
		nbytes := (b.pendingBits + 7) / 8
		buf, err := s.ReadRaw(nbytes)
		if err != nil {
			return nil, errors.Trace(err)
		}
		out = buf
	}
	b.bytes = b.bytes[:0]
	b.pendingBits = 0
	return out, nil
}

// Bytes exposes the raw accumulated command stream, mainly for tests that
// assert on the exact wire encoding of a scan.
func (b *Buffer) Bytes() []byte { return b.bytes }
