// Package bridge speaks the GR712 AHB debug-bridge protocol over a JTAG TAP:
// a command/address register (IR 0x02) addresses and sizes a transfer, a
// data register (IR 0x03) carries the payload, and a SEQ bit lets a string
// of same-size transfers auto-increment the address without re-scanning
// the command register for each word. Single Read8/16/32 and Write8/16/32
// wrap one transfer each; ReadMany/WriteMany chunk a burst into SEQ runs.
package bridge

import (
	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/uviespace/uviemon/internal/probe"
	"github.com/uviespace/uviemon/internal/tap"
)

// GR712 AHB debug-bridge IR opcodes (6-bit instructions).
const (
	irCmdAddr = 0x02
	irData    = 0x03
)

// AHB transfer size field, the cmd/addr register's low 2 bits.
const (
	sizeByte     = 0b00
	sizeHalfword = 0b01
	sizeWord     = 0b10
)

const (
	rwRead  = false
	rwWrite = true
)

// MaxBurstWords bounds a single SEQ-chained transfer: the GR712RC user's
// manual recommends no more than 256 words (1KiB) per burst, the same
// limit ioread32raw/iowrite32raw warn about.
const MaxBurstWords = 256

// Bus is a GR712 AHB debug bridge reachable over one probe.Session's TAP.
type Bus struct {
	session *probe.Session
}

// New wraps a probe session as an AHB bus.
func New(s *probe.Session) *Bus {
	return &Bus{session: s}
}

// scanCmdAddr shifts the 35-bit command/address register: address[31:0],
// size[1:0], rw. It leaves the TAP in Exit1-DR.
func (bus *Bus) scanCmdAddr(buf *tap.Buffer, addr uint32, size int, write bool) {
	buf.GotoShiftIR()
	buf.ShiftBitsOut(irCmdAddr, 5, false)
	buf.LastBitWithTMS(irCmdAddr&0x20 != 0, false)
	buf.ExitToShiftDR()

	addrBytes := []byte{byte(addr), byte(addr >> 8), byte(addr >> 16), byte(addr >> 24)}
	buf.ShiftBytesOut(addrBytes, false)
	buf.ShiftBitsOut(boolByte(size&0x1 != 0), 1, false)
	buf.ShiftBitsOut(boolByte(size&0x2 != 0), 1, false)
	buf.LastBitWithTMS(write, false)
}

// gotoDataRegister walks Exit1-DR (left by scanCmdAddr) through an IR scan
// that loads the data register opcode, ending in Shift-DR.
func (bus *Bus) gotoDataRegister(buf *tap.Buffer) {
	buf.ExitDRToShiftIR()
	buf.ShiftBitsOut(irData, 5, false)
	buf.LastBitWithTMS(irData&0x20 != 0, false)
	buf.ExitToShiftDR()
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// read performs one 32-bit-aligned read transaction and returns the full
// word; callers select the lane for sub-word sizes.
func (bus *Bus) read(addr uint32, size int) (uint32, error) {
	aligned := addr &^ 0x3
	buf := tap.New()
	buf.ResetToTLR()
	bus.scanCmdAddr(buf, aligned, size, rwRead)
	bus.gotoDataRegister(buf)
	buf.ReadBytes(4)
	buf.LastBitWithTMS(false, false) // SEQ=0, exit Shift-DR
	data, err := buf.Flush(bus.session)
	if err != nil {
		return 0, errors.Annotatef(ErrTransport, "AHB read @0x%08x: %s", addr, err)
	}
	if len(data) < 4 {
		return 0, errors.Annotatef(ErrTransport, "AHB read @0x%08x: short response (%d bytes)", addr, len(data))
	}
	word := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
	glog.V(2).Infof("bridge: read @0x%08x = 0x%08x", addr, word)
	return word, nil
}

// write performs one 32-bit-aligned write of a full word (sub-word sizes
// pre-shift their value into the right lane via dataForLane).
func (bus *Bus) write(addr uint32, size int, word uint32) error {
	aligned := addr &^ 0x3
	buf := tap.New()
	buf.ResetToTLR()
	bus.scanCmdAddr(buf, aligned, size, rwWrite)
	bus.gotoDataRegister(buf)
	dataBytes := []byte{byte(word), byte(word >> 8), byte(word >> 16), byte(word >> 24)}
	buf.ShiftBytesOut(dataBytes, false)
	buf.LastBitWithTMS(false, false) // SEQ=0, exit Shift-DR
	if _, err := buf.Flush(bus.session); err != nil {
		return errors.Annotatef(ErrTransport, "AHB write @0x%08x: %s", addr, err)
	}
	glog.V(2).Infof("bridge: write @0x%08x = 0x%08x", addr, word)
	return nil
}

// byteLaneShift returns the bit shift locating the byte addressed by the
// low 2 bits of addr within the aligned 32-bit word the bridge actually
// transfers. GR712 is big-endian: the lowest address in a word carries the
// most-significant byte.
func byteLaneShift(addr uint32) uint {
	return uint(3-(addr&0x3)) * 8
}

// halfwordLaneShift returns the bit shift for a halfword access; addr must
// be 2-byte aligned.
func halfwordLaneShift(addr uint32) uint {
	return uint(2-(addr&0x2)) * 8
}

// Read8 reads a single byte.
func (bus *Bus) Read8(addr uint32) (uint8, error) {
	word, err := bus.read(addr, sizeByte)
	if err != nil {
		return 0, errors.Trace(err)
	}
	return uint8(word >> byteLaneShift(addr)), nil
}

// Read16 reads a 2-byte-aligned halfword.
func (bus *Bus) Read16(addr uint32) (uint16, error) {
	word, err := bus.read(addr, sizeHalfword)
	if err != nil {
		return 0, errors.Trace(err)
	}
	return uint16(word >> halfwordLaneShift(addr)), nil
}

// Read32 reads a 4-byte-aligned word.
func (bus *Bus) Read32(addr uint32) (uint32, error) {
	return bus.read(addr, sizeWord)
}

// Write8 writes a single byte.
func (bus *Bus) Write8(addr uint32, v uint8) error {
	return bus.write(addr, sizeByte, uint32(v)<<byteLaneShift(addr))
}

// Write16 writes a 2-byte-aligned halfword.
func (bus *Bus) Write16(addr uint32, v uint16) error {
	return bus.write(addr, sizeHalfword, uint32(v)<<halfwordLaneShift(addr))
}

// Write32 writes a 4-byte-aligned word.
func (bus *Bus) Write32(addr uint32, v uint32) error {
	return bus.write(addr, sizeWord, v)
}

// ProgressFunc reports burst progress as (chunkIndex, totalChunks).
type ProgressFunc func(chunkIndex, totalChunks int)

// ReadMany reads n words starting at addr (word-aligned), chunked into
// MaxBurstWords-sized SEQ bursts.
func (bus *Bus) ReadMany(addr uint32, n int, progress ProgressFunc) ([]uint32, error) {
	out := make([]uint32, 0, n)
	chunks := (n + MaxBurstWords - 1) / MaxBurstWords
	if chunks == 0 {
		chunks = 1
	}
	remaining := n
	cur := addr
	for chunk := 0; remaining > 0; chunk++ {
		count := remaining
		if count > MaxBurstWords {
			count = MaxBurstWords
		}
		words, err := bus.readBurst(cur, count)
		if err != nil {
			return nil, errors.Annotatef(err, "burst read @0x%08x (%d words)", cur, count)
		}
		out = append(out, words...)
		cur += uint32(count) * 4
		remaining -= count
		if progress != nil {
			progress(chunk+1, chunks)
		}
	}
	return out, nil
}

func (bus *Bus) readBurst(addr uint32, n int) ([]uint32, error) {
	buf := tap.New()
	buf.ResetToTLR()
	bus.scanCmdAddr(buf, addr, sizeWord, rwRead)
	bus.gotoDataRegister(buf)
	for i := 0; i < n; i++ {
		buf.ReadBytes(4)
		last := i == n-1
		buf.LastBitWithTMS(!last, false) // SEQ=1 to keep bursting, SEQ=0 on the final word
		if !last {
			buf.ExitToShiftDR()
		}
	}
	data, err := buf.Flush(bus.session)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(data) < n*4 {
		return nil, errors.Annotatef(ErrTransport, "short burst response: got %d of %d bytes", len(data), n*4)
	}
	words := make([]uint32, n)
	for i := 0; i < n; i++ {
		b := data[i*4 : i*4+4]
		words[i] = uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	}
	return words, nil
}

// WriteMany writes words starting at addr (word-aligned), chunked into
// MaxBurstWords-sized SEQ bursts.
func (bus *Bus) WriteMany(addr uint32, words []uint32, progress ProgressFunc) error {
	chunks := (len(words) + MaxBurstWords - 1) / MaxBurstWords
	if chunks == 0 {
		return nil
	}
	cur := addr
	for chunk := 0; chunk*MaxBurstWords < len(words); chunk++ {
		start := chunk * MaxBurstWords
		end := start + MaxBurstWords
		if end > len(words) {
			end = len(words)
		}
		if err := bus.writeBurst(cur, words[start:end]); err != nil {
			return errors.Annotatef(err, "burst write @0x%08x (%d words)", cur, end-start)
		}
		cur += uint32(end-start) * 4
		if progress != nil {
			progress(chunk+1, chunks)
		}
	}
	return nil
}

func (bus *Bus) writeBurst(addr uint32, words []uint32) error {
	buf := tap.New()
	buf.ResetToTLR()
	bus.scanCmdAddr(buf, addr, sizeWord, rwWrite)
	bus.gotoDataRegister(buf)
	for i, w := range words {
		dataBytes := []byte{byte(w), byte(w >> 8), byte(w >> 16), byte(w >> 24)}
		buf.ShiftBytesOut(dataBytes, false)
		last := i == len(words)-1
		buf.LastBitWithTMS(!last, false)
		if !last {
			buf.ExitToShiftDR()
		}
	}
	if _, err := buf.Flush(bus.session); err != nil {
		return errors.Trace(err)
	}
	return nil
}
