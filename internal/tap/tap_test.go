package tap

import (
	"bytes"
	"testing"
)

func TestResetToTLR(t *testing.T) {
	b := New()
	b.ResetToTLR()
	want := []byte{opClockTMSNoRead, 0x04, 0b00111111}
	if got := b.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestGotoShiftIRThenExitToShiftDR(t *testing.T) {
	b := New()
	b.GotoShiftIR()
	if got, want := len(b.Bytes()), 3; got != want {
		t.Fatalf("GotoShiftIR emitted %d bytes, want %d", got, want)
	}
	b.bytes = b.bytes[:0]
	b.ExitToShiftDR()
	if got, want := len(b.Bytes()), 3; got != want {
		t.Fatalf("ExitToShiftDR emitted %d bytes, want %d", got, want)
	}
}

func TestShiftBitsOutEncodesLengthMinusOne(t *testing.T) {
	b := New()
	b.ShiftBitsOut(0x05, 5, false)
	want := []byte{opClockBitsOut, 4, 0x05}
	if got := b.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestShiftBytesOutEncodesLittleEndianLength(t *testing.T) {
	b := New()
	b.ShiftBytesOut([]byte{0x11, 0x22, 0x33, 0x44}, false)
	want := []byte{opClockBytesOut, 0x03, 0x00, 0x11, 0x22, 0x33, 0x44}
	if got := b.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestLastBitWithTMSSetsTDIBit7(t *testing.T) {
	b := New()
	b.LastBitWithTMS(true, false)
	want := []byte{opClockTMSNoRead, 0x00, 0b10000001}
	if got := b.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestFlushWritesAndReadsQueuedBits(t *testing.T) {
	fake := &fakeSession{replies: [][]byte{{0xAB, 0xCD, 0xEF, 0x01}}}
	b := New()
	b.ReadBytes(4)
	data, err := b.Flush(fake)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := fake.written, []byte{opReadBytes, 0x03, 0x00}; !bytes.Equal(got, want) {
		t.Errorf("written: got % x, want % x", got, want)
	}
	if got, want := data, []byte{0xAB, 0xCD, 0xEF, 0x01}; !bytes.Equal(got, want) {
		t.Errorf("read: got % x, want % x", got, want)
	}
	if len(b.Bytes()) != 0 {
		t.Errorf("buffer not reset after Flush")
	}
}

func TestFlushWithNoPendingReadsDoesNotBlockOnRead(t *testing.T) {
	fake := &fakeSession{}
	b := New()
	b.ShiftBitsOut(0x01, 1, false)
	data, err := b.Flush(fake)
	if err != nil {
		t.Fatal(err)
	}
	if data != nil {
		t.Errorf("expected no read data, got % x", data)
	}
}

func TestUnpackLSBFirst(t *testing.T) {
	bits := unpackLSBFirst([]byte{0b00000001})
	want := []bool{true, false, false, false, false, false, false, false}
	if len(bits) != len(want) {
		t.Fatalf("got %d bits, want %d", len(bits), len(want))
	}
	for i := range want {
		if bits[i] != want[i] {
			t.Errorf("bit %d: got %v, want %v", i, bits[i], want[i])
		}
	}
}
