package bridge

import (
	"testing"
	"time"

	"github.com/uviespace/uviemon/internal/probe"
)

// fakeTransport is the same in-memory Transport shape probe's own tests
// use, duplicated here (rather than exported from probe) since probe's
// test-only fake isn't part of its public API.
type fakeTransport struct {
	written []byte
	replies [][]byte
}

func (f *fakeTransport) Write(data []byte) (int, error) {
	f.written = append(f.written, data...)
	return len(data), nil
}
func (f *fakeTransport) Read(buf []byte) (int, error) {
	if len(f.replies) == 0 {
		return 0, nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return copy(buf, reply), nil
}
func (f *fakeTransport) QueueStatus() (int, error) {
	if len(f.replies) == 0 {
		return 0, nil
	}
	return len(f.replies[0]), nil
}
func (f *fakeTransport) SetBitMode(mask, mode byte) error     { return nil }
func (f *fakeTransport) SetTimeouts(r, w time.Duration) error { return nil }
func (f *fakeTransport) SetUSBParams(in, out int) error       { return nil }
func (f *fakeTransport) Purge() error                         { return nil }
func (f *fakeTransport) Reset() error                         { return nil }
func (f *fakeTransport) Close() error                          { return nil }
func (f *fakeTransport) DriverVersion() string                { return "fake" }
func (f *fakeTransport) SerialNumber() string                 { return "fake-serial" }

func newTestBus(replies [][]byte) (*Bus, *fakeTransport) {
	ft := &fakeTransport{replies: replies}
	s := &probe.Session{Transport: ft, Family: probe.LEON3, AddrMap: probe.LEON3.Map()}
	return New(s), ft
}

func TestRead32ReturnsLittleEndianAssembledWord(t *testing.T) {
	bus, _ := newTestBus([][]byte{{0xEF, 0xBE, 0xAD, 0xDE}})
	got, err := bus.Read32(0x40000000)
	if err != nil {
		t.Fatal(err)
	}
	if want := uint32(0xDEADBEEF); got != want {
		t.Errorf("got 0x%08x, want 0x%08x", got, want)
	}
}

func TestByteLaneShiftBigEndianConvention(t *testing.T) {
	cases := []struct {
		addr uint32
		want uint
	}{
		{0x40000000, 24}, // lane 0 -> MSB
		{0x40000001, 16},
		{0x40000002, 8},
		{0x40000003, 0}, // lane 3 -> LSB
	}
	for _, c := range cases {
		if got := byteLaneShift(c.addr); got != c.want {
			t.Errorf("byteLaneShift(0x%x) = %d, want %d", c.addr, got, c.want)
		}
	}
}

func TestHalfwordLaneShift(t *testing.T) {
	if got, want := halfwordLaneShift(0x40000000), uint(16); got != want {
		t.Errorf("got %d, want %d", got, want)
	}
	if got, want := halfwordLaneShift(0x40000002), uint(0); got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestReadManyChunksIntoMaxBurstWords(t *testing.T) {
	n := MaxBurstWords + 10
	replies := make([][]byte, 0, 2)
	chunk1 := make([]byte, MaxBurstWords*4)
	chunk2 := make([]byte, 10*4)
	replies = append(replies, chunk1, chunk2)
	bus, ft := newTestBus(replies)

	words, err := bus.ReadMany(0x40000000, n, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(words), n; got != want {
		t.Fatalf("got %d words, want %d", got, want)
	}
	if len(ft.written) == 0 {
		t.Error("expected bytes written to transport")
	}
}

func TestWrite32SingleWord(t *testing.T) {
	bus, _ := newTestBus(nil)
	if err := bus.Write32(0x40000000, 0x12345678); err != nil {
		t.Fatal(err)
	}
}
