package loader

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/juju/errors"

	"github.com/uviespace/uviemon/internal/bridge"
	"github.com/uviespace/uviemon/internal/probe"
)

func TestWordsFromBytesRoundTrip(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	words := wordsFromBytes(data)
	if len(words) != 2 {
		t.Fatalf("got %d words, want 2 (padded)", len(words))
	}
	back := bytesFromWords(words)
	if !bytes.Equal(back[:len(data)], data) {
		t.Errorf("got % x, want % x", back[:len(data)], data)
	}
	if back[6] != 0 || back[7] != 0 {
		t.Errorf("expected zero padding, got % x", back[6:8])
	}
}

func TestHexString(t *testing.T) {
	if got, want := hexString([]byte{0xDE, 0xAD}), "de ad "; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// fakeTransport is the same in-memory Transport shape used by probe's and
// bridge's own tests, duplicated here since it's test-only and unexported.
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
func (f *fakeTransport) Close() error                         { return nil }
func (f *fakeTransport) DriverVersion() string                { return "fake" }
func (f *fakeTransport) SerialNumber() string                 { return "fake-serial" }

func newTestBus(replies [][]byte) *bridge.Bus {
	ft := &fakeTransport{replies: replies}
	s := &probe.Session{Transport: ft, Family: probe.LEON3, AddrMap: probe.LEON3.Map()}
	return bridge.New(s)
}

func TestLoadRejectsFileSmallerThanHeaderPrefix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.bin")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0644); err != nil {
		t.Fatal(err)
	}
	bus := newTestBus(nil)
	err := Load(bus, probe.LEON3.Map(), path)
	if errors.Cause(err) != ErrImageTooSmall {
		t.Fatalf("got err = %v, want cause ErrImageTooSmall", err)
	}
}

func TestLoadSkipsHeaderPrefixAndWritesAtSDRAMStart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.bin")
	data := make([]byte, headerPrefixSize+8)
	copy(data[headerPrefixSize:], []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, 0x11, 0x22})
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	ft := &fakeTransport{}
	bus := bridge.New(&probe.Session{Transport: ft, Family: probe.LEON3, AddrMap: probe.LEON3.Map()})
	amp := probe.LEON3.Map()
	if err := Load(bus, amp, path); err != nil {
		t.Fatal(err)
	}
	// 0x19 0x03 0x00 is the MPSSE "shift 4 bytes out" header: one address
	// scan at SDRAMStart (little-endian on the wire) and two data words, so
	// none of the 64KiB header prefix was written.
	if !bytes.Contains(ft.written, []byte{0x19, 0x03, 0x00, 0x00, 0x00, 0x00, 0x40}) {
		t.Errorf("no address scan for 0x%08x in % x", amp.SDRAMStart, ft.written)
	}
	if got, want := bytes.Count(ft.written, []byte{0x19, 0x03, 0x00}), 3; got != want {
		t.Errorf("got %d 4-byte shifts, want %d (address + 2 data words)", got, want)
	}
	if !bytes.Contains(ft.written, []byte{0x19, 0x03, 0x00, 0xAA, 0xBB, 0xCC, 0xDD}) {
		t.Errorf("first image word not written: % x", ft.written)
	}
}

func TestVerifyRejectsFileSmallerThanHeaderPrefix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.bin")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0644); err != nil {
		t.Fatal(err)
	}
	bus := newTestBus(nil)
	_, err := Verify(bus, probe.LEON3.Map(), path)
	if errors.Cause(err) != ErrImageTooSmall {
		t.Fatalf("got err = %v, want cause ErrImageTooSmall", err)
	}
}
