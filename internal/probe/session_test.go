package probe

import (
	"bytes"
	"testing"
)

func TestEchoesBadCommand(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		want bool
	}{
		{"exact echo", []byte{0xFA, 0xAB}, true},
		{"echo with leading noise", []byte{0x00, 0xFA, 0xAB}, true},
		{"no echo", []byte{0x00, 0x01, 0x02}, false},
		{"empty", nil, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := echoesBadCommand(c.buf); got != c.want {
				t.Errorf("echoesBadCommand(% x) = %v, want %v", c.buf, got, c.want)
			}
		})
	}
}

func TestConfigureClockAndPinsWritesExpectedSequence(t *testing.T) {
	ft := &fakeTransport{}
	s := &Session{Transport: ft, Family: LEON3, AddrMap: LEON3.Map()}
	if err := s.configureClockAndPins(); err != nil {
		t.Fatal(err)
	}
	want := []byte{
		opDisableDivBy5, opDisableAdaptive, opDisableThreePhase,
		opSetClockDivisor, byte(defaultClockDivisor & 0xFF), byte((defaultClockDivisor >> 8) & 0xFF),
		opSetLowBits, 0b00001000, 0b00001011,
		opSetHighBits, 0x00, 0x00,
	}
	if !bytes.Equal(ft.written, want) {
		t.Errorf("got % x, want % x", ft.written, want)
	}
}

func TestWriteRawDetectsShortWrite(t *testing.T) {
	s := &Session{Transport: &fakeTransport{}}
	if err := s.WriteRaw([]byte{0x01, 0x02, 0x03}); err != nil {
		t.Fatal(err)
	}
	short := &Session{Transport: &shortWriteTransport{}}
	if err := short.WriteRaw([]byte{0x01, 0x02, 0x03}); err == nil {
		t.Error("expected an error for a short write")
	}
}

// shortWriteTransport reports one byte fewer sent than it was given.
type shortWriteTransport struct{ fakeTransport }

func (f *shortWriteTransport) Write(data []byte) (int, error) { return len(data) - 1, nil }

func TestReadRawAssemblesAcrossPolls(t *testing.T) {
	ft := &fakeTransport{replies: [][]byte{{0x01, 0x02}, {0x03, 0x04}}}
	s := &Session{Transport: ft}
	got, err := s.ReadRaw(4)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x01, 0x02, 0x03, 0x04}; !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestParseFamily(t *testing.T) {
	cases := []struct {
		in      string
		want    Family
		wantErr bool
	}{
		{"leon3", LEON3, false},
		{"leon4", LEON4, false},
		{"LEON3", LEON3, false},
		{"bogus", 0, true},
	}
	for _, c := range cases {
		got, err := ParseFamily(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseFamily(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFamily(%q): unexpected error %s", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseFamily(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
