// Package probe owns the single USB handle to the FT2232H JTAG bridge: USB
// enumeration, the FTDI control-transfer dance that switches the chip into
// MPSSE mode, and raw byte-level write/read of the MPSSE command stream.
// Everything above this layer (TAP walks, AHB scans, DSU registers) is built
// out of Session.WriteRaw/ReadRaw.
package probe

import (
	"time"

	"github.com/golang/glog"
	"github.com/juju/errors"
)

// MPSSE opcodes used during Open. The TAP/bridge layers define the rest of
// the opcode set they need on top of Session.WriteRaw/ReadRaw.
const (
	opLoopbackEnable  = 0x84
	opLoopbackDisable = 0x85
	opBogus           = 0xAB
	opDisableDivBy5   = 0x8A
	opDisableAdaptive = 0x97
	opDisableThreePhase = 0x8D
	opSetClockDivisor = 0x86
	opSetLowBits      = 0x80
	opSetHighBits     = 0x82
)

// defaultClockDivisor yields TCK = 60MHz / ((1+4)*2) = 6MHz, the divisor the
// original monitor hardcodes.
const defaultClockDivisor = 0x0004

// Session is the always-connected, single-process owner of the JTAG probe.
// It is an explicit value (not a package-scope global) so that the CLI can
// own its lifetime and so tests can construct one around a fake Transport.
type Session struct {
	Transport Transport
	Family    Family
	AddrMap   AddressMap

	// FirstRun is set by Open and not read elsewhere; dsu.Target keeps its
	// own first-run flag for the "retry once" quirk.
	FirstRun bool

	// ActiveCPU defaults to 0. The CLI tracks the core it addresses with
	// reg/run commands in dsu.Target.Active, not here.
	ActiveCPU int
}

// Open claims FT2232H device `serial` (empty = first match), switches it
// into MPSSE mode, and runs the synchronization/clock/pin configuration
// sequence the original ftdi_device.cpp performs once at startup.
func Open(serial string, family Family) (*Session, error) {
	t, err := openFTDITransport(serial)
	if err != nil {
		return nil, errors.Trace(err)
	}

	s := &Session{Transport: t, Family: family, AddrMap: family.Map(), FirstRun: true}

	if err := t.SetUSBParams(16*1024, 16*1024); err != nil {
		t.Close()
		return nil, errors.Trace(err)
	}
	if err := t.Purge(); err != nil {
		t.Close()
		return nil, errors.Trace(err)
	}
	if err := t.Reset(); err != nil {
		t.Close()
		return nil, errors.Trace(err)
	}
	if err := t.SetBitMode(0x0, 0x02 /* MPSSE */); err != nil {
		t.Close()
		return nil, errors.Trace(err)
	}

	// THIS DELAY IS CRUCIAL: the FT2232H needs time to settle into MPSSE
	// mode before the synchronization handshake below will succeed.
	time.Sleep(1 * time.Second)

	if err := s.synchronizeMPSSE(); err != nil {
		t.Close()
		return nil, errors.Trace(err)
	}
	if err := s.configureClockAndPins(); err != nil {
		t.Close()
		return nil, errors.Trace(err)
	}

	glog.V(1).Infof("probe: opened %s session on %s", family, t.SerialNumber())
	return s, nil
}

// synchronizeMPSSE enables loopback, sends the bogus opcode 0xAB, and
// confirms the MPSSE echoes "Bad Command" (0xFA 0xAB) before disabling
// loopback again.
func (s *Session) synchronizeMPSSE() error {
	if _, err := s.Transport.Write([]byte{opLoopbackEnable}); err != nil {
		return errors.Trace(err)
	}
	if n, err := s.Transport.QueueStatus(); err != nil {
		return errors.Trace(err)
	} else if n != 0 {
		return errors.Annotatef(ErrTransport, "MPSSE receive buffer not empty before sync (%d bytes)", n)
	}

	if _, err := s.Transport.Write([]byte{opBogus}); err != nil {
		return errors.Trace(err)
	}
	reply, err := s.pollRead(64, 2*time.Second)
	if err != nil {
		return errors.Trace(err)
	}
	if !echoesBadCommand(reply) {
		return errors.Annotate(ErrTransport, "MPSSE did not echo bad-command sync byte")
	}

	if _, err := s.Transport.Write([]byte{opLoopbackDisable}); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func echoesBadCommand(buf []byte) bool {
	for i := 0; i+1 < len(buf); i++ {
		if buf[i] == 0xFA && buf[i+1] == opBogus {
			return true
		}
	}
	return false
}

// configureClockAndPins disables clock-divide-by-5/adaptive/three-phase
// clocking, sets the TCK divisor, and drives the low/high GPIO byte
// direction and initial state exactly as documented in spec.md §4.1: TCK,
// TDI, TMS driven low/low/high, TDO and GPIOL0-3/GPIOH0-7 left as inputs.
func (s *Session) configureClockAndPins() error {
	buf := []byte{opDisableDivBy5, opDisableAdaptive, opDisableThreePhase}
	if _, err := s.Transport.Write(buf); err != nil {
		return errors.Trace(err)
	}

	div := []byte{opSetClockDivisor, byte(defaultClockDivisor & 0xFF), byte((defaultClockDivisor >> 8) & 0xFF)}
	if _, err := s.Transport.Write(div); err != nil {
		return errors.Trace(err)
	}

	low := []byte{opSetLowBits, 0b00001000, 0b00001011}
	if _, err := s.Transport.Write(low); err != nil {
		return errors.Trace(err)
	}

	high := []byte{opSetHighBits, 0x00, 0x00}
	if _, err := s.Transport.Write(high); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// pollRead polls QueueStatus until at least one byte is available or the
// deadline expires, then reads up to max bytes. It is the basis for
// every blocking read the TAP/bridge layers perform.
func (s *Session) pollRead(max int, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	for {
		n, err := s.Transport.QueueStatus()
		if err != nil {
			return nil, errors.Trace(err)
		}
		if n > 0 {
			if n > max {
				n = max
			}
			buf := make([]byte, n)
			got, err := s.Transport.Read(buf)
			if err != nil {
				return nil, errors.Trace(err)
			}
			return buf[:got], nil
		}
		if time.Now().After(deadline) {
			return nil, errors.Annotatef(ErrTransport, "read timed out after %s", timeout)
		}
		time.Sleep(time.Millisecond)
	}
}

// WriteRaw sends a fully-built MPSSE command buffer (TAP/bridge layers
// build these with tap.Buffer).
func (s *Session) WriteRaw(buf []byte) error {
	n, err := s.Transport.Write(buf)
	if err != nil {
		return errors.Trace(err)
	}
	if n != len(buf) {
		return errors.Annotatef(ErrTransport, "short write: sent %d of %d bytes", n, len(buf))
	}
	return nil
}

// ReadRaw blocks (up to a 10ms-scaled timeout per spec.md §5) until nbytes
// have arrived and returns them.
func (s *Session) ReadRaw(nbytes int) ([]byte, error) {
	out := make([]byte, 0, nbytes)
	for len(out) < nbytes {
		chunk, err := s.pollRead(nbytes-len(out), 10*time.Millisecond*time.Duration(nbytes+1))
		if err != nil {
			return nil, errors.Trace(err)
		}
		out = append(out, chunk...)
	}
	return out, nil
}

// Close releases the USB handle. Safe to call once.
func (s *Session) Close() error {
	return s.Transport.Close()
}
