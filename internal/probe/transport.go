package probe

import (
	"time"

	"github.com/golang/glog"
	"github.com/google/gousb"
	"github.com/juju/errors"
)

// FTDI vendor ID and FT2232H product ID, per the FTDI VID/PID list. The
// monitor only ever talks to channel A (the JTAG-wired MPSSE interface on
// the uviemon carrier board); channel B is left to a second collaborator.
const (
	ftdiVendorID  = gousb.ID(0x0403)
	ft2232hProduct = gousb.ID(0x6010)
)

// FTDI vendor-specific control request codes (AN232B), used in place of the
// proprietary D2XX shared library: gousb gives raw control/bulk access to
// the device, which is enough to implement the handful of FT_* calls the
// monitor actually needs.
const (
	ftdiSioReset          = 0x00
	ftdiSioSetBitMode     = 0x0B
	ftdiSioSetLatencyTmr  = 0x09
)

const (
	ftdiSioResetSIO     = 0
	ftdiSioResetPurgeRX = 1
	ftdiSioResetPurgeTX = 2
)

// Transport is the USB driver contract spec.md names as an external
// collaborator (Enumerate/Open/Write/Read/SetBitMode/...), now backed
// concretely by gousb rather than left abstract. A fake implementation
// stands in for it in tests.
type Transport interface {
	Write(data []byte) (int, error)
	Read(buf []byte) (int, error)
	QueueStatus() (int, error)
	SetBitMode(mask byte, mode byte) error
	SetTimeouts(readTimeout, writeTimeout time.Duration) error
	SetUSBParams(inTransferSize, outTransferSize int) error
	Purge() error
	Reset() error
	Close() error
	DriverVersion() string
	SerialNumber() string
}

// DeviceInfo describes one enumerated FT2232H, mirroring the fields the
// original FT_GetDeviceInfoDetail call surfaced.
type DeviceInfo struct {
	Index        int
	SerialNumber string
	Description  string
}

// Enumerate lists attached FT2232H devices (vendor 0x0403, product 0x6010),
// grounded on cli/flash/common.OpenUSBDevice's enumerate-then-filter shape.
func Enumerate() ([]DeviceInfo, error) {
	uctx := gousb.NewContext()
	defer uctx.Close()

	var infos []DeviceInfo
	devs, err := uctx.OpenDevices(func(dd *gousb.DeviceDesc) bool {
		match := dd.Vendor == ftdiVendorID && dd.Product == ft2232hProduct
		glog.V(1).Infof("probe: saw USB device %+v (match=%v)", dd, match)
		return match
	})
	if err != nil && len(devs) == 0 {
		return nil, errors.Annotatef(ErrTransport, "enumerate FT2232H devices: %s", err)
	}
	for i, dev := range devs {
		sn, _ := dev.SerialNumber()
		infos = append(infos, DeviceInfo{Index: i, SerialNumber: sn, Description: dev.String()})
		dev.Close()
	}
	if len(infos) == 0 {
		return nil, errors.Trace(ErrNoDevice)
	}
	return infos, nil
}

// ftdiTransport is the gousb-backed Transport implementation.
type ftdiTransport struct {
	uctx *gousb.Context
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface
	done func()

	epIn  *gousb.InEndpoint
	epOut *gousb.OutEndpoint

	readTimeout  time.Duration
	writeTimeout time.Duration
	serial       string
}

// openFTDITransport opens the FT2232H matching serial (empty = first
// match), claims channel A's interface, and resolves its bulk endpoints.
// Grounded on cli/flash/common.OpenUSBDevice, extended with the interface
// claim and endpoint resolution the single-purpose flasher helper didn't
// need.
func openFTDITransport(serial string) (*ftdiTransport, error) {
	uctx := gousb.NewContext()
	devs, err := uctx.OpenDevices(func(dd *gousb.DeviceDesc) bool {
		return dd.Vendor == ftdiVendorID && dd.Product == ft2232hProduct
	})
	if err != nil && len(devs) == 0 {
		uctx.Close()
		return nil, errors.Annotatef(ErrTransport, "enumerate FT2232H devices: %s", err)
	}

	var dev *gousb.Device
	for _, d := range devs {
		if dev != nil {
			d.Close()
			continue
		}
		sn, _ := d.SerialNumber()
		if serial == "" || sn == serial {
			dev = d
		} else {
			d.Close()
		}
	}
	if dev == nil {
		uctx.Close()
		return nil, errors.Annotatef(ErrNoDevice, "serial %q", serial)
	}

	dev.SetAutoDetach(true)
	cfg, err := dev.Config(1)
	if err != nil {
		dev.Close()
		uctx.Close()
		return nil, errors.Annotatef(ErrTransport, "select USB config: %s", err)
	}
	intf, done, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		dev.Close()
		uctx.Close()
		return nil, errors.Annotatef(ErrTransport, "claim channel A interface: %s", err)
	}

	epOut, err := intf.OutEndpoint(2)
	if err != nil {
		done()
		cfg.Close()
		dev.Close()
		uctx.Close()
		return nil, errors.Annotatef(ErrTransport, "resolve bulk OUT endpoint: %s", err)
	}
	epIn, err := intf.InEndpoint(0x81)
	if err != nil {
		done()
		cfg.Close()
		dev.Close()
		uctx.Close()
		return nil, errors.Annotatef(ErrTransport, "resolve bulk IN endpoint: %s", err)
	}

	sn, _ := dev.SerialNumber()
	return &ftdiTransport{
		uctx: uctx, dev: dev, cfg: cfg, intf: intf, done: done,
		epIn: epIn, epOut: epOut,
		readTimeout: 10 * time.Millisecond, writeTimeout: 10 * time.Millisecond,
		serial: sn,
	}, nil
}

func (t *ftdiTransport) Write(data []byte) (int, error) {
	n, err := t.epOut.Write(data)
	if err != nil {
		return n, errors.Annotatef(ErrTransport, "bulk write: %s", err)
	}
	return n, nil
}

func (t *ftdiTransport) Read(buf []byte) (int, error) {
	n, err := t.epIn.Read(buf)
	if err != nil {
		return n, errors.Annotatef(ErrTransport, "bulk read: %s", err)
	}
	return n, nil
}

// QueueStatus approximates FT_GetQueueStatus: raw USB has no separate
// queue-depth call, so this issues a short non-blocking-ish bulk read into
// a scratch buffer and reports what came back.
func (t *ftdiTransport) QueueStatus() (int, error) {
	scratch := make([]byte, 512)
	n, err := t.epIn.Read(scratch)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (t *ftdiTransport) SetBitMode(mask byte, mode byte) error {
	_, err := t.dev.Control(0x40, ftdiSioSetBitMode, uint16(mode)<<8|uint16(mask), 1, nil)
	if err != nil {
		return errors.Annotatef(ErrTransport, "set bitmode: %s", err)
	}
	return nil
}

func (t *ftdiTransport) SetTimeouts(readTimeout, writeTimeout time.Duration) error {
	t.readTimeout, t.writeTimeout = readTimeout, writeTimeout
	return nil
}

// SetUSBParams configures D2XX's internal transfer chunk sizes. There is no
// USB-wire equivalent; with gousb the chunk size is simply how much we ask
// the endpoint to move per call, so this just validates the sizes.
func (t *ftdiTransport) SetUSBParams(inTransferSize, outTransferSize int) error {
	if inTransferSize <= 0 || outTransferSize <= 0 {
		return errors.Errorf("probe: invalid USB transfer size in=%d out=%d", inTransferSize, outTransferSize)
	}
	return nil
}

func (t *ftdiTransport) Purge() error {
	if _, err := t.dev.Control(0x40, ftdiSioReset, ftdiSioResetPurgeRX, 1, nil); err != nil {
		return errors.Annotatef(ErrTransport, "purge RX: %s", err)
	}
	if _, err := t.dev.Control(0x40, ftdiSioReset, ftdiSioResetPurgeTX, 1, nil); err != nil {
		return errors.Annotatef(ErrTransport, "purge TX: %s", err)
	}
	return nil
}

func (t *ftdiTransport) Reset() error {
	if _, err := t.dev.Control(0x40, ftdiSioReset, ftdiSioResetSIO, 1, nil); err != nil {
		return errors.Annotatef(ErrTransport, "reset: %s", err)
	}
	return nil
}

func (t *ftdiTransport) Close() error {
	t.done()
	t.cfg.Close()
	t.dev.Close()
	return t.uctx.Close()
}

func (t *ftdiTransport) DriverVersion() string {
	return "gousb/libusb (no D2XX layer)"
}

func (t *ftdiTransport) SerialNumber() string { return t.serial }
