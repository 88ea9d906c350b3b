package probe

import "time"

// fakeTransport is an in-memory Transport: writes accumulate, reads are
// served from a queue of canned replies. Standing in for a real FT2232H in
// every test in this package, matching the teacher's preference for
// testing protocol logic against an in-process fake.
type fakeTransport struct {
	written []byte
	replies [][]byte
	serial  string
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
	n := copy(buf, reply)
	return n, nil
}

func (f *fakeTransport) QueueStatus() (int, error) {
	if len(f.replies) == 0 {
		return 0, nil
	}
	return len(f.replies[0]), nil
}

func (f *fakeTransport) SetBitMode(mask, mode byte) error                 { return nil }
func (f *fakeTransport) SetTimeouts(r, w time.Duration) error             { return nil }
func (f *fakeTransport) SetUSBParams(in, out int) error                  { return nil }
func (f *fakeTransport) Purge() error                                    { return nil }
func (f *fakeTransport) Reset() error                                    { return nil }
func (f *fakeTransport) Close() error                                    { return nil }
func (f *fakeTransport) DriverVersion() string                           { return "fake" }
func (f *fakeTransport) SerialNumber() string                            { return f.serial }
