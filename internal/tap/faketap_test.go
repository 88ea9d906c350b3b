package tap

// fakeSession is an in-memory stand-in for probe.Session: it just records
// every byte written and lets a test queue up canned read replies, enough
// to check the exact wire encoding a Buffer produces without real FT2232H
// hardware, matching the teacher's own preference (common/mgrpc) for
// testing protocol logic against an in-process fake.
type fakeSession struct {
	written []byte
	replies [][]byte
}

func (f *fakeSession) WriteRaw(buf []byte) error {
	f.written = append(f.written, buf...)
	return nil
}

func (f *fakeSession) ReadRaw(n int) ([]byte, error) {
	if len(f.replies) == 0 {
		return make([]byte, n), nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	if len(reply) < n {
		out := make([]byte, n)
		copy(out, reply)
		return out, nil
	}
	return reply[:n], nil
}
