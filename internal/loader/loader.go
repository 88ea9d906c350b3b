// Package loader moves raw binary images between the host and target
// SDRAM over a bridge.Bus: Load writes an image, Verify reads it back and
// diffs it against the original, Dump reads a memory range out to a file,
// Wash fills a range with zero words. All four are thin wrappers around
// bridge.ReadMany/WriteMany chunked bursts, reporting progress the way the
// teacher's flash tools narrate a long-running transfer.
package loader

import (
	"os"

	"github.com/juju/errors"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/uviespace/uviemon/cli/ourutil"
	"github.com/uviespace/uviemon/internal/bridge"
	"github.com/uviespace/uviemon/internal/probe"
)

// headerPrefixSize is the opaque ELF header every image carries ahead of
// its loadable content: Load/Verify skip it and place the remainder at
// AddressMap.SDRAMStart.
const headerPrefixSize = 64 * 1024

func wordsFromBytes(data []byte) []uint32 {
	n := (len(data) + 3) / 4
	words := make([]uint32, n)
	for i := 0; i < n; i++ {
		var b [4]byte
		copy(b[:], data[i*4:])
		words[i] = uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	}
	return words
}

func bytesFromWords(words []uint32) []byte {
	out := make([]byte, len(words)*4)
	for i, w := range words {
		out[i*4] = byte(w)
		out[i*4+1] = byte(w >> 8)
		out[i*4+2] = byte(w >> 16)
		out[i*4+3] = byte(w >> 24)
	}
	return out
}

func progressReporter(label string) bridge.ProgressFunc {
	return func(chunk, total int) {
		ourutil.Reportf("%s: chunk %d/%d", label, chunk, total)
	}
}

// Load writes the file at path to target SDRAM. The file must be at least
// headerPrefixSize: the leading headerPrefixSize bytes are an opaque ELF
// header and are skipped, the remainder is written starting at
// amp.SDRAMStart.
func Load(bus *bridge.Bus, amp probe.AddressMap, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Annotatef(err, "loader: load: read %s", path)
	}
	if len(data) < headerPrefixSize {
		return errors.Annotatef(ErrImageTooSmall, "loader: load: %s is %d bytes", path, len(data))
	}
	data = data[headerPrefixSize:]
	words := wordsFromBytes(data)
	addr := amp.SDRAMStart
	if err := bus.WriteMany(addr, words, progressReporter("load")); err != nil {
		return errors.Annotatef(err, "loader: load: write %d words @0x%08x", len(words), addr)
	}
	ourutil.Reportf("load: wrote %d bytes to 0x%08x", len(data), addr)
	return nil
}

// Dump reads n bytes of target memory starting at addr and writes them to
// path.
func Dump(bus *bridge.Bus, addr uint32, n int, path string) error {
	wordCount := (n + 3) / 4
	words, err := bus.ReadMany(addr, wordCount, progressReporter("dump"))
	if err != nil {
		return errors.Annotatef(err, "loader: dump: read %d words @0x%08x", wordCount, addr)
	}
	data := bytesFromWords(words)[:n]
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Annotatef(err, "loader: dump: write %s", path)
	}
	ourutil.Reportf("dump: wrote %d bytes to %s", n, path)
	return nil
}

// VerifyResult reports the outcome of a Verify call.
type VerifyResult struct {
	Match       bool
	MismatchAt  int // byte offset of the first differing byte, valid iff !Match
	HexDumpHunk string
}

// Verify reads the file at path and compares it against target SDRAM,
// reporting the first mismatching byte offset and a short contextual
// hex-dump/text diff of the surrounding bytes. As with Load, the file's
// leading headerPrefixSize bytes are an opaque ELF header and are skipped
// before comparing against memory starting at amp.SDRAMStart.
func Verify(bus *bridge.Bus, amp probe.AddressMap, path string) (*VerifyResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotatef(err, "loader: verify: read %s", path)
	}
	if len(raw) < headerPrefixSize {
		return nil, errors.Annotatef(ErrImageTooSmall, "loader: verify: %s is %d bytes", path, len(raw))
	}
	want := raw[headerPrefixSize:]
	addr := amp.SDRAMStart
	words, err := bus.ReadMany(addr, (len(want)+3)/4, progressReporter("verify"))
	if err != nil {
		return nil, errors.Annotatef(err, "loader: verify: read %d bytes @0x%08x", len(want), addr)
	}
	got := bytesFromWords(words)[:len(want)]

	for i := range want {
		if want[i] != got[i] {
			return &VerifyResult{
				Match:       false,
				MismatchAt:  i,
				HexDumpHunk: hexDiffHunk(want, got, i),
			}, nil
		}
	}
	return &VerifyResult{Match: true}, nil
}

// hexDiffHunk renders a byte-level diff of the 16 bytes around offset,
// using diffmatchpatch the way the teacher's cli/config uses go-diff to
// present config mismatches: not a bit-exact disassembly, just enough
// context for an operator to see what changed.
func hexDiffHunk(want, got []byte, offset int) string {
	lo := offset - 8
	if lo < 0 {
		lo = 0
	}
	hi := offset + 8
	if hi > len(want) {
		hi = len(want)
	}
	if hi > len(got) {
		hi = len(got)
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(hexString(want[lo:hi]), hexString(got[lo:hi]), false)
	return dmp.DiffPrettyText(diffs)
}

func hexString(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 0, len(b)*3)
	for _, c := range b {
		out = append(out, hexDigits[c>>4], hexDigits[c&0xF], ' ')
	}
	return string(out)
}

// Wash overwrites n bytes of target memory starting at addr with zero
// words.
func Wash(bus *bridge.Bus, addr uint32, n int) error {
	wordCount := (n + 3) / 4
	words := make([]uint32, wordCount)
	if err := bus.WriteMany(addr, words, progressReporter("wash")); err != nil {
		return errors.Annotatef(err, "loader: wash: zero %d words @0x%08x", wordCount, addr)
	}
	ourutil.Reportf("wash: zeroed %d bytes at 0x%08x", n, addr)
	return nil
}
