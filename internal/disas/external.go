package disas

import (
	"os"
	"strings"

	"github.com/juju/errors"
	"github.com/skratchdot/open-golang/open"

	"github.com/uviespace/uviemon/common/procutil"
)

// External shells out to a configured SPARC-V8 disassembler binary (e.g.
// sparc-elf-objdump in "disassemble a single word" mode) for each
// instruction: the word is written to a scratch file as a 4-byte
// big-endian raw binary blob and the tool's stdout is parsed back for the
// first mnemonic line.
type External struct {
	// Path to the disassembler binary, e.g. "sparc-elf-objdump".
	Path string
	// Args are appended after the fixed "-b binary -m sparc -D" flags;
	// used to pass a target-specific flag like "-Mv8" if the configured
	// tool needs one.
	Args []string
}

func (e *External) Disassemble(pc uint32, word uint32) (string, error) {
	if e.Path == "" {
		return "", errors.New("disas: external: no disassembler binary configured")
	}

	f, err := os.CreateTemp("", "uviemon-disas-*.bin")
	if err != nil {
		return "", errors.Annotate(err, "disas: external: create scratch file")
	}
	defer os.Remove(f.Name())
	defer f.Close()

	buf := []byte{byte(word >> 24), byte(word >> 16), byte(word >> 8), byte(word)}
	if _, err := f.Write(buf); err != nil {
		return "", errors.Annotate(err, "disas: external: write scratch file")
	}
	f.Close()

	args := append([]string{"-b", "binary", "-m", "sparc", "-D"}, e.Args...)
	args = append(args, f.Name())
	out, err := procutil.GetCommandOutput(e.Path, args...)
	if err != nil {
		return "", errors.Annotatef(err, "disas: external: run %s", e.Path)
	}
	return parseObjdumpMnemonic(out), nil
}

// parseObjdumpMnemonic pulls the mnemonic+operands off the first
// disassembled line of an objdump -D listing, which looks like:
//
//	   0:	82 10 20 00 	mov  %g0, %g1
func parseObjdumpMnemonic(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, ":\t") {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) < 3 {
			continue
		}
		return strings.TrimSpace(parts[2])
	}
	return ""
}

// ViewListing opens a full disassembly listing file in the host's default
// viewer, the same way the teacher's mos/ui.go opens a generated web UI
// page with open.Start rather than re-implementing a pager.
func ViewListing(path string) error {
	if err := open.Start(path); err != nil {
		return errors.Annotatef(err, "disas: open listing %s", path)
	}
	return nil
}
