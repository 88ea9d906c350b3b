package dsu

import (
	"github.com/juju/errors"
)

// TraceLine is one retired-instruction record: 4 dwords of hardware trace
// metadata (PC, instruction word, and two implementation-defined result
// fields), matching the original's field[0..3] layout.
type TraceLine struct {
	Field [4]uint32
}

// InstTraceBuffer reads lineCount lines out of the instruction trace ring,
// starting lineStart lines back from the hardware write pointer, handling
// the circular wraparound the same way dsu_get_instr_trace_buffer does: the
// write pointer (ctrl&0xFF) gives the next line to be written, so reading
// backwards from it may wrap past line 0 of the buffer.
func (r *Regs) InstTraceBuffer(lineCount, lineStart int) ([]TraceLine, error) {
	ctrl, err := r.bus.Read32(r.base() + instTraceCtrl)
	if err != nil {
		return nil, errors.Trace(err)
	}
	instPointer := int(ctrl & 0xFF)

	first := instPointer - lineStart - lineCount
	first = ((first % instTraceBufSize) + instTraceBufSize) % instTraceBufSize

	lines := make([]TraceLine, 0, lineCount)
	for i := 0; i < lineCount; i++ {
		lineIdx := (first + i) % instTraceBufSize
		addr := r.base() + instTraceBufStart + uint32(lineIdx*instTraceLineSize)
		var line TraceLine
		for f := 0; f < 4; f++ {
			v, err := r.bus.Read32(addr + uint32(f*4))
			if err != nil {
				return nil, errors.Annotatef(err, "trace buffer line %d field %d", lineIdx, f)
			}
			line.Field[f] = v
		}
		lines = append(lines, line)
	}
	return lines, nil
}
