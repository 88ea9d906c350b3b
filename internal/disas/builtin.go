package disas

import "fmt"

// Builtin decodes just enough of SPARC-V8 to annotate a trace-buffer
// listing when no external disassembler is configured: CALL, SETHI,
// conditional branches (Bicc), and the common Format-3 arithmetic/logic
// ops. Anything else, including op=3 loads and stores, renders as a .word
// holding the raw hex word (with the op3 field for an unknown op=2
// instruction), not a mnemonic.
type Builtin struct{}

var bicc = map[uint32]string{
	0x0: "bn", 0x1: "be", 0x2: "ble", 0x3: "bl",
	0x4: "bleu", 0x5: "bcs", 0x6: "bneg", 0x7: "bvs",
	0x8: "ba", 0x9: "bne", 0xA: "bg", 0xB: "bge",
	0xC: "bgu", 0xD: "bcc", 0xE: "bpos", 0xF: "bvc",
}

var op3Format3 = map[uint32]string{
	0x00: "add", 0x01: "and", 0x02: "or", 0x03: "xor",
	0x04: "sub", 0x05: "andn", 0x06: "orn", 0x07: "xnor",
	0x08: "addx", 0x0A: "umul", 0x0B: "smul", 0x0C: "subx",
	0x0E: "udiv", 0x0F: "sdiv",
	0x10: "addcc", 0x11: "andcc", 0x12: "orcc", 0x13: "xorcc",
	0x14: "subcc", 0x15: "andncc", 0x16: "orncc", 0x17: "xnorcc",
	0x1C: "subxcc",
	0x20: "taddcc", 0x21: "tsubcc",
	0x25: "sll", 0x26: "srl", 0x27: "sra",
	0x38: "jmpl", 0x39: "rett", 0x3C: "save", 0x3D: "restore",
}

func (Builtin) Disassemble(pc uint32, word uint32) (string, error) {
	op := word >> 30
	switch op {
	case 0:
		return decodeFormat2(word)
	case 1:
		disp30 := word & 0x3FFFFFFF
		target := pc + disp30*4
		return fmt.Sprintf("call 0x%x", target), nil
	case 2:
		return decodeFormat3(word)
	default:
		return fmt.Sprintf(".word 0x%08x", word), nil
	}
}

// Format 2 covers SETHI and Bicc: bits [24:22] of op2 select which.
func decodeFormat2(word uint32) (string, error) {
	rd := (word >> 25) & 0x1F
	op2 := (word >> 22) & 0x7
	switch op2 {
	case 0x4: // SETHI
		imm22 := word & 0x3FFFFF
		return fmt.Sprintf("sethi %%hi(0x%x), %%r%d", imm22<<10, rd), nil
	case 0x2: // Bicc
		cond := (word >> 25) & 0xF
		disp22 := signExtend(word&0x3FFFFF, 22)
		mnem, ok := bicc[cond]
		if !ok {
			mnem = "b?"
		}
		return fmt.Sprintf("%s %+d", mnem, disp22*4), nil
	default:
		return fmt.Sprintf(".word 0x%08x", word), nil
	}
}

// Format 3 with op=2 covers arithmetic/logic/shift and
// jmpl/rett/save/restore, all sharing the rd, op3, rs1,
// i-bit/rs2-or-simm13 layout. Loads and stores (op=3) are not decoded here.
func decodeFormat3(word uint32) (string, error) {
	rd := (word >> 25) & 0x1F
	op3 := (word >> 19) & 0x3F
	rs1 := (word >> 14) & 0x1F
	useImm := (word>>13)&0x1 != 0

	mnem, ok := op3Format3[op3]
	if !ok {
		return fmt.Sprintf(".word 0x%08x  /* op3=0x%02x */", word, op3), nil
	}

	if useImm {
		simm13 := signExtend(word&0x1FFF, 13)
		return fmt.Sprintf("%s %%r%d, %d, %%r%d", mnem, rs1, simm13, rd), nil
	}
	rs2 := word & 0x1F
	return fmt.Sprintf("%s %%r%d, %%r%d, %%r%d", mnem, rs1, rs2, rd), nil
}

func signExtend(v uint32, bits int) int32 {
	shift := 32 - bits
	return int32(v<<uint(shift)) >> uint(shift)
}
