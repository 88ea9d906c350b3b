// Package disas annotates a raw SPARC-V8 instruction word with a mnemonic,
// either by shelling out to a configured external disassembler or, absent
// one, a minimal built-in decoder. Both satisfy the same Disassembler
// interface so cmd/uviemon's `inst` command doesn't care which backend is
// active.
package disas

// Disassembler turns one instruction word, given the PC it was fetched
// from (SPARC-V8 PC-relative branches need it), into a mnemonic string.
type Disassembler interface {
	Disassemble(pc uint32, word uint32) (string, error)
}
