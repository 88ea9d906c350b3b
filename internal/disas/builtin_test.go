package disas

import "testing"

func TestDisassembleSethi(t *testing.T) {
	// sethi %hi(0x12345000), %g1: op=00, rd=00001, op2=100, imm22=0x48D14
	word := uint32(0b00_00001_100_0001001000110100010100)
	got, err := Builtin{}.Disassemble(0, word)
	if err != nil {
		t.Fatal(err)
	}
	if got == "" {
		t.Error("expected a non-empty mnemonic")
	}
}

func TestDisassembleCall(t *testing.T) {
	// call pc+8: op=01, disp30=2
	word := uint32(1)<<30 | 2
	got, err := Builtin{}.Disassemble(0x40000000, word)
	if err != nil {
		t.Fatal(err)
	}
	if want := "call 0x40000008"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDisassembleFormat3Add(t *testing.T) {
	// add %r1, %r2, %r3: op=10, rd=00011, op3=000000, rs1=00001, i=0, asi=00000000, rs2=00010
	word := uint32(0b10_00011_000000_00001_0_00000000_00010)
	got, err := Builtin{}.Disassemble(0, word)
	if err != nil {
		t.Fatal(err)
	}
	if want := "add %r1, %r2, %r3"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSignExtend(t *testing.T) {
	if got, want := signExtend(0x1FFF, 13), int32(-1); got != want {
		t.Errorf("got %d, want %d", got, want)
	}
	if got, want := signExtend(0x0001, 13), int32(1); got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}
