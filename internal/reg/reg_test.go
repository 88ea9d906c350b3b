package reg

import "testing"

func TestParseSpecialRegisters(t *testing.T) {
	for _, name := range []string{"y", "psr", "wim", "tbr", "pc", "npc", "fsr", "cpsr"} {
		r, err := Parse(nil, 0, name)
		if err != nil {
			t.Fatalf("Parse(%q): %s", name, err)
		}
		if r.Kind != Standard {
			t.Errorf("Parse(%q): kind = %v, want Standard", name, r.Kind)
		}
	}
}

func TestParseWindowedIURegister(t *testing.T) {
	r, err := Parse(nil, 0, "w5l2")
	if err != nil {
		t.Fatal(err)
	}
	if r.Window != 5 || r.Num != 2 || r.Letter != "l" {
		t.Errorf("got window=%d num=%d letter=%q, want window=5 num=2 letter=l", r.Window, r.Num, r.Letter)
	}
}

func TestParseFloatAndDouble(t *testing.T) {
	f, err := Parse(nil, 0, "f12")
	if err != nil {
		t.Fatal(err)
	}
	if f.Kind != Float || f.Num != 12 {
		t.Errorf("f12: kind=%v num=%d, want Float/12", f.Kind, f.Num)
	}

	d, err := Parse(nil, 0, "d4")
	if err != nil {
		t.Fatal(err)
	}
	if d.Kind != Double || d.Num != 4 {
		t.Errorf("d4: kind=%v num=%d, want Double/4", d.Kind, d.Num)
	}
}

func TestParseUnrecognizedName(t *testing.T) {
	if _, err := Parse(nil, 0, "not-a-register"); err == nil {
		t.Error("expected error for unrecognized register name")
	}
}
