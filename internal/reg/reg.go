// Package reg parses a human-typed register name ("psr", "g3", "w5l2",
// "sp", "f12", "d4") into a tagged Register descriptor and dispatches
// Get/Set against a dsu.Target, following original_source/uviemon_reg.c's
// register_desc/parse_register shape.
package reg

import (
	"regexp"
	"strconv"

	"github.com/juju/errors"

	"github.com/uviespace/uviemon/cli/ourutil"
	"github.com/uviespace/uviemon/internal/dsu"
)

// Kind distinguishes the three register address spaces a Register name
// can land in.
type Kind int

const (
	Standard Kind = iota
	Float
	Double
)

// Register is a parsed, ready-to-dispatch register reference. Letter
// holds the IU bank selector (g/l/i/o/sp/fp) for Kind == Standard
// registers that live in the windowed/global IU file; it's empty for the
// special-purpose registers (psr, y, ...).
type Register struct {
	Name   string
	Kind   Kind
	Letter string
	CPU    int
	Num    int
	Window int // only meaningful when Letter is l/i/o/sp/fp
}

var (
	reSpecial  = regexp.MustCompile(`^(?P<name>y|psr|wim|tbr|pc|npc|fsr|cpsr)$`)
	reWindowed = regexp.MustCompile(`^w(?P<window>[0-9]+)(?P<letter>[glio])(?P<num>[0-9]+)$`)
	reBareIU   = regexp.MustCompile(`^(?P<letter>[glio])(?P<num>[0-9]+)$`)
	reSPFP     = regexp.MustCompile(`^(?P<letter>sp|fp)$`)
	reFloat    = regexp.MustCompile(`^f(?P<num>[0-9]+)$`)
	reDouble   = regexp.MustCompile(`^d(?P<num>[0-9]+)$`)
)

// Parse resolves name against cpu's current window (read from PSR's CWP
// field, bits [4:0]) for any form that doesn't carry an explicit window
// (bare g/l/i/o, sp, fp).
func Parse(target *dsu.Target, cpu int, name string) (*Register, error) {
	if m := ourutil.FindNamedSubmatches(reSpecial, name); m != nil {
		return &Register{Name: m["name"], Kind: Standard, CPU: cpu}, nil
	}

	if m := ourutil.FindNamedSubmatches(reWindowed, name); m != nil {
		win, _ := strconv.Atoi(m["window"])
		num, _ := strconv.Atoi(m["num"])
		return &Register{Name: name, Kind: Standard, Letter: m["letter"], CPU: cpu, Num: num, Window: win}, nil
	}

	if m := ourutil.FindNamedSubmatches(reBareIU, name); m != nil {
		cwp, err := currentWindow(target, cpu)
		if err != nil {
			return nil, errors.Trace(err)
		}
		num, _ := strconv.Atoi(m["num"])
		return &Register{Name: name, Kind: Standard, Letter: m["letter"], CPU: cpu, Num: num, Window: cwp}, nil
	}

	if m := ourutil.FindNamedSubmatches(reSPFP, name); m != nil {
		cwp, err := currentWindow(target, cpu)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return &Register{Name: name, Kind: Standard, Letter: m["letter"], CPU: cpu, Num: 6, Window: cwp}, nil
	}

	if m := ourutil.FindNamedSubmatches(reFloat, name); m != nil {
		num, _ := strconv.Atoi(m["num"])
		return &Register{Name: name, Kind: Float, CPU: cpu, Num: num}, nil
	}

	if m := ourutil.FindNamedSubmatches(reDouble, name); m != nil {
		num, _ := strconv.Atoi(m["num"])
		return &Register{Name: name, Kind: Double, CPU: cpu, Num: num}, nil
	}

	return nil, errors.Errorf("reg: unrecognized register name %q", name)
}

func currentWindow(target *dsu.Target, cpu int) (int, error) {
	psr, err := target.Cores[cpu].Regs.GetPSR()
	if err != nil {
		return 0, errors.Annotate(err, "reg: read PSR for current window")
	}
	return int(psr & 0x1F), nil
}

// Get reads the register's current value. Standard and Float registers
// return a plain 32-bit word widened to uint64; Double registers return
// the full 64 bits, packed the same way dsu.Regs.GetDouble does.
func (r *Register) Get(target *dsu.Target) (uint64, error) {
	c := target.Cores[r.CPU]
	switch r.Kind {
	case Float:
		v, err := c.Regs.GetFloat(r.Num)
		return uint64(v), err
	case Double:
		return c.Regs.GetDouble(r.Num)
	}

	switch r.Name {
	case "y":
		v, err := c.Regs.GetY()
		return uint64(v), err
	case "psr":
		v, err := c.Regs.GetPSR()
		return uint64(v), err
	case "wim":
		v, err := c.Regs.GetWIM()
		return uint64(v), err
	case "tbr":
		v, err := c.Regs.GetTBR()
		return uint64(v), err
	case "pc":
		v, err := c.Regs.GetPC()
		return uint64(v), err
	case "npc":
		v, err := c.Regs.GetNPC()
		return uint64(v), err
	case "fsr":
		v, err := c.Regs.GetFSR()
		return uint64(v), err
	case "cpsr":
		v, err := c.Regs.GetCPSR()
		return uint64(v), err
	}

	switch r.Letter {
	case "sp":
		v, err := c.Regs.GetSP(r.Window)
		return uint64(v), err
	case "fp":
		v, err := c.Regs.GetFP(r.Window)
		return uint64(v), err
	case "g":
		v, err := c.Regs.GetGlobal(r.Num)
		return uint64(v), err
	case "l":
		v, err := c.Regs.GetLocal(r.Window, r.Num)
		return uint64(v), err
	case "i":
		v, err := c.Regs.GetInput(r.Window, r.Num)
		return uint64(v), err
	case "o":
		v, err := c.Regs.GetOutput(r.Window, r.Num)
		return uint64(v), err
	}
	return 0, errors.Errorf("reg: %q: no dispatch for this register form", r.Name)
}

// Set writes the register. v is truncated to 32 bits for every Standard
// and Float register; Double registers use the full 64 bits.
func (r *Register) Set(target *dsu.Target, v uint64) error {
	c := target.Cores[r.CPU]
	switch r.Kind {
	case Float:
		return c.Regs.SetFloat(r.Num, uint32(v))
	case Double:
		return c.Regs.SetDouble(r.Num, v)
	}

	v32 := uint32(v)
	switch r.Name {
	case "y":
		return c.Regs.SetY(v32)
	case "psr":
		return c.Regs.SetPSR(v32)
	case "wim":
		return c.Regs.SetWIM(v32)
	case "tbr":
		return c.Regs.SetTBR(v32)
	case "pc":
		return c.Regs.SetPC(v32)
	case "npc":
		return c.Regs.SetNPC(v32)
	case "fsr":
		return c.Regs.SetFSR(v32)
	case "cpsr":
		return c.Regs.SetCPSR(v32)
	}

	switch r.Letter {
	case "sp":
		return c.Regs.SetSP(r.Window, v32)
	case "fp":
		return c.Regs.SetFP(r.Window, v32)
	case "g":
		return c.Regs.SetGlobal(r.Num, v32)
	case "l":
		return c.Regs.SetLocal(r.Window, r.Num, v32)
	case "i":
		return c.Regs.SetInput(r.Window, r.Num, v32)
	case "o":
		return c.Regs.SetOutput(r.Window, r.Num, v32)
	}
	return errors.Errorf("reg: %q: no dispatch for this register form", r.Name)
}
