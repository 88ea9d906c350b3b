package main

import (
	"fmt"

	"github.com/juju/errors"

	"github.com/uviespace/uviemon/cli/ourutil"
	"github.com/uviespace/uviemon/internal/loader"
	"github.com/uviespace/uviemon/internal/reg"
	"github.com/uviespace/uviemon/internal/tap"
)

type command struct {
	short   string
	handler func(r *repl, args []string) error
}

var commandTable map[string]command

func init() {
	commandTable = map[string]command{
		"help":   {"List commands", cmdHelp},
		"scan":   {"Scan the JTAG chain: IDCODE, IR length, device count", cmdScan},
		"reset":  {"reset [cpu] -- reset one core's DSU state (default: the active core)", cmdReset},
		"mem":    {"mem <addr> <count> -- read count words", cmdMem},
		"memh":   {"memh <addr> <count> -- read count halfwords", cmdMemh},
		"memb":   {"memb <addr> <count> -- read count bytes", cmdMemb},
		"wmem":   {"wmem <addr> <value> -- write a word", cmdWmem},
		"wmemh":  {"wmemh <addr> <value> -- write a halfword", cmdWmemh},
		"wmemb":  {"wmemb <addr> <value> -- write a byte", cmdWmemb},
		"bdump":  {"bdump <addr> <count> <file> -- dump count bytes to file", cmdBdump},
		"inst":   {"inst [count] -- show the last count retired instructions (default 16)", cmdInst},
		"reg":    {"reg <name> [value] -- read or write a register", cmdReg},
		"cpu":    {"cpu [index] -- show or switch the active core", cmdCPU},
		"wash":   {"wash <addr> <count> -- zero count bytes", cmdWash},
		"load":   {"load <file> -- write file to SDRAM, skipping its 64KiB header", cmdLoad},
		"verify": {"verify <file> -- compare SDRAM against file, skipping its 64KiB header", cmdVerify},
		"run":    {"run -- resume the active core and wait for it to trap", cmdRun},
		"exit":   {"Exit uviemon", nil},
	}
}

func cmdHelp(r *repl, args []string) error {
	for _, name := range []string{"help", "scan", "reset", "mem", "memh", "memb", "wmem", "wmemh", "wmemb", "bdump", "inst", "reg", "cpu", "wash", "load", "verify", "run", "exit"} {
		fmt.Printf("  %-8s %s\n", name, commandTable[name].short)
	}
	return nil
}

func cmdScan(r *repl, args []string) error {
	idcode, err := tap.ReadIDCODE(r.session)
	if err != nil {
		return errors.Annotate(err, "scan: IDCODE")
	}
	irlen, err := tap.ScanIRLength(r.session)
	if err != nil {
		return errors.Annotate(err, "scan: IR length")
	}
	count, err := tap.GetJTAGCount(r.session)
	if err != nil {
		return errors.Annotate(err, "scan: device count")
	}
	fmt.Printf("IDCODE: 0x%08x\nIR length: %d\nDevices in chain: %d\n", idcode, irlen, count)
	return nil
}

func cmdReset(r *repl, args []string) error {
	cpu := r.target.Active
	if len(args) > 0 {
		v, err := parseUint(args[0])
		if err != nil {
			return errors.Annotatef(err, "reset: cpu")
		}
		cpu = int(v)
	}
	if err := r.target.Reset(cpu); err != nil {
		return errors.Trace(err)
	}
	ourutil.Reportf("reset: cpu %d reset", cpu)
	return nil
}

func requireArgs(args []string, n int, usage string) error {
	if len(args) < n {
		return errors.Errorf("missing arguments; usage: %s", usage)
	}
	return nil
}

func cmdMem(r *repl, args []string) error {
	if err := requireArgs(args, 2, "mem <addr> <count>"); err != nil {
		return err
	}
	addr, err := parseUint(args[0])
	if err != nil {
		return errors.Annotate(err, "mem: addr")
	}
	count, err := parseUint(args[1])
	if err != nil {
		return errors.Annotate(err, "mem: count")
	}
	words, err := r.bus.ReadMany(uint32(addr), int(count), nil)
	if err != nil {
		return errors.Trace(err)
	}
	for i, w := range words {
		fmt.Printf("0x%08x: 0x%08x\n", uint32(addr)+uint32(i*4), w)
	}
	return nil
}

func cmdMemh(r *repl, args []string) error {
	if err := requireArgs(args, 2, "memh <addr> <count>"); err != nil {
		return err
	}
	addr, err := parseUint(args[0])
	if err != nil {
		return errors.Annotate(err, "memh: addr")
	}
	count, err := parseUint(args[1])
	if err != nil {
		return errors.Annotate(err, "memh: count")
	}
	for i := uint64(0); i < count; i++ {
		a := uint32(addr) + uint32(i*2)
		v, err := r.bus.Read16(a)
		if err != nil {
			return errors.Trace(err)
		}
		fmt.Printf("0x%08x: 0x%04x\n", a, v)
	}
	return nil
}

func cmdMemb(r *repl, args []string) error {
	if err := requireArgs(args, 2, "memb <addr> <count>"); err != nil {
		return err
	}
	addr, err := parseUint(args[0])
	if err != nil {
		return errors.Annotate(err, "memb: addr")
	}
	count, err := parseUint(args[1])
	if err != nil {
		return errors.Annotate(err, "memb: count")
	}
	for i := uint64(0); i < count; i++ {
		a := uint32(addr) + uint32(i)
		v, err := r.bus.Read8(a)
		if err != nil {
			return errors.Trace(err)
		}
		fmt.Printf("0x%08x: 0x%02x\n", a, v)
	}
	return nil
}

func cmdWmem(r *repl, args []string) error {
	if err := requireArgs(args, 2, "wmem <addr> <value>"); err != nil {
		return err
	}
	addr, err := parseUint(args[0])
	if err != nil {
		return errors.Annotate(err, "wmem: addr")
	}
	value, err := parseUint(args[1])
	if err != nil {
		return errors.Annotate(err, "wmem: value")
	}
	return r.bus.Write32(uint32(addr), uint32(value))
}

func cmdWmemh(r *repl, args []string) error {
	if err := requireArgs(args, 2, "wmemh <addr> <value>"); err != nil {
		return err
	}
	addr, err := parseUint(args[0])
	if err != nil {
		return errors.Annotate(err, "wmemh: addr")
	}
	value, err := parseUint(args[1])
	if err != nil {
		return errors.Annotate(err, "wmemh: value")
	}
	return r.bus.Write16(uint32(addr), uint16(value))
}

func cmdWmemb(r *repl, args []string) error {
	if err := requireArgs(args, 2, "wmemb <addr> <value>"); err != nil {
		return err
	}
	addr, err := parseUint(args[0])
	if err != nil {
		return errors.Annotate(err, "wmemb: addr")
	}
	value, err := parseUint(args[1])
	if err != nil {
		return errors.Annotate(err, "wmemb: value")
	}
	return r.bus.Write8(uint32(addr), uint8(value))
}

func cmdBdump(r *repl, args []string) error {
	if err := requireArgs(args, 3, "bdump <addr> <count> <file>"); err != nil {
		return err
	}
	addr, err := parseUint(args[0])
	if err != nil {
		return errors.Annotate(err, "bdump: addr")
	}
	count, err := parseUint(args[1])
	if err != nil {
		return errors.Annotate(err, "bdump: count")
	}
	return loader.Dump(r.bus, uint32(addr), int(count), args[2])
}

func cmdInst(r *repl, args []string) error {
	count := 16
	if len(args) > 0 {
		v, err := parseUint(args[0])
		if err != nil {
			return errors.Annotate(err, "inst: count")
		}
		count = int(v)
	}
	lines, err := r.target.Cores[r.target.Active].Regs.InstTraceBuffer(count, 0)
	if err != nil {
		return errors.Trace(err)
	}
	for _, line := range lines {
		pc, word := line.Field[0], line.Field[1]
		mnem, err := r.decoder.Disassemble(pc, word)
		if err != nil {
			mnem = fmt.Sprintf("<disas error: %s>", err)
		}
		fmt.Printf("0x%08x: 0x%08x  %s\n", pc, word, mnem)
	}
	return nil
}

func cmdReg(r *repl, args []string) error {
	if err := requireArgs(args, 1, "reg <name> [value]"); err != nil {
		return err
	}
	parsed, err := reg.Parse(r.target, r.target.Active, args[0])
	if err != nil {
		return errors.Trace(err)
	}
	if len(args) >= 2 {
		v, err := parseUint(args[1])
		if err != nil {
			return errors.Annotate(err, "reg: value")
		}
		if err := parsed.Set(r.target, v); err != nil {
			return errors.Trace(err)
		}
		ourutil.Reportf("reg: %s = 0x%x", args[0], v)
		return nil
	}
	v, err := parsed.Get(r.target)
	if err != nil {
		return errors.Trace(err)
	}
	fmt.Printf("%s = 0x%x\n", args[0], v)
	return nil
}

func cmdCPU(r *repl, args []string) error {
	if len(args) == 0 {
		fmt.Printf("active cpu: %d (of %d)\n", r.target.Active, len(r.target.Cores))
		return nil
	}
	v, err := parseUint(args[0])
	if err != nil {
		return errors.Annotate(err, "cpu: index")
	}
	if int(v) < 0 || int(v) >= len(r.target.Cores) {
		return errors.Errorf("cpu: index %d out of range [0,%d)", v, len(r.target.Cores))
	}
	r.target.Active = int(v)
	return nil
}

func cmdWash(r *repl, args []string) error {
	if err := requireArgs(args, 2, "wash <addr> <count>"); err != nil {
		return err
	}
	addr, err := parseUint(args[0])
	if err != nil {
		return errors.Annotate(err, "wash: addr")
	}
	count, err := parseUint(args[1])
	if err != nil {
		return errors.Annotate(err, "wash: count")
	}
	return loader.Wash(r.bus, uint32(addr), int(count))
}

func cmdLoad(r *repl, args []string) error {
	if err := requireArgs(args, 1, "load <file>"); err != nil {
		return err
	}
	return loader.Load(r.bus, r.session.AddrMap, args[0])
}

func cmdVerify(r *repl, args []string) error {
	if err := requireArgs(args, 1, "verify <file>"); err != nil {
		return err
	}
	result, err := loader.Verify(r.bus, r.session.AddrMap, args[0])
	if err != nil {
		return errors.Trace(err)
	}
	if result.Match {
		fmt.Println("verify: OK, image matches memory")
		return nil
	}
	fmt.Printf("verify: mismatch at byte offset %d\n%s\n", result.MismatchAt, result.HexDumpHunk)
	return errors.Annotatef(loader.ErrVerifyMismatch, "first mismatch at offset %d", result.MismatchAt)
}

func cmdRun(r *repl, args []string) error {
	cpu := r.target.Active
	res, err := r.target.Run(cpu)
	if err != nil {
		return errors.Trace(err)
	}
	fmt.Printf("run: %s (tt=0x%02x tbr_tt=0x%02x)\n", res.Status, res.TT, res.TBRTT)
	if len(res.Output) > 0 {
		fmt.Printf("console output:\n%s\n", string(res.Output))
	}
	return nil
}
