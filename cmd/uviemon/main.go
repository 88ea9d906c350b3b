// Command uviemon is an interactive debug monitor for LEON3/LEON4
// GR712RC-class SPARC-V8 targets, reached over an FT2232H JTAG probe.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/juju/errors"
	flag "github.com/spf13/pflag"

	"github.com/uviespace/uviemon/cli/ourutil"
	"github.com/uviespace/uviemon/common/pflagenv"
	"github.com/uviespace/uviemon/internal/bridge"
	"github.com/uviespace/uviemon/internal/disas"
	"github.com/uviespace/uviemon/internal/dsu"
	"github.com/uviespace/uviemon/internal/probe"
)

const envPrefix = "UVIEMON_"

var (
	serial     = flag.String("serial", "", "FT2232H device serial number; empty matches the first one found")
	familyFlag = flag.String("family", "leon3", "Target family: leon3 or leon4")
	timeout    = flag.Duration("timeout", 10*time.Millisecond, "USB bulk transfer timeout")
	disasPath  = flag.String("disas", "", "External SPARC disassembler binary (objdump-compatible); built-in decoder is used if empty")
	versionFlag = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()
	pflagenv.Parse(envPrefix)

	if *versionFlag {
		fmt.Printf("uviemon %s (build %s)\n", Version, BuildID)
		return
	}

	if err := run(); err != nil {
		glog.Infof("Error: %+v", err)
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	family, err := probe.ParseFamily(*familyFlag)
	if err != nil {
		return errors.Trace(err)
	}

	ourutil.Reportf("uviemon: opening %s probe (serial=%q)...", family, *serial)
	session, err := probe.Open(*serial, family)
	if err != nil {
		return errors.Annotate(err, "open probe")
	}
	defer session.Close()

	if err := session.Transport.SetTimeouts(*timeout, *timeout); err != nil {
		return errors.Annotate(err, "set USB timeouts")
	}

	bus := bridge.New(session)
	target, err := dsu.Open(bus, family)
	if err != nil {
		return errors.Annotate(err, "open DSU")
	}

	var decoder disas.Disassembler
	if *disasPath != "" {
		decoder = &disas.External{Path: *disasPath}
	} else {
		decoder = disas.Builtin{}
	}

	r := newREPL(session, bus, target, decoder)
	return r.Run()
}
