package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/uviespace/uviemon/cli/ourutil"
	"github.com/uviespace/uviemon/common/ourio"
	"github.com/uviespace/uviemon/internal/bridge"
	"github.com/uviespace/uviemon/internal/disas"
	"github.com/uviespace/uviemon/internal/dsu"
	"github.com/uviespace/uviemon/internal/probe"
)

var errUnknownCommand = errors.New("uviemon: unknown command")

// repl holds everything a command handler needs, and the line history
// persisted around the session the way the teacher's console commands
// keep a serial port open across a whole mos invocation.
type repl struct {
	session  *probe.Session
	bus      *bridge.Bus
	target   *dsu.Target
	decoder  disas.Disassembler
	history  []string
	histPath string
}

func newREPL(session *probe.Session, bus *bridge.Bus, target *dsu.Target, decoder disas.Disassembler) *repl {
	histPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, ".uviemon_history")
	}
	r := &repl{session: session, bus: bus, target: target, decoder: decoder, histPath: histPath}
	r.loadHistory()
	return r
}

func (r *repl) loadHistory() {
	if r.histPath == "" {
		return
	}
	data, err := os.ReadFile(r.histPath)
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(data), "\n") {
		if line != "" {
			r.history = append(r.history, line)
		}
	}
}

func (r *repl) saveHistory() {
	if r.histPath == "" {
		return
	}
	data := []byte(strings.Join(r.history, "\n") + "\n")
	if _, err := ourio.WriteFileIfDifferent(r.histPath, data, 0644); err != nil {
		glog.Warningf("could not persist history: %s", err)
	}
}

// Run reads commands off stdin, in the teacher's ourutil.Prompt plain-read
// style, until `exit` or EOF. Exit code is 1 if the last command errored.
func (r *repl) Run() error {
	defer r.saveHistory()

	scanner := bufio.NewScanner(os.Stdin)
	lastErr := error(nil)
	for {
		fmt.Fprint(os.Stderr, "uviemon> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		r.history = append(r.history, line)

		fields := strings.Fields(line)
		name := fields[0]
		args := fields[1:]

		if name == "exit" {
			return lastErr
		}

		cmd, ok := commandTable[name]
		if !ok {
			ourutil.Reportf("unknown command %q; try 'help'", name)
			lastErr = errUnknownCommand
			continue
		}
		if err := cmd.handler(r, args); err != nil {
			ourutil.Reportf("error: %s", err)
			lastErr = err
			continue
		}
		lastErr = nil
	}
	return lastErr
}

// parseUint accepts both decimal and 0x-prefixed hex arguments, matching
// every `mem`/`wmem`/`bdump`-family command's address/length/value syntax.
func parseUint(s string) (uint64, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}
