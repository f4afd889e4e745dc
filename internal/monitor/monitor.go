// Package monitor implements Simulatron's interactive debug console:
// examine/deposit/step/continue/break/reset/boot over a live
// *machine.Machine (SUPPLEMENTED FEATURES item 2), modeled on the
// teacher's command/command (command table shape), command/parser
// (tokenize + prefix-match dispatch), and command/reader (the liner
// read-eval-print loop).
package monitor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/cjriches/simulatron/internal/cpu"
	"github.com/cjriches/simulatron/internal/disasm"
	"github.com/cjriches/simulatron/internal/machine"
)

// command is one entry in the dispatch table: a name, the minimum
// unambiguous prefix length, and the handler (mirrors the teacher's
// command/parser cmd struct, prefix-matched the same way).
type command struct {
	name    string
	min     int
	process func(*Monitor, []string) (quit bool, err error)
}

var commandTable = []command{
	{"examine", 1, (*Monitor).cmdExamine},
	{"deposit", 1, (*Monitor).cmdDeposit},
	{"step", 2, (*Monitor).cmdStep},
	{"continue", 1, (*Monitor).cmdContinue},
	{"break", 3, (*Monitor).cmdBreak},
	{"reset", 3, (*Monitor).cmdReset},
	{"boot", 2, (*Monitor).cmdBoot},
	{"quit", 1, (*Monitor).cmdQuit},
	{"help", 1, (*Monitor).cmdHelp},
}

// Monitor is the operator console bound to one machine.
type Monitor struct {
	m           *machine.Machine
	log         *slog.Logger
	out         io.Writer
	breakpoints map[uint32]struct{}
}

// New constructs a Monitor over m. Output defaults to the process's
// stdout if out is nil.
func New(m *machine.Machine, log *slog.Logger, out io.Writer) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{m: m, log: log, out: out, breakpoints: make(map[uint32]struct{})}
}

// Run drives the liner-backed read-eval-print loop until `quit` or the
// line reader itself is aborted (Ctrl-D / Ctrl-C), mirroring the
// teacher's command/reader.ConsoleReader shape.
func (mon *Monitor) Run(prompt string) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(mon.complete)

	for {
		input, err := line.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return
			}
			mon.log.Error("monitor: error reading line", "err", err)
			return
		}
		line.AppendHistory(input)

		quit, err := mon.Process(input)
		if err != nil {
			fmt.Fprintln(mon.writer(), "error:", err)
		}
		if quit {
			return
		}
	}
}

func (mon *Monitor) writer() io.Writer {
	if mon.out != nil {
		return mon.out
	}
	return os.Stdout
}

// Process parses and executes one command line, for Run and for tests
// that want to drive the monitor without a real terminal.
func (mon *Monitor) Process(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	match, err := matchCommand(fields[0])
	if err != nil {
		return false, err
	}
	return match.process(mon, fields[1:])
}

func matchCommand(name string) (command, error) {
	name = strings.ToLower(name)
	var matches []command
	for _, c := range commandTable {
		if strings.HasPrefix(c.name, name) && len(name) >= c.min {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return command{}, fmt.Errorf("unknown command: %s", name)
	case 1:
		return matches[0], nil
	default:
		return command{}, fmt.Errorf("ambiguous command: %s", name)
	}
}

func (mon *Monitor) complete(line string) []string {
	fields := strings.Fields(line)
	if len(fields) > 1 || strings.HasSuffix(line, " ") {
		return nil
	}
	var out []string
	for _, c := range commandTable {
		if strings.HasPrefix(c.name, strings.ToLower(line)) {
			out = append(out, c.name)
		}
	}
	return out
}

func parseAddr(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return uint32(v), nil
}

// parseRegister resolves a register name (r0/r0h/r0b, f0, flags, uspr,
// kspr, pdpr, imr, pfsr) into its RegRef, mirroring §6's one-byte
// register reference from the operator's side.
func parseRegister(name string) (cpu.RegRef, bool, error) {
	lower := strings.ToLower(name)
	switch lower {
	case "flags":
		return cpu.NewSpecialReg(cpu.SpecialFlags), false, nil
	case "uspr":
		return cpu.NewSpecialReg(cpu.SpecialUSPR), false, nil
	case "kspr":
		return cpu.NewSpecialReg(cpu.SpecialKSPR), false, nil
	case "pdpr":
		return cpu.NewSpecialReg(cpu.SpecialPDPR), false, nil
	case "imr":
		return cpu.NewSpecialReg(cpu.SpecialIMR), false, nil
	case "pfsr":
		return cpu.NewSpecialReg(cpu.SpecialPFSR), false, nil
	}

	if strings.HasPrefix(lower, "f") {
		n, err := strconv.Atoi(lower[1:])
		if err != nil || n < 0 || n > 7 {
			return 0, false, fmt.Errorf("invalid float register %q", name)
		}
		return cpu.NewFloatReg(n), true, nil
	}

	if strings.HasPrefix(lower, "r") {
		body := lower[1:]
		width := 4
		switch {
		case strings.HasSuffix(body, "b"):
			width = 1
			body = strings.TrimSuffix(body, "b")
		case strings.HasSuffix(body, "h"):
			width = 2
			body = strings.TrimSuffix(body, "h")
		}
		n, err := strconv.Atoi(body)
		if err != nil || n < 0 || n > 7 {
			return 0, false, fmt.Errorf("invalid integer register %q", name)
		}
		return cpu.NewIntReg(n, width), false, nil
	}

	return 0, false, fmt.Errorf("unknown register %q", name)
}

// cmdExamine implements `examine <addr>` (one memory byte), `examine -i
// <addr> [count]` (disassembly), and `examine <register>`.
func (mon *Monitor) cmdExamine(args []string) (bool, error) {
	if len(args) == 0 {
		return false, errors.New("examine requires an address or register")
	}

	if args[0] == "-i" {
		if len(args) < 2 {
			return false, errors.New("examine -i requires an address")
		}
		addr, err := parseAddr(args[1])
		if err != nil {
			return false, err
		}
		count := 1
		if len(args) >= 3 {
			n, err := strconv.Atoi(args[2])
			if err != nil {
				return false, err
			}
			count = n
		}
		for i := 0; i < count; i++ {
			text, next := disasm.Format(mon.m.Bus(), addr)
			fmt.Fprintln(mon.writer(), text)
			addr = next
		}
		return false, nil
	}

	if ref, isFloat, err := parseRegister(args[0]); err == nil {
		if isFloat {
			fmt.Fprintf(mon.writer(), "%s = %v\n", args[0], mon.m.CPU().ReadFloat(ref))
		} else {
			fmt.Fprintf(mon.writer(), "%s = %#010x\n", args[0], mon.m.CPU().DebugReadInt(ref))
		}
		return false, nil
	}

	addr, err := parseAddr(args[0])
	if err != nil {
		return false, err
	}
	b, err := mon.m.Bus().ReadByte(addr)
	if err != nil {
		return false, err
	}
	fmt.Fprintf(mon.writer(), "%08X: %02X\n", addr, b)
	return false, nil
}

// cmdDeposit implements `deposit <addr> <byte>` and
// `deposit <register> <value>`.
func (mon *Monitor) cmdDeposit(args []string) (bool, error) {
	if len(args) != 2 {
		return false, errors.New("deposit requires a target and a value")
	}

	if ref, isFloat, err := parseRegister(args[0]); err == nil {
		if isFloat {
			v, err := strconv.ParseFloat(args[1], 32)
			if err != nil {
				return false, err
			}
			mon.m.CPU().WriteFloat(ref, float32(v))
		} else {
			v, err := strconv.ParseUint(args[1], 0, 32)
			if err != nil {
				return false, err
			}
			mon.m.CPU().DebugWriteInt(ref, uint32(v))
		}
		return false, nil
	}

	addr, err := parseAddr(args[0])
	if err != nil {
		return false, err
	}
	v, err := strconv.ParseUint(args[1], 0, 8)
	if err != nil {
		return false, err
	}
	return false, mon.m.Bus().WriteByte(addr, byte(v))
}

// cmdStep implements `step [n]`, stepping the CPU n times (default 1).
func (mon *Monitor) cmdStep(args []string) (bool, error) {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return false, err
		}
		n = v
	}
	for i := 0; i < n && !mon.m.CPU().Halted(); i++ {
		mon.m.Step()
	}
	fmt.Fprintf(mon.writer(), "PC = %#010x\n", mon.m.CPU().PC())
	return false, nil
}

// cmdContinue runs the CPU until it halts or hits a breakpoint address.
func (mon *Monitor) cmdContinue([]string) (bool, error) {
	for !mon.m.CPU().Halted() {
		mon.m.Step()
		if _, hit := mon.breakpoints[mon.m.CPU().PC()]; hit {
			fmt.Fprintf(mon.writer(), "breakpoint hit at %#010x\n", mon.m.CPU().PC())
			return false, nil
		}
	}
	fmt.Fprintln(mon.writer(), "halted")
	return false, nil
}

// cmdBreak implements `break <addr>` (set), `break clear <addr>` (clear
// one), and `break clear` (clear all).
func (mon *Monitor) cmdBreak(args []string) (bool, error) {
	if len(args) == 0 {
		return false, errors.New("break requires an address or 'clear'")
	}
	if args[0] == "clear" {
		if len(args) == 1 {
			mon.breakpoints = make(map[uint32]struct{})
			return false, nil
		}
		addr, err := parseAddr(args[1])
		if err != nil {
			return false, err
		}
		delete(mon.breakpoints, addr)
		return false, nil
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return false, err
	}
	mon.breakpoints[addr] = struct{}{}
	return false, nil
}

// cmdReset and cmdBoot both return the machine to its deterministic boot
// configuration (§3) — two names for the same operator action, matching
// SUPPLEMENTED FEATURES item 2's list of both verbs.
func (mon *Monitor) cmdReset([]string) (bool, error) {
	mon.m.Reset()
	return false, nil
}

func (mon *Monitor) cmdBoot([]string) (bool, error) {
	mon.m.Boot()
	return false, nil
}

func (mon *Monitor) cmdQuit([]string) (bool, error) {
	return true, nil
}

func (mon *Monitor) cmdHelp([]string) (bool, error) {
	fmt.Fprintln(mon.writer(), "commands: examine, deposit, step, continue, break, reset, boot, quit, help")
	return false, nil
}
