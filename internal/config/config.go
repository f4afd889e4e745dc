// Package config implements a small line-oriented configuration file
// parser driving machine setup, modeled on the teacher's
// config/configparser (`#` comments, `key value...` records, a
// self-registering option table) and config/debugconfig (the
// self-registering `init()` pattern for a single log-file-style option).
// It knows nothing about devices itself; `cmd/simulatron` reads the
// parsed Config fields and builds an `internal/machine.Config` from them.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMissingDirectory is returned when a configured disk directory does
// not exist; the teacher's own `main.go` treats a missing input the same
// way: log and abort, never silently proceed.
var ErrMissingDirectory = errors.New("config: directory does not exist")

// Config holds every value a Simulatron boot needs, after parsing. Zero
// values mean "not set in the file"; the caller (cmd/simulatron) applies
// its own CLI-flag defaults on top.
type Config struct {
	ROMPath  string
	DiskADir string
	DiskBDir string
	LogFile  string
	RAMSize  uint32
}

// optionHandler is registered per key by RegisterOption; it receives the
// remaining words on the line and applies them to cfg.
type optionHandler func(cfg *Config, args []string) error

var handlers = map[string]optionHandler{}

// RegisterOption adds a recognized config-file key, in the teacher's
// `configparser.RegisterModel` style: callers (including this package's
// own init) register by name so the line parser stays a dumb tokenizer
// with no built-in knowledge of what keys exist.
func RegisterOption(name string, fn optionHandler) {
	handlers[strings.ToUpper(name)] = fn
}

func init() {
	RegisterOption("ROM", func(cfg *Config, args []string) error {
		if len(args) != 1 {
			return errors.New("config: ROM requires exactly one path argument")
		}
		cfg.ROMPath = args[0]
		return nil
	})
	RegisterOption("DISKA", func(cfg *Config, args []string) error {
		if len(args) != 1 {
			return errors.New("config: DISKA requires exactly one directory argument")
		}
		cfg.DiskADir = args[0]
		return nil
	})
	RegisterOption("DISKB", func(cfg *Config, args []string) error {
		if len(args) != 1 {
			return errors.New("config: DISKB requires exactly one directory argument")
		}
		cfg.DiskBDir = args[0]
		return nil
	})
	RegisterOption("LOGFILE", func(cfg *Config, args []string) error {
		if len(args) != 1 {
			return errors.New("config: LOGFILE requires exactly one path argument")
		}
		cfg.LogFile = args[0]
		return nil
	})
	RegisterOption("RAMSIZE", func(cfg *Config, args []string) error {
		if len(args) != 1 {
			return errors.New("config: RAMSIZE requires exactly one argument")
		}
		v, err := strconv.ParseUint(args[0], 0, 32)
		if err != nil {
			return fmt.Errorf("config: RAMSIZE must be a number: %w", err)
		}
		cfg.RAMSize = uint32(v)
		return nil
	})
}

// Load reads a configuration file in the teacher's line format: '#'
// starts a comment to end of line, blank lines are ignored, and every
// other line is `KEY value...` dispatched to a registered handler.
func Load(path string) (Config, error) {
	cfg := Config{}

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	lineNumber := 0
	for {
		line, err := reader.ReadString('\n')
		lineNumber++
		if len(line) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return cfg, fmt.Errorf("config: line %d: %w", lineNumber, err)
		}
		if parseErr := parseLine(&cfg, line); parseErr != nil {
			return cfg, fmt.Errorf("config: line %d: %w", lineNumber, parseErr)
		}
		if err != nil { // ReadString returned the final partial line with EOF
			break
		}
	}
	return cfg, nil
}

func parseLine(cfg *Config, line string) error {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	key := strings.ToUpper(fields[0])
	handler, ok := handlers[key]
	if !ok {
		return fmt.Errorf("unknown option: %s", fields[0])
	}
	return handler(cfg, fields[1:])
}

// CheckDiskDirs verifies both disk directories exist, matching the
// teacher's "missing directories cause startup to abort" contract (§6
// "CLI/filesystem surface").
func CheckDiskDirs(cfg Config) error {
	for _, dir := range []string{cfg.DiskADir, cfg.DiskBDir} {
		if dir == "" {
			continue
		}
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("%w: %s", ErrMissingDirectory, dir)
		}
	}
	return nil
}
