// Command simulatron boots a Simulatron machine from a boot ROM image
// and a small configuration file, then drives it from an interactive
// monitor on stdin, mirroring the teacher's root main.go: getopt flags,
// a slog.Logger wired through util/logger, a monitor goroutine that
// steps the CPU on the operator's commands, and a SIGINT/SIGTERM
// shutdown path.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	"github.com/cjriches/simulatron/internal/config"
	"github.com/cjriches/simulatron/internal/machine"
	"github.com/cjriches/simulatron/internal/monitor"
	"github.com/cjriches/simulatron/util/logger"
)

func main() {
	optConfig := getopt.StringLong("config", 'c', "simulatron.cfg", "Configuration file")
	optROM := getopt.StringLong("rom", 'r', "", "Boot ROM image (overrides the config file's ROM entry)")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optDebug := getopt.BoolLong("debug", 'd', "Mirror debug-level log records to stderr")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		var err error
		file, err = os.Create(*optLogFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "simulatron: cannot create log file:", err)
			os.Exit(1)
		}
		defer file.Close()
	}

	level := slog.LevelInfo
	if *optDebug {
		level = slog.LevelDebug
	}
	handler := logger.New(file, level, *optDebug)
	log := slog.New(handler)
	slog.SetDefault(log)

	log.Info("simulatron started", "version", machine.Version)

	cfg, err := config.Load(*optConfig)
	if err != nil {
		log.Error("loading configuration", "err", err)
		os.Exit(1)
	}
	if err := config.CheckDiskDirs(cfg); err != nil {
		log.Error("checking disk directories", "err", err)
		os.Exit(1)
	}

	romPath := cfg.ROMPath
	if *optROM != "" {
		romPath = *optROM
	}
	if romPath == "" {
		log.Error("no ROM image specified (set ROM in the config file or pass -r)")
		os.Exit(1)
	}
	romImage, err := os.ReadFile(romPath)
	if err != nil {
		log.Error("reading ROM image", "path", romPath, "err", err)
		os.Exit(1)
	}

	m, err := machine.New(machine.Config{
		ROM:      romImage,
		DiskADir: cfg.DiskADir,
		DiskBDir: cfg.DiskBDir,
		RAMSize:  cfg.RAMSize,
		Log:      log,
	})
	if err != nil {
		log.Error("starting machine", "err", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		monitor.New(m, log, os.Stdout).Run("simulatron> ")
		close(done)
	}()

	select {
	case <-sigChan:
		log.Info("received shutdown signal")
	case <-done:
		log.Info("monitor exited")
	}

	log.Info("shutting down machine")
	m.Shutdown()
	log.Info("shutdown complete")
}
