// Package disk implements a Simulatron disk controller: a status/blocks-
// available/block-address/command register window plus a 4 KiB
// copy-in/copy-out data buffer (§6), backed by a single host file inside a
// directory. The host directory holds zero or one file; its presence is
// "connected", and any change (add/remove/replace) raises the disk
// interrupt with the status register updated (§6). The host-side file
// watching and block I/O are themselves out of the CORE's scope (§1) —
// this package is the boundary implementation satisfying that interface,
// not a claim that its mechanism is part of the specified core.
package disk

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cjriches/simulatron/internal/device"
	"github.com/cjriches/simulatron/internal/sched"
)

const (
	BlockSize = 4096

	offStatus   = 0
	offBlocks   = 1 // 4 bytes
	offBlockHi  = 5 // 4 bytes (block address, big-endian)
	offCommand  = 9

	// Status bits (§6).
	statusConnected uint8 = 1 << 0 // C
	statusFinish    uint8 = 1 << 1 // F, toggled on each completion
	statusSuccess   uint8 = 1 << 2 // S
	statusBad       uint8 = 1 << 3 // B

	// Commands (§6).
	CmdRead       = 0x01
	CmdWrite      = 0x02
	CmdContigRead = 0x03
	CmdContigWrite = 0x04

	// completionDelay is the simulated time a command takes before its
	// completion interrupt fires (§5 "after bounded time").
	completionDelay = 2 * time.Millisecond
)

// Disk is one of the two disk controllers (A or B). Register and data
// access methods are safe for the bus's single-threaded CPU caller; the
// file watcher and scheduled completions run on their own goroutines and
// take the same mutex.
type Disk struct {
	mu sync.Mutex

	name  string
	log   *slog.Logger
	irq   int
	intc  device.InterruptRaiser
	sched *sched.Scheduler

	dir      string
	fileName string // basename of the connected file, "" if none
	blocks   uint32 // blocks available in the connected file

	status     uint8
	blockAddr  uint32
	blockBytes [4]byte // accumulates the write-only block-address register

	buffer [BlockSize]byte

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// New constructs a disk controller watching the given host directory,
// raising irq on intc for both connection changes and command completion.
func New(name string, log *slog.Logger, dir string, intc device.InterruptRaiser, irq int, scheduler *sched.Scheduler) (*Disk, error) {
	d := &Disk{
		name:  name,
		log:   log,
		irq:   irq,
		intc:  intc,
		sched: scheduler,
		dir:   dir,
		done:  make(chan struct{}),
	}
	d.rescan()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}
	d.watcher = w
	go d.watch()
	return d, nil
}

func (d *Disk) Name() string { return d.name }

// rescan looks at the directory's contents and updates connected
// state. Called at construction and on every watcher event.
func (d *Disk) rescan() {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		d.log.Warn("disk: could not read directory", "dir", d.dir, "err", err)
		return
	}

	var files []os.DirEntry
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if len(files) == 0 {
		d.fileName = ""
		d.blocks = 0
		d.status &^= statusConnected
		return
	}

	name := files[0].Name()
	info, err := os.Stat(filepath.Join(d.dir, name))
	if err != nil {
		d.fileName = ""
		d.blocks = 0
		d.status &^= statusConnected
		return
	}
	d.fileName = name
	d.blocks = uint32(info.Size() / BlockSize)
	d.status |= statusConnected
}

func (d *Disk) watch() {
	for {
		select {
		case ev, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Write|fsnotify.Rename) != 0 {
				d.rescan()
				d.intc.Raise(d.irq)
			}
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.log.Warn("disk: watcher error", "err", err)
		case <-d.done:
			return
		}
	}
}

func (d *Disk) Shutdown() {
	close(d.done)
	if d.watcher != nil {
		_ = d.watcher.Close()
	}
}

// ReadReg implements the register window (§6): status and blocks-
// available are readable; block address and command are write-only and
// handled only via the bus's own direction enforcement (ReadReg is never
// called for them because the bus rejects reads of write-only offsets
// before reaching the device — see bus.diskRegAccess). ReadReg still
// answers them defensively with ok=false.
func (d *Disk) ReadReg(off uint32) (byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case off == offStatus:
		return d.status, true
	case off >= offBlocks && off < offBlockHi:
		shift := uint(off-offBlocks) * 8
		return byte(d.blocks >> (24 - shift)), true
	default:
		return 0, false
	}
}

func (d *Disk) WriteReg(off uint32, b byte) bool {
	switch {
	case off >= offBlockHi && off < offCommand:
		d.mu.Lock()
		d.blockBytes[off-offBlockHi] = b
		d.mu.Unlock()
		return true
	case off == offCommand:
		d.execute(b)
		return true
	default:
		return false
	}
}

func (d *Disk) ReadData(off uint32) byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buffer[off]
}

func (d *Disk) WriteData(off uint32, b byte) {
	d.mu.Lock()
	d.buffer[off] = b
	d.mu.Unlock()
}

// execute validates and schedules a command (§6). Malformed commands
// (unknown code, or a block address at or past blocks available) still
// complete — with B set — after the same bounded delay as a legitimate
// command, since §6 only requires that a completion interrupt is always
// raised, not that it is raised synchronously.
func (d *Disk) execute(cmd byte) {
	d.mu.Lock()
	d.blockAddr = uint32(d.blockBytes[0])<<24 | uint32(d.blockBytes[1])<<16 |
		uint32(d.blockBytes[2])<<8 | uint32(d.blockBytes[3])
	blockAddr := d.blockAddr
	blocks := d.blocks
	fileName := d.fileName
	d.mu.Unlock()

	bad := fileName == "" || blockAddr >= blocks
	switch cmd {
	case CmdRead, CmdWrite, CmdContigRead, CmdContigWrite:
		// Recognised; bad is still possible via the block-range check above.
	default:
		bad = true
	}

	d.sched.Schedule(completionDelay, func() {
		d.complete(cmd, blockAddr, bad, fileName)
	})
}

func (d *Disk) complete(cmd byte, blockAddr uint32, bad bool, fileName string) {
	success := false
	if !bad {
		if err := d.transfer(cmd, blockAddr, fileName); err != nil {
			d.log.Warn("disk: transfer failed", "err", err)
			bad = true
		} else {
			success = true
		}
	}

	d.mu.Lock()
	d.status ^= statusFinish
	d.status &^= statusSuccess | statusBad
	if success {
		d.status |= statusSuccess
		if cmd == CmdContigRead || cmd == CmdContigWrite {
			d.blockAddr++
			b := d.blockAddr
			d.blockBytes = [4]byte{byte(b >> 24), byte(b >> 16), byte(b >> 8), byte(b)}
		}
	} else {
		d.status |= statusBad
	}
	d.mu.Unlock()

	d.intc.Raise(d.irq)
}

func (d *Disk) transfer(cmd byte, blockAddr uint32, fileName string) error {
	path := filepath.Join(d.dir, fileName)
	mode := os.O_RDWR
	f, err := os.OpenFile(path, mode, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	offset := int64(blockAddr) * BlockSize
	switch cmd {
	case CmdRead, CmdContigRead:
		d.mu.Lock()
		_, err = f.ReadAt(d.buffer[:], offset)
		d.mu.Unlock()
		if err != nil && err != io.EOF {
			return err
		}
		return nil
	case CmdWrite, CmdContigWrite:
		d.mu.Lock()
		data := d.buffer
		d.mu.Unlock()
		_, err = f.WriteAt(data[:], offset)
		return err
	}
	return nil
}
