// Package device emulates a parallel array device on the host CPU.
//
// Kernels are launched over the row axis of a matrix: rows are split into
// fixed-size blocks and at most Workers blocks execute at once. Each call to
// Launch blocks until every block has finished, so kernel launches are
// synchronous from the caller's point of view.
package device

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBlockRows is the number of rows handled by one block.
	DefaultBlockRows = 32

	deviceName = "cpu-array"
)

// Config configures a Device. Zero values select defaults.
type Config struct {
	Workers   int   // max concurrent blocks, default GOMAXPROCS
	BlockRows int   // rows per block, default DefaultBlockRows
	MemoryCap int64 // device pool capacity in bytes, 0 = unlimited
	PinnedCap int64 // pinned staging pool capacity in bytes, 0 = unlimited
}

// Info describes a device.
type Info struct {
	Name      string
	Workers   int
	BlockRows int
	MemoryCap int64
	PinnedCap int64
}

// Device executes row-parallel kernels.
type Device struct {
	info Info
}

// New creates a device from cfg.
func New(cfg Config) *Device {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	blockRows := cfg.BlockRows
	if blockRows <= 0 {
		blockRows = DefaultBlockRows
	}
	return &Device{
		info: Info{
			Name:      deviceName,
			Workers:   workers,
			BlockRows: blockRows,
			MemoryCap: cfg.MemoryCap,
			PinnedCap: cfg.PinnedCap,
		},
	}
}

// Info returns the device description.
func (d *Device) Info() Info { return d.info }

// Kernel processes rows [lo, hi). It must not touch rows outside its range.
type Kernel func(lo, hi int)

// Launch runs kernel over rows [0, rows) split into blocks and waits for all
// blocks to complete.
func (d *Device) Launch(rows int, kernel Kernel) {
	if rows <= 0 {
		return
	}

	block := d.info.BlockRows
	if rows <= block {
		kernel(0, rows)
		return
	}

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(d.info.Workers)
	for lo := 0; lo < rows; lo += block {
		lo := lo
		hi := lo + block
		if hi > rows {
			hi = rows
		}
		g.Go(func() error {
			kernel(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}
