package device

import (
	"fmt"

	"batch-indicators/internal/model"
)

// Memory is the memory manager of one engine: a device pool for kernel
// buffers and a pinned pool for host staging buffers.
type Memory struct {
	Device *Pool
	Pinned *Pool
}

// NewMemory creates both pools with the capacities from info.
func NewMemory(info Info) *Memory {
	return &Memory{
		Device: NewPool(KindDevice, info.MemoryCap),
		Pinned: NewPool(KindPinned, info.PinnedCap),
	}
}

// Alloc acquires an uninitialized device buffer of n elements.
func (m *Memory) Alloc(n int) (*Buffer, error) {
	return m.Device.Acquire(n)
}

// Free returns device buffers to the pool. nil entries are skipped.
func (m *Memory) Free(bufs ...*Buffer) {
	for _, b := range bufs {
		m.Device.Release(b)
	}
}

// Upload copies a host matrix into a new device buffer through a pinned
// staging buffer.
func (m *Memory) Upload(src *model.Matrix) (*Buffer, error) {
	n := src.Len()
	stage, err := m.Pinned.Acquire(n)
	if err != nil {
		return nil, fmt.Errorf("upload staging: %w", err)
	}
	defer m.Pinned.Release(stage)
	copy(stage.Data(), src.Data())

	buf, err := m.Device.Acquire(n)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	copy(buf.Data(), stage.Data())
	return buf, nil
}

// Download copies a device buffer back into a new rows x cols host matrix.
func (m *Memory) Download(buf *Buffer, rows, cols int) (*model.Matrix, error) {
	if buf.Len() != rows*cols {
		return nil, fmt.Errorf("download: buffer holds %d values, want %dx%d", buf.Len(), rows, cols)
	}
	stage, err := m.Pinned.Acquire(buf.Len())
	if err != nil {
		return nil, fmt.Errorf("download staging: %w", err)
	}
	defer m.Pinned.Release(stage)
	copy(stage.Data(), buf.Data())

	out := make([]float32, buf.Len())
	copy(out, stage.Data())
	return model.NewMatrixFrom(rows, cols, out)
}

// Clear releases every cached block of both pools back to the system.
// Subsequent allocations start from a cold pool.
func (m *Memory) Clear() {
	m.Device.Clear()
	m.Pinned.Clear()
}
