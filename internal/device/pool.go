package device

import (
	"errors"
	"fmt"
	"sync"
)

const (
	// allocation granularity in bytes
	alignBytes = 512
	floatSize  = 4
)

// ErrOutOfMemory is returned when an allocation would exceed the pool capacity.
var ErrOutOfMemory = errors.New("device out of memory")

// Kind names the memory a pool manages.
type Kind string

const (
	KindDevice Kind = "device"
	KindPinned Kind = "pinned"
)

// Buffer is a block of float32 memory owned by a Pool.
type Buffer struct {
	data  []float32 // full block, len == capacity in elements
	n     int       // requested elements
	bytes int64     // aligned block size
	kind  Kind
	free  bool // cached in the pool
}

// Len returns the number of requested elements.
func (b *Buffer) Len() int { return b.n }

// Data returns the usable view of the block. Contents are undefined after
// Acquire; kernels must write every cell they later read.
func (b *Buffer) Data() []float32 { return b.data[:b.n] }

// PoolStats is a snapshot of pool counters.
type PoolStats struct {
	Kind        Kind
	Hits        int64 // requests served from the cache
	Misses      int64 // requests that allocated
	Failures    int64 // requests rejected with ErrOutOfMemory
	Clears      int64
	InUseBytes  int64
	CachedBytes int64
	CachedBlock int
}

// Pool caches released buffers by aligned size for reuse. It grows on demand
// and shrinks only on Clear (or when an allocation needs the room).
type Pool struct {
	mu       sync.Mutex
	kind     Kind
	capacity int64 // bytes, 0 = unlimited
	buckets  map[int64][]*Buffer
	stats    PoolStats
}

// NewPool creates an empty pool. capacity <= 0 means unlimited.
func NewPool(kind Kind, capacity int64) *Pool {
	if capacity < 0 {
		capacity = 0
	}
	return &Pool{
		kind:     kind,
		capacity: capacity,
		buckets:  make(map[int64][]*Buffer),
		stats:    PoolStats{Kind: kind},
	}
}

func alignSize(n int) int64 {
	b := int64(n) * floatSize
	if b == 0 {
		b = floatSize
	}
	return ((b + alignBytes - 1) / alignBytes) * alignBytes
}

// Acquire returns a buffer with room for n float32 values.
func (p *Pool) Acquire(n int) (*Buffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("%s pool: negative allocation %d", p.kind, n)
	}
	size := alignSize(n)

	p.mu.Lock()
	defer p.mu.Unlock()

	if bufs := p.buckets[size]; len(bufs) > 0 {
		b := bufs[len(bufs)-1]
		p.buckets[size] = bufs[:len(bufs)-1]
		p.stats.Hits++
		p.stats.CachedBytes -= size
		p.stats.CachedBlock--
		p.stats.InUseBytes += size
		b.n = n
		b.free = false
		return b, nil
	}

	if p.capacity > 0 && p.stats.InUseBytes+p.stats.CachedBytes+size > p.capacity {
		// drop the cache and retry once
		p.freeCachedLocked()
		if p.stats.InUseBytes+size > p.capacity {
			p.stats.Failures++
			return nil, fmt.Errorf("%w: %s pool cannot allocate %d bytes (in use %d, capacity %d)",
				ErrOutOfMemory, p.kind, size, p.stats.InUseBytes, p.capacity)
		}
	}

	p.stats.Misses++
	p.stats.InUseBytes += size
	return &Buffer{
		data:  make([]float32, size/floatSize),
		n:     n,
		bytes: size,
		kind:  p.kind,
	}, nil
}

// Release returns b to the cache. Releasing nil or an already released
// buffer is a no-op.
func (p *Pool) Release(b *Buffer) {
	if b == nil {
		return
	}
	p.mu.Lock()
	if b.free || b.data == nil {
		p.mu.Unlock()
		return
	}
	b.free = true
	p.buckets[b.bytes] = append(p.buckets[b.bytes], b)
	p.stats.InUseBytes -= b.bytes
	p.stats.CachedBytes += b.bytes
	p.stats.CachedBlock++
	p.mu.Unlock()
}

// Clear drops every cached block. Buffers currently acquired are not affected
// and are cached again when released.
func (p *Pool) Clear() {
	p.mu.Lock()
	p.freeCachedLocked()
	p.stats.Clears++
	p.mu.Unlock()
}

func (p *Pool) freeCachedLocked() {
	for size, bufs := range p.buckets {
		for _, b := range bufs {
			b.data = nil
		}
		delete(p.buckets, size)
	}
	p.stats.CachedBytes = 0
	p.stats.CachedBlock = 0
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
