package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignSize(t *testing.T) {
	assert.Equal(t, int64(512), alignSize(0))
	assert.Equal(t, int64(512), alignSize(1))
	assert.Equal(t, int64(512), alignSize(128))
	assert.Equal(t, int64(1024), alignSize(129))
}

func TestPool_ReuseAfterRelease(t *testing.T) {
	p := NewPool(KindDevice, 0)

	a, err := p.Acquire(100)
	require.NoError(t, err)
	assert.Equal(t, 100, a.Len())
	p.Release(a)

	// same size class -> served from cache
	b, err := p.Acquire(120)
	require.NoError(t, err)
	assert.Equal(t, 120, b.Len())

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(512), stats.InUseBytes)
	assert.Equal(t, int64(0), stats.CachedBytes)
}

func TestPool_DifferentSizeClassAllocates(t *testing.T) {
	p := NewPool(KindDevice, 0)

	a, err := p.Acquire(10)
	require.NoError(t, err)
	p.Release(a)

	_, err = p.Acquire(1000)
	require.NoError(t, err)

	stats := p.Stats()
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, 1, stats.CachedBlock)
}

func TestPool_ClearDropsCacheOnly(t *testing.T) {
	p := NewPool(KindDevice, 0)

	held, err := p.Acquire(64)
	require.NoError(t, err)
	cached, err := p.Acquire(64)
	require.NoError(t, err)
	p.Release(cached)

	p.Clear()
	stats := p.Stats()
	assert.Equal(t, int64(0), stats.CachedBytes)
	assert.Equal(t, int64(512), stats.InUseBytes)
	assert.Equal(t, int64(1), stats.Clears)

	// the held buffer is still usable and can be released after a clear
	held.Data()[0] = 42
	p.Release(held)
	assert.Equal(t, int64(0), p.Stats().InUseBytes)

	// cold pool: next acquire of a cleared size is a miss only if nothing was
	// returned since the clear; held was, so it is a hit
	_, err = p.Acquire(64)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.Stats().Hits)
}

func TestPool_CapacityExceeded(t *testing.T) {
	p := NewPool(KindDevice, 1024)

	a, err := p.Acquire(128) // 512 bytes
	require.NoError(t, err)
	_, err = p.Acquire(128)
	require.NoError(t, err)

	_, err = p.Acquire(1)
	assert.ErrorIs(t, err, ErrOutOfMemory)
	assert.Equal(t, int64(1), p.Stats().Failures)

	// releasing makes room again
	p.Release(a)
	_, err = p.Acquire(1)
	assert.NoError(t, err)
}

func TestPool_CapacityDropsCacheBeforeFailing(t *testing.T) {
	p := NewPool(KindDevice, 1024)

	a, err := p.Acquire(256) // 1024 bytes
	require.NoError(t, err)
	p.Release(a)

	// different size class; cache must be dropped to fit
	b, err := p.Acquire(10)
	require.NoError(t, err)
	assert.Equal(t, 10, b.Len())

	stats := p.Stats()
	assert.Equal(t, int64(0), stats.CachedBytes)
	assert.Equal(t, int64(512), stats.InUseBytes)
}

func TestPool_ReleaseNil(t *testing.T) {
	p := NewPool(KindPinned, 0)
	assert.NotPanics(t, func() { p.Release(nil) })
}

func TestPool_DoubleReleaseIgnored(t *testing.T) {
	p := NewPool(KindDevice, 0)

	a, err := p.Acquire(64)
	require.NoError(t, err)
	p.Release(a)
	p.Release(a)

	stats := p.Stats()
	assert.Equal(t, 1, stats.CachedBlock)
	assert.Equal(t, int64(512), stats.CachedBytes)
	assert.Equal(t, int64(0), stats.InUseBytes)

	b, err := p.Acquire(64)
	require.NoError(t, err)
	c, err := p.Acquire(64)
	require.NoError(t, err)
	assert.NotSame(t, b, c)
	assert.Equal(t, int64(1), p.Stats().Hits)
	assert.Equal(t, int64(2), p.Stats().Misses)
}

func TestPool_NegativeAllocation(t *testing.T) {
	p := NewPool(KindDevice, 0)
	_, err := p.Acquire(-1)
	assert.Error(t, err)
}
