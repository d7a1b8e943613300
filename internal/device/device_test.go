package device

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batch-indicators/internal/model"
)

func TestNew_Defaults(t *testing.T) {
	d := New(Config{})
	info := d.Info()
	assert.Equal(t, deviceName, info.Name)
	assert.Greater(t, info.Workers, 0)
	assert.Equal(t, DefaultBlockRows, info.BlockRows)
	assert.Equal(t, int64(0), info.MemoryCap)
}

func TestLaunch_CoversEveryRowOnce(t *testing.T) {
	for _, rows := range []int{0, 1, 7, 32, 33, 1000} {
		d := New(Config{Workers: 4, BlockRows: 8})
		hits := make([]int32, rows)
		d.Launch(rows, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			assert.Equal(t, int32(1), h, "rows=%d row=%d", rows, i)
		}
	}
}

func TestLaunch_RespectsWorkerLimit(t *testing.T) {
	d := New(Config{Workers: 2, BlockRows: 1})

	var inFlight, peak int32
	d.Launch(50, func(lo, hi int) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		atomic.AddInt32(&inFlight, -1)
	})
	assert.LessOrEqual(t, peak, int32(2))
}

func TestMemory_UploadDownloadRoundTrip(t *testing.T) {
	mem := NewMemory(New(Config{}).Info())

	src, err := model.FromRows([][]float32{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)

	buf, err := mem.Upload(src)
	require.NoError(t, err)
	assert.Equal(t, src.Data(), buf.Data())

	out, err := mem.Download(buf, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, src.Data(), out.Data())

	// the result does not alias device memory
	buf.Data()[0] = -1
	assert.Equal(t, float32(1), out.At(0, 0))

	mem.Free(buf)
	assert.Equal(t, int64(0), mem.Device.Stats().InUseBytes)
	assert.Equal(t, int64(0), mem.Pinned.Stats().InUseBytes)
}

func TestMemory_DownloadShapeMismatch(t *testing.T) {
	mem := NewMemory(Info{})
	buf, err := mem.Alloc(6)
	require.NoError(t, err)

	_, err = mem.Download(buf, 2, 2)
	assert.Error(t, err)
}

func TestMemory_UploadOutOfMemory(t *testing.T) {
	mem := NewMemory(Info{MemoryCap: 512})

	src, err := model.NewMatrix(10, 100)
	require.NoError(t, err)

	_, err = mem.Upload(src)
	assert.ErrorIs(t, err, ErrOutOfMemory)
}

func TestMemory_Clear(t *testing.T) {
	mem := NewMemory(Info{})
	src, err := model.NewMatrix(4, 4)
	require.NoError(t, err)

	buf, err := mem.Upload(src)
	require.NoError(t, err)
	mem.Free(buf)
	require.Greater(t, mem.Device.Stats().CachedBytes, int64(0))
	require.Greater(t, mem.Pinned.Stats().CachedBytes, int64(0))

	mem.Clear()
	assert.Equal(t, int64(0), mem.Device.Stats().CachedBytes)
	assert.Equal(t, int64(0), mem.Pinned.Stats().CachedBytes)
}
