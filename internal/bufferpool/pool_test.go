package bufferpool

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, numFrames int, strategy ReplacementStrategy) (*Pool, string) {
	t.Helper()
	name := filepath.Join(t.TempDir(), "pool.page")
	require.NoError(t, CreatePageFile(name))
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	p, err := NewPool(name, numFrames, strategy, nil, logger)
	require.NoError(t, err)
	return p, name
}

func pinUnpin(t *testing.T, p *Pool, page PageId) {
	t.Helper()
	h, err := p.Pin(page)
	require.NoError(t, err)
	require.NoError(t, p.Unpin(h))
}

// Scenario 1: FIFO basic.
func TestScenarioFIFOBasic(t *testing.T) {
	p, _ := newTestPool(t, 3, StrategyFIFO)
	pinUnpin(t, p, 1)
	pinUnpin(t, p, 2)
	pinUnpin(t, p, 3)

	h, err := p.Pin(4)
	require.NoError(t, err)
	defer p.Unpin(h)

	assert.Equal(t, []PageId{4, 2, 3}, p.FrameContents())
}

// Scenario 2: LRU basic.
func TestScenarioLRUBasic(t *testing.T) {
	p, _ := newTestPool(t, 3, StrategyLRU)
	pinUnpin(t, p, 1)
	pinUnpin(t, p, 2)
	pinUnpin(t, p, 3)
	pinUnpin(t, p, 1)

	h, err := p.Pin(4)
	require.NoError(t, err)
	defer p.Unpin(h)

	assert.Equal(t, []PageId{1, 4, 3}, p.FrameContents())
}

// Scenario 3: dirty writeback.
func TestScenarioDirtyWriteback(t *testing.T) {
	p, name := newTestPool(t, 2, StrategyFIFO)

	h0, err := p.Pin(0)
	require.NoError(t, err)
	payload := bytes.Repeat([]byte("X"), PageSize)
	copy(h0.Buffer, payload)
	require.NoError(t, p.MarkDirty(h0))
	require.NoError(t, p.Unpin(h0))

	pinUnpin(t, p, 1)

	h2, err := p.Pin(2) // forces eviction of page 0
	require.NoError(t, err)
	require.NoError(t, p.Unpin(h2))

	require.NoError(t, p.FlushPool())
	require.NoError(t, p.Shutdown())

	f, err := os.Open(name)
	require.NoError(t, err)
	defer f.Close()
	raw := make([]byte, PageSize)
	_, err = io.ReadFull(f, raw)
	require.NoError(t, err)
	assert.Equal(t, payload, raw)
}

func TestScenarioDirtyWritebackCountsWrite(t *testing.T) {
	p, _ := newTestPool(t, 2, StrategyFIFO)

	h0, err := p.Pin(0)
	require.NoError(t, err)
	copy(h0.Buffer, bytes.Repeat([]byte("X"), PageSize))
	require.NoError(t, p.MarkDirty(h0))
	require.NoError(t, p.Unpin(h0))

	pinUnpin(t, p, 1)

	h2, err := p.Pin(2)
	require.NoError(t, err)
	defer p.Unpin(h2)

	assert.GreaterOrEqual(t, p.NumWriteIO(), 1)
}

// Scenario 4: pinned frame protection.
func TestScenarioPinnedFrameProtection(t *testing.T) {
	p, _ := newTestPool(t, 2, StrategyFIFO)

	h0, err := p.Pin(0)
	require.NoError(t, err) // kept pinned throughout

	pinUnpin(t, p, 1)

	h2, err := p.Pin(2) // evicts page 1, page 0 remains resident
	require.NoError(t, err)

	contents := p.FrameContents()
	assert.Contains(t, contents, PageId(0))
	assert.Contains(t, contents, PageId(2))

	_, err = p.Pin(3)
	assert.ErrorIs(t, err, ErrWriteFailed)

	require.NoError(t, p.Unpin(h0))
	require.NoError(t, p.Unpin(h2))
}

// Scenario 5: force vs flush.
func TestScenarioForceVsFlush(t *testing.T) {
	p, _ := newTestPool(t, 2, StrategyFIFO)

	h0, err := p.Pin(0)
	require.NoError(t, err)
	require.NoError(t, p.MarkDirty(h0))
	require.NoError(t, p.Unpin(h0))

	h0, err = p.Pin(0) // re-pin so force sees pin_count 0 after we release
	require.NoError(t, err)
	require.NoError(t, p.Unpin(h0))

	require.NoError(t, p.ForcePage(h0))
	assert.False(t, p.DirtyFlags()[0])
	assert.Equal(t, 1, p.NumWriteIO())

	// Page 0 pinned again: force_flush_pool performs no additional writes.
	h0, err = p.Pin(0)
	require.NoError(t, err)
	require.NoError(t, p.FlushPool())
	assert.Equal(t, 1, p.NumWriteIO())
	require.NoError(t, p.Unpin(h0))
}

// Scenario 6: shutdown safety.
func TestScenarioShutdownSafety(t *testing.T) {
	p, _ := newTestPool(t, 2, StrategyFIFO)

	h0, err := p.Pin(0)
	require.NoError(t, err)

	assert.ErrorIs(t, p.Shutdown(), ErrWriteFailed)

	require.NoError(t, p.Unpin(h0))
	assert.NoError(t, p.Shutdown())
}

func TestPinNegativePageID(t *testing.T) {
	p, _ := newTestPool(t, 2, StrategyFIFO)
	_, err := p.Pin(-1)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestUnpinUnknownPage(t *testing.T) {
	p, _ := newTestPool(t, 2, StrategyFIFO)
	err := p.Unpin(&PageHandle{PageID: 42})
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestUnpinClampsAtZero(t *testing.T) {
	p, _ := newTestPool(t, 2, StrategyFIFO)
	h, err := p.Pin(0)
	require.NoError(t, err)
	require.NoError(t, p.Unpin(h))
	require.NoError(t, p.Unpin(h)) // extra unpin: silently absorbed
	assert.Equal(t, 0, p.FixCounts()[0])
}

func TestMarkDirtyIdempotent(t *testing.T) {
	p, _ := newTestPool(t, 2, StrategyFIFO)
	h, err := p.Pin(0)
	require.NoError(t, err)
	require.NoError(t, p.MarkDirty(h))
	require.NoError(t, p.MarkDirty(h))
	assert.True(t, p.DirtyFlags()[0])
	require.NoError(t, p.Unpin(h))
}

func TestBalancePinUnpinLeavesZeroFixCount(t *testing.T) {
	p, _ := newTestPool(t, 2, StrategyFIFO)
	h, err := p.Pin(0)
	require.NoError(t, err)
	require.NoError(t, p.Unpin(h))
	idx, ok := p.directory.Get(0)
	require.True(t, ok)
	assert.Equal(t, 0, p.FixCounts()[idx])
}

func TestGrowthZerosNewPage(t *testing.T) {
	p, _ := newTestPool(t, 2, StrategyFIFO)
	h, err := p.Pin(5) // file only has 1 page initially; pool must grow it
	require.NoError(t, err)
	for _, b := range h.Buffer {
		assert.Equal(t, byte(0), b)
	}
	require.NoError(t, p.Unpin(h))
}

func TestRoundTripWriteMarkDirtyUnpinFlushReread(t *testing.T) {
	p, name := newTestPool(t, 2, StrategyFIFO)
	h, err := p.Pin(0)
	require.NoError(t, err)
	payload := bytes.Repeat([]byte("B"), PageSize)
	copy(h.Buffer, payload)
	require.NoError(t, p.MarkDirty(h))
	require.NoError(t, p.Unpin(h))
	require.NoError(t, p.FlushPool())
	require.NoError(t, p.Shutdown())

	raw, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, payload, raw[:PageSize])
}

func TestReadWriteIOCountersMonotonic(t *testing.T) {
	p, _ := newTestPool(t, 2, StrategyFIFO)
	prevRead, prevWrite := p.NumReadIO(), p.NumWriteIO()
	for i := 0; i < 5; i++ {
		h, err := p.Pin(PageId(i))
		require.NoError(t, err)
		require.NoError(t, p.MarkDirty(h))
		require.NoError(t, p.Unpin(h))
		require.NoError(t, p.FlushPool())
		assert.GreaterOrEqual(t, p.NumReadIO(), prevRead)
		assert.GreaterOrEqual(t, p.NumWriteIO(), prevWrite)
		prevRead, prevWrite = p.NumReadIO(), p.NumWriteIO()
	}
}

func TestInvariantsAfterMixedWorkload(t *testing.T) {
	p, _ := newTestPool(t, 3, StrategyLRU)
	pages := []PageId{0, 1, 2, 3, 4, 0, 5}
	var handles []*PageHandle
	for _, pg := range pages {
		h, err := p.Pin(pg)
		if err != nil {
			continue // all frames pinned; acceptable under this workload
		}
		handles = append(handles, h)
		if pg%2 == 0 {
			require.NoError(t, p.MarkDirty(h))
		}
	}
	for _, h := range handles {
		require.NoError(t, p.Unpin(h))
	}

	for i, f := range p.frames {
		if !f.Occupied {
			assert.Equal(t, 0, f.PinCount, "frame %d", i)
			assert.False(t, f.Dirty, "frame %d", i)
		}
		assert.GreaterOrEqual(t, f.PinCount, 0, "frame %d", i)
		idx, ok := p.directory.Get(f.PageID)
		if f.Occupied {
			assert.True(t, ok)
			assert.Equal(t, f.FrameIndex, idx)
		}
	}
}

func TestOperationsFailBeforeInitOrAfterShutdown(t *testing.T) {
	p, _ := newTestPool(t, 1, StrategyFIFO)
	require.NoError(t, p.Shutdown())

	_, err := p.Pin(0)
	assert.ErrorIs(t, err, ErrFileHandleNotInit)
	assert.ErrorIs(t, p.Shutdown(), ErrFileHandleNotInit)
	assert.ErrorIs(t, p.FlushPool(), ErrFileHandleNotInit)
}

func TestNewPoolRejectsUnknownStrategy(t *testing.T) {
	name := filepath.Join(t.TempDir(), "pool.page")
	require.NoError(t, CreatePageFile(name))
	_, err := NewPool(name, 2, ReplacementStrategy(99), nil, nil)
	assert.ErrorIs(t, err, ErrConfigError)
}

func TestNewPoolMissingFile(t *testing.T) {
	_, err := NewPool(filepath.Join(t.TempDir(), "missing.page"), 2, StrategyFIFO, nil, nil)
	assert.ErrorIs(t, err, ErrFileNotFound)
}
