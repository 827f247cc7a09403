package tlsf

import (
	"math/rand"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nox-systems/tlsf/extent"
)

func TestCreateRejectsBadMode(t *testing.T) {
	_, err := Create(nil, 256, Mode(99))
	assert.ErrorIs(t, err, ErrBadMode)
}

func TestCreateRejectsUndersizedExtent(t *testing.T) {
	_, err := Create(nil, MinBlockSize-1, ModeExternal)
	assert.ErrorIs(t, err, ErrTooSmall)
}

func TestCreateInternalRejectsNilExtent(t *testing.T) {
	_, err := Create(nil, 256, ModeInternal)
	assert.ErrorIs(t, err, ErrNoExtent)
}

func TestCreateInternalRejectsExtentTooSmallForOneHeader(t *testing.T) {
	ext := extent.NewSlice(32)
	_, err := Create(ext, 32, ModeInternal)
	assert.ErrorIs(t, err, ErrTooSmall)
}

func TestCreateInternalInitializesSingleFreeBlock(t *testing.T) {
	p := newIntPool(t, 256)
	st := p.Stats()
	assert.Equal(t, uint32(256), st.TotalSize)
	assert.Equal(t, uint32(256-intHeaderLen), st.UnusedSpace)
	assert.Equal(t, availSpaceFromLen(256-intHeaderLen), st.AvailSpace)
}

// A small INT extent is saturated by a single allocation too large to
// leave room for a remainder block, then drained.
func TestInternalSaturateAndDrainSmallExtent(t *testing.T) {
	ext := extent.NewSlice(64)
	p, err := Create(ext, 64, ModeInternal, WithDebug())
	require.NoError(t, err)

	ptr, ok := p.Alloc(32)
	require.True(t, ok)
	require.NotNil(t, ptr)
	assert.Equal(t, uint32(0), p.UnusedSpace())
	assert.Equal(t, uint32(0), p.AvailSpace())

	_, ok = p.Alloc(1)
	assert.False(t, ok, "pool is fully saturated, further allocations must fail")

	p.Free(ptr)
	assert.Equal(t, uint32(64-intHeaderLen), p.UnusedSpace())
}

// Allocate until exhaustion, writing a stamp byte into every block and a
// guard byte one past the end of the managed region, then verify the
// guard is never disturbed by allocator bookkeeping.
func TestInternalStampAndVerifyNoOverrun(t *testing.T) {
	const size = 4096
	raw := extent.NewSlice(size + 1)
	guardOff := size
	ext := &boundedSlice{Extent: raw, usable: size}

	p, err := Create(ext, size, ModeInternal, WithDebug())
	require.NoError(t, err)

	raw.Bytes()[guardOff] = 0xA5

	var ptrs []unsafe.Pointer
	for {
		ptr, ok := p.Alloc(24)
		if !ok {
			break
		}
		*(*byte)(ptr) = 0xA5
		ptrs = append(ptrs, ptr)
	}
	require.NotEmpty(t, ptrs)
	assert.Equal(t, byte(0xA5), raw.Bytes()[guardOff])

	for _, ptr := range ptrs {
		p.Free(ptr)
	}
	assert.Equal(t, uint32(size-intHeaderLen), p.UnusedSpace())
}

// boundedSlice reports a smaller Len() than its backing slice actually has,
// so tests can keep an untouched guard byte just past the managed region.
type boundedSlice struct {
	extent.Extent
	usable int
}

func (b *boundedSlice) Len() int { return b.usable }

// Allocate A, B, C in physical order from an EXT pool, free B then A;
// the merged block must be physically contiguous with C, and freeing C
// afterwards must coalesce everything back into one block spanning the
// original extent.
func TestExternalThreeBlockCoalesceOnFree(t *testing.T) {
	p := newExtPool(t, 256)

	a, ok := p.ExtAlloc(64)
	require.True(t, ok)
	b, ok := p.ExtAlloc(64)
	require.True(t, ok)
	c, ok := p.ExtAlloc(64)
	require.True(t, ok)

	assert.Equal(t, uint32(0), a.Addr())
	assert.Equal(t, uint32(64), b.Addr())
	assert.Equal(t, uint32(128), c.Addr())

	p.ExtFree(b)
	p.ExtFree(a)

	ab := a.(*extBlock)
	cBlk := c.(*extBlock)
	assert.Same(t, cBlk, ab.nextPhys, "merged block must be physically contiguous with C")
	assert.Equal(t, uint32(128), ab.length())

	p.ExtFree(c)
	assert.Equal(t, uint32(256), p.UnusedSpace())
	// AvailSpace undoes the class rounding: 256 - (1 << (8 - sliShift)).
	assert.Equal(t, uint32(248), p.AvailSpace())
}

// avail_space never increases across a sequence of allocations, each
// requesting the value avail_space itself last returned, and each such
// request succeeds.
func TestAvailSpaceMonotonicNonIncreasing(t *testing.T) {
	p := newExtPool(t, 8192)

	prev := p.AvailSpace()
	for i := 0; i < 20 && prev > 0; i++ {
		_, ok := p.ExtAlloc(prev)
		require.True(t, ok)
		cur := p.AvailSpace()
		assert.LessOrEqual(t, cur, prev)
		prev = cur
	}
}

// Addresses handed out by a freshly created pool, with no intervening
// frees, strictly increase.
func TestExtAddrStrictlyIncreasingWithNoFrees(t *testing.T) {
	p := newExtPool(t, 4096)

	var last uint32
	var lastSet bool
	for i := 0; i < 10; i++ {
		blk, ok := p.ExtAlloc(64)
		require.True(t, ok)
		if lastSet {
			assert.Greater(t, blk.Addr(), last)
		}
		last = blk.Addr()
		lastSet = true
	}
}

// A fixed-seed sequence of random-sized allocations and frees, in the
// shape of the original source's t_tlsf.c randomized exerciser, must
// never trip a WithDebug invariant check.
func TestRandomizedAllocFreeStressKeepsInvariants(t *testing.T) {
	p := newExtPool(t, 1<<20)
	rng := rand.New(rand.NewSource(1))

	var live []Block
	for i := 0; i < 5000; i++ {
		if len(live) == 0 || rng.Intn(2) == 0 {
			n := uint32(rng.Intn(2048) + 1)
			blk, ok := p.ExtAlloc(n)
			if ok {
				live = append(live, blk)
			}
			continue
		}
		idx := rng.Intn(len(live))
		p.ExtFree(live[idx])
		live[idx] = live[len(live)-1]
		live = live[:len(live)-1]
	}

	for _, blk := range live {
		p.ExtFree(blk)
	}
	assert.Equal(t, p.Stats().TotalSize, p.UnusedSpace())
}

// In EXT mode, freeing a block and immediately requesting the same size
// must reuse its address rather than handing out fresh space, since it
// is now the best (exact) fit.
func TestExtModeReusesAddressAfterFreeAndRealloc(t *testing.T) {
	p := newExtPool(t, 4096)

	first, ok := p.ExtAlloc(128)
	require.True(t, ok)
	addr := first.Addr()

	p.ExtFree(first)

	second, ok := p.ExtAlloc(128)
	require.True(t, ok)
	assert.Equal(t, addr, second.Addr())
}

func TestDestroyClosesExtentAndClearsState(t *testing.T) {
	p := newExtPool(t, 256)
	_, ok := p.ExtAlloc(64)
	require.True(t, ok)

	p.Destroy()
	assert.Nil(t, p.extHead)
	assert.Nil(t, p.extTail)
}

func TestAllocPanicsOnExternalPool(t *testing.T) {
	p := newExtPool(t, 256)
	assert.Panics(t, func() { p.Alloc(16) })
}

func TestFreePanicsOnExternalPool(t *testing.T) {
	p := newExtPool(t, 256)
	assert.Panics(t, func() { p.Free(nil) })
}

func TestExtFreeDoubleFreeDetectedInDebugMode(t *testing.T) {
	p := newExtPool(t, 256)
	blk, ok := p.ExtAlloc(64)
	require.True(t, ok)

	p.ExtFree(blk)
	assert.PanicsWithValue(t, ErrDoubleFree, func() { p.ExtFree(blk) })
}

func TestExtFreeRejectsForeignBlock(t *testing.T) {
	p1 := newExtPool(t, 256)
	p2 := newExtPool(t, 256)

	blk, ok := p1.ExtAlloc(64)
	require.True(t, ok)

	assert.PanicsWithValue(t, ErrNotOwned, func() { p2.ExtFree(blk) })
}
