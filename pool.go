// Package tlsf implements a two-level segregated fit (TLSF) dynamic
// storage allocator servicing allocation and release requests in
// constant worst-case time, after M. Masmano, I. Ripoll, A. Crespo, and
// J. Real, "TLSF: a new dynamic memory allocator for real-time systems"
// (ECRTS 2004). It manages a single contiguous extent supplied by the
// caller, in either of two modes: ModeInternal, where block bookkeeping
// is embedded in the extent itself, or ModeExternal, where it lives in a
// side arena and the extent is never read or written by the allocator.
//
// The package is not safe for concurrent use; callers needing concurrent
// access must serialise all entry points with an external mutex covering
// the whole Pool.
package tlsf

import (
	"unsafe"

	"github.com/nox-systems/tlsf/extent"
)

// Mode selects which of the two header backends a Pool uses.
type Mode uint8

const (
	// ModeInternal prepends block headers inside the managed extent.
	// Alloc/Free are available; ExtAlloc/ExtFree also work.
	ModeInternal Mode = iota
	// ModeExternal keeps block headers in a side arena and never
	// touches the managed extent. Only ExtAlloc/ExtFree are available.
	ModeExternal
)

// Block is the read-only view of a segregation-managed block returned by
// ExtAlloc: its base-relative address, its length, and whether it is
// currently free (meaningful only for diagnostics; a Block handed back
// from ExtAlloc is always allocated).
type Block interface {
	Addr() uint32
	Length() uint32
	Free() bool
}

// PoolOption configures optional Pool behaviour at Create time.
type PoolOption func(*Pool)

// WithDebug turns on the runtime invariant validator: double-free checks
// (Free/ExtFree) and the ownership check (ExtFree) become panics instead of
// silently undefined behaviour, and Create and every successful Alloc,
// Free, ExtAlloc and ExtFree re-check the pool's structural invariants
// before returning. Use-after-free is not detected. This trades the O(1) guarantee
// for diagnosability and should not be used in the allocator's intended
// real-time hot path.
func WithDebug() PoolOption {
	return func(p *Pool) { p.debug = true }
}

// Pool is a TLSF allocator instance managing one extent.
type Pool struct {
	ext  extent.Extent
	base unsafe.Pointer
	size uint32 // length of the managed block region
	mode Mode

	blkHdrLen uint32
	free      uint32

	extHead *extBlock
	extTail *extBlock

	l1Free uint32
	l2Free [fliCount]uint32
	heads  [fliCount][sliCount]block

	debug bool
}

// Create constructs a Pool managing ext, sized to size (rounded down to
// a multiple of MinBlockSize). In ModeInternal, ext must be non-nil and
// word-aligned; in ModeExternal, ext is never dereferenced and may be
// nil. Returns an error rather than a null handle on out-of-memory or
// misalignment, the idiomatic Go rendering of the original's NULL
// return.
func Create(ext extent.Extent, size uint32, mode Mode, opts ...PoolOption) (*Pool, error) {
	if mode != ModeInternal && mode != ModeExternal {
		return nil, ErrBadMode
	}
	if size < MinBlockSize {
		return nil, ErrTooSmall
	}

	p := &Pool{mode: mode}
	for _, opt := range opts {
		opt(p)
	}

	alignedSize := roundDownToMBS(size)

	switch mode {
	case ModeInternal:
		if ext == nil {
			return nil, ErrNoExtent
		}
		if alignedSize < intHeaderLen+MinBlockSize {
			return nil, ErrTooSmall
		}
		if ext.Len() < int(alignedSize) {
			return nil, ErrTooSmall
		}
		base := ext.Base()
		if uintptr(base)%wordSize != 0 {
			return nil, ErrMisaligned
		}

		p.ext = ext
		p.base = base
		p.blkHdrLen = intHeaderLen
		p.size = alignedSize

		h := p.intHeaderAt(0)
		h.length = alignedSize - intHeaderLen
		h.prevPhys = nullOffset
		p.insertBlock(intBlock{pool: p, off: 0})

	case ModeExternal:
		p.ext = ext
		p.blkHdrLen = 0
		p.size = alignedSize

		first := &extBlock{pool: p, blen: alignedSize, off: 0}
		p.extHead = first
		p.extTail = first
		p.insertBlock(first)
	}

	p.validate()
	return p, nil
}

// Destroy releases any EXT side records and the extent's OS resources,
// if it has any.
func (p *Pool) Destroy() {
	p.extHead = nil
	p.extTail = nil
	for fl := range p.heads {
		for sl := range p.heads[fl] {
			p.heads[fl][sl] = nil
		}
	}
	if p.ext != nil {
		_ = p.ext.Close()
	}
}

// UnusedSpace returns the sum of lengths of all free blocks: not
// necessarily a contiguous region, and not necessarily what a single
// allocation could claim — see AvailSpace for that.
func (p *Pool) UnusedSpace() uint32 {
	return p.free
}

// AvailSpace returns a request size that the largest free block is
// guaranteed to satisfy, found by undoing the class rounding Alloc and
// ExtAlloc apply to its length, or 0 if the pool has no free block. It is
// a conservative bound: a somewhat larger request may still succeed.
func (p *Pool) AvailSpace() uint32 {
	fl, ok := fls32(p.l1Free)
	if !ok {
		return 0
	}
	sl, ok := fls32(p.l2Free[fl])
	if !ok {
		return 0
	}
	blk := p.heads[fl][sl]
	return availSpaceFromLen(blk.length())
}

// Stats is a convenience snapshot of a Pool's introspection counters.
type Stats struct {
	TotalSize   uint32
	UnusedSpace uint32
	AvailSpace  uint32
}

// Stats reports a snapshot of the pool's size and free-space counters.
func (p *Pool) Stats() Stats {
	return Stats{
		TotalSize:   p.size,
		UnusedSpace: p.UnusedSpace(),
		AvailSpace:  p.AvailSpace(),
	}
}

// Alloc services a request of at least n bytes/units from an
// ModeInternal pool, returning a word-aligned payload pointer, or
// (nil, false) when no cell can serve the request.
func (p *Pool) Alloc(n uint32) (unsafe.Pointer, bool) {
	if p.mode != ModeInternal {
		panic("tlsf: Alloc requires a pool created with ModeInternal")
	}
	blk, ok := p.allocBlock(n)
	if !ok {
		return nil, false
	}
	ib := blk.(intBlock)
	p.validate()
	return unsafe.Pointer(uintptr(p.base) + uintptr(ib.addr())), true
}

// Free releases a pointer previously returned by Alloc on this pool.
// Double-freeing is a programming error: it is checked only when the
// pool was created WithDebug.
func (p *Pool) Free(ptr unsafe.Pointer) {
	if p.mode != ModeInternal {
		panic("tlsf: Free requires a pool created with ModeInternal")
	}
	off := uint32(uintptr(ptr)-uintptr(p.base)) - intHeaderLen
	blk := intBlock{pool: p, off: off}
	p.checkNotFree(blk)
	p.doFree(blk)
	p.validate()
}

// ExtAlloc services a request of at least n bytes/units, returning an
// opaque Block handle instead of a pointer. Works for both modes.
func (p *Pool) ExtAlloc(n uint32) (Block, bool) {
	blk, ok := p.allocBlock(n)
	if !ok {
		return nil, false
	}
	p.validate()
	return blk.(Block), true
}

// ExtFree releases a Block previously returned by ExtAlloc on this pool.
func (p *Pool) ExtFree(b Block) {
	blk := b.(block)
	p.checkNotFree(blk)
	if p.debug && blockPool(blk) != p {
		panic(ErrNotOwned)
	}
	p.doFree(blk)
	p.validate()
}

// allocBlock is the mode-agnostic core of Alloc/ExtAlloc, ported from
// tlsf_ext_alloc in the original source.
func (p *Pool) allocBlock(n uint32) (block, bool) {
	size, target := allocTarget(n)
	fl, sl, ok := p.locateFree(target)
	if !ok {
		return nil, false
	}

	blk := p.removeBlock(nil, fl, sl)
	if blk.length()-size >= MinBlockSize+p.blkHdrLen {
		p.splitBlock(blk, size)
	}
	return blk, true
}

// splitBlock shrinks blk to size and creates a remainder block from the
// excess, inserting the remainder into the segregation map, ported from
// split_block in the original source. If the remainder's header cannot
// be created (EXT mode only), the split is abandoned and blk keeps its
// original length.
func (p *Pool) splitBlock(blk block, size uint32) {
	remSize := blk.length() - p.blkHdrLen - size
	blk.setLength(size)

	rem := p.blockHdrAlloc(blk, remSize)
	if rem != nil {
		p.insertBlock(rem)
		return
	}
	blk.setLength(size + remSize)
}

// doFree is the mode-agnostic core of Free/ExtFree: coalesce with free
// physical neighbours, then reinsert.
func (p *Pool) doFree(blk block) {
	prev := blk.physPrev()
	next := blk.physNext()

	if prev != nil && prev.isFree() {
		blk = p.mergeBlocks(prev, blk)
	}
	if next != nil && next.isFree() {
		blk = p.mergeBlocks(blk, next)
	}
	p.insertBlock(blk)
}

// mergeBlocks merges blk2 into blk, which must be blk2's immediate
// physical predecessor; blk2's header is destroyed. Ported from
// merge_blocks in the original source.
func (p *Pool) mergeBlocks(blk, blk2 block) block {
	addLen := blk2.length()
	if blk.isFree() {
		fl, sl := mapping(blk.length())
		p.removeBlock(blk, fl, sl)
	}
	if blk2.isFree() {
		fl, sl := mapping(addLen)
		p.removeBlock(blk2, fl, sl)
	}
	blk.setLength(blk.length() + p.blkHdrLen + addLen)
	p.blockHdrFree(blk2)
	return blk
}

// blockHdrAlloc/blockHdrFree dispatch block header creation/destruction
// to the mode-specific backend.
func (p *Pool) blockHdrAlloc(parent block, newLen uint32) block {
	if p.mode == ModeInternal {
		return p.intBlockHdrAlloc(parent.(intBlock), newLen)
	}
	child := p.extBlockHdrAlloc(parent.(*extBlock), newLen)
	if child == nil {
		return nil
	}
	return child
}

func (p *Pool) blockHdrFree(blk block) {
	if p.mode == ModeInternal {
		p.intBlockHdrFree(blk.(intBlock))
		return
	}
	p.extBlockHdrFree(blk.(*extBlock))
}

// checkNotFree enforces the double-free guard when the pool was created
// WithDebug; otherwise it is a no-op and a double-free is undefined
// behaviour, as documented.
func (p *Pool) checkNotFree(blk block) {
	if !p.debug {
		return
	}
	if blk.isFree() {
		panic(ErrDoubleFree)
	}
}

// blockPool returns the Pool a block handle was created by, used for the
// debug-mode ownership check in ExtFree.
func blockPool(b block) *Pool {
	switch v := b.(type) {
	case intBlock:
		return v.pool
	case *extBlock:
		return v.pool
	default:
		return nil
	}
}
