package tlsf

// EXT-mode block: a side-arena record, never overlaid on the managed
// extent. Physical neighbours are tracked by an explicit doubly linked
// list (pool.extHead/pool.extTail) ordered by managed-address, rather
// than by address arithmetic, since the extent itself is opaque.
type extBlock struct {
	pool *Pool

	blen uint32 // length, free flag in bit 0
	off  uint32 // base-relative address of the managed region

	prevPhys *extBlock
	nextPhys *extBlock
	prevSeg  *extBlock
	nextSeg  *extBlock
}

func (b *extBlock) length() uint32 {
	return b.blen &^ 1
}

func (b *extBlock) setLength(n uint32) {
	b.blen = n | (b.blen & 1)
}

func (b *extBlock) isFree() bool {
	return b.blen&1 != 0
}

func (b *extBlock) setFree(f bool) {
	if f {
		b.blen |= 1
	} else {
		b.blen &^= 1
	}
}

func (b *extBlock) physPrev() block {
	if b.prevPhys == nil {
		return nil
	}
	return b.prevPhys
}

func (b *extBlock) physNext() block {
	if b.nextPhys == nil {
		return nil
	}
	return b.nextPhys
}

func (b *extBlock) segPrev() block {
	if b.prevSeg == nil {
		return nil
	}
	return b.prevSeg
}

func (b *extBlock) segNext() block {
	if b.nextSeg == nil {
		return nil
	}
	return b.nextSeg
}

func (b *extBlock) setSegPrev(nb block) {
	if nb == nil {
		b.prevSeg = nil
		return
	}
	b.prevSeg = nb.(*extBlock)
}

func (b *extBlock) setSegNext(nb block) {
	if nb == nil {
		b.nextSeg = nil
		return
	}
	b.nextSeg = nb.(*extBlock)
}

func (b *extBlock) addr() uint32 {
	return b.off
}

// Addr, Length and Free implement the exported Block view.
func (b *extBlock) Addr() uint32   { return b.addr() }
func (b *extBlock) Length() uint32 { return b.length() }
func (b *extBlock) Free() bool     { return b.isFree() }

// extBlockHdrAlloc allocates a new side record for a block immediately
// following parent in managed-address order, splicing it into the
// physical-order list. It never returns nil: Go's allocator does not
// surface allocation failure as a nil return (it panics). Its callers
// (blockHdrAlloc, splitBlock) still check for nil, keeping the shape of
// the ported C's malloc-failure branch.
func (p *Pool) extBlockHdrAlloc(parent *extBlock, newLen uint32) *extBlock {
	child := &extBlock{
		pool: p,
		blen: newLen,
		off:  parent.off + parent.length(),
	}
	child.prevPhys = parent
	child.nextPhys = parent.nextPhys
	if parent.nextPhys != nil {
		parent.nextPhys.prevPhys = child
	} else {
		p.extTail = child
	}
	parent.nextPhys = child
	return child
}

// extBlockHdrFree unsplices blk from the physical-order list, releasing
// it to the garbage collector.
func (p *Pool) extBlockHdrFree(blk *extBlock) {
	if blk.prevPhys != nil {
		blk.prevPhys.nextPhys = blk.nextPhys
	} else {
		p.extHead = blk.nextPhys
	}
	if blk.nextPhys != nil {
		blk.nextPhys.prevPhys = blk.prevPhys
	} else {
		p.extTail = blk.prevPhys
	}
	blk.prevPhys, blk.nextPhys = nil, nil
}
