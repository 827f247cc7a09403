package tlsf

// Segregation map: a first-level bitmap of non-empty FL classes, a
// per-FL second-level bitmap, and a 2-D head map of free-block lists.
// Ported from insert_block/remove_block/get_mapping in the original
// TLSF source.

// insertBlock prepends b to its size class's free list, marks it free,
// and sets the bitmap summary bits.
func (p *Pool) insertBlock(b block) {
	fl, sl := mapping(b.length())

	head := p.heads[fl][sl]
	if head != nil {
		head.setSegPrev(b)
	}
	b.setSegPrev(nil)
	b.setSegNext(head)
	p.heads[fl][sl] = b

	p.free += b.length()
	b.setFree(true)

	p.l1Free |= 1 << fl
	p.l2Free[fl] |= 1 << sl
}

// removeBlock unlinks target from its (fl, sl) free list, or the list's
// head if target is nil, clears its free flag, and updates the bitmap
// summary bits if the list (and FL class) became empty.
func (p *Pool) removeBlock(target block, fl, sl uint32) block {
	b := target
	if b == nil {
		b = p.heads[fl][sl]
	}

	if n := b.segNext(); n != nil {
		n.setSegPrev(b.segPrev())
	}
	if prev := b.segPrev(); prev != nil {
		prev.setSegNext(b.segNext())
	}
	if sameBlock(p.heads[fl][sl], b) {
		p.heads[fl][sl] = b.segNext()
	}

	b.setFree(false)
	p.free -= b.length()

	if p.heads[fl][sl] == nil {
		p.l2Free[fl] &^= 1 << sl
		if p.l2Free[fl] == 0 {
			p.l1Free &^= 1 << fl
		}
	}
	return b
}

// locateFree finds the lowest free-block cell able to satisfy a request
// whose rounded-up size maps to target: try the same FL class at sl or
// above first, then the lowest SL of the next non-empty FL class above.
func (p *Pool) locateFree(target uint32) (fl, sl uint32, ok bool) {
	fl, sl = mapping(target)

	mask := p.l2Free[fl] & (^uint32(0) << sl)
	if mask != 0 {
		s, _ := ffs32(mask)
		return fl, s, true
	}

	fmask := p.l1Free & (^uint32(0) << (fl + 1))
	nfl, found := ffs32(fmask)
	if !found {
		return 0, 0, false
	}
	s, _ := ffs32(p.l2Free[nfl])
	return nfl, s, true
}
