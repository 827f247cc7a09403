package tlsf

// validate.go is the debug-only diagnostic layer: it walks the physical
// chain and the segregation map, checking every structural invariant the
// allocator depends on. It is only ever invoked when a Pool was created
// WithDebug — in the default (release) configuration these checks are
// skipped entirely, trading diagnosability for the O(1) worst-case
// guarantee; a violated invariant is undefined behaviour in release
// builds.
//
// Ported from the original TLSF implementation's validate_blkhdr(),
// generalised to walk the whole chain (not just one block's immediate
// neighbours) and to cross-check the segregation map's bitmap summaries.

// invariantViolation panics with a message identifying which invariant
// broke. Debug-mode callers are expected to treat this the same as any
// other programmer-error panic (double-free, bad pointer).
func invariantViolation(msg string) {
	panic("tlsf: invariant violation: " + msg)
}

// validate walks the whole pool and checks every structural invariant.
// No-op unless the pool was created WithDebug.
func (p *Pool) validate() {
	if !p.debug {
		return
	}
	p.validateChain()
	p.validateSegMap()
}

// validateChain walks the physical-order chain block by block, checking
// length bounds, physical-neighbour agreement, and the no-two-adjacent-
// free-blocks invariant.
func (p *Pool) validateChain() {
	first := p.firstPhysBlock()
	if first == nil {
		return
	}

	var freeSum uint32
	var prevFree bool
	var blk block = first
	for blk != nil {
		length := blk.length()
		if length < MinBlockSize {
			invariantViolation("block length below MinBlockSize")
		}
		if length > p.size {
			invariantViolation("block length exceeds pool size")
		}

		if pr := blk.physPrev(); pr != nil {
			if n := pr.physNext(); !sameBlock(n, blk) {
				invariantViolation("prev(blk).next != blk")
			}
		}
		next := blk.physNext()
		if next != nil {
			if pv := next.physPrev(); !sameBlock(pv, blk) {
				invariantViolation("next(blk).prev != blk")
			}
		}

		if blk.isFree() {
			if prevFree {
				invariantViolation("two physically adjacent free blocks")
			}
			freeSum += length
			fl, sl := mapping(length)
			if !segListContains(p.heads[fl][sl], blk) {
				invariantViolation("free block absent from its mapped segregation list")
			}
		}
		prevFree = blk.isFree()
		blk = next
	}

	if freeSum != p.free {
		invariantViolation("free-bytes counter does not match sum of free block lengths")
	}
}

// segListContains reports whether target appears in the singly-walked
// segregation list starting at head.
func segListContains(head, target block) bool {
	for b := head; b != nil; b = b.segNext() {
		if sameBlock(b, target) {
			return true
		}
	}
	return false
}

// validateSegMap cross-checks the bitmap summaries against the head map:
// a class cell (fl, sl) must have its bit set in the second-level bitmap
// iff its list head is non-nil, and an FL class's bit must be set iff
// any of its SL cells are.
func (p *Pool) validateSegMap() {
	for fl := uint32(0); fl < fliCount; fl++ {
		var anySL bool
		for sl := uint32(0); sl < sliCount; sl++ {
			headSet := p.heads[fl][sl] != nil
			bitSet := p.l2Free[fl]&(1<<sl) != 0
			if headSet != bitSet {
				invariantViolation("l2Free bit disagrees with head map")
			}
			if headSet {
				anySL = true
			}
		}
		l1Set := p.l1Free&(1<<fl) != 0
		if anySL != l1Set {
			invariantViolation("l1Free bit disagrees with l2Free summary")
		}
	}
}

// firstPhysBlock returns the first block in managed-address order, or
// nil if the pool is empty (never true in practice: Create always
// inserts one block spanning the whole extent).
func (p *Pool) firstPhysBlock() block {
	switch p.mode {
	case ModeInternal:
		if p.size == 0 {
			return nil
		}
		return intBlock{pool: p, off: 0}
	default:
		if p.extHead == nil {
			return nil
		}
		return p.extHead
	}
}
