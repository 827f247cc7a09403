package tlsf

// block is the uniform interface over the two header backends: intBlock
// (header inlined in the managed extent) and extBlock (header in a side
// arena). The segregation map and the allocation/free service layer
// operate only through this interface so neither needs to know which
// mode it's dealing with.
//
// A nil block value means "no such block" (no physical neighbour, empty
// segregation slot). Implementations must return a literal nil, not a
// typed nil pointer wrapped in the interface.
type block interface {
	length() uint32
	setLength(n uint32)

	isFree() bool
	setFree(f bool)

	physPrev() block
	physNext() block

	segPrev() block
	segNext() block
	setSegPrev(b block)
	setSegNext(b block)

	// addr returns the base-relative offset of the block's managed
	// region: the payload offset in INT mode, the caller-address offset
	// in EXT mode.
	addr() uint32
}

// sameBlock reports whether a and b refer to the same block, treating two
// nil interfaces (or a nil and an absent block) as equal.
func sameBlock(a, b block) bool {
	return a == b
}
