package tlsf

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nox-systems/tlsf/extent"
)

func newIntPool(t *testing.T, size uint32) *Pool {
	t.Helper()
	ext := extent.NewSlice(int(size))
	p, err := Create(ext, size, ModeInternal, WithDebug())
	assert.NoError(t, err)
	return p
}

func TestIntBlockHeaderLenIsWordMultiple(t *testing.T) {
	assert.Equal(t, uint32(0), intHeaderLen%wordSize)
}

func TestIntBlockLengthAndFreeFlag(t *testing.T) {
	p := newIntPool(t, 96)

	first := intBlock{pool: p, off: 0}
	assert.True(t, first.isFree())
	assert.Equal(t, uint32(88), first.length())

	first.setFree(false)
	assert.False(t, first.isFree())
	assert.Equal(t, uint32(88), first.length(), "clearing the free flag must not disturb length")

	first.setLength(40)
	assert.Equal(t, uint32(40), first.length())
	assert.False(t, first.isFree())
}

func TestIntBlockHdrAllocWiresPhysicalChain(t *testing.T) {
	p := newIntPool(t, 96)

	parent := intBlock{pool: p, off: 0}
	parent.setLength(32)

	child := p.intBlockHdrAlloc(parent, 40)
	assert.Equal(t, uint32(32+intHeaderLen), child.off)
	assert.Equal(t, uint32(40), child.length())

	prev := child.physPrev()
	assert.NotNil(t, prev)
	assert.Equal(t, parent.off, prev.(intBlock).off)

	got := parent.physNext()
	assert.NotNil(t, got)
	assert.Equal(t, child.off, got.(intBlock).off)
}

func TestIntBlockHdrFreePatchesSuccessor(t *testing.T) {
	p := newIntPool(t, 128)

	parent := intBlock{pool: p, off: 0}
	parent.setLength(32)
	child := p.intBlockHdrAlloc(parent, 32)
	grandchild := p.intBlockHdrAlloc(child, 32)

	p.intBlockHdrFree(child)

	prev := grandchild.physPrev()
	assert.NotNil(t, prev)
	assert.Equal(t, parent.off, prev.(intBlock).off)
}

func TestIntBlockSegLinks(t *testing.T) {
	p := newIntPool(t, 128)
	a := intBlock{pool: p, off: 0}
	b := intBlock{pool: p, off: 40}

	a.setSegNext(b)
	b.setSegPrev(a)

	assert.Equal(t, b.off, a.segNext().(intBlock).off)
	assert.Equal(t, a.off, b.segPrev().(intBlock).off)

	a.setSegNext(nil)
	assert.Nil(t, a.segNext())
}
