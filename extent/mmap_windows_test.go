//go:build windows

package extent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMmapReturnsNotSupported(t *testing.T) {
	_, err := NewMmap("region.bin", 4096)
	assert.ErrorIs(t, err, ErrNotSupported)
}
