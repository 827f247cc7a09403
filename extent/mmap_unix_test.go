//go:build unix

package extent

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMmapCreatesAndMapsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.bin")

	e, err := NewMmap(path, 4096)
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, 4096, e.Len())
	assert.NotNil(t, e.Base())

	e.Bytes()[0] = 0x7F
	assert.Equal(t, byte(0x7F), e.Bytes()[0])
}

func TestNewMmapTruncatesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.bin")

	e1, err := NewMmap(path, 8192)
	require.NoError(t, err)
	require.NoError(t, e1.Close())

	e2, err := NewMmap(path, 1024)
	require.NoError(t, err)
	defer e2.Close()
	assert.Equal(t, 1024, e2.Len())
}
