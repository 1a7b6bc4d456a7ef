package images

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestSaveLoadPNGRoundTrip(t *testing.T) {
	g := Generate(17, 23, PatternNoise, 4)
	path := filepath.Join(t.TempDir(), "grid.png")

	require.NoError(t, Save(path, g))

	loaded, err := Load(path, LoadOptions{})
	require.NoError(t, err)
	assert.True(t, g.Equal(loaded), "PNG is lossless")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	decoded, err := Decode(data, LoadOptions{MaxDimension: 10})
	require.NoError(t, err)
	assert.LessOrEqual(t, decoded.Cols, 10)
	assert.LessOrEqual(t, decoded.Rows, 10)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.png"), LoadOptions{})
	assert.Error(t, err)
}

func TestDecodeEmpty(t *testing.T) {
	_, err := Decode(nil, LoadOptions{})
	assert.Error(t, err)
}

func TestSaveRejectsUnknownExtension(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "grid.txt"), NewGrid(3, 3))
	assert.Error(t, err)
}

func TestMatConversion(t *testing.T) {
	g := Generate(6, 9, PatternNoise, 8)
	mat, err := GridToMat(g)
	require.NoError(t, err)
	defer mat.Close()

	assert.Equal(t, 6, mat.Rows())
	assert.Equal(t, 9, mat.Cols())
	assert.Equal(t, gocv.MatTypeCV8UC3, mat.Type())

	back, err := MatToGrid(mat)
	require.NoError(t, err)
	assert.True(t, g.Equal(back))
}

func TestMatToGridRejectsGray(t *testing.T) {
	mat := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8U)
	defer mat.Close()

	_, err := MatToGrid(mat)
	assert.ErrorIs(t, err, ErrInvalidGrid)
}
