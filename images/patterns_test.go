package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateIsDeterministic(t *testing.T) {
	for _, p := range []PatternType{PatternNoise, PatternGradient, PatternChessboard} {
		a := Generate(20, 30, p, 99)
		b := Generate(20, 30, p, 99)
		assert.True(t, a.Equal(b), "pattern %s", p)
		assert.NoError(t, a.Validate())
	}

	assert.False(t, Generate(10, 10, PatternNoise, 1).Equal(Generate(10, 10, PatternNoise, 2)))
}

func TestGenerateChessboard(t *testing.T) {
	g := Generate(16, 16, PatternChessboard, 0)
	assert.Equal(t, [Channels]uint8{255, 255, 255}, g.At(0, 0))
	assert.Equal(t, [Channels]uint8{0, 0, 0}, g.At(0, 8))
	assert.Equal(t, [Channels]uint8{255, 255, 255}, g.At(8, 8))
}

func TestResolutions(t *testing.T) {
	res, ok := GetResolutionByType("1080P")
	require.True(t, ok)
	assert.Equal(t, 1920, res.Width)
	assert.Equal(t, 1080, res.Height)
	assert.Equal(t, 2.07, res.GetMegaPixels())
	assert.Contains(t, res.String(), "1920x1080")

	_, ok = GetResolutionByType("nope")
	assert.False(t, ok)

	all := GetAllResolutions()
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].Width*all[i-1].Height, all[i].Width*all[i].Height)
	}

	g := GenerateResolution(Resolution{Width: 12, Height: 5}, PatternGradient, 0)
	assert.Equal(t, 5, g.Rows)
	assert.Equal(t, 12, g.Cols)
}
