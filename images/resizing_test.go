package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitKeepsSmallGrids(t *testing.T) {
	g := Generate(20, 30, PatternGradient, 0)
	assert.Same(t, g, Fit(g, 0))
	assert.Same(t, g, Fit(g, 30))
	assert.Nil(t, Fit(nil, 10))
}

func TestFitDownsizesPreservingAspect(t *testing.T) {
	g := Generate(100, 200, PatternGradient, 0)
	out := Fit(g, 50)
	require.NotNil(t, out)
	assert.Equal(t, 50, out.Cols)
	assert.Equal(t, 25, out.Rows)
	assert.NoError(t, out.Validate())
}

func TestResizeExact(t *testing.T) {
	g := Generate(10, 10, PatternNoise, 3)
	out := Resize(g, 7, 4)
	assert.Equal(t, 7, out.Cols)
	assert.Equal(t, 4, out.Rows)

	same := Resize(g, 10, 10)
	assert.True(t, g.Equal(same))
	assert.NotSame(t, g, same)
}
