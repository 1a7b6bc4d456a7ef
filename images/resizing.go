package images

import (
	"github.com/nfnt/resize"
)

// Fit downsizes g so that neither side exceeds maxDim, keeping the aspect ratio.
//
// Arguments:
//   - g: The source grid. It is never modified.
//   - maxDim: The largest allowed width or height. Zero or negative disables resizing.
//
// Returns:
//   - *Grid: g itself when no resize is needed, otherwise a new grid.
func Fit(g *Grid, maxDim int) *Grid {
	if g == nil || maxDim <= 0 || (g.Rows <= maxDim && g.Cols <= maxDim) {
		return g
	}

	out := resize.Thumbnail(uint(maxDim), uint(maxDim), g.ToRGBA(), resize.Bilinear)
	return FromImage(out)
}

// Resize scales g to exactly width x height using bilinear interpolation.
func Resize(g *Grid, width, height int) *Grid {
	if g == nil || width <= 0 || height <= 0 {
		return g
	}
	if g.Cols == width && g.Rows == height {
		return g.Clone()
	}

	out := resize.Resize(uint(width), uint(height), g.ToRGBA(), resize.Bilinear)
	return FromImage(out)
}
