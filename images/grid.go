package images

import (
	"bytes"
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// Channels is the number of interleaved 8-bit samples per pixel.
const Channels = 3

// ErrInvalidGrid is returned when a grid's pixel buffer does not match its dimensions.
var ErrInvalidGrid = errors.New("invalid pixel grid")

// Grid is a row-major buffer of 3-channel 8-bit pixels.
//
// Channel order is whatever the producer used (BGR when decoded through OpenCV).
// Kernels treat the channels independently, so the order never matters to them.
type Grid struct {
	// Rows is the number of pixel rows (image height).
	Rows int `json:"rows" yaml:"rows"`
	// Cols is the number of pixel columns (image width).
	Cols int `json:"cols" yaml:"cols"`
	// Pix holds Rows*Cols*Channels samples, row after row.
	Pix []uint8 `json:"-" yaml:"-"`
}

// NewGrid allocates a zeroed grid with the given dimensions.
//
// Arguments:
//   - rows: The number of rows.
//   - cols: The number of columns.
//
// Returns:
//   - *Grid: The allocated grid. Negative dimensions are treated as zero.
func NewGrid(rows, cols int) *Grid {
	rows = max(rows, 0)
	cols = max(cols, 0)
	return &Grid{
		Rows: rows,
		Cols: cols,
		Pix:  make([]uint8, rows*cols*Channels),
	}
}

// Stride returns the number of samples in one row.
func (g *Grid) Stride() int {
	return g.Cols * Channels
}

// Offset returns the index of the first sample of pixel (y, x) in Pix.
func (g *Grid) Offset(y, x int) int {
	return y*g.Stride() + x*Channels
}

// At returns the samples of pixel (y, x).
func (g *Grid) At(y, x int) [Channels]uint8 {
	off := g.Offset(y, x)
	return [Channels]uint8{g.Pix[off], g.Pix[off+1], g.Pix[off+2]}
}

// Set writes the samples of pixel (y, x).
func (g *Grid) Set(y, x int, px [Channels]uint8) {
	off := g.Offset(y, x)
	g.Pix[off] = px[0]
	g.Pix[off+1] = px[1]
	g.Pix[off+2] = px[2]
}

// Fill sets every pixel to px.
func (g *Grid) Fill(px [Channels]uint8) {
	for off := 0; off+Channels <= len(g.Pix); off += Channels {
		g.Pix[off] = px[0]
		g.Pix[off+1] = px[1]
		g.Pix[off+2] = px[2]
	}
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	out := &Grid{Rows: g.Rows, Cols: g.Cols, Pix: make([]uint8, len(g.Pix))}
	copy(out.Pix, g.Pix)
	return out
}

// Equal reports whether both grids have the same dimensions and samples.
func (g *Grid) Equal(o *Grid) bool {
	if g == nil || o == nil {
		return g == o
	}
	return g.Rows == o.Rows && g.Cols == o.Cols && bytes.Equal(g.Pix, o.Pix)
}

// Bounds returns the grid extent as an image rectangle anchored at the origin.
func (g *Grid) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Cols, g.Rows)
}

// Validate checks that Pix is exactly Rows*Cols*Channels long.
func (g *Grid) Validate() error {
	if g == nil {
		return errors.Wrap(ErrInvalidGrid, "grid is nil")
	}
	if g.Rows < 0 || g.Cols < 0 {
		return errors.Wrapf(ErrInvalidGrid, "negative dimensions %dx%d", g.Cols, g.Rows)
	}
	if want := g.Rows * g.Cols * Channels; len(g.Pix) != want {
		return errors.Wrapf(ErrInvalidGrid, "pixel buffer has %d samples, want %d", len(g.Pix), want)
	}
	return nil
}

// FromImage converts any image.Image into a grid holding its R, G and B samples.
// Alpha is dropped.
func FromImage(img image.Image) *Grid {
	b := img.Bounds()
	g := NewGrid(b.Dy(), b.Dx())

	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < g.Rows; y++ {
			src := rgba.Pix[(y)*rgba.Stride:]
			dst := g.Pix[y*g.Stride():]
			for x := 0; x < g.Cols; x++ {
				copy(dst[x*Channels:x*Channels+Channels], src[x*4:x*4+Channels])
			}
		}
		return g
	}

	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Cols; x++ {
			c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			g.Set(y, x, [Channels]uint8{c.R, c.G, c.B})
		}
	}
	return g
}

// ToRGBA converts the grid into an opaque *image.RGBA, mapping channel 0..2 to R, G, B.
func (g *Grid) ToRGBA() *image.RGBA {
	out := image.NewRGBA(g.Bounds())
	for y := 0; y < g.Rows; y++ {
		src := g.Pix[y*g.Stride():]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < g.Cols; x++ {
			copy(dst[x*4:x*4+Channels], src[x*Channels:x*Channels+Channels])
			dst[x*4+3] = 0xff
		}
	}
	return out
}
