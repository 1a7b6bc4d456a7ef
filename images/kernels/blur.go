// Package kernels implements the 3x3 box blur used by the convolve tool.
//
// Both entry points treat the input grid as read-only and return a freshly
// allocated output grid owned by the caller. Border rows and columns are
// copied through unchanged; only interior pixels are averaged.
package kernels

import (
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/nvr-ai/go-convolve/images"
)

// DefaultThreads is the worker count used when Options.Threads is not positive.
const DefaultThreads = 4

// MinSize is the smallest row and column count that has an interior pixel.
const MinSize = 3

var (
	// ErrSizeViolation is returned when the grid is smaller than 3x3. The grid
	// returned alongside it is an unmodified copy of the input.
	ErrSizeViolation = errors.New("image is too small for 3x3 blur")
	// ErrWorkerFailed is returned when a strip worker aborts. It is reported
	// only after every worker has been joined.
	ErrWorkerFailed = errors.New("blur worker failed")
)

// Options configures the parallel blur.
type Options struct {
	// Threads is the number of strip workers. Values <= 0 select DefaultThreads.
	Threads int `json:"threads" yaml:"threads"`
}

func (o *Options) normalize() {
	if o.Threads <= 0 {
		o.Threads = DefaultThreads
	}
}

// blurStrip computes the interior pixels of rows [start, end). Tests swap it to
// inject worker failures.
var blurStrip = blurRows

// BoxBlur applies the 3x3 mean blur on the calling goroutine.
//
// Arguments:
//   - src: The input grid. It is never modified.
//
// Returns:
//   - *images.Grid: A new grid of the same size. Interior pixels hold the
//     rounded neighbourhood mean, border pixels are copied from src.
//   - error: ErrSizeViolation (with a valid copy) when src is smaller than 3x3,
//     or images.ErrInvalidGrid (with a nil grid) when src is malformed.
func BoxBlur(src *images.Grid) (*images.Grid, error) {
	dst, err := prepare(src)
	if dst == nil || err != nil {
		return dst, err
	}

	blurStrip(src, dst, 1, src.Rows-1)
	return dst, nil
}

// BoxBlurParallel applies the same blur as BoxBlur, splitting the interior rows
// into Options.Threads strips processed by one goroutine each.
//
// Each worker reads the shared input and writes only its own rows of the
// output, so the output buffer needs no locking. All workers are started
// before the call waits on them, and the call returns only once every worker
// has finished. The result is byte-identical to BoxBlur.
//
// Returns:
//   - *images.Grid: The blurred grid, or nil if a worker failed.
//   - error: ErrSizeViolation, images.ErrInvalidGrid, or ErrWorkerFailed.
func BoxBlurParallel(src *images.Grid, opt Options) (*images.Grid, error) {
	opt.normalize()

	dst, err := prepare(src)
	if dst == nil || err != nil {
		return dst, err
	}

	var g errgroup.Group
	for _, s := range PartitionRows(src.Rows, opt.Threads) {
		if s.Empty() {
			continue
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = errors.Wrapf(ErrWorkerFailed, "rows [%d, %d): %v", s.Start, s.End, r)
				}
			}()
			blurStrip(src, dst, s.Start, s.End)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dst, nil
}

// prepare validates src and returns the copy that becomes the output.
func prepare(src *images.Grid) (*images.Grid, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}

	dst := src.Clone()
	if src.Rows < MinSize || src.Cols < MinSize {
		return dst, errors.Wrapf(ErrSizeViolation, "got %dx%d", src.Cols, src.Rows)
	}
	return dst, nil
}

// blurRows writes the blurred interior pixels of rows [start, end) into dst.
// Callers guarantee 1 <= start and end <= rows-1.
func blurRows(src, dst *images.Grid, start, end int) {
	const ch = images.Channels
	stride := src.Stride()
	last := (src.Cols - 1) * ch

	for y := start; y < end; y++ {
		above := src.Pix[(y-1)*stride : y*stride]
		row := src.Pix[y*stride : (y+1)*stride]
		below := src.Pix[(y+1)*stride : (y+2)*stride]
		out := dst.Pix[y*stride : (y+1)*stride]

		for i := ch; i < last; i++ {
			l, r := i-ch, i+ch
			sum := uint16(above[l]) + uint16(above[i]) + uint16(above[r]) +
				uint16(row[l]) + uint16(row[i]) + uint16(row[r]) +
				uint16(below[l]) + uint16(below[i]) + uint16(below[r])
			out[i] = roundedMean(sum)
		}
	}
}

// roundedMean returns the mean of nine 8-bit samples, rounded half up.
// sum must not exceed 9*255.
func roundedMean(sum uint16) uint8 {
	return uint8((sum + 4) / 9)
}
