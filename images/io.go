package images

import (
	"os"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// LoadOptions controls how an image file becomes a Grid.
type LoadOptions struct {
	// MaxDimension downsizes the decoded image so neither side exceeds it.
	// Zero keeps the original size.
	MaxDimension int `json:"maxDimension" yaml:"maxDimension"`
}

// Load reads an image file through OpenCV as 8-bit BGR and converts it to a Grid.
//
// Arguments:
//   - path: Path of the image file.
//   - opts: Load options.
//
// Returns:
//   - *Grid: The decoded pixel grid.
//   - error: An error if the file is missing or cannot be decoded.
func Load(path string, opts LoadOptions) (*Grid, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "stat %s", path)
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.Errorf("cannot decode image %s", path)
	}

	grid, err := MatToGrid(mat)
	if err != nil {
		return nil, errors.Wrapf(err, "convert %s", path)
	}
	return Fit(grid, opts.MaxDimension), nil
}

// Decode converts encoded image bytes (JPEG, PNG, BMP, WebP) into a Grid.
func Decode(data []byte, opts LoadOptions) (*Grid, error) {
	if len(data) == 0 {
		return nil, errors.New("image data is empty")
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, errors.Wrap(err, "image decoding failed")
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("image decoding produced an empty matrix")
	}

	grid, err := MatToGrid(mat)
	if err != nil {
		return nil, err
	}
	return Fit(grid, opts.MaxDimension), nil
}

// Save encodes the grid to path. The format follows the file extension.
func Save(path string, g *Grid) error {
	if _, ok := FormatFromPath(path); !ok {
		return errors.Errorf("unsupported output format for %s", path)
	}

	mat, err := GridToMat(g)
	if err != nil {
		return err
	}
	defer mat.Close()

	if ok := gocv.IMWrite(path, mat); !ok {
		return errors.Errorf("cannot write image %s", path)
	}
	return nil
}

// MatToGrid copies an 8-bit 3-channel Mat into a new Grid.
func MatToGrid(mat gocv.Mat) (*Grid, error) {
	if mat.Type() != gocv.MatTypeCV8UC3 {
		return nil, errors.Wrapf(ErrInvalidGrid, "unsupported mat type %v", mat.Type())
	}

	g := NewGrid(mat.Rows(), mat.Cols())
	src := mat
	if !mat.IsContinuous() {
		src = mat.Clone()
		defer src.Close()
	}

	data, err := src.DataPtrUint8()
	if err != nil {
		return nil, errors.Wrap(err, "read mat data")
	}
	if len(data) != len(g.Pix) {
		return nil, errors.Wrapf(ErrInvalidGrid, "mat holds %d samples, want %d", len(data), len(g.Pix))
	}
	copy(g.Pix, data)
	return g, nil
}

// GridToMat copies the grid into a new 8-bit 3-channel Mat owned by the caller.
func GridToMat(g *Grid) (gocv.Mat, error) {
	if err := g.Validate(); err != nil {
		return gocv.NewMat(), err
	}

	view, err := gocv.NewMatFromBytes(g.Rows, g.Cols, gocv.MatTypeCV8UC3, g.Pix)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "wrap grid in mat")
	}
	defer view.Close()

	// The view aliases g.Pix; the clone owns its memory.
	return view.Clone(), nil
}
