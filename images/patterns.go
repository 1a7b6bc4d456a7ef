package images

import "math/rand"

// PatternType selects the content of a synthetic grid.
type PatternType string

const (
	// PatternNoise fills every sample independently; worst case for cache reuse.
	PatternNoise PatternType = "noise"
	// PatternGradient is a smooth diagonal ramp.
	PatternGradient PatternType = "gradient"
	// PatternChessboard alternates 8x8 black and white squares.
	PatternChessboard PatternType = "chessboard"
)

// Generate builds a deterministic synthetic grid.
//
// Arguments:
//   - rows, cols: The grid dimensions.
//   - pattern: The content to draw. Unknown patterns fall back to noise.
//   - seed: Seed for PatternNoise. Ignored by the other patterns.
//
// Returns:
//   - *Grid: The generated grid.
func Generate(rows, cols int, pattern PatternType, seed int64) *Grid {
	g := NewGrid(rows, cols)

	switch pattern {
	case PatternGradient:
		span := max(rows+cols, 1)
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				v := uint8(((x + y) * 255) / span)
				g.Set(y, x, [Channels]uint8{v, v, v})
			}
		}

	case PatternChessboard:
		const square = 8
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				if ((x/square)+(y/square))%2 == 0 {
					g.Set(y, x, [Channels]uint8{255, 255, 255})
				}
			}
		}

	default:
		rng := rand.New(rand.NewSource(seed))
		for i := range g.Pix {
			g.Pix[i] = uint8(rng.Intn(256))
		}
	}

	return g
}

// GenerateResolution builds a synthetic grid sized to a named resolution.
func GenerateResolution(res Resolution, pattern PatternType, seed int64) *Grid {
	return Generate(res.Height, res.Width, pattern, seed)
}
