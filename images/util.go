package images

import (
	"crypto/md5"
	"fmt"
)

// ComputeGridChecksum generates a deterministic checksum for a Grid so two
// kernel outputs can be compared without keeping both buffers around.
//
// Arguments:
// - g: The grid to compute the checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string, or "empty" for a nil or zero-sized grid.
//
// Example:
//
// ```go
//
//	if ComputeGridChecksum(seq) != ComputeGridChecksum(par) {
//		log.Printf("outputs differ")
//	}
//
// ```
func ComputeGridChecksum(g *Grid) string {
	if g == nil || len(g.Pix) == 0 {
		return "empty"
	}

	hash := md5.New()
	fmt.Fprintf(hash, "%dx%d:", g.Cols, g.Rows)
	hash.Write(g.Pix)
	return fmt.Sprintf("%x", hash.Sum(nil))
}
