package kernels

// Strip is a half-open range of rows [Start, End) assigned to one worker.
type Strip struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end"   yaml:"end"`
}

// Len returns the number of rows in the strip.
func (s Strip) Len() int {
	return max(s.End-s.Start, 0)
}

// Empty reports whether the strip holds no rows.
func (s Strip) Empty() bool {
	return s.End <= s.Start
}

// PartitionRows splits the interior rows [1, rows-1) into n contiguous strips.
//
// Every strip except the last gets (rows-2)/n rows; the last one absorbs the
// remainder so each interior row is covered exactly once. When n exceeds the
// number of interior rows the leading strips are empty.
//
// Arguments:
//   - rows: The total number of rows in the grid, border included.
//   - n: The number of workers. Values below 1 are treated as 1.
//
// Returns:
//   - []Strip: Exactly n strips in row order, or nil when there are no interior rows.
func PartitionRows(rows, n int) []Strip {
	interior := rows - 2
	if interior <= 0 {
		return nil
	}
	n = max(n, 1)

	height := interior / n
	strips := make([]Strip, n)
	for i := range n {
		start := 1 + i*height
		end := start + height
		if i == n-1 {
			end = rows - 1
		}
		strips[i] = Strip{Start: start, End: end}
	}
	return strips
}
