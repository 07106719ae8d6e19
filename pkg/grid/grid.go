// Package grid maps linear memory addresses onto a fixed-width grid of
// cells for display.
package grid

// GetGridCoords returns the column and row of index in a grid of cols
// columns.
func GetGridCoords(index, cols int) (x, y int) {
	return index % cols, index / cols
}

// GetGridIndex is the inverse of GetGridCoords.
func GetGridIndex(x, y, cols int) int {
	return y*cols + x
}

// Layout places cells of a fixed pixel size starting at an origin.
type Layout struct {
	Cols    int
	Count   int
	OriginX int
	OriginY int
	CellW   int
	CellH   int
}

// Cell returns the top-left pixel of the cell at index.
func (l Layout) Cell(index int) (px, py int) {
	x, y := GetGridCoords(index, l.Cols)
	return l.OriginX + x*l.CellW, l.OriginY + y*l.CellH
}

// Hit returns the index of the cell containing the pixel, if any.
func (l Layout) Hit(px, py int) (int, bool) {
	if px < l.OriginX || py < l.OriginY {
		return 0, false
	}
	x := (px - l.OriginX) / l.CellW
	y := (py - l.OriginY) / l.CellH
	if x >= l.Cols {
		return 0, false
	}
	i := GetGridIndex(x, y, l.Cols)
	if i >= l.Count {
		return 0, false
	}
	return i, true
}
