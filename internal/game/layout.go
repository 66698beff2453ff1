package game

import "errors"

// Layout is a size x size occupancy map. Cell: 0=water, 1=ship.
type Layout struct {
	Size  int       `json:"size"`
	Cells [][]uint8 `json:"cells"`
}

// Layout snapshots which cells carry a ship.
func (g *Grid) Layout() Layout {
	l := Layout{Size: g.size, Cells: make([][]uint8, g.size)}
	for r := 0; r < g.size; r++ {
		l.Cells[r] = make([]uint8, g.size)
		for c := 0; c < g.size; c++ {
			if g.cells[r*g.size+c].hasShip {
				l.Cells[r][c] = 1
			}
		}
	}
	return l
}

func (l Layout) Validate() error {
	if l.Size < MinSize || l.Size > MaxSize {
		return errors.New("layout size out of range")
	}
	if len(l.Cells) != l.Size {
		return errors.New("layout row count does not match size")
	}
	for _, row := range l.Cells {
		if len(row) != l.Size {
			return errors.New("layout column count does not match size")
		}
		for _, v := range row {
			if v != 0 && v != 1 {
				return errors.New("layout has non-binary cell")
			}
		}
	}
	return nil
}

// ShipCells counts occupied cells.
func (l Layout) ShipCells() int {
	total := 0
	for _, row := range l.Cells {
		for _, v := range row {
			total += int(v)
		}
	}
	return total
}

// Bit returns the occupancy at (row, col).
func (l Layout) Bit(row, col int) (uint8, error) {
	if row < 0 || row >= l.Size || col < 0 || col >= l.Size {
		return 0, ErrOutOfBounds
	}
	return l.Cells[row][col], nil
}

// Index is the row-major leaf index of (row, col).
func (l Layout) Index(row, col int) int { return row*l.Size + col }

// Flatten returns the cells in row-major order.
func (l Layout) Flatten() []uint8 {
	out := make([]uint8, 0, l.Size*l.Size)
	for _, row := range l.Cells {
		out = append(out, row...)
	}
	return out
}
