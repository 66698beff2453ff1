package game

import "fmt"

// Ship is a straight run of grid cells sharing one identity. The cells
// are the grid's own cells, not copies.
type Ship struct {
	Type  ShipType
	ID    ShipID
	cells []*Cell
	alive bool
}

// NewShip stamps the ship identity on each cell.
func NewShip(t ShipType, id ShipID, cells []*Cell) *Ship {
	s := &Ship{Type: t, ID: id, cells: cells, alive: true}
	for _, c := range cells {
		c.assignShip(t, id)
	}
	return s
}

func (s *Ship) Alive() bool { return s.alive }

func (s *Ship) Cells() []*Cell { return s.cells }

func (s *Ship) Coords() []Coord {
	out := make([]Coord, len(s.cells))
	for i, c := range s.cells {
		out[i] = c.Coord()
	}
	return out
}

func (s *Ship) cellAt(row, col int) *Cell {
	for _, c := range s.cells {
		if c.Row == row && c.Col == col {
			return c
		}
	}
	return nil
}

// Hit marks the cell at (row, col) as hit and reports whether this hit
// sank the ship. Striking a cell that is already hit or sunk does nothing.
func (s *Ship) Hit(row, col int) (sunk bool, err error) {
	c := s.cellAt(row, col)
	if c == nil {
		return false, &LogicError{
			Op:     "Ship.Hit",
			Reason: fmt.Sprintf("ship %s does not own cell (%d,%d)", s.ID, row, col),
		}
	}
	if c.status != Untouched {
		return false, nil
	}
	if err := c.SetStatus(Hit); err != nil {
		return false, err
	}
	return s.checkLifeStatus()
}

// checkLifeStatus sinks the ship once every cell is hit. It reports true
// only on the call that performed the transition.
func (s *Ship) checkLifeStatus() (bool, error) {
	if !s.alive {
		return false, nil
	}
	for _, c := range s.cells {
		if c.status != Hit {
			return false, nil
		}
	}
	s.alive = false
	for _, c := range s.cells {
		if err := c.SetStatus(Sunk); err != nil {
			return false, err
		}
	}
	return true, nil
}
