package game

import "fmt"

// Status is the strike state of a cell.
type Status uint8

const (
	Untouched Status = iota
	Miss
	Hit
	Sunk
)

func (s Status) String() string {
	switch s {
	case Untouched:
		return "untouched"
	case Miss:
		return "miss"
	case Hit:
		return "hit"
	case Sunk:
		return "sunk"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	for v := Untouched; v <= Sunk; v++ {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown cell status %q", b)
}

// canAdvance allows untouched -> miss, untouched -> hit and hit -> sunk.
func (s Status) canAdvance(to Status) bool {
	switch s {
	case Untouched:
		return to == Miss || to == Hit
	case Hit:
		return to == Sunk
	}
	return false
}

// Direction is one of the eight compass points.
type Direction uint8

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

// Directions lists all compass points clockwise from North.
var Directions = [8]Direction{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

var directionNames = [8]string{"north", "northEast", "east", "southEast", "south", "southWest", "west", "northWest"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// Coord addresses a cell by row and column.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Cell is one grid position. Cells are owned by a Grid; neighbours are
// stored as coordinates and resolved through the grid.
type Cell struct {
	Row int
	Col int

	free     bool
	status   Status
	shipType ShipType
	shipID   ShipID
	hasShip  bool

	neighbors [8]Coord
	present   uint8 // bit d set when neighbors[d] exists

	watch func(*Cell)
}

func newCell(row, col, size int) *Cell {
	c := &Cell{Row: row, Col: col, free: true, status: Untouched}
	c.computeNeighbors(size)
	return c
}

// computeNeighbors fills in the neighbour coordinates once. A diagonal is
// present only when both of its orthogonal sides are.
func (c *Cell) computeNeighbors(size int) {
	set := func(d Direction, row, col int) {
		c.neighbors[d] = Coord{Row: row, Col: col}
		c.present |= 1 << d
	}
	if c.Row-1 >= 0 {
		set(North, c.Row-1, c.Col)
	}
	if c.Row+1 < size {
		set(South, c.Row+1, c.Col)
	}
	if c.Col-1 >= 0 {
		set(West, c.Row, c.Col-1)
	}
	if c.Col+1 < size {
		set(East, c.Row, c.Col+1)
	}
	if c.has(North) && c.has(East) {
		set(NorthEast, c.Row-1, c.Col+1)
	}
	if c.has(South) && c.has(East) {
		set(SouthEast, c.Row+1, c.Col+1)
	}
	if c.has(South) && c.has(West) {
		set(SouthWest, c.Row+1, c.Col-1)
	}
	if c.has(North) && c.has(West) {
		set(NorthWest, c.Row-1, c.Col-1)
	}
}

func (c *Cell) has(d Direction) bool { return c.present&(1<<d) != 0 }

// NeighborCoord returns the coordinate in direction d, if there is one.
func (c *Cell) NeighborCoord(d Direction) (Coord, bool) {
	if !c.has(d) {
		return Coord{}, false
	}
	return c.neighbors[d], true
}

// NeighborCount is 3 for corners, 5 for edges and 8 elsewhere.
func (c *Cell) NeighborCount() int {
	n := 0
	for _, d := range Directions {
		if c.has(d) {
			n++
		}
	}
	return n
}

func (c *Cell) Coord() Coord       { return Coord{Row: c.Row, Col: c.Col} }
func (c *Cell) Free() bool         { return c.free }
func (c *Cell) Status() Status     { return c.status }
func (c *Cell) ShipType() ShipType { return c.shipType }
func (c *Cell) ShipID() ShipID     { return c.shipID }
func (c *Cell) HasShip() bool      { return c.hasShip }

// SetStatus advances the strike status and notifies the grid's watcher.
// Backward or unknown transitions are rejected.
func (c *Cell) SetStatus(s Status) error {
	if s > Sunk {
		return &LogicError{Op: "Cell.SetStatus", Reason: fmt.Sprintf("unknown status %d", uint8(s))}
	}
	if !c.status.canAdvance(s) {
		return &LogicError{
			Op:     "Cell.SetStatus",
			Reason: fmt.Sprintf("cell (%d,%d): %s -> %s", c.Row, c.Col, c.status, s),
		}
	}
	c.status = s
	c.notify()
	return nil
}

func (c *Cell) occupy() {
	if !c.free {
		return
	}
	c.free = false
	c.notify()
}

func (c *Cell) assignShip(t ShipType, id ShipID) {
	c.shipType = t
	c.shipID = id
	c.hasShip = true
	c.notify()
}

func (c *Cell) notify() {
	if c.watch != nil {
		c.watch(c)
	}
}

// CellView is the render-facing snapshot of a cell. Ship fields are empty
// unless the caller chose to reveal them.
type CellView struct {
	Row      int      `json:"row"`
	Col      int      `json:"col"`
	Free     bool     `json:"free"`
	Status   Status   `json:"status"`
	ShipType ShipType `json:"shipType,omitempty"`
	ShipID   ShipID   `json:"shipId,omitempty"`
}

// View snapshots the cell; reveal controls whether ship identity is included.
func (c *Cell) View(reveal bool) CellView {
	v := CellView{Row: c.Row, Col: c.Col, Free: c.free, Status: c.status}
	if reveal && c.hasShip {
		v.ShipType = c.shipType
		v.ShipID = c.shipID
	}
	return v
}
