package game

import (
	"fmt"
	"iter"
	"math/rand"
	"time"
)

const (
	MinSize = 10
	MaxSize = 100

	// MaxPlacementAttempts bounds RandomFreeLine. Changing it changes how
	// often ships fail to place on crowded grids.
	MaxPlacementAttempts = 10
)

// LineDirections is the order FreeLine tries directions in. Ships are
// never placed diagonally.
var LineDirections = [4]Direction{North, East, South, West}

// Grid is an N x N arena of cells stored row-major.
type Grid struct {
	size  int
	cells []*Cell

	developerMode bool
	rng           *rand.Rand
	watch         func(*Cell)
}

type GridOption func(*Grid)

// WithRand sets the source used for random placement.
func WithRand(r *rand.Rand) GridOption { return func(g *Grid) { g.rng = r } }

// WithDeveloperMode reveals ship positions in views.
func WithDeveloperMode(on bool) GridOption { return func(g *Grid) { g.developerMode = on } }

// WithCellWatcher registers fn to be called after any cell changes.
func WithCellWatcher(fn func(*Cell)) GridOption { return func(g *Grid) { g.watch = fn } }

// NewGrid builds a size x size grid. Sizes outside [MinSize, MaxSize]
// yield a *ConfigurationError; callers normalise before calling.
func NewGrid(size int, opts ...GridOption) (*Grid, error) {
	if size < MinSize || size > MaxSize {
		return nil, &ConfigurationError{
			Field:  "size",
			Value:  size,
			Reason: fmt.Sprintf("must be within [%d,%d]", MinSize, MaxSize),
		}
	}
	g := &Grid{size: size, cells: make([]*Cell, 0, size*size)}
	for _, o := range opts {
		o(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			cell := newCell(r, c, size)
			cell.watch = g.notify
			g.cells = append(g.cells, cell)
		}
	}
	return g, nil
}

func (g *Grid) notify(c *Cell) {
	if g.watch != nil {
		g.watch(c)
	}
}

func (g *Grid) Size() int           { return g.size }
func (g *Grid) DeveloperMode() bool { return g.developerMode }

// Cell returns the cell at (row, col), or nil when out of bounds.
func (g *Grid) Cell(row, col int) *Cell {
	if row < 0 || row >= g.size || col < 0 || col >= g.size {
		return nil
	}
	return g.cells[row*g.size+col]
}

// Cells yields every cell in row-major order.
func (g *Grid) Cells() iter.Seq[*Cell] {
	return func(yield func(*Cell) bool) {
		for _, c := range g.cells {
			if !yield(c) {
				return
			}
		}
	}
}

// Neighbor returns the cell next to c in direction d, or nil.
func (g *Grid) Neighbor(c *Cell, d Direction) *Cell {
	at, ok := c.NeighborCoord(d)
	if !ok {
		return nil
	}
	return g.Cell(at.Row, at.Col)
}

// Neighbors returns every existing neighbour of c (3 to 8 cells).
func (g *Grid) Neighbors(c *Cell) []*Cell {
	out := make([]*Cell, 0, 8)
	for _, d := range Directions {
		if n := g.Neighbor(c, d); n != nil {
			out = append(out, n)
		}
	}
	return out
}

// FreeRun yields the consecutive free cells after c in direction d,
// stopping at the first occupied cell or the edge. c itself is excluded.
func (g *Grid) FreeRun(c *Cell, d Direction) iter.Seq[*Cell] {
	return func(yield func(*Cell) bool) {
		for next := g.Neighbor(c, d); next != nil && next.free; next = g.Neighbor(next, d) {
			if !yield(next) {
				return
			}
		}
	}
}

// Occupy marks c and all of its neighbours as not free. The watcher sees
// each cell whose free flag actually changed.
func (g *Grid) Occupy(c *Cell) {
	c.occupy()
	for _, n := range g.Neighbors(c) {
		n.occupy()
	}
}

// FreeCells returns all free cells in row-major order.
func (g *Grid) FreeCells() []*Cell {
	var out []*Cell
	for _, c := range g.cells {
		if c.free {
			out = append(out, c)
		}
	}
	return out
}

// RandomFreeCell picks a free cell uniformly, or returns nil if none remain.
func (g *Grid) RandomFreeCell() *Cell {
	free := g.FreeCells()
	if len(free) == 0 {
		return nil
	}
	return free[g.rng.Intn(len(free))]
}

// FreeLine looks for length free cells running away from start, trying
// LineDirections in order. The first direction that fits wins and its
// cells are occupied before they are returned. nil means no direction fits.
func (g *Grid) FreeLine(start *Cell, length int) []*Cell {
	if start == nil || length <= 0 {
		return nil
	}
	for _, d := range LineDirections {
		line := make([]*Cell, 0, length)
		for c := range g.FreeRun(start, d) {
			line = append(line, c)
			if len(line) == length {
				break
			}
		}
		if len(line) < length {
			continue
		}
		for _, c := range line {
			g.Occupy(c)
		}
		return line
	}
	return nil
}

// RandomFreeLine samples random free cells and tries FreeLine from each,
// giving up after MaxPlacementAttempts. nil is an expected outcome on
// crowded grids.
func (g *Grid) RandomFreeLine(length int) []*Cell {
	for attempt := 0; attempt < MaxPlacementAttempts; attempt++ {
		start := g.RandomFreeCell()
		if start == nil {
			return nil
		}
		if line := g.FreeLine(start, length); line != nil {
			return line
		}
	}
	return nil
}

// StrikeKind classifies the grid-level result of a strike.
type StrikeKind uint8

const (
	StrikeIgnored StrikeKind = iota
	StrikeMiss
	StrikeShipHit
)

// StrikeResult is what the grid learned from a strike. For StrikeShipHit
// the cell status is left for the owning ship to update.
type StrikeResult struct {
	Kind   StrikeKind
	ShipID ShipID
	Row    int
	Col    int
}

// ResolveStrike looks up (row, col). Already resolved cells are ignored;
// empty water is marked as a miss here; ship cells are reported back so
// the fleet can confirm the hit.
func (g *Grid) ResolveStrike(row, col int) (StrikeResult, error) {
	c := g.Cell(row, col)
	if c == nil {
		return StrikeResult{}, fmt.Errorf("strike (%d,%d) on %dx%d grid: %w", row, col, g.size, g.size, ErrOutOfBounds)
	}
	res := StrikeResult{Row: row, Col: col}
	if c.status != Untouched {
		return res, nil
	}
	if c.hasShip {
		res.Kind = StrikeShipHit
		res.ShipID = c.shipID
		return res, nil
	}
	if err := c.SetStatus(Miss); err != nil {
		return res, err
	}
	res.Kind = StrikeMiss
	return res, nil
}

// View snapshots the grid row by row. Ship identity is revealed when
// reveal is set or the grid is in developer mode.
func (g *Grid) View(reveal bool) [][]CellView {
	out := make([][]CellView, g.size)
	for r := 0; r < g.size; r++ {
		row := make([]CellView, g.size)
		for c := 0; c < g.size; c++ {
			row[c] = g.cells[r*g.size+c].View(reveal || g.developerMode)
		}
		out[r] = row
	}
	return out
}
