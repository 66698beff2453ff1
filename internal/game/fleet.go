package game

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Placement pairs a configured ship with the cells the grid gave it.
// Cells is nil when placement failed.
type Placement struct {
	Spec  ShipSpec
	Cells []*Cell
}

// Fleet owns the placed ships and tracks whether any are still afloat.
type Fleet struct {
	ships []*Ship
	byID  map[ShipID]*Ship
	alive bool
}

// NewFleet builds ships from placements. Ships without cells are dropped
// with a warning; they are not retried.
func NewFleet(placements []Placement, log zerolog.Logger) *Fleet {
	f := &Fleet{byID: make(map[ShipID]*Ship, len(placements)), alive: true}
	for _, p := range placements {
		if len(p.Cells) == 0 {
			log.Warn().
				Str("ship_id", string(p.Spec.ID)).
				Str("ship_type", string(p.Spec.Type)).
				Msg("ship was not placed on grid")
			continue
		}
		s := NewShip(p.Spec.Type, p.Spec.ID, p.Cells)
		f.ships = append(f.ships, s)
		f.byID[s.ID] = s
	}
	return f
}

func (f *Fleet) Alive() bool { return f.alive }

func (f *Fleet) Ships() []*Ship { return f.ships }

// Ship looks up a ship by id.
func (f *Fleet) Ship(id ShipID) (*Ship, bool) {
	s, ok := f.byID[id]
	return s, ok
}

// AliveCount is the number of ships still afloat.
func (f *Fleet) AliveCount() int {
	n := 0
	for _, s := range f.ships {
		if s.alive {
			n++
		}
	}
	return n
}

// Hit routes a strike to ship id. It reports whether the ship sank and
// whether that sinking destroyed the fleet; each is true at most once.
func (f *Fleet) Hit(id ShipID, row, col int) (shipSunk, fleetDestroyed bool, err error) {
	s, ok := f.byID[id]
	if !ok {
		return false, false, &LogicError{Op: "Fleet.Hit", Reason: fmt.Sprintf("unknown ship id %q", id)}
	}
	shipSunk, err = s.Hit(row, col)
	if err != nil || !shipSunk {
		return shipSunk, false, err
	}
	return true, f.checkLifeStatus(), nil
}

// checkLifeStatus only runs after a ship sinks, so an empty fleet stays
// alive for the whole match.
func (f *Fleet) checkLifeStatus() bool {
	if !f.alive {
		return false
	}
	for _, s := range f.ships {
		if s.alive {
			return false
		}
	}
	f.alive = false
	return true
}
