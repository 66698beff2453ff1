package game

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ShipType names an entry of a Catalog.
type ShipType string

const (
	Battleship ShipType = "battleship"
	Cruiser    ShipType = "cruiser"
	Destroyer  ShipType = "destroyer"
	Boat       ShipType = "boat"
)

// ShipID identifies a ship within one match. JSON accepts either a string
// or a number, so {"id": 7} and {"id": "7"} name the same ship.
type ShipID string

func (id *ShipID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ShipID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("ship id must be a string or number: %w", err)
	}
	*id = ShipID(canonicalNumber(n))
	return nil
}

// canonicalNumber spells equal numbers the same way, so 1, 1.0 and 1e0
// all become "1" and -0 becomes "0".
func canonicalNumber(n json.Number) string {
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return n.String()
	}
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ShipSpec is one configured ship before placement.
type ShipSpec struct {
	Type ShipType `json:"type"`
	ID   ShipID   `json:"id"`
}

// Catalog maps ship types to their sizes. The order of Types is the
// order in which default fleets are laid out.
type Catalog struct {
	Types []ShipType
	sizes map[ShipType]int
}

// NewCatalog builds an immutable catalog from ordered (type, size) pairs.
func NewCatalog(entries ...CatalogEntry) Catalog {
	c := Catalog{sizes: make(map[ShipType]int, len(entries))}
	for _, e := range entries {
		if _, dup := c.sizes[e.Type]; dup {
			continue
		}
		c.Types = append(c.Types, e.Type)
		c.sizes[e.Type] = e.Size
	}
	return c
}

type CatalogEntry struct {
	Type ShipType
	Size int
}

// Size reports the length of a ship type and whether the type is known.
func (c Catalog) Size(t ShipType) (int, bool) {
	n, ok := c.sizes[t]
	return n, ok
}

// DefaultCatalog is battleship=4, cruiser=3, destroyer=2, boat=1.
func DefaultCatalog() Catalog {
	return NewCatalog(
		CatalogEntry{Battleship, 4},
		CatalogEntry{Cruiser, 3},
		CatalogEntry{Destroyer, 2},
		CatalogEntry{Boat, 1},
	)
}

// DefaultFleet is the classic ten-ship fleet with ids "A" through "J".
func DefaultFleet() []ShipSpec {
	counts := []struct {
		t ShipType
		n int
	}{{Battleship, 1}, {Cruiser, 2}, {Destroyer, 3}, {Boat, 4}}
	out := make([]ShipSpec, 0, 10)
	id := 'A'
	for _, c := range counts {
		for i := 0; i < c.n; i++ {
			out = append(out, ShipSpec{Type: c.t, ID: ShipID(string(id))})
			id++
		}
	}
	return out
}

// Rank is the position of t in Types, or len(Types) when unknown.
func (c Catalog) Rank(t ShipType) int {
	for i, known := range c.Types {
		if known == t {
			return i
		}
	}
	return len(c.Types)
}

// TotalCells sums the sizes of specs; unknown types count as zero.
func (c Catalog) TotalCells(specs []ShipSpec) int {
	total := 0
	for _, s := range specs {
		n, _ := c.Size(s.Type)
		total += n
	}
	return total
}
