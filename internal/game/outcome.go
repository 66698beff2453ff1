package game

import "fmt"

// OutcomeKind tags a match-level strike outcome.
type OutcomeKind uint8

const (
	OutcomeIgnored OutcomeKind = iota
	OutcomeMiss
	OutcomeHit
	OutcomeSunk
	OutcomeFleetDestroyed
)

var outcomeNames = [...]string{"ignored", "miss", "hit", "sunk", "fleet_destroyed"}

func (k OutcomeKind) String() string {
	if int(k) < len(outcomeNames) {
		return outcomeNames[k]
	}
	return fmt.Sprintf("outcome(%d)", uint8(k))
}

func (k OutcomeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *OutcomeKind) UnmarshalText(b []byte) error {
	for i, name := range outcomeNames {
		if name == string(b) {
			*k = OutcomeKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", b)
}

// Outcome is the result of one strike. ShipID is set for Hit, Sunk and
// FleetDestroyed.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	ShipID ShipID      `json:"shipId,omitempty"`
	Row    int         `json:"row"`
	Col    int         `json:"col"`
}

// Recorded reports whether the strike counts as a shot.
func (o Outcome) Recorded() bool { return o.Kind != OutcomeIgnored }

// Success reports whether the strike hit a ship.
func (o Outcome) Success() bool { return o.Kind >= OutcomeHit }
