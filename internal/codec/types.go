// Package codec holds the JSON shapes exchanged by the CLI, the HTTP
// server and its clients.
package codec

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"battleship/internal/game"
	"battleship/internal/match"
	"battleship/internal/stats"
	"battleship/internal/zk"
)

// Secret is the defender's private commitment state. The Merkle tree is
// rebuilt from Layout on demand.
type Secret struct {
	Layout  game.Layout `json:"layout"`
	SaltHex string      `json:"salt_hex"`
}

func (s Secret) Salt() (*big.Int, error) {
	if s.SaltHex == "" {
		return nil, errors.New("missing salt in secret")
	}
	return ParseHex(s.SaltHex)
}

type ShotProofPayload struct {
	Proof  []byte        `json:"proof"`
	Public zk.ShotPublic `json:"public"` // contains root, the cell index and the hit
}

// FormatHex renders a field element as 0x-prefixed hex.
func FormatHex(x *big.Int) string { return fmt.Sprintf("0x%x", x) }

// ParseHex parses a 0x-prefixed hex field element.
func ParseHex(s string) (*big.Int, error) {
	if len(s) < 3 || !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("invalid hex %q: want 0x prefix", s)
	}
	x, ok := new(big.Int).SetString(s[2:], 16)
	if !ok {
		return nil, fmt.Errorf("cannot parse hex %q", s)
	}
	return x, nil
}

// MatchResponse describes a freshly started match.
type MatchResponse struct {
	ID    string      `json:"id"`
	State match.State `json:"state"`
	Size  int         `json:"size"`
	Ships int         `json:"ships"`
	// ShipCells is the number of cells the fleet occupies.
	ShipCells int      `json:"shipCells"`
	Warnings  []string `json:"warnings,omitempty"`
	// Root is the salted layout commitment, empty when proofs are disabled.
	Root string `json:"root,omitempty"`
}

type StrikeRequest struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type StrikeResponse struct {
	Outcome game.Outcome  `json:"outcome"`
	State   match.State   `json:"state"`
	Shots   stats.Summary `json:"shots"`
}

type StatusResponse struct {
	ID      string            `json:"id"`
	State   match.State       `json:"state"`
	Grid    [][]game.CellView `json:"grid"`
	Afloat  int               `json:"afloat"`
	Shots   stats.Summary     `json:"shots"`
	Summary *stats.Summary    `json:"summary,omitempty"`
	Root    string            `json:"root,omitempty"`
}

type ProofResponse struct {
	Root    string           `json:"root"`
	Size    int              `json:"size"`
	Bit     uint8            `json:"bit"`
	Payload ShotProofPayload `json:"payload"`
}

// VerifyRequest asks whether Payload proves (Row, Col) on a Size grid
// committed to Root. Size defaults to the server's current match.
type VerifyRequest struct {
	Root    string           `json:"root"`
	Size    int              `json:"size,omitempty"`
	Row     int              `json:"row"`
	Col     int              `json:"col"`
	Payload ShotProofPayload `json:"payload"`
}

type VerifyResponse struct {
	Valid bool  `json:"valid"`
	Hit   uint8 `json:"hit"`
}

// EventType names a notification pushed to event subscribers.
type EventType string

const (
	EventLuckyStrike    EventType = "lucky_strike"
	EventBadStrike      EventType = "bad_strike"
	EventShipSunk       EventType = "ship_sunk"
	EventFleetDestroyed EventType = "fleet_destroyed"
	EventStatistics     EventType = "statistics"
	EventMatchStarted   EventType = "match_started"
	// EventSubscribed is sent once to a new subscriber with the current
	// match id.
	EventSubscribed EventType = "subscribed"
)

type Event struct {
	Type    EventType      `json:"type"`
	MatchID string         `json:"matchId"`
	Outcome *game.Outcome  `json:"outcome,omitempty"`
	Summary *stats.Summary `json:"summary,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
