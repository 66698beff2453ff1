package codec

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"battleship/internal/game"
	"battleship/internal/match"
	"battleship/internal/stats"
)

func TestHexRoundTrip(t *testing.T) {
	x, ok := new(big.Int).SetString("123456789abcdef0123456789", 16)
	require.True(t, ok)
	got, err := ParseHex(FormatHex(x))
	require.NoError(t, err)
	require.Zero(t, x.Cmp(got))

	for _, bad := range []string{"", "0x", "123", "0xzz"} {
		_, err := ParseHex(bad)
		require.Error(t, err, bad)
	}
}

func TestSecretSalt(t *testing.T) {
	s := Secret{SaltHex: "0x2a"}
	salt, err := s.Salt()
	require.NoError(t, err)
	require.Equal(t, int64(42), salt.Int64())

	_, err = Secret{}.Salt()
	require.Error(t, err)
}

func TestEventJSON(t *testing.T) {
	out := game.Outcome{Kind: game.OutcomeSunk, ShipID: "C", Row: 1, Col: 2}
	b, err := json.Marshal(Event{Type: EventShipSunk, MatchID: "m1", Outcome: &out})
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"ship_sunk","matchId":"m1","outcome":{"kind":"sunk","shipId":"C","row":1,"col":2}}`, string(b))

	b, err = json.Marshal(StrikeResponse{
		Outcome: game.Outcome{Kind: game.OutcomeMiss, Row: 0, Col: 0},
		State:   match.Active,
		Shots:   stats.Summary{TotalShots: 1},
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"outcome":{"kind":"miss","row":0,"col":0},"state":"active","shots":{"totalShots":1,"successfulShots":0,"accuracyPercent":0}}`, string(b))
}
