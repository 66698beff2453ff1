package main

import (
	"bytes"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"battleship/internal/game"
	"battleship/internal/match"
)

func TestPlayToTheEnd(t *testing.T) {
	var out bytes.Buffer
	term := newTerminal(&out)
	m, err := match.New(match.Options{Size: 10, Ships: []game.ShipSpec{{Type: game.Destroyer, ID: "D"}}}, term,
		match.WithPresentationDelay(time.Millisecond),
		match.WithGridOptions(game.WithRand(rand.New(rand.NewSource(9)))))
	require.NoError(t, err)
	require.NoError(t, m.Start())

	var in strings.Builder
	in.WriteString("nonsense\n42 42\n0 0\n0 0\n")
	for _, c := range m.Fleet().Ships()[0].Coords() {
		fmt.Fprintf(&in, "%d %d\n", c.Row, c.Col)
	}
	require.NoError(t, play(strings.NewReader(in.String()), term, m))

	text := out.String()
	require.Contains(t, text, "enter a strike as: row col")
	require.Contains(t, text, "(42,42) is off the grid")
	require.Contains(t, text, "ship D sunk")
	require.Contains(t, text, "fleet destroyed!")
	require.Contains(t, text, "accuracy:")
	require.Equal(t, match.Finished, m.State())
}

func TestPlayStopsOnQuit(t *testing.T) {
	var out bytes.Buffer
	term := newTerminal(&out)
	m, err := match.New(match.DefaultOptions(), term)
	require.NoError(t, err)
	require.NoError(t, m.Start())
	require.NoError(t, play(strings.NewReader("q\n"), term, m))
	require.Equal(t, match.Active, m.State())
}

func TestRenderGlyphs(t *testing.T) {
	view := [][]game.CellView{{
		{Status: game.Untouched},
		{Status: game.Miss},
		{Status: game.Hit},
		{Status: game.Sunk},
		{ShipID: "A"},
	}}
	var out bytes.Buffer
	render(&out, view)
	require.Equal(t, "    01234\n  0 .ox#S\n", out.String())
}

func TestUsageEndsWithSingleNewline(t *testing.T) {
	var out bytes.Buffer
	usage(&out)
	text := out.String()
	require.True(t, strings.HasPrefix(text, "Battleship CLI\n"))
	require.True(t, strings.HasSuffix(text, "BATTLESHIP_PROOFS\n"))
	require.False(t, strings.HasSuffix(text, "\n\n"))
}
