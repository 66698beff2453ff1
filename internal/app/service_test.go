package app

import (
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"battleship/internal/codec"
	"battleship/internal/game"
	"battleship/internal/match"
	"battleship/internal/zk"
)

func placedLayout(t *testing.T) game.Layout {
	t.Helper()
	m, err := match.New(match.DefaultOptions(), match.ObserverFuncs{},
		match.WithGridOptions(game.WithRand(rand.New(rand.NewSource(11)))))
	require.NoError(t, err)
	require.NoError(t, m.Start())
	return m.Grid().Layout()
}

func TestOpenRebuildsSameRoot(t *testing.T) {
	l := placedLayout(t)
	sec := codec.Secret{Layout: l, SaltHex: "0x2a"}
	first, err := Open(sec)
	require.NoError(t, err)
	second, err := Open(sec)
	require.NoError(t, err)
	require.Equal(t, first.RootHex(), second.RootHex())

	other, err := Open(codec.Secret{Layout: l, SaltHex: "0x2b"})
	require.NoError(t, err)
	require.NotEqual(t, first.RootHex(), other.RootHex(), "salt changes the commitment")

	_, err = Open(codec.Secret{Layout: l})
	require.Error(t, err)
	_, err = Open(codec.Secret{Layout: game.Layout{Size: 4}, SaltHex: "0x1"})
	require.Error(t, err)
}

func TestCommitShootVerify(t *testing.T) {
	if testing.Short() {
		t.Skip("groth16 setup is slow")
	}
	keys := t.TempDir()
	l := placedLayout(t)
	c, err := Commit(l, keys, zerolog.Nop())
	require.NoError(t, err)

	reopened, err := Open(c.Secret)
	require.NoError(t, err)
	require.Equal(t, c.RootHex(), reopened.RootHex())

	var shipRow, shipCol int
	for r, row := range l.Cells {
		for col, v := range row {
			if v == 1 {
				shipRow, shipCol = r, col
			}
		}
	}

	res, err := Shoot(c.Secret, keys, shipRow, shipCol)
	require.NoError(t, err)
	require.Equal(t, uint8(1), res.Bit)

	v, err := VerifyWithRoot(zk.VKPath(keys), c.Root, l.Index(shipRow, shipCol), res.Payload)
	require.NoError(t, err)
	require.True(t, v.Valid)
	require.Equal(t, uint8(1), v.Hit)

	_, err = VerifyWithRoot(zk.VKPath(keys), c.Root, l.Index(shipRow, shipCol)+1, res.Payload)
	require.ErrorIs(t, err, ErrIndexMismatch)

	_, err = Shoot(c.Secret, keys, l.Size, 0)
	require.ErrorIs(t, err, game.ErrOutOfBounds)
}
