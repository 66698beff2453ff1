// Package app commits to a placed layout and proves or verifies single
// strikes against that commitment.
package app

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/rs/zerolog"

	"battleship/internal/codec"
	"battleship/internal/game"
	"battleship/internal/merkle"
	"battleship/internal/zk"
)

// saltBytes stays below the BN254 scalar field size.
const saltBytes = 31

var ErrIndexMismatch = errors.New("proof is for another cell")

// Commitment is an opened layout commitment: the secret plus the rebuilt
// tree needed to prove strikes.
type Commitment struct {
	Secret codec.Secret
	Root   *big.Int // salted root, the public value

	tree *merkle.Tree
	salt *big.Int
}

func (c *Commitment) RootHex() string { return codec.FormatHex(c.Root) }

// Commit salts and commits to l, generating proving keys in keysDir if
// they do not exist yet.
func Commit(l game.Layout, keysDir string, log zerolog.Logger) (*Commitment, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}

	// this is to make root unique for same layouts
	buf := make([]byte, saltBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	salt := new(big.Int).SetBytes(buf)

	c, err := open(codec.Secret{Layout: l, SaltHex: codec.FormatHex(salt)}, salt)
	if err != nil {
		return nil, err
	}
	if err := zk.EnsureShotKeys(keysDir, log); err != nil {
		return nil, err
	}
	log.Debug().Str("root", c.RootHex()).Int("ship_cells", l.ShipCells()).Msg("layout committed")
	return c, nil
}

// Open rebuilds a commitment from a stored secret.
func Open(sec codec.Secret) (*Commitment, error) {
	salt, err := sec.Salt()
	if err != nil {
		return nil, err
	}
	return open(sec, salt)
}

func open(sec codec.Secret, salt *big.Int) (*Commitment, error) {
	t, err := merkle.BuildLayoutTree(sec.Layout)
	if err != nil {
		return nil, err
	}
	return &Commitment{
		Secret: sec,
		Root:   merkle.SaltedRoot(salt, t.Root()),
		tree:   t,
		salt:   salt,
	}, nil
}

type ShootResult struct {
	Payload codec.ShotProofPayload
	Bit     uint8
}

// Shoot proves the content of (row, col) with a loaded prover.
func (c *Commitment) Shoot(p *zk.Prover, row, col int) (*ShootResult, error) {
	l := c.Secret.Layout
	bit, err := l.Bit(row, col)
	if err != nil {
		return nil, fmt.Errorf("shoot (%d,%d): %w", row, col, err)
	}
	idx := l.Index(row, col)
	path, dir, err := c.tree.Path(idx)
	if err != nil {
		return nil, err
	}

	proof, pub, err := p.Prove(bit, idx, c.salt, path, dir, c.Root)
	if err != nil {
		return nil, err
	}
	return &ShootResult{
		Payload: codec.ShotProofPayload{Proof: proof, Public: pub},
		Bit:     bit,
	}, nil
}

// Shoot opens sec, loads the proving key from keysDir and proves one cell.
func Shoot(sec codec.Secret, keysDir string, row, col int) (*ShootResult, error) {
	c, err := Open(sec)
	if err != nil {
		return nil, err
	}
	p, err := zk.NewProver(keysDir)
	if err != nil {
		return nil, err
	}
	return c.Shoot(p, row, col)
}

type VerifyResult struct {
	Valid bool
	Hit   uint8
}

// VerifyWithRoot checks payload against the published root and the cell
// index the verifier asked about.
func VerifyWithRoot(vkPath string, root *big.Int, index int, payload codec.ShotProofPayload) (*VerifyResult, error) {
	if payload.Public.Root == nil || payload.Public.Root.Sign() == 0 {
		payload.Public.Root = new(big.Int).Set(root)
	}
	if payload.Public.Index != index {
		return nil, fmt.Errorf("proof for index %d, expected %d: %w", payload.Public.Index, index, ErrIndexMismatch)
	}

	res, err := zk.VerifyShot(vkPath, payload.Proof, payload.Public, root)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Valid: res, Hit: payload.Public.Hit}, nil
}
