// Package merkle commits to a ship layout with a fixed-depth MiMC tree
// whose hashing matches the in-circuit MiMC used by package zk.
package merkle

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	bnmimc "github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"

	"battleship/internal/game"
)

// Depth fits the largest grid: 2^14 = 16384 >= 100*100 leaves.
const Depth = 14

const Leaves = 1 << Depth

// --- encode BN254 field elements as 32-byte big-endian ---
func feBytes(x *big.Int) []byte {
	b := x.Bytes()
	if len(b) == 32 {
		return b
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

func bytesToFE(b []byte) *big.Int { return new(big.Int).SetBytes(b) }

var leafCache = sync.OnceValue(func() [2]*big.Int {
	return [2]*big.Int{hashLeaf(0), hashLeaf(1)}
})

func hashLeaf(bit uint8) *big.Int {
	h := bnmimc.NewMiMC()
	h.Write(feBytes(new(big.Int).SetUint64(uint64(bit))))
	return bytesToFE(h.Sum(nil))
}

// HashLeafMiMC hashes one occupancy bit, consistent with in-circuit MiMC.
func HashLeafMiMC(bit uint8) *big.Int {
	if bit <= 1 {
		return new(big.Int).Set(leafCache()[bit])
	}
	return hashLeaf(bit)
}

func HashNodeMiMC(left, right *big.Int) *big.Int {
	h := bnmimc.NewMiMC()
	h.Write(feBytes(left))
	h.Write(feBytes(right))
	return bytesToFE(h.Sum(nil))
}

// SaltedRoot binds a tree root to a salt so equal layouts commit to
// different values.
func SaltedRoot(salt, root *big.Int) *big.Int { return HashNodeMiMC(salt, root) }

// Fixed-size binary Merkle tree stored level-by-level.
type Tree struct {
	Depth  int          `json:"depth"`
	Levels [][]*big.Int `json:"levels"` // Levels[0]=leaves, Levels[Depth]=root
}

func BuildFixedTree(leavesBits []uint8, size int, padLeaf *big.Int,
	hashMerge func(*big.Int, *big.Int) *big.Int) (*Tree, error) {

	if size <= 0 || size&(size-1) != 0 {
		return nil, errors.New("size must be power of two")
	}
	if len(leavesBits) > size {
		return nil, errors.New("too many leaves")
	}

	levels := make([][]*big.Int, 0, Depth+1)

	// Level 0: leaves
	L0 := make([]*big.Int, size)
	for i := 0; i < size; i++ {
		if i < len(leavesBits) {
			L0[i] = HashLeafMiMC(leavesBits[i])
		} else {
			L0[i] = padLeaf
		}
	}
	levels = append(levels, L0)

	// Build up
	n := size
	for n > 1 {
		n2 := n / 2
		up := make([]*big.Int, n2)
		prev := levels[len(levels)-1]
		for i := 0; i < n2; i++ {
			up[i] = hashMerge(prev[2*i], prev[2*i+1])
		}
		levels = append(levels, up)
		n = n2
	}

	return &Tree{Depth: len(levels) - 1, Levels: levels}, nil
}

// BuildLayoutTree commits to l in row-major order, padding with water
// leaves up to Leaves.
func BuildLayoutTree(l game.Layout) (*Tree, error) {
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("build layout tree: %w", err)
	}
	return BuildFixedTree(l.Flatten(), Leaves, HashLeafMiMC(0), HashNodeMiMC)
}

func (t *Tree) Root() *big.Int { return new(big.Int).Set(t.Levels[len(t.Levels)-1][0]) }

// Path returns sibling hashes + direction bits for index idx.
// dir[i]=0 ⇒ current is left child; dir[i]=1 ⇒ current is right child.
func (t *Tree) Path(idx int) (path []*big.Int, dir []uint8, err error) {
	if idx < 0 || idx >= len(t.Levels[0]) {
		return nil, nil, fmt.Errorf("leaf %d: %w", idx, game.ErrOutOfBounds)
	}
	path = make([]*big.Int, 0, t.Depth)
	dir = make([]uint8, 0, t.Depth)
	cur := idx
	for level := 0; level < t.Depth; level++ {
		isRight := cur%2 == 1
		sib := cur + 1
		if isRight {
			sib = cur - 1
		}
		path = append(path, new(big.Int).Set(t.Levels[level][sib]))
		dir = append(dir, uint8(cur%2))
		cur /= 2
	}
	return path, dir, nil
}

// VerifyPath recomputes the root from a leaf bit and its path.
func VerifyPath(bit uint8, path []*big.Int, dir []uint8, root *big.Int) bool {
	if len(path) != len(dir) || root == nil {
		return false
	}
	curr := HashLeafMiMC(bit)
	for i := range path {
		if dir[i] == 1 {
			curr = HashNodeMiMC(path[i], curr)
		} else {
			curr = HashNodeMiMC(curr, path[i])
		}
	}
	return curr.Cmp(root) == 0
}
