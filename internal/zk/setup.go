package zk

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/rs/zerolog"
)

var (
	ErrRootMismatch = errors.New("root mismatch: proof root != committed root")
	ErrBadPath      = errors.New("bad path length")
)

// ShotPublic is the public part of a shot proof.
type ShotPublic struct {
	Root  *big.Int `json:"root"`
	Index int      `json:"index"`
	Hit   uint8    `json:"hit"`
}

func VKPath(dir string) string { return filepath.Join(dir, "shot.vk") }
func PKPath(dir string) string { return filepath.Join(dir, "shot.pk") }

// compileShot compiles the circuit once per process; compilation is
// deterministic so keys from an earlier run stay valid.
var compileShot = sync.OnceValues(func() (constraint.ConstraintSystem, error) {
	var circuit ShotCircuit
	return frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
})

// Ensure proving/verifying keys exist (reads/writes via io.ReaderFrom / io.WriterTo).
func EnsureShotKeys(dir string, log zerolog.Logger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	vkPath, pkPath := VKPath(dir), PKPath(dir)

	// If both key files exist AND can be parsed, reuse them; else regenerate.
	if vk, pk, err := readKeys(vkPath, pkPath); err == nil && vk != nil && pk != nil {
		log.Debug().Str("dir", dir).Msg("reusing shot keys")
		return nil
	}

	start := time.Now()
	cs, err := compileShot()
	if err != nil {
		return fmt.Errorf("compile shot circuit: %w", err)
	}

	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return fmt.Errorf("groth16 setup: %w", err)
	}

	if err := writeVK(vkPath, vk); err != nil {
		return err
	}
	if err := writePK(pkPath, pk); err != nil {
		return err
	}
	log.Info().
		Str("dir", dir).
		Int("constraints", cs.GetNbConstraints()).
		Dur("took", time.Since(start)).
		Msg("generated shot keys")
	return nil
}

// Prover holds a loaded proving key so repeated shots skip the disk read.
type Prover struct {
	pk groth16.ProvingKey
}

func NewProver(keysDir string) (*Prover, error) {
	pk, err := readPK(PKPath(keysDir))
	if err != nil {
		return nil, fmt.Errorf("load proving key: %w", err)
	}
	return &Prover{pk: pk}, nil
}

// Prove one shot. root is the salted commitment.
func (p *Prover) Prove(bit uint8, idx int, salt *big.Int, path []*big.Int, dir []uint8, root *big.Int) ([]byte, ShotPublic, error) {
	if len(path) != MerkleDepth || len(dir) != MerkleDepth {
		return nil, ShotPublic{}, ErrBadPath
	}

	// Witness assignment for the full circuit
	var assign ShotCircuit
	assign.Bit = bit
	assign.Salt = salt
	for i := 0; i < MerkleDepth; i++ {
		assign.Path[i] = path[i]
		assign.Dir[i] = dir[i]
	}
	assign.Root = root
	assign.Index = idx
	assign.Hit = bit

	cs, err := compileShot()
	if err != nil {
		return nil, ShotPublic{}, err
	}

	// Full witness and prove
	fullWit, err := frontend.NewWitness(&assign, ecc.BN254.ScalarField())
	if err != nil {
		return nil, ShotPublic{}, err
	}
	proof, err := groth16.Prove(cs, p.pk, fullWit)
	if err != nil {
		return nil, ShotPublic{}, err
	}

	// Serialize proof
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, ShotPublic{}, err
	}
	return buf.Bytes(), ShotPublic{Root: new(big.Int).Set(root), Index: idx, Hit: bit}, nil
}

// Verify a shot proof. (Verify returns only error; nil => valid)
func VerifyShot(vkPath string, proofBin []byte, pub ShotPublic, root *big.Int) (bool, error) {
	if pub.Root == nil {
		return false, errors.New("proof payload missing public root")
	}
	if pub.Root.Cmp(root) != 0 {
		return false, ErrRootMismatch
	}
	if pub.Hit > 1 {
		return false, fmt.Errorf("invalid hit public output %d", pub.Hit)
	}

	// Build a PUBLIC-ONLY witness using the actual circuit type (so it implements frontend.Circuit).
	var pubAssign ShotCircuit
	pubAssign.Root = root
	pubAssign.Index = pub.Index
	pubAssign.Hit = pub.Hit

	pubWit, err := frontend.NewWitness(&pubAssign, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false, err
	}

	vk, err := readVK(vkPath)
	if err != nil {
		return false, err
	}
	pr := groth16.NewProof(ecc.BN254)
	if _, err := pr.ReadFrom(bytes.NewReader(proofBin)); err != nil {
		return false, err
	}

	if err := groth16.Verify(pr, vk, pubWit); err != nil {
		return false, err
	}
	return true, nil
}

// --- key IO helpers using io.WriterTo / io.ReaderFrom ---

func writeVK(path string, vk groth16.VerifyingKey) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = vk.WriteTo(f)
	return err
}

func writePK(path string, pk groth16.ProvingKey) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = pk.WriteTo(f)
	return err
}

func readVK(path string) (groth16.VerifyingKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	vk := groth16.NewVerifyingKey(ecc.BN254)
	_, err = vk.ReadFrom(f)
	return vk, err
}

func readPK(path string) (groth16.ProvingKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	pk := groth16.NewProvingKey(ecc.BN254)
	_, err = pk.ReadFrom(f)
	return pk, err
}

func readKeys(vkPath, pkPath string) (groth16.VerifyingKey, groth16.ProvingKey, error) {
	vk, err := readVK(vkPath)
	if err != nil {
		return nil, nil, err
	}
	pk, err := readPK(pkPath)
	if err != nil {
		return nil, nil, err
	}
	return vk, pk, nil
}
