package saver

import (
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/Shigeo1042/crypto-docnet/commitment"
	"github.com/Shigeo1042/crypto-docnet/decompose"
	"github.com/Shigeo1042/crypto-docnet/equality"
	"github.com/Shigeo1042/crypto-docnet/utils"
)

// GeneratorSet holds the public generators of one (radix, count)
// configuration. Y are the digit bases of the encryption commitment Phi with
// blinding base P2; G is the whole-message base whose derived multiples
// commitment.Key(G, radix, n) serve the commitment J, blinded by H; U is the
// lifting base carrying digits into the exponent of ciphertext chunks.
// A GeneratorSet is immutable after Setup and safe to share across calls.
type GeneratorSet struct {
	Radix uint64
	Y     []bls12377.G1Affine
	P2    bls12377.G1Affine
	G     bls12377.G1Affine
	H     bls12377.G1Affine
	U     bls12377.G1Affine
}

// Count returns the configured digit count.
func (gs *GeneratorSet) Count() int { return len(gs.Y) }

// MessageKey derives the whole-message commitment bases G_i = radix^{n-i}*G.
// The result depends only on public data and can be recomputed by anyone.
func (gs *GeneratorSet) MessageKey() []bls12377.G1Affine {
	return commitment.Key(&gs.G, gs.Radix, len(gs.Y))
}

// EqualityBases bundles the generator vectors for the equality-of-opening
// protocol between Phi and the whole-message commitment J. The equality proof
// only shows that both open to the same digit vector; that the digits are in
// range comes from the encryption proof, so verify that first.
func (gs *GeneratorSet) EqualityBases() *equality.Bases {
	return &equality.Bases{
		Phi:      gs.Y,
		PhiBlind: gs.P2,
		J:        gs.MessageKey(),
		JBlind:   gs.H,
	}
}

func (gs *GeneratorSet) validate(count int) error {
	if gs.Radix < 2 {
		return fmt.Errorf("%w: radix %d", decompose.ErrInvalidConfig, gs.Radix)
	}
	if len(gs.Y) != count {
		return fmt.Errorf("%w: %d digit bases for %d digits", commitment.ErrGeneratorMismatch, len(gs.Y), count)
	}
	return nil
}

// EncryptionKey is the public key: one chunk key X_i = rho_i * gen per digit.
type EncryptionKey struct {
	X []bls12377.G1Affine
}

// DecryptionKey holds the chunk secrets rho_i and the digit lookup table
// shared read-only by all decryptions under this key.
type DecryptionKey struct {
	rho   []fr.Element
	radix uint64
	table *digitTable
}

// digitTable maps j*U, in compressed form, back to the digit j for every
// j < radix. Built once at setup; lookups never mutate it.
type digitTable struct {
	entries map[[bls12377.SizeOfG1AffineCompressed]byte]uint64
}

func newDigitTable(u *bls12377.G1Affine, radix uint64) *digitTable {
	entries := make(map[[bls12377.SizeOfG1AffineCompressed]byte]uint64, radix)
	var cur bls12377.G1Affine // starts at infinity, the lift of digit 0
	for j := uint64(0); j < radix; j++ {
		entries[cur.Bytes()] = j
		cur.Add(&cur, u)
	}
	return &digitTable{entries: entries}
}

func (t *digitTable) lookup(p *bls12377.G1Affine) (uint64, bool) {
	j, ok := t.entries[p.Bytes()]
	return j, ok
}

// ProvingKey carries the compiled constraint system and the backend proving
// key for one (radix, count) circuit. Immutable after Setup; safe to share
// across concurrent Encrypt calls.
type ProvingKey struct {
	Radix uint64
	Count int

	backend ProofBackend
	cs      constraint.ConstraintSystem
	key     []byte
}

// VerifyingKey is the public counterpart of a ProvingKey.
type VerifyingKey struct {
	Radix uint64
	Count int

	backend ProofBackend
	key     []byte
}

// Bytes returns the backend's serialized verifying key.
func (vk *VerifyingKey) Bytes() []byte { return vk.key }

// Keys is the output of Setup: the proof-system key pair, the encryption key
// pair and the public generator set for one (radix, count) configuration.
type Keys struct {
	Proving    *ProvingKey
	Verifying  *VerifyingKey
	Encryption *EncryptionKey
	Decryption *DecryptionKey
	Generators *GeneratorSet
}

// Setup generates all key material for the given radix and digit count using
// the Groth16 backend. The result lives for the process lifetime and is safe
// for concurrent use; only the DecryptionKey must be kept secret.
func Setup(rng io.Reader, radix uint64, count int) (*Keys, error) {
	return SetupWith(rng, radix, count, Groth16{})
}

// SetupWith is Setup with an explicit proof-system backend.
func SetupWith(rng io.Reader, radix uint64, count int, backend ProofBackend) (*Keys, error) {
	if radix < 2 || count < 1 {
		return nil, fmt.Errorf("%w: radix %d, count %d", decompose.ErrInvalidConfig, radix, count)
	}

	_, _, gen, _ := bls12377.Generators()
	randPoint := func() (bls12377.G1Affine, error) {
		k, err := utils.RandomScalar(rng)
		if err != nil {
			return bls12377.G1Affine{}, err
		}
		var p bls12377.G1Affine
		p.ScalarMultiplication(&gen, k.BigInt(new(big.Int)))
		return p, nil
	}

	gens := &GeneratorSet{Radix: radix, Y: make([]bls12377.G1Affine, count)}
	var err error
	for i := range gens.Y {
		if gens.Y[i], err = randPoint(); err != nil {
			return nil, err
		}
	}
	if gens.P2, err = randPoint(); err != nil {
		return nil, err
	}
	if gens.G, err = randPoint(); err != nil {
		return nil, err
	}
	if gens.H, err = randPoint(); err != nil {
		return nil, err
	}
	if gens.U, err = randPoint(); err != nil {
		return nil, err
	}
	if err := gens.validate(count); err != nil {
		return nil, err
	}

	rho, err := utils.RandomScalars(rng, count)
	if err != nil {
		return nil, err
	}
	ek := &EncryptionKey{X: make([]bls12377.G1Affine, count)}
	var s big.Int
	for i := range rho {
		ek.X[i].ScalarMultiplication(&gen, rho[i].BigInt(&s))
	}
	dk := &DecryptionKey{rho: rho, radix: radix, table: newDigitTable(&gens.U, radix)}

	cs, err := frontend.Compile(ecc.BW6_761.ScalarField(), r1cs.NewBuilder, newEncryptionCircuit(radix, count))
	if err != nil {
		return nil, fmt.Errorf("saver: circuit compilation failed: %w", err)
	}
	pkBytes, vkBytes, err := backend.Setup(cs)
	if err != nil {
		return nil, fmt.Errorf("saver: backend setup failed: %w", err)
	}

	return &Keys{
		Proving:    &ProvingKey{Radix: radix, Count: count, backend: backend, cs: cs, key: pkBytes},
		Verifying:  &VerifyingKey{Radix: radix, Count: count, backend: backend, key: vkBytes},
		Encryption: ek,
		Decryption: dk,
		Generators: gens,
	}, nil
}
