// Package saver implements verifiable encryption: an encryption whose
// ciphertext comes with a commitment to the plaintext digits and a zero
// knowledge proof that the two are consistent. A message is split into
// fixed-radix digits, each digit is encrypted as an exponent-ElGamal chunk
// under a per-chunk key, and the proof shows every digit is in range, the
// chunks encrypt those digits, and the commitment Phi opens to them with the
// encryption randomness as blinding. The equality package then links Phi to
// a commitment to the whole message.
package saver

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"

	"github.com/Shigeo1042/crypto-docnet/commitment"
	"github.com/Shigeo1042/crypto-docnet/decompose"
	"github.com/Shigeo1042/crypto-docnet/utils"
)

// Ciphertext is the chunked exponent-ElGamal encryption of a message:
// C0 = r*gen and one chunk C_i = r*X_i + m_i*U per digit.
type Ciphertext struct {
	C0 bls12377.G1Affine
	C  []bls12377.G1Affine
}

// Bytes returns the fixed-size canonical encoding: the compressed points
// C0, C_1, ..., C_n in order.
func (ct *Ciphertext) Bytes() []byte {
	out := make([]byte, 0, (len(ct.C)+1)*bls12377.SizeOfG1AffineCompressed)
	b := ct.C0.Bytes()
	out = append(out, b[:]...)
	for i := range ct.C {
		b = ct.C[i].Bytes()
		out = append(out, b[:]...)
	}
	return out
}

// SetBytes decodes a ciphertext produced by Bytes. The chunk count is taken
// from the input length.
func (ct *Ciphertext) SetBytes(data []byte) error {
	size := bls12377.SizeOfG1AffineCompressed
	if len(data) < 2*size || len(data)%size != 0 {
		return fmt.Errorf("saver: invalid ciphertext length %d", len(data))
	}
	if _, err := ct.C0.SetBytes(data[:size]); err != nil {
		return fmt.Errorf("saver: invalid ciphertext point: %w", err)
	}
	rest := data[size:]
	ct.C = make([]bls12377.G1Affine, len(rest)/size)
	for i := range ct.C {
		if _, err := ct.C[i].SetBytes(rest[i*size : (i+1)*size]); err != nil {
			return fmt.Errorf("saver: invalid ciphertext point: %w", err)
		}
	}
	return nil
}

// EncryptionResult is one encryption transcript: the ciphertext, the digit
// commitment Phi (carrying the shared randomness r) and the proof that the
// ciphertext is a correct encryption consistent with Phi. Immutable once
// produced.
type EncryptionResult struct {
	Ciphertext Ciphertext
	Commitment commitment.Commitment
	Proof      Proof
}

// Encrypt encrypts msg under the encryption key, commits to its digits and
// proves consistency of the two. Randomness is drawn from rng per call, so
// shared keys may be used concurrently.
func Encrypt(rng io.Reader, msg *big.Int, ek *EncryptionKey, gens *GeneratorSet, pk *ProvingKey) (*EncryptionResult, error) {
	if err := gens.validate(pk.Count); err != nil {
		return nil, err
	}
	if len(ek.X) != pk.Count || gens.Radix != pk.Radix {
		return nil, fmt.Errorf("%w: key and generator set disagree with proving key", commitment.ErrGeneratorMismatch)
	}
	digits, err := decompose.Decompose(msg, pk.Radix, pk.Count)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	r, err := utils.RandomScalar(rng)
	if err != nil {
		return nil, err
	}
	rBig := r.BigInt(new(big.Int))

	_, _, gen, _ := bls12377.Generators()
	var ct Ciphertext
	ct.C0.ScalarMultiplication(&gen, rBig)
	ct.C = make([]bls12377.G1Affine, pk.Count)
	var rx, lift bls12377.G1Affine
	for i := range ct.C {
		rx.ScalarMultiplication(&ek.X[i], rBig)
		lift.ScalarMultiplication(&gens.U, new(big.Int).SetUint64(digits[i]))
		ct.C[i].Add(&rx, &lift)
	}

	// Phi shares the encryption randomness r as its blinding
	phi, err := commitment.Commit(decompose.Scalars(digits), r, gens.Y, gens.P2)
	if err != nil {
		return nil, err
	}

	assignment := encryptionAssignment(gens, ek, &ct, &phi.Point, digits, &r)
	proof, err := pk.backend.Prove(pk.cs, pk.key, assignment)
	if err != nil {
		return nil, fmt.Errorf("saver: proving failed: %w", err)
	}

	return &EncryptionResult{Ciphertext: ct, Commitment: *phi, Proof: proof}, nil
}

// Decrypt recovers the message from a ciphertext: each chunk yields
// m_i*U = C_i - rho_i*C0, the digit is read from the lookup table, and the
// digits are reassembled. A chunk that does not map to a digit below the
// radix means a wrong key or corrupted ciphertext and fails with
// ErrDecryption.
func Decrypt(ct *Ciphertext, dk *DecryptionKey) (*big.Int, error) {
	if len(ct.C) != len(dk.rho) {
		return nil, fmt.Errorf("%w: %d chunks for %d chunk keys", ErrDecryption, len(ct.C), len(dk.rho))
	}
	digits := make([]uint64, len(ct.C))
	var mask, lifted bls12377.G1Affine
	var s big.Int
	for i := range ct.C {
		mask.ScalarMultiplication(&ct.C0, dk.rho[i].BigInt(&s))
		lifted.Sub(&ct.C[i], &mask)
		d, ok := dk.table.lookup(&lifted)
		if !ok {
			return nil, fmt.Errorf("%w: chunk %d", ErrDecryption, i)
		}
		digits[i] = d
	}
	m, err := decompose.Reconstruct(digits, dk.radix)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return m, nil
}

// VerifyEncryption checks that the ciphertext is a correct encryption of the
// digits committed in phi. It returns false with a nil error when the proof
// is well-formed but rejected, and false with a non-nil error for malformed
// input, so callers can tell the two apart.
func VerifyEncryption(ct *Ciphertext, phi *bls12377.G1Affine, proof Proof, vk *VerifyingKey, ek *EncryptionKey, gens *GeneratorSet) (bool, error) {
	if err := gens.validate(vk.Count); err != nil {
		return false, err
	}
	if len(ek.X) != vk.Count || len(ct.C) != vk.Count || gens.Radix != vk.Radix {
		return false, fmt.Errorf("%w: transcript shape disagrees with verifying key", commitment.ErrGeneratorMismatch)
	}
	err := vk.backend.Verify(vk.key, proof, publicAssignment(gens, ek, ct, phi))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrProofRejected):
		return false, nil
	default:
		return false, err
	}
}

// CommitMessage builds the whole-message commitment J over the derived bases
// G_i = radix^{n-i}*G with fresh blinding, so that J = m*G + r'*H. Combined
// with the equality package it links an encryption transcript's Phi to a
// commitment to the message as a single field element.
func CommitMessage(rng io.Reader, msg *big.Int, gens *GeneratorSet) (*commitment.Commitment, error) {
	digits, err := decompose.Decompose(msg, gens.Radix, gens.Count())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	blinding, err := utils.RandomScalar(rng)
	if err != nil {
		return nil, err
	}
	return commitment.Commit(decompose.Scalars(digits), blinding, gens.MessageKey(), gens.H)
}
