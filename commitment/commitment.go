// Package commitment implements the multi-base Pedersen commitments used by
// the verifiable-encryption protocol. A commitment to a digit sequence
// (m_1, ..., m_n) under bases (B_1, ..., B_n) with blinding base Q is
//
//	C = m_1*B_1 + m_2*B_2 + ... + m_n*B_n + r*Q
//
// The same function serves both the digit-wise commitment (over independent
// bases Y_i) and the whole-message commitment (over the derived bases
// G_i = radix^{n-i}*G, see Key), so there is a single commitment code path
// parameterized by the generator vector.
package commitment

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// ErrGeneratorMismatch is returned when the generator vector length does not
// match the digit sequence length. It indicates malformed public parameters.
var ErrGeneratorMismatch = errors.New("commitment: generator count does not match digit count")

// Commitment is a group element together with the blinding scalar used to
// build it. The blinding stays with whoever created the commitment; only the
// point is published.
type Commitment struct {
	Point    bls12377.G1Affine
	Blinding fr.Element
}

// Commit computes digits[0]*bases[0] + ... + digits[n-1]*bases[n-1] +
// blinding*blindBase as a single multi-scalar multiplication.
func Commit(digits []fr.Element, blinding fr.Element, bases []bls12377.G1Affine, blindBase bls12377.G1Affine) (*Commitment, error) {
	if len(bases) != len(digits) {
		return nil, fmt.Errorf("%w: %d generators, %d digits", ErrGeneratorMismatch, len(bases), len(digits))
	}
	points := make([]bls12377.G1Affine, 0, len(bases)+1)
	points = append(points, bases...)
	points = append(points, blindBase)
	scalars := make([]fr.Element, 0, len(digits)+1)
	scalars = append(scalars, digits...)
	scalars = append(scalars, blinding)

	var p bls12377.G1Affine
	if _, err := p.MultiExp(points, scalars, ecc.MultiExpConfig{}); err != nil {
		return nil, fmt.Errorf("commitment: msm failed: %w", err)
	}
	return &Commitment{Point: p, Blinding: blinding}, nil
}

// Key derives the whole-message commitment bases G_1, ..., G_n from a single
// base g, where G_i = radix^{n-i} * g. Since radix, count and g are public,
// anyone can recompute the key; it is never trusted independently. A
// power-of-two radix is built by repeated doubling, any other radix through
// scalar powers.
func Key(g *bls12377.G1Affine, radix uint64, count int) []bls12377.G1Affine {
	if radix&(radix-1) == 0 {
		return keyByDoubling(g, radix, count)
	}
	return keyByPowers(g, radix, count)
}

// keyByDoubling multiplies the previous element by the radix with log2(radix)
// doublings, then reverses so the most significant base comes first.
func keyByDoubling(g *bls12377.G1Affine, radix uint64, count int) []bls12377.G1Affine {
	log2 := 0
	for r := radix; r > 1; r >>= 1 {
		log2++
	}
	jacs := make([]bls12377.G1Jac, count)
	jacs[0].FromAffine(g)
	for i := 1; i < count; i++ {
		cur := jacs[i-1]
		for j := 0; j < log2; j++ {
			cur.DoubleAssign()
		}
		jacs[i] = cur
	}
	out := make([]bls12377.G1Affine, count)
	for i := range jacs {
		out[count-1-i].FromJacobian(&jacs[i])
	}
	return out
}

// keyByPowers computes radix^{count-i} * g directly.
func keyByPowers(g *bls12377.G1Affine, radix uint64, count int) []bls12377.G1Affine {
	b := new(big.Int).SetUint64(radix)
	out := make([]bls12377.G1Affine, count)
	for i := 0; i < count; i++ {
		e := new(big.Int).Exp(b, big.NewInt(int64(count-1-i)), nil)
		out[i].ScalarMultiplication(g, e)
	}
	return out
}
