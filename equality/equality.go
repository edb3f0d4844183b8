// Package equality proves that two multi-base Pedersen commitments open to
// the same digit vector under independent generator bases, without a
// general-purpose circuit. The relation is
//
//	phi = m_1*Y_1 + ... + m_n*Y_n + r*P2
//	j   = m_1*G_1 + ... + m_n*G_n + r'*H
//
// for the same digits m_i. The protocol is a standard sigma protocol made
// non-interactive with the Fiat-Shamir transform: the prover commits to one
// blind per digit plus one per blinding scalar, derives the challenge from a
// transcript hash over the public data, and answers with response scalars.
//
// Fresh blinds are sampled from the caller's randomness source on every
// Commit, and a Protocol refuses to respond twice, so blinding factors cannot
// be reused across proofs.
package equality

import (
	"errors"
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc"
	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"

	"github.com/Shigeo1042/crypto-docnet/commitment"
	"github.com/Shigeo1042/crypto-docnet/utils"
)

const transcriptDomain = "crypto-docnet/equal-opening/v1"

// ErrProtocolConsumed is returned when a Protocol is asked for a second
// response. Each Protocol carries one set of blinds and serves one proof.
var ErrProtocolConsumed = errors.New("equality: protocol already produced a response")

// Bases holds the public generator vectors of the two commitments. The digit
// vectors must have equal length; the blinding bases are independent.
type Bases struct {
	Phi      []bls12377.G1Affine // digit bases of the first commitment
	PhiBlind bls12377.G1Affine
	J        []bls12377.G1Affine // digit bases of the second commitment
	JBlind   bls12377.G1Affine
}

func (b *Bases) check() error {
	if len(b.Phi) != len(b.J) {
		return fmt.Errorf("%w: %d phi bases, %d j bases", commitment.ErrGeneratorMismatch, len(b.Phi), len(b.J))
	}
	return nil
}

// Proof is the non-interactive equality-of-opening proof.
type Proof struct {
	TPhi, TJ  bls12377.G1Affine // commitments to the blinds
	Responses []fr.Element      // one response per digit
	PhiBlind  fr.Element        // response for the first blinding scalar
	JBlind    fr.Element        // response for the second blinding scalar
}

// Protocol is the prover state between the commit and response steps. It is
// single-use and not safe for concurrent use.
type Protocol struct {
	bases    *Bases
	blinds   []fr.Element
	sPhi, sJ fr.Element
	TPhi, TJ bls12377.G1Affine
	done     bool
}

// Commit starts the protocol: it samples one blind per digit plus one per
// blinding scalar and commits to them under both generator bases.
func Commit(rng io.Reader, bases *Bases) (*Protocol, error) {
	if err := bases.check(); err != nil {
		return nil, err
	}
	blinds, err := utils.RandomScalars(rng, len(bases.Phi))
	if err != nil {
		return nil, err
	}
	sPhi, err := utils.RandomScalar(rng)
	if err != nil {
		return nil, err
	}
	sJ, err := utils.RandomScalar(rng)
	if err != nil {
		return nil, err
	}
	tPhi, err := commitment.Commit(blinds, sPhi, bases.Phi, bases.PhiBlind)
	if err != nil {
		return nil, err
	}
	tJ, err := commitment.Commit(blinds, sJ, bases.J, bases.JBlind)
	if err != nil {
		return nil, err
	}
	return &Protocol{
		bases:  bases,
		blinds: blinds,
		sPhi:   sPhi,
		sJ:     sJ,
		TPhi:   tPhi.Point,
		TJ:     tJ.Point,
	}, nil
}

// Challenge derives the Fiat-Shamir challenge for the given commitment pair.
// Prover and verifier compute the same value from the same public data.
func (p *Protocol) Challenge(phi, j *bls12377.G1Affine) fr.Element {
	return challenge(p.bases, phi, j, &p.TPhi, &p.TJ)
}

// Respond computes the response scalars for the witness openings. digits is
// the shared digit vector, phiBlind and jBlind the blinding scalars of the
// two commitments.
func (p *Protocol) Respond(digits []fr.Element, phiBlind, jBlind, chal fr.Element) (*Proof, error) {
	if p.done {
		return nil, ErrProtocolConsumed
	}
	if len(digits) != len(p.blinds) {
		return nil, fmt.Errorf("%w: %d blinds, %d digits", commitment.ErrGeneratorMismatch, len(p.blinds), len(digits))
	}
	p.done = true

	resp := make([]fr.Element, len(digits))
	var tmp fr.Element
	for i := range digits {
		// z_i = t_i + c*m_i
		tmp.Mul(&digits[i], &chal)
		resp[i].Add(&p.blinds[i], &tmp)
	}
	var zPhi, zJ fr.Element
	tmp.Mul(&phiBlind, &chal)
	zPhi.Add(&p.sPhi, &tmp)
	tmp.Mul(&jBlind, &chal)
	zJ.Add(&p.sJ, &tmp)

	return &Proof{
		TPhi:     p.TPhi,
		TJ:       p.TJ,
		Responses: resp,
		PhiBlind: zPhi,
		JBlind:   zJ,
	}, nil
}

// Prove runs the full non-interactive protocol for two commitments sharing
// the digit vector. phi and j carry their own blinding scalars.
func Prove(rng io.Reader, digits []fr.Element, phi, j *commitment.Commitment, bases *Bases) (*Proof, error) {
	p, err := Commit(rng, bases)
	if err != nil {
		return nil, err
	}
	chal := p.Challenge(&phi.Point, &j.Point)
	return p.Respond(digits, phi.Blinding, j.Blinding, chal)
}

// Verify checks an equality-of-opening proof against the two commitment
// points. It returns false, never an error, on any rejection: malformed
// proofs are adversarial input, not a caller fault.
func Verify(phi, j *bls12377.G1Affine, proof *Proof, bases *Bases) bool {
	if proof == nil || bases.check() != nil || len(proof.Responses) != len(bases.Phi) {
		return false
	}
	chal := challenge(bases, phi, j, &proof.TPhi, &proof.TJ)
	var negChal fr.Element
	negChal.Neg(&chal)

	// sum z_i*B_i + z*Q - c*C must land back on the blind commitment
	if !checkResponse(bases.Phi, bases.PhiBlind, phi, proof.Responses, proof.PhiBlind, negChal, &proof.TPhi) {
		return false
	}
	return checkResponse(bases.J, bases.JBlind, j, proof.Responses, proof.JBlind, negChal, &proof.TJ)
}

func checkResponse(bases []bls12377.G1Affine, blindBase bls12377.G1Affine, com *bls12377.G1Affine, resp []fr.Element, blind, negChal fr.Element, want *bls12377.G1Affine) bool {
	points := make([]bls12377.G1Affine, 0, len(bases)+2)
	points = append(points, bases...)
	points = append(points, blindBase, *com)
	scalars := make([]fr.Element, 0, len(resp)+2)
	scalars = append(scalars, resp...)
	scalars = append(scalars, blind, negChal)

	var got bls12377.G1Affine
	if _, err := got.MultiExp(points, scalars, ecc.MultiExpConfig{}); err != nil {
		return false
	}
	return got.Equal(want)
}

func challenge(bases *Bases, phi, j, tPhi, tJ *bls12377.G1Affine) fr.Element {
	tr := utils.NewTranscript(transcriptDomain)
	for i := range bases.Phi {
		tr.AppendPoint(&bases.Phi[i])
	}
	tr.AppendPoint(&bases.PhiBlind)
	for i := range bases.J {
		tr.AppendPoint(&bases.J[i])
	}
	tr.AppendPoint(&bases.JBlind)
	tr.AppendPoints(phi, j, tPhi, tJ)
	return tr.Challenge()
}
