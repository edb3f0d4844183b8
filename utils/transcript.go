package utils

import (
	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/zeebo/blake3"
)

// Transcript absorbs canonical encodings of group elements and byte strings
// and derives Fiat-Shamir challenges from the accumulated state. Challenges
// are read from a 64-byte BLAKE3 XOF output and wide-reduced into the scalar
// field, so the bias relative to uniform is negligible.
type Transcript struct {
	h *blake3.Hasher
}

// NewTranscript starts a transcript bound to a domain-separation label.
func NewTranscript(domain string) *Transcript {
	t := &Transcript{h: blake3.New()}
	t.AppendBytes([]byte(domain))
	return t
}

// AppendBytes absorbs a length-prefixed byte string.
func (t *Transcript) AppendBytes(b []byte) {
	var lenPrefix [8]byte
	n := uint64(len(b))
	for i := 0; i < 8; i++ {
		lenPrefix[i] = byte(n >> (8 * (7 - i)))
	}
	_, _ = t.h.Write(lenPrefix[:])
	_, _ = t.h.Write(b)
}

// AppendPoint absorbs the compressed encoding of a G1 point.
func (t *Transcript) AppendPoint(p *bls12377.G1Affine) {
	b := p.Bytes()
	t.AppendBytes(b[:])
}

// AppendPoints absorbs a sequence of G1 points in order.
func (t *Transcript) AppendPoints(ps ...*bls12377.G1Affine) {
	for _, p := range ps {
		t.AppendPoint(p)
	}
}

// AppendScalar absorbs the big-endian encoding of a scalar.
func (t *Transcript) AppendScalar(s *fr.Element) {
	b := s.Bytes()
	t.AppendBytes(b[:])
}

// Challenge derives a scalar challenge from everything absorbed so far. The
// transcript remains usable; the challenge itself is absorbed back so later
// challenges depend on earlier ones.
func (t *Transcript) Challenge() fr.Element {
	var wide [64]byte
	_, _ = t.h.Digest().Read(wide[:])
	var c fr.Element
	c.SetBytes(wide[:])
	t.AppendScalar(&c)
	return c
}
