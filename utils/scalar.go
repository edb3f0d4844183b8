package utils

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// RandomScalar samples a uniform scalar from the given source. The source
// must be cryptographically secure; callers normally pass crypto/rand.Reader
// or a per-call reader of their own.
func RandomScalar(rng io.Reader) (fr.Element, error) {
	var s fr.Element
	n, err := rand.Int(rng, fr.Modulus())
	if err != nil {
		return s, fmt.Errorf("utils: scalar sampling failed: %w", err)
	}
	s.SetBigInt(n)
	return s, nil
}

// RandomScalars samples count independent uniform scalars.
func RandomScalars(rng io.Reader, count int) ([]fr.Element, error) {
	out := make([]fr.Element, count)
	for i := range out {
		s, err := RandomScalar(rng)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}
