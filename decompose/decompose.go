// Package decompose splits a scalar-field message into fixed-radix digits and
// reconstructs it back. The digit sequence is big-endian and its length is
// fixed by configuration, so the same message always produces the same
// canonical decomposition for a given (radix, count) pair.
package decompose

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

var (
	// ErrMessageTooLarge is returned when the message does not fit in the
	// configured number of digits.
	ErrMessageTooLarge = errors.New("decompose: message out of range for radix and digit count")
	// ErrInvalidConfig is returned for a radix below 2 or a non-positive
	// digit count.
	ErrInvalidConfig = errors.New("decompose: invalid radix or digit count")
	// ErrDigitOutOfRange is returned by Reconstruct when a digit is not
	// canonical for the radix.
	ErrDigitOutOfRange = errors.New("decompose: digit out of range")
)

// Count returns the number of radix-b digits needed to represent any element
// of the BLS12-377 scalar field, i.e. the smallest n with radix^n > r-1.
func Count(radix uint64) (int, error) {
	if radix < 2 {
		return 0, fmt.Errorf("%w: radix %d", ErrInvalidConfig, radix)
	}
	max := new(big.Int).Sub(fr.Modulus(), big.NewInt(1))
	b := new(big.Int).SetUint64(radix)
	pow := big.NewInt(1)
	n := 0
	for pow.Cmp(max) <= 0 {
		pow.Mul(pow, b)
		n++
	}
	return n, nil
}

// Decompose splits m into count big-endian digits in the given radix, so that
// digits[0] carries the most significant digit. m = 0 yields an all-zero
// sequence of length count. Fails if m is negative or m >= radix^count.
func Decompose(m *big.Int, radix uint64, count int) ([]uint64, error) {
	if radix < 2 || count < 1 {
		return nil, fmt.Errorf("%w: radix %d, count %d", ErrInvalidConfig, radix, count)
	}
	if m.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative message", ErrMessageTooLarge)
	}
	b := new(big.Int).SetUint64(radix)
	limit := new(big.Int).Exp(b, big.NewInt(int64(count)), nil)
	if m.Cmp(limit) >= 0 {
		return nil, fmt.Errorf("%w: need more than %d digits in radix %d", ErrMessageTooLarge, count, radix)
	}
	digits := make([]uint64, count)
	rest := new(big.Int).Set(m)
	rem := new(big.Int)
	for i := count - 1; i >= 0; i-- {
		rest.QuoRem(rest, b, rem)
		digits[i] = rem.Uint64()
	}
	return digits, nil
}

// Reconstruct evaluates the big-endian digit sequence back to the message it
// encodes: sum(digits[i] * radix^{n-1-i}). Every digit must be canonical,
// out-of-range digits are a hard error rather than being reduced.
func Reconstruct(digits []uint64, radix uint64) (*big.Int, error) {
	if radix < 2 {
		return nil, fmt.Errorf("%w: radix %d", ErrInvalidConfig, radix)
	}
	b := new(big.Int).SetUint64(radix)
	m := new(big.Int)
	for i, d := range digits {
		if d >= radix {
			return nil, fmt.Errorf("%w: digit %d at position %d, radix %d", ErrDigitOutOfRange, d, i, radix)
		}
		m.Mul(m, b)
		m.Add(m, new(big.Int).SetUint64(d))
	}
	return m, nil
}

// Scalars lifts a digit sequence into the scalar field, preserving order.
func Scalars(digits []uint64) []fr.Element {
	out := make([]fr.Element, len(digits))
	for i, d := range digits {
		out[i].SetUint64(d)
	}
	return out
}
