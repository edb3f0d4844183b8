package saver

import (
	"errors"
	"math/big"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/sw_bls12377"
)

// EncryptionCircuit encodes the encryption relation over BW6-761, with the
// BLS12-377 G1 arithmetic expressed natively through sw_bls12377. It proves,
// for the public transcript (C0, C, Phi) and public parameters, knowledge of
// digits and randomness r such that
//
//	each digit is in [0, radix)
//	C0  = r*Gen
//	C_i = r*X_i + m_i*U
//	Phi = sum m_i*Y_i + r*P2
//
// Range checking the digits inside the circuit is what makes the scheme
// verifiable: an encryptor cannot claim a commitment to digits it did not
// actually encrypt.
type EncryptionCircuit struct {
	// witness
	Digits []frontend.Variable
	R      frontend.Variable

	// transcript
	C0  sw_bls12377.G1Affine   `gnark:",public"`
	C   []sw_bls12377.G1Affine `gnark:",public"`
	Phi sw_bls12377.G1Affine   `gnark:",public"`

	// parameters
	Gen sw_bls12377.G1Affine   `gnark:",public"`
	U   sw_bls12377.G1Affine   `gnark:",public"`
	P2  sw_bls12377.G1Affine   `gnark:",public"`
	X   []sw_bls12377.G1Affine `gnark:",public"`
	Y   []sw_bls12377.G1Affine `gnark:",public"`

	radix uint64
}

// newEncryptionCircuit allocates the circuit shape for one (radix, count)
// configuration.
func newEncryptionCircuit(radix uint64, count int) *EncryptionCircuit {
	return &EncryptionCircuit{
		Digits: make([]frontend.Variable, count),
		C:      make([]sw_bls12377.G1Affine, count),
		X:      make([]sw_bls12377.G1Affine, count),
		Y:      make([]sw_bls12377.G1Affine, count),
		radix:  radix,
	}
}

// Define implements frontend.Circuit.
func (c *EncryptionCircuit) Define(api frontend.API) error {
	n := len(c.Digits)
	if len(c.C) != n || len(c.X) != n || len(c.Y) != n {
		return errors.New("circuit shape mismatch")
	}
	maxDigit := new(big.Int).SetUint64(c.radix - 1)

	// C0 = r*Gen
	c0 := new(sw_bls12377.G1Affine).ScalarMul(api, c.Gen, c.R)
	api.AssertIsEqual(c0.X, c.C0.X)
	api.AssertIsEqual(c0.Y, c.C0.Y)

	// Digit scalar multiplications run on the shifted value m_i+1 and the
	// base is subtracted from the running sum afterwards, so no in-circuit
	// scalar is zero and no intermediate sum lands on the point at
	// infinity: every addition mixes the randomness-masked term r*X_i or
	// r*P2 first.
	negU := new(sw_bls12377.G1Affine).Neg(api, c.U)

	phi := new(sw_bls12377.G1Affine).ScalarMul(api, c.P2, c.R)
	for i := 0; i < n; i++ {
		api.AssertIsLessOrEqual(c.Digits[i], maxDigit)
		shifted := api.Add(c.Digits[i], 1)

		// C_i = r*X_i + (m_i+1)*U - U
		ci := new(sw_bls12377.G1Affine).ScalarMul(api, c.X[i], c.R)
		ci.AddAssign(api, *new(sw_bls12377.G1Affine).ScalarMul(api, c.U, shifted))
		ci.AddAssign(api, *negU)
		api.AssertIsEqual(ci.X, c.C[i].X)
		api.AssertIsEqual(ci.Y, c.C[i].Y)

		// Phi += (m_i+1)*Y_i - Y_i
		phi.AddAssign(api, *new(sw_bls12377.G1Affine).ScalarMul(api, c.Y[i], shifted))
		phi.AddAssign(api, *new(sw_bls12377.G1Affine).Neg(api, c.Y[i]))
	}
	api.AssertIsEqual(phi.X, c.Phi.X)
	api.AssertIsEqual(phi.Y, c.Phi.Y)
	return nil
}

// encryptionAssignment builds the full witness assignment for a transcript
// produced by Encrypt.
func encryptionAssignment(gens *GeneratorSet, ek *EncryptionKey, ct *Ciphertext, phi *bls12377.G1Affine, digits []uint64, r *fr.Element) *EncryptionCircuit {
	a := publicAssignment(gens, ek, ct, phi)
	for i, d := range digits {
		a.Digits[i] = d
	}
	a.R = r.BigInt(new(big.Int))
	return a
}

// publicAssignment builds the assignment holding only the public transcript
// and parameters; the witness slots stay zero. Used to derive the public
// witness during verification.
func publicAssignment(gens *GeneratorSet, ek *EncryptionKey, ct *Ciphertext, phi *bls12377.G1Affine) *EncryptionCircuit {
	count := gens.Count()
	a := newEncryptionCircuit(gens.Radix, count)
	for i := range a.Digits {
		a.Digits[i] = 0
	}
	a.R = 0

	_, _, gen, _ := bls12377.Generators()
	a.Gen = sw_bls12377.NewG1Affine(gen)
	a.U = sw_bls12377.NewG1Affine(gens.U)
	a.P2 = sw_bls12377.NewG1Affine(gens.P2)
	for i := 0; i < count; i++ {
		a.X[i] = sw_bls12377.NewG1Affine(ek.X[i])
		a.Y[i] = sw_bls12377.NewG1Affine(gens.Y[i])
	}

	a.C0 = sw_bls12377.NewG1Affine(ct.C0)
	for i := range ct.C {
		a.C[i] = sw_bls12377.NewG1Affine(ct.C[i])
	}
	a.Phi = sw_bls12377.NewG1Affine(*phi)
	return a
}
