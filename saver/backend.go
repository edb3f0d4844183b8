package saver

import (
	"bytes"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
)

// Proof is an opaque serialized proof produced by a ProofBackend.
type Proof []byte

// ProofBackend abstracts the proof system consuming the encryption circuit.
// Keys and proofs cross the boundary as opaque bytes, so the circuit adapter
// stays agnostic of the backend's key and proof types. Implementations must
// be stateless and safe for concurrent use.
type ProofBackend interface {
	// Setup generates the proving and verifying key material for a
	// compiled constraint system.
	Setup(cs constraint.ConstraintSystem) (pk, vk []byte, err error)
	// Prove builds the witness from the assignment and produces a proof.
	Prove(cs constraint.ConstraintSystem, pk []byte, assignment frontend.Circuit) (Proof, error)
	// Verify checks the proof against the public part of the assignment.
	// It returns ErrProofRejected (wrapped) for a well-formed proof that
	// fails, and ErrMalformedProof for bytes that do not parse.
	Verify(vk []byte, proof Proof, public frontend.Circuit) error
}

// Groth16 is the default backend: Groth16 over BW6-761, matching the
// EncryptionCircuit's field.
type Groth16 struct{}

var _ ProofBackend = Groth16{}

// Setup implements ProofBackend.
func (Groth16) Setup(cs constraint.ConstraintSystem) ([]byte, []byte, error) {
	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return nil, nil, err
	}
	var pkBuf, vkBuf bytes.Buffer
	if _, err := pk.WriteTo(&pkBuf); err != nil {
		return nil, nil, err
	}
	if _, err := vk.WriteTo(&vkBuf); err != nil {
		return nil, nil, err
	}
	return pkBuf.Bytes(), vkBuf.Bytes(), nil
}

// Prove implements ProofBackend.
func (Groth16) Prove(cs constraint.ConstraintSystem, pk []byte, assignment frontend.Circuit) (Proof, error) {
	key := groth16.NewProvingKey(ecc.BW6_761)
	if _, err := key.ReadFrom(bytes.NewReader(pk)); err != nil {
		return nil, fmt.Errorf("groth16: reading proving key: %w", err)
	}
	w, err := frontend.NewWitness(assignment, ecc.BW6_761.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("groth16: building witness: %w", err)
	}
	proof, err := groth16.Prove(cs, key, w)
	if err != nil {
		return nil, fmt.Errorf("groth16: proving: %w", err)
	}
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Verify implements ProofBackend.
func (Groth16) Verify(vk []byte, proof Proof, public frontend.Circuit) error {
	key := groth16.NewVerifyingKey(ecc.BW6_761)
	if _, err := key.ReadFrom(bytes.NewReader(vk)); err != nil {
		return fmt.Errorf("groth16: reading verifying key: %w", err)
	}
	p := groth16.NewProof(ecc.BW6_761)
	if _, err := p.ReadFrom(bytes.NewReader(proof)); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	w, err := frontend.NewWitness(public, ecc.BW6_761.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("groth16: building public witness: %w", err)
	}
	if err := groth16.Verify(p, key, w); err != nil {
		return fmt.Errorf("%w: %v", ErrProofRejected, err)
	}
	return nil
}
