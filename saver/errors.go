package saver

import "errors"

var (
	// ErrEncoding is returned when a message cannot be encoded for
	// encryption, typically because its decomposition fails. The underlying
	// cause is wrapped; retrying with the same inputs will not help.
	ErrEncoding = errors.New("saver: message encoding failed")

	// ErrDecryption is returned when a recovered chunk falls outside the
	// digit range, which signals a wrong key or a corrupted ciphertext. It
	// is never conflated with a successful-but-wrong decryption.
	ErrDecryption = errors.New("saver: recovered value outside digit range")

	// ErrMalformedProof is returned when proof bytes cannot be parsed at
	// all, as opposed to parsing fine and failing verification.
	ErrMalformedProof = errors.New("saver: malformed proof")

	// ErrProofRejected is the backend's signal that a well-formed proof
	// failed verification. VerifyEncryption translates it to a false
	// result rather than an error.
	ErrProofRejected = errors.New("saver: proof rejected")
)
