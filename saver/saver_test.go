package saver

import (
	"crypto/rand"
	"math/big"
	"sync"
	"testing"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	qt "github.com/frankban/quicktest"
	"golang.org/x/sync/errgroup"

	"github.com/Shigeo1042/crypto-docnet/commitment"
	"github.com/Shigeo1042/crypto-docnet/decompose"
	"github.com/Shigeo1042/crypto-docnet/equality"
)

// the Groth16 setup over BW6-761 is expensive, so all tests share one key
// set for radix 16, count 3
var (
	testKeysOnce sync.Once
	testKeys     *Keys
	testKeysErr  error
)

func setupTestKeys(t *testing.T) *Keys {
	t.Helper()
	testKeysOnce.Do(func() {
		testKeys, testKeysErr = Setup(rand.Reader, 16, 3)
	})
	if testKeysErr != nil {
		t.Fatal(testKeysErr)
	}
	return testKeys
}

func TestSetupRejectsInvalidConfig(t *testing.T) {
	c := qt.New(t)
	_, err := Setup(rand.Reader, 1, 3)
	c.Assert(err, qt.ErrorIs, decompose.ErrInvalidConfig)
	_, err = Setup(rand.Reader, 16, 0)
	c.Assert(err, qt.ErrorIs, decompose.ErrInvalidConfig)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := qt.New(t)
	keys := setupTestKeys(t)
	msg := big.NewInt(325)

	res, err := Encrypt(rand.Reader, msg, keys.Encryption, keys.Generators, keys.Proving)
	c.Assert(err, qt.IsNil)

	ok, err := VerifyEncryption(&res.Ciphertext, &res.Commitment.Point, res.Proof, keys.Verifying, keys.Encryption, keys.Generators)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	got, err := Decrypt(&res.Ciphertext, keys.Decryption)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Cmp(msg), qt.Equals, 0)
}

func TestEncryptRejectsOverflow(t *testing.T) {
	c := qt.New(t)
	keys := setupTestKeys(t)

	// 16^3 needs four digits
	_, err := Encrypt(rand.Reader, big.NewInt(4096), keys.Encryption, keys.Generators, keys.Proving)
	c.Assert(err, qt.ErrorIs, ErrEncoding)
	c.Assert(err, qt.ErrorIs, decompose.ErrMessageTooLarge)

	// 16^3 - 1 just fits
	res, err := Encrypt(rand.Reader, big.NewInt(4095), keys.Encryption, keys.Generators, keys.Proving)
	c.Assert(err, qt.IsNil)
	got, err := Decrypt(&res.Ciphertext, keys.Decryption)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Int64(), qt.Equals, int64(4095))
}

func TestVerifyRejectsWrongProof(t *testing.T) {
	c := qt.New(t)
	keys := setupTestKeys(t)

	res1, err := Encrypt(rand.Reader, big.NewInt(325), keys.Encryption, keys.Generators, keys.Proving)
	c.Assert(err, qt.IsNil)
	res2, err := Encrypt(rand.Reader, big.NewInt(326), keys.Encryption, keys.Generators, keys.Proving)
	c.Assert(err, qt.IsNil)

	// a well-formed proof for another transcript is cleanly rejected
	ok, err := VerifyEncryption(&res1.Ciphertext, &res1.Commitment.Point, res2.Proof, keys.Verifying, keys.Encryption, keys.Generators)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)
}

func TestVerifyRejectsCorruptedProof(t *testing.T) {
	c := qt.New(t)
	keys := setupTestKeys(t)

	res, err := Encrypt(rand.Reader, big.NewInt(325), keys.Encryption, keys.Generators, keys.Proving)
	c.Assert(err, qt.IsNil)

	corrupted := make(Proof, len(res.Proof))
	copy(corrupted, res.Proof)
	corrupted[len(corrupted)/2] ^= 0x40
	ok, _ := VerifyEncryption(&res.Ciphertext, &res.Commitment.Point, corrupted, keys.Verifying, keys.Encryption, keys.Generators)
	c.Assert(ok, qt.IsFalse)

	_, err = VerifyEncryption(&res.Ciphertext, &res.Commitment.Point, Proof{0x01}, keys.Verifying, keys.Encryption, keys.Generators)
	c.Assert(err, qt.ErrorIs, ErrMalformedProof)
}

func TestVerifyRejectsTamperedCiphertext(t *testing.T) {
	c := qt.New(t)
	keys := setupTestKeys(t)

	res, err := Encrypt(rand.Reader, big.NewInt(325), keys.Encryption, keys.Generators, keys.Proving)
	c.Assert(err, qt.IsNil)

	// swapping two chunks keeps every point well-formed
	tampered := res.Ciphertext
	tampered.C = append([]bls12377.G1Affine(nil), res.Ciphertext.C...)
	tampered.C[0], tampered.C[1] = tampered.C[1], tampered.C[0]
	ok, err := VerifyEncryption(&tampered, &res.Commitment.Point, res.Proof, keys.Verifying, keys.Encryption, keys.Generators)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)

	// a chunk count that disagrees with the key is malformed input
	short := res.Ciphertext
	short.C = res.Ciphertext.C[:2]
	ok, err = VerifyEncryption(&short, &res.Commitment.Point, res.Proof, keys.Verifying, keys.Encryption, keys.Generators)
	c.Assert(err, qt.ErrorIs, commitment.ErrGeneratorMismatch)
	c.Assert(ok, qt.IsFalse)
}

func TestCiphertextBytesRoundTrip(t *testing.T) {
	c := qt.New(t)
	keys := setupTestKeys(t)

	res, err := Encrypt(rand.Reader, big.NewInt(325), keys.Encryption, keys.Generators, keys.Proving)
	c.Assert(err, qt.IsNil)

	data := res.Ciphertext.Bytes()
	var decoded Ciphertext
	c.Assert(decoded.SetBytes(data), qt.IsNil)
	c.Assert(decoded.C0.Equal(&res.Ciphertext.C0), qt.IsTrue)
	c.Assert(len(decoded.C), qt.Equals, len(res.Ciphertext.C))
	for i := range decoded.C {
		c.Assert(decoded.C[i].Equal(&res.Ciphertext.C[i]), qt.IsTrue)
	}

	c.Assert(decoded.SetBytes(data[:len(data)-1]), qt.IsNotNil)
	c.Assert(decoded.SetBytes(nil), qt.IsNotNil)
}

func TestDecryptWrongKey(t *testing.T) {
	c := qt.New(t)
	keys := setupTestKeys(t)

	res, err := Encrypt(rand.Reader, big.NewInt(325), keys.Encryption, keys.Generators, keys.Proving)
	c.Assert(err, qt.IsNil)

	wrong := &DecryptionKey{
		rho:   append([]fr.Element(nil), keys.Decryption.rho...),
		radix: keys.Decryption.radix,
		table: keys.Decryption.table,
	}
	var one fr.Element
	one.SetOne()
	wrong.rho[0].Add(&wrong.rho[0], &one)

	_, err = Decrypt(&res.Ciphertext, wrong)
	c.Assert(err, qt.ErrorIs, ErrDecryption)

	// chunk count mismatch
	short := res.Ciphertext
	short.C = res.Ciphertext.C[:2]
	_, err = Decrypt(&short, keys.Decryption)
	c.Assert(err, qt.ErrorIs, ErrDecryption)
}

func TestEqualityFlow(t *testing.T) {
	c := qt.New(t)
	keys := setupTestKeys(t)
	msg := big.NewInt(325)

	res, err := Encrypt(rand.Reader, msg, keys.Encryption, keys.Generators, keys.Proving)
	c.Assert(err, qt.IsNil)
	j, err := CommitMessage(rand.Reader, msg, keys.Generators)
	c.Assert(err, qt.IsNil)

	digits, err := decompose.Decompose(msg, keys.Generators.Radix, keys.Generators.Count())
	c.Assert(err, qt.IsNil)

	bases := keys.Generators.EqualityBases()
	proof, err := equality.Prove(rand.Reader, decompose.Scalars(digits), &res.Commitment, j, bases)
	c.Assert(err, qt.IsNil)
	c.Assert(equality.Verify(&res.Commitment.Point, &j.Point, proof, bases), qt.IsTrue)

	// a commitment to a different message does not verify against the proof
	otherJ, err := CommitMessage(rand.Reader, big.NewInt(326), keys.Generators)
	c.Assert(err, qt.IsNil)
	c.Assert(equality.Verify(&res.Commitment.Point, &otherJ.Point, proof, bases), qt.IsFalse)
}

func TestConcurrentEncrypt(t *testing.T) {
	c := qt.New(t)
	keys := setupTestKeys(t)

	var g errgroup.Group
	for i := 0; i < 4; i++ {
		msg := big.NewInt(int64(100 + i))
		g.Go(func() error {
			res, err := Encrypt(rand.Reader, msg, keys.Encryption, keys.Generators, keys.Proving)
			if err != nil {
				return err
			}
			ok, err := VerifyEncryption(&res.Ciphertext, &res.Commitment.Point, res.Proof, keys.Verifying, keys.Encryption, keys.Generators)
			if err != nil {
				return err
			}
			if !ok {
				return ErrMalformedProof
			}
			got, err := Decrypt(&res.Ciphertext, keys.Decryption)
			if err != nil {
				return err
			}
			if got.Cmp(msg) != 0 {
				return ErrDecryption
			}
			return nil
		})
	}
	c.Assert(g.Wait(), qt.IsNil)
}
