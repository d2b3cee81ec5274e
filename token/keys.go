package tokenkit

import (
	"bytes"
	"encoding/pem"

	jwt "github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the minimum byte length accepted for shared-secret
// keys: 256 bits, deliberately stricter than the HMAC minimum so that
// operators reach for properly random secrets.
const MinSecretLength = 32

var pemBoundary = []byte("-----BEGIN ")

// ValidateKeyMaterial checks a key's suitability for the chosen algorithm
// family. Shared-secret algorithms need at least MinSecretLength bytes;
// asymmetric algorithms need PEM-encoded key material. This is advisory
// hardening layered in front of the cryptography library's own parsing.
func ValidateKeyMaterial(key []byte, alg Algorithm) error {
	if len(key) == 0 {
		return NewError(KindInvalidKeyMaterial, "key material is empty")
	}
	if alg.Symmetric() {
		if len(key) < MinSecretLength {
			return Errorf(KindInvalidKeyMaterial,
				"shared secret for %s must be at least %d bytes, got %d", alg, MinSecretLength, len(key))
		}
		return nil
	}
	if !bytes.Contains(key, pemBoundary) {
		return Errorf(KindInvalidKeyMaterial, "%s requires a PEM-encoded key", alg)
	}
	if blk, _ := pem.Decode(key); blk == nil {
		return Errorf(KindInvalidKeyMaterial, "failed to decode PEM block for %s key", alg)
	}
	return nil
}

// signingKey converts caller-supplied key material into the private key
// value the signing method expects.
func signingKey(key []byte, alg Algorithm) (any, error) {
	if alg.Symmetric() {
		return key, nil
	}
	var (
		parsed any
		err    error
	)
	switch {
	case alg == EdDSA:
		parsed, err = jwt.ParseEdPrivateKeyFromPEM(key)
	case alg == ES256 || alg == ES384 || alg == ES512:
		parsed, err = jwt.ParseECPrivateKeyFromPEM(key)
	default:
		parsed, err = jwt.ParseRSAPrivateKeyFromPEM(key)
	}
	if err != nil {
		return nil, Errorf(KindInvalidKeyMaterial, "failed to parse %s private key", alg)
	}
	return parsed, nil
}

// verificationKey converts caller-supplied key material into the public
// key value the verification method expects.
func verificationKey(key []byte, alg Algorithm) (any, error) {
	if alg.Symmetric() {
		return key, nil
	}
	var (
		parsed any
		err    error
	)
	switch {
	case alg == EdDSA:
		parsed, err = jwt.ParseEdPublicKeyFromPEM(key)
	case alg == ES256 || alg == ES384 || alg == ES512:
		parsed, err = jwt.ParseECPublicKeyFromPEM(key)
	default:
		parsed, err = jwt.ParseRSAPublicKeyFromPEM(key)
	}
	if err != nil {
		return nil, Errorf(KindInvalidKeyMaterial, "failed to parse %s public key", alg)
	}
	return parsed, nil
}
