package tokenkit

import (
	"context"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func hs256Token(t *testing.T, claims Claims, opts SignOptions) string {
	t.Helper()
	opts.Key = testSecret
	opts.Algorithm = HS256
	token, err := NewSigner().Sign(context.Background(), claims, opts)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	return token
}

func TestVerifyRoundTrip(t *testing.T) {
	token := hs256Token(t, Claims{"role": "admin"}, SignOptions{Subject: "user-1"})

	claims, err := NewVerifier().Verify(context.Background(), token, VerifyOptions{Key: testSecret})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Subject() != "user-1" {
		t.Errorf("sub = %q, want user-1", claims.Subject())
	}
	if role, _ := claims["role"].(string); role != "admin" {
		t.Errorf("role = %q, want admin", role)
	}
}

func TestVerifyWrongKey(t *testing.T) {
	token := hs256Token(t, nil, SignOptions{})

	wrongSecret := []byte("ffffffffffffffffffffffffffffffff")
	_, err := NewVerifier().Verify(context.Background(), token, VerifyOptions{Key: wrongSecret})
	if !IsKind(err, KindInvalidSignature) {
		t.Errorf("kind = %q, want %q", KindOf(err), KindInvalidSignature)
	}
}

// A token that is both expired and signed with the wrong key must fail
// on the signature, never on the claims: a holder of a bad signature
// learns nothing about the claims inside.
func TestVerifyWrongKeyBeatsExpiry(t *testing.T) {
	token := hs256Token(t, nil, SignOptions{ExpiresIn: "-1h"})

	wrongSecret := []byte("ffffffffffffffffffffffffffffffff")
	_, err := NewVerifier().Verify(context.Background(), token, VerifyOptions{Key: wrongSecret})
	if !IsKind(err, KindInvalidSignature) {
		t.Errorf("kind = %q, want %q", KindOf(err), KindInvalidSignature)
	}
}

func TestVerifyExpired(t *testing.T) {
	token := hs256Token(t, nil, SignOptions{ExpiresIn: "-1"})

	_, err := NewVerifier().Verify(context.Background(), token, VerifyOptions{Key: testSecret})
	if !IsKind(err, KindTokenExpired) {
		t.Errorf("kind = %q, want %q", KindOf(err), KindTokenExpired)
	}
}

func TestVerifyClockTolerance(t *testing.T) {
	token := hs256Token(t, nil, SignOptions{ExpiresIn: "-1"})

	// exp is one second in the past; a one-minute leeway covers it.
	_, err := NewVerifier().Verify(context.Background(), token, VerifyOptions{
		Key:            testSecret,
		ClockTolerance: time.Minute,
	})
	if err != nil {
		t.Errorf("Verify with tolerance failed: %v", err)
	}
}

func TestVerifyNotYetValid(t *testing.T) {
	token := hs256Token(t, nil, SignOptions{NotBefore: "1h"})

	_, err := NewVerifier().Verify(context.Background(), token, VerifyOptions{Key: testSecret})
	if !IsKind(err, KindInvalidToken) {
		t.Errorf("kind = %q, want %q", KindOf(err), KindInvalidToken)
	}
}

func TestVerifyIssuerAndAudience(t *testing.T) {
	token := hs256Token(t, nil, SignOptions{
		Issuer:   "https://issuer.example.com",
		Audience: "api",
	})
	verifier := NewVerifier()

	_, err := verifier.Verify(context.Background(), token, VerifyOptions{
		Key:      testSecret,
		Issuer:   "https://issuer.example.com",
		Audience: "api",
	})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	_, err = verifier.Verify(context.Background(), token, VerifyOptions{
		Key:    testSecret,
		Issuer: "https://other.example.com",
	})
	if !IsKind(err, KindInvalidToken) {
		t.Errorf("issuer mismatch kind = %q, want %q", KindOf(err), KindInvalidToken)
	}

	_, err = verifier.Verify(context.Background(), token, VerifyOptions{
		Key:      testSecret,
		Audience: "other-api",
	})
	if !IsKind(err, KindInvalidToken) {
		t.Errorf("audience mismatch kind = %q, want %q", KindOf(err), KindInvalidToken)
	}
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "attacker",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build unsigned token: %v", err)
	}

	_, err = NewVerifier().Verify(context.Background(), raw, VerifyOptions{Key: testSecret})
	if !IsKind(err, KindInsecureAlgorithm) {
		t.Errorf("kind = %q, want %q", KindOf(err), KindInsecureAlgorithm)
	}
}

func TestVerifyRequiresExactlyOneKeySource(t *testing.T) {
	verifier := NewVerifier()
	token := hs256Token(t, nil, SignOptions{})

	_, err := verifier.Verify(context.Background(), token, VerifyOptions{})
	if !IsKind(err, KindConfiguration) {
		t.Errorf("neither source: kind = %q, want %q", KindOf(err), KindConfiguration)
	}

	_, err = verifier.Verify(context.Background(), token, VerifyOptions{
		Key:     testSecret,
		JWKSURI: "https://issuer.example.com/.well-known/jwks.json",
	})
	if !IsKind(err, KindConfiguration) {
		t.Errorf("both sources: kind = %q, want %q", KindOf(err), KindConfiguration)
	}
}

func TestVerifyKeySetWithoutResolver(t *testing.T) {
	token := hs256Token(t, nil, SignOptions{})
	_, err := NewVerifier().Verify(context.Background(), token, VerifyOptions{
		JWKSURI: "https://issuer.example.com/.well-known/jwks.json",
	})
	if !IsKind(err, KindConfiguration) {
		t.Errorf("kind = %q, want %q", KindOf(err), KindConfiguration)
	}
}

func TestVerifyAlgorithmPinMismatch(t *testing.T) {
	token := hs256Token(t, nil, SignOptions{})
	_, err := NewVerifier().Verify(context.Background(), token, VerifyOptions{
		Key:       testSecret,
		Algorithm: RS256,
	})
	if !IsKind(err, KindInvalidSignature) {
		t.Errorf("kind = %q, want %q", KindOf(err), KindInvalidSignature)
	}
}

func TestVerifyPolicyRejectsOffListAlgorithm(t *testing.T) {
	token := hs256Token(t, nil, SignOptions{})
	verifier := NewVerifier(WithVerifierPolicy(NewAlgorithmPolicy(RS256, ES256)))
	_, err := verifier.Verify(context.Background(), token, VerifyOptions{Key: testSecret})
	if !IsKind(err, KindInsecureAlgorithm) {
		t.Errorf("kind = %q, want %q", KindOf(err), KindInsecureAlgorithm)
	}
}

func TestDecode(t *testing.T) {
	token := hs256Token(t, Claims{"role": "viewer"}, SignOptions{Subject: "user-9"})

	decoded, err := Decode(token)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if alg, _ := decoded.Header["alg"].(string); alg != "HS256" {
		t.Errorf("header alg = %q, want HS256", alg)
	}
	if decoded.Claims.Subject() != "user-9" {
		t.Errorf("sub = %q, want user-9", decoded.Claims.Subject())
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "not-a-token", "a.b", strings.Repeat("x", 100)} {
		_, err := Decode(raw)
		if !IsKind(err, KindInvalidToken) {
			t.Errorf("Decode(%q) kind = %q, want %q", raw, KindOf(err), KindInvalidToken)
		}
	}
}

func TestDecodeDoesNotVerify(t *testing.T) {
	token := hs256Token(t, nil, SignOptions{ExpiresIn: "-1h", Subject: "user-4"})

	// Tampered signature still decodes; Decode is structural only.
	tampered := token[:len(token)-2] + "xx"
	decoded, err := Decode(tampered)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Claims.Subject() != "user-4" {
		t.Errorf("sub = %q, want user-4", decoded.Claims.Subject())
	}
}
