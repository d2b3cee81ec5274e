// Package testing provides utilities for testing applications that use
// trustkit. It provides a mock issuer that serves a JWKS document and
// mints tokens through the engine's own signer, enabling key-set-backed
// verification tests without a real identity provider.
//
// Example usage:
//
//	issuer := testing.NewIssuer()
//	defer issuer.Close()
//
//	claims, err := verifier.Verify(ctx, issuer.CreateToken("user-123"),
//		tokenkit.VerifyOptions{JWKSURI: issuer.KeySetURL()})
package testing

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"

	"github.com/lestrrat-go/jwx/v2/jwk"

	tokenkit "github.com/open-rails/trustkit/token"
)

// Issuer is a mock identity provider: an HTTP server that publishes a
// JWKS at /.well-known/jwks.json and signs tokens that validate against
// it. The signing key is generated fresh per Issuer.
type Issuer struct {
	server   *httptest.Server
	signer   *tokenkit.Signer
	privPEM  []byte
	kid      string
	audience string
	jwksJSON []byte
}

// NewIssuer creates a test issuer with audience "test-app".
// Call Close when done to shut down the server.
func NewIssuer() *Issuer {
	return NewIssuerWithAudience("test-app")
}

// NewIssuerWithAudience creates a test issuer with a specific audience claim.
func NewIssuerWithAudience(audience string) *Issuer {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic("testing: failed to generate RSA key: " + err.Error())
	}

	issuer := &Issuer{
		signer:   tokenkit.NewSigner(),
		kid:      "test-key-1",
		audience: audience,
		privPEM: pem.EncodeToMemory(&pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(priv),
		}),
	}
	issuer.jwksJSON = marshalKeySet(&priv.PublicKey, issuer.kid)

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/jwks.json", issuer.handleJWKS)
	issuer.server = httptest.NewServer(mux)
	return issuer
}

// URL returns the issuer's base URL; minted tokens carry it as iss.
func (i *Issuer) URL() string {
	return i.server.URL
}

// KeySetURL returns the JWKS endpoint URL.
func (i *Issuer) KeySetURL() string {
	return i.server.URL + "/.well-known/jwks.json"
}

// Audience returns the audience written into minted tokens.
func (i *Issuer) Audience() string {
	return i.audience
}

// KeyID returns the kid published in the JWKS.
func (i *Issuer) KeyID() string {
	return i.kid
}

// Close shuts down the issuer's HTTP server.
func (i *Issuer) Close() {
	if i.server != nil {
		i.server.Close()
	}
}

// CreateToken mints a one-hour RS256 token for the given subject.
func (i *Issuer) CreateToken(subject string) string {
	return i.CreateTokenWithClaims(subject, nil)
}

// CreateTokenWithClaims mints a token carrying extra claims on top of
// the standard set (sub, iss, aud, iat, exp).
func (i *Issuer) CreateTokenWithClaims(subject string, extra tokenkit.Claims) string {
	return i.sign(extra, tokenkit.SignOptions{Subject: subject})
}

// CreateTokenExpiringIn mints a token with a caller-chosen lifetime
// expression, e.g. "5m" or "-1h".
func (i *Issuer) CreateTokenExpiringIn(subject, expiresIn string) string {
	return i.sign(nil, tokenkit.SignOptions{Subject: subject, ExpiresIn: expiresIn})
}

// CreateExpiredToken mints a token whose exp is an hour in the past.
// Useful for testing expiration handling.
func (i *Issuer) CreateExpiredToken(subject string) string {
	return i.CreateTokenExpiringIn(subject, "-1h")
}

func (i *Issuer) sign(claims tokenkit.Claims, opts tokenkit.SignOptions) string {
	opts.Key = i.privPEM
	opts.Algorithm = tokenkit.RS256
	opts.KeyID = i.kid
	opts.Issuer = i.URL()
	opts.Audience = i.audience

	token, err := i.signer.Sign(context.Background(), claims, opts)
	if err != nil {
		panic("testing: failed to sign token: " + err.Error())
	}
	return token
}

// handleJWKS serves the key set with a stable ETag so conditional GETs
// short-circuit, the way real providers serve JWKS documents.
func (i *Issuer) handleJWKS(w http.ResponseWriter, r *http.Request) {
	sum := sha256.Sum256(i.jwksJSON)
	etag := `"` + hex.EncodeToString(sum[:]) + `"`

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300, must-revalidate")
	w.Header().Set("ETag", etag)
	_, _ = w.Write(i.jwksJSON)
}

func marshalKeySet(pub *rsa.PublicKey, kid string) []byte {
	key, err := jwk.FromRaw(pub)
	if err != nil {
		panic("testing: failed to build JWK: " + err.Error())
	}
	_ = key.Set(jwk.KeyIDKey, kid)
	_ = key.Set(jwk.AlgorithmKey, "RS256")
	_ = key.Set(jwk.KeyUsageKey, "sig")

	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		panic("testing: failed to assemble key set: " + err.Error())
	}
	b, err := json.Marshal(set)
	if err != nil {
		panic("testing: failed to marshal key set: " + err.Error())
	}
	return b
}
