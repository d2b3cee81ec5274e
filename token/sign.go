package tokenkit

import (
	"context"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultExpiry is applied when SignOptions carries no ExpiresIn.
// Expiration is structural: there is no way to mint a credential
// without an exp claim.
const DefaultExpiry = time.Hour

// SignOptions configures a single signing call. Key is either the shared
// secret (HMAC family) or a PEM-encoded private key (asymmetric families).
type SignOptions struct {
	Key       []byte
	Algorithm Algorithm

	// ExpiresIn and NotBefore are relative time expressions understood by
	// ParseExpiry ("3600", "15m", "2d", "1w"). ExpiresIn defaults to one
	// hour when empty.
	ExpiresIn string
	NotBefore string

	Issuer   string
	Subject  string
	Audience string

	// JTI sets the jti claim verbatim; GenerateJTI mints a random UUID
	// instead. JTI wins when both are set.
	JTI         string
	GenerateJTI bool

	// KeyID is written to the header so verifiers can select the matching
	// key-set entry.
	KeyID string
}

// Signer assembles claims and produces signed credentials. The zero-value
// configuration uses the default algorithm allow-list.
type Signer struct {
	policy *AlgorithmPolicy
}

// SignerOpt configures a Signer.
type SignerOpt func(*Signer)

// WithSignerPolicy replaces the signer's algorithm allow-list.
func WithSignerPolicy(p *AlgorithmPolicy) SignerOpt {
	return func(s *Signer) { s.policy = p }
}

// NewSigner builds a Signer.
func NewSigner(opts ...SignerOpt) *Signer {
	s := &Signer{policy: DefaultAlgorithmPolicy()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign produces a signed credential carrying the given claims plus the
// temporal claims derived from opts. iat is always the current time and
// exp is always present. The algorithm and key material are checked
// before any cryptographic work happens.
func (s *Signer) Sign(_ context.Context, claims Claims, opts SignOptions) (string, error) {
	if opts.Algorithm == "" || !s.policy.IsAllowed(opts.Algorithm) {
		return "", Errorf(KindInsecureAlgorithm, "algorithm %q is not allowed for signing", opts.Algorithm)
	}
	if err := ValidateKeyMaterial(opts.Key, opts.Algorithm); err != nil {
		return "", err
	}

	now := time.Now()
	expiresIn := DefaultExpiry
	if opts.ExpiresIn != "" {
		d, err := ParseExpiry(opts.ExpiresIn)
		if err != nil {
			return "", err
		}
		expiresIn = d
	}

	mc := make(jwt.MapClaims, len(claims)+6)
	for k, v := range claims {
		mc[k] = v
	}
	mc["iat"] = now.Unix()
	mc["exp"] = now.Add(expiresIn).Unix()
	if opts.NotBefore != "" {
		d, err := ParseExpiry(opts.NotBefore)
		if err != nil {
			return "", err
		}
		mc["nbf"] = now.Add(d).Unix()
	}
	if opts.Issuer != "" {
		mc["iss"] = opts.Issuer
	}
	if opts.Subject != "" {
		mc["sub"] = opts.Subject
	}
	if opts.Audience != "" {
		mc["aud"] = opts.Audience
	}
	if opts.JTI != "" {
		mc["jti"] = opts.JTI
	} else if opts.GenerateJTI {
		mc["jti"] = uuid.NewString()
	}

	method, err := signingMethod(opts.Algorithm)
	if err != nil {
		return "", err
	}
	key, err := signingKey(opts.Key, opts.Algorithm)
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(method, mc)
	if opts.KeyID != "" {
		token.Header["kid"] = opts.KeyID
	}
	signed, err := token.SignedString(key)
	if err != nil {
		return "", WrapError(err, KindSigningFailure, "failed to sign credential")
	}
	return signed, nil
}
