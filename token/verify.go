package tokenkit

import (
	"context"
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// KeyResolver resolves a verification key from a remote key set. The
// jwks package provides the caching implementation; the verifier only
// depends on this interface.
type KeyResolver interface {
	ResolveKey(ctx context.Context, uri, kid string) (any, error)
}

// VerifyOptions configures a single verification call. Exactly one of
// Key or JWKSURI must be set: Key verifies against static material,
// JWKSURI resolves the key through the verifier's KeyResolver using the
// credential's kid header.
type VerifyOptions struct {
	Key     []byte
	JWKSURI string

	// Algorithm pins the expected header algorithm. A mismatch fails with
	// KindInvalidSignature, closing the algorithm-substitution hole where
	// an RSA public key doubles as an HMAC secret.
	Algorithm Algorithm

	// Issuer and Audience, when set, must match the corresponding claims.
	Issuer   string
	Audience string

	// ClockTolerance is the leeway applied to exp and nbf comparisons,
	// always in the token's favor.
	ClockTolerance time.Duration
}

// Verifier validates credentials: signature, temporal claims, issuer and
// audience, and algorithm policy, in that order.
type Verifier struct {
	policy *AlgorithmPolicy
	keys   KeyResolver
}

// VerifierOpt configures a Verifier.
type VerifierOpt func(*Verifier)

// WithKeyResolver wires the remote key-set resolver used for JWKSURI
// verification.
func WithKeyResolver(r KeyResolver) VerifierOpt {
	return func(v *Verifier) { v.keys = r }
}

// WithVerifierPolicy replaces the verifier's algorithm allow-list.
func WithVerifierPolicy(p *AlgorithmPolicy) VerifierOpt {
	return func(v *Verifier) { v.policy = p }
}

// NewVerifier builds a Verifier. Without WithKeyResolver it can only
// verify against static keys.
func NewVerifier(opts ...VerifierOpt) *Verifier {
	v := &Verifier{policy: DefaultAlgorithmPolicy()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify validates the credential and returns its claims. Failures are
// always typed: expired tokens, bad signatures, and claim mismatches are
// distinguishable so callers can tell "wrong key" from "right key, bad
// claims".
func (v *Verifier) Verify(ctx context.Context, raw string, opts VerifyOptions) (Claims, error) {
	if (len(opts.Key) > 0) == (opts.JWKSURI != "") {
		return nil, NewError(KindConfiguration, "exactly one of key or key-set URI must be provided")
	}
	if opts.JWKSURI != "" && v.keys == nil {
		return nil, NewError(KindConfiguration, "key-set verification requires a key resolver")
	}

	// Reject off-list algorithms before any key material is touched.
	header, err := decodeHeader(raw)
	if err != nil {
		return nil, err
	}
	alg, _ := header["alg"].(string)
	if !v.policy.IsAllowed(Algorithm(alg)) {
		return nil, Errorf(KindInsecureAlgorithm, "algorithm %q is not allowed for verification", alg)
	}

	valid := v.policy.allowedStrings()
	if opts.Algorithm != "" {
		if Algorithm(alg) != opts.Algorithm {
			return nil, Errorf(KindInvalidSignature,
				"credential algorithm %q does not match expected %q", alg, opts.Algorithm)
		}
		valid = []string{string(opts.Algorithm)}
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods(valid),
		jwt.WithExpirationRequired(),
	}
	if opts.ClockTolerance > 0 {
		parserOpts = append(parserOpts, jwt.WithLeeway(opts.ClockTolerance))
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}
	if opts.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(opts.Audience))
	}

	token, err := jwt.NewParser(parserOpts...).Parse(raw, func(t *jwt.Token) (any, error) {
		if opts.JWKSURI != "" {
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, NewError(KindInvalidToken, "credential header has no kid for key-set lookup")
			}
			return v.keys.ResolveKey(ctx, opts.JWKSURI, kid)
		}
		return verificationKey(opts.Key, Algorithm(t.Method.Alg()))
	})
	if err != nil {
		return nil, classifyVerifyError(err)
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, NewError(KindInvalidToken, "credential claims are invalid")
	}
	return fromMapClaims(mc), nil
}

// Decoded is the unverified view of a credential.
type Decoded struct {
	Header Claims
	Claims Claims
}

// Decode parses a credential's header and claims WITHOUT verifying the
// signature or any claim. It fails only on structural malformation and
// must never be used as a substitute for Verify.
func Decode(raw string) (Decoded, error) {
	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return Decoded{}, WrapError(err, KindInvalidToken, "credential is malformed")
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Decoded{}, NewError(KindInvalidToken, "credential claims are malformed")
	}
	return Decoded{
		Header: Claims(token.Header),
		Claims: fromMapClaims(mc),
	}, nil
}

func decodeHeader(raw string) (map[string]any, error) {
	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, WrapError(err, KindInvalidToken, "credential is malformed")
	}
	return token.Header, nil
}

// classifyVerifyError maps the cryptography collaborator's sentinel
// errors onto the closed taxonomy. Engine errors raised inside the
// keyfunc (resolver failures, key material problems) pass through
// unchanged.
func classifyVerifyError(err error) error {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr
	}
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return WrapError(err, KindTokenExpired, "credential has expired")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return WrapError(err, KindInvalidSignature, "credential signature is invalid")
	case errors.Is(err, jwt.ErrTokenMalformed):
		return WrapError(err, KindInvalidToken, "credential is malformed")
	case errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return WrapError(err, KindInvalidToken, "credential is not yet valid")
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return WrapError(err, KindInvalidToken, "credential issuer mismatch")
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return WrapError(err, KindInvalidToken, "credential audience mismatch")
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return WrapError(err, KindInvalidToken, "credential is missing a required claim")
	default:
		return WrapError(err, KindInvalidToken, "credential validation failed")
	}
}
