package tokenkit

import (
	"sort"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Algorithm identifies a JWS signing algorithm accepted by the engine.
type Algorithm string

const (
	HS256 Algorithm = "HS256"
	HS384 Algorithm = "HS384"
	HS512 Algorithm = "HS512"
	RS256 Algorithm = "RS256"
	RS384 Algorithm = "RS384"
	RS512 Algorithm = "RS512"
	ES256 Algorithm = "ES256"
	ES384 Algorithm = "ES384"
	ES512 Algorithm = "ES512"
	EdDSA Algorithm = "EdDSA"
)

// algNone is the unsigned algorithm. It is rejected everywhere and is
// deliberately not an exported Algorithm constant.
const algNone = "none"

// Symmetric reports whether the algorithm uses a shared secret.
func (a Algorithm) Symmetric() bool {
	return strings.HasPrefix(string(a), "HS")
}

// ParseAlgorithm normalizes an algorithm string to an Algorithm.
// The unsigned algorithm and anything outside the fixed set fail with
// KindInsecureAlgorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	if strings.EqualFold(s, "EdDSA") {
		return EdDSA, nil
	}
	switch Algorithm(strings.ToUpper(s)) {
	case HS256, HS384, HS512, RS256, RS384, RS512, ES256, ES384, ES512:
		return Algorithm(strings.ToUpper(s)), nil
	}
	return "", Errorf(KindInsecureAlgorithm, "unsupported algorithm %q", s)
}

// AlgorithmPolicy is a static allow-list of signing algorithms. The
// unsigned algorithm can never be a member: both constructors drop it.
type AlgorithmPolicy struct {
	allowed map[Algorithm]struct{}
}

// NewAlgorithmPolicy builds a policy allowing exactly the given algorithms.
// Entries equal to the unsigned algorithm are silently discarded.
func NewAlgorithmPolicy(algs ...Algorithm) *AlgorithmPolicy {
	p := &AlgorithmPolicy{allowed: make(map[Algorithm]struct{}, len(algs))}
	for _, a := range algs {
		if strings.EqualFold(string(a), algNone) {
			continue
		}
		p.allowed[a] = struct{}{}
	}
	return p
}

// DefaultAlgorithmPolicy allows the full fixed set: the HMAC, RSA, ECDSA,
// and EdDSA families. Whether HS256 is a good idea is a policy question
// for the security evaluator, not a protocol one.
func DefaultAlgorithmPolicy() *AlgorithmPolicy {
	return NewAlgorithmPolicy(
		HS256, HS384, HS512,
		RS256, RS384, RS512,
		ES256, ES384, ES512,
		EdDSA,
	)
}

// IsAllowed reports whether the algorithm is on the allow-list.
func (p *AlgorithmPolicy) IsAllowed(alg Algorithm) bool {
	_, ok := p.allowed[alg]
	return ok
}

// Allowed returns the allow-list in stable order.
func (p *AlgorithmPolicy) Allowed() []Algorithm {
	out := make([]Algorithm, 0, len(p.allowed))
	for a := range p.allowed {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p *AlgorithmPolicy) allowedStrings() []string {
	algs := p.Allowed()
	out := make([]string, len(algs))
	for i, a := range algs {
		out[i] = string(a)
	}
	return out
}

// signingMethod maps an Algorithm to the cryptography collaborator's
// implementation. Algorithms pass the allow-list before reaching here.
func signingMethod(alg Algorithm) (jwt.SigningMethod, error) {
	method := jwt.GetSigningMethod(string(alg))
	if method == nil {
		return nil, Errorf(KindInsecureAlgorithm, "unsupported algorithm %q", alg)
	}
	return method, nil
}
