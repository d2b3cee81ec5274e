package securitykit

import (
	tokenkit "github.com/open-rails/trustkit/token"
)

// AlgorithmAdvice pairs an algorithm with the reasoning behind it.
type AlgorithmAdvice struct {
	Algorithm tokenkit.Algorithm `json:"algorithm"`
	Reasoning string             `json:"reasoning"`
}

var algorithmAdvice = map[string]AlgorithmAdvice{
	"single-service": {
		Algorithm: tokenkit.HS256,
		Reasoning: "One service signs and verifies; a shared secret of 32+ random bytes is simple and fast. Do not reuse the secret across services.",
	},
	"microservices": {
		Algorithm: tokenkit.RS256,
		Reasoning: "Many services verify tokens minted by one issuer; publish the RSA public key via a key set so no service ever holds the signing key.",
	},
	"public-api": {
		Algorithm: tokenkit.RS256,
		Reasoning: "Third-party consumers verify your tokens; RS256 has the broadest library support across ecosystems.",
	},
	"mobile": {
		Algorithm: tokenkit.ES256,
		Reasoning: "ECDSA keys and signatures are small, which keeps tokens short on constrained networks while staying asymmetric.",
	},
	"high-security": {
		Algorithm: tokenkit.EdDSA,
		Reasoning: "Ed25519 offers modern security margins, deterministic signatures, and no parameter foot-guns.",
	},
	"iot": {
		Algorithm: tokenkit.ES256,
		Reasoning: "Smallest asymmetric signatures and cheap verification suit constrained devices.",
	},
}

// RecommendAlgorithm is a static lookup from a use-case tag to the
// algorithm the engine recommends for it, with reasoning. Unknown tags
// fail with KindConfiguration.
func RecommendAlgorithm(useCase string) (AlgorithmAdvice, error) {
	advice, ok := algorithmAdvice[useCase]
	if !ok {
		return AlgorithmAdvice{}, tokenkit.Errorf(tokenkit.KindConfiguration,
			"unknown use case %q (known: single-service, microservices, public-api, mobile, high-security, iot)", useCase)
	}
	return advice, nil
}
