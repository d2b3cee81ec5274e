package securitykit

import (
	"time"

	tokenkit "github.com/open-rails/trustkit/token"
)

// Policy is a configurable set of thresholds used to score a credential's
// security posture. It is advisory: a policy violation says "don't ship
// this", not "the signature is wrong". The protocol-level algorithm
// allow-list lives in tokenkit and is a separate, harder gate.
type Policy struct {
	// MaxTokenAge bounds both now-iat and exp-iat.
	MaxTokenAge time.Duration

	// RequiredClaims must all be present.
	RequiredClaims []string

	// ForbiddenAlgorithms are flagged even though the protocol layer may
	// still accept them.
	ForbiddenAlgorithms []tokenkit.Algorithm

	// MinimumKeyLength is the operator guidance for shared-secret sizing,
	// in bytes.
	MinimumKeyLength int

	// RequireHTTPSIssuer flags issuers served over anything but https.
	RequireHTTPSIssuer bool

	// AllowedIssuers and AllowedAudiences, when non-empty, are allow-lists.
	AllowedIssuers   []string
	AllowedAudiences []string

	// MaxClockTolerance is the operator guidance for verification leeway.
	MaxClockTolerance time.Duration
}

// DefaultPolicy is the strict production posture: symmetric HS256 is
// flagged (asymmetric algorithms let services verify without sharing the
// signing secret), tokens must identify a subject and expire within a day.
func DefaultPolicy() Policy {
	return Policy{
		MaxTokenAge:         24 * time.Hour,
		RequiredClaims:      []string{"sub", "iat", "exp"},
		ForbiddenAlgorithms: []tokenkit.Algorithm{tokenkit.HS256},
		MinimumKeyLength:    32,
		RequireHTTPSIssuer:  true,
		MaxClockTolerance:   5 * time.Minute,
	}
}

// DevelopmentPolicy is the relaxed variant for local work: longer
// lifetimes, HS256 tolerated, plain-http issuers allowed.
func DevelopmentPolicy() Policy {
	return Policy{
		MaxTokenAge:       7 * 24 * time.Hour,
		RequiredClaims:    []string{"exp"},
		MinimumKeyLength:  16,
		MaxClockTolerance: 10 * time.Minute,
	}
}
