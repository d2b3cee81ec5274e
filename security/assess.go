package securitykit

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tokenkit "github.com/open-rails/trustkit/token"
)

// Assessment is the derived security posture of a decoded credential.
// Violations are hard policy breaches, warnings are soft signals, and
// recommendations are remediation hints. Identical input always yields
// an identical Assessment.
type Assessment struct {
	Score           int      `json:"score"`
	Violations      []string `json:"violations"`
	Warnings        []string `json:"warnings"`
	Recommendations []string `json:"recommendations"`
}

const (
	violationPenalty = 15
	warningPenalty   = 5

	maxStringClaimLength = 1000
	longLifetime         = 365 * 24 * time.Hour
)

// sensitiveClaimPatterns are matched case-insensitively as substrings of
// claim names. A hit is a warning, not a violation: the claim may be a
// harmless reference rather than the secret itself.
var sensitiveClaimPatterns = []string{
	"password", "secret", "key", "token", "credential", "ssn", "credit_card",
}

// Assess scores decoded claims against the policy. Verification outcome
// is deliberately not an input: an expired token with a sane shape can
// score well, and a valid token can still be a policy disaster.
func Assess(claims tokenkit.Claims, alg tokenkit.Algorithm, policy Policy) Assessment {
	a := Assessment{}
	now := time.Now()

	for _, name := range policy.RequiredClaims {
		if _, ok := claims[name]; !ok {
			a.Violations = append(a.Violations, fmt.Sprintf("Missing required claim: %s", name))
		}
	}

	for _, forbidden := range policy.ForbiddenAlgorithms {
		if alg == forbidden {
			a.Violations = append(a.Violations, fmt.Sprintf("Forbidden algorithm: %s", alg))
			break
		}
	}

	iat, hasIAT := claims.IssuedAt()
	exp, hasEXP := claims.ExpiresAt()

	if hasIAT && policy.MaxTokenAge > 0 && now.Sub(iat) > policy.MaxTokenAge {
		a.Violations = append(a.Violations, fmt.Sprintf("Token age exceeds maximum of %s", policy.MaxTokenAge))
	}
	if !hasEXP {
		a.Violations = append(a.Violations, "Missing expiration (exp) claim")
	}
	if hasIAT && hasEXP && policy.MaxTokenAge > 0 && exp.Sub(iat) > policy.MaxTokenAge {
		a.Violations = append(a.Violations, fmt.Sprintf("Token lifetime exceeds maximum of %s", policy.MaxTokenAge))
	}

	issuer := claims.Issuer()
	if len(policy.AllowedIssuers) > 0 && !containsString(policy.AllowedIssuers, issuer) {
		a.Violations = append(a.Violations, fmt.Sprintf("Issuer not in allow-list: %s", issuer))
	}
	if len(policy.AllowedAudiences) > 0 && !intersects(policy.AllowedAudiences, claims.Audience()) {
		a.Violations = append(a.Violations, "Audience not in allow-list")
	}
	if policy.RequireHTTPSIssuer && issuer != "" && !strings.HasPrefix(issuer, "https://") {
		a.Violations = append(a.Violations, fmt.Sprintf("Issuer is not served over HTTPS: %s", issuer))
	}

	a.Warnings = append(a.Warnings, collectWarnings(claims, iat, exp, hasIAT, hasEXP)...)
	a.Recommendations = append(a.Recommendations, collectRecommendations(claims, alg, iat, exp, hasIAT, hasEXP, policy)...)

	a.Score = 100 - violationPenalty*len(a.Violations) - warningPenalty*len(a.Warnings)
	if a.Score < 0 {
		a.Score = 0
	}
	return a
}

func collectWarnings(claims tokenkit.Claims, iat, exp time.Time, hasIAT, hasEXP bool) []string {
	var warnings []string

	if hasIAT && hasEXP && exp.Sub(iat) > longLifetime {
		warnings = append(warnings, "Token lifetime exceeds one year")
	}
	if claims.Subject() == "" {
		warnings = append(warnings, "Missing subject (sub) claim")
	}
	if claims.Issuer() == "" {
		warnings = append(warnings, "Missing issuer (iss) claim")
	}

	// Stable iteration so identical claims always produce identical output.
	for _, name := range sortedClaimNames(claims) {
		lower := strings.ToLower(name)
		for _, pattern := range sensitiveClaimPatterns {
			if strings.Contains(lower, pattern) {
				warnings = append(warnings, fmt.Sprintf("Claim name %q may contain sensitive data", name))
				break
			}
		}
		if s, ok := claims[name].(string); ok && len(s) > maxStringClaimLength {
			warnings = append(warnings, fmt.Sprintf("Claim %q value exceeds %d characters", name, maxStringClaimLength))
		}
	}
	return warnings
}

func collectRecommendations(claims tokenkit.Claims, alg tokenkit.Algorithm, iat, exp time.Time, hasIAT, hasEXP bool, policy Policy) []string {
	var recs []string
	if alg.Symmetric() {
		recs = append(recs, "Use an asymmetric algorithm (RS256 or ES256) so consumers can verify tokens without holding the signing secret")
	}
	if claims.Issuer() == "" {
		recs = append(recs, "Add an iss claim so consumers can pin the token's origin")
	}
	if len(claims.Audience()) == 0 {
		recs = append(recs, "Add an aud claim so tokens cannot be replayed against other services")
	}
	if hasIAT && hasEXP && policy.MaxTokenAge > 0 && exp.Sub(iat) > policy.MaxTokenAge {
		recs = append(recs, fmt.Sprintf("Shorten the token lifetime to at most %s", policy.MaxTokenAge))
	}
	return recs
}

func sortedClaimNames(claims tokenkit.Claims) []string {
	names := make([]string, 0, len(claims))
	for name := range claims {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func intersects(allowed, actual []string) bool {
	for _, a := range actual {
		if containsString(allowed, a) {
			return true
		}
	}
	return false
}
