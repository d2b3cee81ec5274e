package tokenkit

import (
	"encoding/json"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Claims is the open claim mapping carried by a credential. Reserved
// claims (iss, sub, aud, exp, nbf, iat, jti) keep their registered
// semantics; everything else is free-form extension data.
type Claims map[string]any

// Issuer returns the iss claim, or "" when absent.
func (c Claims) Issuer() string { return c.stringClaim("iss") }

// Subject returns the sub claim, or "" when absent.
func (c Claims) Subject() string { return c.stringClaim("sub") }

// ID returns the jti claim, or "" when absent.
func (c Claims) ID() string { return c.stringClaim("jti") }

// Audience returns the aud claim normalized to a slice. A single string
// audience becomes a one-element slice; an absent claim returns nil.
func (c Claims) Audience() []string {
	switch v := c["aud"].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// ExpiresAt returns the exp claim as a time, and whether it was present.
func (c Claims) ExpiresAt() (time.Time, bool) { return c.timeClaim("exp") }

// IssuedAt returns the iat claim as a time, and whether it was present.
func (c Claims) IssuedAt() (time.Time, bool) { return c.timeClaim("iat") }

// NotBefore returns the nbf claim as a time, and whether it was present.
func (c Claims) NotBefore() (time.Time, bool) { return c.timeClaim("nbf") }

func (c Claims) stringClaim(name string) string {
	s, _ := c[name].(string)
	return s
}

func (c Claims) timeClaim(name string) (time.Time, bool) {
	v, ok := c[name]
	if !ok {
		return time.Time{}, false
	}
	sec, ok := numericValue(v)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(sec, 0), true
}

// numericValue coerces the numeric encodings a temporal claim can arrive
// in (int64 when set locally, float64 or json.Number after decoding).
func numericValue(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

func fromMapClaims(mc jwt.MapClaims) Claims {
	out := make(Claims, len(mc))
	for k, v := range mc {
		out[k] = v
	}
	return out
}
