package enterprisekit

import (
	"context"

	tokenkit "github.com/open-rails/trustkit/token"
)

// Registry verifies credentials against enterprise identity providers:
// it builds the provider's trust profile, delegates signature and claim
// validation to the core verifier, then applies the provider's own
// claim consistency checks.
type Registry struct {
	verifier  *tokenkit.Verifier
	providers map[ProviderKind]provider
}

// NewRegistry builds a Registry around the given verifier. The verifier
// must carry a key resolver; enterprise verification is always key-set
// backed.
func NewRegistry(verifier *tokenkit.Verifier) *Registry {
	return &Registry{
		verifier:  verifier,
		providers: buildProviders(),
	}
}

// Profile constructs the trust profile for a provider kind from its
// minimal config. Pure string composition; no network access.
func (r *Registry) Profile(kind ProviderKind, cfg Config) (Profile, error) {
	p, ok := r.providers[kind]
	if !ok {
		return Profile{}, tokenkit.Errorf(tokenkit.KindUnsupportedProvider, "unsupported provider kind %q", kind)
	}
	return p.build(cfg)
}

// ValidateConfig reports, without side effects, everything missing from
// cfg for the given provider kind. An empty slice means the config is
// usable.
func (r *Registry) ValidateConfig(kind ProviderKind, cfg Config) ([]string, error) {
	p, ok := r.providers[kind]
	if !ok {
		return nil, tokenkit.Errorf(tokenkit.KindUnsupportedProvider, "unsupported provider kind %q", kind)
	}
	return p.validate(cfg), nil
}

// Verify validates a credential against a provider's trust profile.
// overrides, when non-nil, replaces individual profile-derived verify
// options (key-set URI, issuer, audience, algorithm pin, tolerance);
// the provider's post-verification checks run regardless.
func (r *Registry) Verify(ctx context.Context, raw string, kind ProviderKind, cfg Config, overrides *tokenkit.VerifyOptions) (tokenkit.Claims, error) {
	p, ok := r.providers[kind]
	if !ok {
		return nil, tokenkit.Errorf(tokenkit.KindUnsupportedProvider, "unsupported provider kind %q", kind)
	}
	profile, err := p.build(cfg)
	if err != nil {
		return nil, err
	}

	opts := tokenkit.VerifyOptions{
		JWKSURI:  profile.KeySetURI,
		Issuer:   profile.Issuer,
		Audience: profile.Audience,
	}
	if len(profile.Algorithms) == 1 {
		opts.Algorithm = profile.Algorithms[0]
	}
	if overrides != nil {
		if len(overrides.Key) > 0 {
			opts.Key = overrides.Key
			opts.JWKSURI = ""
		}
		if overrides.JWKSURI != "" {
			opts.JWKSURI = overrides.JWKSURI
			opts.Key = nil
		}
		if overrides.Algorithm != "" {
			opts.Algorithm = overrides.Algorithm
		}
		if overrides.Issuer != "" {
			opts.Issuer = overrides.Issuer
		}
		if overrides.Audience != "" {
			opts.Audience = overrides.Audience
		}
		if overrides.ClockTolerance > 0 {
			opts.ClockTolerance = overrides.ClockTolerance
		}
	}

	claims, err := r.verifier.Verify(ctx, raw, opts)
	if err != nil {
		return nil, err
	}
	if err := p.postVerify(claims, cfg); err != nil {
		return nil, err
	}
	return claims, nil
}
