package enterprisekit

import (
	"fmt"
	"strings"

	tokenkit "github.com/open-rails/trustkit/token"
)

// provider is one identity-provider family: endpoint construction,
// config validation, and the claim consistency checks applied after the
// core verifier has accepted the credential.
type provider interface {
	build(cfg Config) (Profile, error)
	validate(cfg Config) []string
	postVerify(claims tokenkit.Claims, cfg Config) error
}

func buildProviders() map[ProviderKind]provider {
	return map[ProviderKind]provider{
		Auth0:    auth0Provider{},
		Cognito:  cognitoProvider{},
		Okta:     oktaProvider{},
		Firebase: firebaseProvider{},
		Azure:    azureProvider{},
		OIDC:     oidcProvider{},
	}
}

type auth0Provider struct{}

func (auth0Provider) validate(cfg Config) []string {
	var v []string
	if cfg.Domain == "" {
		v = append(v, "domain is required for auth0")
	}
	return v
}

func (p auth0Provider) build(cfg Config) (Profile, error) {
	if v := p.validate(cfg); len(v) > 0 {
		return Profile{}, tokenkit.NewError(tokenkit.KindConfiguration, strings.Join(v, "; "))
	}
	domain := strings.TrimSuffix(cfg.Domain, "/")
	return Profile{
		DisplayName: "Auth0",
		KeySetURI:   fmt.Sprintf("https://%s/.well-known/jwks.json", domain),
		Issuer:      fmt.Sprintf("https://%s/", domain),
		Audience:    cfg.Audience,
		Algorithms:  []tokenkit.Algorithm{tokenkit.RS256},
		Kind:        Auth0,
	}, nil
}

func (auth0Provider) postVerify(tokenkit.Claims, Config) error { return nil }

type cognitoProvider struct{}

func (cognitoProvider) validate(cfg Config) []string {
	var v []string
	if cfg.Region == "" {
		v = append(v, "region is required for cognito")
	}
	if cfg.UserPoolID == "" {
		v = append(v, "user pool id is required for cognito")
	}
	return v
}

func (p cognitoProvider) build(cfg Config) (Profile, error) {
	if v := p.validate(cfg); len(v) > 0 {
		return Profile{}, tokenkit.NewError(tokenkit.KindConfiguration, strings.Join(v, "; "))
	}
	issuer := fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", cfg.Region, cfg.UserPoolID)
	return Profile{
		DisplayName: "Amazon Cognito",
		KeySetURI:   issuer + "/.well-known/jwks.json",
		Issuer:      issuer,
		Audience:    cfg.Audience,
		Algorithms:  []tokenkit.Algorithm{tokenkit.RS256},
		Kind:        Cognito,
	}, nil
}

// Cognito tokens always carry token_use; a token without it (or with an
// unexpected value) did not come out of a user pool, whatever its
// signature says.
func (cognitoProvider) postVerify(claims tokenkit.Claims, _ Config) error {
	use, _ := claims["token_use"].(string)
	if use != "id" && use != "access" {
		return tokenkit.NewError(tokenkit.KindInvalidToken, "missing or invalid token_use claim")
	}
	return nil
}

type oktaProvider struct{}

func (oktaProvider) validate(cfg Config) []string {
	var v []string
	if cfg.Domain == "" {
		v = append(v, "domain is required for okta")
	}
	return v
}

func (p oktaProvider) build(cfg Config) (Profile, error) {
	if v := p.validate(cfg); len(v) > 0 {
		return Profile{}, tokenkit.NewError(tokenkit.KindConfiguration, strings.Join(v, "; "))
	}
	domain := strings.TrimSuffix(cfg.Domain, "/")
	return Profile{
		DisplayName: "Okta",
		KeySetURI:   fmt.Sprintf("https://%s/oauth2/default/v1/keys", domain),
		Issuer:      fmt.Sprintf("https://%s/oauth2/default", domain),
		Audience:    cfg.Audience,
		Algorithms:  []tokenkit.Algorithm{tokenkit.RS256},
		Kind:        Okta,
	}, nil
}

func (oktaProvider) postVerify(tokenkit.Claims, Config) error { return nil }

type firebaseProvider struct{}

func (firebaseProvider) validate(cfg Config) []string {
	var v []string
	if cfg.ProjectID == "" {
		v = append(v, "project id is required for firebase")
	}
	return v
}

func (p firebaseProvider) build(cfg Config) (Profile, error) {
	if v := p.validate(cfg); len(v) > 0 {
		return Profile{}, tokenkit.NewError(tokenkit.KindConfiguration, strings.Join(v, "; "))
	}
	audience := cfg.Audience
	if audience == "" {
		audience = cfg.ProjectID
	}
	return Profile{
		DisplayName: "Firebase Authentication",
		KeySetURI:   "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com",
		Issuer:      "https://securetoken.google.com/" + cfg.ProjectID,
		Audience:    audience,
		Algorithms:  []tokenkit.Algorithm{tokenkit.RS256},
		Kind:        Firebase,
	}, nil
}

// Firebase ID tokens record when the user authenticated; federated
// tokens without auth_time are rejected.
func (firebaseProvider) postVerify(claims tokenkit.Claims, _ Config) error {
	if _, ok := claims["auth_time"]; !ok {
		return tokenkit.NewError(tokenkit.KindInvalidToken, "missing auth_time claim")
	}
	return nil
}

type azureProvider struct{}

func (azureProvider) validate(cfg Config) []string {
	var v []string
	if cfg.TenantID == "" {
		v = append(v, "tenant id is required for azure")
	}
	return v
}

func (p azureProvider) build(cfg Config) (Profile, error) {
	if v := p.validate(cfg); len(v) > 0 {
		return Profile{}, tokenkit.NewError(tokenkit.KindConfiguration, strings.Join(v, "; "))
	}
	return Profile{
		DisplayName: "Microsoft Entra ID",
		KeySetURI:   fmt.Sprintf("https://login.microsoftonline.com/%s/discovery/v2.0/keys", cfg.TenantID),
		Issuer:      fmt.Sprintf("https://login.microsoftonline.com/%s/v2.0", cfg.TenantID),
		Audience:    cfg.Audience,
		Algorithms:  []tokenkit.Algorithm{tokenkit.RS256},
		Kind:        Azure,
	}, nil
}

func (azureProvider) postVerify(claims tokenkit.Claims, cfg Config) error {
	tid, _ := claims["tid"].(string)
	if tid != cfg.TenantID {
		return tokenkit.NewError(tokenkit.KindInvalidToken, "tid claim does not match configured tenant")
	}
	return nil
}

type oidcProvider struct{}

func (oidcProvider) validate(cfg Config) []string {
	var v []string
	if cfg.IssuerURL == "" {
		v = append(v, "issuer url is required for oidc")
	}
	return v
}

func (p oidcProvider) build(cfg Config) (Profile, error) {
	if v := p.validate(cfg); len(v) > 0 {
		return Profile{}, tokenkit.NewError(tokenkit.KindConfiguration, strings.Join(v, "; "))
	}
	issuer := strings.TrimSuffix(cfg.IssuerURL, "/")
	return Profile{
		DisplayName: "Generic OIDC",
		KeySetURI:   issuer + "/.well-known/jwks.json",
		Issuer:      issuer,
		Audience:    cfg.Audience,
		Kind:        OIDC,
	}, nil
}

func (oidcProvider) postVerify(tokenkit.Claims, Config) error { return nil }
