package enterprisekit

import (
	tokenkit "github.com/open-rails/trustkit/token"
)

// ProviderKind names an enterprise identity provider family.
type ProviderKind string

const (
	Auth0    ProviderKind = "auth0"
	Cognito  ProviderKind = "cognito"
	Okta     ProviderKind = "okta"
	Firebase ProviderKind = "firebase"
	Azure    ProviderKind = "azure"
	// OIDC is the generic profile for any standards-compliant provider.
	OIDC ProviderKind = "oidc"
)

// Config is the minimal per-provider configuration. Each kind reads only
// the fields it needs; ValidateConfig reports which are missing.
type Config struct {
	// Domain is the tenant domain for Auth0 and Okta (e.g. "acme.auth0.com").
	Domain string
	// Region and UserPoolID locate a Cognito user pool.
	Region     string
	UserPoolID string
	// TenantID identifies an Azure AD tenant.
	TenantID string
	// ProjectID identifies a Firebase project.
	ProjectID string
	// IssuerURL is the issuer for the generic OIDC kind.
	IssuerURL string
	// Audience, when set, is required of verified tokens. Firebase
	// defaults it to the project id.
	Audience string
}

// Profile is the resolved trust bundle for a provider: where its keys
// live, which issuer its tokens must carry, and which algorithms it
// signs with. Construction is pure string composition; nothing here
// touches the network.
type Profile struct {
	DisplayName string
	KeySetURI   string
	Issuer      string
	Audience    string
	Algorithms  []tokenkit.Algorithm
	Kind        ProviderKind
}
