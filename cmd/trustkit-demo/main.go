// Command trustkit-demo exposes the trust engine over a small HTTP API.
// It is a thin translation layer: every endpoint maps onto one engine
// operation, with error kinds mapped to HTTP status codes.
package main

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	enterprisekit "github.com/open-rails/trustkit/enterprise"
	jwkskit "github.com/open-rails/trustkit/jwks"
	securitykit "github.com/open-rails/trustkit/security"
	memorystore "github.com/open-rails/trustkit/storage/memory"
	tokenkit "github.com/open-rails/trustkit/token"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cache := memorystore.NewKeySetCache(30 * time.Minute)
	defer cache.Close()

	resolver := jwkskit.NewResolver(cache, jwkskit.WithLogger(log))
	signer := tokenkit.NewSigner()
	verifier := tokenkit.NewVerifier(tokenkit.WithKeyResolver(resolver))
	registry := enterprisekit.NewRegistry(verifier)

	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/sign", handleSignPOST(signer))
	r.POST("/verify", handleVerifyPOST(verifier))
	r.POST("/decode", handleDecodePOST())
	r.POST("/enterprise/verify", handleEnterpriseVerifyPOST(registry))
	r.POST("/assess", handleAssessPOST())
	r.GET("/recommend", handleRecommendGET())
	r.GET("/keyset-cache/stats", handleCacheStatsGET(resolver))
	r.DELETE("/keyset-cache", handleCacheClearDELETE(resolver))

	addr := os.Getenv("TRUSTKIT_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.WithField("addr", addr).Info("trustkit-demo listening")
	if err := r.Run(addr); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func handleSignPOST(signer *tokenkit.Signer) gin.HandlerFunc {
	type signReq struct {
		Claims    tokenkit.Claims `json:"claims"`
		Key       string          `json:"key"`
		Algorithm string          `json:"algorithm"`
		ExpiresIn string          `json:"expires_in"`
		NotBefore string          `json:"not_before"`
		Issuer    string          `json:"issuer"`
		Subject   string          `json:"subject"`
		Audience  string          `json:"audience"`
		JTI       string          `json:"jti"`
		AutoJTI   bool            `json:"generate_jti"`
		KeyID     string          `json:"kid"`
	}
	return func(c *gin.Context) {
		var req signReq
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		alg, err := tokenkit.ParseAlgorithm(req.Algorithm)
		if err != nil {
			respondErr(c, err)
			return
		}
		token, err := signer.Sign(c.Request.Context(), req.Claims, tokenkit.SignOptions{
			Key:         []byte(req.Key),
			Algorithm:   alg,
			ExpiresIn:   req.ExpiresIn,
			NotBefore:   req.NotBefore,
			Issuer:      req.Issuer,
			Subject:     req.Subject,
			Audience:    req.Audience,
			JTI:         req.JTI,
			GenerateJTI: req.AutoJTI,
			KeyID:       req.KeyID,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

func handleVerifyPOST(verifier *tokenkit.Verifier) gin.HandlerFunc {
	type verifyReq struct {
		Token          string `json:"token"`
		Key            string `json:"key"`
		JWKSURI        string `json:"jwks_uri"`
		Algorithm      string `json:"algorithm"`
		Issuer         string `json:"issuer"`
		Audience       string `json:"audience"`
		ClockTolerance string `json:"clock_tolerance"`
	}
	return func(c *gin.Context) {
		var req verifyReq
		if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
			badRequest(c, "invalid request body")
			return
		}
		opts := tokenkit.VerifyOptions{
			JWKSURI:  req.JWKSURI,
			Issuer:   req.Issuer,
			Audience: req.Audience,
		}
		if req.Key != "" {
			opts.Key = []byte(req.Key)
		}
		if req.Algorithm != "" {
			alg, err := tokenkit.ParseAlgorithm(req.Algorithm)
			if err != nil {
				respondErr(c, err)
				return
			}
			opts.Algorithm = alg
		}
		if req.ClockTolerance != "" {
			d, err := time.ParseDuration(req.ClockTolerance)
			if err != nil {
				badRequest(c, "invalid clock_tolerance")
				return
			}
			opts.ClockTolerance = d
		}
		claims, err := verifier.Verify(c.Request.Context(), req.Token, opts)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"valid": true, "claims": claims})
	}
}

func handleDecodePOST() gin.HandlerFunc {
	type decodeReq struct {
		Token string `json:"token"`
	}
	return func(c *gin.Context) {
		var req decodeReq
		if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
			badRequest(c, "invalid request body")
			return
		}
		decoded, err := tokenkit.Decode(req.Token)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"header": decoded.Header, "claims": decoded.Claims})
	}
}

func handleEnterpriseVerifyPOST(registry *enterprisekit.Registry) gin.HandlerFunc {
	type enterpriseReq struct {
		Token    string               `json:"token"`
		Provider string               `json:"provider"`
		Config   enterprisekit.Config `json:"config"`
	}
	return func(c *gin.Context) {
		var req enterpriseReq
		if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
			badRequest(c, "invalid request body")
			return
		}
		claims, err := registry.Verify(c.Request.Context(), req.Token,
			enterprisekit.ProviderKind(req.Provider), req.Config, nil)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"valid": true, "claims": claims})
	}
}

func handleAssessPOST() gin.HandlerFunc {
	type assessReq struct {
		Token       string `json:"token"`
		Development bool   `json:"development"`
	}
	return func(c *gin.Context) {
		var req assessReq
		if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
			badRequest(c, "invalid request body")
			return
		}
		decoded, err := tokenkit.Decode(req.Token)
		if err != nil {
			respondErr(c, err)
			return
		}
		alg, _ := decoded.Header["alg"].(string)
		policy := securitykit.DefaultPolicy()
		if req.Development {
			policy = securitykit.DevelopmentPolicy()
		}
		assessment := securitykit.Assess(decoded.Claims, tokenkit.Algorithm(alg), policy)
		c.JSON(http.StatusOK, assessment)
	}
}

func handleRecommendGET() gin.HandlerFunc {
	return func(c *gin.Context) {
		advice, err := securitykit.RecommendAlgorithm(c.Query("use_case"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, advice)
	}
}

func handleCacheStatsGET(resolver *jwkskit.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := resolver.Stats(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func handleCacheClearDELETE(resolver *jwkskit.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := resolver.ClearCache(c.Request.Context()); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// respondErr maps the engine's error kinds onto HTTP status codes.
func respondErr(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch tokenkit.KindOf(err) {
	case tokenkit.KindTokenExpired, tokenkit.KindInvalidSignature, tokenkit.KindInvalidToken:
		status = http.StatusUnauthorized
	case tokenkit.KindInsecureAlgorithm:
		status = http.StatusForbidden
	case tokenkit.KindKeyFetch:
		status = http.StatusBadGateway
	case tokenkit.KindUnsupportedProvider:
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
