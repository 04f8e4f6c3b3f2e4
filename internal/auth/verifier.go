package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/unideal/unideal-server/internal/config"
)

var (
	ErrMissingToken = errors.New("missing auth token")
	ErrInvalidToken = errors.New("invalid token")
)

// Verifier validates session tokens issued by the identity provider.
// Tokens are RS256 JWTs verified against the provider's published keys;
// on success the provider's subject identifier is returned.
type Verifier struct {
	issuer string
	keys   *jwksCache
	parser *jwt.Parser
}

func NewVerifier(cfg config.ClerkConfig) *Verifier {
	return &Verifier{
		issuer: cfg.Issuer,
		keys:   newJWKSCache(cfg.JWKSURL, cfg.KeyCacheTTL, cfg.FetchTimeout),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(10*time.Second),
		),
	}
}

// VerifyToken checks signature, issuer and expiry, and returns the
// external subject identifier from the token's sub claim.
func (v *Verifier) VerifyToken(ctx context.Context, tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", ErrMissingToken
	}

	claims := &jwt.RegisteredClaims{}
	token, err := v.parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no key id")
		}
		return v.keys.getKey(ctx, kid)
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
