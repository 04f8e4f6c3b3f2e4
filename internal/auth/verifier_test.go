package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unideal/unideal-server/internal/config"
)

type jwksServer struct {
	*httptest.Server
	keys map[string]*rsa.PrivateKey
}

// newJWKSServer serves the public halves of the given keys as a JWKS.
func newJWKSServer(t *testing.T) *jwksServer {
	t.Helper()

	s := &jwksServer{keys: make(map[string]*rsa.PrivateKey)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		type jwk struct {
			Kty string `json:"kty"`
			Kid string `json:"kid"`
			Use string `json:"use"`
			N   string `json:"n"`
			E   string `json:"e"`
		}
		var out struct {
			Keys []jwk `json:"keys"`
		}
		for kid, key := range s.keys {
			pub := key.Public().(*rsa.PublicKey)
			out.Keys = append(out.Keys, jwk{
				Kty: "RSA",
				Kid: kid,
				Use: "sig",
				N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			})
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(out))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *jwksServer) addKey(t *testing.T, kid string) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	s.keys[kid] = key
	return key
}

const testIssuer = "https://campus.clerk.accounts.dev"

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func validClaims(subject string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    testIssuer,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
}

func newTestVerifier(s *jwksServer) *Verifier {
	return NewVerifier(config.ClerkConfig{
		Issuer:       testIssuer,
		JWKSURL:      s.URL,
		FetchTimeout: 5 * time.Second,
		KeyCacheTTL:  time.Hour,
	})
}

func TestVerifyToken(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token returns subject", func(t *testing.T) {
		s := newJWKSServer(t)
		key := s.addKey(t, "key-1")
		v := newTestVerifier(s)

		subject, err := v.VerifyToken(ctx, signToken(t, key, "key-1", validClaims("user_abc")))
		require.NoError(t, err)
		assert.Equal(t, "user_abc", subject)
	})

	t.Run("empty token", func(t *testing.T) {
		s := newJWKSServer(t)
		v := newTestVerifier(s)

		_, err := v.VerifyToken(ctx, "")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("expired token", func(t *testing.T) {
		s := newJWKSServer(t)
		key := s.addKey(t, "key-1")
		v := newTestVerifier(s)

		claims := validClaims("user_abc")
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

		_, err := v.VerifyToken(ctx, signToken(t, key, "key-1", claims))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		s := newJWKSServer(t)
		key := s.addKey(t, "key-1")
		v := newTestVerifier(s)

		claims := validClaims("user_abc")
		claims.Issuer = "https://evil.example.com"

		_, err := v.VerifyToken(ctx, signToken(t, key, "key-1", claims))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject claim", func(t *testing.T) {
		s := newJWKSServer(t)
		key := s.addKey(t, "key-1")
		v := newTestVerifier(s)

		_, err := v.VerifyToken(ctx, signToken(t, key, "key-1", validClaims("")))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("signed by key outside the set", func(t *testing.T) {
		s := newJWKSServer(t)
		s.addKey(t, "key-1")
		v := newTestVerifier(s)

		rogue, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		_, err = v.VerifyToken(ctx, signToken(t, rogue, "key-1", validClaims("user_abc")))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rotated key triggers a refetch", func(t *testing.T) {
		s := newJWKSServer(t)
		key1 := s.addKey(t, "key-1")
		v := newTestVerifier(s)

		// Prime the cache with the first key
		_, err := v.VerifyToken(ctx, signToken(t, key1, "key-1", validClaims("user_abc")))
		require.NoError(t, err)

		// Rotate: a token under a new kid must force a refresh within the TTL
		key2 := s.addKey(t, "key-2")
		subject, err := v.VerifyToken(ctx, signToken(t, key2, "key-2", validClaims("user_def")))
		require.NoError(t, err)
		assert.Equal(t, "user_def", subject)
	})

	t.Run("token without kid", func(t *testing.T) {
		s := newJWKSServer(t)
		key := s.addKey(t, "key-1")
		v := newTestVerifier(s)

		token := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims("user_abc"))
		delete(token.Header, "kid")
		signed, err := token.SignedString(key)
		require.NoError(t, err)

		_, err = v.VerifyToken(ctx, signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("hs256 token rejected", func(t *testing.T) {
		s := newJWKSServer(t)
		s.addKey(t, "key-1")
		v := newTestVerifier(s)

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims("user_abc"))
		token.Header["kid"] = "key-1"
		signed, err := token.SignedString([]byte("shared-secret"))
		require.NoError(t, err)

		_, err = v.VerifyToken(ctx, signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
