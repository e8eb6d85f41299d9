package backendauth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
)

// DefaultAccessTTL is the lifetime of an access token when none is configured.
const DefaultAccessTTL = time.Hour

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 access tokens and opaque refresh tokens.
type TokenIssuer struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	now       func() time.Time
}

// NewTokenIssuer validates the signing configuration.
func NewTokenIssuer(secret, issuer string, accessTTL time.Duration) (*TokenIssuer, error) {
	if len(secret) < 16 {
		return nil, errors.New("jwt secret must be at least 16 bytes")
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	return &TokenIssuer{
		secret:    []byte(secret),
		issuer:    issuer,
		accessTTL: accessTTL,
		now:       time.Now,
	}, nil
}

// Issue creates a fresh session for user.
func (t *TokenIssuer) Issue(user domainauth.User) (domainauth.Session, error) {
	now := t.now()
	expiresAt := now.Add(t.accessTTL)

	claims := AccessClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := randomToken(32)
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("generate refresh token: %w", err)
	}

	return domainauth.Session{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt.UTC().Truncate(time.Second),
	}, nil
}

// Verify parses an access token. Expired tokens return an error wrapping jwt.ErrTokenExpired.
func (t *TokenIssuer) Verify(token string) (*AccessClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	parsed, err := jwt.NewParser(opts...).ParseWithClaims(token, &AccessClaims{}, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
