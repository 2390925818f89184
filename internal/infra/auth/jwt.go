package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"workforce-billing/internal/config"
	"workforce-billing/internal/domain"
	"workforce-billing/internal/domain/model"
	"workforce-billing/internal/domain/ports/adapter"
)

var _ adapter.Authenticator = (*JWTAuthenticator)(nil)

// Claims are the access-token claims issued by the identity provider.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTAuthenticator validates HS256 access tokens from the Authorization header
// or the session cookie.
type JWTAuthenticator struct {
	secret     []byte
	cookieName string
	issuer     string
	now        func() time.Time
}

func NewJWTAuthenticator(cfg config.AuthConfig) (*JWTAuthenticator, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &JWTAuthenticator{
		secret:     []byte(cfg.JWTSecret),
		cookieName: cfg.CookieName,
		issuer:     cfg.Issuer,
		now:        time.Now,
	}, nil
}

// Viewer returns (nil, nil) when the request carries no token.
func (a *JWTAuthenticator) Viewer(r *http.Request) (*model.Identity, error) {
	tok := tokenFromRequest(r, a.cookieName)
	if tok == "" {
		return nil, nil
	}
	claims, err := a.parse(tok)
	if err != nil {
		return nil, err
	}
	return &model.Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

func tokenFromRequest(r *http.Request, cookieName string) string {
	// Authorization: Bearer <jwt>
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		if len(hdr) > 7 && strings.EqualFold(hdr[:7], "bearer ") {
			return strings.TrimSpace(hdr[7:])
		}
	}
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil {
			return c.Value
		}
	}
	return ""
}

func (a *JWTAuthenticator) parse(tok string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", domain.ErrUnauthorized)
	}
	return claims, nil
}

// Mint signs an access token for userID. Used by dev tooling and tests.
func (a *JWTAuthenticator) Mint(userID, email string, ttl time.Duration) (string, error) {
	now := a.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   userID,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
