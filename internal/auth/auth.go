// Package auth resolves the signed-in user of a request. Sign-in and
// sign-out happen at the identity provider; this service only verifies the
// bearer token it issued and keeps no session state.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pkordes/tripboard/internal/domain"
)

// Authenticator extracts the user from a request.
// Returns domain.ErrUnauthorized when the request carries no valid identity.
type Authenticator interface {
	Authenticate(r *http.Request) (domain.User, error)
}

// Claims is the identity token payload.
type Claims struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// JWTAuthenticator verifies HS256 bearer tokens.
type JWTAuthenticator struct {
	secret []byte
}

// NewJWTAuthenticator constructs a JWTAuthenticator for secret.
func NewJWTAuthenticator(secret string) *JWTAuthenticator {
	return &JWTAuthenticator{secret: []byte(secret)}
}

// Authenticate reads the token from the Authorization header, or from the
// access_token query parameter for websocket upgrades, which cannot carry
// custom headers from a browser.
func (a *JWTAuthenticator) Authenticate(r *http.Request) (domain.User, error) {
	raw, err := bearerToken(r)
	if err != nil {
		return domain.User{}, err
	}

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if strings.TrimSpace(claims.Email) == "" {
		return domain.User{}, fmt.Errorf("%w: token has no email claim", domain.ErrUnauthorized)
	}
	return domain.User{Name: claims.Name, Email: claims.Email, AvatarURL: claims.Picture}, nil
}

func bearerToken(r *http.Request) (string, error) {
	if authz := r.Header.Get("Authorization"); authz != "" {
		const prefix = "Bearer "
		if !strings.HasPrefix(authz, prefix) {
			return "", fmt.Errorf("%w: malformed Authorization header", domain.ErrUnauthorized)
		}
		if raw := strings.TrimSpace(strings.TrimPrefix(authz, prefix)); raw != "" {
			return raw, nil
		}
		return "", fmt.Errorf("%w: missing bearer token", domain.ErrUnauthorized)
	}
	if raw := r.URL.Query().Get("access_token"); raw != "" {
		return raw, nil
	}
	return "", fmt.Errorf("%w: missing Authorization header", domain.ErrUnauthorized)
}

// IssueToken signs an identity token for user valid for ttl from now.
// Used by tests and local tooling standing in for the identity provider.
func IssueToken(secret string, user domain.User, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		Name:    user.Name,
		Email:   user.Email,
		Picture: user.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// DevAuthenticator is a local/dev-only identity shim. It trusts the
// X-Debug-Email and X-Debug-Name headers. Do NOT use it in production.
type DevAuthenticator struct{}

// Authenticate returns the user named by the debug headers.
func (DevAuthenticator) Authenticate(r *http.Request) (domain.User, error) {
	email := strings.TrimSpace(r.Header.Get("X-Debug-Email"))
	if email == "" {
		email = strings.TrimSpace(r.URL.Query().Get("debug_email"))
	}
	if email == "" {
		return domain.User{}, fmt.Errorf("%w: missing user (set X-Debug-Email)", domain.ErrUnauthorized)
	}
	return domain.User{Name: strings.TrimSpace(r.Header.Get("X-Debug-Name")), Email: email}, nil
}

type ctxKey struct{}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user domain.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// UserFrom returns the user stored in ctx by Middleware.
func UserFrom(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(domain.User)
	return u, ok
}

// Middleware attaches the authenticated user to the request context when
// the request carries a valid identity. Requests without one pass through
// anonymously; routes that need a user enforce it themselves.
func Middleware(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := a.Authenticate(r)
			if err != nil {
				if !errors.Is(err, domain.ErrUnauthorized) {
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
