package realtime

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lumenlearn/notify/pkg/jwt"
)

// Authenticator verifies the credentials on an incoming WebSocket
// request and returns the user ID that owns the connection.
type Authenticator interface {
	Authenticate(r *http.Request) (userID string, err error)
}

// AuthenticatorFunc adapts a function to the Authenticator interface.
type AuthenticatorFunc func(r *http.Request) (string, error)

func (f AuthenticatorFunc) Authenticate(r *http.Request) (string, error) {
	return f(r)
}

const defaultSessionCookie = "session_token"

// JWTAuthenticator accepts a bearer token from the ?token query
// parameter, the Authorization header, or a session cookie, in that
// order. The token's subject claim is the user ID.
type JWTAuthenticator struct {
	svc        *jwt.Service
	cookieName string
}

// JWTAuthenticatorOption configures a JWTAuthenticator.
type JWTAuthenticatorOption func(*JWTAuthenticator)

// WithSessionCookie changes the cookie the authenticator falls back to.
func WithSessionCookie(name string) JWTAuthenticatorOption {
	return func(a *JWTAuthenticator) { a.cookieName = name }
}

// NewJWTAuthenticator creates an authenticator over a jwt.Service.
func NewJWTAuthenticator(svc *jwt.Service, opts ...JWTAuthenticatorOption) *JWTAuthenticator {
	a := &JWTAuthenticator{
		svc:        svc,
		cookieName: defaultSessionCookie,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *JWTAuthenticator) Authenticate(r *http.Request) (string, error) {
	token := a.extractToken(r)
	if token == "" {
		return "", fmt.Errorf("%w: no credentials", ErrAuthFailure)
	}

	var claims jwt.StandardClaims
	if err := a.svc.Parse(token, &claims); err != nil {
		return "", errors.Join(ErrAuthFailure, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrAuthFailure)
	}
	return claims.Subject, nil
}

func (a *JWTAuthenticator) extractToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := r.Cookie(a.cookieName); err == nil {
		return cookie.Value
	}
	return ""
}
