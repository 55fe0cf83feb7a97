package realtime_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlearn/notify/pkg/jwt"
	"github.com/lumenlearn/notify/realtime"
)

func newToken(t *testing.T, svc *jwt.Service, claims jwt.StandardClaims) string {
	t.Helper()
	token, err := svc.Generate(claims)
	require.NoError(t, err)
	return token
}

func TestJWTAuthenticator(t *testing.T) {
	t.Parallel()

	svc, err := jwt.NewFromString("test-signing-key-at-least-32-bytes!")
	require.NoError(t, err)

	valid := newToken(t, svc, jwt.StandardClaims{
		Subject:   "user-42",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})

	tests := []struct {
		name       string
		setRequest func(r *http.Request)
		wantUserID string
		wantErr    bool
	}{
		{
			name: "token in query parameter",
			setRequest: func(r *http.Request) {
				q := r.URL.Query()
				q.Set("token", valid)
				r.URL.RawQuery = q.Encode()
			},
			wantUserID: "user-42",
		},
		{
			name: "token in authorization header",
			setRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+valid)
			},
			wantUserID: "user-42",
		},
		{
			name: "token in session cookie",
			setRequest: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "session_token", Value: valid})
			},
			wantUserID: "user-42",
		},
		{
			name: "query parameter wins over header",
			setRequest: func(r *http.Request) {
				q := r.URL.Query()
				q.Set("token", valid)
				r.URL.RawQuery = q.Encode()
				r.Header.Set("Authorization", "Bearer garbage")
			},
			wantUserID: "user-42",
		},
		{
			name:       "no credentials",
			setRequest: func(r *http.Request) {},
			wantErr:    true,
		},
		{
			name: "malformed token",
			setRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer not.a.jwt")
			},
			wantErr: true,
		},
		{
			name: "expired token",
			setRequest: func(r *http.Request) {
				expired := newToken(t, svc, jwt.StandardClaims{
					Subject:   "user-42",
					ExpiresAt: time.Now().Add(-time.Hour).Unix(),
				})
				r.Header.Set("Authorization", "Bearer "+expired)
			},
			wantErr: true,
		},
		{
			name: "token without subject",
			setRequest: func(r *http.Request) {
				anonymous := newToken(t, svc, jwt.StandardClaims{
					ExpiresAt: time.Now().Add(time.Hour).Unix(),
				})
				r.Header.Set("Authorization", "Bearer "+anonymous)
			},
			wantErr: true,
		},
		{
			name: "token signed with another key",
			setRequest: func(r *http.Request) {
				other, err := jwt.NewFromString("some-other-signing-key-32-bytes-xx")
				require.NoError(t, err)
				foreign := newToken(t, other, jwt.StandardClaims{Subject: "user-42"})
				r.Header.Set("Authorization", "Bearer "+foreign)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			auth := realtime.NewJWTAuthenticator(svc)
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			tt.setRequest(r)

			userID, err := auth.Authenticate(r)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, realtime.ErrAuthFailure)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUserID, userID)
		})
	}
}

func TestJWTAuthenticator_CustomCookie(t *testing.T) {
	t.Parallel()

	svc, err := jwt.NewFromString("test-signing-key-at-least-32-bytes!")
	require.NoError(t, err)
	auth := realtime.NewJWTAuthenticator(svc, realtime.WithSessionCookie("lumen_session"))

	token := newToken(t, svc, jwt.StandardClaims{Subject: "user-7"})
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.AddCookie(&http.Cookie{Name: "lumen_session", Value: token})

	userID, err := auth.Authenticate(r)
	require.NoError(t, err)
	assert.Equal(t, "user-7", userID)
}
