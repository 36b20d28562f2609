package middleware

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/bizdesk/domain"
	"github.com/fastygo/bizdesk/internal/config"
	"github.com/fastygo/bizdesk/pkg/httpcontext"
)

const testSecret = "test-secret"

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func run(a *Authenticator, rc *fasthttp.RequestCtx) (domain.Principal, bool) {
	var (
		seen   domain.Principal
		called bool
	)
	a.Handler(func(ctx *fasthttp.RequestCtx) {
		called = true
		seen, _ = httpcontext.PrincipalOf(ctx)
	})(rc)
	return seen, called
}

func TestNewAuthenticatorRequiresSecretWhenRequired(t *testing.T) {
	_, err := NewAuthenticator(config.AuthConfig{Required: true}, nil)
	assert.ErrorIs(t, err, config.ErrVerifierUnavailable)
}

func TestUserIDClaimPrecedence(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
		want   string
	}{
		{"id wins", jwt.MapClaims{"id": "A", "userId": "B", "sub": "C"}, "A"},
		{"userId before sub", jwt.MapClaims{"userId": "B", "sub": "C"}, "B"},
		{"sub last", jwt.MapClaims{"sub": "C"}, "C"},
	}

	a, err := NewAuthenticator(config.AuthConfig{Secret: testSecret}, nil)
	require.NoError(t, err)
	require.True(t, a.Enabled())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rc fasthttp.RequestCtx
			rc.Request.Header.Set("Authorization", "Bearer "+sign(t, tt.claims))
			rc.Request.Header.Set(HeaderUserID, "header-user")

			p, called := run(a, &rc)
			require.True(t, called)
			assert.Equal(t, tt.want, p.UserID)
		})
	}
}

func TestTenantAndRoleClaims(t *testing.T) {
	a, err := NewAuthenticator(config.AuthConfig{Secret: testSecret, Issuer: "bizdesk"}, nil)
	require.NoError(t, err)

	var rc fasthttp.RequestCtx
	rc.Request.Header.Set("Authorization", "Bearer "+sign(t, jwt.MapClaims{
		"sub":        "U1",
		"iss":        "bizdesk",
		"businessId": "B1",
		"commerceId": "C1",
		"roles":      []string{"admin", "sales"},
		"exp":        time.Now().Add(time.Hour).Unix(),
	}))

	p, called := run(a, &rc)
	require.True(t, called)
	assert.Equal(t, domain.Principal{UserID: "U1", BusinessID: "B1", CommerceID: "C1", Roles: []string{"admin", "sales"}}, p)
}

func TestRejectsInvalidTokens(t *testing.T) {
	a, err := NewAuthenticator(config.AuthConfig{Secret: testSecret, Issuer: "bizdesk"}, nil)
	require.NoError(t, err)

	wrongKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "U1", "iss": "bizdesk"}).SignedString([]byte("other"))
	require.NoError(t, err)

	tokens := map[string]string{
		"wrong key":    wrongKey,
		"expired":      sign(t, jwt.MapClaims{"sub": "U1", "iss": "bizdesk", "exp": time.Now().Add(-time.Minute).Unix()}),
		"wrong issuer": sign(t, jwt.MapClaims{"sub": "U1", "iss": "elsewhere"}),
		"no user":      sign(t, jwt.MapClaims{"iss": "bizdesk"}),
		"garbage":      "not-a-token",
	}
	for name, token := range tokens {
		t.Run(name, func(t *testing.T) {
			var rc fasthttp.RequestCtx
			rc.Request.Header.Set("Authorization", "Bearer "+token)

			_, called := run(a, &rc)
			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, rc.Response.StatusCode())
			assert.Contains(t, string(rc.Response.Body()), string(domain.ErrCodeUnauthorized))
		})
	}
}

func TestMissingTokenWhenRequired(t *testing.T) {
	a, err := NewAuthenticator(config.AuthConfig{Secret: testSecret, Required: true}, nil)
	require.NoError(t, err)

	var rc fasthttp.RequestCtx
	rc.Request.Header.Set(HeaderUserID, "U1")

	_, called := run(a, &rc)
	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rc.Response.StatusCode())
}

func TestMissingTokenWhenOptionalIsAnonymous(t *testing.T) {
	a, err := NewAuthenticator(config.AuthConfig{Secret: testSecret}, nil)
	require.NoError(t, err)

	var rc fasthttp.RequestCtx
	rc.Request.Header.Set(HeaderUserID, "U1")

	p, called := run(a, &rc)
	require.True(t, called)
	assert.True(t, p.Anonymous())
}

func TestHeaderFallbackWhenVerifierDisabled(t *testing.T) {
	a, err := NewAuthenticator(config.AuthConfig{}, nil)
	require.NoError(t, err)
	assert.False(t, a.Enabled())

	var rc fasthttp.RequestCtx
	rc.Request.Header.Set(HeaderUserID, "U1")

	p, called := run(a, &rc)
	require.True(t, called)
	assert.Equal(t, "U1", p.UserID)
}
