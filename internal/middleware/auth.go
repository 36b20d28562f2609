package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/bizdesk/api/transport"
	"github.com/fastygo/bizdesk/domain"
	"github.com/fastygo/bizdesk/internal/config"
	"github.com/fastygo/bizdesk/pkg/httpcontext"
)

// HeaderUserID identifies the caller when no token verifier is configured.
const HeaderUserID = "X-User-ID"

var errMissingToken = errors.New("missing bearer token")

// Authenticator resolves the request principal from a bearer token, or from
// HeaderUserID when no verifier is configured.
type Authenticator struct {
	secret   []byte
	issuer   string
	required bool
	logger   *zap.Logger
}

func NewAuthenticator(cfg config.AuthConfig, logger *zap.Logger) (*Authenticator, error) {
	if cfg.Required && cfg.Secret == "" {
		return nil, config.ErrVerifierUnavailable
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		required: cfg.Required,
		logger:   logger,
	}, nil
}

// Enabled reports whether bearer tokens are verified.
func (a *Authenticator) Enabled() bool {
	return len(a.secret) > 0
}

// Handler resolves the principal and rejects the request with 401 when a token
// is invalid, or missing while authentication is required.
func (a *Authenticator) Handler(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		principal, err := a.Resolve(ctx)
		if err != nil {
			a.logger.Warn("request rejected",
				zap.String("request_id", httpcontext.RequestID(ctx)),
				zap.Error(err),
			)
			reject(ctx, err)
			return
		}
		httpcontext.SetPrincipal(ctx, principal)
		next(ctx)
	}
}

// Resolve returns the principal of the request. An anonymous principal with a
// nil error means the request may proceed unauthenticated.
func (a *Authenticator) Resolve(ctx *fasthttp.RequestCtx) (domain.Principal, error) {
	if !a.Enabled() {
		return domain.Principal{UserID: strings.TrimSpace(string(ctx.Request.Header.Peek(HeaderUserID)))}, nil
	}

	raw := extractToken(ctx)
	if raw == "" {
		if a.required {
			return domain.Principal{}, errMissingToken
		}
		return domain.Principal{}, nil
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Principal{}, fmt.Errorf("invalid token: %w", err)
	}
	if a.issuer != "" && !claims.VerifyIssuer(a.issuer, true) {
		return domain.Principal{}, errors.New("invalid token issuer")
	}

	principal := principalFromClaims(claims)
	if principal.Anonymous() {
		return domain.Principal{}, errors.New("token carries no user id")
	}
	return principal, nil
}

func principalFromClaims(claims jwt.MapClaims) domain.Principal {
	return domain.Principal{
		UserID:     firstClaim(claims, "id", "userId", "sub"),
		BusinessID: firstClaim(claims, "businessId", "business_id"),
		CommerceID: firstClaim(claims, "commerceId", "commerce_id"),
		Roles:      listClaim(claims, "roles"),
	}
}

func firstClaim(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		if v, ok := claims[k].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func listClaim(claims jwt.MapClaims, key string) []string {
	switch v := claims[key].(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		if v == "" {
			return nil
		}
		return strings.Split(v, ",")
	}
	return nil
}

func reject(ctx *fasthttp.RequestCtx, err error) {
	body := transport.NewError(string(domain.ErrCodeUnauthorized), err.Error(), nil)
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(http.StatusUnauthorized)
	ctx.SetBodyString(body.String())
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
