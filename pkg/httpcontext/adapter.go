package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/bizdesk/domain"
	appLogger "github.com/fastygo/bizdesk/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
)

// HeaderRequestID is read from and echoed back on every request.
const HeaderRequestID = "X-Request-ID"

const principalUserValue = "bizdesk.principal"

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout time.Duration
}

// NewAdapter constructs a new Adapter using the provided timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		timeout: timeout,
	}
}

// Attach creates a context with timeout derived from the adapter and enriches it
// with the request id and the principal resolved by the auth middleware.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := RequestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set(HeaderRequestID, reqID)

	if p, ok := PrincipalOf(ctx); ok {
		stdCtx = domain.ContextWithPrincipal(stdCtx, p)
	}
	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}

	return stdCtx, cancel
}

// SetPrincipal records p on the request for Attach to pick up.
func SetPrincipal(ctx *fasthttp.RequestCtx, p domain.Principal) {
	ctx.SetUserValue(principalUserValue, p)
}

// PrincipalOf returns the principal recorded by SetPrincipal.
func PrincipalOf(ctx *fasthttp.RequestCtx) (domain.Principal, bool) {
	p, ok := ctx.UserValue(principalUserValue).(domain.Principal)
	return p, ok
}

// RequestID returns the caller supplied request id, generating one when absent.
// The generated id is stored back on the request so repeated calls agree.
func RequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if header := strings.TrimSpace(string(ctx.Request.Header.Peek(HeaderRequestID))); header != "" {
		return header
	}
	id := uuid.NewString()
	ctx.Request.Header.Set(HeaderRequestID, id)
	return id
}
