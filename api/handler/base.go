package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/bizdesk/api/transport"
	"github.com/fastygo/bizdesk/domain"
	"github.com/fastygo/bizdesk/pkg/httpcontext"
	appLogger "github.com/fastygo/bizdesk/pkg/logger"
)

const defaultPageSize = 20

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	return h.adapter.Attach(ctx)
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func (h baseHandler) respondPage(ctx *fasthttp.RequestCtx, data interface{}, page transport.PageMeta) {
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(data, page))
}

func (h baseHandler) respondError(stdCtx context.Context, ctx *fasthttp.RequestCtx, err error) {
	status, code := mapError(err)
	if status >= http.StatusInternalServerError {
		appLogger.WithRequestID(stdCtx, h.logger).Error("request failed",
			zap.String("path", string(ctx.Path())),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	h.respondJSON(ctx, status, transport.NewError(code, err.Error(), nil))
}

// decode reads the JSON body into dst and answers 400 itself when it cannot.
func (h baseHandler) decode(ctx *fasthttp.RequestCtx, dst interface{}) bool {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), domain.ErrInvalidPayload.Message, nil))
		return false
	}
	return true
}

func mapError(err error) (int, string) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, string(domain.ErrCodeUnauthorized)
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return http.StatusForbidden, string(domain.ErrCodeForbidden)
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, string(domain.ErrCodeInvalid)
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, string(domain.ErrCodeNotFound)
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		return http.StatusConflict, string(domain.ErrCodeConflict)
	case domain.IsDomainError(err, domain.ErrCodePublishFailed):
		return http.StatusBadGateway, string(domain.ErrCodePublishFailed)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}

func pathID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue("id").(string)
	return id
}

func query(ctx *fasthttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func page(ctx *fasthttp.RequestCtx) (offset, limit int) {
	return parseInt(query(ctx, "offset"), 0), parseInt(query(ctx, "limit"), defaultPageSize)
}

func parseInt(value string, fallback int) int {
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

func parseBool(value string) bool {
	v, err := strconv.ParseBool(value)
	return err == nil && v
}

// tenantOr returns explicit, falling back to the principal's business.
func tenantOr(stdCtx context.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return domain.PrincipalFromContext(stdCtx).BusinessID
}
