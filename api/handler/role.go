package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/bizdesk/api/transport"
	"github.com/fastygo/bizdesk/domain"
	"github.com/fastygo/bizdesk/pkg/httpcontext"
	"github.com/fastygo/bizdesk/repository"
	roleUC "github.com/fastygo/bizdesk/usecase/role"
)

type RoleHandler struct {
	baseHandler
	uc *roleUC.UseCase
}

func NewRoleHandler(uc *roleUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *RoleHandler {
	return &RoleHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Create role
// @Tags roles
// @Router /api/v1/roles [post]
func (h *RoleHandler) Create(ctx *fasthttp.RequestCtx) {
	var req transport.RoleRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	role, err := h.uc.CreateRole(stdCtx, roleUC.CreateInput{
		ID:          req.ID,
		BusinessID:  tenantOr(stdCtx, req.BusinessID),
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, role)
}

// @Summary Get role
// @Tags roles
// @Router /api/v1/roles/{id} [get]
func (h *RoleHandler) Get(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	role, err := h.uc.GetRole(stdCtx, pathID(ctx))
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, role)
}

// @Summary List roles
// @Tags roles
// @Router /api/v1/roles [get]
func (h *RoleHandler) List(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	offset, limit := page(ctx)
	roles, err := h.uc.ListRoles(stdCtx, repository.RoleFilter{
		BusinessID:      tenantOr(stdCtx, query(ctx, "businessId")),
		IncludeInactive: parseBool(query(ctx, "includeInactive")),
		Offset:          offset,
		Limit:           limit,
	})
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondPage(ctx, roles, transport.PageMeta{Offset: offset, Limit: repository.ClampLimit(limit), Count: len(roles)})
}

// @Summary Update role
// @Tags roles
// @Router /api/v1/roles/{id} [patch]
func (h *RoleHandler) Update(ctx *fasthttp.RequestCtx) {
	var req transport.RolePatchRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	role, err := h.uc.UpdateRole(stdCtx, pathID(ctx), domain.RolePatch{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, role)
}

// @Summary Deactivate role
// @Tags roles
// @Router /api/v1/roles/{id} [delete]
func (h *RoleHandler) Deactivate(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	role, err := h.uc.DeactivateRole(stdCtx, pathID(ctx))
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, role)
}
