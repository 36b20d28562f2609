package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/bizdesk/api/transport"
	"github.com/fastygo/bizdesk/domain"
	"github.com/fastygo/bizdesk/pkg/httpcontext"
	"github.com/fastygo/bizdesk/repository"
	leadUC "github.com/fastygo/bizdesk/usecase/lead"
)

type LeadHandler struct {
	baseHandler
	uc *leadUC.UseCase
}

func NewLeadHandler(uc *leadUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Submit contact form
// @Tags leads
// @Router /api/v1/leads/public [post]
func (h *LeadHandler) CreatePublic(ctx *fasthttp.RequestCtx) {
	var req transport.LeadRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	lead, err := h.uc.CreatePublicLead(stdCtx, createLeadInput(req))
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, lead)
}

// @Summary Create lead
// @Tags leads
// @Router /api/v1/leads [post]
func (h *LeadHandler) Create(ctx *fasthttp.RequestCtx) {
	var req transport.LeadRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	in := createLeadInput(req)
	in.BusinessID = tenantOr(stdCtx, in.BusinessID)
	lead, err := h.uc.CreateLead(stdCtx, in)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, lead)
}

// @Summary Get lead
// @Tags leads
// @Router /api/v1/leads/{id} [get]
func (h *LeadHandler) Get(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	lead, err := h.uc.GetLead(stdCtx, pathID(ctx))
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, lead)
}

// @Summary List leads
// @Tags leads
// @Router /api/v1/leads [get]
func (h *LeadHandler) List(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	offset, limit := page(ctx)
	filter := repository.LeadFilter{
		BusinessID:       tenantOr(stdCtx, query(ctx, "businessId")),
		CommerceID:       query(ctx, "commerceId"),
		IncludeUnclaimed: parseBool(query(ctx, "includeUnclaimed")),
		Stage:            query(ctx, "stage"),
		Status:           query(ctx, "status"),
		Source:           query(ctx, "source"),
		AssignedUserID:   query(ctx, "assignedUserId"),
		Offset:           offset,
		Limit:            limit,
	}

	leads, err := h.uc.ListLeads(stdCtx, filter)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondPage(ctx, leads, transport.PageMeta{Offset: offset, Limit: repository.ClampLimit(limit), Count: len(leads)})
}

// @Summary Update lead
// @Tags leads
// @Router /api/v1/leads/{id} [patch]
func (h *LeadHandler) Update(ctx *fasthttp.RequestCtx) {
	var req transport.LeadPatchRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	lead, err := h.uc.UpdateLead(stdCtx, pathID(ctx), domain.LeadPatch{
		BusinessID:     req.BusinessID,
		CommerceID:     req.CommerceID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Source:         req.Source,
		Notes:          req.Notes,
		AssignedUserID: req.AssignedUserID,
		Metadata:       req.Metadata,
		Active:         req.Active,
	})
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, lead)
}

// @Summary Move lead through the pipeline
// @Tags leads
// @Router /api/v1/leads/{id}/stage [put]
func (h *LeadHandler) UpdateStage(ctx *fasthttp.RequestCtx) {
	var req transport.StageRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	lead, err := h.uc.UpdateStage(stdCtx, pathID(ctx), leadUC.StageChange{
		Stage:  req.Stage,
		Status: req.Status,
		UserID: req.UserID,
	})
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, lead)
}

// @Summary Record a contact attempt
// @Tags leads
// @Router /api/v1/leads/{id}/contacts [post]
func (h *LeadHandler) AddContact(ctx *fasthttp.RequestCtx) {
	var req transport.LeadContactRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	contact, err := h.uc.AddContact(stdCtx, pathID(ctx), leadUC.ContactInput{
		Type:        req.Type,
		Comment:     req.Comment,
		ContactedAt: req.ContactedAt,
		UserID:      req.UserID,
	})
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, contact)
}

// @Summary List contact attempts
// @Tags leads
// @Router /api/v1/leads/{id}/contacts [get]
func (h *LeadHandler) ListContacts(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	offset, limit := page(ctx)
	contacts, err := h.uc.ListContacts(stdCtx, pathID(ctx), offset, limit)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondPage(ctx, contacts, transport.PageMeta{Offset: offset, Limit: repository.ClampLimit(limit), Count: len(contacts)})
}

// @Summary Convert lead into a client
// @Tags leads
// @Router /api/v1/leads/{id}/convert [post]
func (h *LeadHandler) Convert(ctx *fasthttp.RequestCtx) {
	var req transport.ConvertRequest
	if len(ctx.PostBody()) > 0 && !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	lead, err := h.uc.Convert(stdCtx, pathID(ctx), leadUC.ConvertInput{ClientID: req.ClientID, UserID: req.UserID})
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, lead)
}

func createLeadInput(req transport.LeadRequest) leadUC.CreateInput {
	return leadUC.CreateInput{
		ID:             req.ID,
		BusinessID:     req.BusinessID,
		CommerceID:     req.CommerceID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Source:         req.Source,
		Message:        req.Message,
		Notes:          req.Notes,
		AssignedUserID: req.AssignedUserID,
		Metadata:       req.Metadata,
	}
}
