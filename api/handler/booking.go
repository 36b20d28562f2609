package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/bizdesk/api/transport"
	"github.com/fastygo/bizdesk/domain"
	"github.com/fastygo/bizdesk/pkg/httpcontext"
	"github.com/fastygo/bizdesk/repository"
	bookingUC "github.com/fastygo/bizdesk/usecase/booking"
)

type BookingHandler struct {
	baseHandler
	uc *bookingUC.UseCase
}

func NewBookingHandler(uc *bookingUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Create booking
// @Tags bookings
// @Router /api/v1/bookings [post]
func (h *BookingHandler) Create(ctx *fasthttp.RequestCtx) {
	var req transport.BookingRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	booking, err := h.uc.CreateBooking(stdCtx, bookingUC.CreateInput{
		ID:             req.ID,
		BusinessID:     tenantOr(stdCtx, req.BusinessID),
		CommerceID:     req.CommerceID,
		ClientID:       req.ClientID,
		ServiceID:      req.ServiceID,
		ProfessionalID: req.ProfessionalID,
		StartAt:        req.StartAt,
		EndAt:          req.EndAt,
		Status:         req.Status,
		Notes:          req.Notes,
		Price:          req.Price,
		Metadata:       req.Metadata,
	})
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, booking)
}

// @Summary Get booking
// @Tags bookings
// @Router /api/v1/bookings/{id} [get]
func (h *BookingHandler) Get(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	booking, err := h.uc.GetBooking(stdCtx, pathID(ctx))
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, booking)
}

// @Summary List bookings
// @Tags bookings
// @Router /api/v1/bookings [get]
func (h *BookingHandler) List(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	from, err := parseTime(query(ctx, "from"))
	if err != nil {
		h.respondError(stdCtx, ctx, domain.Invalidf("from must be RFC3339"))
		return
	}
	to, err := parseTime(query(ctx, "to"))
	if err != nil {
		h.respondError(stdCtx, ctx, domain.Invalidf("to must be RFC3339"))
		return
	}

	offset, limit := page(ctx)
	bookings, err := h.uc.ListBookings(stdCtx, repository.BookingFilter{
		BusinessID:     tenantOr(stdCtx, query(ctx, "businessId")),
		CommerceID:     query(ctx, "commerceId"),
		ClientID:       query(ctx, "clientId"),
		ProfessionalID: query(ctx, "professionalId"),
		Status:         query(ctx, "status"),
		From:           from,
		To:             to,
		Offset:         offset,
		Limit:          limit,
	})
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondPage(ctx, bookings, transport.PageMeta{Offset: offset, Limit: repository.ClampLimit(limit), Count: len(bookings)})
}

// @Summary Update booking
// @Tags bookings
// @Router /api/v1/bookings/{id} [patch]
func (h *BookingHandler) Update(ctx *fasthttp.RequestCtx) {
	var req transport.BookingPatchRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	booking, err := h.uc.UpdateBooking(stdCtx, pathID(ctx), domain.BookingPatch{
		ServiceID:      req.ServiceID,
		ProfessionalID: req.ProfessionalID,
		StartAt:        req.StartAt,
		EndAt:          req.EndAt,
		Notes:          req.Notes,
		Price:          req.Price,
		Metadata:       req.Metadata,
	})
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, booking)
}

// @Summary Change booking status
// @Tags bookings
// @Router /api/v1/bookings/{id}/status [put]
func (h *BookingHandler) ChangeStatus(ctx *fasthttp.RequestCtx) {
	var req transport.StatusRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	booking, err := h.uc.ChangeStatus(stdCtx, pathID(ctx), req.Status)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, booking)
}

// @Summary Cancel booking
// @Tags bookings
// @Router /api/v1/bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(ctx *fasthttp.RequestCtx) {
	var req transport.CancelRequest
	if len(ctx.PostBody()) > 0 && !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	booking, err := h.uc.Cancel(stdCtx, pathID(ctx), req.Reason)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, booking)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}
