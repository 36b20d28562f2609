package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/bizdesk/domain"
	"github.com/fastygo/bizdesk/internal/infrastructure/monitor"
	"github.com/fastygo/bizdesk/pkg/httpcontext"
	"github.com/fastygo/bizdesk/repository/memory"
	"github.com/fastygo/bizdesk/usecase"
	"github.com/fastygo/bizdesk/usecase/eventtest"
	bookingUC "github.com/fastygo/bizdesk/usecase/booking"
	leadUC "github.com/fastygo/bizdesk/usecase/lead"
	roleUC "github.com/fastygo/bizdesk/usecase/role"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Meta   json.RawMessage `json:"meta"`
}

func newRequest(method, body string, principal *domain.Principal, id string) *fasthttp.RequestCtx {
	rc := &fasthttp.RequestCtx{}
	rc.Request.Header.SetMethod(method)
	if body != "" {
		rc.Request.SetBodyString(body)
	}
	if principal != nil {
		httpcontext.SetPrincipal(rc, *principal)
	}
	if id != "" {
		rc.SetUserValue("id", id)
	}
	return rc
}

func readEnvelope(t *testing.T, rc *fasthttp.RequestCtx) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rc.Response.Body(), &env))
	return env
}

func newLeadHandler(rec *eventtest.Recorder) *LeadHandler {
	uc := leadUC.New(memory.New[*domain.Lead](), memory.New[*domain.LeadContact](), rec, nil,
		usecase.WithClock(func() time.Time { return fixedNow }))
	return NewLeadHandler(uc, nil, nil)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrLeadNotFound, http.StatusNotFound, "NOT_FOUND"},
		{domain.Invalidf("bad"), http.StatusBadRequest, "INVALID"},
		{domain.Conflictf("taken"), http.StatusConflict, "CONFLICT"},
		{domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{domain.NewError(domain.ErrCodeForbidden, "no"), http.StatusForbidden, "FORBIDDEN"},
		{domain.WrapError(domain.ErrCodePublishFailed, "event publish failed", errors.New("broker down")), http.StatusBadGateway, "PUBLISH_FAILED"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		status, code := mapError(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func TestCreatePublicLead(t *testing.T) {
	rec := &eventtest.Recorder{}
	h := newLeadHandler(rec)

	rc := newRequest(http.MethodPost, `{"id":"L1","name":"Ann","email":"a@x.com","source":"contact-form","assignedUserId":"U9"}`, nil, "")
	h.CreatePublic(rc)

	require.Equal(t, http.StatusCreated, rc.Response.StatusCode())
	env := readEnvelope(t, rc)
	assert.Equal(t, "success", env.Status)

	var lead domain.Lead
	require.NoError(t, json.Unmarshal(env.Data, &lead))
	assert.Equal(t, "L1", lead.ID)
	assert.Equal(t, domain.StageNew, lead.PipelineStage)
	assert.Nil(t, lead.Status)
	assert.Empty(t, lead.AssignedUserID)

	assert.Equal(t, []string{domain.EventLeadCreated}, rec.Types())
	assert.Equal(t, "L1", rec.Last().AggregateID())
	assert.NotEmpty(t, string(rc.Response.Header.Peek(httpcontext.HeaderRequestID)))
}

func TestCreateLeadUsesPrincipalTenant(t *testing.T) {
	rec := &eventtest.Recorder{}
	h := newLeadHandler(rec)

	rc := newRequest(http.MethodPost, `{"name":"Bo","phone":"+34600000000"}`, &domain.Principal{UserID: "U1", BusinessID: "B1"}, "")
	h.Create(rc)

	require.Equal(t, http.StatusCreated, rc.Response.StatusCode())
	var lead domain.Lead
	require.NoError(t, json.Unmarshal(readEnvelope(t, rc).Data, &lead))
	assert.Equal(t, "B1", lead.BusinessID)
	assert.Equal(t, "U1", rec.Last().Metadata[domain.MetaUser])
}

func TestInvalidPayloadIsBadRequest(t *testing.T) {
	rec := &eventtest.Recorder{}
	h := newLeadHandler(rec)

	rc := newRequest(http.MethodPost, `{"name":`, nil, "")
	h.Create(rc)

	assert.Equal(t, http.StatusBadRequest, rc.Response.StatusCode())
	assert.Equal(t, "INVALID", readEnvelope(t, rc).Code)
	assert.Zero(t, rec.Attempts())
}

func TestUpdateStageOnMissingLead(t *testing.T) {
	rec := &eventtest.Recorder{}
	h := newLeadHandler(rec)

	rc := newRequest(http.MethodPut, `{"stage":"IN_CONTACT"}`, &domain.Principal{UserID: "U1"}, "does-not-exist")
	h.UpdateStage(rc)

	assert.Equal(t, http.StatusNotFound, rc.Response.StatusCode())
	assert.Equal(t, "NOT_FOUND", readEnvelope(t, rc).Code)
	assert.Empty(t, rec.Events())
}

func TestPublishFailureIsBadGateway(t *testing.T) {
	rec := &eventtest.Recorder{Err: errors.New("broker down")}
	h := newLeadHandler(rec)

	rc := newRequest(http.MethodPost, `{"id":"L2","name":"Cy","email":"c@x.com"}`, &domain.Principal{UserID: "U1", BusinessID: "B1"}, "")
	h.Create(rc)
	assert.Equal(t, http.StatusBadGateway, rc.Response.StatusCode())

	get := newRequest(http.MethodGet, "", &domain.Principal{UserID: "U1", BusinessID: "B1"}, "L2")
	h.Get(get)
	assert.Equal(t, http.StatusOK, get.Response.StatusCode())
}

func TestListLeadsPage(t *testing.T) {
	rec := &eventtest.Recorder{}
	h := newLeadHandler(rec)
	principal := &domain.Principal{UserID: "U1", BusinessID: "B1"}

	for _, body := range []string{
		`{"id":"L1","name":"Ann","email":"a@x.com"}`,
		`{"id":"L2","name":"Bo","email":"b@x.com"}`,
	} {
		rc := newRequest(http.MethodPost, body, principal, "")
		h.Create(rc)
		require.Equal(t, http.StatusCreated, rc.Response.StatusCode())
	}

	rc := newRequest(http.MethodGet, "", principal, "")
	rc.Request.SetRequestURI("/api/v1/leads?limit=1")
	h.List(rc)

	require.Equal(t, http.StatusOK, rc.Response.StatusCode())
	env := readEnvelope(t, rc)
	var leads []domain.Lead
	require.NoError(t, json.Unmarshal(env.Data, &leads))
	assert.Len(t, leads, 1)
	assert.JSONEq(t, `{"offset":0,"limit":1,"count":1}`, string(env.Meta))
}

func TestListLeadsWithoutTenant(t *testing.T) {
	h := newLeadHandler(&eventtest.Recorder{})

	rc := newRequest(http.MethodGet, "", &domain.Principal{UserID: "U1"}, "")
	h.List(rc)

	assert.Equal(t, http.StatusBadRequest, rc.Response.StatusCode())
}

func TestBookingLifecycle(t *testing.T) {
	rec := &eventtest.Recorder{}
	uc := bookingUC.New(memory.New[*domain.Booking](), rec, nil, usecase.WithClock(func() time.Time { return fixedNow }))
	h := NewBookingHandler(uc, nil, nil)
	principal := &domain.Principal{UserID: "U1", BusinessID: "B1"}

	create := newRequest(http.MethodPost, `{"id":"BK1","commerceId":"C1","clientId":"CL1","startAt":"2024-05-02T10:00:00Z","endAt":"2024-05-02T11:00:00Z","price":25}`, principal, "")
	h.Create(create)
	require.Equal(t, http.StatusCreated, create.Response.StatusCode())

	cancel := newRequest(http.MethodPost, `{"reason":"client asked"}`, principal, "BK1")
	h.Cancel(cancel)
	require.Equal(t, http.StatusOK, cancel.Response.StatusCode())

	var booking domain.Booking
	require.NoError(t, json.Unmarshal(readEnvelope(t, cancel).Data, &booking))
	assert.Equal(t, domain.BookingCancelled, booking.Status)
	assert.Equal(t, "U1", booking.CancelledByUserID)

	again := newRequest(http.MethodPost, "", principal, "BK1")
	h.Cancel(again)
	assert.Equal(t, http.StatusConflict, again.Response.StatusCode())

	badWindow := newRequest(http.MethodGet, "", principal, "")
	badWindow.Request.SetRequestURI("/api/v1/bookings?from=yesterday")
	h.List(badWindow)
	assert.Equal(t, http.StatusBadRequest, badWindow.Response.StatusCode())

	assert.Equal(t, []string{domain.EventBookingCreated, domain.EventBookingStatusChange}, rec.Types())
}

func TestRoleDuplicateNameConflict(t *testing.T) {
	rec := &eventtest.Recorder{}
	uc := roleUC.New(memory.New[*domain.Role](), rec, nil)
	h := NewRoleHandler(uc, nil, nil)
	principal := &domain.Principal{UserID: "U1", BusinessID: "B1"}

	first := newRequest(http.MethodPost, `{"id":"R1","name":"Sales","permissions":["Leads.Read"]}`, principal, "")
	h.Create(first)
	require.Equal(t, http.StatusCreated, first.Response.StatusCode())

	dup := newRequest(http.MethodPost, `{"name":" Sales "}`, principal, "")
	h.Create(dup)
	assert.Equal(t, http.StatusConflict, dup.Response.StatusCode())

	deactivate := newRequest(http.MethodDelete, "", principal, "R1")
	h.Deactivate(deactivate)
	assert.Equal(t, http.StatusOK, deactivate.Response.StatusCode())

	assert.Equal(t, []string{domain.EventRoleCreated, domain.EventRoleDeactivated}, rec.Types())
}

type stubStatus struct {
	online bool
	status monitor.Status
}

func (s stubStatus) IsOnline() bool            { return s.online }
func (s stubStatus) GetStatus() monitor.Status { return s.status }

func TestHealth(t *testing.T) {
	status := monitor.Status{Components: map[string]bool{"mongo": true}, Outbox: true, OutboxSize: 3, LastCheck: fixedNow}

	up := newRequest(http.MethodGet, "", nil, "")
	NewHealthHandler(stubStatus{online: true, status: status}, nil, nil).Check(up)
	assert.Equal(t, http.StatusOK, up.Response.StatusCode())
	assert.Contains(t, string(up.Response.Body()), `"mongo":true`)

	down := newRequest(http.MethodGet, "", nil, "")
	NewHealthHandler(stubStatus{status: status}, nil, nil).Check(down)
	assert.Equal(t, http.StatusServiceUnavailable, down.Response.StatusCode())
	assert.Equal(t, "DEGRADED", readEnvelope(t, down).Code)
}
