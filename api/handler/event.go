package handler

import (
	"context"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/bizdesk/api/transport"
	"github.com/fastygo/bizdesk/domain"
	"github.com/fastygo/bizdesk/pkg/httpcontext"
	"github.com/fastygo/bizdesk/repository/postgres"
)

const defaultReplaySize = 100

// EventJournal is satisfied by *postgres.Journal.
type EventJournal interface {
	ListByAggregate(ctx context.Context, aggregateID string, limit int) ([]postgres.JournalEntry, error)
}

// EventHandler replays recorded events so projections can rebuild one aggregate.
type EventHandler struct {
	baseHandler
	journal EventJournal
}

func NewEventHandler(journal EventJournal, adapter *httpcontext.Adapter, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		baseHandler: newBaseHandler(adapter, logger),
		journal:     journal,
	}
}

// @Summary Replay aggregate events
// @Tags events
// @Router /api/v1/events/{id} [get]
func (h *EventHandler) ListByAggregate(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	aggregateID := strings.TrimSpace(pathID(ctx))
	if aggregateID == "" {
		h.respondError(stdCtx, ctx, domain.Invalidf("aggregate id is required"))
		return
	}
	limit := parseInt(query(ctx, "limit"), defaultReplaySize)

	entries, err := h.journal.ListByAggregate(stdCtx, aggregateID, limit)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	if entries == nil {
		entries = []postgres.JournalEntry{}
	}
	h.respondPage(ctx, entries, transport.PageMeta{Limit: limit, Count: len(entries)})
}
