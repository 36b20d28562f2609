package publisher

import (
	"context"
	"fmt"
	"strings"

	natsgo "github.com/nats-io/nats.go"

	"github.com/fastygo/bizdesk/domain"
)

// MsgPublisher is satisfied by *nats.Conn.
type MsgPublisher interface {
	PublishMsg(msg *natsgo.Msg) error
}

// NATS publishes each event on "<prefix>.<event type>". The event id travels in
// the Nats-Msg-Id header so a JetStream stream on those subjects de-duplicates retries.
type NATS struct {
	conn   MsgPublisher
	prefix string
}

// ConnectNATS dials url with a bounded reconnect policy.
func ConnectNATS(url, name string, maxReconnects int) (*natsgo.Conn, error) {
	return natsgo.Connect(url,
		natsgo.Name(name),
		natsgo.MaxReconnects(maxReconnects),
	)
}

func NewNATS(conn MsgPublisher, prefix string) *NATS {
	return &NATS{conn: conn, prefix: strings.TrimSuffix(prefix, ".")}
}

// Subject returns the subject evt is published on.
func (p *NATS) Subject(evt *domain.Event) string {
	if p.prefix == "" {
		return evt.Type()
	}
	return p.prefix + "." + evt.Type()
}

func (p *NATS) Publish(ctx context.Context, evt *domain.Event) error {
	if evt == nil {
		return domain.ErrInvalidPayload
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := evt.Marshal()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := natsgo.NewMsg(p.Subject(evt))
	msg.Data = data
	msg.Header.Set(natsgo.MsgIdHdr, evt.Data.ID)
	msg.Header.Set("Aggregate-Id", evt.AggregateID())
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats publish %s: %w", msg.Subject, err)
	}
	return nil
}
