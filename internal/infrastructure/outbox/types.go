package outbox

import (
	"encoding/json"
	"time"

	"github.com/fastygo/bizdesk/domain"
)

// Item is one committed event waiting to be relayed to the bus.
type Item struct {
	ID          string          `json:"id"`
	AggregateID string          `json:"aggregate_id"`
	EventType   string          `json:"event_type"`
	Event       json.RawMessage `json:"event"`
	Retries     int             `json:"retries"`
	LastError   string          `json:"last_error,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`

	bucketKey []byte
}

// NewItem serialises evt into an outbox item keyed by the event instance id.
func NewItem(evt *domain.Event) (Item, error) {
	if evt == nil {
		return Item{}, domain.ErrInvalidPayload
	}
	payload, err := evt.Marshal()
	if err != nil {
		return Item{}, err
	}
	return Item{
		ID:          evt.Data.ID,
		AggregateID: evt.AggregateID(),
		EventType:   evt.Type(),
		Event:       payload,
	}, nil
}

// Decode restores the stored event.
func (i Item) Decode() (*domain.Event, error) {
	var evt domain.Event
	if err := json.Unmarshal(i.Event, &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}

func (i *Item) normalize() {
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
