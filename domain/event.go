package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Metadata keys shared by producers and the projection consumer.
const (
	MetaUser          = "user"
	MetaOrigin        = "origin"
	MetaCorrelationID = "correlationId"
	MetaBusinessID    = "businessId"
	MetaCommerceID    = "commerceId"
)

// AttrID is the attribute the publisher routes on. It always holds the aggregate identifier.
const AttrID = "id"

// Metadata carries actor and provenance information attached to an event.
type Metadata map[string]interface{}

// DefaultMetadata returns the base metadata every event starts with.
func DefaultMetadata() Metadata {
	return Metadata{
		MetaUser:   "system",
		MetaOrigin: "bizdesk",
	}
}

// MergeMetadata layers overrides on top of defaults. Keys present in overrides
// win; defaults only fill the gaps. Neither input is modified.
func MergeMetadata(defaults, overrides Metadata) Metadata {
	out := make(Metadata, len(defaults)+len(overrides))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// EventData is the routed part of the envelope.
type EventData struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	OccurredOn time.Time              `json:"occurredOn"`
	Attributes map[string]interface{} `json:"attributes"`
}

// Event is the immutable envelope handed to the publisher once a write has committed.
type Event struct {
	Data     EventData `json:"data"`
	Metadata Metadata  `json:"metadata"`
}

// NewEvent creates an envelope with a fresh instance id and default metadata.
// Attributes and metadata are assigned afterwards by the producing service.
func NewEvent(eventType string, occurredOn time.Time) *Event {
	return &Event{
		Data: EventData{
			ID:         uuid.NewString(),
			Type:       eventType,
			OccurredOn: occurredOn,
			Attributes: map[string]interface{}{},
		},
		Metadata: DefaultMetadata(),
	}
}

// SetAttributes stores a shallow copy of attrs. The envelope does not check that
// an "id" attribute is present; producers are responsible for setting it.
func (e *Event) SetAttributes(attrs map[string]interface{}) {
	copied := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}
	e.Data.Attributes = copied
}

// SetMetadata merges md over DefaultMetadata. A nil md keeps the defaults.
func (e *Event) SetMetadata(md Metadata) {
	e.Metadata = MergeMetadata(DefaultMetadata(), md)
}

// Type returns the dotted event type.
func (e *Event) Type() string {
	if e == nil {
		return ""
	}
	return e.Data.Type
}

// AggregateID returns the routing identifier stored under the "id" attribute.
func (e *Event) AggregateID() string {
	if e == nil {
		return ""
	}
	id, _ := e.Data.Attributes[AttrID].(string)
	return id
}

// Marshal encodes the event in its wire shape.
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Snapshot converts an entity into an attribute map using its JSON field names.
func Snapshot(v interface{}) map[string]interface{} {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]interface{}{}
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]interface{}{}
	}
	return out
}
