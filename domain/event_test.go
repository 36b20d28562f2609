package domain

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeMetadata(t *testing.T) {
	defaults := Metadata{"a": 1, "b": 2}
	overrides := Metadata{"b": 9, "c": 3}

	merged := MergeMetadata(defaults, overrides)

	assert.Equal(t, Metadata{"a": 1, "b": 9, "c": 3}, merged)
	assert.Equal(t, Metadata{"a": 1, "b": 2}, defaults, "defaults must not be mutated")
	assert.Equal(t, Metadata{"b": 9, "c": 3}, overrides, "overrides must not be mutated")
}

func TestEventSetMetadata(t *testing.T) {
	evt := NewEvent(EventLeadCreated, time.Now())
	assert.Equal(t, DefaultMetadata(), evt.Metadata)

	evt.SetMetadata(nil)
	assert.Equal(t, DefaultMetadata(), evt.Metadata)

	evt.SetMetadata(Metadata{MetaUser: "U1", MetaCorrelationID: "req-1"})
	assert.Equal(t, "U1", evt.Metadata[MetaUser])
	assert.Equal(t, "bizdesk", evt.Metadata[MetaOrigin])
	assert.Equal(t, "req-1", evt.Metadata[MetaCorrelationID])
}

func TestEventAttributesAreCopied(t *testing.T) {
	attrs := map[string]interface{}{"id": "L1"}
	evt := NewEvent(EventLeadCreated, time.Now())
	evt.SetAttributes(attrs)
	attrs["id"] = "other"

	assert.Equal(t, "L1", evt.AggregateID())
}

func TestEventWireShape(t *testing.T) {
	occurred := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	evt := NewEvent(EventLeadCreated, occurred)
	evt.SetAttributes(map[string]interface{}{"id": "L1", "name": "Ann"})
	evt.SetMetadata(Metadata{MetaUser: "U1"})

	raw, err := evt.Marshal()
	require.NoError(t, err)

	var wire struct {
		Data struct {
			ID         string                 `json:"id"`
			Type       string                 `json:"type"`
			OccurredOn string                 `json:"occurredOn"`
			Attributes map[string]interface{} `json:"attributes"`
		} `json:"data"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(raw, &wire))

	assert.NotEmpty(t, wire.Data.ID)
	assert.Equal(t, "ett.lead.1.event.lead.created", wire.Data.Type)
	assert.Equal(t, "2026-03-01T10:00:00Z", wire.Data.OccurredOn)
	assert.Equal(t, "L1", wire.Data.Attributes["id"])
	assert.Equal(t, "U1", wire.Metadata["user"])
}

func TestEventInstanceIDsAreUnique(t *testing.T) {
	a := NewEvent(EventLeadCreated, time.Now())
	b := NewEvent(EventLeadCreated, time.Now())
	assert.NotEqual(t, a.Data.ID, b.Data.ID)
}

var eventTypePattern = regexp.MustCompile(`^ett\.[a-z]+\.[1-9][0-9]*\.event\.[a-z-]+\.[a-z-]+$`)

func TestEventTypesFollowNamingScheme(t *testing.T) {
	for _, typ := range []string{
		EventLeadCreated, EventLeadUpdated, EventLeadStageChanged, EventLeadConverted, EventLeadContactCreated,
		EventBookingCreated, EventBookingUpdated, EventBookingStatusChange,
		EventRoleCreated, EventRoleUpdated, EventRoleDeactivated,
	} {
		assert.Regexp(t, eventTypePattern, typ)
	}
}

func TestLeadContactCreatedAliasesParentID(t *testing.T) {
	contact := &LeadContact{ID: "contact-1", LeadID: "L1", Type: ContactCall}
	evt := NewLeadContactCreated(contact, time.Now(), nil)

	assert.Equal(t, "L1", evt.AggregateID())
	assert.Equal(t, "contact-1", evt.Data.Attributes["contactId"])
	assert.Equal(t, "L1", evt.Data.Attributes["leadId"])
}

func TestLeadStageChangedCarriesDelta(t *testing.T) {
	success := LeadSuccess
	lead := &Lead{ID: "L1", PipelineStage: StageClosed, Status: &success}
	evt := NewLeadStageChanged(lead, StageInDeal, nil, time.Now(), Metadata{MetaUser: "U1"})

	assert.Equal(t, "IN_DEAL", evt.Data.Attributes["oldStage"])
	assert.Equal(t, "CLOSED", evt.Data.Attributes["newStage"])
	assert.Nil(t, evt.Data.Attributes["oldStatus"])
	assert.Equal(t, "SUCCESS", evt.Data.Attributes["newStatus"])
}
