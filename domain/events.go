package domain

import "time"

// Event types published by the write path.
const (
	EventLeadCreated         = "ett.lead.1.event.lead.created"
	EventLeadUpdated         = "ett.lead.1.event.lead.updated"
	EventLeadStageChanged    = "ett.lead.1.event.lead.stage-changed"
	EventLeadConverted       = "ett.lead.1.event.lead.converted"
	EventLeadContactCreated  = "ett.lead.1.event.lead-contact.created"
	EventBookingCreated      = "ett.booking.1.event.booking.created"
	EventBookingUpdated      = "ett.booking.1.event.booking.updated"
	EventBookingStatusChange = "ett.booking.1.event.booking.status-changed"
	EventRoleCreated         = "ett.role.1.event.role.created"
	EventRoleUpdated         = "ett.role.1.event.role.updated"
	EventRoleDeactivated     = "ett.role.1.event.role.deactivated"
)

func newSnapshotEvent(eventType string, entity interface{}, id string, occurredOn time.Time, md Metadata) *Event {
	attrs := Snapshot(entity)
	attrs[AttrID] = id
	evt := NewEvent(eventType, occurredOn)
	evt.SetAttributes(attrs)
	evt.SetMetadata(md)
	return evt
}

func NewLeadCreated(lead *Lead, occurredOn time.Time, md Metadata) *Event {
	return newSnapshotEvent(EventLeadCreated, lead, lead.ID, occurredOn, md)
}

func NewLeadUpdated(lead *Lead, changed []string, occurredOn time.Time, md Metadata) *Event {
	evt := newSnapshotEvent(EventLeadUpdated, lead, lead.ID, occurredOn, md)
	evt.Data.Attributes["changedFields"] = changedList(changed)
	return evt
}

// NewLeadStageChanged carries both sides of the transition so consumers can react to the delta.
func NewLeadStageChanged(lead *Lead, oldStage PipelineStage, oldStatus *LeadStatus, occurredOn time.Time, md Metadata) *Event {
	evt := newSnapshotEvent(EventLeadStageChanged, lead, lead.ID, occurredOn, md)
	evt.Data.Attributes["oldStage"] = string(oldStage)
	evt.Data.Attributes["newStage"] = string(lead.PipelineStage)
	evt.Data.Attributes["oldStatus"] = statusAttr(oldStatus)
	evt.Data.Attributes["newStatus"] = statusAttr(lead.Status)
	return evt
}

func NewLeadConverted(lead *Lead, userID string, occurredOn time.Time, md Metadata) *Event {
	evt := newSnapshotEvent(EventLeadConverted, lead, lead.ID, occurredOn, md)
	evt.Data.Attributes["clientId"] = lead.ConvertedClientID
	evt.Data.Attributes["convertedByUserId"] = userID
	return evt
}

// NewLeadContactCreated routes the contact under its parent lead: "id" holds the
// lead id and the contact's own id travels as "contactId". Projection consumers
// key contact rows on that aliasing.
func NewLeadContactCreated(contact *LeadContact, occurredOn time.Time, md Metadata) *Event {
	evt := newSnapshotEvent(EventLeadContactCreated, contact, contact.LeadID, occurredOn, md)
	evt.Data.Attributes["contactId"] = contact.ID
	return evt
}

func NewBookingCreated(b *Booking, occurredOn time.Time, md Metadata) *Event {
	return newSnapshotEvent(EventBookingCreated, b, b.ID, occurredOn, md)
}

func NewBookingUpdated(b *Booking, changed []string, occurredOn time.Time, md Metadata) *Event {
	evt := newSnapshotEvent(EventBookingUpdated, b, b.ID, occurredOn, md)
	evt.Data.Attributes["changedFields"] = changedList(changed)
	return evt
}

func NewBookingStatusChanged(b *Booking, oldStatus BookingStatus, occurredOn time.Time, md Metadata) *Event {
	evt := newSnapshotEvent(EventBookingStatusChange, b, b.ID, occurredOn, md)
	evt.Data.Attributes["oldStatus"] = string(oldStatus)
	evt.Data.Attributes["newStatus"] = string(b.Status)
	return evt
}

func NewRoleCreated(r *Role, occurredOn time.Time, md Metadata) *Event {
	return newSnapshotEvent(EventRoleCreated, r, r.ID, occurredOn, md)
}

func NewRoleUpdated(r *Role, changed []string, occurredOn time.Time, md Metadata) *Event {
	evt := newSnapshotEvent(EventRoleUpdated, r, r.ID, occurredOn, md)
	evt.Data.Attributes["changedFields"] = changedList(changed)
	return evt
}

func NewRoleDeactivated(r *Role, occurredOn time.Time, md Metadata) *Event {
	return newSnapshotEvent(EventRoleDeactivated, r, r.ID, occurredOn, md)
}

func statusAttr(status *LeadStatus) interface{} {
	if status == nil {
		return nil
	}
	return string(*status)
}

func changedList(changed []string) []string {
	if changed == nil {
		return []string{}
	}
	return changed
}
