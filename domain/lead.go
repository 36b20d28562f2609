package domain

import (
	"strings"
	"time"
)

// PipelineStage is the coarse lifecycle position of a lead.
type PipelineStage string

const (
	StageNew       PipelineStage = "NEW"
	StageInContact PipelineStage = "IN_CONTACT"
	StageWaitlist  PipelineStage = "WAITLIST"
	StageInDeal    PipelineStage = "IN_DEAL"
	StageClosed    PipelineStage = "CLOSED"
	StageArchived  PipelineStage = "ARCHIVED"
)

var pipelineStages = map[PipelineStage]struct{}{
	StageNew: {}, StageInContact: {}, StageWaitlist: {}, StageInDeal: {}, StageClosed: {}, StageArchived: {},
}

// ParsePipelineStage validates a stage name. Any stage may follow any other.
func ParsePipelineStage(value string) (PipelineStage, error) {
	stage := PipelineStage(strings.ToUpper(strings.TrimSpace(value)))
	if _, ok := pipelineStages[stage]; !ok {
		return "", Invalidf("unknown pipeline stage %q", value)
	}
	return stage, nil
}

// LeadStatus sub-classifies a lead, mostly once it is CLOSED.
type LeadStatus string

const (
	LeadInterested LeadStatus = "INTERESTED"
	LeadRejected   LeadStatus = "REJECTED"
	LeadMaybeLater LeadStatus = "MAYBE_LATER"
	LeadSuccess    LeadStatus = "SUCCESS"
)

// ParseLeadStatus validates a status name.
func ParseLeadStatus(value string) (LeadStatus, error) {
	status := LeadStatus(strings.ToUpper(strings.TrimSpace(value)))
	switch status {
	case LeadInterested, LeadRejected, LeadMaybeLater, LeadSuccess:
		return status, nil
	}
	return "", Invalidf("unknown lead status %q", value)
}

// Lead is a prospective client. Leads captured by public contact forms carry no
// tenant ids until a business claims them.
type Lead struct {
	ID                    string            `json:"id" bson:"_id"`
	BusinessID            string            `json:"businessId,omitempty" bson:"businessId,omitempty"`
	CommerceID            string            `json:"commerceId,omitempty" bson:"commerceId,omitempty"`
	Name                  string            `json:"name" bson:"name"`
	Email                 string            `json:"email,omitempty" bson:"email,omitempty"`
	Phone                 string            `json:"phone,omitempty" bson:"phone,omitempty"`
	Source                string            `json:"source" bson:"source"`
	Message               string            `json:"message,omitempty" bson:"message,omitempty"`
	Notes                 string            `json:"notes,omitempty" bson:"notes,omitempty"`
	PipelineStage         PipelineStage     `json:"pipelineStage" bson:"pipelineStage"`
	Status                *LeadStatus       `json:"status" bson:"status"`
	AssignedUserID        string            `json:"assignedUserId,omitempty" bson:"assignedUserId,omitempty"`
	Metadata              map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty"`
	LastContactedAt       *time.Time        `json:"lastContactedAt,omitempty" bson:"lastContactedAt,omitempty"`
	LastContactedByUserID string            `json:"lastContactedByUserId,omitempty" bson:"lastContactedByUserId,omitempty"`
	ConvertedAt           *time.Time        `json:"convertedAt,omitempty" bson:"convertedAt,omitempty"`
	ConvertedClientID     string            `json:"convertedClientId,omitempty" bson:"convertedClientId,omitempty"`
	Active                bool              `json:"active" bson:"active"`
	CreatedAt             time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt             time.Time         `json:"updatedAt" bson:"updatedAt"`
}

func (l *Lead) EntityID() string { return l.ID }
func (l *Lead) SetEntityID(id string) { l.ID = id }
func (l *Lead) CreatedTime() time.Time { return l.CreatedAt }

// Touch refreshes UpdatedAt and sets CreatedAt on first write.
func (l *Lead) Touch(at time.Time) {
	l.UpdatedAt = at
	if l.CreatedAt.IsZero() {
		l.CreatedAt = at
	}
}
func (l *Lead) IsConverted() bool { return l != nil && l.ConvertedAt != nil }
func (l *Lead) IsUnclaimed() bool { return l != nil && l.BusinessID == "" && l.CommerceID == "" }
func (l *Lead) StatusValue() string {
	if l == nil || l.Status == nil {
		return ""
	}
	return string(*l.Status)
}

// MarkContacted records who last reached out to the lead. The fields only move
// forward in time; an outreach older than the recorded one is ignored and
// MarkContacted reports false.
func (l *Lead) MarkContacted(userID string, at time.Time) bool {
	if l.LastContactedAt != nil && !l.LastContactedAt.Before(at) {
		return false
	}
	contacted := at
	l.LastContactedAt = &contacted
	l.LastContactedByUserID = userID
	return true
}

// LeadPatch is a partial update. Nil fields are left untouched.
type LeadPatch struct {
	BusinessID     *string
	CommerceID     *string
	Name           *string
	Email          *string
	Phone          *string
	Source         *string
	Notes          *string
	AssignedUserID *string
	Metadata       map[string]string
	Active         *bool
}

// Apply copies the non-nil fields of p onto l and returns the changed attribute names.
func (p LeadPatch) Apply(l *Lead) []string {
	var changed []string
	setString(&changed, "businessId", p.BusinessID, &l.BusinessID)
	setString(&changed, "commerceId", p.CommerceID, &l.CommerceID)
	setString(&changed, "name", p.Name, &l.Name)
	setString(&changed, "email", p.Email, &l.Email)
	setString(&changed, "phone", p.Phone, &l.Phone)
	setString(&changed, "source", p.Source, &l.Source)
	setString(&changed, "notes", p.Notes, &l.Notes)
	setString(&changed, "assignedUserId", p.AssignedUserID, &l.AssignedUserID)
	if p.Metadata != nil {
		l.Metadata = p.Metadata
		changed = append(changed, "metadata")
	}
	if p.Active != nil && *p.Active != l.Active {
		l.Active = *p.Active
		changed = append(changed, "active")
	}
	return changed
}

// ContactType describes the channel used to reach a lead.
type ContactType string

const (
	ContactCall     ContactType = "CALL"
	ContactEmail    ContactType = "EMAIL"
	ContactWhatsApp ContactType = "WHATSAPP"
	ContactMeeting  ContactType = "MEETING"
	ContactNote     ContactType = "NOTE"
)

// ParseContactType validates a contact channel, defaulting to NOTE.
func ParseContactType(value string) (ContactType, error) {
	if strings.TrimSpace(value) == "" {
		return ContactNote, nil
	}
	t := ContactType(strings.ToUpper(strings.TrimSpace(value)))
	switch t {
	case ContactCall, ContactEmail, ContactWhatsApp, ContactMeeting, ContactNote:
		return t, nil
	}
	return "", Invalidf("unknown contact type %q", value)
}

// LeadContact is a log entry appended to a lead each time someone reaches out.
type LeadContact struct {
	ID                string      `json:"id" bson:"_id"`
	LeadID            string      `json:"leadId" bson:"leadId"`
	BusinessID        string      `json:"businessId,omitempty" bson:"businessId,omitempty"`
	CommerceID        string      `json:"commerceId,omitempty" bson:"commerceId,omitempty"`
	Type              ContactType `json:"type" bson:"type"`
	Comment           string      `json:"comment,omitempty" bson:"comment,omitempty"`
	ContactedByUserID string      `json:"contactedByUserId,omitempty" bson:"contactedByUserId,omitempty"`
	ContactedAt       time.Time   `json:"contactedAt" bson:"contactedAt"`
	CreatedAt         time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt" bson:"updatedAt"`
}

func (c *LeadContact) EntityID() string { return c.ID }
func (c *LeadContact) SetEntityID(id string) { c.ID = id }
func (c *LeadContact) CreatedTime() time.Time { return c.CreatedAt }

func (c *LeadContact) Touch(at time.Time) {
	c.UpdatedAt = at
	if c.CreatedAt.IsZero() {
		c.CreatedAt = at
	}
}

func setString(changed *[]string, name string, value *string, target *string) {
	if value == nil || *value == *target {
		return
	}
	*target = *value
	*changed = append(*changed, name)
}
