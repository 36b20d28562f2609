package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePipelineStage(t *testing.T) {
	tests := []struct {
		in   string
		want PipelineStage
		ok   bool
	}{
		{"NEW", StageNew, true},
		{"in_contact", StageInContact, true},
		{" WAITLIST ", StageWaitlist, true},
		{"IN_DEAL", StageInDeal, true},
		{"CLOSED", StageClosed, true},
		{"ARCHIVED", StageArchived, true},
		{"LOST", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, err := ParsePipelineStage(tt.in)
		if !tt.ok {
			assert.True(t, IsDomainError(err, ErrCodeInvalid), tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestLeadPatchApply(t *testing.T) {
	lead := &Lead{ID: "L1", Name: "Ann", Email: "a@x.com", Active: true}
	name := "Ann Smith"
	same := "a@x.com"
	inactive := false

	changed := LeadPatch{Name: &name, Email: &same, Active: &inactive}.Apply(lead)

	assert.Equal(t, []string{"name", "active"}, changed)
	assert.Equal(t, "L1", lead.ID)
	assert.Equal(t, "Ann Smith", lead.Name)
	assert.Equal(t, "a@x.com", lead.Email)
	assert.False(t, lead.Active)
}

func TestLeadPatchEmptyLeavesLeadUntouched(t *testing.T) {
	lead := &Lead{ID: "L1", Name: "Ann"}
	changed := LeadPatch{}.Apply(lead)
	assert.Empty(t, changed)
	assert.Equal(t, &Lead{ID: "L1", Name: "Ann"}, lead)
}

func TestMarkContactedOnlyMovesForward(t *testing.T) {
	at := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	lead := &Lead{ID: "L1"}

	assert.True(t, lead.MarkContacted("U1", at))
	assert.False(t, lead.MarkContacted("U2", at.Add(-time.Hour)))
	assert.False(t, lead.MarkContacted("U3", at))
	assert.Equal(t, "U1", lead.LastContactedByUserID)
	assert.True(t, at.Equal(*lead.LastContactedAt))

	assert.True(t, lead.MarkContacted("U4", at.Add(time.Hour)))
	assert.Equal(t, "U4", lead.LastContactedByUserID)
}

func TestParseContactType(t *testing.T) {
	got, err := ParseContactType("")
	require.NoError(t, err)
	assert.Equal(t, ContactNote, got)

	got, err = ParseContactType("whatsapp")
	require.NoError(t, err)
	assert.Equal(t, ContactWhatsApp, got)

	_, err = ParseContactType("pigeon")
	assert.True(t, IsDomainError(err, ErrCodeInvalid))
}

func TestPrincipalContext(t *testing.T) {
	assert.True(t, PrincipalFromContext(context.Background()).Anonymous())

	ctx := ContextWithPrincipal(context.Background(), Principal{UserID: "U1", BusinessID: "B1"})
	p := PrincipalFromContext(ctx)
	assert.Equal(t, "U1", p.Actor())
	assert.Equal(t, Metadata{MetaUser: "U1", MetaBusinessID: "B1"}, p.Metadata())
	assert.Equal(t, "system", Principal{}.Actor())
}

func TestRolePermissions(t *testing.T) {
	role := &Role{Active: true, Permissions: NormalizePermissions([]string{" Leads.Read", "leads.read", "", "bookings.write"})}
	assert.Equal(t, []string{"leads.read", "bookings.write"}, role.Permissions)
	assert.True(t, role.HasPermission("leads.read"))
	assert.False(t, role.HasPermission("roles.write"))

	role.Active = false
	assert.False(t, role.HasPermission("leads.read"))
}
