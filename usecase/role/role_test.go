package role

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/bizdesk/domain"
	"github.com/fastygo/bizdesk/repository"
	"github.com/fastygo/bizdesk/repository/memory"
	"github.com/fastygo/bizdesk/usecase/eventtest"
)

func newUseCase() (*UseCase, *eventtest.Recorder) {
	rec := &eventtest.Recorder{}
	return New(memory.New[*domain.Role](), rec, nil), rec
}

func TestCreateRole(t *testing.T) {
	uc, rec := newUseCase()

	r, err := uc.CreateRole(context.Background(), CreateInput{BusinessID: "B1", Name: " Reception ", Permissions: []string{"Bookings.Read", "bookings.read", "leads.write"}})
	require.NoError(t, err)
	assert.Equal(t, "Reception", r.Name)
	assert.Equal(t, []string{"bookings.read", "leads.write"}, r.Permissions)
	assert.True(t, r.Active)

	require.Len(t, rec.Events(), 1)
	assert.Equal(t, domain.EventRoleCreated, rec.Last().Type())
	assert.Equal(t, r.ID, rec.Last().AggregateID())
}

func TestCreateRoleDuplicateName(t *testing.T) {
	uc, rec := newUseCase()
	_, err := uc.CreateRole(context.Background(), CreateInput{BusinessID: "B1", Name: "admin"})
	require.NoError(t, err)

	_, err = uc.CreateRole(context.Background(), CreateInput{BusinessID: "B1", Name: "admin"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))

	_, err = uc.CreateRole(context.Background(), CreateInput{BusinessID: "B2", Name: "admin"})
	assert.NoError(t, err)
	assert.Equal(t, 2, rec.Attempts())
}

func TestRoleNamesIgnoreCase(t *testing.T) {
	uc, _ := newUseCase()
	ctx := context.Background()
	admin, err := uc.CreateRole(ctx, CreateInput{BusinessID: "B1", Name: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "admin", admin.NameKey)

	_, err = uc.CreateRole(ctx, CreateInput{BusinessID: "B1", Name: " Admin"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))

	staff, err := uc.CreateRole(ctx, CreateInput{BusinessID: "B1", Name: "Staff"})
	require.NoError(t, err)

	shouting := "ADMIN"
	_, err = uc.UpdateRole(ctx, staff.ID, domain.RolePatch{Name: &shouting})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))

	// recasing a role's own name is not a conflict
	capitalised := "Admin"
	renamed, err := uc.UpdateRole(ctx, admin.ID, domain.RolePatch{Name: &capitalised})
	require.NoError(t, err)
	assert.Equal(t, "Admin", renamed.Name)
	assert.Equal(t, "admin", renamed.NameKey)
}

func TestCreateRoleValidation(t *testing.T) {
	uc, rec := newUseCase()
	_, err := uc.CreateRole(context.Background(), CreateInput{Name: "admin"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	_, err = uc.CreateRole(context.Background(), CreateInput{BusinessID: "B1"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	assert.Zero(t, rec.Attempts())
}

func TestUpdateRole(t *testing.T) {
	uc, rec := newUseCase()
	ctx := context.Background()
	admin, err := uc.CreateRole(ctx, CreateInput{BusinessID: "B1", Name: "admin"})
	require.NoError(t, err)
	_, err = uc.CreateRole(ctx, CreateInput{BusinessID: "B1", Name: "staff"})
	require.NoError(t, err)

	taken := "staff"
	_, err = uc.UpdateRole(ctx, admin.ID, domain.RolePatch{Name: &taken})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))

	same := "admin"
	desc := "full access"
	updated, err := uc.UpdateRole(ctx, admin.ID, domain.RolePatch{Name: &same, Description: &desc, Permissions: []string{"*"}})
	require.NoError(t, err)
	assert.True(t, updated.HasPermission("anything"))
	assert.Equal(t, []string{"description", "permissions"}, rec.Last().Data.Attributes["changedFields"])
}

func TestDeactivateRole(t *testing.T) {
	uc, rec := newUseCase()
	ctx := context.Background()
	r, err := uc.CreateRole(ctx, CreateInput{BusinessID: "B1", Name: "admin"})
	require.NoError(t, err)

	off, err := uc.DeactivateRole(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, off.Active)
	assert.Equal(t, domain.EventRoleDeactivated, rec.Last().Type())
	assert.Equal(t, false, rec.Last().Data.Attributes["active"])

	_, err = uc.DeactivateRole(ctx, r.ID)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))

	// the name is free again once the old role is inactive
	_, err = uc.CreateRole(ctx, CreateInput{BusinessID: "B1", Name: "admin"})
	require.NoError(t, err)

	active, err := uc.ListRoles(ctx, repository.RoleFilter{BusinessID: "B1"})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := uc.ListRoles(ctx, repository.RoleFilter{BusinessID: "B1", IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeactivateMissingRole(t *testing.T) {
	uc, rec := newUseCase()
	_, err := uc.DeactivateRole(context.Background(), "nope")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
	assert.Zero(t, rec.Attempts())
}
