package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/bizdesk/domain"
	"github.com/fastygo/bizdesk/pkg/logger"
	"github.com/fastygo/bizdesk/repository"
	"github.com/fastygo/bizdesk/repository/memory"
	"github.com/fastygo/bizdesk/usecase"
	"github.com/fastygo/bizdesk/usecase/eventtest"
)

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newRolePath(t *testing.T) (*usecase.WritePath[*domain.Role], *memory.Repository[*domain.Role], *eventtest.Recorder) {
	t.Helper()
	repo := memory.New[*domain.Role]()
	rec := &eventtest.Recorder{}
	opts := usecase.BuildOptions(usecase.WithClock(func() time.Time { return fixedNow }))
	return usecase.NewWritePath[*domain.Role](repo, rec, domain.ErrRoleNotFound, nil, opts), repo, rec
}

func TestWritePathCreatePublishesStoredValue(t *testing.T) {
	wp, repo, rec := newRolePath(t)
	ctx := domain.ContextWithPrincipal(context.Background(), domain.Principal{UserID: "U1", BusinessID: "B1"})
	ctx = logger.ContextWithRequestID(ctx, "req-1")

	created, err := wp.Create(ctx, &domain.Role{BusinessID: "B1", Name: "front desk", Active: true}, domain.NewRoleCreated)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, fixedNow, created.CreatedAt)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.Equal(t, 1, repo.Len())

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, created.ID, events[0].AggregateID())
	assert.Equal(t, fixedNow, events[0].Data.OccurredOn)
	assert.Equal(t, "U1", events[0].Metadata[domain.MetaUser])
	assert.Equal(t, "B1", events[0].Metadata[domain.MetaBusinessID])
	assert.Equal(t, "req-1", events[0].Metadata[domain.MetaCorrelationID])
	assert.Equal(t, "bizdesk", events[0].Metadata[domain.MetaOrigin])
}

func TestWritePathMutateMissingNeverPublishes(t *testing.T) {
	wp, _, rec := newRolePath(t)
	called := false

	_, err := wp.Mutate(context.Background(), "does-not-exist", func(r *domain.Role, _ time.Time) (usecase.EventFactory[*domain.Role], error) {
		called = true
		return domain.NewRoleDeactivated, nil
	})

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
	assert.False(t, called)
	assert.Zero(t, rec.Attempts())
}

func TestWritePathMutationErrorSkipsWrite(t *testing.T) {
	wp, repo, rec := newRolePath(t)
	created, err := wp.Create(context.Background(), &domain.Role{BusinessID: "B1", Name: "admin", Active: true}, domain.NewRoleCreated)
	require.NoError(t, err)
	rec.Reset()

	_, err = wp.Mutate(context.Background(), created.ID, func(r *domain.Role, _ time.Time) (usecase.EventFactory[*domain.Role], error) {
		r.Name = "changed in memory"
		return nil, domain.Invalidf("rejected")
	})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	assert.Zero(t, rec.Attempts())

	stored, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", stored.Name)
}

func TestWritePathPublishFailureAfterCommit(t *testing.T) {
	wp, repo, rec := newRolePath(t)
	rec.Err = errors.New("broker down")

	_, err := wp.Create(context.Background(), &domain.Role{ID: "R1", BusinessID: "B1", Name: "admin", Active: true}, domain.NewRoleCreated)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodePublishFailed))
	assert.ErrorIs(t, err, rec.Err)

	// the write is durable even though the caller saw a failure
	stored, findErr := repo.FindByID(context.Background(), "R1")
	require.NoError(t, findErr)
	assert.Equal(t, "admin", stored.Name)
	assert.Equal(t, 1, rec.Attempts())
	assert.Empty(t, rec.Events())
}

func TestWritePathDuplicateIDIsConflict(t *testing.T) {
	wp, _, rec := newRolePath(t)
	_, err := wp.Create(context.Background(), &domain.Role{ID: "R1", BusinessID: "B1", Name: "a"}, domain.NewRoleCreated)
	require.NoError(t, err)

	_, err = wp.Create(context.Background(), &domain.Role{ID: "R1", BusinessID: "B1", Name: "b"}, domain.NewRoleCreated)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))
	assert.ErrorIs(t, err, repository.ErrDuplicateID)
	assert.Equal(t, 1, rec.Attempts())
}

func TestWritePathExists(t *testing.T) {
	wp, _, _ := newRolePath(t)
	_, err := wp.Create(context.Background(), &domain.Role{BusinessID: "B1", Name: "admin"}, domain.NewRoleCreated)
	require.NoError(t, err)

	found, err := wp.Exists(context.Background(), repository.NewQuery().WhereEqualTo("name", "admin"))
	require.NoError(t, err)
	assert.True(t, found)

	found, err = wp.Exists(context.Background(), repository.NewQuery().WhereEqualTo("name", "owner"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNilPublisherIsDiscarded(t *testing.T) {
	repo := memory.New[*domain.Role]()
	wp := usecase.NewWritePath[*domain.Role](repo, nil, domain.ErrRoleNotFound, nil, usecase.BuildOptions())

	_, err := wp.Create(context.Background(), &domain.Role{BusinessID: "B1", Name: "a"}, domain.NewRoleCreated)
	require.NoError(t, err)
}

func TestWritePathStaticMetadata(t *testing.T) {
	repo := memory.New[*domain.Role]()
	rec := &eventtest.Recorder{}
	opts := usecase.BuildOptions(
		usecase.WithClock(func() time.Time { return fixedNow }),
		usecase.WithMetadata(domain.Metadata{domain.MetaOrigin: "bizdesk-eu", domain.MetaUser: "static"}),
	)
	wp := usecase.NewWritePath[*domain.Role](repo, rec, domain.ErrRoleNotFound, nil, opts)

	ctx := domain.ContextWithPrincipal(context.Background(), domain.Principal{UserID: "U1"})
	_, err := wp.Create(ctx, &domain.Role{BusinessID: "B1", Name: "owner", Active: true}, domain.NewRoleCreated)
	require.NoError(t, err)

	md := rec.Last().Metadata
	assert.Equal(t, "bizdesk-eu", md[domain.MetaOrigin])
	assert.Equal(t, "U1", md[domain.MetaUser])
}
