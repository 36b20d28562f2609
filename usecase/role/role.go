package role

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/bizdesk/domain"
	"github.com/fastygo/bizdesk/repository"
	"github.com/fastygo/bizdesk/usecase"
)

type UseCase struct {
	roles    *usecase.WritePath[*domain.Role]
	fetchCap int
	logger   *zap.Logger
}

func New(roles repository.RoleRepository, publisher usecase.EventPublisher, logger *zap.Logger, opts ...usecase.Option) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := usecase.BuildOptions(opts...)
	return &UseCase{
		roles:    usecase.NewWritePath(roles, publisher, domain.ErrRoleNotFound, logger, o),
		fetchCap: o.FetchCap,
		logger:   logger,
	}
}

type CreateInput struct {
	ID          string
	BusinessID  string
	Name        string
	Description string
	Permissions []string
}

// CreateRole stores an active role. Names are unique, ignoring case, among a
// business's active roles.
func (uc *UseCase) CreateRole(ctx context.Context, in CreateInput) (*domain.Role, error) {
	name := strings.TrimSpace(in.Name)
	if in.BusinessID == "" {
		return nil, domain.Invalidf("businessId is required")
	}
	if name == "" {
		return nil, domain.Invalidf("name is required")
	}
	if err := uc.ensureNameFree(ctx, in.BusinessID, name); err != nil {
		return nil, err
	}
	r := &domain.Role{
		ID:          in.ID,
		BusinessID:  in.BusinessID,
		Name:        name,
		NameKey:     domain.RoleNameKey(name),
		Description: in.Description,
		Permissions: domain.NormalizePermissions(in.Permissions),
		Active:      true,
	}
	return uc.roles.Create(ctx, r, domain.NewRoleCreated)
}

func (uc *UseCase) GetRole(ctx context.Context, id string) (*domain.Role, error) {
	return uc.roles.Load(ctx, id)
}

func (uc *UseCase) UpdateRole(ctx context.Context, id string, patch domain.RolePatch) (*domain.Role, error) {
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		if trimmed == "" {
			return nil, domain.Invalidf("name cannot be empty")
		}
		patch.Name = &trimmed
	}
	return uc.roles.Mutate(ctx, id, func(r *domain.Role, _ time.Time) (usecase.EventFactory[*domain.Role], error) {
		if !r.Active {
			return nil, domain.Conflictf("role %s is inactive", r.ID)
		}
		if patch.Name != nil && domain.RoleNameKey(*patch.Name) != domain.RoleNameKey(r.Name) {
			if err := uc.ensureNameFree(ctx, r.BusinessID, *patch.Name); err != nil {
				return nil, err
			}
		}
		changed := patch.Apply(r)
		return func(stored *domain.Role, at time.Time, md domain.Metadata) *domain.Event {
			return domain.NewRoleUpdated(stored, changed, at, md)
		}, nil
	})
}

// DeactivateRole soft-deletes the role.
func (uc *UseCase) DeactivateRole(ctx context.Context, id string) (*domain.Role, error) {
	return uc.roles.Mutate(ctx, id, func(r *domain.Role, _ time.Time) (usecase.EventFactory[*domain.Role], error) {
		if !r.Active {
			return nil, domain.Conflictf("role %s is already inactive", r.ID)
		}
		r.Active = false
		return domain.NewRoleDeactivated, nil
	})
}

func (uc *UseCase) ListRoles(ctx context.Context, filter repository.RoleFilter) ([]*domain.Role, error) {
	if filter.BusinessID == "" {
		return nil, domain.Invalidf("businessId is required")
	}
	q := repository.NewQuery().WhereEqualTo("businessId", filter.BusinessID)
	if !filter.IncludeInactive {
		q = q.WhereEqualTo("active", true)
	}
	roles, err := uc.roles.Find(ctx, q.OrderByDescending("createdAt").Limit(uc.fetchCap))
	if err != nil {
		return nil, err
	}
	usecase.SortNewestFirst(roles)
	return usecase.Paginate(roles, filter.Offset, filter.Limit), nil
}

// ensureNameFree rejects a name already held by an active role of the business,
// ignoring case.
func (uc *UseCase) ensureNameFree(ctx context.Context, businessID, name string) error {
	taken, err := uc.roles.Exists(ctx, repository.NewQuery().
		WhereEqualTo("businessId", businessID).
		WhereEqualTo("nameKey", domain.RoleNameKey(name)).
		WhereEqualTo("active", true))
	if err != nil {
		return err
	}
	if taken {
		return domain.Conflictf("role %q already exists", name)
	}
	return nil
}
