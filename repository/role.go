package repository

import "github.com/fastygo/bizdesk/domain"

type RoleRepository = Repository[*domain.Role]

type RoleFilter struct {
	BusinessID      string
	IncludeInactive bool
	Limit           int
	Offset          int
}
