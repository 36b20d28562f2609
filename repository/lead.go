package repository

import "github.com/fastygo/bizdesk/domain"

type LeadRepository = Repository[*domain.Lead]

type LeadContactRepository = Repository[*domain.LeadContact]

// LeadFilter narrows a lead listing. Tenant ids are applied in the store;
// the remaining fields are applied in memory.
type LeadFilter struct {
	BusinessID       string
	CommerceID       string
	IncludeUnclaimed bool
	Stage            string
	Status           string
	Source           string
	AssignedUserID   string
	Limit            int
	Offset           int
}
