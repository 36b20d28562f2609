package lead

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"github.com/fastygo/bizdesk/domain"
	"github.com/fastygo/bizdesk/repository"
	"github.com/fastygo/bizdesk/usecase"
)

// PublicSource is recorded on leads that arrive through the contact form when the form sends no source.
const PublicSource = "contact-form"

const contactSuffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

type UseCase struct {
	leads    *usecase.WritePath[*domain.Lead]
	contacts *usecase.WritePath[*domain.LeadContact]
	fetchCap int
	logger   *zap.Logger
}

func New(leads repository.LeadRepository, contacts repository.LeadContactRepository, publisher usecase.EventPublisher, logger *zap.Logger, opts ...usecase.Option) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := usecase.BuildOptions(opts...)
	return &UseCase{
		leads:    usecase.NewWritePath(leads, publisher, domain.ErrLeadNotFound, logger, o),
		contacts: usecase.NewWritePath(contacts, publisher, domain.ErrLeadNotFound, logger, o),
		fetchCap: o.FetchCap,
		logger:   logger,
	}
}

// CreateInput carries the fields accepted when a lead is created.
type CreateInput struct {
	ID             string
	BusinessID     string
	CommerceID     string
	Name           string
	Email          string
	Phone          string
	Source         string
	Message        string
	Notes          string
	AssignedUserID string
	Metadata       map[string]string
}

func (in CreateInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Invalidf("name is required")
	}
	if strings.TrimSpace(in.Email) == "" && strings.TrimSpace(in.Phone) == "" {
		return domain.Invalidf("email or phone is required")
	}
	return nil
}

// CreateLead stores a new lead in stage NEW and publishes LeadCreated.
func (uc *UseCase) CreateLead(ctx context.Context, in CreateInput) (*domain.Lead, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = "manual"
	}
	lead := &domain.Lead{
		ID:             in.ID,
		BusinessID:     in.BusinessID,
		CommerceID:     in.CommerceID,
		Name:           strings.TrimSpace(in.Name),
		Email:          strings.TrimSpace(in.Email),
		Phone:          strings.TrimSpace(in.Phone),
		Source:         source,
		Message:        in.Message,
		Notes:          in.Notes,
		PipelineStage:  domain.StageNew,
		AssignedUserID: in.AssignedUserID,
		Metadata:       in.Metadata,
		Active:         true,
	}
	return uc.leads.Create(ctx, lead, domain.NewLeadCreated)
}

// CreatePublicLead stores a lead submitted through the anonymous contact form.
// Tenant ids may be empty; such leads stay unclaimed until a staff member assigns them.
func (uc *UseCase) CreatePublicLead(ctx context.Context, in CreateInput) (*domain.Lead, error) {
	if strings.TrimSpace(in.Source) == "" {
		in.Source = PublicSource
	}
	in.AssignedUserID = ""
	return uc.CreateLead(ctx, in)
}

func (uc *UseCase) GetLead(ctx context.Context, id string) (*domain.Lead, error) {
	return uc.leads.Load(ctx, id)
}

// UpdateLead applies a partial update and publishes LeadUpdated with the changed field names.
func (uc *UseCase) UpdateLead(ctx context.Context, id string, patch domain.LeadPatch) (*domain.Lead, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, domain.Invalidf("name cannot be empty")
	}
	return uc.leads.Mutate(ctx, id, func(lead *domain.Lead, _ time.Time) (usecase.EventFactory[*domain.Lead], error) {
		changed := patch.Apply(lead)
		return func(stored *domain.Lead, at time.Time, md domain.Metadata) *domain.Event {
			return domain.NewLeadUpdated(stored, changed, at, md)
		}, nil
	})
}

// StageChange moves a lead through the pipeline. UserID defaults to the principal.
type StageChange struct {
	Stage  string
	Status string
	UserID string
}

// UpdateStage moves the lead to any stage; transitions are not restricted.
// Entering IN_CONTACT stamps the last-contacted bookkeeping.
func (uc *UseCase) UpdateStage(ctx context.Context, id string, change StageChange) (*domain.Lead, error) {
	stage, err := domain.ParsePipelineStage(change.Stage)
	if err != nil {
		return nil, err
	}
	var status *domain.LeadStatus
	if strings.TrimSpace(change.Status) != "" {
		parsed, err := domain.ParseLeadStatus(change.Status)
		if err != nil {
			return nil, err
		}
		status = &parsed
	}
	userID := actingUser(ctx, change.UserID)

	return uc.leads.Mutate(ctx, id, func(lead *domain.Lead, now time.Time) (usecase.EventFactory[*domain.Lead], error) {
		oldStage := lead.PipelineStage
		oldStatus := lead.Status

		lead.PipelineStage = stage
		if status != nil {
			lead.Status = status
		}
		if stage == domain.StageInContact && oldStage != domain.StageInContact {
			lead.MarkContacted(userID, now)
		}
		return func(stored *domain.Lead, at time.Time, md domain.Metadata) *domain.Event {
			return domain.NewLeadStageChanged(stored, oldStage, oldStatus, at, md)
		}, nil
	})
}

// ContactInput describes one outreach to a lead.
type ContactInput struct {
	Type        string
	Comment     string
	ContactedAt *time.Time
	UserID      string
}

// AddContact appends a contact entry, refreshes the lead's last-contacted fields
// and publishes a single LeadContactCreated event keyed on the lead id. The
// bookkeeping write on the lead has no event of its own.
func (uc *UseCase) AddContact(ctx context.Context, leadID string, in ContactInput) (*domain.LeadContact, error) {
	contactType, err := domain.ParseContactType(in.Type)
	if err != nil {
		return nil, err
	}
	lead, err := uc.leads.Load(ctx, leadID)
	if err != nil {
		return nil, err
	}

	now := uc.contacts.Now()
	contactedAt := now
	if in.ContactedAt != nil && !in.ContactedAt.IsZero() {
		contactedAt = in.ContactedAt.UTC()
	}
	id, err := newContactID(now)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "generate contact id", err)
	}
	userID := actingUser(ctx, in.UserID)

	contact, err := uc.contacts.Insert(ctx, &domain.LeadContact{
		ID:                id,
		LeadID:            lead.ID,
		BusinessID:        lead.BusinessID,
		CommerceID:        lead.CommerceID,
		Type:              contactType,
		Comment:           in.Comment,
		ContactedByUserID: userID,
		ContactedAt:       contactedAt,
	})
	if err != nil {
		return nil, err
	}

	if lead.MarkContacted(userID, contactedAt) {
		if _, err := uc.leads.Persist(ctx, lead); err != nil {
			return nil, err
		}
	}

	evt := domain.NewLeadContactCreated(contact, now, uc.contacts.EventMetadata(ctx))
	if err := uc.contacts.Publish(ctx, evt); err != nil {
		return nil, err
	}
	return contact, nil
}

// ListContacts returns a page of the lead's contacts, newest first.
func (uc *UseCase) ListContacts(ctx context.Context, leadID string, offset, limit int) ([]*domain.LeadContact, error) {
	if _, err := uc.leads.Load(ctx, leadID); err != nil {
		return nil, err
	}
	contacts, err := uc.contacts.Find(ctx, repository.NewQuery().
		WhereEqualTo("leadId", leadID).
		OrderByDescending("createdAt").
		Limit(uc.fetchCap))
	if err != nil {
		return nil, err
	}
	usecase.SortNewestFirst(contacts)
	return usecase.Paginate(contacts, offset, limit), nil
}

// ConvertInput links the lead to the client record it became. An empty ClientID gets a fresh id.
type ConvertInput struct {
	ClientID string
	UserID   string
}

// Convert closes the lead as SUCCESS and records the client it turned into.
// Converting twice is a conflict.
func (uc *UseCase) Convert(ctx context.Context, id string, in ConvertInput) (*domain.Lead, error) {
	userID := actingUser(ctx, in.UserID)
	clientID := strings.TrimSpace(in.ClientID)
	if clientID == "" {
		clientID = uuid.NewString()
	}

	return uc.leads.Mutate(ctx, id, func(lead *domain.Lead, now time.Time) (usecase.EventFactory[*domain.Lead], error) {
		if lead.IsConverted() {
			return nil, domain.Conflictf("lead %s already converted to client %s", lead.ID, lead.ConvertedClientID)
		}
		converted := now
		success := domain.LeadSuccess
		lead.ConvertedAt = &converted
		lead.ConvertedClientID = clientID
		lead.PipelineStage = domain.StageClosed
		lead.Status = &success
		return func(stored *domain.Lead, at time.Time, md domain.Metadata) *domain.Event {
			return domain.NewLeadConverted(stored, userID, at, md)
		}, nil
	})
}

// ListLeads unions the tenant's leads with unclaimed ones when requested, then
// sorts and paginates in memory. Every filter is part of each source query, so
// the fetch cap bounds matching documents only and the in-memory stage costs
// O(n log n) over at most two caps of them.
func (uc *UseCase) ListLeads(ctx context.Context, filter repository.LeadFilter) ([]*domain.Lead, error) {
	if filter.BusinessID == "" && !filter.IncludeUnclaimed {
		return nil, domain.Invalidf("businessId is required")
	}
	narrow, err := leadConditions(filter)
	if err != nil {
		return nil, err
	}

	var sources [][]*domain.Lead
	if filter.BusinessID != "" {
		q := repository.NewQuery().WhereEqualTo("businessId", filter.BusinessID)
		if filter.CommerceID != "" {
			q = q.WhereEqualTo("commerceId", filter.CommerceID)
		}
		tenant, err := uc.leads.Find(ctx, narrow(q).OrderByDescending("createdAt").Limit(uc.fetchCap))
		if err != nil {
			return nil, err
		}
		sources = append(sources, tenant)
	}
	if filter.IncludeUnclaimed {
		q := repository.NewQuery().
			WhereEqualTo("businessId", nil).
			WhereEqualTo("commerceId", nil)
		unclaimed, err := uc.leads.Find(ctx, narrow(q).OrderByDescending("createdAt").Limit(uc.fetchCap))
		if err != nil {
			return nil, err
		}
		sources = append(sources, unclaimed)
	}

	merged := usecase.MergeUnique(sources...)
	if len(merged) >= uc.fetchCap {
		uc.logger.Debug("lead listing reached fetch cap", zap.Int("fetch_cap", uc.fetchCap), zap.Int("merged", len(merged)))
	}
	usecase.SortNewestFirst(merged)
	return usecase.Paginate(merged, filter.Offset, filter.Limit), nil
}

// leadConditions validates the optional filters and returns a function adding
// them to a source query.
func leadConditions(filter repository.LeadFilter) (func(repository.Query) repository.Query, error) {
	var stage domain.PipelineStage
	if strings.TrimSpace(filter.Stage) != "" {
		parsed, err := domain.ParsePipelineStage(filter.Stage)
		if err != nil {
			return nil, err
		}
		stage = parsed
	}
	var status domain.LeadStatus
	if strings.TrimSpace(filter.Status) != "" {
		parsed, err := domain.ParseLeadStatus(filter.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}
	source := strings.TrimSpace(filter.Source)
	assigned := strings.TrimSpace(filter.AssignedUserID)

	return func(q repository.Query) repository.Query {
		q = q.WhereEqualTo("active", true)
		if stage != "" {
			q = q.WhereEqualTo("pipelineStage", stage)
		}
		if status != "" {
			q = q.WhereEqualTo("status", status)
		}
		if source != "" {
			q = q.WhereEqualTo("source", source)
		}
		if assigned != "" {
			q = q.WhereEqualTo("assignedUserId", assigned)
		}
		return q
	}, nil
}

func actingUser(ctx context.Context, explicit string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	return domain.PrincipalFromContext(ctx).UserID
}

func newContactID(now time.Time) (string, error) {
	suffix, err := gonanoid.Generate(contactSuffixAlphabet, 9)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("contact-%d-%s", now.UnixMilli(), suffix), nil
}
