package publisher

import (
	"context"
	"fmt"

	"github.com/fastygo/bizdesk/domain"
)

// Appender is satisfied by *postgres.Journal.
type Appender interface {
	Append(ctx context.Context, evt *domain.Event) error
}

// Journal records events in the Postgres event journal.
type Journal struct {
	journal Appender
}

func NewJournal(journal Appender) *Journal {
	return &Journal{journal: journal}
}

func (p *Journal) Publish(ctx context.Context, evt *domain.Event) error {
	if err := p.journal.Append(ctx, evt); err != nil {
		return fmt.Errorf("journal append: %w", err)
	}
	return nil
}
