package usecase

import (
	"time"

	"github.com/fastygo/bizdesk/domain"
)

// DefaultFetchCap bounds every source query of an in-memory listing.
const DefaultFetchCap = 500

// Clock supplies the timestamps stamped on entities and events.
type Clock func() time.Time

// SystemClock returns UTC wall time truncated to the millisecond precision the
// document store keeps.
func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Options configures the use cases.
type Options struct {
	Clock    Clock
	FetchCap int
	// Metadata is stamped on every event; request-derived keys win over it.
	Metadata domain.Metadata
}

type Option func(*Options)

func WithClock(clock Clock) Option {
	return func(o *Options) {
		if clock != nil {
			o.Clock = clock
		}
	}
}

// WithFetchCap overrides DefaultFetchCap. Non-positive values are ignored.
func WithFetchCap(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.FetchCap = n
		}
	}
}

// WithMetadata adds static event metadata such as the deployment origin.
func WithMetadata(md domain.Metadata) Option {
	return func(o *Options) {
		o.Metadata = domain.MergeMetadata(o.Metadata, md)
	}
}

// BuildOptions applies opts over the defaults.
func BuildOptions(opts ...Option) Options {
	o := Options{Clock: SystemClock, FetchCap: DefaultFetchCap}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
