// Package clinic holds the domain handlers: authentication, patients,
// medicine inventory, prescriptions and their fulfillment, payments and
// reporting. Inputs arrive already schema-validated by the RPC layer.
package clinic

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"rxdesk/m/domain"
	"rxdesk/m/internal/auth"
	"rxdesk/m/internal/store"
)

const dateLayout = "2006-01-02"

// Service bundles dependencies for the domain handlers.
type Service struct {
	store             *store.Store
	tokens            *auth.Tokens
	log               zerolog.Logger
	lowStockThreshold int64
}

// Option configures a Service.
type Option func(*Service)

// WithLowStockThreshold sets the default threshold used by low-stock views.
func WithLowStockThreshold(n int64) Option {
	return func(s *Service) { s.lowStockThreshold = n }
}

// New constructs a Service.
func New(st *store.Store, tokens *auth.Tokens, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{store: st, tokens: tokens, log: logger, lowStockThreshold: 10}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// parseDate parses an optional YYYY-MM-DD value as midnight UTC.
func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, domain.InvalidInput("%q is not a YYYY-MM-DD date", value)
	}
	return &t, nil
}

// Paged wraps one page of a listing.
type Paged[T any] struct {
	Data    []T  `json:"data"`
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

func newPaged[T any](data []T, total int, page store.Page) Paged[T] {
	return Paged[T]{
		Data:    data,
		Total:   total,
		Limit:   page.Limit,
		Offset:  page.Offset,
		HasMore: page.Offset+len(data) < total,
	}
}

// Ping reports whether the database is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.DB().PingContext(ctx)
}
