package identity

import (
	"context"
	"errors"

	"JobCard-backend/internal/metrics"
)

// Instrumented counts every lookup of the wrapped Resolver in
// metrics.IdentityLookups.
type Instrumented struct {
	Next Resolver
}

// ResolveByCard implements Resolver
func (i Instrumented) ResolveByCard(ctx context.Context, cardNumber string) (*Member, error) {
	m, err := i.Next.ResolveByCard(ctx, cardNumber)
	observe("card", err)
	return m, err
}

// ResolveByMobile implements Resolver
func (i Instrumented) ResolveByMobile(ctx context.Context, mobile string) (*Member, error) {
	m, err := i.Next.ResolveByMobile(ctx, mobile)
	observe("mobile", err)
	return m, err
}

// ResolveBusiness implements Resolver
func (i Instrumented) ResolveBusiness(ctx context.Context, businessID string) (*Business, error) {
	b, err := i.Next.ResolveBusiness(ctx, businessID)
	observe("business", err)
	return b, err
}

func observe(kind string, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	metrics.IdentityLookups.WithLabelValues(kind, outcome).Inc()
}
