package identity

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ResolveMembers looks up every distinct card concurrently, at most limit at a
// time. Cards that fail to resolve are left out of the result so callers can
// degrade those rows to empty display fields.
func ResolveMembers(ctx context.Context, r Resolver, cards []string, limit int) map[string]*Member {
	out := make(map[string]*Member, len(cards))
	if r == nil || len(cards) == 0 {
		return out
	}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, card := range distinct(cards) {
		card := card
		g.Go(func() error {
			m, err := r.ResolveByCard(gctx, card)
			if err != nil {
				slog.Warn("member enrichment failed", "card_number", card, "error", err)
				return nil
			}
			mu.Lock()
			out[card] = m
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// ResolveBusinesses is ResolveMembers for business ids.
func ResolveBusinesses(ctx context.Context, r Resolver, ids []string, limit int) map[string]*Business {
	out := make(map[string]*Business, len(ids))
	if r == nil || len(ids) == 0 {
		return out
	}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, id := range distinct(ids) {
		id := id
		g.Go(func() error {
			b, err := r.ResolveBusiness(gctx, id)
			if err != nil {
				slog.Warn("business enrichment failed", "business_id", id, "error", err)
				return nil
			}
			mu.Lock()
			out[id] = b
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func distinct(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
