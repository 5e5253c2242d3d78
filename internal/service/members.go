package service

import (
	"context"
	"errors"
	"log/slog"

	"JobCard-backend/internal/apperror"
	"JobCard-backend/internal/database"
	"JobCard-backend/internal/identity"
	"JobCard-backend/internal/model"
)

// MemberService turns member handles into card numbers and profiles.
type MemberService struct {
	DB       *database.DBinstanceStruct
	resolver identity.Resolver
}

// MemberProfile is the directory identity of a member plus local facts.
type MemberProfile struct {
	CardNumber   string  `json:"card_number"`
	MobileNumber *string `json:"mobile_number"`
	FullName     *string `json:"full_name"`
	Email        *string `json:"email"`
	HasResume    bool    `json:"has_resume"`
}

// CardFor returns the card number of the caller's own handle. A mobile
// handle needs the directory; any failure there means the caller cannot be
// identified.
func (s *MemberService) CardFor(ctx context.Context, h model.MemberHandle) (string, error) {
	switch h.Kind {
	case model.HandleCard:
		return h.CardNumber(), nil
	case model.HandleMobile:
		if s.resolver == nil {
			return "", apperror.Upstream("Identity directory is not configured", nil)
		}
		m, err := s.resolver.ResolveByMobile(ctx, h.Mobile)
		if err != nil {
			return "", apperror.Upstream("Failed to identify member", err)
		}
		card, err := model.ParseCardNumber(m.CardNumber)
		if err != nil {
			return "", apperror.Upstream("Directory returned an invalid card number", err)
		}
		return card, nil
	}
	return "", apperror.Upstream("Member handle missing", nil)
}

// Lookup resolves a handle to a profile. Card lookups degrade to empty
// identity fields when the directory fails; mobile lookups cannot.
func (s *MemberService) Lookup(ctx context.Context, h model.MemberHandle) (*MemberProfile, error) {
	profile := &MemberProfile{}

	switch h.Kind {
	case model.HandleMobile:
		if s.resolver == nil {
			return nil, apperror.Upstream("Identity directory is not configured", nil)
		}
		m, err := s.resolver.ResolveByMobile(ctx, h.Mobile)
		if errors.Is(err, identity.ErrNotFound) {
			return nil, apperror.NotFound("Member with mobile %s not found", h.Mobile)
		}
		if err != nil {
			return nil, apperror.Upstream("Failed to resolve member", err)
		}
		profile.CardNumber = m.CardNumber
		fill(profile, m)
	case model.HandleCard:
		profile.CardNumber = h.CardNumber()
		if s.resolver != nil {
			m, err := s.resolver.ResolveByCard(ctx, profile.CardNumber)
			if errors.Is(err, identity.ErrNotFound) {
				return nil, apperror.NotFound("Member with card %s not found", profile.CardNumber)
			}
			if err != nil {
				slog.Warn("member lookup degraded", "card_number", profile.CardNumber, "error", err)
			} else {
				fill(profile, m)
			}
		}
	default:
		return nil, apperror.Field("handle", "missing")
	}

	hasResume, err := memberHasResume(s.DB.WithContext(ctx), profile.CardNumber)
	if err != nil {
		return nil, apperror.Unexpected("Failed to fetch documents", err)
	}
	profile.HasResume = hasResume
	return profile, nil
}

func fill(p *MemberProfile, m *identity.Member) {
	p.MobileNumber = nonEmpty(m.MobileNumber)
	p.FullName = nonEmpty(m.FullName)
	p.Email = nonEmpty(m.Email)
}
