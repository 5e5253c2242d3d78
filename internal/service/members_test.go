package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"JobCard-backend/internal/apperror"
	"JobCard-backend/internal/identity"
	"JobCard-backend/internal/model"
)

func mustHandle(t *testing.T, raw string) model.MemberHandle {
	t.Helper()
	h, err := model.ParseMemberHandle(raw)
	require.NoError(t, err)
	return h
}

func TestMembers_LookupByCard(t *testing.T) {
	svc, resolver, _ := newTestServices(Options{})
	ctx := context.Background()

	known := newCard()
	resolver.addMember(known, "Meena Joshi", "meena@example.com")
	_, err := svc.Documents.Upsert(ctx, known, map[string]string{"Resume": "meena.pdf"})
	require.NoError(t, err)

	p, err := svc.Members.Lookup(ctx, mustHandle(t, known))
	require.NoError(t, err)
	assert.Equal(t, known, p.CardNumber)
	require.NotNil(t, p.FullName)
	assert.Equal(t, "Meena Joshi", *p.FullName)
	assert.True(t, p.HasResume)

	degraded := newCard()
	resolver.failing[degraded] = true
	p, err = svc.Members.Lookup(ctx, mustHandle(t, degraded))
	require.NoError(t, err)
	assert.Equal(t, degraded, p.CardNumber)
	assert.Nil(t, p.FullName)
	assert.False(t, p.HasResume)

	_, err = svc.Members.Lookup(ctx, mustHandle(t, newCard()))
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestMembers_LookupByMobile(t *testing.T) {
	svc, resolver, _ := newTestServices(Options{})
	ctx := context.Background()
	card := newCard()
	resolver.mobiles["9822001122"] = &identity.Member{CardNumber: card, MobileNumber: "9822001122", FullName: "Sunil Rao"}
	resolver.failing["9822003344"] = true

	p, err := svc.Members.Lookup(ctx, mustHandle(t, "9822001122"))
	require.NoError(t, err)
	assert.Equal(t, card, p.CardNumber)
	assert.Equal(t, "9822001122", *p.MobileNumber)
	assert.Nil(t, p.Email)

	_, err = svc.Members.Lookup(ctx, mustHandle(t, "9822005566"))
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = svc.Members.Lookup(ctx, mustHandle(t, "9822003344"))
	assert.True(t, apperror.Is(err, apperror.KindUpstream))
}

func TestMembers_CardFor(t *testing.T) {
	svc, resolver, _ := newTestServices(Options{})
	ctx := context.Background()
	card := newCard()
	resolver.mobiles["9000011111"] = &identity.Member{CardNumber: card}

	got, err := svc.Members.CardFor(ctx, mustHandle(t, card))
	require.NoError(t, err)
	assert.Equal(t, card, got)

	got, err = svc.Members.CardFor(ctx, mustHandle(t, "9000011111"))
	require.NoError(t, err)
	assert.Equal(t, card, got)

	_, err = svc.Members.CardFor(ctx, mustHandle(t, "9000022222"))
	assert.True(t, apperror.Is(err, apperror.KindUpstream))
}
