package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"JobCard-backend/internal/apperror"
	"JobCard-backend/internal/database"
)

func TestFeedback_AppendsInOrder(t *testing.T) {
	svc, _, _ := newTestServices(Options{})
	ctx := context.Background()
	card := newCard()

	empty, err := svc.Feedback.Get(ctx, card)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = svc.Feedback.Add(ctx, card, database.TestBusinessID, "Punctual and careful")
	require.NoError(t, err)
	entries, err := svc.Feedback.Add(ctx, card, database.TestOtherBusinessID, "Needs training on forklift")
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "Punctual and careful", entries[0].Feedback)
	assert.Equal(t, database.TestBusinessID, entries[0].BusinessID)
	assert.Equal(t, database.TestOtherBusinessID, entries[1].BusinessID)
	assert.WithinDuration(t, time.Now(), entries[1].CreatedAt, time.Minute)
}

func TestFeedback_Validation(t *testing.T) {
	svc, _, _ := newTestServices(Options{})
	ctx := context.Background()

	_, err := svc.Feedback.Add(ctx, newCard(), database.TestBusinessID, "  ")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.Feedback.Add(ctx, "abc", database.TestBusinessID, "good")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}
