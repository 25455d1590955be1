package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodshare/internal/domain/entity"
)

func TestPreferencesUseCase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	prefs, err := f.prefs.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultChatPreferences("alice"), prefs)

	off := false
	updated, err := f.prefs.Update(ctx, "alice", UpdatePreferencesInput{AutoMarkAsRead: &off})
	require.NoError(t, err)
	assert.False(t, updated.AutoMarkAsRead)
	assert.True(t, updated.EnableTypingIndicators)

	stored, err := f.prefs.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, updated, stored)
}
