package firebase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevTokenManager_RoundTrip(t *testing.T) {
	m := NewDevTokenManager("test-secret", time.Minute)

	token, expiresAt, err := m.GenerateToken("alice", "user")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 5*time.Second)

	uid, err := m.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "alice", uid)
}

func TestDevTokenManager_Rejects(t *testing.T) {
	m := NewDevTokenManager("test-secret", time.Minute)
	other := NewDevTokenManager("other-secret", time.Minute)
	expired := NewDevTokenManager("test-secret", -time.Minute)

	foreign, _, err := other.GenerateToken("alice", "")
	require.NoError(t, err)
	_, err = m.VerifyToken(context.Background(), foreign)
	assert.Error(t, err)

	stale, _, err := expired.GenerateToken("alice", "")
	require.NoError(t, err)
	_, err = m.VerifyToken(context.Background(), stale)
	assert.Error(t, err)

	_, err = m.VerifyToken(context.Background(), "not-a-token")
	assert.Error(t, err)

	_, _, err = m.GenerateToken("", "")
	assert.Error(t, err)
}
