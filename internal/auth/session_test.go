package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	store := NewSessionStore(time.Hour)

	token := store.Create("alice")
	require.NotEmpty(t, token)

	username, ok := store.Resolve(token)
	assert.True(t, ok)
	assert.Equal(t, "alice", username)

	store.Destroy(token)
	_, ok = store.Resolve(token)
	assert.False(t, ok, "destroyed session must not resolve")

	// Destroying again is a no-op.
	store.Destroy(token)
}

func TestResolveUnknownToken(t *testing.T) {
	store := NewSessionStore(time.Hour)

	_, ok := store.Resolve("not-a-token")
	assert.False(t, ok)
}

func TestSessionExpiry(t *testing.T) {
	store := NewSessionStore(time.Hour)
	now := time.Now()
	store.now = func() time.Time { return now }

	token := store.Create("alice")

	_, ok := store.Resolve(token)
	assert.True(t, ok)

	now = now.Add(2 * time.Hour)
	_, ok = store.Resolve(token)
	assert.False(t, ok, "expired session must not resolve")
}

func TestPurgeExpired(t *testing.T) {
	store := NewSessionStore(time.Hour)
	now := time.Now()
	store.now = func() time.Time { return now }

	expired := store.Create("alice")
	now = now.Add(30 * time.Minute)
	fresh := store.Create("bob")
	now = now.Add(45 * time.Minute) // alice past TTL, bob within

	removed := store.PurgeExpired()
	assert.Equal(t, 1, removed)

	_, ok := store.Resolve(expired)
	assert.False(t, ok)
	username, ok := store.Resolve(fresh)
	assert.True(t, ok)
	assert.Equal(t, "bob", username)
}
