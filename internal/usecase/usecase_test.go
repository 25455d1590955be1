package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	adapterrepo "foodshare/internal/adapter/repository"
	"foodshare/internal/domain/repository"
	"foodshare/internal/infrastructure/docstore"
	"foodshare/internal/infrastructure/ratelimit"
)

type fixture struct {
	store    *docstore.MemoryStore
	chatRepo repository.ChatRepository
	chats    *ChatUseCase
	typing   *TypingUseCase
	listings *ListingUseCase
	unread   *UnreadAggregator
	prefs    *PreferencesUseCase
	limiter  *ratelimit.RateLimiter
}

func generousLimiter() *ratelimit.RateLimiter {
	return ratelimit.NewRateLimiterWithPolicies(map[string]ratelimit.Policy{
		ratelimit.ActionSendMessage: {Every: time.Millisecond, Burst: 1000},
		ratelimit.ActionCreateChat:  {Every: time.Millisecond, Burst: 1000},
		ratelimit.ActionTyping:      {Every: time.Millisecond, Burst: 1000},
	})
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := docstore.NewMemoryStore()
	t.Cleanup(func() { store.Close() })

	chatRepo := adapterrepo.NewDocstoreChatRepository(store)
	typingRepo := adapterrepo.NewDocstoreTypingRepository(store)
	userRepo := adapterrepo.NewDocstoreUserRepository(store)
	limiter := generousLimiter()
	listings := NewListingUseCase(adapterrepo.NewDocstoreListingRepository(store), adapterrepo.NewMockListingRepository(), time.Second)

	f := &fixture{
		store:    store,
		chatRepo: chatRepo,
		chats:    NewChatUseCase(chatRepo, typingRepo, userRepo, listings, limiter, time.Second),
		typing:   NewTypingUseCase(typingRepo, chatRepo, limiter, time.Second),
		listings: listings,
		unread:   NewUnreadAggregator(chatRepo),
		prefs:    NewPreferencesUseCase(adapterrepo.NewDocstorePreferencesRepository(store), time.Second),
		limiter:  limiter,
	}

	f.seedUser(t, "alice", "Alice")
	f.seedUser(t, "bob", "Bob")
	f.seedUser(t, "carol", "Carol")
	return f
}

func (f *fixture) seedUser(t *testing.T, id, name string) {
	t.Helper()
	err := f.store.Set(context.Background(), docstore.DocPath("users", id), map[string]interface{}{
		"displayName": name,
		"email":       id + "@example.com",
		"photoURL":    "/" + id + ".png",
		"role":        "user",
	})
	require.NoError(t, err)
}

func (f *fixture) seedListing(t *testing.T, id, producerID, category, status string, createdAt time.Time) {
	t.Helper()
	err := f.store.Set(context.Background(), docstore.DocPath("listings", id), map[string]interface{}{
		"title":        "Listing " + id,
		"description":  "Homemade " + category,
		"price":        10.0,
		"quantity":     int64(2),
		"category":     category,
		"producerId":   producerID,
		"producerName": "Producer " + producerID,
		"status":       status,
		"createdAt":    createdAt,
		"updatedAt":    createdAt,
	})
	require.NoError(t, err)
}

func nextUpdate[T any](t *testing.T, feed repository.Feed[T], match func(T) bool) T {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case v, ok := <-feed.Updates():
			if !ok {
				t.Fatalf("feed closed: %v", feed.Err())
			}
			if match(v) {
				return v
			}
		case <-timeout:
			t.Fatalf("timed out waiting for feed update")
		}
	}
}
