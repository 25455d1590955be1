package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForUpdate(t *testing.T, sub *Subscription) []*Document {
	t.Helper()
	select {
	case docs, ok := <-sub.Updates():
		require.True(t, ok, "subscription closed unexpectedly: %v", sub.Err())
		return docs
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for subscription update")
	}
	return nil
}

func TestMemoryStore_SetGetUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.Set(ctx, "chats/c1", map[string]interface{}{
		"participantIds": []string{"a", "b"},
		"unreadCount":    map[string]int{"a": 0, "b": 0},
		"createdAt":      ServerTimestamp,
	})
	require.NoError(t, err)

	err = store.Update(ctx, "chats/c1", []Update{
		{Path: "unreadCount.b", Value: Increment(2)},
		{Path: "lastMessage", Value: "hi"},
	})
	require.NoError(t, err)

	doc, err := store.Get(ctx, "chats/c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", doc.ID)
	assert.Equal(t, "chats/c1", doc.Path)
	assert.Equal(t, []string{"a", "b"}, doc.Strings("participantIds"))
	assert.Equal(t, map[string]int{"a": 0, "b": 2}, doc.IntMap("unreadCount"))
	assert.Equal(t, "hi", doc.String("lastMessage"))
	assert.False(t, doc.Time("createdAt").IsZero())
}

func TestMemoryStore_UpdateMissingDocument(t *testing.T) {
	store := NewMemoryStore()
	err := store.Update(context.Background(), "chats/missing", []Update{{Path: "x", Value: 1}})
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = store.Get(context.Background(), "chats/missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStore_InvalidPaths(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "chats")
	assert.True(t, errors.Is(err, ErrInvalidPath))

	_, err = store.Query(ctx, From("chats/c1"))
	assert.True(t, errors.Is(err, ErrInvalidPath))

	_, err = store.Insert(ctx, "chats//messages", nil)
	assert.True(t, errors.Is(err, ErrInvalidPath))
}

func TestMemoryStore_QueryFiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "chats/c1", map[string]interface{}{"participantIds": []string{"a", "b"}, "rank": 2}))
	require.NoError(t, store.Set(ctx, "chats/c2", map[string]interface{}{"participantIds": []string{"a", "c"}, "rank": 1}))
	require.NoError(t, store.Set(ctx, "chats/c3", map[string]interface{}{"participantIds": []string{"b", "c"}, "rank": 3}))
	require.NoError(t, store.Set(ctx, "chats/c4", map[string]interface{}{"participantIds": []string{"a"}}))

	docs, err := store.Query(ctx, From("chats").Where("participantIds", OpArrayContains, "a").Ordered("rank", Desc))
	require.NoError(t, err)
	require.Len(t, docs, 2, "documents without the order field are excluded")
	assert.Equal(t, "c1", docs[0].ID)
	assert.Equal(t, "c2", docs[1].ID)

	docs, err = store.Query(ctx, From("chats").Where("rank", OpNotEqual, 2).Ordered("rank", Asc).Take(1))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "c2", docs[0].ID)

	docs, err = store.Query(ctx, From("chats").Where("rank", OpEqual, 3))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "c3", docs[0].ID)
}

func TestMemoryStore_ServerTimestampsStrictlyIncrease(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	var last time.Time
	for i := 0; i < 5; i++ {
		id, err := store.Insert(ctx, "chats/c1/messages", map[string]interface{}{"createdAt": ServerTimestamp})
		require.NoError(t, err)
		doc, err := store.Get(ctx, DocPath("chats", "c1", "messages", id))
		require.NoError(t, err)
		stamp := doc.Time("createdAt")
		assert.True(t, stamp.After(last))
		last = stamp
	}
}

func TestMemoryStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	sub, err := store.Subscribe(ctx, From("chats/c1/messages").Ordered("createdAt", Asc))
	require.NoError(t, err)
	defer sub.Close()

	assert.Empty(t, waitForUpdate(t, sub))

	_, err = store.Insert(ctx, "chats/c1/messages", map[string]interface{}{"text": "one", "createdAt": ServerTimestamp})
	require.NoError(t, err)
	docs := waitForUpdate(t, sub)
	require.Len(t, docs, 1)
	assert.Equal(t, "one", docs[0].String("text"))

	// Writes to another collection path do not wake the subscription.
	_, err = store.Insert(ctx, "chats/c2/messages", map[string]interface{}{"text": "other", "createdAt": ServerTimestamp})
	require.NoError(t, err)
	select {
	case docs := <-sub.Updates():
		t.Fatalf("unexpected update: %v", docs)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryStore_SubscriptionCloseIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	sub, err := store.Subscribe(context.Background(), From("chats"))
	require.NoError(t, err)

	sub.Close()
	sub.Close()

	for range sub.Updates() {
	}
	assert.NoError(t, sub.Err())

	store.mu.RLock()
	defer store.mu.RUnlock()
	assert.Empty(t, store.subs)
}

func TestMemoryStore_SubscriptionFault(t *testing.T) {
	store := NewMemoryStore()
	sub, err := store.Subscribe(context.Background(), From("chats"))
	require.NoError(t, err)
	defer sub.Close()
	waitForUpdate(t, sub)

	store.SetFault(func(op Operation, path string) error {
		if op == OperationSubscribe {
			return ErrPermissionDenied
		}
		return nil
	})
	require.NoError(t, store.Set(context.Background(), "chats/c1", map[string]interface{}{"a": 1}))

	for range sub.Updates() {
	}
	assert.True(t, errors.Is(sub.Err(), ErrPermissionDenied))
}

func TestMemoryStore_TransactionIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, "chats/c1", map[string]interface{}{"count": 1}))

	err := store.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.Update("chats/c1", []Update{{Path: "count", Value: Increment(1)}}); err != nil {
			return err
		}
		return tx.Update("chats/missing", []Update{{Path: "count", Value: 1}})
	})
	assert.True(t, errors.Is(err, ErrNotFound))

	doc, err := store.Get(ctx, "chats/c1")
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Int("count"))

	err = store.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.Set("chats/c2", map[string]interface{}{"count": 0}); err != nil {
			return err
		}
		if err := tx.Update("chats/c2", []Update{{Path: "count", Value: Increment(5)}}); err != nil {
			return err
		}
		return tx.Update("chats/c1", []Update{{Path: "count", Value: Increment(1)}})
	})
	require.NoError(t, err)

	doc, err = store.Get(ctx, "chats/c1")
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Int("count"))
	doc, err = store.Get(ctx, "chats/c2")
	require.NoError(t, err)
	assert.Equal(t, 5, doc.Int("count"))
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, "chats/c1", map[string]interface{}{"tags": []string{"x"}}))

	doc, err := store.Get(ctx, "chats/c1")
	require.NoError(t, err)
	doc.Data["tags"].([]interface{})[0] = "mutated"

	doc, err = store.Get(ctx, "chats/c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, doc.Strings("tags"))
}
