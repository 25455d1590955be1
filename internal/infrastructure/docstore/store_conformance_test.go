package docstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStoreConformance exercises the behaviour every driver must share.
// Documents live under a per-run parent so real backends can be reused.
func testStoreConformance(t *testing.T, store Store) {
	ctx := context.Background()
	chats := DocPath("runs", uuid.NewString(), "chats")

	t.Run("SetGetUpdate", func(t *testing.T) {
		path := DocPath(chats, "c1")
		require.NoError(t, store.Set(ctx, path, map[string]interface{}{
			"participantIds": []string{"a", "b"},
			"unreadCount":    map[string]interface{}{"a": int64(0), "b": int64(0)},
			"createdAt":      ServerTimestamp,
		}))
		require.NoError(t, store.Update(ctx, path, []Update{
			{Path: "unreadCount.b", Value: Increment(2)},
			{Path: "lastMessage", Value: "hi"},
		}))

		doc, err := store.Get(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "c1", doc.ID)
		assert.Equal(t, []string{"a", "b"}, doc.Strings("participantIds"))
		assert.Equal(t, map[string]int{"a": 0, "b": 2}, doc.IntMap("unreadCount"))
		assert.Equal(t, "hi", doc.String("lastMessage"))
		assert.False(t, doc.Time("createdAt").IsZero())

		err = store.Update(ctx, DocPath(chats, "missing"), []Update{{Path: "x", Value: int64(1)}})
		assert.True(t, errors.Is(Classify(err), ErrNotFound), "got %v", err)
		_, err = store.Get(ctx, DocPath(chats, "missing"))
		assert.True(t, errors.Is(Classify(err), ErrNotFound), "got %v", err)
	})

	t.Run("QueryAndInsert", func(t *testing.T) {
		messages := DocPath(chats, "c2", "messages")
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		for i, sender := range []string{"a", "b", "a"} {
			_, err := store.Insert(ctx, messages, map[string]interface{}{
				"senderId":  sender,
				"seq":       int64(i),
				"timestamp": base.Add(time.Duration(i) * time.Minute),
			})
			require.NoError(t, err)
		}

		docs, err := store.Query(ctx, From(messages).Where("senderId", OpEqual, "a").Ordered("timestamp", Asc))
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, 0, docs[0].Int("seq"))
		assert.Equal(t, 2, docs[1].Int("seq"))

		docs, err = store.Query(ctx, From(messages).Ordered("timestamp", Desc).Take(1))
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, 2, docs[0].Int("seq"))
	})

	t.Run("Subscribe", func(t *testing.T) {
		typing := DocPath(chats, "c3", "typing")
		sub, err := store.Subscribe(ctx, From(typing))
		require.NoError(t, err)
		defer sub.Close()

		assert.Empty(t, waitForUpdate(t, sub))

		require.NoError(t, store.Set(ctx, DocPath(typing, "a"), map[string]interface{}{
			"userName":  "A",
			"timestamp": ServerTimestamp,
		}))

		deadline := time.After(5 * time.Second)
		for {
			select {
			case docs := <-sub.Updates():
				if len(docs) == 1 && docs[0].ID == "a" {
					return
				}
			case <-deadline:
				t.Fatal("subscription never delivered the write")
			}
		}
	})

	t.Run("TransactionQuery", func(t *testing.T) {
		items := DocPath(chats, "c5", "items")
		for _, done := range []bool{false, true, false} {
			_, err := store.Insert(ctx, items, map[string]interface{}{"done": done})
			require.NoError(t, err)
		}

		var flipped int
		err := store.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
			docs, err := tx.Query(From(items).Where("done", OpEqual, false))
			if err != nil {
				return err
			}
			flipped = len(docs)
			for _, doc := range docs {
				if err := tx.Update(DocPath(items, doc.ID), []Update{{Path: "done", Value: true}}); err != nil {
					return err
				}
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, flipped)

		docs, err := store.Query(ctx, From(items).Where("done", OpEqual, false))
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("TransactionIncrementsExactly", func(t *testing.T) {
		path := DocPath(chats, "c4")
		require.NoError(t, store.Set(ctx, path, map[string]interface{}{"count": int64(0)}))

		const writers = 5
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := store.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
					if _, err := tx.Get(path); err != nil {
						return err
					}
					return tx.Update(path, []Update{{Path: "count", Value: Increment(1)}})
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		doc, err := store.Get(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, writers, doc.Int("count"))
	})
}

func TestMemoryStore_Conformance(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	testStoreConformance(t, store)
}
