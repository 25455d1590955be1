package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodshare/internal/domain/entity"
)

func TestUnreadAggregator_Watch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c1, err := f.chats.CreateChat(ctx, "bob", CreateChatInput{RecipientID: "alice"})
	require.NoError(t, err)
	c2, err := f.chats.CreateChat(ctx, "carol", CreateChatInput{RecipientID: "alice"})
	require.NoError(t, err)

	send := func(chatID, sender string, n int) {
		for i := 0; i < n; i++ {
			_, err := f.chats.SendMessage(ctx, chatID, sender, "new batch of muffins")
			require.NoError(t, err)
		}
	}
	send(c1.ID, "bob", 2)
	send(c2.ID, "carol", 3)

	feed, err := f.unread.Watch(ctx, "alice")
	require.NoError(t, err)
	defer feed.Close()

	first := nextUpdate(t, feed, func(u UnreadUpdate) bool { return u.Total == 5 })
	assert.Equal(t, UnreadUpdate{Total: 5, Previous: 0, Delta: 5, Notify: false}, first)

	_, err = f.chats.MarkMessagesAsRead(ctx, c1.ID, "alice")
	require.NoError(t, err)
	afterRead := nextUpdate(t, feed, func(u UnreadUpdate) bool { return u.Total == 3 })
	assert.Equal(t, 5, afterRead.Previous)
	assert.Equal(t, -2, afterRead.Delta)
	assert.False(t, afterRead.Notify)

	send(c1.ID, "bob", 1)
	grown := nextUpdate(t, feed, func(u UnreadUpdate) bool { return u.Total == 4 })
	assert.True(t, grown.Notify)
	assert.Equal(t, 1, grown.Delta)
}

func TestUnreadAggregator_NoNotifyFromZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chat, err := f.chats.CreateChat(ctx, "bob", CreateChatInput{RecipientID: "alice"})
	require.NoError(t, err)

	feed, err := f.unread.Watch(ctx, "alice")
	require.NoError(t, err)
	defer feed.Close()

	nextUpdate(t, feed, func(u UnreadUpdate) bool { return u.Total == 0 })

	_, err = f.chats.SendMessage(ctx, chat.ID, "bob", "hi")
	require.NoError(t, err)
	update := nextUpdate(t, feed, func(u UnreadUpdate) bool { return u.Total == 1 })
	assert.False(t, update.Notify)
}

func TestSumUnread(t *testing.T) {
	chats := []*entity.Chat{
		{UnreadCount: map[string]int{"alice": 2, "bob": 9}},
		{UnreadCount: map[string]int{"alice": 3}},
		{UnreadCount: map[string]int{"alice": -1}},
		{},
	}
	assert.Equal(t, 5, SumUnread(chats, "alice"))
	assert.Equal(t, 9, SumUnread(chats, "bob"))
}
