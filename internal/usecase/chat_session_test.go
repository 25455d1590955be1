package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodshare/internal/domain/entity"
	apperrors "foodshare/pkg/errors"
)

type emitted struct {
	event  string
	chatID string
	data   interface{}
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (e *recordingEmitter) Emit(event, chatID string, data interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, emitted{event: event, chatID: chatID, data: data})
}

func (e *recordingEmitter) has(match func(emitted) bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ev := range e.events {
		if match(ev) {
			return true
		}
	}
	return false
}

func (e *recordingEmitter) count(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, ev := range e.events {
		if ev.event == event {
			n++
		}
	}
	return n
}

func (f *fixture) newSession(t *testing.T, userID string) (*ChatSession, *recordingEmitter) {
	t.Helper()
	emitter := &recordingEmitter{}
	session := NewChatSession(context.Background(), f.chats, f.typing, f.unread, f.prefs, time.Hour, userID, emitter)
	t.Cleanup(session.Close)
	return session, emitter
}

func TestChatSession_StartEmitsListAndBadge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	chat, err := f.chats.CreateChat(ctx, "alice", CreateChatInput{RecipientID: "bob"})
	require.NoError(t, err)
	_, err = f.chats.SendMessage(ctx, chat.ID, "alice", "hi bob")
	require.NoError(t, err)

	session, emitter := f.newSession(t, "bob")
	require.NoError(t, session.Start())
	require.NoError(t, session.Start())

	assert.Eventually(t, func() bool {
		return emitter.has(func(ev emitted) bool {
			chats, ok := ev.data.([]*entity.Chat)
			return ev.event == EventChatList && ok && len(chats) == 1
		})
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return emitter.has(func(ev emitted) bool {
			update, ok := ev.data.(UnreadUpdate)
			return ev.event == EventUnreadCount && ok && update.Total == 1
		})
	}, 2*time.Second, 10*time.Millisecond)
}

func TestChatSession_JoinAutoMarksRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	chat, err := f.chats.CreateChat(ctx, "alice", CreateChatInput{RecipientID: "bob"})
	require.NoError(t, err)
	_, err = f.chats.SendMessage(ctx, chat.ID, "alice", "still available?")
	require.NoError(t, err)

	session, emitter := f.newSession(t, "bob")
	require.NoError(t, session.Join(chat.ID))

	assert.Eventually(t, func() bool {
		count, err := f.chats.GetUserUnreadCount(ctx, "bob")
		return err == nil && count == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return emitter.has(func(ev emitted) bool {
			thread, ok := ev.data.([]*entity.Message)
			return ev.event == EventMessages && ev.chatID == chat.ID && ok && len(thread) == 1 && thread[0].Read
		})
	}, 2*time.Second, 10*time.Millisecond)
}

func TestChatSession_JoinMarksDeliveredWithoutAutoRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	off := false
	_, err := f.prefs.Update(ctx, "bob", UpdatePreferencesInput{AutoMarkAsRead: &off, EnableTypingIndicators: &off})
	require.NoError(t, err)

	chat, err := f.chats.CreateChat(ctx, "alice", CreateChatInput{RecipientID: "bob"})
	require.NoError(t, err)
	sent, err := f.chats.SendMessage(ctx, chat.ID, "alice", "pickup at 5?")
	require.NoError(t, err)

	session, emitter := f.newSession(t, "bob")
	require.NoError(t, session.Join(chat.ID))

	assert.Eventually(t, func() bool {
		message, err := f.chatRepo.GetMessage(ctx, chat.ID, sent.ID)
		return err == nil && message.Status == entity.MessageStatusDelivered
	}, 2*time.Second, 10*time.Millisecond)

	count, err := f.chats.GetUserUnreadCount(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Typing indicators are disabled for bob, so no typing feed is opened.
	assert.Zero(t, emitter.count(EventTyping))
}

func TestChatSession_SendAndInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	chat, err := f.chats.CreateChat(ctx, "alice", CreateChatInput{RecipientID: "bob"})
	require.NoError(t, err)

	alice, _ := f.newSession(t, "alice")
	bob, bobEvents := f.newSession(t, "bob")

	err = alice.Input(chat.ID, "hel")
	assert.True(t, apperrors.Is(err, apperrors.CodeBadRequest))
	_, err = alice.Send(chat.ID, SendMessageInput{Content: "hello"})
	assert.True(t, apperrors.Is(err, apperrors.CodeBadRequest))

	require.NoError(t, alice.Join(chat.ID))
	require.NoError(t, bob.Join(chat.ID))

	require.NoError(t, alice.Input(chat.ID, "hel"))
	assert.Eventually(t, func() bool {
		return bobEvents.has(func(ev emitted) bool {
			typers, ok := ev.data.([]*entity.TypingIndicator)
			return ev.event == EventTyping && ok && len(typers) == 1 && typers[0].UserID == "alice"
		})
	}, 2*time.Second, 10*time.Millisecond)

	message, err := alice.Send(chat.ID, SendMessageInput{Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, chat.ID, message.ChatID)

	assert.Eventually(t, func() bool {
		indicators, err := f.typing.ListTypingIndicators(ctx, chat.ID, "bob")
		return err == nil && len(indicators) == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return bobEvents.has(func(ev emitted) bool {
			thread, ok := ev.data.([]*entity.Message)
			return ev.event == EventMessages && ok && len(thread) == 1 && thread[0].Content == "hello"
		})
	}, 2*time.Second, 10*time.Millisecond)
}

func TestChatSession_LeaveAndClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	chat, err := f.chats.CreateChat(ctx, "alice", CreateChatInput{RecipientID: "bob"})
	require.NoError(t, err)
	other, err := f.chats.CreateChat(ctx, "alice", CreateChatInput{RecipientID: "carol"})
	require.NoError(t, err)

	session, _ := f.newSession(t, "alice")
	require.NoError(t, session.Start())
	require.NoError(t, session.Join(chat.ID))
	require.NoError(t, session.Join(other.ID))

	_, err = session.MarkRead(chat.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeBadRequest))
	_, err = session.MarkRead(other.ID)
	assert.NoError(t, err)

	session.Leave(chat.ID)
	require.NoError(t, session.Input(other.ID, "x"))
	session.Leave(other.ID)
	assert.Error(t, session.Input(other.ID, "x"))

	session.Close()
	session.Close()
	assert.Error(t, session.Join(chat.ID))
	assert.Error(t, session.Start())
}

func TestChatSession_JoinForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	chat, err := f.chats.CreateChat(ctx, "alice", CreateChatInput{RecipientID: "bob"})
	require.NoError(t, err)

	session, _ := f.newSession(t, "carol")
	err = session.Join(chat.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeForbidden))
}
