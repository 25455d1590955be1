package usecase

import (
	"context"
	"sync"
	"time"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
)

// Events a ChatSession emits.
const (
	EventChatList    = "chat_list"
	EventUnreadCount = "unread_count"
	EventMessages    = "messages"
	EventTyping      = "typing"
	EventError       = "error"
)

// Emitter receives the session's outgoing events.
type Emitter interface {
	Emit(event, chatID string, data interface{})
}

// ChatSession is one connected user's live view: chat list, unread badge
// and at most one open thread with its typing banner. Every feed it
// opens is closed exactly once, on leaving the thread or on Close.
type ChatSession struct {
	chats         *ChatUseCase
	typing        *TypingUseCase
	unread        *UnreadAggregator
	prefs         *PreferencesUseCase
	typingTimeout time.Duration

	userID string
	emit   Emitter
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	room    *chatRoom
	feeds   []func()
	wg      sync.WaitGroup
	started bool
	closed  bool
}

type chatRoom struct {
	chatID  string
	closers []func()
	tracker *TypingTracker
	wg      sync.WaitGroup
}

func NewChatSession(
	ctx context.Context,
	chats *ChatUseCase,
	typing *TypingUseCase,
	unread *UnreadAggregator,
	prefs *PreferencesUseCase,
	typingTimeout time.Duration,
	userID string,
	emit Emitter,
) *ChatSession {
	ctx, cancel := context.WithCancel(ctx)
	return &ChatSession{
		chats:         chats,
		typing:        typing,
		unread:        unread,
		prefs:         prefs,
		typingTimeout: typingTimeout,
		userID:        userID,
		emit:          emit,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// pump forwards every update of feed to fn until the feed ends.
func pump[T any](wg *sync.WaitGroup, name, key string, feed repository.Feed[T], fn func(T)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range feed.Updates() {
			fn(update)
		}
		if err := feed.Err(); err != nil {
			logger.FeedError(name, key, err)
		}
	}()
}

// Start opens the chat list and unread badge feeds.
func (s *ChatSession) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.BadRequest("Session is closed", nil)
	}
	if s.started {
		return nil
	}

	chatFeed, err := s.chats.GetUserChats(s.ctx, s.userID)
	if err != nil {
		return err
	}
	unreadFeed, err := s.unread.Watch(s.ctx, s.userID)
	if err != nil {
		chatFeed.Close()
		return err
	}

	s.started = true
	s.feeds = append(s.feeds, chatFeed.Close, unreadFeed.Close)
	pump(&s.wg, "chat_list", s.userID, chatFeed, func(chats []*entity.Chat) {
		s.emit.Emit(EventChatList, "", chats)
	})
	pump(&s.wg, "unread_count", s.userID, unreadFeed, func(update UnreadUpdate) {
		s.emit.Emit(EventUnreadCount, "", update)
	})
	return nil
}

// Join opens chatID's thread, replacing any thread already open.
func (s *ChatSession) Join(chatID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.BadRequest("Session is closed", nil)
	}
	if s.room != nil && s.room.chatID == chatID {
		s.mu.Unlock()
		return nil
	}
	previous := s.room
	s.room = nil
	s.mu.Unlock()

	if previous != nil {
		previous.close()
	}

	room, err := s.openRoom(chatID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed || s.room != nil {
		// Lost a race with Close or another Join.
		s.mu.Unlock()
		room.close()
		return nil
	}
	s.room = room
	s.mu.Unlock()
	return nil
}

func (s *ChatSession) openRoom(chatID string) (*chatRoom, error) {
	prefs, err := s.prefs.Get(s.ctx, s.userID)
	if err != nil {
		logger.Warn("ChatSession: using default preferences for %s: %v", s.userID, err)
		prefs = entity.DefaultChatPreferences(s.userID)
	}

	messages, err := s.chats.GetChatMessages(s.ctx, s.userID, chatID)
	if err != nil {
		return nil, err
	}

	room := &chatRoom{
		chatID:  chatID,
		closers: []func(){messages.Close},
		tracker: NewTypingTracker(s.ctx, s.typing, chatID, s.userID, "", s.typingTimeout),
	}

	if prefs.EnableTypingIndicators {
		typers, err := s.typing.GetTypingIndicators(s.ctx, chatID, s.userID)
		if err != nil {
			logger.Warn("ChatSession: typing feed unavailable for %s: %v", chatID, err)
		} else {
			room.closers = append(room.closers, typers.Close)
			pump(&room.wg, "typing", chatID, typers, func(indicators []*entity.TypingIndicator) {
				s.emit.Emit(EventTyping, chatID, indicators)
			})
		}
	}

	autoRead := prefs.AutoMarkAsRead
	pump(&room.wg, "messages", chatID, messages, func(thread []*entity.Message) {
		s.emit.Emit(EventMessages, chatID, thread)
		s.acknowledge(chatID, thread, autoRead)
	})
	return room, nil
}

// acknowledge marks the other participant's messages read when the user
// opted in, or delivered otherwise.
func (s *ChatSession) acknowledge(chatID string, thread []*entity.Message, autoRead bool) {
	pendingRead := false
	for _, m := range thread {
		if m.SenderID == s.userID {
			continue
		}
		if autoRead {
			if !m.Read {
				pendingRead = true
			}
			continue
		}
		if m.Status.CanAdvance(entity.MessageStatusDelivered) {
			if _, err := s.chats.AdvanceMessageStatus(s.ctx, s.userID, chatID, m.ID, entity.MessageStatusDelivered); err != nil {
				logger.Warn("ChatSession: mark delivered %s: %v", m.ID, err)
			}
		}
	}
	if pendingRead {
		if _, err := s.chats.MarkMessagesAsRead(s.ctx, chatID, s.userID); err != nil {
			logger.Warn("ChatSession: auto mark read %s: %v", chatID, err)
		}
	}
}

// Leave closes chatID's thread if it is the open one.
func (s *ChatSession) Leave(chatID string) {
	s.mu.Lock()
	room := s.room
	if room == nil || (chatID != "" && room.chatID != chatID) {
		s.mu.Unlock()
		return
	}
	s.room = nil
	s.mu.Unlock()

	room.close()
}

func (s *ChatSession) currentRoom(chatID string) (*chatRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil || (chatID != "" && s.room.chatID != chatID) {
		return nil, errors.BadRequest("Join the chat first", nil)
	}
	return s.room, nil
}

// Input feeds the composer text of the open thread to its typing tracker.
func (s *ChatSession) Input(chatID, text string) error {
	room, err := s.currentRoom(chatID)
	if err != nil {
		return err
	}
	room.tracker.Input(text)
	return nil
}

// Send posts a message to the open thread and ends typing.
func (s *ChatSession) Send(chatID string, input SendMessageInput) (*entity.Message, error) {
	room, err := s.currentRoom(chatID)
	if err != nil {
		return nil, err
	}
	input.ChatID = room.chatID
	message, err := s.chats.SendEnhancedMessage(s.ctx, s.userID, input)
	if err != nil {
		return nil, err
	}
	room.tracker.Sent()
	return message, nil
}

func (s *ChatSession) MarkRead(chatID string) (int, error) {
	room, err := s.currentRoom(chatID)
	if err != nil {
		return 0, err
	}
	return s.chats.MarkMessagesAsRead(s.ctx, room.chatID, s.userID)
}

// Close tears down every feed and the typing tracker. Additional calls
// are no-ops.
func (s *ChatSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	room := s.room
	s.room = nil
	feeds := s.feeds
	s.feeds = nil
	s.mu.Unlock()

	if room != nil {
		room.close()
	}
	for _, closeFeed := range feeds {
		closeFeed()
	}
	s.cancel()
	s.wg.Wait()
}

func (r *chatRoom) close() {
	r.tracker.Close()
	for _, closeFeed := range r.closers {
		closeFeed()
	}
	r.wg.Wait()
}
