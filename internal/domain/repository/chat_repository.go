package repository

import (
	"context"

	"foodshare/internal/domain/entity"
)

type ChatRepository interface {
	// CreateIfAbsent stores chat under chat.ID inside a transaction. When a
	// chat with that id already exists it is returned with created=false.
	CreateIfAbsent(ctx context.Context, chat *entity.Chat) (stored *entity.Chat, created bool, err error)
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	// ListByParticipant returns the user's chats in store order.
	ListByParticipant(ctx context.Context, userID string) ([]*entity.Chat, error)
	// ListRecentByParticipant orders by lastMessageTime descending. It needs
	// a composite index on Firestore.
	ListRecentByParticipant(ctx context.Context, userID string) ([]*entity.Chat, error)
	WatchByParticipant(ctx context.Context, userID string) (Feed[[]*entity.Chat], error)

	// AppendMessage writes the message and updates the chat summary and
	// unread counters in one transaction. ID and Timestamp are assigned.
	AppendMessage(ctx context.Context, message *entity.Message) (*entity.Message, error)
	GetMessage(ctx context.Context, chatID, messageID string) (*entity.Message, error)
	ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error)
	WatchMessages(ctx context.Context, chatID string) (Feed[[]*entity.Message], error)
	// MarkRead zeroes userID's counter and flags every unread message from
	// the other participant as read. It returns the number of messages flipped.
	MarkRead(ctx context.Context, chatID, userID string) (int, error)
	// AdvanceMessageStatus moves a message's status forward; it reports
	// false when status would not advance.
	AdvanceMessageStatus(ctx context.Context, chatID, messageID string, status entity.MessageStatus) (bool, error)
}

type TypingRepository interface {
	Set(ctx context.Context, chatID, userID, userName string) error
	// Clear nulls the timestamp. A missing record is not an error.
	Clear(ctx context.Context, chatID, userID string) error
	List(ctx context.Context, chatID string) ([]*entity.TypingIndicator, error)
	Watch(ctx context.Context, chatID string) (Feed[[]*entity.TypingIndicator], error)
}

type ChatPreferencesRepository interface {
	// Get returns defaults when the user has never saved preferences.
	Get(ctx context.Context, userID string) (*entity.ChatPreferences, error)
	Save(ctx context.Context, prefs *entity.ChatPreferences) error
}
