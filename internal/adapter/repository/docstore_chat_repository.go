package repository

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/internal/infrastructure/docstore"
	apperrors "foodshare/pkg/errors"
)

const (
	chatsCollection    = "chats"
	messagesCollection = "messages"
	typingCollection   = "typing"
)

type docstoreChatRepository struct {
	store docstore.Store
}

func NewDocstoreChatRepository(store docstore.Store) repository.ChatRepository {
	return &docstoreChatRepository{
		store: store,
	}
}

func newDocumentID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

func chatPath(chatID string) string {
	return docstore.DocPath(chatsCollection, chatID)
}

func messagesPath(chatID string) string {
	return docstore.DocPath(chatsCollection, chatID, messagesCollection)
}

func messagePath(chatID, messageID string) string {
	return docstore.DocPath(chatsCollection, chatID, messagesCollection, messageID)
}

func (r *docstoreChatRepository) CreateIfAbsent(ctx context.Context, chat *entity.Chat) (*entity.Chat, bool, error) {
	if chat.ID == "" {
		chat.ID = newDocumentID()
	}
	path := chatPath(chat.ID)

	var created bool
	err := r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		created = false
		_, err := tx.Get(path)
		if err == nil {
			return nil
		}
		if !errors.Is(err, docstore.ErrNotFound) {
			return err
		}
		created = true
		return tx.Set(path, chatToData(chat))
	})
	if err != nil {
		return nil, false, apperrors.FromStore(err, "Chat")
	}

	stored, err := r.GetByID(ctx, chat.ID)
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

func (r *docstoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.store.Get(ctx, chatPath(id))
	if err != nil {
		return nil, apperrors.FromStore(err, "Chat")
	}
	return chatFromDocument(doc), nil
}

func (r *docstoreChatRepository) participantQuery(userID string) docstore.Query {
	return docstore.From(chatsCollection).Where("participantIds", docstore.OpArrayContains, userID)
}

func (r *docstoreChatRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.Chat, error) {
	docs, err := r.store.Query(ctx, r.participantQuery(userID))
	if err != nil {
		return nil, apperrors.FromStore(err, "Chats")
	}
	return chatsFromDocuments(docs), nil
}

func (r *docstoreChatRepository) ListRecentByParticipant(ctx context.Context, userID string) ([]*entity.Chat, error) {
	q := r.participantQuery(userID).Ordered("lastMessageTime", docstore.Desc)
	docs, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, apperrors.FromStore(err, "Chats")
	}
	return chatsFromDocuments(docs), nil
}

func (r *docstoreChatRepository) WatchByParticipant(ctx context.Context, userID string) (repository.Feed[[]*entity.Chat], error) {
	sub, err := r.store.Subscribe(ctx, r.participantQuery(userID))
	if err != nil {
		return nil, apperrors.FromStore(err, "Chats")
	}
	return repository.MapFeed[[]*docstore.Document, []*entity.Chat](sub, func(docs []*docstore.Document) ([]*entity.Chat, bool) {
		return chatsFromDocuments(docs), true
	}), nil
}

func (r *docstoreChatRepository) AppendMessage(ctx context.Context, message *entity.Message) (*entity.Message, error) {
	message.ID = newDocumentID()
	chatRef := chatPath(message.ChatID)
	messageRef := messagePath(message.ChatID, message.ID)

	err := r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		doc, err := tx.Get(chatRef)
		if err != nil {
			return err
		}
		chat := chatFromDocument(doc)

		if err := tx.Set(messageRef, messageToData(message)); err != nil {
			return err
		}

		updates := []docstore.Update{
			{Path: "lastMessage", Value: message.Content},
			{Path: "lastMessageTime", Value: docstore.ServerTimestamp},
			{Path: "lastMessageSender", Value: message.SenderID},
			{Path: "updatedAt", Value: docstore.ServerTimestamp},
			{Path: "unreadCount." + message.SenderID, Value: 0},
		}
		for _, id := range chat.ParticipantIDs {
			if id != message.SenderID {
				updates = append(updates, docstore.Update{Path: "unreadCount." + id, Value: docstore.Increment(1)})
			}
		}
		return tx.Update(chatRef, updates)
	})
	if err != nil {
		log.Printf("AppendMessage Error: chat=%s: %v", message.ChatID, err)
		return nil, apperrors.FromStore(err, "Chat")
	}

	return r.GetMessage(ctx, message.ChatID, message.ID)
}

func (r *docstoreChatRepository) GetMessage(ctx context.Context, chatID, messageID string) (*entity.Message, error) {
	doc, err := r.store.Get(ctx, messagePath(chatID, messageID))
	if err != nil {
		return nil, apperrors.FromStore(err, "Message")
	}
	return messageFromDocument(doc), nil
}

func (r *docstoreChatRepository) messageQuery(chatID string) docstore.Query {
	return docstore.From(messagesPath(chatID)).Ordered("timestamp", docstore.Asc)
}

func (r *docstoreChatRepository) ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error) {
	docs, err := r.store.Query(ctx, r.messageQuery(chatID))
	if err != nil {
		return nil, apperrors.FromStore(err, "Messages")
	}
	return messagesFromDocuments(docs), nil
}

func (r *docstoreChatRepository) WatchMessages(ctx context.Context, chatID string) (repository.Feed[[]*entity.Message], error) {
	sub, err := r.store.Subscribe(ctx, r.messageQuery(chatID))
	if err != nil {
		return nil, apperrors.FromStore(err, "Messages")
	}
	return repository.MapFeed[[]*docstore.Document, []*entity.Message](sub, func(docs []*docstore.Document) ([]*entity.Message, bool) {
		return messagesFromDocuments(docs), true
	}), nil
}

// MarkRead flips the user's unread messages and zeroes their counter in one
// transaction, so a message appended concurrently is either flipped here or
// counted after the reset.
func (r *docstoreChatRepository) MarkRead(ctx context.Context, chatID, userID string) (int, error) {
	chatRef := chatPath(chatID)
	// Single-field filter; the sender is checked here to avoid a composite index.
	unreadQuery := docstore.From(messagesPath(chatID)).Where("read", docstore.OpEqual, false)

	var marked int
	err := r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		marked = 0
		if _, err := tx.Get(chatRef); err != nil {
			return err
		}
		docs, err := tx.Query(unreadQuery)
		if err != nil {
			return err
		}
		var unread []string
		for _, doc := range docs {
			if doc.String("senderId") != userID {
				unread = append(unread, doc.ID)
			}
		}

		if err := tx.Update(chatRef, []docstore.Update{{Path: "unreadCount." + userID, Value: 0}}); err != nil {
			return err
		}
		for _, id := range unread {
			err := tx.Update(messagePath(chatID, id), []docstore.Update{
				{Path: "read", Value: true},
				{Path: "status", Value: string(entity.MessageStatusRead)},
			})
			if err != nil {
				return err
			}
		}
		marked = len(unread)
		return nil
	})
	if err != nil {
		return 0, apperrors.FromStore(err, "Chat")
	}
	return marked, nil
}

func (r *docstoreChatRepository) AdvanceMessageStatus(ctx context.Context, chatID, messageID string, status entity.MessageStatus) (bool, error) {
	path := messagePath(chatID, messageID)
	var advanced bool
	err := r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		advanced = false
		doc, err := tx.Get(path)
		if err != nil {
			return err
		}
		current := entity.MessageStatus(doc.String("status"))
		if !current.CanAdvance(status) {
			return nil
		}
		updates := []docstore.Update{{Path: "status", Value: string(status)}}
		if status == entity.MessageStatusRead {
			updates = append(updates, docstore.Update{Path: "read", Value: true})
		}
		advanced = true
		return tx.Update(path, updates)
	})
	if err != nil {
		return false, apperrors.FromStore(err, "Message")
	}
	return advanced, nil
}

func chatToData(chat *entity.Chat) map[string]interface{} {
	participants := make([]interface{}, 0, len(chat.Participants))
	ids := make([]interface{}, 0, len(chat.Participants))
	unread := make(map[string]interface{}, len(chat.Participants))
	for _, p := range chat.Participants {
		participants = append(participants, map[string]interface{}{
			"id":    p.ID,
			"name":  p.Name,
			"photo": p.Photo,
		})
		ids = append(ids, p.ID)
		unread[p.ID] = 0
	}

	data := map[string]interface{}{
		"participants":      participants,
		"participantIds":    ids,
		"lastMessage":       "",
		"lastMessageTime":   docstore.ServerTimestamp,
		"lastMessageSender": "",
		"unreadCount":       unread,
		"createdAt":         docstore.ServerTimestamp,
		"updatedAt":         docstore.ServerTimestamp,
	}
	if chat.ListingID != "" {
		data["listingId"] = chat.ListingID
		data["listingTitle"] = chat.ListingTitle
	}
	return data
}

func chatFromDocument(doc *docstore.Document) *entity.Chat {
	chat := &entity.Chat{
		ID:                doc.ID,
		ParticipantIDs:    doc.Strings("participantIds"),
		LastMessage:       doc.String("lastMessage"),
		LastMessageTime:   doc.Time("lastMessageTime"),
		LastMessageSender: doc.String("lastMessageSender"),
		UnreadCount:       doc.IntMap("unreadCount"),
		ListingID:         doc.String("listingId"),
		ListingTitle:      doc.String("listingTitle"),
		CreatedAt:         doc.Time("createdAt"),
		UpdatedAt:         doc.Time("updatedAt"),
	}
	for _, p := range doc.Maps("participants") {
		participant := entity.Participant{}
		participant.ID, _ = p["id"].(string)
		participant.Name, _ = p["name"].(string)
		participant.Photo, _ = p["photo"].(string)
		chat.Participants = append(chat.Participants, participant)
	}
	return chat
}

func chatsFromDocuments(docs []*docstore.Document) []*entity.Chat {
	chats := make([]*entity.Chat, 0, len(docs))
	for _, doc := range docs {
		chats = append(chats, chatFromDocument(doc))
	}
	return chats
}

func messageToData(m *entity.Message) map[string]interface{} {
	data := map[string]interface{}{
		"chatId":      m.ChatID,
		"senderId":    m.SenderID,
		"senderName":  m.SenderName,
		"senderPhoto": m.SenderPhoto,
		"content":     m.Content,
		"timestamp":   docstore.ServerTimestamp,
		"read":        false,
		"messageType": string(m.MessageType),
		"status":      string(m.Status),
	}
	if m.ReplyTo != "" {
		data["replyTo"] = m.ReplyTo
	}
	if m.QuickReplyType != "" {
		data["quickReplyType"] = string(m.QuickReplyType)
	}
	return data
}

func messageFromDocument(doc *docstore.Document) *entity.Message {
	messageType := entity.MessageType(doc.String("messageType"))
	if messageType == "" {
		messageType = entity.MessageTypeText
	}
	return &entity.Message{
		ID:             doc.ID,
		ChatID:         doc.String("chatId"),
		SenderID:       doc.String("senderId"),
		SenderName:     doc.String("senderName"),
		SenderPhoto:    doc.String("senderPhoto"),
		Content:        doc.String("content"),
		Timestamp:      doc.Time("timestamp"),
		Read:           doc.Bool("read"),
		MessageType:    messageType,
		Status:         entity.MessageStatus(doc.String("status")),
		ReplyTo:        doc.String("replyTo"),
		QuickReplyType: entity.QuickReplyType(doc.String("quickReplyType")),
	}
}

func messagesFromDocuments(docs []*docstore.Document) []*entity.Message {
	messages := make([]*entity.Message, 0, len(docs))
	for _, doc := range docs {
		messages = append(messages, messageFromDocument(doc))
	}
	return messages
}
