package usecase

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/internal/infrastructure/ratelimit"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
)

const maxMessageLength = 2000

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	typingRepo  repository.TypingRepository
	userRepo    repository.UserRepository
	listingUC   *ListingUseCase
	rateLimiter *ratelimit.RateLimiter
	timeout     time.Duration
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	typingRepo repository.TypingRepository,
	userRepo repository.UserRepository,
	listingUC *ListingUseCase,
	rateLimiter *ratelimit.RateLimiter,
	timeout time.Duration,
) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:    chatRepo,
		typingRepo:  typingRepo,
		userRepo:    userRepo,
		listingUC:   listingUC,
		rateLimiter: rateLimiter,
		timeout:     timeout,
	}
}

type CreateChatInput struct {
	RecipientID string
	ListingID   string
}

type SendMessageInput struct {
	ChatID         string
	Content        string
	MessageType    entity.MessageType
	QuickReplyType entity.QuickReplyType
	ReplyTo        string
}

func (uc *ChatUseCase) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, uc.timeout)
}

// CreateChat returns the chat between userID and the recipient, creating
// it on first contact.
func (uc *ChatUseCase) CreateChat(ctx context.Context, userID string, input CreateChatInput) (*entity.Chat, error) {
	if input.RecipientID == "" {
		return nil, errors.BadRequest("Recipient is required", nil)
	}
	if input.RecipientID == userID {
		return nil, errors.BadRequest("Cannot start a chat with yourself", nil)
	}

	allowed, waitTime := uc.rateLimiter.Allow(userID, ratelimit.ActionCreateChat)
	if !allowed {
		log.Printf("CreateChat Rate Limited: User %s must wait %v", userID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before creating another chat")
	}

	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	existing, err := uc.FindExistingChat(ctx, userID, input.RecipientID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	var listing *entity.Listing
	if input.ListingID != "" {
		listing, err = uc.listingUC.Get(ctx, input.ListingID)
		if err != nil {
			log.Printf("CreateChat Error: listing %s: %v", input.ListingID, err)
			return nil, err
		}
	}

	recipientFallback := ""
	if listing != nil && listing.ProducerID == input.RecipientID {
		recipientFallback = listing.ProducerName
	}
	sender, err := uc.participant(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	recipient, err := uc.participant(ctx, input.RecipientID, recipientFallback)
	if err != nil {
		return nil, err
	}

	chat := &entity.Chat{
		ID:           entity.ChatKey(userID, input.RecipientID),
		Participants: []entity.Participant{sender, recipient},
	}
	if listing != nil {
		chat.ListingID = listing.ID
		chat.ListingTitle = listing.Title
	}

	stored, created, err := uc.chatRepo.CreateIfAbsent(ctx, chat)
	if err != nil {
		log.Printf("CreateChat Error: %v", err)
		return nil, err
	}
	if !stored.HasParticipant(userID) || !stored.HasParticipant(input.RecipientID) {
		log.Printf("CreateChat Error: chat %s belongs to other participants", stored.ID)
		return nil, errors.Conflict("Chat id is already used by another conversation")
	}
	if created {
		log.Printf("Chat created: id=%s, participants=%s,%s", stored.ID, userID, input.RecipientID)
	}
	return stored, nil
}

// FindExistingChat scans userA's chats for one that also contains userB.
// There is no store query for "contains both", so this is linear in the
// number of chats userA has.
func (uc *ChatUseCase) FindExistingChat(ctx context.Context, userA, userB string) (*entity.Chat, error) {
	chats, err := uc.chatRepo.ListByParticipant(ctx, userA)
	if err != nil {
		log.Printf("FindExistingChat Error: %v", err)
		return nil, err
	}
	for _, chat := range chats {
		if chat.HasParticipant(userB) {
			return chat, nil
		}
	}
	return nil, nil
}

// participant snapshots a user's identity. Users without a profile
// document fall back to fallbackName.
func (uc *ChatUseCase) participant(ctx context.Context, userID, fallbackName string) (entity.Participant, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err == nil {
		return user.Participant(), nil
	}
	if !errors.Is(err, errors.CodeNotFound) {
		log.Printf("CreateChat Error: user %s: %v", userID, err)
		return entity.Participant{}, err
	}
	if fallbackName == "" {
		fallbackName = "User"
	}
	return entity.Participant{ID: userID, Name: fallbackName}, nil
}

// GetUserChats streams the user's chats, newest activity first.
func (uc *ChatUseCase) GetUserChats(ctx context.Context, userID string) (repository.Feed[[]*entity.Chat], error) {
	feed, err := uc.chatRepo.WatchByParticipant(ctx, userID)
	if err != nil {
		log.Printf("GetUserChats Error: %v", err)
		return nil, err
	}
	return repository.MapFeed[[]*entity.Chat, []*entity.Chat](feed, func(chats []*entity.Chat) ([]*entity.Chat, bool) {
		sortChats(chats)
		return chats, true
	}), nil
}

// ListUserChats is the one-shot form of GetUserChats. search, when set,
// matches the other participant's name, the last message or the listing
// title.
func (uc *ChatUseCase) ListUserChats(ctx context.Context, userID, search string) ([]*entity.Chat, error) {
	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	chats, err := uc.chatRepo.ListRecentByParticipant(ctx, userID)
	if errors.Is(err, errors.CodeIndexRequired) {
		logger.Warn("ListUserChats: missing index, sorting client-side")
		chats, err = uc.chatRepo.ListByParticipant(ctx, userID)
		if err == nil {
			sortChats(chats)
		}
	}
	if err != nil {
		log.Printf("ListUserChats Error: %v", err)
		return nil, err
	}

	return filterChats(chats, userID, search), nil
}

func (uc *ChatUseCase) GetChat(ctx context.Context, userID, chatID string) (*entity.Chat, error) {
	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	return uc.chatFor(ctx, userID, chatID)
}

func (uc *ChatUseCase) chatFor(ctx context.Context, userID, chatID string) (*entity.Chat, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant in this chat", nil)
	}
	return chat, nil
}

func (uc *ChatUseCase) SendMessage(ctx context.Context, chatID, senderID, content string) (*entity.Message, error) {
	return uc.SendEnhancedMessage(ctx, senderID, SendMessageInput{
		ChatID:      chatID,
		Content:     content,
		MessageType: entity.MessageTypeText,
	})
}

func (uc *ChatUseCase) SendEnhancedMessage(ctx context.Context, senderID string, input SendMessageInput) (*entity.Message, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, errors.BadRequest("Message content is required", nil)
	}
	if len(content) > maxMessageLength {
		return nil, errors.BadRequest("Message is too long", nil)
	}
	if input.MessageType == "" {
		input.MessageType = entity.MessageTypeText
	}
	if !input.MessageType.Valid() {
		return nil, errors.BadRequest("Unknown message type", nil)
	}
	if input.QuickReplyType != "" && !input.QuickReplyType.Valid() {
		return nil, errors.BadRequest("Unknown quick reply type", nil)
	}

	allowed, waitTime := uc.rateLimiter.Allow(senderID, ratelimit.ActionSendMessage)
	if !allowed {
		log.Printf("SendMessage Rate Limited: User %s must wait %v", senderID, waitTime)
		return nil, errors.TooManyRequests("You are sending messages too quickly. Please slow down")
	}

	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	chat, err := uc.chatFor(ctx, senderID, input.ChatID)
	if err != nil {
		return nil, err
	}

	if input.ReplyTo != "" {
		if _, err := uc.chatRepo.GetMessage(ctx, chat.ID, input.ReplyTo); err != nil {
			if errors.Is(err, errors.CodeNotFound) {
				return nil, errors.BadRequest("Replied message does not exist in this chat", nil)
			}
			return nil, err
		}
	}

	sender := uc.senderSnapshot(ctx, chat, senderID)
	message, err := uc.chatRepo.AppendMessage(ctx, &entity.Message{
		ChatID:         chat.ID,
		SenderID:       senderID,
		SenderName:     sender.Name,
		SenderPhoto:    sender.Photo,
		Content:        content,
		MessageType:    input.MessageType,
		Status:         entity.MessageStatusSent,
		ReplyTo:        input.ReplyTo,
		QuickReplyType: input.QuickReplyType,
	})
	if err != nil {
		log.Printf("SendMessage Error: %v", err)
		return nil, err
	}

	// Sending ends typing.
	if err := uc.typingRepo.Clear(ctx, chat.ID, senderID); err != nil {
		logger.Warn("SendMessage: failed to clear typing indicator: %v", err)
	}

	return message, nil
}

// senderSnapshot prefers the live profile and falls back to the snapshot
// stored on the chat.
func (uc *ChatUseCase) senderSnapshot(ctx context.Context, chat *entity.Chat, senderID string) entity.Participant {
	if user, err := uc.userRepo.GetByID(ctx, senderID); err == nil {
		return user.Participant()
	}
	for _, p := range chat.Participants {
		if p.ID == senderID {
			return p
		}
	}
	return entity.Participant{ID: senderID, Name: "User"}
}

// GetChatMessages streams the thread in ascending timestamp order.
func (uc *ChatUseCase) GetChatMessages(ctx context.Context, userID, chatID string) (repository.Feed[[]*entity.Message], error) {
	checkCtx, cancel := uc.withTimeout(ctx)
	_, err := uc.chatFor(checkCtx, userID, chatID)
	cancel()
	if err != nil {
		return nil, err
	}

	feed, err := uc.chatRepo.WatchMessages(ctx, chatID)
	if err != nil {
		log.Printf("GetChatMessages Error: %v", err)
		return nil, err
	}
	return feed, nil
}

func (uc *ChatUseCase) ListChatMessages(ctx context.Context, userID, chatID string) ([]*entity.Message, error) {
	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	if _, err := uc.chatFor(ctx, userID, chatID); err != nil {
		return nil, err
	}
	messages, err := uc.chatRepo.ListMessages(ctx, chatID)
	if err != nil {
		log.Printf("ListChatMessages Error: %v", err)
		return nil, err
	}
	return messages, nil
}

// MarkMessagesAsRead zeroes userID's counter and flags the other
// participant's messages as read. It returns how many messages flipped.
func (uc *ChatUseCase) MarkMessagesAsRead(ctx context.Context, chatID, userID string) (int, error) {
	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	if _, err := uc.chatFor(ctx, userID, chatID); err != nil {
		return 0, err
	}
	flipped, err := uc.chatRepo.MarkRead(ctx, chatID, userID)
	if err != nil {
		log.Printf("MarkMessagesAsRead Error: %v", err)
		return 0, err
	}
	return flipped, nil
}

// AdvanceMessageStatus moves a received message forward, e.g. to
// delivered. Senders cannot advance their own messages.
func (uc *ChatUseCase) AdvanceMessageStatus(ctx context.Context, userID, chatID, messageID string, status entity.MessageStatus) (bool, error) {
	if !status.Valid() {
		return false, errors.BadRequest("Unknown message status", nil)
	}

	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	if _, err := uc.chatFor(ctx, userID, chatID); err != nil {
		return false, err
	}
	message, err := uc.chatRepo.GetMessage(ctx, chatID, messageID)
	if err != nil {
		return false, err
	}
	if message.SenderID == userID {
		return false, nil
	}
	return uc.chatRepo.AdvanceMessageStatus(ctx, chatID, messageID, status)
}

func (uc *ChatUseCase) GetUserUnreadCount(ctx context.Context, userID string) (int, error) {
	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	chats, err := uc.chatRepo.ListByParticipant(ctx, userID)
	if err != nil {
		log.Printf("GetUserUnreadCount Error: %v", err)
		return 0, err
	}
	return SumUnread(chats, userID), nil
}

// QuickRepliesFor suggests replies for userID in the chat. The role comes
// from the chat's listing: its producer gets producer replies.
func (uc *ChatUseCase) QuickRepliesFor(ctx context.Context, userID, chatID string) (*Suggestion, error) {
	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	chat, err := uc.chatFor(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	messages, err := uc.chatRepo.ListMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}

	var listing *entity.Listing
	if chat.ListingID != "" {
		listing, err = uc.listingUC.Get(ctx, chat.ListingID)
		if err != nil {
			logger.Warn("QuickReplies: listing %s unavailable, assuming consumer: %v", chat.ListingID, err)
			listing = nil
		}
	}

	suggestion := SuggestQuickReplies(RoleForListing(userID, listing), messages, userID)
	return &suggestion, nil
}

func sortChats(chats []*entity.Chat) {
	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].LastMessageTime.After(chats[j].LastMessageTime)
	})
}

func filterChats(chats []*entity.Chat, userID, search string) []*entity.Chat {
	term := strings.ToLower(strings.TrimSpace(search))
	if term == "" {
		return chats
	}
	out := make([]*entity.Chat, 0, len(chats))
	for _, chat := range chats {
		other, _ := chat.Other(userID)
		if strings.Contains(strings.ToLower(other.Name), term) ||
			strings.Contains(strings.ToLower(chat.LastMessage), term) ||
			strings.Contains(strings.ToLower(chat.ListingTitle), term) {
			out = append(out, chat)
		}
	}
	return out
}
