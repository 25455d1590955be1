package handler

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/domain/entity"
	"foodshare/internal/usecase"
	"foodshare/pkg/errors"
	"foodshare/pkg/response"
)

type ChatHandler struct {
	chatUseCase        *usecase.ChatUseCase
	typingUseCase      *usecase.TypingUseCase
	preferencesUseCase *usecase.PreferencesUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase, typingUseCase *usecase.TypingUseCase, preferencesUseCase *usecase.PreferencesUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase:        chatUseCase,
		typingUseCase:      typingUseCase,
		preferencesUseCase: preferencesUseCase,
	}
}

type createChatRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	ListingID   string `json:"listing_id"`
}

type sendMessageRequest struct {
	Content        string `json:"content" validate:"required,max=2000"`
	MessageType    string `json:"message_type" validate:"omitempty,oneof=text image voice quick_reply"`
	QuickReplyType string `json:"quick_reply_type" validate:"omitempty,oneof=interested available price_negotiation pickup_time"`
	ReplyTo        string `json:"reply_to"`
}

type typingRequest struct {
	Typing bool `json:"typing"`
}

type updatePreferencesRequest struct {
	EnableNotifications    *bool `json:"enable_notifications"`
	EnableTypingIndicators *bool `json:"enable_typing_indicators"`
	AutoMarkAsRead         *bool `json:"auto_mark_as_read"`
	QuickRepliesEnabled    *bool `json:"quick_replies_enabled"`
}

// CreateChat opens the chat with the recipient, or returns the existing one.
func (h *ChatHandler) CreateChat(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req createChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	chat, err := h.chatUseCase.CreateChat(c.Request().Context(), userID, usecase.CreateChatInput{
		RecipientID: req.RecipientID,
		ListingID:   req.ListingID,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, chat)
}

// GetUserChats lists the caller's chats, newest activity first. ?q=
// filters by participant name, last message or listing title.
func (h *ChatHandler) GetUserChats(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	chats, err := h.chatUseCase.ListUserChats(c.Request().Context(), userID, c.QueryParam("q"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chats)
}

func (h *ChatHandler) GetUnreadCount(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	total, err := h.chatUseCase.GetUserUnreadCount(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int{"total": total})
}

func (h *ChatHandler) GetChatByID(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	chat, err := h.chatUseCase.GetChat(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chat)
}

func (h *ChatHandler) MarkChatAsRead(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	marked, err := h.chatUseCase.MarkMessagesAsRead(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int{"marked": marked})
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.SendEnhancedMessage(c.Request().Context(), userID, usecase.SendMessageInput{
		ChatID:         c.Param("id"),
		Content:        req.Content,
		MessageType:    entity.MessageType(req.MessageType),
		QuickReplyType: entity.QuickReplyType(req.QuickReplyType),
		ReplyTo:        req.ReplyTo,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// GetChatMessages returns the whole thread in ascending timestamp order.
func (h *ChatHandler) GetChatMessages(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	messages, err := h.chatUseCase.ListChatMessages(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

func (h *ChatHandler) SetTyping(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req typingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	chatID := c.Param("id")
	if req.Typing {
		err = h.typingUseCase.SetTypingIndicator(c.Request().Context(), chatID, userID, "")
	} else {
		err = h.typingUseCase.ClearTypingIndicator(c.Request().Context(), chatID, userID)
	}
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{"typing": req.Typing})
}

func (h *ChatHandler) GetQuickReplies(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	suggestion, err := h.chatUseCase.QuickRepliesFor(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, suggestion)
}

func (h *ChatHandler) GetPreferences(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	prefs, err := h.preferencesUseCase.Get(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, prefs)
}

func (h *ChatHandler) UpdatePreferences(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req updatePreferencesRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	prefs, err := h.preferencesUseCase.Update(c.Request().Context(), userID, usecase.UpdatePreferencesInput{
		EnableNotifications:    req.EnableNotifications,
		EnableTypingIndicators: req.EnableTypingIndicators,
		AutoMarkAsRead:         req.AutoMarkAsRead,
		QuickRepliesEnabled:    req.QuickRepliesEnabled,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, prefs)
}
