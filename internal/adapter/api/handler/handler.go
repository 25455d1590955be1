package handler

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/usecase"
	"foodshare/pkg/errors"
)

var (
	chatHandler    *ChatHandler
	listingHandler *ListingHandler
)

func Setup(
	chatUseCase *usecase.ChatUseCase,
	typingUseCase *usecase.TypingUseCase,
	preferencesUseCase *usecase.PreferencesUseCase,
	listingUseCase *usecase.ListingUseCase,
) {
	chatHandler = NewChatHandler(chatUseCase, typingUseCase, preferencesUseCase)
	listingHandler = NewListingHandler(listingUseCase)
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}

func GetListingHandler() *ListingHandler {
	return listingHandler
}

// currentUser returns the uid set by the auth middleware.
func currentUser(c echo.Context) (string, error) {
	uid, ok := c.Get("uid").(string)
	if !ok || uid == "" {
		return "", errors.Unauthorized("Authentication required", nil)
	}
	return uid, nil
}
