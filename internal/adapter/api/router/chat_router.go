package router

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/handler"
	"foodshare/internal/adapter/api/middleware"
)

// SetupChatRouter sets up the chat REST routes. Live updates go over /ws.
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	chatGroup := e.Group("/v1/chats")
	chatGroup.Use(authMiddleware.Authenticate)

	chatGroup.POST("", chatHandler.CreateChat)
	chatGroup.GET("", chatHandler.GetUserChats)
	chatGroup.GET("/unread", chatHandler.GetUnreadCount)
	chatGroup.GET("/preferences", chatHandler.GetPreferences)
	chatGroup.PUT("/preferences", chatHandler.UpdatePreferences)
	chatGroup.GET("/:id", chatHandler.GetChatByID)
	chatGroup.PUT("/:id/read", chatHandler.MarkChatAsRead)

	chatGroup.POST("/:id/messages", chatHandler.SendMessage)
	chatGroup.GET("/:id/messages", chatHandler.GetChatMessages)
	chatGroup.PUT("/:id/typing", chatHandler.SetTyping)
	chatGroup.GET("/:id/quick-replies", chatHandler.GetQuickReplies)
}

func SetupListingRouter(e *echo.Echo, listingHandler *handler.ListingHandler, authMiddleware *middleware.AuthMiddleware) {
	listingGroup := e.Group("/v1/listings")
	listingGroup.Use(authMiddleware.Authenticate)

	listingGroup.GET("", listingHandler.ListListings)
	listingGroup.GET("/search", listingHandler.SearchListings)
	listingGroup.GET("/:id", listingHandler.GetListing)
}
