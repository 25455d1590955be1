package entity

type ChatPreferences struct {
	UserID                 string `json:"user_id"`
	EnableNotifications    bool   `json:"enable_notifications"`
	EnableTypingIndicators bool   `json:"enable_typing_indicators"`
	AutoMarkAsRead         bool   `json:"auto_mark_as_read"`
	QuickRepliesEnabled    bool   `json:"quick_replies_enabled"`
}

func DefaultChatPreferences(userID string) *ChatPreferences {
	return &ChatPreferences{
		UserID:                 userID,
		EnableNotifications:    true,
		EnableTypingIndicators: true,
		AutoMarkAsRead:         true,
		QuickRepliesEnabled:    true,
	}
}
