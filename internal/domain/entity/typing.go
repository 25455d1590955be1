package entity

import "time"

// TypingIndicator lives at chats/{chatId}/typing/{userId}. A nil Timestamp
// means the user is not typing; records are cleared, never deleted.
type TypingIndicator struct {
	UserID    string     `json:"user_id"`
	UserName  string     `json:"user_name"`
	ChatID    string     `json:"chat_id"`
	Timestamp *time.Time `json:"timestamp"`
}

func (t TypingIndicator) Active() bool {
	return t.Timestamp != nil
}
