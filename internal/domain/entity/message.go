package entity

import "time"

type MessageType string

const (
	MessageTypeText       MessageType = "text"
	MessageTypeImage      MessageType = "image"
	MessageTypeVoice      MessageType = "voice"
	MessageTypeQuickReply MessageType = "quick_reply"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVoice, MessageTypeQuickReply:
		return true
	}
	return false
}

type MessageStatus string

const (
	MessageStatusSending   MessageStatus = "sending"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
)

var statusRank = map[MessageStatus]int{
	MessageStatusSending:   0,
	MessageStatusSent:      1,
	MessageStatusDelivered: 2,
	MessageStatusRead:      3,
}

func (s MessageStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanAdvance reports whether moving from s to next goes forward.
func (s MessageStatus) CanAdvance(next MessageStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		from = -1
	}
	to, ok := statusRank[next]
	return ok && to > from
}

type QuickReplyType string

const (
	QuickReplyInterested       QuickReplyType = "interested"
	QuickReplyAvailable        QuickReplyType = "available"
	QuickReplyPriceNegotiation QuickReplyType = "price_negotiation"
	QuickReplyPickupTime       QuickReplyType = "pickup_time"
)

func (t QuickReplyType) Valid() bool {
	switch t {
	case QuickReplyInterested, QuickReplyAvailable, QuickReplyPriceNegotiation, QuickReplyPickupTime:
		return true
	}
	return false
}

// Message is immutable after creation except for Read (false to true) and
// Status (forward only).
type Message struct {
	ID             string         `json:"id"`
	ChatID         string         `json:"chat_id"`
	SenderID       string         `json:"sender_id"`
	SenderName     string         `json:"sender_name"`
	SenderPhoto    string         `json:"sender_photo,omitempty"`
	Content        string         `json:"content"`
	Timestamp      time.Time      `json:"timestamp"`
	Read           bool           `json:"read"`
	MessageType    MessageType    `json:"message_type"`
	Status         MessageStatus  `json:"status"`
	ReplyTo        string         `json:"reply_to,omitempty"`
	QuickReplyType QuickReplyType `json:"quick_reply_type,omitempty"`
}
