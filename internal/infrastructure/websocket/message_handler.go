package websocket

import (
	"encoding/json"
	"log"
	"time"
)

const (
	MessageTypePing          = "ping"
	MessageTypePong          = "pong"
	MessageTypeJoinChatRoom  = "join_chat_room"
	MessageTypeLeaveChatRoom = "leave_chat_room"
	MessageTypeInput         = "input"
	MessageTypeSendMessage   = "send_message"
	MessageTypeMarkRead      = "mark_read"

	MessageTypeChatList    = "chat_list"
	MessageTypeUnreadCount = "unread_count"
	MessageTypeMessages    = "messages"
	MessageTypeMessageSent = "message_sent"
	MessageTypeTyping      = "typing"
	MessageTypeError       = "error"
)

// WSMessage is the envelope of every frame in both directions.
type WSMessage struct {
	Type      string          `json:"type"`
	ChatID    string          `json:"chat_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp"`
}

type InputData struct {
	Text string `json:"text"`
}

type SendMessageData struct {
	Content        string `json:"content"`
	MessageType    string `json:"message_type,omitempty"`
	QuickReplyType string `json:"quick_reply_type,omitempty"`
	ReplyTo        string `json:"reply_to,omitempty"`
}

type ErrorData struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// Encode builds an outgoing frame.
func Encode(msgType, chatID string, data interface{}) ([]byte, error) {
	msg := WSMessage{
		Type:      msgType,
		ChatID:    chatID,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return json.Marshal(msg)
}

// Send encodes and queues a frame for the client.
func (c *Client) Send(msgType, chatID string, data interface{}) bool {
	frame, err := Encode(msgType, chatID, data)
	if err != nil {
		log.Printf("WebSocket: failed to encode %s frame for %s: %v", msgType, c.UserID, err)
		return false
	}
	return c.Enqueue(frame)
}

func (c *Client) SendError(code, message string, retryable bool) {
	c.Send(MessageTypeError, "", ErrorData{Code: code, Message: message, Retryable: retryable})
}

// HandlerFunc handles one decoded client frame. A returned error is sent
// back to the client as an error frame by the Router's ErrorFunc.
type HandlerFunc func(msg WSMessage) error

// Router dispatches client frames by type.
type Router struct {
	handlers  map[string]HandlerFunc
	ErrorFunc func(client *Client, err error)
}

func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]HandlerFunc),
	}
}

func (r *Router) Handle(msgType string, fn HandlerFunc) {
	r.handlers[msgType] = fn
}

// Dispatch decodes raw and runs the handler registered for its type.
func (r *Router) Dispatch(client *Client, raw []byte) {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("WebSocket: Failed to unmarshal message from client %s: %v", client.UserID, err)
		client.SendError("BAD_REQUEST", "Invalid message format", false)
		return
	}

	fn, ok := r.handlers[msg.Type]
	if !ok {
		log.Printf("WebSocket: Unknown message type '%s' from client %s", msg.Type, client.UserID)
		client.SendError("BAD_REQUEST", "Unknown message type", false)
		return
	}

	if err := fn(msg); err != nil {
		if r.ErrorFunc != nil {
			r.ErrorFunc(client, err)
			return
		}
		client.SendError("INTERNAL_ERROR", err.Error(), false)
	}
}

// DecodeData unmarshals the frame payload into v. An absent payload
// leaves v untouched.
func DecodeData(msg WSMessage, v interface{}) error {
	if len(msg.Data) == 0 {
		return nil
	}
	return json.Unmarshal(msg.Data, v)
}
