package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/middleware"
	"foodshare/internal/domain/entity"
	ws "foodshare/internal/infrastructure/websocket"
	"foodshare/internal/usecase"
	"foodshare/pkg/errors"
	"foodshare/pkg/response"
)

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	wsManager      *ws.Manager
	authMiddleware *middleware.AuthMiddleware

	chatUseCase        *usecase.ChatUseCase
	typingUseCase      *usecase.TypingUseCase
	unreadAggregator   *usecase.UnreadAggregator
	preferencesUseCase *usecase.PreferencesUseCase
	typingTimeout      time.Duration
}

func NewWebSocketHandler(
	wsManager *ws.Manager,
	authMiddleware *middleware.AuthMiddleware,
	chatUseCase *usecase.ChatUseCase,
	typingUseCase *usecase.TypingUseCase,
	unreadAggregator *usecase.UnreadAggregator,
	preferencesUseCase *usecase.PreferencesUseCase,
	typingTimeout time.Duration,
) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:          wsManager,
		authMiddleware:     authMiddleware,
		chatUseCase:        chatUseCase,
		typingUseCase:      typingUseCase,
		unreadAggregator:   unreadAggregator,
		preferencesUseCase: preferencesUseCase,
		typingTimeout:      typingTimeout,
	}
}

// clientEmitter forwards session events to the socket.
type clientEmitter struct {
	client *ws.Client
}

func (e clientEmitter) Emit(event, chatID string, data interface{}) {
	e.client.Send(event, chatID, data)
}

// HandleWebSocket authenticates with ?token= (or a bearer header), upgrades
// the connection and serves one ChatSession over it.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		token = strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
	}

	userID, err := h.authMiddleware.GetUIDFromToken(c.Request().Context(), token)
	if err != nil {
		return response.Error(c, err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed for %s: %v", userID, err)
		return nil
	}

	client := ws.NewClient(userID, conn)
	if !h.wsManager.Connect(client) {
		conn.Close()
		return nil
	}

	session := usecase.NewChatSession(
		context.Background(),
		h.chatUseCase,
		h.typingUseCase,
		h.unreadAggregator,
		h.preferencesUseCase,
		h.typingTimeout,
		userID,
		clientEmitter{client: client},
	)
	router := h.newRouter(client, session)

	go client.WritePump()
	go func() {
		defer func() {
			session.Close()
			h.wsManager.Disconnect(client)
		}()
		if err := session.Start(); err != nil {
			log.Printf("WebSocket session start failed for %s: %v", userID, err)
			sendError(client, err)
		}
		client.ReadPump(func(raw []byte) {
			router.Dispatch(client, raw)
		})
	}()

	return nil
}

func sendError(client *ws.Client, err error) {
	_, info := response.ErrorBody(err)
	client.SendError(info.Code, info.Message, info.Retryable)
}

func decodeFrame(msg ws.WSMessage, v interface{}) error {
	if err := ws.DecodeData(msg, v); err != nil {
		return errors.BadRequest("Invalid message data", err)
	}
	return nil
}

func (h *WebSocketHandler) newRouter(client *ws.Client, session *usecase.ChatSession) *ws.Router {
	router := ws.NewRouter()
	router.ErrorFunc = func(client *ws.Client, err error) {
		sendError(client, err)
	}

	router.Handle(ws.MessageTypePing, func(msg ws.WSMessage) error {
		client.Send(ws.MessageTypePong, "", nil)
		return nil
	})

	router.Handle(ws.MessageTypeJoinChatRoom, func(msg ws.WSMessage) error {
		return session.Join(msg.ChatID)
	})

	router.Handle(ws.MessageTypeLeaveChatRoom, func(msg ws.WSMessage) error {
		session.Leave(msg.ChatID)
		return nil
	})

	router.Handle(ws.MessageTypeInput, func(msg ws.WSMessage) error {
		var data ws.InputData
		if err := decodeFrame(msg, &data); err != nil {
			return err
		}
		return session.Input(msg.ChatID, data.Text)
	})

	router.Handle(ws.MessageTypeSendMessage, func(msg ws.WSMessage) error {
		var data ws.SendMessageData
		if err := decodeFrame(msg, &data); err != nil {
			return err
		}
		message, err := session.Send(msg.ChatID, usecase.SendMessageInput{
			Content:        data.Content,
			MessageType:    entity.MessageType(data.MessageType),
			QuickReplyType: entity.QuickReplyType(data.QuickReplyType),
			ReplyTo:        data.ReplyTo,
		})
		if err != nil {
			return err
		}
		client.Send(ws.MessageTypeMessageSent, msg.ChatID, message)
		return nil
	})

	router.Handle(ws.MessageTypeMarkRead, func(msg ws.WSMessage) error {
		_, err := session.MarkRead(msg.ChatID)
		return err
	})

	return router
}
