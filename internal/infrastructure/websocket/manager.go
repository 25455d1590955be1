package websocket

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBufferSize = 64
)

// Client is one websocket connection of a user.
type Client struct {
	UserID string
	Conn   *websocket.Conn

	send   chan []byte
	mu     sync.Mutex
	closed bool
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		send:   make(chan []byte, sendBufferSize),
	}
}

// Enqueue queues a frame for the write pump. It reports false when the
// client is gone or too slow to keep up; slow clients are disconnected.
func (c *Client) Enqueue(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		log.Printf("WebSocket: send buffer full for %s, dropping connection", c.UserID)
		c.closeLocked()
		return false
	}
}

// Close stops the write pump. Additional calls are no-ops.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Manager tracks every open connection.
type Manager struct {
	clients    map[string]map[*Client]struct{}
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Connect registers client. It reports false once the manager has stopped.
func (m *Manager) Connect(client *Client) bool {
	select {
	case m.Register <- client:
		return true
	case <-m.done:
		client.Close()
		return false
	}
}

// Disconnect unregisters client and closes it.
func (m *Manager) Disconnect(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
		client.Close()
	}
}

// Start runs the registration loop until ctx is done.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				if m.clients[client.UserID] == nil {
					m.clients[client.UserID] = make(map[*Client]struct{})
				}
				m.clients[client.UserID][client] = struct{}{}
				m.mutex.Unlock()
				log.Printf("Client registered: %s", client.UserID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				if conns, ok := m.clients[client.UserID]; ok {
					delete(conns, client)
					if len(conns) == 0 {
						delete(m.clients, client.UserID)
					}
				}
				m.mutex.Unlock()
				client.Close()
				log.Printf("Client unregistered: %s", client.UserID)

			case <-ctx.Done():
				close(m.done)
				m.mutex.Lock()
				for _, conns := range m.clients {
					for client := range conns {
						client.Close()
					}
				}
				m.clients = make(map[string]map[*Client]struct{})
				m.mutex.Unlock()
				return
			}
		}
	}()
}

func (m *Manager) ConnectionCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	n := 0
	for _, conns := range m.clients {
		n += len(conns)
	}
	return n
}

func (m *Manager) OnlineUsers() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// ReadPump delivers each incoming frame to onMessage until the connection
// fails or closes. It must run in its own goroutine.
func (c *Client) ReadPump(onMessage func([]byte)) {
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error for %s: %v", c.UserID, err)
			}
			return
		}
		onMessage(message)
	}
}

// WritePump sends queued frames and keepalive pings. It closes the
// connection when the client is closed.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket write error for %s: %v", c.UserID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
