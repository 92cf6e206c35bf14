package websocket

import (
	"encoding/json"
	"sync"
)

// Hub WebSocket 连接管理中心
// 按用户分组，同一用户可以有多个订阅连接
type Hub struct {
	users map[string]map[*Connection]bool
	// 注册连接
	register chan *Connection
	// 注销连接
	unregister chan *Connection
	// 广播消息
	broadcast chan *Message
	mu        sync.RWMutex
}

// Connection WebSocket 连接
type Connection struct {
	UserID string
	Send   chan []byte
}

// Message 推送消息
type Message struct {
	UserID string
	Data   []byte
}

// NewHub 创建 Hub
func NewHub() *Hub {
	return &Hub{
		users:      make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *Message),
	}
}

// Run 运行 Hub（需要在 goroutine 中运行）
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.users[conn.UserID] == nil {
				h.users[conn.UserID] = make(map[*Connection]bool)
			}
			h.users[conn.UserID][conn] = true
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.users[conn.UserID]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.users, conn.UserID)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			// 发送缓冲满的连接会被清理,需要写锁
			h.mu.Lock()
			if conns, ok := h.users[msg.UserID]; ok {
				for conn := range conns {
					select {
					case conn.Send <- msg.Data:
					default:
						close(conn.Send)
						delete(conns, conn)
					}
				}
				if len(conns) == 0 {
					delete(h.users, msg.UserID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Start 启动 Hub（启动后台 goroutine）
func (h *Hub) Start() {
	go h.Run()
}

// Register 注册连接
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister 注销连接
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// PushToUser 向指定用户的所有连接推送消息
// 无订阅连接时静默丢弃，推送是尽力而为的
func (h *Hub) PushToUser(userID string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	h.broadcast <- &Message{
		UserID: userID,
		Data:   jsonData,
	}
	return nil
}

// HasSubscriber 用户是否有订阅连接
func (h *Hub) HasSubscriber(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}
