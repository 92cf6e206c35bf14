package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"

	"github.com/docchat/backend/internal/infrastructure/config"
	applog "github.com/docchat/backend/internal/infrastructure/log"
	"github.com/docchat/backend/internal/infrastructure/websocket"
)

const (
	// writeWait 单次写入的超时
	writeWait = 10 * time.Second
	// pongWait 等待对端 pong 的超时
	pongWait = 60 * time.Second
	// pingPeriod 心跳间隔,必须小于 pongWait
	pingPeriod = (pongWait * 9) / 10
)

// WSHandler WebSocket 订阅处理器
// 前端通过该端点订阅处理状态与流式回复事件
type WSHandler struct {
	hub      *websocket.Hub
	upgrader gorilla.Upgrader
	logger   *slog.Logger
}

// NewWSHandler 创建 WebSocket 处理器
func NewWSHandler(hub *websocket.Hub, cfg *config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: gorilla.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			// 本地单机部署,不校验来源
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: applog.NewModuleLogger("http", "ws"),
	}
}

// Subscribe 升级连接并注册到 Hub
// @Summary 订阅推送事件
// @Tags 推送
// @Router /ws [get]
func (h *WSHandler) Subscribe(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	user := userID(c)
	subscription := &websocket.Connection{
		UserID: user,
		Send:   make(chan []byte, 256),
	}
	h.hub.Register(subscription)
	h.logger.Info("Subscriber connected", "userID", user)

	go h.writePump(conn, subscription)
	go h.readPump(conn, subscription)
}

// writePump 将 Hub 推送的事件写入连接,定期发送心跳
func (h *WSHandler) writePump(conn *gorilla.Conn, subscription *websocket.Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case data, ok := <-subscription.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(gorilla.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(gorilla.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(gorilla.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 消费入站消息以处理控制帧,连接断开时注销订阅
func (h *WSHandler) readPump(conn *gorilla.Conn, subscription *websocket.Connection) {
	defer func() {
		h.hub.Unregister(subscription)
		conn.Close()
		h.logger.Info("Subscriber disconnected", "userID", subscription.UserID)
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
