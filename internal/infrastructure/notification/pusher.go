package notification

import (
	appChat "github.com/docchat/backend/internal/application/chat"
	"github.com/docchat/backend/internal/infrastructure/websocket"
)

// WebSocketPusher WebSocket 推送实现
// 推送是尽力而为的：用户无订阅连接时事件被丢弃，不返回错误
type WebSocketPusher struct {
	hub *websocket.Hub
}

// NewWebSocketPusher 创建 WebSocket 推送器
func NewWebSocketPusher(hub *websocket.Hub) *WebSocketPusher {
	return &WebSocketPusher{hub: hub}
}

// Push 向用户推送事件
// 无订阅连接时直接丢弃,省去序列化和投递
func (p *WebSocketPusher) Push(userID string, event *appChat.Event) error {
	if !p.hub.HasSubscriber(userID) {
		return nil
	}
	return p.hub.PushToUser(userID, event)
}

// 编译时检查接口实现
var _ appChat.Pusher = (*WebSocketPusher)(nil)
