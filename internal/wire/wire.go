//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/google/wire"

	"github.com/docchat/backend/internal/application"
	appChat "github.com/docchat/backend/internal/application/chat"
	appDocument "github.com/docchat/backend/internal/application/document"
	appRAG "github.com/docchat/backend/internal/application/rag"
	"github.com/docchat/backend/internal/infrastructure"
	"github.com/docchat/backend/internal/infrastructure/embedding"
	"github.com/docchat/backend/internal/infrastructure/llm"
	infraNotification "github.com/docchat/backend/internal/infrastructure/notification"
	"github.com/docchat/backend/internal/infrastructure/storage"
	"github.com/docchat/backend/internal/infrastructure/watcher"
	"github.com/docchat/backend/internal/interfaces"
)

// InitializeAll 初始化所有服务
func InitializeAll() (*App, error) {
	wire.Build(
		// 按层组合 ProviderSet
		infrastructure.ProviderSet, // 基础设施层
		application.ProviderSet,    // 应用层
		interfaces.ProviderSet,     // 接口层

		// 接口绑定：应用层能力接口 -> 基础设施实现
		wire.Bind(new(appChat.Pusher), new(*infraNotification.WebSocketPusher)),
		wire.Bind(new(appChat.Embedder), new(*embedding.CachedProvider)),
		wire.Bind(new(appChat.Generator), new(*llm.Client)),
		wire.Bind(new(appChat.ImageStore), new(*storage.ImageStore)),
		wire.Bind(new(appRAG.Embedder), new(*embedding.CachedProvider)),
		wire.Bind(new(appRAG.Generator), new(*llm.Client)),
		wire.Bind(new(appDocument.Embedder), new(*embedding.CachedProvider)),
		wire.Bind(new(watcher.Ingester), new(*appDocument.Service)),

		NewApp, // 组合所有服务的应用结构
	)
	return nil, nil
}
