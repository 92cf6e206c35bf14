package wire

import (
	"database/sql"

	"log/slog"

	applog "github.com/docchat/backend/internal/infrastructure/log"
	"github.com/docchat/backend/internal/infrastructure/watcher"
	"github.com/docchat/backend/internal/infrastructure/websocket"
	"github.com/docchat/backend/internal/interfaces"
)

// App 应用主结构,组合所有服务
type App struct {
	HTTPServer    *interfaces.HTTPServer
	wsHub         *websocket.Hub
	ingestWatcher *watcher.IngestWatcher
	db            *sql.DB
	logger        *slog.Logger
}

// NewApp 创建应用实例
func NewApp(
	httpServer *interfaces.HTTPServer,
	wsHub *websocket.Hub,
	ingestWatcher *watcher.IngestWatcher,
	db *sql.DB,
) *App {
	return &App{
		HTTPServer:    httpServer,
		wsHub:         wsHub,
		ingestWatcher: ingestWatcher,
		db:            db,
		logger:        applog.NewModuleLogger("app", "main"),
	}
}

// Start 启动所有服务
func (a *App) Start() error {
	a.logger.Info("Starting docchat backend application")

	// 启动 WebSocket Hub
	a.wsHub.Start()

	// 启动投递目录监听
	if a.ingestWatcher != nil {
		if err := a.ingestWatcher.Start(); err != nil {
			a.logger.Error("Failed to start ingest watcher",
				"error", err,
			)
		}
	}

	// 启动 HTTP 服务器（goroutine）
	go func() {
		if err := a.HTTPServer.Start(); err != nil {
			a.logger.Error("Failed to start HTTP server",
				"error", err,
			)
		}
	}()

	a.logger.Info("docchat backend application started successfully")
	return nil
}

// Stop 停止所有服务
func (a *App) Stop() error {
	a.logger.Info("Stopping docchat backend application")

	if a.ingestWatcher != nil {
		a.ingestWatcher.Stop()
		a.logger.Info("Ingest watcher stopped")
	}

	if err := a.HTTPServer.Stop(); err != nil {
		a.logger.Error("Failed to stop HTTP server",
			"error", err,
		)
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("Failed to close database",
				"error", err,
			)
		}
	}

	a.logger.Info("docchat backend application stopped")
	return nil
}
