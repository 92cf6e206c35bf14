package http

import (
	"context"
	"net/http"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/docchat/backend/internal/infrastructure/config"
	applog "github.com/docchat/backend/internal/infrastructure/log"
	"github.com/docchat/backend/internal/interfaces/http/handler"
	"github.com/docchat/backend/internal/interfaces/http/middleware"

	_ "github.com/docchat/backend/docs" // Swagger docs
)

// HTTPServer HTTP 服务器
type HTTPServer struct {
	router   *gin.Engine
	httpPort string
	server   *http.Server
	logger   *slog.Logger
}

// NewServer 创建 HTTP 服务器
func NewServer(
	serverCfg *config.ServerConfig,
	chatHandler *handler.ChatHandler,
	fileHandler *handler.FileHandler,
	wsHandler *handler.WSHandler,
) *HTTPServer {
	router := gin.Default()
	router.Use(middleware.EnsureUTF8Body())

	logger := applog.NewModuleLogger("http", "server")

	// 注册路由
	api := router.Group("/api/v1")
	{
		// 会话相关路由
		api.POST("/conversations", chatHandler.Create)
		api.GET("/conversations", chatHandler.List)
		api.GET("/conversations/:id", chatHandler.Get)
		api.DELETE("/conversations/:id", chatHandler.Delete)
		api.POST("/conversations/:id/messages", chatHandler.SendMessage)
		api.POST("/conversations/:id/images", chatHandler.SendImageMessage)

		// 文件相关路由
		api.POST("/files", fileHandler.Upload)
		api.GET("/files", fileHandler.List)
		api.GET("/files/:id", fileHandler.Get)
		api.DELETE("/files/:id", fileHandler.Delete)
		api.POST("/images", fileHandler.UploadImage)
	}

	// WebSocket 订阅
	router.GET("/ws", wsHandler.Subscribe)

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return &HTTPServer{
		router:   router,
		httpPort: serverCfg.HTTPPort,
		logger:   logger,
	}
}

// Start 启动服务器
func (s *HTTPServer) Start() error {
	s.server = &http.Server{
		Addr:    s.httpPort,
		Handler: s.router,
	}

	s.logger.Info("HTTP server starting",
		"port", s.httpPort,
	)

	return s.server.ListenAndServe()
}

// Shutdown 优雅关闭
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Stop 停止服务器
func (s *HTTPServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}
