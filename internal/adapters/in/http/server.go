// Package http 运维查询接口
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Darkatse/StatusHub/internal/ports/in"
	"github.com/Darkatse/StatusHub/pkg/zlog"
)

// Server 查询用 HTTP 服务
type Server struct {
	tracker in.PresenceUseCase
	httpSrv *http.Server
}

// NewServer 创建服务并挂载路由
func NewServer(addr string, tracker in.PresenceUseCase) *Server {
	s := &Server{tracker: tracker}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), zlog.GinLogger())

	router.GET("/healthz", s.handleHealthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.PUT("/log/level", s.handleSetLogLevel)

	api := router.Group("/api/v1")
	api.GET("/presence", s.handlePresence)

	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start 启动监听，阻塞到服务退出
func (s *Server) Start() error {
	zap.L().Info("http server listening", zap.String("addr", s.httpSrv.Addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown 优雅停机
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Handler 暴露路由，测试用
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handlePresence(c *gin.Context) {
	c.JSON(http.StatusOK, s.tracker.Snapshot())
}

type logLevelRequest struct {
	Level string `json:"level" binding:"required"`
}

func (s *Server) handleSetLogLevel(c *gin.Context) {
	var req logLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	zlog.SetLevel(req.Level)
	c.JSON(http.StatusOK, gin.H{"level": zlog.GetLevel()})
}
