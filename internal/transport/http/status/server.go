// Package statushttp serves the read-only status surface: live balances,
// the signal table and the persisted trade history. No endpoint mutates
// anything; the engine loop stays the single writer.
package statushttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vectra/internal/logger"
)

type Server struct {
	addr   string
	router *gin.Engine
}

type ServerConfig struct {
	Addr     string
	Provider StatusProvider
	History  TradeHistory
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Provider == nil {
		return nil, errors.New("status http server requires a status provider")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9992"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	NewRouter(cfg.Provider, cfg.History).Register(router.Group("/api"))

	return &Server{addr: cfg.Addr, router: router}, nil
}

// Run serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("status http: listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		c.Next()
		logger.Debugf("HTTP %s %s status=%d dur=%s", method, path, c.Writer.Status(), time.Since(start))
	}
}
