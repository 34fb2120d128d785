package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"style-transform-server/modules/common/config"
	"style-transform-server/modules/common/logger"
	"style-transform-server/modules/server"
	"style-transform-server/modules/studio"
	"style-transform-server/modules/transform"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 환경변수 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("❌ Failed to load config")
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// API 키가 없어도 서버는 뜬다 (변환 요청만 500)
	transformService := transform.NewService(ctx, cfg)

	sessions := studio.NewSessionManager(studio.LocalTransformer{Service: transformService})
	sessions.StartCleanupRoutine(ctx)

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           server.NewRouter(cfg, transformService, sessions),
		ReadHeaderTimeout: 10 * time.Second,
		// 업스트림 timeout 보다 길어야 504 응답을 보낼 수 있다
		WriteTimeout: cfg.TransformTimeout + 30*time.Second,
	}

	logger.WithFields(logrus.Fields{
		"addr":    cfg.ListenAddr(),
		"model":   cfg.GeminiModel,
		"backend": cfg.GeminiBackend,
	}).Info("🚀 Style Transform Server starting")
	logger.Info("🎨 Transform endpoint: POST /api/transform")
	logger.Info("📚 Styles: GET /api/styles")
	logger.Info("📡 WebSocket studio: /ws")
	logger.Info("❤️  Health check: GET /health")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("🛑 Shutting down server")
		sessions.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Fatal("❌ Server failed")
	}
	logger.Info("👋 Server stopped")
}
