package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/rakhadane/suara/domain/repositories"
	"github.com/rakhadane/suara/internal/api"
	"github.com/rakhadane/suara/internal/auth"
	"github.com/rakhadane/suara/internal/config"
	"github.com/rakhadane/suara/internal/providers"
	"github.com/rakhadane/suara/internal/websocket"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	authenticator, err := auth.NewAuthenticator(cfg.JWTSecret)
	if err != nil {
		logger.Fatal("Failed to initialize authenticator", zap.Error(err))
	}

	providerSet, err := providers.Build(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build providers", zap.Error(err))
	}

	audioConfig := repositories.AudioConfig{
		SampleRate: cfg.SampleRate,
		Encoding:   cfg.Encoding,
		Language:   cfg.Language,
	}

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize WebSocket hub with the configured providers
	hub := websocket.NewHub(providerSet.STT, providerSet.LLM, providerSet.TTS,
		websocket.Options{
			AudioConfig:     audioConfig,
			ProviderTimeout: cfg.ProviderTimeout,
		}, logger)
	go hub.Run()

	// Initialize API routes
	server := api.NewServer(api.ServerOptions{
		Hub:           hub,
		STT:           providerSet.STT,
		LLM:           providerSet.LLM,
		TTS:           providerSet.TTS,
		Authenticator: authenticator,
		APIKey:        cfg.APIKey,
		AudioConfig:   audioConfig,
	}, logger)
	server.InitRoutes(e)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("stt", cfg.STTProvider),
		zap.String("llm", cfg.LLMProvider),
		zap.String("tts", cfg.TTSProvider))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
