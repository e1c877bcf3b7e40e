package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/sikap/adapters"
	"github.com/satriahrh/sikap/internal/api"
	"github.com/satriahrh/sikap/internal/auth"
	"github.com/satriahrh/sikap/internal/config"
	"github.com/satriahrh/sikap/internal/questions"
	"github.com/satriahrh/sikap/internal/websocket"
	"github.com/satriahrh/sikap/usecase"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket interview server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Initialize logger
	logger, err := newLogger(true)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	svc, err := buildServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		// Tokens will not survive a restart
		secret = uuid.New().String()
		logger.Warn("auth.jwt_secret is not set, using a random secret")
	}
	issuer, err := auth.NewIssuer(secret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	bank, err := questions.DefaultBank()
	if err != nil {
		return err
	}
	interviews := usecase.NewInterviewService(adapters.NewMemoryInterviewRepository(), svc.reports, svc.llm, bank,
		usecase.InterviewConfig{GenerateQuestions: cfg.LLM.Provider == config.ProviderGemini},
		logger)

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	hub := websocket.NewHub(interviews, svc.tts,
		websocket.NewHTTPAudioFetcher(cfg.HTTP.MaxUploadSize, logger),
		websocket.HubConfig{ActionTimeout: cfg.HTTP.Timeout},
		logger)
	go hub.Run(hubCtx)

	cleanup := websocket.NewSessionCleanupService(interviews, cfg.Interview.CleanupInterval, cfg.Interview.MaxIdle, logger)
	cleanup.Start()
	defer cleanup.Stop()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	// Multipart framing needs headroom over the file limit
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dB", cfg.HTTP.MaxUploadSize+(1<<20))))

	api.InitRoutes(e, api.NewHandler(interviews, svc.reports, hub, issuer, cfg.HTTP.MaxUploadSize, logger))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	logger.Info("Server started", zap.String("addr", addr))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}
