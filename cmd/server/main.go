package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/mbeoliero/kit/log"
	"github.com/mbeoliero/stayline/internal/assistant"
	"github.com/mbeoliero/stayline/internal/config"
	"github.com/mbeoliero/stayline/internal/gateway"
	"github.com/mbeoliero/stayline/internal/handler"
	"github.com/mbeoliero/stayline/internal/notify"
	"github.com/mbeoliero/stayline/internal/repository"
	"github.com/mbeoliero/stayline/internal/router"
	"github.com/mbeoliero/stayline/internal/service"
	"github.com/mbeoliero/stayline/pkg/constant"
	"github.com/mbeoliero/stayline/pkg/idgen"
)

func main() {
	ctx := context.TODO()

	// Load configuration
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		log.CtxError(ctx, "failed to load config: %v", err)
		panic(err)
	}

	log.CtxInfo(ctx, "config loaded: mode=%s", cfg.Server.Mode)

	// Initialize Redis key prefix
	constant.InitRedisKeyPrefix(cfg.Redis.KeyPrefix)
	log.CtxInfo(ctx, "redis key prefix: %s", constant.GetRedisKeyPrefix())

	// Initialize repositories
	repos, err := repository.NewRepositories(cfg)
	if err != nil {
		log.CtxError(ctx, "failed to initialize repositories: %v", err)
		panic(err)
	}
	defer repos.Close()

	// Check database connection
	if err := repos.CheckConnection(ctx); err != nil {
		log.CtxError(ctx, "database connection check failed: %v", err)
		panic(err)
	}
	log.CtxInfo(ctx, "database connection established")

	// Initialize services
	idGen, err := idgen.GetDefaultGenerator()
	if err != nil {
		log.CtxError(ctx, "failed to initialize id generator: %v", err)
		panic(err)
	}
	userService := service.NewUserService(repos.User)
	msgService := service.NewMessageService(repos, idGen)
	convService := service.NewConversationService(repos)

	// Wire the assistant chat relay
	if cfg.Assistant.BaseURL != "" {
		assistantClient, err := assistant.NewClient(&cfg.Assistant)
		if err != nil {
			log.CtxError(ctx, "failed to initialize assistant client: %v", err)
			panic(err)
		}
		msgService.SetAssistantRelay(assistantClient)
	}

	// Wire the push-notification dispatcher
	if cfg.Notify.BaseURL != "" {
		dispatcher, err := notify.NewDispatcher(&cfg.Notify)
		if err != nil {
			log.CtxError(ctx, "failed to initialize notify dispatcher: %v", err)
			panic(err)
		}
		dispatcher.Run(ctx)
		msgService.SetNotifier(dispatcher)
	}

	// Initialize WebSocket server
	wsServer := gateway.NewWsServer(cfg, repos.Redis, repos, msgService)
	wsServer.Run(ctx)
	log.CtxInfo(ctx, "websocket server started")

	// Initialize handlers
	handlers := &router.Handlers{
		User:         handler.NewUserHandler(userService),
		Message:      handler.NewMessageHandler(msgService),
		Conversation: handler.NewConversationHandler(convService),
	}

	// Create Hertz server
	h := server.Default(
		server.WithHostPorts(fmt.Sprintf(":%d", cfg.Server.HTTPPort)),
	)

	// Setup routes
	router.SetupRouter(h, handlers, wsServer)

	log.CtxInfo(ctx, "server starting on port %d", cfg.Server.HTTPPort)

	// Start server in goroutine
	go func() {
		h.Spin()
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.CtxInfo(ctx, "shutting down server...")

	// Graceful shutdown
	if err := h.Shutdown(ctx); err != nil {
		log.CtxError(ctx, "server shutdown error: %v", err)
	}

	log.CtxInfo(ctx, "server stopped")
}
