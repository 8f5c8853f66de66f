package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"snappy-chat/auth"
	"snappy-chat/grpc/server"
	"snappy-chat/handlers"
	"snappy-chat/internal"
	"snappy-chat/repositories"
	"snappy-chat/runtime"
	"snappy-chat/runtime/workers"
	"snappy-chat/search"
	"snappy-chat/services"
	"snappy-chat/transport/ws"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component, serves until a signal arrives and tears everything down in reverse order.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	messageRepository, err := repositories.NewMessageRepository(db, log)
	if err != nil {
		return exitRuntime, fmt.Errorf("message repository failed: %w", err)
	}
	defer func() { _ = messageRepository.Close() }()
	userRepository := repositories.NewUserRepository(db)
	friendRepository := repositories.NewFriendRepository(db)

	// 3. User search index (Bluge), rebuilt from the accounts on every start
	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	userIndex := search.NewUserIndex(blugeWriter, log)
	defer func() {
		log.Info("Closing Bluge...")
		_ = userIndex.Close()
	}()
	users, err := userRepository.ListUsers()
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to list users: %w", err)
	}
	if err = userIndex.Rebuild(lo.Map(users, func(u repositories.User, _ int) string { return u.Username })); err != nil {
		return exitRuntime, fmt.Errorf("failed to rebuild user index: %w", err)
	}

	// 4. Realtime core
	tokens := auth.NewTokenManager(config.JWTSecret, config.AuthTokenDuration)
	friendService := services.NewFriendService(log, userRepository, friendRepository, nil)
	registry := runtime.NewRegistry(log)
	router := runtime.NewRouter(log, registry, messageRepository).WithDirectory(friendService)
	presence := runtime.NewPresenceBroadcaster(log, registry, config.SinkTimeout)
	hub := runtime.NewHub(log, registry, messageRepository, router, presence)
	friendService.WithNotifier(hub)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := workers.NewSupervisor(log, config.RestartInterval)
	healthWorker := workers.NewHealthMonitoringWorker(log, hub, config.MetricInterval)
	sup.Add(healthWorker)
	go sup.Run(ctx)

	if log.Enabled(ctx, slog.LevelDebug) {
		endpoint := "/inspect"
		log.Info("Debug message inspector available", "url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		internal.StartDebugServer(ctx, log, db, config.DebugPort, endpoint, func() map[string]any {
			report := healthWorker.Last()
			return map[string]any{"sessions": hub.Sessions(), "rss_bytes": report.RSS, "cpu_percent": report.CPU}
		})
	}

	errChan := make(chan error, 2)

	// 6. HTTP & websocket server
	httpRouter := handlers.NewRouter(log, handlers.Routes{
		Auth:      handlers.NewAuthHandler(log, services.NewAuthService(log, userRepository, tokens, userIndex)),
		Chat:      handlers.NewChatHandler(log, messageRepository, userIndex),
		Friends:   handlers.NewFriendHandler(log, friendService),
		Websocket: ws.NewHandler(log, hub, tokens, config.WriteTimeout, config.ReadLimit),
	})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		log.Info("Starting HTTP server", "address", httpServer.Addr, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. gRPC query server
	grpcAddress := fmt.Sprintf("%s:%d", config.Host, config.GRPCPort)
	listener, err := net.Listen("tcp", grpcAddress)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", grpcAddress, err)
	}
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(auth.AuthInterceptor(tokens,
		healthpb.Health_Check_FullMethodName,
		healthpb.Health_Watch_FullMethodName,
	)))
	server.RegisterPresenceServiceServer(grpcServer, server.NewPresenceServer(log, hub, hub))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(server.PresenceServiceName, healthpb.HealthCheckResponse_SERVING)
	go func() {
		log.Info("Starting gRPC server", "address", grpcAddress)
		if err := grpcServer.Serve(listener); err != nil && !stderrors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	code := exitOK
	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case runErr = <-errChan:
		code = exitRuntime
	}
	stop()

	// 9. Final Cleanup: live sessions first so clients see 1001 before the listener goes away
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	healthServer.Shutdown()
	hub.Shutdown(shutdownCtx)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	grpcServer.GracefulStop()
	sup.Stop()
	log.Info("Program stopped cleanly", "code", code, slog.Any("error", runErr))
	return code, runErr
}
