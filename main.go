package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chxlky/trello-mcp/api"
	"github.com/chxlky/trello-mcp/integrations"
	"github.com/chxlky/trello-mcp/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))
	if levelStr == "" {
		levelStr = "info"
	}
	level, err := zapcore.ParseLevel(levelStr)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// stdout carries the stdio protocol, so every log line goes to stderr.
	logConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      true,
		Encoding:         "console",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, _ := logConfig.Build()
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg, err := config.Load(config.New())
	if err != nil {
		zap.L().Fatal("Error loading configuration", zap.Error(err))
	}

	trelloClient := integrations.NewTrelloClient(
		cfg.Credentials.AppKey,
		cfg.Credentials.Token,
		cfg.TrelloBaseURL,
		cfg.Timeout,
	)

	apiHandler := &api.Handler{Trello: trelloClient}
	server, err := api.NewServer(apiHandler)
	if err != nil {
		zap.L().Fatal("Failed to register tools", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.Transport {
	case config.TransportHTTP:
		err = serveHTTP(ctx, logger, server, apiHandler, cfg.Port)
	default:
		err = serveStdio(ctx, server)
	}
	if err != nil {
		zap.L().Fatal("Server error", zap.Error(err))
	}
	zap.L().Info("Exiting...")
}

func serveStdio(ctx context.Context, server *mcp.Server) error {
	session, err := server.Connect(ctx, &mcp.StdioTransport{}, nil)
	if err != nil {
		return err
	}
	zap.L().Info("MCP server is listening...")

	go func() {
		<-ctx.Done()
		zap.L().Info("Shutdown initiated", zap.Error(ctx.Err()))
		session.Close()
	}()

	err = session.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func serveHTTP(ctx context.Context, logger *zap.Logger, server *mcp.Server, h *api.Handler, port string) error {
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: api.NewRouter(logger, server, h),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	zap.L().Info("MCP server is listening...", zap.String("port", port))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zap.L().Info("Shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Error shutting down server", zap.Error(err))
		return err
	}
	zap.L().Info("HTTP server shut down gracefully.")
	return nil
}
