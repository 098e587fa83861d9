package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/assetguard/internal/config"
	"github.com/rpggio/assetguard/internal/events"
	"github.com/rpggio/assetguard/internal/mcp"
	"github.com/rpggio/assetguard/internal/transport"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the server over HTTP or MCP stdio",
	Long: `Run the assetguard server.

In http mode the server exposes:
- POST /rpc   JSON-RPC 2.0 with every method
- /mcp        MCP streamable HTTP transport
- GET /health liveness probe

In stdio mode it speaks MCP over stdin/stdout as the configured default user.`,
	RunE: runServe,
}

var serveTransport string

func init() {
	serveCmd.Flags().StringVar(&serveTransport, "transport", "", "transport mode: http or stdio (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveTransport != "" {
		cfg.Transport.Mode = serveTransport
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger, closeLog := newServerLogger(cfg)
	defer closeLog()

	publisher, closePublisher, err := newPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	rt, err := openInstance(cfg, logger, publisher)
	if err != nil {
		logger.Error("failed to start", "error", err)
		return err
	}
	defer rt.close()

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Reconcile.Interval > 0 {
		logger.Info("scheduled reconciliation enabled", "interval", cfg.Reconcile.Interval)
		go rt.stack.Synchronizer.Run(ctx, cfg.Reconcile.Interval)
	}

	mcpServer := mcp.NewServer(mcp.Config{
		Services:      rt.stack.Services(),
		Resolver:      rt.stack.Keys,
		AuthEnabled:   cfg.Auth.Enabled,
		DefaultUser:   cfg.Auth.DefaultUser,
		TransportMode: cfg.Transport.Mode,
		Logger:        logger,
	})

	if cfg.Transport.Mode == "stdio" {
		return runStdio(ctx, logger, mcpServer)
	}
	return runHTTP(ctx, logger, rt, mcpServer)
}

func runStdio(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.Error("stdio server error", "error", err)
		return err
	}
	logger.Info("shutting down")
	return nil
}

func runHTTP(ctx context.Context, logger *slog.Logger, rt *instance, mcpServer *sdkmcp.Server) error {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)

	identity := transport.FixedUserMiddleware(rt.cfg.Auth.DefaultUser)
	if rt.cfg.Auth.Enabled {
		identity = transport.AuthMiddleware(rt.stack.Keys)
	}
	router := transport.NewServer(
		mcp.NewHandler(rt.stack.Services()),
		identity,
		transport.WithMount("/mcp", mcpHandler),
	)

	addr := fmt.Sprintf("%s:%d", rt.cfg.Server.Host, rt.cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "auth", rt.cfg.Auth.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}
	return nil
}

// newServerLogger writes to stdout, or stderr in stdio mode to keep stdout
// clean for JSON-RPC. ASSETGUARD_LOG_PATH redirects logs to a size-capped file.
func newServerLogger(cfg config.Config) (*slog.Logger, func()) {
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	closeFn := func() {}
	if logPath := os.Getenv("ASSETGUARD_LOG_PATH"); logPath != "" {
		fileWriter, file, err := newLogFileWriter(logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			logWriter = fileWriter
			closeFn = func() { _ = file.Close() }
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	return logger, closeFn
}

// newPublisher connects to NATS when configured. Without a URL events are
// dropped.
func newPublisher(cfg config.Config, logger *slog.Logger) (events.Publisher, func(), error) {
	if cfg.Events.NATSURL == "" {
		return events.Nop{}, func() {}, nil
	}
	pub, err := events.NewNATSPublisher(events.NATSConfig{
		URL:           cfg.Events.NATSURL,
		Name:          "assetguard",
		SubjectPrefix: cfg.Events.SubjectPrefix,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("publishing events to nats", "url", cfg.Events.NATSURL, "prefix", cfg.Events.SubjectPrefix)
	return pub, func() {
		if err := pub.Close(); err != nil {
			logger.Warn("failed to drain nats connection", "error", err)
		}
	}, nil
}
