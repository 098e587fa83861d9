package mcp

import (
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Config contains server configuration.
type Config struct {
	Services      Services
	Resolver      UserResolver
	AuthEnabled   bool
	DefaultUser   string
	TransportMode string // "stdio" or "http"
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "assetguard",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	defaultUser := cfg.DefaultUser
	if defaultUser == "" {
		defaultUser = "local"
	}

	// Stdio mode: always disable auth (local operator only)
	identity := authMiddleware(cfg.Resolver)
	if cfg.TransportMode == "stdio" || !cfg.AuthEnabled || cfg.Resolver == nil {
		identity = noAuthMiddleware(defaultUser)
	}
	// The first middleware runs first, so traffic logs see the caller.
	server.AddReceivingMiddleware(identity, trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, NewHandler(cfg.Services))

	return server
}
