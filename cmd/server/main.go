// Package main is the entry point for the exa-mcp server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/zilgopy/exa-mcp/internal/alerts"
	"github.com/zilgopy/exa-mcp/internal/auth"
	"github.com/zilgopy/exa-mcp/internal/commands"
	"github.com/zilgopy/exa-mcp/internal/config"
	"github.com/zilgopy/exa-mcp/internal/graphql"
	"github.com/zilgopy/exa-mcp/internal/progress"
	"github.com/zilgopy/exa-mcp/internal/safety"
	"github.com/zilgopy/exa-mcp/internal/tenants"
	"github.com/zilgopy/exa-mcp/internal/tools"
	"github.com/zilgopy/exa-mcp/internal/users"
)

const defaultConfigPath = "/config/config.yaml"

func main() {
	cfg := loadConfig()
	config.ApplyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	tokenBefore := cfg.Server.AuthToken
	token, err := config.EnsureAuthToken(cfg)
	if err != nil {
		log.Printf("warning: could not generate auth token: %v, running without authentication", err)
	} else if tokenBefore == "" {
		log.Printf("generated auth token (set EXA_MCP_AUTH_TOKEN to persist): %s", token)
	}

	// Open audit log writer if enabled.
	var auditLogger *safety.AuditLogger
	if cfg.Audit.Enabled {
		f, err := os.OpenFile(cfg.Audit.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			log.Printf("warning: could not open audit log %q: %v, audit logging disabled", cfg.Audit.LogPath, err)
		} else {
			auditLogger = safety.NewAuditLogger(f)
			defer f.Close()
		}
	}

	tenantFilter := safety.NewFilter(
		cfg.Safety.Tenants.Allowlist,
		cfg.Safety.Tenants.Denylist,
	)

	// The session client is the one shared handle to the appliance; it
	// logs in lazily on first use.
	client, err := graphql.NewSessionClient(cfg.Exascaler)
	if err != nil {
		log.Fatalf("failed to create EXAScaler client: %v", err)
	}

	reporter := progress.NewServerReporter()

	var watchOpts []commands.Option
	if cfg.Watch.PollIntervalSeconds > 0 {
		watchOpts = append(watchOpts, commands.WithPollInterval(time.Duration(cfg.Watch.PollIntervalSeconds)*time.Second))
	}
	if cfg.Watch.MaxWaitSeconds > 0 {
		watchOpts = append(watchOpts, commands.WithMaxWait(time.Duration(cfg.Watch.MaxWaitSeconds)*time.Second))
	}
	watcher := commands.NewWatcher(client, reporter, watchOpts...)

	tenantMgr := tenants.NewGraphQLTenantManager(client)
	userMgr := users.NewGraphQLUserManager(client)
	alertMgr := alerts.NewGraphQLAlertManager(client)

	// Build MCP server.
	mcpServer := server.NewMCPServer(
		"exa-mcp",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	// Register all tools.
	var registrations []tools.Registration
	registrations = append(registrations, tenants.TenantTools(tenantMgr, watcher, reporter, tenantFilter, auditLogger)...)
	registrations = append(registrations, users.UserTools(userMgr, auditLogger)...)
	registrations = append(registrations, alerts.AlertTools(alertMgr, auditLogger)...)
	registrations = append(registrations, graphql.GraphQLTools(client, auditLogger)...)

	tools.RegisterAll(mcpServer, registrations)

	// Build Streamable HTTP server and wrap with auth middleware.
	httpHandler := server.NewStreamableHTTPServer(mcpServer)
	authMiddleware := auth.NewAuthMiddleware(cfg.Server.AuthToken)
	wrappedHandler := authMiddleware(httpHandler)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           wrappedHandler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("exa-mcp listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-stop
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
	log.Println("server stopped")
}

// loadConfig attempts to read the config file from the path specified by
// EXA_MCP_CONFIG_PATH or the default /config/config.yaml. If the file cannot
// be read, DefaultConfig is returned; required connection settings must then
// come from the environment.
func loadConfig() *config.Config {
	path := os.Getenv("EXA_MCP_CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Printf("could not load config from %q (%v), using defaults", path, err)
		return config.DefaultConfig()
	}

	log.Printf("loaded config from %q", path)
	return cfg
}
