package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/quorumslot/internal/availability"
	"github.com/teemow/quorumslot/internal/calendar"
	"github.com/teemow/quorumslot/internal/calfile"
	"github.com/teemow/quorumslot/internal/config"
	"github.com/teemow/quorumslot/internal/google"
	"github.com/teemow/quorumslot/internal/instrumentation"
	"github.com/teemow/quorumslot/internal/logging"
	"github.com/teemow/quorumslot/internal/resources"
	"github.com/teemow/quorumslot/internal/server"
	"github.com/teemow/quorumslot/internal/tools/google_tools"
	"github.com/teemow/quorumslot/internal/tools/slot_tools"
)

const mcpEndpointPath = "/mcp"

type serveOptions struct {
	configPath   string
	transport    string
	listen       string
	calendarsDir string
	metricsAddr  string
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "quorumslot", "config.yaml")
	}
	return "quorumslot.yaml"
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to expose the quorum slot
search to AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp, with /healthz and /readyz

Participant calendars are loaded from the configured source on start and
reloaded on the cron schedule in the config file. A missing config file is
created with defaults.

Instrumentation is configured through the environment (INSTRUMENTATION_ENABLED,
METRICS_EXPORTER, TRACING_EXPORTER, OTEL_EXPORTER_OTLP_ENDPOINT, ...).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			opts.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", defaultConfigPath(), "Path to the YAML config file")
	cmd.Flags().StringVar(&opts.transport, "transport", config.TransportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.listen, "http-addr", config.DefaultListen, "HTTP server address (for streamable-http transport)")
	cmd.Flags().StringVar(&opts.calendarsDir, "calendars", "", "Calendar directory, overrides calendars_dir from the config")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Metrics server address, overrides metrics_addr from the config. Can also use METRICS_ADDR env var.")

	return cmd
}

// apply lets explicitly set flags and METRICS_ADDR override the config file.
func (o *serveOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("transport") {
		cfg.Transport = o.transport
	}
	if cmd.Flags().Changed("http-addr") {
		cfg.Listen = o.listen
	}
	if cmd.Flags().Changed("calendars") {
		cfg.CalendarsDir = o.calendarsDir
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.MetricsAddr = o.metricsAddr
	} else if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		cfg.MetricsAddr = addr
	}
}

func runServe(cfg *config.Config) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Error("instrumentation shutdown failed", logging.Err(err))
		}
	}()
	metrics := provider.Metrics()

	// The metrics server is only started for the HTTP transport.
	if cfg.Transport != config.TransportStdio && cfg.MetricsAddr != "" && provider.PrometheusEnabled() {
		metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.MetricsAddr,
			Path:                    instrConfig.PrometheusEndpoint,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server failed", logging.Err(err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Error("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	source, err := newSource(cfg, loc, logger, metrics)
	if err != nil {
		return err
	}

	// With the google source the token may be stored later through the
	// google_save_auth_code tool.
	var contextOpts []server.Option
	if cfg.Source == config.SourceGoogle {
		contextOpts = append(contextOpts, server.WithAllowEmptyStart())
	}
	serverContext, err := server.NewServerContext(shutdownCtx, source, logger, contextOpts...)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("server context shutdown failed", logging.Err(err))
		}
	}()
	if cfg.ReloadEnabled() {
		if err := serverContext.StartReload(cfg.Reload); err != nil {
			return err
		}
	}

	mcpSrv := newMCPServer()
	if err := registerAllTools(mcpSrv, serverContext, cfg, loc, logger, metrics); err != nil {
		return err
	}

	switch cfg.Transport {
	case config.TransportStdio:
		return runStdioServer(mcpSrv)
	case config.TransportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, cfg.Listen, metrics, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", cfg.Transport)
	}
}

func newMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("quorumslot", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)
}

// googleClientFactory creates the freebusy client lazily so that a token
// saved while serving is picked up by the next reload.
func googleClientFactory(account string, metrics *instrumentation.Metrics) func(context.Context) (server.FreeBusyQuerier, error) {
	return func(ctx context.Context) (server.FreeBusyQuerier, error) {
		if !google.HasTokenForAccount(account) {
			return nil, errors.New(google.GetAuthenticationErrorMessage(account))
		}
		client, err := calendar.NewClientForAccount(ctx, account)
		if err != nil {
			return nil, fmt.Errorf("failed to create Calendar client for account %s: %w", account, err)
		}
		client.SetMetrics(metrics)
		return client, nil
	}
}

func newSource(cfg *config.Config, loc *time.Location, logger *slog.Logger, metrics *instrumentation.Metrics) (server.Source, error) {
	switch cfg.Source {
	case config.SourceFiles:
		return &server.FileSource{
			Dir: cfg.CalendarsDir,
			Options: calfile.Options{
				Location: loc,
				Logger:   logger,
				Metrics:  metrics,
			},
		}, nil
	case config.SourceGoogle:
		return &server.GoogleSource{
			NewClient: googleClientFactory(cfg.Google.Account, metrics),
			Calendars: cfg.Google.Calendars,
			Horizon:   time.Duration(cfg.Google.HorizonDays) * 24 * time.Hour,
			Location:  loc,
			Metrics:   metrics,
		}, nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

func slotToolsConfig(cfg *config.Config, loc *time.Location, logger *slog.Logger, metrics *instrumentation.Metrics) slot_tools.Config {
	return slot_tools.Config{
		Engine: availability.NewEngine(
			availability.WithLogger(logger),
			availability.WithMetrics(metrics),
			availability.WithParallelism(cfg.Search.Parallelism),
			availability.WithMaxIterations(cfg.Search.MaxIterations),
		),
		Metrics:         metrics,
		Location:        loc,
		DefaultDuration: time.Duration(cfg.Search.DefaultDurationMinutes) * time.Minute,
		Timeout:         cfg.Search.Timeout,
	}
}

func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, cfg *config.Config, loc *time.Location, logger *slog.Logger, metrics *instrumentation.Metrics) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Slot",
			register: func() error {
				return slot_tools.RegisterSlotTools(mcpSrv, sc, slotToolsConfig(cfg, loc, logger, metrics))
			},
		},
		{
			name: "Participant resource",
			register: func() error {
				return resources.RegisterParticipantResources(mcpSrv, sc)
			},
		},
	}
	if cfg.Source == config.SourceGoogle {
		registrations = append(registrations, toolRegistration{
			name: "Google",
			register: func() error {
				return google_tools.RegisterGoogleTools(mcpSrv, sc, google_tools.Config{
					Account: cfg.Google.Account,
					Metrics: metrics,
				})
			},
		})
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}
	return nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, addr string, metrics *instrumentation.Metrics, logger *slog.Logger) error {
	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath(mcpEndpointPath),
	)
	healthChecker := server.NewHealthChecker(sc)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.NewMux(mcpEndpointPath, streamable, healthChecker, metrics),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting MCP server",
		slog.String("transport", config.TransportStreamableHTTP),
		slog.String("addr", addr),
		slog.String("endpoint", mcpEndpointPath),
	)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		healthChecker.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
