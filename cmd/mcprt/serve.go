// serve.go implements the 'serve' command, which starts one or more MCP
// transports against a shared protocol engine. Structure follows
// dkmcp/internal/cli/serve.go: config load, CLI flag overrides, logger
// setup, component construction, then block on a signal for graceful
// shutdown — repointed at internal/mcpserver instead of the Docker sandbox
// HTTP server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fenwicklabs/mcprt/internal/audit"
	"github.com/fenwicklabs/mcprt/internal/config"
	demodocker "github.com/fenwicklabs/mcprt/internal/demotools/docker"
	"github.com/fenwicklabs/mcprt/internal/jsonrpc"
	"github.com/fenwicklabs/mcprt/internal/mcpserver"
	"github.com/fenwicklabs/mcprt/internal/redact"
	"github.com/fenwicklabs/mcprt/internal/registry"
	"github.com/fenwicklabs/mcprt/internal/session"
	"github.com/fenwicklabs/mcprt/internal/transport"
	"github.com/fenwicklabs/mcprt/internal/transport/ssehttp"
	"github.com/fenwicklabs/mcprt/internal/transport/stdio"
	"github.com/fenwicklabs/mcprt/internal/transport/streamhttp"
	"github.com/fenwicklabs/mcprt/internal/transport/wsocket"
)

var (
	flagLogLevel string
	flagStdio    bool
	flagHTTPAddr string
	flagSSEAddr  string
	flagWSAddr   string
	flagNoDocker bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server over one or more transports",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	serveCmd.Flags().BoolVar(&flagStdio, "stdio", false, "serve over stdio (overrides config)")
	serveCmd.Flags().StringVar(&flagHTTPAddr, "http-addr", "", "listen address for the streamable HTTP transport (overrides config)")
	serveCmd.Flags().StringVar(&flagSSEAddr, "sse-addr", "", "listen address for the legacy HTTP+SSE transport (overrides config)")
	serveCmd.Flags().StringVar(&flagWSAddr, "ws-addr", "", "listen address for the WebSocket transport (overrides config)")
	serveCmd.Flags().BoolVar(&flagNoDocker, "no-docker", false, "skip registering the container-inspection demo tool pack")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}
	if flagStdio {
		cfg.Transport.Stdio = true
	}
	if flagHTTPAddr != "" {
		cfg.Transport.HTTPAddr = flagHTTPAddr
	}
	if flagSSEAddr != "" {
		cfg.Transport.SSEAddr = flagSSEAddr
	}
	if flagWSAddr != "" {
		cfg.Transport.WSAddr = flagWSAddr
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	scrub := redact.New(cfg.Redaction.Enabled, cfg.Redaction.Replacement, cfg.Redaction.Patterns)
	auditor, err := audit.New(audit.Config{
		Enabled:  cfg.Audit.Enabled,
		File:     cfg.Audit.File,
		ToolCall: cfg.Audit.ToolCall,
		Access:   cfg.Audit.Access,
		Session:  cfg.Audit.Session,
	}, scrub)
	if err != nil {
		return fmt.Errorf("audit logger: %w", err)
	}
	defer auditor.Close()

	reg := registry.New()
	if !flagNoDocker {
		dockerClient, err := demodocker.NewClient(scrub)
		if err != nil {
			logger.Warn("demotools/docker unavailable, serving without the container tool pack", "error", err)
		} else {
			defer dockerClient.Close()
			if err := demodocker.RegisterTools(reg, dockerClient); err != nil {
				return fmt.Errorf("register docker tools: %w", err)
			}
		}
	}

	store := session.NewMemoryStore(cfg.Sessions.Sweep())
	defer store.Close()

	engine := mcpserver.New(reg, store, mcpserver.ServerInfo{Name: cfg.Server.Name, Version: Version}, []string{"2024-11-05", "2025-03-26", "2025-06-18"}, logger)
	engine.TTLMs = cfg.Sessions.TTLMs
	engine.Audit = auditor

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transports, err := startTransports(ctx, cfg, engine, logger)
	if err != nil {
		return err
	}
	if len(transports) == 0 {
		return fmt.Errorf("serve: no transport enabled; pass --stdio, --http-addr, --sse-addr, or --ws-addr")
	}

	logger.Info("mcprt serving", "transports", len(transports))
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownGrace())
	defer cancel()
	for _, t := range transports {
		if err := t.Shutdown(shutdownCtx); err != nil {
			logger.Warn("transport shutdown error", "error", err)
		}
	}
	return nil
}

// notifier adapts a transport.Transport into an mcpserver.Notifier.
type notifier struct {
	t   transport.Transport
	ctx context.Context
}

func (n notifier) Notify(sessionID string, frame []byte) error {
	return n.t.Send(n.ctx, sessionID, frame, 0)
}

// wireEngine returns the FrameHandler every transport drives inbound
// frames through: decode, dispatch against the shared engine, and send
// back whatever response frame (if any) the dispatch produced.
func wireEngine(ctx context.Context, engine *mcpserver.Engine, t transport.Transport, logger *slog.Logger) transport.FrameHandler {
	return func(ctx context.Context, sessionID string, raw []byte) {
		n := notifier{t: t, ctx: ctx}
		for _, msg := range jsonrpc.Decode(raw) {
			resp, ok := engine.Dispatch(ctx, sessionID, msg, n)
			if !ok || resp == nil {
				continue
			}
			if err := t.Send(ctx, sessionID, resp, 0); err != nil {
				logger.Warn("mcprt: failed to send response frame", "session", sessionID, "error", err)
			}
		}
	}
}

func startTransports(ctx context.Context, cfg config.RuntimeConfig, engine *mcpserver.Engine, logger *slog.Logger) ([]transport.Transport, error) {
	var started []transport.Transport

	if cfg.Transport.Stdio {
		t := stdio.New(logger)
		if err := t.Start(ctx, wireEngine(ctx, engine, t, logger)); err != nil {
			return started, fmt.Errorf("start stdio transport: %w", err)
		}
		started = append(started, t)
	}
	if cfg.Transport.HTTPAddr != "" {
		t := streamhttp.New(cfg.Transport.HTTPAddr, logger)
		if cfg.Transport.HTTPPath != "" {
			t.Path = cfg.Transport.HTTPPath
		}
		if cfg.Transport.SessionHeader != "" {
			t.SessionHeader = cfg.Transport.SessionHeader
		}
		t.RequestTimeout = cfg.Timeouts.RequestTimeout()
		t.KeepaliveInterval = cfg.Timeouts.Keepalive()
		if err := t.Start(ctx, wireEngine(ctx, engine, t, logger)); err != nil {
			return started, fmt.Errorf("start streamable HTTP transport: %w", err)
		}
		started = append(started, t)
		logger.Info("streamable HTTP transport listening", "addr", cfg.Transport.HTTPAddr, "path", cfg.Transport.HTTPPath)
	}
	if cfg.Transport.SSEAddr != "" {
		t := ssehttp.New(cfg.Transport.SSEAddr, logger)
		if err := t.Start(ctx, wireEngine(ctx, engine, t, logger)); err != nil {
			return started, fmt.Errorf("start legacy HTTP+SSE transport: %w", err)
		}
		started = append(started, t)
		logger.Info("legacy HTTP+SSE transport listening", "addr", cfg.Transport.SSEAddr)
	}
	if cfg.Transport.WSAddr != "" {
		t := wsocket.New(cfg.Transport.WSAddr, cfg.Transport.WSPath, nil, logger)
		if err := t.Start(ctx, wireEngine(ctx, engine, t, logger)); err != nil {
			return started, fmt.Errorf("start WebSocket transport: %w", err)
		}
		started = append(started, t)
		logger.Info("WebSocket transport listening", "addr", cfg.Transport.WSAddr, "path", t.BasePath+wsocket.DefaultPathSuffix)
	}

	return started, nil
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
