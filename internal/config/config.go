// Package config loads mcprt's RuntimeConfig from YAML, adapted from
// dkmcp/internal/config/config.go's struct-plus-yaml.v3 loading pattern.
// Where the teacher's Config carried Docker/security-sandbox fields
// (SecurityConfig, HostAccessConfig, CLIConfig), RuntimeConfig carries the
// protocol engine's own knobs: transport selection, timeouts, session
// store backend, and log level, per spec.md §9's "Process-wide
// configuration" design note.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the process-wide server identity advertised
// during initialize.
type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// TransportConfig selects and configures which transport bindings a
// `serve` invocation starts.
type TransportConfig struct {
	Stdio         bool   `yaml:"stdio"`
	HTTPAddr      string `yaml:"http_addr"`
	HTTPPath      string `yaml:"http_path"`
	SSEAddr       string `yaml:"sse_addr"`
	WSAddr        string `yaml:"ws_addr"`
	WSPath        string `yaml:"ws_path"`
	SessionHeader string `yaml:"session_header"`
}

// TimeoutConfig configures the streamable HTTP transport's request
// timeout and keepalive interval, and the shutdown grace period. The
// correlators keep their own fixed request deadlines and do not read it.
type TimeoutConfig struct {
	RequestTimeoutMs int64 `yaml:"request_timeout_ms"`
	KeepaliveMs      int64 `yaml:"keepalive_ms"`
	ShutdownGraceMs  int64 `yaml:"shutdown_grace_ms"`
}

func (t TimeoutConfig) RequestTimeout() time.Duration {
	return durationOrDefault(t.RequestTimeoutMs, 30*time.Second)
}

func (t TimeoutConfig) Keepalive() time.Duration {
	return durationOrDefault(t.KeepaliveMs, 5*time.Second)
}

func (t TimeoutConfig) ShutdownGrace() time.Duration {
	return durationOrDefault(t.ShutdownGraceMs, 10*time.Second)
}

func durationOrDefault(ms int64, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// SessionStoreConfig selects the session store backend. Only "memory" is
// implemented; "redis" is accepted as a forward-declared value so a
// deployment's YAML can name an intended backend, but constructing one is
// outside this module's scope (spec.md explicit Non-goal).
type SessionStoreConfig struct {
	Backend string `yaml:"backend"`
	TTLMs   int64  `yaml:"ttl_ms"`
	SweepIntervalMs int64 `yaml:"sweep_interval_ms"`
}

// Sweep returns the configured eviction sweep interval, defaulting to one
// minute when unset.
func (s SessionStoreConfig) Sweep() time.Duration {
	return durationOrDefault(s.SweepIntervalMs, time.Minute)
}

// LoggingConfig selects the ambient slog handler and verbosity.
type LoggingConfig struct {
	Level          string `yaml:"level"`
	Format         string `yaml:"format"` // "json" or "text"
	VerboseTracing bool   `yaml:"verbose_tracing"`
}

// AuditConfig mirrors the teacher's AuditConfig shape, repointed at
// protocol-engine event categories in internal/audit.
type AuditConfig struct {
	Enabled  bool   `yaml:"enabled"`
	File     string `yaml:"file"`
	ToolCall bool   `yaml:"tool_call"`
	Access   bool   `yaml:"access"`
	Session  bool   `yaml:"session"`
}

// RedactionConfig configures internal/redact.
type RedactionConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Replacement string   `yaml:"replacement"`
	Patterns    []string `yaml:"patterns"`
}

// RuntimeConfig is the top-level configuration value threaded into the
// server constructor, replacing the teacher's ambient environment lookups
// per spec.md §9.
type RuntimeConfig struct {
	Server    ServerConfig       `yaml:"server"`
	Transport TransportConfig    `yaml:"transport"`
	Timeouts  TimeoutConfig      `yaml:"timeouts"`
	Sessions  SessionStoreConfig `yaml:"sessions"`
	Logging   LoggingConfig      `yaml:"logging"`
	Audit     AuditConfig        `yaml:"audit"`
	Redaction RedactionConfig    `yaml:"redaction"`
}

// Default returns a RuntimeConfig with sane, fully-populated defaults so a
// zero-config `mcprt serve` works out of the box.
func Default() RuntimeConfig {
	return RuntimeConfig{
		Server: ServerConfig{Name: "mcprt", Version: "dev"},
		Transport: TransportConfig{
			Stdio:         true,
			HTTPPath:      "/mcp",
			WSPath:        "",
			SessionHeader: "mcp-session-id",
		},
		Timeouts: TimeoutConfig{
			RequestTimeoutMs: 30_000,
			KeepaliveMs:      5_000,
			ShutdownGraceMs:  10_000,
		},
		Sessions: SessionStoreConfig{
			Backend:         "memory",
			TTLMs:           int64(24 * time.Hour / time.Millisecond),
			SweepIntervalMs: 60_000,
		},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Redaction: RedactionConfig{Enabled: true},
	}
}

// Load reads a RuntimeConfig from a YAML file. It starts from Default()
// and lets the fields the file sets override it; an empty path returns
// Default() without reading any file.
func Load(path string) (RuntimeConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
