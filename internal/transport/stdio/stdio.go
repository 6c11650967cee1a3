// Package stdio implements the stdio transport from spec.md §4.10.1: one
// JSON value per line over a pair of byte streams, with a single implicit
// session. It is grounded on the line-oriented framing dkmcp's server.go
// uses for SSE payloads, adapted to newline-delimited JSON instead of SSE
// event framing, and on the sanitized-subprocess-environment pattern every
// dkmcp CLI command needs when it shells out to `docker`.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/fenwicklabs/mcprt/internal/transport"
)

// SessionID is the fixed session identifier for a stdio transport, which by
// construction has exactly one peer for its lifetime.
const SessionID = "stdio"

// envWhitelist is the set of environment variables forwarded to a spawned
// child process, per spec.md §4.10.1.
var envWhitelist = map[string]bool{
	"HOME": true, "PATH": true, "SHELL": true, "TERM": true, "USER": true, "LOGNAME": true,
	"USERPROFILE": true, "APPDATA": true, "LOCALAPPDATA": true, "COMSPEC": true, "SYSTEMROOT": true,
}

// sanitizedEnviron returns the current process environment filtered down to
// the transport whitelist, dropping any value that looks like a leaked
// shell function definition (a value beginning with "()").
func sanitizedEnviron() []string {
	var out []string
	for _, kv := range os.Environ() {
		idx := bytes.IndexByte([]byte(kv), '=')
		if idx < 0 {
			continue
		}
		key, val := kv[:idx], kv[idx+1:]
		if !envWhitelist[key] {
			continue
		}
		if bytes.HasPrefix([]byte(val), []byte("()")) {
			continue
		}
		out = append(out, kv)
	}
	return out
}

// Transport is a stdio-framed transport. Built with New it reads from and
// writes to the given process's own stdio (the "we are the spawned server"
// case); built with Spawn it launches a child process and speaks its
// protocol over the child's stdin/stdout (the "we are the launching
// client" case).
type Transport struct {
	reader io.ReadCloser
	writer io.WriteCloser
	cmd    *exec.Cmd
	logger *slog.Logger

	mu      sync.Mutex
	onFrame transport.FrameHandler
	closed  bool
}

// New wires a Transport to the current process's stdin/stdout, for use when
// this binary itself is the MCP server spawned by a client.
func New(logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{reader: os.Stdin, writer: os.Stdout, logger: logger}
}

// Spawn launches command as a child process with a sanitized environment
// and wires a Transport to its stdin/stdout, for use when this binary is
// acting as an MCP client driving a server subprocess.
func Spawn(ctx context.Context, command string, args []string, logger *slog.Logger) (*Transport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Env = sanitizedEnviron()
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdio: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdio: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("stdio: spawn %s: %w", command, err)
	}
	return &Transport{reader: stdout, writer: stdin, cmd: cmd, logger: logger}, nil
}

// Start implements transport.Transport. It blocks, scanning newline-framed
// messages from the reader, until the reader is exhausted or ctx is done.
func (t *Transport) Start(ctx context.Context, onFrame transport.FrameHandler) error {
	t.mu.Lock()
	t.onFrame = onFrame
	t.mu.Unlock()

	scanner := bufio.NewScanner(t.reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			frame := make([]byte, len(line))
			copy(frame, line)
			onFrame(ctx, SessionID, frame)
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("stdio: scan: %w", err)
		}
		return io.EOF
	}
}

// Send writes one frame terminated by a newline. sessionID and timeout are
// accepted for interface symmetry; stdio has exactly one session and no
// per-write deadline.
func (t *Transport) Send(ctx context.Context, sessionID string, frame []byte, timeout time.Duration) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return &transport.ErrSessionUnknown{SessionID: sessionID}
	}
	if _, err := t.writer.Write(append(append([]byte{}, frame...), '\n')); err != nil {
		return fmt.Errorf("stdio: write: %w", err)
	}
	return nil
}

// Shutdown closes the underlying streams and, if this transport spawned a
// child process, waits for it to exit.
func (t *Transport) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	var errs []error
	if c, ok := t.writer.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if t.reader != os.Stdin {
		if err := t.reader.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if t.cmd != nil {
		if err := t.cmd.Wait(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("stdio: shutdown: %v", errs)
	}
	return nil
}

// SupportedProtocolVersions reports support for every protocol version the
// server's method table understands, per spec.md §4.10.1 ("all").
func (t *Transport) SupportedProtocolVersions() []string {
	return []string{"2024-11-05", "2025-03-26", "2025-06-18"}
}
