// Package main implements mcprt's command-line entrypoint. Structure
// follows dkmcp/internal/cli/root.go: a persistent --config flag on a
// cobra root command, subcommands registered via init(), repointed at the
// protocol engine instead of the Docker sandbox CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "mcprt",
	Short: "mcprt - Model Context Protocol runtime",
	Long: `mcprt runs and drives MCP (Model Context Protocol) servers: a
bidirectional JSON-RPC 2.0 engine exposing tools, prompts, and resources
to LLM-facing clients over stdio, streamable HTTP, legacy HTTP+SSE, or
WebSocket.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (built-in defaults when unset)")
}

func main() {
	Execute()
}
