// client.go implements the 'client' command group: ad-hoc MCP client
// operations against a running server, grounded on
// dkmcp/internal/cli/client.go's parent-command-plus-flags shape but
// repointed at internal/mcpclient's general protocol engine instead of a
// hardcoded Docker-specific HTTP call.
package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fenwicklabs/mcprt/internal/mcpclient"
	"github.com/fenwicklabs/mcprt/internal/transport/ssehttp"
	"github.com/fenwicklabs/mcprt/internal/transport/stdio"
)

var (
	clientServerURL string
	clientStdioCmd  string
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Ad-hoc client operations against a running MCP server",
	Long: `Client commands connect to an MCP server, perform the initialize
handshake, and exercise one protocol operation. --url connects to a legacy
HTTP+SSE server; --spawn launches a stdio server subprocess instead.`,
}

func init() {
	rootCmd.AddCommand(clientCmd)
	clientCmd.PersistentFlags().StringVar(&clientServerURL, "url", "", "legacy HTTP+SSE server base URL")
	clientCmd.PersistentFlags().StringVar(&clientStdioCmd, "spawn", "", "command to spawn as a stdio MCP server")

	listToolsCmd := &cobra.Command{
		Use:   "list-tools",
		Short: "List the server's registered tools",
		RunE:  runListTools,
	}
	clientCmd.AddCommand(listToolsCmd)

	callToolCmd := &cobra.Command{
		Use:   "call-tool <name> <json-arguments>",
		Short: "Invoke one tool and print its result",
		Args:  cobra.ExactArgs(2),
		RunE:  runCallTool,
	}
	clientCmd.AddCommand(callToolCmd)
}

// connect builds and initializes an mcpclient.Client over whichever
// transport the caller selected.
func connect(ctx context.Context) (*mcpclient.Client, error) {
	switch {
	case clientStdioCmd != "":
		t, err := stdio.Spawn(ctx, clientStdioCmd, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("spawn stdio server: %w", err)
		}
		c := mcpclient.New(t, nil)
		if err := c.Start(ctx); err != nil {
			return nil, fmt.Errorf("start stdio transport: %w", err)
		}
		if err := c.Initialize(ctx, mcpclient.ClientInfo{Name: "mcprt-cli", Version: Version}, map[string]any{}, "2025-06-18"); err != nil {
			return nil, err
		}
		return c, nil
	case clientServerURL != "":
		t := ssehttp.NewClient(clientServerURL, nil)
		c := mcpclient.New(t, nil)
		if err := c.Start(ctx); err != nil {
			return nil, fmt.Errorf("start SSE transport: %w", err)
		}
		if err := c.Initialize(ctx, mcpclient.ClientInfo{Name: "mcprt-cli", Version: Version}, map[string]any{}, "2024-11-05"); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("client: pass --url or --spawn")
	}
}

func runListTools(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close(ctx)

	result, err := c.ListTools(ctx, "", 0)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runCallTool(cmd *cobra.Command, args []string) error {
	name, rawArgs := args[0], args[1]
	var arguments map[string]any
	if err := json.Unmarshal([]byte(rawArgs), &arguments); err != nil {
		return fmt.Errorf("invalid JSON arguments: %w", err)
	}

	ctx := cmd.Context()
	c, err := connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close(ctx)

	result, err := c.CallTool(ctx, name, arguments)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
