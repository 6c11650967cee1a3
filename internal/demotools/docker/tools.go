package docker

import (
	"context"

	"github.com/fenwicklabs/mcprt/internal/jsonrpc"
	"github.com/fenwicklabs/mcprt/internal/registry"
	"github.com/fenwicklabs/mcprt/internal/schema"
)

// RegisterTools registers the container-inspection tool pack against reg,
// grounded on the handler bodies in dkmcp/internal/mcp/tools.go but
// expressed as registry.Tool descriptors instead of a fixed switch
// statement, per spec.md §9's "explicit descriptor record" design note.
func RegisterTools(reg *registry.Registry, c *Client) error {
	tools := []*registry.Tool{
		{
			Name:        "list_containers",
			Title:       "List containers",
			Description: "Lists Docker containers visible to this server, running or stopped.",
			InputSchema: schema.Schema{},
			Handler: func(ctx context.Context, _ map[string]any, _ registry.Frame) (registry.ToolResult, *jsonrpc.WireError) {
				containers, err := c.listContainers(ctx)
				if err != nil {
					return registry.ToolResult{}, jsonrpc.InternalError("list_containers: " + err.Error())
				}
				return textResult(map[string]any{"containers": containers}), nil
			},
		},
		{
			Name:        "container_logs",
			Title:       "Container logs",
			Description: "Reads stdout/stderr log lines from a container.",
			InputSchema: schema.Schema{
				"container": schema.Required(schema.String().WithDescription("container name or id")),
				"tail":      schema.Default(schema.String().WithDescription("number of lines from the end, or \"all\""), "200"),
				"since":     schema.Default(schema.String().WithDescription("RFC3339 timestamp or relative duration, e.g. \"42m\""), ""),
			},
			Handler: func(ctx context.Context, params map[string]any, _ registry.Frame) (registry.ToolResult, *jsonrpc.WireError) {
				name, _ := params["container"].(string)
				tail, _ := params["tail"].(string)
				since, _ := params["since"].(string)
				out, err := c.logs(ctx, name, tail, since)
				if err != nil {
					return registry.ToolResult{}, jsonrpc.InternalError("container_logs: " + err.Error())
				}
				return registry.ToolResult{Content: []registry.ContentBlock{{Type: "text", Text: out}}}, nil
			},
		},
		{
			Name:        "container_stats",
			Title:       "Container stats",
			Description: "Returns a point-in-time resource usage snapshot for a container.",
			InputSchema: schema.Schema{
				"container": schema.Required(schema.String()),
			},
			OutputSchema: schema.Schema{
				"container": schema.Required(schema.String()),
				"stats":     schema.Any(),
			},
			Handler: func(ctx context.Context, params map[string]any, _ registry.Frame) (registry.ToolResult, *jsonrpc.WireError) {
				name, _ := params["container"].(string)
				stats, err := c.stats(ctx, name)
				if err != nil {
					return registry.ToolResult{}, jsonrpc.InternalError("container_stats: " + err.Error())
				}
				structured := map[string]any{"container": name, "stats": stats}
				return registry.ToolResult{
					Content:           []registry.ContentBlock{{Type: "text", Text: fmtJSON(structured)}},
					StructuredContent: structured,
				}, nil
			},
		},
		{
			Name:        "container_exec",
			Title:       "Exec in container",
			Description: "Runs a command inside a container and returns its combined output and exit code.",
			InputSchema: schema.Schema{
				"container": schema.Required(schema.String()),
				"command":   schema.Required(schema.String().WithDescription("shell-free argv, split on whitespace")),
			},
			Handler: func(ctx context.Context, params map[string]any, _ registry.Frame) (registry.ToolResult, *jsonrpc.WireError) {
				name, _ := params["container"].(string)
				cmd, _ := params["command"].(string)
				exitCode, output, err := c.exec(ctx, name, cmd)
				if err != nil {
					return registry.ToolResult{}, jsonrpc.InternalError("container_exec: " + err.Error())
				}
				return registry.ToolResult{
					Content: []registry.ContentBlock{{Type: "text", Text: output}},
					IsError: exitCode != 0,
				}, nil
			},
		},
		{
			Name:        "container_inspect",
			Title:       "Inspect container",
			Description: "Returns identity and state metadata for a container.",
			InputSchema: schema.Schema{
				"container": schema.Required(schema.String()),
			},
			Handler: func(ctx context.Context, params map[string]any, _ registry.Frame) (registry.ToolResult, *jsonrpc.WireError) {
				name, _ := params["container"].(string)
				info, err := c.inspect(ctx, name)
				if err != nil {
					return registry.ToolResult{}, jsonrpc.InternalError("container_inspect: " + err.Error())
				}
				return textResult(info), nil
			},
		},
	}

	for _, t := range tools {
		if err := reg.RegisterTool(t); err != nil {
			return err
		}
	}
	return nil
}

func textResult(v map[string]any) registry.ToolResult {
	return registry.ToolResult{Content: []registry.ContentBlock{{Type: "text", Text: fmtJSON(v)}}}
}
