package mcpclient

import (
	"context"
	"encoding/json"
	"fmt"
)

// Ping issues a bare liveness check.
func (c *Client) Ping(ctx context.Context) error {
	_, werr := c.request(ctx, "ping", map[string]any{})
	if werr != nil {
		return fmt.Errorf("mcpclient: ping: %s", werr.Message)
	}
	return nil
}

// ListTools pages through tools/list, updating the output-validator
// cache for any tool that declares an outputSchema, per spec.md §4.3
// ("invalidated and rebuilt whenever tools/list returns").
func (c *Client) ListTools(ctx context.Context, cursor string, limit int) (map[string]any, error) {
	if werr := c.requireCapability("tools"); werr != nil {
		return nil, fmt.Errorf("mcpclient: list_tools: %s", werr.Message)
	}
	raw, werr := c.request(ctx, "tools/list", map[string]any{"cursor": cursor, "limit": limit})
	if werr != nil {
		return nil, fmt.Errorf("mcpclient: list_tools: %s", werr.Message)
	}
	var result struct {
		Tools []struct {
			Name         string         `json:"name"`
			OutputSchema map[string]any `json:"outputSchema"`
		} `json:"tools"`
		NextCursor string `json:"nextCursor"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("mcpclient: list_tools: malformed result: %w", err)
	}

	c.outputCache.Invalidate()
	for _, t := range result.Tools {
		if t.OutputSchema == nil {
			continue
		}
		if err := c.outputCache.PutJSONSchema(t.Name, t.OutputSchema); err != nil {
			c.logger.Warn("mcpclient: failed to compile cached output schema", "tool", t.Name, "error", err)
		}
	}

	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return out, nil
}

// CallTool invokes a tool and, when a cached output validator exists for
// it, validates the returned structuredContent client-side as a defense
// in depth alongside the server's own validation.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (map[string]any, error) {
	if werr := c.requireCapability("tools"); werr != nil {
		return nil, fmt.Errorf("mcpclient: call_tool: %s", werr.Message)
	}
	raw, werr := c.request(ctx, "tools/call", map[string]any{"name": name, "arguments": arguments})
	if werr != nil {
		return nil, fmt.Errorf("mcpclient: call_tool %s: %s", name, werr.Message)
	}
	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("mcpclient: call_tool %s: malformed result: %w", name, err)
	}

	if structured, ok := result["structuredContent"].(map[string]any); ok {
		if v, ok := c.outputCache.Get(name); ok {
			validated := v.Validate(structured)
			if !validated.OK {
				return nil, fmt.Errorf("mcpclient: call_tool %s: cached output schema rejected result: %v", name, validated.Errors)
			}
		}
	}
	return result, nil
}

// ListPrompts mirrors ListTools for the prompts surface.
func (c *Client) ListPrompts(ctx context.Context, cursor string, limit int) (map[string]any, error) {
	if werr := c.requireCapability("prompts"); werr != nil {
		return nil, fmt.Errorf("mcpclient: list_prompts: %s", werr.Message)
	}
	raw, werr := c.request(ctx, "prompts/list", map[string]any{"cursor": cursor, "limit": limit})
	if werr != nil {
		return nil, fmt.Errorf("mcpclient: list_prompts: %s", werr.Message)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("mcpclient: list_prompts: malformed result: %w", err)
	}
	return out, nil
}

// GetPrompt resolves one named prompt with its arguments.
func (c *Client) GetPrompt(ctx context.Context, name string, arguments map[string]string) (map[string]any, error) {
	if werr := c.requireCapability("prompts"); werr != nil {
		return nil, fmt.Errorf("mcpclient: get_prompt: %s", werr.Message)
	}
	raw, werr := c.request(ctx, "prompts/get", map[string]any{"name": name, "arguments": arguments})
	if werr != nil {
		return nil, fmt.Errorf("mcpclient: get_prompt %s: %s", name, werr.Message)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("mcpclient: get_prompt %s: malformed result: %w", name, err)
	}
	return out, nil
}

// ListResources mirrors ListTools for the resources surface.
func (c *Client) ListResources(ctx context.Context, cursor string, limit int) (map[string]any, error) {
	if werr := c.requireCapability("resources"); werr != nil {
		return nil, fmt.Errorf("mcpclient: list_resources: %s", werr.Message)
	}
	raw, werr := c.request(ctx, "resources/list", map[string]any{"cursor": cursor, "limit": limit})
	if werr != nil {
		return nil, fmt.Errorf("mcpclient: list_resources: %s", werr.Message)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("mcpclient: list_resources: malformed result: %w", err)
	}
	return out, nil
}

// ReadResource fetches one resource (static or matched against a
// server-side template) by URI.
func (c *Client) ReadResource(ctx context.Context, uri string) (map[string]any, error) {
	if werr := c.requireCapability("resources"); werr != nil {
		return nil, fmt.Errorf("mcpclient: read_resource: %s", werr.Message)
	}
	raw, werr := c.request(ctx, "resources/read", map[string]any{"uri": uri})
	if werr != nil {
		return nil, fmt.Errorf("mcpclient: read_resource %s: %s", uri, werr.Message)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("mcpclient: read_resource %s: malformed result: %w", uri, err)
	}
	return out, nil
}

// SetLogLevel asks the server to raise or lower the minimum severity it
// pushes via notifications/message for this session.
func (c *Client) SetLogLevel(ctx context.Context, level string) error {
	if werr := c.requireCapability("logging"); werr != nil {
		return fmt.Errorf("mcpclient: set_log_level: %s", werr.Message)
	}
	_, werr := c.request(ctx, "logging/setLevel", map[string]any{"level": level})
	if werr != nil {
		return fmt.Errorf("mcpclient: set_log_level: %s", werr.Message)
	}
	return nil
}

// Complete asks the server for argument-completion suggestions.
func (c *Client) Complete(ctx context.Context, params map[string]any) (map[string]any, error) {
	if werr := c.requireCapability("completion"); werr != nil {
		return nil, fmt.Errorf("mcpclient: complete: %s", werr.Message)
	}
	raw, werr := c.request(ctx, "completion/complete", params)
	if werr != nil {
		return nil, fmt.Errorf("mcpclient: complete: %s", werr.Message)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("mcpclient: complete: malformed result: %w", err)
	}
	return out, nil
}
