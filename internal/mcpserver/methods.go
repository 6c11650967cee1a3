package mcpserver

import (
	"context"

	"github.com/fenwicklabs/mcprt/internal/jsonrpc"
	"github.com/fenwicklabs/mcprt/internal/schema"
	"github.com/fenwicklabs/mcprt/internal/session"
)

type paginationParams struct {
	Cursor string `json:"cursor"`
	Limit  int    `json:"limit"`
}

func (e *Engine) doInitialize(sess *session.Actor, msg jsonrpc.Message) (any, *jsonrpc.WireError) {
	var params struct {
		ProtocolVersion string             `json:"protocolVersion"`
		Capabilities    map[string]any     `json:"capabilities"`
		ClientInfo      session.ClientInfo `json:"clientInfo"`
	}
	if werr := paramsFromRaw(msg.Params, &params); werr != nil {
		return nil, werr
	}

	if sess.Get().ProtocolVersion != "" {
		return nil, jsonrpc.InvalidRequest("initialize already called for this session")
	}

	version, ok := negotiateVersion(e.SupportedVersions, params.ProtocolVersion)
	if !ok {
		return nil, jsonrpc.InvalidRequest("no protocol version overlap with transport")
	}

	sess.SetProtocolVersion(version)
	sess.SetClient(params.ClientInfo, params.Capabilities)

	return map[string]any{
		"protocolVersion": version,
		"serverInfo":      e.ServerInfo,
		"capabilities":    e.capabilities(),
	}, nil
}

func (e *Engine) doToolsList(msg jsonrpc.Message) (any, *jsonrpc.WireError) {
	if !e.hasCapability("tools") {
		return nil, jsonrpc.MethodNotFound(msg.Method)
	}
	var p paginationParams
	if werr := paramsFromRaw(msg.Params, &p); werr != nil {
		return nil, werr
	}
	page, werr := e.Registry.ListTools(p.Cursor, p.Limit)
	if werr != nil {
		return nil, werr
	}
	tools := make([]map[string]any, 0, len(page.Items))
	for _, t := range page.Items {
		entry := map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"inputSchema": t.InputValidator().JSONSchema(),
		}
		if t.Title != "" {
			entry["title"] = t.Title
		}
		if t.OutputSchema != nil {
			entry["outputSchema"] = t.OutputValidator().JSONSchema()
		}
		if t.Annotations != nil {
			entry["annotations"] = t.Annotations
		}
		tools = append(tools, entry)
	}
	result := map[string]any{"tools": tools}
	if page.NextCursor != "" {
		result["nextCursor"] = page.NextCursor
	}
	return result, nil
}

func (e *Engine) doToolsCall(ctx context.Context, sessionID string, msg jsonrpc.Message) (any, *jsonrpc.WireError) {
	if !e.hasCapability("tools") {
		return nil, jsonrpc.MethodNotFound(msg.Method)
	}
	var params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if werr := paramsFromRaw(msg.Params, &params); werr != nil {
		return nil, werr
	}

	tool, ok := e.Registry.FindTool(params.Name)
	if !ok {
		return nil, jsonrpc.MethodNotFound("tools/call: " + params.Name)
	}

	validated := tool.InputValidator().Validate(params.Arguments)
	if !validated.OK {
		return nil, jsonrpc.InvalidParams(firstFieldPath(validated.Errors), "invalid tool arguments")
	}

	result, werr := tool.Handler(ctx, validated.Coerced, frameFor(sessionID))
	if werr != nil {
		return nil, werr
	}

	if tool.OutputSchema != nil && result.StructuredContent != nil {
		out := tool.OutputValidator().Validate(result.StructuredContent)
		if !out.OK {
			msgs := make([]string, 0, len(out.Errors))
			for _, fe := range out.Errors {
				msgs = append(msgs, fe.String())
			}
			return nil, jsonrpc.ToolOutputInvalid(msgs)
		}
		result.StructuredContent = out.Coerced
	}

	return result, nil
}

func firstFieldPath(errs []schema.FieldError) string {
	if len(errs) == 0 {
		return ""
	}
	return errs[0].Path
}

func (e *Engine) doPromptsList(msg jsonrpc.Message) (any, *jsonrpc.WireError) {
	if !e.hasCapability("prompts") {
		return nil, jsonrpc.MethodNotFound(msg.Method)
	}
	var p paginationParams
	if werr := paramsFromRaw(msg.Params, &p); werr != nil {
		return nil, werr
	}
	page, werr := e.Registry.ListPrompts(p.Cursor, p.Limit)
	if werr != nil {
		return nil, werr
	}
	prompts := make([]map[string]any, 0, len(page.Items))
	for _, pr := range page.Items {
		prompts = append(prompts, map[string]any{
			"name":        pr.Name,
			"description": pr.Description,
			"arguments":   pr.Arguments,
		})
	}
	result := map[string]any{"prompts": prompts}
	if page.NextCursor != "" {
		result["nextCursor"] = page.NextCursor
	}
	return result, nil
}

func (e *Engine) doPromptsGet(ctx context.Context, sessionID string, msg jsonrpc.Message) (any, *jsonrpc.WireError) {
	if !e.hasCapability("prompts") {
		return nil, jsonrpc.MethodNotFound(msg.Method)
	}
	var params struct {
		Name      string            `json:"name"`
		Arguments map[string]string `json:"arguments"`
	}
	if werr := paramsFromRaw(msg.Params, &params); werr != nil {
		return nil, werr
	}
	prompt, ok := e.Registry.FindPrompt(params.Name)
	if !ok {
		return nil, jsonrpc.MethodNotFound("prompts/get: " + params.Name)
	}
	result, werr := prompt.Handler(ctx, params.Arguments, frameFor(sessionID))
	if werr != nil {
		return nil, werr
	}
	return result, nil
}

func (e *Engine) doResourcesList(msg jsonrpc.Message) (any, *jsonrpc.WireError) {
	if !e.hasCapability("resources") {
		return nil, jsonrpc.MethodNotFound(msg.Method)
	}
	var p paginationParams
	if werr := paramsFromRaw(msg.Params, &p); werr != nil {
		return nil, werr
	}
	page, werr := e.Registry.ListResources(p.Cursor, p.Limit)
	if werr != nil {
		return nil, werr
	}
	resources := make([]map[string]any, 0, len(page.Items))
	for _, r := range page.Items {
		resources = append(resources, map[string]any{
			"name":     r.Name,
			"uri":      r.URI,
			"mimeType": r.MimeType,
		})
	}
	result := map[string]any{"resources": resources}
	if page.NextCursor != "" {
		result["nextCursor"] = page.NextCursor
	}
	return result, nil
}

func (e *Engine) doResourceTemplatesList(msg jsonrpc.Message) (any, *jsonrpc.WireError) {
	if !e.hasCapability("resources") {
		return nil, jsonrpc.MethodNotFound(msg.Method)
	}
	var p paginationParams
	if werr := paramsFromRaw(msg.Params, &p); werr != nil {
		return nil, werr
	}
	page, werr := e.Registry.ListResourceTemplates(p.Cursor, p.Limit)
	if werr != nil {
		return nil, werr
	}
	templates := make([]map[string]any, 0, len(page.Items))
	for _, r := range page.Items {
		templates = append(templates, map[string]any{
			"name":        r.Name,
			"uriTemplate": r.URITemplate,
			"mimeType":    r.MimeType,
		})
	}
	result := map[string]any{"resourceTemplates": templates}
	if page.NextCursor != "" {
		result["nextCursor"] = page.NextCursor
	}
	return result, nil
}

func (e *Engine) doResourcesRead(ctx context.Context, sessionID string, msg jsonrpc.Message) (any, *jsonrpc.WireError) {
	if !e.hasCapability("resources") {
		return nil, jsonrpc.MethodNotFound(msg.Method)
	}
	var params struct {
		URI string `json:"uri"`
	}
	if werr := paramsFromRaw(msg.Params, &params); werr != nil {
		return nil, werr
	}
	result, werr := e.Registry.ReadResource(ctx, params.URI, frameFor(sessionID))
	if werr != nil {
		return nil, werr
	}
	contents := make([]map[string]any, 0, len(result.Contents))
	for _, c := range result.Contents {
		entry := map[string]any{"uri": c.URI, "mimeType": c.MimeType}
		if c.Blob != nil {
			entry["blob"] = c.Blob
		} else {
			entry["text"] = c.Text
		}
		contents = append(contents, entry)
	}
	return map[string]any{"contents": contents}, nil
}

func (e *Engine) doSetLevel(sess *session.Actor, msg jsonrpc.Message) (any, *jsonrpc.WireError) {
	if !e.hasCapability("logging") {
		return nil, jsonrpc.MethodNotFound(msg.Method)
	}
	var params struct {
		Level string `json:"level"`
	}
	if werr := paramsFromRaw(msg.Params, &params); werr != nil {
		return nil, werr
	}
	sess.SetLogLevel(params.Level)
	return map[string]any{}, nil
}

func (e *Engine) doComplete(ctx context.Context, sessionID string, msg jsonrpc.Message) (any, *jsonrpc.WireError) {
	if e.CompletionHandler == nil {
		return nil, jsonrpc.MethodNotFound(msg.Method)
	}
	var params map[string]any
	if werr := paramsFromRaw(msg.Params, &params); werr != nil {
		return nil, werr
	}
	result, err := e.CompletionHandler(ctx, params, frameFor(sessionID))
	if err != nil {
		return nil, jsonrpc.InternalError(err.Error())
	}
	return result, nil
}
