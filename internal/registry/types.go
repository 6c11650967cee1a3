package registry

import (
	"context"

	"github.com/fenwicklabs/mcprt/internal/jsonrpc"
	"github.com/fenwicklabs/mcprt/internal/schema"
)

// ContentBlock is one element of a tool response's content array, per
// spec.md §6. Resource reads use ResourceContent instead.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Data any    `json:"data,omitempty"`
}

// ToolResult is the shape of a successful tools/call outcome. IsError=true
// is a domain error delivered through the JSON-RPC success path, distinct
// from a returned *jsonrpc.WireError which represents a protocol failure.
type ToolResult struct {
	Content           []ContentBlock `json:"content"`
	IsError           bool           `json:"isError"`
	StructuredContent map[string]any `json:"structuredContent,omitempty"`
}

// ToolHandler implements a tool's behavior. params has already passed
// input-schema validation by the time the handler runs.
type ToolHandler func(ctx context.Context, params map[string]any, frame Frame) (ToolResult, *jsonrpc.WireError)

// Tool is a registered callable component (spec.md §3 Component Descriptor,
// tool variant).
type Tool struct {
	Name         string
	Title        string
	Description  string
	InputSchema  schema.Schema
	OutputSchema schema.Schema
	Annotations  map[string]any
	Handler      ToolHandler

	inputValidator  *schema.Validator
	outputValidator *schema.Validator
}

// PromptArgument describes one named argument a prompt accepts.
type PromptArgument struct {
	Name        string
	Description string
	Required    bool
}

// PromptMessage is one message a prompt handler returns.
type PromptMessage struct {
	Role    string
	Content ContentBlock
}

// PromptResult is a prompts/get outcome.
type PromptResult struct {
	Description string
	Messages    []PromptMessage
}

// PromptHandler implements a prompt's behavior.
type PromptHandler func(ctx context.Context, args map[string]string, frame Frame) (PromptResult, *jsonrpc.WireError)

// Prompt is a registered prompt component.
type Prompt struct {
	Name        string
	Title       string
	Description string
	Arguments   []PromptArgument
	Handler     PromptHandler
}

// ResourceContent is one element of a resources/read result.
type ResourceContent struct {
	URI      string
	MimeType string
	Text     string
	Blob     []byte
}

// ResourceResult is a resources/read outcome.
type ResourceResult struct {
	Contents []ResourceContent
}

// ResourceHandler implements a resource's behavior. It receives the full
// requested URI even when registered under a template, so it can extract
// template variables itself.
type ResourceHandler func(ctx context.Context, uri string, frame Frame) (ResourceResult, *jsonrpc.WireError)

// Resource is a registered resource component. Exactly one of URI or
// URITemplate must be set, per spec.md §3's XOR invariant.
type Resource struct {
	Name        string
	Title       string
	Description string
	URI         string
	URITemplate string
	MimeType    string
	Handler     ResourceHandler
}

func (r *Resource) IsTemplate() bool { return r.URITemplate != "" }
