package registry

import (
	"context"
	"fmt"
	"testing"

	"github.com/fenwicklabs/mcprt/internal/jsonrpc"
	"github.com/fenwicklabs/mcprt/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopToolHandler(ctx context.Context, params map[string]any, frame Frame) (ToolResult, *jsonrpc.WireError) {
	return ToolResult{Content: []ContentBlock{{Type: "text", Text: "ok"}}}, nil
}

func TestPaginationMonotonicity(t *testing.T) {
	r := New()
	const n = 23
	for i := 0; i < n; i++ {
		require.NoError(t, r.RegisterTool(&Tool{
			Name:        fmt.Sprintf("tool-%02d", i),
			InputSchema: schema.Schema{},
			Handler:     noopToolHandler,
		}))
	}

	for _, limit := range []int{1, 3, 7, 100} {
		var all []*Tool
		cursor := ""
		for {
			page, err := r.ListTools(cursor, limit)
			require.Nil(t, err)
			all = append(all, page.Items...)
			if page.NextCursor == "" {
				break
			}
			cursor = page.NextCursor
		}
		require.Len(t, all, n)
		for i, tool := range all {
			assert.Equal(t, fmt.Sprintf("tool-%02d", i), tool.Name)
		}
	}
}

func TestInvalidCursorIsHardError(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterTool(&Tool{Name: "a", InputSchema: schema.Schema{}, Handler: noopToolHandler}))
	_, err := r.ListTools("not-a-valid-cursor!!", 1)
	require.NotNil(t, err)
	assert.Equal(t, jsonrpc.CodeInvalidParams, err.Code)
}

func TestResourceTemplateFallthrough(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterResource(&Resource{
		Name:        "files",
		URITemplate: "file:///{path}",
		Handler: func(ctx context.Context, uri string, frame Frame) (ResourceResult, *jsonrpc.WireError) {
			return ResourceResult{}, jsonrpc.ResourceNotFound(uri)
		},
	}))
	require.NoError(t, r.RegisterResource(&Resource{
		Name:        "rows",
		URITemplate: "db:///{table}/{id}",
		Handler: func(ctx context.Context, uri string, frame Frame) (ResourceResult, *jsonrpc.WireError) {
			if uri == "db:///users/42" {
				return ResourceResult{Contents: []ResourceContent{{URI: uri, Text: "row42"}}}, nil
			}
			return ResourceResult{}, jsonrpc.ResourceNotFound(uri)
		},
	}))

	result, err := r.ReadResource(context.Background(), "db:///users/42", NewFrame("s1"))
	require.Nil(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "row42", result.Contents[0].Text)

	_, err = r.ReadResource(context.Background(), "gopher:///x", NewFrame("s1"))
	require.NotNil(t, err)
	assert.Equal(t, jsonrpc.CodeResourceNotFound, err.Code)
}

func TestResourceXORInvariant(t *testing.T) {
	r := New()
	err := r.RegisterResource(&Resource{Name: "bad", URI: "a://b", URITemplate: "a://{x}"})
	assert.Error(t, err)

	err = r.RegisterResource(&Resource{Name: "bad2"})
	assert.Error(t, err)
}
