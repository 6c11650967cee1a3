package registry

import (
	"context"

	"github.com/fenwicklabs/mcprt/internal/jsonrpc"
)

// ReadResource implements resources/read: a static match is tried first;
// failing that, registered templates are consulted in registration order.
// A template handler that returns resource_not_found causes the next
// template to be tried; any other error short-circuits the search, per
// spec.md §4.4 and Testable Property 7.
func (r *Registry) ReadResource(ctx context.Context, uri string, frame Frame) (ResourceResult, *jsonrpc.WireError) {
	if res, ok := r.FindResourceByURI(uri); ok {
		return res.Handler(ctx, uri, frame)
	}

	for _, tmpl := range r.Templates() {
		result, err := tmpl.Handler(ctx, uri, frame)
		if err == nil {
			return result, nil
		}
		if err.Code == jsonrpc.CodeResourceNotFound {
			continue
		}
		return ResourceResult{}, err
	}

	return ResourceResult{}, jsonrpc.ResourceNotFound(uri)
}
