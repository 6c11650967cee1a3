package registry

import (
	"encoding/base64"
	"fmt"

	"github.com/fenwicklabs/mcprt/internal/jsonrpc"
)

// Page is a paginated listing result, per spec.md §4.4.
type Page[T any] struct {
	Items      []T
	NextCursor string
}

func encodeCursor(name string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(name))
}

func decodeCursor(cursor string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// paginate slices items in registration order starting just after cursor
// (if any) and returns up to limit of them plus a next cursor when more
// remain. limit<=0 means unbounded.
func paginate[T any](items []T, name func(T) string, cursor string, limit int) (Page[T], *jsonrpc.WireError) {
	start := 0
	if cursor != "" {
		lastName, err := decodeCursor(cursor)
		if err != nil {
			return Page[T]{}, jsonrpc.InvalidParams("cursor", "invalid cursor")
		}
		found := -1
		for i, it := range items {
			if name(it) == lastName {
				found = i
				break
			}
		}
		if found == -1 {
			return Page[T]{}, jsonrpc.InvalidParams("cursor", fmt.Sprintf("unknown cursor position %q", lastName))
		}
		start = found + 1
	}

	if start >= len(items) {
		return Page[T]{Items: []T{}}, nil
	}

	end := len(items)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	page := Page[T]{Items: items[start:end]}
	if end < len(items) {
		page.NextCursor = encodeCursor(name(items[end-1]))
	}
	return page, nil
}

func (r *Registry) ListTools(cursor string, limit int) (Page[*Tool], *jsonrpc.WireError) {
	r.mu.RLock()
	items := make([]*Tool, len(r.tools))
	copy(items, r.tools)
	r.mu.RUnlock()
	return paginate(items, func(t *Tool) string { return t.Name }, cursor, limit)
}

func (r *Registry) ListPrompts(cursor string, limit int) (Page[*Prompt], *jsonrpc.WireError) {
	r.mu.RLock()
	items := make([]*Prompt, len(r.prompts))
	copy(items, r.prompts)
	r.mu.RUnlock()
	return paginate(items, func(p *Prompt) string { return p.Name }, cursor, limit)
}

func (r *Registry) ListResources(cursor string, limit int) (Page[*Resource], *jsonrpc.WireError) {
	r.mu.RLock()
	var items []*Resource
	for _, res := range r.resources {
		if !res.IsTemplate() {
			items = append(items, res)
		}
	}
	r.mu.RUnlock()
	return paginate(items, func(res *Resource) string { return res.Name }, cursor, limit)
}

// ListResourceTemplates lists only template resources, per spec.md §4.8
// ("Templates list filters items that have uri_template").
func (r *Registry) ListResourceTemplates(cursor string, limit int) (Page[*Resource], *jsonrpc.WireError) {
	items := r.Templates()
	return paginate(items, func(res *Resource) string { return res.Name }, cursor, limit)
}
