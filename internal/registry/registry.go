package registry

import (
	"fmt"
	"sync"

	"github.com/fenwicklabs/mcprt/internal/schema"
)

// Registry is the process-wide component catalog. Per spec.md §5, it is
// read-only after initialization; registration is expected to happen at
// startup before any transport is started, so the mutex here guards
// against accidental concurrent registration rather than serving a hot
// dynamic-registration path.
type Registry struct {
	mu sync.RWMutex

	tools      []*Tool
	toolByName map[string]*Tool

	prompts      []*Prompt
	promptByName map[string]*Prompt

	resources      []*Resource
	resourceByURI  map[string]*Resource
	templates      []*Resource
}

func New() *Registry {
	return &Registry{
		toolByName:    map[string]*Tool{},
		promptByName:  map[string]*Prompt{},
		resourceByURI: map[string]*Resource{},
	}
}

// RegisterTool adds a tool, compiling its input and (if present) output
// schema validators eagerly so a bad schema fails at startup, not on the
// first call.
func (r *Registry) RegisterTool(t *Tool) error {
	if t.Name == "" {
		return fmt.Errorf("registry: tool name required")
	}
	var err error
	if t.inputValidator, err = schema.Compile(t.InputSchema); err != nil {
		return fmt.Errorf("registry: tool %q input schema: %w", t.Name, err)
	}
	if t.OutputSchema != nil {
		if t.outputValidator, err = schema.Compile(t.OutputSchema); err != nil {
			return fmt.Errorf("registry: tool %q output schema: %w", t.Name, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.toolByName[t.Name]; exists {
		return fmt.Errorf("registry: tool %q already registered", t.Name)
	}
	r.tools = append(r.tools, t)
	r.toolByName[t.Name] = t
	return nil
}

// RegisterPrompt adds a prompt.
func (r *Registry) RegisterPrompt(p *Prompt) error {
	if p.Name == "" {
		return fmt.Errorf("registry: prompt name required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.promptByName[p.Name]; exists {
		return fmt.Errorf("registry: prompt %q already registered", p.Name)
	}
	r.prompts = append(r.prompts, p)
	r.promptByName[p.Name] = p
	return nil
}

// RegisterResource adds a resource, enforcing the uri XOR uri_template
// invariant from spec.md §3.
func (r *Registry) RegisterResource(res *Resource) error {
	if res.Name == "" {
		return fmt.Errorf("registry: resource name required")
	}
	hasURI := res.URI != ""
	hasTemplate := res.URITemplate != ""
	if hasURI == hasTemplate {
		return fmt.Errorf("registry: resource %q must set exactly one of uri or uri_template", res.Name)
	}
	if res.MimeType == "" {
		res.MimeType = "text/plain"
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if hasURI {
		if _, exists := r.resourceByURI[res.URI]; exists {
			return fmt.Errorf("registry: resource uri %q already registered", res.URI)
		}
		r.resourceByURI[res.URI] = res
	} else {
		r.templates = append(r.templates, res)
	}
	r.resources = append(r.resources, res)
	return nil
}

func (r *Registry) FindTool(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.toolByName[name]
	return t, ok
}

func (r *Registry) FindPrompt(name string) (*Prompt, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.promptByName[name]
	return p, ok
}

func (r *Registry) FindResourceByURI(uri string) (*Resource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.resourceByURI[uri]
	return res, ok
}

// Templates returns registered resource templates in registration order,
// for the ordered-fallthrough dispatch in dispatch.go.
func (r *Registry) Templates() []*Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Resource, len(r.templates))
	copy(out, r.templates)
	return out
}

func (r *Registry) HasTools() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools) > 0
}

func (r *Registry) HasPrompts() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.prompts) > 0
}

func (r *Registry) HasResources() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.resources) > 0
}

// InputValidator and OutputValidator expose the compiled
// validators for the protocol engine to use during tools/call dispatch.
func (t *Tool) InputValidator() *schema.Validator  { return t.inputValidator }
func (t *Tool) OutputValidator() *schema.Validator { return t.outputValidator }
