package schema

import "sync"

// OutputCache caches compiled output validators keyed by tool name, per
// spec.md §4.3 ("The client caches compiled output validators keyed by
// tool name; invalidated and rebuilt whenever tools/list returns").
type OutputCache struct {
	mu         sync.RWMutex
	validators map[string]*Validator
}

func NewOutputCache() *OutputCache {
	return &OutputCache{validators: make(map[string]*Validator)}
}

// Invalidate drops all cached validators, called whenever tools/list
// returns a fresh catalog.
func (c *OutputCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.validators = make(map[string]*Validator)
}

// Get returns the cached validator for a tool, if any.
func (c *OutputCache) Get(toolName string) (*Validator, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.validators[toolName]
	return v, ok
}

// Put compiles and caches an output validator for a tool.
func (c *OutputCache) Put(toolName string, s Schema) (*Validator, error) {
	v, err := Compile(s)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.validators[toolName] = v
	c.mu.Unlock()
	return v, nil
}

// PutJSONSchema compiles and caches a validator from an already-rendered
// JSON Schema document, used by the client when the only form available
// is what the server advertised over the wire.
func (c *OutputCache) PutJSONSchema(toolName string, doc map[string]any) error {
	v, err := CompileJSONSchema(doc)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.validators[toolName] = v
	c.mu.Unlock()
	return nil
}
