package mcpclient

// Root is a client-owned filesystem/workspace root the server can list
// via roots/list, per spec.md §3: "Client maintains an ordered set;
// duplicates by uri are ignored (first write wins)."
type Root struct {
	URI  string `json:"uri"`
	Name string `json:"name,omitempty"`
}

// AddRoot appends r unless its URI is already present.
func (c *Client) AddRoot(r Root) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.roots {
		if existing.URI == r.URI {
			return
		}
	}
	c.roots = append(c.roots, r)
}

// Roots returns the current root set in insertion order.
func (c *Client) Roots() []Root {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Root, len(c.roots))
	copy(out, c.roots)
	return out
}
