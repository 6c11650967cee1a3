package mcpclient

import "context"

// SamplingCallback services an inbound sampling/createMessage request.
// Per spec.md §6 it takes the request params and returns either a
// message result or an error describing why sampling was refused.
type SamplingCallback func(ctx context.Context, params map[string]any) (map[string]any, error)

// RegisterSamplingCallback installs the handler invoked for
// sampling/createMessage. Passing nil clears it, reverting to the "no
// sampling callback registered" error per spec.md §4.9.
func (c *Client) RegisterSamplingCallback(cb SamplingCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samplingCallback = cb
}

func (c *Client) samplingCallbackSnapshot() SamplingCallback {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.samplingCallback
}
