package mcpclient

// ProgressCallback receives a notifications/progress update for the
// token it was registered under, per spec.md §4.9.
type ProgressCallback func(progress, total float64, message string)

// OnProgress registers cb to receive updates for progressToken, as
// returned by a request's `_meta.progressToken`.
func (c *Client) OnProgress(progressToken string, cb ProgressCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.progressCallbacks[progressToken] = cb
}

// ForgetProgress removes a progress callback once a long-running call
// completes, so its entry doesn't leak for the life of the client.
func (c *Client) ForgetProgress(progressToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.progressCallbacks, progressToken)
}

func (c *Client) progressCallback(progressToken string) (ProgressCallback, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cb, ok := c.progressCallbacks[progressToken]
	return cb, ok
}

// OnLogMessage registers the handler invoked for inbound
// notifications/message log records.
func (c *Client) OnLogMessage(handler func(level, logger string, data any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logHandler = handler
}

func (c *Client) logHandlerSnapshot() func(level, logger string, data any) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logHandler
}
