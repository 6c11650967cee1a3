package mcpserver

// capabilities derives the server's advertised capability set from what
// is actually registered, per spec.md §4.8 ("Server capabilities are
// derived from the registered components... each present only if it is
// available").
func (e *Engine) capabilities() map[string]any {
	caps := map[string]any{}
	if e.Registry.HasTools() {
		caps["tools"] = map[string]any{"listChanged": false}
	}
	if e.Registry.HasPrompts() {
		caps["prompts"] = map[string]any{"listChanged": false}
	}
	if e.Registry.HasResources() {
		caps["resources"] = map[string]any{"listChanged": false}
	}
	// logging is always available: logging/setLevel only touches session
	// state the engine itself owns.
	caps["logging"] = map[string]any{}
	if e.CompletionHandler != nil {
		caps["completion"] = map[string]any{}
	}
	return caps
}

func (e *Engine) hasCapability(name string) bool {
	switch name {
	case "tools":
		return e.Registry.HasTools()
	case "prompts":
		return e.Registry.HasPrompts()
	case "resources":
		return e.Registry.HasResources()
	case "logging":
		return true
	case "completion":
		return e.CompletionHandler != nil
	default:
		return false
	}
}

// negotiateVersion picks the highest version both the transport and the
// server support, preferring an exact match with what the client declared
// when one exists. allVersions is oldest-first.
var allVersions = []string{"2024-11-05", "2025-03-26", "2025-06-18"}

func negotiateVersion(transportSupported []string, clientVersion string) (string, bool) {
	allowed := intersect(allVersions, transportSupported)
	if len(allowed) == 0 {
		return "", false
	}
	for _, v := range allowed {
		if v == clientVersion {
			return v, true
		}
	}
	return allowed[len(allowed)-1], true
}

func intersect(a, b []string) []string {
	set := make(map[string]bool, len(b))
	for _, v := range b {
		set[v] = true
	}
	var out []string
	for _, v := range a {
		if set[v] {
			out = append(out, v)
		}
	}
	return out
}
