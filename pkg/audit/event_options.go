package audit

// WithResource sets the resource type and ID
func WithResource(resource, id string) EventOption {
	return func(e *Event) {
		e.Resource = resource
		e.ResourceID = id
	}
}

// WithMetadata adds metadata to the event
func WithMetadata(key string, value any) EventOption {
	return func(e *Event) {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any)
		}
		e.Metadata[key] = value
	}
}

// WithResult sets the event result
func WithResult(result Result) EventOption {
	return func(e *Event) {
		e.Result = result
	}
}

// WithUserID overrides the user extracted from context.
func WithUserID(userID string) EventOption {
	return func(e *Event) {
		e.UserID = userID
	}
}

// WithClient sets the client address and user agent.
func WithClient(ip, userAgent string) EventOption {
	return func(e *Event) {
		if ip != "" {
			e.IP = ip
		}
		if userAgent != "" {
			e.UserAgent = userAgent
		}
	}
}
