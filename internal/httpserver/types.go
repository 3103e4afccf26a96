package httpserver

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// CommandsResponse lists the invocable commands.
type CommandsResponse struct {
	Commands []string `json:"commands"`
}

// InvokeResponse wraps a command result.
type InvokeResponse struct {
	Command string `json:"command"`
	Result  any    `json:"result"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
