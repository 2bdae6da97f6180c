package request

// SubmitTaskRequest is the body of POST /api/tasks.
type SubmitTaskRequest struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Timeout int               `json:"timeout,omitempty"`
}
