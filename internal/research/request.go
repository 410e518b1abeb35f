package research

import "strings"

// Request is the body of a research call.
type Request struct {
	Query string `json:"query"`
}

// ValidationError reports a malformed request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate rejects empty or whitespace-only queries.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return &ValidationError{Field: "query", Message: "Query must not be empty"}
	}
	return nil
}
