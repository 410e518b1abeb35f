// Package tools holds the tools the research agent can call.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/medresearch/internal/llm"
)

// Tool is a capability the agent can invoke. Invoke never fails: problems are reported
// in the returned text so the agent can reason about them.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON schema of the arguments object.
	Parameters() map[string]any
	Invoke(ctx context.Context, args map[string]any) string
}

// Spec returns the model-facing definition of t.
func Spec(t Tool) llm.ToolSpec {
	return llm.ToolSpec{Name: t.Name(), Description: t.Description(), Parameters: t.Parameters()}
}

// queryParameters is the schema shared by tools that take a single query string.
func queryParameters(description string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": description,
			},
		},
		"required": []string{"query"},
	}
}

// queryArg extracts the "query" argument.
func queryArg(args map[string]any) (string, error) {
	v, ok := args["query"]
	if !ok {
		return "", fmt.Errorf("missing required argument \"query\"")
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument \"query\" must be a string, got %T", v)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("argument \"query\" must not be empty")
	}
	return s, nil
}
