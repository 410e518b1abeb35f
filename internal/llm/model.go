// Package llm provides handles to chat models served by an Ollama backend.
package llm

import "context"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolName is set on RoleTool messages to the tool that produced Content.
	ToolName string `json:"tool_name,omitempty"`
}

// ToolCall is a model request to run a tool.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolSpec describes a tool the model may call. Parameters is a JSON schema object.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Model is a handle to a single model.
type Model interface {
	Name() string
	Invoke(ctx context.Context, messages []Message) (string, error)
}

// ChatModel is a Model that supports tool calling.
type ChatModel interface {
	Model
	Chat(ctx context.Context, messages []Message, tools []ToolSpec) (Message, error)
}

// System returns a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User returns a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }
