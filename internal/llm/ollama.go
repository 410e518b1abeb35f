package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OllamaModel talks to one model through the Ollama chat API.
type OllamaModel struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaModel returns a handle for model served at baseURL. client is shared between handles.
func NewOllamaModel(baseURL, model string, client *http.Client) *OllamaModel {
	if client == nil {
		client = http.DefaultClient
	}
	return &OllamaModel{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  client,
	}
}

// Name returns the model identifier.
func (m *OllamaModel) Name() string {
	return m.model
}

// Invoke sends messages and returns the assistant's text.
func (m *OllamaModel) Invoke(ctx context.Context, messages []Message) (string, error) {
	msg, err := m.Chat(ctx, messages, nil)
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

// Chat sends messages with optional tool definitions and returns the assistant message.
func (m *OllamaModel) Chat(ctx context.Context, messages []Message, tools []ToolSpec) (Message, error) {
	req := chatRequest{Model: m.model, Stream: false}
	for _, msg := range messages {
		req.Messages = append(req.Messages, toWire(msg))
	}
	for _, t := range tools {
		req.Tools = append(req.Tools, wireTool{
			Type:     "function",
			Function: wireFunction{Name: t.Name, Description: t.Description, Parameters: t.Parameters},
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return Message{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return Message{}, classify(m.model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return Message{}, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Message{}, classify(m.model, fmt.Errorf("failed to decode response: %w", err))
	}
	return fromWire(result.Message), nil
}

// Exists reports whether the model is installed on the backend.
func (m *OllamaModel) Exists(ctx context.Context) error {
	body, _ := json.Marshal(map[string]string{"model": m.model})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/api/show", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return classify(m.model, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model %s not available: status %d", m.model, resp.StatusCode)
	}
	return nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Tools    []wireTool    `json:"tools,omitempty"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message wireMessage `json:"message"`
	Done    bool        `json:"done"`
}

type wireMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
	ToolName  string         `json:"tool_name,omitempty"`
}

type wireToolCall struct {
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

func toWire(m Message) wireMessage {
	w := wireMessage{Role: m.Role, Content: m.Content, ToolName: m.ToolName}
	for _, tc := range m.ToolCalls {
		var wc wireToolCall
		wc.Function.Name = tc.Name
		wc.Function.Arguments = tc.Arguments
		w.ToolCalls = append(w.ToolCalls, wc)
	}
	return w
}

func fromWire(w wireMessage) Message {
	m := Message{Role: w.Role, Content: w.Content, ToolName: w.ToolName}
	for _, wc := range w.ToolCalls {
		m.ToolCalls = append(m.ToolCalls, ToolCall{Name: wc.Function.Name, Arguments: wc.Function.Arguments})
	}
	return m
}
