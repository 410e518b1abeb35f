// Package agent runs a tool-calling loop over a chat model.
package agent

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"

	"go.uber.org/zap"

	"github.com/hyperjump/medresearch/internal/llm"
	"github.com/hyperjump/medresearch/internal/tools"
)

// DefaultMaxIterations bounds the number of model turns in one run.
const DefaultMaxIterations = 20

// ErrIterationLimit is returned when the model keeps calling tools past the turn budget.
var ErrIterationLimit = errors.New("agent exceeded its iteration limit")

// Input starts a run.
type Input struct {
	Messages []llm.Message
}

// State is a snapshot of the conversation after a step.
type State struct {
	Messages []llm.Message
}

// Last returns the most recent message, or false when there is none.
func (s State) Last() (llm.Message, bool) {
	if len(s.Messages) == 0 {
		return llm.Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Agent drives a chat model and its tools until the model answers without calling a tool.
type Agent struct {
	name          string
	model         llm.ChatModel
	tools         map[string]tools.Tool
	specs         []llm.ToolSpec
	systemPrompt  string
	maxIterations int
	logger        *zap.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithMaxIterations sets the turn budget.
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Agent) { a.logger = logger }
}

// New assembles an agent.
func New(model llm.ChatModel, ts []tools.Tool, systemPrompt, name string, opts ...Option) *Agent {
	a := &Agent{
		name:          name,
		model:         model,
		tools:         make(map[string]tools.Tool, len(ts)),
		systemPrompt:  systemPrompt,
		maxIterations: DefaultMaxIterations,
		logger:        zap.NewNop(),
	}
	for _, t := range ts {
		a.tools[t.Name()] = t
		a.specs = append(a.specs, tools.Spec(t))
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the agent name.
func (a *Agent) Name() string { return a.name }

// Stream runs the agent and yields the conversation after every model turn and after every
// batch of tool results. The sequence ends after the model answers without tool calls, or
// with a single error.
func (a *Agent) Stream(ctx context.Context, in Input) iter.Seq2[State, error] {
	return func(yield func(State, error) bool) {
		msgs := make([]llm.Message, 0, len(in.Messages)+1)
		if a.systemPrompt != "" {
			msgs = append(msgs, llm.System(a.systemPrompt))
		}
		msgs = append(msgs, in.Messages...)

		for step := 1; step <= a.maxIterations; step++ {
			reply, err := a.model.Chat(ctx, msgs, a.specs)
			if err != nil {
				yield(State{}, fmt.Errorf("step %d: %w", step, err))
				return
			}
			if reply.Role == "" {
				reply.Role = llm.RoleAssistant
			}
			msgs = append(msgs, reply)
			if !yield(State{Messages: slices.Clone(msgs)}, nil) {
				return
			}
			if len(reply.ToolCalls) == 0 {
				return
			}

			for _, call := range reply.ToolCalls {
				a.logger.Debug("tool call", zap.String("agent", a.name), zap.String("tool", call.Name), zap.Int("step", step))
				msgs = append(msgs, llm.Message{
					Role:     llm.RoleTool,
					Content:  a.runTool(ctx, call),
					ToolName: call.Name,
				})
			}
			if !yield(State{Messages: slices.Clone(msgs)}, nil) {
				return
			}
		}
		yield(State{}, fmt.Errorf("%w (%d)", ErrIterationLimit, a.maxIterations))
	}
}

// runTool invokes the named tool. Unknown tools and panics become error text.
func (a *Agent) runTool(ctx context.Context, call llm.ToolCall) (out string) {
	t, ok := a.tools[call.Name]
	if !ok {
		return "error: unknown tool " + call.Name
	}
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("tool panicked", zap.String("tool", call.Name), zap.Any("panic", r))
			out = fmt.Sprintf("error: tool %s failed: %v", call.Name, r)
		}
	}()
	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}
	return t.Invoke(ctx, args)
}
