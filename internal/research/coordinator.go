// Package research drives one agent run per query, streaming events and persisting the report.
package research

import (
	"context"
	"fmt"
	"iter"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/medresearch/internal/agent"
	"github.com/hyperjump/medresearch/internal/llm"
	"github.com/hyperjump/medresearch/internal/report"
)

const (
	// StartMessage is the data of the first progress event of every run.
	StartMessage = "Starting research..."
	// NoResultsMessage replaces an empty agent answer.
	NoResultsMessage = "No results produced by the research agent."
)

// Runner produces the agent's incremental output for one input.
type Runner interface {
	Stream(ctx context.Context, in agent.Input) iter.Seq2[agent.State, error]
}

// Saver persists a finished report.
type Saver interface {
	Save(d report.Draft) (report.Entry, error)
}

// Journal records run lifecycle. Failures are logged and never affect the run.
type Journal interface {
	Begin(ctx context.Context, id, query string) error
	Succeed(ctx context.Context, id, filename string) error
	Fail(ctx context.Context, id, message string) error
}

// Indexer makes a saved report searchable.
type Indexer interface {
	Index(ctx context.Context, r report.Report) error
}

// Coordinator runs queries through the agent.
type Coordinator struct {
	runner     Runner
	saver      Saver
	models     []string
	journal    Journal
	indexer    Indexer
	stepEvents bool
	logger     *zap.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithJournal records every run in j.
func WithJournal(j Journal) Option {
	return func(c *Coordinator) { c.journal = j }
}

// WithIndexer indexes every saved report.
func WithIndexer(ix Indexer) Option {
	return func(c *Coordinator) { c.indexer = ix }
}

// WithStepEvents emits a progress event for each tool the agent calls.
func WithStepEvents(on bool) Option {
	return func(c *Coordinator) { c.stepEvents = on }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// NewCoordinator returns a coordinator. models is recorded as models_used on every report.
func NewCoordinator(runner Runner, saver Saver, models []string, opts ...Option) *Coordinator {
	c := &Coordinator{
		runner: runner,
		saver:  saver,
		models: models,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Run executes one research run and sends its events to sink. It always sends a progress
// event followed by exactly one result or error event. Run never returns an error: failures
// are reported as an error event. A panic in the runner or saver is reported the same way.
func (c *Coordinator) Run(ctx context.Context, runID, query string, sink Sink) {
	logger := c.logger.With(zap.String("run_id", runID), zap.String("query", query))
	terminated := false
	send := func(e Event) {
		if e.Terminal() {
			terminated = true
		}
		if err := sink.Send(e); err != nil {
			logger.Warn("event not delivered", zap.String("type", e.Type), zap.Error(err))
		}
	}
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		logger.Error("research run panicked", zap.Any("panic", r), zap.Stack("stack"))
		if !terminated {
			c.fail(ctx, logger, runID, query, fmt.Errorf("panic: %v", r), send)
		}
	}()

	c.journalDo(logger, "begin", func() error { return c.journal.Begin(ctx, runID, query) })
	send(Event{Type: EventProgress, Data: StartMessage})

	text, err := c.consume(ctx, query, send)
	if err != nil {
		c.fail(ctx, logger, runID, query, err, send)
		return
	}
	if text == "" {
		text = NoResultsMessage
	}

	entry, err := c.saver.Save(report.Draft{Query: query, Body: text, ModelsUsed: c.models})
	if err != nil {
		c.fail(ctx, logger, runID, query, err, send)
		return
	}

	if c.indexer != nil {
		r := report.Report{
			ID:         entry.ID,
			Query:      entry.Query,
			Timestamp:  entry.Timestamp,
			Content:    text,
			ModelsUsed: c.models,
		}
		if err := c.indexer.Index(ctx, r); err != nil {
			logger.Warn("failed to index report", zap.String("id", entry.ID), zap.Error(err))
		}
	}
	c.journalDo(logger, "succeed", func() error { return c.journal.Succeed(ctx, runID, entry.Filename) })

	logger.Info("research completed", zap.String("filename", entry.Filename))
	send(Event{Type: EventResult, Data: text, Filename: entry.Filename})
}

// consume drains the agent stream and returns the text of the last message of the last state.
func (c *Coordinator) consume(ctx context.Context, query string, send func(Event)) (string, error) {
	var text string
	for state, err := range c.runner.Stream(ctx, agent.Input{Messages: []llm.Message{llm.User(query)}}) {
		if err != nil {
			return "", err
		}
		last, ok := state.Last()
		if !ok {
			text = ""
			continue
		}
		text = last.Content
		if c.stepEvents && last.Role == llm.RoleAssistant {
			for _, call := range last.ToolCalls {
				send(Event{Type: EventProgress, Data: "Calling tool: " + call.Name})
			}
		}
	}
	return text, nil
}

func (c *Coordinator) fail(ctx context.Context, logger *zap.Logger, runID, query string, err error, send func(Event)) {
	msg := fmt.Sprintf("Research failed for query %q: %v", query, err)
	logger.Error("research failed", zap.Error(err))
	c.journalDo(logger, "fail", func() error { return c.journal.Fail(ctx, runID, err.Error()) })
	send(Event{Type: EventError, Data: msg})
}

func (c *Coordinator) journalDo(logger *zap.Logger, op string, fn func() error) {
	if c.journal == nil {
		return
	}
	if err := fn(); err != nil {
		logger.Warn("run journal update failed", zap.String("op", op), zap.Error(err))
	}
}
