package llm

import (
	"context"
	"errors"
	"time"
)

// OutcomeKind tags the result of a bounded model call.
type OutcomeKind int

const (
	Succeeded OutcomeKind = iota
	TimedOut
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Succeeded:
		return "succeeded"
	case TimedOut:
		return "timed_out"
	default:
		return "failed"
	}
}

// Outcome is the result of Attempt. Text is set for Succeeded, Err for TimedOut and Failed.
type Outcome struct {
	Kind OutcomeKind
	Text string
	Err  error
}

// Attempt invokes model with a time budget and reports the result as an Outcome.
// A budget of zero or less means no budget beyond ctx.
func Attempt(ctx context.Context, model Model, messages []Message, budget time.Duration) Outcome {
	if budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	text, err := model.Invoke(ctx, messages)
	switch {
	case err == nil:
		return Outcome{Kind: Succeeded, Text: text}
	case IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return Outcome{Kind: TimedOut, Err: err}
	default:
		return Outcome{Kind: Failed, Err: err}
	}
}
