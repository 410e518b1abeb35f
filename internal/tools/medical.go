package tools

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/medresearch/internal/llm"
)

const (
	// MedicalSystemPrompt frames the specialist as a research assistant.
	MedicalSystemPrompt = "You are a medical research assistant with expertise in clinical medicine, " +
		"pharmacology, pathology, and biomedical sciences. Provide thorough, " +
		"evidence-based analysis of medical topics. Cite relevant research when " +
		"possible. Be precise with medical terminology. Do not provide clinical " +
		"diagnoses or treatment recommendations; focus on research-level analysis."

	// Disclaimer ends every piece of substantive analysis.
	Disclaimer = "Disclaimer: This analysis is for research purposes only " +
		"and does not constitute medical advice."

	// FallbackBanner prefixes analysis produced by the general-purpose model.
	FallbackBanner = "Note: Medical specialist model unavailable. Analysis provided by general-purpose model.\n\n"

	// TimeoutMessage is returned when no model answered within its budget.
	TimeoutMessage = "Medical analysis timed out. The query may be too complex. " +
		"Try breaking it into smaller, more specific questions."

	// DefaultBudget bounds each model call made by Consult.
	DefaultBudget = 120 * time.Second
)

// Consult asks the specialist for analysis of query, falling back to the general model.
//
// Substantive analysis always ends with Disclaimer. When the specialist timed out, any
// fallback failure is reported as TimeoutMessage.
func Consult(ctx context.Context, query string, specialist, fallback llm.Model, budget time.Duration, logger *zap.Logger) string {
	if logger == nil {
		logger = zap.NewNop()
	}
	messages := []llm.Message{llm.System(MedicalSystemPrompt), llm.User(query)}

	first := llm.Attempt(ctx, specialist, messages, budget)
	if first.Kind == llm.Succeeded {
		return withDisclaimer(first.Text)
	}
	logger.Warn("specialist model failed, trying fallback",
		zap.String("model", specialist.Name()),
		zap.Stringer("outcome", first.Kind),
		zap.Error(first.Err))

	second := llm.Attempt(ctx, fallback, messages, budget)
	switch second.Kind {
	case llm.Succeeded:
		return FallbackBanner + withDisclaimer(second.Text)
	case llm.TimedOut:
		logger.Error("fallback model timed out", zap.String("model", fallback.Name()), zap.Error(second.Err))
		return TimeoutMessage
	}

	logger.Error("fallback model failed", zap.String("model", fallback.Name()), zap.Error(second.Err))
	if first.Kind == llm.TimedOut {
		return TimeoutMessage
	}
	return withDisclaimer(fmt.Sprintf("Medical analysis failed: %v", second.Err))
}

func withDisclaimer(text string) string {
	return text + "\n\n" + Disclaimer
}

// MedicalTool exposes Consult to the agent.
type MedicalTool struct {
	specialist llm.Model
	fallback   llm.Model
	budget     time.Duration
	logger     *zap.Logger
}

// NewMedicalTool returns the consultation tool. A zero budget uses DefaultBudget.
func NewMedicalTool(specialist, fallback llm.Model, budget time.Duration, logger *zap.Logger) *MedicalTool {
	if budget <= 0 {
		budget = DefaultBudget
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MedicalTool{specialist: specialist, fallback: fallback, budget: budget, logger: logger}
}

func (t *MedicalTool) Name() string { return "consult_medical_expert" }

func (t *MedicalTool) Description() string {
	return "Consult the medical specialist model for domain-specific medical analysis. " +
		"Use this tool when you need expert medical knowledge, analysis of medical conditions, " +
		"pharmacology, pathology, or biomedical topics."
}

func (t *MedicalTool) Parameters() map[string]any {
	return queryParameters("The medical question to analyse.")
}

func (t *MedicalTool) Invoke(ctx context.Context, args map[string]any) string {
	query, err := queryArg(args)
	if err != nil {
		return "error: " + err.Error()
	}
	return Consult(ctx, query, t.specialist, t.fallback, t.budget, t.logger)
}
