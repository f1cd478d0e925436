// Package classify is the boundary to the language-model classifier. Every
// operation is a single request/response call; callers own timeouts through
// the context and must treat any error as "no usable result" rather than a
// blocking failure.
package classify

import (
	"context"
	"errors"

	"github.com/ppiankov/neurorouter"

	"github.com/januspriv/janus/internal/model"
)

// ErrClass buckets a classifier failure for fail-open records. Rate limiting
// stays distinct from other outages so the decision log shows throttling.
func ErrClass(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, neurorouter.ErrRateLimited) {
		return "rate_limited"
	}
	return "service"
}

// ContextResult is the outcome of a context-relevance check on a prompt.
type ContextResult struct {
	NeedsContext    bool   `json:"needs_context"`
	AugmentedPrompt string `json:"augmented_prompt"`
	AddedContext    string `json:"added_context,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

// ComposeResult is a synthesized corrective message plus the decoy values it
// asserts, for merging into the identity's fake characteristics.
type ComposeResult struct {
	Message    string                 `json:"message"`
	FakeValues []model.Characteristic `json:"fake_values,omitempty"`
}

// Service is the classifier boundary. Implementations call a remote language
// model; a zero-item result is a valid "clean" answer, never an error.
type Service interface {
	// Detect screens user-authored text for information exceeding the
	// identity's disclosure bounds, deduplicated against the chat history.
	Detect(ctx context.Context, text string, identity *model.Identity, history []model.ChatMessage) ([]model.DetectedItem, error)

	// Rewrite removes or naturalizes exactly the given items from text,
	// leaving everything else intact. Never uses bracket placeholders.
	Rewrite(ctx context.Context, text string, items []model.DetectedItem, identity *model.Identity) (string, error)

	// AuditResponse screens assistant-authored text for evidence the remote
	// model knows more than the identity authorizes.
	AuditResponse(ctx context.Context, responseText string, identity *model.Identity) ([]model.ViolationItem, error)

	// ComposeCorrection turns per-item deny/pollute decisions into one
	// self-contained conversational correction message.
	ComposeCorrection(ctx context.Context, plan model.CorrectionPlan, identity *model.Identity) (ComposeResult, error)

	// ComposeSwitchMessage writes the correction sent when switching
	// identities: contradictions for overlaps, plain retractions for denials.
	ComposeSwitchMessage(ctx context.Context, overlaps []model.Overlap, denials []model.DenialOnly) (string, error)

	// CheckContext decides whether a short or ambiguous prompt would benefit
	// from a compact parenthetical of relevant identity characteristics.
	CheckContext(ctx context.Context, prompt string, identity *model.Identity) (ContextResult, error)

	// ExtractCharacteristics pulls attribute/value pairs out of a free-text
	// identity prompt, skipping names already present in existing.
	ExtractCharacteristics(ctx context.Context, prompt string, existing []model.Characteristic) ([]model.Characteristic, error)

	// Summarize writes a short natural-language description of an identity.
	Summarize(ctx context.Context, name string, characteristics []model.Characteristic) (string, error)

	// GenerateDecoys proposes plausible false values for the given
	// characteristics, internally consistent with each other.
	GenerateDecoys(ctx context.Context, characteristics []model.Characteristic) ([]model.Characteristic, error)
}
