package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/januspriv/janus/internal/model"
)

// Per-operation sampling temperatures. Screening wants determinism; composed
// messages and summaries want some variety.
const (
	tempScreen  = 0.2
	tempRewrite = 0.5
	tempCompose = 0.7
)

// completionRequest is one system+user exchange with a provider.
type completionRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// completer is a single-turn chat completion provider.
type completer interface {
	Complete(ctx context.Context, req completionRequest) (string, error)
}

// Client implements Service over any completion provider.
type Client struct {
	provider completer
}

// NewClient wraps a completion provider in the Service operations.
func NewClient(provider completer) *Client {
	return &Client{provider: provider}
}

var _ Service = (*Client)(nil)

// Detect screens text against the identity's disclosure bounds.
func (c *Client) Detect(ctx context.Context, text string, identity *model.Identity, history []model.ChatMessage) ([]model.DetectedItem, error) {
	raw, err := c.provider.Complete(ctx, completionRequest{
		System:      detectPrompt(identity, history),
		User:        fmt.Sprintf("Analyze this message: %q", text),
		Temperature: tempScreen,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, fmt.Errorf("classify: detect: %w", err)
	}
	var items []model.DetectedItem
	if err := decodeJSON(raw, &items); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Severity = model.CoerceSeverity(string(items[i].Severity))
	}
	return items, nil
}

// Rewrite produces a sanitized version of text with the flagged items removed.
func (c *Client) Rewrite(ctx context.Context, text string, items []model.DetectedItem, identity *model.Identity) (string, error) {
	if len(items) == 0 {
		return text, nil
	}
	raw, err := c.provider.Complete(ctx, completionRequest{
		System:      rewritePrompt(identity),
		User:        rewriteRequest(text, items),
		Temperature: tempRewrite,
		MaxTokens:   1000,
	})
	if err != nil {
		return "", fmt.Errorf("classify: rewrite: %w", err)
	}
	out := trimQuotes(raw)
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("classify: rewrite returned empty message")
	}
	return out, nil
}

// AuditResponse screens an assistant reply for knowledge beyond the identity.
func (c *Client) AuditResponse(ctx context.Context, responseText string, identity *model.Identity) ([]model.ViolationItem, error) {
	if identity == nil {
		return nil, fmt.Errorf("classify: audit requires an identity")
	}
	raw, err := c.provider.Complete(ctx, completionRequest{
		System:      auditPrompt(identity),
		User:        fmt.Sprintf("Assistant response to audit:\n\n%s", responseText),
		Temperature: tempScreen,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, fmt.Errorf("classify: audit: %w", err)
	}
	var items []model.ViolationItem
	if err := decodeJSON(raw, &items); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Severity = model.CoerceSeverity(string(items[i].Severity))
	}
	return items, nil
}

// ComposeCorrection synthesizes one correction message from a deny/pollute plan.
func (c *Client) ComposeCorrection(ctx context.Context, plan model.CorrectionPlan, identity *model.Identity) (ComposeResult, error) {
	raw, err := c.provider.Complete(ctx, completionRequest{
		System:      composeCorrectionPrompt(),
		User:        composeCorrectionRequest(plan),
		Temperature: tempCompose,
		MaxTokens:   800,
	})
	if err != nil {
		return ComposeResult{}, fmt.Errorf("classify: compose correction: %w", err)
	}
	var res ComposeResult
	if err := decodeJSON(raw, &res); err != nil {
		return ComposeResult{}, err
	}
	if strings.TrimSpace(res.Message) == "" {
		return ComposeResult{}, fmt.Errorf("classify: compose correction returned empty message")
	}
	return res, nil
}

// ComposeSwitchMessage writes the correction for an identity switch.
func (c *Client) ComposeSwitchMessage(ctx context.Context, overlaps []model.Overlap, denials []model.DenialOnly) (string, error) {
	raw, err := c.provider.Complete(ctx, completionRequest{
		System:      composeSwitchPrompt(),
		User:        composeSwitchRequest(overlaps, denials),
		Temperature: tempCompose,
		MaxTokens:   800,
	})
	if err != nil {
		return "", fmt.Errorf("classify: compose switch message: %w", err)
	}
	out := trimQuotes(raw)
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("classify: compose switch returned empty message")
	}
	return out, nil
}

// CheckContext decides whether a prompt benefits from identity context.
func (c *Client) CheckContext(ctx context.Context, prompt string, identity *model.Identity) (ContextResult, error) {
	if identity == nil || len(identity.Characteristics) == 0 {
		return ContextResult{NeedsContext: false, AugmentedPrompt: prompt}, nil
	}
	raw, err := c.provider.Complete(ctx, completionRequest{
		System:      checkContextPrompt(identity),
		User:        fmt.Sprintf("Prompt: %q", prompt),
		Temperature: tempScreen,
		MaxTokens:   800,
	})
	if err != nil {
		return ContextResult{}, fmt.Errorf("classify: check context: %w", err)
	}
	var res ContextResult
	if err := decodeJSON(raw, &res); err != nil {
		return ContextResult{}, err
	}
	if !res.NeedsContext || strings.TrimSpace(res.AugmentedPrompt) == "" {
		res.AugmentedPrompt = prompt
	}
	return res, nil
}

// ExtractCharacteristics pulls attribute/value pairs from a self-description.
func (c *Client) ExtractCharacteristics(ctx context.Context, prompt string, existing []model.Characteristic) ([]model.Characteristic, error) {
	raw, err := c.provider.Complete(ctx, completionRequest{
		System:      extractPrompt(existing),
		User:        prompt,
		Temperature: tempScreen,
		MaxTokens:   800,
	})
	if err != nil {
		return nil, fmt.Errorf("classify: extract characteristics: %w", err)
	}
	var items []model.Characteristic
	if err := decodeJSON(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Summarize writes a short description of the identity.
func (c *Client) Summarize(ctx context.Context, name string, characteristics []model.Characteristic) (string, error) {
	raw, err := c.provider.Complete(ctx, completionRequest{
		System:      summarizePrompt(name),
		User:        "Characteristics:\n" + orNone(characteristicLines(characteristics)),
		Temperature: tempCompose,
		MaxTokens:   400,
	})
	if err != nil {
		return "", fmt.Errorf("classify: summarize: %w", err)
	}
	return strings.TrimSpace(trimQuotes(raw)), nil
}

// GenerateDecoys proposes plausible false values for the characteristics.
func (c *Client) GenerateDecoys(ctx context.Context, characteristics []model.Characteristic) ([]model.Characteristic, error) {
	raw, err := c.provider.Complete(ctx, completionRequest{
		System:      decoysPrompt(),
		User:        "Real characteristics:\n" + orNone(characteristicLines(characteristics)),
		Temperature: tempCompose,
		MaxTokens:   800,
	})
	if err != nil {
		return nil, fmt.Errorf("classify: generate decoys: %w", err)
	}
	var items []model.Characteristic
	if err := decodeJSON(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}
