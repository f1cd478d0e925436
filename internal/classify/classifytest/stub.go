// Package classifytest provides a scriptable classifier for tests.
package classifytest

import (
	"context"

	"github.com/januspriv/janus/internal/classify"
	"github.com/januspriv/janus/internal/model"
)

// Stub is a classify.Service whose answers are set per field. Unset function
// fields return zero values, which read as "clean".
type Stub struct {
	DetectFn        func(text string) ([]model.DetectedItem, error)
	RewriteFn       func(text string, items []model.DetectedItem) (string, error)
	AuditFn         func(responseText string) ([]model.ViolationItem, error)
	ComposeFn       func(plan model.CorrectionPlan) (classify.ComposeResult, error)
	ComposeSwitchFn func(overlaps []model.Overlap, denials []model.DenialOnly) (string, error)
	CheckContextFn  func(prompt string) (classify.ContextResult, error)
	ExtractFn       func(prompt string) ([]model.Characteristic, error)
	SummarizeFn     func(name string) (string, error)
	DecoysFn        func(chars []model.Characteristic) ([]model.Characteristic, error)

	// Calls records the operation names invoked, in order.
	Calls []string
}

var _ classify.Service = (*Stub)(nil)

func (s *Stub) Detect(ctx context.Context, text string, identity *model.Identity, history []model.ChatMessage) ([]model.DetectedItem, error) {
	s.Calls = append(s.Calls, "detect")
	if s.DetectFn == nil {
		return nil, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.DetectFn(text)
}

func (s *Stub) Rewrite(ctx context.Context, text string, items []model.DetectedItem, identity *model.Identity) (string, error) {
	s.Calls = append(s.Calls, "rewrite")
	if s.RewriteFn == nil {
		return text, ctx.Err()
	}
	return s.RewriteFn(text, items)
}

func (s *Stub) AuditResponse(ctx context.Context, responseText string, identity *model.Identity) ([]model.ViolationItem, error) {
	s.Calls = append(s.Calls, "audit")
	if s.AuditFn == nil {
		return nil, ctx.Err()
	}
	return s.AuditFn(responseText)
}

func (s *Stub) ComposeCorrection(ctx context.Context, plan model.CorrectionPlan, identity *model.Identity) (classify.ComposeResult, error) {
	s.Calls = append(s.Calls, "compose_correction")
	if s.ComposeFn == nil {
		return classify.ComposeResult{Message: "correction"}, ctx.Err()
	}
	return s.ComposeFn(plan)
}

func (s *Stub) ComposeSwitchMessage(ctx context.Context, overlaps []model.Overlap, denials []model.DenialOnly) (string, error) {
	s.Calls = append(s.Calls, "compose_switch")
	if s.ComposeSwitchFn == nil {
		return "switch correction", ctx.Err()
	}
	return s.ComposeSwitchFn(overlaps, denials)
}

func (s *Stub) CheckContext(ctx context.Context, prompt string, identity *model.Identity) (classify.ContextResult, error) {
	s.Calls = append(s.Calls, "check_context")
	if s.CheckContextFn == nil {
		return classify.ContextResult{AugmentedPrompt: prompt}, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return classify.ContextResult{}, err
	}
	return s.CheckContextFn(prompt)
}

func (s *Stub) ExtractCharacteristics(ctx context.Context, prompt string, existing []model.Characteristic) ([]model.Characteristic, error) {
	s.Calls = append(s.Calls, "extract")
	if s.ExtractFn == nil {
		return nil, ctx.Err()
	}
	return s.ExtractFn(prompt)
}

func (s *Stub) Summarize(ctx context.Context, name string, characteristics []model.Characteristic) (string, error) {
	s.Calls = append(s.Calls, "summarize")
	if s.SummarizeFn == nil {
		return "", ctx.Err()
	}
	return s.SummarizeFn(name)
}

func (s *Stub) GenerateDecoys(ctx context.Context, characteristics []model.Characteristic) ([]model.Characteristic, error) {
	s.Calls = append(s.Calls, "decoys")
	if s.DecoysFn == nil {
		return nil, ctx.Err()
	}
	return s.DecoysFn(characteristics)
}
