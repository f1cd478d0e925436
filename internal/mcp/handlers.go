package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/januspriv/janus/internal/classify"
	"github.com/januspriv/janus/internal/model"
)

// --- Input/Output types ---

// DetectInput defines parameters for the janus_detect tool.
type DetectInput struct {
	Text    string              `json:"text" jsonschema:"text to screen"`
	History []model.ChatMessage `json:"history,omitempty" jsonschema:"visible conversation transcript, oldest first"`
}

// DetectOutput lists the flagged items. Empty means clean.
type DetectOutput struct {
	Items []model.DetectedItem `json:"items"`
}

// RewriteInput defines parameters for the janus_rewrite tool.
type RewriteInput struct {
	Text  string               `json:"text" jsonschema:"original text"`
	Items []model.DetectedItem `json:"items" jsonschema:"flagged items to remove"`
}

// RewriteOutput carries the sanitized text.
type RewriteOutput struct {
	Text string `json:"text"`
}

// CheckContextInput defines parameters for the janus_check_context tool.
type CheckContextInput struct {
	Text string `json:"text" jsonschema:"prompt to evaluate"`
}

// AuditInput defines parameters for the janus_audit_response tool.
type AuditInput struct {
	Text string `json:"text" jsonschema:"assistant reply to audit"`
}

// AuditOutput lists violations the reply reveals. Empty means clean.
type AuditOutput struct {
	Items []model.ViolationItem `json:"items"`
}

// ComposeCorrectionInput defines parameters for the janus_compose_correction tool.
type ComposeCorrectionInput struct {
	Violations []model.ViolationItem `json:"violations" jsonschema:"violations with disposition set per item"`
}

// IdentitySwitchedInput defines parameters for the janus_identity_switched tool.
type IdentitySwitchedInput struct {
	PrevID string `json:"prev_id,omitempty" jsonschema:"previous identity id"`
	NextID string `json:"next_id,omitempty" jsonschema:"new identity id"`
}

// IdentitySwitchedOutput carries the switch diff and composed message.
type IdentitySwitchedOutput struct {
	HasPollution bool               `json:"has_pollution"`
	Message      string             `json:"message,omitempty"`
	Overlaps     []model.Overlap    `json:"overlaps,omitempty"`
	Denials      []model.DenialOnly `json:"denials,omitempty"`
}

// ExtractInput defines parameters for the janus_extract_characteristics tool.
type ExtractInput struct {
	Prompt   string                 `json:"prompt" jsonschema:"free-text self-description"`
	Existing []model.Characteristic `json:"existing,omitempty" jsonschema:"characteristics already captured"`
}

// ExtractOutput lists the extracted characteristics.
type ExtractOutput struct {
	Characteristics []model.Characteristic `json:"characteristics"`
}

// SummarizeInput defines parameters for the janus_summarize tool.
type SummarizeInput struct {
	Name            string                 `json:"name" jsonschema:"identity name"`
	Characteristics []model.Characteristic `json:"characteristics" jsonschema:"characteristics to describe"`
}

// SummarizeOutput carries the generated description.
type SummarizeOutput struct {
	Summary string `json:"summary"`
}

// GenerateDecoysInput defines parameters for the janus_generate_decoys tool.
type GenerateDecoysInput struct {
	Characteristics []model.Characteristic `json:"characteristics" jsonschema:"real characteristics to decoy"`
}

// GenerateDecoysOutput lists the proposed decoys.
type GenerateDecoysOutput struct {
	Characteristics []model.Characteristic `json:"characteristics"`
}

// GetIdentityInput has no parameters.
type GetIdentityInput struct{}

// GetIdentityOutput carries the selected identity, nil when none.
type GetIdentityOutput struct {
	Identity *model.Identity `json:"identity"`
}

// --- Handlers ---

func (s *Server) selected() (*model.Identity, error) {
	id, err := s.identities.Selected()
	if err != nil {
		return nil, fmt.Errorf("read selected identity: %w", err)
	}
	return id, nil
}

func (s *Server) handleDetect(ctx context.Context, req *mcpsdk.CallToolRequest, input DetectInput) (*mcpsdk.CallToolResult, DetectOutput, error) {
	selected, err := s.selected()
	if err != nil {
		return nil, DetectOutput{}, err
	}
	items, err := s.classifier.Detect(ctx, input.Text, selected, input.History)
	if err != nil {
		return nil, DetectOutput{}, err
	}
	return nil, DetectOutput{Items: items}, nil
}

func (s *Server) handleRewrite(ctx context.Context, req *mcpsdk.CallToolRequest, input RewriteInput) (*mcpsdk.CallToolResult, RewriteOutput, error) {
	selected, err := s.selected()
	if err != nil {
		return nil, RewriteOutput{}, err
	}
	text, err := s.classifier.Rewrite(ctx, input.Text, input.Items, selected)
	if err != nil {
		return nil, RewriteOutput{}, err
	}
	return nil, RewriteOutput{Text: text}, nil
}

func (s *Server) handleCheckContext(ctx context.Context, req *mcpsdk.CallToolRequest, input CheckContextInput) (*mcpsdk.CallToolResult, classify.ContextResult, error) {
	selected, err := s.selected()
	if err != nil {
		return nil, classify.ContextResult{}, err
	}
	res, err := s.classifier.CheckContext(ctx, input.Text, selected)
	if err != nil {
		return nil, classify.ContextResult{}, err
	}
	return nil, res, nil
}

func (s *Server) handleAuditResponse(ctx context.Context, req *mcpsdk.CallToolRequest, input AuditInput) (*mcpsdk.CallToolResult, AuditOutput, error) {
	selected, err := s.selected()
	if err != nil {
		return nil, AuditOutput{}, err
	}
	if selected == nil {
		return nil, AuditOutput{}, nil
	}
	items, err := s.classifier.AuditResponse(ctx, input.Text, selected)
	if err != nil {
		return nil, AuditOutput{}, err
	}
	return nil, AuditOutput{Items: items}, nil
}

func (s *Server) handleComposeCorrection(ctx context.Context, req *mcpsdk.CallToolRequest, input ComposeCorrectionInput) (*mcpsdk.CallToolResult, classify.ComposeResult, error) {
	selected, err := s.selected()
	if err != nil {
		return nil, classify.ComposeResult{}, err
	}
	plan := model.PlanFromDispositions(input.Violations)
	res, err := s.composer.Compose(ctx, plan, selected)
	if err != nil {
		return nil, classify.ComposeResult{}, err
	}
	return nil, res, nil
}

func (s *Server) handleIdentitySwitched(ctx context.Context, req *mcpsdk.CallToolRequest, input IdentitySwitchedInput) (*mcpsdk.CallToolResult, IdentitySwitchedOutput, error) {
	var prev, next *model.Identity
	var err error
	if input.PrevID != "" {
		if prev, err = s.identities.Get(input.PrevID); err != nil {
			return nil, IdentitySwitchedOutput{}, fmt.Errorf("previous identity: %w", err)
		}
	}
	if input.NextID != "" {
		if next, err = s.identities.Get(input.NextID); err != nil {
			return nil, IdentitySwitchedOutput{}, fmt.Errorf("next identity: %w", err)
		}
	}
	res, err := s.composer.ComposeSwitch(ctx, prev, next)
	if err != nil {
		return nil, IdentitySwitchedOutput{}, err
	}
	return nil, IdentitySwitchedOutput{
		HasPollution: res.HasPollution,
		Message:      res.Message,
		Overlaps:     res.Overlaps,
		Denials:      res.DenialsOnly,
	}, nil
}

func (s *Server) handleExtract(ctx context.Context, req *mcpsdk.CallToolRequest, input ExtractInput) (*mcpsdk.CallToolResult, ExtractOutput, error) {
	chars, err := s.classifier.ExtractCharacteristics(ctx, input.Prompt, input.Existing)
	if err != nil {
		return nil, ExtractOutput{}, err
	}
	return nil, ExtractOutput{Characteristics: chars}, nil
}

func (s *Server) handleSummarize(ctx context.Context, req *mcpsdk.CallToolRequest, input SummarizeInput) (*mcpsdk.CallToolResult, SummarizeOutput, error) {
	summary, err := s.classifier.Summarize(ctx, input.Name, input.Characteristics)
	if err != nil {
		return nil, SummarizeOutput{}, err
	}
	return nil, SummarizeOutput{Summary: summary}, nil
}

func (s *Server) handleGenerateDecoys(ctx context.Context, req *mcpsdk.CallToolRequest, input GenerateDecoysInput) (*mcpsdk.CallToolResult, GenerateDecoysOutput, error) {
	chars, err := s.classifier.GenerateDecoys(ctx, input.Characteristics)
	if err != nil {
		return nil, GenerateDecoysOutput{}, err
	}
	return nil, GenerateDecoysOutput{Characteristics: chars}, nil
}

func (s *Server) handleGetIdentity(ctx context.Context, req *mcpsdk.CallToolRequest, input GetIdentityInput) (*mcpsdk.CallToolResult, GetIdentityOutput, error) {
	selected, err := s.selected()
	if err != nil {
		return nil, GetIdentityOutput{}, err
	}
	return nil, GetIdentityOutput{Identity: selected}, nil
}
