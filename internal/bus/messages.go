package bus

import (
	"encoding/json"

	"github.com/januspriv/janus/internal/model"
)

// Op is the tagged operation name on a bus request. One request type exists
// per operation; payloads are never duck-typed.
type Op string

const (
	OpDetect           Op = "detect"
	OpRewrite          Op = "rewrite"
	OpCheckContext     Op = "check_context"
	OpAuditResponse    Op = "audit_response"
	OpComposeCorrect   Op = "compose_correction"
	OpComposeSwitch    Op = "compose_switch"
	OpExtract          Op = "extract_characteristics"
	OpSummarize        Op = "summarize"
	OpGenerateDecoys   Op = "generate_decoys"
	OpIdentitySwitched Op = "identity_switched"
	OpGetIdentity      Op = "get_identity"
	OpCorrectionSent   Op = "correction_sent"
)

// Request is the envelope for one client request. Payload shape depends on
// Type.
type Request struct {
	ID      string          `json:"id"`
	Type    Op              `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the envelope for one reply. Exactly one of Data or Error is
// set; consumers must handle the error branch explicitly (the guard flows
// treat it as fail-open).
type Response struct {
	ID      string      `json:"id"`
	Type    Op          `json:"type"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Per-operation payloads.

type DetectRequest struct {
	Text    string              `json:"text"`
	History []model.ChatMessage `json:"history,omitempty"`
}

type DetectResponse struct {
	Items []model.DetectedItem `json:"items"`
}

type RewriteRequest struct {
	Text  string               `json:"text"`
	Items []model.DetectedItem `json:"items"`
}

type RewriteResponse struct {
	Text string `json:"text"`
}

type CheckContextRequest struct {
	Text string `json:"text"`
}

type AuditResponseRequest struct {
	Text string `json:"text"`
}

type AuditResponseResponse struct {
	Items []model.ViolationItem `json:"items"`
}

type ComposeCorrectionRequest struct {
	Violations []model.ViolationItem `json:"violations"`
}

type ComposeSwitchRequest struct {
	Overlaps []model.Overlap    `json:"overlaps"`
	Denials  []model.DenialOnly `json:"denials"`
}

type ComposeSwitchResponse struct {
	Message string `json:"message"`
}

type ExtractRequest struct {
	Prompt   string                 `json:"prompt"`
	Existing []model.Characteristic `json:"existing,omitempty"`
}

type ExtractResponse struct {
	Characteristics []model.Characteristic `json:"characteristics"`
}

type SummarizeRequest struct {
	Name            string                 `json:"name"`
	Characteristics []model.Characteristic `json:"characteristics"`
}

type SummarizeResponse struct {
	Summary string `json:"summary"`
}

type GenerateDecoysRequest struct {
	Characteristics []model.Characteristic `json:"characteristics"`
}

type GenerateDecoysResponse struct {
	Characteristics []model.Characteristic `json:"characteristics"`
}

type IdentitySwitchedRequest struct {
	PrevID string `json:"prev_id"`
	NextID string `json:"next_id"`
}

type IdentitySwitchedResponse struct {
	HasPollution bool               `json:"has_pollution"`
	Message      string             `json:"message,omitempty"`
	Overlaps     []model.Overlap    `json:"overlaps,omitempty"`
	Denials      []model.DenialOnly `json:"denials,omitempty"`
}

type GetIdentityResponse struct {
	Identity *model.Identity `json:"identity"`
}

// CorrectionSentRequest reports that a composed correction actually went out,
// triggering the decoy merge and the history record.
type CorrectionSentRequest struct {
	IdentityID string                 `json:"identity_id"`
	Kind       string                 `json:"kind"` // "adhoc" or "switch"
	Message    string                 `json:"message"`
	FakeValues []model.Characteristic `json:"fake_values,omitempty"`
}
