package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Severity classifies how strongly a detected or inferred fact identifies the user.
type Severity string

const (
	SevLow    Severity = "low"
	SevMedium Severity = "medium"
	SevHigh   Severity = "high"
)

// SevRank maps severity to a comparable integer for sorting and thresholds.
var SevRank = map[Severity]int{
	SevLow:    0,
	SevMedium: 1,
	SevHigh:   2,
}

// CoerceSeverity normalizes an untrusted severity string from classifier JSON.
// Unknown or empty values become medium rather than failing the whole result.
func CoerceSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SevLow:
		return SevLow
	case SevMedium:
		return SevMedium
	case SevHigh:
		return SevHigh
	default:
		return SevMedium
	}
}

// Disposition is the user's per-violation choice in the inbound audit flow.
type Disposition string

const (
	DispositionIgnore  Disposition = "ignore"
	DispositionDeny    Disposition = "deny"
	DispositionPollute Disposition = "pollute"
)

// Characteristic is a single named fact attached to an identity.
// Name uniqueness within a list is case-insensitive; later writes win.
type Characteristic struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NormalizeName returns the comparison key for a characteristic name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Identity is a privacy profile declaring which personal facts are acceptable
// to disclose. FakeCharacteristics are decoys previously asserted to the
// remote model to obscure real facts.
type Identity struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name"`
	Prompt              string           `json:"prompt,omitempty"`
	Summary             string           `json:"summary,omitempty"`
	AvatarRef           string           `json:"avatar_ref,omitempty"`
	Characteristics     []Characteristic `json:"characteristics"`
	FakeCharacteristics []Characteristic `json:"fake_characteristics,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
}

// Characteristic returns the characteristic with the given normalized name,
// or nil if the identity has none.
func (id *Identity) Characteristic(name string) *Characteristic {
	key := NormalizeName(name)
	for i := range id.Characteristics {
		if NormalizeName(id.Characteristics[i].Name) == key {
			return &id.Characteristics[i]
		}
	}
	return nil
}

// ChatMessage is one turn of the visible transcript.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TranscriptCap is the per-message rune cap applied when snapshotting chat
// history for a classifier call, to bound payload size.
const TranscriptCap = 200

// Truncate caps the message content at TranscriptCap runes with an ellipsis.
func (m ChatMessage) Truncate() ChatMessage {
	if utf8.RuneCountInString(m.Content) <= TranscriptCap {
		return m
	}
	runes := []rune(m.Content)
	m.Content = string(runes[:TranscriptCap]) + "..."
	return m
}

// SnapshotTranscript truncates every message of a transcript.
func SnapshotTranscript(history []ChatMessage) []ChatMessage {
	if len(history) == 0 {
		return nil
	}
	out := make([]ChatMessage, len(history))
	for i, m := range history {
		out[i] = m.Truncate()
	}
	return out
}

// DetectedItem is one unit of flagged information found in outbound screening.
type DetectedItem struct {
	Text     string   `json:"text"`
	Type     string   `json:"type"`
	Reason   string   `json:"reason"`
	Severity Severity `json:"severity"`
}

// ViolationItem is one unit of information the remote assistant appears to
// know beyond what the active identity authorizes.
type ViolationItem struct {
	KnownInfo   string      `json:"known_info"`
	Category    string      `json:"category"`
	Reason      string      `json:"reason"`
	Severity    Severity    `json:"severity"`
	Disposition Disposition `json:"disposition,omitempty"`
}

// CorrectionPlan partitions a violation set by user disposition. Both
// partitions empty means no corrective action, which is a valid terminal
// state rather than an error.
type CorrectionPlan struct {
	ToDeny    []ViolationItem
	ToPollute []ViolationItem
}

// PlanFromDispositions builds a CorrectionPlan from dispositioned violations.
// Items with an empty or ignore disposition are dropped.
func PlanFromDispositions(violations []ViolationItem) CorrectionPlan {
	var plan CorrectionPlan
	for _, v := range violations {
		switch v.Disposition {
		case DispositionDeny:
			plan.ToDeny = append(plan.ToDeny, v)
		case DispositionPollute:
			plan.ToPollute = append(plan.ToPollute, v)
		}
	}
	return plan
}

// Empty reports whether the plan requires no corrective action.
func (p CorrectionPlan) Empty() bool {
	return len(p.ToDeny) == 0 && len(p.ToPollute) == 0
}
