package model

import (
	"strings"
	"testing"
)

func TestCoerceSeverity(t *testing.T) {
	cases := []struct {
		in   string
		want Severity
	}{
		{"high", SevHigh},
		{"HIGH", SevHigh},
		{" medium ", SevMedium},
		{"low", SevLow},
		{"critical", SevMedium},
		{"", SevMedium},
	}
	for _, tc := range cases {
		if got := CoerceSeverity(tc.in); got != tc.want {
			t.Errorf("CoerceSeverity(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSevRankOrdering(t *testing.T) {
	if !(SevRank[SevLow] < SevRank[SevMedium] && SevRank[SevMedium] < SevRank[SevHigh]) {
		t.Fatalf("severity ranks not strictly ordered: %v", SevRank)
	}
}

func TestTruncate(t *testing.T) {
	short := ChatMessage{Role: "user", Content: "hello"}
	if got := short.Truncate(); got.Content != "hello" {
		t.Errorf("short message modified: %q", got.Content)
	}

	long := ChatMessage{Role: "assistant", Content: strings.Repeat("x", TranscriptCap+50)}
	got := long.Truncate()
	if !strings.HasSuffix(got.Content, "...") {
		t.Errorf("truncated message missing ellipsis: %q", got.Content[len(got.Content)-10:])
	}
	if len([]rune(got.Content)) != TranscriptCap+3 {
		t.Errorf("truncated length = %d, want %d", len([]rune(got.Content)), TranscriptCap+3)
	}
}

func TestSnapshotTranscript(t *testing.T) {
	if SnapshotTranscript(nil) != nil {
		t.Error("empty transcript should snapshot to nil")
	}

	history := []ChatMessage{
		{Role: "user", Content: strings.Repeat("a", 400)},
		{Role: "assistant", Content: "ok"},
	}
	snap := SnapshotTranscript(history)
	if len(snap) != 2 {
		t.Fatalf("snapshot length = %d, want 2", len(snap))
	}
	if len([]rune(snap[0].Content)) != TranscriptCap+3 {
		t.Errorf("first message not truncated: %d runes", len([]rune(snap[0].Content)))
	}
	// Original must be untouched.
	if len(history[0].Content) != 400 {
		t.Error("snapshot mutated the source transcript")
	}
}

func TestIdentityCharacteristicLookup(t *testing.T) {
	id := Identity{
		Characteristics: []Characteristic{
			{Name: "Location", Value: "Canada"},
			{Name: "Age", Value: "30"},
		},
	}
	if c := id.Characteristic("location"); c == nil || c.Value != "Canada" {
		t.Errorf("case-insensitive lookup failed: %+v", c)
	}
	if c := id.Characteristic(" LOCATION "); c == nil {
		t.Error("lookup should trim and lowercase")
	}
	if c := id.Characteristic("email"); c != nil {
		t.Errorf("missing name should return nil, got %+v", c)
	}
}

func TestPlanFromDispositions(t *testing.T) {
	violations := []ViolationItem{
		{KnownInfo: "Toronto", Disposition: DispositionDeny},
		{KnownInfo: "Engineer", Disposition: DispositionPollute},
		{KnownInfo: "30", Disposition: DispositionIgnore},
		{KnownInfo: "Alex"},
	}
	plan := PlanFromDispositions(violations)
	if len(plan.ToDeny) != 1 || plan.ToDeny[0].KnownInfo != "Toronto" {
		t.Errorf("deny partition wrong: %+v", plan.ToDeny)
	}
	if len(plan.ToPollute) != 1 || plan.ToPollute[0].KnownInfo != "Engineer" {
		t.Errorf("pollute partition wrong: %+v", plan.ToPollute)
	}
	if plan.Empty() {
		t.Error("plan with items reported empty")
	}

	empty := PlanFromDispositions([]ViolationItem{{Disposition: DispositionIgnore}})
	if !empty.Empty() {
		t.Error("all-ignore plan should be empty")
	}
}

func TestOutcomeDegradation(t *testing.T) {
	if got := FlaggedScreen(nil); got.Kind != OutcomeClean {
		t.Errorf("zero-item flagged screen should be clean, got %q", got.Kind)
	}
	if got := ViolationAudit([]ViolationItem{}); got.Kind != OutcomeClean {
		t.Errorf("zero-item violation audit should be clean, got %q", got.Kind)
	}
	if got := FlaggedScreen([]DetectedItem{{Text: "Toronto"}}); got.Kind != OutcomeFlagged {
		t.Errorf("flagged screen kind = %q", got.Kind)
	}
}
