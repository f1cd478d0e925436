package classify

import (
	"context"
	"strings"
	"testing"

	"github.com/januspriv/janus/internal/model"
)

// scriptedCompleter returns a canned reply and records the last request.
type scriptedCompleter struct {
	reply string
	err   error
	last  completionRequest
}

func (s *scriptedCompleter) Complete(_ context.Context, req completionRequest) (string, error) {
	s.last = req
	return s.reply, s.err
}

func TestDetectParsesAndCoerces(t *testing.T) {
	sc := &scriptedCompleter{reply: "```json\n[{\"text\":\"Toronto\",\"type\":\"location\",\"reason\":\"more specific than profile\",\"severity\":\"bogus\"}]\n```"}
	c := NewClient(sc)

	items, err := c.Detect(context.Background(), "I live in Toronto", nil, nil)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(items) != 1 || items[0].Text != "Toronto" {
		t.Fatalf("items = %+v", items)
	}
	if items[0].Severity != model.SevMedium {
		t.Errorf("unknown severity should coerce to medium, got %q", items[0].Severity)
	}
	if sc.last.Temperature != tempScreen {
		t.Errorf("detect temperature = %v", sc.last.Temperature)
	}
}

func TestDetectWithIdentityUsesProfilePrompt(t *testing.T) {
	sc := &scriptedCompleter{reply: "[]"}
	c := NewClient(sc)
	id := &model.Identity{
		Name:            "Work",
		Characteristics: []model.Characteristic{{Name: "Location", Value: "Canada"}},
	}
	if _, err := c.Detect(context.Background(), "hi", id, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sc.last.System, "Location: Canada") {
		t.Error("profile characteristics missing from system prompt")
	}
	if !strings.Contains(sc.last.System, "ESCALATION") {
		t.Error("profile-bounded prompt not selected")
	}
}

func TestRewriteSkipsCallWhenNothingFlagged(t *testing.T) {
	sc := &scriptedCompleter{reply: "should not be used"}
	c := NewClient(sc)
	out, err := c.Rewrite(context.Background(), "original", nil, nil)
	if err != nil || out != "original" {
		t.Fatalf("Rewrite = %q, %v", out, err)
	}
	if sc.last.User != "" {
		t.Error("rewrite called the provider with no flagged items")
	}
}

func TestRewriteTrimsQuotes(t *testing.T) {
	sc := &scriptedCompleter{reply: `"I live in a big city"`}
	c := NewClient(sc)
	out, err := c.Rewrite(context.Background(), "I live in Toronto",
		[]model.DetectedItem{{Text: "Toronto", Reason: "city"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "I live in a big city" {
		t.Errorf("Rewrite = %q", out)
	}
}

func TestRewriteEmptyReplyIsError(t *testing.T) {
	sc := &scriptedCompleter{reply: `""`}
	c := NewClient(sc)
	if _, err := c.Rewrite(context.Background(), "x",
		[]model.DetectedItem{{Text: "x"}}, nil); err == nil {
		t.Error("empty rewrite should be an error")
	}
}

func TestCheckContextNoIdentityShortCircuits(t *testing.T) {
	sc := &scriptedCompleter{reply: "should not be used"}
	c := NewClient(sc)
	res, err := c.CheckContext(context.Background(), "what is 2+2", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.NeedsContext || res.AugmentedPrompt != "what is 2+2" {
		t.Errorf("CheckContext = %+v", res)
	}
}

func TestCheckContextFallsBackToOriginalPrompt(t *testing.T) {
	sc := &scriptedCompleter{reply: `{"needs_context": true, "augmented_prompt": "", "reason": "broken model"}`}
	c := NewClient(sc)
	id := &model.Identity{Name: "A", Characteristics: []model.Characteristic{{Name: "Location", Value: "Canada"}}}
	res, err := c.CheckContext(context.Background(), "recommend a bank", id)
	if err != nil {
		t.Fatal(err)
	}
	if res.AugmentedPrompt != "recommend a bank" {
		t.Errorf("blank augmented prompt should fall back to original, got %q", res.AugmentedPrompt)
	}
}

func TestComposeCorrectionRequiresMessage(t *testing.T) {
	sc := &scriptedCompleter{reply: `{"message": "", "fake_values": []}`}
	c := NewClient(sc)
	_, err := c.ComposeCorrection(context.Background(), model.CorrectionPlan{
		ToDeny: []model.ViolationItem{{KnownInfo: "lives in Toronto", Category: "location"}},
	}, nil)
	if err == nil {
		t.Error("empty composed message should be an error")
	}
}

func TestComposeCorrectionRequestListsBothBuckets(t *testing.T) {
	plan := model.CorrectionPlan{
		ToDeny:    []model.ViolationItem{{KnownInfo: "works at Acme", Category: "employer"}},
		ToPollute: []model.ViolationItem{{KnownInfo: "lives in Toronto", Category: "location"}},
	}
	req := composeCorrectionRequest(plan)
	if !strings.Contains(req, "works at Acme") || !strings.Contains(req, "lives in Toronto") {
		t.Errorf("request missing plan items:\n%s", req)
	}
}

func TestAuditRequiresIdentity(t *testing.T) {
	c := NewClient(&scriptedCompleter{reply: "[]"})
	if _, err := c.AuditResponse(context.Background(), "reply", nil); err == nil {
		t.Error("audit without identity should fail")
	}
}
