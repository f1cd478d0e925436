package augment

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/januspriv/janus/internal/classify"
	"github.com/januspriv/janus/internal/classify/classifytest"
	"github.com/januspriv/janus/internal/logging"
	"github.com/januspriv/janus/internal/model"
)

var testIdentity = &model.Identity{
	Name:            "Traveler",
	Characteristics: []model.Characteristic{{Name: "Location", Value: "Canada"}},
}

func TestAugmentAddsContext(t *testing.T) {
	stub := &classifytest.Stub{
		CheckContextFn: func(prompt string) (classify.ContextResult, error) {
			return classify.ContextResult{
				NeedsContext:    true,
				AugmentedPrompt: "(For context: I'm in Canada) " + prompt,
				AddedContext:    "(For context: I'm in Canada)",
			}, nil
		},
	}
	a := New(stub, time.Second, logging.NewTestLogger(&bytes.Buffer{}))
	res := a.Augment(context.Background(), "recommend a bank", testIdentity)
	if !res.NeedsContext || !strings.HasSuffix(res.AugmentedPrompt, "recommend a bank") {
		t.Errorf("Augment = %+v", res)
	}
}

func TestAugmentNoIdentityPassesThrough(t *testing.T) {
	stub := &classifytest.Stub{}
	a := New(stub, time.Second, logging.NewTestLogger(&bytes.Buffer{}))
	res := a.Augment(context.Background(), "hello", nil)
	if res.NeedsContext || res.AugmentedPrompt != "hello" {
		t.Errorf("Augment = %+v", res)
	}
	if len(stub.Calls) != 0 {
		t.Error("classifier called without identity")
	}
}

func TestAugmentFailureIsFailOpenAndLogged(t *testing.T) {
	var buf bytes.Buffer
	stub := &classifytest.Stub{
		CheckContextFn: func(string) (classify.ContextResult, error) {
			return classify.ContextResult{}, errors.New("boom")
		},
	}
	a := New(stub, time.Second, logging.NewTestLogger(&buf))
	res := a.Augment(context.Background(), "hello", testIdentity)
	if res.NeedsContext || res.AugmentedPrompt != "hello" {
		t.Errorf("failure should pass original through, got %+v", res)
	}
	if !strings.Contains(buf.String(), "FAIL_OPEN") {
		t.Error("fail-open event not logged")
	}
}

func TestAugmentTimeoutIsFailOpen(t *testing.T) {
	var buf bytes.Buffer
	stub := &classifytest.Stub{
		CheckContextFn: func(string) (classify.ContextResult, error) {
			// Stub checks ctx before invoking this; a cancelled ctx never
			// reaches here, so simulate a slow provider honoring ctx.
			return classify.ContextResult{}, context.DeadlineExceeded
		},
	}
	a := New(stub, time.Nanosecond, logging.NewTestLogger(&buf))
	res := a.Augment(context.Background(), "hello", testIdentity)
	if res.AugmentedPrompt != "hello" {
		t.Errorf("timeout should pass original through, got %+v", res)
	}
	if !strings.Contains(buf.String(), "class=timeout") {
		t.Errorf("timeout class not logged: %s", buf.String())
	}
}
