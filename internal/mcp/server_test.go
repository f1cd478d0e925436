package mcp

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/januspriv/janus/internal/classify/classifytest"
	"github.com/januspriv/janus/internal/correction"
	"github.com/januspriv/janus/internal/logging"
	"github.com/januspriv/janus/internal/model"
)

type memIdentities struct {
	selected *model.Identity
	byID     map[string]*model.Identity
}

func (m *memIdentities) Selected() (*model.Identity, error) { return m.selected, nil }

func (m *memIdentities) Get(id string) (*model.Identity, error) {
	if rec, ok := m.byID[id]; ok {
		return rec, nil
	}
	return nil, errors.New("not found")
}

func (m *memIdentities) MergeFakes(string, []model.Characteristic) error { return nil }

func newTestServer(stub *classifytest.Stub, ids *memIdentities) *Server {
	return New(Config{
		Classifier: stub,
		Identities: ids,
		Composer:   correction.NewComposer(stub, ids),
		Log:        logging.NewTestLogger(&bytes.Buffer{}),
	})
}

func TestHandleDetectUsesSelectedIdentity(t *testing.T) {
	var gotText string
	stub := &classifytest.Stub{
		DetectFn: func(text string) ([]model.DetectedItem, error) {
			gotText = text
			return []model.DetectedItem{{Text: "Toronto"}}, nil
		},
	}
	ids := &memIdentities{selected: &model.Identity{ID: "a"}}
	s := newTestServer(stub, ids)

	_, out, err := s.handleDetect(context.Background(), nil, DetectInput{Text: "I live in Toronto"})
	if err != nil {
		t.Fatal(err)
	}
	if gotText != "I live in Toronto" || len(out.Items) != 1 {
		t.Errorf("out = %+v", out)
	}
}

func TestHandleAuditWithoutIdentitySkips(t *testing.T) {
	stub := &classifytest.Stub{
		AuditFn: func(string) ([]model.ViolationItem, error) {
			t.Error("audit must be skipped without identity")
			return nil, nil
		},
	}
	s := newTestServer(stub, &memIdentities{})
	_, out, err := s.handleAuditResponse(context.Background(), nil, AuditInput{Text: "reply"})
	if err != nil || len(out.Items) != 0 {
		t.Errorf("out = %+v, %v", out, err)
	}
}

func TestHandleIdentitySwitched(t *testing.T) {
	stub := &classifytest.Stub{
		ComposeSwitchFn: func(o []model.Overlap, d []model.DenialOnly) (string, error) {
			return "Actually, I'm in Spain now.", nil
		},
	}
	ids := &memIdentities{byID: map[string]*model.Identity{
		"old": {ID: "old", Characteristics: []model.Characteristic{{Name: "Location", Value: "Canada"}}},
		"new": {ID: "new", Characteristics: []model.Characteristic{{Name: "Location", Value: "Spain"}}},
	}}
	s := newTestServer(stub, ids)

	_, out, err := s.handleIdentitySwitched(context.Background(), nil, IdentitySwitchedInput{PrevID: "old", NextID: "new"})
	if err != nil {
		t.Fatal(err)
	}
	if !out.HasPollution || len(out.Overlaps) != 1 || out.Message == "" {
		t.Errorf("out = %+v", out)
	}
}

func TestHandleComposeCorrectionEmptyPlan(t *testing.T) {
	stub := &classifytest.Stub{}
	s := newTestServer(stub, &memIdentities{})
	_, out, err := s.handleComposeCorrection(context.Background(), nil, ComposeCorrectionInput{
		Violations: []model.ViolationItem{{KnownInfo: "x", Disposition: model.DispositionIgnore}},
	})
	if err != nil || out.Message != "" {
		t.Errorf("out = %+v, %v", out, err)
	}
}
