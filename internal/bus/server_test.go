package bus

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/januspriv/janus/internal/classify/classifytest"
	"github.com/januspriv/janus/internal/correction"
	"github.com/januspriv/janus/internal/logging"
	"github.com/januspriv/janus/internal/model"
)

type memIdentities struct {
	selected *model.Identity
	byID     map[string]*model.Identity
	merged   []model.Characteristic
	mergedID string
}

func (m *memIdentities) Selected() (*model.Identity, error) { return m.selected, nil }

func (m *memIdentities) Get(id string) (*model.Identity, error) {
	if rec, ok := m.byID[id]; ok {
		return rec, nil
	}
	return nil, errors.New("not found")
}

func (m *memIdentities) MergeFakes(id string, fakes []model.Characteristic) error {
	m.mergedID = id
	m.merged = fakes
	return nil
}

func dialTestServer(t *testing.T, stub *classifytest.Stub, ids *memIdentities) *websocket.Conn {
	t.Helper()
	if ids.byID == nil {
		ids.byID = map[string]*model.Identity{}
	}
	srv := New(Deps{
		Classifier: stub,
		Identities: ids,
		Composer:   correction.NewComposer(stub, ids),
		Log:        logging.NewTestLogger(&bytes.Buffer{}),
	})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, op Op, payload interface{}) Response {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(Request{ID: "req-1", Type: op, Payload: raw}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var resp Response
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.ID != "req-1" || resp.Type != op {
		t.Fatalf("envelope mismatch: %+v", resp)
	}
	return resp
}

func decodeData[T any](t *testing.T, resp Response) T {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatal(err)
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestDetectRoundTrip(t *testing.T) {
	stub := &classifytest.Stub{
		DetectFn: func(text string) ([]model.DetectedItem, error) {
			return []model.DetectedItem{{Text: "Toronto", Type: "location", Severity: model.SevMedium}}, nil
		},
	}
	ids := &memIdentities{selected: &model.Identity{ID: "a", Name: "A"}}
	conn := dialTestServer(t, stub, ids)

	resp := roundTrip(t, conn, OpDetect, DetectRequest{Text: "I live in Toronto"})
	if !resp.Success {
		t.Fatalf("response = %+v", resp)
	}
	data := decodeData[DetectResponse](t, resp)
	if len(data.Items) != 1 || data.Items[0].Text != "Toronto" {
		t.Errorf("items = %+v", data.Items)
	}
}

func TestErrorBranchCarriesMessage(t *testing.T) {
	stub := &classifytest.Stub{
		DetectFn: func(string) ([]model.DetectedItem, error) {
			return nil, errors.New("model unavailable")
		},
	}
	conn := dialTestServer(t, stub, &memIdentities{})

	resp := roundTrip(t, conn, OpDetect, DetectRequest{Text: "hello"})
	if resp.Success || resp.Error == "" {
		t.Fatalf("expected error branch, got %+v", resp)
	}
	if resp.Data != nil {
		t.Error("error response must not carry data")
	}
}

func TestAuditWithoutIdentityIsEmptyClean(t *testing.T) {
	stub := &classifytest.Stub{
		AuditFn: func(string) ([]model.ViolationItem, error) {
			t.Error("audit must be skipped without identity")
			return nil, nil
		},
	}
	conn := dialTestServer(t, stub, &memIdentities{})

	resp := roundTrip(t, conn, OpAuditResponse, AuditResponseRequest{Text: "a reply"})
	if !resp.Success {
		t.Fatalf("response = %+v", resp)
	}
	data := decodeData[AuditResponseResponse](t, resp)
	if len(data.Items) != 0 {
		t.Errorf("items = %+v", data.Items)
	}
}

func TestIdentitySwitchedComposesDiff(t *testing.T) {
	stub := &classifytest.Stub{
		ComposeSwitchFn: func(overlaps []model.Overlap, denials []model.DenialOnly) (string, error) {
			return "Actually I'm in Spain now.", nil
		},
	}
	ids := &memIdentities{byID: map[string]*model.Identity{
		"old": {ID: "old", Characteristics: []model.Characteristic{{Name: "Location", Value: "Canada"}}},
		"new": {ID: "new", Characteristics: []model.Characteristic{{Name: "Location", Value: "Spain"}}},
	}}
	conn := dialTestServer(t, stub, ids)

	resp := roundTrip(t, conn, OpIdentitySwitched, IdentitySwitchedRequest{PrevID: "old", NextID: "new"})
	if !resp.Success {
		t.Fatalf("response = %+v", resp)
	}
	data := decodeData[IdentitySwitchedResponse](t, resp)
	if !data.HasPollution || len(data.Overlaps) != 1 || data.Message == "" {
		t.Errorf("data = %+v", data)
	}
}

func TestIdentitySwitchedEmptyDiff(t *testing.T) {
	stub := &classifytest.Stub{
		ComposeSwitchFn: func([]model.Overlap, []model.DenialOnly) (string, error) {
			t.Error("classifier called for empty diff")
			return "", nil
		},
	}
	same := []model.Characteristic{{Name: "Age", Value: "30"}}
	ids := &memIdentities{byID: map[string]*model.Identity{
		"a": {ID: "a", Characteristics: same},
		"b": {ID: "b", Characteristics: same},
	}}
	conn := dialTestServer(t, stub, ids)

	resp := roundTrip(t, conn, OpIdentitySwitched, IdentitySwitchedRequest{PrevID: "a", NextID: "b"})
	data := decodeData[IdentitySwitchedResponse](t, resp)
	if data.HasPollution || data.Message != "" {
		t.Errorf("data = %+v", data)
	}
}

func TestCorrectionSentMergesDecoys(t *testing.T) {
	ids := &memIdentities{byID: map[string]*model.Identity{"a": {ID: "a"}}}
	conn := dialTestServer(t, &classifytest.Stub{}, ids)

	resp := roundTrip(t, conn, OpCorrectionSent, CorrectionSentRequest{
		IdentityID: "a",
		Kind:       "adhoc",
		Message:    "Actually I'm in Oslo.",
		FakeValues: []model.Characteristic{{Name: "location", Value: "Oslo"}},
	})
	if !resp.Success {
		t.Fatalf("response = %+v", resp)
	}
	if ids.mergedID != "a" || len(ids.merged) != 1 {
		t.Errorf("merge = %q %+v", ids.mergedID, ids.merged)
	}
}

func TestUnknownOperation(t *testing.T) {
	conn := dialTestServer(t, &classifytest.Stub{}, &memIdentities{})
	resp := roundTrip(t, conn, Op("bogus"), struct{}{})
	if resp.Success {
		t.Fatalf("unknown op accepted: %+v", resp)
	}
}

func TestGetIdentity(t *testing.T) {
	ids := &memIdentities{selected: &model.Identity{ID: "a", Name: "Work"}}
	conn := dialTestServer(t, &classifytest.Stub{}, ids)
	resp := roundTrip(t, conn, OpGetIdentity, struct{}{})
	if !resp.Success {
		t.Fatalf("response = %+v", resp)
	}
	data := decodeData[GetIdentityResponse](t, resp)
	if data.Identity == nil || data.Identity.Name != "Work" {
		t.Errorf("identity = %+v", data.Identity)
	}
}
