package classify

import "testing"

func TestStripFences(t *testing.T) {
	cases := []struct{ in, want string }{
		{`[]`, `[]`},
		{"```json\n[{\"a\":1}]\n```", `[{"a":1}]`},
		{"```\n{}\n```", `{}`},
		{"  {\"x\":2}  ", `{"x":2}`},
	}
	for _, c := range cases {
		if got := stripFences(c.in); got != c.want {
			t.Errorf("stripFences(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTrimQuotes(t *testing.T) {
	cases := []struct{ in, want string }{
		{`"hello there"`, "hello there"},
		{"plain", "plain"},
		{`"unbalanced`, `"unbalanced`},
		{`""`, ""},
	}
	for _, c := range cases {
		if got := trimQuotes(c.in); got != c.want {
			t.Errorf("trimQuotes(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDecodeJSONLeadingProse(t *testing.T) {
	var out []struct {
		Text string `json:"text"`
	}
	raw := "Here is the result:\n[{\"text\":\"Toronto\"}]"
	if err := decodeJSON(raw, &out); err != nil {
		t.Fatalf("decodeJSON: %v", err)
	}
	if len(out) != 1 || out[0].Text != "Toronto" {
		t.Errorf("decoded %+v", out)
	}
}

func TestDecodeJSONInvalid(t *testing.T) {
	var out []any
	if err := decodeJSON("not json at all", &out); err == nil {
		t.Error("expected parse error")
	}
}
