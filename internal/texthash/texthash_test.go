package texthash

import "testing"

func TestSumStable(t *testing.T) {
	a := Sum("I live in Toronto")
	b := Sum("I live in Toronto")
	if a != b {
		t.Fatalf("hash not deterministic: %s vs %s", a, b)
	}
	if a == Sum("I live in Canada") {
		t.Error("different texts produced the same hash")
	}
}

func TestSumKnownValues(t *testing.T) {
	// h = h*31 + c over wrapping int32, decimal-encoded.
	cases := []struct {
		in   string
		want string
	}{
		{"", "0"},
		{"a", "97"},
		{"ab", "3105"},
		{"hello", "99162322"},
	}
	for _, tc := range cases {
		if got := Sum(tc.in); got != tc.want {
			t.Errorf("Sum(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestSumSurrogatePairs(t *testing.T) {
	// Non-BMP runes hash as two UTF-16 code units, matching the content
	// script's per-code-unit loop.
	cases := []struct {
		in   string
		want string
	}{
		{"\U0001F600", "1772899"},
		{"a\U0001F600", "1866116"},
		{"café \U0001F600", "548522946"},
	}
	for _, tc := range cases {
		if got := Sum(tc.in); got != tc.want {
			t.Errorf("Sum(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestSumWrapsNegative(t *testing.T) {
	// Long inputs overflow int32; the decimal form may be negative but must
	// stay stable.
	long := ""
	for i := 0; i < 100; i++ {
		long += "abcdefghij"
	}
	if Sum(long) != Sum(long) {
		t.Error("overflowing hash not deterministic")
	}
}
