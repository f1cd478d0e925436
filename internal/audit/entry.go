package audit

// DecisionEntry is one line in the hash-chained JSONL decision log. All
// fields are scalars (no map[string]any) to guarantee deterministic
// json.Marshal field order for reproducible hashing.
//
// Outcome keeps fail-open distinct from clean: a "failed" outcome released
// text without screening it, and that difference must survive in the record.
type DecisionEntry struct {
	Timestamp string `json:"ts"`
	Surface   string `json:"surface"`
	Flow      string `json:"flow"`    // "screen" or "audit"
	Outcome   string `json:"outcome"` // clean, failed, flagged, violations
	Action    string `json:"action,omitempty"`
	Key       string `json:"key,omitempty"` // text hash or message fingerprint
	Items     int    `json:"items,omitempty"`
	ErrClass  string `json:"err,omitempty"`
	PrevHash  string `json:"prev_hash"`
}
