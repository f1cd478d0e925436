package model

// OutcomeKind distinguishes a genuinely clean classifier result from a failed
// call that is being treated as clean. Both release the user's text, but they
// must stay distinguishable in logs and in the decision record.
type OutcomeKind string

const (
	OutcomeClean      OutcomeKind = "clean"
	OutcomeFailed     OutcomeKind = "failed"
	OutcomeFlagged    OutcomeKind = "flagged"
	OutcomeViolations OutcomeKind = "violations"
)

// ScreenOutcome is the tagged result of an outbound detection pass.
type ScreenOutcome struct {
	Kind  OutcomeKind
	Items []DetectedItem
	Err   error
}

// CleanScreen reports a detection pass that found nothing.
func CleanScreen() ScreenOutcome {
	return ScreenOutcome{Kind: OutcomeClean}
}

// FailedScreen reports a detection pass that errored and is failing open.
func FailedScreen(err error) ScreenOutcome {
	return ScreenOutcome{Kind: OutcomeFailed, Err: err}
}

// FlaggedScreen reports a detection pass with at least one item. A zero-item
// slice degrades to a clean outcome.
func FlaggedScreen(items []DetectedItem) ScreenOutcome {
	if len(items) == 0 {
		return CleanScreen()
	}
	return ScreenOutcome{Kind: OutcomeFlagged, Items: items}
}

// AuditOutcome is the tagged result of an inbound response audit.
type AuditOutcome struct {
	Kind  OutcomeKind
	Items []ViolationItem
	Err   error
}

// CleanAudit reports an audit that found no violations.
func CleanAudit() AuditOutcome {
	return AuditOutcome{Kind: OutcomeClean}
}

// FailedAudit reports an audit call that errored and is failing open.
func FailedAudit(err error) AuditOutcome {
	return AuditOutcome{Kind: OutcomeFailed, Err: err}
}

// ViolationAudit reports an audit with at least one violation. A zero-item
// slice degrades to a clean outcome.
func ViolationAudit(items []ViolationItem) AuditOutcome {
	if len(items) == 0 {
		return CleanAudit()
	}
	return AuditOutcome{Kind: OutcomeViolations, Items: items}
}
