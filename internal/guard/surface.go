package guard

import (
	"context"

	"github.com/januspriv/janus/internal/model"
)

// Action is the user's choice on the decision surface.
type Action string

const (
	ActionCancel       Action = "cancel"
	ActionSendOriginal Action = "send_original"
	ActionRewriteSend  Action = "rewrite_send"
)

// Decision is the resolved state of the surface: the action plus, for a
// rewrite, the subset of items the user left checked.
type Decision struct {
	Action  Action
	Checked []model.DetectedItem
}

// DecisionSurface is the blocking modal shown during screening. The bridge
// backs it with the content script's UI; tests script it directly.
type DecisionSurface interface {
	// Loading shows the surface in its loading state before results exist,
	// so cancellation is available while the classifier runs.
	Loading(text string)

	// Resolve presents the flagged items and blocks until the user acts.
	// All items start checked. An error means the surface itself went away
	// (connection dropped), which resolves as cancel upstream.
	Resolve(ctx context.Context, original string, items []model.DetectedItem) (Decision, error)

	// Acknowledge posts a transient, non-blocking note for outcomes that
	// need no decision (clean pass, fail-open pass).
	Acknowledge(outcome model.ScreenOutcome)
}
