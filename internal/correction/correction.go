// Package correction turns violation dispositions and identity switches into
// corrective messages. The switch diff is pure local computation; only actual
// message synthesis touches the classifier.
package correction

import (
	"context"
	"fmt"

	"github.com/januspriv/janus/internal/classify"
	"github.com/januspriv/janus/internal/model"
)

// SwitchResult is the outcome of an identity-switch correction.
type SwitchResult struct {
	// HasPollution is false when the two identities share no contradicting
	// or retractable characteristics; no message exists then.
	HasPollution bool
	Message      string
	Overlaps     []model.Overlap
	DenialsOnly  []model.DenialOnly
}

// SwitchDiff compares two identities by normalized characteristic name.
// Characteristics present only in next need no action.
func SwitchDiff(prev, next *model.Identity) ([]model.Overlap, []model.DenialOnly) {
	var overlaps []model.Overlap
	var denials []model.DenialOnly
	if prev == nil {
		return nil, nil
	}

	nextByName := make(map[string]model.Characteristic)
	if next != nil {
		for _, c := range next.Characteristics {
			nextByName[model.NormalizeName(c.Name)] = c
		}
	}

	for _, c := range prev.Characteristics {
		key := model.NormalizeName(c.Name)
		if key == "" {
			continue
		}
		nc, ok := nextByName[key]
		switch {
		case !ok:
			denials = append(denials, model.DenialOnly{Name: c.Name, Value: c.Value})
		case nc.Value != c.Value:
			overlaps = append(overlaps, model.Overlap{Name: c.Name, OldValue: c.Value, NewValue: nc.Value})
		}
	}
	return overlaps, denials
}

// FakeMerger persists asserted decoy values onto an identity.
type FakeMerger interface {
	MergeFakes(id string, fakes []model.Characteristic) error
}

// Composer synthesizes corrective messages.
type Composer struct {
	classifier classify.Service
	identities FakeMerger
}

// NewComposer builds a composer. identities may be nil when decoy persistence
// is handled elsewhere.
func NewComposer(classifier classify.Service, identities FakeMerger) *Composer {
	return &Composer{classifier: classifier, identities: identities}
}

// Compose builds one self-contained correction message from a disposition
// plan. An empty plan is a no-op, not an error.
func (c *Composer) Compose(ctx context.Context, plan model.CorrectionPlan, identity *model.Identity) (classify.ComposeResult, error) {
	if plan.Empty() {
		return classify.ComposeResult{}, nil
	}
	res, err := c.classifier.ComposeCorrection(ctx, plan, identity)
	if err != nil {
		return classify.ComposeResult{}, fmt.Errorf("correction: compose: %w", err)
	}
	return res, nil
}

// ComposeSwitch builds the correction sent when the selected identity changes.
// An empty diff is a valid terminal state with no message.
func (c *Composer) ComposeSwitch(ctx context.Context, prev, next *model.Identity) (SwitchResult, error) {
	overlaps, denials := SwitchDiff(prev, next)
	if len(overlaps) == 0 && len(denials) == 0 {
		return SwitchResult{}, nil
	}
	msg, err := c.classifier.ComposeSwitchMessage(ctx, overlaps, denials)
	if err != nil {
		return SwitchResult{}, fmt.Errorf("correction: compose switch: %w", err)
	}
	return SwitchResult{
		HasPollution: true,
		Message:      msg,
		Overlaps:     overlaps,
		DenialsOnly:  denials,
	}, nil
}

// ConfirmSent records the side effects of a correction that actually went
// out: asserted decoy values merge into the identity's fake characteristics.
// Existing decoys keep their values.
func (c *Composer) ConfirmSent(identityID string, fakes []model.Characteristic) error {
	if c.identities == nil || len(fakes) == 0 {
		return nil
	}
	if err := c.identities.MergeFakes(identityID, fakes); err != nil {
		return fmt.Errorf("correction: merge decoys: %w", err)
	}
	return nil
}
