// Package auditor watches a chat surface for completed assistant messages and
// screens them against the selected identity. Violations drive a user-mediated
// deny/pollute correction flow; everything else returns the surface to idle.
package auditor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/januspriv/janus/internal/classify"
	"github.com/januspriv/janus/internal/correction"
	"github.com/januspriv/janus/internal/guard"
	"github.com/januspriv/janus/internal/hostpage"
	"github.com/januspriv/janus/internal/logging"
	"github.com/januspriv/janus/internal/model"
	"github.com/januspriv/janus/internal/stability"
)

// State is the auditor's position in its cycle. Exposed for observability.
type State string

const (
	StateIdle      State = "idle"
	StateDetecting State = "detecting"
	StateWaiting   State = "waiting"
	StateAuditing  State = "auditing"
)

// fingerprintPrefix bounds the content fallback fingerprint when the site
// exposes no stable message id.
const fingerprintPrefix = 50

// DefaultSettle absorbs bursts of mutation notifications from one streaming
// pass before the stability sampling starts.
const DefaultSettle = 300 * time.Millisecond

// DispositionSurface is the violation modal plus the correction confirmation.
type DispositionSurface interface {
	// Decide presents the violations for per-item ignore/deny/pollute
	// assignment. submitted is false when the user cancels; cancel discards
	// the violation set with no side effects.
	Decide(ctx context.Context, items []model.ViolationItem) (decided []model.ViolationItem, submitted bool, err error)

	// Confirm shows the composed correction before it is sent. The user may
	// edit the message; ok is false when they back out.
	Confirm(ctx context.Context, message string) (final string, ok bool, err error)
}

// ProcessedStore persists which messages were already audited.
type ProcessedStore interface {
	MarkProcessed(surface, fingerprint string) error
	IsProcessed(surface, fingerprint string) (bool, error)
	RecordCorrection(identity, kind, message string) error
}

// Recorder persists audit outcomes to the decision log.
type Recorder interface {
	RecordAudit(fingerprint string, outcome model.AuditOutcome)
}

// Auditor is the per-surface inbound audit loop.
type Auditor struct {
	surfaceID  string
	classifier classify.Service
	adapter    hostpage.Adapter
	identities guard.IdentitySource
	surface    DispositionSurface
	composer   *correction.Composer
	session    *guard.Session
	store      ProcessedStore
	recorder   Recorder
	sampler    *stability.Sampler
	settle     time.Duration
	log        *logging.Logger

	mu              sync.Mutex
	state           State
	address         string
	lastFingerprint string

	// sleep is replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Config carries the auditor's collaborators.
type Config struct {
	SurfaceID  string
	Classifier classify.Service
	Adapter    hostpage.Adapter
	Identities guard.IdentitySource
	Surface    DispositionSurface
	Composer   *correction.Composer
	Session    *guard.Session
	Store      ProcessedStore
	Recorder   Recorder
	Sampler    *stability.Sampler
	Settle     time.Duration
	Log        *logging.Logger
}

// New builds an auditor. Store and Recorder may be nil.
func New(cfg Config) *Auditor {
	if cfg.Sampler == nil {
		cfg.Sampler = stability.NewSampler(0, 0)
	}
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}
	return &Auditor{
		surfaceID:  cfg.SurfaceID,
		classifier: cfg.Classifier,
		adapter:    cfg.Adapter,
		identities: cfg.Identities,
		surface:    cfg.Surface,
		composer:   cfg.Composer,
		session:    cfg.Session,
		store:      cfg.Store,
		recorder:   cfg.Recorder,
		sampler:    cfg.Sampler,
		settle:     cfg.Settle,
		log:        cfg.Log,
		state:      StateIdle,
		sleep: func(ctx context.Context, d time.Duration) error {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				return nil
			}
		},
	}
}

// State returns the auditor's current state.
func (a *Auditor) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Auditor) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// tryBegin moves idle → detecting. It is the single-flight gate: overlapping
// mutation notifications must not spawn concurrent audits of one message.
func (a *Auditor) tryBegin() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateIdle {
		return false
	}
	a.state = StateDetecting
	return true
}

func fingerprint(id, text string) string {
	if id != "" {
		return "id:" + id
	}
	runes := []rune(text)
	if len(runes) > fingerprintPrefix {
		runes = runes[:fingerprintPrefix]
	}
	return "text:" + string(runes)
}

func (a *Auditor) record(fp string, outcome model.AuditOutcome) {
	if a.recorder != nil {
		a.recorder.RecordAudit(fp, outcome)
	}
}

func (a *Auditor) markProcessed(fp string) {
	a.mu.Lock()
	a.lastFingerprint = fp
	a.mu.Unlock()
	if a.store != nil {
		if err := a.store.MarkProcessed(a.surfaceID, fp); err != nil {
			a.log.Warnf("auditor: persist fingerprint: %v", err)
		}
	}
}

// OnMutation is the entry point for transcript-changed notifications. It
// decides whether the mutation is a new assistant message, a conversation
// switch, or noise, and runs the audit when warranted.
func (a *Auditor) OnMutation(ctx context.Context) error {
	if !a.tryBegin() {
		return nil
	}
	defer a.setState(StateIdle)

	addr, err := a.adapter.Address()
	if err != nil {
		return fmt.Errorf("auditor: read address: %w", err)
	}

	a.mu.Lock()
	switched := a.address != "" && a.address != addr
	a.address = addr
	if switched {
		// Different conversation: reset tracking, audit nothing.
		a.lastFingerprint = ""
		a.mu.Unlock()
		return nil
	}
	last := a.lastFingerprint
	a.mu.Unlock()

	id, text, err := a.adapter.LatestAssistantMessage()
	if errors.Is(err, hostpage.ErrNoMessages) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("auditor: read latest message: %w", err)
	}

	fp := fingerprint(id, text)
	if fp == last {
		return nil
	}
	if a.store != nil {
		done, err := a.store.IsProcessed(a.surfaceID, fp)
		if err != nil {
			a.log.Warnf("auditor: check fingerprint: %v", err)
		} else if done {
			a.mu.Lock()
			a.lastFingerprint = fp
			a.mu.Unlock()
			return nil
		}
	}

	// New content: wait for the stream to finish.
	a.setState(StateWaiting)
	if err := a.sleep(ctx, a.settle); err != nil {
		return err
	}
	stable, err := a.sampler.Wait(ctx, func() (string, error) {
		_, t, err := a.adapter.LatestAssistantMessage()
		if errors.Is(err, hostpage.ErrNoMessages) {
			return "", nil
		}
		return t, err
	})
	if err != nil {
		return fmt.Errorf("auditor: wait for completion: %w", err)
	}

	// The message may have grown since detection; fingerprint the final text.
	finalID, _, err := a.adapter.LatestAssistantMessage()
	if err == nil {
		fp = fingerprint(finalID, stable)
	}

	selected, err := a.identities.Selected()
	if err != nil {
		return fmt.Errorf("auditor: read selected identity: %w", err)
	}
	if selected == nil {
		// Nothing to audit against; remember the message so the next
		// mutation for it is ignored, but don't persist it as audited.
		a.mu.Lock()
		a.lastFingerprint = fp
		a.mu.Unlock()
		return nil
	}

	a.setState(StateAuditing)
	items, err := a.classifier.AuditResponse(ctx, stable, selected)
	if err != nil {
		outcome := model.FailedAudit(err)
		a.log.FailOpen("audit_response", classify.ErrClass(err), err)
		a.record(fp, outcome)
		a.markProcessed(fp)
		return nil
	}

	if len(items) == 0 {
		a.record(fp, model.CleanAudit())
		a.markProcessed(fp)
		return nil
	}

	outcome := model.ViolationAudit(items)
	a.record(fp, outcome)
	a.markProcessed(fp)
	return a.runCorrection(ctx, items, selected)
}

// runCorrection drives disposition → compose → confirm → send → decoy merge.
func (a *Auditor) runCorrection(ctx context.Context, items []model.ViolationItem, selected *model.Identity) error {
	decided, submitted, err := a.surface.Decide(ctx, items)
	if err != nil {
		return fmt.Errorf("auditor: disposition surface: %w", err)
	}
	if !submitted {
		return nil
	}

	plan := model.PlanFromDispositions(decided)
	if plan.Empty() {
		return nil
	}

	composed, err := a.composer.Compose(ctx, plan, selected)
	if err != nil {
		a.log.Warnf("auditor: compose correction: %v", err)
		return err
	}

	final, ok, err := a.surface.Confirm(ctx, composed.Message)
	if err != nil {
		return fmt.Errorf("auditor: confirmation surface: %w", err)
	}
	if !ok {
		return nil
	}

	// The correction is pre-approved: it goes out without re-screening.
	a.session.Approve(final)
	if err := a.session.Release(final); err != nil {
		return err
	}

	if len(plan.ToPollute) > 0 && len(composed.FakeValues) > 0 {
		if err := a.composer.ConfirmSent(selected.ID, composed.FakeValues); err != nil {
			a.log.Warnf("auditor: %v", err)
		}
	}
	if a.store != nil {
		if err := a.store.RecordCorrection(selected.ID, "adhoc", final); err != nil {
			a.log.Warnf("auditor: record correction: %v", err)
		}
	}
	return nil
}

// OnIdentitySwitch runs the switch-correction flow when the selected identity
// changes mid-conversation. An empty diff does nothing.
func (a *Auditor) OnIdentitySwitch(ctx context.Context, prev, next *model.Identity) (correction.SwitchResult, error) {
	res, err := a.composer.ComposeSwitch(ctx, prev, next)
	if err != nil {
		return correction.SwitchResult{}, err
	}
	if !res.HasPollution {
		return res, nil
	}

	final, ok, err := a.surface.Confirm(ctx, res.Message)
	if err != nil {
		return res, fmt.Errorf("auditor: confirmation surface: %w", err)
	}
	if !ok {
		return correction.SwitchResult{}, nil
	}
	res.Message = final

	a.session.Approve(final)
	if err := a.session.Release(final); err != nil {
		return res, err
	}
	if a.store != nil && next != nil {
		if err := a.store.RecordCorrection(next.ID, "switch", final); err != nil {
			a.log.Warnf("auditor: record correction: %v", err)
		}
	}
	return res, nil
}
