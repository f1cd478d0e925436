// Package guard gates outbound submissions through privacy screening. One
// Session exists per compose surface; all its state (approved hashes,
// re-entrancy flag) lives on the session, never in package globals.
package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/januspriv/janus/internal/augment"
	"github.com/januspriv/janus/internal/classify"
	"github.com/januspriv/janus/internal/hostpage"
	"github.com/januspriv/janus/internal/logging"
	"github.com/januspriv/janus/internal/model"
	"github.com/januspriv/janus/internal/texthash"
)

// releaseDelay separates setting the compose text from the programmatic
// submit, giving the host page time to process its input event.
const releaseDelay = 75 * time.Millisecond

// IdentitySource yields the currently selected identity, or nil.
type IdentitySource interface {
	Selected() (*model.Identity, error)
}

// Recorder persists screening outcomes to the decision log.
type Recorder interface {
	RecordScreen(textHash string, outcome model.ScreenOutcome, action string)
}

// Request is one intercepted submission.
type Request struct {
	Text string
	// History is the visible transcript, oldest first. Snapshot and
	// truncated before it reaches the classifier.
	History []model.ChatMessage
}

// Result is the guard's verdict on a submission.
type Result struct {
	Proceed bool
	Text    string
	Outcome model.ScreenOutcome
}

// Session is the per-surface outbound guard.
type Session struct {
	classifier classify.Service
	adapter    hostpage.Adapter
	surface    DecisionSurface
	augmentor  *augment.Augmentor
	identities IdentitySource
	recorder   Recorder
	log        *logging.Logger

	mu               sync.Mutex
	approved         map[string]struct{}
	contextProcessed map[string]struct{}
	programmatic     bool

	// sleep is replaceable in tests.
	sleep func(d time.Duration)
}

// NewSession builds a guard session. augmentor may be nil to disable context
// augmentation; recorder may be nil to disable the decision log.
func NewSession(classifier classify.Service, adapter hostpage.Adapter, surface DecisionSurface, augmentor *augment.Augmentor, identities IdentitySource, recorder Recorder, log *logging.Logger) *Session {
	return &Session{
		classifier:       classifier,
		adapter:          adapter,
		surface:          surface,
		augmentor:        augmentor,
		identities:       identities,
		recorder:         recorder,
		log:              log,
		approved:         make(map[string]struct{}),
		contextProcessed: make(map[string]struct{}),
		sleep:            time.Sleep,
	}
}

// Approve marks text as already screened, so the next interception of it
// passes straight through. Used for composed corrections and programmatic
// resubmission.
func (s *Session) Approve(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approved[texthash.Sum(text)] = struct{}{}
}

func (s *Session) isApproved(hash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.approved[hash]
	return ok
}

func (s *Session) markContextProcessed(hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contextProcessed[hash] = struct{}{}
}

func (s *Session) isContextProcessed(hash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.contextProcessed[hash]
	return ok
}

func (s *Session) setProgrammatic(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.programmatic = v
}

// InProgrammaticSubmit reports whether the session is currently executing its
// own release, so callers can let the host page's submit pass untouched.
func (s *Session) InProgrammaticSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.programmatic
}

func (s *Session) record(hash string, outcome model.ScreenOutcome, action string) {
	if s.recorder != nil {
		s.recorder.RecordScreen(hash, outcome, action)
	}
}

// Intercept runs one submission through the screening pipeline and returns
// whether and with what text it may proceed.
func (s *Session) Intercept(ctx context.Context, req Request) (Result, error) {
	if s.InProgrammaticSubmit() {
		return Result{Proceed: true, Text: req.Text, Outcome: model.CleanScreen()}, nil
	}

	text := req.Text
	hash := texthash.Sum(text)
	if s.isApproved(hash) {
		return Result{Proceed: true, Text: text, Outcome: model.CleanScreen()}, nil
	}

	selected, err := s.identities.Selected()
	if err != nil {
		s.log.Warnf("guard: read selected identity: %v", err)
		selected = nil
	}

	// Context augmentation runs once per text, before screening, so the
	// augmented prompt is itself screened in this same pass.
	if s.augmentor != nil && !s.isContextProcessed(hash) && selected != nil && len(selected.Characteristics) > 0 {
		s.markContextProcessed(hash)
		res := s.augmentor.Augment(ctx, text, selected)
		if res.NeedsContext && res.AugmentedPrompt != text {
			text = res.AugmentedPrompt
			hash = texthash.Sum(text)
			s.markContextProcessed(hash)
		}
	}

	history := model.SnapshotTranscript(req.History)

	s.surface.Loading(text)

	items, err := s.classifier.Detect(ctx, text, selected, history)
	if err != nil {
		// Fail-open: release the text, but record the degradation as its
		// own outcome kind so it never masquerades as a clean pass.
		outcome := model.FailedScreen(err)
		s.log.FailOpen("detect", classify.ErrClass(err), err)
		s.Approve(text)
		s.surface.Acknowledge(outcome)
		s.record(hash, outcome, "fail_open")
		return Result{Proceed: true, Text: text, Outcome: outcome}, nil
	}

	if len(items) == 0 {
		outcome := model.CleanScreen()
		s.Approve(text)
		s.surface.Acknowledge(outcome)
		s.record(hash, outcome, "clean")
		return Result{Proceed: true, Text: text, Outcome: outcome}, nil
	}

	outcome := model.FlaggedScreen(items)
	decision, err := s.surface.Resolve(ctx, text, items)
	if err != nil {
		// Surface went away mid-decision. Nothing is sent.
		s.record(hash, outcome, "surface_lost")
		return Result{Proceed: false, Outcome: outcome}, nil
	}

	switch decision.Action {
	case ActionSendOriginal:
		s.Approve(text)
		s.record(hash, outcome, "send_original")
		return Result{Proceed: true, Text: text, Outcome: outcome}, nil

	case ActionRewriteSend:
		if len(decision.Checked) == 0 {
			s.Approve(text)
			s.record(hash, outcome, "send_original")
			return Result{Proceed: true, Text: text, Outcome: outcome}, nil
		}
		rewritten, err := s.classifier.Rewrite(ctx, text, decision.Checked, selected)
		if err != nil {
			// A failed rewrite is not released; the user's text stays put.
			s.record(hash, outcome, "rewrite_failed")
			return Result{Proceed: false, Outcome: outcome}, fmt.Errorf("guard: rewrite: %w", err)
		}
		s.logRewriteLocality(text, rewritten, decision.Checked)
		s.Approve(rewritten)
		s.record(hash, outcome, "rewrite_send")
		return Result{Proceed: true, Text: rewritten, Outcome: outcome}, nil

	default:
		s.record(hash, outcome, "cancel")
		return Result{Proceed: false, Outcome: outcome}, nil
	}
}

// Release writes text to the compose field and performs the programmatic
// submit, guarded by the re-entrancy flag. An adapter error aborts and leaves
// the field as it was.
func (s *Session) Release(text string) error {
	if err := s.adapter.SetComposeText(text); err != nil {
		return fmt.Errorf("guard: release: %w", err)
	}
	s.sleep(releaseDelay)

	s.setProgrammatic(true)
	defer s.setProgrammatic(false)
	if err := s.adapter.Submit(); err != nil {
		return fmt.Errorf("guard: release: %w", err)
	}
	return nil
}

// logRewriteLocality measures how much of the text the rewrite actually
// touched. Large edit fractions relative to the flagged spans suggest the
// model rewrote more than it was asked to.
func (s *Session) logRewriteLocality(original, rewritten string, checked []model.DetectedItem) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(original, rewritten, false)
	changed := 0
	for _, d := range diffs {
		if d.Type != diffmatchpatch.DiffEqual {
			changed += len([]rune(d.Text))
		}
	}
	flagged := 0
	for _, it := range checked {
		flagged += len([]rune(it.Text))
	}
	total := len([]rune(original))
	if total == 0 {
		return
	}
	s.log.Infof("guard: rewrite locality changed=%d flagged=%d total=%d ratio=%.2f",
		changed, flagged, total, float64(changed)/float64(total))
}
