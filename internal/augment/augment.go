// Package augment optionally enriches outbound prompts with identity context
// before screening. It is strictly best-effort: any classifier failure or
// timeout passes the original text through unchanged.
package augment

import (
	"context"
	"time"

	"github.com/januspriv/janus/internal/classify"
	"github.com/januspriv/janus/internal/logging"
	"github.com/januspriv/janus/internal/model"
)

// DefaultTimeout bounds the relevance check. The check runs on the user's
// submit path, so it must never hang the pipeline.
const DefaultTimeout = 10 * time.Second

// Augmentor runs the context-relevance check with a hard timeout.
type Augmentor struct {
	classifier classify.Service
	timeout    time.Duration
	log        *logging.Logger
}

// New returns an augmentor. A non-positive timeout falls back to the default.
func New(classifier classify.Service, timeout time.Duration, log *logging.Logger) *Augmentor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Augmentor{classifier: classifier, timeout: timeout, log: log}
}

// Augment decides whether text benefits from identity context and returns the
// result. Failures and timeouts degrade to "no context needed, original
// text"; the degradation is logged but never surfaces as an error.
func (a *Augmentor) Augment(ctx context.Context, text string, identity *model.Identity) classify.ContextResult {
	passthrough := classify.ContextResult{NeedsContext: false, AugmentedPrompt: text}
	if identity == nil || len(identity.Characteristics) == 0 {
		return passthrough
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	res, err := a.classifier.CheckContext(ctx, text, identity)
	if err != nil {
		class := classify.ErrClass(err)
		if ctx.Err() != nil {
			class = "timeout"
		}
		a.log.FailOpen("check_context", class, err)
		return passthrough
	}
	if !res.NeedsContext || res.AugmentedPrompt == "" {
		return passthrough
	}
	return res
}
