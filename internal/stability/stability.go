// Package stability decides when streamed assistant output has finished.
// There is no completion signal on the page, so the only reliable check is
// sampling the rendered text until it stops changing.
package stability

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultInterval is the delay between samples.
	DefaultInterval = 500 * time.Millisecond
	// DefaultRequired is how many consecutive identical samples count as done.
	DefaultRequired = 3
)

// Sampler polls a text source until it has seen the same value enough times
// in a row.
type Sampler struct {
	Interval time.Duration
	Required int

	// sleep is replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSampler returns a sampler with the given cadence. Non-positive arguments
// fall back to the defaults.
func NewSampler(interval time.Duration, required int) *Sampler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if required <= 0 {
		required = DefaultRequired
	}
	return &Sampler{Interval: interval, Required: required, sleep: sleepCtx}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Wait samples until Required consecutive reads return the same non-empty
// value, then returns that value. It stops on context cancellation or a
// sampling error.
func (s *Sampler) Wait(ctx context.Context, sample func() (string, error)) (string, error) {
	var last string
	matches := 0

	for {
		cur, err := sample()
		if err != nil {
			return "", fmt.Errorf("stability: sample: %w", err)
		}
		if cur != "" && cur == last {
			matches++
			if matches >= s.Required {
				return cur, nil
			}
		} else {
			last = cur
			matches = 1
			if cur == "" {
				matches = 0
			}
		}
		if err := s.sleep(ctx, s.Interval); err != nil {
			return "", err
		}
	}
}
