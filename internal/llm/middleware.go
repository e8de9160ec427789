package llm

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aranyoray/studybot/internal/store"
)

// Middleware decorates a Provider.
type Middleware func(Provider) Provider

// Chain applies mw around p. The first middleware is the outermost.
func Chain(p Provider, mw ...Middleware) Provider {
	for i := len(mw) - 1; i >= 0; i-- {
		p = mw[i](p)
	}
	return p
}

// decorated keeps the inner Name and Model and swaps Complete.
type decorated struct {
	Provider
	complete func(context.Context, Prompt) (*Completion, error)
}

func (d decorated) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	return d.complete(ctx, p)
}

// Timeout bounds each Complete call. A zero d is a no-op.
func Timeout(d time.Duration) Middleware {
	return func(next Provider) Provider {
		if d <= 0 {
			return next
		}
		return decorated{Provider: next, complete: func(ctx context.Context, p Prompt) (*Completion, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next.Complete(ctx, p)
		}}
	}
}

// Retry repeats transient failures with jittered exponential backoff. A
// schema mismatch is retried once; truncation and rejected requests are
// not retried.
func Retry(cfg RetryConfig) Middleware {
	return func(next Provider) Provider {
		return decorated{Provider: next, complete: func(ctx context.Context, p Prompt) (*Completion, error) {
			var err error
			invalidSeen := false
			for attempt := 0; attempt < max(cfg.MaxAttempts, 1); attempt++ {
				if attempt > 0 {
					if werr := wait(ctx, cfg.delay(attempt-1, err)); werr != nil {
						return nil, werr
					}
				}
				var c *Completion
				c, err = next.Complete(ctx, p)
				if err == nil {
					return c, nil
				}
				if !retryable(err, &invalidSeen) {
					return nil, err
				}
			}
			return nil, err
		}}
	}
}

func retryable(err error, invalidSeen *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	kind, ok := KindOf(err)
	if !ok {
		return true
	}
	switch kind {
	case Truncated, Rejected:
		return false
	case Invalid:
		if *invalidSeen {
			return false
		}
		*invalidSeen = true
	}
	return true
}

func (c RetryConfig) delay(attempt int, err error) time.Duration {
	var e *Error
	if errors.As(err, &e) && e.RetryAfter > 0 {
		return e.RetryAfter
	}
	d := float64(c.InitialWait)
	for range attempt {
		d *= c.Multiplier
	}
	if c.MaxWait > 0 && d > float64(c.MaxWait) {
		d = float64(c.MaxWait)
	}
	d += d * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(max(d, 0))
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Record logs every attempt and appends it to events. Either sink may be
// nil; a failed append never fails the request.
func Record(events store.EventRepo, log *zap.Logger) Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("llm")
	return func(next Provider) Provider {
		return decorated{Provider: next, complete: func(ctx context.Context, p Prompt) (*Completion, error) {
			start := time.Now()
			c, err := next.Complete(ctx, p)

			ev := store.LLMRequestEventData{
				Provider:    next.Name(),
				Model:       next.Model(),
				Purpose:     PurposeFrom(ctx),
				LatencyMs:   time.Since(start).Milliseconds(),
				Success:     err == nil,
				RequestBody: describe(p),
			}
			if c != nil {
				ev.Model = c.Model
				ev.InputTokens = c.InputTokens
				ev.OutputTokens = c.OutputTokens
				ev.ResponseBody = string(c.JSON)
			}
			if err != nil {
				ev.ErrorMessage = err.Error()
			}

			fields := []zap.Field{
				zap.String("provider", ev.Provider),
				zap.String("model", ev.Model),
				zap.String("purpose", ev.Purpose),
				zap.Int64("latency_ms", ev.LatencyMs),
				zap.Int("input_tokens", ev.InputTokens),
				zap.Int("output_tokens", ev.OutputTokens),
			}
			if err != nil {
				log.Warn("llm request failed", append(fields, zap.Error(err))...)
			} else {
				log.Debug("llm request", fields...)
			}

			if events != nil {
				if aerr := events.AppendLLMRequest(ctx, ev); aerr != nil {
					log.Warn("record llm request", zap.Error(aerr))
				}
			}
			return c, err
		}}
	}
}

func describe(p Prompt) string {
	var b strings.Builder
	if p.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", p.System)
	}
	fmt.Fprintf(&b, "[user]\n%s\n", p.User)
	if p.Schema != nil {
		fmt.Fprintf(&b, "\n[schema: %s]\n", p.Schema.Name)
	}
	return b.String()
}

type purposeKey struct{}

// WithPurpose labels requests made with ctx, e.g. "coach-break".
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the label set by WithPurpose, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok && v != "" {
		return v
	}
	return "unknown"
}
