package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aranyoray/studybot/internal/store"
)

var fastRetry = RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond, Multiplier: 2}

const okReply = `{"message":"hi","tip":"rest"}`

func TestRetry_RecoversFromTransientErrors(t *testing.T) {
	s := NewScripted(
		Reply{Err: &Error{Kind: Unavailable}},
		Reply{Err: &Error{Kind: RateLimited}},
		Reply{JSON: okReply},
	)
	c, err := Chain(s, Retry(fastRetry)).Complete(context.Background(), Prompt{User: "x", Schema: tipSchema})
	require.NoError(t, err)
	assert.JSONEq(t, okReply, string(c.JSON))
	assert.Len(t, s.Prompts(), 3)
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	s := NewScripted()
	_, err := Chain(s, Retry(fastRetry)).Complete(context.Background(), Prompt{User: "x"})
	kind, _ := KindOf(err)
	assert.Equal(t, Unavailable, kind)
	assert.Len(t, s.Prompts(), 3)
}

func TestRetry_InvalidRetriedOnce(t *testing.T) {
	s := NewScripted(Reply{JSON: `{}`}, Reply{JSON: `{}`}, Reply{JSON: okReply})
	_, err := Chain(s, Retry(fastRetry)).Complete(context.Background(), Prompt{User: "x", Schema: tipSchema})
	kind, _ := KindOf(err)
	assert.Equal(t, Invalid, kind)
	assert.Len(t, s.Prompts(), 2)
}

func TestRetry_NoRetryForPermanentErrors(t *testing.T) {
	for _, k := range []ErrorKind{Truncated, Rejected} {
		s := NewScripted(Reply{Err: &Error{Kind: k}}, Reply{JSON: okReply})
		_, err := Chain(s, Retry(fastRetry)).Complete(context.Background(), Prompt{User: "x"})
		got, _ := KindOf(err)
		assert.Equal(t, k, got)
		assert.Len(t, s.Prompts(), 1, k.String())
	}
}

func TestRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewScripted(Reply{Err: context.Canceled}, Reply{JSON: okReply})
	_, err := Chain(s, Retry(fastRetry)).Complete(ctx, Prompt{User: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, s.Prompts(), 1)
}

func TestRetryDelay(t *testing.T) {
	cfg := RetryConfig{InitialWait: time.Second, MaxWait: 3 * time.Second, Multiplier: 2}
	assert.InDelta(t, float64(time.Second), float64(cfg.delay(0, nil)), float64(200*time.Millisecond))
	assert.InDelta(t, float64(3*time.Second), float64(cfg.delay(4, nil)), float64(600*time.Millisecond))
	assert.Equal(t, 7*time.Second, cfg.delay(0, &Error{Kind: RateLimited, RetryAfter: 7 * time.Second}))
}

type blocking struct{ *Scripted }

func (b blocking) Complete(ctx context.Context, _ Prompt) (*Completion, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestTimeout(t *testing.T) {
	p := Chain(blocking{NewScripted()}, Timeout(10*time.Millisecond))
	_, err := p.Complete(context.Background(), Prompt{User: "x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "scripted", p.Name())

	s := NewScripted()
	assert.Same(t, s, Timeout(0)(s))
}

type recordingEvents struct {
	store.EventRepo
	got []store.LLMRequestEventData
	err error
}

func (r *recordingEvents) AppendLLMRequest(_ context.Context, d store.LLMRequestEventData) error {
	r.got = append(r.got, d)
	return r.err
}

func TestRecord(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	events := &recordingEvents{err: errors.New("disk full")}
	s := NewScripted(
		Reply{JSON: okReply, InputTokens: 12, OutputTokens: 4},
		Reply{Err: &Error{Kind: RateLimited}},
	)
	p := Chain(s, Record(events, zap.New(core)))
	ctx := WithPurpose(context.Background(), "coach-break")

	_, err := p.Complete(ctx, Prompt{System: "sys", User: "hello", Schema: tipSchema})
	require.NoError(t, err, "append failure must not fail the request")
	_, err = p.Complete(ctx, Prompt{User: "again"})
	require.Error(t, err)

	require.Len(t, events.got, 2)
	first := events.got[0]
	assert.Equal(t, "scripted", first.Provider)
	assert.Equal(t, "coach-break", first.Purpose)
	assert.True(t, first.Success)
	assert.Equal(t, 12, first.InputTokens)
	assert.Contains(t, first.RequestBody, "[user]\nhello")
	assert.Contains(t, first.RequestBody, "[schema: test-tip]")
	assert.JSONEq(t, okReply, first.ResponseBody)

	second := events.got[1]
	assert.False(t, second.Success)
	assert.Contains(t, second.ErrorMessage, "rate limited")

	assert.Equal(t, 1, logs.FilterMessage("llm request failed").Len())
	assert.Equal(t, 2, logs.FilterMessage("record llm request").Len())
}

func TestPurposeFrom(t *testing.T) {
	assert.Equal(t, "unknown", PurposeFrom(context.Background()))
	assert.Equal(t, "coach-session-end", PurposeFrom(WithPurpose(context.Background(), "coach-session-end")))
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(context.Background(), DefaultConfig(), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, p)

	cfg := DefaultConfig()
	cfg.Provider = ProviderScripted
	p, err = NewProvider(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "scripted", p.Name())

	cfg.Provider = "anthropic"
	_, err = NewProvider(context.Background(), cfg, nil, nil)
	assert.ErrorContains(t, err, "STUDYBOT_ANTHROPIC_API_KEY")
}
