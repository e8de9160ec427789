package llm

import (
	"context"
	"sync"
)

// Reply is one scripted answer.
type Reply struct {
	JSON         string
	Err          error
	InputTokens  int
	OutputTokens int
}

// Scripted replays queued replies in order and remembers every prompt.
// It backs the "scripted" provider and tests; an empty queue answers
// with Unavailable.
type Scripted struct {
	mu      sync.Mutex
	replies []Reply
	prompts []Prompt
}

func NewScripted(replies ...Reply) *Scripted {
	return &Scripted{replies: replies}
}

func (s *Scripted) Name() string  { return "scripted" }
func (s *Scripted) Model() string { return "scripted" }

func (s *Scripted) Complete(_ context.Context, p Prompt) (*Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, p)

	if len(s.replies) == 0 {
		return nil, &Error{Kind: Unavailable}
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	if r.Err != nil {
		return nil, r.Err
	}
	return finish(p, &Completion{
		JSON:         []byte(r.JSON),
		Model:        "scripted",
		InputTokens:  r.InputTokens,
		OutputTokens: r.OutputTokens,
	})
}

// Queue appends replies.
func (s *Scripted) Queue(replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, replies...)
}

// Prompts returns the prompts received so far.
func (s *Scripted) Prompts() []Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Prompt(nil), s.prompts...)
}
