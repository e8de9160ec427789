package api

import (
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aranyoray/studybot/internal/fusion"
	"github.com/aranyoray/studybot/internal/questions"
	"github.com/aranyoray/studybot/internal/session"
)

const (
	// maxIssued bounds the questions remembered per live session.
	maxIssued = 16

	// DefaultLiveIdleTimeout is how long a live session may go without a
	// request before it is dropped.
	DefaultLiveIdleTimeout = 30 * time.Minute
)

// liveSession is a running session owned by the API. The session itself
// is single-owner, so every access holds mu.
type liveSession struct {
	mu   sync.Mutex
	sess *session.Session

	// fluency is the math fluency when the session began; rewards
	// compare question difficulty against it.
	fluency float64

	// pending is the question on screen. Status polls return it again
	// until it is answered or skipped.
	pending *questions.Question
	issued  map[string]questions.Question
	order   []string
	seen    map[string]bool
	rng     *rand.Rand

	// closing is the analysis taken when the session ended. saved is set
	// once the ended session was persisted; until then /end may retry.
	closing *fusion.Analysis
	saved   bool

	touched atomic.Int64
}

// touch records activity at t.
func (l *liveSession) touch(t time.Time) {
	l.touched.Store(t.UnixNano())
}

func (l *liveSession) idleSince(t time.Time) time.Duration {
	return t.Sub(time.Unix(0, l.touched.Load()))
}

// next returns the pending question, generating and issuing a new one when
// nothing is pending.
func (l *liveSession) next() questions.Question {
	if l.pending != nil {
		return *l.pending
	}
	q := questions.Generate(l.sess.NextQuestion(), l.rng)
	l.issue(q)
	l.pending = &q
	return q
}

// issue remembers q so a later answer can be graded server-side. The
// oldest question is forgotten once maxIssued are held.
func (l *liveSession) issue(q questions.Question) {
	if l.issued == nil {
		l.issued = make(map[string]questions.Question)
	}
	if l.seen == nil {
		l.seen = make(map[string]bool)
	}
	if len(l.order) >= maxIssued {
		delete(l.issued, l.order[0])
		l.order = l.order[1:]
	}
	l.issued[q.ID] = q
	l.order = append(l.order, q.ID)
	l.seen[q.ID] = true
}

// take returns and forgets an issued question.
func (l *liveSession) take(id string) (questions.Question, bool) {
	q, ok := l.issued[id]
	if !ok {
		return questions.Question{}, false
	}
	delete(l.issued, id)
	if i := slices.Index(l.order, id); i >= 0 {
		l.order = slices.Delete(l.order, i, i+1)
	}
	return q, true
}

type registry struct {
	mu       sync.RWMutex
	sessions map[string]*liveSession
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*liveSession)}
}

// add registers l unless its ID is taken.
func (r *registry) add(l *liveSession) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[l.sess.ID]; ok {
		return false
	}
	r.sessions[l.sess.ID] = l
	return true
}

func (r *registry) get(id string) (*liveSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.sessions[id]
	return l, ok
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// sweep drops sessions idle for at least idle and returns their IDs.
func (r *registry) sweep(now time.Time, idle time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var dropped []string
	for id, l := range r.sessions {
		if l.idleSince(now) >= idle {
			delete(r.sessions, id)
			dropped = append(dropped, id)
		}
	}
	return dropped
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
