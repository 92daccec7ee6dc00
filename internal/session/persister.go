package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Typenine/Discord-Meeting-App-sub000/internal/meeting"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/repository"
)

// PersistenceHealth reports durable-save failures. Failures never reach the
// caller of a mutation; this is the only place they surface.
type PersistenceHealth struct {
	ConsecutiveFailures int        `json:"consecutiveFailures"`
	TotalFailures       int        `json:"totalFailures"`
	LastError           string     `json:"lastError,omitempty"`
	LastSuccessAt       *time.Time `json:"lastSuccessAt,omitempty"`
}

// persister saves session copies in the background. Only the newest pending
// copy of each session is kept, so a burst of mutations costs one write.
type persister struct {
	repo repository.SessionRepository
	now  func() time.Time

	mu      sync.Mutex
	pending map[string]*meeting.Session
	health  PersistenceHealth

	wake    chan struct{}
	batchMu sync.Mutex

	// retryBase is the first delay before a failed batch is retried without a
	// new save arriving. It doubles up to maxRetryDelay.
	retryBase time.Duration
}

const (
	defaultRetryDelay = 2 * time.Second
	maxRetryDelay     = time.Minute
)

func newPersister(repo repository.SessionRepository, now func() time.Time) *persister {
	return &persister{
		repo:    repo,
		now:     now,
		pending:   make(map[string]*meeting.Session),
		wake:      make(chan struct{}, 1),
		retryBase: defaultRetryDelay,
	}
}

func (p *persister) enqueue(sess *meeting.Session) {
	p.mu.Lock()
	if cur, ok := p.pending[sess.ID]; !ok || cur.Revision <= sess.Revision {
		p.pending[sess.ID] = sess
	}
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *persister) run(ctx context.Context) {
	var retry <-chan time.Time
	delay := p.retryBase
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.wake:
		case <-retry:
		}
		if err := p.drain(ctx); err != nil {
			retry = time.After(delay)
			delay = min(delay*2, maxRetryDelay)
			continue
		}
		retry = nil
		delay = p.retryBase
	}
}

// drain saves everything pending. Failed saves are put back unless a newer
// copy arrived meanwhile.
func (p *persister) drain(ctx context.Context) error {
	p.batchMu.Lock()
	defer p.batchMu.Unlock()

	p.mu.Lock()
	batch := p.pending
	p.pending = make(map[string]*meeting.Session)
	p.mu.Unlock()

	var errs []error
	for _, sess := range batch {
		err := p.repo.SaveSession(ctx, sess)
		p.record(sess, err)
		if err != nil {
			errs = append(errs, err)
			p.requeue(sess)
		}
	}
	return errors.Join(errs...)
}

func (p *persister) requeue(sess *meeting.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, newer := p.pending[sess.ID]; !newer {
		p.pending[sess.ID] = sess
	}
}

func (p *persister) record(sess *meeting.Session, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.health.ConsecutiveFailures++
		p.health.TotalFailures++
		p.health.LastError = err.Error()
		slog.Error("failed to persist session",
			"error", err,
			"session_id", sess.ID,
			"revision", sess.Revision,
			"consecutive_failures", p.health.ConsecutiveFailures)
		return
	}
	p.health.ConsecutiveFailures = 0
	at := p.now()
	p.health.LastSuccessAt = &at
}

func (p *persister) snapshot() (PersistenceHealth, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h := p.health
	if h.LastSuccessAt != nil {
		at := *h.LastSuccessAt
		h.LastSuccessAt = &at
	}
	return h, len(p.pending)
}
