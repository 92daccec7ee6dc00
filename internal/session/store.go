package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Typenine/Discord-Meeting-App-sub000/internal/discord"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/meeting"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/repository"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/webhook"
	"github.com/google/uuid"
)

const publishTimeout = 30 * time.Second

// ErrMinutesNotFound is returned until an ended session's minutes are stored.
var ErrMinutesNotFound = &meeting.Error{Kind: meeting.KindNotFound, Code: "minutes_not_found"}

type Options struct {
	Allow            meeting.AllowList
	TimerPolicy      meeting.TimerPolicy
	LongPollMaxWait  time.Duration
	Location         *time.Location
	Timezone         string
	MinutesChannelID string
	Now              func() time.Time
}

// Result is returned by every store operation. Unchanged results carry only
// the revision.
type Result struct {
	SessionID string            `json:"sessionId,omitempty"`
	State     *meeting.Snapshot `json:"state,omitempty"`
	Revision  int64             `json:"revision"`
	ServerNow int64             `json:"serverNow"`
	Unchanged bool              `json:"unchanged,omitempty"`
	Minutes   string            `json:"minutes,omitempty"`
}

type StateQuery struct {
	// SinceRevision is the last revision the caller has seen. Nil asks for the
	// full state unconditionally.
	SinceRevision *int64
	UserID        string
	// Wait holds the request open until the revision advances. It is capped by
	// Options.LongPollMaxWait.
	Wait time.Duration
}

type Health struct {
	Sessions     int               `json:"sessions"`
	PendingSaves int               `json:"pendingSaves"`
	Persistence  PersistenceHealth `json:"persistence"`
}

type entry struct {
	mu      sync.Mutex
	session *meeting.Session
	// changed is closed and replaced on every committed mutation.
	changed chan struct{}
}

// Store is the authoritative table of HTTP sessions. Each session is guarded
// by its own lock; a mutation is applied to a copy which replaces the stored
// session only on success, then the revision is bumped and a save is queued.
type Store struct {
	repo     repository.Repository
	webhook  webhook.Sender
	notifier discord.Notifier
	opts     Options
	persist  *persister

	mu       sync.RWMutex
	sessions map[string]*entry

	publishing sync.WaitGroup
}

func NewStore(repo repository.Repository, wh webhook.Sender, notifier discord.Notifier, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Timezone == "" {
		opts.Timezone = opts.Location.String()
	}
	if opts.TimerPolicy == (meeting.TimerPolicy{}) {
		opts.TimerPolicy = meeting.DefaultTimerPolicy
	}
	return &Store{
		repo:     repo,
		webhook:  wh,
		notifier: notifier,
		opts:     opts,
		persist:  newPersister(repo, opts.Now),
		sessions: make(map[string]*entry),
	}
}

// Load restores every active session from the repository.
func (s *Store) Load(ctx context.Context) (int, error) {
	list, err := s.repo.ListActiveSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active sessions: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range list {
		s.sessions[sess.ID] = newEntry(sess)
	}
	return len(list), nil
}

// Run saves queued sessions until ctx is done.
func (s *Store) Run(ctx context.Context) {
	s.persist.run(ctx)
}

// Flush waits for in-flight minutes publishing and saves every pending session.
func (s *Store) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.publishing.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.persist.drain(ctx)
}

func (s *Store) Health() Health {
	s.mu.RLock()
	n := len(s.sessions)
	s.mu.RUnlock()
	h, pending := s.persist.snapshot()
	return Health{Sessions: n, PendingSaves: pending, Persistence: h}
}

// Start creates a session hosted by userID. The global host policy is checked
// before anything is allocated.
func (s *Store) Start(userID, username string) (Result, error) {
	if userID == "" {
		return Result{}, meeting.ErrMissingUserID
	}
	if !s.opts.Allow.Allows(userID) {
		return Result{}, meeting.ErrUnauthorizedHost
	}
	now := s.opts.Now()
	sess := meeting.New(uuid.NewString(), meeting.AllowListHost(userID), now)
	sess.Touch(userID, username, now)

	s.mu.Lock()
	s.sessions[sess.ID] = newEntry(sess)
	s.mu.Unlock()
	s.persist.enqueue(sess.Clone())
	slog.Info("session started", "session_id", sess.ID, "host_user_id", userID)

	res := s.result(sess, now)
	res.SessionID = sess.ID
	return res, nil
}

// Join records userID in attendance. Joining an ended session only reads it.
func (s *Store) Join(id, userID, username string) (Result, error) {
	if userID == "" {
		return Result{}, meeting.ErrMissingUserID
	}
	e, err := s.lookup(context.Background(), id)
	if err != nil {
		return Result{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session.Ended() {
		return s.result(e.session, s.opts.Now()), nil
	}
	return s.commitLocked(e, userID, false, func(sess *meeting.Session, now time.Time) error {
		sess.Touch(userID, username, now)
		return nil
	})
}

// State returns the session unless the caller already has its revision, in
// which case it returns an unchanged marker. With a wait, the call blocks
// until the revision advances, the wait elapses or ctx is done.
func (s *Store) State(ctx context.Context, id string, q StateQuery) (Result, error) {
	e, err := s.lookup(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if q.UserID != "" {
		e.mu.Lock()
		e.session.Heartbeat(q.UserID, s.opts.Now())
		e.mu.Unlock()
	}

	var deadline <-chan time.Time
	if wait := min(q.Wait, s.opts.LongPollMaxWait); wait > 0 && q.SinceRevision != nil {
		t := time.NewTimer(wait)
		defer t.Stop()
		deadline = t.C
	}
	for {
		e.mu.Lock()
		now := s.opts.Now()
		if q.SinceRevision == nil || e.session.Revision > *q.SinceRevision {
			res := s.result(e.session, now)
			e.mu.Unlock()
			return res, nil
		}
		unchanged := Result{Revision: e.session.Revision, ServerNow: now.UnixMilli(), Unchanged: true}
		changed := e.changed
		e.mu.Unlock()

		if deadline == nil {
			return unchanged, nil
		}
		select {
		case <-changed:
		case <-deadline:
			return unchanged, nil
		case <-ctx.Done():
			return unchanged, nil
		}
	}
}

func (s *Store) AddItem(id, userID string, in meeting.ItemInput) (Result, error) {
	return s.mutate(id, userID, true, func(sess *meeting.Session, _ time.Time) error {
		_, err := sess.AddItem(in)
		return err
	})
}

func (s *Store) UpdateItem(id, userID, itemID string, patch meeting.ItemPatch) (Result, error) {
	return s.mutate(id, userID, true, func(sess *meeting.Session, _ time.Time) error {
		_, err := sess.UpdateItem(itemID, patch)
		return err
	})
}

func (s *Store) DeleteItem(id, userID, itemID string) (Result, error) {
	return s.mutate(id, userID, true, func(sess *meeting.Session, _ time.Time) error {
		return sess.DeleteItem(itemID)
	})
}

func (s *Store) SetActive(id, userID, itemID string) (Result, error) {
	return s.mutate(id, userID, true, func(sess *meeting.Session, now time.Time) error {
		if !sess.SetActiveItem(itemID, now) {
			return meeting.ErrItemNotFound
		}
		return nil
	})
}

func (s *Store) Next(id, userID string) (Result, error) {
	return s.mutate(id, userID, true, func(sess *meeting.Session, now time.Time) error {
		return sess.NextItem(now)
	})
}

func (s *Store) Prev(id, userID string) (Result, error) {
	return s.mutate(id, userID, true, func(sess *meeting.Session, now time.Time) error {
		return sess.PrevItem(now)
	})
}

func (s *Store) Reorder(id, userID string, orderedIDs []string) (Result, error) {
	return s.mutate(id, userID, true, func(sess *meeting.Session, _ time.Time) error {
		return sess.ReorderItems(orderedIDs)
	})
}

func (s *Store) TimerStart(id, userID string) (Result, error) {
	return s.mutate(id, userID, true, func(sess *meeting.Session, now time.Time) error {
		return sess.TimerStart(now)
	})
}

func (s *Store) TimerPause(id, userID string) (Result, error) {
	return s.mutate(id, userID, true, func(sess *meeting.Session, now time.Time) error {
		return sess.TimerPause(now)
	})
}

func (s *Store) TimerResume(id, userID string) (Result, error) {
	return s.mutate(id, userID, true, func(sess *meeting.Session, now time.Time) error {
		return sess.TimerResume(now)
	})
}

func (s *Store) TimerReset(id, userID string) (Result, error) {
	return s.mutate(id, userID, true, func(sess *meeting.Session, _ time.Time) error {
		sess.TimerReset()
		return nil
	})
}

func (s *Store) TimerExtend(id, userID string, seconds int) (Result, error) {
	return s.mutate(id, userID, true, func(sess *meeting.Session, now time.Time) error {
		return sess.ExtendTimer(seconds, s.opts.TimerPolicy, now)
	})
}

func (s *Store) VoteOpen(id, userID, question string, options []string, linkedAgendaID string) (Result, error) {
	return s.mutate(id, userID, true, func(sess *meeting.Session, _ time.Time) error {
		return sess.OpenVote(question, options, linkedAgendaID)
	})
}

// VoteCast is open to every attendee.
func (s *Store) VoteCast(id, userID, optionSelector string) (Result, error) {
	return s.mutate(id, userID, false, func(sess *meeting.Session, _ time.Time) error {
		return sess.CastVote(userID, optionSelector)
	})
}

func (s *Store) VoteClose(id, userID string) (Result, error) {
	return s.mutate(id, userID, true, func(sess *meeting.Session, now time.Time) error {
		if _, ok := sess.CloseVote(now); !ok {
			return meeting.ErrVoteNotOpen
		}
		return nil
	})
}

// End freezes the session, renders its minutes and publishes them in the
// background.
func (s *Store) End(id, userID string) (Result, error) {
	var final *meeting.Session
	res, err := s.mutate(id, userID, true, func(sess *meeting.Session, now time.Time) error {
		if err := sess.End(now); err != nil {
			return err
		}
		sess.Minutes = RenderMinutes(sess.Snapshot(now), s.opts.Location, s.opts.Timezone)
		final = sess.Clone()
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	res.Minutes = final.Minutes
	slog.Info("session ended", "session_id", final.ID, "revision", res.Revision)
	s.publishMinutes(final)
	return res, nil
}

// Minutes returns the stored minutes of an ended session. Publishing is
// asynchronous, so a read right after End may still miss.
func (s *Store) Minutes(ctx context.Context, id string) (repository.MinutesRecord, error) {
	rec, err := s.repo.GetMinutes(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.MinutesRecord{}, ErrMinutesNotFound
	}
	if err != nil {
		return repository.MinutesRecord{}, fmt.Errorf("get minutes %s: %w", id, err)
	}
	return *rec, nil
}

func (s *Store) publishMinutes(sess *meeting.Session) {
	s.publishing.Add(1)
	go func() {
		defer s.publishing.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		snap := sess.Snapshot(s.opts.Now())
		payload := buildMinutesWebhookPayload(snap, s.opts.Location, s.opts.Timezone, sess.Minutes)
		filename := minutesFilename(sess.ID)

		if rec, err := minutesRecord(filename, payload, s.opts.Now()); err != nil {
			slog.Error("failed to encode minutes payload", "error", err, "session_id", sess.ID)
		} else if err := s.repo.SaveMinutes(ctx, rec); err != nil {
			slog.Error("failed to save minutes", "error", err, "session_id", sess.ID)
		}
		if err := s.webhook.SendMinutes(ctx, payload); err != nil {
			slog.Error("failed to send minutes webhook", "error", err, "session_id", sess.ID)
		}
		if s.opts.MinutesChannelID == "" {
			return
		}
		if err := s.notifier.SendChannelMessageWithFile(ctx, discord.FileMessage{
			ChannelID: s.opts.MinutesChannelID,
			Content:   messageMinutesAttachment,
			Filename:  filename,
			FileBody:  []byte(sess.Minutes),
		}); err != nil {
			slog.Error("failed to post minutes to discord", "error", err, "session_id", sess.ID)
		}
	}()
}

// mutate runs the host-gated (or attendee) mutation contract: look up,
// reject ended sessions, authorize, apply to a copy, commit, bump, persist.
func (s *Store) mutate(id, userID string, hostOnly bool, apply func(*meeting.Session, time.Time) error) (Result, error) {
	if userID == "" {
		return Result{}, meeting.ErrMissingUserID
	}
	e, err := s.lookup(context.Background(), id)
	if err != nil {
		return Result{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return s.commitLocked(e, userID, hostOnly, apply)
}

// commitLocked must be called with e.mu held.
func (s *Store) commitLocked(e *entry, userID string, hostOnly bool, apply func(*meeting.Session, time.Time) error) (Result, error) {
	if e.session.Ended() {
		return Result{}, meeting.ErrSessionEnded
	}
	if hostOnly {
		if err := e.session.Host.Authorize(meeting.Credential{UserID: userID}, s.opts.Allow); err != nil {
			return Result{}, err
		}
	}
	now := s.opts.Now()
	next := e.session.Clone()
	if err := apply(next, now); err != nil {
		return Result{}, err
	}
	next.Bump(now)
	e.session = next
	close(e.changed)
	e.changed = make(chan struct{})
	s.persist.enqueue(next.Clone())
	return s.result(next, now), nil
}

// lookup returns the live entry for id. Sessions missing from the table, such
// as ended ones after a restart, are read back from the repository.
func (s *Store) lookup(ctx context.Context, id string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return e, nil
	}
	if id == "" {
		return nil, meeting.ErrSessionNotFound
	}
	sess, err := s.repo.LoadSession(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, meeting.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[id]; ok {
		return e, nil
	}
	e = newEntry(sess)
	s.sessions[id] = e
	slog.Debug("session restored from repository", "session_id", id, "revision", sess.Revision)
	return e, nil
}

func (s *Store) result(sess *meeting.Session, now time.Time) Result {
	snap := sess.Snapshot(now)
	return Result{State: &snap, Revision: sess.Revision, ServerNow: now.UnixMilli()}
}

func newEntry(sess *meeting.Session) *entry {
	return &entry{session: sess, changed: make(chan struct{})}
}

func minutesRecord(filename string, payload webhook.MinutesWebhookPayload, now time.Time) (repository.MinutesRecord, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return repository.MinutesRecord{}, err
	}
	return repository.MinutesRecord{
		SessionID:          payload.SessionID,
		Filename:           filename,
		Text:               payload.Minutes,
		WebhookPayloadJSON: raw,
		CreatedAt:          now,
	}, nil
}
