package retrospect

import (
	"context"
	"sync"
	"time"

	"thinkflow/internal/model"
)

// SessionState is the editing session's place in its finite-state machine.
type SessionState string

const (
	SessionIdle       SessionState = "IDLE"
	SessionGenerating SessionState = "GENERATING"
	SessionReady      SessionState = "READY"
	SessionFailed     SessionState = "FAILED"
)

// DefaultPollInterval matches the reference client's refetch cadence.
const DefaultPollInterval = 1500 * time.Millisecond

// Backend is the slice of the workflow an editing session needs.
type Backend interface {
	GetState(ctx context.Context, taskID uint) (*State, error)
	EnsureDraft(ctx context.Context, taskID uint, force bool) (*EnsureResult, error)
}

// Snapshot is a point-in-time view of the session's editable fields.
type Snapshot struct {
	State   SessionState
	Title   string
	Content string
	Err     string
}

// EditSession drives one retrospective-editing session: it fetches the
// current state on open, requests a draft when none exists, and polls a
// PENDING draft until it reaches a terminal state. Local edits set a
// dirty flag so a late-arriving generation result never overwrites them;
// ForceRegenerate is the explicit opt-in that clears it.
//
// All polling stops when the session's context is cancelled or Close is
// called; no timer outlives the session.
type EditSession struct {
	mu sync.Mutex

	backend  Backend
	taskID   uint
	interval time.Duration

	state   SessionState
	title   string
	content string
	dirty   bool
	lastErr string

	cancel context.CancelFunc
	closed bool
}

// SessionOption configures an EditSession.
type SessionOption func(*EditSession)

// WithPollInterval overrides the polling cadence.
func WithPollInterval(d time.Duration) SessionOption {
	return func(s *EditSession) {
		if d > 0 {
			s.interval = d
		}
	}
}

// NewEditSession creates a session for one task.
func NewEditSession(backend Backend, taskID uint, opts ...SessionOption) *EditSession {
	s := &EditSession{
		backend:  backend,
		taskID:   taskID,
		interval: DefaultPollInterval,
		state:    SessionIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open fetches the current state once and decides what the session shows.
// A connected post wins, then a READY draft; otherwise a draft is
// requested and a PENDING result starts the polling loop.
func (s *EditSession) Open(ctx context.Context) error {
	state, err := s.backend.GetState(ctx, s.taskID)
	if err != nil {
		return err
	}

	if state.RetrospectPost != nil {
		s.populate(state.RetrospectPost.Title, state.RetrospectPost.Content, false)
		s.setState(SessionReady)
		return nil
	}

	if d := state.Draft; d != nil && d.Status == model.DraftReady && d.DraftContent != "" {
		s.populate(d.DraftTitle, d.DraftContent, false)
		s.setState(SessionReady)
		return nil
	}

	return s.ensureAndMaybePoll(ctx, false)
}

// ForceRegenerate restarts the generate-and-poll cycle, deliberately
// discarding local edits.
func (s *EditSession) ForceRegenerate(ctx context.Context) error {
	s.mu.Lock()
	s.dirty = false
	s.lastErr = ""
	s.stopPollingLocked()
	s.mu.Unlock()

	return s.ensureAndMaybePoll(ctx, true)
}

func (s *EditSession) ensureAndMaybePoll(ctx context.Context, force bool) error {
	res, err := s.backend.EnsureDraft(ctx, s.taskID, force)
	if err != nil {
		return err
	}

	switch res.Status {
	case StatusPending:
		s.setState(SessionGenerating)
		s.startPolling(ctx)
	case StatusFailed:
		s.fail(errorMessage(res))
	case StatusReady, StatusCached, StatusHasPost:
		if res.Draft != nil && res.Draft.DraftContent != "" {
			s.populate(res.Draft.DraftTitle, res.Draft.DraftContent, true)
		}
		s.setState(SessionReady)
	}
	return nil
}

func (s *EditSession) startPolling(ctx context.Context) {
	pollCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	go s.poll(pollCtx)
}

func (s *EditSession) poll(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			state, err := s.backend.GetState(ctx, s.taskID)
			if err != nil || state.Draft == nil {
				continue
			}
			d := state.Draft
			if d.Status == model.DraftPending {
				continue
			}

			if d.Status == model.DraftFailed {
				s.fail(d.ErrorMessage)
			} else if d.Status == model.DraftReady && d.DraftContent != "" {
				s.populate(d.DraftTitle, d.DraftContent, true)
				s.setState(SessionReady)
			} else {
				s.setState(SessionReady)
			}
			return
		}
	}
}

// MarkEdited records a local edit to the title or content fields.
func (s *EditSession) MarkEdited(title, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title = title
	s.content = content
	s.dirty = true
}

// Snapshot returns the current editable fields and state.
func (s *EditSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{State: s.state, Title: s.title, Content: s.content, Err: s.lastErr}
}

// Close ends the session and stops any in-flight polling.
func (s *EditSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopPollingLocked()
}

func (s *EditSession) stopPollingLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// populate fills the editable fields. When respectDirty is set the fields
// stay untouched if the user already edited them.
func (s *EditSession) populate(title, content string, respectDirty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if respectDirty && s.dirty {
		return
	}
	s.title = title
	s.content = content
}

func (s *EditSession) setState(st SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.state = st
}

func (s *EditSession) fail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if msg == "" {
		msg = "draft generation failed"
	}
	s.lastErr = msg
	s.state = SessionFailed
}

func errorMessage(res *EnsureResult) string {
	if res.Draft != nil && res.Draft.ErrorMessage != "" {
		return res.Draft.ErrorMessage
	}
	return ""
}
