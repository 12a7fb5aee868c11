package server

import (
	"sync"
	"time"

	"atsresume/internal/errors"
	"atsresume/internal/notify"
	"atsresume/internal/types"
	"atsresume/internal/upload"
	"atsresume/internal/workflow"

	"github.com/google/uuid"
)

const defaultSessionTTL = 30 * time.Minute

// session is one generated result and the controller that presents it.
// Flashes collect notifications until the next page render. A draft
// session only carries the upload of a form that failed to submit.
type session struct {
	id       string
	view     types.ResultView
	results  *workflow.ResultsController
	flashes  *notify.Recorder
	upload   *upload.File
	lastSeen time.Time
}

// SessionStore keeps generated results addressable by a random id until
// they have been idle for the TTL.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
	ttl      time.Duration
	done     chan struct{}
	once     sync.Once
	logger   *errors.Logger
	now      func() time.Time
}

// NewSessionStore creates a store and starts its expiry goroutine.
func NewSessionStore(ttl time.Duration, logger *errors.Logger) *SessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	st := &SessionStore{
		sessions: make(map[string]*session),
		ttl:      ttl,
		done:     make(chan struct{}),
		logger:   logger,
		now:      time.Now,
	}

	interval := ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	go st.cleanupRoutine(interval)
	return st
}

// add registers a session under a fresh id.
func (st *SessionStore) add(sess *session) string {
	sess.id = uuid.NewString()

	st.mu.Lock()
	defer st.mu.Unlock()
	sess.lastSeen = st.now()
	st.sessions[sess.id] = sess
	return sess.id
}

// get returns the live session for id and refreshes its idle timer.
func (st *SessionStore) get(id string) *session {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[id]
	if !ok {
		return nil
	}
	now := st.now()
	if now.Sub(sess.lastSeen) > st.ttl {
		delete(st.sessions, id)
		return nil
	}
	sess.lastSeen = now
	return sess
}

// remove drops the session for id, if any.
func (st *SessionStore) remove(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len is the number of stored sessions, expired or not.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// TTL is the idle lifetime of a session.
func (st *SessionStore) TTL() time.Duration {
	return st.ttl
}

func (st *SessionStore) cleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			st.cleanup()
		case <-st.done:
			return
		}
	}
}

// cleanup drops sessions idle for longer than the TTL.
func (st *SessionStore) cleanup() {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	for id, sess := range st.sessions {
		if now.Sub(sess.lastSeen) > st.ttl {
			delete(st.sessions, id)
		}
	}

	if st.logger != nil {
		st.logger.Debug("Session cleanup completed", "remaining_sessions", len(st.sessions))
	}
}

// Close stops the expiry goroutine. Safe to call more than once.
func (st *SessionStore) Close() {
	st.once.Do(func() { close(st.done) })
}
