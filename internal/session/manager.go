// Package session owns the mail-session lifecycle: creation, refresh,
// destruction, and the two-phase validity check. The manager is an
// injectable service object, not a package-level singleton, so tests
// can build isolated instances.
//
// Contract: operations never return errors. Every failure becomes a
// boolean result plus an internal error string readable via LastError.
// Session operations are idempotent and low-frequency, so callers poll
// the error field instead of handling exceptions.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bheem-platform/workspace-cli/internal/api"
	"github.com/bheem-platform/workspace-cli/internal/localstate"
	"github.com/bheem-platform/workspace-cli/internal/logging"
	"github.com/bheem-platform/workspace-cli/internal/model"
)

// Backend endpoints for the mail session resource.
const (
	pathSessions       = "/api/v1/mail/sessions"
	pathSessionCurrent = "/api/v1/mail/sessions/current"
	pathSessionRefresh = "/api/v1/mail/sessions/refresh"
)

// refreshFraction is the share of the remaining TTL that elapses before
// the pre-expiry refresh timer fires.
const refreshFraction = 0.9

type createRequest struct {
	Identity string `json:"identity"`
	Secret   string `json:"secret"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	ExpiresIn int64  `json:"expires_in"` // seconds of TTL remaining
	Active    bool   `json:"active"`
}

// Manager holds the session pointer for the mail backend. The secret is
// used once during Create and never stored.
type Manager struct {
	client *api.Client
	tokens *api.TokenHolder
	state  *localstate.Store
	log    logging.Logger
	now    func() time.Time

	mu           sync.Mutex
	session      *model.Session
	lastErr      string
	refreshTimer *time.Timer
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source. Tests use it to move sessions
// past their expiry without sleeping.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager builds a Manager. The token holder must be the same one
// the api client reads from; the manager writes the session id into it
// on every state change.
func NewManager(
	client *api.Client,
	tokens *api.TokenHolder,
	state *localstate.Store,
	log logging.Logger,
	opts ...Option,
) *Manager {
	m := &Manager{
		client: client,
		tokens: tokens,
		state:  state,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load restores persisted session metadata from local state. Expired
// records are discarded. Called once at startup, before any UI runs.
func (m *Manager) Load(ctx context.Context) {
	var s model.Session
	err := m.state.Get(ctx, localstate.KeySession, &s)
	if errors.Is(err, localstate.ErrNotFound) {
		return
	}
	if err != nil {
		m.log.Warn(ctx, "loading persisted session", "err", err)
		return
	}

	if s.Expired(m.now()) {
		_ = m.state.Delete(ctx, localstate.KeySession)
		return
	}

	m.mu.Lock()
	m.session = &s
	m.mu.Unlock()
	m.tokens.Set(s.SessionID)
}

// Create calls the session-creation endpoint. On success the session
// pointer is stored and persisted; on failure the error string is set
// and the manager stays unauthenticated. The secret is never retained.
func (m *Manager) Create(ctx context.Context, identity, secret string) bool {
	var resp sessionResponse
	err := m.client.Post(ctx, pathSessions, createRequest{
		Identity: identity,
		Secret:   secret,
	}, &resp)
	if err != nil {
		m.setError(api.UserMessage(err))
		m.log.Warn(ctx, "session create failed", "identity", identity, "err", err)
		return false
	}

	s := model.Session{
		Identity:  identity,
		SessionID: resp.SessionID,
		ExpiresAt: m.now().Add(time.Duration(resp.ExpiresIn) * time.Second),
		Active:    true,
	}

	m.mu.Lock()
	m.session = &s
	m.lastErr = ""
	m.mu.Unlock()

	m.tokens.Set(s.SessionID)
	m.persist(ctx, s)
	m.log.Info(ctx, "session created", "identity", identity, "expires_at", s.ExpiresAt)
	return true
}

// Refresh extends the session's expiry. Without a session it is a no-op
// returning false and makes no network call. Any failure clears the
// session: the contract is fail-closed, not a retry loop.
func (m *Manager) Refresh(ctx context.Context) bool {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return false
	}
	m.mu.Unlock()

	var resp sessionResponse
	if err := m.client.Post(ctx, pathSessionRefresh, nil, &resp); err != nil {
		m.setError(api.UserMessage(err))
		m.clear(ctx)
		m.log.Warn(ctx, "session refresh failed, clearing session", "err", err)
		return false
	}

	m.mu.Lock()
	if m.session != nil {
		m.session.ExpiresAt = m.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
		m.session.Active = true
		m.persist(ctx, *m.session)
	}
	m.mu.Unlock()
	return true
}

// Destroy invalidates the session remotely on a best-effort basis (the
// session may already be gone server-side), then unconditionally clears
// local state.
func (m *Manager) Destroy(ctx context.Context) {
	m.mu.Lock()
	hasSession := m.session != nil
	m.mu.Unlock()

	if hasSession {
		if err := m.client.Delete(ctx, pathSessionCurrent, nil); err != nil {
			m.log.Debug(ctx, "remote session invalidation failed", "err", err)
		}
	}
	m.clear(ctx)
}

// Check reports whether the session is active, in two phases: a local
// expiry comparison first (past expiry clears state and returns false
// without touching the network), then a remote status call that
// refreshes the local expiry from the server-reported remaining TTL.
// A transport failure falls back to the last known local answer
// (stale-but-available) rather than failing closed.
func (m *Manager) Check(ctx context.Context) bool {
	m.mu.Lock()
	s := m.session
	m.mu.Unlock()

	if s == nil {
		return false
	}
	if s.Expired(m.now()) {
		m.clear(ctx)
		return false
	}

	var resp sessionResponse
	err := m.client.Get(ctx, pathSessionCurrent, &resp)
	if err != nil {
		if api.IsAuthError(err) {
			m.clear(ctx)
			return false
		}
		// Transport failure: keep the last known local state.
		m.log.Debug(ctx, "session status check unreachable, using local state", "err", err)
		m.mu.Lock()
		active := m.session != nil && m.session.Active
		m.mu.Unlock()
		return active
	}

	if !resp.Active {
		m.clear(ctx)
		return false
	}

	m.mu.Lock()
	if m.session != nil {
		m.session.ExpiresAt = m.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
		m.session.Active = true
		m.persist(ctx, *m.session)
	}
	m.mu.Unlock()
	return true
}

// Session returns a copy of the current session, or nil when
// unauthenticated.
func (m *Manager) Session() *model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	s := *m.session
	return &s
}

// Authenticated reports whether a session pointer currently exists.
// It does not touch the network; use Check for that.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil && m.session.Active
}

// LastError returns the most recent operation error message, or "".
func (m *Manager) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// ScheduleRefresh arms a one-shot timer firing at 90% of the remaining
// TTL measured now. The timer is not re-armed after firing; the caller
// reschedules after a successful refresh. Returns false when there is
// no session to schedule against.
func (m *Manager) ScheduleRefresh(fire func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return false
	}

	remaining := m.session.ExpiresAt.Sub(m.now())
	if remaining <= 0 {
		return false
	}

	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
	}
	delay := time.Duration(float64(remaining) * refreshFraction)
	m.refreshTimer = time.AfterFunc(delay, fire)
	return true
}

// StopRefresh cancels a pending pre-expiry refresh timer, if any.
func (m *Manager) StopRefresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
		m.refreshTimer = nil
	}
}

// clear drops the local session, the bearer token, and the persisted
// record. Remote state is untouched.
func (m *Manager) clear(ctx context.Context) {
	m.mu.Lock()
	m.session = nil
	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
		m.refreshTimer = nil
	}
	m.mu.Unlock()

	m.tokens.Set("")
	if err := m.state.Delete(ctx, localstate.KeySession); err != nil {
		m.log.Warn(ctx, "deleting persisted session", "err", err)
	}
}

// persist writes session metadata (never the secret) to local state.
// Callers may hold m.mu; persist does not take it.
func (m *Manager) persist(ctx context.Context, s model.Session) {
	if err := m.state.Set(ctx, localstate.KeySession, s); err != nil {
		m.log.Warn(ctx, "persisting session", "err", err)
	}
}

func (m *Manager) setError(msg string) {
	m.mu.Lock()
	m.lastErr = msg
	m.mu.Unlock()
}
