// Package session implements the server-side session store. Sessions are
// kept in process memory (the deployment model is a single instance) and
// referenced by an opaque random token delivered in an HttpOnly cookie.
// Records are created lazily: an anonymous visit allocates nothing until a
// flash message or a login actually needs server-side state.
package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/astralpath/interstellar/internal/models"
	"github.com/astralpath/interstellar/internal/utils"
	"github.com/google/uuid"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "interstellar_sid"

	// DefaultTTL is the sliding idle expiry. Every resolved request
	// pushes the deadline forward, so only genuinely idle sessions die.
	DefaultTTL = 24 * time.Hour

	tokenLength = 32
)

// Flash categories used throughout the web handlers.
const (
	FlashSuccess = "success_msg"
	FlashError   = "error_msg"
)

// Session is the server-side record for one client. The User field is a
// snapshot taken at login time; it is refreshed only by the mutations this
// application itself performs (profile picture upload). Out-of-band store
// changes require an explicit Refresh.
type Session struct {
	ID        string
	UserID    uuid.UUID
	User      models.User
	ExpiresAt time.Time
	CreatedAt time.Time

	mu      sync.Mutex
	flashes map[string][]string
}

// Authenticated reports whether a user is bound to the session.
func (s *Session) Authenticated() bool {
	return s.UserID != uuid.Nil
}

// PushFlash queues a one-shot message under the given category.
func (s *Session) PushFlash(category, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flashes == nil {
		s.flashes = make(map[string][]string)
	}
	s.flashes[category] = append(s.flashes[category], message)
}

// Flashes drains the category queue. It always returns a non-nil slice so
// renderers never branch on absence.
func (s *Session) Flashes(category string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.flashes[category]
	delete(s.flashes, category)
	if msgs == nil {
		msgs = []string{}
	}
	return msgs
}

// SetProfilePic updates the cached snapshot after an upload, so reads within
// the same session see the new path without a store round-trip.
func (s *Session) SetProfilePic(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.User.ProfilePic = &path
}

// Snapshot returns a copy of the cached user record. Handlers read through
// this accessor so a concurrent upload on the same session cannot tear the
// struct.
func (s *Session) Snapshot() models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.User
}

// Refresh replaces the cached user snapshot wholesale.
func (s *Session) Refresh(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.User = user
}

// Manager owns every live session and resolves cookies to records.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	secure   bool
}

// NewManager builds a Manager with the given idle TTL (DefaultTTL when
// zero). secure marks issued cookies Secure and should be set whenever the
// deployment is served over TLS.
func NewManager(ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		secure:   secure,
	}
}

// Get resolves the request's session cookie. It returns nil when there is no
// cookie, the token is unknown, or the record has expired. A hit slides the
// expiry forward.
func (m *Manager) Get(r *http.Request) *Session {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[cookie.Value]
	if !ok {
		return nil
	}
	if time.Now().After(sess.ExpiresAt) {
		delete(m.sessions, cookie.Value)
		return nil
	}
	sess.ExpiresAt = time.Now().Add(m.ttl)
	return sess
}

// Ensure returns the request's session, creating one (and setting the
// cookie) if none exists yet. This is the only place anonymous sessions are
// materialized, and callers invoke it only when they are about to write
// state - typically a flash message.
func (m *Manager) Ensure(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if sess := m.Get(r); sess != nil {
		return sess, nil
	}
	sess, err := m.create()
	if err != nil {
		return nil, err
	}
	m.setCookie(w, sess)
	return sess, nil
}

// Login binds the user to a fresh session and retires the caller's previous
// one. Issuing a new token on privilege change prevents session fixation.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, user models.User) (*Session, error) {
	old := m.Get(r)

	sess, err := m.create()
	if err != nil {
		return nil, err
	}
	sess.UserID = user.ID
	sess.User = user

	if old != nil {
		// Carry pending flashes across the token rotation.
		old.mu.Lock()
		sess.flashes = old.flashes
		old.mu.Unlock()
		m.destroy(old.ID)
	}

	m.setCookie(w, sess)
	return sess, nil
}

// Logout destroys the whole server-side record, not just the user binding,
// and expires the client cookie.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(CookieName); err == nil {
		m.destroy(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Janitor evicts expired sessions until done is closed.
func (m *Manager) Janitor(done <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			m.evictExpired()
		}
	}
}

func (m *Manager) evictExpired() {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, sess := range m.sessions {
		if now.After(sess.ExpiresAt) {
			delete(m.sessions, id)
		}
	}
}

func (m *Manager) create() (*Session, error) {
	token, err := utils.GenerateSecureToken(tokenLength)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	sess := &Session{
		ID:        token,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
		flashes:   make(map[string][]string),
	}
	m.mu.Lock()
	m.sessions[token] = sess
	m.mu.Unlock()
	return sess, nil
}

func (m *Manager) destroy(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

func (m *Manager) setCookie(w http.ResponseWriter, sess *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
