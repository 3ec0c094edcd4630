package auth

import (
	"context"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

type contextKey string

// UsernameKey is the context key under which middleware stores the
// authenticated username.
const UsernameKey = contextKey("username")

type session struct {
	username  string
	expiresAt time.Time
}

// SessionStore maps opaque tokens to authenticated usernames. Sessions live in
// memory only; a restart logs everyone out.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a SessionStore whose sessions expire after ttl.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts a new session for username and returns its token.
func (s *SessionStore) Create(username string) string {
	token := uuid.New().String()
	s.mu.Lock()
	s.sessions[token] = session{username: username, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return token
}

// Resolve returns the username bound to token, or false if the token is
// unknown or expired.
func (s *SessionStore) Resolve(token string) (string, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok || s.now().After(sess.expiresAt) {
		return "", false
	}
	return sess.username, true
}

// Destroy removes the session for token. Destroying an unknown token is a no-op.
func (s *SessionStore) Destroy(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// PurgeExpired drops every expired session and returns how many were removed.
func (s *SessionStore) PurgeExpired() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, sess := range s.sessions {
		if now.After(sess.expiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// SetCookie attaches the session cookie to a response.
func SetCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	isProd := os.Getenv("APP_ENV") == "production"
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   isProd,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
}

// ClearCookie expires the session cookie on the client.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	})
}

// FromRequest resolves the request's session cookie to a username.
func (s *SessionStore) FromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	return s.Resolve(cookie.Value)
}

// Middleware guards a route: requests without a valid session are redirected
// to the entry page. The username is passed down via the request context.
func (s *SessionStore) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, ok := s.FromRequest(r)
			if !ok {
				http.Redirect(w, r, "/", http.StatusFound)
				return
			}
			log.Debug().Str("username", username).Msg("Authenticated request")
			ctx := context.WithValue(r.Context(), UsernameKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
