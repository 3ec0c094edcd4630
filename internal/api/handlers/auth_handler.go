package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/pvdmeer/babbel/internal/auth"
	"github.com/pvdmeer/babbel/internal/services"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles registration, login, logout and page delivery.
type AuthHandler struct {
	service    services.UserServiceProvider
	sessions   *auth.SessionStore
	sessionTTL time.Duration
	webRoot    string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.UserServiceProvider, sessions *auth.SessionStore, sessionTTL time.Duration, webRoot string) *AuthHandler {
	return &AuthHandler{
		service:    service,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		webRoot:    webRoot,
	}
}

// Landing serves the entry page, or sends authenticated visitors straight to
// the chat page.
func (h *AuthHandler) Landing(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sessions.FromRequest(r); ok {
		http.Redirect(w, r, "/chat.html", http.StatusFound)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.webRoot, "index.html"))
}

// ChatPage serves the chat page. The router wraps it in the session
// middleware, so unauthenticated requests never get here.
func (h *AuthHandler) ChatPage(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(h.webRoot, "chat.html"))
}

// Register handles new account registration from the entry page form.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := h.service.Register(username, password)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateUsername) {
			h.failureNotice(w, "Username already exists.")
			return
		}
		log.Error().Err(err).Str("username", username).Msg("Failed to register user")
		h.failureNotice(w, "Registration failed.")
		return
	}

	h.startSession(w, user.Username)
	http.Redirect(w, r, "/chat.html", http.StatusFound)
}

// Login handles authentication from the entry page form.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := h.service.Authenticate(username, password)
	if err != nil {
		log.Warn().Err(err).Str("username", username).Msg("Failed authentication attempt")
		switch {
		case errors.Is(err, services.ErrUnknownUser):
			h.failureNotice(w, "Invalid login.")
		case errors.Is(err, services.ErrBadCredential):
			h.failureNotice(w, "Wrong password.")
		default:
			h.failureNotice(w, "Login failed.")
		}
		return
	}

	h.startSession(w, user.Username)
	http.Redirect(w, r, "/chat.html", http.StatusFound)
}

// Logout destroys the caller's session and sends them back to the entry page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		h.sessions.Destroy(cookie.Value)
	}
	auth.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// SessionUser reports the username bound to the caller's session, or null.
// The client uses this to decide whether to redirect to the entry page.
func (h *AuthHandler) SessionUser(w http.ResponseWriter, r *http.Request) {
	var username *string
	if name, ok := h.sessions.FromRequest(r); ok {
		username = &name
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]*string{"username": username})
}

func (h *AuthHandler) startSession(w http.ResponseWriter, username string) {
	token := h.sessions.Create(username)
	auth.SetCookie(w, token, h.sessionTTL)
}

// failureNotice renders the inline error the entry page forms expect: a short
// human-readable line with a link back, not a structured payload.
func (h *AuthHandler) failureNotice(w http.ResponseWriter, notice string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<h3>%s <a href='/'>Back</a></h3>", notice)
}
