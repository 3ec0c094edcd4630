package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pvdmeer/babbel/internal/api"
	"github.com/pvdmeer/babbel/internal/auth"
	"github.com/pvdmeer/babbel/internal/database"
	"github.com/pvdmeer/babbel/internal/models"
	"github.com/pvdmeer/babbel/internal/services"
	"github.com/pvdmeer/babbel/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router   *chi.Mux
	messages *services.MessageService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	webRoot := t.TempDir()
	for _, page := range []string{"index.html", "chat.html"} {
		require.NoError(t, os.WriteFile(filepath.Join(webRoot, page), []byte("<html>"+page+"</html>"), 0o644))
	}

	userService := services.NewUserService(db)
	messageService := services.NewMessageService(db)
	sessions := auth.NewSessionStore(time.Hour)
	hub := websocket.NewHub(messageService, nil, "Bot", "@bot")

	router := api.NewRouter(api.RouterConfig{
		Hub:            hub,
		UserService:    userService,
		MessageService: messageService,
		Sessions:       sessions,
		SessionTTL:     time.Hour,
		WebRoot:        webRoot,
		AllowedOrigin:  "http://localhost:8080",
	})

	return &testEnv{router: router, messages: messageService}
}

func postForm(t *testing.T, router *chi.Mux, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func get(router *chi.Mux, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func credentials(username, password string) url.Values {
	return url.Values{"username": {username}, "password": {password}}
}

func TestRegisterSetsSessionAndRedirects(t *testing.T) {
	env := setupTestEnv(t)

	rec := postForm(t, env.router, "/register", credentials("alice", "hunter2"))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/chat.html", rec.Header().Get("Location"))

	cookie := sessionCookie(t, rec)
	userRec := get(env.router, "/session-user", cookie)
	assert.Equal(t, http.StatusOK, userRec.Code)
	assert.JSONEq(t, `{"username":"alice"}`, userRec.Body.String())
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := setupTestEnv(t)

	postForm(t, env.router, "/register", credentials("alice", "hunter2"))
	rec := postForm(t, env.router, "/register", credentials("alice", "other"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Username already exists.")
	assert.Contains(t, rec.Body.String(), "<a href='/'>")
}

func TestLoginFailures(t *testing.T) {
	env := setupTestEnv(t)
	postForm(t, env.router, "/register", credentials("alice", "hunter2"))

	rec := postForm(t, env.router, "/login", credentials("nobody", "hunter2"))
	assert.Contains(t, rec.Body.String(), "Invalid login.")

	rec = postForm(t, env.router, "/login", credentials("alice", "wrong"))
	assert.Contains(t, rec.Body.String(), "Wrong password.")
}

func TestLoginAndLogout(t *testing.T) {
	env := setupTestEnv(t)
	postForm(t, env.router, "/register", credentials("alice", "hunter2"))

	rec := postForm(t, env.router, "/login", credentials("alice", "hunter2"))
	assert.Equal(t, http.StatusFound, rec.Code)
	cookie := sessionCookie(t, rec)

	// Logout destroys the session immediately.
	logoutRec := get(env.router, "/logout", cookie)
	assert.Equal(t, http.StatusFound, logoutRec.Code)
	assert.Equal(t, "/", logoutRec.Header().Get("Location"))

	userRec := get(env.router, "/session-user", cookie)
	assert.JSONEq(t, `{"username":null}`, userRec.Body.String())
}

func TestSessionUserWithoutSession(t *testing.T) {
	env := setupTestEnv(t)

	rec := get(env.router, "/session-user")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"username":null}`, rec.Body.String())
}

func TestChatPageRequiresSession(t *testing.T) {
	env := setupTestEnv(t)

	rec := get(env.router, "/chat.html")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	loginRec := postForm(t, env.router, "/register", credentials("alice", "hunter2"))
	pageRec := get(env.router, "/chat.html", sessionCookie(t, loginRec))
	assert.Equal(t, http.StatusOK, pageRec.Code)
	assert.Contains(t, pageRec.Body.String(), "chat.html")
}

func TestLandingRedirectsAuthenticatedVisitors(t *testing.T) {
	env := setupTestEnv(t)

	rec := get(env.router, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "index.html")

	loginRec := postForm(t, env.router, "/register", credentials("alice", "hunter2"))
	homeRec := get(env.router, "/", sessionCookie(t, loginRec))
	assert.Equal(t, http.StatusFound, homeRec.Code)
	assert.Equal(t, "/chat.html", homeRec.Header().Get("Location"))
}

func TestHistoryEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	loginRec := postForm(t, env.router, "/register", credentials("alice", "hunter2"))
	cookie := sessionCookie(t, loginRec)

	require.NoError(t, env.messages.Append("alice", "one"))
	require.NoError(t, env.messages.Append("alice", "two"))
	require.NoError(t, env.messages.Append("bob", "three"))

	rec := get(env.router, "/messages", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var lines []models.ChatLine
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lines))
	require.Len(t, lines, 3)
	assert.Equal(t, "one", lines[0].Message)
	assert.Equal(t, "two", lines[1].Message)
	assert.Equal(t, "three", lines[2].Message)
}

func TestHistoryRequiresSession(t *testing.T) {
	env := setupTestEnv(t)

	rec := get(env.router, "/messages")
	assert.Equal(t, http.StatusFound, rec.Code)
}
