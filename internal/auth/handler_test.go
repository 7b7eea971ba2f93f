package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzurek/zakupy/internal/store"
)

func newTestHandler(t *testing.T) (*Handler, *store.MemoryStore, *MemorySessions) {
	t.Helper()
	users := store.NewMemoryStore()
	sessions := NewMemorySessions()
	return NewHandler(users, sessions), users, sessions
}

func doJSON(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	return nil
}

func TestRegisterSuccessAutoLogin(t *testing.T) {
	h, _, sessions := newTestHandler(t)

	w := doJSON(h.Register, `{"username":"alice","password":"Secret1!"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp["username"])
	assert.NotEmpty(t, resp["id"])
	assert.NotContains(t, resp, "password")

	// auto-login: the cookie must point at a live session
	c := sessionCookie(t, w)
	require.NotNil(t, c)
	userID, err := sessions.Get(context.Background(), c.Value)
	require.NoError(t, err)
	assert.Equal(t, resp["id"], userID)
}

func TestRegisterValidation(t *testing.T) {
	h, _, _ := newTestHandler(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed JSON", `{"username":`, http.StatusBadRequest},
		{"empty username", `{"username":"","password":"Secret1!"}`, http.StatusBadRequest},
		{"empty password", `{"username":"alice","password":""}`, http.StatusBadRequest},
		{"short password", `{"username":"alice","password":"Short1!"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(h.Register, tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestRegisterDuplicateKeepsOriginalPassword(t *testing.T) {
	h, users, _ := newTestHandler(t)

	w := doJSON(h.Register, `{"username":"alice","password":"Secret1!"}`)
	require.Equal(t, http.StatusOK, w.Code)
	before, err := users.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)

	w = doJSON(h.Register, `{"username":"alice","password":"Another1!"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	after, err := users.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, before.Password, after.Password)
}

func TestLogin(t *testing.T) {
	h, _, _ := newTestHandler(t)
	doJSON(h.Register, `{"username":"alice","password":"Secret1!"}`)

	w := doJSON(h.Login, `{"username":"alice","password":"Secret1!"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, sessionCookie(t, w))

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp["username"])
	assert.NotEmpty(t, resp["user_id"])
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	h, _, _ := newTestHandler(t)
	doJSON(h.Register, `{"username":"alice","password":"Secret1!"}`)

	unknown := doJSON(h.Login, `{"username":"nobody","password":"Secret1!"}`)
	wrongPw := doJSON(h.Login, `{"username":"alice","password":"WrongPw1!"}`)

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrongPw.Code)
	assert.JSONEq(t, unknown.Body.String(), wrongPw.Body.String())
}

func TestLogoutIdempotent(t *testing.T) {
	h, _, sessions := newTestHandler(t)
	w := doJSON(h.Register, `{"username":"alice","password":"Secret1!"}`)
	c := sessionCookie(t, w)
	require.NotNil(t, c)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(c)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	userID, err := sessions.Get(context.Background(), c.Value)
	require.NoError(t, err)
	assert.Empty(t, userID)

	// no cookie at all is still a 200
	rec = httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMe(t *testing.T) {
	h, users, _ := newTestHandler(t)
	u, err := users.CreateUser(context.Background(), "alice", "hash")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUserID(req.Context(), u.ID))
	w := httptest.NewRecorder()
	h.Me(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"alice"`)

	// no identity in context
	w = httptest.NewRecorder()
	h.Me(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
