package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chattr/authcore/internal/middleware"
	"github.com/chattr/authcore/internal/models"
	"github.com/chattr/authcore/internal/pkg/session"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]*models.UserModel
}

func (m *memUsers) FindUserByUsername(_ context.Context, username string) (*models.UserModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[strings.TrimSpace(username)], nil
}

func (m *memUsers) CreateUser(_ context.Context, u *models.UserModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Username]; ok {
		return models.ErrUsernameTaken
	}
	u.ID = "id-" + u.Username
	m.users[u.Username] = u
	return nil
}

// fakeSessions hands out numbered tokens and tracks which refresh tokens are live.
type fakeSessions struct {
	mu        sync.Mutex
	n         int
	live      map[string]string // refresh token -> user id
	access    map[string]*session.Identity
	rotateErr error
	revoked   []string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{live: map[string]string{}, access: map[string]*session.Identity{}}
}

func (f *fakeSessions) IssuePair(_ context.Context, userID, username string) (session.Pair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	p := session.Pair{
		AccessToken:      "access-" + strconv.Itoa(f.n),
		RefreshToken:     "refresh-" + strconv.Itoa(f.n),
		AccessExpiresAt:  time.Now().Add(15 * time.Minute),
		RefreshExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	f.live[p.RefreshToken] = userID
	f.access[p.AccessToken] = &session.Identity{UserID: userID, Username: username}
	return p, nil
}

func (f *fakeSessions) Rotate(ctx context.Context, token string) (session.Pair, error) {
	if f.rotateErr != nil {
		return session.Pair{}, f.rotateErr
	}
	f.mu.Lock()
	uid, ok := f.live[token]
	delete(f.live, token)
	f.mu.Unlock()
	if !ok {
		return session.Pair{}, session.ErrExpiredOrRevoked
	}
	return f.IssuePair(ctx, uid, "alice")
}

func (f *fakeSessions) RevokeOne(_ context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, token)
	_, ok := f.live[token]
	delete(f.live, token)
	return ok, nil
}

func (f *fakeSessions) RevokeAll(_ context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	changed := false
	for tok, uid := range f.live {
		if uid == userID {
			delete(f.live, tok)
			changed = true
		}
	}
	return changed, nil
}

func (f *fakeSessions) VerifyAccess(token string) (*session.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.access[token]; ok {
		return id, nil
	}
	return nil, session.ErrInvalidCredential
}

type harness struct {
	router   *gin.Engine
	users    *memUsers
	sessions *fakeSessions
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := &memUsers{users: map[string]*models.UserModel{}}
	sessions := newFakeSessions()
	svc := NewService(users, sessions)
	svc.cost = bcrypt.MinCost

	r := gin.New()
	NewHandler(svc, false).RegisterRoutes(r.Group(""), middleware.Auth(sessions))
	return &harness{router: r, users: users, sessions: sessions}
}

func (h *harness) do(method, path, body string, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func withCookie(name, value string) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: name, Value: value}) }
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func cookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) authResponse {
	t.Helper()
	var out authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRegister(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/auth/register", `{"username":"alice","password":"hunter22"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	out := decode(t, rec)
	require.NotNil(t, out.User)
	assert.Equal(t, "alice", out.User.Username)
	assert.NotEmpty(t, out.AccessToken)
	assert.NotEmpty(t, out.RefreshToken)

	refresh := cookie(rec, RefreshCookie)
	require.NotNil(t, refresh)
	assert.Equal(t, out.RefreshToken, refresh.Value)
	assert.True(t, refresh.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, refresh.SameSite)
	assert.NotEqual(t, "hunter22", h.users.users["alice"].Password)

	rec = h.do(http.MethodPost, "/auth/register", `{"username":"alice","password":"another1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(http.MethodPost, "/auth/register", `{"username":"al","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_PasswordByteLimit(t *testing.T) {
	h := newHarness(t)

	// 25 three-byte runes: within the character limit, over bcrypt's 72 bytes.
	body := `{"username":"carol","password":"` + strings.Repeat("€", 25) + `"}`
	rec := h.do(http.MethodPost, "/auth/register", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "72 bytes")
	assert.NotContains(t, h.users.users, "carol")

	body = `{"username":"carol","password":"` + strings.Repeat("€", 24) + `"}`
	rec = h.do(http.MethodPost, "/auth/register", body)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/auth/register", `{"username":"alice","password":"hunter22"}`).Code)

	rec := h.do(http.MethodPost, "/auth/login", `{"username":"alice","password":"hunter22"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec).RefreshToken)

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/auth/login", `{"username":"alice","password":"wrong-pass"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/auth/login", `{"username":"bob","password":"hunter22"}`).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/auth/login", `{"username":"alice"}`).Code)
}

func TestRefresh(t *testing.T) {
	h := newHarness(t)
	first := decode(t, h.do(http.MethodPost, "/auth/register", `{"username":"alice","password":"hunter22"}`))

	t.Run("from body", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/auth/refresh", `{"refresh_token":"`+first.RefreshToken+`"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		next := decode(t, rec)
		assert.NotEqual(t, first.RefreshToken, next.RefreshToken)

		t.Run("replay rejected and cookies cleared", func(t *testing.T) {
			rec := h.do(http.MethodPost, "/auth/refresh", `{"refresh_token":"`+first.RefreshToken+`"}`)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			c := cookie(rec, RefreshCookie)
			require.NotNil(t, c)
			assert.Empty(t, c.Value)
		})

		t.Run("from cookie", func(t *testing.T) {
			rec := h.do(http.MethodPost, "/auth/refresh", "", withCookie(RefreshCookie, next.RefreshToken))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, decode(t, rec).RefreshToken, cookie(rec, RefreshCookie).Value)
		})
	})

	t.Run("missing token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/auth/refresh", "").Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/auth/refresh", `{"refresh_token":`).Code)
	})

	t.Run("storage failure", func(t *testing.T) {
		h.sessions.rotateErr = &session.StorageError{Op: "find refresh token", Err: errors.New("db down")}
		defer func() { h.sessions.rotateErr = nil }()

		rec := h.do(http.MethodPost, "/auth/refresh", `{"refresh_token":"anything"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "db down")
		assert.Nil(t, cookie(rec, RefreshCookie))
	})

	t.Run("consumed", func(t *testing.T) {
		h.sessions.rotateErr = session.ErrTokenConsumed
		defer func() { h.sessions.rotateErr = nil }()

		assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/auth/refresh", `{"refresh_token":"x"}`).Code)
	})
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	pair := decode(t, h.do(http.MethodPost, "/auth/register", `{"username":"alice","password":"hunter22"}`))

	rec := h.do(http.MethodPost, "/auth/logout", "", withCookie(RefreshCookie, pair.RefreshToken))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{pair.RefreshToken}, h.sessions.revoked)

	assert.Equal(t, http.StatusUnauthorized,
		h.do(http.MethodPost, "/auth/refresh", "", withCookie(RefreshCookie, pair.RefreshToken)).Code)

	assert.Equal(t, http.StatusNoContent, h.do(http.MethodPost, "/auth/logout", "").Code)
}

func TestLogoutAll(t *testing.T) {
	h := newHarness(t)
	first := decode(t, h.do(http.MethodPost, "/auth/register", `{"username":"alice","password":"hunter22"}`))
	second := decode(t, h.do(http.MethodPost, "/auth/login", `{"username":"alice","password":"hunter22"}`))

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/auth/logout-all", "").Code)

	rec := h.do(http.MethodPost, "/auth/logout-all", "", withBearer(second.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"revoked":true}`, rec.Body.String())

	for _, tok := range []string{first.RefreshToken, second.RefreshToken} {
		assert.Equal(t, http.StatusUnauthorized,
			h.do(http.MethodPost, "/auth/refresh", `{"refresh_token":"`+tok+`"}`).Code)
	}

	rec = h.do(http.MethodPost, "/auth/logout-all", "", withBearer(second.AccessToken))
	assert.JSONEq(t, `{"revoked":false}`, rec.Body.String())
}

func TestMe(t *testing.T) {
	h := newHarness(t)
	pair := decode(t, h.do(http.MethodPost, "/auth/register", `{"username":"alice","password":"hunter22"}`))

	rec := h.do(http.MethodGet, "/auth/me", "", withCookie(middleware.AccessCookie, pair.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/auth/me", "").Code)
}

func TestCookiePolicy_Production(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	now := time.Now()

	cookiePolicy{secure: true}.set(c, session.Pair{
		AccessToken: "a", RefreshToken: "r",
		AccessExpiresAt: now.Add(time.Minute), RefreshExpiresAt: now.Add(time.Hour),
	}, now)

	refresh := cookie(rec, RefreshCookie)
	require.NotNil(t, refresh)
	assert.True(t, refresh.Secure)
	assert.Equal(t, http.SameSiteNoneMode, refresh.SameSite)
	assert.Equal(t, 3600, refresh.MaxAge)
}
