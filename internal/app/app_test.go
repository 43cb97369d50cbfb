package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chattr/authcore/internal/config"
	"github.com/chattr/authcore/internal/middleware"
	pkgcron "github.com/chattr/authcore/internal/pkg/cron"
	"github.com/chattr/authcore/internal/pkg/session"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sweepFunc func(ctx context.Context) (int64, error)

func (f sweepFunc) Sweep(ctx context.Context) (int64, error) { return f(ctx) }

func TestRegisterCronJobs(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 3, 1, 1, 0, 0, 0, loc)
	sched := pkgcron.New(pkgcron.WithLocation(loc), pkgcron.WithClock(func() time.Time { return now }))
	cfg := &config.AppConfig{Sweep: config.SweepConfig{Enable: true, At: "03:00", Interval: 24 * time.Hour}}

	calls := 0
	sw := sweepFunc(func(context.Context) (int64, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("store down")
		}
		return 4, nil
	})
	require.NoError(t, registerCronJobs(sched, sw, cfg, zap.NewNop()))

	items := sched.List()
	require.Len(t, items, 1)
	assert.Equal(t, jobCleanupRefreshTokens, items[0].Name)
	assert.Equal(t, time.Date(2026, 3, 1, 3, 0, 0, 0, loc), *items[0].NextDate)

	require.NoError(t, sched.Run(context.Background(), jobCleanupRefreshTokens))
	assert.Eventually(t, func() bool {
		res, _ := sched.GetTask(jobCleanupRefreshTokens)
		return res.Status == pkgcron.StatusReject
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, sched.Run(context.Background(), jobCleanupRefreshTokens))
	assert.Eventually(t, func() bool {
		res, _ := sched.GetTask(jobCleanupRefreshTokens)
		return res.Status == pkgcron.StatusFulfill
	}, time.Second, 5*time.Millisecond)
}

func TestOriginMatcher(t *testing.T) {
	allow := originMatcher([]string{"app.example.com", " *.Example.com ", "localhost:*", ""})

	assert.True(t, allow("https://app.example.com"))
	assert.True(t, allow("https://chat.example.com"))
	assert.True(t, allow("http://localhost:5173"))
	assert.False(t, allow("https://example.org"))
	assert.False(t, allow("https://evil-example.com"))
	assert.False(t, allow("http://127.0.0.1:5173"))
}

func TestServiceInfo(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := session.New(nil, nil, session.Options{Secret: "test-secret"})
	r := gin.New()
	r.GET("/", middleware.OptionalAuth(sessions), serviceInfo)

	get := func(header string) map[string]any {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body
	}

	anon := get("")
	assert.Equal(t, "authcore", anon["name"])
	assert.Equal(t, false, anon["authenticated"])
	assert.NotContains(t, anon, "user")

	assert.Equal(t, false, get("Bearer not-a-token")["authenticated"])

	tok, err := sessions.IssueAccess("u1", "alice")
	require.NoError(t, err)
	signedIn := get("Bearer " + tok)
	assert.Equal(t, true, signedIn["authenticated"])
	assert.Equal(t, map[string]any{"id": "u1", "username": "alice"}, signedIn["user"])
}
