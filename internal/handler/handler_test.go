package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 3600

	h, err := NewHandler(cfg, nil, nil, nil)
	require.NoError(t, err)
	return h
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestAuthMiddleware(t *testing.T) {
	h := newTestHandler(t)

	var gotRole, gotSub string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRole = r.Context().Value(RoleCtxKey).(string)
		gotSub = r.Context().Value(SubCtxKey).(string)
		h.successResponse(w, r, "ok", nil)
	})
	protected := h.auth(next)

	t.Run("missing cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/my-info", nil))

		resp := decodeResponse(t, rec)
		assert.False(t, resp.Success)
		assert.Equal(t, "用户未登录", resp.Message)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/my-info", nil)
		req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: "not-a-token"})
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		resp := decodeResponse(t, rec)
		assert.False(t, resp.Success)
		assert.Equal(t, "无效的令牌", resp.Message)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := h.signToken(string(domain.RolePlanner), 1, time.Now().Add(-time.Minute))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/my-info", nil)
		req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: token})
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		assert.Equal(t, "无效的令牌", decodeResponse(t, rec).Message)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := h.signToken(string(domain.RolePlanner), 42, time.Now().Add(time.Hour))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/my-info", nil)
		req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: token})
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		assert.True(t, decodeResponse(t, rec).Success)
		assert.Equal(t, string(domain.RolePlanner), gotRole)
		assert.Equal(t, "42", gotSub)
	})
}

func TestRequiredRole(t *testing.T) {
	h := newTestHandler(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.successResponse(w, r, "ok", nil)
	})
	protected := h.RequiredRole([]domain.Role{domain.RolePlanner})(next)

	tests := []struct {
		role    domain.Role
		success bool
	}{
		{role: domain.RolePlanner, success: true},
		{role: domain.RoleEmployee, success: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/roster-plans", nil)
			req = req.WithContext(context.WithValue(req.Context(), RoleCtxKey, string(tt.role)))
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			resp := decodeResponse(t, rec)
			assert.Equal(t, tt.success, resp.Success)
			if !tt.success {
				assert.Equal(t, "权限不足", resp.Message)
			}
		})
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, tokenCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, cookies[0].Expires.Before(time.Now()))
}

func TestRosterPlanMiddlewareRejectsInvalidID(t *testing.T) {
	h := newTestHandler(t)
	router := chi.NewRouter()
	router.With(h.rosterPlan).Get("/roster-plans/{id}", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("不应该调用下一个 handler")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/roster-plans/abc", nil))

	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "排班计划ID无效", resp.Message)
}

func TestCreateRosterPlanValidation(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "missing name", body: `{"year": 2025, "month": 2}`},
		{name: "invalid month", body: `{"name": "计划", "year": 2025, "month": 13}`},
		{name: "day beyond month", body: `{"name": "计划", "year": 2025, "month": 2, "freeDays": [30]}`},
		{name: "malformed json", body: `{"name": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.CreateRosterPlan(rec, httptest.NewRequest(http.MethodPost, "/roster-plans", strings.NewReader(tt.body)))

			resp := decodeResponse(t, rec)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Message)
		})
	}
}
