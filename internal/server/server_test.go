package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/handler"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type rejectAll struct{}

func (rejectAll) ParseToken(string) (*models.Claims, error) {
	return nil, errors.New("invalid")
}

func newTestServer(t *testing.T, rate string) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	h := handler.NewHandler(handler.Services{}, okPinger{}, "", logger)
	srv, err := NewServer(h, rejectAll{}, Options{Port: "0", RateLimit: rate}, logger)
	require.NoError(t, err)
	return srv
}

func serve(srv *Server, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, "")

	w := serve(srv, http.MethodOptions, "/api/me")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, "2-M")

	assert.Equal(t, http.StatusOK, serve(srv, http.MethodGet, "/health").Code)
	assert.Equal(t, http.StatusOK, serve(srv, http.MethodGet, "/health").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(srv, http.MethodGet, "/health").Code)
}

func TestInvalidRate(t *testing.T) {
	h := handler.NewHandler(handler.Services{}, okPinger{}, "", zap.NewNop())
	_, err := NewServer(h, rejectAll{}, Options{RateLimit: "lots"}, zap.NewNop())
	assert.Error(t, err)
}

func TestAuthGuard(t *testing.T) {
	srv := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid token"}`, w.Body.String())
}
