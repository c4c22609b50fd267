package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"guard-core/pkg/errno"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readyResponse struct {
	Code int           `json:"code"`
	Data []CheckResult `json:"data"`
}

func serveReady(t *testing.T, h *HealthHandler) (int, readyResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ready", h.Ready)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	var out readyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w.Code, out
}

func TestReady(t *testing.T) {
	up := func(context.Context) error { return nil }

	code, out := serveReady(t, NewHealthHandler(map[string]Checker{"redis": up, "postgres": up}))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, errno.OK.Code, out.Code)
	require.Len(t, out.Data, 2)
	assert.Equal(t, "postgres", out.Data[0].Name)
	assert.Equal(t, "redis", out.Data[1].Name)
}

func TestReady_DependencyDown(t *testing.T) {
	code, out := serveReady(t, NewHealthHandler(map[string]Checker{
		"postgres": func(context.Context) error { return nil },
		"rpc":      func(context.Context) error { return errors.New("connection refused") },
	}))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, errno.ErrUpstream.Code, out.Code)
	require.Len(t, out.Data, 2)
	assert.Equal(t, "DOWN", out.Data[1].Status)
	assert.Equal(t, "connection refused", out.Data[1].Error)
}
