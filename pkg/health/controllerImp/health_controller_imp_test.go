package controllerImp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seedbot/pkg/testutil"
)

func TestHealth(t *testing.T) {
	h := NewHealthCtrl(testutil.OpenDB(t), nil, map[string]Check{
		"mqtt":  func(context.Context) error { return errors.New("not connected") },
		"kafka": func(context.Context) error { return nil },
	})
	e := echo.New()
	e.GET("/health", h.Health)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status struct {
			OK bool `json:"ok"`
		} `json:"status"`
		Checks map[string]sub `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Status.OK)
	assert.True(t, body.Checks["database"].OK)
	assert.True(t, body.Checks["kafka"].OK)
	assert.Equal(t, sub{Err: "not connected"}, body.Checks["mqtt"])
}

func TestHealthWithoutDB(t *testing.T) {
	e := echo.New()
	e.GET("/health", NewHealthCtrl(nil, nil, nil).Health)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
