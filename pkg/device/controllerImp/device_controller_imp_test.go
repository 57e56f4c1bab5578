package controllerImp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seedbot/pkg/device/repositoryImp"
	"seedbot/pkg/testutil"
)

func TestDeviceEndpoints(t *testing.T) {
	repo := repositoryImp.New(testutil.OpenDB(t))
	_, err := repo.Upsert(context.Background(), "sowing_actuator", "fd00::202:2:2:2")
	require.NoError(t, err)

	e := echo.New()
	h := New(repo)
	e.GET("/devices", h.List)
	e.GET("/devices/:name", h.Get)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/devices", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ipv6_address":"fd00::202:2:2:2"`)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/devices/sowing_actuator", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"sowing_actuator"`)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/devices/ghost", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message": "Device not found"}`, rec.Body.String())
}
