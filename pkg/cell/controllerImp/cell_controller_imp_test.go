package controllerImp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"seedbot/entities"
	cellRepoImp "seedbot/pkg/cell/repositoryImp"
	fieldRepoImp "seedbot/pkg/field/repositoryImp"
	"seedbot/pkg/seed"
	"seedbot/pkg/testutil"
)

func setup(t *testing.T) (*echo.Echo, uint) {
	t.Helper()
	ctx := context.Background()
	db := testutil.OpenDB(t)
	fields := fieldRepoImp.New(db)
	cells := cellRepoImp.New(db)

	id, err := fields.Upsert(ctx, &entities.Field{Length: 4, Width: 4, SquareSize: 2, StartSowingDate: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	_, err = cells.Upsert(ctx, &entities.Cell{FieldID: id, Row: 0, Col: 1, PH: testutil.Float(6.5), Sowed: testutil.Int(4)})
	require.NoError(t, err)
	_, err = cells.Upsert(ctx, &entities.Cell{FieldID: id, Row: 0, Col: 0, Moisture: testutil.Float(31)})
	require.NoError(t, err)

	e := echo.New()
	h := New(cells, fields, seed.Default())
	e.GET("/fields/:id/cells", h.List)
	e.GET("/fields/:id/cells.xlsx", h.Export)
	return e, id
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestListCells(t *testing.T) {
	e, id := setup(t)
	rec := get(e, "/fields/"+strconv.Itoa(int(id))+"/cells")
	require.Equal(t, http.StatusOK, rec.Code)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, float64(0), out[0]["col"])
	assert.Nil(t, out[0]["seed_name"])
	assert.Equal(t, "seed-4", out[1]["seed_name"])
	assert.Equal(t, 6.5, out[1]["ph"])
}

func TestListCellsErrors(t *testing.T) {
	e, _ := setup(t)
	rec := get(e, "/fields/abc/cells")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message": "Invalid field_id parameter"}`, rec.Body.String())

	rec = get(e, "/fields/404/cells")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message": "Field not found"}`, rec.Body.String())
}

func TestExportCells(t *testing.T) {
	e, id := setup(t)
	rec := get(e, "/fields/"+strconv.Itoa(int(id))+"/cells.xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxMIME, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "cells.xlsx")

	x, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer x.Close()
	rows, err := x.GetRows(x.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "row", rows[0][0])
	assert.Equal(t, "seed-4", rows[2][9])
	assert.Equal(t, "6.5", rows[2][5])
}
