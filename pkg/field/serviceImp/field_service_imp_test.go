package serviceImp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seedbot/entities"
	"seedbot/pkg/apperr"
	cellRepoImp "seedbot/pkg/cell/repositoryImp"
	fieldRepoImp "seedbot/pkg/field/repositoryImp"
	sowing "seedbot/pkg/sowing/service"
	"seedbot/pkg/testutil"
)

func TestGetFieldWithProgress(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	fields := fieldRepoImp.New(db)
	svc := NewFieldService(fields)

	id, err := fields.Upsert(ctx, &entities.Field{Length: 9, Width: 4, SquareSize: 2, StartSowingDate: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	_, err = cellRepoImp.New(db).Upsert(ctx, &entities.Cell{FieldID: id, Row: 1, Col: 1, Sowed: testutil.Int(2)})
	require.NoError(t, err)

	rep, err := svc.GetField(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, rep.Field.ID)
	require.NotNil(t, rep.Progress)
	assert.Equal(t, int64(8), rep.Progress.TotalCells)
	assert.Equal(t, int64(1), rep.Progress.SowedCells)
	assert.Equal(t, 12.5, rep.Progress.ProgressPercentage)
}

func TestGetFieldDegenerateGrid(t *testing.T) {
	ctx := context.Background()
	fields := fieldRepoImp.New(testutil.OpenDB(t))
	id, err := fields.Upsert(ctx, &entities.Field{Length: 1, Width: 1, SquareSize: 2, StartSowingDate: time.Now()})
	require.NoError(t, err)

	rep, err := NewFieldService(fields).GetField(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, rep.Progress)
}

func TestGetFieldNotFound(t *testing.T) {
	_, err := NewFieldService(fieldRepoImp.New(testutil.OpenDB(t))).GetField(context.Background(), 42)
	assert.ErrorIs(t, err, sowing.ErrFieldNotFound)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
