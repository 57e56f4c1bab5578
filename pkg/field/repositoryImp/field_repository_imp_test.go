package repositoryImp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"seedbot/entities"
	cellRepoImp "seedbot/pkg/cell/repositoryImp"
	"seedbot/pkg/testutil"
)

var day = time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

func TestUpsertReusesMatchingField(t *testing.T) {
	ctx := context.Background()
	repo := New(testutil.OpenDB(t))

	id1, err := repo.Upsert(ctx, &entities.Field{Length: 10, Width: 10, SquareSize: 5, StartSowingDate: day})
	require.NoError(t, err)
	require.NotZero(t, id1)

	id2, err := repo.Upsert(ctx, &entities.Field{Length: 10, Width: 10, SquareSize: 2, StartSowingDate: day})
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	f, err := repo.FindByID(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, f.SquareSize)

	id3, err := repo.Upsert(ctx, &entities.Field{Length: 20, Width: 10, SquareSize: 2, StartSowingDate: day})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)
}

func TestFindWithSowedCount(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := New(db)
	cells := cellRepoImp.New(db)

	id, err := repo.Upsert(ctx, &entities.Field{Length: 10, Width: 10, SquareSize: 5, StartSowingDate: day})
	require.NoError(t, err)

	_, err = cells.Upsert(ctx, &entities.Cell{FieldID: id, Row: 0, Col: 0, Sowed: testutil.Int(3)})
	require.NoError(t, err)
	_, err = cells.Upsert(ctx, &entities.Cell{FieldID: id, Row: 0, Col: 1, Sowed: testutil.Int(0)})
	require.NoError(t, err)
	_, err = cells.Upsert(ctx, &entities.Cell{FieldID: id, Row: 1, Col: 0})
	require.NoError(t, err)

	f, n, err := repo.FindWithSowedCount(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 10.0, f.Length)
	assert.Equal(t, int64(2), n)
}

func TestFindWithSowedCountMissingField(t *testing.T) {
	repo := New(testutil.OpenDB(t))
	_, _, err := repo.FindWithSowedCount(context.Background(), 42)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := New(testutil.OpenDB(t))
	id, err := repo.Upsert(ctx, &entities.Field{Length: 4, Width: 4, SquareSize: 1, StartSowingDate: day})
	require.NoError(t, err)

	end := day.AddDate(0, 0, 2)
	require.NoError(t, repo.UpdateStatus(ctx, id, "Complete", &end))

	f, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, f.SowingStatus)
	assert.Equal(t, "Complete", *f.SowingStatus)
	require.NotNil(t, f.EndSowingDate)

	assert.True(t, errors.Is(repo.UpdateStatus(ctx, id+100, "Complete", nil), gorm.ErrRecordNotFound))
}
