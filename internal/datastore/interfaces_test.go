package datastore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JAEarly/GardenEye/internal/conf"
	"github.com/JAEarly/GardenEye/internal/errors"
)

// createDatabase initializes a temporary database for testing purposes.
// It ensures the database connection is opened and handles potential errors.
func createDatabase(t *testing.T) Interface {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = t.TempDir() + "/test.db"

	store := New(settings)
	require.NoError(t, store.Open(), "Failed to open database")

	t.Cleanup(func() {
		assert.NoError(t, store.Close(), "Failed to close datastore")
	})

	return store
}

func testAsset(path string) Asset {
	return Asset{
		Path:          path,
		Size:          1024,
		Modified:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		MovementScore: MovementNotComputed,
	}
}

func TestInsertAssetsIgnoresPathConflicts(t *testing.T) {
	store := createDatabase(t)

	created, err := store.InsertAssets([]Asset{testAsset("a.mp4"), testAsset("b.mp4")})
	require.NoError(t, err)
	assert.Equal(t, int64(2), created)

	// Overlapping second insert: only the new path is created
	created, err = store.InsertAssets([]Asset{testAsset("b.mp4"), testAsset("c.mp4")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created)

	assets, err := store.GetAllAssets()
	require.NoError(t, err)
	assert.Len(t, assets, 3)
}

func TestInsertAssetsDoesNotMutateExistingRows(t *testing.T) {
	store := createDatabase(t)

	original := testAsset("clip.mp4")
	_, err := store.InsertAssets([]Asset{original})
	require.NoError(t, err)

	changed := testAsset("clip.mp4")
	changed.Size = 9999
	created, err := store.InsertAssets([]Asset{changed})
	require.NoError(t, err)
	assert.Zero(t, created)

	got, err := store.GetAssetByPath("clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, original.Size, got.Size)
}

func TestPathRoundTripsExactly(t *testing.T) {
	store := createDatabase(t)

	path := "SubDir/Garden CAM_01.MP4"
	_, err := store.InsertAssets([]Asset{testAsset(path)})
	require.NoError(t, err)

	got, err := store.GetAssetByPath(path)
	require.NoError(t, err)
	assert.Equal(t, path, got.Path)
}

func TestGetAssetNotFound(t *testing.T) {
	store := createDatabase(t)

	_, err := store.GetAsset(12345)
	require.Error(t, err)
	assert.Equal(t, errors.CategoryNotFound, errors.CategoryOf(err))
}

func TestMarkProcessedTransitionsExactlyOnce(t *testing.T) {
	store := createDatabase(t)

	_, err := store.InsertAssets([]Asset{testAsset("clip.mp4")})
	require.NoError(t, err)
	asset, err := store.GetAssetByPath("clip.mp4")
	require.NoError(t, err)
	assert.False(t, asset.Processed)

	require.NoError(t, store.MarkProcessed(asset.ID, 0.25))

	got, err := store.GetAsset(asset.ID)
	require.NoError(t, err)
	assert.True(t, got.Processed)
	assert.InDelta(t, 0.25, got.WildlifeProp, 1e-9)

	// Second transition is rejected and the stored values survive
	err = store.MarkProcessed(asset.ID, 0.99)
	require.Error(t, err)

	got, err = store.GetAsset(asset.ID)
	require.NoError(t, err)
	assert.True(t, got.Processed)
	assert.InDelta(t, 0.25, got.WildlifeProp, 1e-9)
}

func TestUnprocessedAssetSelection(t *testing.T) {
	store := createDatabase(t)

	_, err := store.InsertAssets([]Asset{testAsset("a.mp4"), testAsset("b.mp4")})
	require.NoError(t, err)

	pending, err := store.GetUnprocessedAssets()
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.NoError(t, store.MarkProcessed(pending[0].ID, 0))

	pending, err = store.GetUnprocessedAssets()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b.mp4", pending[0].Path)
}

func TestSaveAndDeleteAnnotations(t *testing.T) {
	store := createDatabase(t)

	_, err := store.InsertAssets([]Asset{testAsset("clip.mp4")})
	require.NoError(t, err)
	asset, err := store.GetAssetByPath("clip.mp4")
	require.NoError(t, err)

	rows := []Annotation{
		{AssetID: asset.ID, FrameIdx: 0, Name: "dog", ClassID: 16, Confidence: 0.9, X1: 1, Y1: 2, X2: 3, Y2: 4},
		{AssetID: asset.ID, FrameIdx: 1, Name: "dog", ClassID: 16, Confidence: 0.8, X1: 1, Y1: 2, X2: 3, Y2: 4},
		{AssetID: asset.ID, FrameIdx: 2, Name: "bird", ClassID: 14, Confidence: 0.7, X1: 1, Y1: 2, X2: 3, Y2: 4},
	}
	// Batch size smaller than the row count exercises chunked insertion
	require.NoError(t, store.SaveAnnotations(rows, 2))

	got, err := store.AnnotationsForAsset(asset.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 0, got[0].FrameIdx)
	assert.Equal(t, "bird", got[2].Name)

	require.NoError(t, store.DeleteAnnotations(asset.ID))
	got, err = store.AnnotationsForAsset(asset.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSetNightAndMovementScore(t *testing.T) {
	store := createDatabase(t)

	_, err := store.InsertAssets([]Asset{testAsset("clip.mp4")})
	require.NoError(t, err)
	asset, err := store.GetAssetByPath("clip.mp4")
	require.NoError(t, err)
	assert.InDelta(t, float64(MovementNotComputed), asset.MovementScore, 1e-9)

	require.NoError(t, store.SetNight(asset.ID, true))
	require.NoError(t, store.SetMovementScore(asset.ID, 0.42))

	got, err := store.GetAsset(asset.ID)
	require.NoError(t, err)
	assert.True(t, got.IsNight)
	assert.InDelta(t, 0.42, got.MovementScore, 1e-9)
}
