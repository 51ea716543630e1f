package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JAEarly/GardenEye/internal/conf"
	"github.com/JAEarly/GardenEye/internal/datastore"
	"github.com/JAEarly/GardenEye/internal/detection"
	"github.com/JAEarly/GardenEye/internal/observability"
)

// fakeDetector returns canned frames per video path and records its calls.
type fakeDetector struct {
	frames map[string][]detection.FrameDetections
	calls  []string
}

func (f *fakeDetector) Infer(_ context.Context, videoPath string) ([]detection.FrameDetections, error) {
	f.calls = append(f.calls, videoPath)
	return f.frames[videoPath], nil
}

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	dir := t.TempDir()
	s := &conf.Settings{}
	s.Media.Root = filepath.Join(dir, "media")
	s.Media.ThumbnailDir = filepath.Join(dir, "thumbnails")
	s.Media.VideoExtension = ".mp4"
	s.Media.ChunkSize = 1024 * 1024
	s.Pipeline.Concurrency = 1
	s.Pipeline.BatchSize = 50
	s.Pipeline.NightTolerance = 2.0
	s.Output.SQLite.Enabled = true
	s.Output.SQLite.Path = filepath.Join(dir, "test.db")
	require.NoError(t, os.MkdirAll(s.Media.Root, 0o755))
	return s
}

func openStore(t *testing.T, settings *conf.Settings) datastore.Interface {
	t.Helper()
	store := datastore.New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func newTestPipeline(t *testing.T, settings *conf.Settings, store datastore.Interface, det detection.Detector) *Pipeline {
	t.Helper()
	return New(settings, store, det, nil, observability.NewMetrics())
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not a real video"), 0o644))
}

func TestDiscoverRegistersSourceVideos(t *testing.T) {
	settings := testSettings(t)
	store := openStore(t, settings)
	p := newTestPipeline(t, settings, store, &fakeDetector{})

	writeFile(t, filepath.Join(settings.Media.Root, "cam1", "clip_a.mp4"))
	writeFile(t, filepath.Join(settings.Media.Root, "cam1", "CLIP_B.MP4")) // extension matched case-insensitively
	writeFile(t, filepath.Join(settings.Media.Root, "cam2", "clip_c.mp4"))
	writeFile(t, filepath.Join(settings.Media.Root, "notes.txt"))
	writeFile(t, filepath.Join(settings.Media.Root, "cam1", "clip_a_movement.mp4"))  // pipeline artifact
	writeFile(t, filepath.Join(settings.Media.Root, "cam1", "clip_a_annotated.mp4")) // pipeline artifact

	added, err := p.Discover()
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	assets, err := store.GetAllAssets()
	require.NoError(t, err)
	require.Len(t, assets, 3)
	for _, asset := range assets {
		assert.False(t, asset.Processed)
		assert.Positive(t, asset.Size)
	}
}

func TestDiscoverIsIdempotent(t *testing.T) {
	settings := testSettings(t)
	store := openStore(t, settings)
	p := newTestPipeline(t, settings, store, &fakeDetector{})

	writeFile(t, filepath.Join(settings.Media.Root, "clip_a.mp4"))
	writeFile(t, filepath.Join(settings.Media.Root, "clip_b.mp4"))

	added, err := p.Discover()
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	// Second scan over an unchanged tree adds nothing
	added, err = p.Discover()
	require.NoError(t, err)
	assert.Zero(t, added)

	// Overlapping scan after one new file adds exactly that file
	writeFile(t, filepath.Join(settings.Media.Root, "clip_c.mp4"))
	added, err = p.Discover()
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	assets, err := store.GetAllAssets()
	require.NoError(t, err)
	assert.Len(t, assets, 3)
}

func TestIsDerivative(t *testing.T) {
	assert.True(t, isDerivative("clip_movement.mp4"))
	assert.True(t, isDerivative("clip_annotated.mp4"))
	assert.False(t, isDerivative("clip.mp4"))
	assert.False(t, isDerivative("movement_study.mp4"))
}

func detections(names ...string) []detection.Detection {
	dets := make([]detection.Detection, 0, len(names))
	for _, name := range names {
		classID := -1
		for id, n := range detection.WildlifeLabels {
			if n == name {
				classID = id
				break
			}
		}
		dets = append(dets, detection.Detection{
			ClassID:    classID,
			Name:       name,
			Confidence: 0.9,
			Box:        detection.BoundingBox{X1: 1, Y1: 1, X2: 2, Y2: 2},
		})
	}
	return dets
}

func TestAnnotateAssetComputesWildlifeProportion(t *testing.T) {
	settings := testSettings(t)
	store := openStore(t, settings)

	path := filepath.Join(settings.Media.Root, "clip.mp4")
	writeFile(t, path)

	det := &fakeDetector{frames: map[string][]detection.FrameDetections{
		path: {
			{FrameIdx: 0, Detections: detections("dog")},
			{FrameIdx: 1, Detections: nil},
			{FrameIdx: 2, Detections: detections("dog", "bird")},
			{FrameIdx: 3, Detections: nil},
		},
	}}
	p := newTestPipeline(t, settings, store, det)

	_, err := p.Discover()
	require.NoError(t, err)
	asset, err := store.GetAssetByPath(path)
	require.NoError(t, err)

	require.NoError(t, p.annotateAsset(context.Background(), asset))

	got, err := store.GetAsset(asset.ID)
	require.NoError(t, err)
	assert.True(t, got.Processed)
	assert.InDelta(t, 0.5, got.WildlifeProp, 1e-9) // 2 of 4 frames

	rows, err := store.AnnotationsForAsset(asset.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestAnnotateAssetZeroFrames(t *testing.T) {
	settings := testSettings(t)
	store := openStore(t, settings)

	path := filepath.Join(settings.Media.Root, "empty.mp4")
	writeFile(t, path)

	p := newTestPipeline(t, settings, store, &fakeDetector{})
	_, err := p.Discover()
	require.NoError(t, err)
	asset, err := store.GetAssetByPath(path)
	require.NoError(t, err)

	// No frames at all: proportion is defined as 0, never NaN
	require.NoError(t, p.annotateAsset(context.Background(), asset))

	got, err := store.GetAsset(asset.ID)
	require.NoError(t, err)
	assert.True(t, got.Processed)
	assert.Zero(t, got.WildlifeProp)
}

func TestAnnotateAssetClearsPartialWrites(t *testing.T) {
	settings := testSettings(t)
	store := openStore(t, settings)

	path := filepath.Join(settings.Media.Root, "clip.mp4")
	writeFile(t, path)

	det := &fakeDetector{frames: map[string][]detection.FrameDetections{
		path: {{FrameIdx: 0, Detections: detections("cat")}},
	}}
	p := newTestPipeline(t, settings, store, det)

	_, err := p.Discover()
	require.NoError(t, err)
	asset, err := store.GetAssetByPath(path)
	require.NoError(t, err)

	// Simulate a crash after a partial batch commit: rows exist but the
	// processed flag was never flipped
	stale := []datastore.Annotation{
		{AssetID: asset.ID, FrameIdx: 0, Name: "dog", ClassID: 16, Confidence: 0.5},
		{AssetID: asset.ID, FrameIdx: 1, Name: "dog", ClassID: 16, Confidence: 0.5},
	}
	require.NoError(t, store.SaveAnnotations(stale, 50))

	require.NoError(t, p.annotateAsset(context.Background(), asset))

	// The redone run produced exactly one annotation set, not a union
	rows, err := store.AnnotationsForAsset(asset.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "cat", rows[0].Name)
}

func TestRunSkipsProcessedAssets(t *testing.T) {
	settings := testSettings(t)
	store := openStore(t, settings)

	pathA := filepath.Join(settings.Media.Root, "a.mp4")
	pathB := filepath.Join(settings.Media.Root, "b.mp4")
	writeFile(t, pathA)
	writeFile(t, pathB)

	det := &fakeDetector{frames: map[string][]detection.FrameDetections{}}
	p := newTestPipeline(t, settings, store, det)

	_, err := p.Discover()
	require.NoError(t, err)
	assetA, err := store.GetAssetByPath(pathA)
	require.NoError(t, err)
	require.NoError(t, store.MarkProcessed(assetA.ID, 0.1))

	pending, err := store.GetUnprocessedAssets()
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, p.annotateAsset(context.Background(), pending[0]))
	assert.Equal(t, []string{pathB}, det.calls)
}

func TestNormalizesInvertedBoxes(t *testing.T) {
	settings := testSettings(t)
	store := openStore(t, settings)

	path := filepath.Join(settings.Media.Root, "clip.mp4")
	writeFile(t, path)

	det := &fakeDetector{frames: map[string][]detection.FrameDetections{
		path: {{FrameIdx: 0, Detections: []detection.Detection{{
			ClassID:    16,
			Name:       "dog",
			Confidence: 0.8,
			Box:        detection.BoundingBox{X1: 50, Y1: 60, X2: 10, Y2: 20},
		}}}},
	}}
	p := newTestPipeline(t, settings, store, det)

	_, err := p.Discover()
	require.NoError(t, err)
	asset, err := store.GetAssetByPath(path)
	require.NoError(t, err)
	require.NoError(t, p.annotateAsset(context.Background(), asset))

	rows, err := store.AnnotationsForAsset(asset.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.LessOrEqual(t, rows[0].X1, rows[0].X2)
	assert.LessOrEqual(t, rows[0].Y1, rows[0].Y2)
}
