package pipeline

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/JAEarly/GardenEye/internal/datastore"
	"github.com/JAEarly/GardenEye/internal/errors"
)

// derivativeSuffixes mark files generated by the pipeline itself. They live
// next to the sources but must never be cataloged as assets.
var derivativeSuffixes = []string{"_movement", "_annotated"}

// isDerivative reports whether the file name stem marks a pipeline artifact.
func isDerivative(name string) bool {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	for _, suffix := range derivativeSuffixes {
		if strings.HasSuffix(stem, suffix) {
			return true
		}
	}
	return false
}

// Discover recursively scans the media root for source videos and registers
// any it has not seen before, returning the number newly added. The walk is
// idempotent: the insert ignores conflicts on the unique path key and
// existing rows are never refreshed, so re-scanning an unchanged tree is a
// no-op.
func (p *Pipeline) Discover() (int, error) {
	root := p.settings.Media.Root
	ext := strings.ToLower(p.settings.Media.VideoExtension)

	var candidates []datastore.Asset
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) != ext || isDerivative(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		candidates = append(candidates, datastore.Asset{
			Path:          path,
			Size:          info.Size(),
			Modified:      info.ModTime(),
			MovementScore: datastore.MovementNotComputed,
		})
		return nil
	})
	if err != nil {
		return 0, errors.New(err).
			Component("pipeline").
			Category(errors.CategoryFileIO).
			Context("root", root).
			Build()
	}

	added, err := p.store.InsertAssets(candidates)
	if err != nil {
		return 0, err
	}
	p.metrics.AssetsDiscovered.Add(float64(added))
	p.logger.Info("discovery finished",
		"root", root, "candidates", len(candidates), "added", added)
	return int(added), nil
}
