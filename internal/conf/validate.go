package conf

import (
	"strings"

	"github.com/JAEarly/GardenEye/internal/errors"
)

// Validate checks the settings for internal consistency. It is called by
// Load but exported so tests and callers building Settings by hand can use
// the same checks.
func Validate(settings *Settings) error {
	if settings.Media.Root == "" {
		return errors.Newf("media.root must be set").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if settings.Media.ChunkSize <= 0 {
		return errors.Newf("media.chunksize must be positive, got %d", settings.Media.ChunkSize).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if !strings.HasPrefix(settings.Media.VideoExtension, ".") {
		return errors.Newf("media.videoextension must start with a dot, got %q", settings.Media.VideoExtension).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if settings.Pipeline.Concurrency < 1 {
		return errors.Newf("pipeline.concurrency must be at least 1, got %d", settings.Pipeline.Concurrency).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if settings.Pipeline.BatchSize < 1 {
		return errors.Newf("pipeline.batchsize must be at least 1, got %d", settings.Pipeline.BatchSize).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if settings.Pipeline.NightTolerance < 0 {
		return errors.Newf("pipeline.nighttolerance must not be negative, got %f", settings.Pipeline.NightTolerance).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if !settings.Output.SQLite.Enabled {
		return errors.Newf("output.sqlite must be enabled, no other backend is supported").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if settings.Output.SQLite.Path == "" {
		return errors.Newf("output.sqlite.path must be set").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}
