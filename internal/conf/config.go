// Package conf handles the application configuration. It defines the
// Settings struct and functions to load and validate the settings. Settings
// are constructed explicitly at process start and passed into components;
// there is no process-wide mutable singleton.
package conf

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// MediaSettings contains settings for the source media tree and artifacts.
type MediaSettings struct {
	Root           string // root directory containing the source videos
	ThumbnailDir   string // directory for generated thumbnail artifacts
	VideoExtension string // source video extension, matched case-insensitively
	ChunkSize      int    // bytes per streamed chunk
}

// ThumbnailPath returns the artifact path for an asset's thumbnail. It is
// a pure function of the asset identifier so thumbnail generation stays
// idempotent.
func (m *MediaSettings) ThumbnailPath(assetID uint) string {
	return filepath.Join(m.ThumbnailDir, fmt.Sprintf("%d.jpg", assetID))
}

// DetectorSettings contains settings for the external object detector.
type DetectorSettings struct {
	Command string   // path to the detector executable
	Args    []string // extra arguments passed before the video path
}

// ThumbnailSettings contains settings for representative frame extraction.
type ThumbnailSettings struct {
	OffsetSec int    // timestamp offset into the video for the frame
	Size      string // output resolution, WxH
}

// MovementSettings contains settings for movement scoring.
type MovementSettings struct {
	Enabled  bool // compute movement scores during ingest
	Artifact bool // also encode a frame-difference video next to the source
}

// PipelineSettings contains settings for the enrichment pipeline.
type PipelineSettings struct {
	Concurrency    int  // max assets processed in parallel, detector bound
	BatchSize      int  // annotation rows per insert chunk inside the batch transaction
	NightTolerance float64
	Thumbnail      ThumbnailSettings
	Movement       MovementSettings
}

// WebServerSettings contains settings for the HTTP server.
type WebServerSettings struct {
	Enabled bool
	Port    string
	Debug   bool
}

// OutputSettings contains settings for the persistence backend.
type OutputSettings struct {
	SQLite struct {
		Enabled bool
		Path    string
	}
}

// Settings is the root configuration for the application.
type Settings struct {
	Debug       bool
	LogPath     string // rotated JSON log file, stdout when empty
	FfmpegPath  string // path to ffmpeg, resolved from PATH when empty
	FfprobePath string // path to ffprobe, resolved from PATH when empty
	Media       MediaSettings
	Detector    DetectorSettings
	Pipeline    PipelineSettings
	WebServer   WebServerSettings
	Output      OutputSettings
}

// Load reads the configuration from disk and the environment. It does not
// validate: command-line flags may still fill in required values after
// loading, so validation runs after flag binding.
func Load() (*Settings, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/gardeneye")
	v.AddConfigPath("/etc/gardeneye")
	v.SetEnvPrefix("GARDENEYE")
	// Nested keys map to underscored env names, media.root -> GARDENEYE_MEDIA_ROOT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults plus env take over
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return settings, nil
}
