package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir()) // keep a real user config out of the test
	t.Setenv("GARDENEYE_MEDIA_ROOT", "/videos")
	t.Setenv("GARDENEYE_PIPELINE_CONCURRENCY", "4")
	t.Setenv("GARDENEYE_WEBSERVER_PORT", "9090")

	settings, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/videos", settings.Media.Root)
	assert.Equal(t, 4, settings.Pipeline.Concurrency)
	assert.Equal(t, "9090", settings.WebServer.Port)
	require.NoError(t, Validate(settings))
}

func TestLoadDoesNotValidate(t *testing.T) {
	// No config file and no env: media.root stays empty so the loaded
	// settings are incomplete, but Load must still succeed because flags
	// can supply the missing values before validation runs.
	t.Setenv("HOME", t.TempDir())
	settings, err := Load()
	require.NoError(t, err)

	assert.Empty(t, settings.Media.Root)
	assert.Error(t, Validate(settings))

	// Defaults are in place for everything else
	assert.Equal(t, ".mp4", settings.Media.VideoExtension)
	assert.Equal(t, 1024*1024, settings.Media.ChunkSize)
	assert.Equal(t, "8080", settings.WebServer.Port)
}
