package conf

import "github.com/spf13/viper"

// setDefaults registers the default configuration values with viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("logpath", "logs/gardeneye.log")
	v.SetDefault("ffmpegpath", "")
	v.SetDefault("ffprobepath", "")

	// Media
	v.SetDefault("media.root", "")
	v.SetDefault("media.thumbnaildir", "data/thumbnails")
	v.SetDefault("media.videoextension", ".mp4")
	v.SetDefault("media.chunksize", 1024*1024)

	// Detector
	v.SetDefault("detector.command", "")
	v.SetDefault("detector.args", []string{})

	// Pipeline
	v.SetDefault("pipeline.concurrency", 1)
	v.SetDefault("pipeline.batchsize", 50)
	v.SetDefault("pipeline.nighttolerance", 2.0)
	v.SetDefault("pipeline.thumbnail.offsetsec", 1)
	v.SetDefault("pipeline.thumbnail.size", "280x157")
	v.SetDefault("pipeline.movement.enabled", false)
	v.SetDefault("pipeline.movement.artifact", false)

	// WebServer
	v.SetDefault("webserver.enabled", true)
	v.SetDefault("webserver.port", "8080")
	v.SetDefault("webserver.debug", false)

	// Output
	v.SetDefault("output.sqlite.enabled", true)
	v.SetDefault("output.sqlite.path", "data/gardeneye.db")
}
