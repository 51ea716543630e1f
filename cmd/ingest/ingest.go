// Package ingest implements the catalog build command: discover source
// videos, run the annotation pipeline, and refresh the derived metrics.
package ingest

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/JAEarly/GardenEye/internal/conf"
	"github.com/JAEarly/GardenEye/internal/datastore"
	"github.com/JAEarly/GardenEye/internal/detection"
	"github.com/JAEarly/GardenEye/internal/observability"
	"github.com/JAEarly/GardenEye/internal/pipeline"
	"github.com/JAEarly/GardenEye/internal/video"
)

// Command creates the ingest command.
func Command(settings *conf.Settings) *cobra.Command {
	var discoverOnly bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Discover and annotate source videos",
		Long:  "Scan the media root for new videos, annotate unprocessed ones with the object detector, and refresh thumbnails, night flags, and movement scores.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), settings, discoverOnly)
		},
	}

	cmd.Flags().BoolVar(&discoverOnly, "discover-only", false, "Register new videos without running the annotation pipeline")
	cmd.Flags().IntVar(&settings.Pipeline.Concurrency, "concurrency", settings.Pipeline.Concurrency, "Number of videos annotated in parallel")

	return cmd
}

func runIngest(ctx context.Context, settings *conf.Settings, discoverOnly bool) error {
	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	tools, err := video.NewTools(settings.FfmpegPath, settings.FfprobePath)
	if err != nil {
		return err
	}

	detector := detection.NewCommandDetector(settings.Detector.Command, settings.Detector.Args)
	p := pipeline.New(settings, store, detector, tools, observability.NewMetrics())

	if _, err := p.Discover(); err != nil {
		return err
	}
	if discoverOnly {
		return nil
	}
	return p.Run(ctx)
}
