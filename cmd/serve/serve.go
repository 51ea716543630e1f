// Package serve implements the web server command.
package serve

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JAEarly/GardenEye/internal/api"
	"github.com/JAEarly/GardenEye/internal/conf"
	"github.com/JAEarly/GardenEye/internal/datastore"
	"github.com/JAEarly/GardenEye/internal/detection"
	"github.com/JAEarly/GardenEye/internal/logging"
	"github.com/JAEarly/GardenEye/internal/observability"
	"github.com/JAEarly/GardenEye/internal/pipeline"
	"github.com/JAEarly/GardenEye/internal/video"
)

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	var ingestInterval time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the video catalog over HTTP",
		Long:  "Start the HTTP server for the catalog API and video streaming, optionally re-running discovery and annotation on an interval.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), settings, ingestInterval)
		},
	}

	cmd.Flags().StringVar(&settings.WebServer.Port, "port", settings.WebServer.Port, "Port for the web server")
	cmd.Flags().DurationVar(&ingestInterval, "ingest-interval", 0, "Re-run discovery and annotation on this interval (0 disables)")

	return cmd
}

func runServe(ctx context.Context, settings *conf.Settings, ingestInterval time.Duration) error {
	logger := logging.ForService("serve")

	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	metrics := observability.NewMetrics()
	server := api.NewServer(settings, store, metrics)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(ctx)
	})

	if ingestInterval > 0 {
		tools, err := video.NewTools(settings.FfmpegPath, settings.FfprobePath)
		if err != nil {
			return err
		}
		detector := detection.NewCommandDetector(settings.Detector.Command, settings.Detector.Args)
		p := pipeline.New(settings, store, detector, tools, metrics)

		g.Go(func() error {
			ticker := time.NewTicker(ingestInterval)
			defer ticker.Stop()
			for {
				if _, err := p.Discover(); err != nil {
					logger.Error("discovery failed", "error", err)
				} else if err := p.Run(ctx); err != nil {
					logger.Error("pipeline run failed", "error", err)
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
				}
			}
		})
	}

	return g.Wait()
}
