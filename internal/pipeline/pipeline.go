// Package pipeline implements the asset lifecycle: discovery of source
// videos, the per-asset annotation state machine, and the derived metrics
// (thumbnails, night classification, movement scores).
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JAEarly/GardenEye/internal/conf"
	"github.com/JAEarly/GardenEye/internal/datastore"
	"github.com/JAEarly/GardenEye/internal/detection"
	"github.com/JAEarly/GardenEye/internal/errors"
	"github.com/JAEarly/GardenEye/internal/logging"
	"github.com/JAEarly/GardenEye/internal/observability"
	"github.com/JAEarly/GardenEye/internal/video"
)

// Pipeline orchestrates the enrichment of discovered assets. All
// collaborators are passed in at construction; the pipeline holds no global
// state.
type Pipeline struct {
	settings *conf.Settings
	store    datastore.Interface
	detector detection.Detector
	tools    *video.Tools
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New creates a pipeline over the given collaborators.
func New(settings *conf.Settings, store datastore.Interface, detector detection.Detector, tools *video.Tools, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		settings: settings,
		store:    store,
		detector: detector,
		tools:    tools,
		metrics:  metrics,
		logger:   logging.ForService("pipeline"),
	}
}

// Run visits every asset with processed=false, annotates it, and then
// refreshes the derived metrics for the whole catalog. Assets are processed
// in parallel up to the configured concurrency limit, which is bounded by
// the detector's own resource constraints. Per-asset failures are logged
// and counted but do not abort the run; the failed assets stay unprocessed
// and are naturally retried on the next run.
func (p *Pipeline) Run(ctx context.Context) error {
	pending, err := p.store.GetUnprocessedAssets()
	if err != nil {
		return err
	}
	p.logger.Info("pipeline run starting", "pending", len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.settings.Pipeline.Concurrency)
	for _, asset := range pending {
		g.Go(func() error {
			if err := p.annotateAsset(gctx, asset); err != nil {
				// Context cancellation aborts the whole run
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				p.metrics.PipelineErrors.WithLabelValues("annotate").Inc()
				p.logger.Error("annotating asset failed", "path", asset.Path, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return p.refreshDerivedMetrics(ctx)
}

// annotateAsset runs the Discovered -> Processed transition for one asset:
// clear any partial annotation set from an interrupted previous run, run
// the detector, write the full annotation batch atomically, and only after
// the batch commits flip the processed flag with the wildlife proportion.
// A crash between the batch and the flag leaves processed=false, so the
// asset is selected and redone on the next run.
func (p *Pipeline) annotateAsset(ctx context.Context, asset datastore.Asset) error {
	start := time.Now()

	if err := p.store.DeleteAnnotations(asset.ID); err != nil {
		return err
	}

	frames, err := p.detector.Infer(ctx, asset.Path)
	if err != nil {
		return err
	}

	// All raw detections are stored; the target-class allowlist is applied
	// at query time. The allowlist still decides which frames count as
	// wildlife for the proportion metric.
	var rows []datastore.Annotation
	wildlifeFrames := make(map[int]struct{})
	for _, frame := range frames {
		for _, det := range frame.Detections {
			if detection.IsTargetClass(det.Name) {
				wildlifeFrames[frame.FrameIdx] = struct{}{}
			}
			box := det.Box.Normalized()
			rows = append(rows, datastore.Annotation{
				AssetID:    asset.ID,
				FrameIdx:   frame.FrameIdx,
				Name:       det.Name,
				ClassID:    det.ClassID,
				Confidence: det.Confidence,
				X1:         box.X1,
				Y1:         box.Y1,
				X2:         box.X2,
				Y2:         box.Y2,
			})
		}
	}

	// Guard the zero-frame case instead of dividing
	wildlifeProp := 0.0
	if len(frames) > 0 {
		wildlifeProp = float64(len(wildlifeFrames)) / float64(len(frames))
	}

	if err := p.store.SaveAnnotations(rows, p.settings.Pipeline.BatchSize); err != nil {
		return err
	}
	if err := p.store.MarkProcessed(asset.ID, wildlifeProp); err != nil {
		return err
	}

	p.metrics.AssetsProcessed.Inc()
	p.metrics.AnnotationsWritten.Add(float64(len(rows)))
	p.metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("asset annotated",
		"path", asset.Path,
		"frames", len(frames),
		"annotations", len(rows),
		"wildlife_prop", wildlifeProp,
		"duration", time.Since(start))
	return nil
}

// refreshDerivedMetrics walks the whole catalog and fills in missing
// thumbnails, night classifications, and movement scores. Each operation
// is idempotent, so failures here only delay the metric until the next run.
func (p *Pipeline) refreshDerivedMetrics(ctx context.Context) error {
	assets, err := p.store.GetAllAssets()
	if err != nil {
		return err
	}

	for _, asset := range assets {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := p.ensureThumbnail(ctx, asset); err != nil {
			p.metrics.PipelineErrors.WithLabelValues("thumbnail").Inc()
			p.logger.Error("thumbnail generation failed", "path", asset.Path, "error", err)
			continue
		}
		if err := p.classifyNight(asset); err != nil {
			p.metrics.PipelineErrors.WithLabelValues("night").Inc()
			p.logger.Error("night classification failed", "path", asset.Path, "error", err)
		}
		if p.settings.Pipeline.Movement.Enabled && asset.MovementScore == datastore.MovementNotComputed {
			if err := p.scoreMovement(ctx, asset); err != nil {
				p.metrics.PipelineErrors.WithLabelValues("movement").Inc()
				p.logger.Error("movement scoring failed", "path", asset.Path, "error", err)
			}
		}
	}
	return nil
}
