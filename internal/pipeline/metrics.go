// metrics.go implements the derived per-asset metrics: thumbnail
// extraction, night classification, and movement scoring.
package pipeline

import (
	"context"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/JAEarly/GardenEye/internal/datastore"
	"github.com/JAEarly/GardenEye/internal/video"
)

// ensureThumbnail extracts the representative frame for an asset unless the
// artifact already exists. The artifact path is a pure function of the
// asset ID, so the operation is idempotent and an earlier tool failure is
// retried on the next run.
func (p *Pipeline) ensureThumbnail(ctx context.Context, asset datastore.Asset) error {
	thumbPath := p.settings.Media.ThumbnailPath(asset.ID)
	if _, err := os.Stat(thumbPath); err == nil {
		return nil
	}
	return p.tools.ExtractFrame(ctx, asset.Path, thumbPath,
		p.settings.Pipeline.Thumbnail.OffsetSec, p.settings.Pipeline.Thumbnail.Size)
}

// classifyNight decides whether the asset is a night (infrared) recording
// from its thumbnail's color statistics and persists the flag. Requires the
// thumbnail to exist.
func (p *Pipeline) classifyNight(asset datastore.Asset) error {
	thumbPath := p.settings.Media.ThumbnailPath(asset.ID)
	f, err := os.Open(thumbPath)
	if err != nil {
		return fmt.Errorf("opening thumbnail: %w", err)
	}
	defer f.Close()

	img, err := jpeg.Decode(f)
	if err != nil {
		return fmt.Errorf("decoding thumbnail %s: %w", thumbPath, err)
	}

	isNight := video.ClassifyNight(img, p.settings.Pipeline.NightTolerance)
	return p.store.SetNight(asset.ID, isNight)
}

// scoreMovement computes the whole-video movement score and persists it.
// When the artifact flag is set it also encodes a frame-difference video
// next to the source; discovery excludes that artifact by suffix.
func (p *Pipeline) scoreMovement(ctx context.Context, asset datastore.Asset) error {
	width, height, frameRate, err := p.tools.Probe(ctx, asset.Path)
	if err != nil {
		return err
	}

	src, err := p.tools.OpenFrameSource(ctx, asset.Path, width, height)
	if err != nil {
		return err
	}
	defer src.Close()

	var sink video.DiffSink
	if p.settings.Pipeline.Movement.Artifact {
		sink, err = p.tools.NewDiffSink(ctx, movementArtifactPath(asset.Path), width, height, frameRate)
		if err != nil {
			return err
		}
		defer sink.Close()
	}

	score, err := video.Score(src, sink)
	if err != nil {
		return err
	}

	if err := p.store.SetMovementScore(asset.ID, score); err != nil {
		return err
	}
	p.logger.Info("movement scored", "path", asset.Path, "score", score)
	return nil
}

// movementArtifactPath returns the sibling path for the difference video.
func movementArtifactPath(videoPath string) string {
	ext := filepath.Ext(videoPath)
	stem := strings.TrimSuffix(videoPath, ext)
	return stem + "_movement.mp4"
}
